package documentloaders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sevigo/pdfchat/schema"
)

// ErrNoText is returned when a PDF contains no extractable text.
var ErrNoText = errors.New("documentloaders: no text extracted from PDF")

var (
	spaceRuns      = regexp.MustCompile(`[ \t]+`)
	blankLineRuns  = regexp.MustCompile(`\n[ \t]*\n`)
	tripleNewlines = regexp.MustCompile(`\n{3,}`)
)

// PDF loads a PDF file from disk, producing one document per page with
// source, page and total_pages metadata.
type PDF struct {
	path   string
	logger *slog.Logger
}

// PDFOption configures a PDF loader.
type PDFOption func(*PDF)

// WithLogger sets the logger for the PDF loader.
func WithLogger(logger *slog.Logger) PDFOption {
	return func(l *PDF) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewPDF creates a loader for the PDF file at path.
func NewPDF(path string, opts ...PDFOption) *PDF {
	l := &PDF{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load extracts page-level text from the PDF.
func (l *PDF) Load(ctx context.Context) ([]schema.Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to open PDF %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to stat PDF %s: %w", l.path, err)
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to read PDF %s: %w", l.path, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		l.logger.Warn("PDF has no pages", "path", l.path)
		return nil, ErrNoText
	}

	l.logger.Debug("PDF text extraction starting", "path", l.path, "pages", numPages)

	docs := make([]schema.Document, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			l.logger.Warn("Skipping null page", "page", i, "path", l.path)
			continue
		}

		text := l.extractPageText(page, i)
		if text == "" {
			continue
		}

		docs = append(docs, schema.NewDocument(text, map[string]any{
			"source":      l.path,
			"page":        i,
			"total_pages": numPages,
		}))
	}

	if len(docs) == 0 {
		return nil, ErrNoText
	}

	l.logger.Debug("PDF text extraction finished",
		"path", l.path, "pages_with_text", len(docs))
	return docs, nil
}

// extractPageText extracts text from a single PDF page, falling back to
// token-level assembly when plain text extraction yields nothing.
func (l *PDF) extractPageText(page pdf.Page, pageNum int) string {
	if content, err := page.GetPlainText(nil); err == nil && strings.TrimSpace(content) != "" {
		return cleanExtractedText(content)
	}

	var textBuilder bytes.Buffer
	content := page.Content()
	for i, token := range content.Text {
		textBuilder.WriteString(token.S)
		if i < len(content.Text)-1 && !strings.HasSuffix(token.S, " ") && !strings.HasSuffix(token.S, "\n") {
			textBuilder.WriteString(" ")
		}
	}

	extracted := textBuilder.String()
	if strings.TrimSpace(extracted) == "" {
		l.logger.Debug("No text extracted from page", "page", pageNum, "path", l.path)
		return ""
	}
	return cleanExtractedText(extracted)
}

// cleanExtractedText normalizes whitespace in extracted text.
func cleanExtractedText(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	text = tripleNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
