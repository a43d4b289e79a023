package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sevigo/pdfchat/schema"
)

// Loader produces documents from a source file.
type Loader interface {
	Load(ctx context.Context) ([]schema.Document, error)
}

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("documentloaders: unsupported file format")

// ForFile returns a loader for the given path based on its extension.
// Supported: .pdf, .md, .markdown, .txt, .text.
func ForFile(path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(path), nil
	case ".md", ".markdown":
		return NewMarkdown(path), nil
	case ".txt", ".text":
		return NewText(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
