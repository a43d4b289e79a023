// Package chatbot wires document loading, vector storage and language
// models into a document question-answering bot.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/pdfchat/documentloaders"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/textsplitter"
)

var (
	ErrNoFiles         = errors.New("chatbot: no files to process")
	ErrInvalidFilename = errors.New("chatbot: invalid file name")
)

// DocumentProcessor turns uploaded files into chunked documents ready
// for embedding: save to the upload directory, load page text, split
// into overlapping chunks.
type DocumentProcessor struct {
	uploadDir string
	splitter  textsplitter.TextSplitter
	logger    *slog.Logger
}

// ProcessorOption configures a DocumentProcessor.
type ProcessorOption func(*DocumentProcessor)

// WithSplitter overrides the default recursive character splitter.
func WithSplitter(splitter textsplitter.TextSplitter) ProcessorOption {
	return func(p *DocumentProcessor) {
		if splitter != nil {
			p.splitter = splitter
		}
	}
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *DocumentProcessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewDocumentProcessor creates a processor that stores uploads under
// uploadDir, creating the directory if needed.
func NewDocumentProcessor(uploadDir string, opts ...ProcessorOption) (*DocumentProcessor, error) {
	if strings.TrimSpace(uploadDir) == "" {
		return nil, errors.New("chatbot: upload directory is required")
	}
	if err := os.MkdirAll(uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("chatbot: creating upload directory: %w", err)
	}

	p := &DocumentProcessor{
		uploadDir: uploadDir,
		splitter:  textsplitter.NewRecursiveCharacter(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "document_processor")

	return p, nil
}

// SaveUpload writes an uploaded file into the upload directory and
// returns its path. The name is reduced to its base to keep uploads
// inside the directory.
func (p *DocumentProcessor) SaveUpload(name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrInvalidFilename
	}

	path := filepath.Join(p.uploadDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("chatbot: creating upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return "", fmt.Errorf("chatbot: writing upload: %w", err)
	}

	p.logger.Info("upload saved", "file", name, "bytes", written)
	return path, nil
}

// ProcessFile loads one file and splits it into chunks.
func (p *DocumentProcessor) ProcessFile(ctx context.Context, path string) ([]schema.Document, error) {
	loader, err := documentloaders.ForFile(path)
	if err != nil {
		return nil, err
	}

	docs, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatbot: loading %s: %w", filepath.Base(path), err)
	}

	chunks, err := p.splitter.SplitDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("chatbot: splitting %s: %w", filepath.Base(path), err)
	}

	p.logger.InfoContext(ctx, "file processed",
		"file", filepath.Base(path), "pages", len(docs), "chunks", len(chunks))
	return chunks, nil
}

// ProcessFiles loads and splits several files, concatenating the chunks.
func (p *DocumentProcessor) ProcessFiles(ctx context.Context, paths []string) ([]schema.Document, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	var chunks []schema.Document
	for _, path := range paths {
		fileChunks, err := p.ProcessFile(ctx, path)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, fileChunks...)
	}
	return chunks, nil
}

// UploadDir returns the directory uploads are stored in.
func (p *DocumentProcessor) UploadDir() string {
	return p.uploadDir
}
