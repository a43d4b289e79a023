package documentloaders

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sevigo/pdfchat/schema"
)

// Text loads a plain-text file from disk as a single document.
type Text struct {
	path string
}

// NewText creates a loader for the text file at path.
func NewText(path string) *Text {
	return &Text{path: path}
}

func (l *Text) Load(_ context.Context) ([]schema.Document, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("documentloaders: failed to read text file %s: %w", l.path, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("documentloaders: text file %s is empty", l.path)
	}

	doc := schema.NewDocument(string(content), map[string]any{
		"source": l.path,
		"format": "text",
	})
	return []schema.Document{doc}, nil
}
