package fake

import (
	"context"

	"github.com/sevigo/pdfchat/schema"
)

// Retriever is a mock retriever for testing purposes.
type Retriever struct {
	DocsToReturn []schema.Document
	ErrToReturn  error
	LastQuery    string
}

// NewRetriever creates a new fake retriever.
func NewRetriever() *Retriever {
	return &Retriever{}
}

// GetRelevantDocuments returns the pre-configured documents and error.
func (r *Retriever) GetRelevantDocuments(_ context.Context, query string) ([]schema.Document, error) {
	r.LastQuery = query
	return r.DocsToReturn, r.ErrToReturn
}
