package vectorstores

import (
	"context"

	"github.com/sevigo/pdfchat/schema"
)

// retriever adapts a VectorStore to schema.Retriever with a fixed
// result count and per-call options.
type retriever struct {
	store   VectorStore
	numDocs int
	options []Option
}

var _ schema.Retriever = retriever{}

func (r retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.store.SimilaritySearch(ctx, query, r.numDocs, r.options...)
}

// ToRetriever wraps a vector store as a retriever returning the top
// numDocs results for each query. Options are applied to every search.
func ToRetriever(store VectorStore, numDocs int, options ...Option) schema.Retriever {
	return retriever{
		store:   store,
		numDocs: numDocs,
		options: options,
	}
}
