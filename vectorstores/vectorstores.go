package vectorstores

import (
	"context"
	"errors"
	"maps"

	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/schema"
)

var (
	// ErrCollectionNotFound is returned when an operation targets a
	// collection that does not exist in the backing store.
	ErrCollectionNotFound = errors.New("vectorstores: collection not found")

	// ErrMissingEmbedder is returned when a store is used without an
	// embedder configured or passed per call.
	ErrMissingEmbedder = errors.New("vectorstores: embedder is required")
)

// VectorStore stores embedded documents and answers similarity queries.
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []schema.Document, options ...Option) ([]string, error)
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...Option) ([]schema.Document, error)
	SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...Option) ([]DocumentWithScore, error)
}

// CollectionManager exposes collection lifecycle operations for stores
// that support multiple named collections.
type CollectionManager interface {
	CreateCollection(ctx context.Context, name string, dimension int) error
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]schema.CollectionInfo, error)
	HasCollection(ctx context.Context, name string) (bool, error)
}

// DocumentRemover deletes stored documents whose metadata matches every
// key/value pair of a filter, without dropping the collection.
type DocumentRemover interface {
	DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...Option) error
}

// DocumentWithScore pairs a retrieved document with its similarity score.
type DocumentWithScore struct {
	Document schema.Document
	Score    float32
}

// Option configures a single vector store call.
type Option func(*Options)

// Options holds per-call settings shared by all store implementations.
type Options struct {
	Embedder       embeddings.Embedder
	NameSpace      string
	ScoreThreshold float32
	Filters        map[string]any
}

// WithEmbedder overrides the store's embedder for one call.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *Options) {
		opts.Embedder = embedder
	}
}

// WithNameSpace targets a collection other than the store's default.
func WithNameSpace(namespace string) Option {
	return func(opts *Options) {
		opts.NameSpace = namespace
	}
}

// WithScoreThreshold drops results scoring below threshold.
func WithScoreThreshold(threshold float32) Option {
	return func(opts *Options) {
		opts.ScoreThreshold = threshold
	}
}

// WithFilters restricts a search to documents whose metadata matches
// every key/value pair in filters.
func WithFilters(filters map[string]any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		maps.Copy(opts.Filters, filters)
	}
}

// WithFilter adds a single metadata filter.
func WithFilter(key string, value any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		opts.Filters[key] = value
	}
}

// ParseOptions folds options into an Options value.
func ParseOptions(options ...Option) Options {
	opts := Options{
		Filters: make(map[string]any),
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}
