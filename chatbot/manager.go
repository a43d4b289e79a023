package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

const defaultTopK = 4

var ErrCollectionMissing = errors.New("chatbot: collection does not exist")

// Store is the vector store surface the manager needs: document
// operations, per-source deletion and collection lifecycle.
type Store interface {
	vectorstores.VectorStore
	vectorstores.CollectionManager
	vectorstores.DocumentRemover
}

// VectorStoreManager owns one named collection in a vector store:
// creation, loading, document ingestion, search and the retriever view
// used by the QA chain.
type VectorStoreManager struct {
	store      Store
	embedder   embeddings.Embedder
	collection string
	topK       int
	logger     *slog.Logger
}

// ManagerOption configures a VectorStoreManager.
type ManagerOption func(*VectorStoreManager)

// WithTopK sets the default number of retrieved documents.
func WithTopK(k int) ManagerOption {
	return func(m *VectorStoreManager) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *VectorStoreManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewVectorStoreManager binds a store, an embedder and a collection name.
func NewVectorStoreManager(store Store, embedder embeddings.Embedder, collection string, opts ...ManagerOption) (*VectorStoreManager, error) {
	if store == nil {
		return nil, errors.New("chatbot: vector store is required")
	}
	if embedder == nil {
		return nil, errors.New("chatbot: embedder is required")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("chatbot: collection name is required")
	}

	m := &VectorStoreManager{
		store:      store,
		embedder:   embedder,
		collection: collection,
		topK:       defaultTopK,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "vectorstore_manager", "collection", collection)

	return m, nil
}

// CreateCollection creates the collection from scratch, dropping any
// existing collection of the same name first. The embedding dimension
// is discovered from the embedder.
func (m *VectorStoreManager) CreateCollection(ctx context.Context) error {
	exists, err := m.store.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("chatbot: checking collection: %w", err)
	}
	if exists {
		m.logger.InfoContext(ctx, "dropping existing collection before recreation")
		if err := m.store.DeleteCollection(ctx, m.collection); err != nil {
			return fmt.Errorf("chatbot: dropping collection: %w", err)
		}
	}

	dimension, err := m.embedder.GetDimension(ctx)
	if err != nil {
		return fmt.Errorf("chatbot: resolving embedding dimension: %w", err)
	}

	if err := m.store.CreateCollection(ctx, m.collection, dimension); err != nil {
		return fmt.Errorf("chatbot: creating collection: %w", err)
	}
	return nil
}

// LoadCollection attaches to an existing collection, failing with
// ErrCollectionMissing when it does not exist.
func (m *VectorStoreManager) LoadCollection(ctx context.Context) error {
	exists, err := m.store.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("chatbot: checking collection: %w", err)
	}
	if !exists {
		return ErrCollectionMissing
	}

	m.logger.InfoContext(ctx, "attached to existing collection")
	return nil
}

// AddDocuments embeds and upserts chunk documents into the collection.
func (m *VectorStoreManager) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	ids, err := m.store.AddDocuments(ctx, docs, m.callOptions()...)
	if err != nil {
		return nil, fmt.Errorf("chatbot: adding documents: %w", err)
	}
	return ids, nil
}

// Search returns the k most similar chunks with scores. A non-positive
// k falls back to the manager's default.
func (m *VectorStoreManager) Search(ctx context.Context, query string, k int) ([]vectorstores.DocumentWithScore, error) {
	if k <= 0 {
		k = m.topK
	}
	results, err := m.store.SimilaritySearchWithScores(ctx, query, k, m.callOptions()...)
	if err != nil {
		return nil, fmt.Errorf("chatbot: similarity search: %w", err)
	}
	return results, nil
}

// RemoveSource deletes every chunk that came from one source file,
// leaving the rest of the collection intact.
func (m *VectorStoreManager) RemoveSource(ctx context.Context, source string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("chatbot: source is required")
	}

	filters := map[string]any{"source": source}
	if err := m.store.DeleteDocumentsByFilter(ctx, filters, m.callOptions()...); err != nil {
		return fmt.Errorf("chatbot: removing source %q: %w", source, err)
	}

	m.logger.InfoContext(ctx, "source removed", "source", source)
	return nil
}

// Retriever exposes the collection as a fixed-k retriever for chains.
func (m *VectorStoreManager) Retriever() schema.Retriever {
	return vectorstores.ToRetriever(m.store, m.topK, m.callOptions()...)
}

// Clear drops the collection. A missing collection is not an error.
func (m *VectorStoreManager) Clear(ctx context.Context) error {
	err := m.store.DeleteCollection(ctx, m.collection)
	if err != nil && !errors.Is(err, vectorstores.ErrCollectionNotFound) {
		return fmt.Errorf("chatbot: clearing collection: %w", err)
	}
	return nil
}

// Info returns the collection's stored metadata, or ErrCollectionMissing.
func (m *VectorStoreManager) Info(ctx context.Context) (*schema.CollectionInfo, error) {
	infos, err := m.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("chatbot: listing collections: %w", err)
	}
	for i := range infos {
		if infos[i].Name == m.collection {
			return &infos[i], nil
		}
	}
	return nil, ErrCollectionMissing
}

// Collection returns the managed collection name.
func (m *VectorStoreManager) Collection() string {
	return m.collection
}

func (m *VectorStoreManager) callOptions() []vectorstores.Option {
	return []vectorstores.Option{
		vectorstores.WithEmbedder(m.embedder),
		vectorstores.WithNameSpace(m.collection),
	}
}
