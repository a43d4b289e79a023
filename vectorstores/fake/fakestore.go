// Package fake provides an in-memory vector store for tests. Searches
// return the stored documents in insertion order rather than by true
// vector similarity.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

// Store is an in-memory vectorstores.VectorStore and CollectionManager.
type Store struct {
	mu          sync.Mutex
	collections map[string][]schema.Document
	defaultName string

	AddErr    error
	SearchErr error
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
	_ vectorstores.DocumentRemover   = (*Store)(nil)
)

// NewStore creates a fake store with a single default collection.
func NewStore(defaultCollection string) *Store {
	return &Store{
		collections: map[string][]schema.Document{
			defaultCollection: {},
		},
		defaultName: defaultCollection,
	}
}

func (s *Store) AddDocuments(_ context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if s.AddErr != nil {
		return nil, s.AddErr
	}

	opts := vectorstores.ParseOptions(options...)
	name := s.collectionName(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		s.collections[name] = append(s.collections[name], doc)
		ids = append(ids, fmt.Sprintf("%s-%d", name, len(s.collections[name])-1))
	}
	return ids, nil
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, 0, len(scored))
	for _, d := range scored {
		docs = append(docs, d.Document)
	}
	return docs, nil
}

func (s *Store) SimilaritySearchWithScores(_ context.Context, _ string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}

	opts := vectorstores.ParseOptions(options...)
	name := s.collectionName(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[name]
	if !ok {
		return nil, vectorstores.ErrCollectionNotFound
	}

	if numDocuments > len(docs) {
		numDocuments = len(docs)
	}

	results := make([]vectorstores.DocumentWithScore, 0, numDocuments)
	for i := range numDocuments {
		results = append(results, vectorstores.DocumentWithScore{
			Document: docs[i],
			Score:    1.0 - float32(i)*0.1,
		})
	}
	return results, nil
}

func (s *Store) CreateCollection(_ context.Context, name string, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		s.collections[name] = []schema.Document{}
	}
	return nil
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return vectorstores.ErrCollectionNotFound
	}
	delete(s.collections, name)
	return nil
}

func (s *Store) ListCollections(_ context.Context) ([]schema.CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]schema.CollectionInfo, 0, len(s.collections))
	for name, docs := range s.collections {
		infos = append(infos, schema.CollectionInfo{
			Name:        name,
			PointsCount: uint64(len(docs)),
		})
	}
	return infos, nil
}

func (s *Store) HasCollection(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) DeleteDocumentsByFilter(_ context.Context, filters map[string]any, options ...vectorstores.Option) error {
	if len(filters) == 0 {
		return fmt.Errorf("fake: refusing to delete with an empty filter")
	}

	opts := vectorstores.ParseOptions(options...)
	name := s.collectionName(opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[name]
	if !ok {
		return vectorstores.ErrCollectionNotFound
	}

	kept := docs[:0]
	for _, doc := range docs {
		if !matchesFilters(doc, filters) {
			kept = append(kept, doc)
		}
	}
	s.collections[name] = kept
	return nil
}

func matchesFilters(doc schema.Document, filters map[string]any) bool {
	for key, want := range filters {
		if doc.Metadata[key] != want {
			return false
		}
	}
	return true
}

// Documents returns the stored documents of a collection, for assertions.
func (s *Store) Documents(name string) []schema.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]schema.Document(nil), s.collections[name]...)
}

func (s *Store) collectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.defaultName
}
