package embeddings

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a one-dimensional vector holding the text length.
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	seen  []string
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, texts...)

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text))}
	}
	return vectors, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubEmbedder) GetDimension(_ context.Context) (int, error) {
	return 1, nil
}

func TestEmbedDocuments_Batches(t *testing.T) {
	stub := &stubEmbedder{}
	embedder, err := NewEmbedder(stub, WithBatchSize(2))
	require.NoError(t, err)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := embedder.EmbedDocuments(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0])
	}
	assert.Equal(t, 3, stub.calls, "5 texts with batch size 2 should need 3 calls")
}

func TestEmbedQuery_StripsNewLines(t *testing.T) {
	stub := &stubEmbedder{}
	embedder, err := NewEmbedder(stub)
	require.NoError(t, err)

	_, err = embedder.EmbedQuery(context.Background(), "line one\nline two")
	require.NoError(t, err)

	require.Len(t, stub.seen, 1)
	assert.False(t, strings.Contains(stub.seen[0], "\n"))
}

func TestEmbedQuery_RejectsEmptyText(t *testing.T) {
	embedder, err := NewEmbedder(&stubEmbedder{})
	require.NoError(t, err)

	_, err = embedder.EmbedQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNewEmbedder_RejectsDoubleWrapping(t *testing.T) {
	inner, err := NewEmbedder(&stubEmbedder{})
	require.NoError(t, err)

	_, err = NewEmbedder(inner)
	assert.Error(t, err)
}

func TestEmbedDocuments_Empty(t *testing.T) {
	embedder, err := NewEmbedder(&stubEmbedder{})
	require.NoError(t, err)

	vectors, err := embedder.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
