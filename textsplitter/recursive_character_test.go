package textsplitter

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/schema"
)

func TestSplitText_ShortTextIsSingleChunk(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(100), WithChunkOverlap(0))

	chunks, err := splitter.SplitText(context.Background(), "short text")

	require.NoError(t, err)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitText_SplitsOnParagraphs(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(40), WithChunkOverlap(0))

	text := "First paragraph with some words.\n\nSecond paragraph with more words.\n\nThird one."
	chunks, err := splitter.SplitText(context.Background(), text)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}
}

func TestSplitText_OversizedWordIsSplitByCharacter(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(0))

	long := strings.Repeat("x", 25)
	chunks, err := splitter.SplitText(context.Background(), long)

	require.NoError(t, err)
	// The final "" separator breaks an unbreakable run at chunk size.
	assert.Equal(t, []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 5),
	}, chunks)
}

func TestSplitText_OversizedTextKeptWithoutCharSeparator(t *testing.T) {
	splitter := NewRecursiveCharacter(
		WithChunkSize(10), WithChunkOverlap(0), WithSeparators([]string{" "}))

	long := strings.Repeat("x", 25)
	chunks, err := splitter.SplitText(context.Background(), long)

	require.NoError(t, err)
	assert.Equal(t, []string{long}, chunks)
}

func TestSplitText_OverlapKeepsMultibyteRunesIntact(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(40), WithChunkOverlap(4))

	var sb strings.Builder
	for range 15 {
		sb.WriteString("héllo wörld ")
	}
	chunks, err := splitter.SplitText(context.Background(), sb.String())

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8: %q", i, chunk)
	}
}

func TestSplitText_OverlapCarriesTail(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(50), WithChunkOverlap(10))

	var sb strings.Builder
	for range 20 {
		sb.WriteString("some words here ")
	}
	chunks, err := splitter.SplitText(context.Background(), sb.String())

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-10:]
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d should start with the last 10 chars of chunk %d", i, i-1)
	}
}

func TestSplitDocuments_PreservesMetadata(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(30), WithChunkOverlap(0))

	docs := []schema.Document{
		schema.NewDocument(
			"First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here.",
			map[string]any{"source": "report.pdf", "page": 3},
		),
	}

	chunks, err := splitter.SplitDocuments(context.Background(), docs)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, "report.pdf", chunk.Metadata["source"])
		assert.Equal(t, 3, chunk.Metadata["page"])
		assert.Equal(t, i, chunk.Metadata["chunk"])
	}

	// The parent document's metadata must not gain a chunk index.
	assert.NotContains(t, docs[0].Metadata, "chunk")
}

func TestSplitDocuments_SkipsWhitespaceChunks(t *testing.T) {
	splitter := NewRecursiveCharacter(WithChunkSize(10), WithChunkOverlap(0))

	chunks, err := splitter.SplitDocuments(context.Background(), []schema.Document{
		schema.NewDocument("   \n\n   ", nil),
	})

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNewRecursiveCharacter_Defaults(t *testing.T) {
	splitter := NewRecursiveCharacter()

	assert.Equal(t, 1500, splitter.opts.chunkSize)
	assert.Equal(t, 200, splitter.opts.chunkOverlap)
	assert.Equal(t, defaultSeparators, splitter.opts.separators)
}
