package textsplitter

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/sevigo/pdfchat/schema"
)

// defaultSeparators are tried from largest to smallest semantic unit.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveCharacter is a text splitter that recursively tries to split text
// using a list of separators. It aims to keep semantically related parts of
// the text together as long as possible.
type RecursiveCharacter struct {
	opts options
}

var _ TextSplitter = (*RecursiveCharacter)(nil)

// NewRecursiveCharacter creates a new RecursiveCharacter text splitter.
func NewRecursiveCharacter(opts ...Option) *RecursiveCharacter {
	o := options{
		chunkSize:    1500,
		chunkOverlap: 200,
		separators:   defaultSeparators,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &RecursiveCharacter{
		opts: o,
	}
}

// SplitText splits a single text into multiple chunks.
func (s *RecursiveCharacter) SplitText(_ context.Context, text string) ([]string, error) {
	return s.splitTextRecursive(text, s.opts.separators)
}

// SplitDocuments splits each document into chunk documents. Chunk documents
// inherit the parent's metadata plus a "chunk" index.
func (s *RecursiveCharacter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	var chunks []schema.Document
	for _, doc := range docs {
		texts, err := s.SplitText(ctx, doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("textsplitter: failed to split document %q: %w", doc.Source(), err)
		}

		for i, text := range texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			metadata := make(map[string]any, len(doc.Metadata)+1)
			maps.Copy(metadata, doc.Metadata)
			metadata["chunk"] = i
			chunks = append(chunks, schema.NewDocument(text, metadata))
		}
	}
	return chunks, nil
}

// splitTextRecursive is the core logic that recursively splits text.
func (s *RecursiveCharacter) splitTextRecursive(text string, separators []string) ([]string, error) {
	// If the text is already small enough, just return it.
	if len(text) <= s.opts.chunkSize {
		return []string{text}, nil
	}

	// Only reachable with a custom separator list that omits "": the
	// default list ends with "", which breaks any run at chunk size.
	if len(separators) == 0 {
		return []string{text}, nil
	}

	separator := separators[0]
	remainingSeparators := separators[1:]

	splits := strings.Split(text, separator)
	var goodSplits []string
	currentSplit := ""

	for _, split := range splits {
		if len(split) == 0 {
			continue
		}

		// Merge adjacent splits while they fit in a chunk.
		if len(currentSplit) > 0 && len(currentSplit)+len(separator)+len(split) <= s.opts.chunkSize {
			currentSplit += separator + split
		} else {
			if len(currentSplit) > 0 {
				goodSplits = append(goodSplits, currentSplit)
			}
			currentSplit = split
		}
	}
	if currentSplit != "" {
		goodSplits = append(goodSplits, currentSplit)
	}

	var finalChunks []string
	for _, split := range goodSplits {
		if len(split) <= s.opts.chunkSize {
			finalChunks = append(finalChunks, split)
		} else {
			recursiveChunks, err := s.splitTextRecursive(split, remainingSeparators)
			if err != nil {
				return nil, err
			}
			finalChunks = append(finalChunks, recursiveChunks...)
		}
	}

	if s.opts.chunkOverlap > 0 && len(finalChunks) > 1 {
		return s.mergeWithOverlap(finalChunks)
	}

	return finalChunks, nil
}

// mergeWithOverlap combines chunks, adding the specified overlap between them.
func (s *RecursiveCharacter) mergeWithOverlap(chunks []string) ([]string, error) {
	if s.opts.chunkOverlap >= s.opts.chunkSize {
		return nil, fmt.Errorf("textsplitter: chunk overlap (%d) must be smaller than chunk size (%d)",
			s.opts.chunkOverlap, s.opts.chunkSize)
	}

	var mergedChunks []string
	currentChunk := ""
	separator := "\n"

	for i, chunk := range chunks {
		if currentChunk == "" {
			currentChunk = chunk
			if i == len(chunks)-1 {
				mergedChunks = append(mergedChunks, currentChunk)
			}
			continue
		}

		// The tail of the current chunk is carried into the next one.
		// The cut advances to the next rune start so a multibyte rune
		// is never sliced in half.
		var overlap string
		if len(currentChunk) > s.opts.chunkOverlap {
			cut := len(currentChunk) - s.opts.chunkOverlap
			for cut < len(currentChunk) && !utf8.RuneStart(currentChunk[cut]) {
				cut++
			}
			overlap = currentChunk[cut:]
		} else {
			overlap = currentChunk
		}

		if len(currentChunk)+len(separator)+len(chunk) <= s.opts.chunkSize {
			currentChunk += separator + chunk
		} else {
			mergedChunks = append(mergedChunks, currentChunk)
			currentChunk = overlap + separator + chunk
		}

		if i == len(chunks)-1 {
			mergedChunks = append(mergedChunks, currentChunk)
		}
	}

	return mergedChunks, nil
}
