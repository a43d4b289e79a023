package schema

import (
	"context"
	"fmt"
)

// Document is a piece of text with associated metadata. Loaders produce
// page-level documents, the text splitter produces chunk documents, and the
// vector store persists and retrieves them.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

func (d Document) String() string {
	return d.PageContent
}

func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		PageContent: content,
		Metadata:    metadata,
	}
}

// Source returns the "source" metadata entry, or an empty string.
func (d Document) Source() string {
	if s, ok := d.Metadata["source"].(string); ok {
		return s
	}
	return ""
}

// Page returns the "page" metadata entry, or 0 when the document does not
// originate from a paged format.
func (d Document) Page() int {
	switch v := d.Metadata["page"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Retriever is the interface for fetching relevant documents for a query.
type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]Document, error)
}

// CollectionInfo describes a vector database collection.
type CollectionInfo struct {
	Name           string `json:"name"`            // Name of the collection.
	PointsCount    uint64 `json:"points_count"`    // Number of points (vectors) in the collection.
	VectorSize     uint64 `json:"vector_size"`     // Dimensionality of the vectors in this collection.
	VectorDistance string `json:"vector_distance"` // Distance metric used by the collection (e.g., "Cosine").
}

func (ci CollectionInfo) String() string {
	return fmt.Sprintf("%s (%d points, dim: %d, %s)",
		ci.Name, ci.PointsCount, ci.VectorSize, ci.VectorDistance)
}
