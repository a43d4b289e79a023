package textsplitter

import (
	"context"

	"github.com/sevigo/pdfchat/schema"
)

// TextSplitter splits documents into smaller chunk documents suitable for
// independent embedding and retrieval.
type TextSplitter interface {
	SplitText(ctx context.Context, text string) ([]string, error)
	SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}
