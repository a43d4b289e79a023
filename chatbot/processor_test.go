package chatbot_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/chatbot"
	"github.com/sevigo/pdfchat/documentloaders"
	"github.com/sevigo/pdfchat/schema"
)

func TestDocumentProcessor_SaveUpload(t *testing.T) {
	dir := t.TempDir()
	p, err := chatbot.NewDocumentProcessor(dir)
	require.NoError(t, err)

	path, err := p.SaveUpload("notes.txt", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))
}

func TestDocumentProcessor_SaveUploadStripsPath(t *testing.T) {
	dir := t.TempDir()
	p, err := chatbot.NewDocumentProcessor(dir)
	require.NoError(t, err)

	path, err := p.SaveUpload("../../etc/passwd.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "passwd.txt"), path)
}

func TestDocumentProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("The mitochondria is the powerhouse of the cell."), 0o600))

	p, err := chatbot.NewDocumentProcessor(dir)
	require.NoError(t, err)

	chunks, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].PageContent, "mitochondria")
	assert.Equal(t, path, chunks[0].Metadata["source"])
}

func TestDocumentProcessor_ProcessFiles(t *testing.T) {
	dir := t.TempDir()
	p, err := chatbot.NewDocumentProcessor(dir)
	require.NoError(t, err)

	_, err = p.ProcessFiles(context.Background(), nil)
	assert.ErrorIs(t, err, chatbot.ErrNoFiles)

	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("first document"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("second document"), 0o600))

	chunks, err := p.ProcessFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

type recordingSplitter struct {
	ctx context.Context
}

func (r *recordingSplitter) SplitText(ctx context.Context, text string) ([]string, error) {
	r.ctx = ctx
	return []string{text}, nil
}

func (r *recordingSplitter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	r.ctx = ctx
	return docs, nil
}

type splitterCtxKey struct{}

func TestDocumentProcessor_PassesContextToSplitter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("some text"), 0o600))

	splitter := &recordingSplitter{}
	p, err := chatbot.NewDocumentProcessor(dir, chatbot.WithSplitter(splitter))
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), splitterCtxKey{}, "marker")
	_, err = p.ProcessFile(ctx, path)
	require.NoError(t, err)

	require.NotNil(t, splitter.ctx)
	assert.Equal(t, "marker", splitter.ctx.Value(splitterCtxKey{}))
}

func TestDocumentProcessor_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	p, err := chatbot.NewDocumentProcessor(dir)
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), filepath.Join(dir, "image.png"))
	assert.ErrorIs(t, err, documentloaders.ErrUnsupportedFormat)
}
