package chatbot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/sevigo/pdfchat/chains"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

// NotReadyMessage is returned by Chat before any documents have been
// processed.
const NotReadyMessage = "Please upload a PDF file first to start chatting."

// RAGChatbot composes the document processor, the vector store manager
// and the LLM handler into the complete question-answering bot.
type RAGChatbot struct {
	processor *DocumentProcessor
	manager   *VectorStoreManager
	llm       *LLMHandler
	logger    *slog.Logger

	mu    sync.Mutex
	ready bool
}

// BotOption configures a RAGChatbot.
type BotOption func(*RAGChatbot)

// WithBotLogger sets the logger.
func WithBotLogger(logger *slog.Logger) BotOption {
	return func(b *RAGChatbot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates the chatbot from its three collaborators.
func New(processor *DocumentProcessor, manager *VectorStoreManager, llm *LLMHandler, opts ...BotOption) (*RAGChatbot, error) {
	if processor == nil {
		return nil, fmt.Errorf("chatbot: document processor is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("chatbot: vector store manager is required")
	}
	if llm == nil {
		return nil, fmt.Errorf("chatbot: llm handler is required")
	}

	b := &RAGChatbot{
		processor: processor,
		manager:   manager,
		llm:       llm,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "rag_chatbot")

	return b, nil
}

// ProcessDocuments chunks the given files, recreates the collection
// from scratch, indexes the chunks and wires the QA chain. On success
// the bot is ready to chat.
func (b *RAGChatbot) ProcessDocuments(ctx context.Context, paths []string) (int, error) {
	chunks, err := b.processor.ProcessFiles(ctx, paths)
	if err != nil {
		return 0, err
	}

	if err := b.manager.CreateCollection(ctx); err != nil {
		return 0, err
	}
	if _, err := b.manager.AddDocuments(ctx, chunks); err != nil {
		return 0, err
	}
	if _, err := b.llm.CreateQAChain(ctx, b.manager.Retriever()); err != nil {
		return 0, err
	}

	b.setReady(true)
	b.logger.InfoContext(ctx, "documents processed", "files", len(paths), "chunks", len(chunks))
	return len(chunks), nil
}

// AddDocuments chunks the given files and appends them to the existing
// collection, rebuilding the QA chain. When the bot has never processed
// documents it behaves like ProcessDocuments.
func (b *RAGChatbot) AddDocuments(ctx context.Context, paths []string) (int, error) {
	if !b.IsReady() {
		return b.ProcessDocuments(ctx, paths)
	}

	chunks, err := b.processor.ProcessFiles(ctx, paths)
	if err != nil {
		return 0, err
	}

	if _, err := b.manager.AddDocuments(ctx, chunks); err != nil {
		return 0, err
	}
	if _, err := b.llm.CreateQAChain(ctx, b.manager.Retriever()); err != nil {
		return 0, err
	}

	b.logger.InfoContext(ctx, "documents added", "files", len(paths), "chunks", len(chunks))
	return len(chunks), nil
}

// ProcessUpload saves an uploaded file and indexes it. The first upload
// creates the collection; later ones append to it.
func (b *RAGChatbot) ProcessUpload(ctx context.Context, name string, r io.Reader) (int, error) {
	path, err := b.processor.SaveUpload(name, r)
	if err != nil {
		return 0, err
	}
	return b.AddDocuments(ctx, []string{path})
}

// RemoveDocument deletes every indexed chunk of one source file. The
// bot stays ready; remaining documents are still searchable.
func (b *RAGChatbot) RemoveDocument(ctx context.Context, source string) error {
	if !b.IsReady() {
		return ErrChainNotReady
	}
	return b.manager.RemoveSource(ctx, source)
}

// Restore attaches to an already populated collection, wires the QA
// chain and marks the bot ready. It returns ErrCollectionMissing when
// there is nothing to restore.
func (b *RAGChatbot) Restore(ctx context.Context) error {
	if err := b.manager.LoadCollection(ctx); err != nil {
		return err
	}
	if _, err := b.llm.CreateQAChain(ctx, b.manager.Retriever()); err != nil {
		return err
	}

	b.setReady(true)
	b.logger.InfoContext(ctx, "restored existing collection", "collection", b.manager.Collection())
	return nil
}

// Chat answers a question from the indexed documents. Before any
// documents are processed it returns the not-ready guidance instead of
// querying the model.
func (b *RAGChatbot) Chat(ctx context.Context, question string) (*chains.Result, error) {
	if !b.IsReady() {
		return &chains.Result{Answer: NotReadyMessage}, nil
	}
	return b.llm.Query(ctx, question)
}

// SearchDocuments exposes raw scored similarity search.
func (b *RAGChatbot) SearchDocuments(ctx context.Context, query string, k int) ([]vectorstores.DocumentWithScore, error) {
	if !b.IsReady() {
		return nil, ErrChainNotReady
	}
	return b.manager.Search(ctx, query, k)
}

// History returns the conversation so far, oldest first.
func (b *RAGChatbot) History() []schema.MessageContent {
	chain := b.llm.Chain()
	if chain == nil {
		return nil
	}
	return chain.Memory().Messages()
}

// ClearHistory wipes conversational memory but keeps the index.
func (b *RAGChatbot) ClearHistory() {
	if chain := b.llm.Chain(); chain != nil {
		chain.ClearHistory()
	}
}

// Reset drops the collection and the conversation; the bot is no
// longer ready afterwards.
func (b *RAGChatbot) Reset(ctx context.Context) error {
	if err := b.manager.Clear(ctx); err != nil {
		return err
	}
	b.ClearHistory()
	b.setReady(false)

	b.logger.InfoContext(ctx, "chatbot reset")
	return nil
}

// IsReady reports whether documents have been processed.
func (b *RAGChatbot) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// ModelInfo reports the active LLM backend.
func (b *RAGChatbot) ModelInfo() ModelInfo {
	return b.llm.Info()
}

func (b *RAGChatbot) setReady(ready bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = ready
}
