// Package chains composes retrievers, prompts, conversational memory
// and language models into question-answering pipelines.
package chains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sevigo/pdfchat/llms"
	"github.com/sevigo/pdfchat/memory"
	"github.com/sevigo/pdfchat/prompts"
	"github.com/sevigo/pdfchat/schema"
)

const documentSeparator = "\n\n---\n\n"

var (
	ErrEmptyQuestion    = errors.New("chains: question cannot be empty")
	ErrMissingRetriever = errors.New("chains: retriever cannot be nil")
	ErrMissingModel     = errors.New("chains: model cannot be nil")
)

// Result is the outcome of one question through the chain: the model's
// answer plus the documents its context was built from.
type Result struct {
	Answer          string
	SourceDocuments []schema.Document
}

// ConversationalRetrieval answers questions strictly from retrieved
// document context, carrying the conversation so far into each prompt.
type ConversationalRetrieval struct {
	retriever schema.Retriever
	llm       llms.Model
	memory    *memory.ConversationBuffer
	prompt    prompts.PromptTemplate
	logger    *slog.Logger
}

// ConversationalRetrievalOption configures the chain.
type ConversationalRetrievalOption func(*ConversationalRetrieval)

// WithMemory supplies a shared conversation buffer. Without it the
// chain creates its own.
func WithMemory(buf *memory.ConversationBuffer) ConversationalRetrievalOption {
	return func(c *ConversationalRetrieval) {
		if buf != nil {
			c.memory = buf
		}
	}
}

// WithPrompt overrides the default document QA prompt. The template
// must use the context, history and question variables.
func WithPrompt(prompt prompts.PromptTemplate) ConversationalRetrievalOption {
	return func(c *ConversationalRetrieval) {
		c.prompt = prompt
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConversationalRetrievalOption {
	return func(c *ConversationalRetrieval) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConversationalRetrieval creates the chain.
func NewConversationalRetrieval(retriever schema.Retriever, llm llms.Model, opts ...ConversationalRetrievalOption) (*ConversationalRetrieval, error) {
	if retriever == nil {
		return nil, ErrMissingRetriever
	}
	if llm == nil {
		return nil, ErrMissingModel
	}

	chain := &ConversationalRetrieval{
		retriever: retriever,
		llm:       llm,
		memory:    memory.NewConversationBuffer(),
		prompt:    prompts.DocumentQAPrompt,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(chain)
	}
	chain.logger = chain.logger.With("component", "conversational_retrieval")

	return chain, nil
}

// Call runs one question through retrieve, prompt and generate, then
// records the exchange in memory. The returned result carries the
// retrieved source documents even when the context did not contain an
// answer.
func (c *ConversationalRetrieval) Call(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	docs, err := c.retriever.GetRelevantDocuments(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("chains: document retrieval failed: %w", err)
	}
	c.logger.DebugContext(ctx, "documents retrieved", "count", len(docs))

	prompt := c.prompt.Format(map[string]string{
		"context":  buildContext(docs),
		"history":  c.memory.FormatHistory(prompts.NoHistoryPlaceholder),
		"question": question,
	})

	answer, err := c.llm.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chains: answer generation failed: %w", err)
	}
	answer = strings.TrimSpace(answer)

	c.memory.AddUserMessage(question)
	c.memory.AddAIMessage(answer)

	return &Result{
		Answer:          answer,
		SourceDocuments: docs,
	}, nil
}

// Memory exposes the chain's conversation buffer.
func (c *ConversationalRetrieval) Memory() *memory.ConversationBuffer {
	return c.memory
}

// ClearHistory wipes the conversation buffer.
func (c *ConversationalRetrieval) ClearHistory() {
	c.memory.Clear()
}

func buildContext(docs []schema.Document) string {
	if len(docs) == 0 {
		return "(no matching documents found)"
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.PageContent
	}
	return strings.Join(contents, documentSeparator)
}
