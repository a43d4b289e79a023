package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sevigo/pdfchat/chains"
	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/llms"
	"github.com/sevigo/pdfchat/llms/azure"
	"github.com/sevigo/pdfchat/llms/gemini"
	"github.com/sevigo/pdfchat/llms/ollama"
	"github.com/sevigo/pdfchat/memory"
	"github.com/sevigo/pdfchat/schema"
)

// Supported LLM provider names.
const (
	ProviderOllama = "ollama"
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
)

var (
	ErrUnknownProvider = errors.New("chatbot: unknown llm provider")
	ErrChainNotReady   = errors.New("chatbot: qa chain is not initialized")
)

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	Model          string
	EmbeddingModel string
	ServerURL      string
}

// AzureConfig configures the Azure OpenAI backend.
type AzureConfig struct {
	Endpoint            string
	APIKey              string
	APIVersion          string
	Deployment          string
	EmbeddingDeployment string
	EmbeddingModel      string
}

// GeminiConfig configures the Google Gemini backend.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

// LLMConfig selects and parameterizes a provider.
type LLMConfig struct {
	Provider    string
	Temperature float64
	Ollama      OllamaConfig
	Azure       AzureConfig
	Gemini      GeminiConfig
}

// ModelInfo describes the currently selected backend.
type ModelInfo struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// LLMHandler constructs LLM backends by provider name. Backends are
// built lazily on first use and can be swapped at runtime, which
// resets the cached model, embedder and QA chain. Conversation memory
// is owned by the handler so chain rebuilds keep the history.
type LLMHandler struct {
	logger *slog.Logger
	memory *memory.ConversationBuffer

	mu       sync.Mutex
	cfg      LLMConfig
	model    llms.Model
	embedder embeddings.Embedder
	chain    *chains.ConversationalRetrieval
}

// HandlerOption configures an LLMHandler.
type HandlerOption func(*LLMHandler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *LLMHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithModel presets an already constructed chat model, bypassing lazy
// construction until the provider is switched.
func WithModel(model llms.Model) HandlerOption {
	return func(h *LLMHandler) {
		h.model = model
	}
}

// WithEmbedder presets an already constructed embedder.
func WithEmbedder(embedder embeddings.Embedder) HandlerOption {
	return func(h *LLMHandler) {
		h.embedder = embedder
	}
}

// NewLLMHandler validates the provider name and returns a handler. The
// backend itself is not contacted until first use.
func NewLLMHandler(cfg LLMConfig, opts ...HandlerOption) (*LLMHandler, error) {
	if err := validateProvider(cfg.Provider); err != nil {
		return nil, err
	}

	h := &LLMHandler{
		cfg:    cfg,
		logger: slog.Default(),
		memory: memory.NewConversationBuffer(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "llm_handler")

	return h, nil
}

func validateProvider(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOllama, ProviderAzure, ProviderGemini:
		return nil
	default:
		return fmt.Errorf("%w: %q (supported: %s, %s, %s)",
			ErrUnknownProvider, name, ProviderOllama, ProviderAzure, ProviderGemini)
	}
}

// Model returns the chat model for the current provider, constructing
// it on first call.
func (h *LLMHandler) Model(ctx context.Context) (llms.Model, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modelLocked(ctx)
}

func (h *LLMHandler) modelLocked(ctx context.Context) (llms.Model, error) {
	if h.model != nil {
		return h.model, nil
	}

	model, err := h.buildModel(ctx)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "llm backend initialized",
		"provider", h.cfg.Provider, "model", h.modelName())
	h.model = model
	return model, nil
}

func (h *LLMHandler) buildModel(ctx context.Context) (llms.Model, error) {
	switch strings.ToLower(h.cfg.Provider) {
	case ProviderOllama:
		return ollama.New(
			ollama.WithModel(h.cfg.Ollama.Model),
			ollama.WithServerURL(h.cfg.Ollama.ServerURL),
			ollama.WithTemperature(h.cfg.Temperature),
			ollama.WithLogger(h.logger),
		)
	case ProviderAzure:
		return azure.New(
			azure.WithEndpoint(h.cfg.Azure.Endpoint),
			azure.WithAPIKey(h.cfg.Azure.APIKey),
			azure.WithAPIVersion(h.cfg.Azure.APIVersion),
			azure.WithDeployment(h.cfg.Azure.Deployment),
			azure.WithEmbeddingDeployment(h.cfg.Azure.EmbeddingDeployment),
			azure.WithEmbeddingModel(h.cfg.Azure.EmbeddingModel),
			azure.WithTemperature(h.cfg.Temperature),
			azure.WithLogger(h.logger),
		)
	case ProviderGemini:
		return gemini.New(ctx,
			gemini.WithAPIKey(h.cfg.Gemini.APIKey),
			gemini.WithModel(h.cfg.Gemini.Model),
			gemini.WithEmbeddingModel(h.cfg.Gemini.EmbeddingModel),
			gemini.WithTemperature(h.cfg.Temperature),
			gemini.WithLogger(h.logger),
		)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, h.cfg.Provider)
	}
}

// Embedder returns an embedder backed by the current provider's
// embedding model, constructing it on first call.
func (h *LLMHandler) Embedder(ctx context.Context) (embeddings.Embedder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.embedder != nil {
		return h.embedder, nil
	}

	client, err := h.buildEmbeddingClient(ctx)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("chatbot: wrapping embedder: %w", err)
	}
	h.embedder = embedder
	return embedder, nil
}

// buildEmbeddingClient returns the raw provider client used for
// embeddings. Ollama may use a dedicated embedding model; Azure and
// Gemini route embeddings internally.
func (h *LLMHandler) buildEmbeddingClient(ctx context.Context) (embeddings.Embedder, error) {
	switch strings.ToLower(h.cfg.Provider) {
	case ProviderOllama:
		model := h.cfg.Ollama.EmbeddingModel
		if model == "" {
			model = h.cfg.Ollama.Model
		}
		return ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(h.cfg.Ollama.ServerURL),
			ollama.WithLogger(h.logger),
		)
	default:
		model, err := h.modelLocked(ctx)
		if err != nil {
			return nil, err
		}
		client, ok := model.(embeddings.Embedder)
		if !ok {
			return nil, fmt.Errorf("chatbot: provider %q does not support embeddings", h.cfg.Provider)
		}
		return client, nil
	}
}

// SwitchProvider changes the active backend, dropping any cached
// model, embedder and chain.
func (h *LLMHandler) SwitchProvider(provider string) error {
	if err := validateProvider(provider); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Info("switching llm provider", "from", h.cfg.Provider, "to", provider)
	h.cfg.Provider = strings.ToLower(strings.TrimSpace(provider))
	h.model = nil
	h.embedder = nil
	h.chain = nil
	h.memory.Clear()
	return nil
}

// Memory exposes the handler-owned conversation buffer shared across
// chain rebuilds.
func (h *LLMHandler) Memory() *memory.ConversationBuffer {
	return h.memory
}

// CreateQAChain builds and caches the conversational retrieval chain
// over the given retriever.
func (h *LLMHandler) CreateQAChain(ctx context.Context, retriever schema.Retriever) (*chains.ConversationalRetrieval, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	model, err := h.modelLocked(ctx)
	if err != nil {
		return nil, err
	}

	chain, err := chains.NewConversationalRetrieval(retriever, model,
		chains.WithMemory(h.memory),
		chains.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("chatbot: building qa chain: %w", err)
	}
	h.chain = chain
	return chain, nil
}

// Query runs a question through the cached QA chain.
func (h *LLMHandler) Query(ctx context.Context, question string) (*chains.Result, error) {
	h.mu.Lock()
	chain := h.chain
	h.mu.Unlock()

	if chain == nil {
		return nil, ErrChainNotReady
	}
	return chain.Call(ctx, question)
}

// Chain returns the cached QA chain, or nil when none is built.
func (h *LLMHandler) Chain() *chains.ConversationalRetrieval {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chain
}

// GenerateResponse asks the model directly, without retrieval.
func (h *LLMHandler) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	model, err := h.Model(ctx)
	if err != nil {
		return "", err
	}
	return model.Call(ctx, prompt)
}

// Info reports the active provider and model.
func (h *LLMHandler) Info() ModelInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	return ModelInfo{
		Provider:    strings.ToLower(h.cfg.Provider),
		Model:       h.modelName(),
		Temperature: h.cfg.Temperature,
	}
}

func (h *LLMHandler) modelName() string {
	switch strings.ToLower(h.cfg.Provider) {
	case ProviderOllama:
		return h.cfg.Ollama.Model
	case ProviderAzure:
		return h.cfg.Azure.Deployment
	case ProviderGemini:
		return h.cfg.Gemini.Model
	default:
		return ""
	}
}
