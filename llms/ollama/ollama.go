package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/llms"
	"github.com/sevigo/pdfchat/schema"
)

// Common errors returned by the Ollama backend.
var (
	ErrEmptyResponse   = errors.New("ollama: empty response received")
	ErrInvalidModel    = errors.New("ollama: model name is required")
	ErrModelNotFound   = errors.New("ollama: model not found")
	ErrNoTextParts     = errors.New("ollama: no text parts found in message")
	ErrEmbeddingFailed = errors.New("ollama: embedding generation failed")
)

// LLM talks to a local Ollama server for both text generation and
// embeddings.
type LLM struct {
	client  *api.Client
	options options
	logger  *slog.Logger
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

// New creates a new Ollama LLM instance.
func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)

	if o.model == "" {
		return nil, ErrInvalidModel
	}

	var client *api.Client
	if o.serverURL != nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(o.serverURL, httpClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: failed to create client: %w", err)
		}
	}

	llm := &LLM{
		client:  client,
		options: o,
		logger:  o.logger.With("component", "ollama_llm", "model", o.model),
	}

	llm.logger.Info("Ollama LLM initialized")
	return llm, nil
}

// Call implements simple prompt-based text generation.
func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	start := time.Now()
	o.logger.DebugContext(ctx, "Starting simple call", "prompt_length", len(prompt))

	result, err := llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)

	duration := time.Since(start)
	if err != nil {
		o.logger.ErrorContext(ctx, "Call failed", "error", err, "duration", duration)
		return "", err
	}

	o.logger.DebugContext(ctx, "Call completed",
		"response_length", len(result), "duration", duration)
	return result, nil
}

// GenerateContent handles structured message-based content generation.
func (o *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	start := time.Now()
	opts := llms.ParseCallOptions(options...)
	model := o.determineModel(opts)

	chatMsgs, err := o.convertMessages(messages)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to convert messages", "error", err)
		return nil, err
	}

	streaming := opts.StreamingFunc != nil
	req := &api.ChatRequest{
		Model:    model,
		Messages: chatMsgs,
		Stream:   &streaming,
		Options:  o.requestOptions(opts),
	}

	var fullResponse strings.Builder
	var finalResp api.ChatResponse

	fn := func(response api.ChatResponse) error {
		fullResponse.WriteString(response.Message.Content)
		if opts.StreamingFunc != nil {
			if errStream := opts.StreamingFunc(ctx, []byte(response.Message.Content)); errStream != nil {
				return fmt.Errorf("streaming function returned an error: %w", errStream)
			}
		}
		if response.Done {
			finalResp = response
		}
		return nil
	}

	err = o.client.Chat(ctx, req, fn)
	duration := time.Since(start)

	if err != nil {
		o.logger.ErrorContext(ctx, "Chat request failed", "error", err, "duration", duration)
		return nil, fmt.Errorf("ollama: chat request failed: %w", err)
	}

	response := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: fullResponse.String(),
				GenerationInfo: map[string]any{
					"CompletionTokens": finalResp.EvalCount,
					"PromptTokens":     finalResp.PromptEvalCount,
					"TotalTokens":      finalResp.EvalCount + finalResp.PromptEvalCount,
					"Duration":         duration,
					"Model":            model,
				},
			},
		},
	}

	o.logger.InfoContext(ctx, "Content generation completed", "duration", duration)
	return response, nil
}

func (o *LLM) convertMessages(messages []schema.MessageContent) ([]api.Message, error) {
	chatMsgs := make([]api.Message, 0, len(messages))
	for _, mc := range messages {
		var text strings.Builder
		found := false
		for _, p := range mc.Parts {
			part, ok := p.(schema.TextContent)
			if !ok {
				return nil, fmt.Errorf("ollama: unsupported content part type: %T", p)
			}
			if found {
				text.WriteString("\n")
			}
			text.WriteString(part.Text)
			found = true
		}
		if !found {
			return nil, ErrNoTextParts
		}
		chatMsgs = append(chatMsgs, api.Message{
			Role:    typeToRole(mc.Role),
			Content: text.String(),
		})
	}
	return chatMsgs, nil
}

func typeToRole(typ schema.ChatMessageType) string {
	switch typ {
	case schema.ChatMessageTypeSystem:
		return "system"
	case schema.ChatMessageTypeAI:
		return "assistant"
	default:
		return "user"
	}
}

func (o *LLM) requestOptions(opts llms.CallOptions) map[string]any {
	reqOpts := make(map[string]any)
	temperature := o.options.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	if temperature > 0 {
		reqOpts["temperature"] = temperature
	}
	return reqOpts
}

// EmbedDocuments creates embeddings for documents, one request per text.
func (o *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := o.EnsureModel(ctx); err != nil {
		return nil, fmt.Errorf("ollama: embedding model preparation failed: %w", err)
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding, err := o.createSingleEmbedding(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama: failed to embed document: %w", err)
		}
		allEmbeddings = append(allEmbeddings, embedding)
	}

	return allEmbeddings, nil
}

// EmbedQuery creates an embedding for a single query.
func (o *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	o.logger.DebugContext(ctx, "Creating query embedding", "text_length", len(text))

	if err := o.EnsureModel(ctx); err != nil {
		return nil, fmt.Errorf("ollama: query embedding model preparation failed: %w", err)
	}

	return o.createSingleEmbedding(ctx, text)
}

func (o *LLM) createSingleEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return []float32{}, nil
	}

	req := &api.EmbeddingRequest{
		Model:  o.options.model,
		Prompt: text,
	}

	start := time.Now()
	resp, err := o.client.Embeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		o.logger.ErrorContext(ctx, "Embedding API call failed",
			"error", err, "text_length", len(text), "duration", duration)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	if len(resp.Embedding) == 0 {
		o.logger.WarnContext(ctx, "Received empty embedding response", "text_length", len(text))
		return nil, ErrEmptyResponse
	}

	embedding := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// EnsureModel ensures the model is available locally, pulling it if
// necessary.
func (o *LLM) EnsureModel(ctx context.Context) error {
	exists, err := o.ModelExists(ctx)
	if err != nil {
		return fmt.Errorf("ollama: model existence check failed: %w", err)
	}

	if exists {
		return nil
	}

	o.logger.InfoContext(ctx, "Model not found locally, initiating pull")

	pullStart := time.Now()
	stream := true
	req := &api.PullRequest{Model: o.options.model, Stream: &stream}

	err = o.client.Pull(ctx, req, func(progress api.ProgressResponse) error {
		if progress.Total > 0 {
			percent := (float64(progress.Completed) / float64(progress.Total)) * 100
			o.logger.InfoContext(ctx, "Model pull progress",
				"status", progress.Status,
				"percent", fmt.Sprintf("%.1f%%", percent))
		} else {
			o.logger.InfoContext(ctx, "Model pull status", "status", progress.Status)
		}
		return nil
	})

	pullDuration := time.Since(pullStart)
	if err != nil {
		o.logger.ErrorContext(ctx, "Model pull failed", "error", err, "duration", pullDuration)
		return fmt.Errorf("ollama: model pull failed: %w", err)
	}

	o.logger.InfoContext(ctx, "Model pull completed", "duration", pullDuration)
	return nil
}

// ModelExists checks if the configured model is available locally.
func (o *LLM) ModelExists(ctx context.Context) (bool, error) {
	_, err := o.client.Show(ctx, &api.ShowRequest{Model: o.options.model})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return false, nil
		}
		return false, fmt.Errorf("ollama: model existence check failed: %w", err)
	}
	return true, nil
}

// GetModelDetails retrieves model information including the embedding
// dimension.
func (o *LLM) GetModelDetails(ctx context.Context) (*ModelDetails, error) {
	showResp, err := o.client.Show(ctx, &api.ShowRequest{Model: o.options.model})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("ollama: failed to retrieve model information: %w", err)
	}

	var dim int64
	testEmb, err := o.createSingleEmbedding(ctx, "dimension test")
	switch {
	case err == nil:
		dim = int64(len(testEmb))
	case strings.Contains(strings.ToLower(err.Error()), "does not support"):
		dim = 0
	default:
		return nil, fmt.Errorf("ollama: failed to determine embedding dimension: %w", err)
	}

	details := &ModelDetails{
		Family:        showResp.Details.Family,
		ParameterSize: showResp.Details.ParameterSize,
		Quantization:  showResp.Details.QuantizationLevel,
		Dimension:     dim,
	}

	o.logger.DebugContext(ctx, "Model details retrieved",
		"family", details.Family, "dimension", details.Dimension)
	return details, nil
}

// ModelDetails describes an Ollama model.
type ModelDetails struct {
	Family        string
	ParameterSize string
	Quantization  string
	Dimension     int64
}

func (md ModelDetails) String() string {
	return fmt.Sprintf("%s (%s, %s, dim: %d)",
		md.Family, md.ParameterSize, md.Quantization, md.Dimension)
}

// GetDimension returns the embedding dimension for the current model.
func (o *LLM) GetDimension(ctx context.Context) (int, error) {
	details, err := o.GetModelDetails(ctx)
	if err != nil {
		return 0, fmt.Errorf("ollama: failed to get embedding dimension: %w", err)
	}
	return int(details.Dimension), nil
}

// Health verifies the Ollama server is reachable.
func (o *LLM) Health(ctx context.Context) error {
	if err := o.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: server not reachable: %w", err)
	}
	return nil
}

func (o *LLM) determineModel(opts llms.CallOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return o.options.model
}
