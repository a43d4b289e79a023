package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sevigo/pdfchat/embeddings"
	"github.com/sevigo/pdfchat/llms"
	"github.com/sevigo/pdfchat/schema"
)

// Common errors returned by the Azure OpenAI backend.
var (
	ErrMissingCredentials = errors.New("azure: endpoint and API key are required")
	ErrMissingDeployment  = errors.New("azure: chat deployment name is required")
	ErrNoContent          = errors.New("azure: no content generated")
	ErrEmbeddings         = errors.New("azure: failed to generate embeddings")
)

// LLM talks to an Azure OpenAI deployment for chat completion and, when an
// embedding deployment is configured, for embeddings.
type LLM struct {
	client  *openai.Client
	options options
	logger  *slog.Logger

	dimension int
}

var (
	_ llms.Model          = (*LLM)(nil)
	_ embeddings.Embedder = (*LLM)(nil)
)

// New creates a new Azure OpenAI client. Endpoint and API key must be
// provided, matching the credentials of the Azure resource.
func New(opts ...Option) (*LLM, error) {
	o := applyOptions(opts...)

	if o.endpoint == "" || o.apiKey == "" {
		return nil, ErrMissingCredentials
	}
	if o.deployment == "" {
		return nil, ErrMissingDeployment
	}

	cfg := openai.DefaultAzureConfig(o.apiKey, o.endpoint)
	if o.apiVersion != "" {
		cfg.APIVersion = o.apiVersion
	}
	chatDeployment := o.deployment
	embeddingDeployment := o.embeddingDeployment
	cfg.AzureModelMapperFunc = func(model string) string {
		if embeddingDeployment != "" && strings.Contains(model, "embedding") {
			return embeddingDeployment
		}
		return chatDeployment
	}

	llm := &LLM{
		client:  openai.NewClientWithConfig(cfg),
		options: o,
		logger:  o.logger.With("component", "azure_llm", "deployment", o.deployment),
	}

	llm.logger.Info("Azure OpenAI LLM initialized")
	return llm, nil
}

// Call is a convenience method for a single-turn conversation.
func (a *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, a, prompt, options...)
}

// GenerateContent handles multi-turn conversations and streaming.
func (a *LLM) GenerateContent(
	ctx context.Context,
	messages []schema.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	start := time.Now()
	opts := llms.ParseCallOptions(options...)

	chatMessages, err := a.convertMessages(messages)
	if err != nil {
		return nil, err
	}

	temperature := a.options.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	req := openai.ChatCompletionRequest{
		Model:       a.options.deployment,
		Messages:    chatMessages,
		Temperature: float32(temperature),
	}

	if opts.StreamingFunc == nil {
		resp, err := a.client.CreateChatCompletion(ctx, req)
		duration := time.Since(start)
		if err != nil {
			a.logger.ErrorContext(ctx, "Chat completion failed", "error", err, "duration", duration)
			return nil, fmt.Errorf("azure: chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrNoContent
		}

		choice := resp.Choices[0]
		return &llms.ContentResponse{
			Choices: []*llms.ContentChoice{
				{
					Content:    choice.Message.Content,
					StopReason: string(choice.FinishReason),
					GenerationInfo: map[string]any{
						"CompletionTokens": resp.Usage.CompletionTokens,
						"PromptTokens":     resp.Usage.PromptTokens,
						"TotalTokens":      resp.Usage.TotalTokens,
						"Duration":         duration,
						"Model":            resp.Model,
					},
				},
			},
		}, nil
	}

	stream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		a.logger.ErrorContext(ctx, "Chat completion stream failed", "error", err)
		return nil, fmt.Errorf("azure: chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var fullResponse strings.Builder
	var stopReason string
	for {
		chunk, errRecv := stream.Recv()
		if errors.Is(errRecv, io.EOF) {
			break
		}
		if errRecv != nil {
			a.logger.ErrorContext(ctx, "Stream receive failed", "error", errRecv)
			return nil, fmt.Errorf("azure: stream receive failed: %w", errRecv)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		stopReason = string(chunk.Choices[0].FinishReason)
		fullResponse.WriteString(delta)
		if errStream := opts.StreamingFunc(ctx, []byte(delta)); errStream != nil {
			return nil, fmt.Errorf("streaming function returned an error: %w", errStream)
		}
	}

	duration := time.Since(start)
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    fullResponse.String(),
				StopReason: stopReason,
				GenerationInfo: map[string]any{
					"Duration": duration,
					"Model":    a.options.deployment,
				},
			},
		},
	}, nil
}

func (a *LLM) convertMessages(messages []schema.MessageContent) ([]openai.ChatCompletionMessage, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case schema.ChatMessageTypeSystem:
			role = openai.ChatMessageRoleSystem
		case schema.ChatMessageTypeAI:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}

		content := msg.GetTextContent()
		if content == "" {
			return nil, fmt.Errorf("azure: message with role %q has no text content", msg.Role)
		}

		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: content,
		})
	}
	return chatMessages, nil
}

// EmbedDocuments generates embeddings for a slice of texts.
func (a *LLM) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if a.options.embeddingDeployment == "" {
		return nil, fmt.Errorf("%w: no embedding deployment configured", ErrEmbeddings)
	}

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(a.options.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddings, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddings, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single text query.
func (a *LLM) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedding is empty", ErrEmbeddings)
	}
	return vectors[0], nil
}

// GetDimension returns the embedding dimension, probing the service once.
func (a *LLM) GetDimension(ctx context.Context) (int, error) {
	if a.dimension > 0 {
		return a.dimension, nil
	}

	sample, err := a.EmbedQuery(ctx, "dimension")
	if err != nil {
		return 0, fmt.Errorf("azure: failed to determine embedding dimension: %w", err)
	}
	a.dimension = len(sample)
	return a.dimension, nil
}
