package azure

import "log/slog"

const defaultAPIVersion = "2024-06-01"

// options holds configuration for the Azure OpenAI client.
type options struct {
	endpoint            string
	apiKey              string
	apiVersion          string
	deployment          string
	embeddingDeployment string
	embeddingModel      string
	temperature         float64
	logger              *slog.Logger
}

// Option is a function type for configuring the client.
type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		apiVersion:     defaultAPIVersion,
		embeddingModel: "text-embedding-3-small",
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithEndpoint sets the Azure OpenAI resource endpoint.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
	}
}

// WithAPIKey sets the Azure OpenAI API key.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = apiKey
	}
}

// WithAPIVersion sets the Azure OpenAI API version.
func WithAPIVersion(version string) Option {
	return func(opts *options) {
		if version != "" {
			opts.apiVersion = version
		}
	}
}

// WithDeployment sets the chat completion deployment name.
func WithDeployment(deployment string) Option {
	return func(opts *options) {
		opts.deployment = deployment
	}
}

// WithEmbeddingDeployment sets the embedding deployment name. Embeddings are
// unavailable when unset.
func WithEmbeddingDeployment(deployment string) Option {
	return func(opts *options) {
		opts.embeddingDeployment = deployment
	}
}

// WithEmbeddingModel sets the embedding model identifier sent in requests.
func WithEmbeddingModel(model string) Option {
	return func(opts *options) {
		if model != "" {
			opts.embeddingModel = model
		}
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(opts *options) {
		if temperature >= 0 {
			opts.temperature = temperature
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}
