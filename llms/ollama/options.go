package ollama

import (
	"log/slog"
	"net/http"
	"net/url"
)

// options holds configuration settings for the Ollama backend.
type options struct {
	model       string
	serverURL   *url.URL
	httpClient  *http.Client
	temperature float64
	logger      *slog.Logger
}

// Option is a function type for configuring Ollama options.
type Option func(*options)

func applyOptions(opts ...Option) options {
	o := options{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithServerURL sets the Ollama server base URL. When unset, the client is
// configured from the OLLAMA_HOST environment variable.
func WithServerURL(rawURL string) Option {
	return func(opts *options) {
		if parsedURL, err := url.Parse(rawURL); err == nil && parsedURL.Host != "" {
			opts.serverURL = parsedURL
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithTemperature sets the default sampling temperature for generation.
func WithTemperature(temperature float64) Option {
	return func(opts *options) {
		if temperature >= 0 {
			opts.temperature = temperature
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}
