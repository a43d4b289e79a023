package qdrant

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sevigo/pdfchat/embeddings"
)

const (
	defaultHost          = "localhost"
	defaultPort          = 6334
	defaultBatchSize     = 100
	maxBatchSize         = 1000
	defaultConcurrency   = 4
	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
	maxRetryDelay        = 30 * time.Second
)

var ErrInvalidOptions = errors.New("qdrant: invalid options provided")

type options struct {
	collectionName string
	qdrantURL      url.URL
	embedder       embeddings.Embedder
	apiKey         string
	useTLS         bool
	batchSize      int
	concurrency    int
	retryAttempts  int
	logger         *slog.Logger
}

// Option configures the Qdrant store.
type Option func(*options)

// WithCollectionName sets the default collection documents are written to.
func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = strings.TrimSpace(name)
	}
}

// WithHostAndPort sets the Qdrant gRPC endpoint.
func WithHostAndPort(host string, port int) Option {
	return func(opts *options) {
		if host != "" && port > 0 {
			opts.qdrantURL = url.URL{
				Scheme: "http",
				Host:   fmt.Sprintf("%s:%d", host, port),
			}
		}
	}
}

// WithURL sets the Qdrant endpoint from a parsed URL.
func WithURL(qdrantURL url.URL) Option {
	return func(opts *options) {
		opts.qdrantURL = qdrantURL
	}
}

// WithEmbedder sets the embedder used for documents and queries.
func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *options) {
		opts.embedder = embedder
	}
}

// WithAPIKey sets the API key for authenticated Qdrant deployments.
func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTLS toggles TLS on the gRPC connection.
func WithTLS(useTLS bool) Option {
	return func(opts *options) {
		opts.useTLS = useTLS
	}
}

// WithBatchSize sets the upsert batch size.
func WithBatchSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.batchSize = size
		}
	}
}

// WithConcurrency limits the number of upsert batches in flight.
func WithConcurrency(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.concurrency = n
		}
	}
}

// WithRetryAttempts sets how often a failed upsert batch is retried.
func WithRetryAttempts(attempts int) Option {
	return func(opts *options) {
		if attempts >= 0 {
			opts.retryAttempts = attempts
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

func parseOptions(opts ...Option) (options, error) {
	o := options{
		batchSize:     defaultBatchSize,
		concurrency:   defaultConcurrency,
		retryAttempts: defaultRetryAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.qdrantURL.Host == "" {
		o.qdrantURL = url.URL{
			Scheme: "http",
			Host:   fmt.Sprintf("%s:%d", defaultHost, defaultPort),
		}
	}

	if strings.TrimSpace(o.collectionName) == "" {
		return o, fmt.Errorf("%w: collection name is required", ErrInvalidOptions)
	}
	if o.batchSize > maxBatchSize {
		return o, fmt.Errorf("%w: batch size %d exceeds maximum %d", ErrInvalidOptions, o.batchSize, maxBatchSize)
	}

	return o, nil
}
