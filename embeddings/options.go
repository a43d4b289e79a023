package embeddings

type options struct {
	StripNewLines bool
	BatchSize     int
}

type Option func(*options)

// WithBatchSize sets how many texts are embedded per backend request.
func WithBatchSize(size int) Option {
	return func(opts *options) {
		opts.BatchSize = size
	}
}

// WithStripNewLines controls whether newlines are replaced with spaces before
// embedding.
func WithStripNewLines(strip bool) Option {
	return func(opts *options) {
		opts.StripNewLines = strip
	}
}
