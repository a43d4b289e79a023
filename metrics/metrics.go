// Package metrics exposes Prometheus instruments for the HTTP layer
// and the RAG pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	SuccessTrue  = "true"
	SuccessFalse = "false"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdfchat_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status_code"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfchat_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status_code"})

	ChatRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdfchat_chat_duration_seconds",
		Help:    "Duration of chat requests in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 15, 30, 60, 120},
	}, []string{"success"})

	ChatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfchat_chat_requests_total",
		Help: "Total number of chat requests",
	}, []string{"success"})

	ChatSourcesRetrieved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdfchat_chat_sources_retrieved",
		Help:    "Number of source documents retrieved per chat answer",
		Buckets: []float64{0, 1, 2, 4, 8, 16},
	})

	IndexingRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdfchat_indexing_duration_seconds",
		Help:    "Duration of document indexing operations in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"success"})

	IndexingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfchat_indexing_requests_total",
		Help: "Total number of indexing requests",
	}, []string{"success"})

	ChunksIndexed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdfchat_chunks_indexed",
		Help:    "Number of chunks produced per indexing request",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	SearchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdfchat_search_duration_seconds",
		Help:    "Duration of similarity searches in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"success"})

	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdfchat_search_requests_total",
		Help: "Total number of similarity search requests",
	}, []string{"success"})
)

func successLabel(success bool) string {
	if success {
		return SuccessTrue
	}
	return SuccessFalse
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}

// RecordChatRequest records one chat exchange.
func RecordChatRequest(duration time.Duration, success bool, sourcesCount int) {
	label := successLabel(success)
	ChatRequestDuration.WithLabelValues(label).Observe(duration.Seconds())
	ChatRequestsTotal.WithLabelValues(label).Inc()
	if success {
		ChatSourcesRetrieved.Observe(float64(sourcesCount))
	}
}

// RecordIndexingRequest records one document upload/indexing run.
func RecordIndexingRequest(duration time.Duration, success bool, chunkCount int) {
	label := successLabel(success)
	IndexingRequestDuration.WithLabelValues(label).Observe(duration.Seconds())
	IndexingRequestsTotal.WithLabelValues(label).Inc()
	if success {
		ChunksIndexed.Observe(float64(chunkCount))
	}
}

// RecordSearchRequest records one raw similarity search.
func RecordSearchRequest(duration time.Duration, success bool) {
	label := successLabel(success)
	SearchRequestDuration.WithLabelValues(label).Observe(duration.Seconds())
	SearchRequestsTotal.WithLabelValues(label).Inc()
}
