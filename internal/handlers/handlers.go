// Package handlers implements the web chat UI and the JSON API in
// front of the chatbot.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevigo/pdfchat/chains"
	"github.com/sevigo/pdfchat/chatbot"
	"github.com/sevigo/pdfchat/metrics"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

// Bot is the chatbot surface the HTTP layer needs.
type Bot interface {
	Chat(ctx context.Context, question string) (*chains.Result, error)
	ProcessUpload(ctx context.Context, name string, r io.Reader) (int, error)
	RemoveDocument(ctx context.Context, source string) error
	SearchDocuments(ctx context.Context, query string, k int) ([]vectorstores.DocumentWithScore, error)
	History() []schema.MessageContent
	ClearHistory()
	Reset(ctx context.Context) error
	IsReady() bool
	ModelInfo() chatbot.ModelInfo
}

// Handler serves the chat UI and the JSON API.
type Handler struct {
	bot    Bot
	logger *slog.Logger
}

// New creates a Handler.
func New(bot Bot, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bot:    bot,
		logger: logger.With("component", "http"),
	}
}

// Routes registers all endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.ChatPage)
	mux.HandleFunc("POST /api/chat", h.Chat)
	mux.HandleFunc("POST /api/upload", h.Upload)
	mux.HandleFunc("DELETE /api/documents", h.RemoveDocument)
	mux.HandleFunc("POST /api/reset", h.Reset)
	mux.HandleFunc("POST /api/history/clear", h.ClearHistory)
	mux.HandleFunc("GET /api/history", h.History)
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// LoggingMiddleware logs each request and records HTTP metrics.
func (h *Handler) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.status, duration)
		h.logger.Info("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", duration,
			"remote", r.RemoteAddr)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, errorResponse{Error: errType, Message: message})
}
