package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sevigo/pdfchat/documentloaders"
	"github.com/sevigo/pdfchat/metrics"
	"github.com/sevigo/pdfchat/schema"
)

const maxUploadSize = 50 << 20 // 50 MiB

type chatRequest struct {
	Message string `json:"message"`
}

type sourceDocument struct {
	Content string         `json:"content"`
	Source  string         `json:"source,omitempty"`
	Page    int            `json:"page,omitempty"`
	Meta    map[string]any `json:"metadata,omitempty"`
}

type chatResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceDocument `json:"sources"`
	Ready   bool             `json:"ready"`
}

type uploadResponse struct {
	File   string `json:"file"`
	Chunks int    `json:"chunks"`
}

type historyMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type searchResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Page    int     `json:"page,omitempty"`
	Score   float32 `json:"score"`
}

// Chat answers one user message from the indexed documents.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	start := time.Now()
	result, err := h.bot.Chat(r.Context(), req.Message)
	if err != nil {
		metrics.RecordChatRequest(time.Since(start), false, 0)
		h.logger.Error("chat failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "chat failed", err.Error())
		return
	}
	metrics.RecordChatRequest(time.Since(start), true, len(result.SourceDocuments))

	h.writeJSON(w, http.StatusOK, chatResponse{
		Answer:  result.Answer,
		Sources: toSourceDocuments(result.SourceDocuments),
		Ready:   h.bot.IsReady(),
	})
}

// Upload accepts a multipart document upload and indexes it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required", err.Error())
		return
	}
	defer file.Close()

	start := time.Now()
	chunks, err := h.bot.ProcessUpload(r.Context(), header.Filename, file)
	if err != nil {
		metrics.RecordIndexingRequest(time.Since(start), false, 0)
		if errors.Is(err, documentloaders.ErrUnsupportedFormat) {
			h.writeError(w, http.StatusUnsupportedMediaType, "unsupported file format",
				filepath.Ext(header.Filename))
			return
		}
		h.logger.Error("upload processing failed", "file", header.Filename, "error", err)
		h.writeError(w, http.StatusInternalServerError, "processing failed", err.Error())
		return
	}
	metrics.RecordIndexingRequest(time.Since(start), true, chunks)

	h.writeJSON(w, http.StatusOK, uploadResponse{
		File:   filepath.Base(header.Filename),
		Chunks: chunks,
	})
}

// RemoveDocument deletes all indexed chunks of one uploaded file:
// DELETE /api/documents?source=<path>.
func (h *Handler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter source is required", "")
		return
	}

	if err := h.bot.RemoveDocument(r.Context(), source); err != nil {
		h.logger.Error("document removal failed", "source", source, "error", err)
		h.writeError(w, http.StatusInternalServerError, "removal failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "source": source})
}

// Reset drops the document index and the conversation.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.bot.Reset(r.Context()); err != nil {
		h.logger.Error("reset failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "reset failed", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// ClearHistory wipes the conversation but keeps the index.
func (h *Handler) ClearHistory(w http.ResponseWriter, _ *http.Request) {
	h.bot.ClearHistory()
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "history cleared"})
}

// History returns the conversation so far.
func (h *Handler) History(w http.ResponseWriter, _ *http.Request) {
	messages := h.bot.History()
	out := make([]historyMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, historyMessage{
			Role: string(msg.Role),
			Text: msg.GetTextContent(),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

// Search runs a raw scored similarity search: GET /api/search?q=...&k=4.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter q is required", "")
		return
	}

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid k parameter", raw)
			return
		}
		k = parsed
	}

	start := time.Now()
	results, err := h.bot.SearchDocuments(r.Context(), query, k)
	if err != nil {
		metrics.RecordSearchRequest(time.Since(start), false)
		h.logger.Error("search failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "search failed", err.Error())
		return
	}
	metrics.RecordSearchRequest(time.Since(start), true)

	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, searchResult{
			Content: res.Document.PageContent,
			Source:  res.Document.Source(),
			Page:    res.Document.Page(),
			Score:   res.Score,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

// Status reports readiness and the active model.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ready": h.bot.IsReady(),
		"model": h.bot.ModelInfo(),
	})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toSourceDocuments(docs []schema.Document) []sourceDocument {
	out := make([]sourceDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, sourceDocument{
			Content: doc.PageContent,
			Source:  doc.Source(),
			Page:    doc.Page(),
		})
	}
	return out
}
