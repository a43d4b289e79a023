package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pdfchat/chains"
	"github.com/sevigo/pdfchat/chatbot"
	"github.com/sevigo/pdfchat/documentloaders"
	"github.com/sevigo/pdfchat/schema"
	"github.com/sevigo/pdfchat/vectorstores"
)

type fakeBot struct {
	ready      bool
	chatResult *chains.Result
	chatErr    error
	uploadErr  error
	chunks     int
	searchErr  error
	results    []vectorstores.DocumentWithScore
	history    []schema.MessageContent
	resetCalls int
	cleared    bool
	removed    []string
	removeErr  error
}

func (f *fakeBot) Chat(_ context.Context, _ string) (*chains.Result, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chatResult, nil
}

func (f *fakeBot) ProcessUpload(_ context.Context, _ string, r io.Reader) (int, error) {
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	if _, err := io.ReadAll(r); err != nil {
		return 0, err
	}
	return f.chunks, nil
}

func (f *fakeBot) RemoveDocument(_ context.Context, source string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, source)
	return nil
}

func (f *fakeBot) SearchDocuments(_ context.Context, _ string, _ int) ([]vectorstores.DocumentWithScore, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeBot) History() []schema.MessageContent { return f.history }
func (f *fakeBot) ClearHistory()                    { f.cleared = true }
func (f *fakeBot) Reset(_ context.Context) error    { f.resetCalls++; return nil }
func (f *fakeBot) IsReady() bool                    { return f.ready }

func (f *fakeBot) ModelInfo() chatbot.ModelInfo {
	return chatbot.ModelInfo{Provider: "ollama", Model: "llama3.2"}
}

func newServer(bot *fakeBot) *httptest.Server {
	h := New(bot, nil)
	mux := http.NewServeMux()
	h.Routes(mux)
	return httptest.NewServer(h.LoggingMiddleware(mux))
}

func TestChatEndpoint(t *testing.T) {
	bot := &fakeBot{
		ready: true,
		chatResult: &chains.Result{
			Answer: "The answer.",
			SourceDocuments: []schema.Document{
				schema.NewDocument("chunk", map[string]any{"source": "doc.pdf", "page": 2}),
			},
		},
	}
	srv := newServer(bot)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"what?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Answer  string `json:"answer"`
		Sources []struct {
			Source string `json:"source"`
			Page   int    `json:"page"`
		} `json:"sources"`
		Ready bool `json:"ready"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "The answer.", body.Answer)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "doc.pdf", body.Sources[0].Source)
	assert.Equal(t, 2, body.Sources[0].Page)
	assert.True(t, body.Ready)
}

func TestChatEndpoint_EmptyMessage(t *testing.T) {
	srv := newServer(&fakeBot{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatEndpoint_BotError(t *testing.T) {
	srv := newServer(&fakeBot{chatErr: errors.New("model unavailable")})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	bot := &fakeBot{chunks: 7}
	srv := newServer(bot)
	defer srv.Close()

	body, contentType := multipartBody(t, "report.pdf", "%PDF-1.4 fake")
	resp, err := http.Post(srv.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		File   string `json:"file"`
		Chunks int    `json:"chunks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "report.pdf", out.File)
	assert.Equal(t, 7, out.Chunks)
}

func TestUploadEndpoint_UnsupportedFormat(t *testing.T) {
	bot := &fakeBot{uploadErr: documentloaders.ErrUnsupportedFormat}
	srv := newServer(bot)
	defer srv.Close()

	body, contentType := multipartBody(t, "image.png", "not a document")
	resp, err := http.Post(srv.URL+"/api/upload", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadEndpoint_MissingFile(t *testing.T) {
	srv := newServer(&fakeBot{})
	defer srv.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	resp, err := http.Post(srv.URL+"/api/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveDocumentEndpoint(t *testing.T) {
	bot := &fakeBot{ready: true}
	srv := newServer(bot)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/documents?source=uploads/report.pdf", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"uploads/report.pdf"}, bot.removed)
}

func TestRemoveDocumentEndpoint_MissingSource(t *testing.T) {
	srv := newServer(&fakeBot{})
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/documents", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetEndpoint(t *testing.T) {
	bot := &fakeBot{}
	srv := newServer(bot)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reset", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, bot.resetCalls)
}

func TestHistoryEndpoints(t *testing.T) {
	bot := &fakeBot{
		history: []schema.MessageContent{
			schema.NewHumanMessage("question"),
			schema.NewAIMessage("answer"),
		},
	}
	srv := newServer(bot)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		History []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.History, 2)
	assert.Equal(t, "human", out.History[0].Role)
	assert.Equal(t, "question", out.History[0].Text)

	clearResp, err := http.Post(srv.URL+"/api/history/clear", "application/json", nil)
	require.NoError(t, err)
	defer clearResp.Body.Close()
	assert.Equal(t, http.StatusOK, clearResp.StatusCode)
	assert.True(t, bot.cleared)
}

func TestSearchEndpoint(t *testing.T) {
	bot := &fakeBot{
		ready: true,
		results: []vectorstores.DocumentWithScore{
			{
				Document: schema.NewDocument("relevant chunk", map[string]any{"source": "doc.pdf", "page": 1}),
				Score:    0.93,
			},
		},
	}
	srv := newServer(bot)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/search?q=relevant&k=4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Results []struct {
			Content string  `json:"content"`
			Score   float32 `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "relevant chunk", out.Results[0].Content)
	assert.InDelta(t, 0.93, out.Results[0].Score, 0.001)
}

func TestSearchEndpoint_Validation(t *testing.T) {
	srv := newServer(&fakeBot{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/search?q=x&k=zero")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusAndHealth(t *testing.T) {
	srv := newServer(&fakeBot{ready: true})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Ready bool `json:"ready"`
		Model struct {
			Provider string `json:"provider"`
		} `json:"model"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Ready)
	assert.Equal(t, "ollama", status.Model.Provider)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestChatPageServed(t *testing.T) {
	srv := newServer(&fakeBot{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "PDF Chat")
	assert.Contains(t, string(page), "/api/chat")
}
