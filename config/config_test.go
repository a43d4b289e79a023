package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.URL)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "pdf_documents", cfg.Qdrant.Collection)
	assert.Equal(t, 1500, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default().Qdrant.Collection, cfg.Qdrant.Collection)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
llm:
  provider: gemini
chunking:
  size: 800
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 800, cfg.Chunking.Size)
	// untouched fields keep defaults
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("a = 1"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "secret")
	t.Setenv("QDRANT_PORT", "7001")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.Azure.APIKey)
	assert.Equal(t, 7001, cfg.Qdrant.Port)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Chunking.Overlap = cfg.Chunking.Size
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Provider = "azure"
	assert.Error(t, cfg.Validate(), "azure without credentials must fail")

	cfg.Azure.Endpoint = "https://example.openai.azure.com"
	cfg.Azure.APIKey = "key"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}
