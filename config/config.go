// Package config loads the application configuration from YAML or JSON
// files with defaults and environment-variable overrides. Credentials
// are only ever taken from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    Server    `json:"server" yaml:"server"`
	LLM       LLM       `json:"llm" yaml:"llm"`
	Ollama    Ollama    `json:"ollama" yaml:"ollama"`
	Azure     Azure     `json:"azure" yaml:"azure"`
	Gemini    Gemini    `json:"gemini" yaml:"gemini"`
	Qdrant    Qdrant    `json:"qdrant" yaml:"qdrant"`
	Chunking  Chunking  `json:"chunking" yaml:"chunking"`
	Retrieval Retrieval `json:"retrieval" yaml:"retrieval"`
	Paths     Paths     `json:"paths" yaml:"paths"`
	LogLevel  string    `json:"log_level" yaml:"log_level"`
}

type Server struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

type LLM struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

type Ollama struct {
	URL            string `json:"url" yaml:"url"`
	Model          string `json:"model" yaml:"model"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
}

type Azure struct {
	Endpoint            string `json:"endpoint" yaml:"endpoint"`
	APIKey              string `json:"-" yaml:"-"`
	APIVersion          string `json:"api_version" yaml:"api_version"`
	Deployment          string `json:"deployment" yaml:"deployment"`
	EmbeddingDeployment string `json:"embedding_deployment" yaml:"embedding_deployment"`
	EmbeddingModel      string `json:"embedding_model" yaml:"embedding_model"`
}

type Gemini struct {
	APIKey         string `json:"-" yaml:"-"`
	Model          string `json:"model" yaml:"model"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
}

type Qdrant struct {
	Host       string `json:"host" yaml:"host"`
	Port       int    `json:"port" yaml:"port"`
	APIKey     string `json:"-" yaml:"-"`
	UseTLS     bool   `json:"use_tls" yaml:"use_tls"`
	Collection string `json:"collection" yaml:"collection"`
}

type Chunking struct {
	Size    int `json:"size" yaml:"size"`
	Overlap int `json:"overlap" yaml:"overlap"`
}

type Retrieval struct {
	TopK int `json:"top_k" yaml:"top_k"`
}

type Paths struct {
	UploadDir string `json:"upload_dir" yaml:"upload_dir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Host: "localhost",
			Port: 8080,
		},
		LLM: LLM{
			Provider:    "ollama",
			Temperature: 0.1,
		},
		Ollama: Ollama{
			URL:            "http://localhost:11434",
			Model:          "llama3.2",
			EmbeddingModel: "nomic-embed-text",
		},
		Azure: Azure{
			APIVersion:     "2024-06-01",
			EmbeddingModel: "text-embedding-3-small",
		},
		Gemini: Gemini{
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
		},
		Qdrant: Qdrant{
			Host:       "localhost",
			Port:       6334,
			Collection: "pdf_documents",
		},
		Chunking: Chunking{
			Size:    1500,
			Overlap: 200,
		},
		Retrieval: Retrieval{
			TopK: 4,
		},
		Paths: Paths{
			UploadDir: "uploads",
		},
		LogLevel: "info",
	}
}

// Load reads a config file on top of the defaults, then applies
// environment overrides. A missing or empty path yields the defaults
// plus environment.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("config: reading file: %w", err)
			}

			switch ext := filepath.Ext(path); ext {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(data, config); err != nil {
					return nil, fmt.Errorf("config: parsing YAML: %w", err)
				}
			case ".json":
				if err := json.Unmarshal(data, config); err != nil {
					return nil, fmt.Errorf("config: parsing JSON: %w", err)
				}
			default:
				return nil, fmt.Errorf("config: unsupported file format %q", ext)
			}
		}
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overrides file values from the environment. Secrets
// (API keys) can only be set this way.
func (c *Config) applyEnv() {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.Ollama.URL, "OLLAMA_BASE_URL")
	setString(&c.Ollama.Model, "OLLAMA_MODEL")
	setString(&c.Ollama.EmbeddingModel, "OLLAMA_EMBEDDING_MODEL")

	setString(&c.Azure.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.Azure.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.Azure.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&c.Azure.Deployment, "AZURE_OPENAI_DEPLOYMENT")
	setString(&c.Azure.EmbeddingDeployment, "AZURE_OPENAI_EMBEDDING_DEPLOYMENT")

	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")

	setString(&c.Qdrant.Host, "QDRANT_HOST")
	setInt(&c.Qdrant.Port, "QDRANT_PORT")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")

	setString(&c.Paths.UploadDir, "UPLOAD_DIR")
	setString(&c.LogLevel, "LOG_LEVEL")
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("config: chunk size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunk overlap %d must be non-negative and smaller than chunk size %d",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("config: retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.LLM.Provider == "azure" && (c.Azure.Endpoint == "" || c.Azure.APIKey == "") {
		return fmt.Errorf("config: azure provider requires AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY")
	}
	if c.LLM.Provider == "gemini" && c.Gemini.APIKey == "" {
		return fmt.Errorf("config: gemini provider requires GEMINI_API_KEY")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
