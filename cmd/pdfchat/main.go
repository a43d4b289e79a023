// Command pdfchat runs the document question-answering web server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sevigo/pdfchat/chatbot"
	"github.com/sevigo/pdfchat/config"
	"github.com/sevigo/pdfchat/internal/handlers"
	"github.com/sevigo/pdfchat/llms/ollama"
	"github.com/sevigo/pdfchat/textsplitter"
	"github.com/sevigo/pdfchat/vectorstores/qdrant"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML or JSON config file")
		addr       = flag.String("addr", "", "listen address, overrides the config (host:port)")
		check      = flag.Bool("check", false, "verify Ollama and Qdrant connectivity, then exit")
	)
	flag.Parse()

	// .env is optional; environment beats file config either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if *check {
		if err := runCheck(cfg, logger); err != nil {
			logger.Error("setup check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("setup check passed")
		return
	}

	if err := run(cfg, *addr, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, addrOverride string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := buildChatbot(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Reattach to an index left over from a previous run.
	if err := bot.Restore(ctx); err != nil {
		if !errors.Is(err, chatbot.ErrCollectionMissing) {
			logger.Warn("could not restore previous collection", "error", err)
		}
	}

	handler := handlers.New(bot, logger)
	mux := http.NewServeMux()
	handler.Routes(mux)

	addr := addrOverride
	if addr == "" {
		addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "provider", cfg.LLM.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildChatbot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*chatbot.RAGChatbot, error) {
	llmHandler, err := chatbot.NewLLMHandler(llmConfig(cfg), chatbot.WithHandlerLogger(logger))
	if err != nil {
		return nil, err
	}

	embedder, err := llmHandler.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("building embedder: %w", err)
	}

	store, err := qdrant.New(
		qdrant.WithCollectionName(cfg.Qdrant.Collection),
		qdrant.WithHostAndPort(cfg.Qdrant.Host, cfg.Qdrant.Port),
		qdrant.WithAPIKey(cfg.Qdrant.APIKey),
		qdrant.WithTLS(cfg.Qdrant.UseTLS),
		qdrant.WithEmbedder(embedder),
		qdrant.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	manager, err := chatbot.NewVectorStoreManager(store, embedder, cfg.Qdrant.Collection,
		chatbot.WithTopK(cfg.Retrieval.TopK),
		chatbot.WithManagerLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.Chunking.Size),
		textsplitter.WithChunkOverlap(cfg.Chunking.Overlap),
	)
	processor, err := chatbot.NewDocumentProcessor(cfg.Paths.UploadDir,
		chatbot.WithSplitter(splitter),
		chatbot.WithProcessorLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return chatbot.New(processor, manager, llmHandler, chatbot.WithBotLogger(logger))
}

func llmConfig(cfg *config.Config) chatbot.LLMConfig {
	return chatbot.LLMConfig{
		Provider:    cfg.LLM.Provider,
		Temperature: cfg.LLM.Temperature,
		Ollama: chatbot.OllamaConfig{
			Model:          cfg.Ollama.Model,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
			ServerURL:      cfg.Ollama.URL,
		},
		Azure: chatbot.AzureConfig{
			Endpoint:            cfg.Azure.Endpoint,
			APIKey:              cfg.Azure.APIKey,
			APIVersion:          cfg.Azure.APIVersion,
			Deployment:          cfg.Azure.Deployment,
			EmbeddingDeployment: cfg.Azure.EmbeddingDeployment,
			EmbeddingModel:      cfg.Azure.EmbeddingModel,
		},
		Gemini: chatbot.GeminiConfig{
			APIKey:         cfg.Gemini.APIKey,
			Model:          cfg.Gemini.Model,
			EmbeddingModel: cfg.Gemini.EmbeddingModel,
		},
	}
}

// runCheck verifies the local setup: Ollama reachability, model and
// embedding-model availability, and Qdrant health.
func runCheck(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if cfg.LLM.Provider == "ollama" {
		for _, model := range []string{cfg.Ollama.Model, cfg.Ollama.EmbeddingModel} {
			llm, err := ollama.New(
				ollama.WithModel(model),
				ollama.WithServerURL(cfg.Ollama.URL),
				ollama.WithLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("ollama client: %w", err)
			}
			if err := llm.Health(ctx); err != nil {
				return fmt.Errorf("ollama not reachable at %s: %w", cfg.Ollama.URL, err)
			}

			exists, err := llm.ModelExists(ctx)
			if err != nil {
				return fmt.Errorf("checking model %q: %w", model, err)
			}
			if !exists {
				return fmt.Errorf("model %q is not available, run: ollama pull %s", model, model)
			}
			logger.Info("ollama model available", "model", model)
		}
	}

	store, err := qdrant.New(
		qdrant.WithCollectionName(cfg.Qdrant.Collection),
		qdrant.WithHostAndPort(cfg.Qdrant.Host, cfg.Qdrant.Port),
		qdrant.WithAPIKey(cfg.Qdrant.APIKey),
		qdrant.WithTLS(cfg.Qdrant.UseTLS),
		qdrant.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("qdrant client: %w", err)
	}
	if err := store.Health(ctx); err != nil {
		return fmt.Errorf("qdrant not reachable at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err)
	}
	logger.Info("qdrant reachable", "host", cfg.Qdrant.Host, "port", cfg.Qdrant.Port)

	return nil
}
