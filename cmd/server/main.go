package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jmorales/normrag/internal/api"
	"github.com/jmorales/normrag/internal/chunker"
	"github.com/jmorales/normrag/internal/config"
	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/embedder"
	"github.com/jmorales/normrag/internal/enrich"
	"github.com/jmorales/normrag/internal/extract"
	"github.com/jmorales/normrag/internal/indexer"
	"github.com/jmorales/normrag/internal/integrity"
	"github.com/jmorales/normrag/internal/ocr"
	"github.com/jmorales/normrag/internal/pipeline"
	"github.com/jmorales/normrag/internal/qdrant"
	"github.com/jmorales/normrag/internal/retry"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// LLM stats are shared across workers so the endpoint sees the whole
	// service; clients are built per worker.
	stats := enrich.NewStats(time.Hour)
	failed := document.NewFailedList(cfg.OutputDir)

	chunkCfg := chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap}
	if err := chunkCfg.Validate(); err != nil {
		log.Error("invalid chunk configuration", "error", err)
		os.Exit(1)
	}

	factory := func() *pipeline.Worker {
		caller := &retry.Caller{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.BaseDelay}

		var extractor pipeline.Extractor
		if cfg.OCRConfigured() {
			extractor = ocr.NewClient(cfg.OCRURL, cfg.OCRAPIKey, cfg.OCRModel)
		} else {
			extractor = &extract.Local{FallbackPdftotext: cfg.PDFFallbackPdftotext}
		}

		llmCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			llmCfg.BaseURL = cfg.LLMBaseURL
		}
		enricher := enrich.New(openai.NewClientWithConfig(llmCfg), cfg.LLMModel, caller, stats, log)

		emb, err := embedder.New(embedder.Config{
			Provider:   cfg.EmbeddingProvider,
			Model:      cfg.EmbeddingModel,
			Dimension:  cfg.EmbeddingDimension,
			APIKey:     cfg.EmbeddingAPIKey,
			BaseURL:    cfg.LLMBaseURL,
			OllamaHost: cfg.OllamaHost,
		})
		if err != nil {
			// Provider validity is checked in config.Validate; this is a
			// programming error, not a runtime condition.
			log.Error("embedder setup failed", "error", err)
			os.Exit(1)
		}

		store := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.QdrantTimeout)
		ix := indexer.New(emb, store, caller, log)

		return pipeline.NewWorker(extractor, enricher, ix, chunkCfg, cfg.OutputDir, failed, log)
	}

	orch := pipeline.NewOrchestrator(cfg.WorkerCount, cfg.MaxQueueSize, cfg.DocumentPause, cfg.JobTTL, factory, log)
	orch.Start(ctx)

	store := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.QdrantTimeout)
	validator := integrity.New(store, cfg.OutputDir, log)

	srv := api.NewServer(orch, validator, stats, failed, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting normrag", "port", cfg.Port,
		"embedding_provider", cfg.EmbeddingProvider,
		"collection", cfg.QdrantCollection,
		"ocr", cfg.OCRConfigured())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
