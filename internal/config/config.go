// Package config loads service configuration from the environment, with
// optional .env support for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth for this service's API
	APIKey string

	// OCR service (optional; local extraction is used when unset)
	OCRURL    string
	OCRAPIKey string
	OCRModel  string

	// Chat LLM (OpenAI protocol)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Embeddings
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingAPIKey    string
	OllamaHost         string

	// Qdrant connection
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantTimeout    time.Duration

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Worker pool
	WorkerCount   int
	MaxQueueSize  int
	DocumentPause time.Duration

	// External call retries
	MaxRetries int
	BaseDelay  time.Duration

	// Filesystem
	OutputDir string
	DataDir   string

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF local extraction
	PDFFallbackPdftotext bool
}

func Load() Config {
	// Missing .env is fine; the environment may be fully populated already.
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("NORMRAG_API_KEY"),

		OCRURL:    os.Getenv("OCR_URL"),
		OCRAPIKey: os.Getenv("OCR_API_KEY"),
		OCRModel:  envOr("OCR_MODEL", "mistral-ocr-latest"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMBaseURL: os.Getenv("LLM_BASE_URL"),
		LLMModel:   envOr("LLM_MODEL", "mistral-small-latest"),

		EmbeddingProvider:  envOr("EMBEDDING_PROVIDER", "ollama"),
		EmbeddingModel:     envOr("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDimension: envInt("EMBEDDING_DIMENSION", 768),
		EmbeddingAPIKey:    os.Getenv("EMBEDDING_API_KEY"),
		OllamaHost:         envOr("OLLAMA_HOST", "http://localhost:11434"),

		QdrantURL:        envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: envOr("QDRANT_COLLECTION", "normrag_chunks"),
		QdrantTimeout:    envDuration("QDRANT_TIMEOUT", 30*time.Second),

		ChunkSize:    envInt("CHUNK_SIZE", 600),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 100),

		WorkerCount:   envInt("WORKER_COUNT", 2),
		MaxQueueSize:  envInt("MAX_QUEUE_SIZE", 100),
		DocumentPause: envDuration("DOCUMENT_PAUSE", 2*time.Second),

		MaxRetries: envInt("MAX_RETRIES", 3),
		BaseDelay:  envDuration("RETRY_BASE_DELAY", 1*time.Second),

		OutputDir: envOr("OUTPUT_DIR", "output"),
		DataDir:   envOr("DATA_DIR", "data"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.DocumentPause < 0 {
		cfg.DocumentPause = 0
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	// The chat key doubles as the embedding key when the embedding
	// endpoint shares the provider account.
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("NORMRAG_API_KEY is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.EmbeddingProvider != "openai" && c.EmbeddingProvider != "ollama" {
		return fmt.Errorf("EMBEDDING_PROVIDER must be openai or ollama, got %q", c.EmbeddingProvider)
	}
	if c.EmbeddingProvider == "openai" && c.EmbeddingAPIKey == "" {
		return fmt.Errorf("openai embedding provider requires an API key")
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	return nil
}

// OCRConfigured reports whether an external OCR service should be used
// instead of local extraction.
func (c Config) OCRConfigured() bool {
	return c.OCRURL != "" && c.OCRAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
