// Package embedder turns chunk text into fixed-dimension vectors. Two
// implementations are provided: any OpenAI-protocol endpoint and a local
// Ollama instance.
package embedder

import (
	"context"
	"fmt"
)

// Embedder produces one vector per text. Dimension is fixed per model and
// must match the vector store collection.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Config selects and parameterizes an embedder implementation.
type Config struct {
	Provider   string // "openai" or "ollama"
	Model      string
	Dimension  int
	APIKey     string // openai provider
	BaseURL    string // openai provider, empty for api.openai.com
	OllamaHost string // ollama provider
}

// New builds the embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension), nil
	case "ollama":
		return NewOllama(cfg.OllamaHost, cfg.Model, cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
