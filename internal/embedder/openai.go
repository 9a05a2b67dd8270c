package embedder

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI embeds through any endpoint speaking the OpenAI embeddings
// protocol (OpenAI itself, Mistral, local gateways).
type OpenAI struct {
	client    *openai.Client
	model     string
	dimension int
}

func NewOpenAI(apiKey, baseURL, model string, dimension int) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func (o *OpenAI) Dimension() int { return o.dimension }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contains no data")
	}
	vec := resp.Data[0].Embedding
	if len(vec) != o.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), o.dimension)
	}
	return vec, nil
}
