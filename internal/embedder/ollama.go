package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmorales/normrag/internal/retry"
)

const maxErrorBody = 4 * 1024

// Ollama embeds through a local Ollama server, the setup this pipeline
// originally ran with (nomic-embed-text, 768 dimensions).
type Ollama struct {
	host       string
	model      string
	dimension  int
	httpClient *http.Client
}

func NewOllama(host, model string, dimension int) *Ollama {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &Ollama{
		host:       strings.TrimRight(host, "/"),
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *Ollama) Dimension() int { return o.dimension }

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if retry.TransientStatus(resp.StatusCode) {
			return nil, &retry.TransientError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, msg)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Embedding) != o.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(out.Embedding), o.dimension)
	}
	return out.Embedding, nil
}
