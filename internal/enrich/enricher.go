// Package enrich generates document summaries and per-chunk context via an
// OpenAI-protocol chat model, falling back to a deterministic tag when the
// model is unavailable.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jmorales/normrag/internal/retry"
)

// Operation labels used in stats.
const (
	OpSummary       = "summary"
	OpTitle         = "title"
	OpContextualize = "contextualize"
)

// ChatCompleter is the slice of the OpenAI client the enricher needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Enricher adds retrieval context to chunks using a chat model.
type Enricher struct {
	client ChatCompleter
	model  string
	caller *retry.Caller
	stats  *Stats
	log    *slog.Logger
}

func New(client ChatCompleter, model string, caller *retry.Caller, stats *Stats, log *slog.Logger) *Enricher {
	if caller == nil {
		caller = retry.NewCaller()
	}
	if stats == nil {
		stats = NewStats(0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{client: client, model: model, caller: caller, stats: stats, log: log}
}

// Stats exposes the latency/counter aggregates for the stats endpoint.
func (e *Enricher) Stats() *Stats { return e.stats }

func (e *Enricher) complete(ctx context.Context, op, system, user string, maxTokens int) (string, error) {
	var content string
	start := time.Now()
	err := e.caller.Do(ctx, func() error {
		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     e.model,
			MaxTokens: maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion returned no choices")
		}
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		e.stats.RecordFailure(op)
		return "", fmt.Errorf("%s completion: %w", op, err)
	}
	e.stats.Record(op, time.Since(start).Milliseconds())
	return content, nil
}

// DocumentSummary produces the one-paragraph summary shared by every chunk
// of the document. Failure here fails the whole document; a missing
// summary would degrade every chunk's context.
func (e *Enricher) DocumentSummary(ctx context.Context, title, markdown string) (string, error) {
	return e.complete(ctx, OpSummary, summarySystemPrompt, summaryUserPrompt(title, markdown), 400)
}

// InferTitle asks the model for the document's formal title based on its
// first page. Callers fall back to the filename on error.
func (e *Enricher) InferTitle(ctx context.Context, firstPage string) (string, error) {
	title, err := e.complete(ctx, OpTitle, titleSystemPrompt, titleUserPrompt(firstPage), 60)
	if err != nil {
		return "", err
	}
	title = strings.Trim(title, `"' `)
	if title == "" {
		return "", fmt.Errorf("model returned an empty title")
	}
	return title, nil
}

// ChunkInput is everything ContextualizeChunk needs to situate one chunk.
type ChunkInput struct {
	Content         string
	DocumentTitle   string
	DocumentSummary string
	VisualSummary   string
	PageNumber      int
}

// ContextualizeChunk returns the enriched chunk text. Enrichment never
// fails a chunk: if the model call errors out after retries, the original
// content is returned prefixed with a document/page tag and the fallback
// flag is set.
func (e *Enricher) ContextualizeChunk(ctx context.Context, in ChunkInput) (string, bool) {
	prompt := contextUserPrompt(in.DocumentTitle, in.DocumentSummary, in.VisualSummary, in.Content, in.PageNumber)
	enriched, err := e.complete(ctx, OpContextualize, contextSystemPrompt, prompt, 1024)
	if err != nil || enriched == "" {
		if err != nil {
			e.log.Warn("chunk contextualization failed, using fallback",
				"page", in.PageNumber, "error", err)
		}
		e.stats.RecordFallback(OpContextualize)
		return FallbackContent(in.DocumentTitle, in.PageNumber, in.Content), true
	}
	return enriched, false
}

// FallbackContent is the deterministic enrichment used when the model is
// unavailable: the original text tagged with its provenance.
func FallbackContent(title string, page int, content string) string {
	return fmt.Sprintf("[%s, Page %d] %s", title, page, content)
}
