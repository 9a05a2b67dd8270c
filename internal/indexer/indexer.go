// Package indexer embeds enriched chunks and writes them to the vector
// store in batches. Embedding failures degrade individual chunks to
// placeholder vectors; only store connectivity fails the whole document.
package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/embedder"
	"github.com/jmorales/normrag/internal/qdrant"
	"github.com/jmorales/normrag/internal/retry"
)

const defaultBatchSize = 100

// VectorStore is the slice of the qdrant client the indexer uses.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []qdrant.Point) error
}

// Result reports what happened to one document's chunks.
type Result struct {
	Total         int   `json:"total"`
	Embedded      int   `json:"embedded"`
	Placeholders  int   `json:"placeholders"`
	Stored        int   `json:"stored"`
	FailedBatches []int `json:"failed_batches,omitempty"`
}

// Complete reports whether every chunk was stored.
func (r Result) Complete() bool {
	return r.Stored == r.Total && len(r.FailedBatches) == 0
}

// Indexer drives embed-then-upsert for a chunk set.
type Indexer struct {
	embedder  embedder.Embedder
	store     VectorStore
	caller    *retry.Caller
	batchSize int
	log       *slog.Logger
}

func New(emb embedder.Embedder, store VectorStore, caller *retry.Caller, log *slog.Logger) *Indexer {
	if caller == nil {
		caller = retry.NewCaller()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{
		embedder:  emb,
		store:     store,
		caller:    caller,
		batchSize: defaultBatchSize,
		log:       log,
	}
}

// Index embeds every chunk and upserts the points in batches. A chunk
// whose embedding fails after retries gets a zero vector and an
// embedding_placeholder payload flag so it can be found and re-embedded
// later. Batches are committed independently; a failed batch is reported
// but does not roll back the ones already written.
func (ix *Indexer) Index(ctx context.Context, chunks []document.Chunk) (Result, error) {
	res := Result{Total: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}

	if err := ix.store.EnsureCollection(ctx, ix.embedder.Dimension()); err != nil {
		return res, fmt.Errorf("ensure collection: %w", err)
	}

	points := make([]qdrant.Point, 0, len(chunks))
	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		chunk := &chunks[i]
		vec, placeholder := ix.embed(ctx, chunk)
		if placeholder {
			res.Placeholders++
		} else {
			res.Embedded++
		}
		points = append(points, qdrant.Point{
			ID:      uuid.NewString(),
			Vector:  vec,
			Payload: payload(chunk, placeholder),
		})
	}

	for start := 0; start < len(points); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]
		err := ix.caller.Do(ctx, func() error {
			return ix.store.Upsert(ctx, batch)
		})
		if err != nil {
			batchNo := start / ix.batchSize
			res.FailedBatches = append(res.FailedBatches, batchNo)
			ix.log.Error("batch upsert failed", "batch", batchNo, "points", len(batch), "error", err)
			continue
		}
		res.Stored += len(batch)
	}
	return res, nil
}

func (ix *Indexer) embed(ctx context.Context, chunk *document.Chunk) ([]float32, bool) {
	var vec []float32
	err := ix.caller.Do(ctx, func() error {
		v, err := ix.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		ix.log.Warn("embedding failed, storing placeholder",
			"chunk_id", chunk.Metadata.ChunkID, "error", err)
		return make([]float32, ix.embedder.Dimension()), true
	}
	return vec, false
}

// payload flattens a chunk into the vector store payload contract used by
// the retrieval side and the integrity validator.
func payload(chunk *document.Chunk, placeholder bool) map[string]any {
	m := &chunk.Metadata
	p := map[string]any{
		"text":             chunk.Content,
		"original_content": m.OriginalContent,
		"book_title":       m.BookTitle,
		"page_number":      m.PageNumber,
		"chunk_id":         m.ChunkID,
		"chunk_type":       string(m.ChunkType),
		"has_images":       m.HasImages,
		"has_tables":       m.HasTables,
		"has_formulas":     m.HasFormulas,
		"has_lists":        m.HasLists,
		"visual_summary":   m.VisualSummary,
	}
	if len(m.Headers) > 0 {
		p["headers"] = m.Headers
	}
	if m.ParentChunk != nil {
		p["parent_chunk"] = *m.ParentChunk
	}
	if m.EnrichmentFallback {
		p["enrichment_fallback"] = true
	}
	if placeholder {
		p["embedding_placeholder"] = true
	}
	return p
}
