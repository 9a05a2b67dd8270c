package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jmorales/normrag/internal/chunker"
	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/enrich"
	"github.com/jmorales/normrag/internal/indexer"
	"github.com/jmorales/normrag/internal/splitter"
)

// Extractor turns raw document bytes into page-marked markdown.
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (string, int, error)
}

// Enricher provides the LLM operations the worker needs.
type Enricher interface {
	DocumentSummary(ctx context.Context, title, markdown string) (string, error)
	InferTitle(ctx context.Context, firstPage string) (string, error)
	ContextualizeChunk(ctx context.Context, in enrich.ChunkInput) (string, bool)
}

// ChunkIndexer embeds and stores a document's chunks.
type ChunkIndexer interface {
	Index(ctx context.Context, chunks []document.Chunk) (indexer.Result, error)
}

// Worker processes one job at a time through the full pipeline:
// extract, summarize, chunk, enrich, store.
type Worker struct {
	extractor Extractor
	enricher  Enricher
	indexer   ChunkIndexer
	chunkCfg  chunker.Config
	outputDir string
	failed    *document.FailedList
	log       *slog.Logger
}

func NewWorker(extractor Extractor, enricher Enricher, ix ChunkIndexer, chunkCfg chunker.Config, outputDir string, failed *document.FailedList, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		extractor: extractor,
		enricher:  enricher,
		indexer:   ix,
		chunkCfg:  chunkCfg,
		outputDir: outputDir,
		failed:    failed,
		log:       log,
	}
}

// Process runs one job to a terminal status. Document-level failures
// (extraction, summary, artifact write, store connectivity) land the file
// on the failed list; chunk-level failures only degrade individual chunks.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.ReleaseFileData()

	// Extract.
	job.SetStatus(StatusExtracting, "extract")
	markdown, pages, err := w.extractor.Extract(ctx, job.FileData(), job.Filename)
	if err != nil {
		w.fail(job, log, "extract", err)
		return
	}
	job.SetPages(pages)

	// Summarize. The title comes from the caller, the model, or the
	// filename, in that order.
	job.SetStatus(StatusSummarizing, "summarize")
	title := job.GetTitle()
	if title == "" {
		title = w.resolveTitle(ctx, markdown, job.Filename)
		job.SetTitle(title)
	}
	summary, err := w.enricher.DocumentSummary(ctx, title, markdown)
	if err != nil {
		w.fail(job, log, "summarize", err)
		return
	}

	// Chunk.
	job.SetStatus(StatusChunking, "chunk")
	sections := splitter.New().Split(markdown)
	chunks, err := buildChunks(sections, title, w.chunkCfg)
	if err != nil {
		w.fail(job, log, "chunk", err)
		return
	}
	if len(chunks) == 0 {
		w.fail(job, log, "chunk", errNoChunks)
		return
	}
	job.SetTotalChunks(len(chunks))
	log.Info("document chunked", "title", title, "pages", pages, "chunks", len(chunks))

	// Enrich. Chunks are processed sequentially; the rate limits live on
	// the model side, not here.
	job.SetStatus(StatusEnriching, "enrich")
	for i := range chunks {
		if err := ctx.Err(); err != nil {
			w.fail(job, log, "enrich", err)
			return
		}
		chunk := &chunks[i]
		content, fallback := w.enricher.ContextualizeChunk(ctx, enrich.ChunkInput{
			Content:         chunk.Content,
			DocumentTitle:   title,
			DocumentSummary: summary,
			VisualSummary:   chunk.Metadata.VisualSummary,
			PageNumber:      chunk.Metadata.PageNumber,
		})
		chunk.Content = content
		chunk.Metadata.EnrichmentFallback = fallback
		job.ChunkEnriched(fallback)
	}

	// Persist the artifact before touching the vector store, so the
	// validator can compare even when indexing fails.
	if err := document.SaveChunks(w.outputDir, stem(job.Filename), chunks); err != nil {
		w.fail(job, log, "save", err)
		return
	}

	// Embed and store.
	job.SetStatus(StatusStoring, "store")
	res, err := w.indexer.Index(ctx, chunks)
	if err != nil {
		w.fail(job, log, "store", err)
		return
	}
	job.SetIndexCounts(res.Embedded, res.Placeholders, res.Stored)

	switch {
	case res.Complete():
		job.SetStatus(StatusCompleted, "done")
		log.Info("document ingested", "title", title, "chunks", res.Stored, "placeholders", res.Placeholders)
	case res.Stored > 0:
		job.AddError("some chunk batches were not stored")
		job.SetStatus(StatusPartial, "done")
		log.Warn("document partially stored", "title", title, "stored", res.Stored, "total", res.Total)
	default:
		w.fail(job, log, "store", errNothingStored)
	}
}

// resolveTitle asks the model for the document title from its first page,
// falling back to the filename stem.
func (w *Worker) resolveTitle(ctx context.Context, markdown, filename string) string {
	pages := splitter.SplitPages(markdown)
	if len(pages) > 0 {
		title, err := w.enricher.InferTitle(ctx, pages[0].Text)
		if err == nil && title != "" {
			return title
		}
		w.log.Warn("title inference failed, using filename", "filename", filename, "error", err)
	}
	return stem(filename)
}

func (w *Worker) fail(job *Job, log *slog.Logger, phase string, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
	log.Error("document ingestion failed", "phase", phase, "error", err)
	if w.failed != nil {
		if recErr := w.failed.Append(job.Filename); recErr != nil {
			log.Error("could not record failed file", "error", recErr)
		}
	}
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	errNoChunks      = &pipelineError{"document produced no chunks"}
	errNothingStored = &pipelineError{"no chunks were stored"}
)

type pipelineError struct{ msg string }

func (e *pipelineError) Error() string { return e.msg }
