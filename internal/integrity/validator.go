// Package integrity cross-checks the chunk artifacts on disk against what
// the vector store actually holds, per document and in aggregate.
package integrity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/qdrant"
)

// RequiredFields are the payload keys every stored point must carry for
// retrieval to work.
var RequiredFields = []string{"book_title", "chunk_id", "page_number", "text"}

const (
	defaultPageSize   = 100
	defaultSampleSize = 200
)

// PointSource is the slice of the qdrant client the validator reads from.
type PointSource interface {
	Info(ctx context.Context) (qdrant.CollectionInfo, error)
	Count(ctx context.Context) (int64, error)
	Scroll(ctx context.Context, limit int, offset any) (qdrant.ScrollPage, error)
}

// DocReport compares one document's generated and stored chunk counts.
type DocReport struct {
	Title        string `json:"title"`
	Generated    int    `json:"generated"`
	Stored       int64  `json:"stored"`
	Placeholders int64  `json:"placeholders,omitempty"`
	Match        bool   `json:"match"`
}

// Report is the validation outcome.
type Report struct {
	CollectionStatus string             `json:"collection_status"`
	GeneratedTotal   int                `json:"generated_total"`
	StoredTotal      int64              `json:"stored_total"`
	ScrolledTotal    int64              `json:"scrolled_total"`
	Placeholders     int64              `json:"placeholders"`
	IntegrityMatch   bool               `json:"integrity_match"`
	PerDocument      []DocReport        `json:"per_document"`
	FieldCoverage    map[string]float64 `json:"field_coverage"`
	SampleSize       int                `json:"sample_size"`
	ValidatedAt      time.Time          `json:"validated_at"`
}

// Validator reads chunk artifacts and the vector store and reports
// discrepancies. It never mutates either side.
type Validator struct {
	store     PointSource
	outputDir string

	// PageSize is the scroll page size.
	PageSize int
	// SampleSize caps how many points are inspected for field coverage.
	SampleSize int
	// StrictPlaceholders makes placeholder-embedded points fail the per-
	// document match instead of counting as stored.
	StrictPlaceholders bool

	log *slog.Logger
}

func New(store PointSource, outputDir string, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{
		store:      store,
		outputDir:  outputDir,
		PageSize:   defaultPageSize,
		SampleSize: defaultSampleSize,
		log:        log,
	}
}

// Validate runs the full check. Store connectivity problems are returned
// as errors; count mismatches are not errors, they are the report.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	generated, generatedTotal, err := v.generatedCounts()
	if err != nil {
		return nil, err
	}

	info, err := v.store.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector store unreachable: %w", err)
	}
	storedTotal, err := v.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored points: %w", err)
	}

	storedByTitle := make(map[string]int64)
	placeholdersByTitle := make(map[string]int64)
	fieldHits := make(map[string]int)
	var scrolled, placeholders int64
	sampled := 0

	var offset any
	for {
		page, err := v.store.Scroll(ctx, v.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("scroll stored points: %w", err)
		}
		for _, p := range page.Points {
			scrolled++
			title, _ := p.Payload["book_title"].(string)
			storedByTitle[title]++
			if flag, _ := p.Payload["embedding_placeholder"].(bool); flag {
				placeholders++
				placeholdersByTitle[title]++
			}
			if sampled < v.SampleSize {
				sampled++
				for _, field := range RequiredFields {
					if val, ok := p.Payload[field]; ok && val != nil && val != "" {
						fieldHits[field]++
					}
				}
			}
		}
		if page.NextOffset == nil || len(page.Points) == 0 {
			break
		}
		offset = page.NextOffset
	}

	report := &Report{
		CollectionStatus: info.Status,
		GeneratedTotal:   generatedTotal,
		StoredTotal:      storedTotal,
		ScrolledTotal:    scrolled,
		Placeholders:     placeholders,
		FieldCoverage:    coverage(fieldHits, sampled),
		SampleSize:       sampled,
		ValidatedAt:      time.Now().UTC(),
	}

	// Compare the union of titles, so stored points without a matching
	// artifact show up as mismatches rather than going unnoticed.
	titles := make(map[string]bool, len(generated))
	for title := range generated {
		titles[title] = true
	}
	for title := range storedByTitle {
		titles[title] = true
	}

	allMatch := true
	for title := range titles {
		gen := generated[title]
		stored := storedByTitle[title]
		effective := stored
		if v.StrictPlaceholders {
			effective -= placeholdersByTitle[title]
		}
		match := effective == int64(gen)
		if !match {
			allMatch = false
			v.log.Warn("chunk count mismatch",
				"book_title", title, "generated", gen, "stored", stored)
		}
		report.PerDocument = append(report.PerDocument, DocReport{
			Title:        title,
			Generated:    gen,
			Stored:       stored,
			Placeholders: placeholdersByTitle[title],
			Match:        match,
		})
	}
	sort.Slice(report.PerDocument, func(i, j int) bool {
		return report.PerDocument[i].Title < report.PerDocument[j].Title
	})

	// The verdict also requires the aggregate counts to line up: what the
	// pipeline generated, what the store reports, and what the scroll saw.
	effectiveTotal := storedTotal
	if v.StrictPlaceholders {
		effectiveTotal -= placeholders
	}
	aggregateMatch := int64(generatedTotal) == effectiveTotal && storedTotal == scrolled

	report.IntegrityMatch = allMatch && aggregateMatch && len(generated) > 0
	return report, nil
}

// generatedCounts tallies chunks per book title across all artifacts. A
// document's title is taken from its chunks' metadata, not the filename.
func (v *Validator) generatedCounts() (map[string]int, int, error) {
	paths, err := document.ListArtifacts(v.outputDir)
	if err != nil {
		return nil, 0, err
	}

	counts := make(map[string]int)
	total := 0
	for _, path := range paths {
		chunks, err := document.LoadChunks(path)
		if err != nil {
			return nil, 0, fmt.Errorf("load artifact: %w", err)
		}
		if len(chunks) == 0 {
			continue
		}
		counts[chunks[0].Metadata.BookTitle] += len(chunks)
		total += len(chunks)
	}
	return counts, total, nil
}

func coverage(hits map[string]int, sampled int) map[string]float64 {
	out := make(map[string]float64, len(RequiredFields))
	for _, field := range RequiredFields {
		if sampled == 0 {
			out[field] = 0
			continue
		}
		out[field] = float64(hits[field]) / float64(sampled)
	}
	return out
}
