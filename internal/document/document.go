package document

import "fmt"

// ChunkType classifies how a chunk was produced.
type ChunkType string

const (
	// TypeStructuredSection is a header-delimited section that fit under the
	// chunk ceiling and was not subdivided.
	TypeStructuredSection ChunkType = "structured_section"
	// TypeTextSubdivision is the result of size-bounded splitting of an
	// oversized section.
	TypeTextSubdivision ChunkType = "text_subdivision"
	// TypeFullText marks content with no detected structure at all.
	TypeFullText ChunkType = "full_text"
)

// Document is one source file moving through the ingestion pipeline.
// Summary is computed once and shared as context for every chunk.
type Document struct {
	Title       string
	Filename    string
	PageCount   int
	RawMarkdown string
	Summary     string
}

// Section is a contiguous span of one page's text, tagged with the header
// lineage in effect where it starts. Sections only exist during one
// ingestion pass; they seed chunk metadata and are then discarded.
type Section struct {
	PageNumber int
	Text       string
	// Headers maps "Header 1".."Header 6" to the most recent heading title
	// seen at that level.
	Headers map[string]string
}

// Metadata carries everything stored alongside a chunk's text in the vector
// store payload and in the per-document JSON artifact.
type Metadata struct {
	ChunkID    string    `json:"chunk_id"`
	ChunkType  ChunkType `json:"chunk_type"`
	PageNumber int       `json:"page_number"`
	BookTitle  string    `json:"book_title"`

	// ParentChunk is the section index a subdivision was split from.
	// Only set when ChunkType is TypeTextSubdivision.
	ParentChunk *int `json:"parent_chunk,omitempty"`

	// Headers holds the inherited "Header 1".."Header 6" lineage.
	Headers map[string]string `json:"headers,omitempty"`

	// OriginalContent is the pre-enrichment text, retained for audit.
	OriginalContent string `json:"original_content"`

	HasImages     bool   `json:"has_images"`
	HasTables     bool   `json:"has_tables"`
	HasFormulas   bool   `json:"has_formulas"`
	HasLists      bool   `json:"has_lists"`
	ImageCount    int    `json:"image_count,omitempty"`
	TableCount    int    `json:"table_count,omitempty"`
	FormulaCount  int    `json:"formula_count,omitempty"`
	ListCount     int    `json:"list_count,omitempty"`
	VisualSummary string `json:"visual_summary"`

	// EnrichmentFallback is set when the contextualization call failed and
	// Content fell back to the tagged original text.
	EnrichmentFallback bool `json:"enrichment_fallback,omitempty"`
}

// Chunk is the unit of retrieval: final (possibly enriched) text plus
// metadata.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Validate checks the per-variant field constraints.
func (c *Chunk) Validate() error {
	m := &c.Metadata
	if m.ChunkID == "" {
		return fmt.Errorf("chunk missing chunk_id")
	}
	if m.PageNumber < 1 {
		return fmt.Errorf("chunk %s: invalid page_number %d", m.ChunkID, m.PageNumber)
	}
	if m.BookTitle == "" {
		return fmt.Errorf("chunk %s: missing book_title", m.ChunkID)
	}
	switch m.ChunkType {
	case TypeStructuredSection:
		if len(m.Headers) == 0 {
			return fmt.Errorf("chunk %s: structured_section without headers", m.ChunkID)
		}
		if m.ParentChunk != nil {
			return fmt.Errorf("chunk %s: structured_section with parent_chunk", m.ChunkID)
		}
	case TypeTextSubdivision:
		if m.ParentChunk == nil {
			return fmt.Errorf("chunk %s: text_subdivision without parent_chunk", m.ChunkID)
		}
	case TypeFullText:
		if m.ParentChunk != nil {
			return fmt.Errorf("chunk %s: full_text with parent_chunk", m.ChunkID)
		}
	default:
		return fmt.Errorf("chunk %s: unknown chunk_type %q", m.ChunkID, m.ChunkType)
	}
	return nil
}
