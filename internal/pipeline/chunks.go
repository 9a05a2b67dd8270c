package pipeline

import (
	"fmt"

	"github.com/jmorales/normrag/internal/chunker"
	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/visual"
)

// buildChunks turns ordered sections into sized chunks with full metadata.
// Sections under the size ceiling become one chunk each; oversized ones
// are subdivided and each part points back to its section index.
func buildChunks(sections []document.Section, title string, cfg chunker.Config) ([]document.Chunk, error) {
	var chunks []document.Chunk
	for i, section := range sections {
		if len(section.Text) <= cfg.ChunkSize {
			chunks = append(chunks, newChunk(section, title, fmt.Sprintf("%d_0", i), sectionType(section), nil))
			continue
		}

		parts, err := chunker.Split(section.Text, cfg)
		if err != nil {
			return nil, fmt.Errorf("split section %d: %w", i, err)
		}
		parent := i
		for j, part := range parts {
			sub := section
			sub.Text = part
			chunks = append(chunks, newChunk(sub, title, fmt.Sprintf("%d_%d", i, j), document.TypeTextSubdivision, &parent))
		}
	}
	return chunks, nil
}

func sectionType(section document.Section) document.ChunkType {
	if len(section.Headers) > 0 {
		return document.TypeStructuredSection
	}
	return document.TypeFullText
}

func newChunk(section document.Section, title, chunkID string, chunkType document.ChunkType, parent *int) document.Chunk {
	elements := visual.Detect(section.Text)
	return document.Chunk{
		// Content starts as the original text; enrichment replaces it.
		Content: section.Text,
		Metadata: document.Metadata{
			ChunkID:         chunkID,
			ChunkType:       chunkType,
			PageNumber:      section.PageNumber,
			BookTitle:       title,
			ParentChunk:     parent,
			Headers:         section.Headers,
			OriginalContent: section.Text,
			HasImages:       elements.Images > 0,
			HasTables:       elements.Tables > 0,
			HasFormulas:     elements.Formulas > 0,
			HasLists:        elements.Lists > 0,
			ImageCount:      elements.Images,
			TableCount:      elements.Tables,
			FormulaCount:    elements.Formulas,
			ListCount:       elements.Lists,
			VisualSummary:   elements.Summary(),
		},
	}
}
