package api

import (
	"net/http"

	"github.com/jmorales/normrag/internal/document"
)

// handleListDocuments lists the chunk artifacts produced so far, one per
// ingested document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	paths, err := document.ListArtifacts(s.cfg.OutputDir)
	if err != nil {
		jsonError(w, "list artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type docEntry struct {
		Stem   string `json:"stem"`
		Title  string `json:"title"`
		Chunks int    `json:"chunks"`
	}
	docs := make([]docEntry, 0, len(paths))
	for _, path := range paths {
		chunks, err := document.LoadChunks(path)
		if err != nil {
			s.log.Warn("unreadable artifact", "path", path, "error", err)
			continue
		}
		entry := docEntry{Stem: document.ArtifactStem(path), Chunks: len(chunks)}
		if len(chunks) > 0 {
			entry.Title = chunks[0].Metadata.BookTitle
		}
		docs = append(docs, entry)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// handleIntegrity runs the validator and returns its report. Mismatches
// are reported in the body, not as an HTTP error; only an unreachable
// store fails the request.
func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := s.validator.Validate(r.Context())
	if err != nil {
		jsonError(w, "validation failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleLLMStats exposes enrichment call latencies and counters.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
