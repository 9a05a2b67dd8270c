package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jmorales/normrag/internal/extract"
	"github.com/jmorales/normrag/internal/pipeline"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size, with headroom for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !s.supported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(filename, r.FormValue("title"), data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

// handleBatchIngest queues every supported file in the data directory. With
// ?retry=true it instead re-queues only the files on the failed list, then
// clears the list so the run re-records whatever still fails.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	retry := r.URL.Query().Get("retry") == "true"

	var names []string
	if retry {
		recorded, err := s.failed.Load()
		if err != nil {
			jsonError(w, "read failed list: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(recorded) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"queued": []any{}, "message": "nothing to retry"})
			return
		}
		if err := s.failed.Clear(); err != nil {
			jsonError(w, "clear failed list: "+err.Error(), http.StatusInternalServerError)
			return
		}
		names = recorded
	} else {
		entries, err := os.ReadDir(s.cfg.DataDir)
		if err != nil {
			jsonError(w, "read data dir: "+err.Error(), http.StatusInternalServerError)
			return
		}
		for _, e := range entries {
			if !e.IsDir() && s.supported(e.Name()) {
				names = append(names, e.Name())
			}
		}
	}

	type queued struct {
		JobID    string `json:"job_id"`
		Filename string `json:"filename"`
	}
	var jobs []queued
	var skipped []string
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.cfg.DataDir, name))
		if err != nil {
			s.log.Warn("skipping unreadable file", "filename", name, "error", err)
			skipped = append(skipped, name)
			continue
		}
		job := pipeline.NewJob(name, "", data)
		if err := s.orchestrator.Submit(job); err != nil {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		jobs = append(jobs, queued{JobID: job.ID, Filename: name})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"queued":  jobs,
		"skipped": skipped,
		"retry":   retry,
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	snaps := s.orchestrator.Jobs()
	summary := map[pipeline.JobStatus]int{}
	for _, snap := range snaps {
		summary[snap.Status]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":        snaps,
		"summary":     summary,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

// supported reports whether this deployment can extract the file. The OCR
// service only takes PDFs; local extraction covers the rest.
func (s *Server) supported(filename string) bool {
	if extract.IsSupported(filename) {
		return true
	}
	return s.cfg.OCRConfigured() && strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return name
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
