// Package api exposes the ingestion pipeline over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmorales/normrag/internal/config"
	"github.com/jmorales/normrag/internal/document"
	"github.com/jmorales/normrag/internal/enrich"
	"github.com/jmorales/normrag/internal/integrity"
	"github.com/jmorales/normrag/internal/pipeline"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	validator    *integrity.Validator
	stats        *enrich.Stats
	failed       *document.FailedList
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, validator *integrity.Validator, stats *enrich.Stats, failed *document.FailedList, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		validator:    validator,
		stats:        stats,
		failed:       failed,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/jobs", s.handleJobs)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/integrity", s.handleIntegrity)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
