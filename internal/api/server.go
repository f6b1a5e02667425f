package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/dgallion1/pagegest/internal/synth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Asker answers questions from the index.
type Asker interface {
	Ask(ctx context.Context, question string) (*synth.Answer, error)
}

// SourceDeleter removes every indexed chunk of a source document.
type SourceDeleter interface {
	DeleteSource(ctx context.Context, source string) (int, error)
}

// Server is the HTTP API server for pagegest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	asker        Asker
	index        SourceDeleter
	claude       *synth.ClaudeClient
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, asker Asker, index SourceDeleter, claude *synth.ClaudeClient, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		asker:        asker,
		index:        index,
		claude:       claude,
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
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.PagegestAPIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/analysis", s.handleIngestAnalysis)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Post("/api/ask", s.handleAsk)
		r.Delete("/api/documents/{source}", s.handleDeleteDocument)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
