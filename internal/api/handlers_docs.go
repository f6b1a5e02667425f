package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/pagegest/internal/synth"
	"github.com/go-chi/chi/v5"
)

type askRequest struct {
	Question string `json:"question"`
}

// handleAsk answers a question from the indexed pages. A question nothing in
// the index can answer is still a 200 with strategy no_answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	ans, err := s.asker.Ask(r.Context(), req.Question)
	switch {
	case errors.Is(err, synth.ErrNoAnswer) && ans != nil:
		writeJSON(w, http.StatusOK, ans)
	case err != nil:
		s.log.Error("ask failed", "error", err)
		jsonError(w, "failed to answer: "+err.Error(), http.StatusBadGateway)
	default:
		writeJSON(w, http.StatusOK, ans)
	}
}

// handleDeleteDocument removes every chunk indexed for a source.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if source == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}

	n, err := s.index.DeleteSource(r.Context(), source)
	if err != nil {
		jsonError(w, "failed to delete: "+err.Error(), http.StatusBadGateway)
		return
	}
	s.log.Info("deleted source", "source", source, "chunks", n)
	writeJSON(w, http.StatusOK, map[string]any{
		"source":         source,
		"chunks_deleted": n,
	})
}
