package api

import (
	"net/http"

	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/synth"
	"github.com/prometheus/client_golang/prometheus"
)

type llmStats struct {
	Model string              `json:"model"`
	Stats synth.StatsSnapshot `json:"stats"`
}

type statsResponse struct {
	QueueDepth int             `json:"queue_depth"`
	LLM        *llmStats       `json:"llm,omitempty"`
	Metrics    metrics.Summary `json:"metrics"`
}

// handleStats reports queue depth, the LLM latency window and the
// indexing and synthesis counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sum, err := metrics.Summarize(prometheus.DefaultGatherer)
	if err != nil {
		s.log.Warn("gather metrics", "error", err)
	}
	resp := statsResponse{
		QueueDepth: s.orchestrator.QueueDepth(),
		Metrics:    sum,
	}
	if s.claude != nil && s.claude.Stats != nil {
		resp.LLM = &llmStats{Model: s.claude.Model(), Stats: s.claude.Stats.Snapshot()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLLMStats reports only the LLM latency window.
func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.claude == nil || s.claude.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, llmStats{Model: s.claude.Model(), Stats: s.claude.Stats.Snapshot()})
}
