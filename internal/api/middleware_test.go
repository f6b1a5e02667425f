package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

// observedCount returns the sample count of the HTTP latency histogram for
// one label set.
func observedCount(t *testing.T, method, route, status string) uint64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pagegest_http_request_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["method"] == method && labels["route"] == route && labels["status"] == status {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestRequestLogger_UsesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t, stubAsker{}, &stubDeleter{})
	s.log = slog.New(slog.NewJSONHandler(&buf, nil))
	s.setupRoutes()

	route := "/api/ingest/{jobID}/status"
	before := observedCount(t, http.MethodGet, route, "404")

	rec := do(s, http.MethodGet, "/api/ingest/job-123/status", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, before+1, observedCount(t, http.MethodGet, route, "404"))
	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, route, lines[0]["route"])
	assert.Equal(t, "/api/ingest/job-123/status", lines[0]["path"])
	assert.EqualValues(t, 404, lines[0]["status"])
	assert.NotEmpty(t, lines[0]["request_id"])
}

func TestRequestLogger_SkipsQuietRoutes(t *testing.T) {
	var buf bytes.Buffer
	s := newTestServer(t, stubAsker{}, &stubDeleter{})
	s.log = slog.New(slog.NewJSONHandler(&buf, nil))
	s.setupRoutes()

	before := observedCount(t, http.MethodGet, "/health", "200")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, buf.String())
	assert.Equal(t, before+1, observedCount(t, http.MethodGet, "/health", "200"))
}

func TestAuthMiddleware_EmptyKeyRejectsEverything(t *testing.T) {
	var buf bytes.Buffer
	h := AuthMiddleware("", slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid api key"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "rejected api key")
}
