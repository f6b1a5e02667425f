package synth

import (
	"slices"
	"sync"
	"time"
)

// maxSamples bounds memory when the LLM is called faster than samples age out.
const maxSamples = 4096

type sample struct {
	at         time.Time
	durationMs int64
	failed     bool
}

// StatsSnapshot aggregates the LLM calls inside the stats window.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// LLMStats keeps LLM call latencies for a rolling window.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window}
}

// Record adds one call. Negative durations count as zero.
func (s *LLMStats) Record(durationMs int64, failed bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropOld(now)
	if len(s.samples) == maxSamples {
		s.samples = s.samples[1:]
	}
	s.samples = append(s.samples, sample{at: now, durationMs: max(durationMs, 0), failed: failed})
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropOld(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Count: len(s.samples)}
	ms := make([]int64, len(s.samples))
	var total int64
	for i, sm := range s.samples {
		ms[i] = sm.durationMs
		total += sm.durationMs
		if sm.failed {
			snap.Failures++
		}
	}
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = interpolate(ms, 50)
	snap.P95Ms = interpolate(ms, 95)
	snap.P99Ms = interpolate(ms, 99)
	return snap
}

// dropOld removes samples older than the window. Samples are appended in
// time order, so the expired ones form a prefix.
func (s *LLMStats) dropOld(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	s.samples = s.samples[i:]
}

// interpolate returns the pct-th percentile of sorted values, linearly
// interpolating between neighbours.
func interpolate(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	pos := float64(len(sorted)-1) * pct / 100
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
