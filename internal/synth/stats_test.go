package synth

import (
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(ms, false)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestLLMStatsCountsFailures(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(10, false)
	stats.Record(20, true)
	stats.Record(30, true)

	if got := stats.Snapshot().Failures; got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}
}

func TestLLMStatsDropsExpiredSamples(t *testing.T) {
	stats := NewLLMStats(10 * time.Millisecond)
	stats.Record(100, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after window, got %d", snap.Count)
	}

	stats.Record(200, false)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected one 200ms sample, got %+v", snap)
	}
}

func TestLLMStatsClampsNegativeDuration(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10, false)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

func TestLLMStatsBoundedSamples(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for i := range maxSamples + 10 {
		stats.Record(int64(i), false)
	}
	snap := stats.Snapshot()
	if snap.Count != maxSamples {
		t.Fatalf("expected %d samples, got %d", maxSamples, snap.Count)
	}
	if snap.MinMs != 10 {
		t.Fatalf("expected oldest samples evicted, min=%d", snap.MinMs)
	}
}
