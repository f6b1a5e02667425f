package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	before, err := Summarize(prometheus.DefaultGatherer)
	require.NoError(t, err)

	SynthesisStrategy.WithLabelValues("two_phase").Inc()
	PagesIndexed.WithLabelValues(StatusEmbedFailed).Add(2)
	LinearizeWarnings.Inc()
	CollaboratorDuration.WithLabelValues("summary_test").Observe(0.5)
	CollaboratorDuration.WithLabelValues("summary_test").Observe(1.5)

	after, err := Summarize(prometheus.DefaultGatherer)
	require.NoError(t, err)

	assert.InDelta(t, before.SynthesisStrategy["two_phase"]+1, after.SynthesisStrategy["two_phase"], 1e-9)
	assert.InDelta(t, before.PagesIndexed[StatusEmbedFailed]+2, after.PagesIndexed[StatusEmbedFailed], 1e-9)
	assert.InDelta(t, before.LinearizeWarnings+1, after.LinearizeWarnings, 1e-9)
	assert.Equal(t, Latency{Calls: 2, MeanMs: 1000}, after.Collaborators["summary_test"])
}

func TestSummarize_IgnoresOtherFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "unrelated_total"})
	reg.MustRegister(other)
	other.Inc()

	sum, err := Summarize(reg)
	require.NoError(t, err)
	assert.Empty(t, sum.PagesIndexed)
	assert.Empty(t, sum.Collaborators)
	assert.Zero(t, sum.LinearizeWarnings)
}
