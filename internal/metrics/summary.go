package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Latency summarizes one collaborator's call histogram.
type Latency struct {
	Calls  uint64  `json:"calls"`
	MeanMs float64 `json:"mean_ms"`
}

// Summary is a JSON view of the pagegest collectors.
type Summary struct {
	PagesIndexed      map[string]float64 `json:"pages_indexed"`
	Documents         map[string]float64 `json:"documents"`
	LinearizeWarnings float64            `json:"linearize_warnings"`
	SynthesisStrategy map[string]float64 `json:"synthesis_strategy"`
	Collaborators     map[string]Latency `json:"collaborators"`
}

// Summarize reads the pagegest_ families from g. Families from other
// collectors are ignored.
func Summarize(g prometheus.Gatherer) (Summary, error) {
	sum := Summary{
		PagesIndexed:      map[string]float64{},
		Documents:         map[string]float64{},
		SynthesisStrategy: map[string]float64{},
		Collaborators:     map[string]Latency{},
	}
	families, err := g.Gather()
	if err != nil {
		return sum, err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "pagegest_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			label := ""
			if ls := m.GetLabel(); len(ls) > 0 {
				label = ls[0].GetValue()
			}
			switch mf.GetName() {
			case "pagegest_pages_indexed_total":
				sum.PagesIndexed[label] = m.GetCounter().GetValue()
			case "pagegest_documents_total":
				sum.Documents[label] = m.GetCounter().GetValue()
			case "pagegest_linearize_warnings_total":
				sum.LinearizeWarnings = m.GetCounter().GetValue()
			case "pagegest_synthesis_strategy_total":
				sum.SynthesisStrategy[label] = m.GetCounter().GetValue()
			case "pagegest_collaborator_duration_seconds":
				h := m.GetHistogram()
				lat := Latency{Calls: h.GetSampleCount()}
				if lat.Calls > 0 {
					lat.MeanMs = h.GetSampleSum() / float64(lat.Calls) * 1000
				}
				sum.Collaborators[label] = lat
			}
		}
	}
	return sum, nil
}
