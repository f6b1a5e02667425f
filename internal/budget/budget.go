// Package budget decides how retrieved chunks are fed to the answering model.
package budget

// Strategy is the answer-synthesis strategy for one query.
type Strategy string

const (
	// StrategyDirect stuffs every retrieved chunk into a single prompt.
	StrategyDirect Strategy = "direct"
	// StrategyTwoPhase summarizes each chunk, then combines the summaries.
	StrategyTwoPhase Strategy = "two_phase"
	// StrategyNoAnswer means nothing was retrieved to answer from.
	StrategyNoAnswer Strategy = "no_answer"
)

// DefaultMargin is the fraction of the model's token ceiling a direct
// prompt may use. The rest absorbs token-estimate error and model overhead.
const DefaultMargin = 0.9

// Request describes the token cost of answering one query.
type Request struct {
	PromptTokens     int     // fixed prompt template
	ContextTokens    int     // all retrieved chunks, concatenated
	CompletionTokens int     // requested maximum completion length
	Ceiling          int     // model's total token limit
	Margin           float64 // 0 means DefaultMargin
}

// Decision is the outcome of Select.
type Decision struct {
	Strategy  Strategy `json:"strategy"`
	Requested int      `json:"requested_tokens"`
	Limit     float64  `json:"limit_tokens"`
}

// Select picks the synthesis strategy. A query with no retrieved context
// gets StrategyNoAnswer; otherwise the direct strategy is used unless the
// requested tokens exceed Margin*Ceiling.
func Select(req Request) Decision {
	margin := NormalizeMargin(req.Margin)
	d := Decision{
		Requested: req.PromptTokens + req.ContextTokens + req.CompletionTokens,
		Limit:     margin * float64(req.Ceiling),
	}
	switch {
	case req.ContextTokens <= 0:
		d.Strategy = StrategyNoAnswer
	case float64(d.Requested) > d.Limit:
		d.Strategy = StrategyTwoPhase
	default:
		d.Strategy = StrategyDirect
	}
	return d
}

// NormalizeMargin returns m if it lies in (0, 1], else DefaultMargin.
func NormalizeMargin(m float64) float64 {
	if m <= 0 || m > 1 {
		return DefaultMargin
	}
	return m
}
