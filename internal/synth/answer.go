// Package synth answers questions from indexed pages, choosing between a
// single stuffed prompt and a map-reduce pass by token budget.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/pagegest/internal/budget"
	"github.com/dgallion1/pagegest/internal/embed"
	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/retry"
	"github.com/dgallion1/pagegest/internal/searchindex"
	"golang.org/x/sync/errgroup"
)

// ErrNoAnswer is returned when retrieval finds nothing to answer from.
var ErrNoAnswer = errors.New("no relevant content retrieved")

// Completer produces a model completion for one prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Retriever returns the top chunks for a query.
type Retriever interface {
	Search(ctx context.Context, query string, vector []float32, top int) ([]searchindex.Result, error)
}

// Config tunes retrieval and the token budget.
type Config struct {
	TopK             int
	Ceiling          int
	CompletionTokens int
	Margin           float64
	MapConcurrency   int
}

// Source identifies a chunk an answer was built from.
type Source struct {
	SourceName     string `json:"source_name"`
	SourceLocation string `json:"source_location,omitempty"`
	PageNumber     int    `json:"page_number"`
	SectionHeading string `json:"section_heading,omitempty"`
}

// Answer is the outcome of one question.
type Answer struct {
	Strategy budget.Strategy `json:"strategy"`
	Decision budget.Decision `json:"decision"`
	Text     string          `json:"answer"`
	Sources  []Source        `json:"sources"`
}

// Answerer runs retrieval, budget selection and synthesis.
type Answerer struct {
	embedder  embed.Embedder
	retriever Retriever
	llm       Completer
	cfg       Config
	log       *slog.Logger
	backoff   func(int) time.Duration
}

func NewAnswerer(embedder embed.Embedder, retriever Retriever, llm Completer, cfg Config, log *slog.Logger) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MapConcurrency <= 0 {
		cfg.MapConcurrency = 4
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Answerer{
		embedder:  embedder,
		retriever: retriever,
		llm:       llm,
		cfg:       cfg,
		log:       log,
		backoff:   retry.Backoff,
	}
}

// Ask answers question. When nothing is retrieved it returns an Answer with
// StrategyNoAnswer together with ErrNoAnswer.
func (a *Answerer) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	// A failed query embedding degrades to keyword-only retrieval.
	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		a.log.Warn("query embedding failed, searching by keyword only", "error", err)
		vec = nil
	}
	results, err := a.retriever.Search(ctx, question, vec, a.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	decision := budget.Select(budget.Request{
		PromptTokens:     budget.CountTokens(templateCost(question)),
		ContextTokens:    budget.CountTokens(joinChunks(results)),
		CompletionTokens: a.cfg.CompletionTokens,
		Ceiling:          a.cfg.Ceiling,
		Margin:           a.cfg.Margin,
	})
	metrics.SynthesisStrategy.WithLabelValues(string(decision.Strategy)).Inc()
	a.log.Info("synthesis strategy selected",
		"strategy", decision.Strategy,
		"chunks", len(results),
		"requested_tokens", decision.Requested,
		"limit_tokens", decision.Limit,
	)

	ans := &Answer{Strategy: decision.Strategy, Decision: decision, Sources: sources(results)}
	switch decision.Strategy {
	case budget.StrategyNoAnswer:
		return ans, ErrNoAnswer
	case budget.StrategyTwoPhase:
		ans.Text, err = a.mapReduce(ctx, question, results)
	default:
		ans.Text, err = a.complete(ctx, BuildDirectPrompt(question, results))
	}
	if err != nil {
		return nil, err
	}
	return ans, nil
}

// mapReduce summarizes each chunk against the question, then combines the
// summaries in a final call.
func (a *Answerer) mapReduce(ctx context.Context, question string, results []searchindex.Result) (string, error) {
	summaries := make([]string, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MapConcurrency)
	for i, r := range results {
		g.Go(func() error {
			s, err := a.complete(gctx, BuildMapPrompt(question, r))
			if err != nil {
				return fmt.Errorf("map chunk %s page %d: %w", r.SourceName, r.PageNum, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return a.complete(ctx, BuildReducePrompt(question, summaries))
}

func (a *Answerer) complete(ctx context.Context, prompt string) (string, error) {
	var out string
	err := retry.Do(ctx, a.backoff, func() error {
		var err error
		out, err = a.llm.Complete(ctx, SystemPrompt, prompt, a.cfg.CompletionTokens)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return out, nil
}

func sources(results []searchindex.Result) []Source {
	out := make([]Source, len(results))
	for i, r := range results {
		out[i] = Source{
			SourceName:     r.SourceName,
			SourceLocation: r.SourceLocation,
			PageNumber:     r.PageNum,
			SectionHeading: r.SectionHeading,
		}
	}
	return out
}
