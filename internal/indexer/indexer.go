// Package indexer embeds linearized pages and uploads them to the search
// index, one chunk per page.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/pagegest/internal/embed"
	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/retry"
	"github.com/dgallion1/pagegest/internal/searchindex"
	"golang.org/x/sync/errgroup"
)

// EmptyPagePlaceholder is embedded in place of a page with no text.
const EmptyPagePlaceholder = "(empty page)"

// Stage names the step at which a page failed.
type Stage string

const (
	StageEmbed  Stage = "embed"
	StageUpload Stage = "upload"
)

// Uploader writes chunk documents to the search index.
type Uploader interface {
	Upload(ctx context.Context, docs []searchindex.ChunkDocument) error
}

// PageFailure records why one page was not indexed.
type PageFailure struct {
	PageNumber int
	Stage      Stage
	Err        error
}

func (f PageFailure) Error() string {
	return fmt.Sprintf("page %d: %s: %v", f.PageNumber, f.Stage, f.Err)
}

// Result is the outcome of indexing one document.
type Result struct {
	Source  string
	Indexed []int
	Failed  []PageFailure
}

// OK reports whether every page was indexed.
func (r Result) OK() bool {
	return len(r.Failed) == 0
}

// Indexer embeds and uploads pages with bounded concurrency.
type Indexer struct {
	embedder    embed.Embedder
	index       Uploader
	log         *slog.Logger
	concurrency int
	backoff     func(int) time.Duration
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithBackoff overrides the retry backoff between embedding attempts.
func WithBackoff(fn func(int) time.Duration) Option {
	return func(ix *Indexer) { ix.backoff = fn }
}

func New(embedder embed.Embedder, index Uploader, log *slog.Logger, concurrency int, opts ...Option) *Indexer {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ix := &Indexer{
		embedder:    embedder,
		index:       index,
		log:         log,
		concurrency: concurrency,
		backoff:     retry.Backoff,
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// IndexDocument indexes every page of doc. A failing page never stops the
// others; failures are reported in the result sorted by page number.
func (ix *Indexer) IndexDocument(ctx context.Context, doc *layout.Document, sourceLocation string) Result {
	log := ix.log.With("source", doc.SourceName)
	title := doc.Title()

	var (
		mu  sync.Mutex
		res = Result{Source: doc.SourceName}
	)

	// Workers return nil so one page's failure doesn't cancel the group.
	var g errgroup.Group
	g.SetLimit(ix.concurrency)
	for _, page := range doc.Pages {
		g.Go(func() error {
			failure := ix.indexPage(ctx, doc.SourceName, sourceLocation, title, page)
			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				log.Warn("page not indexed", "page", failure.PageNumber, "stage", failure.Stage, "error", failure.Err)
				res.Failed = append(res.Failed, *failure)
				return nil
			}
			res.Indexed = append(res.Indexed, page.PageNumber)
			return nil
		})
	}
	_ = g.Wait()

	sort.Ints(res.Indexed)
	sort.Slice(res.Failed, func(i, j int) bool {
		return res.Failed[i].PageNumber < res.Failed[j].PageNumber
	})
	log.Info("document indexed", "pages", len(doc.Pages), "indexed", len(res.Indexed), "failed", len(res.Failed))
	return res
}

func (ix *Indexer) indexPage(ctx context.Context, source, location, title string, page layout.PageRecord) *PageFailure {
	input := page.Text
	if strings.TrimSpace(input) == "" {
		input = EmptyPagePlaceholder
	}

	var vec []float32
	err := retry.Do(ctx, ix.backoff, func() error {
		var err error
		vec, err = ix.embedder.Embed(ctx, input)
		return err
	})
	if err != nil {
		metrics.PagesIndexed.WithLabelValues(metrics.StatusEmbedFailed).Inc()
		return &PageFailure{PageNumber: page.PageNumber, Stage: StageEmbed, Err: err}
	}

	doc := searchindex.ChunkDocument{
		ID:             searchindex.DocumentID(source, page.PageNumber),
		Title:          title,
		Chunk:          page.Text,
		ChunkVector:    vec,
		SourceName:     source,
		SourceLocation: location,
		PageNum:        page.PageNumber,
		SectionHeading: page.SectionHeading,
	}
	err = retry.Do(ctx, ix.backoff, func() error {
		return ix.index.Upload(ctx, []searchindex.ChunkDocument{doc})
	})
	if err != nil {
		metrics.PagesIndexed.WithLabelValues(metrics.StatusUploadFailed).Inc()
		return &PageFailure{PageNumber: page.PageNumber, Stage: StageUpload, Err: err}
	}
	metrics.PagesIndexed.WithLabelValues(metrics.StatusOK).Inc()
	return nil
}
