package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pagegest/internal/indexer"
	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/dgallion1/pagegest/internal/linearize"
	"github.com/dgallion1/pagegest/internal/metrics"
	"github.com/dgallion1/pagegest/internal/parser"
)

// DocumentIndexer indexes the pages of a linearized document.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, doc *layout.Document, sourceLocation string) indexer.Result
}

// Worker processes a single document job.
type Worker struct {
	linearizer *linearize.Linearizer
	indexer    DocumentIndexer
	log        *slog.Logger
	parserOpts parser.Options

	// linearizeWorkers > 1 rebuilds pages concurrently.
	linearizeWorkers int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithLinearizeWorkers sets how many goroutines reconstruct pages of one
// document. Values below 2 linearize sequentially.
func WithLinearizeWorkers(n int) WorkerOption {
	return func(w *Worker) { w.linearizeWorkers = n }
}

func NewWorker(ix DocumentIndexer, log *slog.Logger, parserOpts parser.Options, opts ...WorkerOption) *Worker {
	w := &Worker{
		linearizer: linearize.New(log),
		indexer:    ix,
		log:        log,
		parserOpts: parserOpts,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process runs analyze, linearize and index for a job. The job ends
// completed when every page was indexed, partial when some were, and failed
// otherwise.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.SourceName)

	// Phase 1: Analyze
	res := job.Analysis()
	if res == nil {
		job.SetStatus(StatusAnalyzing, "analyzing")
		var err error
		res, err = w.analyze(job)
		if err != nil {
			log.Error("analysis failed", "error", err)
			w.fail(job, "analyzing", err.Error())
			return
		}
	}

	// Phase 2: Linearize
	job.SetStatus(StatusLinearizing, "linearizing")
	doc := w.linearize(job.SourceName, res)
	job.SetTotalPages(len(doc.Pages), len(doc.Warnings))
	for _, warn := range doc.Warnings {
		job.AddError(fmt.Sprintf("page %d: %s", warn.PageNumber, warn.Message))
	}
	log.Info("linearized document", "pages", len(doc.Pages), "warnings", len(doc.Warnings))

	if len(doc.Pages) == 0 {
		log.Warn("no pages produced")
		w.fail(job, "linearizing", "no pages in analysis result")
		return
	}

	// Phase 3: Embed and upload each page.
	job.SetStatus(StatusIndexing, "indexing")
	result := w.indexer.IndexDocument(ctx, doc, job.SourceLocation)

	failed := make([]FailedPage, len(result.Failed))
	for i, f := range result.Failed {
		failed[i] = FailedPage{PageNumber: f.PageNumber, Stage: string(f.Stage), Error: f.Err.Error()}
	}
	job.RecordIndexing(len(result.Indexed), failed)

	switch {
	case len(result.Failed) == 0:
		job.SetStatus(StatusCompleted, "done")
	case len(result.Indexed) > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.AddError("no page could be indexed")
		job.SetStatus(StatusFailed, "indexing")
	}
	metrics.Documents.WithLabelValues(string(job.Snapshot().Status)).Inc()
	log.Info("job finished", "status", job.Snapshot().Status, "indexed", len(result.Indexed), "failed", len(result.Failed))
}

func (w *Worker) linearize(source string, res *layout.AnalysisResult) *layout.Document {
	if w.linearizeWorkers > 1 {
		return w.linearizer.LinearizeConcurrent(source, res, w.linearizeWorkers)
	}
	return w.linearizer.Linearize(source, res)
}

func (w *Worker) analyze(job *Job) (*layout.AnalysisResult, error) {
	a, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		return nil, err
	}
	res, err := a.Analyze(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return res, nil
}

func (w *Worker) fail(job *Job, phase, msg string) {
	job.AddError(msg)
	job.SetStatus(StatusFailed, phase)
	metrics.Documents.WithLabelValues(string(StatusFailed)).Inc()
}
