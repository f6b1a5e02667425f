package pipeline

import (
	"context"
	"sort"
	"strings"
)

// DocumentFailure is a document that produced no indexed pages.
type DocumentFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// PageFailureRef is one failed page of an otherwise processed document.
type PageFailureRef struct {
	Source     string `json:"source"`
	PageNumber int    `json:"page_number"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

// BatchSummary aggregates the outcome of many jobs. A failing document
// never stops the batch; it is recorded here.
type BatchSummary struct {
	Documents   int               `json:"documents"`
	Completed   int               `json:"completed"`
	Partial     int               `json:"partial"`
	Failed      []DocumentFailure `json:"failed"`
	FailedPages []PageFailureRef  `json:"failed_pages"`
}

// Record adds a finished job to the summary.
func (b *BatchSummary) Record(job *Job) {
	snap := job.Snapshot()
	b.Documents++
	switch snap.Status {
	case StatusCompleted:
		b.Completed++
	case StatusPartial:
		b.Partial++
	default:
		msg := strings.Join(snap.Progress.Errors, "; ")
		if msg == "" {
			msg = "status " + string(snap.Status)
		}
		b.Failed = append(b.Failed, DocumentFailure{Source: snap.SourceName, Error: msg})
	}
	for _, f := range snap.Progress.FailedPages {
		b.FailedPages = append(b.FailedPages, PageFailureRef{
			Source:     snap.SourceName,
			PageNumber: f.PageNumber,
			Stage:      f.Stage,
			Error:      f.Error,
		})
	}
}

// AllFailed reports whether the batch had documents and none succeeded.
func (b *BatchSummary) AllFailed() bool {
	return b.Documents > 0 && len(b.Failed) == b.Documents
}

// RunBatch processes jobs one after another on w and summarizes them. Jobs
// that are already terminal are only recorded.
// Cancellation stops before the next job; unprocessed jobs are counted as
// failed.
func RunBatch(ctx context.Context, w *Worker, jobs []*Job) BatchSummary {
	var sum BatchSummary
	for _, job := range jobs {
		switch {
		case job.Snapshot().Status.Done():
			// Failed before processing, e.g. unreadable input.
		case ctx.Err() != nil:
			job.AddError(ctx.Err().Error())
			job.SetStatus(StatusFailed, "cancelled")
		default:
			w.Process(ctx, job)
		}
		sum.Record(job)
	}
	sort.SliceStable(sum.FailedPages, func(i, j int) bool {
		a, b := sum.FailedPages[i], sum.FailedPages[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.PageNumber < b.PageNumber
	})
	return sum
}
