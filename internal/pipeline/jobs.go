package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/pagegest/internal/layout"
	"github.com/google/uuid"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusAnalyzing   JobStatus = "analyzing"
	StatusLinearizing JobStatus = "linearizing"
	StatusIndexing    JobStatus = "indexing"
	StatusCompleted   JobStatus = "completed"
	StatusPartial     JobStatus = "partial"
	StatusFailed      JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID             string `json:"job_id"`
	SourceName     string `json:"source_name"`
	SourceLocation string `json:"source_location,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	analysis *layout.AnalysisResult
	errors   []string
	done     chan struct{}
}

// FailedPage is a page that could not be indexed.
type FailedPage struct {
	PageNumber int    `json:"page_number"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages   int          `json:"total_pages"`
	PagesIndexed int          `json:"pages_indexed"`
	Warnings     int          `json:"warnings"`
	FailedPages  []FailedPage `json:"failed_pages"`
	Errors       []string     `json:"errors"`
}

// NewJob creates a queued job for a raw file. The source name defaults to
// the filename.
func NewJob(filename, sourceName string, data []byte) *Job {
	j := newJob(sourceName)
	j.Filename = filename
	if j.SourceName == "" {
		j.SourceName = filename
	}
	j.fileData = data
	j.ContentHash = ContentHashHex(data)
	return j
}

// NewAnalysisJob creates a queued job for a pre-computed layout analysis,
// skipping the local analyzer.
func NewAnalysisJob(sourceName string, res *layout.AnalysisResult) *Job {
	j := newJob(sourceName)
	j.analysis = res
	j.ContentHash = ContentHashHex([]byte(res.Content))
	return j
}

// NewFailedJob records an input that could not be read or decoded. It is
// already terminal, so batch runs report it without processing it.
func NewFailedJob(sourceName, phase string, err error) *Job {
	j := newJob(sourceName)
	j.AddError(err.Error())
	j.SetStatus(StatusFailed, phase)
	return j
}

func newJob(sourceName string) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		Status:     StatusQueued,
		Phase:      "queued",
		CreatedAt:  now,
		UpdatedAt:  now,
		done:       make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. A terminal status releases
// waiters and drops the input data.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Done() {
		j.fileData = nil
		j.analysis = nil
		if j.done != nil {
			select {
			case <-j.done:
			default:
				close(j.done)
			}
		}
	}
}

// Done returns a channel closed when the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done == nil {
		j.done = make(chan struct{})
		if j.Status.Done() {
			close(j.done)
		}
	}
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalPages records the page count after linearizing.
func (j *Job) SetTotalPages(pages, warnings int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalPages = pages
	j.Progress.Warnings = warnings
	j.UpdatedAt = time.Now()
}

// RecordIndexing stores the per-page outcome of indexing.
func (j *Job) RecordIndexing(indexed int, failed []FailedPage) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.PagesIndexed = indexed
	j.Progress.FailedPages = failed
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Analysis returns the pre-computed analysis, or nil for file jobs.
func (j *Job) Analysis() *layout.AnalysisResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.analysis
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID             string    `json:"job_id"`
	SourceName     string    `json:"source_name"`
	SourceLocation string    `json:"source_location,omitempty"`
	Status         JobStatus `json:"status"`
	Phase          string    `json:"phase"`
	Filename       string    `json:"filename,omitempty"`
	ContentHash    string    `json:"content_hash,omitempty"`
	Progress       Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	failed := append([]FailedPage{}, j.Progress.FailedPages...)
	return JobSnapshot{
		ID:             j.ID,
		SourceName:     j.SourceName,
		SourceLocation: j.SourceLocation,
		Status:         j.Status,
		Phase:          j.Phase,
		Filename:       j.Filename,
		ContentHash:    j.ContentHash,
		Progress: Progress{
			TotalPages:   j.Progress.TotalPages,
			PagesIndexed: j.Progress.PagesIndexed,
			Warnings:     j.Progress.Warnings,
			FailedPages:  failed,
			Errors:       errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
