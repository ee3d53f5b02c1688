package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/transactions"
)

// ErrJobNotFound is returned by a JobStore for an unknown job ID.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeExportTransactions writes a filtered, sorted transaction view to CSV.
	JobTypeExportTransactions JobType = "export_transactions"
	// JobTypeSuggestCategories asks the model to categorize uncategorized transactions.
	JobTypeSuggestCategories JobType = "suggest_categories"
)

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	return t == JobTypeExportTransactions || t == JobTypeSuggestCategories
}

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// Job is a unit of background work over a transaction view.
type Job struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	Type JobType `json:"type"`

	// Criteria selects the transactions the job works on.
	Criteria transactions.Criteria `json:"criteria"`

	// Sort orders exported rows.
	Sort transactions.SortState `json:"sort"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// Result is the handler output of a completed job.
	Result json.RawMessage `json:"result,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed. Zero on publish
	// takes the queue default; NoRetries disables retries.
	MaxRetries int `json:"max_retries"`
}

// NoRetries is published in MaxRetries for a job that must run at most once.
const NoRetries = -1

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	c := *j
	c.Criteria = j.Criteria.WithAccounts(j.Criteria.Accounts...).
		WithCategories(j.Criteria.Categories...).
		WithMerchants(j.Criteria.Merchants...).
		WithBounds(j.Criteria.Start, j.Criteria.End)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.Result != nil {
		c.Result = append(json.RawMessage(nil), j.Result...)
	}
	return &c
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// Publish enqueues a job.
	Publish(ctx context.Context, job *Job) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job and returns its result.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job *Job) (json.RawMessage, error)

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs retrieves jobs with optional filtering, oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Type filters jobs by type.
	Type JobType

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
