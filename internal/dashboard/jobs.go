package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/categorize"
	"github.com/dvloznov/finance-dashboard/internal/export"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
)

// Exporter writes a transaction view to object storage.
type Exporter interface {
	Export(ctx context.Context, criteria transactions.Criteria, sort transactions.SortState, now time.Time) (*export.Result, error)
}

// SuggestResult is the result payload of a suggest_categories job.
type SuggestResult struct {
	Considered  int                     `json:"considered"`
	Suggestions []categorize.Suggestion `json:"suggestions"`
}

// JobRunner executes background jobs. A nil exporter or suggester makes the
// corresponding job type fail with a configuration error.
type JobRunner struct {
	txs        store.TransactionRepository
	exporter   Exporter
	suggester  categorize.Suggester
	categories []string
	clock      func() time.Time
	log        zerolog.Logger
}

// NewJobRunner creates a JobRunner. clock supplies "now" in the configured
// timezone.
func NewJobRunner(txs store.TransactionRepository, exporter Exporter, suggester categorize.Suggester, categories []string, clock func() time.Time, log zerolog.Logger) *JobRunner {
	if clock == nil {
		clock = time.Now
	}
	if len(categories) == 0 {
		categories = transactions.DefaultCategories
	}
	return &JobRunner{
		txs:        txs,
		exporter:   exporter,
		suggester:  suggester,
		categories: append([]string(nil), categories...),
		clock:      clock,
		log:        log.With().Str("component", "job_runner").Logger(),
	}
}

// Handle implements jobs.JobHandler.
func (r *JobRunner) Handle(ctx context.Context, job *jobs.Job) (json.RawMessage, error) {
	r.log.Info().Str("job_id", job.JobID).Str("job_type", string(job.Type)).Msg("Processing job")

	var (
		result interface{}
		err    error
	)
	switch job.Type {
	case jobs.JobTypeExportTransactions:
		result, err = r.export(ctx, job)
	case jobs.JobTypeSuggestCategories:
		result, err = r.suggest(ctx, job)
	default:
		return nil, fmt.Errorf("unexpected job type: %s", job.Type)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("Handle: marshal result: %w", err)
	}
	return data, nil
}

func (r *JobRunner) export(ctx context.Context, job *jobs.Job) (*export.Result, error) {
	if r.exporter == nil {
		return nil, fmt.Errorf("export: exports are not configured")
	}
	return r.exporter.Export(ctx, job.Criteria, job.Sort, r.clock())
}

func (r *JobRunner) suggest(ctx context.Context, job *jobs.Job) (*SuggestResult, error) {
	if r.suggester == nil {
		return nil, fmt.Errorf("suggest: category suggestions are not configured")
	}
	if err := job.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	all, err := r.txs.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest: list transactions: %w", err)
	}
	pending := categorize.Uncategorized(transactions.Filter(all, job.Criteria, r.clock()))

	suggestions, err := r.suggester.Suggest(ctx, pending, r.categories)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return &SuggestResult{Considered: len(pending), Suggestions: suggestions}, nil
}
