package dashboard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/categorize"
	"github.com/dvloznov/finance-dashboard/internal/export"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func clock() time.Time { return now }

func TestJobRunner_Export(t *testing.T) {
	exp := &MockExporter{ExportFunc: func(ctx context.Context, c transactions.Criteria, s transactions.SortState, at time.Time) (*export.Result, error) {
		require.Equal(t, transactions.DateYTD, c.DateMode)
		require.Equal(t, transactions.SortDate, s.Key)
		require.True(t, at.Equal(now))
		return &export.Result{URI: "gs://b/exports/2024/07/10/x.csv", Rows: 4}, nil
	}}
	r := NewJobRunner(listing(fixture()), exp, nil, nil, clock, zerolog.Nop())

	out, err := r.Handle(context.Background(), &jobs.Job{
		JobID:    "j1",
		Type:     jobs.JobTypeExportTransactions,
		Criteria: transactions.Criteria{DateMode: transactions.DateYTD},
		Sort:     transactions.SortState{Key: transactions.SortDate, Order: transactions.Desc},
	})
	require.NoError(t, err)

	var res export.Result
	require.NoError(t, json.Unmarshal(out, &res))
	require.Equal(t, 4, res.Rows)
}

func TestJobRunner_Suggest(t *testing.T) {
	sug := &MockSuggester{SuggestFunc: func(ctx context.Context, txs []transactions.Transaction, categories []string) ([]categorize.Suggestion, error) {
		require.Len(t, txs, 1)
		require.Equal(t, "3", txs[0].ID)
		require.Equal(t, []string{"Gas", "Bill"}, categories)
		return []categorize.Suggestion{{TransactionID: "3", Category: "Bill"}}, nil
	}}
	r := NewJobRunner(listing(fixture()), nil, sug, []string{"Gas", "Bill"}, clock, zerolog.Nop())

	out, err := r.Handle(context.Background(), &jobs.Job{
		JobID:    "j2",
		Type:     jobs.JobTypeSuggestCategories,
		Criteria: transactions.Criteria{DateMode: transactions.DateThisMonth},
	})
	require.NoError(t, err)

	var res SuggestResult
	require.NoError(t, json.Unmarshal(out, &res))
	require.Equal(t, 1, res.Considered)
	require.Equal(t, "Bill", res.Suggestions[0].Category)
}

func TestJobRunner_NotConfigured(t *testing.T) {
	r := NewJobRunner(listing(fixture()), nil, nil, nil, clock, zerolog.Nop())

	_, err := r.Handle(context.Background(), &jobs.Job{Type: jobs.JobTypeExportTransactions})
	require.Error(t, err)

	_, err = r.Handle(context.Background(), &jobs.Job{Type: jobs.JobTypeSuggestCategories})
	require.Error(t, err)

	_, err = r.Handle(context.Background(), &jobs.Job{Type: "parse_document"})
	require.Error(t, err)
}
