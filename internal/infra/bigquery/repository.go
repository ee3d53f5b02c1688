package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
)

const (
	itemsTable        = "items"
	accountsTable     = "accounts"
	balancesTable     = "account_balances"
	transactionsTable = "transactions"
)

// Repository implements store.Repository on BigQuery. It holds a shared
// client to avoid creating a new connection for each operation.
type Repository struct {
	client  *bigquery.Client
	project string
	dataset string
	log     zerolog.Logger
}

// New creates a Repository with its own client for projectID.
func New(ctx context.Context, projectID, datasetID string, log zerolog.Logger) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: creating client: %w", err)
	}
	return NewWithClient(client, datasetID, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *bigquery.Client, datasetID string, log zerolog.Logger) *Repository {
	return &Repository{
		client:  client,
		project: client.Project(),
		dataset: datasetID,
		log:     log.With().Str("component", "bigquery").Logger(),
	}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client exposes the underlying client, used by migrations.
func (r *Repository) Client() *bigquery.Client {
	return r.client
}

// table returns the fully qualified, backquoted table name.
func (r *Repository) table(name string) string {
	return tableRef(r.project, r.dataset, name)
}

func tableRef(project, dataset, name string) string {
	return "`" + project + "." + dataset + "." + name + "`"
}

// runDML runs a DML statement and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
