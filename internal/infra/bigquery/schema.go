package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
)

// Table pairs a table name with the row struct its schema is inferred from.
type Table struct {
	Name string
	Row  any
}

// Tables lists the dashboard tables in creation order.
func Tables() []Table {
	return []Table{
		{Name: itemsTable, Row: ItemRow{}},
		{Name: accountsTable, Row: AccountRow{}},
		{Name: balancesTable, Row: BalanceRow{}},
		{Name: transactionsTable, Row: TransactionRow{}},
	}
}

// EnsureTables creates the dataset tables that do not exist yet and returns
// the names of the tables it created.
func (r *Repository) EnsureTables(ctx context.Context) ([]string, error) {
	ds := r.client.DatasetInProject(r.project, r.dataset)
	var created []string
	for _, t := range Tables() {
		schema, err := bigquery.InferSchema(t.Row)
		if err != nil {
			return created, fmt.Errorf("EnsureTables: inferring schema for %s: %w", t.Name, err)
		}

		_, err = ds.Table(t.Name).Metadata(ctx)
		if err == nil {
			r.log.Debug().Str("table", t.Name).Msg("Table exists")
			continue
		}
		if !isNotFound(err) {
			return created, fmt.Errorf("EnsureTables: reading metadata for %s: %w", t.Name, err)
		}

		if err := ds.Table(t.Name).Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return created, fmt.Errorf("EnsureTables: creating %s: %w", t.Name, err)
		}
		r.log.Info().Str("table", t.Name).Msg("Created table")
		created = append(created, t.Name)
	}
	return created, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
