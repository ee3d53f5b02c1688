package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteInstitution deletes every item of an institution together with its
// accounts, their balances and their transactions. It returns the number of
// accounts removed.
func (r *Repository) DeleteInstitution(ctx context.Context, institutionID string) (int, error) {
	return DeleteInstitutionWithClient(ctx, r.client, r.project, r.dataset, institutionID)
}

// DeleteInstitutionWithClient deletes an institution using the provided BigQuery client.
func DeleteInstitutionWithClient(ctx context.Context, client *bigquery.Client, project, dataset, institutionID string) (int, error) {
	items := `SELECT item_id FROM ` + tableRef(project, dataset, itemsTable) + ` WHERE institution_id = @institution_id`
	accts := `SELECT account_id FROM ` + tableRef(project, dataset, accountsTable) + ` WHERE item_id IN (` + items + `)`

	// Delete in order: transactions, balances, accounts, then items, so every
	// subquery still resolves while dependents are removed.

	// 1. Delete transactions
	if _, err := deleteWhere(ctx, client, tableRef(project, dataset, transactionsTable), "account_id IN ("+accts+")", institutionID); err != nil {
		return 0, fmt.Errorf("DeleteInstitutionWithClient: deleting transactions: %w", err)
	}

	// 2. Delete balances
	if _, err := deleteWhere(ctx, client, tableRef(project, dataset, balancesTable), "account_id IN ("+accts+")", institutionID); err != nil {
		return 0, fmt.Errorf("DeleteInstitutionWithClient: deleting balances: %w", err)
	}

	// 3. Delete accounts
	removed, err := deleteWhere(ctx, client, tableRef(project, dataset, accountsTable), "item_id IN ("+items+")", institutionID)
	if err != nil {
		return 0, fmt.Errorf("DeleteInstitutionWithClient: deleting accounts: %w", err)
	}

	// 4. Delete items
	if _, err := deleteWhere(ctx, client, tableRef(project, dataset, itemsTable), "institution_id = @institution_id", institutionID); err != nil {
		return 0, fmt.Errorf("DeleteInstitutionWithClient: deleting items: %w", err)
	}

	return int(removed), nil
}

func deleteWhere(ctx context.Context, client *bigquery.Client, table, where, institutionID string) (int64, error) {
	q := client.Query(`DELETE FROM ` + table + ` WHERE ` + where)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "institution_id", Value: institutionID},
	}
	return runDML(ctx, q)
}
