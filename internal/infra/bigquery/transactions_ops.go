package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"google.golang.org/api/iterator"
)

// ListTransactions returns every transaction, newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]transactions.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.project, r.dataset)
}

// ListTransactionsWithClient lists transactions using the provided BigQuery client.
// The account name is the account nickname when set, its name otherwise.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, project, dataset string) ([]transactions.Transaction, error) {
	q := client.Query(`
		SELECT
			t.transaction_id,
			t.transaction_date,
			t.name,
			t.amount,
			t.category_name,
			t.merchant_name,
			t.payment_channel,
			a.name AS account_name,
			a.nickname AS account_nickname
		FROM ` + tableRef(project, dataset, transactionsTable) + ` t
		LEFT JOIN ` + tableRef(project, dataset, accountsTable) + ` a
		  ON t.account_id = a.account_id
		ORDER BY t.transaction_date DESC, t.created_ts DESC
	`)

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsWithClient: reading query: %w", err)
	}

	txs := []transactions.Transaction{}
	for {
		var row transactionListRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsWithClient: iterating: %w", err)
		}
		tx, err := row.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsWithClient: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// UpdateCategory sets the category of one transaction.
func (r *Repository) UpdateCategory(ctx context.Context, id, category string) error {
	return UpdateCategoryWithClient(ctx, r.client, r.project, r.dataset, id, category)
}

// UpdateCategoryWithClient updates a category using the provided BigQuery client.
// Returns store.ErrNotFound when no row has the given id.
func UpdateCategoryWithClient(ctx context.Context, client *bigquery.Client, project, dataset, id, category string) error {
	q := client.Query(`
		UPDATE ` + tableRef(project, dataset, transactionsTable) + `
		SET category_name = @category_name,
		    updated_ts = @updated_ts
		WHERE transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_name", Value: nullString(category)},
		{Name: "updated_ts", Value: time.Now().UTC()},
		{Name: "transaction_id", Value: id},
	}

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateCategoryWithClient: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateCategoryWithClient: transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// InsertTransactions inserts a batch of transactions for one account.
func (r *Repository) InsertTransactions(ctx context.Context, accountID string, txs []transactions.Transaction) error {
	return InsertTransactionsWithClient(ctx, r.client, r.project, r.dataset, accountID, txs)
}

// InsertTransactionsWithClient streams transaction rows using the provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, project, dataset, accountID string, txs []transactions.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, newTransactionRow(accountID, tx, now))
	}

	inserter := client.DatasetInProject(project, dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactionsWithClient: inserting rows: %w", err)
	}

	return nil
}
