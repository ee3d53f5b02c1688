package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// CreateItem inserts a new item, assigning an ID when missing.
func (r *Repository) CreateItem(ctx context.Context, item *accounts.Item) error {
	return CreateItemWithClient(ctx, r.client, r.project, r.dataset, item)
}

// CreateItemWithClient inserts an item using the provided BigQuery client.
func CreateItemWithClient(ctx context.Context, client *bigquery.Client, project, dataset string, item *accounts.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	row := newItemRow(item)

	q := client.Query(`
		INSERT INTO ` + tableRef(project, dataset, itemsTable) + ` (
			item_id, external_item_id, access_token,
			institution_id, institution_name, institution_logo,
			created_ts
		)
		VALUES (
			@item_id, @external_item_id, @access_token,
			@institution_id, @institution_name, @institution_logo,
			@created_ts
		)
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "item_id", Value: row.ItemID},
		{Name: "external_item_id", Value: row.ExternalItemID},
		{Name: "access_token", Value: row.AccessToken},
		{Name: "institution_id", Value: row.InstitutionID},
		{Name: "institution_name", Value: row.InstitutionName},
		{Name: "institution_logo", Value: row.InstitutionLogo},
		{Name: "created_ts", Value: row.CreatedTS},
	}

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateItemWithClient: %w", err)
	}
	return nil
}

// ListAccounts returns every account with its latest balance.
func (r *Repository) ListAccounts(ctx context.Context) ([]*accounts.Account, error) {
	return ListAccountsWithClient(ctx, r.client, r.project, r.dataset, "")
}

// ListAccountsByInstitution returns the accounts linked through institutionID.
func (r *Repository) ListAccountsByInstitution(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
	return ListAccountsWithClient(ctx, r.client, r.project, r.dataset, institutionID)
}

// ListAccountsWithClient lists accounts joined with their item and latest
// balance using the provided BigQuery client. An empty institutionID lists all.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, project, dataset, institutionID string) ([]*accounts.Account, error) {
	q := client.Query(`
		WITH latest_balances AS (
			SELECT balance_id, account_id, current, available, credit_limit, recorded_ts
			FROM ` + tableRef(project, dataset, balancesTable) + `
			WHERE TRUE
			QUALIFY ROW_NUMBER() OVER (PARTITION BY account_id ORDER BY recorded_ts DESC) = 1
		)
		SELECT
			a.account_id,
			a.external_account_id,
			a.item_id,
			a.name,
			a.nickname,
			a.type,
			a.subtype,
			a.mask,
			a.hidden,
			a.created_ts,
			a.updated_ts,
			i.institution_id,
			i.institution_name,
			i.institution_logo,
			b.balance_id,
			b.current,
			b.available,
			b.credit_limit,
			b.recorded_ts
		FROM ` + tableRef(project, dataset, accountsTable) + ` a
		LEFT JOIN ` + tableRef(project, dataset, itemsTable) + ` i
		  ON a.item_id = i.item_id
		LEFT JOIN latest_balances b
		  ON a.account_id = b.account_id
		WHERE @institution_id = '' OR i.institution_id = @institution_id
		ORDER BY a.created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "institution_id", Value: institutionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccountsWithClient: reading query: %w", err)
	}

	accts := []*accounts.Account{}
	for {
		var row accountListRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccountsWithClient: iterating: %w", err)
		}
		accts = append(accts, row.toAccount())
	}

	return accts, nil
}

// CreateAccount inserts a new account, assigning an ID when missing.
func (r *Repository) CreateAccount(ctx context.Context, account *accounts.Account) error {
	return CreateAccountWithClient(ctx, r.client, r.project, r.dataset, account)
}

// CreateAccountWithClient inserts an account using the provided BigQuery client.
// Accounts are written with DML rather than streamed so they can be updated
// right away by a later relink.
func CreateAccountWithClient(ctx context.Context, client *bigquery.Client, project, dataset string, account *accounts.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	row := newAccountRow(account)

	q := client.Query(`
		INSERT INTO ` + tableRef(project, dataset, accountsTable) + ` (
			account_id, external_account_id, item_id,
			name, nickname, type, subtype, mask, hidden,
			created_ts, updated_ts
		)
		VALUES (
			@account_id, @external_account_id, @item_id,
			@name, @nickname, @type, @subtype, @mask, @hidden,
			@created_ts, @updated_ts
		)
	`)
	q.Parameters = append(accountParams(row),
		bigquery.QueryParameter{Name: "created_ts", Value: row.CreatedTS},
		bigquery.QueryParameter{Name: "updated_ts", Value: row.UpdatedTS},
	)

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateAccountWithClient: %w", err)
	}
	return nil
}

// UpdateAccount rewrites the mutable fields of an account.
func (r *Repository) UpdateAccount(ctx context.Context, account *accounts.Account) error {
	return UpdateAccountWithClient(ctx, r.client, r.project, r.dataset, account)
}

// UpdateAccountWithClient updates an account using the provided BigQuery client.
// Returns store.ErrNotFound when the account does not exist.
func UpdateAccountWithClient(ctx context.Context, client *bigquery.Client, project, dataset string, account *accounts.Account) error {
	account.UpdatedAt = time.Now().UTC()
	row := newAccountRow(account)

	q := client.Query(`
		UPDATE ` + tableRef(project, dataset, accountsTable) + `
		SET external_account_id = @external_account_id,
		    item_id = @item_id,
		    name = @name,
		    nickname = @nickname,
		    type = @type,
		    subtype = @subtype,
		    mask = @mask,
		    hidden = @hidden,
		    updated_ts = @updated_ts
		WHERE account_id = @account_id
	`)
	q.Parameters = append(accountParams(row),
		bigquery.QueryParameter{Name: "updated_ts", Value: row.UpdatedTS},
	)

	affected, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateAccountWithClient: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateAccountWithClient: account %s: %w", account.ID, store.ErrNotFound)
	}
	return nil
}

func accountParams(row *AccountRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "account_id", Value: row.AccountID},
		{Name: "external_account_id", Value: row.ExternalAccountID},
		{Name: "item_id", Value: row.ItemID},
		{Name: "name", Value: row.Name},
		{Name: "nickname", Value: row.Nickname},
		{Name: "type", Value: row.Type},
		{Name: "subtype", Value: row.Subtype},
		{Name: "mask", Value: row.Mask},
		{Name: "hidden", Value: row.Hidden},
	}
}

// RecordBalance appends a balance snapshot.
func (r *Repository) RecordBalance(ctx context.Context, balance *accounts.Balance) error {
	return RecordBalanceWithClient(ctx, r.client, r.project, r.dataset, balance)
}

// RecordBalanceWithClient streams a balance snapshot using the provided BigQuery client.
func RecordBalanceWithClient(ctx context.Context, client *bigquery.Client, project, dataset string, balance *accounts.Balance) error {
	if balance.ID == "" {
		balance.ID = uuid.NewString()
	}
	if balance.RecordedAt.IsZero() {
		balance.RecordedAt = time.Now().UTC()
	}

	inserter := client.DatasetInProject(project, dataset).Table(balancesTable).Inserter()
	if err := inserter.Put(ctx, newBalanceRow(balance)); err != nil {
		return fmt.Errorf("RecordBalanceWithClient: inserting row: %w", err)
	}
	return nil
}
