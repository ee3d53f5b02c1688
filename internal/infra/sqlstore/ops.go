package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// ListTransactions returns every transaction, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]transactions.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []transactionListRow
	err := s.db.Table("transactions t").
		Select("t.id, t.date, t.name, t.amount, t.category, t.merchant, t.payment_channel, " +
			"COALESCE(a.name, '') AS account_name, COALESCE(a.nickname, '') AS account_nickname").
		Joins("LEFT JOIN accounts a ON a.id = t.account_id").
		Order("t.date DESC, t.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	txs := make([]transactions.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.toTransaction()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// UpdateCategory sets the category of one transaction.
func (s *Store) UpdateCategory(ctx context.Context, id, category string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res := s.db.Model(&transactionModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"category":   category,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return fmt.Errorf("UpdateCategory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateCategory: transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// InsertTransactions inserts a batch of transactions for one account in a
// single database transaction.
func (s *Store) InsertTransactions(ctx context.Context, accountID string, txs []transactions.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, t := range txs {
			m := newTransactionModel(accountID, t)
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("inserting transaction %s: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("InsertTransactions: %w", err)
	}
	return nil
}

// CreateItem inserts a new item, assigning an ID when missing.
func (s *Store) CreateItem(ctx context.Context, item *accounts.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	m := &itemModel{
		ID:              item.ID,
		ExternalItemID:  item.ExternalID,
		AccessToken:     item.AccessToken,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		InstitutionLogo: item.InstitutionLogo,
		CreatedAt:       item.CreatedAt,
	}
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("CreateItem: %w", err)
	}
	item.CreatedAt = m.CreatedAt
	return nil
}

// ListAccounts returns every account with its latest balance.
func (s *Store) ListAccounts(ctx context.Context) ([]*accounts.Account, error) {
	return s.listAccounts(ctx, "")
}

// ListAccountsByInstitution returns the accounts linked through institutionID.
func (s *Store) ListAccountsByInstitution(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
	return s.listAccounts(ctx, institutionID)
}

func (s *Store) listAccounts(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := s.db.Table("accounts a").
		Select(strings.Join(accountListColumns, ", ")).
		Joins("LEFT JOIN items i ON i.id = a.item_id").
		Order("a.created_at ASC")
	if institutionID != "" {
		q = q.Where("i.institution_id = ?", institutionID)
	}

	var rows []accountListRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("listAccounts: %w", err)
	}

	accts := make([]*accounts.Account, 0, len(rows))
	ids := make([]string, 0, len(rows))
	byID := make(map[string]*accounts.Account, len(rows))
	for _, r := range rows {
		a := r.toAccount()
		accts = append(accts, a)
		ids = append(ids, a.ID)
		byID[a.ID] = a
	}
	if len(ids) == 0 {
		return accts, nil
	}

	var balances []balanceModel
	if err := s.db.Where("account_id IN (?)", ids).Order("recorded_at DESC").Find(&balances).Error; err != nil {
		return nil, fmt.Errorf("listAccounts: loading balances: %w", err)
	}
	for _, b := range balances {
		// Newest first, so the first balance seen per account is the latest.
		if a := byID[b.AccountID]; a != nil && a.Balance == nil {
			a.Balance = b.toBalance()
		}
	}
	return accts, nil
}

// CreateAccount inserts a new account, assigning an ID when missing.
func (s *Store) CreateAccount(ctx context.Context, account *accounts.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	m := newAccountModel(account)
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	account.CreatedAt, account.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

// UpdateAccount rewrites the mutable fields of an account.
func (s *Store) UpdateAccount(ctx context.Context, account *accounts.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := time.Now().UTC()
	res := s.db.Model(&accountModel{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"external_account_id": account.ExternalID,
		"item_id":             account.ItemID,
		"name":                account.Name,
		"nickname":            account.Nickname,
		"type":                account.Type,
		"subtype":             account.Subtype,
		"mask":                account.Mask,
		"hidden":              account.Hidden,
		"updated_at":          now,
	})
	if res.Error != nil {
		return fmt.Errorf("UpdateAccount: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateAccount: account %s: %w", account.ID, store.ErrNotFound)
	}
	account.UpdatedAt = now
	return nil
}

// RecordBalance appends a balance snapshot.
func (s *Store) RecordBalance(ctx context.Context, balance *accounts.Balance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if balance.ID == "" {
		balance.ID = uuid.NewString()
	}
	if balance.RecordedAt.IsZero() {
		balance.RecordedAt = time.Now().UTC()
	}
	m := &balanceModel{
		ID:         balance.ID,
		AccountID:  balance.AccountID,
		Current:    balance.Current,
		Available:  balance.Available,
		Limit:      balance.Limit,
		RecordedAt: balance.RecordedAt,
	}
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("RecordBalance: %w", err)
	}
	return nil
}

// DeleteInstitution removes the items of an institution with their
// accounts, balances and transactions, returning the number of accounts removed.
func (s *Store) DeleteInstitution(ctx context.Context, institutionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var removed int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []string
		if err := tx.Model(&itemModel{}).Where("institution_id = ?", institutionID).Pluck("id", &itemIDs).Error; err != nil {
			return fmt.Errorf("finding items: %w", err)
		}
		if len(itemIDs) == 0 {
			return nil
		}

		var accountIDs []string
		if err := tx.Model(&accountModel{}).Where("item_id IN (?)", itemIDs).Pluck("id", &accountIDs).Error; err != nil {
			return fmt.Errorf("finding accounts: %w", err)
		}

		if len(accountIDs) > 0 {
			if err := tx.Where("account_id IN (?)", accountIDs).Delete(&transactionModel{}).Error; err != nil {
				return fmt.Errorf("deleting transactions: %w", err)
			}
			if err := tx.Where("account_id IN (?)", accountIDs).Delete(&balanceModel{}).Error; err != nil {
				return fmt.Errorf("deleting balances: %w", err)
			}
			res := tx.Where("id IN (?)", accountIDs).Delete(&accountModel{})
			if res.Error != nil {
				return fmt.Errorf("deleting accounts: %w", res.Error)
			}
			removed = res.RowsAffected
		}

		if err := tx.Where("id IN (?)", itemIDs).Delete(&itemModel{}).Error; err != nil {
			return fmt.Errorf("deleting items: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("DeleteInstitution: %w", err)
	}
	return int(removed), nil
}
