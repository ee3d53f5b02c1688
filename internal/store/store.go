// Package store declares the persistence contracts used by the dashboard
// services. Implementations live under internal/infra.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
)

// ErrNotFound is returned when a row addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// TransactionRepository reads and updates transactions.
type TransactionRepository interface {
	// ListTransactions returns all transactions, newest first by convention.
	ListTransactions(ctx context.Context) ([]transactions.Transaction, error)
	// UpdateCategory sets the category of one transaction. Returns ErrNotFound
	// when id is unknown.
	UpdateCategory(ctx context.Context, id, category string) error
	InsertTransactions(ctx context.Context, accountID string, txs []transactions.Transaction) error
}

// AccountRepository manages items, accounts and balance snapshots.
type AccountRepository interface {
	CreateItem(ctx context.Context, item *accounts.Item) error
	// ListAccounts returns every account with its latest balance.
	ListAccounts(ctx context.Context) ([]*accounts.Account, error)
	ListAccountsByInstitution(ctx context.Context, institutionID string) ([]*accounts.Account, error)
	CreateAccount(ctx context.Context, account *accounts.Account) error
	UpdateAccount(ctx context.Context, account *accounts.Account) error
	RecordBalance(ctx context.Context, balance *accounts.Balance) error
	// DeleteInstitution removes the items, accounts and balances of an
	// institution and returns the number of accounts removed.
	DeleteInstitution(ctx context.Context, institutionID string) (int, error)
}

// Repository is a store backing both contracts.
type Repository interface {
	TransactionRepository
	AccountRepository
	Close() error
}
