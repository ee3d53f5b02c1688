package dashboard

import (
	"context"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/categorize"
	"github.com/dvloznov/finance-dashboard/internal/export"
	"github.com/dvloznov/finance-dashboard/internal/plaid"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
)

// MockTransactionRepository is a mock implementation of store.TransactionRepository.
type MockTransactionRepository struct {
	ListTransactionsFunc   func(ctx context.Context) ([]transactions.Transaction, error)
	UpdateCategoryFunc     func(ctx context.Context, id, category string) error
	InsertTransactionsFunc func(ctx context.Context, accountID string, txs []transactions.Transaction) error
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context) ([]transactions.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx)
	}
	return nil, nil
}

func (m *MockTransactionRepository) UpdateCategory(ctx context.Context, id, category string) error {
	if m.UpdateCategoryFunc != nil {
		return m.UpdateCategoryFunc(ctx, id, category)
	}
	return nil
}

func (m *MockTransactionRepository) InsertTransactions(ctx context.Context, accountID string, txs []transactions.Transaction) error {
	if m.InsertTransactionsFunc != nil {
		return m.InsertTransactionsFunc(ctx, accountID, txs)
	}
	return nil
}

// MockAccountRepository is a mock implementation of store.AccountRepository.
type MockAccountRepository struct {
	CreateItemFunc                func(ctx context.Context, item *accounts.Item) error
	ListAccountsFunc              func(ctx context.Context) ([]*accounts.Account, error)
	ListAccountsByInstitutionFunc func(ctx context.Context, institutionID string) ([]*accounts.Account, error)
	CreateAccountFunc             func(ctx context.Context, account *accounts.Account) error
	UpdateAccountFunc             func(ctx context.Context, account *accounts.Account) error
	RecordBalanceFunc             func(ctx context.Context, balance *accounts.Balance) error
	DeleteInstitutionFunc         func(ctx context.Context, institutionID string) (int, error)
}

func (m *MockAccountRepository) CreateItem(ctx context.Context, item *accounts.Item) error {
	if m.CreateItemFunc != nil {
		return m.CreateItemFunc(ctx, item)
	}
	return nil
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]*accounts.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAccountRepository) ListAccountsByInstitution(ctx context.Context, institutionID string) ([]*accounts.Account, error) {
	if m.ListAccountsByInstitutionFunc != nil {
		return m.ListAccountsByInstitutionFunc(ctx, institutionID)
	}
	return nil, nil
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account *accounts.Account) error {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, account)
	}
	return nil
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account *accounts.Account) error {
	if m.UpdateAccountFunc != nil {
		return m.UpdateAccountFunc(ctx, account)
	}
	return nil
}

func (m *MockAccountRepository) RecordBalance(ctx context.Context, balance *accounts.Balance) error {
	if m.RecordBalanceFunc != nil {
		return m.RecordBalanceFunc(ctx, balance)
	}
	return nil
}

func (m *MockAccountRepository) DeleteInstitution(ctx context.Context, institutionID string) (int, error) {
	if m.DeleteInstitutionFunc != nil {
		return m.DeleteInstitutionFunc(ctx, institutionID)
	}
	return 0, nil
}

// MockAggregator is a mock implementation of Aggregator.
type MockAggregator struct {
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	GetItemFunc             func(ctx context.Context, accessToken string) (*plaid.Item, error)
	GetInstitutionFunc      func(ctx context.Context, institutionID string, countryCodes []string) (*plaid.Institution, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) ([]plaid.Account, error)
}

func (m *MockAggregator) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
	return m.ExchangePublicTokenFunc(ctx, publicToken)
}

func (m *MockAggregator) GetItem(ctx context.Context, accessToken string) (*plaid.Item, error) {
	return m.GetItemFunc(ctx, accessToken)
}

func (m *MockAggregator) GetInstitution(ctx context.Context, institutionID string, countryCodes []string) (*plaid.Institution, error) {
	return m.GetInstitutionFunc(ctx, institutionID, countryCodes)
}

func (m *MockAggregator) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	return m.GetAccountsFunc(ctx, accessToken)
}

// MockExporter is a mock implementation of Exporter.
type MockExporter struct {
	ExportFunc func(ctx context.Context, criteria transactions.Criteria, sort transactions.SortState, now time.Time) (*export.Result, error)
}

func (m *MockExporter) Export(ctx context.Context, criteria transactions.Criteria, sort transactions.SortState, now time.Time) (*export.Result, error) {
	return m.ExportFunc(ctx, criteria, sort, now)
}

// MockSuggester is a mock implementation of categorize.Suggester.
type MockSuggester struct {
	SuggestFunc func(ctx context.Context, txs []transactions.Transaction, categories []string) ([]categorize.Suggestion, error)
}

func (m *MockSuggester) Suggest(ctx context.Context, txs []transactions.Transaction, categories []string) ([]categorize.Suggestion, error) {
	return m.SuggestFunc(ctx, txs, categories)
}
