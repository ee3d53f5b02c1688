package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)

func fixture() []transactions.Transaction {
	return []transactions.Transaction{
		{ID: "1", Date: civil.Date{Year: 2024, Month: 7, Day: 3}, Name: "Shell", Amount: -40, AccountName: "Checking", Category: "Gas", Merchant: "Shell"},
		{ID: "2", Date: civil.Date{Year: 2024, Month: 6, Day: 28}, Name: "Rent", Amount: -1500, AccountName: "Checking", Category: "Mortgage"},
		{ID: "3", Date: civil.Date{Year: 2024, Month: 7, Day: 1}, Name: "Payroll", Amount: 3000, AccountName: "Savings"},
		{ID: "4", Date: civil.Date{Year: 2023, Month: 11, Day: 20}, Name: "Tesco", Amount: -60, AccountName: "Visa", Category: "Grocery", Merchant: "Tesco"},
		{ID: "5", Date: civil.Date{Year: 2024, Month: 7, Day: 8}, Name: "Esso", Amount: -20, AccountName: "Visa", Category: "Gas", Merchant: "Esso"},
	}
}

func listing(txs []transactions.Transaction) *MockTransactionRepository {
	return &MockTransactionRepository{ListTransactionsFunc: func(ctx context.Context) ([]transactions.Transaction, error) {
		return txs, nil
	}}
}

func TestTransactionService_View(t *testing.T) {
	svc := NewTransactionService(listing(fixture()), nil, zerolog.Nop())

	q := ViewQuery{
		Criteria: transactions.Criteria{DateMode: transactions.DateThisMonth},
		Sort:     transactions.SortState{Key: transactions.SortAmount, Order: transactions.Asc},
	}
	view, err := svc.View(context.Background(), q, now)
	require.NoError(t, err)

	require.Equal(t, 3, view.Count)
	require.Equal(t, "2940", view.Total.String())

	gotIDs := []string{}
	for _, r := range view.Transactions {
		gotIDs = append(gotIDs, r.ID)
	}
	require.Equal(t, []string{"1", "5", "3"}, gotIDs)

	require.Equal(t, transactions.Uncategorized, view.CategoryTotals[0].Label)
	require.Equal(t, "Gas", view.CategoryTotals[1].Label)
	require.Equal(t, "-60", view.CategoryTotals[1].Amount.String())

	// First appearance in the filtered list: Gas (id 1) before Uncategorized (id 3).
	require.Equal(t, "Gas", view.CategorySeries[0].Label)

	require.Equal(t, []string{"Savings", "Visa", "Checking"}, []string{
		view.AccountTotals[0].Label, view.AccountTotals[1].Label, view.AccountTotals[2].Label,
	})

	// Options ignore the filter.
	require.Equal(t, []string{"Checking", "Savings", "Visa"}, view.Options.Accounts)
	require.Contains(t, view.Options.Categories, "Grocery")
}

func TestTransactionService_ViewRejectsCriteria(t *testing.T) {
	svc := NewTransactionService(listing(fixture()), nil, zerolog.Nop())
	_, err := svc.View(context.Background(), ViewQuery{Criteria: transactions.Criteria{DateMode: "decade"}}, now)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransactionService_ViewEmptyStore(t *testing.T) {
	svc := NewTransactionService(listing(nil), nil, zerolog.Nop())
	view, err := svc.View(context.Background(), ViewQuery{}, now)
	require.NoError(t, err)
	require.Equal(t, 0, view.Count)
	require.NotNil(t, view.Transactions)
	require.Empty(t, view.CategoryTotals)
	require.True(t, view.Total.IsZero())
}

func TestTransactionService_Recategorize(t *testing.T) {
	txs := fixture()
	var updatedID, updatedCategory string
	repo := &MockTransactionRepository{
		ListTransactionsFunc: func(ctx context.Context) ([]transactions.Transaction, error) {
			return txs, nil
		},
		UpdateCategoryFunc: func(ctx context.Context, id, category string) error {
			updatedID, updatedCategory = id, category
			for i := range txs {
				if txs[i].ID == id {
					txs[i].Category = category
					return nil
				}
			}
			return store.ErrNotFound
		},
	}
	svc := NewTransactionService(repo, []string{"Gas", "Restaurant"}, zerolog.Nop())

	got, err := svc.Recategorize(context.Background(), "3", "restaurant")
	require.NoError(t, err)
	require.Equal(t, "3", updatedID)
	require.Equal(t, "Restaurant", updatedCategory)
	require.Equal(t, "Restaurant", got[2].Category)

	_, err = svc.Recategorize(context.Background(), "3", "Vacation")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Recategorize(context.Background(), " ", "Gas")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Recategorize(context.Background(), "missing", "Gas")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransactionService_ListError(t *testing.T) {
	repo := &MockTransactionRepository{ListTransactionsFunc: func(ctx context.Context) ([]transactions.Transaction, error) {
		return nil, errors.New("warehouse down")
	}}
	svc := NewTransactionService(repo, nil, zerolog.Nop())
	_, err := svc.View(context.Background(), ViewQuery{}, now)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidInput)
}

func TestTransactionService_Categories(t *testing.T) {
	svc := NewTransactionService(listing(nil), nil, zerolog.Nop())
	cats := svc.Categories()
	require.Equal(t, transactions.DefaultCategories, cats)
	cats[0] = "changed"
	require.NotEqual(t, "changed", svc.Categories()[0])
}
