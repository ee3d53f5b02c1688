package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/store"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ViewQuery selects and orders a transaction view.
type ViewQuery struct {
	Criteria transactions.Criteria
	Sort     transactions.SortState
}

// View is the filtered table together with its chart and legend data.
type View struct {
	Transactions []transactions.Record `json:"transactions"`
	// CategoryTotals and AccountTotals are ordered by descending total.
	CategoryTotals []transactions.Total `json:"categoryTotals"`
	AccountTotals  []transactions.Total `json:"accountTotals"`
	// CategorySeries keeps first-appearance order for chart series.
	CategorySeries []transactions.Total `json:"categorySeries"`
	// Options are computed over the unfiltered list.
	Options transactions.FilterOptions `json:"options"`
	Count   int                        `json:"count"`
	Total   decimal.Decimal            `json:"total"`
}

// TransactionService serves transaction views and re-categorization.
type TransactionService struct {
	repo       store.TransactionRepository
	categories []string
	log        zerolog.Logger
}

// NewTransactionService creates a TransactionService offering categories.
func NewTransactionService(repo store.TransactionRepository, categories []string, log zerolog.Logger) *TransactionService {
	if len(categories) == 0 {
		categories = transactions.DefaultCategories
	}
	return &TransactionService{
		repo:       repo,
		categories: append([]string(nil), categories...),
		log:        log.With().Str("component", "transaction_service").Logger(),
	}
}

// Categories returns the categories a transaction may be assigned.
func (s *TransactionService) Categories() []string {
	return append([]string(nil), s.categories...)
}

// List returns every stored transaction.
func (s *TransactionService) List(ctx context.Context) ([]transactions.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	if txs == nil {
		txs = []transactions.Transaction{}
	}
	return txs, nil
}

// View loads all transactions and derives the view for q as of now.
func (s *TransactionService) View(ctx context.Context, q ViewQuery, now time.Time) (*View, error) {
	if err := q.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("View: %w: %v", ErrInvalidInput, err)
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("View: %w", err)
	}

	return BuildView(all, q, now), nil
}

// BuildView derives a view from an already loaded list.
func BuildView(all []transactions.Transaction, q ViewQuery, now time.Time) *View {
	filtered := transactions.Filter(all, q.Criteria, now)
	return &View{
		Transactions:   transactions.ToRecords(q.Sort.Apply(filtered)),
		CategoryTotals: transactions.Aggregate(filtered, transactions.ByCategory, transactions.OrderByTotalDesc),
		AccountTotals:  transactions.Aggregate(filtered, transactions.ByAccount, transactions.OrderByTotalDesc),
		CategorySeries: transactions.Aggregate(filtered, transactions.ByCategory, transactions.OrderInserted),
		Options:        transactions.Options(all),
		Count:          len(filtered),
		Total:          transactions.Sum(filtered),
	}
}

// Recategorize assigns category to the transaction id and returns the
// refreshed full list. The category must be one of Categories, compared
// case-insensitively; the configured spelling is stored.
func (s *TransactionService) Recategorize(ctx context.Context, id, category string) ([]transactions.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("Recategorize: %w: transaction id is required", ErrInvalidInput)
	}

	canonical, ok := s.lookupCategory(category)
	if !ok {
		return nil, fmt.Errorf("Recategorize: %w: unknown category %q", ErrInvalidInput, category)
	}

	if err := s.repo.UpdateCategory(ctx, id, canonical); err != nil {
		return nil, fmt.Errorf("Recategorize: update %s: %w", id, err)
	}
	s.log.Info().Str("transaction_id", id).Str("category", canonical).Msg("Transaction recategorized")

	txs, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Recategorize: refetch: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) lookupCategory(category string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(category))
	if want == "" {
		return "", false
	}
	for _, c := range s.categories {
		if strings.ToLower(c) == want {
			return c, true
		}
	}
	return "", false
}
