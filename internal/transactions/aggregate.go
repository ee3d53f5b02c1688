package transactions

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Total is a derived (label, summed amount) pair.
type Total struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// KeyFunc extracts the grouping label of a transaction.
type KeyFunc func(Transaction) string

// ByCategory groups by category, with Uncategorized for a missing one.
func ByCategory(tx Transaction) string {
	if tx.Category == "" {
		return Uncategorized
	}
	return tx.Category
}

// ByAccount groups by account name, with Uncategorized for a missing one.
func ByAccount(tx Transaction) string {
	if tx.AccountName == "" {
		return Uncategorized
	}
	return tx.AccountName
}

// ByMerchant groups by normalized merchant.
func ByMerchant(tx Transaction) string {
	return NormalizeMerchant(tx.Merchant)
}

// Order selects the ordering of aggregate entries.
type Order int

const (
	// OrderInserted keeps labels in order of first appearance (chart series).
	OrderInserted Order = iota
	// OrderByTotalDesc sorts by descending total (legends); ties keep first-appearance order.
	OrderByTotalDesc
)

// Aggregate sums signed amounts per key. Credits net against debits; no
// absolute values are taken.
func Aggregate(txs []Transaction, key KeyFunc, order Order) []Total {
	index := make(map[string]int)
	var totals []Total
	for _, tx := range txs {
		label := key(tx)
		i, ok := index[label]
		if !ok {
			i = len(totals)
			index[label] = i
			totals = append(totals, Total{Label: label, Amount: decimal.Zero})
		}
		totals[i].Amount = totals[i].Amount.Add(decimal.NewFromFloat(tx.Amount))
		totals[i].Count++
	}
	if totals == nil {
		return []Total{}
	}
	if order == OrderByTotalDesc {
		sort.SliceStable(totals, func(i, j int) bool {
			return totals[i].Amount.GreaterThan(totals[j].Amount)
		})
	}
	return totals
}

// Sum returns the exact sum of the amounts of txs.
func Sum(txs []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(decimal.NewFromFloat(tx.Amount))
	}
	return sum
}

// SumTotals returns the sum of the aggregate amounts.
func SumTotals(totals []Total) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Amount)
	}
	return sum
}
