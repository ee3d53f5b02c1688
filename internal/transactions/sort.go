package transactions

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey names a sortable column. String keys use the wire field names.
type SortKey string

const (
	SortNone           SortKey = ""
	SortDate           SortKey = "date"
	SortAmount         SortKey = "amount"
	SortID             SortKey = "id"
	SortName           SortKey = "name"
	SortAccount        SortKey = "accountName"
	SortCategory       SortKey = "personalFinanceCategory"
	SortMerchant       SortKey = "merchant"
	SortPaymentChannel SortKey = "paymentChannel"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortKey validates a column name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNone, SortDate, SortAmount, SortID, SortName, SortAccount, SortCategory, SortMerchant, SortPaymentChannel:
		return k, nil
	}
	return SortNone, fmt.Errorf("unknown sort key %q", s)
}

// ParseSortOrder validates an order; empty means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("unknown sort order %q", s)
}

// Sort returns a stably sorted copy of txs. Transactions with equal keys keep
// their relative order in both directions. SortNone returns the input order.
func Sort(txs []Transaction, key SortKey, order SortOrder) []Transaction {
	out := append([]Transaction(nil), txs...)
	if out == nil {
		out = []Transaction{}
	}
	cmp := comparator(key)
	if cmp == nil {
		return out
	}
	desc := order == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(key SortKey) func(a, b Transaction) int {
	switch key {
	case SortDate:
		return func(a, b Transaction) int {
			switch {
			case a.Date.Before(b.Date):
				return -1
			case a.Date.After(b.Date):
				return 1
			}
			return 0
		}
	case SortAmount:
		return func(a, b Transaction) int {
			switch {
			case a.Amount < b.Amount:
				return -1
			case a.Amount > b.Amount:
				return 1
			}
			return 0
		}
	case SortID:
		return foldCompare(func(t Transaction) string { return t.ID })
	case SortName:
		return foldCompare(func(t Transaction) string { return t.Name })
	case SortAccount:
		return foldCompare(func(t Transaction) string { return t.AccountName })
	case SortCategory:
		return foldCompare(func(t Transaction) string { return t.Category })
	case SortMerchant:
		return foldCompare(func(t Transaction) string { return t.Merchant })
	case SortPaymentChannel:
		return foldCompare(func(t Transaction) string { return t.PaymentChannel })
	}
	return nil
}

func foldCompare(field func(Transaction) string) func(a, b Transaction) int {
	return func(a, b Transaction) int {
		return strings.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}

// SortState is the table's current sort column and direction.
type SortState struct {
	Key   SortKey   `json:"sortBy"`
	Order SortOrder `json:"sortOrder"`
}

// Toggle returns the state after a click on column key: the same column
// flips the direction, a new column starts ascending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Order == Desc {
			return SortState{Key: key, Order: Asc}
		}
		return SortState{Key: key, Order: Desc}
	}
	return SortState{Key: key, Order: Asc}
}

// Apply sorts txs according to the state.
func (s SortState) Apply(txs []Transaction) []Transaction {
	return Sort(txs, s.Key, s.Order)
}
