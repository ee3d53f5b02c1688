// Package transactions filters, aggregates and sorts already-fetched
// transaction lists for the dashboard views.
//
// Every function in this package is pure: inputs are never modified and
// results are freshly allocated slices, so callers may share inputs
// between goroutines as long as they do not mutate them.
package transactions

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	// NoMerchant is the sentinel label for a transaction without a merchant.
	NoMerchant = "(No Merchant)"

	// Uncategorized is the aggregate label used for a missing category or account.
	Uncategorized = "Uncategorized"

	// SelectNone is a reserved allow-set value that no transaction carries.
	// An allow-set of []string{SelectNone} therefore matches nothing, which
	// is how callers express "select none" (an empty set means "no restriction").
	SelectNone = "\x00none"
)

// DefaultCategories is the category list offered for re-categorization.
var DefaultCategories = []string{
	"Bill",
	"Gas",
	"Gift",
	"Grocery",
	"Miscellaneous",
	"Mortgage",
	"Restaurant",
	"Toll",
	"Vacation",
}

// Transaction is an immutable transaction record as fetched from the store.
//
// String fields use "" for an absent value. Amount is signed: positive is a
// credit, negative a debit. A zero amount is a legitimate value.
type Transaction struct {
	ID             string
	Date           civil.Date
	Name           string
	Amount         float64
	AccountName    string
	Category       string
	Merchant       string
	PaymentChannel string
}

// Record is the JSON wire shape of a transaction.
type Record struct {
	ID                      string  `json:"id"`
	Date                    string  `json:"date"`
	Name                    string  `json:"name"`
	Amount                  float64 `json:"amount"`
	AccountName             string  `json:"accountName,omitempty"`
	PersonalFinanceCategory string  `json:"personalFinanceCategory,omitempty"`
	Merchant                string  `json:"merchant,omitempty"`
	PaymentChannel          string  `json:"paymentChannel,omitempty"`
}

// DataError reports a transaction field that could not be interpreted.
type DataError struct {
	TransactionID string
	Field         string
	Value         string
	Err           error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("transaction %q: invalid %s %q: %v", e.TransactionID, e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// ParseDate parses a calendar date in "2006-01-02" or RFC 3339 form.
// RFC 3339 timestamps are reduced to their UTC calendar date.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("unrecognized date format")
	}
	return civil.DateOf(t.UTC()), nil
}

// FromRecord converts a wire record into a Transaction.
func FromRecord(r Record) (Transaction, error) {
	d, err := ParseDate(r.Date)
	if err != nil {
		return Transaction{}, &DataError{TransactionID: r.ID, Field: "date", Value: r.Date, Err: err}
	}
	return Transaction{
		ID:             r.ID,
		Date:           d,
		Name:           r.Name,
		Amount:         r.Amount,
		AccountName:    r.AccountName,
		Category:       r.PersonalFinanceCategory,
		Merchant:       r.Merchant,
		PaymentChannel: r.PaymentChannel,
	}, nil
}

// FromRecords converts wire records, failing on the first invalid record.
func FromRecords(records []Record) ([]Transaction, error) {
	out := make([]Transaction, 0, len(records))
	for _, r := range records {
		tx, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Record returns the wire shape of the transaction.
func (t Transaction) Record() Record {
	return Record{
		ID:                      t.ID,
		Date:                    t.Date.String(),
		Name:                    t.Name,
		Amount:                  t.Amount,
		AccountName:             t.AccountName,
		PersonalFinanceCategory: t.Category,
		Merchant:                t.Merchant,
		PaymentChannel:          t.PaymentChannel,
	}
}

// ToRecords converts transactions to their wire shape.
func ToRecords(txs []Transaction) []Record {
	out := make([]Record, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.Record())
	}
	return out
}

// NormalizeMerchant maps an empty or whitespace-only merchant to NoMerchant.
func NormalizeMerchant(merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		return NoMerchant
	}
	return merchant
}

// DisplayMerchant returns the merchant label shown in tables.
func (t Transaction) DisplayMerchant() string {
	return NormalizeMerchant(t.Merchant)
}
