package bigquery

import (
	"errors"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRow is a row of the transactions table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Name            string     `bigquery:"name"`             // REQUIRED
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC, signed (credit > 0)

	CategoryName   bigquery.NullString `bigquery:"category_name"`   // NULLABLE
	MerchantName   bigquery.NullString `bigquery:"merchant_name"`   // NULLABLE
	PaymentChannel bigquery.NullString `bigquery:"payment_channel"` // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// transactionListRow is a transaction joined with its account's display names.
type transactionListRow struct {
	TransactionID   string              `bigquery:"transaction_id"`
	TransactionDate civil.Date          `bigquery:"transaction_date"`
	Name            string              `bigquery:"name"`
	Amount          *big.Rat            `bigquery:"amount"`
	CategoryName    bigquery.NullString `bigquery:"category_name"`
	MerchantName    bigquery.NullString `bigquery:"merchant_name"`
	PaymentChannel  bigquery.NullString `bigquery:"payment_channel"`
	AccountName     bigquery.NullString `bigquery:"account_name"`
	AccountNickname bigquery.NullString `bigquery:"account_nickname"`
}

var errInvalidDate = errors.New("invalid calendar date")

func (r *transactionListRow) toTransaction() (transactions.Transaction, error) {
	if !r.TransactionDate.IsValid() {
		return transactions.Transaction{}, &transactions.DataError{
			TransactionID: r.TransactionID,
			Field:         "date",
			Value:         r.TransactionDate.String(),
			Err:           errInvalidDate,
		}
	}
	accountName := r.AccountName.StringVal
	if r.AccountNickname.Valid && r.AccountNickname.StringVal != "" {
		accountName = r.AccountNickname.StringVal
	}
	return transactions.Transaction{
		ID:             r.TransactionID,
		Date:           r.TransactionDate,
		Name:           r.Name,
		Amount:         ratToFloat(r.Amount),
		AccountName:    accountName,
		Category:       r.CategoryName.StringVal,
		Merchant:       r.MerchantName.StringVal,
		PaymentChannel: r.PaymentChannel.StringVal,
	}, nil
}

func newTransactionRow(accountID string, tx transactions.Transaction, now time.Time) *TransactionRow {
	id := tx.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &TransactionRow{
		TransactionID:   id,
		AccountID:       accountID,
		TransactionDate: tx.Date,
		Name:            tx.Name,
		Amount:          decimal.NewFromFloat(tx.Amount).Rat(),
		CategoryName:    nullString(tx.Category),
		MerchantName:    nullString(tx.Merchant),
		PaymentChannel:  nullString(tx.PaymentChannel),
		CreatedTS:       now,
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func ratToFloat(r *big.Rat) float64 {
	if r == nil {
		return 0
	}
	f, _ := r.Float64()
	return f
}

// ratToDecimal converts a NUMERIC value (scale 9) to a decimal.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.RequireFromString(r.FloatString(9))
}

func ratToNullDecimal(r *big.Rat) decimal.NullDecimal {
	if r == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ratToDecimal(r))
}

func nullDecimalToRat(d decimal.NullDecimal) *big.Rat {
	if !d.Valid {
		return nil
	}
	return d.Decimal.Rat()
}
