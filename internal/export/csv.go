// Package export writes filtered transaction views as CSV files to object
// storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/shopspring/decimal"
)

// Header is the first CSV row.
var Header = []string{"date", "name", "account", "category", "merchant", "payment_channel", "amount"}

// WriteCSV writes txs in the given order. Merchants are normalized and
// amounts rounded to cents.
func WriteCSV(w io.Writer, txs []transactions.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}
	for _, tx := range txs {
		row := []string{
			tx.Date.String(),
			tx.Name,
			tx.AccountName,
			tx.Category,
			tx.DisplayMerchant(),
			tx.PaymentChannel,
			decimal.NewFromFloat(tx.Amount).StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCSV: row %s: %w", strconv.Quote(tx.ID), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: flush: %w", err)
	}
	return nil
}
