package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-dashboard/internal/accounts"
)

// ItemRow is a linked institution connection.
type ItemRow struct {
	ItemID          string              `bigquery:"item_id"`          // REQUIRED
	ExternalItemID  string              `bigquery:"external_item_id"` // REQUIRED
	AccessToken     string              `bigquery:"access_token"`     // REQUIRED
	InstitutionID   string              `bigquery:"institution_id"`   // REQUIRED
	InstitutionName string              `bigquery:"institution_name"` // REQUIRED
	InstitutionLogo bigquery.NullString `bigquery:"institution_logo"` // NULLABLE
	CreatedTS       time.Time           `bigquery:"created_ts"`       // REQUIRED
}

type AccountRow struct {
	AccountID         string `bigquery:"account_id"`          // REQUIRED
	ExternalAccountID string `bigquery:"external_account_id"` // REQUIRED
	ItemID            string `bigquery:"item_id"`             // REQUIRED

	Name     string              `bigquery:"name"`     // REQUIRED
	Nickname bigquery.NullString `bigquery:"nickname"` // NULLABLE
	Type     string              `bigquery:"type"`     // REQUIRED
	Subtype  bigquery.NullString `bigquery:"subtype"`  // NULLABLE
	Mask     bigquery.NullString `bigquery:"mask"`     // NULLABLE
	Hidden   bool                `bigquery:"hidden"`   // REQUIRED (default FALSE)

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// BalanceRow is an append-only balance snapshot.
type BalanceRow struct {
	BalanceID   string    `bigquery:"balance_id"`   // REQUIRED
	AccountID   string    `bigquery:"account_id"`   // REQUIRED
	Current     *big.Rat  `bigquery:"current"`      // REQUIRED NUMERIC
	Available   *big.Rat  `bigquery:"available"`    // NULLABLE NUMERIC
	CreditLimit *big.Rat  `bigquery:"credit_limit"` // NULLABLE NUMERIC
	RecordedTS  time.Time `bigquery:"recorded_ts"`  // REQUIRED
}

// accountListRow is an account joined with its item and latest balance.
type accountListRow struct {
	AccountRow
	InstitutionID   bigquery.NullString    `bigquery:"institution_id"`
	InstitutionName bigquery.NullString    `bigquery:"institution_name"`
	InstitutionLogo bigquery.NullString    `bigquery:"institution_logo"`
	BalanceID       bigquery.NullString    `bigquery:"balance_id"`
	Current         *big.Rat               `bigquery:"current"`
	Available       *big.Rat               `bigquery:"available"`
	CreditLimit     *big.Rat               `bigquery:"credit_limit"`
	RecordedTS      bigquery.NullTimestamp `bigquery:"recorded_ts"`
}

func newItemRow(item *accounts.Item) *ItemRow {
	return &ItemRow{
		ItemID:          item.ID,
		ExternalItemID:  item.ExternalID,
		AccessToken:     item.AccessToken,
		InstitutionID:   item.InstitutionID,
		InstitutionName: item.InstitutionName,
		InstitutionLogo: nullString(item.InstitutionLogo),
		CreatedTS:       item.CreatedAt,
	}
}

func newAccountRow(a *accounts.Account) *AccountRow {
	row := &AccountRow{
		AccountID:         a.ID,
		ExternalAccountID: a.ExternalID,
		ItemID:            a.ItemID,
		Name:              a.Name,
		Nickname:          nullString(a.Nickname),
		Type:              a.Type,
		Subtype:           nullString(a.Subtype),
		Mask:              nullString(a.Mask),
		Hidden:            a.Hidden,
		CreatedTS:         a.CreatedAt,
	}
	if !a.UpdatedAt.IsZero() {
		row.UpdatedTS = bigquery.NullTimestamp{Timestamp: a.UpdatedAt, Valid: true}
	}
	return row
}

func newBalanceRow(b *accounts.Balance) *BalanceRow {
	return &BalanceRow{
		BalanceID:   b.ID,
		AccountID:   b.AccountID,
		Current:     b.Current.Rat(),
		Available:   nullDecimalToRat(b.Available),
		CreditLimit: nullDecimalToRat(b.Limit),
		RecordedTS:  b.RecordedAt,
	}
}

func (r *accountListRow) toAccount() *accounts.Account {
	a := &accounts.Account{
		ID:              r.AccountID,
		ExternalID:      r.ExternalAccountID,
		ItemID:          r.ItemID,
		InstitutionID:   r.InstitutionID.StringVal,
		Institution:     r.InstitutionName.StringVal,
		InstitutionLogo: r.InstitutionLogo.StringVal,
		Name:            r.Name,
		Nickname:        r.Nickname.StringVal,
		Type:            r.Type,
		Subtype:         r.Subtype.StringVal,
		Mask:            r.Mask.StringVal,
		Hidden:          r.Hidden,
		CreatedAt:       r.CreatedTS,
	}
	if r.UpdatedTS.Valid {
		a.UpdatedAt = r.UpdatedTS.Timestamp
	}
	if r.BalanceID.Valid {
		a.Balance = &accounts.Balance{
			ID:         r.BalanceID.StringVal,
			AccountID:  r.AccountID,
			Current:    ratToDecimal(r.Current),
			Available:  ratToNullDecimal(r.Available),
			Limit:      ratToNullDecimal(r.CreditLimit),
			RecordedAt: r.RecordedTS.Timestamp,
		}
	}
	return a
}
