package sqlstore

import (
	"time"

	"github.com/dvloznov/finance-dashboard/internal/accounts"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
	"github.com/shopspring/decimal"
)

type itemModel struct {
	ID              string    `gorm:"primary_key;size:36"`
	ExternalItemID  string    `gorm:"size:100;not null"`
	AccessToken     string    `gorm:"size:200;not null"`
	InstitutionID   string    `gorm:"size:100;not null;index"`
	InstitutionName string    `gorm:"size:200;not null"`
	InstitutionLogo string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (itemModel) TableName() string { return "items" }

type accountModel struct {
	ID                string `gorm:"primary_key;size:36"`
	ExternalAccountID string `gorm:"size:100;not null"`
	ItemID            string `gorm:"size:36;not null;index"`
	Name              string `gorm:"size:200;not null"`
	Nickname          string `gorm:"size:200"`
	Type              string `gorm:"size:50;not null"`
	Subtype           string `gorm:"size:50"`
	Mask              string `gorm:"size:10"`
	Hidden            bool   `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (accountModel) TableName() string { return "accounts" }

type balanceModel struct {
	ID         string              `gorm:"primary_key;size:36"`
	AccountID  string              `gorm:"size:36;not null;index"`
	Current    decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	Available  decimal.NullDecimal `gorm:"type:decimal(20,4)"`
	Limit      decimal.NullDecimal `gorm:"column:credit_limit;type:decimal(20,4)"`
	RecordedAt time.Time           `gorm:"not null;index"`
}

func (balanceModel) TableName() string { return "account_balances" }

type transactionModel struct {
	ID        string `gorm:"primary_key;size:36"`
	AccountID string `gorm:"size:36;not null;index"`
	// Date is the calendar date in 2006-01-02 form.
	Date           string          `gorm:"size:10;not null;index"`
	Name           string          `gorm:"size:500;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Category       string          `gorm:"size:100"`
	Merchant       string          `gorm:"size:200"`
	PaymentChannel string          `gorm:"size:50"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (transactionModel) TableName() string { return "transactions" }

func models() []interface{} {
	return []interface{}{&itemModel{}, &accountModel{}, &balanceModel{}, &transactionModel{}}
}

// transactionListRow is a transaction joined with its account names.
type transactionListRow struct {
	ID              string
	Date            string
	Name            string
	Amount          decimal.Decimal
	Category        string
	Merchant        string
	PaymentChannel  string
	AccountName     string
	AccountNickname string
}

func (r transactionListRow) toTransaction() (transactions.Transaction, error) {
	d, err := transactions.ParseDate(r.Date)
	if err != nil {
		return transactions.Transaction{}, &transactions.DataError{TransactionID: r.ID, Field: "date", Value: r.Date, Err: err}
	}
	accountName := r.AccountName
	if r.AccountNickname != "" {
		accountName = r.AccountNickname
	}
	amount, _ := r.Amount.Float64()
	return transactions.Transaction{
		ID:             r.ID,
		Date:           d,
		Name:           r.Name,
		Amount:         amount,
		AccountName:    accountName,
		Category:       r.Category,
		Merchant:       r.Merchant,
		PaymentChannel: r.PaymentChannel,
	}, nil
}

func newTransactionModel(accountID string, tx transactions.Transaction) *transactionModel {
	return &transactionModel{
		ID:             tx.ID,
		AccountID:      accountID,
		Date:           tx.Date.String(),
		Name:           tx.Name,
		Amount:         decimal.NewFromFloat(tx.Amount),
		Category:       tx.Category,
		Merchant:       tx.Merchant,
		PaymentChannel: tx.PaymentChannel,
	}
}

// accountListRow is an account joined with its item. Fields must stay
// exported and flat; Scan fills them by column name.
type accountListRow struct {
	ID                string
	ExternalAccountID string
	ItemID            string
	Name              string
	Nickname          string
	Type              string
	Subtype           string
	Mask              string
	Hidden            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	InstitutionID     string
	InstitutionName   string
	InstitutionLogo   string
}

// accountListColumns is the select list that fills accountListRow.
var accountListColumns = []string{
	"a.id",
	"a.external_account_id",
	"a.item_id",
	"a.name",
	"a.nickname",
	"a.type",
	"a.subtype",
	"a.mask",
	"a.hidden",
	"a.created_at",
	"a.updated_at",
	"COALESCE(i.institution_id, '') AS institution_id",
	"COALESCE(i.institution_name, '') AS institution_name",
	"COALESCE(i.institution_logo, '') AS institution_logo",
}

func (r accountListRow) toAccount() *accounts.Account {
	return &accounts.Account{
		ID:              r.ID,
		ExternalID:      r.ExternalAccountID,
		ItemID:          r.ItemID,
		InstitutionID:   r.InstitutionID,
		Institution:     r.InstitutionName,
		InstitutionLogo: r.InstitutionLogo,
		Name:            r.Name,
		Nickname:        r.Nickname,
		Type:            r.Type,
		Subtype:         r.Subtype,
		Mask:            r.Mask,
		Hidden:          r.Hidden,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func newAccountModel(a *accounts.Account) *accountModel {
	return &accountModel{
		ID:                a.ID,
		ExternalAccountID: a.ExternalID,
		ItemID:            a.ItemID,
		Name:              a.Name,
		Nickname:          a.Nickname,
		Type:              a.Type,
		Subtype:           a.Subtype,
		Mask:              a.Mask,
		Hidden:            a.Hidden,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (m balanceModel) toBalance() *accounts.Balance {
	return &accounts.Balance{
		ID:         m.ID,
		AccountID:  m.AccountID,
		Current:    m.Current,
		Available:  m.Available,
		Limit:      m.Limit,
		RecordedAt: m.RecordedAt,
	}
}
