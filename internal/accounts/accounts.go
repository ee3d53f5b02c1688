// Package accounts holds the linked-institution model: items, accounts and
// their balance snapshots, plus the dashboard summary derived from them.
package accounts

import (
	"strings"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/reconcile"
	"github.com/shopspring/decimal"
)

// Account types reported by the aggregation API.
const (
	TypeDepository = "depository"
	TypeCredit     = "credit"
	TypeLoan       = "loan"
	TypeInvestment = "investment"
	TypeOther      = "other"
)

// Item is one linked institution connection. Every link creates a new Item,
// even when the institution was linked before.
type Item struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"itemId"`
	AccessToken     string    `json:"-"`
	InstitutionID   string    `json:"institutionId"`
	InstitutionName string    `json:"institutionName"`
	InstitutionLogo string    `json:"institutionLogo,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Account is a stored account. Optional strings use "" for absent.
type Account struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"plaidId"`
	ItemID          string    `json:"itemId"`
	InstitutionID   string    `json:"institutionId"`
	Institution     string    `json:"institution"`
	InstitutionLogo string    `json:"institutionLogo,omitempty"`
	Name            string    `json:"name"`
	Nickname        string    `json:"nickname,omitempty"`
	Type            string    `json:"type"`
	Subtype         string    `json:"subtype,omitempty"`
	Mask            string    `json:"mask,omitempty"`
	Hidden          bool      `json:"hidden"`
	Balance         *Balance  `json:"balance,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MatchKey implements reconcile.Keyed.
func (a *Account) MatchKey() reconcile.Key {
	return reconcile.Key{Mask: a.Mask, Type: a.Type, Subtype: a.Subtype}
}

// DisplayName is the nickname when set, the account name otherwise.
func (a *Account) DisplayName() string {
	if strings.TrimSpace(a.Nickname) != "" {
		return a.Nickname
	}
	return a.Name
}

// Balance is a point-in-time balance snapshot of an account.
type Balance struct {
	ID         string              `json:"id"`
	AccountID  string              `json:"accountId"`
	Current    decimal.Decimal     `json:"current"`
	Available  decimal.NullDecimal `json:"available"`
	Limit      decimal.NullDecimal `json:"limit"`
	RecordedAt time.Time           `json:"recordedAt"`
}

// IsLiability reports whether balances of accountType are owed rather than held.
func IsLiability(accountType string) bool {
	switch strings.ToLower(accountType) {
	case TypeCredit, TypeLoan:
		return true
	}
	return false
}
