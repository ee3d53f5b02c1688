package transactions

import (
	"time"

	"cloud.google.com/go/civil"
)

// Filter returns the transactions that pass every active predicate of c,
// in input order. The calendar day "today" is civil.DateOf(now), so the
// location of now decides which day it is.
func Filter(txs []Transaction, c Criteria, now time.Time) []Transaction {
	m := newMatcher(c, now)
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Matches reports whether a single transaction passes c.
func Matches(tx Transaction, c Criteria, now time.Time) bool {
	return newMatcher(c, now).match(tx)
}

type matcher struct {
	c          Criteria
	today      civil.Date
	accounts   map[string]struct{}
	categories map[string]struct{}
	merchants  map[string]struct{}
	// pastMonth bounds, only set for DatePastMonth
	pastStart civil.Date
	pastEnd   civil.Date
}

func newMatcher(c Criteria, now time.Time) *matcher {
	m := &matcher{
		c:          c,
		today:      civil.DateOf(now),
		accounts:   toSet(c.Accounts),
		categories: toSet(c.Categories),
		merchants:  toSet(c.Merchants),
	}
	if c.DateMode == DatePastMonth {
		firstOfMonth := time.Date(m.today.Year, m.today.Month, 1, 0, 0, 0, 0, time.UTC)
		m.pastStart = civil.DateOf(firstOfMonth.AddDate(0, -1, 0))
		m.pastEnd = civil.DateOf(firstOfMonth.AddDate(0, 0, -1))
	}
	return m
}

func (m *matcher) match(tx Transaction) bool {
	if m.merchants != nil && !contains(m.merchants, NormalizeMerchant(tx.Merchant)) {
		return false
	}
	if m.accounts != nil && !contains(m.accounts, tx.AccountName) {
		return false
	}
	if !m.matchDateMode(tx.Date) {
		return false
	}
	if m.categories != nil && !contains(m.categories, tx.Category) {
		return false
	}
	if m.c.Start != nil && tx.Date.Before(*m.c.Start) {
		return false
	}
	if m.c.End != nil && tx.Date.After(*m.c.End) {
		return false
	}
	return true
}

func (m *matcher) matchDateMode(d civil.Date) bool {
	switch m.c.DateMode {
	case "", DateAll:
		return true
	case DateYTD:
		return d.Year == m.today.Year && !d.After(m.today)
	case DateLastYear:
		return d.Year == m.today.Year-1
	case DateThisMonth:
		return d.Year == m.today.Year && d.Month == m.today.Month
	case DatePastMonth:
		return !d.Before(m.pastStart) && !d.After(m.pastEnd)
	case DateMonth:
		return d.Year == m.c.Year && int(d.Month) == m.c.Month
	default:
		// Unknown modes are rejected by Validate; treat them as matching nothing.
		return false
	}
}

// toSet returns nil for an empty allow-set, meaning "no restriction".
func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
