package transactions

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DateMode selects the preset date window of a filter.
type DateMode string

const (
	DateAll       DateMode = "all"
	DateYTD       DateMode = "ytd"
	DateLastYear  DateMode = "lastYear"
	DateThisMonth DateMode = "thisMonth"
	DatePastMonth DateMode = "pastMonth"
	// DateMonth selects Criteria.Month of Criteria.Year.
	DateMonth DateMode = "month"
)

// Valid reports whether m is a known mode. The empty mode means DateAll.
func (m DateMode) Valid() bool {
	switch m {
	case "", DateAll, DateYTD, DateLastYear, DateThisMonth, DatePastMonth, DateMonth:
		return true
	}
	return false
}

// Criteria is an immutable filter configuration. Use the With* helpers to
// derive a modified copy; they never alter the receiver's slices.
//
// An empty allow-set (Accounts, Categories, Merchants) means "no
// restriction" for that dimension.
type Criteria struct {
	DateMode DateMode `json:"dateMode,omitempty"`
	// Month is 1-indexed (1 = January) and only used with DateMonth.
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`

	// Start and End are inclusive bounds applied on top of DateMode.
	Start *civil.Date `json:"startDate,omitempty"`
	End   *civil.Date `json:"endDate,omitempty"`

	Accounts   []string `json:"accounts,omitempty"`
	Categories []string `json:"categories,omitempty"`
	// Merchants holds normalized merchant labels, NoMerchant included.
	Merchants []string `json:"merchants,omitempty"`
}

// Validate checks the criteria for values Filter cannot interpret.
func (c Criteria) Validate() error {
	if !c.DateMode.Valid() {
		return fmt.Errorf("unknown date mode %q", c.DateMode)
	}
	if c.DateMode == DateMonth {
		if c.Month < 1 || c.Month > 12 {
			return fmt.Errorf("month must be between 1 and 12, got %d", c.Month)
		}
		if c.Year <= 0 {
			return fmt.Errorf("year is required for date mode %q", DateMonth)
		}
	}
	if c.Start != nil && c.End != nil && c.Start.After(*c.End) {
		return fmt.Errorf("start date %s is after end date %s", c.Start, c.End)
	}
	return nil
}

// WithDateMode returns a copy of c using mode.
func (c Criteria) WithDateMode(mode DateMode) Criteria {
	c.DateMode = mode
	return c
}

// WithMonth returns a copy of c selecting a specific month (1-indexed) and year.
func (c Criteria) WithMonth(month, year int) Criteria {
	c.DateMode = DateMonth
	c.Month = month
	c.Year = year
	return c
}

// WithBounds returns a copy of c with the given inclusive bounds. Nil clears a bound.
func (c Criteria) WithBounds(start, end *civil.Date) Criteria {
	c.Start = copyDate(start)
	c.End = copyDate(end)
	return c
}

// WithAccounts returns a copy of c restricted to the given account names.
func (c Criteria) WithAccounts(names ...string) Criteria {
	c.Accounts = append([]string(nil), names...)
	return c
}

// WithCategories returns a copy of c restricted to the given categories.
func (c Criteria) WithCategories(categories ...string) Criteria {
	c.Categories = append([]string(nil), categories...)
	return c
}

// WithMerchants returns a copy of c restricted to the given merchant labels.
func (c Criteria) WithMerchants(merchants ...string) Criteria {
	c.Merchants = append([]string(nil), merchants...)
	return c
}

// Toggle returns a new allow-set with v removed if present, or appended if not.
func Toggle(set []string, v string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == v {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// ToggleAll implements the "All" checkbox: when every value of universe is
// already selected it clears the set, otherwise it selects the whole universe.
// Values in set that are not in universe do not count as selections.
func ToggleAll(set, universe []string) []string {
	selected := make(map[string]struct{}, len(set))
	for _, s := range set {
		selected[s] = struct{}{}
	}
	for _, u := range universe {
		if _, ok := selected[u]; !ok {
			return append([]string(nil), universe...)
		}
	}
	return []string{}
}

func copyDate(d *civil.Date) *civil.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
