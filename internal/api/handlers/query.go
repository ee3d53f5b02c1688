package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/transactions"
)

// ParseViewQuery reads view filter and sort parameters:
// dateMode, month, year, startDate, endDate, repeated account, category and
// merchant, sortBy and sortOrder.
func ParseViewQuery(q url.Values) (dashboard.ViewQuery, error) {
	var c transactions.Criteria
	c.DateMode = transactions.DateMode(q.Get("dateMode"))

	var err error
	if c.Month, err = parseInt(q, "month"); err != nil {
		return dashboard.ViewQuery{}, err
	}
	if c.Year, err = parseInt(q, "year"); err != nil {
		return dashboard.ViewQuery{}, err
	}
	if c.Start, err = parseDate(q, "startDate"); err != nil {
		return dashboard.ViewQuery{}, err
	}
	if c.End, err = parseDate(q, "endDate"); err != nil {
		return dashboard.ViewQuery{}, err
	}

	c.Accounts = nonEmpty(q["account"])
	c.Categories = nonEmpty(q["category"])
	c.Merchants = nonEmpty(q["merchant"])

	if err := c.Validate(); err != nil {
		return dashboard.ViewQuery{}, err
	}

	key, err := transactions.ParseSortKey(q.Get("sortBy"))
	if err != nil {
		return dashboard.ViewQuery{}, err
	}
	order, err := transactions.ParseSortOrder(q.Get("sortOrder"))
	if err != nil {
		return dashboard.ViewQuery{}, err
	}

	return dashboard.ViewQuery{Criteria: c, Sort: transactions.SortState{Key: key, Order: order}}, nil
}

func parseInt(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}

func parseDate(q url.Values, name string) (*civil.Date, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, s)
	}
	return &d, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

// nonEmpty drops blank values so "?account=" does not select nothing.
func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
