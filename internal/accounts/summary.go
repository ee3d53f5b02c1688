package accounts

import "github.com/shopspring/decimal"

// Institution groups the accounts of one institution.
type Institution struct {
	ID       string     `json:"institutionId"`
	Name     string     `json:"name"`
	Logo     string     `json:"logo,omitempty"`
	Accounts []*Account `json:"accounts"`
}

// Summary is the account overview shown on the dashboard.
type Summary struct {
	Institutions []Institution   `json:"institutions"`
	Hidden       []*Account      `json:"hiddenAccounts"`
	Assets       decimal.Decimal `json:"assets"`
	Liabilities  decimal.Decimal `json:"liabilities"`
	NetWorth     decimal.Decimal `json:"netWorth"`
}

// GroupByInstitution groups accounts by institution name in order of first
// appearance. Accounts without an institution are left out.
func GroupByInstitution(accts []*Account) []Institution {
	index := make(map[string]int)
	groups := []Institution{}
	for _, a := range accts {
		if a.Institution == "" {
			continue
		}
		i, ok := index[a.Institution]
		if !ok {
			i = len(groups)
			index[a.Institution] = i
			groups = append(groups, Institution{ID: a.InstitutionID, Name: a.Institution, Logo: a.InstitutionLogo})
		}
		groups[i].Accounts = append(groups[i].Accounts, a)
	}
	return groups
}

// Visible splits accounts into the ones to display and the hidden ones.
// With showHidden every account is displayed; hidden is always the full
// list of hidden accounts.
func Visible(accts []*Account, showHidden bool) (visible, hidden []*Account) {
	visible = []*Account{}
	hidden = []*Account{}
	for _, a := range accts {
		if a.Hidden {
			hidden = append(hidden, a)
		}
		if !a.Hidden || showHidden {
			visible = append(visible, a)
		}
	}
	return visible, hidden
}

// NetWorth sums current balances of non-hidden accounts. Credit and loan
// balances count as liabilities.
func NetWorth(accts []*Account) (assets, liabilities, net decimal.Decimal) {
	assets, liabilities = decimal.Zero, decimal.Zero
	for _, a := range accts {
		if a.Hidden || a.Balance == nil {
			continue
		}
		if IsLiability(a.Type) {
			liabilities = liabilities.Add(a.Balance.Current)
		} else {
			assets = assets.Add(a.Balance.Current)
		}
	}
	return assets, liabilities, assets.Sub(liabilities)
}

// Summarize builds the dashboard overview.
func Summarize(accts []*Account, showHidden bool) Summary {
	visible, hidden := Visible(accts, showHidden)
	assets, liabilities, net := NetWorth(accts)
	return Summary{
		Institutions: GroupByInstitution(visible),
		Hidden:       hidden,
		Assets:       assets,
		Liabilities:  liabilities,
		NetWorth:     net,
	}
}
