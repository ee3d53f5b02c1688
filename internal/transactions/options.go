package transactions

import "sort"

// FilterOptions are the selectable values of each filter dropdown.
type FilterOptions struct {
	Accounts   []string `json:"accounts"`
	Categories []string `json:"categories"`
	Merchants  []string `json:"merchants"`
}

// Options computes the sorted distinct filter values over txs. Callers pass
// the unfiltered list so the choices do not shrink as filters are applied.
// Missing accounts and categories are not offered; merchants are normalized,
// so NoMerchant appears when any transaction lacks one.
func Options(txs []Transaction) FilterOptions {
	accounts := make(map[string]struct{})
	categories := make(map[string]struct{})
	merchants := make(map[string]struct{})
	for _, tx := range txs {
		if tx.AccountName != "" {
			accounts[tx.AccountName] = struct{}{}
		}
		if tx.Category != "" {
			categories[tx.Category] = struct{}{}
		}
		merchants[NormalizeMerchant(tx.Merchant)] = struct{}{}
	}
	return FilterOptions{
		Accounts:   sortedKeys(accounts),
		Categories: sortedKeys(categories),
		Merchants:  sortedKeys(merchants),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
