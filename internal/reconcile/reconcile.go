// Package reconcile matches freshly fetched external accounts against the
// accounts previously stored for the same institution, so that relinking an
// institution updates existing records instead of duplicating them.
//
// An account without a mask is never matched, and names and balances are
// never compared.
package reconcile

// Key holds the identifying attributes compared by the matcher.
// An empty string means the attribute is absent.
type Key struct {
	Mask    string `json:"mask,omitempty"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

// Keyed is implemented by anything that can be matched.
type Keyed interface {
	MatchKey() Key
}

// MatchKey lets a bare Key be used as a candidate or stored entry.
func (k Key) MatchKey() Key { return k }

// Matches reports whether stored satisfies candidate: masks present and
// equal, types equal, and subtypes either both absent or both present and equal.
func (k Key) Matches(stored Key) bool {
	if k.Mask == "" || stored.Mask != k.Mask {
		return false
	}
	if stored.Type != k.Type {
		return false
	}
	return stored.Subtype == k.Subtype
}

// FindMatch returns the first entry of stored, in list order, that matches
// candidate. The boolean is false when there is no match, which is a normal
// outcome meaning "create a new account".
func FindMatch[T Keyed](candidate Key, stored []T) (T, bool) {
	for _, s := range stored {
		if candidate.Matches(s.MatchKey()) {
			return s, true
		}
	}
	var zero T
	return zero, false
}

// Pair is a fetched account together with the stored account it matched.
type Pair[F, S Keyed] struct {
	Fetched F
	Stored  S
	// StoredIndex is the position of Stored in the stored list.
	StoredIndex int
}

// Plan partitions fetched accounts into matched and new ones. Both slices
// keep the order of the fetched list.
type Plan[F, S Keyed] struct {
	Matched []Pair[F, S]
	New     []F
}

// BuildPlan applies FindMatch to every fetched account.
func BuildPlan[F, S Keyed](fetched []F, stored []S) Plan[F, S] {
	plan := Plan[F, S]{
		Matched: []Pair[F, S]{},
		New:     []F{},
	}
	for _, f := range fetched {
		idx := indexOf(f.MatchKey(), stored)
		if idx < 0 {
			plan.New = append(plan.New, f)
			continue
		}
		plan.Matched = append(plan.Matched, Pair[F, S]{Fetched: f, Stored: stored[idx], StoredIndex: idx})
	}
	return plan
}

func indexOf[S Keyed](candidate Key, stored []S) int {
	for i, s := range stored {
		if candidate.Matches(s.MatchKey()) {
			return i
		}
	}
	return -1
}

// SharedMatches returns the stored indexes claimed by more than one fetched
// account, in order of first appearance. The plan does not disambiguate
// them; every such fetched account is paired with the same stored record.
func (p Plan[F, S]) SharedMatches() []int {
	seen := make(map[int]int)
	var shared []int
	for _, m := range p.Matched {
		seen[m.StoredIndex]++
		if seen[m.StoredIndex] == 2 {
			shared = append(shared, m.StoredIndex)
		}
	}
	return shared
}

// OneToOne returns a copy of the plan in which each stored account is
// claimed at most once. The first fetched account to match a stored account
// keeps it; later ones move to New, after the accounts that never matched.
func (p Plan[F, S]) OneToOne() Plan[F, S] {
	out := Plan[F, S]{
		Matched: make([]Pair[F, S], 0, len(p.Matched)),
		New:     append(make([]F, 0, len(p.New)), p.New...),
	}
	claimed := make(map[int]bool, len(p.Matched))
	for _, m := range p.Matched {
		if claimed[m.StoredIndex] {
			out.New = append(out.New, m.Fetched)
			continue
		}
		claimed[m.StoredIndex] = true
		out.Matched = append(out.Matched, m)
	}
	return out
}
