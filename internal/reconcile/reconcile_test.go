package reconcile

import (
	"reflect"
	"testing"
)

type storedAccount struct {
	id  string
	key Key
}

func (s storedAccount) MatchKey() Key { return s.key }

func TestFindMatch(t *testing.T) {
	stored := []storedAccount{
		{id: "savings", key: Key{Mask: "1234", Type: "depository", Subtype: "savings"}},
		{id: "checking", key: Key{Mask: "1234", Type: "depository", Subtype: "checking"}},
		{id: "card", key: Key{Mask: "9999", Type: "credit"}},
		{id: "checking-dup", key: Key{Mask: "1234", Type: "depository", Subtype: "checking"}},
	}

	tests := []struct {
		name      string
		candidate Key
		wantID    string
		wantOK    bool
	}{
		{
			name:      "subtype must be equal",
			candidate: Key{Mask: "1234", Type: "depository", Subtype: "checking"},
			wantID:    "checking",
			wantOK:    true,
		},
		{
			name:      "both subtypes absent",
			candidate: Key{Mask: "9999", Type: "credit"},
			wantID:    "card",
			wantOK:    true,
		},
		{
			name:      "candidate subtype present, stored absent",
			candidate: Key{Mask: "9999", Type: "credit", Subtype: "credit card"},
		},
		{
			name:      "candidate subtype absent, stored present",
			candidate: Key{Mask: "1234", Type: "depository"},
		},
		{
			name:      "type differs",
			candidate: Key{Mask: "1234", Type: "loan", Subtype: "checking"},
		},
		{
			name:      "mask differs",
			candidate: Key{Mask: "4321", Type: "depository", Subtype: "checking"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindMatch(tt.candidate, stored)
			if ok != tt.wantOK {
				t.Fatalf("FindMatch() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got.id != tt.wantID {
				t.Errorf("FindMatch() = %s, want %s", got.id, tt.wantID)
			}
		})
	}
}

func TestFindMatch_AbsentMaskNeverMatches(t *testing.T) {
	lists := [][]Key{
		nil,
		{{Type: "depository", Subtype: "checking"}},
		{{Mask: "", Type: "depository"}, {Mask: "1234", Type: "depository"}},
	}
	candidates := []Key{
		{Type: "depository", Subtype: "checking"},
		{Type: "depository"},
		{},
	}
	for _, stored := range lists {
		for _, c := range candidates {
			if _, ok := FindMatch(c, stored); ok {
				t.Errorf("FindMatch(%+v, %+v) matched, want no match", c, stored)
			}
		}
	}
}

func TestBuildPlan(t *testing.T) {
	stored := []storedAccount{
		{id: "s1", key: Key{Mask: "1111", Type: "depository", Subtype: "checking"}},
		{id: "s2", key: Key{Mask: "2222", Type: "credit", Subtype: "credit card"}},
	}
	fetched := []Key{
		{Mask: "2222", Type: "credit", Subtype: "credit card"},
		{Type: "investment"},
		{Mask: "1111", Type: "depository", Subtype: "checking"},
		{Mask: "3333", Type: "depository", Subtype: "savings"},
		{Mask: "1111", Type: "depository", Subtype: "checking"},
	}

	plan := BuildPlan(fetched, stored)

	var matched []string
	for _, m := range plan.Matched {
		matched = append(matched, m.Fetched.Mask+"->"+m.Stored.id)
	}
	if !reflect.DeepEqual(matched, []string{"2222->s2", "1111->s1", "1111->s1"}) {
		t.Errorf("Matched = %v", matched)
	}
	if !reflect.DeepEqual(plan.New, []Key{{Type: "investment"}, {Mask: "3333", Type: "depository", Subtype: "savings"}}) {
		t.Errorf("New = %+v", plan.New)
	}
	if got := plan.SharedMatches(); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("SharedMatches() = %v, want [0]", got)
	}
}

func TestPlan_OneToOne(t *testing.T) {
	stored := []storedAccount{{id: "s1", key: Key{Mask: "0000", Type: "depository", Subtype: "checking"}}}
	fetched := []Key{
		{Mask: "0000", Type: "depository", Subtype: "checking"},
		{Type: "investment"},
		{Mask: "0000", Type: "depository", Subtype: "checking"},
	}

	plan := BuildPlan(fetched, stored)
	exclusive := plan.OneToOne()

	if len(exclusive.Matched) != 1 || exclusive.Matched[0].Stored.id != "s1" {
		t.Errorf("Matched = %+v, want one pair claiming s1", exclusive.Matched)
	}
	want := []Key{{Type: "investment"}, {Mask: "0000", Type: "depository", Subtype: "checking"}}
	if !reflect.DeepEqual(exclusive.New, want) {
		t.Errorf("New = %+v, want %+v", exclusive.New, want)
	}
	if len(exclusive.SharedMatches()) != 0 {
		t.Errorf("SharedMatches() = %v, want none", exclusive.SharedMatches())
	}
	if len(plan.Matched) != 2 || len(plan.New) != 1 {
		t.Error("OneToOne() modified the original plan")
	}
}

func TestBuildPlan_Empty(t *testing.T) {
	plan := BuildPlan[Key, Key](nil, nil)
	if plan.Matched == nil || plan.New == nil {
		t.Error("BuildPlan() returned nil slices")
	}
	if len(plan.SharedMatches()) != 0 {
		t.Error("SharedMatches() on empty plan should be empty")
	}
}
