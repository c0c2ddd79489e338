package registry

import (
	"testing"

	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

func TestVariableSortConsistency(t *testing.T) {
	reg := New(smtterm.NewProgram())

	holds := Key{Kind: KindHolds, SubformulaID: 2, Tuple: []ExtState{{State: 0, I: 0}}}
	prob := Key{Kind: KindProb, SubformulaID: 2, Tuple: []ExtState{{State: 0, I: 0}}}
	sched := Key{Kind: KindSchedActionSet, ActionSet: []string{"a", "b"}, Action: "a"}
	stutter := Key{Kind: KindStutter, StutterIdx: 1, State: 0, Action: "a"}
	htoi := Key{Kind: KindHtoi, SubformulaID: 2, Tuple: []ExtState{{State: 0, I: 0}}}

	ht := reg.Term(holds)
	pt := reg.Term(prob)
	st := reg.Term(sched)
	tt := reg.Term(stutter)
	xt := reg.Term(htoi)

	if ht.Sort != smtterm.SortBool {
		t.Error("holds_ must be Bool-sorted")
	}
	for name, term := range map[string]*smtterm.Term{"prob_": pt, "a_": st, "t_": tt, "htoi": xt} {
		if term.Sort != smtterm.SortReal {
			t.Errorf("%s must be Real-sorted", name)
		}
	}

	if got := holds.Name()[0]; got != 'h' {
		t.Errorf("holds_ name must start with h, got %c", got)
	}
}

func TestRegistryDeduplicatesByKey(t *testing.T) {
	reg := New(smtterm.NewProgram())
	key := Key{Kind: KindTr, StutterIdx: 1, From: ExtState{State: 0, I: 0}, Action: "a", To: ExtState{State: 1, I: 0}}

	t1 := reg.Term(key)
	t2 := reg.Term(key)
	if t1 != t2 {
		t.Error("same key must return the same term handle")
	}
	if len(reg.Names()) != 1 {
		t.Errorf("expected exactly one minted name, got %d", len(reg.Names()))
	}
}

func TestRegistryReverseLookupIsStructured(t *testing.T) {
	reg := New(smtterm.NewProgram())
	key := Key{Kind: KindGo, StutterIdx: 2, From: ExtState{State: 1, I: 0}, Action: "b", To: ExtState{State: 1, I: 1}}
	reg.Term(key)

	got, ok := reg.Lookup(key.Name())
	if !ok {
		t.Fatal("expected the minted name to be present in the reverse index")
	}
	if got.Kind != KindGo || got.StutterIdx != 2 || got.Action != "b" {
		t.Errorf("reverse lookup returned unexpected key: %+v", got)
	}
}

func TestActionSetNaming(t *testing.T) {
	key := Key{Kind: KindSchedActionSet, ActionSet: []string{"b", "a"}, Action: "a"}
	want := "a_" + mdpmodel.ActionSet([]string{"a", "b"}) + "_a"
	if got := key.Name(); got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}
