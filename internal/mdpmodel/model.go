// Package mdpmodel implements the MDP View: a read-only value exposing
// states, per-state enabled actions, transition distributions, and a
// state labeling. It is immutable once Builder.Build returns it,
// matching spec section 3 ("The MDP is immutable after load").
package mdpmodel

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// State identifies one of the finitely many MDP states by its index in
// 0..|S|-1.
type State int

// Model is the MDP View consumed by the encoding pipeline. Use Builder
// to construct one; Model itself exposes only read accessors.
type Model struct {
	states  []State
	actions map[State][]string
	trans   map[State]map[string]map[State]decimal.Decimal
	labels  map[State]map[string]struct{}
}

// States returns the set of states in ascending order.
func (m *Model) States() []State { return m.states }

// Act returns the enabled action set at s, in a deterministic order.
func (m *Model) Act(s State) []string { return m.actions[s] }

// Successors returns the transition distribution δ(s,α): a mapping from
// successor state to rational probability.
func (m *Model) Successors(s State, action string) map[State]decimal.Decimal {
	return m.trans[s][action]
}

// HasLabel reports whether proposition prop holds at state s.
func (m *Model) HasLabel(s State, prop string) bool {
	_, ok := m.labels[s][prop]
	return ok
}

// ActionSet returns the frozenset key used by the Scheduler Encoder to
// group states with identical enabled-action sets: a sorted, comma
// joined string, stable across runs (spec section 5's determinism
// requirement).
func ActionSet(actions []string) string {
	sorted := append([]string(nil), actions...)
	sort.Strings(sorted)
	out := "{"
	for i, a := range sorted {
		if i > 0 {
			out += ","
		}
		out += a
	}
	return out + "}"
}

// DistinctActionSets returns every distinct enabled-action set occurring
// in the model, each as the sorted slice of its action names, ordered
// deterministically by their ActionSet key.
func (m *Model) DistinctActionSets() [][]string {
	seen := make(map[string][]string)
	for _, s := range m.states {
		acts := append([]string(nil), m.actions[s]...)
		sort.Strings(acts)
		seen[ActionSet(acts)] = acts
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, seen[k])
	}
	return out
}

// Validate checks the structural invariants of spec section 3: every
// state has a non-empty enabled action set, and every transition
// distribution sums to exactly 1.
func (m *Model) Validate() error {
	if len(m.states) == 0 {
		return fmt.Errorf("mdpmodel: model has no states")
	}
	for _, s := range m.states {
		acts := m.actions[s]
		if len(acts) == 0 {
			return fmt.Errorf("mdpmodel: state %d has no enabled actions", s)
		}
		for _, a := range acts {
			dist := m.trans[s][a]
			if len(dist) == 0 {
				return fmt.Errorf("mdpmodel: state %d action %q has no successors", s, a)
			}
			sum := decimal.Zero
			for _, p := range dist {
				sum = sum.Add(p)
			}
			if !sum.Equal(decimal.NewFromInt(1)) {
				return fmt.Errorf("mdpmodel: state %d action %q: successor probabilities sum to %s, want 1", s, a, sum)
			}
		}
	}
	return nil
}
