package mdpmodel

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Builder assembles a Model incrementally. Builders are the only
// mutable view of an MDP; once Build returns, the resulting Model is
// read-only for the remainder of the check.
type Builder struct {
	states  []State
	actions map[State][]string
	trans   map[State]map[string]map[State]decimal.Decimal
	labels  map[State]map[string]struct{}
	seen    map[State]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		actions: make(map[State][]string),
		trans:   make(map[State]map[string]map[State]decimal.Decimal),
		labels:  make(map[State]map[string]struct{}),
		seen:    make(map[State]bool),
	}
}

// AddState registers s if not already present. States do not need to be
// added before AddTransition/AddLabel reference them; both add the
// state implicitly.
func (b *Builder) AddState(s State) *Builder {
	if !b.seen[s] {
		b.seen[s] = true
		b.states = append(b.states, s)
	}
	return b
}

// AddTransition records that at state s, action is enabled, and leads to
// succ with probability p. Calling it repeatedly for the same (s,
// action) with different succ accumulates the distribution.
func (b *Builder) AddTransition(s State, action string, succ State, p decimal.Decimal) *Builder {
	b.AddState(s).AddState(succ)
	if !containsAction(b.actions[s], action) {
		b.actions[s] = append(b.actions[s], action)
	}
	if b.trans[s] == nil {
		b.trans[s] = make(map[string]map[State]decimal.Decimal)
	}
	if b.trans[s][action] == nil {
		b.trans[s][action] = make(map[State]decimal.Decimal)
	}
	b.trans[s][action][succ] = p
	return b
}

// AddLabel records that proposition prop holds at state s.
func (b *Builder) AddLabel(s State, prop string) *Builder {
	b.AddState(s)
	if b.labels[s] == nil {
		b.labels[s] = make(map[string]struct{})
	}
	b.labels[s][prop] = struct{}{}
	return b
}

func containsAction(acts []string, a string) bool {
	for _, x := range acts {
		if x == a {
			return true
		}
	}
	return false
}

// Build finalizes the Model. It does not call Validate; callers that
// need the structural invariants checked should call Model.Validate
// explicitly (encode.Session.EncodeAll does this before encoding).
func (b *Builder) Build() *Model {
	states := append([]State(nil), b.states...)
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return &Model{
		states:  states,
		actions: b.actions,
		trans:   b.trans,
		labels:  b.labels,
	}
}
