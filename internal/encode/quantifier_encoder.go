package encode

import (
	"fmt"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// Interpretation tells the caller how to read a SAT/UNSAT verdict on
// the goal term EncodeQuantifiers produces (spec section 4.10's
// scheduler-quantifier duality).
type Interpretation int

const (
	// Direct means: SAT of (constraints ∧ goal) means the property
	// holds (∃ scheduler was directly encoded).
	Direct Interpretation = iota
	// Dualized means: SAT of (constraints ∧ goal) means the ∀-scheduler
	// property is VIOLATED by the witness; UNSAT means it holds.
	Dualized
)

// Finish completes the encoding pipeline: it runs EncodeAll (scheduler,
// stutter, semantic encoders), then the Quantifier Encoder ("Truth")
// collapses the outer state/stutter quantifiers and asserts the
// resulting goal, returning how the final SAT/UNSAT verdict should be
// interpreted.
func (s *Session) Finish(disallowForallScheduler bool) (Interpretation, error) {
	if s.Prefix.SchedForall && disallowForallScheduler {
		return Direct, fmt.Errorf("%w: universal scheduler quantification is disabled", checkerrors.ErrUnsupportedOperator)
	}
	if err := s.EncodeAll(); err != nil {
		return Direct, err
	}

	topID, err := s.EncodeNode(s.Prefix.Body)
	if err != nil {
		return Direct, err
	}

	if !s.Prefix.SchedForall {
		goal := s.collapseStates(1, make([]mdpmodel.State, s.Prefix.NumStates), topID, false)
		s.Prog.Assert(goal)
		return Direct, nil
	}

	goal := s.collapseStates(1, make([]mdpmodel.State, s.Prefix.NumStates), topID, true)
	s.Prog.Assert(goal)
	return Dualized, nil
}

// collapseStates implements the state-quantifier collapse of spec
// section 4.10, walking state indices outermost (1) to innermost (m).
// When dualize is true, the quantifier polarities are flipped (spec's
// "dualized formula with quantifier polarities flipped").
func (s *Session) collapseStates(i int, sigma []mdpmodel.State, topID int, dualize bool) *smtterm.Term {
	if i > s.Prefix.NumStates {
		return s.collapseStutters(1, sigma, topID, dualize)
	}
	terms := make([]*smtterm.Term, 0, len(s.states()))
	for _, st := range s.states() {
		sigma[i-1] = st
		terms = append(terms, s.collapseStates(i+1, sigma, topID, dualize))
	}
	forall := s.Prefix.StatePolarity[i]
	if dualize {
		forall = !forall
	}
	if forall {
		return smtterm.And(terms...)
	}
	return smtterm.Or(terms...)
}

// collapseStutters implements the stutter-quantifier collapse of spec
// section 4.10: for each stutter quantifier, in declared order, build
// the conjunction (∀) or disjunction (∃) of "precondition pinning this
// stutter's scheduler variables to one concrete duration assignment
// implies/and the inner collapse." Because the Tr_/go_ reification ties
// t_{j,s,α} only to states s actually selected by sigma (see
// DESIGN.md), the per-level enumeration only ranges over the one fixed
// state's enabled actions, not the full (state,action) product the
// worst-case bound in spec section 5 assumes.
func (s *Session) collapseStutters(j int, sigma []mdpmodel.State, topID int, dualize bool) *smtterm.Term {
	if j > s.Prefix.NumStutters {
		r := s.initialTuple(sigma)
		qTop := s.relevantQuantifiers(s.Prefix.Body)
		h := s.holdsVar(topID, restrict(r, qTop))
		if dualize {
			return smtterm.Not(h)
		}
		return h
	}

	state := sigma[s.Prefix.PiOf(j)-1]
	acts := sortedActs(s.Model.Act(state))
	assignments := cartesianAssignments(acts, s.Cfg.StutterBound)

	terms := make([]*smtterm.Term, 0, len(assignments))
	for _, assign := range assignments {
		preconds := make([]*smtterm.Term, 0, len(acts))
		for _, a := range acts {
			tVar := s.Reg.Term(registry.Key{Kind: registry.KindStutter, StutterIdx: j, State: state, Action: a})
			preconds = append(preconds, smtterm.Eq(tVar, smtterm.RealConstInt(assign[a])))
		}
		precond := smtterm.And(preconds...)
		inner := s.collapseStutters(j+1, sigma, topID, dualize)

		forall := s.Prefix.StutterPolarity[j]
		if dualize {
			forall = !forall
		}
		if forall {
			terms = append(terms, smtterm.Implies(precond, inner))
		} else {
			terms = append(terms, smtterm.And(precond, inner))
		}
	}

	forall := s.Prefix.StutterPolarity[j]
	if dualize {
		forall = !forall
	}
	if forall {
		return smtterm.And(terms...)
	}
	return smtterm.Or(terms...)
}

// initialTuple builds the n-tuple of initial extended states (s,0) for
// a full state-quantifier assignment sigma, via the π mapping.
func (s *Session) initialTuple(sigma []mdpmodel.State) []registry.ExtState {
	r := make([]registry.ExtState, s.Prefix.NumStutters)
	for j := 1; j <= s.Prefix.NumStutters; j++ {
		r[j-1] = registry.ExtState{State: sigma[s.Prefix.PiOf(j)-1], I: 0}
	}
	return r
}

// cartesianAssignments enumerates every function from acts to
// {0,...,K-1}, in deterministic order.
func cartesianAssignments(acts []string, K int) []map[string]int {
	if len(acts) == 0 {
		return []map[string]int{{}}
	}
	var out []map[string]int
	var rec func(pos int, cur map[string]int)
	rec = func(pos int, cur map[string]int) {
		if pos == len(acts) {
			copy := make(map[string]int, len(cur))
			for k, v := range cur {
				copy[k] = v
			}
			out = append(out, copy)
			return
		}
		for v := 0; v < K; v++ {
			cur[acts[pos]] = v
			rec(pos+1, cur)
		}
	}
	rec(0, make(map[string]int))
	return out
}
