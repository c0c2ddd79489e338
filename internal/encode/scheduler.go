package encode

import (
	"github.com/shopspring/decimal"

	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// EncodeScheduler implements spec section 4.3: for every distinct
// enabled-action set A occurring in the model, one real variable per
// action in A tying together all states sharing that action set, plus
// a per-state mirror variable for every (state, action) pair so later
// stages can index by state directly.
func EncodeScheduler(s *Session) error {
	maxProb := s.Cfg.MaxSchedProb
	minProb := decimal.NewFromInt(1).Sub(maxProb)

	for _, actionSet := range s.Model.DistinctActionSets() {
		vars := make([]*smtterm.Term, 0, len(actionSet))
		for _, action := range actionSet {
			key := registry.Key{Kind: registry.KindSchedActionSet, ActionSet: actionSet, Action: action}
			v := s.Reg.Term(key)
			vars = append(vars, v)

			if len(actionSet) == 1 {
				s.Prog.Assert(smtterm.Eq(v, smtterm.RealConstInt(1)))
				continue
			}
			if !s.Cfg.DontRestrictSched {
				s.Prog.Assert(smtterm.Le(smtterm.RealConst(minProb), v))
				s.Prog.Assert(smtterm.Le(v, smtterm.RealConst(maxProb)))
			} else {
				s.Prog.Assert(smtterm.Le(smtterm.RealConstInt(0), v))
			}
		}
		if len(actionSet) > 1 {
			s.Prog.Assert(smtterm.Eq(smtterm.Add(vars...), smtterm.RealConstInt(1)))
		}
	}

	for _, st := range s.states() {
		actionSet := sortedActs(s.Model.Act(st))
		for _, action := range actionSet {
			group := s.Reg.Term(registry.Key{Kind: registry.KindSchedActionSet, ActionSet: actionSet, Action: action})
			mirror := s.Reg.Term(registry.Key{Kind: registry.KindSchedState, State: st, Action: action})
			s.Prog.Assert(smtterm.Eq(mirror, group))
		}
	}
	return nil
}

func sortedActs(acts []string) []string {
	out := append([]string(nil), acts...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
