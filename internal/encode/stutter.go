package encode

import (
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// EncodeStutter implements spec section 4.4: the stutter-duration
// variables t_{j}_{s}_{α}, and the first-class Tr_/go_ variable layer
// this implementation reifies once per (stutter index, extended
// state, action, successor) tuple rather than re-deriving the
// condition inline at every Next/Until use site (see DESIGN.md's
// REDESIGN entry on memoizing Tr/go).
func EncodeStutter(s *Session) error {
	K := s.Cfg.StutterBound

	for j := 1; j <= s.Prefix.NumStutters; j++ {
		for _, st := range s.states() {
			for _, action := range sortedActs(s.Model.Act(st)) {
				t := s.Reg.Term(registry.Key{Kind: registry.KindStutter, StutterIdx: j, State: st, Action: action})

				disj := make([]*smtterm.Term, 0, K)
				for k := 0; k < K; k++ {
					disj = append(disj, smtterm.Eq(t, smtterm.RealConstInt(k)))
				}
				s.Prog.Assert(smtterm.Or(disj...))
			}
		}
	}

	for j := 1; j <= s.Prefix.NumStutters; j++ {
		for _, r := range allExtStates(s) {
			t := func(action string) *smtterm.Term {
				return s.Reg.Term(registry.Key{Kind: registry.KindStutter, StutterIdx: j, State: r.State, Action: action})
			}
			for _, action := range sortedActs(s.Model.Act(r.State)) {
				tVar := t(action)
				for _, succ := range successorsForAction(s, r, action) {
					trKey := registry.Key{Kind: registry.KindTr, StutterIdx: j, From: r, Action: action, To: succ}
					goKey := registry.Key{Kind: registry.KindGo, StutterIdx: j, From: r, Action: action, To: succ}
					trVar := s.Reg.Term(trKey)
					goVar := s.Reg.Term(goKey)

					if succ.State == r.State && succ.I == r.I+1 {
						// Stutter-successor candidate: reached iff i < t.
						cond := smtterm.Lt(smtterm.RealConstInt(r.I), tVar)
						s.Prog.Assert(smtterm.Eq(trVar, smtterm.Ite(cond, smtterm.RealConstInt(1), smtterm.RealConstInt(0))))
						s.Prog.Assert(smtterm.Eq(goVar, smtterm.Ite(cond, smtterm.RealConstInt(1), smtterm.RealConstInt(0))))
						continue
					}
					// MDP-successor candidate: reached iff i >= t, scaled
					// by the underlying transition probability.
					delta := s.Model.Successors(r.State, action)[succ.State]
					cond := smtterm.Le(tVar, smtterm.RealConstInt(r.I))
					s.Prog.Assert(smtterm.Eq(trVar, smtterm.Ite(cond, smtterm.RealConst(delta), smtterm.RealConstInt(0))))
					s.Prog.Assert(smtterm.Eq(goVar, smtterm.Ite(cond, smtterm.RealConstInt(1), smtterm.RealConstInt(0))))
				}
			}
		}
	}
	return nil
}
