package encode

import (
	"sort"

	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
)

// actionSucc pairs one enabled action with one successor candidate
// extended state, the unit of enumeration spec section 4.4 and 4.7
// describe as "ca" (action choice) and "cs" (successor choice).
type actionSucc struct {
	Action string
	Succ   registry.ExtState
}

// successorsForAction returns the successor-candidate extended states
// for (r.State, action): one (s',0) per MDP successor in
// supp(δ(r.State,action)), in ascending state order, plus the
// stutter-successor (r.State, r.I+1) when it stays within the K bound.
func successorsForAction(s *Session, r registry.ExtState, action string) []registry.ExtState {
	dist := s.Model.Successors(r.State, action)
	succStates := make([]mdpmodel.State, 0, len(dist))
	for st := range dist {
		succStates = append(succStates, st)
	}
	sort.Slice(succStates, func(i, j int) bool { return succStates[i] < succStates[j] })

	out := make([]registry.ExtState, 0, len(succStates)+1)
	for _, st := range succStates {
		out = append(out, registry.ExtState{State: st, I: 0})
	}
	if r.I+1 < s.Cfg.StutterBound {
		out = append(out, registry.ExtState{State: r.State, I: r.I + 1})
	}
	return out
}

// actionSuccPairs enumerates every (action, successor) pair reachable
// from extended state r, actions in ascending name order for
// deterministic emission (spec section 5).
func actionSuccPairs(s *Session, r registry.ExtState) []actionSucc {
	acts := sortedActs(s.Model.Act(r.State))
	var out []actionSucc
	for _, a := range acts {
		for _, succ := range successorsForAction(s, r, a) {
			out = append(out, actionSucc{Action: a, Succ: succ})
		}
	}
	return out
}

// allExtStates returns every extended state (s,i) for s ranging over
// the model's states and i over 0..K-1, in ascending (state, i) order.
func allExtStates(s *Session) []registry.ExtState {
	var out []registry.ExtState
	for _, st := range s.states() {
		for i := 0; i < s.Cfg.StutterBound; i++ {
			out = append(out, registry.ExtState{State: st, I: i})
		}
	}
	return out
}
