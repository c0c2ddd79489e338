package encode

import "github.com/gitrdm/hyperprobcheck/internal/registry"

// zeroExt is the canonical (0,0) extended state used to pin a stutter
// slot a subformula's value does not depend on (spec section 4.5).
var zeroExt = registry.ExtState{}

// tuplesOverQ enumerates every n-tuple R (n = Prefix.NumStutters) with
// coordinates not in q pinned to zeroExt and coordinates in q ranging
// over every extended state, in ascending lexicographic order by
// q's index order (spec section 5's determinism requirement).
func (s *Session) tuplesOverQ(q []int) [][]registry.ExtState {
	n := s.Prefix.NumStutters
	base := make([]registry.ExtState, n)
	for i := range base {
		base[i] = zeroExt
	}
	if len(q) == 0 {
		return [][]registry.ExtState{base}
	}

	all := allExtStates(s)
	var out [][]registry.ExtState
	var rec func(pos int, cur []registry.ExtState)
	rec = func(pos int, cur []registry.ExtState) {
		if pos == len(q) {
			out = append(out, append([]registry.ExtState(nil), cur...))
			return
		}
		j := q[pos]
		for _, e := range all {
			cur[j-1] = e
			rec(pos+1, cur)
		}
	}
	cur := append([]registry.ExtState(nil), base...)
	rec(0, cur)
	return out
}

// restrict returns a copy of tuple with every coordinate whose 1-based
// index is not in q pinned to zeroExt, the "cs'" operation spec section
// 4.6 and 4.7 both reference when naming a child subformula's variables
// from a wider tuple.
func restrict(tuple []registry.ExtState, q []int) []registry.ExtState {
	out := make([]registry.ExtState, len(tuple))
	for i := range tuple {
		if containsInt(q, i+1) {
			out[i] = tuple[i]
		} else {
			out[i] = zeroExt
		}
	}
	return out
}
