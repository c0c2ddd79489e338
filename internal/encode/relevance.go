package encode

import "github.com/gitrdm/hyperprobcheck/internal/ir"

// relevantQuantifiers computes Q(φ), the set of stutter indices a
// subformula's truth/probability value depends on (spec section 4.5):
// the union, bottom-up, of every AtomicProp's resolved stutter index
// reachable from node. Cached per subformula id on the session so it is
// computed once even though the same subformula may be visited from
// several call sites.
func (s *Session) relevantQuantifiers(node *ir.Node) []int {
	id := s.Index.IndexOf(node)
	if id >= 0 {
		if cached, ok := s.qCache[id]; ok {
			return cached
		}
	}
	set := make(map[int]bool)
	collectRelevant(node, set)
	out := make([]int, 0, len(set))
	for j := range set {
		out = append(out, j)
	}
	sortInts(out)
	if id >= 0 {
		s.qCache[id] = out
	}
	return out
}

func collectRelevant(n *ir.Node, set map[int]bool) {
	if n == nil {
		return
	}
	if n.Kind == ir.KindAtomicProp {
		set[n.Idx] = true
		return
	}
	for _, c := range n.Children {
		collectRelevant(c, set)
	}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// containsInt reports whether x is present in xs.
func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
