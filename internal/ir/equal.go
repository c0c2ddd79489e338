package ir

import "strconv"

// Key returns a canonical string encoding of n's structure, such that
// two nodes are structurally equal iff their keys are equal. The
// Subformula Index uses this for O(1) amortized de-duplication instead
// of pairwise Equal comparisons (see spec section 4.1: "Deduplication
// is by structural equality").
func (n *Node) Key() string {
	if n == nil {
		return "<nil>"
	}
	b := make([]byte, 0, 32)
	b = n.appendKey(b)
	return string(b)
}

func (n *Node) appendKey(b []byte) []byte {
	b = append(b, byte(n.Kind))
	b = append(b, ':')
	switch n.Kind {
	case KindStateExists, KindStateForall, KindStutterExists, KindStutterForall:
		b = strconv.AppendInt(b, int64(n.Idx), 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(n.AssocStateIdx), 10)
	case KindAtomicProp:
		b = append(b, n.Name...)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(n.Idx), 10)
	case KindConstProb:
		b = append(b, n.Value.String()...)
	case KindUntilBounded:
		b = strconv.AppendInt(b, int64(n.K1), 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(n.K2), 10)
	}
	b = append(b, '(')
	for i, c := range n.Children {
		if i > 0 {
			b = append(b, ';')
		}
		b = c.appendKey(b)
	}
	b = append(b, ')')
	return b
}

// Equal reports whether n and other are structurally identical.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Key() == other.Key()
}
