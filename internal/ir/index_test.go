package ir

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestIndexDeduplication mirrors the "Subformula id stability" property
// of spec section 8: two topologically equivalent subformulas share a
// position.
func TestIndexDeduplication(t *testing.T) {
	t.Run("structurally equal nodes share an id", func(t *testing.T) {
		idx := NewIndex()
		a1 := NewAtomicProp("end", 1)
		a2 := NewAtomicProp("end", 1)

		id1 := idx.Insert(a1)
		id2 := idx.Insert(a2)

		if id1 != id2 {
			t.Errorf("expected equal ids for structurally equal nodes, got %d and %d", id1, id2)
		}
		if idx.Len() != 1 {
			t.Errorf("expected a single indexed subformula, got %d", idx.Len())
		}
	})

	t.Run("distinct atomic propositions get distinct ids", func(t *testing.T) {
		idx := NewIndex()
		id1 := idx.Insert(NewAtomicProp("end", 1))
		id2 := idx.Insert(NewAtomicProp("end", 2))

		if id1 == id2 {
			t.Error("different stutter indices should not collide")
		}
	})

	t.Run("compound formula indexes all reachable subformulas", func(t *testing.T) {
		idx := NewIndex()
		a := NewAtomicProp("p", 1)
		b := NewAtomicProp("q", 1)
		conj := NewBinary(KindAnd, a, b)

		idx.Insert(conj)

		if idx.Len() != 3 {
			t.Fatalf("expected 3 subformulas (p, q, p and q), got %d", idx.Len())
		}
		if idx.IndexOf(a) == -1 || idx.IndexOf(b) == -1 {
			t.Error("children should be indexed alongside the parent")
		}
	})

	t.Run("insert is idempotent", func(t *testing.T) {
		idx := NewIndex()
		node := NewBinary(KindOr, NewTrue(), NewAtomicProp("x", 1))
		id1 := idx.Insert(node)
		lenAfterFirst := idx.Len()
		id2 := idx.Insert(node)

		if id1 != id2 || idx.Len() != lenAfterFirst {
			t.Error("re-inserting the same tree should not grow the index")
		}
	})

	t.Run("reward node also indexes the shadow probability node", func(t *testing.T) {
		idx := NewIndex()
		inner := NewAtomicProp("goal", 1)
		next := NewUnary(KindNext, inner)
		reward := NewRewardOp(next)

		idx.Insert(reward)

		shadow := NewUnary(KindProb, next)
		if idx.IndexOf(shadow) == -1 {
			t.Error("expected the reward's shadow Prob node to be indexed")
		}
	})
}

func TestNodeEqual(t *testing.T) {
	q1 := decimal.RequireFromString("0.5")
	n1 := NewConstProb(q1)
	n2 := NewConstProb(q1)
	if !n1.Equal(n2) {
		t.Error("identical decimal literals should compare equal")
	}

	q3 := decimal.RequireFromString("0.3333333333333333")
	n3 := NewConstProb(q3)
	if n1.Equal(n3) {
		t.Error("distinct decimal literals should not compare equal")
	}
}
