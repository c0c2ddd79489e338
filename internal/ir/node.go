// Package ir defines the Formula IR: an immutable tree of tagged nodes
// representing a closed probabilistic hyperlogic formula. A Node is a
// tagged sum (see DESIGN.md, "dynamic dispatch becomes a tagged sum"):
// every case lives in the same struct, discriminated by Kind, so that
// the Semantic Encoder can pattern-match on Kind with a plain switch
// instead of dynamic dispatch through an interface per node type.
package ir

import "github.com/shopspring/decimal"

// Kind discriminates the case a Node represents.
type Kind int

const (
	// Quantifiers.
	KindSchedExists Kind = iota
	KindSchedForall
	KindStateExists
	KindStateForall
	KindStutterExists
	KindStutterForall

	// Leaves.
	KindAtomicProp
	KindTrue
	KindConstProb

	// Boolean connectives.
	KindNot
	KindAnd
	KindOr
	KindImplies
	KindBiconditional

	// Probability comparisons.
	KindLt
	KindLe
	KindEq
	KindGt
	KindGe

	// Probability arithmetic.
	KindAdd
	KindSub
	KindMul

	// Probability operator and its temporal inner formulas.
	KindProb
	KindNext
	KindUntilUnbounded
	KindUntilBounded
	KindFuture
	KindGlobal

	// Reward operator: grammar-accepted, encoded identically to Prob
	// (see spec Non-goals and DESIGN.md's Open Question resolution).
	KindRewardOp
)

var kindNames = map[Kind]string{
	KindSchedExists:     "SchedExists",
	KindSchedForall:     "SchedForall",
	KindStateExists:     "StateExists",
	KindStateForall:     "StateForall",
	KindStutterExists:   "StutterExists",
	KindStutterForall:   "StutterForall",
	KindAtomicProp:      "AtomicProp",
	KindTrue:            "True",
	KindConstProb:       "ConstProb",
	KindNot:             "Not",
	KindAnd:             "And",
	KindOr:              "Or",
	KindImplies:         "Implies",
	KindBiconditional:   "Biconditional",
	KindLt:              "Lt",
	KindLe:              "Le",
	KindEq:              "Eq",
	KindGt:              "Gt",
	KindGe:              "Ge",
	KindAdd:             "Add",
	KindSub:             "Sub",
	KindMul:             "Mul",
	KindProb:            "Prob",
	KindNext:            "Next",
	KindUntilUnbounded:  "UntilUnbounded",
	KindUntilBounded:    "UntilBounded",
	KindFuture:          "Future",
	KindGlobal:          "Global",
	KindRewardOp:        "RewardOp",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Node is one node of the Formula IR. Only the fields relevant to Kind
// are meaningful; see the constructors below for the canonical way to
// build each case. Node is immutable once constructed: nothing in this
// package mutates a Node's fields after NewX returns it.
type Node struct {
	Kind Kind

	// Idx is the quantifier index for StateExists/StateForall (the
	// state variable's position i in s1..sm) and for StutterExists/
	// StutterForall (the stutter variable's position j in t1..tn). For
	// AtomicProp it is the *resolved* stutter index j = pi^-1(i) that
	// the proposition's state-variable reference was elaborated to
	// (see internal/hyperparse, which performs this resolution at
	// parse time using the already-parsed quantifier prefix).
	Idx int

	// AssocStateIdx is only meaningful for StutterExists/StutterForall:
	// the state-quantifier index i that this stutter quantifier j is
	// associated with (pi(j) = i).
	AssocStateIdx int

	// Name is the atomic proposition name for AtomicProp.
	Name string

	// Value is the literal rational probability for ConstProb.
	Value decimal.Decimal

	// K1, K2 are the bounds [k1,k2] for UntilBounded.
	K1, K2 int

	// Children holds the child nodes, in a fixed order per Kind:
	//   unary (Not, Prob, Next, Future, Global, RewardOp,
	//     SchedExists/Forall, State/StutterExists/Forall): Children[0]
	//   binary (And, Or, Implies, Biconditional, comparisons,
	//     arithmetic, UntilUnbounded): Children[0], Children[1]
	//   UntilBounded: Children[0] = psi1, Children[1] = psi2
	// Leaves (AtomicProp, True, ConstProb) have no children.
	Children []*Node
}

// NewTrue returns the canonical True leaf.
func NewTrue() *Node { return &Node{Kind: KindTrue} }

// NewConstProb returns a ConstProb leaf with the given rational value.
func NewConstProb(q decimal.Decimal) *Node {
	return &Node{Kind: KindConstProb, Value: q}
}

// NewAtomicProp returns an AtomicProp leaf. stutIdx is the already
// resolved stutter-quantifier index (1-based) this proposition's state
// reference was elaborated to.
func NewAtomicProp(name string, stutIdx int) *Node {
	return &Node{Kind: KindAtomicProp, Name: name, Idx: stutIdx}
}

// NewUnary builds a one-child node of the given kind.
func NewUnary(kind Kind, child *Node) *Node {
	return &Node{Kind: kind, Children: []*Node{child}}
}

// NewBinary builds a two-child node of the given kind.
func NewBinary(kind Kind, a, b *Node) *Node {
	return &Node{Kind: kind, Children: []*Node{a, b}}
}

// NewSchedQuant wraps body in a scheduler quantifier.
func NewSchedQuant(forall bool, body *Node) *Node {
	k := KindSchedExists
	if forall {
		k = KindSchedForall
	}
	return NewUnary(k, body)
}

// NewStateQuant wraps body in a state quantifier over state index idx.
func NewStateQuant(forall bool, idx int, body *Node) *Node {
	k := KindStateExists
	if forall {
		k = KindStateForall
	}
	return &Node{Kind: k, Idx: idx, Children: []*Node{body}}
}

// NewStutterQuant wraps body in a stutter quantifier with index
// stutIdx associated with state index assocStateIdx.
func NewStutterQuant(forall bool, stutIdx, assocStateIdx int, body *Node) *Node {
	k := KindStutterExists
	if forall {
		k = KindStutterForall
	}
	return &Node{Kind: k, Idx: stutIdx, AssocStateIdx: assocStateIdx, Children: []*Node{body}}
}

// NewRewardOp wraps a temporal inner formula (Next, UntilUnbounded,
// UntilBounded, Future, or Global) in a reward operator, grammar-
// accepted per spec section 6 and encoded identically to Prob (see
// DESIGN.md's Open Question resolution).
func NewRewardOp(inner *Node) *Node { return NewUnary(KindRewardOp, inner) }

// NewUntilBounded builds a bounded-until node P(psi1 U[k1,k2] psi2).
// psi1 and psi2 are the state formulas, not yet wrapped in Prob.
func NewUntilBounded(psi1 *Node, k1, k2 int, psi2 *Node) *Node {
	return &Node{Kind: KindUntilBounded, K1: k1, K2: k2, Children: []*Node{psi1, psi2}}
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
