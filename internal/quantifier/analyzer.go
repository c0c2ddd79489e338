// Package quantifier implements the Quantifier Analyzer: it walks the
// formula prefix and validates the naming, coverage, and scoping rules
// of spec section 4.2 before any encoding is attempted.
package quantifier

import (
	"fmt"
	"sort"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/ir"
)

// Prefix is the result of analyzing a formula's quantifier prefix: the
// number of state and stutter quantifiers, their polarities, the
// pi mapping from stutter index to associated state index, and the
// non-quantified body left to encode.
type Prefix struct {
	SchedForall bool

	NumStates     int
	StatePolarity map[int]bool // true = forall, false = exists

	NumStutters       int
	StutterPolarity   map[int]bool
	StutterAssocState map[int]int // pi: stutter index -> state index

	// QuantifierOrder records, outermost first, whether each state
	// quantifier level is 'A' (forall) or 'E' (exists); index 0 is the
	// outermost state quantifier. The Quantifier Encoder ("Truth") reads
	// the same polarities from StatePolarity (spec section 4.10).
	QuantifierOrder []rune

	Body *ir.Node
}

// Analyze walks formula, which must begin with a scheduler quantifier,
// and returns its Prefix or one of the validation errors from spec
// section 7 (MalformedQuantifierPrefix, QuantifierCoverage,
// QuantifierScoping).
func Analyze(formula *ir.Node) (*Prefix, error) {
	if formula == nil {
		return nil, fmt.Errorf("quantifier: nil formula")
	}
	p := &Prefix{
		StatePolarity:     make(map[int]bool),
		StutterPolarity:   make(map[int]bool),
		StutterAssocState: make(map[int]int),
	}

	node := formula
	switch node.Kind {
	case ir.KindSchedExists:
		p.SchedForall = false
	case ir.KindSchedForall:
		p.SchedForall = true
	default:
		return nil, fmt.Errorf("quantifier: formula must begin with a scheduler quantifier, got %s", node.Kind)
	}
	node = node.Child(0)

	var stateOrder []int
	for node != nil && (node.Kind == ir.KindStateExists || node.Kind == ir.KindStateForall) {
		stateOrder = append(stateOrder, node.Idx)
		forall := node.Kind == ir.KindStateForall
		p.StatePolarity[node.Idx] = forall
		if forall {
			p.QuantifierOrder = append(p.QuantifierOrder, 'A')
		} else {
			p.QuantifierOrder = append(p.QuantifierOrder, 'E')
		}
		node = node.Child(0)
	}
	p.NumStates = len(stateOrder)
	if err := checkDenseOrder(stateOrder, p.NumStates); err != nil {
		return nil, fmt.Errorf("%w: state quantifiers %v", checkerrors.ErrMalformedQuantifierPrefix, stateOrder)
	}

	var stutterOrder []int
	for node != nil && (node.Kind == ir.KindStutterExists || node.Kind == ir.KindStutterForall) {
		stutterOrder = append(stutterOrder, node.Idx)
		p.StutterPolarity[node.Idx] = node.Kind == ir.KindStutterForall
		p.StutterAssocState[node.Idx] = node.AssocStateIdx
		node = node.Child(0)
	}
	p.NumStutters = len(stutterOrder)
	if err := checkDenseOrder(stutterOrder, p.NumStutters); err != nil {
		return nil, fmt.Errorf("%w: stutter quantifiers %v", checkerrors.ErrMalformedQuantifierPrefix, stutterOrder)
	}

	if node == nil {
		return nil, fmt.Errorf("quantifier: formula has no body after the quantifier prefix")
	}
	p.Body = node

	if err := checkCoverage(p); err != nil {
		return nil, err
	}
	if err := checkScoping(p); err != nil {
		return nil, err
	}

	return p, nil
}

// checkDenseOrder requires order to equal [1,2,...,n] exactly, in that
// literal sequence (spec section 4.2: "not exactly {1,…,m}" fails, and
// end-to-end scenario 6 rejects A s2. A s1. as out of order).
func checkDenseOrder(order []int, n int) error {
	for i, v := range order {
		if v != i+1 {
			return fmt.Errorf("expected index %d at position %d, got %d", i+1, i, v)
		}
	}
	return nil
}

// checkCoverage enforces spec section 4.2's QuantifierCoverage rule:
// every quantified state must be associated with at least one stutter,
// and every stutter's associated state must be among the quantified
// states.
func checkCoverage(p *Prefix) error {
	covered := make(map[int]bool)
	for j := 1; j <= p.NumStutters; j++ {
		assoc := p.StutterAssocState[j]
		if assoc < 1 || assoc > p.NumStates {
			return fmt.Errorf("%w: stutter %d refers to non-existent state %d", checkerrors.ErrQuantifierCoverage, j, assoc)
		}
		covered[assoc] = true
	}
	var uncovered []int
	for i := 1; i <= p.NumStates; i++ {
		if !covered[i] {
			uncovered = append(uncovered, i)
		}
	}
	if len(uncovered) > 0 {
		sort.Ints(uncovered)
		return fmt.Errorf("%w: state(s) %v have no associated stutter quantifier", checkerrors.ErrQuantifierCoverage, uncovered)
	}
	return nil
}

// checkScoping enforces spec section 4.2's QuantifierScoping rule: a
// stutter index referenced by an AtomicProp in the body must be
// quantified, and (per "or vice versa") a quantified stutter must be
// referenced somewhere in the body.
func checkScoping(p *Prefix) error {
	used := make(map[int]bool)
	collectUsedStutters(p.Body, used)

	for j := range used {
		if j < 1 || j > p.NumStutters {
			return fmt.Errorf("%w: body references stutter %d which is not quantified", checkerrors.ErrQuantifierScoping, j)
		}
	}
	for j := 1; j <= p.NumStutters; j++ {
		if !used[j] {
			return fmt.Errorf("%w: stutter %d is quantified but never used in the body", checkerrors.ErrQuantifierScoping, j)
		}
	}
	return nil
}

func collectUsedStutters(n *ir.Node, used map[int]bool) {
	if n == nil {
		return
	}
	if n.Kind == ir.KindAtomicProp {
		used[n.Idx] = true
	}
	for _, c := range n.Children {
		collectUsedStutters(c, used)
	}
}

// PiOf returns the state index associated with stutter index j, or 0 if
// j is out of range. Used by the Quantifier Encoder and the Result
// Extractor; internal/hyperparse resolves "prop(si)" syntax during
// parsing, before a Prefix exists, with its own resolveStutter helper.
func (p *Prefix) PiOf(j int) int { return p.StutterAssocState[j] }
