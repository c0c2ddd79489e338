package encode

import (
	"fmt"

	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// combo is one (ca, cs) combination spec sections 4.7-4.9 iterate over:
// a chosen action per relevant stutter coordinate, and the successor
// extended state it picks.
type combo struct {
	actions map[int]string
	cs      []registry.ExtState
}

func (s *Session) holdsVar(subformulaID int, tuple []registry.ExtState) *smtterm.Term {
	return s.Reg.Term(registry.Key{Kind: registry.KindHolds, SubformulaID: subformulaID, Tuple: tuple})
}

func (s *Session) probVar(subformulaID int, tuple []registry.ExtState) *smtterm.Term {
	return s.Reg.Term(registry.Key{Kind: registry.KindProb, SubformulaID: subformulaID, Tuple: tuple})
}

func (s *Session) distVar(subformulaID int, tuple []registry.ExtState) *smtterm.Term {
	return s.Reg.Term(registry.Key{Kind: registry.KindDist, SubformulaID: subformulaID, Tuple: tuple})
}

func (s *Session) zeroTuple() []registry.ExtState {
	return make([]registry.ExtState, s.Prefix.NumStutters)
}

// enumerateCombos builds every (ca, cs) combination reachable from
// tuple r, varying the action/successor choice at each coordinate in q
// and leaving every other coordinate of the successor tuple equal to
// r's (the "pin to (0,0)" convention is applied later by restrict when
// a child subformula has a narrower relevant set).
func (s *Session) enumerateCombos(r []registry.ExtState, q []int) []combo {
	if len(q) == 0 {
		return []combo{{actions: map[int]string{}, cs: append([]registry.ExtState(nil), r...)}}
	}
	var out []combo
	cs := append([]registry.ExtState(nil), r...)
	actions := make(map[int]string, len(q))
	var rec func(pos int)
	rec = func(pos int) {
		if pos == len(q) {
			actionsCopy := make(map[int]string, len(actions))
			for k, v := range actions {
				actionsCopy[k] = v
			}
			out = append(out, combo{actions: actionsCopy, cs: append([]registry.ExtState(nil), cs...)})
			return
		}
		j := q[pos]
		from := r[j-1]
		for _, as := range actionSuccPairs(s, from) {
			actions[j] = as.Action
			cs[j-1] = as.Succ
			rec(pos + 1)
		}
		cs[j-1] = r[j-1]
	}
	rec(0)
	return out
}

// schedGoTrFactors returns, for the relevant coordinates q of tuple r
// under combo c, the scheduler/go/Tr term triple at every coordinate,
// flattened into one slice so callers can Mul(...) it directly.
func (s *Session) schedGoTrFactors(r []registry.ExtState, q []int, c combo) []*smtterm.Term {
	factors := make([]*smtterm.Term, 0, 3*len(q))
	for _, j := range q {
		from := r[j-1]
		action := c.actions[j]
		to := c.cs[j-1]
		sched := s.Reg.Term(registry.Key{Kind: registry.KindSchedState, State: from.State, Action: action})
		goVar := s.Reg.Term(registry.Key{Kind: registry.KindGo, StutterIdx: j, From: from, Action: action, To: to})
		trVar := s.Reg.Term(registry.Key{Kind: registry.KindTr, StutterIdx: j, From: from, Action: action, To: to})
		factors = append(factors, sched, goVar, trVar)
	}
	return factors
}

// EncodeNode encodes node and every transitively reachable subformula,
// memoized at the subformula level (spec section 4.5's "encoder is
// memoized"). It returns node's subformula id.
func (s *Session) EncodeNode(node *ir.Node) (int, error) {
	id := s.Index.IndexOf(node)
	if id < 0 {
		id = s.Index.Insert(node)
	}
	if s.encoded[id] {
		return id, nil
	}
	s.encoded[id] = true

	for _, c := range node.Children {
		if _, err := s.EncodeNode(c); err != nil {
			return id, err
		}
	}

	q := s.relevantQuantifiers(node)
	tuples := s.tuplesOverQ(q)

	switch node.Kind {
	case ir.KindTrue:
		s.Prog.Assert(s.holdsVar(id, s.zeroTuple()))

	case ir.KindAtomicProp:
		for _, r := range tuples {
			h := s.holdsVar(id, r)
			ext := r[node.Idx-1]
			if s.Model.HasLabel(ext.State, node.Name) {
				s.Prog.Assert(h)
			} else {
				s.Prog.Assert(smtterm.Not(h))
			}
		}

	case ir.KindNot:
		child := node.Child(0)
		childID := s.Index.IndexOf(child)
		qChild := s.relevantQuantifiers(child)
		for _, r := range tuples {
			h := s.holdsVar(id, r)
			hc := s.holdsVar(childID, restrict(r, qChild))
			s.Prog.Assert(smtterm.Xor(h, hc))
		}

	case ir.KindAnd, ir.KindOr, ir.KindImplies, ir.KindBiconditional:
		if err := s.encodeBoolConnective(node, id, tuples); err != nil {
			return id, err
		}

	case ir.KindLt, ir.KindLe, ir.KindEq, ir.KindGt, ir.KindGe:
		if err := s.encodeComparison(node, id, tuples); err != nil {
			return id, err
		}

	case ir.KindConstProb:
		p := s.probVar(id, s.zeroTuple())
		s.Prog.Assert(smtterm.Eq(p, smtterm.RealConst(node.Value)))

	case ir.KindAdd, ir.KindSub, ir.KindMul:
		s.encodeArith(node, id, tuples)

	case ir.KindProb:
		return id, s.encodeProb(node, id, q, tuples)

	case ir.KindRewardOp:
		// Encoded identically to Prob (see DESIGN.md's Open Question
		// resolution: reward witnesses are reported as probability
		// witnesses, and reward semantics otherwise mirror Prob).
		return id, s.encodeProb(node, id, q, tuples)

	case ir.KindNext, ir.KindUntilUnbounded, ir.KindUntilBounded, ir.KindFuture, ir.KindGlobal:
		// These are only meaningful nested under Prob/RewardOp; their
		// own children (the psi subformulas) are encoded above via the
		// generic child recursion, but they mint no holds_/prob_
		// variables of their own.

	case ir.KindSchedExists, ir.KindSchedForall, ir.KindStateExists, ir.KindStateForall,
		ir.KindStutterExists, ir.KindStutterForall:
		// Quantifier nodes are consumed by the Quantifier Encoder, not
		// the Semantic Encoder.

	default:
		return id, fmt.Errorf("encode: unhandled node kind %s", node.Kind)
	}

	return id, nil
}

func (s *Session) encodeBoolConnective(node *ir.Node, id int, tuples [][]registry.ExtState) error {
	c0, c1 := node.Child(0), node.Child(1)
	id0, id1 := s.Index.IndexOf(c0), s.Index.IndexOf(c1)
	q0, q1 := s.relevantQuantifiers(c0), s.relevantQuantifiers(c1)
	for _, r := range tuples {
		h := s.holdsVar(id, r)
		h0 := s.holdsVar(id0, restrict(r, q0))
		h1 := s.holdsVar(id1, restrict(r, q1))
		var combined *smtterm.Term
		switch node.Kind {
		case ir.KindAnd:
			combined = smtterm.And(h0, h1)
		case ir.KindOr:
			combined = smtterm.Or(h0, h1)
		case ir.KindImplies:
			combined = smtterm.Implies(h0, h1)
		case ir.KindBiconditional:
			combined = smtterm.Iff(h0, h1)
		default:
			return fmt.Errorf("encode: %s is not a Boolean connective", node.Kind)
		}
		s.Prog.Assert(smtterm.Iff(h, combined))
	}
	return nil
}

func (s *Session) encodeComparison(node *ir.Node, id int, tuples [][]registry.ExtState) error {
	c0, c1 := node.Child(0), node.Child(1)
	id0, id1 := s.Index.IndexOf(c0), s.Index.IndexOf(c1)
	q0, q1 := s.relevantQuantifiers(c0), s.relevantQuantifiers(c1)
	for _, r := range tuples {
		h := s.holdsVar(id, r)
		p0 := s.probVar(id0, restrict(r, q0))
		p1 := s.probVar(id1, restrict(r, q1))
		var rel *smtterm.Term
		switch node.Kind {
		case ir.KindLt:
			rel = smtterm.Lt(p0, p1)
		case ir.KindLe:
			rel = smtterm.Le(p0, p1)
		case ir.KindEq:
			rel = smtterm.Eq(p0, p1)
		case ir.KindGt:
			rel = smtterm.Gt(p0, p1)
		case ir.KindGe:
			rel = smtterm.Ge(p0, p1)
		default:
			return fmt.Errorf("encode: %s is not a comparison", node.Kind)
		}
		s.Prog.Assert(smtterm.Iff(h, rel))
	}
	return nil
}

func (s *Session) encodeArith(node *ir.Node, id int, tuples [][]registry.ExtState) {
	c0, c1 := node.Child(0), node.Child(1)
	id0, id1 := s.Index.IndexOf(c0), s.Index.IndexOf(c1)
	q0, q1 := s.relevantQuantifiers(c0), s.relevantQuantifiers(c1)
	for _, r := range tuples {
		p := s.probVar(id, r)
		p0 := s.probVar(id0, restrict(r, q0))
		p1 := s.probVar(id1, restrict(r, q1))
		var expr *smtterm.Term
		switch node.Kind {
		case ir.KindAdd:
			expr = smtterm.Add(p0, p1)
		case ir.KindSub:
			expr = smtterm.Sub(p0, p1)
		case ir.KindMul:
			expr = smtterm.Mul(p0, p1)
		}
		s.Prog.Assert(smtterm.Eq(p, expr))
	}
}

// encodeProb dispatches a Prob (or RewardOp) node to the temporal-
// operator rule its single child matches (spec sections 4.7-4.9).
func (s *Session) encodeProb(probNode *ir.Node, probID int, q []int, tuples [][]registry.ExtState) error {
	inner := probNode.Child(0)
	switch inner.Kind {
	case ir.KindNext:
		return s.encodeNext(probNode, probID, inner, q, tuples)
	case ir.KindUntilUnbounded:
		return s.encodeUntilUnbounded(probID, inner, q, tuples)
	case ir.KindUntilBounded:
		return s.encodeBoundedUntil(probNode, probID, inner, q, tuples)
	case ir.KindFuture:
		return s.encodeFuture(probID, inner, q, tuples)
	case ir.KindGlobal:
		return s.encodeGlobal(probID, inner, q, tuples)
	default:
		return fmt.Errorf("encode: Prob wraps unsupported inner kind %s", inner.Kind)
	}
}

// encodeNext implements spec section 4.7.
func (s *Session) encodeNext(probNode *ir.Node, probID int, nextNode *ir.Node, q []int, tuples [][]registry.ExtState) error {
	psi := nextNode.Child(0)
	psiID := s.Index.IndexOf(psi)

	for _, r := range tuples {
		htoi := s.Reg.Term(registry.Key{Kind: registry.KindHtoi, SubformulaID: psiID, Tuple: r})
		hpsi := s.holdsVar(psiID, r)
		s.Prog.Assert(smtterm.Eq(htoi, smtterm.Ite(hpsi, smtterm.RealConstInt(1), smtterm.RealConstInt(0))))

		combos := s.enumerateCombos(r, q)
		terms := make([]*smtterm.Term, 0, len(combos))
		for _, c := range combos {
			factors := s.schedGoTrFactors(r, q, c)
			csRestricted := restrict(c.cs, q)
			htoiCs := s.Reg.Term(registry.Key{Kind: registry.KindHtoi, SubformulaID: psiID, Tuple: csRestricted})
			terms = append(terms, smtterm.Mul(append(factors, htoiCs)...))
		}
		p := s.probVar(probID, r)
		s.Prog.Assert(smtterm.Eq(p, smtterm.Add(terms...)))
	}
	return nil
}

// reachabilitySum builds the recursion sum of spec sections 4.8/4.9:
// Σ over (ca,cs) of (Π scheduler·go·Tr) · prob_cs_φ, where φ is the
// subformula identified by probID itself (self-reference is fine: the
// result is one simultaneous equation system, not an imperative call).
func (s *Session) reachabilitySum(probID int, r []registry.ExtState, q []int) *smtterm.Term {
	combos := s.enumerateCombos(r, q)
	terms := make([]*smtterm.Term, 0, len(combos))
	for _, c := range combos {
		factors := s.schedGoTrFactors(r, q, c)
		csRestricted := restrict(c.cs, q)
		pCs := s.probVar(probID, csRestricted)
		terms = append(terms, smtterm.Mul(append(factors, pCs)...))
	}
	return smtterm.Add(terms...)
}

// loopCertificates builds the LFP witness disjuncts of spec section
// 4.8 against targetID's holds_ variable (ψ₂ for until/future, ψ for
// global). With negateTarget set (global), the disjunct uses ¬holds_
// of the target instead.
func (s *Session) loopCertificates(probID, targetID int, r []registry.ExtState, q []int, qTarget []int, negateTarget bool) []*smtterm.Term {
	d := s.distVar(probID, r)
	combos := s.enumerateCombos(r, q)
	out := make([]*smtterm.Term, 0, len(combos))
	for _, c := range combos {
		factors := s.schedGoTrFactors(r, q, c)
		weight := smtterm.Mul(factors...)
		csRestricted := restrict(c.cs, q)
		dCs := s.distVar(probID, csRestricted)
		hTargetCs := s.holdsVar(targetID, restrict(c.cs, qTarget))
		if negateTarget {
			hTargetCs = smtterm.Not(hTargetCs)
		}
		out = append(out, smtterm.And(smtterm.Gt(weight, smtterm.RealConstInt(0)), smtterm.Or(hTargetCs, smtterm.Gt(d, dCs))))
	}
	return out
}

// encodeUntilUnbounded implements spec section 4.8's Until rule.
func (s *Session) encodeUntilUnbounded(probID int, untilNode *ir.Node, q []int, tuples [][]registry.ExtState) error {
	psi1, psi2 := untilNode.Child(0), untilNode.Child(1)
	psi1ID, psi2ID := s.Index.IndexOf(psi1), s.Index.IndexOf(psi2)
	q1, q2 := s.relevantQuantifiers(psi1), s.relevantQuantifiers(psi2)

	for _, r := range tuples {
		h1 := s.holdsVar(psi1ID, restrict(r, q1))
		h2 := s.holdsVar(psi2ID, restrict(r, q2))
		p := s.probVar(probID, r)

		s.Prog.Assert(smtterm.Implies(h2, smtterm.Eq(p, smtterm.RealConstInt(1))))
		s.Prog.Assert(smtterm.Implies(smtterm.And(smtterm.Not(h1), smtterm.Not(h2)), smtterm.Eq(p, smtterm.RealConstInt(0))))

		sumExpr := s.reachabilitySum(probID, r, q)
		s.Prog.Assert(smtterm.Implies(smtterm.And(h1, smtterm.Not(h2)), smtterm.Eq(p, sumExpr)))

		loopDisj := s.loopCertificates(probID, psi2ID, r, q, q2, false)
		s.Prog.Assert(smtterm.Implies(smtterm.Gt(p, smtterm.RealConstInt(0)), smtterm.Or(loopDisj...)))
	}
	return nil
}

// encodeFuture implements spec section 4.8's Future rule: F(ψ) treated
// as ψ ∨ Next·F(ψ).
func (s *Session) encodeFuture(probID int, futureNode *ir.Node, q []int, tuples [][]registry.ExtState) error {
	psi := futureNode.Child(0)
	psiID := s.Index.IndexOf(psi)
	qPsi := s.relevantQuantifiers(psi)

	for _, r := range tuples {
		hpsi := s.holdsVar(psiID, restrict(r, qPsi))
		p := s.probVar(probID, r)

		s.Prog.Assert(smtterm.Implies(hpsi, smtterm.Eq(p, smtterm.RealConstInt(1))))

		sumExpr := s.reachabilitySum(probID, r, q)
		s.Prog.Assert(smtterm.Implies(smtterm.Not(hpsi), smtterm.Eq(p, sumExpr)))

		loopDisj := s.loopCertificates(probID, psiID, r, q, qPsi, false)
		s.Prog.Assert(smtterm.Implies(smtterm.Gt(p, smtterm.RealConstInt(0)), smtterm.Or(loopDisj...)))
	}
	return nil
}

// encodeGlobal implements spec section 4.8's Global rule (dual of
// Future).
func (s *Session) encodeGlobal(probID int, globalNode *ir.Node, q []int, tuples [][]registry.ExtState) error {
	psi := globalNode.Child(0)
	psiID := s.Index.IndexOf(psi)
	qPsi := s.relevantQuantifiers(psi)

	for _, r := range tuples {
		hpsi := s.holdsVar(psiID, restrict(r, qPsi))
		p := s.probVar(probID, r)

		s.Prog.Assert(smtterm.Implies(smtterm.Not(hpsi), smtterm.Eq(p, smtterm.RealConstInt(0))))

		sumExpr := s.reachabilitySum(probID, r, q)
		s.Prog.Assert(smtterm.Implies(hpsi, smtterm.Eq(p, sumExpr)))

		loopDisj := s.loopCertificates(probID, psiID, r, q, qPsi, true)
		s.Prog.Assert(smtterm.Implies(smtterm.Lt(p, smtterm.RealConstInt(1)), smtterm.Or(loopDisj...)))
	}
	return nil
}

// encodeBoundedUntil implements spec section 4.9's structural recursion
// on (k1,k2).
func (s *Session) encodeBoundedUntil(probNode *ir.Node, probID int, untilNode *ir.Node, q []int, tuples [][]registry.ExtState) error {
	psi1, psi2 := untilNode.Child(0), untilNode.Child(1)
	psi1ID, psi2ID := s.Index.IndexOf(psi1), s.Index.IndexOf(psi2)
	q1, q2 := s.relevantQuantifiers(psi1), s.relevantQuantifiers(psi2)
	k1, k2 := untilNode.K1, untilNode.K2

	if k2 == 0 {
		for _, r := range tuples {
			h2 := s.holdsVar(psi2ID, restrict(r, q2))
			p := s.probVar(probID, r)
			s.Prog.Assert(smtterm.Implies(h2, smtterm.Eq(p, smtterm.RealConstInt(1))))
			s.Prog.Assert(smtterm.Implies(smtterm.Not(h2), smtterm.Eq(p, smtterm.RealConstInt(0))))
		}
		return nil
	}

	var childUntil *ir.Node
	if k1 == 0 {
		childUntil = ir.NewUntilBounded(psi1, 0, k2-1, psi2)
	} else {
		childUntil = ir.NewUntilBounded(psi1, k1-1, k2-1, psi2)
	}
	childProbNode := ir.NewUnary(ir.KindProb, childUntil)
	if _, err := s.EncodeNode(childProbNode); err != nil {
		return err
	}
	childID := s.Index.IndexOf(childProbNode)

	for _, r := range tuples {
		h1 := s.holdsVar(psi1ID, restrict(r, q1))
		h2 := s.holdsVar(psi2ID, restrict(r, q2))
		p := s.probVar(probID, r)

		combos := s.enumerateCombos(r, q)
		terms := make([]*smtterm.Term, 0, len(combos))
		for _, c := range combos {
			factors := s.schedGoTrFactors(r, q, c)
			csRestricted := restrict(c.cs, q)
			pChild := s.probVar(childID, csRestricted)
			terms = append(terms, smtterm.Mul(append(factors, pChild)...))
		}
		sumExpr := smtterm.Add(terms...)

		if k1 == 0 {
			s.Prog.Assert(smtterm.Implies(smtterm.And(h1, smtterm.Not(h2)), smtterm.Eq(p, sumExpr)))
			s.Prog.Assert(smtterm.Implies(h2, smtterm.Eq(p, smtterm.RealConstInt(1))))
			s.Prog.Assert(smtterm.Implies(smtterm.And(smtterm.Not(h1), smtterm.Not(h2)), smtterm.Eq(p, smtterm.RealConstInt(0))))
		} else {
			s.Prog.Assert(smtterm.Implies(smtterm.Not(h1), smtterm.Eq(p, smtterm.RealConstInt(0))))
			s.Prog.Assert(smtterm.Implies(h1, smtterm.Eq(p, sumExpr)))
		}
	}
	_ = probNode
	return nil
}
