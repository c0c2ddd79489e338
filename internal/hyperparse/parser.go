package hyperparse

import (
	"fmt"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/shopspring/decimal"
)

// Parse parses src, the concrete hyperproperty syntax of spec section
// 6, into a Formula IR tree rooted at a scheduler quantifier. AtomicProp
// leaves are elaborated at parse time to carry the resolved stutter
// index (spec section 4.6: "AtomicProp(p, sᵢ) ... via its associated
// stutter index j = pi^-1(i)").
func Parse(src string) (*ir.Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", checkerrors.ErrParseFailure, err)
	}
	p := &parser{
		toks:                toks,
		stateIdxByName:      make(map[string]int),
		stutterIdxByName:    make(map[string]int),
		stutterByAssocState: make(map[int][]int),
	}
	node, err := p.parseFormula()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", checkerrors.ErrParseFailure, err)
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("%w: unexpected trailing input at %q", checkerrors.ErrParseFailure, p.peek().text)
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int

	stateIdxByName      map[string]int // "s1" -> 1
	stutterIdxByName    map[string]int // "t1" -> 1
	stutterByAssocState map[int][]int  // state idx -> stutter indices covering it
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expectSymbol(sym string) error {
	t := p.peek()
	if t.kind != tokSymbol || t.text != sym {
		return fmt.Errorf("expected %q, got %q at position %d", sym, t.text, t.pos)
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", fmt.Errorf("expected identifier, got %q at position %d", t.text, t.pos)
	}
	p.advance()
	return t.text, nil
}

func (p *parser) isIdent(name string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == name
}

// parseFormula parses "(AS|ES) name . (A|E name .)* (AT|ET name(name) [with] .)* body".
func (p *parser) parseFormula() (*ir.Node, error) {
	schedForall, err := p.parseSchedQuant()
	if err != nil {
		return nil, err
	}

	var stateQuants []struct {
		forall bool
		idx    int
	}
	for p.isIdent("A") || p.isIdent("E") {
		forall := p.isIdent("A")
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		idx := len(stateQuants) + 1
		if want := fmt.Sprintf("s%d", idx); name != want {
			return nil, fmt.Errorf("%w: expected state variable %q in position %d, got %q", checkerrors.ErrMalformedQuantifierPrefix, want, idx, name)
		}
		p.stateIdxByName[name] = idx
		stateQuants = append(stateQuants, struct {
			forall bool
			idx    int
		}{forall, idx})
		if err := p.expectSymbol("."); err != nil {
			return nil, err
		}
	}

	var stutterQuants []struct {
		forall bool
		idx    int
		assoc  int
	}
	for p.isIdent("AT") || p.isIdent("ET") {
		forall := p.isIdent("AT")
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		assocName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		if p.isIdent("with") {
			p.advance()
		}
		if err := p.expectSymbol("."); err != nil {
			return nil, err
		}
		assocIdx, ok := p.stateIdxByName[assocName]
		if !ok {
			return nil, fmt.Errorf("stutter %s refers to unknown state %s", name, assocName)
		}
		idx := len(stutterQuants) + 1
		if want := fmt.Sprintf("t%d", idx); name != want {
			return nil, fmt.Errorf("%w: expected stutter variable %q in position %d, got %q", checkerrors.ErrMalformedQuantifierPrefix, want, idx, name)
		}
		p.stutterIdxByName[name] = idx
		p.stutterByAssocState[assocIdx] = append(p.stutterByAssocState[assocIdx], idx)
		stutterQuants = append(stutterQuants, struct {
			forall bool
			idx    int
			assoc  int
		}{forall, idx, assocIdx})
	}

	body, err := p.parseProbBody()
	if err != nil {
		return nil, err
	}

	node := body
	for i := len(stutterQuants) - 1; i >= 0; i-- {
		sq := stutterQuants[i]
		node = ir.NewStutterQuant(sq.forall, sq.idx, sq.assoc, node)
	}
	for i := len(stateQuants) - 1; i >= 0; i-- {
		sq := stateQuants[i]
		node = ir.NewStateQuant(sq.forall, sq.idx, node)
	}
	return ir.NewSchedQuant(schedForall, node), nil
}

func (p *parser) parseSchedQuant() (bool, error) {
	if p.isIdent("AS") {
		p.advance()
	} else if p.isIdent("ES") {
		p.advance()
	} else {
		return false, fmt.Errorf("expected AS or ES at position %d, got %q", p.peek().pos, p.peek().text)
	}
	forall := p.toks[p.pos-1].text == "AS"
	if _, err := p.expectIdent(); err != nil {
		return false, err
	}
	if err := p.expectSymbol("."); err != nil {
		return false, err
	}
	return forall, nil
}

// resolveStutter maps a state-variable reference (e.g. "s1" in
// "end(s1)") to the unique stutter index covering it.
func (p *parser) resolveStutter(stateName string) (int, error) {
	idx, ok := p.stateIdxByName[stateName]
	if !ok {
		return 0, fmt.Errorf("atomic proposition refers to unknown state %s", stateName)
	}
	covering := p.stutterByAssocState[idx]
	if len(covering) == 0 {
		return 0, fmt.Errorf("state %s has no associated stutter quantifier", stateName)
	}
	if len(covering) > 1 {
		return 0, fmt.Errorf("state %s is covered by more than one stutter quantifier; reference is ambiguous", stateName)
	}
	return covering[0], nil
}

// --- probability-level grammar (outside any P(...)) ---

func (p *parser) parseProbBody() (*ir.Node, error) { return p.parseBiconditional(false) }

func (p *parser) parseBiconditional(inState bool) (*ir.Node, error) {
	left, err := p.parseImplies(inState)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "<->" {
		p.advance()
		right, err := p.parseImplies(inState)
		if err != nil {
			return nil, err
		}
		left = ir.NewBinary(ir.KindBiconditional, left, right)
	}
	return left, nil
}

func (p *parser) parseImplies(inState bool) (*ir.Node, error) {
	left, err := p.parseOr(inState)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "->" {
		p.advance()
		right, err := p.parseOr(inState)
		if err != nil {
			return nil, err
		}
		left = ir.NewBinary(ir.KindImplies, left, right)
	}
	return left, nil
}

func (p *parser) parseOr(inState bool) (*ir.Node, error) {
	left, err := p.parseAnd(inState)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "|" {
		p.advance()
		right, err := p.parseAnd(inState)
		if err != nil {
			return nil, err
		}
		left = ir.NewBinary(ir.KindOr, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd(inState bool) (*ir.Node, error) {
	left, err := p.parseNot(inState)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "&" {
		p.advance()
		right, err := p.parseNot(inState)
		if err != nil {
			return nil, err
		}
		left = ir.NewBinary(ir.KindAnd, left, right)
	}
	return left, nil
}

func (p *parser) parseNot(inState bool) (*ir.Node, error) {
	if p.peek().kind == tokSymbol && p.peek().text == "!" {
		p.advance()
		inner, err := p.parseNot(inState)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(ir.KindNot, inner), nil
	}
	return p.parseAtom(inState)
}

func (p *parser) parseAtom(inState bool) (*ir.Node, error) {
	t := p.peek()
	if t.kind == tokSymbol && t.text == "(" {
		p.advance()
		inner, err := p.parseBiconditional(inState)
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	if t.kind == tokIdent && t.text == "true" {
		p.advance()
		return ir.NewTrue(), nil
	}
	if inState {
		return p.parseAtomicProp()
	}
	return p.parseComparison()
}

func (p *parser) parseAtomicProp() (*ir.Node, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	stateName, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	stutIdx, err := p.resolveStutter(stateName)
	if err != nil {
		return nil, err
	}
	return ir.NewAtomicProp(name, stutIdx), nil
}

// --- comparisons and arithmetic on probability expressions ---

func (p *parser) parseComparison() (*ir.Node, error) {
	left, err := p.parseProbExpr()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokSymbol {
		var kind ir.Kind
		matched := true
		switch t.text {
		case "=":
			kind = ir.KindEq
		case "<":
			kind = ir.KindLt
		case "<=":
			kind = ir.KindLe
		case ">":
			kind = ir.KindGt
		case ">=":
			kind = ir.KindGe
		default:
			matched = false
		}
		if matched {
			p.advance()
			right, err := p.parseProbExpr()
			if err != nil {
				return nil, err
			}
			return ir.NewBinary(kind, left, right), nil
		}
	}
	return left, nil
}

func (p *parser) parseProbExpr() (*ir.Node, error) {
	left, err := p.parseProbTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && (p.peek().text == "+" || p.peek().text == "-") {
		op := p.advance().text
		right, err := p.parseProbTerm()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = ir.NewBinary(ir.KindAdd, left, right)
		} else {
			left = ir.NewBinary(ir.KindSub, left, right)
		}
	}
	return left, nil
}

func (p *parser) parseProbTerm() (*ir.Node, error) {
	left, err := p.parseProbFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokSymbol && p.peek().text == "*" {
		p.advance()
		right, err := p.parseProbFactor()
		if err != nil {
			return nil, err
		}
		left = ir.NewBinary(ir.KindMul, left, right)
	}
	return left, nil
}

func (p *parser) parseProbFactor() (*ir.Node, error) {
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.advance()
		q, err := decimal.NewFromString(t.text)
		if err != nil {
			return nil, fmt.Errorf("bad probability literal %q: %w", t.text, err)
		}
		return ir.NewConstProb(q), nil
	case t.kind == tokIdent && t.text == "P":
		p.advance()
		if err := p.expectSymbol("("); err != nil {
			return nil, err
		}
		inner, err := p.parseTemporal()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return ir.NewUnary(ir.KindProb, inner), nil
	case t.kind == tokSymbol && t.text == "(":
		p.advance()
		inner, err := p.parseProbExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("expected a number, P(...), or parenthesized expression at position %d, got %q", t.pos, t.text)
	}
}

// parseTemporal parses the inner content of P(...): X phi | phi U phi |
// phi U[k1,k2] phi | F phi | G phi.
func (p *parser) parseTemporal() (*ir.Node, error) {
	t := p.peek()
	if t.kind == tokIdent && t.text == "X" {
		p.advance()
		body, err := p.parseBiconditional(true)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(ir.KindNext, body), nil
	}
	if t.kind == tokIdent && t.text == "F" {
		p.advance()
		body, err := p.parseBiconditional(true)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(ir.KindFuture, body), nil
	}
	if t.kind == tokIdent && t.text == "G" {
		p.advance()
		body, err := p.parseBiconditional(true)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(ir.KindGlobal, body), nil
	}

	psi1, err := p.parseBiconditional(true)
	if err != nil {
		return nil, err
	}
	if !(p.peek().kind == tokIdent && p.peek().text == "U") {
		return nil, fmt.Errorf("expected U after the left operand of until, at position %d", p.peek().pos)
	}
	p.advance()

	k1, k2 := -1, -1
	if p.peek().kind == tokSymbol && p.peek().text == "[" {
		p.advance()
		k1, err = p.expectInt()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(","); err != nil {
			return nil, err
		}
		k2, err = p.expectInt()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
	}

	psi2, err := p.parseBiconditional(true)
	if err != nil {
		return nil, err
	}
	if k1 >= 0 {
		return ir.NewUntilBounded(psi1, k1, k2, psi2), nil
	}
	return ir.NewBinary(ir.KindUntilUnbounded, psi1, psi2), nil
}

func (p *parser) expectInt() (int, error) {
	t := p.peek()
	if t.kind != tokNumber {
		return 0, fmt.Errorf("expected an integer bound, got %q at position %d", t.text, t.pos)
	}
	p.advance()
	q, err := decimal.NewFromString(t.text)
	if err != nil {
		return 0, err
	}
	return int(q.IntPart()), nil
}
