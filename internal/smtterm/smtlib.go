package smtterm

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Program is the full SMT-LIB2 script the encoder hands to the solver:
// a set of variable declarations plus a stream of top-level assertions,
// in emission order (spec section 5's determinism requirement: the
// order constraints are emitted in must be reproducible).
type Program struct {
	decls   map[string]Sort
	declOrd []string
	asserts []*Term
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{decls: make(map[string]Sort)}
}

// Declare registers name at sort, idempotently.
func (p *Program) Declare(name string, sort Sort) {
	if _, ok := p.decls[name]; ok {
		return
	}
	p.decls[name] = sort
	p.declOrd = append(p.declOrd, name)
}

// Assert appends a top-level assertion.
func (p *Program) Assert(t *Term) {
	if t == nil {
		return
	}
	p.asserts = append(p.asserts, t)
}

// Len returns the number of assertions emitted so far (used for the
// "number of emitted constraints" solver statistic).
func (p *Program) Len() int { return len(p.asserts) }

// String renders the program as SMT-LIB2 text, logic QF_NRA, followed
// by (check-sat) and (get-model).
func (p *Program) String() string {
	var b strings.Builder
	b.WriteString("(set-logic QF_NRA)\n")

	declOrd := append([]string(nil), p.declOrd...)
	sort.Strings(declOrd)
	for _, name := range declOrd {
		s := p.decls[name]
		kind := "declare-fun"
		b.WriteString(fmt.Sprintf("(%s %s () %s)\n", kind, quoteSymbol(name), s))
	}
	for _, a := range p.asserts {
		b.WriteString("(assert ")
		writeTerm(&b, a)
		b.WriteString(")\n")
	}
	b.WriteString("(check-sat)\n(get-model)\n")
	return b.String()
}

// quoteSymbol wraps name in |...| if it contains characters SMT-LIB2
// simple symbols disallow (the variable naming grammar in spec section
// 6 uses parentheses and commas inside names, e.g. "Tr_1_(0,0)_a_(1,0)").
func quoteSymbol(name string) string {
	plain := true
	for _, r := range name {
		if !(r == '_' || r == '.' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "|" + strings.ReplaceAll(name, "|", "") + "|"
}

func writeTerm(b *strings.Builder, t *Term) {
	switch t.Op {
	case OpVar:
		b.WriteString(quoteSymbol(t.Name))
	case OpBoolConst:
		if t.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case OpRealConst:
		b.WriteString(decimalToSMT(t.Value))
	case OpNot:
		writeApp(b, "not", t.Args)
	case OpAnd:
		writeApp(b, "and", t.Args)
	case OpOr:
		writeApp(b, "or", t.Args)
	case OpImplies:
		writeApp(b, "=>", t.Args)
	case OpXor:
		writeApp(b, "xor", t.Args)
	case OpIff:
		writeApp(b, "=", t.Args)
	case OpEq:
		writeApp(b, "=", t.Args)
	case OpLt:
		writeApp(b, "<", t.Args)
	case OpLe:
		writeApp(b, "<=", t.Args)
	case OpGt:
		writeApp(b, ">", t.Args)
	case OpGe:
		writeApp(b, ">=", t.Args)
	case OpAdd:
		writeApp(b, "+", t.Args)
	case OpSub:
		writeApp(b, "-", t.Args)
	case OpMul:
		writeApp(b, "*", t.Args)
	case OpIte:
		writeApp(b, "ite", t.Args)
	default:
		b.WriteString("false")
	}
}

func writeApp(b *strings.Builder, symbol string, args []*Term) {
	b.WriteString("(")
	b.WriteString(symbol)
	for _, a := range args {
		b.WriteString(" ")
		writeTerm(b, a)
	}
	b.WriteString(")")
}

// decimalToSMT renders a decimal.Decimal as an exact SMT-LIB2 rational
// literal, "(/ numerator denominator)" for non-integers and the bare
// integer otherwise, so no floating-point rounding is introduced between
// the rational data model and the solver (see SPEC_FULL.md DOMAIN
// STACK entry on shopspring/decimal).
func decimalToSMT(d decimal.Decimal) string {
	r := d.Rat()
	num := r.Num()
	den := r.Denom()
	if den.Cmp(big.NewInt(1)) == 0 {
		return signed(num.String())
	}
	return fmt.Sprintf("(/ %s %s)", signed(num.String()), den.String())
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return "(- " + s[1:] + ")"
	}
	return s
}
