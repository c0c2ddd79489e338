// Package smtterm builds an SMT term tree (the quantifier-free
// real-arithmetic expressions the encoder emits) independently of any
// particular solver binding. Spec section 9 calls for the encoder to
// "construct terms and submit them" without depending on a concrete
// SMT library; this package is that abstraction layer, serialized to
// SMT-LIB2 by smtlib.go and handed to internal/solver.
package smtterm

import "github.com/shopspring/decimal"

// Sort is the SMT sort of a term.
type Sort int

const (
	// SortBool is a Boolean-sorted term.
	SortBool Sort = iota
	// SortReal is a real-sorted term.
	SortReal
)

func (s Sort) String() string {
	if s == SortBool {
		return "Bool"
	}
	return "Real"
}

// Op names the operator a compound Term applies.
type Op int

const (
	OpVar Op = iota
	OpBoolConst
	OpRealConst
	OpNot
	OpAnd
	OpOr
	OpImplies
	OpXor
	OpIff
	OpEq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpIte
)

// Term is a node of the SMT term tree. Leaves are OpVar, OpBoolConst,
// and OpRealConst; every other Op is an n-ary (or fixed-arity)
// application over Args.
type Term struct {
	Op    Op
	Sort  Sort
	Name  string          // OpVar
	Bool  bool            // OpBoolConst
	Value decimal.Decimal // OpRealConst
	Args  []*Term
}

// Var returns a leaf term naming a registry variable.
func Var(name string, sort Sort) *Term { return &Term{Op: OpVar, Sort: sort, Name: name} }

// BoolConst returns a Boolean literal term.
func BoolConst(b bool) *Term { return &Term{Op: OpBoolConst, Sort: SortBool, Bool: b} }

// RealConst returns a rational literal term.
func RealConst(q decimal.Decimal) *Term { return &Term{Op: OpRealConst, Sort: SortReal, Value: q} }

// RealConstInt is a convenience wrapper for integer-valued literals
// (e.g. stutter durations, bounded-until indices).
func RealConstInt(n int) *Term { return RealConst(decimal.NewFromInt(int64(n))) }

func nary(op Op, sort Sort, args ...*Term) *Term { return &Term{Op: op, Sort: sort, Args: args} }

// Not negates a Boolean term.
func Not(a *Term) *Term { return nary(OpNot, SortBool, a) }

// And conjoins zero or more Boolean terms (And() is true).
func And(args ...*Term) *Term {
	if len(args) == 0 {
		return BoolConst(true)
	}
	if len(args) == 1 {
		return args[0]
	}
	return nary(OpAnd, SortBool, args...)
}

// Or disjoins zero or more Boolean terms (Or() is false).
func Or(args ...*Term) *Term {
	if len(args) == 0 {
		return BoolConst(false)
	}
	if len(args) == 1 {
		return args[0]
	}
	return nary(OpOr, SortBool, args...)
}

// Implies returns a -> b.
func Implies(a, b *Term) *Term { return nary(OpImplies, SortBool, a, b) }

// Xor returns a xor b.
func Xor(a, b *Term) *Term { return nary(OpXor, SortBool, a, b) }

// Iff returns the Boolean biconditional a <-> b.
func Iff(a, b *Term) *Term { return nary(OpIff, SortBool, a, b) }

// Eq returns a = b. Valid for both Bool and Real terms; the result sort
// is always Bool.
func Eq(a, b *Term) *Term { return nary(OpEq, SortBool, a, b) }

// Lt, Le, Gt, Ge are real-arithmetic comparisons.
func Lt(a, b *Term) *Term { return nary(OpLt, SortBool, a, b) }
func Le(a, b *Term) *Term { return nary(OpLe, SortBool, a, b) }
func Gt(a, b *Term) *Term { return nary(OpGt, SortBool, a, b) }
func Ge(a, b *Term) *Term { return nary(OpGe, SortBool, a, b) }

// Add, Sub, Mul are real-arithmetic operators. Add and Mul are n-ary
// (used by the Semantic Encoder's big-sum / big-product emission);
// Sub is always binary per the Formula IR's Sub node.
func Add(args ...*Term) *Term {
	if len(args) == 0 {
		return RealConstInt(0)
	}
	if len(args) == 1 {
		return args[0]
	}
	return nary(OpAdd, SortReal, args...)
}

func Sub(a, b *Term) *Term { return nary(OpSub, SortReal, a, b) }

func Mul(args ...*Term) *Term {
	if len(args) == 0 {
		return RealConstInt(1)
	}
	if len(args) == 1 {
		return args[0]
	}
	return nary(OpMul, SortReal, args...)
}

// Ite returns (if cond then else), with then/else real-sorted.
func Ite(cond, then, els *Term) *Term { return nary(OpIte, SortReal, cond, then, els) }
