// Package integration drives the full encode/solve/extract pipeline
// end to end against a real SMT solver process, covering scenarios 1-5
// of spec section 8 by constructing Formula IR and MDP View
// values directly through test-only builders rather than the string
// front-ends (internal/hyperparse, internal/mdpmodel's PRISM reader),
// so these tests exercise the encoding core rather than the parsers.
package integration

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/encode"
	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/quantifier"
	"github.com/gitrdm/hyperprobcheck/internal/result"
	"github.com/gitrdm/hyperprobcheck/internal/solver"
)

// requireZ3 skips the test when no z3-compatible solver is on PATH;
// these tests need a real QF_NRA solver round trip, not a mock.
func requireZ3(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("z3")
	if err != nil {
		t.Skip("z3 not installed, skipping solver-backed end-to-end test")
	}
	return path
}

// run pushes formula/model through NewSession, Finish, the solver, and
// result.Extract, returning the decided Outcome.
func run(t *testing.T, solverPath string, model *mdpmodel.Model, formula *ir.Node, stutterBound int) *result.Outcome {
	t.Helper()
	prefix, err := quantifier.Analyze(formula)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cfg := encode.DefaultConfig()
	if stutterBound > 0 {
		cfg.StutterBound = stutterBound
	}
	sess, err := encode.NewSession(model, prefix, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	interp, err := sess.Finish(true)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}

	slv := solver.New(solver.Config{
		Path:       solverPath,
		Args:       []string{"-in"},
		Timeout:    10 * time.Second,
		MaxRetries: 1,
	}, nil)

	verdict, model2, solveErr := slv.Solve(context.Background(), sess.Prog)
	if solveErr != nil && !errors.Is(solveErr, checkerrors.ErrSolverUnknown) {
		t.Fatalf("Solve: %v", solveErr)
	}

	outcome, err := result.Extract(sess, interp, verdict, model2, 0)
	if err != nil && !errors.Is(err, checkerrors.ErrSolverUnknown) {
		t.Fatalf("Extract: %v", err)
	}
	if outcome.Verdict == result.Unknown {
		t.Fatalf("solver returned unknown for a decidable test fixture")
	}
	return outcome
}

// symmetricCoinModel is a two-state MDP where both states flip a fair
// coin to decide whether the next state is labeled "end": state 1 is
// end-labeled and both states transition to {0,1} with probability
// 1/2 each, so P(X end(s)) = 1/2 for every s in S.
func symmetricCoinModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	half := decimal.RequireFromString("0.5")
	b.AddTransition(0, "flip", 0, half)
	b.AddTransition(0, "flip", 1, half)
	b.AddTransition(1, "flip", 0, half)
	b.AddTransition(1, "flip", 1, half)
	b.AddLabel(1, "end")
	return b.Build()
}

// asymmetricCoinModel is symmetricCoinModel with state 1's coin biased
// 1/3 toward itself instead of 1/2, so P(X end(1)) != P(X end(0)).
func asymmetricCoinModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	half := decimal.RequireFromString("0.5")
	oneThird := decimal.RequireFromString("0.3333333333333333")
	twoThirds := decimal.NewFromInt(1).Sub(oneThird)
	b.AddTransition(0, "flip", 0, half)
	b.AddTransition(0, "flip", 1, half)
	b.AddTransition(1, "flip", 0, twoThirds)
	b.AddTransition(1, "flip", 1, oneThird)
	b.AddLabel(1, "end")
	return b.Build()
}

// coinEquivalenceFormula builds ES sh. A s1. A s2. AT t1(s1). AT
// t2(s2). (P(X end(s1)) = P(X end(s2))): scenarios 1 and 2 of spec
// section 8.
func coinEquivalenceFormula() *ir.Node {
	body := ir.NewBinary(ir.KindEq,
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindNext, ir.NewAtomicProp("end", 1))),
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindNext, ir.NewAtomicProp("end", 2))),
	)
	f := ir.NewStutterQuant(true, 2, 2, body)
	f = ir.NewStutterQuant(true, 1, 1, f)
	f = ir.NewStateQuant(true, 2, f)
	f = ir.NewStateQuant(true, 1, f)
	return ir.NewSchedQuant(false, f)
}

// TestCoinFlipEquivalenceHolds is scenario 1 of spec section 8: a
// symmetric two-state coin-flip MDP satisfies P(X end(s1)) = P(X
// end(s2)) for every pair of states, so the universally quantified
// property holds.
func TestCoinFlipEquivalenceHolds(t *testing.T) {
	z3 := requireZ3(t)
	outcome := run(t, z3, symmetricCoinModel(), coinEquivalenceFormula(), 1)
	if outcome.Verdict != result.Holds {
		t.Fatalf("expected Holds, got %v", outcome.Verdict)
	}
}

// TestAsymmetricCoinRefused is scenario 2: biasing one state's coin
// away from 1/2 breaks the equivalence for at least one state pair, so
// the universally quantified property no longer holds.
func TestAsymmetricCoinRefused(t *testing.T) {
	z3 := requireZ3(t)
	outcome := run(t, z3, asymmetricCoinModel(), coinEquivalenceFormula(), 1)
	if outcome.Verdict != result.Violated {
		t.Fatalf("expected Violated, got %v", outcome.Verdict)
	}
}

// stutterWinModel has two deterministic chains from disjoint start
// states: 0 reaches a win-labeled absorbing state in one step, 2
// reaches a win-labeled absorbing state in two steps.
func stutterWinModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	one := decimal.NewFromInt(1)
	b.AddTransition(0, "a", 1, one)
	b.AddTransition(1, "a", 1, one)
	b.AddTransition(2, "b", 3, one)
	b.AddTransition(3, "c", 4, one)
	b.AddTransition(4, "c", 4, one)
	b.AddLabel(1, "win")
	b.AddLabel(4, "win")
	return b.Build()
}

// TestStutterCreatesEquivalenceHolds is scenario 3: two deterministic
// chains of different lengths both reach a win-labeled state with
// probability 1, so P(F win(s1)) = P(F win(s2)) holds for an
// existential choice of s1, s2 — and the stutter quantifiers still
// mint duration witnesses for every (stutter, state, action) triple
// regardless of the values the solver settles on.
func TestStutterCreatesEquivalenceHolds(t *testing.T) {
	z3 := requireZ3(t)
	body := ir.NewBinary(ir.KindEq,
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindFuture, ir.NewAtomicProp("win", 1))),
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindFuture, ir.NewAtomicProp("win", 2))),
	)
	f := ir.NewStutterQuant(false, 2, 2, body)
	f = ir.NewStutterQuant(false, 1, 1, f)
	f = ir.NewStateQuant(false, 2, f)
	f = ir.NewStateQuant(false, 1, f)
	f = ir.NewSchedQuant(false, f)

	outcome := run(t, z3, stutterWinModel(), f, 2)
	if outcome.Verdict != result.Holds {
		t.Fatalf("expected Holds, got %v", outcome.Verdict)
	}
	if outcome.Witness == nil || len(outcome.Witness.StutterDurations) == 0 {
		t.Fatalf("expected a witness with stutter durations for K=2, got %+v", outcome.Witness)
	}
}

// boundedChainModel is a 3-state deterministic chain 0 -> 1 -> 2, with
// 0 and 1 labeled "safe" and 2 labeled "goal".
func boundedChainModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	one := decimal.NewFromInt(1)
	b.AddTransition(0, "a", 1, one)
	b.AddTransition(1, "a", 2, one)
	b.AddTransition(2, "a", 2, one)
	b.AddLabel(0, "safe")
	b.AddLabel(1, "safe")
	b.AddLabel(2, "goal")
	return b.Build()
}

// TestBoundedUntilHolds is scenario 4: a deterministic chain reaches
// "goal" within 3 steps while "safe" holds along the way, with
// probability 1, comfortably clearing the 0.5 threshold.
func TestBoundedUntilHolds(t *testing.T) {
	z3 := requireZ3(t)
	untilBounded := ir.NewUntilBounded(ir.NewAtomicProp("safe", 1), 0, 3, ir.NewAtomicProp("goal", 1))
	cmp := ir.NewBinary(ir.KindGt,
		ir.NewUnary(ir.KindProb, untilBounded),
		ir.NewConstProb(decimal.RequireFromString("0.5")),
	)
	f := ir.NewStutterQuant(false, 1, 1, cmp)
	f = ir.NewStateQuant(false, 1, f)
	f = ir.NewSchedQuant(false, f)

	outcome := run(t, z3, boundedChainModel(), f, 1)
	if outcome.Verdict != result.Holds {
		t.Fatalf("expected Holds, got %v", outcome.Verdict)
	}
}

// trapModel deterministically walks from state 0 into an absorbing
// trap-labeled state 1.
func trapModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	one := decimal.NewFromInt(1)
	b.AddTransition(0, "a", 1, one)
	b.AddTransition(1, "a", 1, one)
	b.AddLabel(1, "trap")
	return b.Build()
}

// TestGlobalViolationDoesNotHold is scenario 5: every state eventually
// reaches (or already is) the trap, so no existential choice of s1
// makes P(G not-trap(s1)) = 1.
func TestGlobalViolationDoesNotHold(t *testing.T) {
	z3 := requireZ3(t)
	negTrap := ir.NewUnary(ir.KindNot, ir.NewAtomicProp("trap", 1))
	cmp := ir.NewBinary(ir.KindEq,
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindGlobal, negTrap)),
		ir.NewConstProb(decimal.NewFromInt(1)),
	)
	f := ir.NewStutterQuant(false, 1, 1, cmp)
	f = ir.NewStateQuant(false, 1, f)
	f = ir.NewSchedQuant(false, f)

	outcome := run(t, z3, trapModel(), f, 1)
	if outcome.Verdict != result.Violated {
		t.Fatalf("expected Violated, got %v", outcome.Verdict)
	}
}
