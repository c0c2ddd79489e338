package encode

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/quantifier"
)

// twoStateModel is a trivial one-action MDP: state 0 (labeled "start")
// deterministically moves to state 1 (labeled "end").
func twoStateModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	b.AddTransition(0, "go", 1, decimal.NewFromInt(1))
	b.AddTransition(1, "stay", 1, decimal.NewFromInt(1))
	b.AddLabel(0, "start")
	b.AddLabel(1, "end")
	return b.Build()
}

// singleSchedulerSingleStutter builds ES sh. A s1. ET t1(s1). P(X end(s1)) = 1
func singleSchedulerSingleStutter() *ir.Node {
	body := ir.NewBinary(ir.KindEq,
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindNext, ir.NewAtomicProp("end", 1))),
		ir.NewConstProb(decimal.NewFromInt(1)),
	)
	f := ir.NewStutterQuant(false, 1, 1, body)
	f = ir.NewStateQuant(true, 1, f)
	f = ir.NewSchedQuant(false, f)
	return f
}

func TestEncodeAllProducesNonEmptyProgram(t *testing.T) {
	model := twoStateModel()
	formula := singleSchedulerSingleStutter()
	prefix, err := quantifier.Analyze(formula)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cfg := DefaultConfig()
	cfg.StutterBound = 2
	sess, err := NewSession(model, prefix, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	interp, err := sess.Finish(false)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if interp != Direct {
		t.Fatalf("expected Direct interpretation for an existential scheduler, got %v", interp)
	}
	if sess.Prog.Len() == 0 {
		t.Fatalf("expected a non-empty program")
	}

	text := sess.Prog.String()
	if !strings.Contains(text, "set-logic QF_NRA") {
		t.Errorf("expected QF_NRA logic declaration")
	}
	if !strings.Contains(text, "check-sat") {
		t.Errorf("expected a check-sat directive")
	}

	bools, reals := sess.Reg.CountBySort()
	if bools == 0 || reals == 0 {
		t.Errorf("expected both Boolean and real variables to be minted, got %d bool / %d real", bools, reals)
	}
}

func TestEncodeAllForallSchedulerDualizes(t *testing.T) {
	model := twoStateModel()
	body := ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindNext, ir.NewAtomicProp("end", 1)))
	cmp := ir.NewBinary(ir.KindEq, body, ir.NewConstProb(decimal.NewFromInt(1)))
	f := ir.NewStutterQuant(false, 1, 1, cmp)
	f = ir.NewStateQuant(true, 1, f)
	f = ir.NewSchedQuant(true, f) // AS: universal scheduler

	prefix, err := quantifier.Analyze(f)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sess, err := NewSession(model, prefix, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	interp, err := sess.Finish(false)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if interp != Dualized {
		t.Fatalf("expected Dualized interpretation for a universal scheduler, got %v", interp)
	}
}

func TestForallSchedulerRejectedWhenDisallowed(t *testing.T) {
	model := twoStateModel()
	body := ir.NewAtomicProp("end", 1)
	f := ir.NewStutterQuant(false, 1, 1, body)
	f = ir.NewStateQuant(true, 1, f)
	f = ir.NewSchedQuant(true, f)

	prefix, err := quantifier.Analyze(f)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sess, err := NewSession(model, prefix, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := sess.Finish(true); err == nil {
		t.Fatalf("expected an error when the universal scheduler is disallowed")
	}
}

func TestSchedulerEncoderSingleActionPinnedToOne(t *testing.T) {
	model := twoStateModel()
	formula := singleSchedulerSingleStutter()
	prefix, err := quantifier.Analyze(formula)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	sess, err := NewSession(model, prefix, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := EncodeScheduler(sess); err != nil {
		t.Fatalf("EncodeScheduler: %v", err)
	}
	// Every state here has exactly one action, so every scheduler
	// variable should be pinned to 1 via an assertion.
	if sess.Prog.Len() == 0 {
		t.Fatalf("expected scheduler assertions to be emitted")
	}
	if text := sess.Prog.String(); !strings.Contains(text, "(= |a_{go}_go| 1)") {
		t.Errorf("expected the single-action scheduler variable pinned to 1 in:\n%s", text)
	}
}
