package result

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/encode"
	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/quantifier"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/solver"
)

func twoStateModel() *mdpmodel.Model {
	b := mdpmodel.NewBuilder()
	b.AddTransition(0, "go", 1, decimal.NewFromInt(1))
	b.AddTransition(1, "stay", 1, decimal.NewFromInt(1))
	b.AddLabel(0, "start")
	b.AddLabel(1, "end")
	return b.Build()
}

func formula() *ir.Node {
	body := ir.NewBinary(ir.KindEq,
		ir.NewUnary(ir.KindProb, ir.NewUnary(ir.KindNext, ir.NewAtomicProp("end", 1))),
		ir.NewConstProb(decimal.NewFromInt(1)),
	)
	f := ir.NewStutterQuant(false, 1, 1, body)
	f = ir.NewStateQuant(true, 1, f)
	f = ir.NewSchedQuant(false, f)
	return f
}

func newSession(t *testing.T) *encode.Session {
	t.Helper()
	prefix, err := quantifier.Analyze(formula())
	require.NoError(t, err)
	sess, err := encode.NewSession(twoStateModel(), prefix, encode.DefaultConfig())
	require.NoError(t, err)
	interp, err := sess.Finish(false)
	require.NoError(t, err)
	require.Equal(t, encode.Direct, interp)
	return sess
}

func TestExtractUnknownCarriesStats(t *testing.T) {
	sess := newSession(t)
	out, err := Extract(sess, encode.Direct, solver.Unknown, nil, 5*time.Millisecond)
	require.Error(t, err)
	require.True(t, errors.Is(err, checkerrors.ErrSolverUnknown))
	require.Equal(t, Unknown, out.Verdict)
	require.Greater(t, out.Stats.Constraints, 0)
	require.Nil(t, out.Witness)
}

func TestExtractUnsatDirectMeansViolated(t *testing.T) {
	sess := newSession(t)
	out, err := Extract(sess, encode.Direct, solver.Unsat, nil, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Violated, out.Verdict)
	require.Nil(t, out.Witness)
}

func TestExtractUnsatDualizedMeansHolds(t *testing.T) {
	sess := newSession(t)
	out, err := Extract(sess, encode.Dualized, solver.Unsat, nil, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Holds, out.Verdict)
}

func TestExtractDecodesSchedulerAndStutterAndTuples(t *testing.T) {
	sess := newSession(t)

	schedKey := registry.Key{Kind: registry.KindSchedActionSet, ActionSet: []string{"go"}, Action: "go"}
	schedName := sess.Reg.Term(schedKey)
	_ = schedName

	stutKey := registry.Key{Kind: registry.KindStutter, StutterIdx: 1, State: 0, Action: "go"}
	sess.Reg.Term(stutKey)

	topID := sess.Index.IndexOf(sess.Prefix.Body)
	holdsKey := registry.Key{Kind: registry.KindHolds, SubformulaID: topID, Tuple: []registry.ExtState{{State: 0, I: 0}}}
	sess.Reg.Term(holdsKey)

	model := solver.Model{
		schedKey.Name(): "1",
		stutKey.Name():  "0",
		holdsKey.Name(): "true",
	}

	out, err := Extract(sess, encode.Direct, solver.Sat, model, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, Holds, out.Verdict)
	require.NotNil(t, out.Witness)
	require.Len(t, out.Witness.SchedulerActionSets, 1)
	require.Equal(t, "1", out.Witness.SchedulerActionSets[0].Prob.RatString())
	require.Len(t, out.Witness.StutterDurations, 1)
	require.Equal(t, 0, out.Witness.StutterDurations[0].Duration)
	require.Len(t, out.Witness.SatisfyingTuples, 1)
}

func TestPiConsistencyRejectsDisagreeingTuple(t *testing.T) {
	sess := newSession(t)
	// Two stutter quantifiers sharing the same associated state but
	// disagreeing on its value must be rejected.
	sess.Prefix.StutterAssocState = map[int]int{1: 1, 2: 1}
	sess.Prefix.NumStutters = 2

	tuple := []registry.ExtState{{State: 0, I: 0}, {State: 1, I: 0}}
	if piConsistent(sess, tuple) {
		t.Fatalf("expected a pi-mapping inconsistent tuple to be rejected")
	}
}

func TestParseExactRationalHandlesFractionsAndDecimals(t *testing.T) {
	cases := map[string]string{
		"1/3": "1/3",
		"0.5": "1/2",
		"2":   "2",
		"-1":  "-1",
	}
	for in, want := range cases {
		r, err := parseExactRational(in)
		require.NoError(t, err)
		require.Equal(t, want, r.RatString())
	}
}
