// Package result implements the Result Extractor (spec section 4.11):
// once the solver has returned, it walks the satisfying model's named
// assignments and reconstructs a human-level witness — scheduler
// probabilities, stutter durations, and satisfying state tuples —
// entirely through the Variable Registry's structured reverse lookup
// (registry.Registry.Lookup), never by re-parsing a variable name's
// text (see internal/registry's "stringly-typed variable namespace"
// redesign note).
package result

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/encode"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/solver"
)

// Verdict is the human-facing outcome of a check, distinct from
// solver.Verdict because the Quantifier Encoder's dualization (spec
// section 4.10) can flip SAT/UNSAT into Holds/Violated.
type Verdict int

const (
	// Holds means the hyperproperty is satisfied.
	Holds Verdict = iota
	// Violated means the hyperproperty is not satisfied (a witness, if
	// present, demonstrates the violation).
	Violated
	// Unknown means the solver could not decide within its resources.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Holds:
		return "holds"
	case Violated:
		return "violated"
	default:
		return "unknown"
	}
}

// SchedulerActionSetProb is a decoded a_{A}_{α} assignment.
type SchedulerActionSetProb struct {
	ActionSet []string
	Action    string
	Prob      *big.Rat
}

// SchedulerStateProb is a decoded a_{s}_{α} per-state mirror assignment.
type SchedulerStateProb struct {
	State  mdpmodel.State
	Action string
	Prob   *big.Rat
}

// StutterDuration is a decoded t_{j}_{s}_{α} assignment.
type StutterDuration struct {
	StutterIdx int
	State      mdpmodel.State
	Action     string
	Duration   int
}

// Witness is the reconstructed human-level witness of spec section
// 4.11: the scheduler the solver exhibited, the stutter durations it
// chose, and the satisfying initial-state tuples.
type Witness struct {
	SchedulerActionSets []SchedulerActionSetProb
	SchedulerStates     []SchedulerStateProb
	StutterDurations    []StutterDuration
	SatisfyingTuples    [][]registry.ExtState
}

// Decimal converts an exact big.Rat probability to a decimal.Decimal
// for display, at a precision generous enough for any probability a
// reasonable stutter bound and state count would produce. Callers that
// need bit-exact equality (e.g. the scheduler-summation testable
// property) should sum the big.Rat values directly instead.
func Decimal(r *big.Rat) decimal.Decimal {
	return decimal.NewFromBigRat(r, 40)
}

// Stats reports solver and encoding statistics, surfaced on every
// outcome including UNKNOWN (spec section 4.11's [FULL] addition).
type Stats struct {
	WallTime    time.Duration
	Constraints int
	BoolVars    int
	RealVars    int
}

// Outcome is the complete result of one check.
type Outcome struct {
	Verdict Verdict
	Witness *Witness // nil for Violated-without-witness, Unknown, or a dualized Holds
	Stats   Stats
}

// Extract interprets a finished solve: sess is the encoding session
// that produced the program (for Reg.Lookup, Prefix, and Prog.Len()),
// interp tells how to read SAT/UNSAT per the Quantifier Encoder's
// dualization rule, verdict/model/elapsed come straight from
// solver.Solver.Solve.
//
// Returns checkerrors.ErrSolverUnknown (wrapped, carrying Stats inside
// the returned Outcome too) when the solver could not decide.
func Extract(sess *encode.Session, interp encode.Interpretation, verdict solver.Verdict, model solver.Model, elapsed time.Duration) (*Outcome, error) {
	bools, reals := sess.Reg.CountBySort()
	stats := Stats{
		WallTime:    elapsed,
		Constraints: sess.Prog.Len(),
		BoolVars:    bools,
		RealVars:    reals,
	}

	if verdict == solver.Unknown {
		return &Outcome{Verdict: Unknown, Stats: stats}, fmt.Errorf("%w", checkerrors.ErrSolverUnknown)
	}

	sat := verdict == solver.Sat
	holds := sat
	if interp == encode.Dualized {
		holds = !sat
	}

	out := &Outcome{Stats: stats}
	if holds {
		out.Verdict = Holds
	} else {
		out.Verdict = Violated
	}

	// A witness is only meaningful when the solver actually produced a
	// model, i.e. on SAT — which, under dualization, is the "violated"
	// branch (the model is the counter-scheduler refuting ∀ scheduler).
	if sat {
		w, err := decodeWitness(sess, model)
		if err != nil {
			return out, err
		}
		out.Witness = w
	}
	return out, nil
}

// decodeWitness buckets model's entries by VarKind (via the Registry's
// structured reverse lookup) and decodes each bucket concurrently: the
// buckets are disjoint and each writes only to its own slice, so this
// is safe despite spec section 5's otherwise single-threaded encoding
// model (see DESIGN.md's narrow concurrency carve-out).
func decodeWitness(sess *encode.Session, model solver.Model) (*Witness, error) {
	type bucket struct {
		kind    registry.VarKind
		entries []namedKey
	}
	buckets := map[registry.VarKind]*bucket{
		registry.KindSchedActionSet: {kind: registry.KindSchedActionSet},
		registry.KindSchedState:     {kind: registry.KindSchedState},
		registry.KindStutter:        {kind: registry.KindStutter},
		registry.KindHolds:          {kind: registry.KindHolds},
	}
	for name, value := range model {
		key, ok := sess.Reg.Lookup(name)
		if !ok {
			continue
		}
		b, ok := buckets[key.Kind]
		if !ok {
			continue // Tr_, go_, prob_, d_, htoi_ are internal plumbing, not witness content.
		}
		b.entries = append(b.entries, namedKey{key: key, value: value})
	}

	w := &Witness{}
	var g errgroup.Group
	g.Go(func() error {
		res, err := decodeSchedActionSets(buckets[registry.KindSchedActionSet].entries)
		if err != nil {
			return err
		}
		w.SchedulerActionSets = res
		return nil
	})
	g.Go(func() error {
		res, err := decodeSchedStates(buckets[registry.KindSchedState].entries)
		if err != nil {
			return err
		}
		w.SchedulerStates = res
		return nil
	})
	g.Go(func() error {
		res, err := decodeStutterDurations(buckets[registry.KindStutter].entries)
		if err != nil {
			return err
		}
		w.StutterDurations = res
		return nil
	})
	g.Go(func() error {
		res, err := decodeSatisfyingTuples(sess, buckets[registry.KindHolds].entries)
		if err != nil {
			return err
		}
		w.SatisfyingTuples = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return w, nil
}

type namedKey struct {
	key   registry.Key
	value string
}

func decodeSchedActionSets(entries []namedKey) ([]SchedulerActionSetProb, error) {
	out := make([]SchedulerActionSetProb, 0, len(entries))
	for _, e := range entries {
		r, err := parseExactRational(e.value)
		if err != nil {
			return nil, fmt.Errorf("result: scheduler probability %q: %w", e.value, err)
		}
		out = append(out, SchedulerActionSetProb{ActionSet: e.key.ActionSet, Action: e.key.Action, Prob: r})
	}
	return out, nil
}

func decodeSchedStates(entries []namedKey) ([]SchedulerStateProb, error) {
	out := make([]SchedulerStateProb, 0, len(entries))
	for _, e := range entries {
		r, err := parseExactRational(e.value)
		if err != nil {
			return nil, fmt.Errorf("result: per-state scheduler probability %q: %w", e.value, err)
		}
		out = append(out, SchedulerStateProb{State: e.key.State, Action: e.key.Action, Prob: r})
	}
	return out, nil
}

func decodeStutterDurations(entries []namedKey) ([]StutterDuration, error) {
	out := make([]StutterDuration, 0, len(entries))
	for _, e := range entries {
		r, err := parseExactRational(e.value)
		if err != nil {
			return nil, fmt.Errorf("result: stutter duration %q: %w", e.value, err)
		}
		if !r.IsInt() {
			return nil, fmt.Errorf("result: stutter duration %q is not an integer", e.value)
		}
		out = append(out, StutterDuration{
			StutterIdx: e.key.StutterIdx,
			State:      e.key.State,
			Action:     e.key.Action,
			Duration:   int(r.Num().Int64()),
		})
	}
	return out, nil
}

// decodeSatisfyingTuples implements spec section 4.11's witness-tuple
// rule: a holds_ whose subformula id is the top body's id, whose value
// is true, and whose every coordinate has stutter component 0, decodes
// to a satisfying initial-state tuple — subject to the π-mapping
// consistency rejection: two stutter quantifiers associated with the
// same state quantifier must agree on that state's value within one
// tuple, or the tuple is not a coherent witness and is dropped.
func decodeSatisfyingTuples(sess *encode.Session, entries []namedKey) ([][]registry.ExtState, error) {
	topID := sess.Index.IndexOf(sess.Prefix.Body)
	var out [][]registry.ExtState
	for _, e := range entries {
		if e.key.SubformulaID != topID {
			continue
		}
		if e.value != "true" {
			continue
		}
		if !allZeroStutterComponents(e.key.Tuple) {
			continue
		}
		if !piConsistent(sess, e.key.Tuple) {
			continue
		}
		out = append(out, e.key.Tuple)
	}
	return out, nil
}

func allZeroStutterComponents(tuple []registry.ExtState) bool {
	for _, e := range tuple {
		if e.I != 0 {
			return false
		}
	}
	return true
}

// piConsistent rejects a tuple where two stutter quantifiers j, j' that
// share an associated state quantifier (π(j) = π(j')) are pinned to
// different underlying states within this one tuple — such a tuple does
// not correspond to any actual state-quantifier assignment and must not
// be reported as a witness.
func piConsistent(sess *encode.Session, tuple []registry.ExtState) bool {
	seen := make(map[int]mdpmodel.State)
	for j := 1; j <= sess.Prefix.NumStutters; j++ {
		if j-1 >= len(tuple) {
			continue
		}
		i := sess.Prefix.PiOf(j)
		st := tuple[j-1].State
		if prev, ok := seen[i]; ok {
			if prev != st {
				return false
			}
			continue
		}
		seen[i] = st
	}
	return true
}

// parseExactRational parses a flattened solver model value ("3",
// "-2", "1/3", "0.5", "1.0/3.0") into an exact big.Rat. Each side of a
// fraction is read with big.Rat.SetString separately, since SetString
// rejects a fraction with decimal parts — the precision
// solver.ParseRealLiteral's float64 conversion cannot offer.
func parseExactRational(v string) (*big.Rat, error) {
	num, den, isFrac := strings.Cut(v, "/")
	r, ok := new(big.Rat).SetString(num)
	if !ok {
		return nil, fmt.Errorf("not a rational literal")
	}
	if isFrac {
		d, ok := new(big.Rat).SetString(den)
		if !ok || d.Sign() == 0 {
			return nil, fmt.Errorf("not a rational literal")
		}
		r.Quo(r, d)
	}
	return r, nil
}
