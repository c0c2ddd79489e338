// Package registry implements the Variable Registry: two mappings
// keyed by string name to solver term handles, one for Boolean and one
// for real variables (no integer variables are minted), plus the
// structured side-table that
// lets the Result Extractor recover witnesses without re-parsing names
// (spec section 9's "stringly-typed variable namespace" redesign note).
package registry

import (
	"fmt"
	"strings"

	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
)

// VarKind enumerates the nine families of variable the naming grammar
// in spec section 6 defines (the a_{A}_{α} and a_{s}_{α} scheduler
// forms are separate kinds).
type VarKind int

const (
	KindHolds VarKind = iota
	KindProb
	KindDist // the d_* LFP witness
	KindSchedActionSet
	KindSchedState
	KindStutter
	KindTr
	KindGo
	KindHtoi
)

// ExtState is an extended state (s,i): s is the underlying MDP state, i
// counts stutter progress (0 means "fresh").
type ExtState struct {
	State mdpmodel.State
	I     int
}

func (e ExtState) String() string { return fmt.Sprintf("(%d,%d)", e.State, e.I) }

// Key is the structured content record behind every registry name: a
// VarKind plus whichever fields that kind needs. Exactly one of the
// field groups below is populated, selected by Kind.
type Key struct {
	Kind VarKind

	// KindHolds, KindProb, KindDist, KindHtoi: a subformula id and the
	// n-tuple of extended states R (one per stutter quantifier, with
	// non-relevant slots pinned to (0,0) by the caller before Key is
	// built).
	SubformulaID int
	Tuple        []ExtState

	// KindSchedActionSet: probability of choosing Action among the
	// states whose enabled set is exactly ActionSet.
	ActionSet []string
	Action    string

	// KindSchedState: per-state mirror of the scheduler probability.
	State mdpmodel.State

	// KindStutter, KindTr, KindGo: the stutter-quantifier index, a
	// state/action pair, and (for Tr/Go) the extended from/to states.
	StutterIdx int
	From       ExtState
	To         ExtState
}

// Name renders Key to the bit-exact string the naming grammar in spec
// section 6 specifies. This is the only place the project crosses from
// a structured key to a string; the Result Extractor never parses this
// string back, instead reading the structured Key straight out of the
// Registry's reverse index (see registry.go).
func (k Key) Name() string {
	switch k.Kind {
	case KindHolds:
		return "holds" + tupleSuffix(k.Tuple) + "_" + itoa(k.SubformulaID)
	case KindProb:
		return "prob" + tupleSuffix(k.Tuple) + "_" + itoa(k.SubformulaID)
	case KindDist:
		return "d" + tupleSuffix(k.Tuple) + "_" + itoa(k.SubformulaID)
	case KindHtoi:
		return "htoi" + tupleSuffix(k.Tuple) + "_" + itoa(k.SubformulaID)
	case KindSchedActionSet:
		return "a_" + mdpmodel.ActionSet(k.ActionSet) + "_" + k.Action
	case KindSchedState:
		return "a_" + itoa(int(k.State)) + "_" + k.Action
	case KindStutter:
		return "t_" + itoa(k.StutterIdx) + "_" + itoa(int(k.State)) + "_" + k.Action
	case KindTr:
		return "Tr_" + itoa(k.StutterIdx) + "_" + k.From.String() + "_" + k.Action + "_" + k.To.String()
	case KindGo:
		return "go_" + itoa(k.StutterIdx) + "_" + k.From.String() + "_" + k.Action + "_" + k.To.String()
	default:
		return "unknown"
	}
}

// Sort returns the SMT sort this key's variable must have: KindHolds is
// Boolean, every other kind is real (spec section 6's "name prefix rule
// for sort recovery": h (not htoi) -> Bool; p,d,a,t,T,g or htoi -> Real).
func (k Key) Sort() string {
	if k.Kind == KindHolds {
		return "Bool"
	}
	return "Real"
}

func tupleSuffix(tuple []ExtState) string {
	var b strings.Builder
	for _, e := range tuple {
		b.WriteString("_")
		b.WriteString(e.String())
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
