// Package encode implements the Scheduler, Stutter, Semantic, and
// Quantifier Encoders of spec section 4.3 through 4.10: the pipeline
// stage that turns a parsed, quantifier-analyzed formula and an MDP
// View into an SMT-LIB2 program ready for internal/solver.
package encode

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gitrdm/hyperprobcheck/internal/ir"
	"github.com/gitrdm/hyperprobcheck/internal/mdpmodel"
	"github.com/gitrdm/hyperprobcheck/internal/quantifier"
	"github.com/gitrdm/hyperprobcheck/internal/registry"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// Config holds the tunables spec section 4.3's "optional configuration"
// clause and section 3's stutter bound K expose.
type Config struct {
	// StutterBound is K: every stutter duration/extended-state index
	// ranges over 0..K-1.
	StutterBound int
	// MaxSchedProb bounds a scheduler probability away from the
	// degenerate extremes; must lie in (0.5, 1). Default 0.99.
	MaxSchedProb decimal.Decimal
	// DontRestrictSched drops the [minProb,maxProb] band (only
	// Σ = 1 and every probability >= 0 remain), yielding a fully
	// general probabilistic memoryless scheduler.
	DontRestrictSched bool
}

// DefaultConfig returns a convenient default for tests (not the spec's
// documented CLI default: spec.md's stutter bound defaults to K=1,
// wired through internal/config.Defaults's StutterLength and
// cmd/hyperprobcheck/check.go).
func DefaultConfig() Config {
	return Config{
		StutterBound:      2,
		MaxSchedProb:      decimal.RequireFromString("0.99"),
		DontRestrictSched: false,
	}
}

// Session is the Encoding Session: the single owner of the Variable
// Registry, Subformula Index, and SMT Program for the duration of one
// check (spec section 5: none of these are shared across threads or
// checks).
type Session struct {
	Cfg    Config
	Model  *mdpmodel.Model
	Prefix *quantifier.Prefix
	Index  *ir.Index
	Reg    *registry.Registry
	Prog   *smtterm.Program

	encoded map[int]bool
	qCache  map[int][]int
}

// NewSession builds an Encoding Session around model and a Quantifier
// Analyzer result. It inserts prefix.Body into the Subformula Index
// immediately so ids are stable before any encoder runs.
func NewSession(model *mdpmodel.Model, prefix *quantifier.Prefix, cfg Config) (*Session, error) {
	if model == nil || prefix == nil {
		return nil, fmt.Errorf("encode: model and prefix must be non-nil")
	}
	if cfg.StutterBound < 1 {
		return nil, fmt.Errorf("encode: stutter bound K must be >= 1, got %d", cfg.StutterBound)
	}
	prog := smtterm.NewProgram()
	s := &Session{
		Cfg:     cfg,
		Model:   model,
		Prefix:  prefix,
		Index:   ir.NewIndex(),
		Reg:     registry.New(prog),
		Prog:    prog,
		encoded: make(map[int]bool),
		qCache:  make(map[int][]int),
	}
	s.Index.Insert(prefix.Body)
	return s, nil
}

// EncodeAll runs the Scheduler, Stutter, and Semantic Encoders over the
// session's model and formula body, leaving s.Prog ready for the
// Quantifier Encoder (see quantifier_encoder.go) to finish and for
// internal/solver to submit.
func (s *Session) EncodeAll() error {
	if err := s.Model.Validate(); err != nil {
		return err
	}
	if err := EncodeScheduler(s); err != nil {
		return err
	}
	if err := EncodeStutter(s); err != nil {
		return err
	}
	if _, err := s.EncodeNode(s.Prefix.Body); err != nil {
		return err
	}
	return nil
}

// states returns the model's states in ascending order, cached by the
// Model itself (mdpmodel.Model.States already returns a stable slice).
func (s *Session) states() []mdpmodel.State { return s.Model.States() }
