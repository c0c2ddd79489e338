// Package config binds the CLI surface of spec section 6 onto a
// layered configuration: command-line flags override a per-project
// viper config (TOML on disk, per SPEC_FULL.md's ambient stack),
// which overrides the defaults below. This mirrors the "flags >
// config file > defaults" discipline of steveyegge-beads's
// internal/config + internal/configfile split, scaled down to the
// handful of knobs this checker actually needs.
package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Keys are the viper/flag names shared between BindFlags and Load.
const (
	KeyModelPath         = "model-path"
	KeyHyperString       = "hyper-string"
	KeyStutterLength     = "stutter-length"
	KeyMaxSchedProb      = "max-sched-prob"
	KeyCheckModel        = "check-model"
	KeyCheckProperty     = "check-property"
	KeyDontRestrictSched = "dont-restrict-sched"
	KeySolverPath        = "solver-path"
	KeySolverTimeout     = "solver-timeout"
	KeyAllowForallSched  = "allow-forall-scheduler"
)

// Config is the fully resolved set of checker options (spec section 6's
// CLI surface plus SPEC_FULL.md's [FULL] solver-process additions).
type Config struct {
	ModelPath         string
	HyperString       string
	StutterLength     int
	MaxSchedProb      decimal.Decimal
	CheckModel        bool
	CheckProperty     bool
	DontRestrictSched bool
	SolverPath        string
	SolverTimeout     time.Duration
	AllowForallSched  bool
}

// Defaults returns the documented defaults of spec section 6 and
// SPEC_FULL.md section 6's [FULL] additions.
func Defaults() Config {
	return Config{
		StutterLength:     1,
		MaxSchedProb:      decimal.RequireFromString("0.99"),
		DontRestrictSched: false,
		SolverPath:        "z3",
		SolverTimeout:     30 * time.Second,
		AllowForallSched:  false,
	}
}

// BindFlags registers cmd's flags and lets viper know about each one,
// so Load can later ask "did the user set this flag" (flags win) versus
// falling back to the viper-resolved value (config file, then default).
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Defaults()
	flags := cmd.Flags()

	flags.String(KeyModelPath, d.ModelPath, "path to a PRISM-subset MDP description (required)")
	flags.String(KeyHyperString, d.HyperString, "the hyperproperty source string (required)")
	flags.Int(KeyStutterLength, d.StutterLength, "stutter bound K >= 1 (1 means no stuttering)")
	flags.String(KeyMaxSchedProb, d.MaxSchedProb.String(), "rational in (0.5, 1) bounding scheduler probabilities")
	flags.Bool(KeyCheckModel, d.CheckModel, "parse the model only, then exit")
	flags.Bool(KeyCheckProperty, d.CheckProperty, "parse the hyperproperty only, then exit")
	flags.Bool(KeyDontRestrictSched, d.DontRestrictSched, "drop the equal-action-set scheduler tying")
	flags.String(KeySolverPath, d.SolverPath, "external SMT solver executable")
	flags.Duration(KeySolverTimeout, d.SolverTimeout, "timeout for a single solver round trip")
	flags.Bool(KeyAllowForallSched, d.AllowForallSched, "allow the dualized encoding of a universally-quantified scheduler")

	for _, key := range []string{
		KeyModelPath, KeyHyperString, KeyStutterLength, KeyMaxSchedProb,
		KeyCheckModel, KeyCheckProperty, KeyDontRestrictSched,
		KeySolverPath, KeySolverTimeout, KeyAllowForallSched,
	} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves v (already populated by BindFlags plus, if --config was
// given, a merged TOML file) into a Config. A malformed MaxSchedProb
// string is reported as an error rather than silently defaulting, since
// an out-of-range scheduler bound would otherwise corrupt the Scheduler
// Encoder's clamp (spec section 4.3).
func Load(v *viper.Viper) (*Config, error) {
	maxProbStr := v.GetString(KeyMaxSchedProb)
	maxProb, err := decimal.NewFromString(maxProbStr)
	if err != nil {
		return nil, &InvalidConfigError{Field: KeyMaxSchedProb, Value: maxProbStr, Err: err}
	}

	return &Config{
		ModelPath:         v.GetString(KeyModelPath),
		HyperString:       v.GetString(KeyHyperString),
		StutterLength:     v.GetInt(KeyStutterLength),
		MaxSchedProb:      maxProb,
		CheckModel:        v.GetBool(KeyCheckModel),
		CheckProperty:     v.GetBool(KeyCheckProperty),
		DontRestrictSched: v.GetBool(KeyDontRestrictSched),
		SolverPath:        v.GetString(KeySolverPath),
		SolverTimeout:     v.GetDuration(KeySolverTimeout),
		AllowForallSched:  v.GetBool(KeyAllowForallSched),
	}, nil
}

// InvalidConfigError reports a config value that failed its own
// parsing/validation, distinct from the spec section 7 error kinds
// (which all describe formula/quantifier problems, not CLI input).
type InvalidConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidConfigError) Error() string {
	return "config: invalid " + e.Field + " = " + e.Value + ": " + e.Err.Error()
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }
