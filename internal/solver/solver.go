// Package solver shells out to an external SMT solver process (e.g. a
// z3 build supporting QF_NRA) and parses its SMT-LIB2 response. No Go
// SMT binding exists in the retrieved dependency corpus, so submission
// goes over a subprocess's stdin/stdout exactly as the original
// implementation does, wrapped with a bounded retry for transient
// process-spawn failures (a pipe that isn't ready yet, a solver binary
// still being installed by a sibling CI step).
package solver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
	"github.com/gitrdm/hyperprobcheck/internal/smtterm"
)

// Verdict is the three-valued outcome of a (check-sat) query.
type Verdict int

const (
	Unsat Verdict = iota
	Sat
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Config controls how the external solver process is invoked.
type Config struct {
	// Path is the solver executable, e.g. "z3".
	Path string
	// Args are extra command-line arguments, passed as given; a
	// z3-style stdin-driven solver needs "-in" here (DefaultConfig
	// includes it).
	Args []string
	// Timeout bounds a single (check-sat) round trip.
	Timeout time.Duration
	// MaxRetries bounds process-spawn retry attempts (not solving
	// retries: a returned sat/unsat/unknown is never retried).
	MaxRetries uint64
}

// DefaultConfig returns z3-oriented defaults.
func DefaultConfig() Config {
	return Config{
		Path:       "z3",
		Args:       []string{"-in"},
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// Solver drives one external solver process invocation per Solve call.
type Solver struct {
	cfg Config
	log *zap.Logger
}

// New builds a Solver. log may be nil, in which case a no-op logger is
// used.
func New(cfg Config, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{cfg: cfg, log: log}
}

// Model is a satisfying assignment: SMT-LIB symbol name to its textual
// value as reported by (get-model). The Result Extractor interprets
// these names through the Variable Registry's reverse lookup.
type Model map[string]string

// Solve submits program's SMT-LIB2 text to the configured solver
// process and returns its verdict, and, if sat, the model.
func (s *Solver) Solve(ctx context.Context, program *smtterm.Program) (Verdict, Model, error) {
	script := program.String()

	var stdout string
	op := func() error {
		out, err := s.runOnce(ctx, script)
		if err != nil {
			return err
		}
		stdout = out
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	retryer := backoff.WithMaxRetries(bo, s.cfg.MaxRetries)
	if err := backoff.Retry(op, retryer); err != nil {
		return Unknown, nil, fmt.Errorf("%w: solver process: %v", checkerrors.ErrSolverFailure, err)
	}

	return parseResponse(stdout)
}

func (s *Solver) runOnce(ctx context.Context, script string) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.cfg.Path, s.cfg.Args...)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.Debug("invoking solver", zap.String("path", s.cfg.Path), zap.Strings("args", s.cfg.Args))
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			// A round trip that ran out of time is the solver's
			// "unknown" verdict, not a process failure to retry.
			return "unknown", nil
		}
		return "", fmt.Errorf("%s: %v (stderr: %s)", s.cfg.Path, err, stderr.String())
	}
	return stdout.String(), nil
}

// parseResponse interprets a z3-style (check-sat) + (get-model)
// response. The model section, when present, is a sequence of
// (define-fun name () Sort value) forms; values for Real sorts may be
// rendered as a plain decimal, a unary minus application, or a
// (/ num den) division term, all of which are flattened to their
// textual form for the Result Extractor to re-parse as an exact
// big.Rat.
func parseResponse(out string) (Verdict, Model, error) {
	lines := strings.SplitN(strings.TrimSpace(out), "\n", 2)
	if len(lines) == 0 {
		return Unknown, nil, fmt.Errorf("%w: empty solver response", checkerrors.ErrSolverFailure)
	}
	head := strings.TrimSpace(lines[0])

	var verdict Verdict
	switch head {
	case "sat":
		verdict = Sat
	case "unsat":
		return Unsat, nil, nil
	case "unknown":
		return Unknown, nil, fmt.Errorf("%w", checkerrors.ErrSolverUnknown)
	default:
		return Unknown, nil, fmt.Errorf("%w: unrecognized solver response head %q", checkerrors.ErrSolverFailure, head)
	}

	model := make(Model)
	if len(lines) > 1 {
		parseModel(lines[1], model)
	}
	return verdict, model, nil
}

// parseModel extracts (define-fun name () Sort value) bindings from a
// parenthesized s-expression stream using simple depth tracking; the
// server's model output is not deeply nested beyond the value term
// itself.
func parseModel(body string, model Model) {
	toks := tokenizeSExpr(body)
	i := 0
	for i < len(toks) {
		if toks[i] == "(" && i+1 < len(toks) && toks[i+1] == "define-fun" {
			name := toks[i+2]
			// Skip the (possibly empty) argument list "(" ")" and the
			// sort token, then collect the value term up to the
			// matching close paren.
			j := i + 3
			depth := 0
			for j < len(toks) {
				if toks[j] == "(" {
					depth++
				} else if toks[j] == ")" {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			j++ // skip past "()"
			sort := toks[j]
			j++
			valStart := j
			depth = 0
			for j < len(toks) {
				if toks[j] == "(" {
					depth++
				} else if toks[j] == ")" {
					if depth == 0 {
						break
					}
					depth--
				}
				j++
			}
			value := flattenValue(toks[valStart:j], sort)
			model[name] = value
			i = j + 1
			continue
		}
		i++
	}
}

// flattenValue renders a value s-expression (a bare literal, a unary
// minus, or a division) as plain text, e.g. "(/ 1 3)" -> "1/3" and
// "(- 2)" -> "-2".
func flattenValue(toks []string, sort string) string {
	if len(toks) == 1 {
		return toks[0]
	}
	if len(toks) == 0 {
		return ""
	}
	if toks[0] == "(" {
		inner := toks[1 : len(toks)-1]
		if len(inner) == 2 && inner[0] == "-" {
			return "-" + inner[1]
		}
		if len(inner) == 3 && inner[0] == "/" {
			return inner[1] + "/" + inner[2]
		}
		if len(inner) == 1 {
			return inner[0]
		}
	}
	if sort == "Bool" {
		return strings.Join(toks, "")
	}
	return strings.Join(toks, " ")
}

func tokenizeSExpr(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	inQuote := false
	for _, r := range s {
		switch {
		case inQuote:
			// A |quoted| symbol is one token, named without its bars.
			if r == '|' {
				inQuote = false
				flush()
			} else {
				cur.WriteRune(r)
			}
		case r == '|':
			flush()
			inQuote = true
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\n' || r == '\t' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// ParseRealLiteral turns a flattened model value (an integer, a
// decimal, a "-"-prefixed negative, or a "num/den" fraction) into a
// float64 for display; exact rational reconstruction happens in
// internal/result via big.Rat, not here.
func ParseRealLiteral(v string) (float64, error) {
	if strings.Contains(v, "/") {
		parts := strings.SplitN(v, "/", 2)
		num, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, err
		}
		den, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, err
		}
		return num / den, nil
	}
	return strconv.ParseFloat(v, 64)
}
