// Package checkerrors defines the sentinel error kinds of spec
// section 7, each wrapped with %w so callers can distinguish them with
// errors.Is while still getting a human-readable message.
package checkerrors

import "errors"

var (
	// ErrParseFailure is raised by external collaborators (the
	// hyperproperty grammar parser, the PRISM-subset MDP loader) and
	// surfaced upstream unchanged.
	ErrParseFailure = errors.New("parse failure")

	// ErrMalformedQuantifierPrefix: state or stutter variables are not
	// numbered 1..n in order.
	ErrMalformedQuantifierPrefix = errors.New("malformed quantifier prefix")

	// ErrQuantifierCoverage: a state variable has no matching stutter
	// quantifier, or a stutter refers to a non-existent state.
	ErrQuantifierCoverage = errors.New("quantifier coverage violation")

	// ErrQuantifierScoping: a stutter variable appears in the body but
	// is not quantified, or vice versa.
	ErrQuantifierScoping = errors.New("quantifier scoping violation")

	// ErrUnsupportedOperator: a formula node the encoder does not
	// handle (e.g. a forall-scheduler formula when the dualized
	// encoding is disabled; see DESIGN.md's Open Question resolution).
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrSolverUnknown: the solver returned UNKNOWN; the decision is
	// not determined. This is a result, not a failure.
	ErrSolverUnknown = errors.New("solver returned unknown")

	// ErrSolverFailure: the solver process signaled an internal error.
	ErrSolverFailure = errors.New("solver failure")
)
