package solver

import (
	"errors"
	"testing"

	"github.com/gitrdm/hyperprobcheck/internal/checkerrors"
)

func TestParseResponseUnsat(t *testing.T) {
	v, model, err := parseResponse("unsat\n")
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if v != Unsat {
		t.Fatalf("expected Unsat, got %v", v)
	}
	if model != nil {
		t.Fatalf("expected nil model for unsat, got %v", model)
	}
}

func TestParseResponseUnknown(t *testing.T) {
	_, _, err := parseResponse("unknown\n")
	if !errors.Is(err, checkerrors.ErrSolverUnknown) {
		t.Fatalf("expected ErrSolverUnknown, got %v", err)
	}
}

func TestParseResponseSatWithModel(t *testing.T) {
	resp := "sat\n" +
		"(model\n" +
		"  (define-fun prob_1 () Real\n" +
		"    (/ 1.0 3.0))\n" +
		"  (define-fun a_1_0 () Real\n" +
		"    0.5)\n" +
		"  (define-fun holds_1 () Bool\n" +
		"    true)\n" +
		"  (define-fun d_2 () Real\n" +
		"    (- 1.0))\n" +
		")\n"
	v, model, err := parseResponse(resp)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if v != Sat {
		t.Fatalf("expected Sat, got %v", v)
	}
	if model["prob_1"] != "1.0/3.0" {
		t.Errorf("expected fraction rendering, got %q", model["prob_1"])
	}
	if model["a_1_0"] != "0.5" {
		t.Errorf("expected 0.5, got %q", model["a_1_0"])
	}
	if model["holds_1"] != "true" {
		t.Errorf("expected true, got %q", model["holds_1"])
	}
	if model["d_2"] != "-1.0" {
		t.Errorf("expected -1.0, got %q", model["d_2"])
	}
}

func TestParseRealLiteral(t *testing.T) {
	f, err := ParseRealLiteral("1/3")
	if err != nil {
		t.Fatalf("ParseRealLiteral: %v", err)
	}
	if f < 0.333 || f > 0.334 {
		t.Errorf("expected ~1/3, got %v", f)
	}
	f2, err := ParseRealLiteral("-1.0")
	if err != nil {
		t.Fatalf("ParseRealLiteral: %v", err)
	}
	if f2 != -1.0 {
		t.Errorf("expected -1.0, got %v", f2)
	}
}

func TestParseResponseUnrecognized(t *testing.T) {
	_, _, err := parseResponse("error \"boom\"\n")
	if !errors.Is(err, checkerrors.ErrSolverFailure) {
		t.Fatalf("expected ErrSolverFailure, got %v", err)
	}
}
