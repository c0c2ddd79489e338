package mdpmodel

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrism reads the PRISM-subset described in SPEC_FULL.md section 6:
// a single "dtmc" or "mdp" type declaration, one "module ... endmodule"
// block declaring one bounded integer variable, "[action] guard ->
// p1:upd1 + p2:upd2 + ...;" commands whose guards and updates are
// equalities on that one variable, and "label "name" = expr;"
// declarations whose expr is a disjunction of equalities on that
// variable.
//
// This is deliberately a subset: spec section 1 places the full
// PRISM-language parser outside the core's scope ("The PRISM-language
// MDP parser producing the MDP value" is an external collaborator).
// This parser exists only so the CLI and end-to-end tests have a real
// model loader to call; the encoder itself depends only on the *Model
// type, never on this parser.
func ParsePrism(r io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(r)
	b := NewBuilder()

	var varName string
	var varLo, varHi, varInit int
	haveVar := false

	varDeclRe := regexp.MustCompile(`^(\w+)\s*:\s*\[\s*(-?\d+)\s*\.\.\s*(-?\d+)\s*\]\s*init\s+(-?\d+)\s*;$`)
	commandRe := regexp.MustCompile(`^\[([^\]]*)\]\s*(.+?)\s*->\s*(.+);$`)
	labelRe := regexp.MustCompile(`^label\s+"([^"]+)"\s*=\s*(.+);$`)

	inModule := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "dtmc" || line == "mdp" || line == "ctmc":
			// model-type declaration; not otherwise load-bearing for the
			// finite MDP representation the encoder consumes.
		case strings.HasPrefix(line, "module "):
			if inModule {
				return nil, fmt.Errorf("mdpmodel: line %d: nested module not supported", lineNo)
			}
			inModule = true
		case line == "endmodule":
			inModule = false
		case inModule && varDeclRe.MatchString(line):
			m := varDeclRe.FindStringSubmatch(line)
			if haveVar {
				return nil, fmt.Errorf("mdpmodel: line %d: only a single module variable is supported", lineNo)
			}
			varName = m[1]
			varLo, _ = strconv.Atoi(m[2])
			varHi, _ = strconv.Atoi(m[3])
			varInit, _ = strconv.Atoi(m[4])
			haveVar = true
			for v := varLo; v <= varHi; v++ {
				b.AddState(State(v))
			}
		case inModule && commandRe.MatchString(line):
			if !haveVar {
				return nil, fmt.Errorf("mdpmodel: line %d: command before variable declaration", lineNo)
			}
			m := commandRe.FindStringSubmatch(line)
			action := strings.TrimSpace(m[1])
			if action == "" {
				action = fmt.Sprintf("tau_%d", lineNo)
			}
			guardStates, err := evalGuard(m[2], varName, varLo, varHi)
			if err != nil {
				return nil, fmt.Errorf("mdpmodel: line %d: %w", lineNo, err)
			}
			updates, err := parseUpdates(m[3], varName)
			if err != nil {
				return nil, fmt.Errorf("mdpmodel: line %d: %w", lineNo, err)
			}
			for _, s := range guardStates {
				for _, u := range updates {
					b.AddTransition(State(s), action, State(u.succ), u.prob)
				}
			}
		case labelRe.MatchString(line):
			m := labelRe.FindStringSubmatch(line)
			name := m[1]
			states, err := evalGuard(m[2], varName, varLo, varHi)
			if err != nil {
				return nil, fmt.Errorf("mdpmodel: line %d: %w", lineNo, err)
			}
			for _, s := range states {
				b.AddLabel(State(s), name)
			}
		default:
			return nil, fmt.Errorf("mdpmodel: line %d: unrecognized PRISM-subset line: %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mdpmodel: %w", err)
	}
	if !haveVar {
		return nil, fmt.Errorf("mdpmodel: no module variable declared")
	}
	_ = varInit // the initial state is a front-end notion; the core treats every state as a potential quantifier instantiation.
	return b.Build(), nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

type update struct {
	succ int
	prob decimal.Decimal
}

// parseUpdates parses "p1:(v'=x1) + p2:(v'=x2) + ..." or the
// probability-elided single-branch form "(v'=x1)".
func parseUpdates(s string, varName string) ([]update, error) {
	branchRe := regexp.MustCompile(`^\(\s*` + regexp.QuoteMeta(varName) + `'\s*=\s*(-?\d+)\s*\)$`)
	var out []update
	for _, branch := range strings.Split(s, "+") {
		branch = strings.TrimSpace(branch)
		var probStr, updStr string
		if i := strings.Index(branch, ":"); i >= 0 {
			probStr, updStr = strings.TrimSpace(branch[:i]), strings.TrimSpace(branch[i+1:])
		} else {
			probStr, updStr = "1", branch
		}
		p, err := decimal.NewFromString(probStr)
		if err != nil {
			return nil, fmt.Errorf("bad probability %q: %w", probStr, err)
		}
		m := branchRe.FindStringSubmatch(updStr)
		if m == nil {
			return nil, fmt.Errorf("unsupported update expression %q", updStr)
		}
		succ, _ := strconv.Atoi(m[1])
		out = append(out, update{succ: succ, prob: p})
	}
	return out, nil
}

// evalGuard evaluates a disjunction of "varName=k" equalities (joined by
// "|") against the variable's domain, returning the matching states.
func evalGuard(expr, varName string, lo, hi int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "true" {
		out := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			out = append(out, v)
		}
		return out, nil
	}
	eqRe := regexp.MustCompile(`^` + regexp.QuoteMeta(varName) + `\s*=\s*(-?\d+)$`)
	var out []int
	for _, disj := range strings.Split(expr, "|") {
		disj = strings.TrimSpace(disj)
		m := eqRe.FindStringSubmatch(disj)
		if m == nil {
			return nil, fmt.Errorf("unsupported guard clause %q", disj)
		}
		v, _ := strconv.Atoi(m[1])
		out = append(out, v)
	}
	return out, nil
}
