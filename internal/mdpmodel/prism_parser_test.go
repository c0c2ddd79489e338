package mdpmodel

import (
	"strings"
	"testing"
)

const coinFlipPrism = `
dtmc

module coin
  s : [0..2] init 0;
  [] s=0 -> 0.5:(s'=1) + 0.5:(s'=2);
  [] s=1 -> 1:(s'=1);
  [] s=2 -> 1:(s'=2);
endmodule

label "end" = s=1 | s=2;
`

func TestParsePrismCoinFlip(t *testing.T) {
	model, err := ParsePrism(strings.NewReader(coinFlipPrism))
	if err != nil {
		t.Fatalf("ParsePrism: %v", err)
	}
	if err := model.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(model.States()) != 3 {
		t.Fatalf("expected 3 states, got %d", len(model.States()))
	}
	// ParsePrism names an unlabeled command tau_<line>; state 0's
	// command is on line 6 of coinFlipPrism.
	succ := model.Successors(0, "tau_6")
	if len(succ) != 2 {
		t.Fatalf("expected state 0 to have 2 successors, got %d", len(succ))
	}
	if !model.HasLabel(1, "end") || !model.HasLabel(2, "end") {
		t.Error("expected end label on states 1 and 2")
	}
	if model.HasLabel(0, "end") {
		t.Error("state 0 should not carry the end label")
	}
}

func TestParsePrismRejectsUnsupported(t *testing.T) {
	bad := "dtmc\nmodule m\n  x : [0..1] init 0;\nendmodule\nfoo bar baz;\n"
	if _, err := ParsePrism(strings.NewReader(bad)); err == nil {
		t.Error("expected an error for an unrecognized line")
	}
}
