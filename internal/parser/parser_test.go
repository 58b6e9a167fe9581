package parser

import (
	"strings"
	"testing"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/asmerr"
)

func parse(t *testing.T, src string) *Result {
	t.Helper()
	p := New("test")
	r, err := p.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return r
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	p := New("test")
	_, err := p.Parse(strings.NewReader(src))
	if err == nil {
		t.Fatalf("expected a parse error for %q, got none", src)
	}
	return err
}

func TestParseLabelAndInstruction(t *testing.T) {
	r := parse(t, "start: rjmp start\n")
	if len(r.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(r.Items))
	}
	lbl, ok := r.Items[0].(*ast.Label)
	if !ok || lbl.Name != "start" {
		t.Errorf("expected label 'start', got %#v", r.Items[0])
	}
	inst, ok := r.Items[1].(*ast.Instruction)
	if !ok || inst.Mnemonic != "rjmp" {
		t.Errorf("expected instruction 'rjmp', got %#v", r.Items[1])
	}
}

func TestParseEquRegisterPair(t *testing.T) {
	r := parse(t, ".equ dstpair = r1:r0\n")
	if len(r.Symbols) != 1 {
		t.Fatalf("expected 1 symbol directive, got %d", len(r.Symbols))
	}
	sd := r.Symbols[0]
	if sd.Kind != ast.Equ || sd.Name != "dstpair" {
		t.Fatalf("unexpected symbol directive %#v", sd)
	}
	ok, err := sd.Expr.Eval(func(string) (int, bool, error) { return 0, false, nil })
	if err != nil || !ok {
		t.Fatalf("expected the synthetic pair expression to already be evaluated, got ok=%v err=%v", ok, err)
	}
	if sd.Expr.Value != 0 {
		t.Errorf("expected pair r1:r0's low register (0), got %d", sd.Expr.Value)
	}
}

func TestParseEquRegisterPairNonAdjacent(t *testing.T) {
	err := parseErr(t, ".equ bad = r2:r0\n")
	e, ok := err.(*asmerr.Error)
	if !ok || e.Kind != asmerr.Range {
		t.Errorf("expected a RangeError, got %v", err)
	}
}

func TestParseReptZeroExpansion(t *testing.T) {
	r := parse(t, ".rept 0\nnop\n.endr\n")
	if len(r.Items) != 0 {
		t.Errorf("expected .rept 0 to expand to nothing, got %d items", len(r.Items))
	}
}

func TestParseReptExpansion(t *testing.T) {
	r := parse(t, ".rept 3\nnop\n.endr\n")
	if len(r.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(r.Items))
	}
	for _, it := range r.Items {
		inst, ok := it.(*ast.Instruction)
		if !ok || inst.Mnemonic != "nop" {
			t.Errorf("expected 'nop', got %#v", it)
		}
	}
}

func TestParseReptRejectsLabels(t *testing.T) {
	err := parseErr(t, ".rept 2\nloop: nop\n.endr\n")
	e, ok := err.(*asmerr.Error)
	if !ok || e.Kind != asmerr.Directive {
		t.Errorf("expected a DirectiveError, got %v", err)
	}
}

func TestParseLocalLabels(t *testing.T) {
	r := parse(t, "1: dec r16\n   brne 1b\n")
	if len(r.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(r.Items))
	}
	lbl, ok := r.Items[0].(*ast.Label)
	if !ok {
		t.Fatalf("expected a label first, got %#v", r.Items[0])
	}
	inst, ok := r.Items[2].(*ast.Instruction)
	if !ok || len(inst.Operands) != 1 || inst.Operands[0].Kind != ast.OpExpr {
		t.Fatalf("expected brne's operand to resolve to an expression referencing the local label, got %#v", r.Items[2])
	}
	ok2, err := inst.Operands[0].Expr.Eval(func(name string) (int, bool, error) {
		if name == lbl.Name {
			return 0, true, nil
		}
		return 0, false, nil
	})
	if err != nil || !ok2 {
		t.Fatalf("expected brne's local-label reference to resolve to '%s', got ok=%v err=%v", lbl.Name, ok2, err)
	}
}
