package symtab

import (
	"testing"

	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
)

func num(v int) *expr.Expr {
	return &expr.Expr{Op: expr.Number, Value: v, Evaluated: true}
}

func TestDefaultAloneResolves(t *testing.T) {
	tab := New()
	if err := tab.DefineWeak("x", num(3), fstring.FString{}); err != nil {
		t.Fatalf("DefineWeak: %v", err)
	}
	v, ok, err := tab.Resolver()("x")
	if err != nil || !ok || v != 3 {
		t.Fatalf("expected x=3, got v=%d ok=%v err=%v", v, ok, err)
	}
}

func TestEquOverridesDefault(t *testing.T) {
	tab := New()
	if err := tab.DefineWeak("x", num(3), fstring.FString{}); err != nil {
		t.Fatalf("DefineWeak: %v", err)
	}
	if err := tab.DefineStrong("x", num(5), fstring.FString{}); err != nil {
		t.Fatalf("DefineStrong: %v", err)
	}
	v, ok, err := tab.Resolver()("x")
	if err != nil || !ok || v != 5 {
		t.Fatalf("expected x=5, got v=%d ok=%v err=%v", v, ok, err)
	}
}

func TestDuplicateStrongFails(t *testing.T) {
	tab := New()
	if err := tab.DefineStrong("x", num(1), fstring.FString{}); err != nil {
		t.Fatalf("DefineStrong: %v", err)
	}
	if err := tab.DefineStrong("x", num(2), fstring.FString{}); err == nil {
		t.Fatal("expected an error redefining a strong binding")
	}
}

func TestReservedRegisterNameRejected(t *testing.T) {
	tab := New()
	if err := tab.DefineStrong("r0", num(1), fstring.FString{}); err == nil {
		t.Fatal("expected an error binding a reserved register name")
	}
	if err := tab.DefineStrong("X", num(1), fstring.FString{}); err == nil {
		t.Fatal("expected an error binding a reserved pointer register name")
	}
}

func TestReservedMnemonicNameRejected(t *testing.T) {
	tab := New()
	if err := tab.DefineStrong("ldi", num(5), fstring.FString{}); err == nil {
		t.Fatal("expected an error binding a reserved mnemonic name")
	}
	if err := tab.DefineWeak("nop", num(1), fstring.FString{}); err == nil {
		t.Fatal("expected an error weakly binding a reserved mnemonic name")
	}
}

func TestBuiltinRegistersResolve(t *testing.T) {
	tab := New()
	v, ok, err := tab.Resolver()("r17")
	if err != nil || !ok || v != 17 {
		t.Fatalf("expected r17=17, got v=%d ok=%v err=%v", v, ok, err)
	}
}

func TestSelfReferenceCycleFails(t *testing.T) {
	tab := New()
	e := &expr.Expr{Op: expr.Identifier, Identifier: fstring.FString{Str: "a"}}
	if err := tab.DefineStrong("a", e, fstring.FString{}); err != nil {
		t.Fatalf("DefineStrong: %v", err)
	}
	_, _, err := tab.Resolver()("a")
	if err == nil {
		t.Fatal("expected a cycle error resolving a self-referential binding")
	}
}

func TestLabelCollidesWithStrongBinding(t *testing.T) {
	tab := New()
	if err := tab.DefineStrong("loop", num(1), fstring.FString{}); err != nil {
		t.Fatalf("DefineStrong: %v", err)
	}
	if err := tab.DefineLabel("loop", 100); err == nil {
		t.Fatal("expected an error defining a label that collides with a strong binding")
	}
}

func TestAllOmitsBuiltins(t *testing.T) {
	tab := New()
	if err := tab.DefineStrong("x", num(1), fstring.FString{}); err != nil {
		t.Fatalf("DefineStrong: %v", err)
	}
	all := tab.All()
	if _, ok := all["r0"]; ok {
		t.Error("expected builtin register names to be excluded from All()")
	}
	entry, ok := all["x"]
	if !ok || entry.Value != 1 || entry.Strength != Strong {
		t.Errorf("expected x={1,Strong}, got %#v ok=%v", entry, ok)
	}
}
