// Package symtab implements the assembler's symbol environment: a name ->
// value map with strong (.equ) and weak (.default) bindings, built-in
// register/SFR names, and cycle-safe transitive resolution of identifiers
// that reference other identifiers.
package symtab

import (
	"fmt"
	"strings"

	"github.com/beevik/rasm/avr"
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
)

// Strength records whether a binding came from .equ (Strong) or .default
// (Weak). A Strong binding overrides a Weak one; two Strong bindings for
// the same name is an error.
type Strength byte

const (
	Weak Strength = iota
	Strong
	Builtin // reserved names: registers, X/Y/Z, SFR aliases
)

type binding struct {
	expr     *expr.Expr
	strength Strength
	line     fstring.FString
}

// Table is the symbol environment. The zero value is not usable; call New.
type Table struct {
	bindings map[string]*binding
	visiting map[string]bool
}

func New() *Table {
	t := &Table{
		bindings: make(map[string]*binding),
		visiting: make(map[string]bool),
	}
	t.seedBuiltins()
	return t
}

func (t *Table) seedBuiltins() {
	for i := 0; i < 32; i++ {
		t.defineBuiltin(fmt.Sprintf("r%d", i), i)
	}
	for name, value := range sfrAliases {
		t.defineBuiltin(name, value)
	}
}

func (t *Table) defineBuiltin(name string, value int) {
	t.bindings[strings.ToLower(name)] = &binding{
		expr:     &expr.Expr{Op: expr.Number, Value: value, Evaluated: true},
		strength: Builtin,
	}
}

// IsReserved reports whether name names a register, a pointer register, or
// a known instruction mnemonic, and so cannot be the target of a
// .equ/.default directive.
func IsReserved(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := reservedIdentifiers[name]; ok {
		return true
	}
	if len(lower) >= 2 && lower[0] == 'r' {
		allDigits := true
		for _, c := range lower[1:] {
			if c < '0' || c > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return true
		}
	}
	return avr.KnownMnemonic(lower)
}

// reservedIdentifiers holds the pointer register names, which the parser
// recognizes in upper case only.
var reservedIdentifiers = map[string]bool{
	"X": true, "Y": true, "Z": true,
}

// DefineStrong installs a .equ binding. It is an error to redefine a
// Strong binding, or to bind a reserved identifier.
func (t *Table) DefineStrong(name string, e *expr.Expr, line fstring.FString) error {
	key := name // user identifiers are case-sensitive
	if IsReserved(name) {
		return fmt.Errorf("'%s' is a reserved register or mnemonic name", name)
	}
	if b, ok := t.bindings[key]; ok && b.strength == Strong {
		return fmt.Errorf("symbol '%s' already strongly defined", name)
	}
	t.bindings[key] = &binding{expr: e, strength: Strong, line: line}
	return nil
}

// DefineWeak installs a .default binding. It has no effect if a Strong or
// Weak binding for the same name already exists.
func (t *Table) DefineWeak(name string, e *expr.Expr, line fstring.FString) error {
	if IsReserved(name) {
		return fmt.Errorf("'%s' is a reserved register or mnemonic name", name)
	}
	if _, ok := t.bindings[name]; ok {
		return nil
	}
	t.bindings[name] = &binding{expr: e, strength: Weak, line: line}
	return nil
}

// DefineLabel installs a label's resolved address as a Strong constant.
// Labels and .equ/.default names share one namespace, so a label colliding
// with an existing Strong binding is an error.
func (t *Table) DefineLabel(name string, addr int) error {
	if b, ok := t.bindings[name]; ok && b.strength == Strong {
		return fmt.Errorf("label '%s' collides with an existing definition", name)
	}
	t.bindings[name] = &binding{
		expr:     &expr.Expr{Op: expr.Number, Value: addr, Evaluated: true},
		strength: Strong,
	}
	return nil
}

// Lookup resolves name to its binding, if any.
func (t *Table) Lookup(name string) (*binding, bool) {
	b, ok := t.bindings[name]
	if !ok {
		// Built-ins are seeded lower-case; registers/keywords are
		// case-insensitive.
		b, ok = t.bindings[strings.ToLower(name)]
		if !ok || b.strength != Builtin {
			return nil, false
		}
	}
	return b, true
}

// Resolver returns an expr.Resolver bound to this table, suitable for
// passing to (*expr.Expr).Eval. It detects reference cycles using a
// per-call visiting set.
func (t *Table) Resolver() expr.Resolver {
	return t.resolve
}

func (t *Table) resolve(name string) (int, bool, error) {
	b, ok := t.Lookup(name)
	if !ok {
		return 0, false, nil
	}
	if t.visiting[name] {
		return 0, false, fmt.Errorf("cyclic definition of '%s'", name)
	}
	t.visiting[name] = true
	defer delete(t.visiting, name)

	ok2, err := b.expr.Eval(t.resolve)
	if err != nil {
		return 0, false, err
	}
	if !ok2 {
		return 0, false, nil
	}
	return b.expr.Value, true, nil
}

// Has reports whether name has any binding at all (built-in, weak, or
// strong).
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Entry is one resolved, non-built-in binding, for dumping the symbol
// environment to a map file or an inspector.
type Entry struct {
	Value    int
	Strength Strength
}

// All returns every user-defined (non-built-in) binding that currently
// resolves to a value. Bindings that can't yet resolve (a stale forward
// reference in a malformed program) are simply omitted.
func (t *Table) All() map[string]Entry {
	out := make(map[string]Entry, len(t.bindings))
	for name, b := range t.bindings {
		if b.strength == Builtin {
			continue
		}
		if ok, err := b.expr.Eval(t.resolve); err == nil && ok {
			out[name] = Entry{Value: b.expr.Value, Strength: b.strength}
		}
	}
	return out
}
