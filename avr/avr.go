package avr

import (
	"fmt"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/expr"
)

// ResolvedOperand is one operand with every expression it carries already
// evaluated to an integer.
type ResolvedOperand struct {
	Kind    ast.OperandKind
	Reg     int
	Hi, Lo  int
	Value   int
	Pointer byte
	Mode    ast.PointerMode
	Disp    int
}

// Resolve evaluates one operand expression to an integer. Encode calls it,
// after layout, for each expression an instruction's Operands carry, to
// build their ResolvedOperands.
type Resolve func(e *expr.Expr) (int, error)

func resolveOperands(resolve Resolve, operands []ast.Operand) ([]ResolvedOperand, error) {
	out := make([]ResolvedOperand, len(operands))
	for i, op := range operands {
		r := ResolvedOperand{Kind: op.Kind, Reg: op.Reg, Hi: op.Hi, Lo: op.Lo, Pointer: op.Pointer, Mode: op.Mode}
		if op.Kind == ast.OpExpr {
			v, err := resolve(op.Expr)
			if err != nil {
				return nil, &symbolError{err}
			}
			r.Value = v
		}
		if op.Mode == ast.PtrDisp {
			v, err := resolve(op.Disp)
			if err != nil {
				return nil, &symbolError{err}
			}
			r.Disp = v
		}
		out[i] = r
	}
	return out, nil
}

// symbolError marks a failure to resolve an operand expression (undefined
// name, cycle) as distinct from a structural encode failure, so a caller
// can report it as a SymbolError rather than an EncodeError.
type symbolError struct{ err error }

func (e *symbolError) Error() string { return e.err.Error() }
func (e *symbolError) Unwrap() error { return e.err }

// IsSymbolError reports whether err originated from resolving an operand
// expression, rather than from instruction-shape or range validation.
func IsSymbolError(err error) bool {
	_, ok := err.(*symbolError)
	return ok
}

// IsRangeError reports whether err is an out-of-range immediate,
// displacement, or register selection raised by an encode closure.
func IsRangeError(err error) bool {
	_, ok := err.(*rangeError)
	return ok
}

// variant is one operand-signature overload of a mnemonic.
type variant struct {
	sigs   []sig
	length int
	encode func(pc int, ops []ResolvedOperand) ([]uint16, error)
}

func find(mnemonic string, operands []ast.Operand) (*variant, error) {
	vs, ok := table[mnemonic]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic '%s'", mnemonic)
	}
	for i := range vs {
		if sigsMatch(vs[i].sigs, operands) {
			return &vs[i], nil
		}
	}
	return nil, fmt.Errorf("no matching instruction form for '%s' with the given operands", mnemonic)
}

// Length returns the instruction's encoded length in bytes (2 or 4),
// without needing any operand resolved — the variant is picked by operand
// shape alone, never by value.
func Length(mnemonic string, operands []ast.Operand) (int, error) {
	v, err := find(mnemonic, operands)
	if err != nil {
		return 0, err
	}
	return v.length, nil
}

// Encode resolves every operand expression via resolve and emits the
// instruction's words as little-endian bytes.
func Encode(mnemonic string, pc int, operands []ast.Operand, resolve Resolve) ([]byte, error) {
	v, err := find(mnemonic, operands)
	if err != nil {
		return nil, err
	}
	ops, err := resolveOperands(resolve, operands)
	if err != nil {
		return nil, err
	}
	words, err := v.encode(pc, ops)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w&0xFF), byte(w>>8))
	}
	return out, nil
}

// KnownMnemonic reports whether name has at least one table entry,
// independent of operand shape; the symbol table uses it to reject a
// mnemonic as a .equ/.default name.
func KnownMnemonic(name string) bool {
	_, ok := table[name]
	return ok
}
