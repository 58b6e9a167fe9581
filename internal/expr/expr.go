// Package expr implements the assembler's expression trees: integer and
// identifier leaves, unary and binary operators, and lo8/hi8 functions,
// evaluated lazily against a caller-supplied identifier resolver so that
// forward references are simply deferred rather than special-cased.
package expr

import (
	"fmt"

	"github.com/beevik/rasm/internal/fstring"
)

// Op identifies the kind of expression node.
type Op byte

const (
	Number Op = iota
	Identifier
	Neg      // unary -
	BitNeg   // unary ~
	Not      // unary !
	Lo8      // lo8(e)
	Hi8      // hi8(e)
	Add      // +
	Sub      // -
	Mul      // *
	Div      // /
	Mod      // %
	And      // &
	Or       // |
	Xor      // ^
	Shl      // <<
	Shr      // >>

	// pseudo-ops, used only while parsing
	LeftParen
	RightParen
)

// An opdata entry describes one binary or unary operator: its precedence
// (higher binds tighter), associativity, and the number of operands.
type opdata struct {
	precedence      byte
	children        int
	leftAssociative bool
	symbol          string
}

var ops = map[Op]opdata{
	Neg:    {7, 1, false, "-"},
	BitNeg: {7, 1, false, "~"},
	Not:    {7, 1, false, "!"},
	Mul:    {6, 2, true, "*"},
	Div:    {6, 2, true, "/"},
	Mod:    {6, 2, true, "%"},
	Add:    {5, 2, true, "+"},
	Sub:    {5, 2, true, "-"},
	Shl:    {4, 2, true, "<<"},
	Shr:    {4, 2, true, ">>"},
	And:    {3, 2, true, "&"},
	Xor:    {2, 2, true, "^"},
	Or:     {1, 2, true, "|"},
}

func (op Op) isBinary() bool {
	return ops[op].children == 2
}

func (op Op) isCollapsible() bool {
	return ops[op].precedence > 0
}

// Collapses reports whether the shunting-yard algorithm should collapse an
// expression node for 'other' before pushing 'op'.
func (op Op) Collapses(other Op) bool {
	d, od := ops[op], ops[other]
	if d.leftAssociative {
		return d.precedence <= od.precedence
	}
	return d.precedence < od.precedence
}

// An Expr is a single node in an expression tree. The root node represents
// an entire expression.
type Expr struct {
	Line       fstring.FString // start of the expression, for diagnostics
	Op         Op
	Value      int // resolved value, once Evaluated
	Evaluated  bool
	Identifier fstring.FString // if Op == Identifier
	Child0     *Expr
	Child1     *Expr
}

// Resolver resolves a named value (register, SFR alias, label, .equ/.default
// binding) to an integer. It returns false (not an error) for a name with
// no binding, and an error for a fault such as a cycle.
type Resolver func(name string) (int, bool, error)

// Eval attempts to evaluate the expression tree against resolve. It returns
// false (not an error) when an identifier the expression depends on isn't
// yet resolvable, so callers can retry after more bindings are known. It
// returns an error for a detected fault (division by zero, negative shift
// amount, or an error from the resolver itself, e.g. a symbol cycle).
func (e *Expr) Eval(resolve Resolver) (bool, error) {
	if e.Evaluated {
		return true, nil
	}

	switch e.Op {
	case Number:
		e.Evaluated = true
		return true, nil

	case Identifier:
		v, ok, err := resolve(e.Identifier.Str)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		e.Value, e.Evaluated = v, true
		return true, nil

	case Neg, BitNeg, Not, Lo8, Hi8:
		ok, err := e.Child0.Eval(resolve)
		if err != nil || !ok {
			return false, err
		}
		switch e.Op {
		case Neg:
			e.Value = -e.Child0.Value
		case BitNeg:
			e.Value = ^e.Child0.Value
		case Not:
			if e.Child0.Value == 0 {
				e.Value = 1
			} else {
				e.Value = 0
			}
		case Lo8:
			e.Value = e.Child0.Value & 0xff
		case Hi8:
			e.Value = (e.Child0.Value >> 8) & 0xff
		}
		e.Evaluated = true
		return true, nil

	default: // binary
		ok0, err := e.Child0.Eval(resolve)
		if err != nil {
			return false, err
		}
		ok1, err := e.Child1.Eval(resolve)
		if err != nil {
			return false, err
		}
		if !ok0 || !ok1 {
			return false, nil
		}
		a, b := e.Child0.Value, e.Child1.Value
		switch e.Op {
		case Add:
			e.Value = a + b
		case Sub:
			e.Value = a - b
		case Mul:
			e.Value = a * b
		case Div:
			if b == 0 {
				return false, fmt.Errorf("division by zero")
			}
			e.Value = a / b
		case Mod:
			if b == 0 {
				return false, fmt.Errorf("division by zero")
			}
			e.Value = a % b
		case Shl:
			if b < 0 {
				return false, fmt.Errorf("shift by negative amount")
			}
			e.Value = a << uint(b)
		case Shr:
			if b < 0 {
				return false, fmt.Errorf("shift by negative amount")
			}
			e.Value = a >> uint(b)
		case And:
			e.Value = a & b
		case Or:
			e.Value = a | b
		case Xor:
			e.Value = a ^ b
		}
		e.Evaluated = true
		return true, nil
	}
}

// String renders the expression in postfix notation.
func (e *Expr) String() string {
	switch e.Op {
	case Number:
		return fmt.Sprintf("%d", e.Value)
	case Identifier:
		return e.Identifier.Str
	case Neg, BitNeg, Not, Lo8, Hi8:
		return fmt.Sprintf("%s [%s]", e.Child0.String(), ops[e.Op].symbol)
	default:
		if e.Op.isBinary() {
			return fmt.Sprintf("%s %s %s", e.Child0.String(), e.Child1.String(), ops[e.Op].symbol)
		}
		return ""
	}
}
