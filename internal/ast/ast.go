// Package ast defines the parsed-item and operand data model C2 (the
// parser) produces and C3-C5 (symbol environment, layout, encoder) consume.
package ast

import (
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
)

// Item is one parsed line's worth of assembly: a label, an instruction, or
// a data/alignment directive. Symbol directives (.equ/.default) are kept
// in a separate pending list (see SymbolDirective) since the symbol
// environment, not the item list, owns them.
type Item interface {
	isItem()
}

// Label marks the current address with a name.
type Label struct {
	Name string
	Line fstring.FString
}

func (*Label) isItem() {}

// Instruction is a mnemonic plus its operand list.
type Instruction struct {
	Mnemonic string
	Operands []Operand
	Line     fstring.FString
}

func (*Instruction) isItem() {}

// ByteData is a `.byte` directive: one or more expressions, each one byte.
type ByteData struct {
	Exprs []*expr.Expr
	Line  fstring.FString
}

func (*ByteData) isItem() {}

// WordData is a `.word` directive: one or more expressions, each two bytes
// (little-endian).
type WordData struct {
	Exprs []*expr.Expr
	Line  fstring.FString
}

func (*WordData) isItem() {}

// Align advances the cursor to the next multiple of N.
type Align struct {
	N    int
	Line fstring.FString
}

func (*Align) isItem() {}

// Section marks a named section boundary (`.section NAME`). Only `.text`
// bytes are emitted to the image; `.data` reservations participate in
// layout only.
type Section struct {
	Name string
	Line fstring.FString
}

func (*Section) isItem() {}

// Global records a `.global NAME` declaration. It has no effect on layout
// or encoding (there is no linker) but is accepted and recorded so a
// well-formed source file referencing entry points doesn't fail to parse.
type Global struct {
	Name string
	Line fstring.FString
}

func (*Global) isItem() {}

// SymbolKind distinguishes .equ (Strong) from .default (Weak) directives.
type SymbolKind byte

const (
	Equ SymbolKind = iota
	Default
)

// SymbolDirective is a pending .equ/.default binding, applied to the
// symbol environment in source order by C3.
type SymbolDirective struct {
	Kind SymbolKind
	Name string
	Expr *expr.Expr
	Line fstring.FString
}

// OperandKind distinguishes the operand forms an instruction can take.
type OperandKind byte

const (
	OpRegister OperandKind = iota
	OpRegisterPair
	OpExpr
	OpIndirect
)

// PointerMode describes how an X/Y/Z indirect operand is used.
type PointerMode byte

const (
	PtrPlain   PointerMode = iota // X, Y, Z
	PtrPostInc                    // X+, Y+, Z+
	PtrPreDec                     // -X, -Y, -Z
	PtrDisp                       // Y+q, Z+q
)

// Operand is one instruction operand.
type Operand struct {
	Kind OperandKind

	// OpRegister
	Reg int

	// OpRegisterPair (rN:rM written explicitly in source, e.g. r1:r0)
	Hi, Lo int

	// OpExpr
	Expr *expr.Expr

	// OpIndirect
	Pointer byte // 'X', 'Y', or 'Z'
	Mode    PointerMode
	Disp    *expr.Expr // non-nil when Mode == PtrDisp
}
