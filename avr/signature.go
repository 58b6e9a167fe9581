// Package avr implements C5, the AVR instruction encoder: a table-driven
// mnemonic dispatcher mapping an operand signature to opcode length and an
// encode function, plus the PC-relative and absolute displacement checks
// the AVR encoding rules require.
package avr

import (
	"github.com/beevik/rasm/internal/ast"
)

// sig is a single operand's shape, independent of its resolved value —
// enough to pick an instruction variant during layout, before any operand
// expression has been evaluated.
type sig byte

const (
	sigReg sig = iota
	sigRegPair
	sigImm
	sigIndX
	sigIndXInc
	sigIndXDec
	sigIndY
	sigIndYInc
	sigIndYDec
	sigIndYDisp
	sigIndZ
	sigIndZInc
	sigIndZDec
	sigIndZDisp
)

func operandSig(op ast.Operand) sig {
	switch op.Kind {
	case ast.OpRegister:
		return sigReg
	case ast.OpRegisterPair:
		return sigRegPair
	case ast.OpExpr:
		return sigImm
	case ast.OpIndirect:
		switch op.Pointer {
		case 'X':
			switch op.Mode {
			case ast.PtrPostInc:
				return sigIndXInc
			case ast.PtrPreDec:
				return sigIndXDec
			default:
				return sigIndX
			}
		case 'Y':
			switch op.Mode {
			case ast.PtrPostInc:
				return sigIndYInc
			case ast.PtrPreDec:
				return sigIndYDec
			case ast.PtrDisp:
				return sigIndYDisp
			default:
				return sigIndY
			}
		default: // 'Z'
			switch op.Mode {
			case ast.PtrPostInc:
				return sigIndZInc
			case ast.PtrPreDec:
				return sigIndZDec
			case ast.PtrDisp:
				return sigIndZDisp
			default:
				return sigIndZ
			}
		}
	}
	return sigImm
}

func sigsMatch(sigs []sig, ops []ast.Operand) bool {
	if len(sigs) != len(ops) {
		return false
	}
	for i, s := range sigs {
		if s != operandSig(ops[i]) {
			return false
		}
	}
	return true
}
