package parser

import (
	"strings"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/asmerr"
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
)

// scanLocalRef recognizes "Nb" or "Nf" (a decimal local-label reference)
// at the start of line, provided it's not actually the start of a longer
// identifier or numeric literal (e.g. "1for" or "10basic" are rejected by
// requiring the character after 'b'/'f' not continue an identifier, and
// "10" followed by nothing is simply not matched at all).
func scanLocalRef(line fstring.FString) (digits fstring.FString, suffix byte, remain fstring.FString, ok bool) {
	d, rest := line.ConsumeWhile(fstring.Decimal)
	if d.IsEmpty() || rest.IsEmpty() {
		return digits, 0, line, false
	}
	c := rest.Str[0]
	if c != 'b' && c != 'f' && c != 'B' && c != 'F' {
		return digits, 0, line, false
	}
	after := rest.Consume(1)
	if after.StartsWith(fstring.IdentifierChar) {
		return digits, 0, line, false
	}
	if c == 'B' {
		c = 'b'
	} else if c == 'F' {
		c = 'f'
	}
	return d, c, after, true
}

// parseInstruction parses "mnemonic [operand [, operand]...]".
func (p *Parser) parseInstruction(line fstring.FString) error {
	mnemonic, rest := line.ConsumeWhile(fstring.IdentifierChar)
	if mnemonic.IsEmpty() {
		return p.errorAt(line, asmerr.Parse, "expected an instruction")
	}
	rest = rest.ConsumeWhitespace()

	var operands []ast.Operand
	for !rest.IsEmpty() {
		op, remain, err := p.parseOperand(rest)
		if err != nil {
			return err
		}
		operands = append(operands, op)
		remain = remain.ConsumeWhitespace()
		if remain.StartsWithChar(',') {
			rest = remain.Consume(1).ConsumeWhitespace()
			continue
		}
		rest = remain
		break
	}
	if err := p.expectEOL(rest); err != nil {
		return err
	}

	p.emit(&ast.Instruction{
		Mnemonic: strings.ToLower(mnemonic.Str),
		Operands: operands,
		Line:     line,
	})
	return nil
}

// parseOperand parses one operand: a bare register (r0-r31), an explicit
// register pair (r1:r0), an X/Y/Z indirect form with optional
// post-increment, pre-decrement, or displacement, or a plain expression
// (used for immediates, addresses, and I/O bit numbers alike).
func (p *Parser) parseOperand(line fstring.FString) (ast.Operand, fstring.FString, error) {
	// pre-decrement: -X, -Y, -Z
	if line.StartsWithChar('-') && len(line.Str) >= 2 && isPointerLetter(line.Str[1]) {
		ptr := line.Str[1]
		remain := line.Consume(2).ConsumeWhitespace()
		return ast.Operand{Kind: ast.OpIndirect, Pointer: ptr, Mode: ast.PtrPreDec}, remain, nil
	}

	if line.StartsWith(fstring.Decimal) {
		if digits, suffix, remain, ok := scanLocalRef(line); ok {
			name, err := p.resolveLocalRef(digits.Str, suffix)
			if err != nil {
				return ast.Operand{}, remain, p.errorAt(digits, asmerr.Symbol, "%v", err)
			}
			e := &expr.Expr{Op: expr.Identifier, Identifier: fstring.FString{Row: digits.Row, Column: digits.Column, Str: name, Full: digits.Full}}
			return ast.Operand{Kind: ast.OpExpr, Expr: e}, remain.ConsumeWhitespace(), nil
		}
	}

	if line.StartsWith(fstring.IdentifierStartChar) {
		if reg, remain, ok := scanRegister(line); ok {
			// register pair written explicitly as rN:rM
			if remain.StartsWithChar(':') {
				hi := reg
				rest := remain.Consume(1)
				lo, remain2, ok2 := scanRegister(rest)
				if !ok2 {
					return ast.Operand{}, remain, p.errorAt(rest, asmerr.Parse, "expected a register after ':'")
				}
				return ast.Operand{Kind: ast.OpRegisterPair, Hi: hi, Lo: lo}, remain2.ConsumeWhitespace(), nil
			}
			return ast.Operand{Kind: ast.OpRegister, Reg: reg}, remain.ConsumeWhitespace(), nil
		}

		// X/Y/Z possibly followed by '+' (post-increment) or '+displacement'.
		if ptr, ok := scanBarePointer(line); ok {
			remain := line.Consume(1)
			if remain.StartsWithChar('+') {
				after := remain.Consume(1)
				if after.StartsWith(fstring.Decimal) {
					e, remain2, err := p.parseExpr(after)
					if err != nil {
						return ast.Operand{}, remain2, err
					}
					return ast.Operand{Kind: ast.OpIndirect, Pointer: ptr, Mode: ast.PtrDisp, Disp: e}, remain2.ConsumeWhitespace(), nil
				}
				return ast.Operand{Kind: ast.OpIndirect, Pointer: ptr, Mode: ast.PtrPostInc}, after.ConsumeWhitespace(), nil
			}
			return ast.Operand{Kind: ast.OpIndirect, Pointer: ptr, Mode: ast.PtrPlain}, remain.ConsumeWhitespace(), nil
		}
	}

	e, remain, err := p.parseExpr(line)
	if err != nil {
		return ast.Operand{}, remain, err
	}
	return ast.Operand{Kind: ast.OpExpr, Expr: e}, remain.ConsumeWhitespace(), nil
}

func isPointerLetter(c byte) bool {
	return c == 'X' || c == 'Y' || c == 'Z'
}

// scanBarePointer recognizes a lone X, Y, or Z identifier (not a longer
// identifier that merely starts with one of those letters, e.g. "Xoff").
func scanBarePointer(line fstring.FString) (byte, bool) {
	if !isPointerLetter(line.Str[0]) {
		return 0, false
	}
	if len(line.Str) > 1 && fstring.IdentifierChar(line.Str[1]) {
		return 0, false
	}
	return line.Str[0], true
}

// scanRegister recognizes rN / RN where N is 0-31.
func scanRegister(line fstring.FString) (reg int, remain fstring.FString, ok bool) {
	if line.Str[0] != 'r' && line.Str[0] != 'R' {
		return 0, line, false
	}
	name, rest := line.ConsumeWhile(fstring.IdentifierChar)
	digits := name.Str[1:]
	if digits == "" {
		return 0, line, false
	}
	n := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, line, false
		}
		n = n*10 + int(c-'0')
	}
	if n > 31 {
		return 0, line, false
	}
	return n, rest, true
}
