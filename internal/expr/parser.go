package expr

import (
	"fmt"
	"strconv"

	"github.com/beevik/rasm/internal/fstring"
)

type tokenType byte

const (
	tokenNil tokenType = iota
	tokenOp
	tokenNumber
	tokenIdentifier
	tokenLeftParen
	tokenRightParen
)

func (tt tokenType) isValue() bool {
	return tt == tokenNumber || tt == tokenIdentifier
}

func (tt tokenType) canPrecedeUnaryOp() bool {
	return tt == tokenOp || tt == tokenLeftParen || tt == tokenNil
}

type token struct {
	typ        tokenType
	value      int
	identifier fstring.FString
	op         Op
}

// ParseError is returned by Parser.Parse; it carries the source position of
// the failure.
type ParseError struct {
	Line fstring.FString
	Msg  string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// Parser parses a single expression from a source line using Dijkstra's
// shunting-yard algorithm, stopping at the first character it can't
// consume as part of the expression (e.g. a trailing ',').
type Parser struct {
	operandStack  stack[*Expr]
	operatorStack stack[Op]
	parenCounter  int
	prevTokenType tokenType
}

// Parse parses an expression from the beginning of line. It returns the
// parsed tree and whatever remains of the line after the expression.
func (p *Parser) Parse(line fstring.FString) (e *Expr, remain fstring.FString, err error) {
	p.reset()
	orig := line

	for err == nil {
		var tok token
		tok, remain, err = p.parseToken(line)
		if err != nil {
			break
		}
		if tok.typ == tokenNil {
			break
		}

		switch tok.typ {
		case tokenNumber:
			p.operandStack.push(&Expr{Op: Number, Value: tok.value, Evaluated: true})

		case tokenIdentifier:
			// lo8(...) / hi8(...) are parsed as function application, not
			// as ordinary identifiers.
			if (tok.identifier.Str == "lo8" || tok.identifier.Str == "hi8") && remain.StartsWithChar('(') {
				var inner *Expr
				inner, remain, err = p.parseCall(remain.Consume(1))
				if err != nil {
					break
				}
				op := Lo8
				if tok.identifier.Str == "hi8" {
					op = Hi8
				}
				p.operandStack.push(&Expr{Op: op, Child0: inner})
				p.prevTokenType = tokenNumber
				line = remain
				continue
			}
			p.operandStack.push(&Expr{Op: Identifier, Identifier: tok.identifier})

		case tokenOp:
			for err == nil && !p.operatorStack.empty() && tok.op.Collapses(p.operatorStack.peek()) {
				err = collapse(&p.operandStack, p.operatorStack.pop())
				if err != nil {
					err = p.errorAt(line, "invalid expression")
				}
			}
			p.operatorStack.push(tok.op)

		case tokenLeftParen:
			p.operatorStack.push(LeftParen)

		case tokenRightParen:
			for err == nil {
				if p.operatorStack.empty() {
					err = p.errorAt(line, "mismatched parentheses")
					break
				}
				op := p.operatorStack.pop()
				if op == LeftParen {
					break
				}
				err = collapse(&p.operandStack, op)
				if err != nil {
					err = p.errorAt(line, "invalid expression")
				}
			}
		}
		line = remain
	}

	for err == nil && !p.operatorStack.empty() {
		err = collapse(&p.operandStack, p.operatorStack.pop())
		if err != nil {
			err = p.errorAt(line, "invalid expression")
		}
	}

	if err == nil {
		if p.operandStack.empty() {
			err = p.errorAt(orig, "expected an expression")
		} else {
			e = p.operandStack.peek()
			e.Line = orig
		}
	}

	return e, remain, err
}

// parseCall parses a single parenthesized expression used as a function
// argument (the opening '(' has already been consumed) and returns the
// inner expression plus whatever follows the matching ')'.
func (p *Parser) parseCall(line fstring.FString) (*Expr, fstring.FString, error) {
	var inner Parser
	e, remain, err := inner.Parse(line)
	if err != nil {
		return nil, remain, err
	}
	if !remain.StartsWithChar(')') {
		return nil, remain, p.errorAt(remain, "expected ')'")
	}
	return e, remain.Consume(1).ConsumeWhitespace(), nil
}

func collapse(s *stack[*Expr], op Op) error {
	switch {
	case !op.isCollapsible():
		return fmt.Errorf("invalid expression")
	case op.isBinary():
		if len(s.data) < 2 {
			return fmt.Errorf("invalid expression")
		}
		e := &Expr{Op: op, Child1: s.pop(), Child0: s.pop()}
		s.push(e)
		return nil
	default:
		if s.empty() {
			return fmt.Errorf("invalid expression")
		}
		e := &Expr{Op: op, Child0: s.pop()}
		s.push(e)
		return nil
	}
}

func (p *Parser) parseToken(line fstring.FString) (t token, remain fstring.FString, err error) {
	if line.IsEmpty() || line.StartsWithChar(',') {
		return token{typ: tokenNil}, line, nil
	}

	switch {
	case line.StartsWith(fstring.Decimal) || line.StartsWithChar('$') ||
		(line.StartsWithChar('%') && p.prevTokenType.canPrecedeUnaryOp()):
		t.value, remain, err = p.parseNumber(line)
		t.typ = tokenNumber
		if p.prevTokenType.isValue() || p.prevTokenType == tokenRightParen {
			err = p.errorAt(line, "invalid numeric literal")
		}

	case line.StartsWithChar('\''):
		t.value, remain, err = p.parseCharLiteral(line)
		t.typ = tokenNumber

	case line.StartsWithChar('('):
		t.typ, t.op, remain = tokenLeftParen, LeftParen, line.Consume(1)
		p.parenCounter++

	case line.StartsWithChar(')'):
		if p.parenCounter == 0 {
			// an unmatched ')' ends the expression (e.g. lo8(x)'s closer)
			return token{typ: tokenNil}, line, nil
		}
		p.parenCounter--
		t.typ, t.op, remain = tokenRightParen, RightParen, line.Consume(1)

	case line.StartsWith(fstring.IdentifierStartChar):
		t.typ = tokenIdentifier
		t.identifier, remain = line.ConsumeWhile(fstring.IdentifierChar)
		if p.prevTokenType.isValue() || p.prevTokenType == tokenRightParen {
			err = p.errorAt(line, "invalid identifier")
		}

	case line.StartsWithChar('~') && p.prevTokenType.canPrecedeUnaryOp():
		t.typ, t.op, remain = tokenOp, BitNeg, line.Consume(1)

	case line.StartsWithChar('-') && p.prevTokenType.canPrecedeUnaryOp():
		t.typ, t.op, remain = tokenOp, Neg, line.Consume(1)

	case line.StartsWithChar('!') && p.prevTokenType.canPrecedeUnaryOp():
		t.typ, t.op, remain = tokenOp, Not, line.Consume(1)

	default:
		found := false
		for _, sym := range []struct {
			op Op
			s  string
		}{
			{Shl, "<<"}, {Shr, ">>"},
			{Add, "+"}, {Sub, "-"}, {Mul, "*"}, {Div, "/"}, {Mod, "%"},
			{And, "&"}, {Xor, "^"}, {Or, "|"},
		} {
			if line.StartsWithString(sym.s) {
				t.typ, t.op, remain = tokenOp, sym.op, line.Consume(len(sym.s))
				found = true
				break
			}
		}
		if !found {
			err = p.errorAt(line, "invalid token")
		}
	}

	p.prevTokenType = t.typ
	remain = remain.ConsumeWhitespace()
	return t, remain, err
}

// parseNumber parses decimal, $hex, 0x hex, %binary, 0b binary, and
// leading-zero octal integer literals.
func (p *Parser) parseNumber(line fstring.FString) (value int, remain fstring.FString, err error) {
	base, fn := 10, fstring.Decimal
	switch {
	case line.StartsWithChar('$'):
		line, base, fn = line.Consume(1), 16, fstring.Hexadecimal
	case line.StartsWithString("0x") || line.StartsWithString("0X"):
		line, base, fn = line.Consume(2), 16, fstring.Hexadecimal
	case line.StartsWithChar('%'):
		line, base, fn = line.Consume(1), 2, fstring.BinaryDigit
	case line.StartsWithString("0b") || line.StartsWithString("0B"):
		line, base, fn = line.Consume(2), 2, fstring.BinaryDigit
	case line.StartsWithChar('0') && len(line.Str) > 1 && fstring.Decimal(line.Str[1]):
		line, base, fn = line.Consume(1), 8, fstring.Decimal
	}

	numstr, remain := line.ConsumeWhile(fn)
	if numstr.IsEmpty() {
		return 0, remain, p.errorAt(line, "invalid numeric literal")
	}

	n, convErr := strconv.ParseInt(numstr.Str, base, 64)
	if convErr != nil {
		return 0, remain, p.errorAt(numstr, "invalid numeric literal")
	}
	return int(n), remain, nil
}

func (p *Parser) parseCharLiteral(line fstring.FString) (value int, remain fstring.FString, err error) {
	if len(line.Str) < 3 || line.Str[2] != '\'' {
		return 0, line, p.errorAt(line, "invalid character literal")
	}
	return int(line.Str[1]), line.Consume(3), nil
}

func (p *Parser) errorAt(line fstring.FString, msg string) error {
	return &ParseError{Line: line, Msg: msg}
}

func (p *Parser) reset() {
	p.operandStack.data, p.operatorStack.data = nil, nil
	p.parenCounter = 0
	p.prevTokenType = tokenNil
}

type stack[T any] struct {
	data []T
}

func (s *stack[T]) push(value T) {
	s.data = append(s.data, value)
}

func (s *stack[T]) pop() T {
	i := len(s.data) - 1
	v := s.data[i]
	s.data = s.data[:i]
	return v
}

func (s *stack[T]) empty() bool {
	return len(s.data) == 0
}

func (s *stack[T]) peek() T {
	return s.data[len(s.data)-1]
}
