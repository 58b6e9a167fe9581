package parser

import (
	"strings"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/asmerr"
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
	"github.com/beevik/rasm/internal/symtab"
)

// parseDirective dispatches a line starting with '.' to the handler for
// its name.
func (p *Parser) parseDirective(line fstring.FString) error {
	name, rest := line.ConsumeWhile(fstring.IdentifierChar)
	rest = rest.ConsumeWhitespace()
	lower := strings.ToLower(name.Str)

	fn, ok := directives[lower]
	if !ok {
		return p.errorAt(line, asmerr.Directive, "unknown directive '%s'", name.Str)
	}
	return fn(p, line, rest)
}

type directiveFunc func(p *Parser, line, rest fstring.FString) error

var directives = map[string]directiveFunc{
	".equ":     (*Parser).parseEqu,
	".default": (*Parser).parseDefault,
	".section": (*Parser).parseSection,
	".global":  (*Parser).parseGlobal,
	".byte":    (*Parser).parseByte,
	".word":    (*Parser).parseWord,
	".align":   (*Parser).parseAlign,
	".rept":    (*Parser).parseRept,
	".endr":    (*Parser).parseEndr,
}

func (p *Parser) parseSymbolDef(line, rest fstring.FString, kind ast.SymbolKind) error {
	name, rest2 := rest.ConsumeWhile(fstring.IdentifierChar)
	if name.IsEmpty() {
		return p.errorAt(rest, asmerr.Directive, "expected a symbol name")
	}
	rest2, err := p.expectChar(rest2, '=')
	if err != nil {
		return err
	}
	rest2 = rest2.ConsumeWhitespace()

	var e *expr.Expr
	var remain fstring.FString
	if hi, afterHi, ok := scanRegister(rest2); ok && afterHi.StartsWithChar(':') {
		lo, afterLo, ok2 := scanRegister(afterHi.Consume(1))
		if !ok2 {
			return p.errorAt(afterHi, asmerr.Parse, "expected a register after ':'")
		}
		if hi != lo+1 || lo%2 != 0 {
			return p.errorAt(rest2, asmerr.Range, "register pair r%d:r%d is not an adjacent even/odd pair", hi, lo)
		}
		e = &expr.Expr{Op: expr.Number, Value: lo, Evaluated: true, Line: rest2}
		remain = afterLo
	} else {
		e, remain, err = p.parseExpr(rest2)
		if err != nil {
			return err
		}
	}
	if err := p.expectEOL(remain); err != nil {
		return err
	}
	if symtab.IsReserved(name.Str) {
		return p.errorAt(name, asmerr.Symbol, "'%s' is a reserved register or mnemonic name", name.Str)
	}
	p.symbols = append(p.symbols, ast.SymbolDirective{Kind: kind, Name: name.Str, Expr: e, Line: line})
	return nil
}

func (p *Parser) parseEqu(line, rest fstring.FString) error {
	return p.parseSymbolDef(line, rest, ast.Equ)
}

func (p *Parser) parseDefault(line, rest fstring.FString) error {
	return p.parseSymbolDef(line, rest, ast.Default)
}

func (p *Parser) parseSection(line, rest fstring.FString) error {
	name, remain := rest.ConsumeWhile(fstring.IdentifierChar)
	if name.IsEmpty() {
		return p.errorAt(rest, asmerr.Directive, "expected a section name")
	}
	if err := p.expectEOL(remain); err != nil {
		return err
	}
	p.emit(&ast.Section{Name: name.Str, Line: line})
	return nil
}

func (p *Parser) parseGlobal(line, rest fstring.FString) error {
	name, remain := rest.ConsumeWhile(fstring.IdentifierChar)
	if name.IsEmpty() {
		return p.errorAt(rest, asmerr.Directive, "expected a symbol name")
	}
	if err := p.expectEOL(remain); err != nil {
		return err
	}
	p.emit(&ast.Global{Name: name.Str, Line: line})
	return nil
}

func (p *Parser) parseExprList(rest fstring.FString) ([]*expr.Expr, error) {
	var list []*expr.Expr
	for {
		e, remain, err := p.parseExpr(rest)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		remain = remain.ConsumeWhitespace()
		if remain.StartsWithChar(',') {
			rest = remain.Consume(1).ConsumeWhitespace()
			continue
		}
		if err := p.expectEOL(remain); err != nil {
			return nil, err
		}
		return list, nil
	}
}

func (p *Parser) parseByte(line, rest fstring.FString) error {
	list, err := p.parseExprList(rest)
	if err != nil {
		return err
	}
	p.emit(&ast.ByteData{Exprs: list, Line: line})
	return nil
}

func (p *Parser) parseWord(line, rest fstring.FString) error {
	list, err := p.parseExprList(rest)
	if err != nil {
		return err
	}
	p.emit(&ast.WordData{Exprs: list, Line: line})
	return nil
}

func (p *Parser) parseAlign(line, rest fstring.FString) error {
	e, remain, err := p.parseExpr(rest)
	if err != nil {
		return err
	}
	if err := p.expectEOL(remain); err != nil {
		return err
	}
	ok, evalErr := e.Eval(constOnlyResolver)
	if evalErr != nil || !ok {
		return p.errorAt(rest, asmerr.Directive, ".align amount must be a constant")
	}
	if e.Value <= 0 {
		return p.errorAt(rest, asmerr.Directive, ".align amount must be positive")
	}
	p.emit(&ast.Align{N: e.Value, Line: line})
	return nil
}

func (p *Parser) parseRept(line, rest fstring.FString) error {
	if p.inRept {
		return p.errorAt(line, asmerr.Directive, ".rept cannot be nested")
	}
	e, remain, err := p.parseExpr(rest)
	if err != nil {
		return err
	}
	if err := p.expectEOL(remain); err != nil {
		return err
	}
	ok, evalErr := e.Eval(constOnlyResolver)
	if evalErr != nil || !ok {
		return p.errorAt(rest, asmerr.Directive, ".rept count must be a constant")
	}
	if e.Value < 0 {
		return p.errorAt(rest, asmerr.Directive, ".rept count must not be negative")
	}
	p.inRept = true
	p.reptCount = e.Value
	p.reptStart = len(p.items)
	p.reptLine = line
	return nil
}

func (p *Parser) parseEndr(line, rest fstring.FString) error {
	if !p.inRept {
		return p.errorAt(line, asmerr.Directive, ".endr without matching .rept")
	}
	// actual duplication happens in parseLine, which intercepts ".endr"
	// before dispatch; reaching here means .endr appeared with trailing
	// garbage on the line.
	return p.expectEOL(rest)
}

// constOnlyResolver rejects every identifier, so only expressions built
// from literal numbers (and lo8/hi8 of literals) evaluate successfully.
// .align and .rept need their operand at parse time, before any symbol
// exists.
func constOnlyResolver(name string) (int, bool, error) {
	return 0, false, nil
}
