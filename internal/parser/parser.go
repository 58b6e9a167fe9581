// Package parser implements C2: it turns source lines into a list of
// ast.Item (labels, instructions, data directives) plus a pending list of
// ast.SymbolDirective, without resolving any symbol. Forward references,
// .equ/.default ordering, and address assignment are all left to the
// symbol environment and layout pass that run afterward.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/asmerr"
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
)

// Result holds the output of a parse.
type Result struct {
	Items   []ast.Item
	Symbols []ast.SymbolDirective
}

// Parser parses an entire source file.
type Parser struct {
	file    string
	items   []ast.Item
	symbols []ast.SymbolDirective
	errors  []error

	// localSeq counts definitions of each numeric local label seen so far,
	// used to fix up "Nb"/"Nf" references into unique synthetic names: a
	// backward reference ("Nb") always means the most recent definition,
	// a forward reference ("Nf") always means the next one, so both are
	// resolvable to a definite synthetic name the moment the reference is
	// parsed, without a second pass.
	localSeq map[string]int

	// .rept/.endr bookkeeping: inRept is set while recording a rept body,
	// and reptCount holds its repeat count (which may be 0).
	reptCount int
	reptStart int
	reptLine  fstring.FString
	inRept    bool
}

// New creates a Parser for diagnostics attributed to file.
func New(file string) *Parser {
	return &Parser{file: file, localSeq: make(map[string]int)}
}

// Parse reads every line of r and parses it, in order.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	row := 0
	for scanner.Scan() {
		row++
		line := fstring.New(row, scanner.Text()).StripTrailingComment()
		line = line.ConsumeWhitespace()
		if line.IsEmpty() {
			continue
		}
		if err := p.parseLine(line); err != nil {
			p.errors = append(p.errors, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, asmerr.New(asmerr.IO, p.file, row, 0, "%v", err)
	}
	if p.inRept {
		p.errors = append(p.errors, asmerr.New(asmerr.Directive, p.file, p.reptLine.Row, p.reptLine.Column, "unterminated .rept"))
	}

	if len(p.errors) > 0 {
		return &Result{Items: p.items, Symbols: p.symbols}, p.errors[0]
	}
	return &Result{Items: p.items, Symbols: p.symbols}, nil
}

func (p *Parser) errorAt(line fstring.FString, kind asmerr.Kind, format string, args ...any) error {
	return asmerr.New(kind, p.file, line.Row, line.Column, format, args...)
}

// emit appends item to the output, unless a .rept body is currently being
// recorded, in which case it still appends (the body lives inline in
// p.items; .endr duplicates the recorded slice in place).
func (p *Parser) emit(item ast.Item) {
	p.items = append(p.items, item)
}

// parseLine parses one non-empty, non-comment-only line: an optional
// label, followed by an optional directive or instruction.
func (p *Parser) parseLine(line fstring.FString) error {
	if p.inRept && isWord(line, ".endr") {
		p.inRept = false
		body := append([]ast.Item(nil), p.items[p.reptStart:]...)
		for _, it := range body {
			if _, ok := it.(*ast.Label); ok {
				return p.errorAt(p.reptLine, asmerr.Directive, "labels are not permitted inside .rept")
			}
		}
		if p.reptCount == 0 {
			p.items = p.items[:p.reptStart]
		} else {
			for n := 1; n < p.reptCount; n++ {
				p.items = append(p.items, body...)
			}
		}
		return nil
	}

	// Local numeric label definition: "1:" at the start of a line.
	if lbl, rest, ok := scanNumericLabelDef(line); ok {
		name := p.defineLocalLabel(lbl)
		p.emit(&ast.Label{Name: name, Line: line})
		line = rest.ConsumeWhitespace()
		if line.IsEmpty() {
			return nil
		}
		return p.parseUnlabeled(line)
	}

	// Ordinary label: "name:" at the start of a line.
	if lbl, rest, ok := scanLabelDef(line); ok {
		name := lbl.Str
		p.emit(&ast.Label{Name: name, Line: line})
		line = rest.ConsumeWhitespace()
		if line.IsEmpty() {
			return nil
		}
		return p.parseUnlabeled(line)
	}

	return p.parseUnlabeled(line)
}

// parseUnlabeled parses a directive or instruction with any label already
// consumed.
func (p *Parser) parseUnlabeled(line fstring.FString) error {
	if line.StartsWithChar('.') {
		return p.parseDirective(line)
	}
	return p.parseInstruction(line)
}

//
// labels
//

// scanLabelDef recognizes "name:" at the start of line (the colon is
// required so a bare mnemonic like "nop" is never misread as a label).
func scanLabelDef(line fstring.FString) (label, remain fstring.FString, ok bool) {
	if !line.StartsWith(fstring.LabelStartChar) {
		return label, line, false
	}
	name, rest := line.ConsumeWhile(fstring.LabelChar)
	if !rest.StartsWithChar(':') {
		return label, line, false
	}
	return name, rest.Consume(1), true
}

// scanNumericLabelDef recognizes "N:" where N is one or more decimal
// digits, the local (reusable, number-named) label definition form.
func scanNumericLabelDef(line fstring.FString) (label, remain fstring.FString, ok bool) {
	if !line.StartsWith(fstring.Decimal) {
		return label, line, false
	}
	digits, rest := line.ConsumeWhile(fstring.Decimal)
	if !rest.StartsWithChar(':') {
		return label, line, false
	}
	return digits, rest.Consume(1), true
}

// defineLocalLabel turns a numeric local label definition into a unique
// synthetic name.
func (p *Parser) defineLocalLabel(digits fstring.FString) string {
	p.localSeq[digits.Str]++
	return localLabelName(digits.Str, p.localSeq[digits.Str])
}

// resolveLocalRef turns a "Nb"/"Nf" reference into the synthetic name of
// the definition it points to. "b" (backward) is the most recent
// definition of N; "f" (forward) is the next one, which may not exist yet
// when this is called (ordinary "undefined symbol" handling covers that).
func (p *Parser) resolveLocalRef(digits string, suffix byte) (string, error) {
	if suffix == 'b' {
		n := p.localSeq[digits]
		if n == 0 {
			return "", fmt.Errorf("no preceding local label '%s'", digits)
		}
		return localLabelName(digits, n), nil
	}
	return localLabelName(digits, p.localSeq[digits]+1), nil
}

func localLabelName(digits string, n int) string {
	return "$local$" + digits + "$" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func isWord(line fstring.FString, word string) bool {
	return strings.EqualFold(strings.TrimRight(line.Str, " \t"), word)
}

//
// helpers shared across directive.go / instruction.go
//

func (p *Parser) parseExpr(line fstring.FString) (*expr.Expr, fstring.FString, error) {
	var ep expr.Parser
	e, remain, err := ep.Parse(line)
	if err != nil {
		if pe, ok := err.(*expr.ParseError); ok {
			return nil, remain, p.errorAt(pe.Line, asmerr.Parse, "%s", pe.Msg)
		}
		return nil, remain, p.errorAt(line, asmerr.Parse, "%v", err)
	}
	return e, remain, nil
}

func (p *Parser) expectEOL(line fstring.FString) error {
	line = line.ConsumeWhitespace()
	if !line.IsEmpty() {
		return p.errorAt(line, asmerr.Parse, "unexpected '%s'", line.Str)
	}
	return nil
}

func (p *Parser) expectChar(line fstring.FString, c byte) (fstring.FString, error) {
	line = line.ConsumeWhitespace()
	if !line.StartsWithChar(c) {
		return line, p.errorAt(line, asmerr.Parse, "expected '%c'", c)
	}
	return line.Consume(1).ConsumeWhitespace(), nil
}
