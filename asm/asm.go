// Package asm ties the parser, symbol environment, and encoder into the
// Assemble pipeline: parse the source, bind every .equ/.default, lay out
// addresses for one pass over the parsed items, then encode every
// instruction and data directive against the now-complete symbol
// environment. Producing the final image (the optional vector-table
// prefix) is a separate step, done by the image package.
package asm

import (
	"fmt"
	"io"

	"github.com/beevik/rasm/avr"
	"github.com/beevik/rasm/internal/asmerr"
	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/expr"
	"github.com/beevik/rasm/internal/fstring"
	"github.com/beevik/rasm/internal/parser"
	"github.com/beevik/rasm/internal/symtab"
)

// Result is the outcome of a successful assembly.
type Result struct {
	Text    []byte
	Symbols map[string]symtab.Entry
	Globals []string
}

// Assemble reads and assembles one source file. verbose, when true, traces
// each pipeline stage to log; log may be nil when verbose is false.
func Assemble(r io.Reader, filename string, verbose bool, log io.Writer) (*Result, error) {
	p := parser.New(filename)
	parsed, err := p.Parse(r)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(log, "parse: %d item(s), %d symbol directive(s)\n", len(parsed.Items), len(parsed.Symbols))
	}

	table := symtab.New()
	for _, sd := range parsed.Symbols {
		var bindErr error
		switch sd.Kind {
		case ast.Equ:
			bindErr = table.DefineStrong(sd.Name, sd.Expr, sd.Line)
		case ast.Default:
			bindErr = table.DefineWeak(sd.Name, sd.Expr, sd.Line)
		}
		if bindErr != nil {
			return nil, asmerr.New(asmerr.Symbol, filename, sd.Line.Row, sd.Line.Column, "%v", bindErr)
		}
	}
	if verbose {
		fmt.Fprintf(log, "symbols: %d directive(s) bound\n", len(parsed.Symbols))
	}

	cursors, err := layout(parsed.Items, table, filename)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(log, "layout: .text length %d byte(s)\n", cursors["text"])
	}

	text, err := encodeText(parsed.Items, table, filename)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(log, "encode: emitted %d .text byte(s)\n", len(text))
	}

	var globals []string
	for _, it := range parsed.Items {
		if g, ok := it.(*ast.Global); ok {
			globals = append(globals, g.Name)
		}
	}

	return &Result{Text: text, Symbols: table.All(), Globals: globals}, nil
}

// layout walks the parsed items once, left to right, assigning every label
// its section-relative byte address and installing it into table as a
// Strong binding. AVR instruction widths never depend on an operand's
// resolved value, so one pass is enough — no branch-displacement
// relaxation is needed the way a variable-width ISA would require.
func layout(items []ast.Item, table *symtab.Table, filename string) (map[string]int, error) {
	cursors := map[string]int{"text": 0}
	section := "text"

	for _, it := range items {
		switch v := it.(type) {
		case *ast.Section:
			section = v.Name
			if _, ok := cursors[section]; !ok {
				cursors[section] = 0
			}

		case *ast.Label:
			if err := table.DefineLabel(v.Name, cursors[section]); err != nil {
				return nil, asmerr.New(asmerr.Symbol, filename, v.Line.Row, v.Line.Column, "%v", err)
			}

		case *ast.Instruction:
			n, err := avr.Length(v.Mnemonic, v.Operands)
			if err != nil {
				return nil, encodeErr(filename, v.Line, err)
			}
			cursors[section] += n

		case *ast.ByteData:
			cursors[section] += len(v.Exprs)

		case *ast.WordData:
			cursors[section] += 2 * len(v.Exprs)

		case *ast.Align:
			cursors[section] = alignUp(cursors[section], v.N)
		}
	}
	return cursors, nil
}

// encodeText re-walks items in the same order layout did, this time
// resolving every operand expression (every label and .equ/.default is now
// bound) and emitting bytes. Only the .text section contributes to the
// returned image; other sections exist solely to reserve address space.
func encodeText(items []ast.Item, table *symtab.Table, filename string) ([]byte, error) {
	var text []byte
	cursors := map[string]int{"text": 0}
	section := "text"
	resolve := resolverFor(table)

	for _, it := range items {
		switch v := it.(type) {
		case *ast.Section:
			section = v.Name
			if _, ok := cursors[section]; !ok {
				cursors[section] = 0
			}

		case *ast.Instruction:
			pc := cursors[section]
			words, err := avr.Encode(v.Mnemonic, pc, v.Operands, resolve)
			if err != nil {
				return nil, encodeErr(filename, v.Line, err)
			}
			if section == "text" {
				text = append(text, words...)
			}
			cursors[section] += len(words)

		case *ast.ByteData:
			for _, e := range v.Exprs {
				val, err := resolve(e)
				if err != nil {
					return nil, asmerr.New(asmerr.Symbol, filename, e.Line.Row, e.Line.Column, "%v", err)
				}
				if val < -128 || val > 255 {
					return nil, asmerr.New(asmerr.Range, filename, e.Line.Row, e.Line.Column, ".byte value %d out of range", val)
				}
				if section == "text" {
					text = append(text, byte(val))
				}
				cursors[section]++
			}

		case *ast.WordData:
			for _, e := range v.Exprs {
				val, err := resolve(e)
				if err != nil {
					return nil, asmerr.New(asmerr.Symbol, filename, e.Line.Row, e.Line.Column, "%v", err)
				}
				if val < -32768 || val > 65535 {
					return nil, asmerr.New(asmerr.Range, filename, e.Line.Row, e.Line.Column, ".word value %d out of range", val)
				}
				if section == "text" {
					text = append(text, byte(val&0xFF), byte((val>>8)&0xFF))
				}
				cursors[section] += 2
			}

		case *ast.Align:
			next := alignUp(cursors[section], v.N)
			if pad := next - cursors[section]; pad > 0 && section == "text" {
				text = append(text, make([]byte, pad)...)
			}
			cursors[section] = next
		}
	}
	return text, nil
}

func alignUp(cursor, n int) int {
	if rem := cursor % n; rem != 0 {
		return cursor + (n - rem)
	}
	return cursor
}

// resolverFor adapts a symbol table into the avr.Resolve signature the
// encoder expects, turning "not yet resolvable" into an explicit
// undefined-name error (every label and symbol directive has already been
// bound by the time this is called, so "not yet resolvable" only ever
// means "never defined").
func resolverFor(table *symtab.Table) avr.Resolve {
	return func(e *expr.Expr) (int, error) {
		ok, err := e.Eval(table.Resolver())
		if err != nil {
			return 0, err
		}
		if !ok {
			if e.Op == expr.Identifier {
				return 0, fmt.Errorf("use of undefined name '%s'", e.Identifier.Str)
			}
			return 0, fmt.Errorf("expression contains an undefined name")
		}
		return e.Value, nil
	}
}

func encodeErr(filename string, line fstring.FString, err error) error {
	switch {
	case avr.IsRangeError(err):
		return asmerr.New(asmerr.Range, filename, line.Row, line.Column, "%v", err)
	case avr.IsSymbolError(err):
		return asmerr.New(asmerr.Symbol, filename, line.Row, line.Column, "%v", err)
	default:
		return asmerr.New(asmerr.Encode, filename, line.Row, line.Column, "%v", err)
	}
}
