// Package inspect implements the "rasm inspect" subcommand: an interactive
// shell over the resolved symbol/label table a completed assembly left
// behind, structured as a cmd.Tree of named commands dispatching to
// closures, with abbreviated settings found by reflection.
package inspect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/beevik/cmd"
	"github.com/beevik/term"
)

// Entry is one resolved name from a rasm map file: its address and whether
// it came from a Strong (.equ) or Weak (.default) binding, or a label.
type Entry struct {
	Addr   int
	Strong bool
}

// Inspector holds the state of one interactive inspection session.
type Inspector struct {
	input    *bufio.Scanner
	output   *bufio.Writer
	binPath  string
	bin      []byte
	symbols  map[string]Entry
	settings *settings
	lastCmd  *cmd.Selection
}

// Run implements "rasm inspect <binary> <mapfile>".
func Run(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rasm inspect <binary> <mapfile>")
	}

	bin, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	symbols, err := loadMapFile(args[1])
	if err != nil {
		return err
	}

	insp := &Inspector{
		input:    bufio.NewScanner(os.Stdin),
		output:   bufio.NewWriter(os.Stdout),
		binPath:  args[0],
		bin:      bin,
		symbols:  symbols,
		settings: newSettings(),
	}
	insp.run()
	return nil
}

func (insp *Inspector) run() {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		if state, err := term.MakeRawInput(int(os.Stdin.Fd())); err == nil {
			defer term.Restore(int(os.Stdin.Fd()), state)
		}
	}

	insp.printf("rasm inspect: %s (%d bytes, %d symbol(s))\n", insp.binPath, len(insp.bin), len(insp.symbols))
	for {
		insp.prompt(interactive)
		line, err := insp.getLine()
		if err != nil {
			break
		}
		if err := insp.process(line); err != nil {
			break
		}
	}
	insp.flush()
}

func (insp *Inspector) process(line string) error {
	var sel cmd.Selection
	if line != "" {
		var err error
		sel, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			insp.println("command not found")
			return nil
		case err == cmd.ErrAmbiguous:
			insp.println("command is ambiguous")
			return nil
		case err != nil:
			insp.printf("error: %v\n", err)
			return nil
		}
	} else if insp.lastCmd != nil {
		sel = *insp.lastCmd
	}

	if sel.Command == nil {
		return nil
	}
	if sel.Command.Data == nil && sel.Command.Subtree != nil {
		insp.displayCommands(sel.Command.Subtree)
		return nil
	}

	insp.lastCmd = &sel
	handler := sel.Command.Data.(func(*Inspector, cmd.Selection) error)
	return handler(insp, sel)
}

func (insp *Inspector) displayCommands(tree *cmd.Tree) {
	insp.printf("%s commands:\n", tree.Title)
	for _, c := range tree.Commands {
		if c.Brief != "" {
			insp.printf("    %-12s %s\n", c.Name, c.Brief)
		}
	}
}

func (insp *Inspector) printf(format string, args ...any) {
	fmt.Fprintf(insp.output, format, args...)
	insp.flush()
}

func (insp *Inspector) println(args ...any) {
	fmt.Fprintln(insp.output, args...)
	insp.flush()
}

func (insp *Inspector) flush() { insp.output.Flush() }

func (insp *Inspector) prompt(interactive bool) {
	if interactive {
		insp.printf("rasm> ")
	}
}

func (insp *Inspector) getLine() (string, error) {
	if insp.input.Scan() {
		return insp.input.Text(), nil
	}
	if insp.input.Err() != nil {
		return "", insp.input.Err()
	}
	return "", io.EOF
}

// sortedNames returns the symbol table's names in stable, sorted order.
func (insp *Inspector) sortedNames() []string {
	names := make([]string, 0, len(insp.symbols))
	for name := range insp.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
