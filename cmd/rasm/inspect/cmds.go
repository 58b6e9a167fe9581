package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
)

var cmds *cmd.Tree

func init() {
	cmds = cmd.NewTree("rasm-inspect")

	cmds.AddCommand(cmd.Command{
		Name:        "symbols",
		Brief:       "list all resolved symbols",
		Description: "Lists every .equ/.default/label binding captured in the map file.",
		Data:        (*Inspector).cmdSymbols,
	})
	cmds.AddCommand(cmd.Command{
		Name:        "labels",
		Brief:       "list symbols whose names do not start with '.'",
		Description: "Lists every map-file symbol whose name does not start with '.'. The map file does not record which names came from a label, so .equ/.default names are listed too.",
		Data:        (*Inspector).cmdLabels,
	})
	cmds.AddCommand(cmd.Command{
		Name:        "evaluate",
		Brief:       "evaluate a symbol or integer literal",
		Description: "Looks up a symbol's address, or parses an integer literal.",
		Usage:       "evaluate <name-or-number>",
		Data:        (*Inspector).cmdEvaluate,
	})
	cmds.AddCommand(cmd.Command{
		Name:        "vectors",
		Brief:       "dump the decoded vector table",
		Description: "Decodes the RJMP at each vector-table slot and shows its target.",
		Data:        (*Inspector).cmdVectors,
	})
	cmds.AddCommand(cmd.Command{
		Name:        "set",
		Brief:       "change a display setting",
		Usage:       "set <key> <value>",
		Description: "Changes one of the inspector's display settings. Use 'set' alone to list them.",
		Data:        (*Inspector).cmdSet,
	})
	cmds.AddCommand(cmd.Command{
		Name:  "quit",
		Brief: "exit the inspector",
		Data:  (*Inspector).cmdQuit,
	})
}

func (insp *Inspector) cmdSymbols(c cmd.Selection) error {
	width := 16
	maxWidth := termWidth() - 24
	for _, name := range insp.sortedNames() {
		if len(name) > width && len(name) < maxWidth {
			width = len(name)
		}
	}
	for _, name := range insp.sortedNames() {
		e := insp.symbols[name]
		kind := "weak"
		if e.Strong {
			kind = "strong"
		}
		if insp.settings.ShowAddresses {
			insp.printf("%-*s %s  (%s)\n", width, name, insp.formatAddr(e.Addr), kind)
		} else {
			insp.printf("%-*s (%s)\n", width, name, kind)
		}
	}
	return nil
}

func (insp *Inspector) cmdLabels(c cmd.Selection) error {
	for _, name := range insp.sortedNames() {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if insp.settings.ShowAddresses {
			insp.printf("%-24s %s\n", name, insp.formatAddr(insp.symbols[name].Addr))
		} else {
			insp.printf("%s\n", name)
		}
	}
	return nil
}

func (insp *Inspector) cmdEvaluate(c cmd.Selection) error {
	if len(c.Args) != 1 {
		insp.println("usage: evaluate <name-or-number>")
		return nil
	}
	arg := c.Args[0]
	if e, ok := insp.symbols[arg]; ok {
		insp.printf("%s = %s\n", arg, insp.formatAddr(e.Addr))
		return nil
	}
	if v, err := strconv.ParseInt(arg, 0, 64); err == nil {
		insp.printf("%s\n", insp.formatAddr(int(v)))
		return nil
	}
	insp.printf("unknown symbol '%s'\n", arg)
	return nil
}

func (insp *Inspector) cmdVectors(c cmd.Selection) error {
	for slot := 0; slot*2+1 < len(insp.bin) && slot < insp.settings.VectorCount; slot++ {
		lo, hi := insp.bin[slot*2], insp.bin[slot*2+1]
		word := uint16(lo) | uint16(hi)<<8
		if word&0xF000 != 0xC000 {
			break
		}
		k := int(int16(word<<4) >> 4)
		target := slot*2 + 2 + k*2
		insp.printf("slot %2d: RJMP %s\n", slot, insp.formatAddr(target))
	}
	return nil
}

func (insp *Inspector) cmdSet(c cmd.Selection) error {
	if len(c.Args) == 0 {
		insp.settings.Display(insp.output)
		insp.flush()
		return nil
	}
	if len(c.Args) != 2 {
		insp.println("usage: set <key> <value>")
		return nil
	}
	key, value := c.Args[0], c.Args[1]
	switch insp.settings.Kind(key) {
	case boolKind:
		b, err := strconv.ParseBool(value)
		if err != nil {
			insp.printf("invalid boolean '%s'\n", value)
			return nil
		}
		if err := insp.settings.Set(key, b); err != nil {
			insp.printf("error: %v\n", err)
		}
	case intKind:
		n, err := strconv.Atoi(value)
		if err != nil {
			insp.printf("invalid integer '%s'\n", value)
			return nil
		}
		if err := insp.settings.Set(key, n); err != nil {
			insp.printf("error: %v\n", err)
		}
	default:
		insp.printf("unknown setting '%s'\n", key)
	}
	return nil
}

func (insp *Inspector) cmdQuit(c cmd.Selection) error {
	return errors.New("exiting program")
}

func (insp *Inspector) formatAddr(addr int) string {
	if insp.settings.HexMode {
		return fmt.Sprintf("0x%04X", addr)
	}
	return strconv.Itoa(addr)
}
