// Command rasm assembles AVR assembly source into a flat binary image, and
// can inspect a previously assembled image interactively.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/beevik/rasm/asm"
	"github.com/beevik/rasm/cmd/rasm/inspect"
	"github.com/beevik/rasm/image"
	"github.com/beevik/rasm/internal/symtab"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "inspect" {
		if err := inspect.Run(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	flags := flag.NewFlagSet("rasm", flag.ExitOnError)
	output := flags.String("o", "", "output file path (default: input with .bin extension)")
	mapOut := flags.String("m", "", "symbol map file path (default: output with .map extension)")
	noVectors := flags.Bool("no-vectors", false, "emit .text only; skip the interrupt vector table")
	vectors := flags.Bool("vectors", false, "emit the interrupt vector table (the default; overrides -no-vectors)")
	verbose := flags.Bool("v", false, "trace each assembly pipeline stage to stderr")
	flags.Parse(os.Args[1:])
	if *vectors {
		*noVectors = false
	}

	args := flags.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: rasm [-o out.bin] [-m out.map] [-no-vectors | -vectors] [-v] <source.s>")
		os.Exit(2)
	}
	input := args[0]

	outPath := *output
	if outPath == "" {
		outPath = replaceExt(input, ".bin")
	}
	mapPath := *mapOut
	if mapPath == "" {
		mapPath = replaceExt(outPath, ".map")
	}

	if err := run(input, outPath, mapPath, *noVectors, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(input, outPath, mapPath string, noVectors, verbose bool) error {
	src, err := os.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	var log *os.File
	if verbose {
		log = os.Stderr
	}
	result, err := asm.Assemble(src, input, verbose, log)
	if err != nil {
		return err
	}

	var device *image.Device
	textBase := 0
	if !noVectors {
		device = &image.ATmega328
		textBase = len(device.Handlers) * 2
	}
	labelAddr := func(name string) (int, bool) {
		e, ok := result.Symbols[name]
		return textBase + e.Value, ok
	}
	bin, err := image.Build(result.Text, device, labelAddr)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, bin, 0o644); err != nil {
		return err
	}
	return writeMapFile(mapPath, result.Symbols)
}

func writeMapFile(path string, symbols map[string]symtab.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := symbols[name]
		strength := "weak"
		if e.Strength == symtab.Strong {
			strength = "strong"
		}
		if _, err := fmt.Fprintf(f, "%s %d %s\n", name, e.Value, strength); err != nil {
			return err
		}
	}
	return nil
}

func replaceExt(path, ext string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[:i] + ext
		}
	}
	return path + ext
}
