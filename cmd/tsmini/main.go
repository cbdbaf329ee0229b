package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"tsmini.dev/tsmini/internal/preprocess"
	"tsmini.dev/tsmini/pkg/tsmini"
)

var Description = strings.ReplaceAll(`
tsmini compiles a small TypeScript-flavored scripting language. It parses
a single source file, runs it through a tree-walking interpreter, and
emits a naive x86-32 NASM assembly translation of the same program.
`, "\n", " ")

var Tsmini = cli.New(Description).
	WithArg(cli.NewArg("input", "The tsmini source file to process")).
	WithOption(cli.NewOption("gen-only", "Skip interpretation, only emit NASM assembly").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("output", "Path for the generated .asm file (defaults to <input>.asm)").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	source, err := preprocess.Strip(string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'preprocess' pass: %s\n", err)
		return -1
	}

	parser, err := tsmini.NewParser(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'lexing' pass: %s\n", err)
		return -1
	}
	program, err := parser.ParseProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	if _, genOnly := options["gen-only"]; !genOnly {
		interpreter := tsmini.NewInterpreter(os.Stdout, os.Stdin)
		if err := interpreter.Run(program); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'interpret' pass: %s\n", err)
			return -1
		}
	}

	codegen := tsmini.NewCodeGenerator()
	assembly, err := codegen.Generate(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	outputPath := options["output"]
	if outputPath == "" {
		ext := filepath.Ext(args[0])
		outputPath = strings.TrimSuffix(args[0], ext) + ".asm"
	}
	if err := os.WriteFile(outputPath, []byte(assembly), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to write output file: %s\n", err)
		return -1
	}

	return 0
}

func main() { os.Exit(Tsmini.Run(os.Args, os.Stdout)) }
