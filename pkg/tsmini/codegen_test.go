package tsmini_test

import (
	"strings"
	"testing"

	"tsmini.dev/tsmini/pkg/tsmini"
)

func generate(t *testing.T, source string) (string, error) {
	t.Helper()
	parser, err := tsmini.NewParser(source)
	if err != nil {
		t.Fatalf("unexpected error priming parser: %s", err)
	}
	program, err := parser.ParseProgram()
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	return tsmini.NewCodeGenerator().Generate(program)
}

func TestCodeGeneratorBoilerplate(t *testing.T) {
	asm, err := generate(t, "let x: number = 1;")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	for _, want := range []string{"section .data", "scan_int", "section .text", "extern printf", "extern scanf", "global _start", "_start:", "push ebp", "mov ebp, esp", "pop ebp", "int 0x80"} {
		if !strings.Contains(asm, want) {
			t.Fatalf("expected generated assembly to contain %q, got:\n%s", want, asm)
		}
	}
}

func TestCodeGeneratorVarDecAndAssign(t *testing.T) {
	asm, err := generate(t, "let x: number = 1; x = 2;")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if strings.Count(asm, "sub esp, 4") != 1 {
		t.Fatalf("expected exactly one stack slot reserved, got:\n%s", asm)
	}
	if strings.Count(asm, "mov [ebp-4]") != 2 {
		t.Fatalf("expected two writes to the same slot (init + assign), got:\n%s", asm)
	}
}

func TestCodeGeneratorReadAndPrint(t *testing.T) {
	asm, err := generate(t, "let x: number = readline(); log(x);")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, want := range []string{"push dword scan_int", "push dword format_in", "call scanf", "mov eax, dword [scan_int]", "push dword format_out", "call printf"} {
		if !strings.Contains(asm, want) {
			t.Fatalf("expected generated assembly to contain %q, got:\n%s", want, asm)
		}
	}
}

func TestCodeGeneratorUninitialisedVarDecEmitsNoZeroInit(t *testing.T) {
	// spec.md §8 scenario 6: an uninitialised VarDec only reserves its slot
	// with 'sub esp, 4'; the single write to that slot comes from the later
	// assignment, not from a bogus zero-initialisation.
	asm, err := generate(t, "let x: number; x = readline(); log(x + 1);")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if strings.Count(asm, "sub esp, 4") != 1 {
		t.Fatalf("expected exactly one stack slot reserved, got:\n%s", asm)
	}
	if strings.Count(asm, "[ebp-4]") != 2 {
		t.Fatalf("expected exactly one write and one read of [ebp-4] (two occurrences total), got:\n%s", asm)
	}
	if strings.Count(asm, "mov [ebp-4], eax") != 1 {
		t.Fatalf("expected exactly one write to [ebp-4], got:\n%s", asm)
	}
}

func TestCodeGeneratorIfAndWhileLabels(t *testing.T) {
	asm, err := generate(t, `
		let i: number = 0;
		while (i < 3) {
			if (i == 1) {
				log(i);
			} else {
				log(0);
			}
			i = i + 1;
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, want := range []string{"loop_", "exit_", "else_", "endif_"} {
		if !strings.Contains(asm, want) {
			t.Fatalf("expected a %q label in generated assembly, got:\n%s", want, asm)
		}
	}
}

func TestCodeGeneratorUnsupportedConstructs(t *testing.T) {
	unsupported := func(source string) {
		t.Helper()
		_, err := generate(t, source)
		if err == nil {
			t.Fatalf("%q: expected a [CodeGen] error", source)
		}
		if !strings.HasPrefix(err.Error(), "[CodeGen]") {
			t.Fatalf("%q: expected a [CodeGen] diagnostic, got %q", source, err)
		}
	}

	unsupported(`log("a string literal");`)
	unsupported(`function f(): void { }`)
	unsupported(`function f(): number { return 1; } log(f());`)
}
