package tsmini_test

import (
	"bytes"
	"strings"
	"testing"

	"tsmini.dev/tsmini/pkg/tsmini"
)

// run parses and interprets 'source', feeding 'stdin' to readline() calls,
// and returns everything written via log() plus any pipeline error.
func run(t *testing.T, source, stdin string) (string, error) {
	t.Helper()
	parser, err := tsmini.NewParser(source)
	if err != nil {
		t.Fatalf("unexpected error priming parser: %s", err)
	}
	program, err := parser.ParseProgram()
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	var out bytes.Buffer
	interp := tsmini.NewInterpreter(&out, strings.NewReader(stdin))
	err = interp.Run(program)
	return out.String(), err
}

func TestInterpreterArithmetic(t *testing.T) {
	t.Run("operator precedence", func(t *testing.T) {
		out, err := run(t, "log(2 + 3 * 4);", "")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if out != "14\n" {
			t.Fatalf("got %q", out)
		}
	})

	t.Run("division truncates toward zero", func(t *testing.T) {
		out, err := run(t, "log(-7 / 2); log(7 / -2);", "")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if out != "-3\n-3\n" {
			t.Fatalf("got %q", out)
		}
	})

	t.Run("modulo sign follows dividend", func(t *testing.T) {
		out, err := run(t, "log(7 % -2); log(-7 % 2);", "")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if out != "1\n-1\n" {
			t.Fatalf("got %q", out)
		}
	})

	t.Run("division by zero is a runtime error", func(t *testing.T) {
		_, err := run(t, "log(1 / 0);", "")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestInterpreterStringConcat(t *testing.T) {
	out, err := run(t, `log("x=" + 5); log(true + "!");`, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "x=5\ntrue!\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterEquality(t *testing.T) {
	t.Run("loose equality is false across types", func(t *testing.T) {
		out, err := run(t, `log(1 == "1"); log(1 != "1");`, "")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if out != "false\ntrue\n" {
			t.Fatalf("got %q", out)
		}
	})

	t.Run("strict equality across types is an error", func(t *testing.T) {
		_, err := run(t, `log(1 === "1");`, "")
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("strict equality same type compares values", func(t *testing.T) {
		out, err := run(t, `log(1 === 1); log(1 !== 2);`, "")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if out != "true\ntrue\n" {
			t.Fatalf("got %q", out)
		}
	})
}

func TestInterpreterScoping(t *testing.T) {
	out, err := run(t, `
		let x: number = 1;
		{
			let x: number = 2;
			log(x);
		}
		log(x);
	`, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "2\n1\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterBooleanOperatorsAreEager(t *testing.T) {
	// Both sides are always evaluated, so readline() is consumed exactly
	// once per operand even though '||' short-circuits in most languages.
	out, err := run(t, `
		let a: boolean = true || (readline() == 1);
		let b: boolean = false && (readline() == 1);
		log(a);
		log(b);
	`, "7\n8\n")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "true\nfalse\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterFunctionRecursion(t *testing.T) {
	out, err := run(t, `
		function fact(n: number): number {
			if (n <= 1) {
				return 1;
			}
			return n * fact(n - 1);
		}
		log(fact(5));
	`, "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "120\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterFunctionArityAndTypeChecks(t *testing.T) {
	t.Run("wrong arity", func(t *testing.T) {
		_, err := run(t, `
			function add(a: number, b: number): number { return a + b; }
			log(add(1));
		`, "")
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("wrong argument type", func(t *testing.T) {
		_, err := run(t, `
			function add(a: number, b: number): number { return a + b; }
			log(add(1, "2"));
		`, "")
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("void function must not return a value to an expression context", func(t *testing.T) {
		_, err := run(t, `
			function noop(): void { }
			log(noop());
		`, "")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestInterpreterReadline(t *testing.T) {
	out, err := run(t, `
		let x: number = readline();
		log(x + 1);
	`, "41\n")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "42\n" {
		t.Fatalf("got %q", out)
	}
}

func TestInterpreterReadlineRejectsNonInteger(t *testing.T) {
	_, err := run(t, "let x: number = readline(); log(x);", "not-a-number\n")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestInterpreterRecursionDepthLimit(t *testing.T) {
	// No base case: the interpreter's own call-depth guard must trip with a
	// tagged diagnostic well before the host Go stack would ever overflow.
	_, err := run(t, `
		function loop(n: number): number {
			return loop(n + 1);
		}
		log(loop(0));
	`, "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "[Semantic]") {
		t.Fatalf("expected a [Semantic] diagnostic, got %q", err)
	}
	if !strings.Contains(err.Error(), "maximum depth") {
		t.Fatalf("expected a maximum-depth message, got %q", err)
	}
}
