package tsmini

import (
	"fmt"
	"strings"
)

// CodeGenerator walks the AST and emits x86-32 NASM assembly directly,
// per spec.md §4.5 — there is no intermediate IR, each node contributes
// its own lines the same call-and-append shape as the teacher's
// CodeGenerator.Generate/GenerateAInst/GenerateCInst (pkg/hack/codegen.go),
// just targeting a text assembly listing instead of 16-bit Hack words.
//
// The generated subset intentionally excludes strings, user functions,
// 'return' and calls (spec.md §4.5/§4.6); those fail with a tagged
// [CodeGen] diagnostic rather than silently miscompiling. Everything
// else is type-checked statically via inferType before a single
// instruction is emitted for it, mirroring the interpreter's dynamic
// checks but performed ahead of time since --gen-only mode never runs
// the interpreter (SPEC_FULL.md §5).
type CodeGenerator struct {
	lines []string
}

// NewCodeGenerator returns an empty generator ready for one Generate call.
func NewCodeGenerator() *CodeGenerator { return &CodeGenerator{} }

func (cg *CodeGenerator) emit(format string, args ...any) {
	cg.lines = append(cg.lines, fmt.Sprintf(format, args...))
}

// Generate produces a complete NASM listing for 'program': a fixed
// data section (format strings for printf/scanf plus a scratch integer
// for readline()), a fixed prologue and epilogue around a single
// '_start' label, and one line group per AST node in between.
func (cg *CodeGenerator) Generate(program *Block) (string, error) {
	cg.emit("section .data")
	cg.emit("\tformat_out db \"%%d\", 10, 0")
	cg.emit("\tformat_in db \"%%d\", 0")
	cg.emit("\tscan_int dd 0")
	cg.emit("\ttrue_str db \"true\", 10, 0")
	cg.emit("\tfalse_str db \"false\", 10, 0")
	cg.emit("")
	cg.emit("section .text")
	cg.emit("\textern printf")
	cg.emit("\textern scanf")
	cg.emit("\tglobal _start")
	cg.emit("_start:")
	cg.emit("\tpush ebp")
	cg.emit("\tmov ebp, esp")

	if err := cg.generateBlock(program, NewSymbolTable()); err != nil {
		return "", err
	}

	cg.emit("\tmov esp, ebp")
	cg.emit("\tpop ebp")
	cg.emit("\tmov eax, 1")
	cg.emit("\txor ebx, ebx")
	cg.emit("\tint 0x80")

	return strings.Join(cg.lines, "\n") + "\n", nil
}

// generateBlock mirrors Interpreter.evalBlockIn's scoping rule exactly:
// a nested Block child gets a fresh child scope, everything else shares
// the scope it was called with.
func (cg *CodeGenerator) generateBlock(block *Block, scope *SymbolTable) error {
	for _, child := range block.Children {
		if nested, ok := child.(*Block); ok {
			if err := cg.generateBlock(nested, scope.NewChildScope()); err != nil {
				return err
			}
			continue
		}
		if err := cg.generateStmt(child, scope); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGenerator) generateStmt(node Node, scope *SymbolTable) error {
	switch n := node.(type) {
	case *NoOp:
		return nil
	case *VarDec:
		return cg.generateVarDec(n, scope)
	case *Assign:
		return cg.generateAssign(n, scope)
	case *Print:
		return cg.generatePrint(n, scope)
	case *If:
		return cg.generateIf(n, scope)
	case *While:
		return cg.generateWhile(n, scope)
	case *FuncDec:
		return codegenErrorf("function declarations are not supported by the code generator")
	case *FuncCall:
		return codegenErrorf("function calls are not supported by the code generator")
	case *Return:
		return codegenErrorf("'return' is not supported by the code generator")
	default:
		return codegenErrorf("cannot generate code for statement node %T", node)
	}
}

func (cg *CodeGenerator) generateVarDec(n *VarDec, scope *SymbolTable) error {
	if n.Type == VoidType {
		return semanticErrorf("variable '%s' cannot be declared with type 'void'", n.Name)
	}

	slot, err := scope.CreateVariable(n.Name, n.Type)
	if err != nil {
		return err
	}
	cg.emit("\tsub esp, 4 ; %s: %s", n.Name, n.Type)

	if n.Init == nil {
		return nil
	}

	t, err := inferType(n.Init, scope)
	if err != nil {
		return err
	}
	if t != n.Type {
		return semanticErrorf("cannot initialise '%s' of type %s with a %s value", n.Name, n.Type, t)
	}
	if err := cg.generateExpr(n.Init, scope); err != nil {
		return err
	}
	cg.emit("\tmov [ebp-%d], eax", slot.Shift)
	return nil
}

func (cg *CodeGenerator) generateAssign(n *Assign, scope *SymbolTable) error {
	slot, err := scope.Get(n.Name)
	if err != nil {
		return err
	}
	if slot.IsFunction {
		return semanticErrorf("cannot assign to function '%s'", n.Name)
	}

	t, err := inferType(n.Expr, scope)
	if err != nil {
		return err
	}
	if t != slot.Type {
		return semanticErrorf("cannot assign %s value to '%s' of type %s", t, n.Name, slot.Type)
	}
	if err := cg.generateExpr(n.Expr, scope); err != nil {
		return err
	}
	cg.emit("\tmov [ebp-%d], eax ; %s", slot.Shift, n.Name)
	return nil
}

func (cg *CodeGenerator) generatePrint(n *Print, scope *SymbolTable) error {
	t, err := inferType(n.Expr, scope)
	if err != nil {
		return err
	}
	if err := cg.generateExpr(n.Expr, scope); err != nil {
		return err
	}

	switch t {
	case NumberType:
		cg.emit("\tpush eax")
		cg.emit("\tpush dword format_out")
		cg.emit("\tcall printf")
		cg.emit("\tadd esp, 8")
		return nil

	case BooleanType:
		id := n.id()
		cg.emit("\tcmp eax, 0")
		cg.emit("\tje print_false_%d", id)
		cg.emit("\tpush true_str")
		cg.emit("\tjmp print_str_%d", id)
		cg.emit("print_false_%d:", id)
		cg.emit("\tpush false_str")
		cg.emit("print_str_%d:", id)
		cg.emit("\tcall printf")
		cg.emit("\tadd esp, 4")
		return nil

	default:
		return codegenErrorf("cannot print a value of type %s", t)
	}
}

func (cg *CodeGenerator) generateIf(n *If, scope *SymbolTable) error {
	t, err := inferType(n.Cond, scope)
	if err != nil {
		return err
	}
	if t != BooleanType {
		return semanticErrorf("'if' condition must be boolean, got %s", t)
	}
	if err := cg.generateExpr(n.Cond, scope); err != nil {
		return err
	}

	id := n.id()
	cg.emit("\tcmp eax, 0")
	if n.Else != nil {
		cg.emit("\tje else_%d", id)
	} else {
		cg.emit("\tje endif_%d", id)
	}

	if err := cg.generateBlock(n.Then, scope); err != nil {
		return err
	}
	if n.Else != nil {
		cg.emit("\tjmp endif_%d", id)
		cg.emit("else_%d:", id)
		if err := cg.generateBlock(n.Else, scope); err != nil {
			return err
		}
	}
	cg.emit("endif_%d:", id)
	return nil
}

func (cg *CodeGenerator) generateWhile(n *While, scope *SymbolTable) error {
	t, err := inferType(n.Cond, scope)
	if err != nil {
		return err
	}
	if t != BooleanType {
		return semanticErrorf("'while' condition must be boolean, got %s", t)
	}

	id := n.id()
	cg.emit("loop_%d:", id)
	if err := cg.generateExpr(n.Cond, scope); err != nil {
		return err
	}
	cg.emit("\tcmp eax, 0")
	cg.emit("\tje exit_%d", id)

	if err := cg.generateBlock(n.Body, scope); err != nil {
		return err
	}
	cg.emit("\tjmp loop_%d", id)
	cg.emit("exit_%d:", id)
	return nil
}

// generateExpr always leaves its result in eax.
func (cg *CodeGenerator) generateExpr(node Node, scope *SymbolTable) error {
	switch n := node.(type) {
	case *IntLit:
		cg.emit("\tmov eax, %d", n.Value)
		return nil

	case *BoolLit:
		if n.Value {
			cg.emit("\tmov eax, 1")
		} else {
			cg.emit("\tmov eax, 0")
		}
		return nil

	case *StringLit:
		return codegenErrorf("string literals are not supported by the code generator")

	case *Ident:
		slot, err := scope.Get(n.Name)
		if err != nil {
			return err
		}
		if slot.IsFunction {
			return semanticErrorf("'%s' is a function, not a value", n.Name)
		}
		cg.emit("\tmov eax, [ebp-%d] ; %s", slot.Shift, n.Name)
		return nil

	case *Read:
		cg.generateRead()
		return nil

	case *UnOp:
		return cg.generateUnOp(n, scope)

	case *BinOp:
		return cg.generateBinOp(n, scope)

	case *FuncCall:
		return codegenErrorf("function calls are not supported by the code generator")

	default:
		return codegenErrorf("cannot generate code for expression node %T", node)
	}
}

// generateRead scans one integer into the fixed scan_int data cell, then
// loads it into eax.
func (cg *CodeGenerator) generateRead() {
	cg.emit("\tpush dword scan_int")
	cg.emit("\tpush dword format_in")
	cg.emit("\tcall scanf")
	cg.emit("\tadd esp, 8")
	cg.emit("\tmov eax, dword [scan_int]")
}

func (cg *CodeGenerator) generateUnOp(n *UnOp, scope *SymbolTable) error {
	t, err := inferType(n.Child, scope)
	if err != nil {
		return err
	}

	switch n.Op {
	case PLUS:
		if t != NumberType {
			return semanticErrorf("unary '+' requires a number, got %s", t)
		}
		return cg.generateExpr(n.Child, scope)

	case MINUS:
		if t != NumberType {
			return semanticErrorf("unary '-' requires a number, got %s", t)
		}
		if err := cg.generateExpr(n.Child, scope); err != nil {
			return err
		}
		cg.emit("\tneg eax")
		return nil

	case NOT:
		if t != BooleanType {
			return semanticErrorf("'!' requires a boolean, got %s", t)
		}
		if err := cg.generateExpr(n.Child, scope); err != nil {
			return err
		}
		cg.emit("\txor eax, 1")
		return nil

	default:
		return codegenErrorf("unknown unary operator %s", n.Op)
	}
}

var setccInstructions = map[TokenKind]string{
	LT: "setl", GT: "setg", LE: "setle", GE: "setge",
	EQUAL: "sete", NEQ: "setne", EQUAL_STRICT: "sete", NEQ_STRICT: "setne",
}

func (cg *CodeGenerator) generateBinOp(n *BinOp, scope *SymbolTable) error {
	lt, err := inferType(n.Left, scope)
	if err != nil {
		return err
	}
	rt, err := inferType(n.Right, scope)
	if err != nil {
		return err
	}

	switch n.Op {
	case PLUS, MINUS, MULT, DIV, MOD:
		if lt != NumberType || rt != NumberType {
			return semanticErrorf("'%s' requires two numbers, got %s and %s", n.Op, lt, rt)
		}
	case AND, OR:
		if lt != BooleanType || rt != BooleanType {
			return semanticErrorf("'%s' requires two booleans, got %s and %s", n.Op, lt, rt)
		}
	case LT, GT, LE, GE:
		if lt != NumberType || rt != NumberType {
			return codegenErrorf("'%s' over %s and %s is not supported by the code generator", n.Op, lt, rt)
		}
	case EQUAL_STRICT, NEQ_STRICT:
		if lt != rt {
			return semanticErrorf("cannot compare %s and %s with '%s'", lt, rt, n.Op)
		}
		if lt != NumberType && lt != BooleanType {
			return codegenErrorf("'%s' over %s values is not supported by the code generator", n.Op, lt)
		}
	case EQUAL, NEQ:
		if lt != rt {
			break // statically known result, generated below without evaluating types further
		}
		if lt != NumberType && lt != BooleanType {
			return codegenErrorf("'%s' over %s values is not supported by the code generator", n.Op, lt)
		}
	default:
		return codegenErrorf("unknown binary operator %s", n.Op)
	}

	if err := cg.generateExpr(n.Left, scope); err != nil {
		return err
	}
	cg.emit("\tpush eax")
	if err := cg.generateExpr(n.Right, scope); err != nil {
		return err
	}
	cg.emit("\tmov ebx, eax")
	cg.emit("\tpop eax")

	switch n.Op {
	case PLUS:
		cg.emit("\tadd eax, ebx")
	case MINUS:
		cg.emit("\tsub eax, ebx")
	case MULT:
		cg.emit("\timul eax, ebx")
	case DIV:
		cg.emit("\tcdq")
		cg.emit("\tidiv ebx")
	case MOD:
		cg.emit("\tcdq")
		cg.emit("\tidiv ebx")
		cg.emit("\tmov eax, edx")
	case AND:
		cg.emit("\tand eax, ebx")
	case OR:
		cg.emit("\tor eax, ebx")
	case EQUAL, NEQ:
		if lt != rt {
			if n.Op == EQUAL {
				cg.emit("\tmov eax, 0")
			} else {
				cg.emit("\tmov eax, 1")
			}
			return nil
		}
		fallthrough
	case LT, GT, LE, GE, EQUAL_STRICT, NEQ_STRICT:
		cg.emit("\tcmp eax, ebx")
		cg.emit("\t%s al", setccInstructions[n.Op])
		cg.emit("\tmovzx eax, al")
	}
	return nil
}

// inferType statically determines the type an expression would evaluate
// to, without running it, so the code generator can pick format strings
// and reject ill-typed programs before emitting a single instruction for
// them. It follows the interpreter's dynamic checks (see evalExpr/evalBinOp)
// for literals, identifiers, unary operators, arithmetic and '&&'/'||';
// relational and (strict) equality operators are reported as boolean
// without checking their operands, which generateBinOp checks instead.
func inferType(node Node, scope *SymbolTable) (ValueType, error) {
	switch n := node.(type) {
	case *IntLit:
		return NumberType, nil
	case *BoolLit:
		return BooleanType, nil
	case *StringLit:
		return StringType, nil

	case *Ident:
		slot, err := scope.Get(n.Name)
		if err != nil {
			return "", err
		}
		if slot.IsFunction {
			return "", semanticErrorf("'%s' is a function, not a value", n.Name)
		}
		return slot.Type, nil

	case *Read:
		return NumberType, nil

	case *UnOp:
		t, err := inferType(n.Child, scope)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case PLUS, MINUS:
			if t != NumberType {
				return "", semanticErrorf("unary '%s' requires a number, got %s", n.Op, t)
			}
			return NumberType, nil
		case NOT:
			if t != BooleanType {
				return "", semanticErrorf("'!' requires a boolean, got %s", t)
			}
			return BooleanType, nil
		default:
			return "", semanticErrorf("unknown unary operator %s", n.Op)
		}

	case *BinOp:
		lt, err := inferType(n.Left, scope)
		if err != nil {
			return "", err
		}
		rt, err := inferType(n.Right, scope)
		if err != nil {
			return "", err
		}
		switch n.Op {
		case PLUS:
			if lt == StringType || rt == StringType {
				return StringType, nil
			}
			if lt == NumberType && rt == NumberType {
				return NumberType, nil
			}
			return "", semanticErrorf("'+' requires two numbers or a string operand, got %s and %s", lt, rt)
		case MINUS, MULT, DIV, MOD:
			if lt != NumberType || rt != NumberType {
				return "", semanticErrorf("'%s' requires two numbers, got %s and %s", n.Op, lt, rt)
			}
			return NumberType, nil
		case LT, GT, LE, GE, EQUAL, NEQ, EQUAL_STRICT, NEQ_STRICT:
			return BooleanType, nil
		case AND, OR:
			if lt != BooleanType || rt != BooleanType {
				return "", semanticErrorf("'%s' requires two booleans, got %s and %s", n.Op, lt, rt)
			}
			return BooleanType, nil
		default:
			return "", semanticErrorf("unknown binary operator %s", n.Op)
		}

	case *FuncCall:
		return "", codegenErrorf("function calls are not supported by the code generator")

	default:
		return "", codegenErrorf("cannot infer a type for expression node %T", node)
	}
}
