package tsmini

// Parser builds the AST from the token stream by recursive descent,
// enforcing grammar only — no type checks (those belong to the
// interpreter and code generator, spec.md §4.2).
//
// The grammar (spec.md §4.2) is layered BoolExpr -> BoolTerm -> RelExpr ->
// Expr -> Term -> Factor, each layer folding left-associatively over the
// next; this is the classic precedence-climbing shape. The teacher's own
// parsers (pkg/asm, pkg/vm, pkg/jack) are flat instruction grammars built
// from goparsec combinators with no operator precedence to climb; tsmini's
// grammar needs exactly that, driven by an externally-pulled single-token
// lookahead (Lexer.Advance/Current) that the combinator layer does not
// expose, so the descent here is hand-written. The shape is grounded on
// the pack's other hand-written recursive-descent parsers (e.g.
// xingleixu-TG-Script's parser/expressions.go, shadowCow-cow-lang-go's
// lang/parser/parser.go).
type Parser struct {
	lex *Lexer
}

// NewParser primes the lexer with its first token and returns a Parser
// ready to consume the grammar's entry point.
func NewParser(source string) (*Parser, error) {
	lex := NewLexer(source)
	if err := lex.Advance(); err != nil {
		return nil, err
	}
	return &Parser{lex: lex}, nil
}

func (p *Parser) current() Token { return p.lex.Current() }

// consume returns the current token and advances past it.
func (p *Parser) consume() (Token, error) {
	tok := p.current()
	if err := p.lex.Advance(); err != nil {
		return tok, err
	}
	return tok, nil
}

// expect checks the current token's kind, consuming it on a match or
// failing with a tagged [Parser] diagnostic otherwise.
func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, parseErrorf(tok.Pos, "expected %s, found %s", kind, tok.Kind)
	}
	return p.consume()
}

// ParseProgram parses the whole token stream into the program root: a
// Block whose children are the top-level declarations and statements in
// source order (spec.md §4.2).
func (p *Parser) ParseProgram() (*Block, error) {
	var children []Node
	for p.current().Kind != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
	}
	return newBlock(children), nil
}

func valueTypeFromName(name string) ValueType {
	switch name {
	case "number":
		return NumberType
	case "boolean":
		return BooleanType
	case "string":
		return StringType
	default:
		return VoidType
	}
}

// parseStatement dispatches on the current token to one of the grammar's
// Statement alternatives (spec.md §4.2). Block/VarDec/FuncDec are
// alternatives of Statement itself, so this single function also covers
// the TopLevel production.
func (p *Parser) parseStatement() (Node, error) {
	switch p.current().Kind {
	case END:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		return newNoOp(), nil

	case OPEN_BRA:
		return p.parseBlock()

	case VAR:
		return p.parseVarDec()

	case FUNC:
		return p.parseFuncDec()

	case PRINT:
		return p.parsePrintStmt()

	case IF:
		return p.parseIfStmt()

	case WHILE:
		return p.parseWhileStmt()

	case RETURN:
		return p.parseReturnStmt()

	case IDEN:
		return p.parseIdentStmt()

	default:
		tok := p.current()
		return nil, parseErrorf(tok.Pos, "unexpected token %s at start of statement", tok.Kind)
	}
}

func (p *Parser) parseBlock() (*Block, error) {
	if _, err := p.expect(OPEN_BRA); err != nil {
		return nil, err
	}

	var children []Node
	for p.current().Kind != CLOSE_BRA {
		if p.current().Kind == EOF {
			tok := p.current()
			return nil, parseErrorf(tok.Pos, "unclosed block, expected %s before EOF", CLOSE_BRA)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
	}

	if _, err := p.expect(CLOSE_BRA); err != nil {
		return nil, err
	}
	return newBlock(children), nil
}

// parseVarDec accepts both declaration spellings from spec.md §4.2:
// "let TYPE name" and "let name : TYPE", producing an identical VarDec
// node either way.
func (p *Parser) parseVarDec() (Node, error) {
	if _, err := p.expect(VAR); err != nil {
		return nil, err
	}

	var typeName, name string

	switch p.current().Kind {
	case TYPE:
		typeTok, err := p.consume()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(IDEN)
		if err != nil {
			return nil, err
		}
		typeName, name = typeTok.Str(), nameTok.Str()

	case IDEN:
		nameTok, err := p.consume()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COLON); err != nil {
			return nil, err
		}
		typeTok, err := p.expect(TYPE)
		if err != nil {
			return nil, err
		}
		typeName, name = typeTok.Str(), nameTok.Str()

	default:
		tok := p.current()
		return nil, parseErrorf(tok.Pos, "malformed variable declaration, found %s", tok.Kind)
	}

	var init Node
	if p.current().Kind == ASSIGN {
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		expr, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		init = expr
	}

	if _, err := p.expect(END); err != nil {
		return nil, err
	}

	return newVarDec(valueTypeFromName(typeName), name, init), nil
}

func (p *Parser) parseFuncDec() (Node, error) {
	if _, err := p.expect(FUNC); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(IDEN)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(OPEN_PAR); err != nil {
		return nil, err
	}

	var params []Param
	if p.current().Kind != CLOSE_PAR {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)

			if p.current().Kind != COMMA {
				break
			}
			if _, err := p.consume(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(CLOSE_PAR); err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON); err != nil {
		return nil, err
	}
	retTok, err := p.expect(TYPE)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return newFuncDec(valueTypeFromName(retTok.Str()), nameTok.Str(), params, body), nil
}

func (p *Parser) parseParam() (Param, error) {
	nameTok, err := p.expect(IDEN)
	if err != nil {
		return Param{}, err
	}
	if _, err := p.expect(COLON); err != nil {
		return Param{}, err
	}
	typeTok, err := p.expect(TYPE)
	if err != nil {
		return Param{}, err
	}
	return Param{Type: valueTypeFromName(typeTok.Str()), Name: nameTok.Str()}, nil
}

func (p *Parser) parsePrintStmt() (Node, error) {
	if _, err := p.expect(PRINT); err != nil {
		return nil, err
	}
	if _, err := p.expect(OPEN_PAR); err != nil {
		return nil, err
	}
	expr, err := p.parseBoolExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(CLOSE_PAR); err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return newPrint(expr), nil
}

func (p *Parser) parseIfStmt() (Node, error) {
	if _, err := p.expect(IF); err != nil {
		return nil, err
	}
	if _, err := p.expect(OPEN_PAR); err != nil {
		return nil, err
	}
	cond, err := p.parseBoolExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(CLOSE_PAR); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elseBlock *Block
	if p.current().Kind == ELSE {
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	return newIf(cond, thenBlock, elseBlock), nil
}

func (p *Parser) parseWhileStmt() (Node, error) {
	if _, err := p.expect(WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(OPEN_PAR); err != nil {
		return nil, err
	}
	cond, err := p.parseBoolExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(CLOSE_PAR); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return newWhile(cond, body), nil
}

func (p *Parser) parseReturnStmt() (Node, error) {
	if _, err := p.expect(RETURN); err != nil {
		return nil, err
	}
	expr, err := p.parseBoolExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(END); err != nil {
		return nil, err
	}
	return newReturn(expr), nil
}

// parseIdentStmt disambiguates the two statement forms starting with an
// identifier: assignment ("x = expr;") and a bare call ("f(args);").
func (p *Parser) parseIdentStmt() (Node, error) {
	nameTok, err := p.consume()
	if err != nil {
		return nil, err
	}

	switch p.current().Kind {
	case ASSIGN:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		rhs, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(END); err != nil {
			return nil, err
		}
		return newAssign(nameTok.Str(), rhs), nil

	case OPEN_PAR:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CLOSE_PAR); err != nil {
			return nil, err
		}
		if _, err := p.expect(END); err != nil {
			return nil, err
		}
		return newFuncCall(nameTok.Str(), args), nil

	default:
		tok := p.current()
		return nil, parseErrorf(tok.Pos, "expected '=' or '(' after identifier, found %s", tok.Kind)
	}
}

// parseArgList parses a comma-separated, possibly empty list of BoolExpr,
// leaving the current token on the closing delimiter.
func (p *Parser) parseArgList() ([]Node, error) {
	var args []Node
	if p.current().Kind == CLOSE_PAR {
		return args, nil
	}

	for {
		arg, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.current().Kind != COMMA {
			return args, nil
		}
		if _, err := p.consume(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBoolExpr() (Node, error) {
	left, err := p.parseBoolTerm()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == OR {
		op, err := p.consume()
		if err != nil {
			return nil, err
		}
		right, err := p.parseBoolTerm()
		if err != nil {
			return nil, err
		}
		left = newBinOp(op.Kind, left, right)
	}
	return left, nil
}

func (p *Parser) parseBoolTerm() (Node, error) {
	left, err := p.parseRelExpr()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == AND {
		op, err := p.consume()
		if err != nil {
			return nil, err
		}
		right, err := p.parseRelExpr()
		if err != nil {
			return nil, err
		}
		left = newBinOp(op.Kind, left, right)
	}
	return left, nil
}

var relOps = map[TokenKind]bool{
	EQUAL: true, NEQ: true, EQUAL_STRICT: true, NEQ_STRICT: true,
	LT: true, GT: true, LE: true, GE: true,
}

func (p *Parser) parseRelExpr() (Node, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	for relOps[p.current().Kind] {
		op, err := p.consume()
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		left = newBinOp(op.Kind, left, right)
	}
	return left, nil
}

func (p *Parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == PLUS || p.current().Kind == MINUS {
		op, err := p.consume()
		if err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = newBinOp(op.Kind, left, right)
	}
	return left, nil
}

func (p *Parser) parseTerm() (Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == MULT || p.current().Kind == DIV || p.current().Kind == MOD {
		op, err := p.consume()
		if err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = newBinOp(op.Kind, left, right)
	}
	return left, nil
}

// parseFactor is the grammar's atomic expression level: unary operators
// recurse into themselves (right-associative, binding tighter than any
// binary operator), everything else is a single primary production
// (spec.md §4.2). readline() as a primary expression, rather than only a
// statement form, follows original_source/Roteiro 9/src/parser.py (see
// SPEC_FULL.md §5).
func (p *Parser) parseFactor() (Node, error) {
	tok := p.current()

	switch tok.Kind {
	case NOT, PLUS, MINUS:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		child, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return newUnOp(tok.Kind, child), nil

	case OPEN_PAR:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		expr, err := p.parseBoolExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CLOSE_PAR); err != nil {
			return nil, err
		}
		return expr, nil

	case INT:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		return newIntLit(tok.Int()), nil

	case STR:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		return newStringLit(tok.Str()), nil

	case BOOL:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		return newBoolLit(tok.Bool()), nil

	case READ:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		if _, err := p.expect(OPEN_PAR); err != nil {
			return nil, err
		}
		if _, err := p.expect(CLOSE_PAR); err != nil {
			return nil, err
		}
		return newRead(), nil

	case IDEN:
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		if p.current().Kind != OPEN_PAR {
			return newIdent(tok.Str()), nil
		}
		if _, err := p.consume(); err != nil {
			return nil, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(CLOSE_PAR); err != nil {
			return nil, err
		}
		return newFuncCall(tok.Str(), args), nil

	default:
		return nil, parseErrorf(tok.Pos, "unexpected token %s in expression", tok.Kind)
	}
}
