// Package parser implements Wisp's recursive-descent, precedence-
// ascending parser, producing the AST package's node types from a
// token vector. Grounded on the teacher's precedence-climbing
// expression parser (CWBudde-go-dws's internal/parser/expressions.go,
// statements.go) and restructured around Wisp's simpler single-pass
// grammar: no type annotations, no overload resolution, no unit
// system.
package parser

import (
	"fmt"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/lexer"
)

// parseSignal unwinds a single declaration's parse on a syntax error,
// caught by declaration()'s recover so synchronize() can resume at the
// next statement boundary, per spec §4.1's panic-mode recovery.
type parseSignal struct{}

// Parser consumes a finite token vector and builds an AST rooted in a
// Program node, recovering past syntax errors at statement boundaries.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	reporter *diag.Reporter
}

// New creates a Parser over tokens, reporting syntax errors to reporter.
func New(tokens []lexer.Token, reporter *diag.Reporter) *Parser {
	return &Parser{tokens: tokens, reporter: reporter}
}

// ParseProgram parses the full token vector into a Program. Individual
// declarations that fail to parse become nil slots (see declaration)
// so later statements keep their original line numbers; the parse as
// a whole fails only if the Program root itself cannot be built, which
// cannot happen here since ParseProgram itself never panics.
func (p *Parser) ParseProgram() *ast.Program {
	var stmts []ast.Stmt
	for !p.atEnd() {
		stmts = append(stmts, p.declaration())
	}
	return &ast.Program{Stmts: stmts}
}

// --- token cursor helpers -------------------------------------------------

func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) atEnd() bool {
	return p.current().Type == lexer.EOF
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, tt := range types {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(tt lexer.TokenType, context string) lexer.Token {
	if p.check(tt) {
		return p.advance()
	}
	p.errorf(p.current().Line, "expected %s %s, got %q", tt, context, p.current().Lexeme)
	panic(parseSignal{})
}

func (p *Parser) errorf(line int, format string, args ...any) {
	p.reporter.Report(diag.Diagnostic{
		Severity: diag.SeverityError,
		Kind:     diag.KindParse,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// synchronize skips tokens until the next SEMICOLON (consumed) or a
// statement-starting keyword, per spec §4.1's panic-mode recovery list.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.current().Type == lexer.SEMI {
			p.advance()
			return
		}
		switch p.current().Type {
		case lexer.CLASS, lexer.FUNCTION, lexer.VAR, lexer.FOR, lexer.IF, lexer.WHILE, lexer.PRINT, lexer.NOW:
			return
		}
		p.advance()
	}
}

// --- declarations / statements ---------------------------------------------

// declaration parses one declaration* entry. A syntax error anywhere
// inside produces a nil Stmt slot after synchronizing, rather than
// failing the whole parse, per spec §4.1.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseSignal); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	switch p.current().Type {
	case lexer.VAR:
		return p.varDecl()
	case lexer.STRUCT:
		return p.structDecl()
	case lexer.CLASS:
		return p.classDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) statement() ast.Stmt {
	switch p.current().Type {
	case lexer.FUNCTION:
		return p.functionDecl()
	case lexer.IF:
		return p.ifStmt()
	case lexer.SWITCH:
		return p.switchStmt()
	case lexer.RETURN:
		return p.returnStmt()
	case lexer.BREAK:
		return p.breakStmt()
	case lexer.CONTINUE:
		return p.continueStmt()
	case lexer.WHILE:
		return p.whileStmt()
	case lexer.DO:
		return p.doStmt()
	case lexer.FOR:
		return p.forStmt()
	case lexer.FROM:
		return p.fromStmt()
	case lexer.PRINT:
		return p.printStmt()
	case lexer.LBRACE:
		return p.block()
	default:
		return p.expressionStmt()
	}
}

func (p *Parser) varDecl() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.VAR, "in declaration")
	name := p.expect(lexer.IDENT, "after 'var'").Lexeme

	if p.check(lexer.LBRACKET) {
		return p.arrayTail(name, line)
	}
	if p.check(lexer.LBRACE) {
		return p.mapTail(name, line)
	}

	names := []string{name}
	for p.match(lexer.COMMA) {
		names = append(names, p.expect(lexer.IDENT, "in declaration list").Lexeme)
	}

	var init ast.Expr
	isInit := false
	if p.match(lexer.ASSIGN) {
		init = p.expression()
		isInit = true
	}
	p.expect(lexer.SEMI, "after declaration")
	return &ast.Declaration{Names: names, Initializer: init, IsInitialized: isInit, LineNo: line}
}

func (p *Parser) arrayTail(name string, line int) ast.Stmt {
	p.expect(lexer.LBRACKET, "to open array declaration")
	p.expect(lexer.RBRACKET, "to close array declaration")
	var elements []ast.Expr
	if p.match(lexer.ASSIGN) {
		p.expect(lexer.LBRACKET, "to open array literal")
		if !p.check(lexer.RBRACKET) {
			elements = append(elements, p.expression())
			for p.match(lexer.COMMA) {
				elements = append(elements, p.expression())
			}
		}
		p.expect(lexer.RBRACKET, "to close array literal")
	}
	p.expect(lexer.SEMI, "after array declaration")
	return &ast.ArrayStmt{Name: name, Elements: elements, LineNo: line}
}

func (p *Parser) mapTail(name string, line int) ast.Stmt {
	p.expect(lexer.LBRACE, "to open map declaration")
	p.expect(lexer.RBRACE, "to close map declaration")
	var entries []ast.MapEntry
	if p.match(lexer.ASSIGN) {
		p.expect(lexer.LBRACE, "to open map literal")
		if !p.check(lexer.RBRACE) {
			entries = append(entries, p.mapEntry())
			for p.match(lexer.COMMA) {
				entries = append(entries, p.mapEntry())
			}
		}
		p.expect(lexer.RBRACE, "to close map literal")
	}
	p.expect(lexer.SEMI, "after map declaration")
	return &ast.MapStmt{Name: name, Entries: entries, LineNo: line}
}

func (p *Parser) mapEntry() ast.MapEntry {
	key := p.expression()
	p.expect(lexer.COLON, "between map key and value")
	value := p.expression()
	return ast.MapEntry{Key: key, Value: value}
}

func (p *Parser) structDecl() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.STRUCT, "in struct declaration")
	name := p.expect(lexer.IDENT, "after 'struct'").Lexeme
	p.expect(lexer.LBRACE, "to open struct body")

	var fields []ast.StructField
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		p.expect(lexer.VAR, "before struct field")
		fname := p.expect(lexer.IDENT, "as struct field name").Lexeme
		p.expect(lexer.ASSIGN, "after struct field name")
		def := p.expression()
		p.expect(lexer.SEMI, "after struct field default")
		fields = append(fields, ast.StructField{Name: fname, Default: def})
	}
	p.expect(lexer.RBRACE, "to close struct body")
	p.match(lexer.SEMI)
	return &ast.StructStmt{Name: name, Fields: fields, LineNo: line}
}

// classDecl accepts class syntax but never gives it any behavior: the
// name is parsed, an optional brace body is skipped unread, per spec
// §1/§9 which keeps the keyword grammatically valid while treating
// class/method inheritance as entirely out of scope.
func (p *Parser) classDecl() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.CLASS, "in class declaration")
	name := p.expect(lexer.IDENT, "after 'class'").Lexeme
	if p.match(lexer.LBRACE) {
		depth := 1
		for depth > 0 && !p.atEnd() {
			switch p.advance().Type {
			case lexer.LBRACE:
				depth++
			case lexer.RBRACE:
				depth--
			}
		}
	}
	p.match(lexer.SEMI)
	return &ast.ClassStmt{Name: name, LineNo: line}
}

func (p *Parser) functionDecl() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.FUNCTION, "in function declaration")
	name := p.expect(lexer.IDENT, "after 'function'").Lexeme
	p.expect(lexer.LPAREN, "to open parameter list")
	var params []string
	if !p.check(lexer.RPAREN) {
		params = append(params, p.expect(lexer.IDENT, "as parameter name").Lexeme)
		for p.match(lexer.COMMA) {
			params = append(params, p.expect(lexer.IDENT, "as parameter name").Lexeme)
		}
	}
	p.expect(lexer.RPAREN, "to close parameter list")
	body := p.block()
	return &ast.FunctionStmt{Name: name, Params: params, Body: body, LineNo: line}
}

func (p *Parser) block() *ast.Block {
	line := p.current().Line
	p.expect(lexer.LBRACE, "to open block")
	var stmts []ast.Stmt
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		stmts = append(stmts, p.declaration())
	}
	p.expect(lexer.RBRACE, "to close block")
	return &ast.Block{Stmts: stmts, LineNo: line}
}

func (p *Parser) ifStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.IF, "in if statement")
	p.expect(lexer.LPAREN, "after 'if'")
	cond := p.expression()
	p.expect(lexer.RPAREN, "after if condition")
	then := p.block()

	var elifs []ast.ElifBranch
	for p.check(lexer.ELIF) {
		p.advance()
		p.expect(lexer.LPAREN, "after 'elif'")
		econd := p.expression()
		p.expect(lexer.RPAREN, "after elif condition")
		ebody := p.block()
		elifs = append(elifs, ast.ElifBranch{Cond: econd, Then: ebody})
	}

	var elseBlock *ast.Block
	if p.match(lexer.ELSE) {
		elseBlock = p.block()
	}
	return &ast.If{Cond: cond, Then: then, Elifs: elifs, Else: elseBlock, LineNo: line}
}

func (p *Parser) whileStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.WHILE, "in while statement")
	p.expect(lexer.LPAREN, "after 'while'")
	cond := p.expression()
	p.expect(lexer.RPAREN, "after while condition")
	body := p.block()
	return &ast.While{Cond: cond, Body: body, LineNo: line}
}

func (p *Parser) doStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.DO, "in do statement")
	body := p.block()
	p.expect(lexer.WHILE, "after do-block")
	p.expect(lexer.LPAREN, "after 'while'")
	cond := p.expression()
	p.expect(lexer.RPAREN, "after do-while condition")
	p.expect(lexer.SEMI, "after do-while statement")
	return &ast.Do{Cond: cond, Body: body, LineNo: line}
}

func (p *Parser) forStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.FOR, "in for statement")
	p.expect(lexer.LPAREN, "after 'for'")

	var init ast.Stmt
	switch {
	case p.check(lexer.SEMI):
		p.advance()
	case p.check(lexer.VAR):
		init = p.varDecl()
	default:
		iline := p.current().Line
		e := p.expression()
		p.expect(lexer.SEMI, "after for-init expression")
		init = &ast.ExpressionStmt{Expr: e, LineNo: iline}
	}

	var cond ast.Expr
	if !p.check(lexer.SEMI) {
		cond = p.expression()
	}
	p.expect(lexer.SEMI, "after for-condition")

	var inc ast.Expr
	if !p.check(lexer.RPAREN) {
		inc = p.expression()
	}
	p.expect(lexer.RPAREN, "after for-clauses")

	body := p.block()
	return &ast.For{Init: init, Cond: cond, Inc: inc, Body: body, LineNo: line}
}

// fromStmt parses the for-each loop: `from (v, arrayExpr) { ... }`. The
// reserved-word list (spec §6) has no `in` keyword, so the loop
// variable and the array expression are separated by a comma rather
// than DWScript/Python-style `in`.
func (p *Parser) fromStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.FROM, "in from statement")
	p.expect(lexer.LPAREN, "after 'from'")
	varName := p.expect(lexer.IDENT, "as from-loop variable").Lexeme
	p.expect(lexer.COMMA, "after from-loop variable")
	arr := p.expression()
	p.expect(lexer.RPAREN, "after from-clauses")
	body := p.block()
	return &ast.From{VarName: varName, Array: arr, Body: body, LineNo: line}
}

func (p *Parser) switchStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.SWITCH, "in switch statement")
	p.expect(lexer.LPAREN, "after 'switch'")
	cond := p.expression()
	p.expect(lexer.RPAREN, "after switch condition")
	p.expect(lexer.LBRACE, "to open switch body")

	var cases []ast.SwitchCase
	var def *ast.Block
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		switch {
		case p.match(lexer.CASE):
			label := p.expression()
			p.expect(lexer.COLON, "after case label")
			body := p.caseBody()
			cases = append(cases, ast.SwitchCase{Label: label, Body: body})
		case p.match(lexer.DEFAULT):
			p.expect(lexer.COLON, "after 'default'")
			def = p.caseBody()
		default:
			p.errorf(p.current().Line, "expected 'case' or 'default', got %q", p.current().Lexeme)
			panic(parseSignal{})
		}
	}
	p.expect(lexer.RBRACE, "to close switch body")
	return &ast.Switch{Cond: cond, Cases: cases, Default: def, LineNo: line}
}

// caseBody reads statements up to the next case/default/closing brace;
// switch has no fall-through, so each case's statements are its own
// implicit block.
func (p *Parser) caseBody() *ast.Block {
	line := p.current().Line
	var stmts []ast.Stmt
	for !p.check(lexer.CASE) && !p.check(lexer.DEFAULT) && !p.check(lexer.RBRACE) && !p.atEnd() {
		stmts = append(stmts, p.declaration())
	}
	return &ast.Block{Stmts: stmts, LineNo: line}
}

func (p *Parser) returnStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.RETURN, "in return statement")
	var value ast.Expr
	if !p.check(lexer.SEMI) {
		value = p.expression()
	}
	p.expect(lexer.SEMI, "after return statement")
	return &ast.Return{Value: value, LineNo: line}
}

func (p *Parser) breakStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.BREAK, "in break statement")
	p.expect(lexer.SEMI, "after break")
	return &ast.Break{LineNo: line}
}

func (p *Parser) continueStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.CONTINUE, "in continue statement")
	p.expect(lexer.SEMI, "after continue")
	return &ast.Continue{LineNo: line}
}

func (p *Parser) printStmt() ast.Stmt {
	line := p.current().Line
	p.expect(lexer.PRINT, "in print statement")
	p.expect(lexer.LPAREN, "after 'print'")
	expr := p.expression()
	p.expect(lexer.RPAREN, "after print argument")
	p.expect(lexer.SEMI, "after print statement")
	return &ast.Print{Expr: expr, LineNo: line}
}

func (p *Parser) expressionStmt() ast.Stmt {
	line := p.current().Line
	expr := p.expression()
	p.expect(lexer.SEMI, "after expression statement")
	return &ast.ExpressionStmt{Expr: expr, LineNo: line}
}

// --- expressions ------------------------------------------------------

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// compoundOps maps a compound-assignment token to the arithmetic
// operator it desugars into, per spec §4.1: "Compound assignment
// desugars to IDENT = IDENT op rhs".
var compoundOps = map[lexer.TokenType]lexer.TokenType{
	lexer.PLUSEQ:  lexer.PLUS,
	lexer.MINUSEQ: lexer.MINUS,
	lexer.STAREQ:  lexer.STAR,
	lexer.SLASHEQ: lexer.SLASH,
}

func (p *Parser) assignment() ast.Expr {
	left := p.logicalOr()

	if p.check(lexer.ASSIGN) || p.check(lexer.PLUSEQ) || p.check(lexer.MINUSEQ) ||
		p.check(lexer.STAREQ) || p.check(lexer.SLASHEQ) {
		opTok := p.advance()
		line := opTok.Line
		rhs := p.assignment()

		switch target := left.(type) {
		case *ast.Variable:
			if opTok.Type == lexer.ASSIGN {
				return &ast.Assign{Name: target.Name, Value: rhs, LineNo: line}
			}
			arithOp := compoundOps[opTok.Type]
			desugared := &ast.Binary{
				Left:     &ast.Variable{Name: target.Name, LineNo: line},
				Op:       arithOp,
				OpLexeme: opTok.Lexeme[:1],
				Right:    rhs,
				LineNo:   line,
			}
			return &ast.Assign{Name: target.Name, Value: desugared, LineNo: line}
		case *ast.Get:
			if opTok.Type != lexer.ASSIGN {
				p.errorf(line, "compound assignment is not supported on struct fields")
				panic(parseSignal{})
			}
			return &ast.Set{Object: target.Object, Name: target.Name, Value: rhs, LineNo: line}
		default:
			p.errorf(line, "invalid assignment target")
			panic(parseSignal{})
		}
	}
	return left
}

func (p *Parser) logicalOr() ast.Expr {
	left := p.logicalAnd()
	for p.check(lexer.OR) {
		opTok := p.advance()
		right := p.logicalAnd()
		left = &ast.Logical{Left: left, Op: lexer.OR, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) logicalAnd() ast.Expr {
	left := p.logicalXor()
	for p.check(lexer.AND) {
		opTok := p.advance()
		right := p.logicalXor()
		left = &ast.Logical{Left: left, Op: lexer.AND, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) logicalXor() ast.Expr {
	left := p.equality()
	for p.check(lexer.XOR) {
		opTok := p.advance()
		right := p.equality()
		left = &ast.Logical{Left: left, Op: lexer.XOR, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) equality() ast.Expr {
	left := p.comparison()
	for p.check(lexer.EQ) || p.check(lexer.NE) {
		opTok := p.advance()
		right := p.comparison()
		left = &ast.Binary{Left: left, Op: opTok.Type, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) comparison() ast.Expr {
	left := p.term()
	for p.check(lexer.LT) || p.check(lexer.LE) || p.check(lexer.GT) || p.check(lexer.GE) {
		opTok := p.advance()
		right := p.term()
		left = &ast.Binary{Left: left, Op: opTok.Type, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) term() ast.Expr {
	left := p.factor()
	for p.check(lexer.PLUS) || p.check(lexer.MINUS) {
		opTok := p.advance()
		right := p.factor()
		left = &ast.Binary{Left: left, Op: opTok.Type, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) factor() ast.Expr {
	left := p.unary()
	for p.check(lexer.STAR) || p.check(lexer.SLASH) || p.check(lexer.PERCENT) {
		opTok := p.advance()
		right := p.unary()
		left = &ast.Binary{Left: left, Op: opTok.Type, OpLexeme: opTok.Lexeme, Right: right, LineNo: opTok.Line}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	if p.check(lexer.NOT) || p.check(lexer.MINUS) || p.check(lexer.INC) || p.check(lexer.DEC) {
		opTok := p.advance()
		operand := p.unary()
		return &ast.Unary{Op: opTok.Type, OpLexeme: opTok.Lexeme, Operand: operand, IsPrefix: true, LineNo: opTok.Line}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.check(lexer.LPAREN):
			expr = p.finishCall(expr)
		case p.match(lexer.DOT):
			nameTok := p.expect(lexer.IDENT, "after '.'")
			if p.check(lexer.LPAREN) {
				args := p.argumentList()
				expr = &ast.GetDef{Variable: expr, Name: nameTok.Lexeme, Args: args, LineNo: nameTok.Line}
			} else {
				expr = &ast.Get{Object: expr, Name: nameTok.Lexeme, LineNo: nameTok.Line}
			}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	line := p.current().Line
	args := p.argumentList()
	name := ""
	if v, ok := callee.(*ast.Variable); ok {
		name = v.Name
	}
	return &ast.Call{Callee: callee, Name: name, Args: args, LineNo: line}
}

func (p *Parser) argumentList() []ast.Expr {
	p.expect(lexer.LPAREN, "to open argument list")
	var args []ast.Expr
	if !p.check(lexer.RPAREN) {
		args = append(args, p.expression())
		for p.match(lexer.COMMA) {
			args = append(args, p.expression())
		}
	}
	p.expect(lexer.RPAREN, "to close argument list")
	return args
}

func (p *Parser) primary() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		var v float64
		fmt.Sscanf(tok.Lexeme, "%g", &v)
		return &ast.NumberLit{Value: v, LineNo: tok.Line}
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Literal, LineNo: tok.Line}
	case lexer.TRUE:
		p.advance()
		return &ast.NumberLit{Value: 1, LineNo: tok.Line}
	case lexer.FALSE:
		p.advance()
		return &ast.NumberLit{Value: 0, LineNo: tok.Line}
	case lexer.NIL:
		p.advance()
		return &ast.NilLit{LineNo: tok.Line}
	case lexer.NOW:
		p.advance()
		return &ast.Now{LineNo: tok.Line}
	case lexer.IDENT:
		p.advance()
		if p.check(lexer.INC) || p.check(lexer.DEC) {
			opTok := p.advance()
			return &ast.Unary{
				Op:       opTok.Type,
				OpLexeme: opTok.Lexeme,
				Operand:  &ast.Variable{Name: tok.Lexeme, LineNo: tok.Line},
				IsPrefix: false,
				LineNo:   tok.Line,
			}
		}
		return &ast.Variable{Name: tok.Lexeme, LineNo: tok.Line}
	case lexer.LPAREN:
		p.advance()
		inner := p.expression()
		p.expect(lexer.RPAREN, "to close grouping")
		return &ast.Grouping{Inner: inner, LineNo: tok.Line}
	default:
		p.errorf(tok.Line, "unexpected token %q", tok.Lexeme)
		panic(parseSignal{})
	}
}
