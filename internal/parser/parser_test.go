package parser

import (
	"bytes"
	"testing"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/lexer"
)

func parseProgram(t *testing.T, src string) (*ast.Program, *diag.Reporter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	reporter := diag.NewReporter(&buf)

	l := lexer.New(src)
	var tokens []lexer.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}

	p := New(tokens, reporter)
	return p.ParseProgram(), reporter, &buf
}

func TestParseVarDeclaration(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `var x = 1 + 2;`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	if len(prog.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Stmts))
	}
	decl, ok := prog.Stmts[0].(*ast.Declaration)
	if !ok {
		t.Fatalf("expected *ast.Declaration, got %T", prog.Stmts[0])
	}
	if len(decl.Names) != 1 || decl.Names[0] != "x" {
		t.Fatalf("unexpected names: %v", decl.Names)
	}
	bin, ok := decl.Initializer.(*ast.Binary)
	if !ok {
		t.Fatalf("expected *ast.Binary initializer, got %T", decl.Initializer)
	}
	if bin.Op != lexer.PLUS {
		t.Fatalf("expected PLUS, got %v", bin.Op)
	}
}

func TestParseMultiNameDeclaration(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `var a, b, c = 0;`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	decl := prog.Stmts[0].(*ast.Declaration)
	if len(decl.Names) != 3 {
		t.Fatalf("expected 3 names, got %d", len(decl.Names))
	}
}

func TestCompoundAssignmentDesugars(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `x += 1;`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	stmt := prog.Stmts[0].(*ast.ExpressionStmt)
	assign, ok := stmt.Expr.(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign, got %T", stmt.Expr)
	}
	if assign.Name != "x" {
		t.Fatalf("expected assign target 'x', got %q", assign.Name)
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok {
		t.Fatalf("expected desugared *ast.Binary, got %T", assign.Value)
	}
	if bin.Op != lexer.PLUS {
		t.Fatalf("expected PLUS, got %v", bin.Op)
	}
	left, ok := bin.Left.(*ast.Variable)
	if !ok || left.Name != "x" {
		t.Fatalf("expected Binary.Left to be Variable 'x', got %#v", bin.Left)
	}
}

func TestCompoundAssignmentAllOperators(t *testing.T) {
	cases := map[string]lexer.TokenType{
		"x -= 1;": lexer.MINUS,
		"x *= 1;": lexer.STAR,
		"x /= 1;": lexer.SLASH,
	}
	for src, wantOp := range cases {
		prog, reporter, _ := parseProgram(t, src)
		if reporter.HadError() {
			t.Fatalf("unexpected parse error for %q", src)
		}
		stmt := prog.Stmts[0].(*ast.ExpressionStmt)
		assign := stmt.Expr.(*ast.Assign)
		bin := assign.Value.(*ast.Binary)
		if bin.Op != wantOp {
			t.Errorf("%q: expected op %v, got %v", src, wantOp, bin.Op)
		}
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := `
	if (x < 1) {
		print(1);
	} elif (x < 2) {
		print(2);
	} else {
		print(3);
	}
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	ifs := prog.Stmts[0].(*ast.If)
	if len(ifs.Elifs) != 1 {
		t.Fatalf("expected 1 elif, got %d", len(ifs.Elifs))
	}
	if ifs.Else == nil {
		t.Fatalf("expected else block")
	}
}

func TestParseWhileDoFor(t *testing.T) {
	src := `
	while (i < 10) { i = i + 1; }
	do { i = i - 1; } while (i > 0);
	for (var i = 0; i < 10; i = i + 1) { print(i); }
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	if _, ok := prog.Stmts[0].(*ast.While); !ok {
		t.Fatalf("expected *ast.While, got %T", prog.Stmts[0])
	}
	if _, ok := prog.Stmts[1].(*ast.Do); !ok {
		t.Fatalf("expected *ast.Do, got %T", prog.Stmts[1])
	}
	forStmt, ok := prog.Stmts[2].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", prog.Stmts[2])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Inc == nil {
		t.Fatalf("expected all three for-clauses present")
	}
}

func TestParseFromLoop(t *testing.T) {
	src := `
	var xs[] = [1, 2, 3];
	from (v, xs) {
		print(v);
	}
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	from, ok := prog.Stmts[1].(*ast.From)
	if !ok {
		t.Fatalf("expected *ast.From, got %T", prog.Stmts[1])
	}
	if from.VarName != "v" {
		t.Fatalf("expected loop var 'v', got %q", from.VarName)
	}
}

func TestParseSwitch(t *testing.T) {
	src := `
	switch (x) {
	case 1:
		print(1);
	case 2:
		print(2);
	default:
		print(3);
	}
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	sw := prog.Stmts[0].(*ast.Switch)
	if len(sw.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(sw.Cases))
	}
	if sw.Default == nil {
		t.Fatalf("expected default clause")
	}
}

func TestParseStructDeclAndConstruction(t *testing.T) {
	src := `
	struct Point {
		var x = 0;
		var y = 0;
	};
	var p = Point(1, 2);
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	st, ok := prog.Stmts[0].(*ast.StructStmt)
	if !ok {
		t.Fatalf("expected *ast.StructStmt, got %T", prog.Stmts[0])
	}
	if len(st.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(st.Fields))
	}
	decl := prog.Stmts[1].(*ast.Declaration)
	call, ok := decl.Initializer.(*ast.Call)
	if !ok {
		t.Fatalf("expected *ast.Call, got %T", decl.Initializer)
	}
	if call.Name != "Point" || len(call.Args) != 2 {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestParseFieldGetSet(t *testing.T) {
	src := `
	p.x = 5;
	print(p.x);
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	stmt := prog.Stmts[0].(*ast.ExpressionStmt)
	set, ok := stmt.Expr.(*ast.Set)
	if !ok {
		t.Fatalf("expected *ast.Set, got %T", stmt.Expr)
	}
	if set.Name != "x" {
		t.Fatalf("expected field 'x', got %q", set.Name)
	}
	printStmt := prog.Stmts[1].(*ast.Print)
	if _, ok := printStmt.Expr.(*ast.Get); !ok {
		t.Fatalf("expected *ast.Get, got %T", printStmt.Expr)
	}
}

func TestParseGetDefMethodCall(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `xs.push(1);`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	stmt := prog.Stmts[0].(*ast.ExpressionStmt)
	getDef, ok := stmt.Expr.(*ast.GetDef)
	if !ok {
		t.Fatalf("expected *ast.GetDef, got %T", stmt.Expr)
	}
	if getDef.Name != "push" || len(getDef.Args) != 1 {
		t.Fatalf("unexpected GetDef: %+v", getDef)
	}
}

func TestParsePrefixAndPostfixIncDec(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `
	++x;
	x++;
	--x;
	x--;
	`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	wantPrefix := []bool{true, false, true, false}
	wantOp := []lexer.TokenType{lexer.INC, lexer.INC, lexer.DEC, lexer.DEC}
	for i, want := range wantPrefix {
		stmt := prog.Stmts[i].(*ast.ExpressionStmt)
		un, ok := stmt.Expr.(*ast.Unary)
		if !ok {
			t.Fatalf("statement %d: expected *ast.Unary, got %T", i, stmt.Expr)
		}
		if un.IsPrefix != want {
			t.Errorf("statement %d: expected IsPrefix=%v, got %v", i, want, un.IsPrefix)
		}
		if un.Op != wantOp[i] {
			t.Errorf("statement %d: expected op %v, got %v", i, wantOp[i], un.Op)
		}
	}
}

func TestParseLogicalPrecedence(t *testing.T) {
	// 'or' binds loosest, then 'and', then 'xor' tighter still, then
	// equality/comparison/arithmetic, matching the grammar's cascade.
	prog, reporter, _ := parseProgram(t, `var r = a or b and c xor d == e;`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	decl := prog.Stmts[0].(*ast.Declaration)
	top, ok := decl.Initializer.(*ast.Logical)
	if !ok || top.Op != lexer.OR {
		t.Fatalf("expected top-level OR, got %#v", decl.Initializer)
	}
}

func TestParseTrueFalseNilNow(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `
	var a = true;
	var b = false;
	var c = nil;
	var d = now;
	`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	a := prog.Stmts[0].(*ast.Declaration).Initializer.(*ast.NumberLit)
	if a.Value != 1 {
		t.Errorf("expected true -> NumberLit(1), got %v", a.Value)
	}
	b := prog.Stmts[1].(*ast.Declaration).Initializer.(*ast.NumberLit)
	if b.Value != 0 {
		t.Errorf("expected false -> NumberLit(0), got %v", b.Value)
	}
	if _, ok := prog.Stmts[2].(*ast.Declaration).Initializer.(*ast.NilLit); !ok {
		t.Errorf("expected nil -> NilLit")
	}
	if _, ok := prog.Stmts[3].(*ast.Declaration).Initializer.(*ast.Now); !ok {
		t.Errorf("expected now -> Now")
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `
	function add(a, b) {
		return a + b;
	}
	`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	fn, ok := prog.Stmts[0].(*ast.FunctionStmt)
	if !ok {
		t.Fatalf("expected *ast.FunctionStmt, got %T", prog.Stmts[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function decl: %+v", fn)
	}
}

func TestParseClassDeclIsInert(t *testing.T) {
	prog, reporter, _ := parseProgram(t, `class Widget;`)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	cl, ok := prog.Stmts[0].(*ast.ClassStmt)
	if !ok {
		t.Fatalf("expected *ast.ClassStmt, got %T", prog.Stmts[0])
	}
	if cl.Name != "Widget" {
		t.Fatalf("expected name 'Widget', got %q", cl.Name)
	}
}

func TestParseErrorRecoverySkipsToNextStatement(t *testing.T) {
	src := `
	var a = 1;
	var = ;
	var b = 2;
	`
	prog, reporter, _ := parseProgram(t, src)
	if !reporter.HadError() {
		t.Fatalf("expected a parse error to be reported")
	}
	if len(prog.Stmts) != 3 {
		t.Fatalf("expected 3 statement slots (including a nil placeholder), got %d", len(prog.Stmts))
	}
	if prog.Stmts[1] != nil {
		t.Fatalf("expected the malformed declaration to produce a nil placeholder, got %T", prog.Stmts[1])
	}
	first := prog.Stmts[0].(*ast.Declaration)
	if first.Names[0] != "a" {
		t.Fatalf("expected first declaration to still parse, got %+v", first)
	}
	third := prog.Stmts[2].(*ast.Declaration)
	if third.Names[0] != "b" {
		t.Fatalf("expected statement after the error to parse normally, got %+v", third)
	}
}

func TestParseArrayAndMapLiterals(t *testing.T) {
	src := `
	var xs[] = [1, 2, 3];
	var m{} = {"a": 1, "b": 2};
	`
	prog, reporter, _ := parseProgram(t, src)
	if reporter.HadError() {
		t.Fatalf("unexpected parse error")
	}
	arr := prog.Stmts[0].(*ast.ArrayStmt)
	if arr.Name != "xs" || len(arr.Elements) != 3 {
		t.Fatalf("unexpected array stmt: %+v", arr)
	}
	m := prog.Stmts[1].(*ast.MapStmt)
	if m.Name != "m" || len(m.Entries) != 2 {
		t.Fatalf("unexpected map stmt: %+v", m)
	}
}
