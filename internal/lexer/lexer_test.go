package lexer

import "testing"

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	input := `var x = 10;
x += 1; x++; x--;
if (x <= 10 and x != 0) { print x; }
"hi\nthere"`

	tests := []struct {
		wantType   TokenType
		wantLexeme string
	}{
		{VAR, "var"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{NUMBER, "10"},
		{SEMI, ";"},
		{IDENT, "x"},
		{PLUSEQ, "+="},
		{NUMBER, "1"},
		{SEMI, ";"},
		{IDENT, "x"},
		{INC, "++"},
		{SEMI, ";"},
		{IDENT, "x"},
		{DEC, "--"},
		{SEMI, ";"},
		{IF, "if"},
		{LPAREN, "("},
		{IDENT, "x"},
		{LE, "<="},
		{NUMBER, "10"},
		{AND, "and"},
		{IDENT, "x"},
		{NE, "!="},
		{NUMBER, "0"},
		{RPAREN, ")"},
		{LBRACE, "{"},
		{PRINT, "print"},
		{IDENT, "x"},
		{SEMI, ";"},
		{RBRACE, "}"},
		{STRING, `hi\nthere`},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.wantType {
			t.Fatalf("test %d: wrong type. want=%v got=%v (lexeme %q)", i, tt.wantType, tok.Type, tok.Lexeme)
		}
		if tok.Type != STRING && tok.Lexeme != tt.wantLexeme {
			t.Fatalf("test %d: wrong lexeme. want=%q got=%q", i, tt.wantLexeme, tok.Lexeme)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\tb\\c\"d"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("want STRING got %v", tok.Type)
	}
	want := "a\tb\\c\"d"
	if tok.Literal != want {
		t.Fatalf("want %q got %q", want, tok.Literal)
	}
}

func TestComments(t *testing.T) {
	input := `// line comment
var x = 1; /* block
comment */ var y = 2;`
	l := New(input)
	want := []TokenType{VAR, IDENT, ASSIGN, NUMBER, SEMI, VAR, IDENT, ASSIGN, NUMBER, SEMI, EOF}
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("test %d: want %v got %v", i, wt, tok.Type)
		}
	}
}

func TestLineTracking(t *testing.T) {
	input := "var x = 1;\nvar y = 2;\nvar z = 3;"
	l := New(input)
	var lastLine int
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			lastLine = tok.Line
			break
		}
		if tok.Lexeme == "z" {
			if tok.Line != 3 {
				t.Fatalf("want line 3 got %d", tok.Line)
			}
		}
	}
	if lastLine != 3 {
		t.Fatalf("want EOF on line 3 got %d", lastLine)
	}
}

func TestNumberLiteralsWithDecimals(t *testing.T) {
	l := New("3.14 42 0.5")
	want := []string{"3.14", "42", "0.5"}
	for _, w := range want {
		tok := l.NextToken()
		if tok.Type != NUMBER || tok.Lexeme != w {
			t.Fatalf("want NUMBER %q got %v %q", w, tok.Type, tok.Lexeme)
		}
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Fatalf("want ILLEGAL got %v", tok.Type)
	}
}
