package interp

import (
	"bytes"
	"strings"
	"testing"
)

func runScript(t *testing.T, src string) (output string, ok bool, abortMessage string) {
	t.Helper()
	var out, errOut bytes.Buffer
	ip := New(&out, &errOut)
	ok, abortMessage = ip.Run(src)
	if !ok && abortMessage == "" {
		t.Fatalf("run failed with no abort message; diagnostics:\n%s", errOut.String())
	}
	return out.String(), ok, abortMessage
}

func TestArithmeticAndPrecedence(t *testing.T) {
	out, ok, _ := runScript(t, `print(2 + 3 * 4);`)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "14" {
		t.Fatalf("expected 14, got %q", out)
	}
}

func TestFactorialRecursion(t *testing.T) {
	src := `
	function fact(n) {
		if (n <= 1) {
			return 1;
		}
		return n * fact(n - 1);
	}
	print(fact(5));
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "120" {
		t.Fatalf("expected 120, got %q", out)
	}
}

func TestStructConstructionAndFieldAccess(t *testing.T) {
	src := `
	struct Point {
		var x = 0;
		var y = 0;
	};
	var p = Point(1, 3);
	print(p.x + p.y);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "4" {
		t.Fatalf("expected 4, got %q", out)
	}
}

func TestStructMissingArgsFallBackToDefaults(t *testing.T) {
	src := `
	struct Point {
		var x = 7;
		var y = 9;
	};
	var p = Point(1);
	print(p.x);
	print(p.y);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "1" || lines[1] != "9" {
		t.Fatalf("expected [1 9], got %v", lines)
	}
}

func TestPrefixPostfixIncDec(t *testing.T) {
	src := `
	var x = 3;
	print(x++);
	print(x);
	print(++x);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"3", "4", "5"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestForLoopSum(t *testing.T) {
	src := `
	var s = 0;
	for (var i = 1; i <= 10; i = i + 1) {
		s += i;
	}
	print(s);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "55" {
		t.Fatalf("expected 55, got %q", out)
	}
}

func TestDivisionByZeroAborts(t *testing.T) {
	_, ok, msg := runScript(t, `print(1 / 0);`)
	if ok {
		t.Fatalf("expected abort")
	}
	if msg != "Division by zero" {
		t.Fatalf("expected exact message %q, got %q", "Division by zero", msg)
	}
}

func TestModuloByZeroAborts(t *testing.T) {
	_, ok, msg := runScript(t, `print(1 % 0);`)
	if ok {
		t.Fatalf("expected abort")
	}
	if msg != "Division by zero" {
		t.Fatalf("expected exact message %q, got %q", "Division by zero", msg)
	}
}

func TestXorIsExclusiveOrAndEvaluatesBothSides(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`print(1 xor 1);`, "0"},
		{`print(1 xor 0);`, "1"},
		{`print(0 xor 0);`, "0"},
		// A truthy left side must not skip the right side: ++n still runs.
		{`var n = 0; print(1 xor ++n); print(n);`, "0\n1"},
	}
	for _, c := range cases {
		out, ok, _ := runScript(t, c.src)
		if !ok {
			t.Fatalf("expected success for %q", c.src)
		}
		if strings.TrimSpace(out) != c.want {
			t.Errorf("%q: expected %q, got %q", c.src, c.want, out)
		}
	}
}

func TestNilIsTruthy(t *testing.T) {
	src := `
	var x = nil;
	if (x) {
		print("truthy");
	} else {
		print("falsy");
	}
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "truthy" {
		t.Fatalf("expected 'truthy', got %q", out)
	}
}

func TestClassDeclIsNoOp(t *testing.T) {
	src := `
	class Widget;
	print(1);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "1" {
		t.Fatalf("expected 1, got %q", out)
	}
}

func TestMultiNameDeclarationClonesInitializer(t *testing.T) {
	src := `
	var xs[] = [1, 2];
	var a, b = xs;
	a.push(3);
	print(a.size());
	print(b.size());
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "3" || lines[1] != "2" {
		t.Fatalf("expected [3 2] (independent clones), got %v", lines)
	}
}

func TestArrayMethods(t *testing.T) {
	src := `
	var xs[] = [10, 20, 30];
	xs.push(40);
	print(xs.size());
	print(xs.at(3));
	xs.set(0, 99);
	print(xs.at(0));
	print(xs.pop());
	print(xs.size());
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"4", "40", "99", "40", "3"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestArrayIndexOutOfRangeAborts(t *testing.T) {
	_, ok, msg := runScript(t, `
	var xs[] = [1];
	print(xs.at(5));
	`)
	if ok {
		t.Fatalf("expected abort")
	}
	if msg == "" {
		t.Fatalf("expected a non-empty abort message")
	}
}

func TestMapOperations(t *testing.T) {
	src := `
	var m{} = {"a": 1};
	m.set("b", 2);
	print(m.size());
	print(m.find("a"));
	m.erase("a");
	print(m.size());
	print(m.find("a"));
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{"2", "1", "1", "nil"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestForeachCallback(t *testing.T) {
	src := `
	var total = 0;
	function accumulate(v) {
		total = total + v;
	}
	var xs[] = [1, 2, 3, 4];
	xs.foreach(accumulate);
	print(total);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "10" {
		t.Fatalf("expected 10, got %q", out)
	}
}

func TestBreakAndContinue(t *testing.T) {
	src := `
	var s = 0;
	for (var i = 0; i < 10; i = i + 1) {
		if (i == 5) {
			break;
		}
		if (i % 2 == 0) {
			continue;
		}
		s = s + i;
	}
	print(s);
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	// odd values strictly below 5: 1 + 3 = 4
	if strings.TrimSpace(out) != "4" {
		t.Fatalf("expected 4, got %q", out)
	}
}

func TestSwitchNoFallthrough(t *testing.T) {
	src := `
	var x = 2;
	switch (x) {
	case 1:
		print("one");
	case 2:
		print("two");
	default:
		print("other");
	}
	`
	out, ok, _ := runScript(t, src)
	if !ok {
		t.Fatalf("expected success")
	}
	if strings.TrimSpace(out) != "two" {
		t.Fatalf("expected 'two', got %q", out)
	}
}

func TestRegisterNativeFunctionAndInvoke(t *testing.T) {
	var out, errOut bytes.Buffer
	ip := New(&out, &errOut)
	err := ip.RegisterNative("double", func(ctx *Context, argc int) Value {
		return AsDouble(ctx.GetDouble(0) * 2)
	})
	if err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}
	ok, msg := ip.Run(`print(double(21));`)
	if !ok {
		t.Fatalf("expected success, abort: %s", msg)
	}
	if strings.TrimSpace(out.String()) != "42" {
		t.Fatalf("expected 42, got %q", out.String())
	}
}

func TestDuplicateNativeRegistrationFails(t *testing.T) {
	var out, errOut bytes.Buffer
	ip := New(&out, &errOut)
	noop := func(ctx *Context, argc int) Value { return Nil }
	if err := ip.RegisterNative("f", noop); err != nil {
		t.Fatalf("unexpected error on first registration: %v", err)
	}
	if err := ip.RegisterNative("f", noop); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestUndefinedNameAborts(t *testing.T) {
	_, ok, msg := runScript(t, `print(doesNotExist);`)
	if ok {
		t.Fatalf("expected abort")
	}
	if msg == "" {
		t.Fatalf("expected a non-empty abort message")
	}
}

func TestRedeclarationInSameScopeAborts(t *testing.T) {
	_, ok, _ := runScript(t, `
	var x = 1;
	var x = 2;
	`)
	if ok {
		t.Fatalf("expected abort on redeclaration")
	}
}

func TestClearResetsGlobalStateButKeepsNatives(t *testing.T) {
	var out, errOut bytes.Buffer
	ip := New(&out, &errOut)
	if err := ip.RegisterNative("triple", func(ctx *Context, argc int) Value {
		return AsDouble(ctx.GetDouble(0) * 3)
	}); err != nil {
		t.Fatalf("unexpected registration error: %v", err)
	}
	ok, _ := ip.Run(`var x = 1;`)
	if !ok {
		t.Fatalf("expected first run to succeed")
	}
	ip.Clear()
	out.Reset()
	ok, msg := ip.Run(`print(triple(2));`)
	if !ok {
		t.Fatalf("expected native to survive Clear, abort: %s", msg)
	}
	if strings.TrimSpace(out.String()) != "6" {
		t.Fatalf("expected 6, got %q", out.String())
	}
}

func TestParseErrorReportedAsAbort(t *testing.T) {
	_, ok, msg := runScript(t, `var = ;`)
	if ok {
		t.Fatalf("expected parse failure to be reported as a non-ok run")
	}
	if msg != "Parse error" {
		t.Fatalf("expected 'Parse error', got %q", msg)
	}
}
