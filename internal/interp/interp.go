// Package interp implements the Wisp tree-walking evaluator: the
// Value model, the lexical Environment chain, and the Interpreter that
// dispatches over every AST expression and statement variant.
package interp

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/lexer"
	"wisp/internal/parser"
)

// Interpreter walks a parsed Program, threading a single lexical scope
// stack and a Result/Flow carrier for non-local transfer (see
// result.go). One Interpreter may run many programs in sequence via
// Run; Clear resets its global state between runs.
type Interpreter struct {
	globals   *Environment
	env       *Environment
	structs   map[string]*StructTemplate
	registry  *Registry
	reporter  *diag.Reporter
	arena     *Arena
	ctx       *Context
	out       io.Writer
	loopDepth int
}

// New creates an Interpreter that writes `print` output to out and
// diagnostics to errOut.
func New(out io.Writer, errOut io.Writer) *Interpreter {
	globals := NewEnvironment()
	return &Interpreter{
		globals:  globals,
		env:      globals,
		structs:  make(map[string]*StructTemplate),
		registry: NewRegistry(),
		reporter: diag.NewReporter(errOut),
		ctx:      NewContext(),
		out:      out,
	}
}

// Reporter exposes the interpreter's diagnostic sink, e.g. so a CLI
// subcommand can check HadError after a parse-only run.
func (ip *Interpreter) Reporter() *diag.Reporter {
	return ip.reporter
}

// RegisterNative installs fn under name in both the native registry and
// the global scope, per spec §4.4. Duplicate registration is fatal.
func (ip *Interpreter) RegisterNative(name string, fn NativeFunc) error {
	if err := ip.registry.Register(name, fn); err != nil {
		return err
	}
	ip.globals.Define(name, &NativeValue{Name: name, Fn: fn})
	return nil
}

// Run lexes, parses, and executes source, per the Host API's
// `run(source_text) -> bool`. The second return value carries the
// abort message on fatal failure so the caller can print
// `Abort <message>` per spec §6.
func (ip *Interpreter) Run(source string) (ok bool, abortMessage string) {
	ip.reporter.Reset()

	l := lexer.New(source)
	var tokens []lexer.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}

	p := parser.New(tokens, ip.reporter)
	program := p.ParseProgram()
	if ip.reporter.HadError() {
		return false, "Parse error"
	}

	ip.arena = NewArena()
	defer ip.arena.Release()
	ip.loopDepth = 0

	res := ip.execProgram(program)
	if res.Flow == FlowAbort {
		return false, res.Message
	}
	return true, ""
}

// Clear releases the evaluator's global scope, struct templates, and
// arena, per the Host API's `clear()`. Previously registered native
// functions are re-bound into the fresh global scope since they are
// host state, not evaluator state.
func (ip *Interpreter) Clear() {
	ip.globals = NewEnvironment()
	ip.env = ip.globals
	ip.structs = make(map[string]*StructTemplate)
	for _, name := range ip.registry.Names() {
		if fn, ok := ip.registry.Get(name); ok {
			ip.globals.Define(name, &NativeValue{Name: name, Fn: fn})
		}
	}
	if ip.arena != nil {
		ip.arena.Release()
		ip.arena = nil
	}
}

// fatal reports an ERROR diagnostic and returns an abort Result,
// unwinding the whole evaluation (spec §7: NameError/ArityError/
// DomainError all unwind).
func (ip *Interpreter) fatal(line int, kind diag.Kind, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	ip.reporter.Report(diag.Diagnostic{Severity: diag.SeverityError, Kind: kind, Line: line, Message: msg})
	return Abort(msg)
}

// warn reports a WARNING diagnostic and returns Nil without unwinding,
// matching spec §7's policy for TypeError on unsupported operator
// pairs and similar best-effort paths.
func (ip *Interpreter) warn(line int, kind diag.Kind, format string, args ...any) Value {
	msg := fmt.Sprintf(format, args...)
	ip.reporter.Report(diag.Diagnostic{Severity: diag.SeverityWarning, Kind: kind, Line: line, Message: msg})
	return Nil
}

// --- Program / statement execution --------------------------------------

func (ip *Interpreter) execProgram(p *ast.Program) Result {
	for _, stmt := range p.Stmts {
		res := ip.exec(stmt)
		if res.Flow == FlowAbort {
			return res
		}
	}
	return Ok(Nil)
}

// exec dispatches a single statement, per spec §4.2's statement
// contracts. A nil Stmt is the parser's error-recovery placeholder
// (§4.1) and executes as a no-op.
func (ip *Interpreter) exec(s ast.Stmt) Result {
	if s == nil {
		return Ok(Nil)
	}
	switch st := s.(type) {
	case *ast.Block:
		return ip.execBlock(st)
	case *ast.ExpressionStmt:
		res := ip.eval(st.Expr)
		if res.Flow == FlowAbort {
			return res
		}
		return Ok(Nil)
	case *ast.Declaration:
		return ip.execDeclaration(st)
	case *ast.If:
		return ip.execIf(st)
	case *ast.While:
		return ip.execWhile(st)
	case *ast.Do:
		return ip.execDo(st)
	case *ast.For:
		return ip.execFor(st)
	case *ast.From:
		return ip.execFrom(st)
	case *ast.Switch:
		return ip.execSwitch(st)
	case *ast.Return:
		return ip.execReturn(st)
	case *ast.Break:
		return ip.execBreak(st)
	case *ast.Continue:
		return ip.execContinue(st)
	case *ast.Print:
		return ip.execPrint(st)
	case *ast.FunctionStmt:
		return ip.execFunctionStmt(st)
	case *ast.StructStmt:
		return ip.execStructStmt(st)
	case *ast.ClassStmt:
		return Ok(Nil)
	case *ast.ArrayStmt:
		return ip.execArrayStmt(st)
	case *ast.MapStmt:
		return ip.execMapStmt(st)
	default:
		return ip.fatal(s.Line(), diag.KindType, "unhandled statement %T", s)
	}
}

func (ip *Interpreter) execBlock(b *ast.Block) Result {
	prev := ip.env
	ip.env = NewEnclosedEnvironment(prev)
	result := Ok(Nil)
	for _, stmt := range b.Stmts {
		result = ip.exec(stmt)
		if result.IsUnwinding() {
			break
		}
	}
	ip.env = prev
	return result
}

func (ip *Interpreter) execDeclaration(d *ast.Declaration) Result {
	var initVal Value = Nil
	if d.IsInitialized {
		res := ip.eval(d.Initializer)
		if res.Flow == FlowAbort {
			return res
		}
		initVal = res.Val
	}
	if len(d.Names) == 0 {
		return Ok(Nil)
	}
	if !ip.env.Define(d.Names[0], initVal) {
		return ip.fatal(d.LineNo, diag.KindRedefinition, "'%s' already declared in this scope", d.Names[0])
	}
	for _, name := range d.Names[1:] {
		if !ip.env.Define(name, initVal.Clone()) {
			return ip.fatal(d.LineNo, diag.KindRedefinition, "'%s' already declared in this scope", name)
		}
	}
	return Ok(Nil)
}

func (ip *Interpreter) execIf(st *ast.If) Result {
	condRes := ip.eval(st.Cond)
	if condRes.Flow == FlowAbort {
		return condRes
	}
	if condRes.Val.Truthy() {
		return ip.exec(st.Then)
	}
	for _, elif := range st.Elifs {
		er := ip.eval(elif.Cond)
		if er.Flow == FlowAbort {
			return er
		}
		if er.Val.Truthy() {
			return ip.exec(elif.Then)
		}
	}
	if st.Else != nil {
		return ip.exec(st.Else)
	}
	return Ok(Nil)
}

func (ip *Interpreter) execWhile(st *ast.While) Result {
	ip.loopDepth++
	defer func() { ip.loopDepth-- }()
	for {
		condRes := ip.eval(st.Cond)
		if condRes.Flow == FlowAbort {
			return condRes
		}
		if !condRes.Val.Truthy() {
			return Ok(Nil)
		}
		bodyRes := ip.exec(st.Body)
		switch bodyRes.Flow {
		case FlowBreak:
			return Ok(Nil)
		case FlowReturn, FlowAbort:
			return bodyRes
		}
	}
}

func (ip *Interpreter) execDo(st *ast.Do) Result {
	ip.loopDepth++
	defer func() { ip.loopDepth-- }()
	for {
		bodyRes := ip.exec(st.Body)
		switch bodyRes.Flow {
		case FlowBreak:
			return Ok(Nil)
		case FlowReturn, FlowAbort:
			return bodyRes
		}
		condRes := ip.eval(st.Cond)
		if condRes.Flow == FlowAbort {
			return condRes
		}
		if !condRes.Val.Truthy() {
			return Ok(Nil)
		}
	}
}

func (ip *Interpreter) execFor(st *ast.For) Result {
	prev := ip.env
	ip.env = NewEnclosedEnvironment(prev)
	defer func() { ip.env = prev }()

	if st.Init != nil {
		initRes := ip.exec(st.Init)
		if initRes.Flow == FlowAbort {
			return initRes
		}
	}

	ip.loopDepth++
	defer func() { ip.loopDepth-- }()

	for {
		if st.Cond != nil {
			condRes := ip.eval(st.Cond)
			if condRes.Flow == FlowAbort {
				return condRes
			}
			if !condRes.Val.Truthy() {
				return Ok(Nil)
			}
		}
		bodyRes := ip.exec(st.Body)
		switch bodyRes.Flow {
		case FlowBreak:
			return Ok(Nil)
		case FlowReturn, FlowAbort:
			return bodyRes
		}
		if st.Inc != nil {
			incRes := ip.eval(st.Inc)
			if incRes.Flow == FlowAbort {
				return incRes
			}
		}
	}
}

func (ip *Interpreter) execFrom(st *ast.From) Result {
	arrRes := ip.eval(st.Array)
	if arrRes.Flow == FlowAbort {
		return arrRes
	}
	arr, ok := arrRes.Val.(*ArrayValue)
	if !ok {
		return ip.fatal(st.LineNo, diag.KindType, "'from' requires an array")
	}

	prev := ip.env
	ip.env = NewEnclosedEnvironment(prev)
	defer func() { ip.env = prev }()
	ip.env.Define(st.VarName, Nil)

	ip.loopDepth++
	defer func() { ip.loopDepth-- }()

	for _, elem := range arr.Elements {
		ip.env.Set(st.VarName, elem)
		bodyRes := ip.exec(st.Body)
		switch bodyRes.Flow {
		case FlowBreak:
			return Ok(Nil)
		case FlowReturn, FlowAbort:
			return bodyRes
		}
	}
	return Ok(Nil)
}

func (ip *Interpreter) execSwitch(st *ast.Switch) Result {
	condRes := ip.eval(st.Cond)
	if condRes.Flow == FlowAbort {
		return condRes
	}
	for _, c := range st.Cases {
		labelRes := ip.eval(c.Label)
		if labelRes.Flow == FlowAbort {
			return labelRes
		}
		if valuesEqual(condRes.Val, labelRes.Val) {
			return ip.exec(c.Body)
		}
	}
	if st.Default != nil {
		return ip.exec(st.Default)
	}
	return Ok(Nil)
}

func (ip *Interpreter) execReturn(st *ast.Return) Result {
	var v Value = Nil
	if st.Value != nil {
		res := ip.eval(st.Value)
		if res.Flow == FlowAbort {
			return res
		}
		v = res.Val
	}
	return ReturnResult(v)
}

func (ip *Interpreter) execBreak(st *ast.Break) Result {
	if ip.loopDepth == 0 {
		ip.warn(st.LineNo, diag.KindControlFlow, "break outside a loop")
		return Ok(Nil)
	}
	return BreakResult()
}

func (ip *Interpreter) execContinue(st *ast.Continue) Result {
	if ip.loopDepth == 0 {
		ip.warn(st.LineNo, diag.KindControlFlow, "continue outside a loop")
		return Ok(Nil)
	}
	return ContinueResult()
}

func (ip *Interpreter) execPrint(st *ast.Print) Result {
	res := ip.eval(st.Expr)
	if res.Flow == FlowAbort {
		return res
	}
	if ip.out != nil {
		fmt.Fprintln(ip.out, res.Val.String())
	}
	return Ok(Nil)
}

func (ip *Interpreter) execFunctionStmt(st *ast.FunctionStmt) Result {
	fv := &FunctionValue{Name: st.Name, Params: st.Params, Body: st.Body, Closure: ip.globals}
	if !ip.globals.Define(st.Name, fv) {
		return ip.fatal(st.LineNo, diag.KindRedefinition, "function '%s' already defined", st.Name)
	}
	return Ok(Nil)
}

func (ip *Interpreter) execStructStmt(st *ast.StructStmt) Result {
	if _, exists := ip.structs[st.Name]; exists {
		// Duplicate struct name is tolerated: define returns false,
		// first declaration wins, per spec §4.2.
		return Ok(Nil)
	}
	tmpl := &StructTemplate{
		Name:    st.Name,
		Fields:  make([]string, 0, len(st.Fields)),
		Default: make(map[string]Value, len(st.Fields)),
	}
	for _, f := range st.Fields {
		res := ip.eval(f.Default)
		if res.Flow == FlowAbort {
			return res
		}
		tmpl.Fields = append(tmpl.Fields, f.Name)
		tmpl.Default[f.Name] = res.Val
	}
	ip.structs[st.Name] = tmpl
	return Ok(Nil)
}

func (ip *Interpreter) execArrayStmt(st *ast.ArrayStmt) Result {
	elems := make([]Value, 0, len(st.Elements))
	for _, el := range st.Elements {
		res := ip.eval(el)
		if res.Flow == FlowAbort {
			return res
		}
		elems = append(elems, res.Val)
	}
	arr := ip.arena.NewArray(st.Name, elems)
	if !ip.env.Define(st.Name, arr) {
		return ip.fatal(st.LineNo, diag.KindRedefinition, "'%s' already declared in this scope", st.Name)
	}
	return Ok(Nil)
}

func (ip *Interpreter) execMapStmt(st *ast.MapStmt) Result {
	entries := make([]MapEntryVal, 0, len(st.Entries))
	for _, e := range st.Entries {
		kRes := ip.eval(e.Key)
		if kRes.Flow == FlowAbort {
			return kRes
		}
		if !isMapKey(kRes.Val) {
			return ip.fatal(st.LineNo, diag.KindType, "map key must be Number or String")
		}
		vRes := ip.eval(e.Value)
		if vRes.Flow == FlowAbort {
			return vRes
		}
		entries = append(entries, MapEntryVal{Key: kRes.Val, Value: vRes.Val})
	}
	m := ip.arena.NewMap(st.Name, entries)
	if !ip.env.Define(st.Name, m) {
		return ip.fatal(st.LineNo, diag.KindRedefinition, "'%s' already declared in this scope", st.Name)
	}
	return Ok(Nil)
}

func isMapKey(v Value) bool {
	switch v.(type) {
	case *NumberValue, *StringValue:
		return true
	default:
		return false
	}
}

// --- Expression evaluation ------------------------------------------------

// eval dispatches a single expression, per spec §4.2's expression
// contracts. Every case returns a Result whose Flow is FlowNormal or
// FlowAbort: expressions never themselves produce return/break/
// continue (a nested function call's Return is caught at the call
// boundary before its Result escapes as an expression value).
func (ip *Interpreter) eval(e ast.Expr) Result {
	switch ex := e.(type) {
	case *ast.Empty:
		return Ok(Nil)
	case *ast.NumberLit:
		return Ok(&NumberValue{Value: ex.Value})
	case *ast.StringLit:
		return Ok(&StringValue{Value: ex.Value})
	case *ast.NilLit:
		return Ok(Nil)
	case *ast.Now:
		return Ok(&NumberValue{Value: float64(time.Now().UnixNano()) / 1e9})
	case *ast.Variable:
		v, ok := ip.env.Get(ex.Name)
		if !ok {
			return ip.fatal(ex.LineNo, diag.KindName, "Undefined name '%s'", ex.Name)
		}
		return Ok(v)
	case *ast.Grouping:
		return ip.eval(ex.Inner)
	case *ast.Unary:
		return ip.evalUnary(ex)
	case *ast.Binary:
		return ip.evalBinary(ex)
	case *ast.Logical:
		return ip.evalLogical(ex)
	case *ast.Assign:
		return ip.evalAssign(ex)
	case *ast.Call:
		return ip.evalCall(ex)
	case *ast.Get:
		return ip.evalGet(ex)
	case *ast.GetDef:
		return ip.evalGetDef(ex)
	case *ast.Set:
		return ip.evalSet(ex)
	default:
		return ip.fatal(e.Line(), diag.KindType, "unhandled expression %T", e)
	}
}

func (ip *Interpreter) evalUnary(ex *ast.Unary) Result {
	line := ex.LineNo
	switch ex.Op {
	case lexer.INC, lexer.DEC:
		operandRes := ip.eval(ex.Operand)
		if operandRes.Flow == FlowAbort {
			return operandRes
		}
		nv, ok := operandRes.Val.(*NumberValue)
		if !ok {
			return Ok(ip.warn(line, diag.KindType, "increment/decrement requires a Number"))
		}
		old := nv.Value
		delta := 1.0
		if ex.Op == lexer.DEC {
			delta = -1.0
		}
		nv.Value = old + delta
		if ex.IsPrefix {
			return Ok(nv)
		}
		return Ok(&NumberValue{Value: old})
	case lexer.NOT:
		operandRes := ip.eval(ex.Operand)
		if operandRes.Flow == FlowAbort {
			return operandRes
		}
		if _, ok := operandRes.Val.(*NumberValue); !ok {
			return Ok(ip.warn(line, diag.KindType, "logical not requires a Number"))
		}
		return Ok(AsBoolean(!operandRes.Val.Truthy()))
	case lexer.MINUS:
		operandRes := ip.eval(ex.Operand)
		if operandRes.Flow == FlowAbort {
			return operandRes
		}
		nv, ok := operandRes.Val.(*NumberValue)
		if !ok {
			return Ok(ip.warn(line, diag.KindType, "negation requires a Number"))
		}
		return Ok(&NumberValue{Value: -nv.Value})
	default:
		return ip.fatal(line, diag.KindType, "unsupported unary operator")
	}
}

func (ip *Interpreter) evalBinary(ex *ast.Binary) Result {
	leftRes := ip.eval(ex.Left)
	if leftRes.Flow == FlowAbort {
		return leftRes
	}
	rightRes := ip.eval(ex.Right)
	if rightRes.Flow == FlowAbort {
		return rightRes
	}
	l, r := leftRes.Val, rightRes.Val
	line := ex.LineNo

	switch ex.Op {
	case lexer.PLUS:
		if ln, ok := l.(*NumberValue); ok {
			if rn, ok := r.(*NumberValue); ok {
				return Ok(&NumberValue{Value: ln.Value + rn.Value})
			}
			if rs, ok := r.(*StringValue); ok {
				return Ok(&StringValue{Value: ln.String() + rs.Value})
			}
		}
		if ls, ok := l.(*StringValue); ok {
			if rs, ok := r.(*StringValue); ok {
				return Ok(&StringValue{Value: ls.Value + rs.Value})
			}
			if rn, ok := r.(*NumberValue); ok {
				return Ok(&StringValue{Value: ls.Value + rn.String()})
			}
		}
		return Ok(ip.warn(line, diag.KindType, "[BINARY] Unknown operator"))
	case lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT:
		ln, lok := l.(*NumberValue)
		rn, rok := r.(*NumberValue)
		if !lok || !rok {
			return Ok(ip.warn(line, diag.KindType, "[BINARY] Unknown operator"))
		}
		switch ex.Op {
		case lexer.MINUS:
			return Ok(&NumberValue{Value: ln.Value - rn.Value})
		case lexer.STAR:
			return Ok(&NumberValue{Value: ln.Value * rn.Value})
		case lexer.SLASH:
			if rn.Value == 0 {
				return ip.fatal(line, diag.KindDomain, "Division by zero")
			}
			return Ok(&NumberValue{Value: ln.Value / rn.Value})
		case lexer.PERCENT:
			if rn.Value == 0 {
				return ip.fatal(line, diag.KindDomain, "Division by zero")
			}
			return Ok(&NumberValue{Value: math.Mod(ln.Value, rn.Value)})
		}
	case lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		ln, lok := l.(*NumberValue)
		rn, rok := r.(*NumberValue)
		if !lok || !rok {
			return Ok(ip.warn(line, diag.KindType, "[BINARY] Unknown operator"))
		}
		var b bool
		switch ex.Op {
		case lexer.LT:
			b = ln.Value < rn.Value
		case lexer.LE:
			b = ln.Value <= rn.Value
		case lexer.GT:
			b = ln.Value > rn.Value
		case lexer.GE:
			b = ln.Value >= rn.Value
		}
		return Ok(AsBoolean(b))
	case lexer.EQ:
		return Ok(AsBoolean(valuesEqual(l, r)))
	case lexer.NE:
		return Ok(AsBoolean(!valuesEqual(l, r)))
	}
	return ip.fatal(line, diag.KindType, "unsupported binary operator %q", ex.OpLexeme)
}

func (ip *Interpreter) evalLogical(ex *ast.Logical) Result {
	leftRes := ip.eval(ex.Left)
	if leftRes.Flow == FlowAbort {
		return leftRes
	}
	left := leftRes.Val

	switch ex.Op {
	case lexer.OR, lexer.XOR:
		// xor's truth table needs both operands; spec §9's decided
		// resolution fixes the source's xor==or aliasing bug by
		// always evaluating the right side for xor specifically.
		if ex.Op == lexer.OR {
			if left.Truthy() {
				return Ok(left)
			}
			return ip.eval(ex.Right)
		}
		rightRes := ip.eval(ex.Right)
		if rightRes.Flow == FlowAbort {
			return rightRes
		}
		return Ok(AsBoolean(left.Truthy() != rightRes.Val.Truthy()))
	case lexer.AND:
		if !left.Truthy() {
			return Ok(left)
		}
		return ip.eval(ex.Right)
	default:
		return ip.fatal(ex.LineNo, diag.KindType, "unsupported logical operator")
	}
}

func (ip *Interpreter) evalAssign(ex *ast.Assign) Result {
	rhsRes := ip.eval(ex.Value)
	if rhsRes.Flow == FlowAbort {
		return rhsRes
	}
	newVal := rhsRes.Val

	existing, ok := ip.env.Get(ex.Name)
	if !ok {
		return ip.fatal(ex.LineNo, diag.KindName, "Undefined name '%s'", ex.Name)
	}

	switch ev := existing.(type) {
	case *NilValue:
		ip.env.Set(ex.Name, newVal)
		return Ok(newVal)
	case *NumberValue:
		if nv, ok := newVal.(*NumberValue); ok {
			ev.Value = nv.Value
			return Ok(ev)
		}
		return Ok(ip.warn(ex.LineNo, diag.KindType, "cannot assign non-Number to Number '%s'", ex.Name))
	case *StringValue:
		if sv, ok := newVal.(*StringValue); ok {
			ev.Value = sv.Value
			return Ok(ev)
		}
		return Ok(ip.warn(ex.LineNo, diag.KindType, "cannot assign non-String to String '%s'", ex.Name))
	default:
		if fmt.Sprintf("%T", existing) == fmt.Sprintf("%T", newVal) {
			ip.env.Set(ex.Name, newVal)
			return Ok(newVal)
		}
		return Ok(ip.warn(ex.LineNo, diag.KindType, "cannot assign mismatched kind to '%s'", ex.Name))
	}
}

func (ip *Interpreter) evalCall(ex *ast.Call) Result {
	line := ex.LineNo

	if tmpl, ok := ip.structs[ex.Name]; ok {
		return ip.constructStruct(tmpl, ex.Args, line)
	}

	v, ok := ip.globals.Get(ex.Name)
	if !ok {
		return ip.fatal(line, diag.KindName, "Undefined function '%s'", ex.Name)
	}

	argVals, res := ip.evalArgs(ex.Args)
	if res != nil {
		return *res
	}

	switch fv := v.(type) {
	case *FunctionValue:
		return ip.invokeFunction(fv, argVals, line)
	case *NativeValue:
		return ip.invokeNative(fv, argVals)
	default:
		return ip.fatal(line, diag.KindType, "'%s' is not callable", ex.Name)
	}
}

// evalArgs evaluates each argument expression in order, returning the
// first abort Result (as a pointer so a nil return signals no abort
// occurred) to propagate left-to-right as spec §5 requires.
func (ip *Interpreter) evalArgs(args []ast.Expr) ([]Value, *Result) {
	vals := make([]Value, 0, len(args))
	for _, a := range args {
		res := ip.eval(a)
		if res.Flow == FlowAbort {
			return nil, &res
		}
		vals = append(vals, res.Val)
	}
	return vals, nil
}

func (ip *Interpreter) constructStruct(tmpl *StructTemplate, argExprs []ast.Expr, line int) Result {
	argVals, res := ip.evalArgs(argExprs)
	if res != nil {
		return *res
	}
	inst := ip.arena.NewStruct(tmpl.Name, tmpl.Fields)
	for i, name := range tmpl.Fields {
		if i < len(argVals) {
			inst.Fields[name] = argVals[i]
		} else {
			inst.Fields[name] = tmpl.Default[name].Clone()
		}
	}
	if len(argVals) > len(tmpl.Fields) {
		ip.warn(line, diag.KindArity, "excess constructor arguments for struct '%s'", tmpl.Name)
	}
	return Ok(inst)
}

func (ip *Interpreter) invokeFunction(fv *FunctionValue, args []Value, line int) Result {
	if len(args) != len(fv.Params) {
		return ip.fatal(line, diag.KindArity, "function '%s' expects %d argument(s), got %d", fv.Name, len(fv.Params), len(args))
	}
	return ip.callFunctionBody(fv, args)
}

func (ip *Interpreter) callFunctionBody(fv *FunctionValue, args []Value) Result {
	callEnv := NewEnclosedEnvironment(fv.Closure)
	for i, p := range fv.Params {
		callEnv.Define(p, args[i])
	}
	prev := ip.env
	ip.env = callEnv
	res := ip.exec(fv.Body)
	ip.env = prev

	switch res.Flow {
	case FlowReturn:
		return Ok(res.Val)
	case FlowAbort:
		return res
	default:
		return Ok(Nil)
	}
}

func (ip *Interpreter) invokeNative(nv *NativeValue, args []Value) Result {
	ip.ctx.Clear()
	for _, a := range args {
		ip.ctx.push(a)
	}
	result := nv.Fn(ip.ctx, len(args))
	ip.ctx.Clear()
	if result == nil {
		result = Nil
	}
	return Ok(result)
}

// callValue invokes an arbitrary callable Value with a fixed argument
// list, used by Array/Map foreach to call the supplied function value
// per element. It mirrors invokeFunction/invokeNative's dispatch
// without the Call AST node's name-based struct-constructor lookup,
// since foreach callbacks are never struct constructors.
func (ip *Interpreter) callValue(fn Value, args []Value, line int) Result {
	switch fv := fn.(type) {
	case *FunctionValue:
		if len(args) != len(fv.Params) {
			return ip.fatal(line, diag.KindArity, "function '%s' expects %d argument(s), got %d", fv.Name, len(fv.Params), len(args))
		}
		return ip.callFunctionBody(fv, args)
	case *NativeValue:
		return ip.invokeNative(fv, args)
	default:
		return ip.fatal(line, diag.KindType, "value is not callable")
	}
}

func (ip *Interpreter) evalGet(ex *ast.Get) Result {
	targetRes := ip.eval(ex.Object)
	if targetRes.Flow == FlowAbort {
		return targetRes
	}
	switch t := targetRes.Val.(type) {
	case *StructValue:
		if v, ok := t.Fields[ex.Name]; ok {
			return Ok(v)
		}
		return Ok(ip.warn(ex.LineNo, diag.KindName, "struct '%s' has no member '%s'", t.TypeName, ex.Name))
	case *ArrayValue:
		// Get on Array is reserved; indexing is exclusively via
		// .at(i)/.set(i, v), per spec §9's decided Open Question.
		return Ok(ip.warn(ex.LineNo, diag.KindType, "array field access is reserved; use .at(i)"))
	default:
		return Ok(ip.warn(ex.LineNo, diag.KindType, "get is only supported on struct values"))
	}
}

func (ip *Interpreter) evalSet(ex *ast.Set) Result {
	targetRes := ip.eval(ex.Object)
	if targetRes.Flow == FlowAbort {
		return targetRes
	}
	valRes := ip.eval(ex.Value)
	if valRes.Flow == FlowAbort {
		return valRes
	}
	switch t := targetRes.Val.(type) {
	case *StructValue:
		if _, ok := t.Fields[ex.Name]; ok {
			cloned := valRes.Val.Clone()
			t.Fields[ex.Name] = cloned
			return Ok(cloned)
		}
		return Ok(ip.warn(ex.LineNo, diag.KindName, "struct '%s' has no member '%s'", t.TypeName, ex.Name))
	default:
		return Ok(ip.warn(ex.LineNo, diag.KindType, "set is only supported on struct values"))
	}
}

func (ip *Interpreter) evalGetDef(ex *ast.GetDef) Result {
	targetRes := ip.eval(ex.Variable)
	if targetRes.Flow == FlowAbort {
		return targetRes
	}
	argVals, res := ip.evalArgs(ex.Args)
	if res != nil {
		return *res
	}
	name := strings.ToLower(ex.Name)

	switch agg := targetRes.Val.(type) {
	case *ArrayValue:
		return ip.arrayMethod(agg, name, argVals, ex.LineNo)
	case *MapValue:
		return ip.mapMethod(agg, name, argVals, ex.LineNo)
	default:
		return ip.fatal(ex.LineNo, diag.KindType, "method '%s' is not supported on %s", ex.Name, targetRes.Val.Type())
	}
}

func (ip *Interpreter) arrayMethod(a *ArrayValue, name string, args []Value, line int) Result {
	switch name {
	case "push":
		a.Elements = append(a.Elements, args...)
		return Ok(a)
	case "pop":
		if len(a.Elements) == 0 {
			return ip.fatal(line, diag.KindDomain, "pop from an empty array")
		}
		last := a.Elements[len(a.Elements)-1]
		a.Elements = a.Elements[:len(a.Elements)-1]
		return Ok(last)
	case "size":
		return Ok(&NumberValue{Value: float64(len(a.Elements))})
	case "at":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "at() requires an index argument")
		}
		nv, ok := args[0].(*NumberValue)
		if !ok {
			return ip.fatal(line, diag.KindType, "at() requires a Number index")
		}
		i := int(nv.Value)
		if i < 0 || i >= len(a.Elements) {
			return ip.fatal(line, diag.KindDomain, "array index %d out of range", i)
		}
		return Ok(a.Elements[i])
	case "set":
		if len(args) < 2 {
			return ip.fatal(line, diag.KindArity, "set() requires an index and a value")
		}
		nv, ok := args[0].(*NumberValue)
		if !ok {
			return ip.fatal(line, diag.KindType, "set() requires a Number index")
		}
		i := int(nv.Value)
		if i < 0 || i >= len(a.Elements) {
			return ip.fatal(line, diag.KindDomain, "array index %d out of range", i)
		}
		a.Elements[i] = args[1]
		return Ok(a.Elements[i])
	case "remove":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "remove() requires an index argument")
		}
		nv, ok := args[0].(*NumberValue)
		if !ok {
			return ip.fatal(line, diag.KindType, "remove() requires a Number index")
		}
		i := int(nv.Value)
		if i < 0 || i >= len(a.Elements) {
			return ip.fatal(line, diag.KindDomain, "array index %d out of range", i)
		}
		removed := a.Elements[i]
		a.Elements = append(a.Elements[:i], a.Elements[i+1:]...)
		return Ok(removed)
	case "clear":
		a.Elements = nil
		return Ok(Nil)
	case "foreach":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "foreach() requires a function argument")
		}
		for _, elem := range a.Elements {
			res := ip.callValue(args[0], []Value{elem}, line)
			if res.Flow == FlowAbort {
				return res
			}
		}
		return Ok(Nil)
	default:
		return ip.fatal(line, diag.KindType, "unknown array method '%s'", name)
	}
}

func (ip *Interpreter) mapMethod(m *MapValue, name string, args []Value, line int) Result {
	switch name {
	case "size":
		return Ok(&NumberValue{Value: float64(len(m.Entries))})
	case "set":
		if len(args) < 2 {
			return ip.fatal(line, diag.KindArity, "set() requires a key and a value")
		}
		if !isMapKey(args[0]) {
			return ip.fatal(line, diag.KindType, "map key must be Number or String")
		}
		for i, e := range m.Entries {
			if mapKeyEqual(e.Key, args[0]) {
				m.Entries[i].Value = args[1]
				return Ok(args[1])
			}
		}
		m.Entries = append(m.Entries, MapEntryVal{Key: args[0], Value: args[1]})
		return Ok(args[1])
	case "find":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "find() requires a key")
		}
		for _, e := range m.Entries {
			if mapKeyEqual(e.Key, args[0]) {
				return Ok(e.Value)
			}
		}
		return Ok(Nil)
	case "erase":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "erase() requires a key")
		}
		for i, e := range m.Entries {
			if mapKeyEqual(e.Key, args[0]) {
				m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
				return Ok(Nil)
			}
		}
		return Ok(Nil)
	case "clear":
		m.Entries = nil
		return Ok(Nil)
	case "foreach":
		if len(args) < 1 {
			return ip.fatal(line, diag.KindArity, "foreach() requires a function argument")
		}
		for _, e := range m.Entries {
			res := ip.callValue(args[0], []Value{e.Key, e.Value}, line)
			if res.Flow == FlowAbort {
				return res
			}
		}
		return Ok(Nil)
	default:
		return ip.fatal(line, diag.KindType, "unknown map method '%s'", name)
	}
}
