package interp

// Flow tags the kind of control transfer a Result carries, per spec
// §9's redesign note ("prefer a Result/ControlFlow enum threaded
// through the evaluator, reserving exceptions only for fatal aborts").
// Grounded on the Result{Val, Flow} carrier used across the pack's
// MOO-derived interpreter (_examples/MongooseMoo-barn/types/result.go);
// go-dws itself threads a plain Value plus a side-channel error, so
// this shape is adopted from barn rather than the teacher directly.
type Flow int

const (
	FlowNormal Flow = iota
	FlowReturn
	FlowBreak
	FlowContinue
	FlowAbort
)

// Result is returned by every statement-executing method and by every
// expression-evaluating method that can trigger a non-local transfer.
// Val carries the produced value (meaningful for FlowNormal and
// FlowReturn); Flow says what, if anything, is unwinding; Message
// carries the abort diagnostic text when Flow is FlowAbort.
type Result struct {
	Val     Value
	Flow    Flow
	Message string
}

// Ok wraps a normally-produced value with no pending transfer.
func Ok(v Value) Result {
	return Result{Val: v, Flow: FlowNormal}
}

// ReturnResult signals a `return` unwinding to the nearest call frame.
func ReturnResult(v Value) Result {
	return Result{Val: v, Flow: FlowReturn}
}

// BreakResult signals a `break` unwinding to the nearest loop.
func BreakResult() Result {
	return Result{Val: Nil, Flow: FlowBreak}
}

// ContinueResult signals a `continue` unwinding to the nearest loop.
func ContinueResult() Result {
	return Result{Val: Nil, Flow: FlowContinue}
}

// Abort signals a fatal error unwinding the entire evaluation.
func Abort(message string) Result {
	return Result{Val: Nil, Flow: FlowAbort, Message: message}
}

// IsNormal reports whether r carries no pending transfer.
func (r Result) IsNormal() bool { return r.Flow == FlowNormal }

// IsAbort reports whether r is unwinding the whole evaluation.
func (r Result) IsAbort() bool { return r.Flow == FlowAbort }

// IsUnwinding reports whether r carries any non-local transfer at all
// (return, break, continue, or abort) that a caller must propagate
// rather than continue past.
func (r Result) IsUnwinding() bool { return r.Flow != FlowNormal }
