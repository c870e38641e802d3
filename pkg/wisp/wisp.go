// Package wisp is the embeddable engine a host program links against,
// implementing spec.md §6's Host API over internal/interp.Interpreter.
// Grounded on go-dws's pairing of internal/interp.Interpreter with its
// ExternalFunctionRegistry, surfaced here as a single small facade so a
// host never needs to import internal/interp directly.
package wisp

import (
	"io"

	"wisp/internal/diag"
	"wisp/internal/interp"
)

// NativeFunc is the signature a host-registered native function
// implements: it reads its arguments from ctx and returns the result
// Literal, per spec §4.4.
type NativeFunc = interp.NativeFunc

// Context is the per-call native argument buffer, re-exported so a
// host can write native functions without importing internal/interp.
type Context = interp.Context

// Engine is one embeddable Wisp instance: a fresh global scope, struct
// registry, and native-function table, created by New.
type Engine struct {
	ip *interp.Interpreter
}

// New creates an Engine that writes `print` output to out and
// diagnostics to errOut, with the demo native functions described in
// SPEC_FULL.md's native bridge module pre-registered.
func New(out io.Writer, errOut io.Writer) (*Engine, error) {
	e := &Engine{ip: interp.New(out, errOut)}
	if err := registerDemoNatives(e.ip); err != nil {
		return nil, err
	}
	return e, nil
}

// RegisterNative installs fn under name, per spec §6's
// `register_native(name, fn)`. Duplicate registration is an error.
func (e *Engine) RegisterNative(name string, fn NativeFunc) error {
	return e.ip.RegisterNative(name, fn)
}

// Run lexes, parses, and executes source, per spec §6's
// `run(source_text) -> bool`. On fatal failure, ok is false and
// abortMessage carries the diagnostic text a host should print as
// `Abort <message>`.
func (e *Engine) Run(source string) (ok bool, abortMessage string) {
	return e.ip.Run(source)
}

// Clear releases global scope, struct templates, and the run arena,
// per spec §6's `clear()`. Registered natives survive a Clear.
func (e *Engine) Clear() {
	e.ip.Clear()
}

// Reporter exposes the engine's diagnostic sink.
func (e *Engine) Reporter() *diag.Reporter {
	return e.ip.Reporter()
}
