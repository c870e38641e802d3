package interp

// Environment is a lexical scope: a name-to-value mapping plus a
// parent link, per spec §3/§4.3. A child scope is pushed on each block
// entry and each function call, and popped on exit; lookup walks
// child-to-root. Grounded on the teacher's runtime.Environment shape
// (internal/interp/runtime/environment.go in CWBudde-go-dws), flattened
// here since Wisp needs neither case-insensitive names nor the
// reflection-driven alias-package split that motivated the teacher's
// split between internal/interp.Environment and internal/interp/runtime.
type Environment struct {
	vars   map[string]Value
	parent *Environment
	depth  int
}

// NewEnvironment creates the root (global) scope.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Value)}
}

// NewEnclosedEnvironment creates a child scope one level deeper than parent.
func NewEnclosedEnvironment(parent *Environment) *Environment {
	return &Environment{vars: make(map[string]Value), parent: parent, depth: parent.depth + 1}
}

// Depth returns this scope's distance from the global scope, used for
// diagnostics.
func (e *Environment) Depth() int {
	return e.depth
}

// Define binds name to value in this scope. It fails (returns false)
// if name is already bound locally — redefinition in the same scope is
// fatal per spec §4.2/§4.3, so callers translate a false return into a
// RedefinitionError diagnostic.
func (e *Environment) Define(name string, value Value) bool {
	if _, exists := e.vars[name]; exists {
		return false
	}
	e.vars[name] = value
	return true
}

// Get walks from this scope to the root looking for name.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// owner returns the nearest scope (this one or an ancestor) that binds
// name, or nil if none does.
func (e *Environment) owner(name string) *Environment {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			return env
		}
	}
	return nil
}

// Set replaces the reference bound to name in whichever scope already
// owns it. It reports false if no scope binds name.
func (e *Environment) Set(name string, value Value) bool {
	owner := e.owner(name)
	if owner == nil {
		return false
	}
	owner.vars[name] = value
	return true
}

// Contains reports whether name is bound locally or in an ancestor scope.
func (e *Environment) Contains(name string) bool {
	return e.owner(name) != nil
}
