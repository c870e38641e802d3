package interp

import "fmt"

// Registry maps names to host-registered native functions, per spec
// §4.4/§6. Grounded on the teacher's ExternalFunctionRegistry
// (internal/interp/external_functions.go in CWBudde-go-dws) for the Go
// idiom of a name-keyed registry rejecting duplicate registration; the
// exact call surface (Context + typed accessors) below follows the
// original C++ reference's Context/NativeFunction pair instead
// (_examples/original_source/include/Interpreter.hpp), since go-dws's
// registry doesn't expose anything shaped like it.
type Registry struct {
	fns map[string]NativeFunc
}

// NewRegistry creates an empty native-function registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]NativeFunc)}
}

// Register installs fn under name. Duplicate registration is fatal per
// spec §4.4 ("Duplicate registration is fatal").
func (r *Registry) Register(name string, fn NativeFunc) error {
	if _, exists := r.fns[name]; exists {
		return fmt.Errorf("native function %q already registered", name)
	}
	r.fns[name] = fn
	return nil
}

// Get returns the registered function for name, if any.
func (r *Registry) Get(name string) (NativeFunc, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns every registered native function name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	return names
}

// Context is the shared per-call argument buffer the evaluator fills
// before invoking a native function, per spec §4.4 steps 1-4: cleared,
// populated with each evaluated argument as a Literal, passed to
// fn(context, argc), then cleared again. Exposes the exact typed
// accessor names spec §4.4/§6 lists, matching the original C++
// reference's Context class member-for-member.
type Context struct {
	literals []Value
}

// NewContext creates an empty native-call argument buffer.
func NewContext() *Context {
	return &Context{}
}

// push appends an evaluated argument. Unexported: only the evaluator's
// Call dispatch populates a Context.
func (c *Context) push(v Value) {
	c.literals = append(c.literals, v)
}

// Clear empties the buffer, called before and after each native
// invocation per spec §4.4.
func (c *Context) Clear() {
	c.literals = c.literals[:0]
}

// Argc returns the number of arguments currently buffered.
func (c *Context) Argc() int {
	return len(c.literals)
}

func (c *Context) at(i int) Value {
	if i < 0 || i >= len(c.literals) {
		return Nil
	}
	return c.literals[i]
}

// IsNumber reports whether argument i is a Number.
func (c *Context) IsNumber(i int) bool {
	_, ok := c.at(i).(*NumberValue)
	return ok
}

// IsString reports whether argument i is a String.
func (c *Context) IsString(i int) bool {
	_, ok := c.at(i).(*StringValue)
	return ok
}

// GetInt returns argument i truncated to int, or 0 if not a Number.
func (c *Context) GetInt(i int) int {
	if n, ok := c.at(i).(*NumberValue); ok {
		return int(n.Value)
	}
	return 0
}

// GetLong returns argument i truncated to int64, or 0 if not a Number.
func (c *Context) GetLong(i int) int64 {
	if n, ok := c.at(i).(*NumberValue); ok {
		return int64(n.Value)
	}
	return 0
}

// GetFloat returns argument i as float32, or 0 if not a Number.
func (c *Context) GetFloat(i int) float32 {
	if n, ok := c.at(i).(*NumberValue); ok {
		return float32(n.Value)
	}
	return 0
}

// GetDouble returns argument i as float64, or 0 if not a Number.
func (c *Context) GetDouble(i int) float64 {
	if n, ok := c.at(i).(*NumberValue); ok {
		return n.Value
	}
	return 0
}

// GetString returns argument i's text. Non-string arguments render via
// their own String(), so a native can accept any Value loosely as text.
func (c *Context) GetString(i int) string {
	return c.at(i).String()
}

// GetBoolean returns argument i's truthiness per spec §3's invariants.
func (c *Context) GetBoolean(i int) bool {
	return c.at(i).Truthy()
}

// AsInt constructs a Literal Number from an int.
func AsInt(v int) Value { return &NumberValue{Value: float64(v)} }

// AsLong constructs a Literal Number from an int64.
func AsLong(v int64) Value { return &NumberValue{Value: float64(v)} }

// AsFloat constructs a Literal Number from a float32.
func AsFloat(v float32) Value { return &NumberValue{Value: float64(v)} }

// AsDouble constructs a Literal Number from a float64.
func AsDouble(v float64) Value { return &NumberValue{Value: v} }

// AsString constructs a Literal String.
func AsString(v string) Value { return &StringValue{Value: v} }

// AsBoolean constructs a Literal Number per spec §4.1's note that
// true/false materialize as Number(1)/Number(0); there is no distinct
// Boolean value variant.
func AsBoolean(v bool) Value {
	if v {
		return &NumberValue{Value: 1}
	}
	return &NumberValue{Value: 0}
}
