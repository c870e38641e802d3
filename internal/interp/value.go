package interp

import (
	"fmt"
	"strconv"
	"strings"

	"wisp/internal/ast"
)

// Value is implemented by every runtime value variant. Variants are
// heap-allocated pointers so that an
// environment slot and an aggregate element referencing "the same
// value" truly alias one backing cell — this is what makes in-place
// mutation (++/--, compound assignment, struct field overwrite)
// observable through every alias, per spec §3's reference-ownership
// model.
type Value interface {
	Type() string
	String() string
	Truthy() bool
	// Clone returns an independent copy of the value, used by
	// multi-name declarations (`var a, b = v;`) and struct field
	// writes, which must not let later aliases mutate the original.
	Clone() Value
}

// NilValue is the sole instance of the Nil variant. Per spec §3's
// invariants table (and the original C++ reference's is_truthy, which
// treats a null expression pointer as truthy) Nil is truthy.
type NilValue struct{}

func (*NilValue) Type() string   { return "NIL" }
func (*NilValue) String() string { return "nil" }
func (*NilValue) Truthy() bool   { return true }
func (*NilValue) Clone() Value   { return &NilValue{} }

// Nil is the shared Nil instance; since NilValue carries no mutable
// state, every Nil reference may safely point at the same cell.
var Nil = &NilValue{}

// NumberValue holds a double-precision number.
type NumberValue struct {
	Value float64
}

func (n *NumberValue) Type() string { return "NUMBER" }
func (n *NumberValue) Truthy() bool { return n.Value != 0 }
func (n *NumberValue) Clone() Value { return &NumberValue{Value: n.Value} }

// String formats n using the canonical decimal form: integral values
// print without a fractional part, per spec §8 property P1.
func (n *NumberValue) String() string {
	if n.Value == float64(int64(n.Value)) {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// StringValue holds UTF-8 text.
type StringValue struct {
	Value string
}

func (s *StringValue) Type() string   { return "STRING" }
func (s *StringValue) String() string { return s.Value }
func (s *StringValue) Truthy() bool   { return s.Value != "" }
func (s *StringValue) Clone() Value   { return &StringValue{Value: s.Value} }

// FunctionValue is a user-declared function: its parameter names and
// body. Closure is always the global scope, wherever the function was
// declared; a call's scope is a child of it.
type FunctionValue struct {
	Name    string
	Params  []string
	Body    *ast.Block
	Closure *Environment
}

func (f *FunctionValue) Type() string   { return "FUNCTION" }
func (f *FunctionValue) String() string { return fmt.Sprintf("<function %s>", f.Name) }
func (f *FunctionValue) Truthy() bool   { return true }
func (f *FunctionValue) Clone() Value   { return f }

// NativeFunc is the Go-side signature a registered native function
// implements, matching spec §4.4/§6's `fn(context, argc) -> Literal`.
type NativeFunc func(ctx *Context, argc int) Value

// NativeValue wraps a host-registered function, opaque to script code
// beyond its callable name.
type NativeValue struct {
	Name string
	Fn   NativeFunc
}

func (n *NativeValue) Type() string   { return "NATIVE" }
func (n *NativeValue) String() string { return fmt.Sprintf("<native %s>", n.Name) }
func (n *NativeValue) Truthy() bool   { return true }
func (n *NativeValue) Clone() Value   { return n }

// StructValue is an instance of a declared struct template: an ordered
// field_name -> value mapping, ordering matching the declaration.
type StructValue struct {
	TypeName string
	Order    []string
	Fields   map[string]Value
}

func newStructValue(typeName string, order []string) *StructValue {
	return &StructValue{
		TypeName: typeName,
		Order:    append([]string(nil), order...),
		Fields:   make(map[string]Value, len(order)),
	}
}

func (s *StructValue) Type() string { return "STRUCT" }

func (s *StructValue) String() string {
	var b strings.Builder
	b.WriteString(s.TypeName)
	b.WriteByte('{')
	for i, name := range s.Order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(s.Fields[name].String())
	}
	b.WriteByte('}')
	return b.String()
}

func (s *StructValue) Truthy() bool { return true }

// Clone returns a new StructValue with the same field ordering and a
// clone of every field value, so writes to the copy never reach the
// original's fields.
func (s *StructValue) Clone() Value {
	c := newStructValue(s.TypeName, s.Order)
	for _, name := range s.Order {
		c.Fields[name] = s.Fields[name].Clone()
	}
	return c
}

// StructTemplate is the registered shape of a struct declaration:
// field order plus default values, evaluated once when the declaration
// executes and cloned into each constructed instance.
type StructTemplate struct {
	Name    string
	Fields  []string
	Default map[string]Value
}

// ArrayValue is a dynamic, 0-indexed sequence of values.
type ArrayValue struct {
	Name     string
	Elements []Value
}

func (a *ArrayValue) Type() string { return "ARRAY" }

func (a *ArrayValue) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (a *ArrayValue) Truthy() bool { return true }

// Clone returns a new ArrayValue with an independent backing slice
// holding the same element references (a shallow copy one level
// down, matching Declaration's "clone (kind-preserving)" contract).
func (a *ArrayValue) Clone() Value {
	elems := make([]Value, len(a.Elements))
	copy(elems, a.Elements)
	return &ArrayValue{Name: a.Name, Elements: elems}
}

// MapEntryVal is one insertion-ordered key/value pair of a MapValue.
// Key is always a NumberValue or StringValue per spec §3.
type MapEntryVal struct {
	Key   Value
	Value Value
}

// MapValue is an insertion-ordered dictionary keyed by Number or String.
type MapValue struct {
	Name    string
	Entries []MapEntryVal
}

func (m *MapValue) Type() string { return "MAP" }

func (m *MapValue) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.Entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key.String())
		b.WriteString(": ")
		b.WriteString(e.Value.String())
	}
	b.WriteByte('}')
	return b.String()
}

func (m *MapValue) Truthy() bool { return true }

// Clone returns a new MapValue with an independent entries slice
// holding the same key/value references.
func (m *MapValue) Clone() Value {
	entries := make([]MapEntryVal, len(m.Entries))
	copy(entries, m.Entries)
	return &MapValue{Name: m.Name, Entries: entries}
}

// mapKeyEqual compares two map keys per spec §3: equal only when both
// are Number with equal value, or both String with equal text.
func mapKeyEqual(a, b Value) bool {
	switch av := a.(type) {
	case *NumberValue:
		bv, ok := b.(*NumberValue)
		return ok && av.Value == bv.Value
	case *StringValue:
		bv, ok := b.(*StringValue)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}

// valuesEqual implements `==`/`!=` for Number×Number and Str×Str;
// every other pairing (including mixed kinds) compares unequal.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case *NumberValue:
		bv, ok := b.(*NumberValue)
		return ok && av.Value == bv.Value
	case *StringValue:
		bv, ok := b.(*StringValue)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}
