package interp

// Arena models the bump-allocated storage area spec §9's redesign note
// calls for ("bump arena scoped to run(), freed wholesale at the end"),
// standing in for the source's global arena with manual alloc/free and
// leak-tracking. Go's garbage collector makes manual release largely
// symbolic, so Arena exists to keep the lifecycle explicit — one Arena
// per Run call, released as a unit when the call returns — rather than
// to manage memory itself.
//
// No library in the retrieved example pack offers a bump/arena
// allocator, so this is the one component built on the standard
// library alone (see DESIGN.md).
type Arena struct {
	live bool
}

// NewArena starts a new arena scope for one Run call.
func NewArena() *Arena {
	return &Arena{live: true}
}

// NewStruct hands out a fresh struct instance backed by this arena.
func (a *Arena) NewStruct(typeName string, order []string) *StructValue {
	return newStructValue(typeName, order)
}

// NewArray hands out a fresh array backed by this arena.
func (a *Arena) NewArray(name string, elements []Value) *ArrayValue {
	return &ArrayValue{Name: name, Elements: elements}
}

// NewMap hands out a fresh map backed by this arena.
func (a *Arena) NewMap(name string, entries []MapEntryVal) *MapValue {
	return &MapValue{Name: name, Entries: entries}
}

// Release marks the arena's scope as ended. It is a no-op on the
// backing memory (the Go garbage collector reclaims unreachable values
// on its own schedule) but documents, at the API surface, the same
// alloc-scope/release-scope boundary the source's manual arena has.
func (a *Arena) Release() {
	a.live = false
}
