package object

import (
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/value"
)

// envCell is one lexical binding: a value plus whether it may be
// reassigned (false for `const`).
type envCell struct {
	value   value.Value
	mutable bool
}

// Environment is a lexically scoped variable frame: a fixed-size vector of
// binding cells plus an optional parent, forming the scope chain closures
// capture.
type Environment struct {
	header heap.Header
	cells  []envCell
	parent *Environment
}

// Header satisfies heap.Cell.
func (e *Environment) Header() *heap.Header { return &e.header }

// TypeName satisfies heap.Cell.
func (e *Environment) TypeName() string { return "Environment" }

// Trace visits the parent environment and every cell holding a heap
// reference.
func (e *Environment) Trace(t heap.Tracer) {
	if e.parent != nil {
		t.Visit(e.parent)
	}
	for _, c := range e.cells {
		if c.value.IsObject() {
			if cell, ok := c.value.AsRef().(heap.Cell); ok {
				t.Visit(cell)
			}
		}
	}
}

// NewEnvironment allocates a fresh Environment with size binding slots,
// all initialized to Undefined (the compiler emits an explicit DECL_LET/
// DECL_CONST before a let/const binding's first legal read, so no slot
// is ever read before being declared; Empty is reserved for other
// internal sentinels and must never appear in a binding cell) parented
// to parent.
func NewEnvironment(ctx Context, size int, parent *Environment) *Environment {
	env := &Environment{
		cells:  make([]envCell, size),
		parent: parent,
	}
	for i := range env.cells {
		env.cells[i] = envCell{value: value.Undefined, mutable: true}
	}
	ctx.Heap().Allocate(env)
	return env
}

// Parent returns the enclosing Environment, or nil at the outermost
// scope.
func (e *Environment) Parent() *Environment { return e.parent }

// Size returns the number of binding cells this frame holds.
func (e *Environment) Size() int { return len(e.cells) }

// Get reads slot i in this frame.
func (e *Environment) Get(i int) value.Value { return e.cells[i].value }

// GetAt walks depth parents up before reading slot i, the implementation
// behind OpGetLocal.
func (e *Environment) GetAt(depth, i int) value.Value {
	env := e
	for ; depth > 0; depth-- {
		env = env.parent
	}
	return env.cells[i].value
}

// Set writes slot i in this frame, returning false if the binding is
// immutable (a `const`).
func (e *Environment) Set(i int, v value.Value) bool {
	if !e.cells[i].mutable {
		return false
	}
	e.cells[i].value = v
	return true
}

// SetAt walks depth parents up before writing slot i.
func (e *Environment) SetAt(depth, i int, v value.Value) bool {
	env := e
	for ; depth > 0; depth-- {
		env = env.parent
	}
	return env.Set(i, v)
}

// Declare initializes slot i with v and records its mutability, used by
// DECL_LET/DECL_CONST.
func (e *Environment) Declare(i int, v value.Value, mutable bool) {
	e.cells[i] = envCell{value: v, mutable: mutable}
}

// IsMutable reports whether slot i is a reassignable (`let`/`var`) or
// frozen (`const`) binding, exposed for internal/snapshot's serializer.
func (e *Environment) IsMutable(i int) bool { return e.cells[i].mutable }

// NewBlankEnvironment allocates a zero-size Environment for
// internal/snapshot's deserializer: the cell gets an address during the
// pre-allocation pass, before the payload (which carries the real cell
// count) has been read, so ResizeBlank grows it to size once that count
// is known.
func NewBlankEnvironment(ctx Context) *Environment {
	env := &Environment{}
	ctx.Heap().Allocate(env)
	return env
}

// ResizeBlank grows a freshly-allocated blank Environment to size cells,
// all Undefined and mutable pending RestoreCell. Only valid before any
// RestoreCell call.
func (e *Environment) ResizeBlank(size int) {
	e.cells = make([]envCell, size)
	for i := range e.cells {
		e.cells[i] = envCell{value: value.Undefined, mutable: true}
	}
}

// SetParent rewires a deserialized Environment's parent pointer once the
// parent's relocated address is known.
func (e *Environment) SetParent(parent *Environment) { e.parent = parent }

// RestoreCell installs a deserialized binding cell in place, the
// counterpart to Declare for snapshot restoration.
func (e *Environment) RestoreCell(i int, v value.Value, mutable bool) {
	e.cells[i] = envCell{value: v, mutable: mutable}
}
