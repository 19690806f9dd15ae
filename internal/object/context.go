// Package object implements the hidden-class object model: Structure
// (shape) transitions, indexed element storage, and JsObject itself,
// composed from a class method table in place of open inheritance.
package object

import (
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/rtlog"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// Context is the minimal runtime surface the object model needs in order
// to allocate, intern property keys, and raise JS-level errors. It is
// implemented by the interpreter/runtime layer; the object package never
// constructs one, keeping the dependency one-directional.
type Context interface {
	Heap() *heap.Heap
	Intern(s string) symbol.Symbol
	SymbolName(id symbol.ID) string
	NewError(kind string, format string, args ...interface{}) value.Value
	MaxVectorSize() uint32
	Logger() *rtlog.Logger

	// EmptyStructure returns the runtime's shared root Structure for the
	// given prototype, allocating and caching one on first use. Sharing the
	// root is what makes two objects built with the same prototype and the
	// same property order converge on the same Structure pointer, the
	// invariant every inline cache validates against.
	EmptyStructure(prototype *JsObject) *Structure
}
