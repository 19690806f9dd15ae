package object

import (
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// PropSlot is populated by a property-read lookup with enough information
// for both the generic protocol and the interpreter's inline-cache
// install path to act on.
type PropSlot struct {
	Value value.Value
	Attrs Attributes
	Base  *JsObject // the object the property was actually found on
}

// Accessor holds a property's getter/setter pair for accessor-attributed
// slots; it is stored boxed inside a JsObject's slot/StoredSlot value via
// FromObject, the same as any other heap reference.
type Accessor struct {
	Getter value.Value
	Setter value.Value
}

func (*Accessor) TypeName() string { return "Accessor" }

// PropertyDescriptor mirrors the subset of ECMA-262 §8.10's Property
// Descriptor the engine's DefineOwnProperty protocol needs: a value xor an
// accessor, plus which attribute fields were actually specified (an
// unspecified field is left unchanged by a define that mutates an
// existing property).
type PropertyDescriptor struct {
	Value        value.Value
	IsAccessor   bool
	Accessor     Accessor
	HasValue     bool
	HasWritable  bool
	Writable     bool
	HasEnumerable bool
	Enumerable   bool
	HasConfigurable bool
	Configurable bool
}

// Class is the per-tag method table JsObject dispatches through: a
// struct of function fields rather than interface-based dynamic
// dispatch, so that object variants are represented via tag +
// method-table indirection instead of open inheritance.
type Class struct {
	Name string

	GetOwnNonIndexed    func(ctx Context, o *JsObject, sym symbol.Symbol) (PropSlot, bool)
	GetNonIndexed       func(ctx Context, o *JsObject, sym symbol.Symbol) (PropSlot, bool)
	PutNonIndexed       func(ctx Context, o *JsObject, sym symbol.Symbol, v value.Value, throw bool) error
	DefineOwnNonIndexed func(ctx Context, o *JsObject, sym symbol.Symbol, desc PropertyDescriptor, throw bool) (bool, error)
	DeleteNonIndexed    func(ctx Context, o *JsObject, sym symbol.Symbol, throw bool) (bool, error)

	GetOwnIndexed    func(ctx Context, o *JsObject, idx uint32) (PropSlot, bool)
	PutIndexed       func(ctx Context, o *JsObject, idx uint32, v value.Value, throw bool) error
	DefineOwnIndexed func(ctx Context, o *JsObject, idx uint32, desc PropertyDescriptor, throw bool) (bool, error)
	DeleteIndexed    func(ctx Context, o *JsObject, idx uint32, throw bool) (bool, error)

	DefaultValue func(ctx Context, o *JsObject, hint string) value.Value

	GetPropertyNames func(ctx Context, o *JsObject, enumerableOnly bool) []symbol.Symbol
}
