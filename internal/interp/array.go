package interp

import (
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// arrayClass is TagArray's method table: identical to OrdinaryClass except
// that the "length" property is backed by the object's IndexedElements
// rather than a Structure slot, so index writes and length writes stay in
// sync the way ECMA-262's exotic Array object requires.
var arrayClass *object.Class

// arrayClass is built in init() rather than as a var initializer: its
// Class literal stores arrayPutNonIndexed, whose body transitively calls
// back into NewArrayWithProto, which refers to arrayClass. Referencing it
// from a var initializer expression makes Go's initialization-order
// analysis see a dependency cycle even though nothing is actually invoked
// until after init; assigning inside init() sidesteps that analysis.
func init() {
	arrayClass = &object.Class{
		Name:                "Array",
		GetOwnNonIndexed:    arrayGetOwnNonIndexed,
		GetNonIndexed:       object.OrdinaryGetNonIndexed,
		PutNonIndexed:       arrayPutNonIndexed,
		DefineOwnNonIndexed: object.OrdinaryDefineOwnNonIndexed,
		DeleteNonIndexed:    object.OrdinaryDeleteNonIndexed,
		GetOwnIndexed:       object.OrdinaryGetOwnIndexed,
		PutIndexed:          object.OrdinaryPutIndexed,
		DefineOwnIndexed:    object.OrdinaryDefineOwnIndexed,
		DeleteIndexed:       object.OrdinaryDeleteIndexed,
		DefaultValue:        object.OrdinaryDefaultValue,
		GetPropertyNames:    object.OrdinaryGetPropertyNames,
	}
}

// ArrayClass exposes TagArray's method table so internal/snapshot can
// register it by name ("Array") in the class-descriptor lookup a
// deserialized JsObject's Class() pointer is resolved through.
func ArrayClass() *object.Class { return arrayClass }

func isLengthSym(sym symbol.Symbol) bool {
	return !sym.IsIndex() && sym.ID() == symLength
}

func arrayGetOwnNonIndexed(ctx object.Context, o *object.JsObject, sym symbol.Symbol) (object.PropSlot, bool) {
	if isLengthSym(sym) {
		attrs := object.AttrWritable
		if !o.Elements().LengthWritable() {
			attrs = 0
		}
		return object.PropSlot{Value: value.Number(float64(o.Elements().Length())), Attrs: attrs, Base: o}, true
	}
	return object.OrdinaryGetOwnNonIndexed(ctx, o, sym)
}

func arrayPutNonIndexed(ctx object.Context, o *object.JsObject, sym symbol.Symbol, v value.Value, throw bool) error {
	if isLengthSym(sym) {
		if !o.Elements().LengthWritable() {
			if throw {
				return &object.ThrowError{Value: ctx.NewError("TypeError", "cannot assign to read only property \"length\"")}
			}
			return nil
		}
		in := ctx.(*Interp)
		n, exc := in.toUint32(v)
		if exc != nil {
			return exc
		}
		if !o.Elements().SetLength(n, throw) {
			return &object.ThrowError{Value: ctx.NewError("TypeError", "array length value changes a non-configurable array element")}
		}
		return nil
	}
	return object.OrdinaryPutNonIndexed(ctx, o, sym, v, throw)
}

// NewArray allocates an empty TagArray object with the given elements
// already populated (or nil for a fresh empty array), rooted at
// Interp.arrayProto.
func (in *Interp) NewArray(elems []value.Value) *object.JsObject {
	return in.NewArrayWithProto(in.arrayProto, elems)
}

// NewArrayWithProto is NewArray with an explicit prototype, needed once
// during bootstrap to build Array.prototype itself (an exotic array
// object rooted at Object.prototype, not at Interp.arrayProto, which does
// not exist yet at that point in jsrt.Bootstrap).
func (in *Interp) NewArrayWithProto(proto *object.JsObject, elems []value.Value) *object.JsObject {
	o := object.New(in, arrayClass, object.NewEmptyStructure(in, proto), object.TagArray)
	for i, v := range elems {
		o.Elements().Set(uint32(i), v, in.maxVectorSize)
	}
	return o
}

// arrayLength reads an array-tagged object's length directly, used by
// SPREAD and by for-in-like internal iteration.
func arrayLength(o *object.JsObject) uint32 {
	if !o.HasElements() {
		return 0
	}
	return o.Elements().Length()
}
