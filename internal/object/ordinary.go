package object

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// OrdinaryClass is the default method table every plain object (and, by
// embedding, every specialized tag) dispatches through. It implements the
// ECMA-262 §8.12 property protocol.
var OrdinaryClass = &Class{
	Name:                "Ordinary",
	GetOwnNonIndexed:    OrdinaryGetOwnNonIndexed,
	GetNonIndexed:       OrdinaryGetNonIndexed,
	PutNonIndexed:       OrdinaryPutNonIndexed,
	DefineOwnNonIndexed: OrdinaryDefineOwnNonIndexed,
	DeleteNonIndexed:    OrdinaryDeleteNonIndexed,
	GetOwnIndexed:       OrdinaryGetOwnIndexed,
	PutIndexed:          OrdinaryPutIndexed,
	DefineOwnIndexed:    OrdinaryDefineOwnIndexed,
	DeleteIndexed:       OrdinaryDeleteIndexed,
	DefaultValue:        OrdinaryDefaultValue,
	GetPropertyNames:    OrdinaryGetPropertyNames,
}

// NewOrdinaryObject allocates a plain object with the given prototype,
// starting from the runtime's shared empty Structure for that prototype
// so that objects built with the same property order converge on the
// same shape.
func NewOrdinaryObject(ctx Context, prototype *JsObject) *JsObject {
	return New(ctx, OrdinaryClass, ctx.EmptyStructure(prototype), TagOrdinary)
}

// OrdinaryGetOwnNonIndexed implements GetOwnNonIndexedPropertySlot: a
// direct Structure-table lookup populating a PropSlot on hit.
func OrdinaryGetOwnNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol) (PropSlot, bool) {
	offset, attrs, ok := o.structure.Get(sym)
	if !ok {
		return PropSlot{}, false
	}
	return PropSlot{Value: o.slotValue(offset), Attrs: attrs, Base: o}, true
}

// OrdinaryGetNonIndexed implements GetNonIndexedPropertySlot: walk the
// prototype chain calling GetOwnNonIndexed until found or the chain is
// exhausted.
func OrdinaryGetNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol) (PropSlot, bool) {
	cur := o
	for cur != nil {
		if slot, ok := cur.GetOwnNonIndexed(ctx, sym); ok {
			return slot, true
		}
		cur = cur.structure.Prototype()
	}
	return PropSlot{}, false
}

// canPutNonIndexed implements the `can_put` check: writable own property,
// or no blocking accessor/non-writable property anywhere on the
// prototype chain, and the object itself extensible if the property does
// not exist yet.
func canPutNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol) (bool, *PropSlot) {
	if offset, attrs, ok := o.structure.Get(sym); ok {
		if attrs&AttrAccessor != 0 {
			acc, _ := o.slotValue(offset).AsRef().(*Accessor)
			return acc != nil && !acc.Setter.IsUndefined(), nil
		}
		return attrs&AttrWritable != 0, nil
	}
	proto := o.structure.Prototype()
	for proto != nil {
		if offset, attrs, ok := proto.structure.Get(sym); ok {
			if attrs&AttrAccessor != 0 {
				acc, _ := proto.slotValue(offset).AsRef().(*Accessor)
				return acc != nil && !acc.Setter.IsUndefined(), nil
			}
			if attrs&AttrWritable == 0 {
				return false, nil
			}
			break
		}
		proto = proto.structure.Prototype()
	}
	return o.IsExtensible(), nil
}

// OrdinaryPutNonIndexed implements PutNonIndexedSlot.
func OrdinaryPutNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol, v value.Value, throw bool) error {
	if offset, attrs, ok := o.structure.Get(sym); ok && attrs&AttrAccessor != 0 {
		if acc, _ := o.slotValue(offset).AsRef().(*Accessor); acc != nil && !acc.Setter.IsUndefined() {
			// Setter invocation is an interpreter-level call, outside the
			// object model's own responsibility; the interpreter detects
			// AttrAccessor slots itself via Get/Structure and performs the
			// call. Reaching here with an installed setter but no
			// interpreter-level interception is a caller error.
			return fmt.Errorf("object: accessor property write must be performed by the interpreter")
		}
	}

	canPut, _ := canPutNonIndexed(ctx, o, sym)
	if !canPut {
		if throw {
			return newTypeErrorErr(ctx, "cannot assign to read only property %q", ctx.SymbolName(symIDOrEmpty(sym)))
		}
		return nil
	}

	if offset, _, ok := o.structure.Get(sym); ok {
		o.setSlotValue(offset, v)
		return nil
	}

	newStruct, offset := o.structure.AddPropertyTransition(ctx, sym, AttrDefault)
	o.growToStructure(newStruct)
	o.setSlotValue(offset, v)
	return nil
}

// OrdinaryDefineOwnNonIndexed implements the ECMA-262 §8.12.9
// accept/reject logic: mutate in place when attributes are unchanged,
// otherwise transition.
func OrdinaryDefineOwnNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol, desc PropertyDescriptor, throw bool) (bool, error) {
	offset, curAttrs, exists := o.structure.Get(sym)
	if !exists {
		if !o.IsExtensible() {
			if throw {
				return false, newTypeErrorErr(ctx, "object is not extensible")
			}
			return false, nil
		}
		attrs := descriptorAttrs(desc, AttrDefault)
		newStruct, off := o.structure.AddPropertyTransition(ctx, sym, attrs)
		o.growToStructure(newStruct)
		o.setSlotValue(off, descriptorValue(desc))
		return true, nil
	}

	if curAttrs&AttrConfigurable == 0 {
		if desc.HasConfigurable && desc.Configurable {
			if throw {
				return false, newTypeErrorErr(ctx, "cannot redefine non-configurable property")
			}
			return false, nil
		}
		if desc.HasEnumerable && desc.Enumerable != (curAttrs&AttrEnumerable != 0) {
			if throw {
				return false, newTypeErrorErr(ctx, "cannot change enumerable of non-configurable property")
			}
			return false, nil
		}
		if !desc.IsAccessor && curAttrs&AttrWritable == 0 {
			if desc.HasWritable && desc.Writable {
				if throw {
					return false, newTypeErrorErr(ctx, "cannot make non-configurable property writable")
				}
				return false, nil
			}
			if desc.HasValue {
				cur := o.slotValue(offset)
				if !value.SameValueZero(cur, desc.Value) {
					if throw {
						return false, newTypeErrorErr(ctx, "cannot change value of non-writable, non-configurable property")
					}
					return false, nil
				}
			}
		}
	}

	newAttrs := descriptorAttrs(desc, curAttrs)
	if newAttrs != curAttrs {
		newStruct := o.structure.ChangeAttributesTransition(ctx, sym, newAttrs)
		o.growToStructure(newStruct)
		offset, _, _ = newStruct.Get(sym)
	}
	if desc.HasValue || desc.IsAccessor {
		o.setSlotValue(offset, descriptorValue(desc))
	}
	return true, nil
}

func descriptorAttrs(desc PropertyDescriptor, base Attributes) Attributes {
	attrs := base
	if desc.HasWritable {
		if desc.Writable {
			attrs |= AttrWritable
		} else {
			attrs &^= AttrWritable
		}
	}
	if desc.HasEnumerable {
		if desc.Enumerable {
			attrs |= AttrEnumerable
		} else {
			attrs &^= AttrEnumerable
		}
	}
	if desc.HasConfigurable {
		if desc.Configurable {
			attrs |= AttrConfigurable
		} else {
			attrs &^= AttrConfigurable
		}
	}
	if desc.IsAccessor {
		attrs |= AttrAccessor
	} else {
		attrs &^= AttrAccessor
	}
	return attrs
}

func descriptorValue(desc PropertyDescriptor) value.Value {
	if desc.IsAccessor {
		acc := desc.Accessor
		return value.FromObject(&acc)
	}
	return desc.Value
}

// OrdinaryDeleteNonIndexed implements Delete: reject non-configurable
// properties (throwing in strict mode, else reporting false), otherwise
// fork a delete-transition and clear the vacated slot.
func OrdinaryDeleteNonIndexed(ctx Context, o *JsObject, sym symbol.Symbol, throw bool) (bool, error) {
	offset, attrs, ok := o.structure.Get(sym)
	if !ok {
		return true, nil
	}
	if attrs&AttrConfigurable == 0 {
		if throw {
			return false, newTypeErrorErr(ctx, "cannot delete non-configurable property")
		}
		return false, nil
	}
	newStruct := o.structure.DeletePropertyTransition(ctx, sym)
	o.structure = newStruct
	o.setSlotValue(offset, value.Empty)
	return true, nil
}

// OrdinaryGetOwnIndexed reads directly from the object's own
// IndexedElements, with no prototype walk (that is JsObject.Get's job).
func OrdinaryGetOwnIndexed(ctx Context, o *JsObject, idx uint32) (PropSlot, bool) {
	if !o.HasElements() {
		return PropSlot{}, false
	}
	v, ok := o.Elements().Get(idx)
	if !ok {
		return PropSlot{}, false
	}
	return PropSlot{Value: v, Attrs: o.Elements().GetAttributes(idx), Base: o}, true
}

// OrdinaryPutIndexed routes every write through IndexedElements.Set,
// which itself decides on sparse promotion per MAX_VECTOR_SIZE.
func OrdinaryPutIndexed(ctx Context, o *JsObject, idx uint32, v value.Value, throw bool) error {
	if !o.IsExtensible() && !o.Elements().Has(idx) {
		if throw {
			return newTypeErrorErr(ctx, "cannot add property %d, object is not extensible", idx)
		}
		return nil
	}
	markIndexed(ctx, o)
	o.Elements().Set(idx, v, ctx.MaxVectorSize())
	return nil
}

// markIndexed takes the indexed-flag transition on an object's first
// indexed write, so inline caches keyed on a pre-indexed Structure stop
// validating once element storage exists.
func markIndexed(ctx Context, o *JsObject) {
	if !o.structure.IsIndexed() {
		o.AdoptStructure(o.structure.ChangeIndexedTransition(ctx))
	}
}

// OrdinaryDefineOwnIndexed implements the indexed analogue of §8.12.9.
func OrdinaryDefineOwnIndexed(ctx Context, o *JsObject, idx uint32, desc PropertyDescriptor, throw bool) (bool, error) {
	attrs := descriptorAttrs(desc, AttrDefault)
	if o.Elements().Has(idx) {
		cur := o.Elements().GetAttributes(idx)
		if cur&AttrConfigurable == 0 && desc.HasConfigurable && desc.Configurable {
			if throw {
				return false, newTypeErrorErr(ctx, "cannot redefine non-configurable element %d", idx)
			}
			return false, nil
		}
		attrs = descriptorAttrs(desc, cur)
	} else if !o.IsExtensible() {
		if throw {
			return false, newTypeErrorErr(ctx, "object is not extensible")
		}
		return false, nil
	}
	markIndexed(ctx, o)
	o.Elements().SetWithAttrs(idx, descriptorValue(desc), attrs, ctx.MaxVectorSize())
	return true, nil
}

// OrdinaryDeleteIndexed implements the indexed analogue of Delete.
func OrdinaryDeleteIndexed(ctx Context, o *JsObject, idx uint32, throw bool) (bool, error) {
	if !o.HasElements() {
		return true, nil
	}
	ok := o.Elements().Delete(idx)
	if !ok && throw {
		return false, newTypeErrorErr(ctx, "cannot delete non-configurable element %d", idx)
	}
	return ok, nil
}

// OrdinaryDefaultValue implements the ToPrimitive fallback: this engine
// leaves valueOf/toString dispatch to the interpreter (it requires making
// a JS-level call), so the object model's DefaultValue hook only handles
// the case where no conversion is possible and returns Undefined,
// documented as a stub the interpreter's ToPrimitive wraps around.
func OrdinaryDefaultValue(ctx Context, o *JsObject, hint string) value.Value {
	return value.Undefined
}

// OrdinaryGetPropertyNames collects own property names: indexed keys
// first (in IndexedElements.Each order), then the Structure table's names
// in Go map order, so insertion order is not preserved. It does not walk
// the prototype chain (for-in does that at the interpreter level).
func OrdinaryGetPropertyNames(ctx Context, o *JsObject, enumerableOnly bool) []symbol.Symbol {
	var names []symbol.Symbol
	if o.HasElements() {
		o.Elements().Each(func(i uint32, _ value.Value, attrs Attributes) {
			if enumerableOnly && attrs&AttrEnumerable == 0 {
				return
			}
			names = append(names, symbol.Index(i))
		})
	}
	for sym, entry := range o.structure.table {
		if enumerableOnly && entry.attrs&AttrEnumerable == 0 {
			continue
		}
		names = append(names, sym)
	}
	return names
}

func symIDOrEmpty(sym symbol.Symbol) symbol.ID {
	if sym.IsIndex() {
		return 0
	}
	return sym.ID()
}
