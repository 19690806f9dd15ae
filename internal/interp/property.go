package interp

import (
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// primitiveProto returns the wrapper prototype a property read/write against
// a non-object receiver should consult (String.prototype for a JsString,
// Number.prototype for a number, Boolean.prototype for a bool), or nil for
// an object receiver, which walks its own chain instead.
func (in *Interp) primitiveProto(v value.Value) *object.JsObject {
	if _, ok := asString(v); ok {
		return in.stringProto
	}
	switch v.Kind() {
	case value.KindInt32, value.KindNumber:
		return in.numberProto
	case value.KindBool:
		return in.booleanProto
	}
	return nil
}

// getProperty implements the GET_BY_ID/GET_BY_VAL slow path: receiver may
// be any value, not just an object, per ECMAScript's "GetValue coerces the
// base to an object for the duration of the lookup" rule. Accessor
// properties are detected here and their getter invoked with receiver as
// `this`, since the object package's own Get explicitly leaves that call to
// the interpreter.
func (in *Interp) getProperty(receiver value.Value, key symbol.Symbol) (value.Value, *Exception) {
	if receiver.IsNullOrUndefined() {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError",
			"cannot read properties of %s (reading %q)", receiver.TypeOf(), in.keyName(key))})
	}
	if s, ok := asString(receiver); ok {
		if !key.IsIndex() && key.ID() == symLength {
			return value.Number(float64(len([]rune(s.String())))), nil
		}
		if key.IsIndex() {
			runes := []rune(s.String())
			if int(key.Index()) < len(runes) {
				return value.FromObject(NewString(in, string(runes[key.Index()]))), nil
			}
			return value.Undefined, nil
		}
	}
	if o, ok := asObject(receiver); ok {
		if isProtoKey(key) {
			if p := o.Structure().Prototype(); p != nil {
				return value.FromObject(p), nil
			}
			return value.Null, nil
		}
		slot, found := o.Get(in, key)
		if !found {
			return value.Undefined, nil
		}
		return in.readSlot(receiver, slot)
	}
	proto := in.primitiveProto(receiver)
	if proto == nil {
		return value.Undefined, nil
	}
	slot, found := proto.GetNonIndexed(in, key)
	if !found {
		return value.Undefined, nil
	}
	return in.readSlot(receiver, slot)
}

// readSlot resolves a found PropSlot against receiver, invoking an
// accessor's getter with receiver as `this` if the slot is an accessor.
func (in *Interp) readSlot(receiver value.Value, slot object.PropSlot) (value.Value, *Exception) {
	if slot.Attrs&object.AttrAccessor == 0 {
		return slot.Value, nil
	}
	acc, ok := slot.Value.AsRef().(*object.Accessor)
	if !ok || acc.Getter.IsUndefined() {
		return value.Undefined, nil
	}
	fn, ok := asObject(acc.Getter)
	if !ok {
		return value.Undefined, nil
	}
	return in.callFunction(fn, receiver, nil, false)
}

// isProtoKey reports whether key is the __proto__ well-known symbol,
// which reads the receiver's prototype and whose writes take a
// prototype transition instead of defining an ordinary property.
func isProtoKey(key symbol.Symbol) bool {
	return !key.IsIndex() && key.ID() == symProto
}

// setProperty implements the PUT_BY_ID/PUT_BY_VAL slow path, including
// accessor setter dispatch (which object.OrdinaryPutNonIndexed refuses to
// perform itself).
func (in *Interp) setProperty(receiver value.Value, key symbol.Symbol, v value.Value) *Exception {
	o, ok := asObject(receiver)
	if !ok {
		// Writing through a primitive receiver is a silent no-op outside
		// strict mode; this engine does not yet track per-site strictness
		// for PUT_BY_ID/PUT_BY_VAL, so it always takes the lenient path.
		return nil
	}
	if isProtoKey(key) {
		if p, isObj := asObject(v); isObj {
			o.AdoptStructure(o.Structure().ChangePrototypeTransition(in, p))
		} else if v.IsNull() {
			o.AdoptStructure(o.Structure().ChangePrototypeTransition(in, nil))
		}
		// A non-object, non-null assignment to __proto__ is ignored.
		return nil
	}
	if slot, found := o.GetNonIndexed(in, key); found && slot.Attrs&object.AttrAccessor != 0 {
		acc, _ := slot.Value.AsRef().(*object.Accessor)
		if acc == nil || acc.Setter.IsUndefined() {
			return nil
		}
		fn, ok := asObject(acc.Setter)
		if !ok {
			return nil
		}
		_, exc := in.callFunction(fn, receiver, []value.Value{v}, false)
		return exc
	}
	if err := o.Put(in, key, v, false); err != nil {
		return in.throwErr(err)
	}
	return nil
}

// keyName renders a property key for an error message.
func (in *Interp) keyName(key symbol.Symbol) string {
	if key.IsIndex() {
		return formatNumber(float64(key.Index()))
	}
	return in.SymbolName(key.ID())
}

// deleteProperty implements DELETE_BY_ID/DELETE_BY_VAL: deleting through a
// non-object receiver always reports success, matching ECMAScript's
// ToObject-then-delete-on-a-throwaway-wrapper behavior.
func (in *Interp) deleteProperty(receiver value.Value, key symbol.Symbol) (bool, *Exception) {
	o, ok := asObject(receiver)
	if !ok {
		return true, nil
	}
	ok2, err := o.Delete(in, key, false)
	if err != nil {
		return false, in.throwErr(err)
	}
	return ok2, nil
}

// getByID implements GET_BY_ID/TRY_GET_BY_ID: an object receiver first
// consults its PropertyCache (a shape match reads the receiver's own slot
// directly, bypassing the Structure-table lookup), falling back to the
// generic walk on a miss and installing a fresh cache entry when the
// found property is load-cacheable. A non-object receiver always takes
// the slow path. throwOnMiss (TRY_GET_BY_ID) raises ReferenceError on an
// unresolved name; the compiler emits it against GLOBAL_THIS for free
// identifiers.
func (in *Interp) getByID(code *bytecode.CodeBlock, recv value.Value, nameIdx, feedbackIdx uint32, throwOnMiss bool) (value.Value, *Exception) {
	sym := code.Names[nameIdx]
	if isProtoKey(sym) {
		return in.getProperty(recv, sym)
	}
	o, ok := asObject(recv)
	if !ok {
		v, exc := in.getProperty(recv, sym)
		if exc != nil {
			return value.Value{}, exc
		}
		if throwOnMiss {
			if _, found := in.primitiveLookup(recv, sym); !found {
				return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("ReferenceError", "%s is not defined", in.SymbolName(sym.ID()))})
			}
		}
		return v, nil
	}

	if pc := propertyCacheAt(code, feedbackIdx); pc != nil {
		if offset, ok := pc.lookup(o.Structure()); ok {
			return o.SlotAt(offset), nil
		}
		in.noteCacheInvalidated(code, feedbackIdx, "get-by-id structure mismatch")
	}

	slot, found := o.GetNonIndexed(in, sym)
	if !found {
		if throwOnMiss {
			return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("ReferenceError", "%s is not defined", in.SymbolName(sym.ID()))})
		}
		return value.Undefined, nil
	}
	// Load-cacheable per the read-cache contract: an own data property on a
	// non-unique Structure. A prototype hit is left uncached because the
	// prototype's own shape can transition without the receiver's changing,
	// which would leave the cached offset stale.
	if slot.Attrs&object.AttrAccessor == 0 && slot.Base == o && !o.Structure().IsUnique() {
		if offset, cacheable := offsetOfSlot(slot, o, sym); cacheable {
			code.Feedback[feedbackIdx] = installPropertyCache(in, o.Structure(), offset)
		}
	}
	return in.readSlot(recv, slot)
}

// offsetOfSlot recovers the Structure-table offset a found PropSlot lives
// at by re-resolving sym against the base object's own Structure, since
// PropSlot does not carry the offset itself. A miss (an indexed key, or a
// base whose table no longer has sym) reports the slot as uncacheable.
func offsetOfSlot(slot object.PropSlot, recv *object.JsObject, sym symbol.Symbol) (uint32, bool) {
	base := slot.Base
	if base == nil {
		base = recv
	}
	offset, _, ok := base.Structure().Get(sym)
	return offset, ok
}

// primitiveLookup reports whether key resolves against v's wrapper
// prototype, used only by getByID's throwOnMiss path for a non-object
// receiver.
func (in *Interp) primitiveLookup(v value.Value, key symbol.Symbol) (object.PropSlot, bool) {
	proto := in.primitiveProto(v)
	if proto == nil {
		return object.PropSlot{}, false
	}
	return proto.GetNonIndexed(in, key)
}

// putByID implements PUT_BY_ID: an object receiver first tries its
// PutByIdFeedback cache (either a same-shape direct write or a validated
// transition), falling back to the generic DefineOwnNonIndexed-driven path
// on a miss and installing fresh feedback once the write's resulting shape
// is known. A non-object receiver takes setProperty's lenient slow path.
func (in *Interp) putByID(code *bytecode.CodeBlock, recv value.Value, nameIdx, feedbackIdx uint32, v value.Value) *Exception {
	sym := code.Names[nameIdx]
	o, ok := asObject(recv)
	if !ok || isProtoKey(sym) {
		return in.setProperty(recv, sym, v)
	}

	if pf := putByIdFeedbackAt(code, feedbackIdx); pf != nil {
		if offset, ok := pf.matchesNoTransition(o.Structure()); ok {
			o.SetSlotAt(offset, v)
			return nil
		}
		if next, offset, ok := pf.matchesTransition(o.Structure()); ok {
			o.AdoptStructure(next)
			o.SetSlotAt(offset, v)
			return nil
		}
		in.noteCacheInvalidated(code, feedbackIdx, "put-by-id structure mismatch")
	}

	if slot, found := o.GetNonIndexed(in, sym); found && slot.Attrs&object.AttrAccessor != 0 {
		acc, _ := slot.Value.AsRef().(*object.Accessor)
		if acc == nil || acc.Setter.IsUndefined() {
			return nil
		}
		fn, ok := asObject(acc.Setter)
		if !ok {
			return nil
		}
		_, exc := in.callFunction(fn, recv, []value.Value{v}, false)
		return exc
	}

	before := o.Structure()
	if err := o.Put(in, sym, v, false); err != nil {
		return in.throwErr(err)
	}
	after := o.Structure()
	if offset, attrs, ok := after.Get(sym); ok && attrs&object.AttrAccessor == 0 {
		if after == before {
			code.Feedback[feedbackIdx] = installPutByIdNoTransition(in, before, offset)
		} else {
			code.Feedback[feedbackIdx] = installPutByIdTransition(in, before, after, offset)
		}
	}
	return nil
}
