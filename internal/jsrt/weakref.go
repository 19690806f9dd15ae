package jsrt

import (
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// weakRefData is the tail payload a `new WeakRef(target)` object carries:
// a heap.WeakSlot indirection the collector clears on its own, which is
// exactly why JsObject.Trace must never visit it — tracing a WeakRef's
// target would defeat the point of the class.
type weakRefData struct {
	slot *heap.WeakSlot
}

// WeakSlotOf reports whether tail is a WeakRef object's tail payload and,
// if so, returns its underlying slot. Exposed for internal/snapshot's
// serializer, which needs to special-case a WeakRef's tail the same way
// it special-cases a native function's: neither can be recovered from its
// own serialized bytes alone.
func WeakSlotOf(tail interface{}) (*heap.WeakSlot, bool) {
	wd, ok := tail.(*weakRefData)
	if !ok {
		return nil, false
	}
	return wd.slot, true
}

// NewWeakRefTail builds a WeakRef tail payload wrapping slot, for
// internal/snapshot's deserializer restoring a WeakRef object.
func NewWeakRefTail(slot *heap.WeakSlot) interface{} {
	return &weakRefData{slot: slot}
}

// installWeakRef registers the WeakRef native class: a constructor that
// requires an object argument and wraps it in a heap.WeakSlot via
// ctx.Heap().MakeWeak, plus a single prototype method, `deref`, that
// upgrades the slot back to a strong reference or returns undefined once
// the collector has cleared it. It doubles as the worked example of what
// DefineNativeClass builds for a host: an ordinary object whose tail
// payload the prototype methods alone know how to interpret.
func installWeakRef(in *interp.Interp, rt *ReferenceTable, global, objectProto *object.JsObject) {
	weakRefProto := object.NewOrdinaryObject(in, objectProto)

	defineConstructor(in, rt, global, "WeakRef", 1, weakRefProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || !args[0].IsObject() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "WeakRef target must be an object")}
		}
		target, ok := args[0].AsRef().(heap.Cell)
		if !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "WeakRef target must be an object")}
		}
		o := object.NewOrdinaryObject(in, weakRefProto)
		o.SetTail(&weakRefData{slot: in.Heap().MakeWeak(target)})
		return value.FromObject(o), nil
	})

	defineMethod(in, rt, weakRefProto, "deref", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "WeakRef.prototype.deref requires a WeakRef receiver")}
		}
		wd, ok := o.Tail().(*weakRefData)
		if !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "WeakRef.prototype.deref requires a WeakRef receiver")}
		}
		target, live := wd.slot.Upgrade()
		if !live {
			return value.Undefined, nil
		}
		ref, ok := target.(value.Ref)
		if !ok {
			return value.Undefined, nil
		}
		return value.FromObject(ref), nil
	})
}
