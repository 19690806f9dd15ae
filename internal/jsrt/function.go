package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installFunction wires Function.prototype (the no-op callable every
// user/native function already inherits via NewNativeFunction/
// NewUserFunction's shared functionProto) and a Function constructor.
// Dynamic source compilation (`new Function("a", "return a")`) needs a
// parser this bootstrap does not own, so the constructor throws a
// TypeError instead of silently returning a broken function.
func installFunction(in *interp.Interp, rt *ReferenceTable, global, functionProto *object.JsObject) {
	defineConstructor(in, rt, global, "Function", 1, functionProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Function constructor is not supported")}
	})

	defineMethod(in, rt, functionProto, "call", 1, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok || !fn.IsCallable() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Function.prototype.call called on non-function")}
		}
		var callThis value.Value = value.Undefined
		var rest []value.Value
		if len(args) > 0 {
			callThis = args[0]
			rest = args[1:]
		}
		v, exc := in.Call(fn, callThis, rest)
		if exc != nil {
			return value.Value{}, exc
		}
		return v, nil
	})

	defineMethod(in, rt, functionProto, "apply", 2, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok || !fn.IsCallable() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Function.prototype.apply called on non-function")}
		}
		var callThis value.Value = value.Undefined
		if len(args) > 0 {
			callThis = args[0]
		}
		var spread []value.Value
		if len(args) > 1 && args[1].IsObject() {
			if arr, ok := args[1].AsRef().(*object.JsObject); ok {
				n := arrayLen(in, arr)
				for i := uint32(0); i < n; i++ {
					slot, _ := arr.GetOwnIndexed(in, i)
					spread = append(spread, slot.Value)
				}
			}
		}
		v, exc := in.Call(fn, callThis, spread)
		if exc != nil {
			return value.Value{}, exc
		}
		return v, nil
	})

	defineMethod(in, rt, functionProto, "bind", 1, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok || !fn.IsCallable() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Function.prototype.bind called on non-function")}
		}
		var boundThis value.Value = value.Undefined
		var boundArgs []value.Value
		if len(args) > 0 {
			boundThis = args[0]
			boundArgs = append([]value.Value{}, args[1:]...)
		}
		return value.FromObject(in.NewBoundFunction(fn, boundThis, boundArgs)), nil
	})
}

// arrayLen reads an Array-tagged object's "length" property directly,
// small enough that duplicating it here (rather than exporting
// internal/interp's own arrayLength) avoids growing that package's
// surface for one three-line helper.
func arrayLen(in *interp.Interp, o *object.JsObject) uint32 {
	slot, ok := o.GetOwnNonIndexed(in, in.Intern("length"))
	if !ok || !slot.Value.IsNumber() {
		return 0
	}
	return uint32(slot.Value.AsFloat64())
}
