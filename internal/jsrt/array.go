package jsrt

import (
	"strings"

	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installArray wires the Array constructor and Array.prototype: called
// with a single numeric argument it builds a sparse array of that length (ToUint32, throwing RangeError on a
// non-index value the way ECMA-262 15.4.2.2 requires); called any other
// way it collects the argument list as the array's initial elements.
func installArray(in *interp.Interp, rt *ReferenceTable, global, arrayProto *object.JsObject) {
	defineConstructor(in, rt, global, "Array", 1, arrayProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 1 && args[0].IsNumber() {
			n, err := in.ToUint32(args[0])
			if err != nil {
				return value.Value{}, err
			}
			if float64(n) != args[0].AsFloat64() {
				return value.Value{}, &object.ThrowError{Value: in.NewError("RangeError", "invalid array length")}
			}
			arr := in.NewArray(nil)
			_ = arr.PutNonIndexed(in, in.Intern("length"), value.Number(float64(n)), false)
			return value.FromObject(arr), nil
		}
		return value.FromObject(in.NewArray(args)), nil
	})

	defineMethod(in, rt, arrayProto, "push", 1, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Array.prototype.push called on non-object")}
		}
		n := arrayLen(in, arr)
		for _, v := range args {
			_ = arr.PutIndexed(in, n, v, false)
			n++
		}
		_ = arr.PutNonIndexed(in, in.Intern("length"), value.Number(float64(n)), false)
		return value.Number(float64(n)), nil
	})

	defineMethod(in, rt, arrayProto, "join", 1, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Array.prototype.join called on non-object")}
		}
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := in.ToStringValue(args[0])
			if err != nil {
				return value.Value{}, err
			}
			sep = s
		}
		n := arrayLen(in, arr)
		parts := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			slot, ok := arr.GetOwnIndexed(in, i)
			if !ok || slot.Value.IsNullOrUndefined() {
				parts = append(parts, "")
				continue
			}
			s, err := in.ToStringValue(slot.Value)
			if err != nil {
				return value.Value{}, err
			}
			parts = append(parts, s)
		}
		return value.FromObject(interp.NewString(in, strings.Join(parts, sep))), nil
	})

	defineMethod(in, rt, arrayProto, "toString", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		joinFn, ok := arrayProto.GetOwnNonIndexed(in, in.Intern("join"))
		if !ok {
			return value.FromObject(interp.NewString(in, "")), nil
		}
		fn, ok := joinFn.Value.AsRef().(*object.JsObject)
		if !ok {
			return value.FromObject(interp.NewString(in, "")), nil
		}
		v, exc := in.Call(fn, this, nil)
		if exc != nil {
			return value.Value{}, exc
		}
		return v, nil
	})
}
