package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installString wires the String constructor and String.prototype:
// called as a function it coerces its argument to a primitive string.
// There is no String wrapper object: called with `new` it returns the same
// primitive JsString, which the construct path keeps because a JsString is
// an object-kind Value, so `typeof new String("x")` reports "string".
func installString(in *interp.Interp, rt *ReferenceTable, global, stringProto *object.JsObject) {
	defineConstructor(in, rt, global, "String", 1, stringProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		s := ""
		if len(args) > 0 {
			var err error
			s, err = in.ToStringValue(args[0])
			if err != nil {
				return value.Value{}, err
			}
		}
		return value.FromObject(interp.NewString(in, s)), nil
	})

	defineMethod(in, rt, stringProto, "toString", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if js, ok := this.AsRef().(*interp.JsString); ok {
			return value.FromObject(js), nil
		}
		return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "String.prototype.toString requires a string receiver")}
	})

	defineMethod(in, rt, stringProto, "valueOf", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if js, ok := this.AsRef().(*interp.JsString); ok {
			return value.FromObject(js), nil
		}
		return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "String.prototype.valueOf requires a string receiver")}
	})
}
