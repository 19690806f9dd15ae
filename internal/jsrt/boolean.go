package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installBoolean wires the Boolean constructor and Boolean.prototype,
// mirroring installNumber: no boxed wrapper tag, ToBoolean coercion only.
func installBoolean(in *interp.Interp, rt *ReferenceTable, global, booleanProto *object.JsObject) {
	defineConstructor(in, rt, global, "Boolean", 1, booleanProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.False, nil
		}
		return value.Bool(in.Truthy(args[0])), nil
	})

	defineMethod(in, rt, booleanProto, "toString", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.KindBool {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Boolean.prototype.toString requires a boolean receiver")}
		}
		if this.AsBool() {
			return value.FromObject(interp.NewString(in, "true")), nil
		}
		return value.FromObject(interp.NewString(in, "false")), nil
	})

	defineMethod(in, rt, booleanProto, "valueOf", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if this.Kind() != value.KindBool {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Boolean.prototype.valueOf requires a boolean receiver")}
		}
		return this, nil
	})
}
