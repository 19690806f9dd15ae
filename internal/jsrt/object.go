package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installObject wires the Object constructor and Object.prototype:
// calling Object() or new Object() with no argument (or with null/undefined)
// returns a fresh plain object; called with an object it returns that
// object unchanged. Any other primitive also yields a fresh plain object,
// since this bootstrap has no wrapper-object coercion logic.
func installObject(in *interp.Interp, rt *ReferenceTable, global, objectProto *object.JsObject) {
	defineConstructor(in, rt, global, "Object", 1, objectProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || args[0].IsNullOrUndefined() {
			return value.FromObject(object.NewOrdinaryObject(in, objectProto)), nil
		}
		if args[0].IsObject() {
			return args[0], nil
		}
		return value.FromObject(object.NewOrdinaryObject(in, objectProto)), nil
	})

	defineMethod(in, rt, objectProto, "toString", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		return value.FromObject(interp.NewString(in, "[object Object]")), nil
	})

	defineMethod(in, rt, objectProto, "valueOf", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})

	defineMethod(in, rt, objectProto, "hasOwnProperty", 1, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok {
			return value.False, nil
		}
		if len(args) == 0 {
			return value.False, nil
		}
		name, err := in.ToStringValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		key := in.Intern(name)
		_, has := o.GetOwnNonIndexed(in, key)
		return value.Bool(has), nil
	})
}
