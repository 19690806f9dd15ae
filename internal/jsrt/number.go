package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installNumber wires the Number constructor and Number.prototype:
// called as a function it coerces its argument via ToNumber and returns
// a primitive. This bootstrap has no boxed-Number wrapper object tag
// (nothing in the bootstrap set needs `new Number(...)` to be observably
// boxed). Under `new`, the interpreter's construct path discards the
// primitive result and returns its fresh ordinary instance rooted at
// Number.prototype, so `new Number(x)` yields a plain object that does
// not hold x.
func installNumber(in *interp.Interp, rt *ReferenceTable, global, numberProto *object.JsObject) {
	defineConstructor(in, rt, global, "Number", 1, numberProto, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(0), nil
		}
		n, err := in.ToNumber(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(n), nil
	})

	defineMethod(in, rt, numberProto, "toString", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsNumber() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Number.prototype.toString requires a number receiver")}
		}
		s, err := in.ToStringValue(this)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObject(interp.NewString(in, s)), nil
	})

	defineMethod(in, rt, numberProto, "valueOf", 0, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsNumber() {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Number.prototype.valueOf requires a number receiver")}
		}
		return this, nil
	})
}
