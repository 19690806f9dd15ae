package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// errorKinds lists the six built-in Error subclasses in the fixed order
// the native reference table (references.go) depends on.
var errorKinds = []string{
	"TypeError", "RangeError", "ReferenceError", "SyntaxError", "EvalError", "URIError",
}

// installErrors wires the base Error constructor/prototype plus the six
// subclasses, each with its own prototype chained to Error.prototype and
// its own native constructor (an ordinary function object inheriting from
// Function.prototype, not from Error). Interp.RegisterErrorKind
// wires each pair into the interpreter's throw-site lookup
// (Interp.NewError) so a VM-raised TypeError uses the same prototype a
// user-constructed `new TypeError(...)` would.
func installErrors(in *interp.Interp, rt *ReferenceTable, global, objectProto *object.JsObject) {
	errorProto := object.NewOrdinaryObject(in, objectProto)
	_, _ = errorProto.DefineOwnNonIndexed(in, in.Intern("name"), object.PropertyDescriptor{
		Value: value.FromObject(interp.NewString(in, "Error")), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	_, _ = errorProto.DefineOwnNonIndexed(in, in.Intern("message"), object.PropertyDescriptor{
		Value: value.FromObject(interp.NewString(in, "")), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	defineMethod(in, rt, errorProto, "toString", 0, errorToString(in))

	errorCtor := defineConstructor(in, rt, global, "Error", 1, errorProto, errorConstructorBody(in, "Error", errorProto))
	in.RegisterErrorKind("Error", errorProto, errorCtor)

	for _, kind := range errorKinds {
		proto := object.NewOrdinaryObject(in, errorProto)
		_, _ = proto.DefineOwnNonIndexed(in, in.Intern("name"), object.PropertyDescriptor{
			Value: value.FromObject(interp.NewString(in, kind)), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
		}, false)
		ctor := defineConstructor(in, rt, global, kind, 1, proto, errorConstructorBody(in, kind, proto))
		in.RegisterErrorKind(kind, proto, ctor)
	}
}

// errorConstructorBody returns the native body shared by Error and every
// subclass constructor: allocate a TagError object rooted at proto,
// install a "message" own property (the empty string when no argument
// was given), and
// capture a stack trace the same way Interp.NewError does internally.
func errorConstructorBody(in *interp.Interp, kind string, proto *object.JsObject) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		msg := ""
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := in.ToStringValue(args[0])
			if err != nil {
				return value.Value{}, err
			}
			msg = s
		}
		return in.NewError(kind, "%s", msg), nil
	}
}

func errorToString(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := this.AsRef().(*object.JsObject)
		if !this.IsObject() || !ok {
			return value.Value{}, &object.ThrowError{Value: in.NewError("TypeError", "Error.prototype.toString requires an object receiver")}
		}
		name := "Error"
		if slot, ok := o.Get(in, in.Intern("name")); ok {
			if s, err := in.ToStringValue(slot.Value); err == nil {
				name = s
			}
		}
		msg := ""
		if slot, ok := o.Get(in, in.Intern("message")); ok {
			if s, err := in.ToStringValue(slot.Value); err == nil {
				msg = s
			}
		}
		if msg == "" {
			return value.FromObject(interp.NewString(in, name)), nil
		}
		return value.FromObject(interp.NewString(in, name+": "+msg)), nil
	}
}
