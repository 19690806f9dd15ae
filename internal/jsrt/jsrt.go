// Package jsrt assembles a fresh Interp's global object, well-known
// prototypes and constructors, and the handful of free-standing global
// natives every bootstrapped Runtime exposes: one function per built-in
// class, each installing a constructor and a prototype and wiring the
// pair together, called in the fixed order the native reference table
// (references.go) depends on.
//
// Everything beyond this bootstrap set — Array.prototype.map,
// String.prototype.slice, and so on — is out of scope here; jsrt only
// lays the foundation a host extends via Runtime.DefineNativeFunction and
// Runtime.DefineNativeClass.
package jsrt

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// Bootstrap installs the complete built-in environment into a freshly
// constructed, otherwise empty Interp: Object/Function/Array/String/
// Number/Boolean prototypes and constructors, Error and its six
// subclasses, the WeakRef native class, the global natives, and the
// global object itself. Call it exactly once per Interp, before running
// any user bytecode. It returns the fixed-order ReferenceTable every
// native function was recorded into as it was created.
//
// internal/snapshot's deserializer calls Bootstrap against a fresh,
// otherwise-empty Interp before reading any cell payloads, for the same
// reason: it needs that identical ReferenceTable to resolve a
// snapshot-encoded native-function index back to a live *object.JsObject,
// and Bootstrap's install order is what makes the table reproducible.
func Bootstrap(in *interp.Interp) *ReferenceTable {
	rt := newReferenceTable()
	// Object.prototype has no prototype of its own; every other
	// prototype in this bootstrap is rooted at it.
	objectProto := object.NewOrdinaryObject(in, nil)
	in.SetObjectProto(objectProto)

	functionProto := object.NewOrdinaryObject(in, objectProto)
	functionProto.SetCallable(true)
	functionProto.SetTail(&object.FunctionData{
		Kind:   object.FuncNative,
		Native: func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) { return value.Undefined, nil },
		Name:   "",
	})
	in.SetFunctionProto(functionProto)
	// Function.prototype is itself a callable native (it ignores its
	// arguments and returns undefined), so it must sit in the reference
	// table like every other native body or a snapshot could not recover
	// its closure.
	rt.add(functionProto)

	arrayProto := in.NewArrayWithProto(objectProto, nil)
	in.SetArrayProto(arrayProto)

	stringProto := object.NewOrdinaryObject(in, objectProto)
	in.SetStringProto(stringProto)

	numberProto := object.NewOrdinaryObject(in, objectProto)
	in.SetNumberProto(numberProto)

	booleanProto := object.NewOrdinaryObject(in, objectProto)
	in.SetBooleanProto(booleanProto)

	global := in.NewGlobalObject()
	in.SetGlobal(global)

	installObject(in, rt, global, objectProto)
	installFunction(in, rt, global, functionProto)
	installArray(in, rt, global, arrayProto)
	installString(in, rt, global, stringProto)
	installNumber(in, rt, global, numberProto)
	installBoolean(in, rt, global, booleanProto)
	installErrors(in, rt, global, objectProto)
	installWeakRef(in, rt, global, objectProto)
	installGlobals(in, rt, global)

	in.Logger().Infof("jsrt: bootstrap complete for runtime %s", in.ID())
	return rt
}

// DefineNativeFunction installs a host-supplied native function as a
// property of owner, recording it in refs so it participates in the same
// fixed-order native recovery scheme the bootstrap set uses. Hosts must
// perform the same registrations, in the same order, on both the
// serialize and deserialize side of a snapshot (the root package's
// WithNativeSetup arranges exactly that).
func DefineNativeFunction(in *interp.Interp, refs *ReferenceTable, owner *object.JsObject, name string, length int, fn object.NativeFunc) *object.JsObject {
	return defineMethod(in, refs, owner, name, length, fn)
}

// DefineNativeClass installs a host-supplied native class: a constructor
// on the global object, a fresh prototype chained to Object.prototype,
// and the given prototype methods, following the same
// constructor/prototype wiring every bootstrap built-in uses. Method
// installation order follows methodNames, so the native reference table
// stays deterministic.
func DefineNativeClass(in *interp.Interp, refs *ReferenceTable, name string, length int, ctor object.NativeFunc, methodNames []string, methods map[string]object.NativeFunc) (*object.JsObject, *object.JsObject) {
	proto := object.NewOrdinaryObject(in, in.ObjectProto())
	ctorObj := defineConstructor(in, refs, in.Global(), name, length, proto, ctor)
	for _, mn := range methodNames {
		defineMethod(in, refs, proto, mn, 0, methods[mn])
	}
	return ctorObj, proto
}

// defineMethod installs a native function as a non-enumerable, writable,
// configurable data property of owner, the shape every built-in method
// and constructor-as-property binding in this package uses, and records
// it in rt at its creation index.
func defineMethod(in *interp.Interp, rt *ReferenceTable, owner *object.JsObject, name string, length int, fn object.NativeFunc) *object.JsObject {
	f := in.NewNativeFunction(name, length, fn)
	_, _ = owner.DefineOwnNonIndexed(in, in.Intern(name), object.PropertyDescriptor{
		Value: value.FromObject(f), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	rt.add(f)
	return f
}

// defineConstructor builds a native constructor function, points its
// "prototype" property at proto, and points proto's "constructor" back at
// the function, then installs it as a property of owner (typically the
// global object). The constructor is recorded in rt at its creation
// index.
func defineConstructor(in *interp.Interp, rt *ReferenceTable, owner *object.JsObject, name string, length int, proto *object.JsObject, fn object.NativeFunc) *object.JsObject {
	ctor := in.NewNativeFunction(name, length, fn)
	_, _ = ctor.DefineOwnNonIndexed(in, in.Intern("prototype"), object.PropertyDescriptor{
		Value: value.FromObject(proto), HasValue: true,
	}, false)
	_, _ = proto.DefineOwnNonIndexed(in, in.Intern("constructor"), object.PropertyDescriptor{
		Value: value.FromObject(ctor), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	_, _ = owner.DefineOwnNonIndexed(in, in.Intern(name), object.PropertyDescriptor{
		Value: value.FromObject(ctor), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	rt.add(ctor)
	return ctor
}
