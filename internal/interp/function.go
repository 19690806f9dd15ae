package interp

import (
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// NewNativeFunction allocates a callable TagFunction object wrapping a Go
// implementation, with "length" and "name" data properties the way a
// built-in constructor or method is observed to have.
func (in *Interp) NewNativeFunction(name string, length int, fn object.NativeFunc) *object.JsObject {
	o := object.New(in, object.OrdinaryClass, object.NewEmptyStructure(in, in.functionProto), object.TagFunction)
	o.SetCallable(true)
	o.SetTail(&object.FunctionData{Kind: object.FuncNative, Native: fn, Name: name, Length: length})
	in.installFunctionMeta(o, name, length)
	return o
}

// NewUserFunction allocates a closure over a compiled CodeBlock, capturing
// env as its lexical scope. Non-arrow functions get a fresh "prototype"
// object so `new` has somewhere to root the constructed instance's
// Structure.
func (in *Interp) NewUserFunction(code *bytecode.CodeBlock, env *object.Environment) *object.JsObject {
	o := object.New(in, object.OrdinaryClass, object.NewEmptyStructure(in, in.functionProto), object.TagFunction)
	o.SetCallable(true)
	o.SetTail(&object.FunctionData{Kind: object.FuncUser, Code: code, Env: env})
	in.installFunctionMeta(o, code.Name, code.ParamCount)

	proto := object.NewOrdinaryObject(in, in.objectProto)
	_, _ = proto.DefineOwnNonIndexed(in, wk(symConstructor), object.PropertyDescriptor{
		Value: value.FromObject(o), HasValue: true, HasWritable: true, Writable: true, HasConfigurable: true, Configurable: true,
	}, false)
	_, _ = o.DefineOwnNonIndexed(in, wk(symPrototype), object.PropertyDescriptor{
		Value: value.FromObject(proto), HasValue: true, HasWritable: true, Writable: true,
	}, false)
	return o
}

// NewBoundFunction implements Function.prototype.bind's object shape: a
// TagFunction whose FunctionData records the target plus the bound
// this/leading-args, expanded by callFunction at invocation time.
func (in *Interp) NewBoundFunction(target *object.JsObject, boundThis value.Value, boundArgs []value.Value) *object.JsObject {
	o := object.New(in, object.OrdinaryClass, object.NewEmptyStructure(in, in.functionProto), object.TagFunction)
	o.SetCallable(true)
	o.SetTail(&object.FunctionData{Kind: object.FuncBound, Target: target, BoundThis: boundThis, BoundArgs: boundArgs})
	name := "bound"
	if fd, ok := target.Tail().(*object.FunctionData); ok {
		name = "bound " + fd.Name
	}
	in.installFunctionMeta(o, name, 0)
	return o
}

func (in *Interp) installFunctionMeta(o *object.JsObject, name string, length int) {
	_, _ = o.DefineOwnNonIndexed(in, wk(symName), object.PropertyDescriptor{
		Value: value.FromObject(NewString(in, name)), HasValue: true, HasConfigurable: true, Configurable: true,
	}, false)
	_, _ = o.DefineOwnNonIndexed(in, wk(symLength), object.PropertyDescriptor{
		Value: value.Int32(int32(length)), HasValue: true, HasConfigurable: true, Configurable: true,
	}, false)
}

// functionData reads the callee's tail payload, returning nil if o is not
// actually a TagFunction object (a caller error this package treats as a
// TypeError at the call site instead of panicking).
func functionData(o *object.JsObject) *object.FunctionData {
	fd, _ := o.Tail().(*object.FunctionData)
	return fd
}
