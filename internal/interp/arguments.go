package interp

import (
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// newArgumentsObject builds the `arguments` binding a non-arrow function
// body sees: an array-like TagArguments object holding a snapshot of the
// actual call arguments. This engine does not map arguments[i] back onto
// the corresponding named-parameter environment slot (the legacy
// "mapped arguments" behavior of sloppy-mode functions): reads and writes
// through the arguments object and through the named parameter are
// independent, the simplification strict-mode code already observes.
func (in *Interp) newArgumentsObject(args []value.Value, callee *object.JsObject) *object.JsObject {
	o := object.New(in, arrayClass, object.NewEmptyStructure(in, in.objectProto), object.TagArguments)
	for i, v := range args {
		o.Elements().Set(uint32(i), v, in.maxVectorSize)
	}
	_, _ = o.DefineOwnNonIndexed(in, wk(symCaller), object.PropertyDescriptor{
		Value: value.FromObject(callee), HasValue: true, HasConfigurable: true, Configurable: true,
	}, false)
	return o
}
