package interp

import "github.com/starjs-engine/starjs/internal/object"

// The accessors below are the wiring surface internal/jsrt's bootstrap
// uses to install the global object and the well-known prototypes; Interp
// keeps the fields themselves unexported so every other package reaches
// them only through this narrow, intention-revealing surface.

func (in *Interp) Global() *object.JsObject        { return in.global }
func (in *Interp) SetGlobal(o *object.JsObject)     { in.global = o }
func (in *Interp) ObjectProto() *object.JsObject    { return in.objectProto }
func (in *Interp) SetObjectProto(o *object.JsObject) { in.objectProto = o }
func (in *Interp) FunctionProto() *object.JsObject  { return in.functionProto }
func (in *Interp) SetFunctionProto(o *object.JsObject) { in.functionProto = o }
func (in *Interp) ArrayProto() *object.JsObject     { return in.arrayProto }
func (in *Interp) SetArrayProto(o *object.JsObject)  { in.arrayProto = o }
func (in *Interp) StringProto() *object.JsObject    { return in.stringProto }
func (in *Interp) SetStringProto(o *object.JsObject) { in.stringProto = o }
func (in *Interp) NumberProto() *object.JsObject    { return in.numberProto }
func (in *Interp) SetNumberProto(o *object.JsObject) { in.numberProto = o }
func (in *Interp) BooleanProto() *object.JsObject   { return in.booleanProto }
func (in *Interp) SetBooleanProto(o *object.JsObject) { in.booleanProto = o }

// RegisterErrorKind wires a named Error subclass's prototype and
// constructor (e.g. "TypeError"), consulted by NewError/newErrorObject
// when throwing and by jsrt's global bindings.
func (in *Interp) RegisterErrorKind(kind string, proto, ctor *object.JsObject) {
	in.errorProtos[kind] = proto
	in.errorCtors[kind] = ctor
}

func (in *Interp) ErrorProto(kind string) *object.JsObject { return in.errorProtos[kind] }
func (in *Interp) ErrorCtor(kind string) *object.JsObject  { return in.errorCtors[kind] }

// NewGlobalObject allocates the TagGlobal object used as both the
// top-level `this` and the target unqualified identifiers resolve against
// when no lexical binding matches.
func (in *Interp) NewGlobalObject() *object.JsObject {
	return object.New(in, object.OrdinaryClass, object.NewEmptyStructure(in, in.objectProto), object.TagGlobal)
}
