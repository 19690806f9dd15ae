package object

import (
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// Tag discriminates a JsObject's variant, determining what its Tail
// payload holds. New variants are added here rather than via a subtype
// hierarchy: one struct, a tag, and a union of tails.
type Tag uint8

const (
	TagOrdinary Tag = iota
	TagArray
	TagFunction
	TagGlobal
	TagError
	TagArguments
	TagStringObject
)

// Flags is a JsObject-level bitset.
type Flags uint8

const (
	FlagExtensible Flags = 1 << iota
	FlagCallable
	FlagTuple
)

// FunctionKind discriminates a TagFunction object's calling convention.
type FunctionKind uint8

const (
	FuncUser FunctionKind = iota
	FuncNative
	FuncBound
)

// NativeFunc is the signature every host-registered native function
// implements. ctx is narrowed to Context here; the interpreter passes a
// richer implementation that also satisfies it.
type NativeFunc func(ctx Context, this value.Value, args []value.Value) (value.Value, error)

// FunctionData is the tail payload for TagFunction objects.
type FunctionData struct {
	Kind FunctionKind

	// FuncUser
	Code *bytecode.CodeBlock
	Env  *Environment

	// FuncNative
	Native NativeFunc
	Name   string
	Length int

	// FuncBound
	Target    *JsObject
	BoundThis value.Value
	BoundArgs []value.Value
}

// ErrorData is the tail payload for TagError objects.
type ErrorData struct {
	Kind  string // "TypeError", "RangeError", ...
	Stack []StackFrameInfo
}

// StackFrameInfo is one entry of a captured stack trace.
type StackFrameInfo struct {
	FunctionName string
	CodeOffset   int
}

// JsObject is the engine's universal object representation: a Structure
// (shape) plus slot storage, indexed-element storage, a tag-dependent
// tail payload, and the class method table the tag selects.
type JsObject struct {
	header heap.Header

	class     *Class
	structure *Structure
	slots     []value.Value
	elements  *IndexedElements
	flags     Flags
	tag       Tag
	tail      interface{}
}

// Header satisfies heap.Cell.
func (o *JsObject) Header() *heap.Header { return &o.header }

// TypeName satisfies heap.Cell.
func (o *JsObject) TypeName() string { return "JsObject" }

// Trace visits the structure, every slot holding a heap reference, the
// indexed elements, and any heap references nested in the tail payload.
func (o *JsObject) Trace(t heap.Tracer) {
	t.Visit(o.structure)
	for _, v := range o.slots {
		traceValue(t, v)
	}
	if o.elements != nil {
		o.elements.Each(func(_ uint32, v value.Value, _ Attributes) {
			traceValue(t, v)
		})
	}
	switch td := o.tail.(type) {
	case *FunctionData:
		if td.Env != nil {
			t.Visit(td.Env)
		}
		if td.Code != nil {
			TraceCodeBlock(t, td.Code)
		}
		if td.Target != nil {
			t.Visit(td.Target)
		}
		for _, v := range td.BoundArgs {
			if v.IsObject() {
				if c, ok := v.AsRef().(heap.Cell); ok {
					t.Visit(c)
				}
			}
		}
		if td.BoundThis.IsObject() {
			if c, ok := td.BoundThis.AsRef().(heap.Cell); ok {
				t.Visit(c)
			}
		}
	}
}

// TraceCodeBlock visits the heap cells a CodeBlock's literal pool holds
// (string literals resolved to heap strings, and any constant object a
// host-built program embeds), recursing into nested function bodies. A
// CodeBlock is not itself a heap cell, so its literals are only reachable
// through whoever holds the block: a closure's tail here, or an executing
// call frame via the interpreter's root walk.
func TraceCodeBlock(t heap.Tracer, cb *bytecode.CodeBlock) {
	for _, v := range cb.Literals {
		traceValue(t, v)
	}
	for _, nested := range cb.Codes {
		TraceCodeBlock(t, nested)
	}
}

// traceValue visits the heap references a slot or element value holds. An
// accessor pair is boxed behind a non-cell Ref, so its getter and setter
// have to be unwrapped here or the collector would never see them.
func traceValue(t heap.Tracer, v value.Value) {
	if !v.IsObject() {
		return
	}
	switch r := v.AsRef().(type) {
	case *Accessor:
		traceValue(t, r.Getter)
		traceValue(t, r.Setter)
	case heap.Cell:
		t.Visit(r)
	}
}

// New allocates a JsObject of the given tag, class, and structure. The
// slot vector is sized to the structure's current slot count; indexed
// elements are allocated lazily the first time an indexed write occurs.
func New(ctx Context, class *Class, structure *Structure, tag Tag) *JsObject {
	o := &JsObject{
		class:     class,
		structure: structure,
		slots:     make([]value.Value, structure.Size()),
		flags:     FlagExtensible,
		tag:       tag,
	}
	for i := range o.slots {
		o.slots[i] = value.Empty
	}
	ctx.Heap().Allocate(o)
	return o
}

func (o *JsObject) Class() *Class         { return o.class }
func (o *JsObject) Structure() *Structure { return o.structure }
func (o *JsObject) Tag() Tag              { return o.tag }
func (o *JsObject) Tail() interface{}     { return o.tail }
func (o *JsObject) SetTail(t interface{}) { o.tail = t }

// Slots exposes the raw slot vector for internal/snapshot's serializer;
// callers must treat the returned slice as read-only.
func (o *JsObject) Slots() []value.Value { return o.slots }

// RawFlags returns the object's extensible/callable/tuple bitset.
func (o *JsObject) RawFlags() Flags { return o.flags }

// RawElements returns the indexed-element storage without the
// lazy-allocation Elements() performs, or nil if none has ever been
// allocated.
func (o *JsObject) RawElements() *IndexedElements { return o.elements }

// NewBlank allocates a JsObject with none of its fields set, for
// internal/snapshot's deserializer: a placeholder cell with an address
// deserialization can relocate other cells' cross-references against
// before RestoreFields fills in its actual content.
func NewBlank(ctx Context) *JsObject {
	o := &JsObject{}
	ctx.Heap().Allocate(o)
	return o
}

// RestoreFields installs a deserialized JsObject's complete state in one
// step, the counterpart to NewBlank.
func (o *JsObject) RestoreFields(class *Class, structure *Structure, tag Tag, slots []value.Value, elements *IndexedElements, flags Flags, tail interface{}) {
	o.class = class
	o.structure = structure
	o.tag = tag
	o.slots = slots
	o.elements = elements
	o.flags = flags
	o.tail = tail
}

func (o *JsObject) IsExtensible() bool { return o.flags&FlagExtensible != 0 }
func (o *JsObject) SetExtensible(v bool) {
	if v {
		o.flags |= FlagExtensible
	} else {
		o.flags &^= FlagExtensible
	}
}
func (o *JsObject) IsCallable() bool { return o.flags&FlagCallable != 0 }
func (o *JsObject) SetCallable(v bool) {
	if v {
		o.flags |= FlagCallable
	} else {
		o.flags &^= FlagCallable
	}
}

// Elements lazily allocates and returns the indexed-element storage.
func (o *JsObject) Elements() *IndexedElements {
	if o.elements == nil {
		o.elements = NewIndexedElements()
	}
	return o.elements
}

// HasElements reports whether indexed storage has ever been allocated,
// without forcing the lazy allocation Elements() performs.
func (o *JsObject) HasElements() bool { return o.elements != nil }

// slotValue reads the raw slot storage at offset; an offset past the
// current vector reads as Undefined rather than panicking.
func (o *JsObject) slotValue(offset uint32) value.Value {
	if int(offset) >= len(o.slots) {
		return value.Undefined
	}
	return o.slots[offset]
}

func (o *JsObject) setSlotValue(offset uint32, v value.Value) {
	for uint32(len(o.slots)) <= offset {
		o.slots = append(o.slots, value.Empty)
	}
	o.slots[offset] = v
}

// growToStructure resizes slots to match a new structure's slot count
// after a transition, preserving existing values.
func (o *JsObject) growToStructure(s *Structure) {
	o.structure = s
	for uint32(len(o.slots)) < s.Size() {
		o.slots = append(o.slots, value.Empty)
	}
}

// SlotAt and SetSlotAt expose the raw slot vector to the interpreter's
// inline-cache fast paths (PropertyCache, PutByIdFeedback in
// internal/interp), which have already validated offset against a
// Structure known to match o's before calling these; they skip the
// Structure-table lookup GetOwnNonIndexed/PutNonIndexed would otherwise
// repeat on every cache hit.
func (o *JsObject) SlotAt(offset uint32) value.Value { return o.slotValue(offset) }

func (o *JsObject) SetSlotAt(offset uint32, v value.Value) { o.setSlotValue(offset, v) }

// AdoptStructure installs s as o's Structure, growing the slot vector if s
// has more properties, the fast-path equivalent of the transition logic
// OrdinaryPutNonIndexed runs on a cache miss.
func (o *JsObject) AdoptStructure(s *Structure) { o.growToStructure(s) }

// ---- Generic protocol entry points (dispatch through the class table) ----

// GetOwnNonIndexed performs the own-property lookup, consulting the class
// table so tag-specific variants (e.g. a future exotic object) can
// override the default Structure-table lookup.
func (o *JsObject) GetOwnNonIndexed(ctx Context, sym symbol.Symbol) (PropSlot, bool) {
	return o.class.GetOwnNonIndexed(ctx, o, sym)
}

// GetNonIndexed walks the prototype chain via the class table's
// GetNonIndexed hook, which defaults to OrdinaryGetNonIndexed.
func (o *JsObject) GetNonIndexed(ctx Context, sym symbol.Symbol) (PropSlot, bool) {
	return o.class.GetNonIndexed(ctx, o, sym)
}

func (o *JsObject) PutNonIndexed(ctx Context, sym symbol.Symbol, v value.Value, throw bool) error {
	return o.class.PutNonIndexed(ctx, o, sym, v, throw)
}

func (o *JsObject) DefineOwnNonIndexed(ctx Context, sym symbol.Symbol, desc PropertyDescriptor, throw bool) (bool, error) {
	return o.class.DefineOwnNonIndexed(ctx, o, sym, desc, throw)
}

func (o *JsObject) DeleteNonIndexed(ctx Context, sym symbol.Symbol, throw bool) (bool, error) {
	return o.class.DeleteNonIndexed(ctx, o, sym, throw)
}

func (o *JsObject) GetOwnIndexed(ctx Context, idx uint32) (PropSlot, bool) {
	return o.class.GetOwnIndexed(ctx, o, idx)
}

func (o *JsObject) PutIndexed(ctx Context, idx uint32, v value.Value, throw bool) error {
	return o.class.PutIndexed(ctx, o, idx, v, throw)
}

func (o *JsObject) DefineOwnIndexed(ctx Context, idx uint32, desc PropertyDescriptor, throw bool) (bool, error) {
	return o.class.DefineOwnIndexed(ctx, o, idx, desc, throw)
}

func (o *JsObject) DeleteIndexed(ctx Context, idx uint32, throw bool) (bool, error) {
	return o.class.DeleteIndexed(ctx, o, idx, throw)
}

// Get is the convenience entry point combining the indexed/non-indexed
// and own/inherited distinctions the way a property read from bytecode
// needs: try own indexed or non-indexed, then walk the prototype chain.
func (o *JsObject) Get(ctx Context, sym symbol.Symbol) (PropSlot, bool) {
	if sym.IsIndex() {
		if s, ok := o.GetOwnIndexed(ctx, sym.Index()); ok {
			return s, true
		}
		return o.getIndexedFromPrototype(ctx, sym.Index())
	}
	return o.GetNonIndexed(ctx, sym)
}

func (o *JsObject) getIndexedFromPrototype(ctx Context, idx uint32) (PropSlot, bool) {
	proto := o.structure.Prototype()
	for proto != nil {
		if s, ok := proto.GetOwnIndexed(ctx, idx); ok {
			return s, true
		}
		proto = proto.structure.Prototype()
	}
	return PropSlot{}, false
}

// Put is the convenience entry point for a property write from bytecode.
func (o *JsObject) Put(ctx Context, sym symbol.Symbol, v value.Value, throw bool) error {
	if sym.IsIndex() {
		return o.PutIndexed(ctx, sym.Index(), v, throw)
	}
	return o.PutNonIndexed(ctx, sym, v, throw)
}

// Delete is the convenience entry point for the delete operator.
func (o *JsObject) Delete(ctx Context, sym symbol.Symbol, throw bool) (bool, error) {
	if sym.IsIndex() {
		return o.DeleteIndexed(ctx, sym.Index(), throw)
	}
	return o.DeleteNonIndexed(ctx, sym, throw)
}

// Has reports whether sym resolves anywhere on o's prototype chain.
func (o *JsObject) Has(ctx Context, sym symbol.Symbol) bool {
	_, ok := o.Get(ctx, sym)
	return ok
}
