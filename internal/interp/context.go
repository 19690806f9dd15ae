// Package interp implements the engine's bytecode virtual machine: the
// call-frame stack, the single dispatch loop over internal/bytecode's
// opcode set, inline caches for property access and arithmetic, and
// exception unwinding. It is the one package allowed to import both
// internal/bytecode and internal/object, since the richer inline-cache
// payload types (PropertyCache, PutByIdFeedback) need a weak reference to
// object.Structure while object.FunctionData needs to hold a
// *bytecode.CodeBlock.
package interp

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/rtlog"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// Context is the runtime surface internal/interp's own helpers need. It
// consists of object.Context alone (which *Interp implements); bootstrap
// code registers natives and prototypes through *Interp's own methods.
type Context interface {
	object.Context
}

// Interp is the engine's runtime: owner of the heap, the symbol interner
// view, the value stack, the call-frame stack, and the well-known
// prototypes/constructors installed during bootstrap. It is mutable by
// exactly one goroutine at a time and never reentrant.
type Interp struct {
	id      uuid.UUID
	goCtx   context.Context
	heap    *heap.Heap
	symbols *symbol.Table
	logger  *rtlog.Logger

	maxVectorSize uint32

	global        *object.JsObject
	objectProto   *object.JsObject
	functionProto *object.JsObject
	arrayProto    *object.JsObject
	stringProto   *object.JsObject
	numberProto   *object.JsObject
	booleanProto  *object.JsObject
	errorProtos   map[string]*object.JsObject
	errorCtors    map[string]*object.JsObject

	stack  []value.Value
	frames []*CallFrame

	// rootStructures caches the shared empty-shape Structure per prototype,
	// the roots of the transition DAG. Entries are GC roots (see
	// traceRootsImpl); the map is bounded by the number of distinct
	// prototypes the runtime ever allocates ordinary objects against.
	rootStructures map[*object.JsObject]*object.Structure

	// invalidated rate-limits the inline-cache-miss debug log to once per
	// bytecode site per Runtime, keyed by the feedback index combined with
	// the CodeBlock it belongs to.
	invalidated map[cacheSiteKey]bool

	// externalRefs are host-supplied addresses appended after the fixed
	// native reference table when building a snapshot; see internal/snapshot.
	externalRefs []interface{}

	// builtins holds host-registered native hooks addressable by
	// CALL_BUILTIN; no core opcode currently emits that instruction, so
	// this stays empty outside of host-specific compilation paths.
	builtins map[uint32]object.NativeFunc
}

type cacheSiteKey struct {
	code *bytecode.CodeBlock
	slot uint32
}

// Params bundles the construction-time tuning an Interp needs, mirroring
// heap.Config's shape one level up so the root package's RuntimeConfig can
// translate 1:1 into this without either package depending on the other.
type Params struct {
	HeapConfig    heap.Config
	MaxVectorSize uint32
	Logger        *rtlog.Logger
	Context       context.Context
	ExternalRefs  []interface{}
	RuntimeID     uuid.UUID
}

// New constructs a bare Interp: heap, symbol table, and value/frame
// stacks, but no global object or bootstrap prototypes. Callers (the root
// package's Runtime, or the snapshot deserializer) finish wiring it via
// the Bootstrap hook in internal/jsrt or via deserialization.
func New(p Params) *Interp {
	if p.Logger == nil {
		p.Logger = rtlog.Discard()
	}
	if p.MaxVectorSize == 0 {
		p.MaxVectorSize = object.DefaultMaxVectorSize
	}
	if p.Context == nil {
		p.Context = context.Background()
	}
	if p.RuntimeID == uuid.Nil {
		p.RuntimeID = uuid.New()
	}
	p.HeapConfig.Logger = p.Logger
	p.HeapConfig.RuntimeID = p.RuntimeID.String()

	return &Interp{
		id:            p.RuntimeID,
		goCtx:         p.Context,
		heap:          heap.New(p.HeapConfig),
		symbols:       symbol.NewTable(),
		logger:        p.Logger,
		maxVectorSize: p.MaxVectorSize,
		errorProtos:    map[string]*object.JsObject{},
		errorCtors:     map[string]*object.JsObject{},
		invalidated:    map[cacheSiteKey]bool{},
		externalRefs:   p.ExternalRefs,
		rootStructures: map[*object.JsObject]*object.Structure{},
	}
}

// ID returns the Runtime's UUID, used to tag log lines and the snapshot
// header.
func (in *Interp) ID() uuid.UUID { return in.id }

// SetID overwrites the Runtime's UUID, used by internal/snapshot when a
// host supplies WithRuntimeID to FromSnapshot instead of accepting the
// freshly regenerated one New assigns.
func (in *Interp) SetID(id uuid.UUID) { in.id = id }

// ExternalRefs returns the host-supplied reference pool passed via
// Params.ExternalRefs, exposed so internal/snapshot can record its length
// in a snapshot header for diagnostic validation against the pool a host
// supplies again on FromSnapshot.
func (in *Interp) ExternalRefs() []interface{} { return in.externalRefs }

// Symbols returns the Runtime's interner, used by internal/snapshot to
// walk and rebuild the public symbol partition.
func (in *Interp) Symbols() *symbol.Table { return in.symbols }

// CollectGarbage forces an immediate mark-sweep cycle using the same root
// set a safepoint collection would, bypassing the allocation-threshold
// check in heap.Heap.CollectIfNecessary. It is the implementation behind
// the bootstrapped global `gc` native and the root package's exported
// forced-collection hook.
func (in *Interp) CollectGarbage() { in.heap.Collect(in.traceRootsImpl) }

// --- object.Context ---------------------------------------------------

func (in *Interp) Heap() *heap.Heap            { return in.heap }
func (in *Interp) Intern(s string) symbol.Symbol { return in.symbols.Intern(s) }
func (in *Interp) SymbolName(id symbol.ID) string { return in.symbols.String(id) }
func (in *Interp) MaxVectorSize() uint32       { return in.maxVectorSize }
func (in *Interp) Logger() *rtlog.Logger       { return in.logger }

// RegisterBuiltin installs a host hook addressable by CALL_BUILTIN's id
// operand. The core compiler never emits CALL_BUILTIN; the table exists
// for hosts assembling their own bytecode (and for host-driven
// cancellation, which throws from a registered hook).
func (in *Interp) RegisterBuiltin(id uint32, fn object.NativeFunc) {
	if in.builtins == nil {
		in.builtins = map[uint32]object.NativeFunc{}
	}
	in.builtins[id] = fn
}

// EmptyStructure returns the shared root Structure for proto, allocating
// one on first use. See object.Context.
func (in *Interp) EmptyStructure(proto *object.JsObject) *object.Structure {
	if s, ok := in.rootStructures[proto]; ok {
		return s
	}
	s := object.NewEmptyStructure(in, proto)
	in.rootStructures[proto] = s
	return s
}

// NewError builds a throwable Error value of the given kind (e.g.
// "TypeError"), using the bootstrapped error prototype when available and
// falling back to a bare data-only object before bootstrap has installed
// one (so early Structure/heap wiring can still report a usable message).
// The stack trace is captured at construction time rather than lazily
// on first throw: every construction site here is already inside the
// interpreter's active call-frame chain, so there is no meaningful gap
// between "constructed" and "first thrown" to defer across.
func (in *Interp) NewError(kind string, format string, args ...interface{}) value.Value {
	msg := fmt.Sprintf(format, args...)
	return value.FromObject(in.newErrorObject(kind, msg))
}

func (in *Interp) newErrorObject(kind, msg string) *object.JsObject {
	proto := in.errorProtos[kind]
	if proto == nil {
		proto = in.errorProtos["Error"]
	}
	if proto == nil {
		proto = in.objectProto
	}
	obj := object.New(in, object.OrdinaryClass, object.NewEmptyStructure(in, proto), object.TagError)
	obj.SetTail(&object.ErrorData{Kind: kind, Stack: in.captureStack()})
	_ = obj.Put(in, in.Intern("message"), value.FromObject(NewString(in, msg)), false)
	_ = obj.Put(in, in.Intern("name"), value.FromObject(NewString(in, kind)), false)
	return obj
}

// captureStack walks the live call-frame chain from innermost to
// outermost, the raw material for an Error object's stack trace.
func (in *Interp) captureStack() []object.StackFrameInfo {
	frames := make([]object.StackFrameInfo, 0, len(in.frames))
	for i := len(in.frames) - 1; i >= 0; i-- {
		fr := in.frames[i]
		name := "<anonymous>"
		if fr.Code != nil {
			name = fr.Code.Name
		}
		frames = append(frames, object.StackFrameInfo{FunctionName: name, CodeOffset: fr.IP})
	}
	return frames
}

// StackFrames reports the live call-frame chain, innermost first, for a
// host inspecting the engine mid-call (e.g. from a native function).
// Between Run invocations the chain is empty.
func (in *Interp) StackFrames() []object.StackFrameInfo { return in.captureStack() }

func (in *Interp) invalidationKey(code *bytecode.CodeBlock, slot uint32) cacheSiteKey {
	return cacheSiteKey{code: code, slot: slot}
}

// noteCacheInvalidated emits a debug log the first time a given bytecode
// site's inline cache stops validating, rate-limited to once per site so
// a hot loop cannot flood the sink.
func (in *Interp) noteCacheInvalidated(code *bytecode.CodeBlock, slot uint32, reason string) {
	key := in.invalidationKey(code, slot)
	if in.invalidated[key] {
		return
	}
	in.invalidated[key] = true
	in.logger.CacheInvalidated(slot, reason)
}
