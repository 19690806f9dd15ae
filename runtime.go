package starjs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/compiler"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/snapshot"
	"github.com/starjs-engine/starjs/internal/value"
)

// Runtime is one embeddable JavaScript engine instance: its own heap,
// global object, and compiled-code cache. A RuntimeConfig is an inert
// value describing how to build one, while Runtime is the live, stateful
// object a host actually calls Compile/Run against.
type Runtime struct {
	in         *interp.Interp
	nativeRefs *jsrt.ReferenceTable
}

// NewRuntime builds a freshly bootstrapped Runtime: global object,
// prototypes for Object, Function, Array, String, Number, Boolean, Error
// and its subclasses, and every native installed by internal/jsrt.
func NewRuntime(ctx context.Context, cfg RuntimeConfig) *Runtime {
	cfg = cfg.WithContext(ctx)
	in := interp.New(cfg.toParams())
	refs := jsrt.Bootstrap(in)
	r := &Runtime{in: in, nativeRefs: refs}
	if cfg.nativeSetup != nil {
		cfg.nativeSetup(r)
	}
	return r
}

// FromSnapshot reconstructs a Runtime from a buffer a prior Runtime's
// Snapshot produced. cfg's ExternalReferences must match, in both length
// and order, the pool the snapshotted Runtime was configured with.
func FromSnapshot(ctx context.Context, data []byte, cfg RuntimeConfig) (*Runtime, error) {
	cfg = cfg.WithContext(ctx)
	var extend func(*interp.Interp, *jsrt.ReferenceTable)
	if cfg.nativeSetup != nil {
		extend = func(in *interp.Interp, refs *jsrt.ReferenceTable) {
			cfg.nativeSetup(&Runtime{in: in, nativeRefs: refs})
		}
	}
	in, refs, err := snapshot.Deserialize(data, cfg.toParams(), extend)
	if err != nil {
		return nil, fmt.Errorf("starjs: restoring snapshot: %w", err)
	}
	return &Runtime{in: in, nativeRefs: refs}, nil
}

// ID returns the Runtime's identifying UUID, stamped into GC-cycle log
// lines and into any snapshot this Runtime produces.
func (r *Runtime) ID() uuid.UUID { return r.in.ID() }

// Compile lowers a pre-built AST into a CodeBlock ready for Run. There is
// no source-text parser in this module: a host either hand-builds an
// ast.Program or brings its own front end that produces one.
func (r *Runtime) Compile(prog *ast.Program) (*bytecode.CodeBlock, error) {
	return compiler.CompileScript(r.in, prog)
}

// Run executes cb as a top-level script and returns its completion
// value. A script-level throw is reported as *Exception; a host-level
// failure (the configured context canceled or past its deadline) is a
// plain Go error wrapping context.Canceled/DeadlineExceeded, never a
// catchable JS value.
func (r *Runtime) Run(cb *bytecode.CodeBlock) (value.Value, error) {
	v, exc := r.in.Run(cb)
	if exc != nil {
		if exc.Host != nil {
			return value.Value{}, fmt.Errorf("starjs: run aborted: %w", exc.Host)
		}
		return value.Value{}, &Exception{Value: exc.Value}
	}
	return v, nil
}

// NativeFunc is the signature of a host-registered native function.
type NativeFunc = object.NativeFunc

// DefineNativeFunction installs fn as a property of owner (the global
// object when owner is nil) and records it in the Runtime's native
// reference table. Registrations performed inside WithNativeSetup are
// replayed identically on FromSnapshot, which is what makes a Runtime
// carrying host natives snapshot-restorable.
func (r *Runtime) DefineNativeFunction(owner *object.JsObject, name string, length int, fn NativeFunc) *object.JsObject {
	if owner == nil {
		owner = r.in.Global()
	}
	return jsrt.DefineNativeFunction(r.in, r.nativeRefs, owner, name, length, fn)
}

// DefineNativeClass installs a host-defined class: a constructor named
// name on the global object, a prototype chained to Object.prototype,
// and the given prototype methods installed in methodNames order (the
// order matters: it fixes the class's position in the native reference
// table). It returns the constructor and prototype objects.
func (r *Runtime) DefineNativeClass(name string, length int, ctor NativeFunc, methodNames []string, methods map[string]NativeFunc) (*object.JsObject, *object.JsObject) {
	return jsrt.DefineNativeClass(r.in, r.nativeRefs, name, length, ctor, methodNames, methods)
}

// RegisterBuiltin installs a host hook addressable by the CALL_BUILTIN
// opcode's id operand, the channel host cancellation hooks and
// host-assembled bytecode use.
func (r *Runtime) RegisterBuiltin(id uint32, fn NativeFunc) { r.in.RegisterBuiltin(id, fn) }

// CollectGarbage forces an immediate mark-sweep cycle over the Runtime's
// heap, bypassing the allocation-threshold check normally used to decide
// when a collection runs.
func (r *Runtime) CollectGarbage() { r.in.CollectGarbage() }

// Global returns the Runtime's global object, letting a host define
// additional properties on it directly via the object package.
func (r *Runtime) Global() *object.JsObject { return r.in.Global() }

// Snapshot serializes the Runtime's entire live object graph to a byte
// buffer FromSnapshot can later reconstruct an equivalent Runtime from.
func (r *Runtime) Snapshot() ([]byte, error) {
	return snapshot.Serialize(r.in, r.nativeRefs)
}
