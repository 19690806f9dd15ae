package interp

import (
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// tryEntry is one registered exception handler: the Environment and value
// stack depth to restore before resuming at catchIP.
type tryEntry struct {
	env     *object.Environment
	catchIP int
	sp      int
}

// CallFrame is the runtime activation record for one function call or the
// top-level script, distinct from the value stack it indexes into via
// base. Frames live on Interp.frames, a slice acting as a dedicated stack.
type CallFrame struct {
	prev *CallFrame

	Code *bytecode.CodeBlock
	IP   int

	// base is the value-stack index this frame's locals/temporaries start
	// at; sp is always >= base while this frame is active.
	base int

	env    *object.Environment
	this   value.Value
	callee *object.JsObject
	ctor   bool

	// exitOnReturn marks the outermost frame of one Interp.enter invocation:
	// a RET in this frame returns control to the Go caller instead of
	// popping to prev.
	exitOnReturn bool

	tryStack []tryEntry

	forIn []forInEntry
}

// forInEntry is one active for-in enumeration: the snapshot of keys taken
// when FOR_IN_SETUP ran, a cursor into it, and the Environment to restore
// on FOR_IN_LEAVE (discarding whatever PUSH_ENV frames the loop body left
// behind on its last iteration).
type forInEntry struct {
	keys   []symbol.Symbol
	cursor int
	env    *object.Environment
}
