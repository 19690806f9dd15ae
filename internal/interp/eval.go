package interp

import (
	"math"

	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// push/pop/top are the value-stack primitives every opcode handler below
// builds on. The stack is shared across every active CallFrame; a frame's
// own temporaries always live at or above its base.
func (in *Interp) push(v value.Value) { in.stack = append(in.stack, v) }

func (in *Interp) pop() value.Value {
	n := len(in.stack) - 1
	v := in.stack[n]
	in.stack = in.stack[:n]
	return v
}

func (in *Interp) popN(n int) []value.Value {
	if n == 0 {
		return nil
	}
	out := make([]value.Value, n)
	copy(out, in.stack[len(in.stack)-n:])
	in.stack = in.stack[:len(in.stack)-n]
	return out
}

// Run executes a compiled top-level script as the implicit global
// invocation: a fresh Environment sized to the CodeBlock's own shape,
// `this` bound to the global object, and the outermost CallFrame of a
// new activation, the same calling convention a user function gets
// applied to the script itself.
func (in *Interp) Run(code *bytecode.CodeBlock) (value.Value, *Exception) {
	env := object.NewEnvironment(in, code.EnvSize(), nil)
	frame := &CallFrame{
		Code:         code,
		env:          env,
		this:         value.FromObject(in.global),
		exitOnReturn: true,
		base:         len(in.stack),
	}
	return in.enter(frame)
}

// Call invokes fn as an ordinary function call with the given receiver
// and arguments, the entry point the root package's public API and every
// native-to-JS callback (event handlers, Array.prototype.sort comparators,
// etc., once registered) goes through.
func (in *Interp) Call(fn *object.JsObject, this value.Value, args []value.Value) (value.Value, *Exception) {
	return in.callFunction(fn, this, args, false)
}

// New invokes fn as a constructor per OP_NEW's semantics: `this` is
// a fresh object whose Structure is rooted at fn's "prototype" property,
// and a non-object return value is discarded in favor of that fresh
// object.
func (in *Interp) New(fn *object.JsObject, args []value.Value) (value.Value, *Exception) {
	return in.construct(fn, args)
}

// callFunction dispatches a call to any of the three FunctionKinds,
// recursing through Go's own call stack for a FuncUser body: each nested
// JS call becomes a nested invocation of enter(), so the Go call stack
// plays the role an explicit CallFrame.prev chain would play in a single
// flattened loop, and an unhandled exception inside the callee propagates
// back to this call site exactly as an ordinary Go return value.
func (in *Interp) callFunction(fn *object.JsObject, this value.Value, args []value.Value, isNew bool) (value.Value, *Exception) {
	if fn == nil || !fn.IsCallable() {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "value is not a function")})
	}
	fd := functionData(fn)
	if fd == nil {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "value is not a function")})
	}
	switch fd.Kind {
	case object.FuncNative:
		res, err := fd.Native(in, this, args)
		if err != nil {
			return value.Value{}, in.throwErr(err)
		}
		return res, nil
	case object.FuncBound:
		boundArgs := append(append([]value.Value{}, fd.BoundArgs...), args...)
		callThis := fd.BoundThis
		if isNew {
			callThis = this
		}
		return in.callFunction(fd.Target, callThis, boundArgs, isNew)
	case object.FuncUser:
		return in.enterUserCall(fn, fd, this, args)
	default:
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "value is not a function")})
	}
}

// enterUserCall builds the callee's Environment (parameters, optional
// rest array, optional arguments object) and CallFrame and runs it to
// completion.
func (in *Interp) enterUserCall(callee *object.JsObject, fd *object.FunctionData, this value.Value, args []value.Value) (value.Value, *Exception) {
	if len(in.frames) >= maxCallDepth {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("RangeError", "Maximum call stack size exceeded")})
	}
	code := fd.Code
	env := object.NewEnvironment(in, code.EnvSize(), fd.Env)
	n := code.ParamCount
	for i := 0; i < n; i++ {
		if i < len(args) {
			env.Declare(i, args[i], true)
		} else {
			env.Declare(i, value.Undefined, true)
		}
	}
	if code.RestAt != bytecode.NoRestParam {
		var rest []value.Value
		if len(args) > n {
			rest = append(rest, args[n:]...)
		}
		env.Declare(code.RestAt, value.FromObject(in.NewArray(rest)), true)
	}
	if code.UseArguments {
		argsSlot := code.RestAt + 1
		if code.RestAt == bytecode.NoRestParam {
			argsSlot = n + code.VarCount
		}
		env.Declare(argsSlot, value.FromObject(in.newArgumentsObject(args, callee)), true)
	}
	frame := &CallFrame{
		Code:         code,
		env:          env,
		this:         this,
		callee:       callee,
		exitOnReturn: true,
		base:         len(in.stack),
	}
	return in.enter(frame)
}

// construct implements OP_NEW's constructor-call path: a fresh instance
// rooted at the constructor's own "prototype" property, discarded in
// favor of whatever the body explicitly returns if that return value is
// itself an object.
func (in *Interp) construct(ctor *object.JsObject, args []value.Value) (value.Value, *Exception) {
	if ctor == nil || !ctor.IsCallable() {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "value is not a constructor")})
	}
	fd := functionData(ctor)
	if fd == nil {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "value is not a constructor")})
	}
	if fd.Kind == object.FuncBound {
		return in.callFunction(ctor, value.Value{}, args, true)
	}
	proto := in.objectProto
	if slot, ok := ctor.Get(in, wk(symPrototype)); ok {
		if p, ok := asObject(slot.Value); ok {
			proto = p
		}
	}
	instance := object.NewOrdinaryObject(in, proto)
	thisVal := value.FromObject(instance)

	var res value.Value
	var exc *Exception
	if fd.Kind == object.FuncNative {
		res, exc = in.callFunction(ctor, thisVal, args, true)
	} else {
		res, exc = in.enterUserCallCtor(ctor, fd, thisVal, args)
	}
	if exc != nil {
		return value.Value{}, exc
	}
	if res.IsObject() {
		return res, nil
	}
	return thisVal, nil
}

func (in *Interp) enterUserCallCtor(callee *object.JsObject, fd *object.FunctionData, this value.Value, args []value.Value) (value.Value, *Exception) {
	if len(in.frames) >= maxCallDepth {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("RangeError", "Maximum call stack size exceeded")})
	}
	code := fd.Code
	env := object.NewEnvironment(in, code.EnvSize(), fd.Env)
	n := code.ParamCount
	for i := 0; i < n; i++ {
		if i < len(args) {
			env.Declare(i, args[i], true)
		} else {
			env.Declare(i, value.Undefined, true)
		}
	}
	if code.RestAt != bytecode.NoRestParam {
		var rest []value.Value
		if len(args) > n {
			rest = append(rest, args[n:]...)
		}
		env.Declare(code.RestAt, value.FromObject(in.NewArray(rest)), true)
	}
	if code.UseArguments {
		argsSlot := code.RestAt + 1
		if code.RestAt == bytecode.NoRestParam {
			argsSlot = n + code.VarCount
		}
		env.Declare(argsSlot, value.FromObject(in.newArgumentsObject(args, callee)), true)
	}
	frame := &CallFrame{
		Code:         code,
		env:          env,
		this:         this,
		callee:       callee,
		ctor:         true,
		exitOnReturn: true,
		base:         len(in.stack),
	}
	return in.enter(frame)
}

// maxCallDepth bounds the Go-level recursion enterUserCall/construct
// perform for nested JS calls, turning runaway recursion into a JS-level
// RangeError before the Go goroutine stack itself would overflow.
const maxCallDepth = 768

// enter pushes frame onto the live call-frame stack, runs it to
// completion, and pops it back off, implementing the GC safepoint the
// spec requires at function entry.
func (in *Interp) enter(frame *CallFrame) (value.Value, *Exception) {
	if err := in.goCtx.Err(); err != nil {
		return value.Value{}, &Exception{Host: err}
	}
	in.frames = append(in.frames, frame)
	in.heap.CollectIfNecessary(in.traceRootsImpl)
	res, exc := in.run(frame)
	in.frames = in.frames[:len(in.frames)-1]
	// Discard any temporaries the frame left above its base: a balanced
	// return leaves none, and an exception abandoned mid-expression may
	// leave several. The caller's own slots below base are untouched.
	if len(in.stack) > frame.base {
		in.stack = in.stack[:frame.base]
	}
	return res, exc
}

// traceRootsImpl is the heap.RootFunc the collector calls every cycle: the
// global object, every live value on the shared value stack, and every
// active CallFrame's Environment/this/callee plus any Environment a
// pending try-handler or for-in cursor holds that isn't already the
// frame's current env. This engine has no separate conservative shadow
// stack beyond the value stack and frame fields themselves.
func (in *Interp) traceRootsImpl(t heap.Tracer) {
	if in.global != nil {
		t.Visit(in.global)
	}
	for _, s := range in.rootStructures {
		t.Visit(s)
	}
	var visitValue func(v value.Value)
	visitValue = func(v value.Value) {
		if !v.IsObject() {
			return
		}
		switch r := v.AsRef().(type) {
		case *spreadValue:
			// A spread sentinel awaiting its CALL/NEWARRAY holds real
			// element values across any safepoint between the two opcodes.
			for _, e := range r.elems {
				visitValue(e)
			}
		case heap.Cell:
			t.Visit(r)
		}
	}
	for _, v := range in.stack {
		visitValue(v)
	}
	for _, fr := range in.frames {
		if fr.env != nil {
			t.Visit(fr.env)
		}
		if fr.Code != nil {
			object.TraceCodeBlock(t, fr.Code)
		}
		visitValue(fr.this)
		if fr.callee != nil {
			t.Visit(fr.callee)
		}
		for _, te := range fr.tryStack {
			if te.env != nil {
				t.Visit(te.env)
			}
		}
		for _, fi := range fr.forIn {
			if fi.env != nil {
				t.Visit(fi.env)
			}
		}
	}
}

// run is the engine's single dispatch loop: it decodes and executes
// opcodes from frame.Code.Code starting at frame.IP until a RET pops back
// to the Go caller or an unhandled exception escapes. Every nested JS call
// enters a fresh invocation of run via enter/callFunction; this
// invocation's own frame.tryStack is the only unwinding state it
// consults.
func (in *Interp) run(frame *CallFrame) (value.Value, *Exception) {
	code := frame.Code.Code
	steps := 0
	for {
		// Cancellation shares the GC's safepoint cadence: function entry
		// (enter) plus a periodic check here so a hot loop that never
		// calls out still observes a canceled context.
		steps++
		if steps&0xFFF == 0 {
			if err := in.goCtx.Err(); err != nil {
				return value.Value{}, &Exception{Host: err}
			}
		}
		if frame.IP >= len(code) {
			return value.Undefined, nil
		}
		op := bytecode.Op(code[frame.IP])
		site := frame.IP
		frame.IP++

		switch op {
		case bytecode.OpPushInt:
			frame.IP += 4
			in.push(value.Int32(int32(bytecode.ReadU32(code, site+1))))

		case bytecode.OpPushLiteral:
			ix := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			in.push(in.literalAt(frame.Code, ix))

		case bytecode.OpPushTrue:
			in.push(value.True)
		case bytecode.OpPushFalse:
			in.push(value.False)
		case bytecode.OpPushNull:
			in.push(value.Null)
		case bytecode.OpPushUndef:
			in.push(value.Undefined)
		case bytecode.OpPushEmpty:
			in.push(value.Empty)
		case bytecode.OpPushNaN:
			in.push(value.Number(math.NaN()))
		case bytecode.OpPushThis:
			in.push(frame.this)
		case bytecode.OpPop:
			in.pop()
		case bytecode.OpDup:
			in.push(in.stack[len(in.stack)-1])
		case bytecode.OpSwap:
			n := len(in.stack)
			in.stack[n-1], in.stack[n-2] = in.stack[n-2], in.stack[n-1]

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem,
			bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr:
			fdbk := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			b := in.pop()
			a := in.pop()
			res, exc := in.arith(frame.Code, fdbk, op, a, b)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(res)

		case bytecode.OpNeg, bytecode.OpNot, bytecode.OpPos:
			a := in.pop()
			res, exc := in.unaryArith(op, a)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(res)

		case bytecode.OpLogicalNot:
			a := in.pop()
			in.push(value.Bool(!truthy(a)))

		case bytecode.OpEq, bytecode.OpNeq:
			b := in.pop()
			a := in.pop()
			eq, exc := in.looseEquals(a, b)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			if op == bytecode.OpNeq {
				eq = !eq
			}
			in.push(value.Bool(eq))

		case bytecode.OpStrictEq:
			b := in.pop()
			a := in.pop()
			in.push(value.Bool(in.strictEquals(a, b)))
		case bytecode.OpNStrictEq:
			b := in.pop()
			a := in.pop()
			in.push(value.Bool(!in.strictEquals(a, b)))

		case bytecode.OpLess, bytecode.OpLessEq, bytecode.OpGreater, bytecode.OpGreaterEq:
			b := in.pop()
			a := in.pop()
			res, exc := in.compare(op, a, b)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(value.Bool(res))

		case bytecode.OpIn:
			b := in.pop()
			a := in.pop()
			o, ok := asObject(b)
			if !ok {
				exc := in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "cannot use 'in' operator on a non-object")})
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			key, exc2 := in.toPropertyKey(a)
			if exc2 != nil {
				if !in.unwind(frame, exc2) {
					return value.Value{}, exc2
				}
				continue
			}
			in.push(value.Bool(o.Has(in, key)))

		case bytecode.OpInstanceOf:
			b := in.pop()
			a := in.pop()
			res, exc := in.instanceOf(a, b)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(value.Bool(res))

		case bytecode.OpGetEnv0Local:
			slot := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			in.push(frame.env.Get(int(slot)))

		case bytecode.OpSetEnv0Local:
			slot := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			frame.env.Set(int(slot), in.stack[len(in.stack)-1])

		case bytecode.OpGetLocal:
			depth := bytecode.ReadU32(code, site+1)
			slot := bytecode.ReadU32(code, site+5)
			frame.IP += 8
			in.push(frame.env.GetAt(int(depth), int(slot)))

		case bytecode.OpSetLocal:
			depth := bytecode.ReadU32(code, site+1)
			slot := bytecode.ReadU32(code, site+5)
			frame.IP += 8
			frame.env.SetAt(int(depth), int(slot), in.stack[len(in.stack)-1])

		case bytecode.OpDeclLet:
			slot := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			frame.env.Declare(int(slot), in.pop(), true)

		case bytecode.OpDeclConst:
			slot := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			frame.env.Declare(int(slot), in.pop(), false)

		case bytecode.OpGetByID:
			nameIx := bytecode.ReadU32(code, site+1)
			fdbk := bytecode.ReadU32(code, site+5)
			frame.IP += 8
			recv := in.pop()
			v, exc := in.getByID(frame.Code, recv, nameIx, fdbk, false)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(v)

		case bytecode.OpTryGetByID:
			nameIx := bytecode.ReadU32(code, site+1)
			fdbk := bytecode.ReadU32(code, site+5)
			frame.IP += 8
			recv := in.pop()
			v, exc := in.getByID(frame.Code, recv, nameIx, fdbk, true)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(v)

		case bytecode.OpPutByID:
			nameIx := bytecode.ReadU32(code, site+1)
			fdbk := bytecode.ReadU32(code, site+5)
			frame.IP += 8
			v := in.pop()
			recv := in.pop()
			if exc := in.putByID(frame.Code, recv, nameIx, fdbk, v); exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(v)

		case bytecode.OpGetByVal:
			fdbk := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			key := in.pop()
			recv := in.pop()
			_ = fdbk // dynamic-key reads are not cached
			sym, exc := in.toPropertyKey(key)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			v, exc2 := in.getProperty(recv, sym)
			if exc2 != nil {
				if !in.unwind(frame, exc2) {
					return value.Value{}, exc2
				}
				continue
			}
			in.push(v)

		case bytecode.OpPutByVal:
			fdbk := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			_ = fdbk
			v := in.pop()
			key := in.pop()
			recv := in.pop()
			sym, exc := in.toPropertyKey(key)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			if exc2 := in.setProperty(recv, sym, v); exc2 != nil {
				if !in.unwind(frame, exc2) {
					return value.Value{}, exc2
				}
				continue
			}
			in.push(v)

		case bytecode.OpDeleteByID:
			nameIx := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			recv := in.pop()
			sym := frame.Code.Names[nameIx]
			ok, exc := in.deleteProperty(recv, sym)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(value.Bool(ok))

		case bytecode.OpDeleteByVal:
			key := in.pop()
			recv := in.pop()
			sym, exc := in.toPropertyKey(key)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			ok, exc2 := in.deleteProperty(recv, sym)
			if exc2 != nil {
				if !in.unwind(frame, exc2) {
					return value.Value{}, exc2
				}
				continue
			}
			in.push(value.Bool(ok))

		case bytecode.OpJmp:
			off := bytecode.ReadI32(code, site+1)
			frame.IP = site + 5 + int(off)

		case bytecode.OpJmpIfTrue:
			off := bytecode.ReadI32(code, site+1)
			frame.IP += 4
			if truthy(in.pop()) {
				frame.IP = site + 5 + int(off)
			}

		case bytecode.OpJmpIfFalse:
			off := bytecode.ReadI32(code, site+1)
			frame.IP += 4
			if !truthy(in.pop()) {
				frame.IP = site + 5 + int(off)
			}

		case bytecode.OpRet:
			return in.pop(), nil

		case bytecode.OpThrow:
			excVal := in.pop()
			exc := &Exception{Value: excVal}
			if !in.unwind(frame, exc) {
				return value.Value{}, exc
			}

		case bytecode.OpPushCatch:
			off := bytecode.ReadI32(code, site+1)
			frame.IP += 4
			target := site + 5 + int(off)
			frame.tryStack = append(frame.tryStack, tryEntry{env: frame.env, catchIP: target, sp: len(in.stack)})

		case bytecode.OpPopCatch:
			if len(frame.tryStack) > 0 {
				frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
			}

		case bytecode.OpCall, bytecode.OpNew:
			argc := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			args := expandSpreads(in.popN(int(argc)))
			callee := in.pop()
			thisArg := in.pop()
			fn, ok := asObject(callee)
			if !ok || !fn.IsCallable() {
				exc := in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "%s is not a function", in.describeForError(callee))})
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			var res value.Value
			var exc *Exception
			if op == bytecode.OpNew {
				res, exc = in.construct(fn, args)
			} else {
				res, exc = in.callFunction(fn, thisArg, args, false)
			}
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(res)

		case bytecode.OpCallBuiltin:
			argc := bytecode.ReadU32(code, site+1)
			builtinID := bytecode.ReadU32(code, site+5)
			effect := bytecode.ReadU32(code, site+9)
			frame.IP += 12
			_ = effect
			args := in.popN(int(argc))
			res, exc := in.callBuiltin(builtinID, frame.this, args)
			if exc != nil {
				if !in.unwind(frame, exc) {
					return value.Value{}, exc
				}
				continue
			}
			in.push(res)

		case bytecode.OpSpread:
			v := in.pop()
			in.push(value.FromObject(in.newSpreadValue(v)))

		case bytecode.OpForInSetup:
			off := bytecode.ReadI32(code, site+1)
			frame.IP += 4
			src := in.pop()
			keys := in.enumerableKeys(src)
			if len(keys) == 0 {
				// LEAVE at the jump target pops this empty entry.
				frame.forIn = append(frame.forIn, forInEntry{env: frame.env})
				frame.IP = site + 5 + int(off)
				continue
			}
			frame.forIn = append(frame.forIn, forInEntry{keys: keys, cursor: 1, env: frame.env})
			in.push(in.keyValue(keys[0]))

		case bytecode.OpForInEnumerate:
			off := bytecode.ReadI32(code, site+1)
			frame.IP += 4
			n := len(frame.forIn) - 1
			fi := &frame.forIn[n]
			frame.env = fi.env
			if fi.cursor >= len(fi.keys) {
				// Fall through to LEAVE, which pops this entry.
				continue
			}
			key := fi.keys[fi.cursor]
			fi.cursor++
			in.push(in.keyValue(key))
			frame.IP = site + 5 + int(off)

		case bytecode.OpForInLeave:
			n := len(frame.forIn) - 1
			if n >= 0 {
				frame.env = frame.forIn[n].env
				frame.forIn = frame.forIn[:n]
			}

		case bytecode.OpPushEnv:
			size := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			frame.env = object.NewEnvironment(in, int(size), frame.env)

		case bytecode.OpPopEnv:
			if frame.env.Parent() != nil {
				frame.env = frame.env.Parent()
			}

		case bytecode.OpGetFunction:
			ix := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			nested := frame.Code.Codes[ix]
			in.push(value.FromObject(in.NewUserFunction(nested, frame.env)))

		case bytecode.OpNewArray:
			n := bytecode.ReadU32(code, site+1)
			frame.IP += 4
			elems := expandSpreads(in.popN(int(n)))
			in.push(value.FromObject(in.NewArray(elems)))

		case bytecode.OpNewObject:
			in.push(value.FromObject(object.NewOrdinaryObject(in, in.objectProto)))

		case bytecode.OpTypeOf:
			v := in.pop()
			in.push(value.FromObject(NewString(in, in.typeOf(v))))

		case bytecode.OpGlobalThis:
			in.push(value.FromObject(in.global))

		default:
			exc := in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "unknown opcode %d", op)})
			if !in.unwind(frame, exc) {
				return value.Value{}, exc
			}
		}

		in.heap.CollectIfNecessary(in.traceRootsImpl)
	}
}

// unwind looks for a handler on frame's own try_stack (this invocation's
// single CallFrame); on a hit it restores (env, sp) and resumes
// at the handler IP with the exception value pushed, returning true. On a
// miss it leaves frame untouched and returns false, letting run's caller
// propagate the exception up the Go call stack to whichever enclosing
// invocation pushed the CallFrame that called this one.
func (in *Interp) unwind(frame *CallFrame, exc *Exception) bool {
	if exc.Host != nil {
		// Host-level failures (cancellation) are not catchable by script.
		return false
	}
	if len(frame.tryStack) == 0 {
		return false
	}
	n := len(frame.tryStack) - 1
	entry := frame.tryStack[n]
	frame.tryStack = frame.tryStack[:n]
	if entry.sp > len(in.stack) {
		entry.sp = len(in.stack)
	}
	in.stack = in.stack[:entry.sp]
	frame.env = entry.env
	frame.IP = entry.catchIP
	in.push(exc.Value)
	return true
}

// literalAt resolves a CodeBlock's literal pool entry, lazily replacing a
// bytecode.StringConstant placeholder with a real heap-allocated JsString
// the first time it is read (keeping internal/bytecode free of any heap
// dependency while each literal still links to a single shared string
// object across repeated reads of the same CodeBlock).
func (in *Interp) literalAt(code *bytecode.CodeBlock, ix uint32) value.Value {
	v := code.Literals[ix]
	if v.IsObject() {
		if sc, ok := v.AsRef().(bytecode.StringConstant); ok {
			resolved := value.FromObject(NewString(in, string(sc)))
			code.Literals[ix] = resolved
			return resolved
		}
	}
	return v
}

// keyValue boxes a for-in enumeration key back into a Value the binder
// assignment opcode can store: an index key becomes its decimal string
// (array indices are enumerated as strings per ECMA-262), a string key
// becomes its interned string.
func (in *Interp) keyValue(sym symbol.Symbol) value.Value {
	if sym.IsIndex() {
		return value.FromObject(NewString(in, formatNumber(float64(sym.Index()))))
	}
	return value.FromObject(NewString(in, in.SymbolName(sym.ID())))
}

// describeForError renders a non-callable value for a TypeError message.
func (in *Interp) describeForError(v value.Value) string {
	s, exc := in.toStringValue(v)
	if exc != nil {
		return v.TypeOf()
	}
	return s
}

// callBuiltin is CALL_BUILTIN's dispatch point: builtinID indexes into a
// host-registered table of native hooks, the channel a host's own
// specialized call sites (including cancellation hooks that throw) go
// through. The compiler never emits CALL_BUILTIN itself.
func (in *Interp) callBuiltin(id uint32, this value.Value, args []value.Value) (value.Value, *Exception) {
	fn := in.builtins[id]
	if fn == nil {
		return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "no builtin registered at index %d", id)})
	}
	res, err := fn(in, this, args)
	if err != nil {
		return value.Value{}, in.throwErr(err)
	}
	return res, nil
}

// arith implements the feedback-slot-carrying binary arithmetic opcodes.
// The ArithProfile is updated for future specialization even though this
// interpreter has no tier-up path yet to consult it.
func (in *Interp) arith(code *bytecode.CodeBlock, feedbackIdx uint32, op bytecode.Op, a, b value.Value) (value.Value, *Exception) {
	profile := feedbackArithAt(code, feedbackIdx)

	// Int32 fast path: overflow-checked 64-bit arithmetic, recording the
	// overflow in the profile and falling through to the double path when
	// the result leaves the int32 range.
	if a.Kind() == value.KindInt32 && b.Kind() == value.KindInt32 {
		ai, bi := int64(a.AsInt32()), int64(b.AsInt32())
		var r int64
		fast := true
		switch op {
		case bytecode.OpAdd:
			r = ai + bi
		case bytecode.OpSub:
			r = ai - bi
		case bytecode.OpMul:
			r = ai * bi
		default:
			fast = false
		}
		if fast {
			if r >= math.MinInt32 && r <= math.MaxInt32 {
				return value.Int32(int32(r)), nil
			}
			profile.SawOverflow = true
			return value.Number(float64(r)), nil
		}
	}

	if op == bytecode.OpAdd {
		res, exc := in.concat(a, b)
		if exc != nil {
			return value.Value{}, exc
		}
		if !res.IsNumber() {
			profile.SawOther = true
		}
		return res, nil
	}

	switch op {
	case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpRem:
		af, exc := in.toNumber(a)
		if exc != nil {
			return value.Value{}, exc
		}
		bf, exc := in.toNumber(b)
		if exc != nil {
			return value.Value{}, exc
		}
		var r float64
		switch op {
		case bytecode.OpSub:
			r = af - bf
		case bytecode.OpMul:
			r = af * bf
		case bytecode.OpDiv:
			r = af / bf
		case bytecode.OpRem:
			r = math.Mod(af, bf)
		}
		if r != math.Trunc(r) {
			profile.SawNumber = true
		}
		return value.Number(r), nil

	case bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr:
		ai, exc := in.toInt32(a)
		if exc != nil {
			return value.Value{}, exc
		}
		bu, exc := in.toUint32(b)
		if exc != nil {
			return value.Value{}, exc
		}
		shift := bu & 0x1F
		switch op {
		case bytecode.OpShl:
			return value.Int32(ai << shift), nil
		case bytecode.OpShr:
			return value.Int32(ai >> shift), nil
		default: // OpUShr
			r := uint32(ai) >> shift
			if r > 0x7fffffff {
				profile.SawOverflow = true
				return value.Number(float64(r)), nil
			}
			return value.Int32(int32(r)), nil
		}
	}
	return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "unsupported arithmetic opcode")})
}

// unaryArith implements NEG/POS/NOT (bitwise complement); LOGICAL_NOT has
// no ToNumber/ToInt32 coercion step and is handled directly in run.
func (in *Interp) unaryArith(op bytecode.Op, a value.Value) (value.Value, *Exception) {
	switch op {
	case bytecode.OpNeg:
		f, exc := in.toNumber(a)
		if exc != nil {
			return value.Value{}, exc
		}
		return value.Number(-f), nil
	case bytecode.OpPos:
		f, exc := in.toNumber(a)
		if exc != nil {
			return value.Value{}, exc
		}
		return value.Number(f), nil
	case bytecode.OpNot:
		i, exc := in.toInt32(a)
		if exc != nil {
			return value.Value{}, exc
		}
		return value.Int32(^i), nil
	}
	return value.Undefined, nil
}

// compare implements the ordering operators on top of the shared Abstract
// Relational Comparison (lessThan): <= and >= are each the negation of the
// flipped strict comparison, with an undefined (NaN-involving) result
// always reporting false per ECMA-262.
func (in *Interp) compare(op bytecode.Op, a, b value.Value) (bool, *Exception) {
	switch op {
	case bytecode.OpLess:
		r, undef, exc := in.lessThan(a, b)
		if exc != nil {
			return false, exc
		}
		return !undef && r, nil
	case bytecode.OpGreater:
		r, undef, exc := in.lessThan(b, a)
		if exc != nil {
			return false, exc
		}
		return !undef && r, nil
	case bytecode.OpLessEq:
		r, undef, exc := in.lessThan(b, a)
		if exc != nil {
			return false, exc
		}
		if undef {
			return false, nil
		}
		return !r, nil
	case bytecode.OpGreaterEq:
		r, undef, exc := in.lessThan(a, b)
		if exc != nil {
			return false, exc
		}
		if undef {
			return false, nil
		}
		return !r, nil
	}
	return false, nil
}

// spreadValue is the internal sentinel SPREAD pushes and CALL/NEW/
// NEWARRAY consume: one stack slot standing for zero or more spliced
// elements. It occupies exactly the slot the compiler's static
// argc/element count already reserved for the spread position, so a
// nested call or array literal evaluated later in the same list can
// never disturb the accounting. It is never observable by user code —
// the consuming opcode always expands it in the same argument list the
// producing SPREAD appeared in.
type spreadValue struct {
	elems []value.Value
}

func (*spreadValue) TypeName() string { return "SpreadValue" }

// newSpreadValue snapshots v's indexed elements (an array or array-like
// object) in ascending index order; a non-object operand contributes no
// elements.
func (in *Interp) newSpreadValue(v value.Value) *spreadValue {
	o, ok := asObject(v)
	if !ok {
		return &spreadValue{}
	}
	n := arrayLength(o)
	elems := make([]value.Value, 0, n)
	for i := uint32(0); i < n; i++ {
		if slot, ok := o.Get(in, symbol.Index(i)); ok {
			elems = append(elems, slot.Value)
		} else {
			elems = append(elems, value.Undefined)
		}
	}
	return &spreadValue{elems: elems}
}

// expandSpreads splices every spreadValue sentinel in args in place,
// returning args unchanged when the list contains none.
func expandSpreads(args []value.Value) []value.Value {
	hasSpread := false
	for _, a := range args {
		if a.IsObject() {
			if _, ok := a.AsRef().(*spreadValue); ok {
				hasSpread = true
				break
			}
		}
	}
	if !hasSpread {
		return args
	}
	out := make([]value.Value, 0, len(args))
	for _, a := range args {
		if a.IsObject() {
			if sv, ok := a.AsRef().(*spreadValue); ok {
				out = append(out, sv.elems...)
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
