// Package compiler lowers a pre-built AST (internal/ast) to bytecode
// (internal/bytecode), performing two-pass scope analysis: a hoisting
// pass that walks a function body collecting `var`/function declarations
// into the function's Environment slot layout, then a lowering pass that
// emits one CodeBlock per function (nested functions are compiled first
// and registered in the enclosing CodeBlock's Codes array).
//
// Calling convention, fixed here since internal/interp consumes it:
// a call or construct pushes [undefined, callee, arg0, ..., argN-1]
// before OP_CALL/OP_NEW argc; a method call (`obj.m(...)`) pushes obj
// (as this), duplicates it, resolves the property (consuming the
// duplicate, leaving obj under the resolved function value), then pushes
// args the same way. Property reads/writes follow the same push-object-
// then-resolve shape; GET_BY_ID/GET_BY_VAL pop the object and push the
// value, PUT_BY_ID/PUT_BY_VAL pop (object, value) and push value back so
// assignment expressions yield their assigned value.
package compiler

import (
	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/symbol"
)

// Context is the minimal surface the compiler needs from the runtime: the
// symbol interner.
type Context interface {
	Intern(s string) symbol.Symbol
}

// frame is one compile-time Environment layout: either the function's own
// frame (params + hoisted vars/functions, pre-sized before the body is
// walked) or a nested block frame pushed only around blocks that declare
// `let`/`const` directly.
type frame struct {
	names      map[string]int
	nextSlot   int
	isFunction bool
}

// loopInfo tracks the active loop's continue target, the patch sites of
// any `break` statements compiled inside it (resolved once the loop
// finishes compiling), and the block-frame depth at loop-body entry, so
// break/continue can unwind any nested block scopes entered since then
// before jumping (for-in's per-iteration frame is handled separately by
// FOR_IN_ENUMERATE/FOR_IN_LEAVE and excluded from this count).
type loopInfo struct {
	continueTarget int
	breakSites     []int
	frameDepth     int
	catchDepth     int
	// selfRestoring is set for for-in loops, whose FOR_IN_ENUMERATE/
	// FOR_IN_LEAVE already reset the environment to loop-entry on every
	// exit path; break/continue there must not also emit POP_ENV.
	selfRestoring bool
}

// unwindBlocks emits one POP_ENV per block frame pushed since depth, used
// by break/continue to restore the environment chain before jumping to a
// label outside those frames' lexical scope.
func (u *unit) unwindBlocks(depth int) {
	for i := len(u.frames); i > depth; i-- {
		u.b.Emit(bytecode.OpPopEnv)
	}
}

// unwindCatches emits one POP_CATCH per PUSH_CATCH registration opened
// since depth, used by break/continue to release handlers for try blocks
// they jump out of early.
func (u *unit) unwindCatches(depth int) {
	for i := u.catchDepth; i > depth; i-- {
		u.b.Emit(bytecode.OpPopCatch)
	}
}

// unit compiles a single function or script body into one CodeBlock.
// parent is the lexically enclosing unit, consulted by resolve so a
// nested function's reference to an outer binding compiles to a
// depth-crossing GET_LOCAL/SET_LOCAL: the closure's captured environment
// is exactly the enclosing unit's frame stack at the point the function
// literal appears, so compile-time frame counting and the runtime
// environment chain stay in lockstep.
type unit struct {
	ctx    Context
	parent *unit
	b      *bytecode.Builder
	frames []*frame
	loops  []*loopInfo
	strict bool
	// catchDepth counts PUSH_CATCH registrations currently open around the
	// code being compiled, so break/continue leaving a try block early can
	// emit the matching POP_CATCHes instead of leaving a stale handler
	// registered for code after the loop.
	catchDepth int
}

// CompileScript compiles a top-level script body into its CodeBlock. The
// script is treated as its own function-shaped unit named "<global>",
// with no parameters.
func CompileScript(ctx Context, prog *ast.Program) (*bytecode.CodeBlock, error) {
	return compileUnit(ctx, nil, "<global>", nil, "", prog.Body, prog.Strict, true)
}

// compileUnit is the shared entry point for both the script and every
// function literal: hoist, build the builder with the right static shape,
// lower the body, and append the implicit `return undefined`.
func compileUnit(ctx Context, parent *unit, name string, params []string, rest string, body []ast.Stmt, strict, topLevel bool) (*bytecode.CodeBlock, error) {
	hoistedFns, hoistedVars := hoist(body)
	usesArguments := referencesIdentifier(body, "arguments")

	fr := &frame{names: map[string]int{}, isFunction: true}
	for i, p := range params {
		fr.names[p] = i
	}
	fr.nextSlot = len(params)

	// Top-level let/const bindings (declared directly in this body, not in
	// a nested block) live in the function's own frame alongside its
	// params and hoisted vars, the same way a nested block's lexical
	// declarations get their own frame in compileBlock.
	topLevelLets := directLexicalDecls(body)

	varNames := make([]string, 0, len(hoistedFns)+len(hoistedVars)+len(topLevelLets))
	seen := map[string]bool{}
	for _, fd := range hoistedFns {
		if !seen[fd.Fn.Name] {
			seen[fd.Fn.Name] = true
			varNames = append(varNames, fd.Fn.Name)
		}
	}
	for _, v := range hoistedVars {
		if !seen[v] {
			seen[v] = true
			varNames = append(varNames, v)
		}
	}
	for _, v := range topLevelLets {
		if !seen[v] {
			seen[v] = true
			varNames = append(varNames, v)
		}
	}
	for _, n := range varNames {
		fr.names[n] = fr.nextSlot
		fr.nextSlot++
	}
	varCount := len(varNames)

	restAt := bytecode.NoRestParam
	if rest != "" {
		restAt = fr.nextSlot
		fr.names[rest] = restAt
		fr.nextSlot++
	}
	if usesArguments {
		fr.names["arguments"] = fr.nextSlot
		fr.nextSlot++
	}

	u := &unit{
		ctx:    ctx,
		parent: parent,
		b:      bytecode.NewBuilder(name, len(params), varCount, strict, topLevel),
		frames: []*frame{fr},
		strict: strict,
	}
	if restAt != bytecode.NoRestParam {
		u.b.SetRestParam(restAt)
	}
	if usesArguments {
		u.b.SetUsesArguments()
	}
	for _, n := range varNames {
		u.b.AddVariable(ctx.Intern(n))
	}

	for _, fd := range hoistedFns {
		nested, err := u.compileNestedFunction(fd.Fn)
		if err != nil {
			return nil, err
		}
		ix := u.b.AddNestedCode(nested)
		u.b.Emit(bytecode.OpGetFunction)
		u.b.EmitU32(ix)
		u.emitStoreResolved(fd.Fn.Name)
		u.b.Emit(bytecode.OpPop)
	}

	for _, stmt := range body {
		if err := u.emitStmt(stmt); err != nil {
			return nil, err
		}
	}
	u.b.Emit(bytecode.OpPushUndef)
	u.b.Emit(bytecode.OpRet)
	return u.b.Finish(), nil
}

func (u *unit) compileNestedFunction(fn *ast.FunctionLiteral) (*bytecode.CodeBlock, error) {
	return compileUnit(u.ctx, u, fn.Name, fn.Params, fn.Rest, fn.Body, fn.Strict || u.strict, false)
}

// resolve looks up name from the innermost frame outward, continuing
// through lexically enclosing units across function boundaries, and
// returns the total environment depth (frames above the current one,
// counting the enclosing function's frames as the closure chain the
// activation's Environment parents to) and slot it was found at.
func (u *unit) resolve(name string) (depth, slot int, ok bool) {
	skipped := 0
	for cur := u; cur != nil; cur = cur.parent {
		for i := len(cur.frames) - 1; i >= 0; i-- {
			if s, found := cur.frames[i].names[name]; found {
				return skipped + (len(cur.frames) - 1 - i), s, true
			}
		}
		skipped += len(cur.frames)
	}
	return 0, 0, false
}

func (u *unit) curFrame() *frame { return u.frames[len(u.frames)-1] }

// pushBlockFrame enters a new lexical block frame and returns it;
// popBlockFrame restores the previous frame stack. Callers wrap PUSH_ENV/POP_ENV
// around the block body themselves once they know how many bindings it
// declares.
func (u *unit) pushBlockFrame() *frame {
	fr := &frame{names: map[string]int{}}
	u.frames = append(u.frames, fr)
	return fr
}

func (u *unit) popBlockFrame() {
	u.frames = u.frames[:len(u.frames)-1]
}

// compileBlock emits a statement list, wrapping it in its own Environment
// frame (PUSH_ENV/POP_ENV) only when it declares let/const bindings
// directly (not inside a nested block or function).
func (u *unit) compileBlock(body []ast.Stmt) error {
	names := directLexicalDecls(body)
	if len(names) == 0 {
		for _, s := range body {
			if err := u.emitStmt(s); err != nil {
				return err
			}
		}
		return nil
	}

	fr := u.pushBlockFrame()
	for _, n := range names {
		fr.names[n] = fr.nextSlot
		fr.nextSlot++
	}
	u.b.Emit(bytecode.OpPushEnv)
	u.b.EmitU32(uint32(len(names)))
	for _, s := range body {
		if err := u.emitStmt(s); err != nil {
			u.popBlockFrame()
			return err
		}
	}
	u.b.Emit(bytecode.OpPopEnv)
	u.popBlockFrame()
	return nil
}

// emitStoreResolved stores the value on top of the stack into name's
// resolved slot, or, if unresolved, into the global object as a property
// of globalThis. The stored value is left on the stack in either case
// (SET_ENV0_LOCAL/SET_LOCAL peek, PUT_BY_ID pushes the value back);
// statement-level callers emit their own POP.
func (u *unit) emitStoreResolved(name string) {
	if depth, slot, ok := u.resolve(name); ok {
		if depth == 0 {
			u.b.Emit(bytecode.OpSetEnv0Local)
			u.b.EmitU32(uint32(slot))
		} else {
			u.b.Emit(bytecode.OpSetLocal)
			u.b.EmitU32(uint32(depth))
			u.b.EmitU32(uint32(slot))
		}
		return
	}
	u.b.Emit(bytecode.OpGlobalThis)
	u.b.Emit(bytecode.OpSwap)
	nameIx := u.b.AddName(u.ctx.Intern(name))
	feedback := u.b.AddFeedbackSlot()
	u.b.Emit(bytecode.OpPutByID)
	u.b.EmitU32(nameIx)
	u.b.EmitU32(feedback)
}

func (u *unit) emitLoadResolved(name string) {
	if depth, slot, ok := u.resolve(name); ok {
		if depth == 0 {
			u.b.Emit(bytecode.OpGetEnv0Local)
			u.b.EmitU32(uint32(slot))
		} else {
			u.b.Emit(bytecode.OpGetLocal)
			u.b.EmitU32(uint32(depth))
			u.b.EmitU32(uint32(slot))
		}
		return
	}
	u.b.Emit(bytecode.OpGlobalThis)
	nameIx := u.b.AddName(u.ctx.Intern(name))
	feedback := u.b.AddFeedbackSlot()
	u.b.Emit(bytecode.OpTryGetByID)
	u.b.EmitU32(nameIx)
	u.b.EmitU32(feedback)
}

// --- Hoisting -------------------------------------------------------------

// hoist walks body (recursing into nested blocks/control statements but
// never into nested function bodies) collecting function declarations
// and `var` names, the first of the two scope-analysis passes.
func hoist(body []ast.Stmt) (fns []*ast.FunctionDecl, vars []string) {
	var walk func(stmts []ast.Stmt)
	seenVar := map[string]bool{}
	walk = func(stmts []ast.Stmt) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *ast.FunctionDecl:
				fns = append(fns, st)
			case *ast.VarDecl:
				if st.Kind == ast.VarVar {
					for _, d := range st.Declarators {
						if !seenVar[d.Name] {
							seenVar[d.Name] = true
							vars = append(vars, d.Name)
						}
					}
				}
			case *ast.BlockStmt:
				walk(st.Body)
			case *ast.IfStmt:
				walk([]ast.Stmt{st.Then})
				if st.Else != nil {
					walk([]ast.Stmt{st.Else})
				}
			case *ast.WhileStmt:
				walk([]ast.Stmt{st.Body})
			case *ast.ForStmt:
				if st.Init != nil {
					walk([]ast.Stmt{st.Init})
				}
				walk([]ast.Stmt{st.Body})
			case *ast.ForInStmt:
				if st.Kind == ast.VarVar {
					if !seenVar[st.Binder] {
						seenVar[st.Binder] = true
						vars = append(vars, st.Binder)
					}
				}
				walk([]ast.Stmt{st.Body})
			case *ast.TryStmt:
				walk(st.Block)
				if st.HasCatch {
					walk(st.CatchBody)
				}
				if st.HasFinally {
					walk(st.FinallyBody)
				}
			}
		}
	}
	walk(body)
	return fns, vars
}

// directLexicalDecls returns the let/const names declared directly in
// body (not inside a nested block), the binding set a fresh block frame
// must be sized for.
func directLexicalDecls(body []ast.Stmt) []string {
	var names []string
	for _, s := range body {
		if vd, ok := s.(*ast.VarDecl); ok && vd.Kind != ast.VarVar {
			for _, d := range vd.Declarators {
				names = append(names, d.Name)
			}
		}
	}
	return names
}

// referencesIdentifier reports whether body (excluding nested function
// literals) ever reads the identifier name, used to decide whether a
// function needs an `arguments` slot.
func referencesIdentifier(body []ast.Stmt, name string) bool {
	found := false
	var walkExpr func(e ast.Expr)
	var walkStmt func(s ast.Stmt)
	walkExpr = func(e ast.Expr) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case *ast.Identifier:
			if x.Name == name {
				found = true
			}
		case *ast.BinaryExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.LogicalExpr:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.UnaryExpr:
			walkExpr(x.Operand)
		case *ast.AssignExpr:
			walkExpr(x.Target)
			walkExpr(x.Value)
		case *ast.MemberExpr:
			walkExpr(x.Object)
			if x.Computed {
				walkExpr(x.Property)
			}
		case *ast.CallExpr:
			walkExpr(x.Callee)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.NewExpr:
			walkExpr(x.Callee)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.SpreadExpr:
			walkExpr(x.Argument)
		case *ast.ArrayLiteral:
			for _, el := range x.Elements {
				walkExpr(el)
			}
		case *ast.ObjectLiteral:
			for _, p := range x.Properties {
				if p.Computed {
					walkExpr(p.KeyExpr)
				}
				walkExpr(p.Value)
			}
		}
	}
	walkStmt = func(s ast.Stmt) {
		if found || s == nil {
			return
		}
		switch st := s.(type) {
		case *ast.ExprStmt:
			walkExpr(st.Expr)
		case *ast.VarDecl:
			for _, d := range st.Declarators {
				walkExpr(d.Init)
			}
		case *ast.BlockStmt:
			for _, x := range st.Body {
				walkStmt(x)
			}
		case *ast.IfStmt:
			walkExpr(st.Test)
			walkStmt(st.Then)
			walkStmt(st.Else)
		case *ast.WhileStmt:
			walkExpr(st.Test)
			walkStmt(st.Body)
		case *ast.ForStmt:
			walkStmt(st.Init)
			walkExpr(st.Test)
			walkExpr(st.Update)
			walkStmt(st.Body)
		case *ast.ForInStmt:
			walkExpr(st.Object)
			walkStmt(st.Body)
		case *ast.ReturnStmt:
			walkExpr(st.Argument)
		case *ast.ThrowStmt:
			walkExpr(st.Argument)
		case *ast.TryStmt:
			for _, x := range st.Block {
				walkStmt(x)
			}
			for _, x := range st.CatchBody {
				walkStmt(x)
			}
			for _, x := range st.FinallyBody {
				walkStmt(x)
			}
		}
	}
	for _, s := range body {
		walkStmt(s)
		if found {
			break
		}
	}
	return found
}
