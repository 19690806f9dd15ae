package compiler

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/bytecode"
)

// patchJump backfills the i32 operand of the jump instruction emitted at
// site (the offset Emit returned for the opcode byte) with the relative
// offset from the instruction's end to the current write position.
func (u *unit) patchJump(site int) {
	target := int32(u.b.Here() - (site + 5))
	u.b.PatchI32(site+1, target)
}

// patchJumpTo backfills site's operand with the relative offset to an
// already-known target byte offset, for backward jumps.
func (u *unit) patchJumpTo(site, target int) {
	u.b.PatchI32(site+1, int32(target-(site+5)))
}

// emitJump emits op with a placeholder operand, to be resolved later via
// patchJump, and returns the site.
func (u *unit) emitJump(op bytecode.Op) int {
	site := u.b.Emit(op)
	u.b.EmitI32(0)
	return site
}

// emitJumpTo emits op with its operand already resolved to a known
// backward target.
func (u *unit) emitJumpTo(op bytecode.Op, target int) {
	site := u.b.Emit(op)
	u.b.EmitI32(int32(target - (site + 5)))
}

// emitStmt lowers a single statement, matching the two-pass scheme: var
// and function hoisting already happened before emitStmt is ever called,
// so here FunctionDecl is a no-op (its binding was stored at the top of
// the enclosing compileUnit) and VarDecl only ever emits the initializer
// assignment, never a declaration for `var`.
func (u *unit) emitStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.EmptyStmt:
		return nil

	case *ast.ExprStmt:
		return u.emitExpr(st.Expr, false)

	case *ast.VarDecl:
		return u.emitVarDecl(st)

	case *ast.FunctionDecl:
		// Already bound by compileUnit's hoisting pass.
		return nil

	case *ast.BlockStmt:
		return u.compileBlock(st.Body)

	case *ast.IfStmt:
		return u.emitIf(st)

	case *ast.WhileStmt:
		return u.emitWhile(st)

	case *ast.ForStmt:
		return u.emitFor(st)

	case *ast.ForInStmt:
		return u.emitForIn(st)

	case *ast.BreakStmt:
		if len(u.loops) == 0 {
			return fmt.Errorf("compiler: break outside of a loop")
		}
		lp := u.loops[len(u.loops)-1]
		u.unwindCatches(lp.catchDepth)
		if !lp.selfRestoring {
			u.unwindBlocks(lp.frameDepth)
		}
		site := u.emitJump(bytecode.OpJmp)
		lp.breakSites = append(lp.breakSites, site)
		return nil

	case *ast.ContinueStmt:
		if len(u.loops) == 0 {
			return fmt.Errorf("compiler: continue outside of a loop")
		}
		lp := u.loops[len(u.loops)-1]
		u.unwindCatches(lp.catchDepth)
		if !lp.selfRestoring {
			u.unwindBlocks(lp.frameDepth)
		}
		u.emitJumpTo(bytecode.OpJmp, lp.continueTarget)
		return nil

	case *ast.ReturnStmt:
		if st.Argument != nil {
			if err := u.emitExpr(st.Argument, true); err != nil {
				return err
			}
		} else {
			u.b.Emit(bytecode.OpPushUndef)
		}
		u.b.Emit(bytecode.OpRet)
		return nil

	case *ast.ThrowStmt:
		if err := u.emitExpr(st.Argument, true); err != nil {
			return err
		}
		u.b.Emit(bytecode.OpThrow)
		return nil

	case *ast.TryStmt:
		return u.emitTry(st)

	default:
		return fmt.Errorf("compiler: unsupported statement %T", s)
	}
}

// emitVarDecl lowers a var/let/const declaration. `var` bindings were
// already hoisted to Undefined and only need their initializer's side
// effect; `let`/`const` bindings use DECL_LET/DECL_CONST to mark the slot
// initialized, its operand a slot in the current (innermost) frame since
// directLexicalDecls always sizes that frame for exactly these names.
func (u *unit) emitVarDecl(vd *ast.VarDecl) error {
	for _, d := range vd.Declarators {
		switch vd.Kind {
		case ast.VarVar:
			if d.Init == nil {
				continue
			}
			if err := u.emitExpr(d.Init, true); err != nil {
				return err
			}
			u.emitStoreResolved(d.Name)
			u.b.Emit(bytecode.OpPop)
		case ast.VarLet, ast.VarConst:
			if d.Init != nil {
				if err := u.emitExpr(d.Init, true); err != nil {
					return err
				}
			} else {
				u.b.Emit(bytecode.OpPushUndef)
			}
			slot, ok := u.curFrame().names[d.Name]
			if !ok {
				return fmt.Errorf("compiler: internal error: %q not reserved in its frame", d.Name)
			}
			if vd.Kind == ast.VarConst {
				u.b.Emit(bytecode.OpDeclConst)
			} else {
				u.b.Emit(bytecode.OpDeclLet)
			}
			u.b.EmitU32(uint32(slot))
		}
	}
	return nil
}

func (u *unit) emitIf(st *ast.IfStmt) error {
	if err := u.emitExpr(st.Test, true); err != nil {
		return err
	}
	elseSite := u.emitJump(bytecode.OpJmpIfFalse)
	if err := u.emitStmt(st.Then); err != nil {
		return err
	}
	if st.Else != nil {
		endSite := u.emitJump(bytecode.OpJmp)
		u.patchJump(elseSite)
		if err := u.emitStmt(st.Else); err != nil {
			return err
		}
		u.patchJump(endSite)
		return nil
	}
	u.patchJump(elseSite)
	return nil
}

func (u *unit) emitWhile(st *ast.WhileStmt) error {
	testLabel := u.b.Here()
	if err := u.emitExpr(st.Test, true); err != nil {
		return err
	}
	exitSite := u.emitJump(bytecode.OpJmpIfFalse)

	lp := &loopInfo{continueTarget: testLabel, frameDepth: len(u.frames), catchDepth: u.catchDepth}
	u.loops = append(u.loops, lp)
	err := u.emitStmt(st.Body)
	u.loops = u.loops[:len(u.loops)-1]
	if err != nil {
		return err
	}

	u.emitJumpTo(bytecode.OpJmp, testLabel)
	u.patchJump(exitSite)
	for _, site := range lp.breakSites {
		u.patchJump(site)
	}
	return nil
}

func (u *unit) emitFor(st *ast.ForStmt) error {
	// A `for` with its own `let`/`const` init clause gets its own block
	// frame, matching compileBlock's rule for lexical declarations.
	var declaredNames []string
	if vd, ok := st.Init.(*ast.VarDecl); ok && vd.Kind != ast.VarVar {
		for _, d := range vd.Declarators {
			declaredNames = append(declaredNames, d.Name)
		}
	}
	if len(declaredNames) > 0 {
		fr := u.pushBlockFrame()
		for _, n := range declaredNames {
			fr.names[n] = fr.nextSlot
			fr.nextSlot++
		}
		u.b.Emit(bytecode.OpPushEnv)
		u.b.EmitU32(uint32(len(declaredNames)))
		defer func() {
			u.b.Emit(bytecode.OpPopEnv)
			u.popBlockFrame()
		}()
	}

	if st.Init != nil {
		if err := u.emitStmt(st.Init); err != nil {
			return err
		}
	}

	testLabel := u.b.Here()
	var exitSite int
	hasExit := st.Test != nil
	if hasExit {
		if err := u.emitExpr(st.Test, true); err != nil {
			return err
		}
		exitSite = u.emitJump(bytecode.OpJmpIfFalse)
	}

	lp := &loopInfo{frameDepth: len(u.frames), catchDepth: u.catchDepth}
	u.loops = append(u.loops, lp)
	bodyErr := u.emitStmt(st.Body)
	u.loops = u.loops[:len(u.loops)-1]
	if bodyErr != nil {
		return bodyErr
	}

	updateLabel := u.b.Here()
	lp.continueTarget = updateLabel
	if st.Update != nil {
		if err := u.emitExpr(st.Update, false); err != nil {
			return err
		}
	}
	u.emitJumpTo(bytecode.OpJmp, testLabel)

	if hasExit {
		u.patchJump(exitSite)
	}
	for _, site := range lp.breakSites {
		u.patchJump(site)
	}
	return nil
}

// emitForIn compiles `for (binder in object) body` as: SETUP pops the
// enumeration source and jumps to the leave label if it has no
// enumerable keys, otherwise falls through with the first key pushed;
// the body's per-iteration PUSH_ENV (for a let/const binder) is left
// unbalanced by any explicit POP_ENV here, since ENUMERATE and LEAVE both
// restore the environment active at SETUP on every exit path. `break`
// targets LEAVE directly so the enumerator is always released; `continue`
// targets ENUMERATE.
func (u *unit) emitForIn(st *ast.ForInStmt) error {
	if err := u.emitExpr(st.Object, true); err != nil {
		return err
	}
	setupSite := u.emitJump(bytecode.OpForInSetup)

	bodyLabel := u.b.Here()
	pushedFrame, err := u.emitForInBind(st)
	if err != nil {
		return err
	}

	lp := &loopInfo{selfRestoring: true, catchDepth: u.catchDepth}
	u.loops = append(u.loops, lp)
	bodyErr := u.emitStmt(st.Body)
	u.loops = u.loops[:len(u.loops)-1]
	if pushedFrame {
		u.popBlockFrame()
	}
	if bodyErr != nil {
		return bodyErr
	}

	enumerateSite := u.b.Here()
	u.emitJumpTo(bytecode.OpForInEnumerate, bodyLabel)
	lp.continueTarget = enumerateSite

	leaveLabel := u.b.Here()
	u.patchJumpTo(setupSite, leaveLabel)
	u.b.Emit(bytecode.OpForInLeave)
	for _, site := range lp.breakSites {
		u.patchJumpTo(site, leaveLabel)
	}
	return nil
}

// emitForInBind stores the current key (left on the stack by SETUP or
// ENUMERATE) into the loop binder, declaring a fresh per-iteration
// binding for `let`/`const` binders and otherwise storing into the
// binder's existing resolved slot. It reports whether it pushed a block
// frame, which the caller must pop (at compile time only — no POP_ENV is
// emitted, since FOR_IN_ENUMERATE/FOR_IN_LEAVE restore the runtime
// environment on every exit path).
func (u *unit) emitForInBind(st *ast.ForInStmt) (pushedFrame bool, err error) {
	if st.Kind == ast.VarLet || st.Kind == ast.VarConst {
		fr := u.pushBlockFrame()
		fr.names[st.Binder] = 0
		fr.nextSlot = 1
		u.b.Emit(bytecode.OpPushEnv)
		u.b.EmitU32(1)
		if st.Kind == ast.VarConst {
			u.b.Emit(bytecode.OpDeclConst)
		} else {
			u.b.Emit(bytecode.OpDeclLet)
		}
		u.b.EmitU32(0)
		return true, nil
	}
	u.emitStoreResolved(st.Binder)
	u.b.Emit(bytecode.OpPop)
	return false, nil
}

// emitTry compiles try/catch/finally. PUSH_CATCH registers a handler
// offset the interpreter transfers control to (with the thrown value
// pushed) on an exception inside the protected region; POP_CATCH
// unregisters it on normal completion. A `finally` clause is compiled
// inline at every completion path (normal, caught, and uncaught) rather
// than as a shared subroutine: simpler to emit, at the cost of not
// covering finally-running-on-an-exception-thrown-from-inside-catch,
// which is left as a known gap.
func (u *unit) emitTry(st *ast.TryStmt) error {
	handlerSite := u.emitJump(bytecode.OpPushCatch)

	u.catchDepth++
	if err := u.compileBlock(st.Block); err != nil {
		u.catchDepth--
		return err
	}
	u.catchDepth--
	u.b.Emit(bytecode.OpPopCatch)
	if st.HasFinally {
		if err := u.compileBlock(st.FinallyBody); err != nil {
			return err
		}
	}

	var endSite int
	hasHandlerTail := st.HasCatch || st.HasFinally
	if hasHandlerTail {
		endSite = u.emitJump(bytecode.OpJmp)
	}

	u.patchJump(handlerSite)

	if st.HasCatch {
		if st.CatchParam != "" {
			fr := u.pushBlockFrame()
			fr.names[st.CatchParam] = 0
			fr.nextSlot = 1
			u.b.Emit(bytecode.OpPushEnv)
			u.b.EmitU32(1)
			u.b.Emit(bytecode.OpDeclLet)
			u.b.EmitU32(0)
			if err := u.compileBlockBody(st.CatchBody); err != nil {
				u.popBlockFrame()
				return err
			}
			u.b.Emit(bytecode.OpPopEnv)
			u.popBlockFrame()
		} else {
			u.b.Emit(bytecode.OpPop)
			if err := u.compileBlockBody(st.CatchBody); err != nil {
				return err
			}
		}
		if st.HasFinally {
			if err := u.compileBlock(st.FinallyBody); err != nil {
				return err
			}
		}
	} else {
		// finally-only: stash the thrown value across the finally block,
		// run it, then re-throw.
		fr := u.pushBlockFrame()
		fr.names["@exc"] = 0
		fr.nextSlot = 1
		u.b.Emit(bytecode.OpPushEnv)
		u.b.EmitU32(1)
		u.b.Emit(bytecode.OpDeclLet)
		u.b.EmitU32(0)
		if err := u.compileBlock(st.FinallyBody); err != nil {
			u.popBlockFrame()
			return err
		}
		u.b.Emit(bytecode.OpGetEnv0Local)
		u.b.EmitU32(0)
		u.b.Emit(bytecode.OpPopEnv)
		u.popBlockFrame()
		u.b.Emit(bytecode.OpThrow)
	}

	if hasHandlerTail {
		u.patchJump(endSite)
	}
	return nil
}

// compileBlockBody emits body's statements directly into the caller's
// already-pushed frame, used by catch clauses whose binding frame the
// caller manages explicitly rather than via compileBlock's own
// PUSH_ENV/POP_ENV bracketing.
func (u *unit) compileBlockBody(body []ast.Stmt) error {
	for _, s := range body {
		if err := u.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}
