package compiler

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/value"
)

var binaryArith = map[string]bytecode.Op{
	"+":   bytecode.OpAdd,
	"-":   bytecode.OpSub,
	"*":   bytecode.OpMul,
	"/":   bytecode.OpDiv,
	"%":   bytecode.OpRem,
	"<<":  bytecode.OpShl,
	">>":  bytecode.OpShr,
	">>>": bytecode.OpUShr,
}

var binaryCompare = map[string]bytecode.Op{
	"<":          bytecode.OpLess,
	"<=":         bytecode.OpLessEq,
	">":          bytecode.OpGreater,
	">=":         bytecode.OpGreaterEq,
	"==":         bytecode.OpEq,
	"!=":         bytecode.OpNeq,
	"===":        bytecode.OpStrictEq,
	"!==":        bytecode.OpNStrictEq,
	"in":         bytecode.OpIn,
	"instanceof": bytecode.OpInstanceOf,
}

var unaryOps = map[string]bytecode.Op{
	"-": bytecode.OpNeg,
	"+": bytecode.OpPos,
	"!": bytecode.OpLogicalNot,
	"~": bytecode.OpNot,
}

// emitExpr compiles e, leaving its value on the stack when used is true;
// when used is false the compiler may omit pushing a value it knows no
// one will read (an expression statement's result), but must still emit
// any side effects.
func (u *unit) emitExpr(e ast.Expr, used bool) error {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		if !used {
			return nil
		}
		u.emitNumber(x.Value)
	case *ast.StringLiteral:
		if !used {
			return nil
		}
		ix := u.b.AddLiteral(u.literalString(x.Value))
		u.b.Emit(bytecode.OpPushLiteral)
		u.b.EmitU32(ix)
	case *ast.BoolLiteral:
		if !used {
			return nil
		}
		if x.Value {
			u.b.Emit(bytecode.OpPushTrue)
		} else {
			u.b.Emit(bytecode.OpPushFalse)
		}
	case *ast.NullLiteral:
		if used {
			u.b.Emit(bytecode.OpPushNull)
		}
	case *ast.UndefinedLiteral:
		if used {
			u.b.Emit(bytecode.OpPushUndef)
		}
	case *ast.ThisExpr:
		if used {
			u.b.Emit(bytecode.OpPushThis)
		}
	case *ast.Identifier:
		if used {
			u.emitLoadResolved(x.Name)
		}
	case *ast.BinaryExpr:
		return u.emitBinary(x, used)
	case *ast.LogicalExpr:
		return u.emitLogical(x, used)
	case *ast.UnaryExpr:
		return u.emitUnary(x, used)
	case *ast.AssignExpr:
		return u.emitAssign(x, used)
	case *ast.MemberExpr:
		if err := u.emitMemberGet(x); err != nil {
			return err
		}
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
	case *ast.CallExpr:
		return u.emitCall(x, used)
	case *ast.NewExpr:
		return u.emitNew(x, used)
	case *ast.ArrayLiteral:
		return u.emitArrayLiteral(x, used)
	case *ast.ObjectLiteral:
		return u.emitObjectLiteral(x, used)
	case *ast.FunctionLiteral:
		nested, err := u.compileNestedFunction(x)
		if err != nil {
			return err
		}
		if used {
			ix := u.b.AddNestedCode(nested)
			u.b.Emit(bytecode.OpGetFunction)
			u.b.EmitU32(ix)
		}
	case *ast.SpreadExpr:
		return fmt.Errorf("compiler: spread is only valid in a call/array/object position")
	default:
		return fmt.Errorf("compiler: unsupported expression %T", e)
	}
	return nil
}

func (u *unit) emitNumber(v float64) {
	if iv := int32(v); float64(iv) == v {
		u.b.Emit(bytecode.OpPushInt)
		u.b.EmitU32(uint32(iv))
		return
	}
	ix := u.b.AddLiteral(value.Number(v))
	u.b.Emit(bytecode.OpPushLiteral)
	u.b.EmitU32(ix)
}

// literalString boxes a string constant. Strings are represented as
// heap-allocated objects elsewhere in the engine; at the literal-pool
// level a string is carried as a bytecode.StringConstant placeholder the
// interpreter replaces with a real heap string the first time the
// CodeBlock runs (see internal/interp's literal-pool linking step).
func (u *unit) literalString(s string) value.Value {
	return value.FromObject(bytecode.StringConstant(s))
}

func (u *unit) emitBinary(x *ast.BinaryExpr, used bool) error {
	if op, ok := binaryArith[x.Op]; ok {
		if err := u.emitExpr(x.Left, true); err != nil {
			return err
		}
		if err := u.emitExpr(x.Right, true); err != nil {
			return err
		}
		u.b.Emit(op)
		u.b.EmitU32(u.b.AddFeedbackSlot())
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
		return nil
	}
	if op, ok := binaryCompare[x.Op]; ok {
		if err := u.emitExpr(x.Left, true); err != nil {
			return err
		}
		if err := u.emitExpr(x.Right, true); err != nil {
			return err
		}
		u.b.Emit(op)
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
		return nil
	}
	return fmt.Errorf("compiler: unknown binary operator %q", x.Op)
}

// emitLogical compiles short-circuiting && / ||: the right operand is
// only evaluated when the left doesn't already decide the result.
func (u *unit) emitLogical(x *ast.LogicalExpr, used bool) error {
	if err := u.emitExpr(x.Left, true); err != nil {
		return err
	}
	u.b.Emit(bytecode.OpDup)
	var skipOp bytecode.Op
	switch x.Op {
	case "&&":
		skipOp = bytecode.OpJmpIfFalse
	case "||":
		skipOp = bytecode.OpJmpIfTrue
	default:
		return fmt.Errorf("compiler: unknown logical operator %q", x.Op)
	}
	skipSite := u.b.Emit(skipOp)
	u.b.EmitI32(0)
	u.b.Emit(bytecode.OpPop)
	if err := u.emitExpr(x.Right, true); err != nil {
		return err
	}
	u.patchJump(skipSite)
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}

func (u *unit) emitUnary(x *ast.UnaryExpr, used bool) error {
	if x.Op == "typeof" {
		if id, ok := x.Operand.(*ast.Identifier); ok {
			if _, _, ok := u.resolve(id.Name); !ok {
				// typeof on an unresolved identifier must not throw a
				// ReferenceError, unlike a normal read.
				u.b.Emit(bytecode.OpGlobalThis)
				nameIx := u.b.AddName(u.ctx.Intern(id.Name))
				feedback := u.b.AddFeedbackSlot()
				u.b.Emit(bytecode.OpGetByID)
				u.b.EmitU32(nameIx)
				u.b.EmitU32(feedback)
				u.b.Emit(bytecode.OpTypeOf)
				if !used {
					u.b.Emit(bytecode.OpPop)
				}
				return nil
			}
		}
		if err := u.emitExpr(x.Operand, true); err != nil {
			return err
		}
		u.b.Emit(bytecode.OpTypeOf)
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
		return nil
	}
	op, ok := unaryOps[x.Op]
	if !ok {
		return fmt.Errorf("compiler: unknown unary operator %q", x.Op)
	}
	if err := u.emitExpr(x.Operand, true); err != nil {
		return err
	}
	u.b.Emit(op)
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}

// emitMemberGet compiles a property read, leaving [value] on the stack.
func (u *unit) emitMemberGet(m *ast.MemberExpr) error {
	if err := u.emitExpr(m.Object, true); err != nil {
		return err
	}
	if m.Computed {
		if err := u.emitExpr(m.Property, true); err != nil {
			return err
		}
		u.b.Emit(bytecode.OpGetByVal)
		u.b.EmitU32(u.b.AddFeedbackSlot())
		return nil
	}
	nameIx := u.b.AddName(u.ctx.Intern(m.Name))
	feedback := u.b.AddFeedbackSlot()
	u.b.Emit(bytecode.OpGetByID)
	u.b.EmitU32(nameIx)
	u.b.EmitU32(feedback)
	return nil
}

// emitMemberGetKeepReceiver compiles a property read for a method-call
// callee, leaving [receiver, value] on the stack.
func (u *unit) emitMemberGetKeepReceiver(m *ast.MemberExpr) error {
	if err := u.emitExpr(m.Object, true); err != nil {
		return err
	}
	u.b.Emit(bytecode.OpDup)
	if m.Computed {
		if err := u.emitExpr(m.Property, true); err != nil {
			return err
		}
		u.b.Emit(bytecode.OpGetByVal)
		u.b.EmitU32(u.b.AddFeedbackSlot())
		return nil
	}
	nameIx := u.b.AddName(u.ctx.Intern(m.Name))
	feedback := u.b.AddFeedbackSlot()
	u.b.Emit(bytecode.OpGetByID)
	u.b.EmitU32(nameIx)
	u.b.EmitU32(feedback)
	return nil
}

// emitMemberSet compiles a property write. Both PUT_BY_ID and PUT_BY_VAL
// expect the value being assigned on top of the stack, with the receiver
// (and, for PUT_BY_VAL, the key) beneath it -- the same bottom-to-top
// [object, key?, value] shape emitObjectLiteral's property writes build --
// so the object/key are pushed first and valueFn last.
func (u *unit) emitMemberSet(m *ast.MemberExpr, valueFn func() error) error {
	if err := u.emitExpr(m.Object, true); err != nil {
		return err
	}
	if m.Computed {
		if err := u.emitExpr(m.Property, true); err != nil {
			return err
		}
		if err := valueFn(); err != nil {
			return err
		}
		u.b.Emit(bytecode.OpPutByVal)
		u.b.EmitU32(u.b.AddFeedbackSlot())
		return nil
	}
	if err := valueFn(); err != nil {
		return err
	}
	nameIx := u.b.AddName(u.ctx.Intern(m.Name))
	feedback := u.b.AddFeedbackSlot()
	u.b.Emit(bytecode.OpPutByID)
	u.b.EmitU32(nameIx)
	u.b.EmitU32(feedback)
	return nil
}

func (u *unit) emitAssign(x *ast.AssignExpr, used bool) error {
	if x.Op != "=" {
		// Compound assignment desugars to `target = target OP value`.
		bin := &ast.BinaryExpr{Op: string([]byte(x.Op)[:len(x.Op)-1]), Left: x.Target, Right: x.Value}
		return u.emitAssign(&ast.AssignExpr{Op: "=", Target: x.Target, Value: bin}, used)
	}

	switch t := x.Target.(type) {
	case *ast.Identifier:
		if err := u.emitExpr(x.Value, true); err != nil {
			return err
		}
		u.emitStoreResolved(t.Name)
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
		return nil
	case *ast.MemberExpr:
		if err := u.emitMemberSet(t, func() error { return u.emitExpr(x.Value, true) }); err != nil {
			return err
		}
		if !used {
			u.b.Emit(bytecode.OpPop)
		}
		return nil
	default:
		return fmt.Errorf("compiler: invalid assignment target %T", x.Target)
	}
}

// emitArgs pushes args in order, handling a spread in any position via
// OP_SPREAD. argc counts one slot per syntactic argument position: a
// spread position occupies exactly one stack slot (the sentinel OP_SPREAD
// pushes), which OP_CALL/OP_NEW/OP_NEWARRAY splice into zero or more
// actual values when they consume the list.
func (u *unit) emitArgs(args []ast.Expr) (argc int, err error) {
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadExpr); ok {
			if err := u.emitExpr(sp.Argument, true); err != nil {
				return 0, err
			}
			u.b.Emit(bytecode.OpSpread)
			argc++
			continue
		}
		if err := u.emitExpr(a, true); err != nil {
			return 0, err
		}
		argc++
	}
	return argc, nil
}

func (u *unit) emitCall(x *ast.CallExpr, used bool) error {
	if m, ok := x.Callee.(*ast.MemberExpr); ok {
		if err := u.emitMemberGetKeepReceiver(m); err != nil {
			return err
		}
	} else {
		u.b.Emit(bytecode.OpPushUndef)
		if err := u.emitExpr(x.Callee, true); err != nil {
			return err
		}
	}
	argc, err := u.emitArgs(x.Args)
	if err != nil {
		return err
	}
	u.b.Emit(bytecode.OpCall)
	u.b.EmitU32(uint32(argc))
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}

func (u *unit) emitNew(x *ast.NewExpr, used bool) error {
	u.b.Emit(bytecode.OpPushUndef)
	if err := u.emitExpr(x.Callee, true); err != nil {
		return err
	}
	argc, err := u.emitArgs(x.Args)
	if err != nil {
		return err
	}
	u.b.Emit(bytecode.OpNew)
	u.b.EmitU32(uint32(argc))
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}

func (u *unit) emitArrayLiteral(x *ast.ArrayLiteral, used bool) error {
	for _, el := range x.Elements {
		if el == nil {
			u.b.Emit(bytecode.OpPushEmpty)
			continue
		}
		if sp, ok := el.(*ast.SpreadExpr); ok {
			if err := u.emitExpr(sp.Argument, true); err != nil {
				return err
			}
			u.b.Emit(bytecode.OpSpread)
			continue
		}
		if err := u.emitExpr(el, true); err != nil {
			return err
		}
	}
	u.b.Emit(bytecode.OpNewArray)
	u.b.EmitU32(uint32(len(x.Elements)))
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}

func (u *unit) emitObjectLiteral(x *ast.ObjectLiteral, used bool) error {
	u.b.Emit(bytecode.OpNewObject)
	for _, p := range x.Properties {
		u.b.Emit(bytecode.OpDup)
		if err := u.emitExpr(p.Value, true); err != nil {
			return err
		}
		if p.Computed {
			if err := u.emitExpr(p.KeyExpr, true); err != nil {
				return err
			}
			u.b.Emit(bytecode.OpSwap)
			u.b.Emit(bytecode.OpPutByVal)
			u.b.EmitU32(u.b.AddFeedbackSlot())
		} else {
			nameIx := u.b.AddName(u.ctx.Intern(p.Key))
			feedback := u.b.AddFeedbackSlot()
			u.b.Emit(bytecode.OpPutByID)
			u.b.EmitU32(nameIx)
			u.b.EmitU32(feedback)
		}
		u.b.Emit(bytecode.OpPop)
	}
	if !used {
		u.b.Emit(bytecode.OpPop)
	}
	return nil
}
