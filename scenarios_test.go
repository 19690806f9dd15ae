package starjs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs"
	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/value"
)

// The programs below are hand-built ASTs for the engine's end-to-end
// scenarios, standing in for what a host's parser would produce.

// nullDerefCaught builds:
//
//	try { null.x } catch (e) { return e.name }
//	return "no throw";
func nullDerefCaught() *ast.Program {
	return program(
		&ast.TryStmt{
			Block: []ast.Stmt{
				&ast.ExprStmt{Expr: &ast.MemberExpr{
					Object: &ast.NullLiteral{},
					Name:   "x",
				}},
			},
			HasCatch:   true,
			CatchParam: "e",
			CatchBody: []ast.Stmt{
				&ast.ReturnStmt{Argument: &ast.MemberExpr{
					Object: &ast.Identifier{Name: "e"},
					Name:   "name",
				}},
			},
		},
		&ast.ReturnStmt{Argument: &ast.StringLiteral{Value: "no throw"}},
	)
}

// squaresJoined builds:
//
//	var a = [];
//	for (var i = 0; i < 5; i = i + 1) a.push(i * i);
//	return a.join(",");
func squaresJoined() *ast.Program {
	return program(
		&ast.VarDecl{Kind: ast.VarVar, Declarators: []ast.VarDeclarator{
			{Name: "a", Init: &ast.ArrayLiteral{}},
		}},
		&ast.ForStmt{
			Init: &ast.VarDecl{Kind: ast.VarVar, Declarators: []ast.VarDeclarator{
				{Name: "i", Init: &ast.NumberLiteral{Value: 0}},
			}},
			Test: &ast.BinaryExpr{
				Op:    "<",
				Left:  &ast.Identifier{Name: "i"},
				Right: &ast.NumberLiteral{Value: 5},
			},
			Update: &ast.AssignExpr{
				Op:     "=",
				Target: &ast.Identifier{Name: "i"},
				Value: &ast.BinaryExpr{
					Op:    "+",
					Left:  &ast.Identifier{Name: "i"},
					Right: &ast.NumberLiteral{Value: 1},
				},
			},
			Body: &ast.ExprStmt{Expr: &ast.CallExpr{
				Callee: &ast.MemberExpr{Object: &ast.Identifier{Name: "a"}, Name: "push"},
				Args: []ast.Expr{&ast.BinaryExpr{
					Op:    "*",
					Left:  &ast.Identifier{Name: "i"},
					Right: &ast.Identifier{Name: "i"},
				}},
			}},
		},
		&ast.ReturnStmt{Argument: &ast.CallExpr{
			Callee: &ast.MemberExpr{Object: &ast.Identifier{Name: "a"}, Name: "join"},
			Args:   []ast.Expr{&ast.StringLiteral{Value: ","}},
		}},
	)
}

// constructedInstance builds:
//
//	function F() { this.x = 1 }
//	var o = new F();
//	return o instanceof F && o.x === 1;
func constructedInstance() *ast.Program {
	return program(
		&ast.FunctionDecl{Fn: &ast.FunctionLiteral{
			Name: "F",
			Body: []ast.Stmt{
				&ast.ExprStmt{Expr: &ast.AssignExpr{
					Op: "=",
					Target: &ast.MemberExpr{
						Object: &ast.ThisExpr{},
						Name:   "x",
					},
					Value: &ast.NumberLiteral{Value: 1},
				}},
			},
		}},
		&ast.VarDecl{Kind: ast.VarVar, Declarators: []ast.VarDeclarator{
			{Name: "o", Init: &ast.NewExpr{Callee: &ast.Identifier{Name: "F"}}},
		}},
		&ast.ReturnStmt{Argument: &ast.LogicalExpr{
			Op: "&&",
			Left: &ast.BinaryExpr{
				Op:    "instanceof",
				Left:  &ast.Identifier{Name: "o"},
				Right: &ast.Identifier{Name: "F"},
			},
			Right: &ast.BinaryExpr{
				Op:    "===",
				Left: &ast.MemberExpr{
					Object: &ast.Identifier{Name: "o"},
					Name:   "x",
				},
				Right: &ast.NumberLiteral{Value: 1},
			},
		}},
	)
}

func asGoString(t *testing.T, v value.Value) string {
	t.Helper()
	s, ok := v.AsRef().(*interp.JsString)
	require.True(t, ok, "expected a string result, got %v", v.Kind())
	return s.String()
}

func TestNullDereferenceLandsInCatchAsTypeError(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	cb, err := rt.Compile(nullDerefCaught())
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, "TypeError", asGoString(t, v))
}

func TestArrayPushAndJoin(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	cb, err := rt.Compile(squaresJoined())
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, "0,1,4,9,16", asGoString(t, v))
}

func TestConstructorInstanceAndInstanceof(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	cb, err := rt.Compile(constructedInstance())
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, value.True, v)
}

// TestScenariosMatchAcrossSnapshotRestore snapshots a freshly built
// Runtime before any execution, restores it, and checks every scenario
// produces the same result on both — the observational-equivalence
// contract Snapshot/FromSnapshot promise.
func TestScenariosMatchAcrossSnapshotRestore(t *testing.T) {
	base := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())
	data, err := base.Snapshot()
	require.NoError(t, err)

	restored, err := starjs.FromSnapshot(context.Background(), data, starjs.NewRuntimeConfig())
	require.NoError(t, err)

	scenarios := []struct {
		name string
		prog *ast.Program
	}{
		{"nullDerefCaught", nullDerefCaught()},
		{"squaresJoined", squaresJoined()},
		{"constructedInstance", constructedInstance()},
	}
	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			cbBase, err := base.Compile(sc.prog)
			require.NoError(t, err)
			vBase, err := base.Run(cbBase)
			require.NoError(t, err)

			cbRestored, err := restored.Compile(sc.prog)
			require.NoError(t, err)
			vRestored, err := restored.Run(cbRestored)
			require.NoError(t, err)

			require.Equal(t, vBase.Kind(), vRestored.Kind())
			if s, ok := vBase.AsRef().(*interp.JsString); ok {
				require.Equal(t, s.String(), asGoString(t, vRestored))
			} else {
				require.Equal(t, vBase, vRestored)
			}
		})
	}
}

// nestedTryInnermost builds:
//
//	try {
//	  try { throw "boom" } catch (inner) { return "inner:" + inner }
//	} catch (outer) { return "outer" }
func nestedTryInnermost() *ast.Program {
	return program(
		&ast.TryStmt{
			Block: []ast.Stmt{
				&ast.TryStmt{
					Block: []ast.Stmt{
						&ast.ThrowStmt{Argument: &ast.StringLiteral{Value: "boom"}},
					},
					HasCatch:   true,
					CatchParam: "inner",
					CatchBody: []ast.Stmt{
						&ast.ReturnStmt{Argument: &ast.BinaryExpr{
							Op:    "+",
							Left:  &ast.StringLiteral{Value: "inner:"},
							Right: &ast.Identifier{Name: "inner"},
						}},
					},
				},
			},
			HasCatch:   true,
			CatchParam: "outer",
			CatchBody: []ast.Stmt{
				&ast.ReturnStmt{Argument: &ast.StringLiteral{Value: "outer"}},
			},
		},
	)
}

func TestThrowLandsInInnermostHandler(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	cb, err := rt.Compile(nestedTryInnermost())
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, "inner:boom", asGoString(t, v))
}

// iifeSum builds:
//
//	return (function () {
//	  let s = 0;
//	  for (let i = 0; i < 100; i = i + 1) s = s + i;
//	  return s;
//	})();
func iifeSum() *ast.Program {
	return program(&ast.ReturnStmt{Argument: &ast.CallExpr{
		Callee: &ast.FunctionLiteral{
			Body: []ast.Stmt{
				&ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{
					{Name: "s", Init: &ast.NumberLiteral{Value: 0}},
				}},
				&ast.ForStmt{
					Init: &ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{
						{Name: "i", Init: &ast.NumberLiteral{Value: 0}},
					}},
					Test: &ast.BinaryExpr{
						Op:    "<",
						Left:  &ast.Identifier{Name: "i"},
						Right: &ast.NumberLiteral{Value: 100},
					},
					Update: &ast.AssignExpr{
						Op:     "=",
						Target: &ast.Identifier{Name: "i"},
						Value: &ast.BinaryExpr{
							Op:    "+",
							Left:  &ast.Identifier{Name: "i"},
							Right: &ast.NumberLiteral{Value: 1},
						},
					},
					Body: &ast.ExprStmt{Expr: &ast.AssignExpr{
						Op:     "=",
						Target: &ast.Identifier{Name: "s"},
						Value: &ast.BinaryExpr{
							Op:    "+",
							Left:  &ast.Identifier{Name: "s"},
							Right: &ast.Identifier{Name: "i"},
						},
					}},
				},
				&ast.ReturnStmt{Argument: &ast.Identifier{Name: "s"}},
			},
		},
	}})
}

func TestImmediatelyInvokedFunctionSums(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	cb, err := rt.Compile(iifeSum())
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(4950), v.AsFloat64())
}

// TestClosureCapturesOuterBinding checks that a nested function reads and
// writes a binding declared in its enclosing function through the
// environment chain:
//
//	var n = 0;
//	function bump() { n = n + 1; return n }
//	bump(); bump();
//	return bump();
func TestClosureCapturesOuterBinding(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	call := func() *ast.CallExpr {
		return &ast.CallExpr{Callee: &ast.Identifier{Name: "bump"}}
	}
	prog := program(
		&ast.VarDecl{Kind: ast.VarVar, Declarators: []ast.VarDeclarator{
			{Name: "n", Init: &ast.NumberLiteral{Value: 0}},
		}},
		&ast.FunctionDecl{Fn: &ast.FunctionLiteral{
			Name: "bump",
			Body: []ast.Stmt{
				&ast.ExprStmt{Expr: &ast.AssignExpr{
					Op:     "=",
					Target: &ast.Identifier{Name: "n"},
					Value: &ast.BinaryExpr{
						Op:    "+",
						Left:  &ast.Identifier{Name: "n"},
						Right: &ast.NumberLiteral{Value: 1},
					},
				}},
				&ast.ReturnStmt{Argument: &ast.Identifier{Name: "n"}},
			},
		}},
		&ast.ExprStmt{Expr: call()},
		&ast.ExprStmt{Expr: call()},
		&ast.ReturnStmt{Argument: call()},
	)

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsFloat64())
}

// TestFunctionCallerIsUndefined checks that a function object has
// no populated caller property, so the read yields undefined and the
// conditional takes the zero branch.
//
//	function f() { if (f.caller) return 1; return 0 }
//	return f();
func TestFunctionCallerIsUndefined(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	prog := program(
		&ast.FunctionDecl{Fn: &ast.FunctionLiteral{
			Name: "f",
			Body: []ast.Stmt{
				&ast.IfStmt{
					Test: &ast.MemberExpr{
						Object: &ast.Identifier{Name: "f"},
						Name:   "caller",
					},
					Then: &ast.ReturnStmt{Argument: &ast.NumberLiteral{Value: 1}},
				},
				&ast.ReturnStmt{Argument: &ast.NumberLiteral{Value: 0}},
			},
		}},
		&ast.ReturnStmt{Argument: &ast.CallExpr{Callee: &ast.Identifier{Name: "f"}}},
	)

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, int32(0), v.AsInt32())
}
