package starjs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs"
	"github.com/starjs-engine/starjs/internal/ast"
)

// program wraps body statements into a top-level, non-strict Program,
// standing in for what a host's own parser would hand to Compile.
func program(body ...ast.Stmt) *ast.Program {
	return &ast.Program{Body: body}
}

func TestCompileAndRunArithmetic(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	// return 2 * (3 + 4);
	prog := program(&ast.ReturnStmt{
		Argument: &ast.BinaryExpr{
			Op:   "*",
			Left: &ast.NumberLiteral{Value: 2},
			Right: &ast.BinaryExpr{
				Op:    "+",
				Left:  &ast.NumberLiteral{Value: 3},
				Right: &ast.NumberLiteral{Value: 4},
			},
		},
	})

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(14), v.AsFloat64())
}

func TestCompileAndRunLoopWithLetBinding(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	// let sum = 0;
	// for (let i = 0; i < 5; i = i + 1) sum = sum + i;
	// return sum;
	prog := program(
		&ast.VarDecl{
			Kind: ast.VarLet,
			Declarators: []ast.VarDeclarator{
				{Name: "sum", Init: &ast.NumberLiteral{Value: 0}},
			},
		},
		&ast.ForStmt{
			Init: &ast.VarDecl{
				Kind: ast.VarLet,
				Declarators: []ast.VarDeclarator{
					{Name: "i", Init: &ast.NumberLiteral{Value: 0}},
				},
			},
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
			Body: &ast.ExprStmt{Expr: &ast.AssignExpr{
				Op:     "=",
				Target: &ast.Identifier{Name: "sum"},
				Value: &ast.BinaryExpr{
					Op:    "+",
					Left:  &ast.Identifier{Name: "sum"},
					Right: &ast.Identifier{Name: "i"},
				},
			}},
		},
		&ast.ReturnStmt{Argument: &ast.Identifier{Name: "sum"}},
	)

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(10), v.AsFloat64())
}

func TestCompileAndRunThrowUncaught(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	// throw "boom";
	prog := program(&ast.ThrowStmt{Argument: &ast.StringLiteral{Value: "boom"}})

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	_, err = rt.Run(cb)
	require.Error(t, err)

	var exc *starjs.Exception
	require.ErrorAs(t, err, &exc)
}
