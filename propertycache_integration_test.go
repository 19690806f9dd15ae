package starjs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs"
	"github.com/starjs-engine/starjs/internal/ast"
)

// TestGetByIdCacheSurvivesShapeChange checks inline-cache correctness:
// the same GET_BY_ID site, run repeatedly against objects of
// two different Structures (the properties are defined in opposite order,
// so `b` lands at a different slot offset on each), must keep returning
// the correct value instead of trusting a cache installed for one shape.
func TestGetByIdCacheSurvivesShapeChange(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	// let a = {x: 1, b: 2};
	// let c = {b: 20, x: 10};
	// let sum = 0;
	// for (let i = 0; i < 10000; i = i + 1) {
	//   sum = sum + a.b + c.b;
	// }
	// return sum;
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{{
			Name: "a",
			Init: &ast.ObjectLiteral{Properties: []ast.ObjectProperty{
				{Key: "x", Value: &ast.NumberLiteral{Value: 1}},
				{Key: "b", Value: &ast.NumberLiteral{Value: 2}},
			}},
		}}},
		&ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{{
			Name: "c",
			Init: &ast.ObjectLiteral{Properties: []ast.ObjectProperty{
				{Key: "b", Value: &ast.NumberLiteral{Value: 20}},
				{Key: "x", Value: &ast.NumberLiteral{Value: 10}},
			}},
		}}},
		&ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{{
			Name: "sum", Init: &ast.NumberLiteral{Value: 0},
		}}},
		&ast.ForStmt{
			Init: &ast.VarDecl{Kind: ast.VarLet, Declarators: []ast.VarDeclarator{{
				Name: "i", Init: &ast.NumberLiteral{Value: 0},
			}}},
			Test: &ast.BinaryExpr{
				Op:    "<",
				Left:  &ast.Identifier{Name: "i"},
				Right: &ast.NumberLiteral{Value: 10000},
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
					Op: "+",
					Left: &ast.BinaryExpr{
						Op:   "+",
						Left: &ast.Identifier{Name: "sum"},
						Right: &ast.MemberExpr{
							Object: &ast.Identifier{Name: "a"},
							Name:   "b",
						},
					},
					Right: &ast.MemberExpr{
						Object: &ast.Identifier{Name: "c"},
						Name:   "b",
					},
				},
			}},
		},
		&ast.ReturnStmt{Argument: &ast.Identifier{Name: "sum"}},
	}}

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(10000*(2+20)), v.AsFloat64())
}

// TestInt32AdditionOverflowsToFloat checks that ADD on two int32 operands
// whose mathematical sum exceeds the int32 range must produce the exact
// IEEE-754 double rather than wrapping, while in-range sums stay exact
// int32 values.
func TestInt32AdditionOverflowsToFloat(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	// return 2147483647 + 1;
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Argument: &ast.BinaryExpr{
			Op:    "+",
			Left:  &ast.NumberLiteral{Value: 2147483647},
			Right: &ast.NumberLiteral{Value: 1},
		}},
	}}

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(2147483648), v.AsFloat64())
}

func TestInt32AdditionExactWhenInRange(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Argument: &ast.BinaryExpr{
			Op:    "+",
			Left:  &ast.NumberLiteral{Value: 40},
			Right: &ast.NumberLiteral{Value: 2},
		}},
	}}

	cb, err := rt.Compile(prog)
	require.NoError(t, err)

	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(42), v.AsFloat64())
}
