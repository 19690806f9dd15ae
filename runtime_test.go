package starjs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs"
	"github.com/starjs-engine/starjs/internal/ast"
	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// addOneProgram hand-assembles a top-level script equivalent to
// `return 41 + 1;`, standing in for a compiled AST since this module has
// no source-text parser.
func addOneProgram() *bytecode.CodeBlock {
	b := bytecode.NewBuilder("addOne", 0, 0, true, true)
	b.Emit(bytecode.OpPushInt)
	b.EmitU32(41)
	b.Emit(bytecode.OpPushInt)
	b.EmitU32(1)
	b.Emit(bytecode.OpAdd)
	b.EmitU32(b.AddFeedbackSlot())
	b.Emit(bytecode.OpRet)
	return b.Finish()
}

func TestRuntimeRunsHandAssembledProgram(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	v, err := rt.Run(addOneProgram())
	require.NoError(t, err)
	require.Equal(t, float64(42), v.AsFloat64())
}

func TestRuntimeSnapshotRoundTrip(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	data, err := rt.Snapshot()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := starjs.FromSnapshot(context.Background(), data, starjs.NewRuntimeConfig())
	require.NoError(t, err)

	v, err := restored.Run(addOneProgram())
	require.NoError(t, err)
	require.Equal(t, float64(42), v.AsFloat64())
}

func TestSummarizeReportsGlobalProperties(t *testing.T) {
	rt := starjs.NewRuntime(context.Background(), starjs.NewRuntimeConfig())

	summary := rt.Summarize()
	require.NotZero(t, summary.CellCount)
	require.NotEmpty(t, summary.GlobalProperties)
}

func TestDefineNativeFunctionCallableFromScript(t *testing.T) {
	setup := func(r *starjs.Runtime) {
		r.DefineNativeFunction(nil, "addTwo", 2, func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
			if len(args) < 2 {
				return value.Undefined, nil
			}
			return value.Number(args[0].AsFloat64() + args[1].AsFloat64()), nil
		})
	}
	cfg := starjs.NewRuntimeConfig().WithNativeSetup(setup)
	rt := starjs.NewRuntime(context.Background(), cfg)

	// return addTwo(20, 22);
	prog := &ast.Program{Body: []ast.Stmt{
		&ast.ReturnStmt{Argument: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "addTwo"},
			Args: []ast.Expr{
				&ast.NumberLiteral{Value: 20},
				&ast.NumberLiteral{Value: 22},
			},
		}},
	}}
	cb, err := rt.Compile(prog)
	require.NoError(t, err)
	v, err := rt.Run(cb)
	require.NoError(t, err)
	require.Equal(t, float64(42), v.AsFloat64())

	// The same setup replays on restore, so the snapshot resolves the
	// host native and the restored Runtime can call it too.
	data, err := rt.Snapshot()
	require.NoError(t, err)
	restored, err := starjs.FromSnapshot(context.Background(), data, cfg)
	require.NoError(t, err)
	cb2, err := restored.Compile(prog)
	require.NoError(t, err)
	v2, err := restored.Run(cb2)
	require.NoError(t, err)
	require.Equal(t, float64(42), v2.AsFloat64())
}

func TestRunReportsCanceledContextAsHostError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rt := starjs.NewRuntime(ctx, starjs.NewRuntimeConfig())
	cancel()

	_, err := rt.Run(addOneProgram())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	var exc *starjs.Exception
	require.False(t, errors.As(err, &exc), "cancellation must not surface as a JS exception")
}
