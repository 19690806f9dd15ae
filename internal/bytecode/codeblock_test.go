package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/bytecode"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

func TestBuilderAssemblesOperandsReadableByReadU32AndReadI32(t *testing.T) {
	b := bytecode.NewBuilder("t", 1, 2, true, false)

	litIdx := b.AddLiteral(value.Int32(7))
	nameIdx := b.AddName(symbol.Index(3))

	pushSite := b.Emit(bytecode.OpPushInt)
	b.EmitU32(litIdx)

	jmpSite := b.Emit(bytecode.OpJmp)
	b.EmitI32(0)
	target := b.Here()
	b.PatchI32(jmpSite+1, int32(target-(jmpSite+5)))

	cb := b.Finish()

	require.Equal(t, "t", cb.Name)
	require.Equal(t, 1, cb.ParamCount)
	require.Equal(t, 2, cb.VarCount)
	require.True(t, cb.Strict)
	require.False(t, cb.TopLevel)

	require.Equal(t, litIdx, bytecode.ReadU32(cb.Code, pushSite+1))
	require.Equal(t, int32(target-(jmpSite+5)), bytecode.ReadI32(cb.Code, jmpSite+1))
	require.Equal(t, value.Int32(7), cb.Literals[litIdx])
	require.Equal(t, symbol.Index(3), cb.Names[nameIdx])
}

func TestEnvSizeAccountsForRestParamAndArguments(t *testing.T) {
	b := bytecode.NewBuilder("f", 2, 3, false, false)
	cb := b.Finish()
	require.Equal(t, 5, cb.EnvSize())

	b2 := bytecode.NewBuilder("g", 2, 3, false, false)
	b2.SetRestParam(2)
	b2.SetUsesArguments()
	cb2 := b2.Finish()
	require.Equal(t, 7, cb2.EnvSize())
}

func TestAddFeedbackSlotGrowsFeedbackSliceWithNoFeedback(t *testing.T) {
	b := bytecode.NewBuilder("f", 0, 0, false, false)

	slot0 := b.AddFeedbackSlot()
	slot1 := b.AddFeedbackSlot()
	require.NotEqual(t, slot0, slot1)

	cb := b.Finish()
	require.Len(t, cb.Feedback, 2)
	require.IsType(t, bytecode.NoFeedback{}, cb.Feedback[0])
}

func TestAddNestedCodeAppendsToCodesTable(t *testing.T) {
	b := bytecode.NewBuilder("outer", 0, 0, false, true)
	nested := bytecode.NewBuilder("inner", 0, 0, false, false).Finish()

	idx := b.AddNestedCode(nested)
	cb := b.Finish()

	require.Equal(t, nested, cb.Codes[idx])
}
