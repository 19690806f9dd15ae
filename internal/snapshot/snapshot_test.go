package snapshot_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/snapshot"
	"github.com/starjs-engine/starjs/internal/value"
)

func TestRoundTripPlainProperty(t *testing.T) {
	in := interp.New(interp.Params{})
	nativeRefs := jsrt.Bootstrap(in)

	greeting := in.Intern("greeting")
	require.NoError(t, in.Global().Put(in, greeting, value.FromObject(interp.NewString(in, "hello snapshot")), true))
	require.NoError(t, in.Global().Put(in, in.Intern("answer"), value.Int32(42), true))

	data, err := snapshot.Serialize(in, nativeRefs)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	out, _, err := snapshot.Deserialize(data, interp.Params{}, nil)
	require.NoError(t, err)

	slot, ok := out.Global().Get(out, greeting)
	require.True(t, ok)
	s, isObj := slot.Value.AsRef().(*interp.JsString)
	require.True(t, isObj)
	require.Equal(t, "hello snapshot", s.String())

	answerSlot, ok := out.Global().Get(out, out.Intern("answer"))
	require.True(t, ok)
	require.Equal(t, int32(42), answerSlot.Value.AsInt32())
}

func TestRoundTripWeakRefToObject(t *testing.T) {
	in := interp.New(interp.Params{})
	nativeRefs := jsrt.Bootstrap(in)

	target := object.NewOrdinaryObject(in, in.ObjectProto())
	require.NoError(t, target.Put(in, in.Intern("marker"), value.Int32(7), true))

	weakHolder := object.NewOrdinaryObject(in, in.ObjectProto())
	weakHolder.SetTail(jsrt.NewWeakRefTail(in.Heap().MakeWeak(target)))
	require.NoError(t, in.Global().Put(in, in.Intern("target"), value.FromObject(target), true))
	require.NoError(t, in.Global().Put(in, in.Intern("holder"), value.FromObject(weakHolder), true))

	data, err := snapshot.Serialize(in, nativeRefs)
	require.NoError(t, err)

	out, _, err := snapshot.Deserialize(data, interp.Params{}, nil)
	require.NoError(t, err)

	holderSlot, ok := out.Global().Get(out, out.Intern("holder"))
	require.True(t, ok)
	restoredHolder := holderSlot.Value.AsRef().(*object.JsObject)

	slot, ok := jsrt.WeakSlotOf(restoredHolder.Tail())
	require.True(t, ok)
	upgraded, live := slot.Upgrade()
	require.True(t, live)

	restoredTarget := upgraded.(*object.JsObject)
	markerSlot, ok := restoredTarget.Get(out, out.Intern("marker"))
	require.True(t, ok)
	require.Equal(t, int32(7), markerSlot.Value.AsInt32())
}

func TestDeserializeRejectsForeignBuffer(t *testing.T) {
	_, _, err := snapshot.Deserialize([]byte("not a snapshot"), interp.Params{}, nil)
	require.Error(t, err)
}

// TestSerializeIsDeterministic serializes the same runtime twice and
// requires byte-identical output, reporting any divergence as a unified
// diff of the two hex dumps. Determinism is what makes the bootstrap
// prefix-reuse scheme in Deserialize trustworthy.
func TestSerializeIsDeterministic(t *testing.T) {
	in := interp.New(interp.Params{})
	nativeRefs := jsrt.Bootstrap(in)
	require.NoError(t, in.Global().Put(in, in.Intern("alpha"), value.Int32(1), true))
	require.NoError(t, in.Global().Put(in, in.Intern("beta"), value.FromObject(interp.NewString(in, "two")), true))

	first, err := snapshot.Serialize(in, nativeRefs)
	require.NoError(t, err)
	second, err := snapshot.Serialize(in, nativeRefs)
	require.NoError(t, err)

	if !bytes.Equal(first, second) {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(hex.Dump(first)),
			B:        difflib.SplitLines(hex.Dump(second)),
			FromFile: "first",
			ToFile:   "second",
			Context:  2,
		})
		t.Fatalf("serialize is not deterministic:\n%s", diff)
	}
}
