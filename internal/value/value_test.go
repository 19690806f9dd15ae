package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/value"
)

type fakeRef struct{ name string }

func (f *fakeRef) TypeName() string { return f.name }

func TestSingletonsHaveDistinctKinds(t *testing.T) {
	require.Equal(t, value.KindUndefined, value.Undefined.Kind())
	require.Equal(t, value.KindNull, value.Null.Kind())
	require.Equal(t, value.KindEmpty, value.Empty.Kind())
	require.Equal(t, value.KindBool, value.True.Kind())
	require.Equal(t, value.KindBool, value.False.Kind())
	require.NotEqual(t, value.True, value.False)
}

func TestInt32RoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, math.MaxInt32, math.MinInt32} {
		v := value.Int32(n)
		require.Equal(t, value.KindInt32, v.Kind())
		require.Equal(t, n, v.AsInt32())
		require.True(t, v.IsNumber())
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, f := range []float64{0, -0.0, 1.5, -1e300, math.Inf(1), math.Inf(-1)} {
		v := value.Number(f)
		require.Equal(t, value.KindNumber, v.Kind())
		require.Equal(t, f, v.AsFloat64())
	}
}

func TestNaNCanonicalizedAndDistinctFromTags(t *testing.T) {
	v := value.Number(math.NaN())
	require.Equal(t, value.KindNumber, v.Kind())
	require.True(t, math.IsNaN(v.AsFloat64()))
}

func TestObjectBoxing(t *testing.T) {
	ref := &fakeRef{name: "obj"}
	v := value.FromObject(ref)
	require.True(t, v.IsObject())
	require.Same(t, ref, v.AsRef())
}

func TestToBoolean(t *testing.T) {
	require.False(t, value.Undefined.ToBoolean())
	require.False(t, value.Null.ToBoolean())
	require.False(t, value.Number(0).ToBoolean())
	require.False(t, value.Number(math.NaN()).ToBoolean())
	require.True(t, value.Number(1).ToBoolean())
	require.True(t, value.Int32(5).ToBoolean())
	require.False(t, value.Int32(0).ToBoolean())
	require.True(t, value.True.ToBoolean())
	require.True(t, value.FromObject(&fakeRef{}).ToBoolean())
}

func TestTypeOf(t *testing.T) {
	require.Equal(t, "undefined", value.Undefined.TypeOf())
	require.Equal(t, "object", value.Null.TypeOf())
	require.Equal(t, "boolean", value.True.TypeOf())
	require.Equal(t, "number", value.Int32(1).TypeOf())
	require.Equal(t, "number", value.Number(1.5).TypeOf())
	require.Equal(t, "object", value.FromObject(&fakeRef{}).TypeOf())
}

func TestSameValueZero(t *testing.T) {
	require.True(t, value.SameValueZero(value.Number(math.NaN()), value.Number(math.NaN())))
	require.True(t, value.SameValueZero(value.Int32(1), value.Number(1)))
	require.False(t, value.SameValueZero(value.Int32(1), value.Number(1.5)))
	ref := &fakeRef{}
	require.True(t, value.SameValueZero(value.FromObject(ref), value.FromObject(ref)))
	require.False(t, value.SameValueZero(value.FromObject(ref), value.FromObject(&fakeRef{})))
}
