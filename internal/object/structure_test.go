package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/rtlog"
	"github.com/starjs-engine/starjs/internal/value"
)

func newTestInterp(t *testing.T) *interp.Interp {
	t.Helper()
	return interp.New(interp.Params{
		MaxVectorSize: object.DefaultMaxVectorSize,
		Logger:        rtlog.Discard(),
	})
}

// TestIdenticalPropertyOrderSharesStructure confirms the hidden-class
// invariant the rest of the engine's inline caches depend on: two objects
// built by Put-ing the same properties in the same order end up sharing
// one Structure, so an offset cached against one is valid for the other.
func TestIdenticalPropertyOrderSharesStructure(t *testing.T) {
	in := newTestInterp(t)

	x := in.Intern("x")
	y := in.Intern("y")

	a := object.NewOrdinaryObject(in, nil)
	require.NoError(t, a.Put(in, x, value.Int32(1), true))
	require.NoError(t, a.Put(in, y, value.Int32(2), true))

	b := object.NewOrdinaryObject(in, nil)
	require.NoError(t, b.Put(in, x, value.Int32(10), true))
	require.NoError(t, b.Put(in, y, value.Int32(20), true))

	require.Same(t, a.Structure(), b.Structure())

	offX, _, ok := a.Structure().Get(x)
	require.True(t, ok)
	offY, _, ok := a.Structure().Get(y)
	require.True(t, ok)
	require.NotEqual(t, offX, offY)
}

// TestDifferentPropertyOrderDivergesStructure confirms that adding the
// same two properties in a different order forks onto a different shape,
// since Structure.Get's offsets are positional and order-sensitive.
func TestDifferentPropertyOrderDivergesStructure(t *testing.T) {
	in := newTestInterp(t)

	x := in.Intern("x")
	y := in.Intern("y")

	a := object.NewOrdinaryObject(in, nil)
	require.NoError(t, a.Put(in, x, value.Int32(1), true))
	require.NoError(t, a.Put(in, y, value.Int32(2), true))

	b := object.NewOrdinaryObject(in, nil)
	require.NoError(t, b.Put(in, y, value.Int32(2), true))
	require.NoError(t, b.Put(in, x, value.Int32(1), true))

	require.NotSame(t, a.Structure(), b.Structure())
}

// TestAddPropertyTransitionIsIdempotent confirms that requesting the
// same (symbol, attrs) edge twice
// from the same root returns the identical child Structure rather than
// forking a redundant one.
func TestAddPropertyTransitionIsIdempotent(t *testing.T) {
	in := newTestInterp(t)

	root := object.NewEmptyStructure(in, nil)
	x := in.Intern("x")

	child1, off1 := root.AddPropertyTransition(in, x, object.AttrDefault)
	child2, off2 := root.AddPropertyTransition(in, x, object.AttrDefault)

	require.Same(t, child1, child2)
	require.Equal(t, off1, off2)
}

// TestDeletePropertyTransitionIsUnique confirms deletion forks a unique
// Structure (never shared via the transition cache) and frees the
// deleted property's offset for a later add to reclaim.
func TestDeletePropertyTransitionIsUnique(t *testing.T) {
	in := newTestInterp(t)

	root := object.NewEmptyStructure(in, nil)
	x := in.Intern("x")
	y := in.Intern("y")

	withX, _ := root.AddPropertyTransition(in, x, object.AttrDefault)
	withXY, _ := withX.AddPropertyTransition(in, y, object.AttrDefault)

	afterDelete := withXY.DeletePropertyTransition(in, y)

	require.True(t, afterDelete.IsUnique())
	_, _, ok := afterDelete.Get(y)
	require.False(t, ok)
	require.Equal(t, []uint32{1}, afterDelete.DeletedOffsets())

	again, _ := withX.AddPropertyTransition(in, y, object.AttrDefault)
	_ = again
}

// TestChangeAttributesTransitionCaches confirms repeated requests for the
// same attribute change on the same Structure return the same cached
// sibling shape.
func TestChangeAttributesTransitionCaches(t *testing.T) {
	in := newTestInterp(t)

	root := object.NewEmptyStructure(in, nil)
	x := in.Intern("x")
	withX, _ := root.AddPropertyTransition(in, x, object.AttrDefault)

	readOnlyAttrs := object.AttrEnumerable | object.AttrConfigurable
	s1 := withX.ChangeAttributesTransition(in, x, readOnlyAttrs)
	s2 := withX.ChangeAttributesTransition(in, x, readOnlyAttrs)

	require.Same(t, s1, s2)
	require.NotSame(t, withX, s1)
	_, attrs, ok := s1.Get(x)
	require.True(t, ok)
	require.Equal(t, readOnlyAttrs, attrs)
}
