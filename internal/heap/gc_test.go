package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/heap"
)

// node is a minimal heap.Cell used only by this package's tests: a single
// outgoing strong edge plus an optional weak edge, enough to exercise mark,
// sweep, and weak-slot nulling without pulling in the object model.
type node struct {
	header heap.Header
	next *node
	weak *heap.WeakSlot
}

func (n *node) Header() *heap.Header { return &n.header }

func (n *node) Trace(t heap.Tracer) {
	if n.next != nil {
		t.Visit(n.next)
	}
	if n.weak != nil {
		t.VisitWeak(n.weak)
	}
}

func (n *node) TypeName() string { return "node" }

func TestCollectReclaimsUnreachableAndKeepsReachable(t *testing.T) {
	h := heap.New(heap.NewConfig())

	root := &node{}
	h.Allocate(root)
	reachable := &node{}
	h.Allocate(reachable)
	root.next = reachable

	unreachable := &node{}
	h.Allocate(unreachable)

	require.Equal(t, 3, h.LiveCount())

	h.Collect(func(tr heap.Tracer) { tr.Visit(root) })

	require.Equal(t, 2, h.LiveCount())
	require.Equal(t, uint64(1), h.Cycles())
}

func TestWeakSlotNulledOnUnreachable(t *testing.T) {
	h := heap.New(heap.NewConfig())

	root := &node{}
	h.Allocate(root)
	target := &node{}
	h.Allocate(target)
	slot := h.MakeWeak(target)
	root.weak = slot

	// target is only weakly reachable from root; it must be collected and
	// the slot nulled.
	h.Collect(func(tr heap.Tracer) { tr.Visit(root) })

	_, ok := slot.Upgrade()
	require.False(t, ok)
	require.Equal(t, 1, h.LiveCount())
}

func TestWeakSlotSurvivesWhenStronglyReachable(t *testing.T) {
	h := heap.New(heap.NewConfig())

	root := &node{}
	h.Allocate(root)
	target := &node{}
	h.Allocate(target)
	slot := h.MakeWeak(target)
	root.next = target // strong edge keeps target alive independent of the weak one
	root.weak = slot

	h.Collect(func(tr heap.Tracer) { tr.Visit(root) })

	got, ok := slot.Upgrade()
	require.True(t, ok)
	require.Same(t, target, got)
}

func TestCollectIfNecessaryRespectsThreshold(t *testing.T) {
	cfg := heap.NewConfig()
	cfg.InitialThreshold = 2
	h := heap.New(cfg)

	h.Allocate(&node{})
	h.CollectIfNecessary(func(heap.Tracer) {})
	require.Equal(t, uint64(0), h.Cycles(), "threshold not yet reached")

	h.Allocate(&node{})
	h.CollectIfNecessary(func(heap.Tracer) {})
	require.Equal(t, uint64(1), h.Cycles(), "threshold reached, cycle ran")
}
