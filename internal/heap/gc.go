package heap

import (
	"sync"

	"github.com/starjs-engine/starjs/internal/rtlog"
)

// Config tunes the collector. New replaces a non-positive
// InitialThreshold, a GrowthFactor <= 1 and a nil Logger with the defaults
// NewConfig returns, so a zero-value Config also works.
type Config struct {
	// InitialThreshold is the number of allocated cells before the first
	// automatic collection is attempted.
	InitialThreshold int
	// GrowthFactor multiplies the threshold after a collection that
	// reclaims less than half of the live set, so that workloads with a
	// large persistent heap don't collect on every allocation.
	GrowthFactor float64
	Logger       *rtlog.Logger
	RuntimeID    string
}

// NewConfig returns the default collector tuning: a 4096-cell initial
// threshold and 1.5x growth, discarding log output until a logger is
// attached.
func NewConfig() Config {
	return Config{
		InitialThreshold: 4096,
		GrowthFactor:     1.5,
		Logger:           rtlog.Discard(),
	}
}

// RootFunc supplies the collector with the current root set (global
// object, live call frames, cached root shapes) each cycle. The Heap
// does not track roots itself: the Runtime owns root enumeration.
type RootFunc func(t Tracer)

// Heap is the engine's managed arena: a mark-sweep collector over cells
// held strongly until swept, plus the weak-slot table.
type Heap struct {
	mu    sync.Mutex
	cfg   Config
	cells []Cell
	weaks []*WeakSlot

	cycles         uint64
	allocsSinceGC  int
	threshold      int
}

// New builds an empty Heap using cfg's tuning.
func New(cfg Config) *Heap {
	if cfg.Logger == nil {
		cfg.Logger = rtlog.Discard()
	}
	if cfg.InitialThreshold <= 0 {
		cfg.InitialThreshold = 4096
	}
	if cfg.GrowthFactor <= 1.0 {
		cfg.GrowthFactor = 1.5
	}
	return &Heap{
		cfg:       cfg,
		cells:     make([]Cell, 0, cfg.InitialThreshold),
		threshold: cfg.InitialThreshold,
	}
}

// Allocate registers a newly constructed cell with the arena. Every
// engine-level "new Structure/JsObject/Environment/JsString" call routes through
// here exactly once, at construction time, with the cell starting white.
func (h *Heap) Allocate(c Cell) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Header().ForceSetState(StateDefinitelyWhite)
	h.cells = append(h.cells, c)
	h.allocsSinceGC++
}

// MakeWeak allocates a WeakSlot pointing at target and retains it in the
// heap-level weak-slot list so the collector visits it every cycle.
func (h *Heap) MakeWeak(target Cell) *WeakSlot {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot := &WeakSlot{State: WeakUnmarked, Target: target}
	h.weaks = append(h.weaks, slot)
	return slot
}

// CollectIfNecessary runs a collection when the number of allocations
// since the last cycle reaches the current threshold. It is called from
// the interpreter's safepoints: function entry, loop back-edges, and
// allocating opcodes.
func (h *Heap) CollectIfNecessary(roots RootFunc) {
	h.mu.Lock()
	due := h.allocsSinceGC >= h.threshold
	h.mu.Unlock()
	if due {
		h.Collect(roots)
	}
}

// Collect runs one full mark-sweep cycle unconditionally.
func (h *Heap) Collect(roots RootFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, w := range h.weaks {
		if w.State == WeakMarked {
			w.State = WeakUnmarked
		}
	}

	var worklist []Cell
	tr := &markTracer{worklist: &worklist}
	if roots != nil {
		roots(tr)
	}
	for len(worklist) > 0 {
		n := len(worklist) - 1
		cell := worklist[n]
		worklist = worklist[:n]
		cell.Trace(tr)
		cell.Header().ForceSetState(StatePossiblyBlack)
	}

	for _, w := range h.weaks {
		if w.Target == nil {
			// Cleared on an earlier cycle; release the slot. Holders keep
			// their own pointer and keep observing a failed upgrade.
			w.State = WeakFree
			continue
		}
		if w.Target.Header().State() != StatePossiblyBlack {
			w.Target = nil
			w.State = WeakUnmarked
		} else {
			w.State = WeakMarked
		}
	}

	live := h.cells[:0]
	reclaimed := 0
	for _, c := range h.cells {
		if c.Header().State() == StatePossiblyBlack {
			c.Header().ForceSetState(StateDefinitelyWhite)
			live = append(live, c)
		} else {
			reclaimed++
		}
	}
	h.cells = live

	liveWeaks := h.weaks[:0]
	for _, w := range h.weaks {
		if w.State != WeakFree {
			liveWeaks = append(liveWeaks, w)
		}
	}
	h.weaks = liveWeaks

	h.cycles++
	reclaimedBytes := uint64(reclaimed) * 64 // approximate average cell footprint for diagnostics only
	if reclaimed*2 < len(h.cells) {
		h.threshold = int(float64(h.threshold) * h.cfg.GrowthFactor)
	}
	h.allocsSinceGC = 0
	h.cfg.Logger.GCCycle(h.cfg.RuntimeID, h.cycles, len(h.cells), reclaimed, reclaimedBytes)
}

// Walk visits every live cell in arena order, used by the snapshot
// serializer to build its reference map.
func (h *Heap) Walk(f func(Cell)) {
	h.mu.Lock()
	cells := make([]Cell, len(h.cells))
	copy(cells, h.cells)
	h.mu.Unlock()
	for _, c := range cells {
		f(c)
	}
}

// WalkWeakSlots visits every retained weak slot, present or cleared, used
// by the snapshot serializer to emit the weak-slot section.
func (h *Heap) WalkWeakSlots(f func(*WeakSlot)) {
	h.mu.Lock()
	slots := make([]*WeakSlot, len(h.weaks))
	copy(slots, h.weaks)
	h.mu.Unlock()
	for _, s := range slots {
		f(s)
	}
}

// Cycles returns the number of completed collection cycles, exposed for
// diagnostics and tests.
func (h *Heap) Cycles() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cycles
}

// LiveCount returns the number of cells currently retained by the arena.
func (h *Heap) LiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cells)
}

type markTracer struct {
	worklist *[]Cell
}

func (t *markTracer) Visit(child Cell) {
	if child == nil {
		return
	}
	if child.Header().CAS(StateDefinitelyWhite, StatePossiblyGrey) {
		*t.worklist = append(*t.worklist, child)
	}
}

func (t *markTracer) VisitWeak(slot *WeakSlot) {
	// Weak edges contribute nothing to reachability; they are resolved
	// against the mark results after the worklist drains, in Collect.
	_ = slot
}
