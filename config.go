package starjs

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/rtlog"
)

// RuntimeConfig controls Runtime construction, with the default
// implementation as NewRuntimeConfig: an immutable value built up
// through chained With* methods, each returning a modified copy so a
// config can be shared as a base and specialized per Runtime without
// aliasing. Every field is
// copy-safe on assignment, so the value receiver alone is enough and no
// explicit clone step is needed.
type RuntimeConfig struct {
	heapConfig    heap.Config
	maxVectorSize uint32
	ctx           context.Context
	externalRefs  []interface{}
	logWriter     io.Writer
	logLevel      zerolog.Level
	runtimeID     uuid.UUID
	nativeSetup   func(*Runtime)
}

// NewRuntimeConfig returns the default configuration: a 4096-cell GC
// threshold, no external references, and logging discarded until
// WithLogger attaches a sink.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		heapConfig:    heap.NewConfig(),
		maxVectorSize: object.DefaultMaxVectorSize,
		ctx:           context.Background(),
		logLevel:      zerolog.InfoLevel,
	}
}

// WithContext sets the context Run observes for cancellation;
// CollectGarbage does not consult it. Defaults to context.Background if
// nil.
func (c RuntimeConfig) WithContext(ctx context.Context) RuntimeConfig {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	return c
}

// WithGCThreshold sets the number of allocated cells before the
// collector's first automatic cycle, and the growth factor applied
// after a cycle that reclaims less than half the live set. A threshold
// <= 0 or a growthFactor <= 1 is not rejected: the collector replaces it
// with its default (4096 cells, 1.5x).
func (c RuntimeConfig) WithGCThreshold(threshold int, growthFactor float64) RuntimeConfig {
	c.heapConfig.InitialThreshold = threshold
	c.heapConfig.GrowthFactor = growthFactor
	return c
}

// WithMaxVectorSize sets the index limit of an object's dense
// indexed-element vector: a write at index n or above moves that object's
// elements to sparse (map) storage, mirroring DefaultMaxVectorSize's role
// in internal/object.
func (c RuntimeConfig) WithMaxVectorSize(n uint32) RuntimeConfig {
	c.maxVectorSize = n
	return c
}

// WithExternalReferences registers a host-supplied pool of addresses a
// native function may box into a Value, addressable by index the same
// way internal/jsrt's native functions are. The same pool (same length,
// same order) must be supplied again to FromSnapshot when restoring a
// snapshot taken from a Runtime configured with this option.
func (c RuntimeConfig) WithExternalReferences(refs ...interface{}) RuntimeConfig {
	c.externalRefs = refs
	return c
}

// WithLogger attaches a structured logging sink for GC cycles, structure
// transition table growth, and inline cache invalidation events. If w is
// nil, log output is discarded; level is used as given.
func (c RuntimeConfig) WithLogger(w io.Writer, level zerolog.Level) RuntimeConfig {
	c.logWriter = w
	c.logLevel = level
	return c
}

// WithNativeSetup registers a function run once against every Runtime
// built from this config — after bootstrap in NewRuntime, and after
// bootstrap but before any snapshot cell is resolved in FromSnapshot.
// It is where a host performs its DefineNativeFunction /
// DefineNativeClass / RegisterBuiltin calls: running the identical
// registrations in the identical order on both sides is what lets a
// snapshot taken from a host-extended Runtime resolve those natives on
// restore.
func (c RuntimeConfig) WithNativeSetup(setup func(*Runtime)) RuntimeConfig {
	c.nativeSetup = setup
	return c
}

// WithRuntimeID pins the Runtime's id instead of letting NewRuntime
// generate a random one, or instead of inheriting the id recorded in a
// snapshot passed to FromSnapshot.
func (c RuntimeConfig) WithRuntimeID(id uuid.UUID) RuntimeConfig {
	c.runtimeID = id
	return c
}

func (c RuntimeConfig) toParams() interp.Params {
	logger := rtlog.Discard()
	if c.logWriter != nil {
		logger = rtlog.New(c.logWriter, c.logLevel)
	}
	return interp.Params{
		HeapConfig:    c.heapConfig,
		MaxVectorSize: c.maxVectorSize,
		Logger:        logger,
		Context:       c.ctx,
		ExternalRefs:  c.externalRefs,
		RuntimeID:     c.runtimeID,
	}
}
