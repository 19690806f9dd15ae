package snapshot

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
)

// Deserialize reconstructs an Interp from data, a buffer Serialize
// previously produced. params configures the fresh Interp the same way
// interp.New does; its HeapConfig/MaxVectorSize/Logger/Context fields are
// honored, while RuntimeID is overridden by the snapshot's own recorded
// id unless the caller already set one (the root package's
// WithRuntimeID, used when a host wants to pin a specific id across a
// restore rather than inherit whatever the snapshot carries).
//
// extend, when non-nil, runs immediately after Bootstrap and before any
// cell is resolved: it is the hook through which a host re-applies the
// native registrations (DefineNativeFunction/DefineNativeClass) it
// performed on the Interp the snapshot was taken from, in the same
// order, so the native reference table and the bootstrap heap prefix
// match the serialize side.
func Deserialize(data []byte, params interp.Params, extend func(*interp.Interp, *jsrt.ReferenceTable)) (*interp.Interp, *jsrt.ReferenceTable, error) {
	r := newReader(data)

	magicBytes, err := r.rawBytes(4)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(magicBytes, magic[:]) {
		return nil, nil, fmt.Errorf("snapshot: not a recognized snapshot buffer")
	}
	version, err := r.u8()
	if err != nil {
		return nil, nil, err
	}
	if version != formatVersion {
		return nil, nil, fmt.Errorf("snapshot: unsupported format version %d", version)
	}

	idBytes, err := r.bytes16()
	if err != nil {
		return nil, nil, err
	}
	snapshotID, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: invalid runtime id: %w", err)
	}
	externalRefCount, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	if int(externalRefCount) != len(params.ExternalRefs) {
		return nil, nil, fmt.Errorf("snapshot: external reference count mismatch: snapshot has %d, caller supplied %d", externalRefCount, len(params.ExternalRefs))
	}

	symCount, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	type symEntry struct {
		id uint32
		s  string
	}
	symEntries := make([]symEntry, symCount)
	for i := range symEntries {
		if symEntries[i].id, err = r.u32(); err != nil {
			return nil, nil, err
		}
		if symEntries[i].s, err = r.str(); err != nil {
			return nil, nil, err
		}
	}

	in := interp.New(params)
	nativeRefs := jsrt.Bootstrap(in)
	if params.RuntimeID == uuid.Nil {
		in.SetID(snapshotID)
	}
	for _, e := range symEntries {
		in.Symbols().Rebind(symbol.ID(e.id), e.s)
	}
	if extend != nil {
		extend(in, nativeRefs)
	}

	var bootstrapCells []heap.Cell
	in.Heap().Walk(func(c heap.Cell) { bootstrapCells = append(bootstrapCells, c) })
	bootstrapCount := len(bootstrapCells)

	// Cell headers are read, and every cell given an address, before the
	// code table or the weak section: both of those can reference a cell
	// by index (a code literal pointing at a compile-time constant object,
	// a weak slot's target) and need a resolvable heap.Cell to box, even
	// though that cell's own fields aren't filled in until the final
	// decode pass below.
	cellCount, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	typeIDs := make([]cellTypeID, cellCount)
	payloads := make([][]byte, cellCount)
	for i := range typeIDs {
		tid, err := r.u32()
		if err != nil {
			return nil, nil, err
		}
		typeIDs[i] = cellTypeID(tid)
		n, err := r.u32()
		if err != nil {
			return nil, nil, err
		}
		if payloads[i], err = r.rawBytes(int(n)); err != nil {
			return nil, nil, err
		}
	}

	cells := make([]heap.Cell, cellCount)
	for i := range cells {
		if i < bootstrapCount {
			if actual, err := cellTypeOf(bootstrapCells[i]); err != nil || actual != typeIDs[i] {
				return nil, nil, fmt.Errorf("snapshot: bootstrap cell %d type mismatch with recorded snapshot (bootstrap drifted from build that wrote this snapshot)", i)
			}
			cells[i] = bootstrapCells[i]
			continue
		}
		cells[i], err = allocBlank(in, typeIDs[i])
		if err != nil {
			return nil, nil, err
		}
	}

	rt := &refTable{nativeRefs: nativeRefs, cells: cells}

	codes, err := decodeCodeTable(r, rt)
	if err != nil {
		return nil, nil, err
	}

	weakCount, err := r.u32()
	if err != nil {
		return nil, nil, err
	}
	weakPresent := make([]bool, weakCount)
	weakTargetRef := make([]uint32, weakCount)
	for i := range weakPresent {
		if weakPresent[i], err = r.bool(); err != nil {
			return nil, nil, err
		}
		if weakPresent[i] {
			if weakTargetRef[i], err = r.u32(); err != nil {
				return nil, nil, err
			}
		}
	}

	globalRef, err := r.u32()
	if err != nil {
		return nil, nil, err
	}

	weaks := make([]*heap.WeakSlot, weakCount)
	for i := range weaks {
		var target heap.Cell
		if weakPresent[i] {
			target, err = rt.resolveCell(weakTargetRef[i])
			if err != nil {
				return nil, nil, err
			}
		}
		weaks[i] = in.Heap().MakeWeak(target)
	}
	rt.weaks = weaks

	for i := range cells {
		sub := newReader(payloads[i])
		if err := decodeCellInto(sub, rt, typeIDs[i], cells[i], codes); err != nil {
			return nil, nil, fmt.Errorf("snapshot: decoding cell %d (%s): %w", i, typeIDs[i], err)
		}
	}

	globalCell, err := rt.resolveCell(globalRef)
	if err != nil {
		return nil, nil, err
	}
	if globalCell != nil {
		in.SetGlobal(globalCell.(*object.JsObject))
	}

	return in, nativeRefs, nil
}
