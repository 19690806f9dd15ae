package snapshot

import (
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/jsrt"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
)

// magic and formatVersion open every snapshot, the way a wasm binary opens
// with "\0asm" plus a version word: a cheap, early rejection of a buffer
// that isn't one of these at all, or was written by an incompatible
// build, before any of the real parsing below gets a chance to panic on
// garbage.
var magic = [4]byte{'S', 'T', 'J', 'S'}

const formatVersion = 1

// Serialize walks in's live heap and writes a byte buffer that Deserialize
// can later reconstruct an equivalent Interp from. nativeRefs is the
// ReferenceTable Bootstrap returned when in was constructed; Deserialize
// recovers it by re-running Bootstrap rather than by reading anything
// about native functions from the buffer itself, since a Go closure
// cannot be written to a byte stream.
func Serialize(in *interp.Interp, nativeRefs *jsrt.ReferenceTable) ([]byte, error) {
	rt := buildRefTable(in, nativeRefs)

	codes := newCodeTable()
	for _, c := range rt.cells {
		o, ok := c.(*object.JsObject)
		if !ok {
			continue
		}
		if fd, ok := o.Tail().(*object.FunctionData); ok && fd.Kind == object.FuncUser {
			codes.intern(fd.Code)
		}
	}

	w := &writer{}
	w.rawBytes(magic[:])
	w.u8(formatVersion)

	id := in.ID()
	var idBytes [16]byte
	copy(idBytes[:], id[:])
	w.bytes16(idBytes)
	w.u32(uint32(len(in.ExternalRefs())))

	if err := encodeSymbolTable(w, in); err != nil {
		return nil, err
	}

	// The cell section is written before the code table even though cells
	// reference CodeBlocks (via FuncUser tails): a cell's payload is only
	// resolved against codes during decodeCellInto, which Deserialize runs
	// after both sections are fully read. What the code table's own
	// Literals need earlier than that is just a *resolvable address* for
	// any cell a literal references, which this section's type_id list
	// alone is enough to pre-allocate.
	w.u32(uint32(len(rt.cells)))
	for _, c := range rt.cells {
		typeID, err := cellTypeOf(c)
		if err != nil {
			return nil, err
		}
		sub := &writer{}
		if err := encodeCell(sub, rt, typeID, c, codes); err != nil {
			return nil, err
		}
		w.u32(uint32(typeID))
		w.u32(uint32(sub.buf.Len()))
		w.rawBytes(sub.buf.Bytes())
	}

	if err := encodeCodeTable(w, rt, codes); err != nil {
		return nil, err
	}

	w.u32(uint32(len(rt.weaks)))
	for _, ws := range rt.weaks {
		target, present := ws.Upgrade()
		w.bool(present)
		if present {
			ref, err := rt.cellRef(target)
			if err != nil {
				return nil, err
			}
			w.u32(ref)
		}
	}

	globalRef, err := rt.objRef(in.Global())
	if err != nil {
		return nil, err
	}
	w.u32(globalRef)

	return w.buf.Bytes(), nil
}

func encodeSymbolTable(w *writer, in *interp.Interp) error {
	type entry struct {
		id uint32
		s  string
	}
	var entries []entry
	in.Symbols().EachPublic(func(id symbol.ID, s string) {
		entries = append(entries, entry{id: uint32(id), s: s})
	})
	w.u32(uint32(len(entries)))
	for _, e := range entries {
		w.u32(e.id)
		w.str(e.s)
	}
	return nil
}
