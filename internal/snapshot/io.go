package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

func doubleBits(f float64) uint64   { return math.Float64bits(f) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }

// writer accumulates a snapshot's bytes in the same little-endian,
// append-only style internal/bytecode.Builder uses, rather than a
// generic encoding package: every field needs precise control over byte
// layout, and a relocation-table-bearing binary structure is not a shape
// gob/msgpack/protobuf can address by table position.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8) { w.buf.WriteByte(v) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) bytes16(v [16]byte) { w.buf.Write(v[:]) }

func (w *writer) rawBytes(b []byte) { w.buf.Write(b) }

// str writes a length-prefixed UTF-8 string.
func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// reader consumes a snapshot's bytes in the same order writer produced
// them, returning an error (never panicking) on truncation or malformed
// data so Deserialize can report a clean Go error rather than crash a
// host parsing an untrusted buffer.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("snapshot: truncated buffer: need %d bytes at offset %d, have %d", n, r.pos, len(r.data))
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) bytes16() ([16]byte, error) {
	var out [16]byte
	if err := r.need(16); err != nil {
		return out, err
	}
	copy(out[:], r.data[r.pos:r.pos+16])
	r.pos += 16
	return out, nil
}

func (r *reader) rawBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.rawBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) bool() (bool, error) {
	v, err := r.u8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// offset returns the reader's current byte position.
func (r *reader) offset() int { return r.pos }
