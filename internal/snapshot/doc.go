// Package snapshot serializes a running Interp's entire object graph to a
// byte buffer and reconstructs a functionally identical Interp from one.
//
// The format is not a persistence format across engine versions: the
// reference table (native functions, class descriptors, cell-type
// deserializer vtables) is rebuilt fresh on both the serialize and
// deserialize side by re-running internal/jsrt.Bootstrap, so a snapshot is
// only ever read back by the same build of this module.
//
// File layout, little-endian throughout:
//
//	[4 bytes magic "STJS"] [u8 format version]
//	[16 bytes runtime UUID] [u32 external_ref_count]
//	[u32 symbol_count] repeated { u32 id, u32 len, bytes[len] }
//	[u32 cell_count]   repeated { u32 type_id, u32 payload_len, bytes[payload_len] }
//	[code table: u32 block_count, repeated CodeBlock bodies]
//	[u32 weak_count]   repeated { u8 present, [u32 target_ref] }
//	[u32 global_ref]
//
// The cell section precedes the code table and weak section, not the
// other way around, because a code literal or a weak slot's target can
// reference a cell by index before that cell's own payload has been
// decoded; Deserialize pre-allocates every cell's address from this
// section's type_id list alone, then resolves the code table and weak
// slots against those addresses, and only decodes each cell's buffered
// payload bytes in a final pass (see deserialize.go). type_id indexes
// the small fixed cell-type-descriptor table in typeid.go, which
// resolves both the allocator and the decoder for that id together.
// Object references within a cell or code-block payload (structure
// prototypes, environment parents, function closures, weak targets)
// are table positions into the cells built from heap.Heap.Walk order;
// weak slots are table positions from heap.Heap.WalkWeakSlots order;
// native function closures are recovered by index into the
// jsrt.ReferenceTable Bootstrap deterministically rebuilds.
package snapshot
