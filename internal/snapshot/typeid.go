package snapshot

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/heap"
	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
)

// cellTypeID is the fixed, ordered index into the cell-type descriptor
// table that selects a cell record's allocator and decoder together.
// Order is part of the contract between Serialize and Deserialize and must
// never change within a build.
type cellTypeID uint32

const (
	cellTypeStructure cellTypeID = iota
	cellTypeJsObject
	cellTypeEnvironment
	cellTypeJsString
	cellTypeCount
)

func (id cellTypeID) String() string {
	switch id {
	case cellTypeStructure:
		return "Structure"
	case cellTypeJsObject:
		return "JsObject"
	case cellTypeEnvironment:
		return "Environment"
	case cellTypeJsString:
		return "JsString"
	default:
		return "unknown"
	}
}

// allocBlank pre-allocates a zero-value cell of the given type, the
// "allocate_fn" half of a cell-type descriptor: enough to give the cell
// an address for the relocation map before any payload has been read.
func allocBlank(in *interp.Interp, id cellTypeID) (heap.Cell, error) {
	switch id {
	case cellTypeStructure:
		return object.NewBlankStructure(in), nil
	case cellTypeJsObject:
		return object.NewBlank(in), nil
	case cellTypeEnvironment:
		return object.NewBlankEnvironment(in), nil
	case cellTypeJsString:
		return interp.NewString(in, ""), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown cell type id %d", id)
	}
}

// cellTypeOf identifies which descriptor a live cell belongs to, the
// inverse operation Serialize uses to pick each record's type id.
func cellTypeOf(c heap.Cell) (cellTypeID, error) {
	switch c.(type) {
	case *object.Structure:
		return cellTypeStructure, nil
	case *object.JsObject:
		return cellTypeJsObject, nil
	case *object.Environment:
		return cellTypeEnvironment, nil
	case *interp.JsString:
		return cellTypeJsString, nil
	default:
		return 0, fmt.Errorf("snapshot: cannot serialize cell of type %T", c)
	}
}

// classByName resolves a JsObject's Class method table by its stable
// Name field. Go func values can't be compared or serialized, so a
// deserialized JsObject's class pointer is recovered by name lookup
// against this small registry rather than by any form of address
// reference — the same reasoning jsrt's native-function handling
// applies to closures, applied here to method tables.
func classByName(name string) (*object.Class, error) {
	switch name {
	case object.OrdinaryClass.Name:
		return object.OrdinaryClass, nil
	case interp.ArrayClass().Name:
		return interp.ArrayClass(), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown class descriptor %q", name)
	}
}
