package interp

import "github.com/starjs-engine/starjs/internal/symbol"

// Well-known property-name symbol IDs, fixed at the same indices
// internal/symbol's Table seeds during NewTable. Keeping them as named
// constants here (rather than re-interning the string on every access)
// avoids a map lookup on hot paths like array length and function arity
// checks.
const (
	symEmpty symbol.ID = iota
	symLength
	symPrototype
	symConstructor
	symProto
	symName
	symMessage
	symValue
	symValueOf
	symToString
	symArguments
	symCaller
	symCall
	symApply
	symBind
	symIterator
)

func wk(id symbol.ID) symbol.Symbol { return symbol.Key(id) }
