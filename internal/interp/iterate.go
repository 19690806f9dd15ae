package interp

import (
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// enumerableKeys collects for-in's enumeration list: own and inherited
// enumerable string/index keys, walking the prototype chain and
// deduplicating by the first (most-derived) occurrence, snapshotted once at
// FOR_IN_SETUP rather than tracked live against later mutation.
func (in *Interp) enumerableKeys(v value.Value) []symbol.Symbol {
	o, ok := asObject(v)
	if !ok {
		return nil
	}
	seen := map[symbol.Symbol]bool{}
	var keys []symbol.Symbol
	for cur := o; cur != nil; cur = cur.Structure().Prototype() {
		for _, sym := range cur.Class().GetPropertyNames(in, cur, true) {
			if seen[sym] {
				continue
			}
			seen[sym] = true
			keys = append(keys, sym)
		}
	}
	return keys
}
