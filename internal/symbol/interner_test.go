package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starjs-engine/starjs/internal/symbol"
)

func TestInternIsIdempotentAndStartsAtPublicStart(t *testing.T) {
	table := symbol.NewTable()

	a := table.Intern("foo")
	b := table.Intern("foo")

	require.Equal(t, a, b)
	require.True(t, a.Kind() == symbol.KindKey)
	require.GreaterOrEqual(t, uint32(a.ID()), uint32(symbol.PublicStart))
	require.Equal(t, "foo", table.String(a.ID()))
}

func TestInternAssignsDistinctIDsToDistinctStrings(t *testing.T) {
	table := symbol.NewTable()

	foo := table.Intern("foo")
	bar := table.Intern("bar")

	require.NotEqual(t, foo.ID(), bar.ID())
	require.Equal(t, "foo", table.String(foo.ID()))
	require.Equal(t, "bar", table.String(bar.ID()))
}

func TestEachPublicVisitsOnlyRuntimeInternedStrings(t *testing.T) {
	table := symbol.NewTable()
	table.Intern("alpha")
	table.Intern("beta")

	var seen []string
	table.EachPublic(func(id symbol.ID, s string) {
		require.False(t, symbol.IsWellKnown(id))
		seen = append(seen, s)
	})

	require.Equal(t, []string{"alpha", "beta"}, seen)
}

func TestRebindReconstructsPublicPartitionAfterDeserialization(t *testing.T) {
	original := symbol.NewTable()
	sym := original.Intern("restored")

	fresh := symbol.NewTable()
	fresh.Rebind(sym.ID(), "restored")

	require.Equal(t, "restored", fresh.String(sym.ID()))
}

func TestIndexSymbolIsNotAKey(t *testing.T) {
	idx := symbol.Index(7)

	require.True(t, idx.IsIndex())
	require.Equal(t, uint32(7), idx.Index())
}
