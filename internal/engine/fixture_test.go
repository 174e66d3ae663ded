package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleRecords covers two regions, three sub-regions and four countries.
//
//	Europe/Western Europe: France, Germany
//	Europe/Northern Europe: Norway
//	Asia/Eastern Asia: Japan
func sampleRecords() []Record {
	return []Record{
		{"France", "Europe", "Western Europe", "pig", 1990, 30, 56_000_000},
		{"France", "Europe", "Western Europe", "beef", 1990, 25, 56_000_000},
		{"France", "Europe", "Western Europe", "pig", 1991, 31, 57_000_000},
		{"Germany", "Europe", "Western Europe", "pig", 1990, 40, 80_000_000},
		{"Germany", "Europe", "Western Europe", "poultry", 1991, 12, 80_000_000},
		{"Norway", "Europe", "Northern Europe", "sheep", 1990, 5, 4_000_000},
		{"Norway", "Europe", "Northern Europe", "pig", 1992, 22, 4_100_000},
		{"Japan", "Asia", "Eastern Asia", "poultry", 1990, 10, 123_000_000},
		{"Japan", "Asia", "Eastern Asia", "pig", 1991, 15, 124_000_000},
		{"Japan", "Asia", "Eastern Asia", "beef", 1992, 7, 124_500_000},
	}
}

func sampleRelation(t *testing.T) Relation {
	t.Helper()
	store, err := FromRecords(sampleRecords())
	require.NoError(t, err)
	return store.All()
}

func relationOf(t *testing.T, records ...Record) Relation {
	t.Helper()
	store, err := FromRecords(records)
	require.NoError(t, err)
	return store.All()
}
