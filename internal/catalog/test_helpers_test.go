package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/campusmart/internal/ids"
	"github.com/roach88/campusmart/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCatalog(t *testing.T, backend store.Backend, idList ...string) *Store {
	t.Helper()
	c, err := New(backend, Options{IDs: ids.NewFixedGenerator(idList...)})
	require.NoError(t, err)
	return c
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
