package metrics

import (
	"context"

	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/ledger"
)

// Reader computes dashboards from stored state.
type Reader struct {
	Catalog *catalog.Store
	Log     *ledger.Log
}

// Dashboard reads the catalog and the log and computes a Dashboard listing
// the n most recent transactions.
func (r Reader) Dashboard(ctx context.Context, n int) (Dashboard, error) {
	products, err := r.Catalog.List(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	txs, err := r.Log.List(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Compute(products, txs, n), nil
}
