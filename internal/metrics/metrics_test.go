package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/ledger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func products() catalog.Products {
	return catalog.Products{
		{ID: "1", Name: "College Ruled Notebook", Stock: 50},
		{ID: "2", Name: "Energy Drink - Blue", Stock: 9},
		{ID: "3", Name: "Granola Bar", Stock: 100},
		{ID: "4", Name: "USB-C Cable", Stock: 10},
		{ID: "5", Name: "Lip Balm", Stock: 0},
	}
}

func txs(totals ...string) []ledger.Transaction {
	out := []ledger.Transaction{}
	for i, t := range totals {
		out = append(out, ledger.Transaction{ID: string(rune('a' + i)), Total: d(t)})
	}
	return out
}

func TestTotalRevenue(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(TotalRevenue(nil)))
	assert.Equal(t, "14.48", TotalRevenue(txs("7.00", "2.99", "4.49")).StringFixed(2))
}

func TestTotalRevenue_IsExact(t *testing.T) {
	many := make([]string, 10)
	for i := range many {
		many[i] = "0.10"
	}
	assert.True(t, d("1").Equal(TotalRevenue(txs(many...))))
}

func TestTotalStock(t *testing.T) {
	assert.Equal(t, 169, TotalStock(products()))
	assert.Equal(t, 0, TotalStock(nil))
}

func TestLowStock(t *testing.T) {
	// Threshold is strict: 10 is not low.
	assert.Equal(t, 2, LowStockCount(products()))
	assert.Equal(t, []string{"Energy Drink - Blue", "Lip Balm"}, LowStockNames(products()))
	assert.Equal(t, []string{}, LowStockNames(nil))
}

func TestRecent(t *testing.T) {
	all := txs("1", "2", "3", "4", "5", "6")
	recent := Recent(all, DefaultRecent)
	assert.Len(t, recent, 5)
	assert.Equal(t, "a", recent[0].ID)
	assert.Len(t, Recent(all, 0), 0)
	assert.Len(t, Recent(all[:2], 5), 2)
}

func TestSalesTrend(t *testing.T) {
	all := txs("1", "2", "3", "4", "5", "6", "7", "8", "9")

	trend := SalesTrend(all, SalesTrendSize)
	require.Len(t, trend, 7)
	// Newest-first log, so the trend runs from g back to a reversed.
	assert.Equal(t, SalesPoint{Label: "Tx 1", TransactionID: "g", Amount: d("7")}, trend[0])
	assert.Equal(t, SalesPoint{Label: "Tx 7", TransactionID: "a", Amount: d("1")}, trend[6])

	short := SalesTrend(all[:2], SalesTrendSize)
	require.Len(t, short, 2)
	assert.Equal(t, []string{"b", "a"}, []string{short[0].TransactionID, short[1].TransactionID})

	assert.Empty(t, SalesTrend(nil, SalesTrendSize))
	assert.NotNil(t, SalesTrend(nil, SalesTrendSize))
}

func TestCompute(t *testing.T) {
	dash := Compute(products(), txs("3.50", "2.99"), 1)

	assert.Equal(t, "6.49", dash.TotalRevenue.StringFixed(2))
	assert.Equal(t, 169, dash.TotalStock)
	assert.Equal(t, 2, dash.LowStockCount)
	assert.Equal(t, 2, dash.TransactionCount)
	assert.Equal(t, 5, dash.ProductCount)
	assert.Len(t, dash.RecentTransactions, 1)
	require.Len(t, dash.SalesTrend, 2)
	assert.Equal(t, "b", dash.SalesTrend[0].TransactionID)
}

func TestCompute_Empty(t *testing.T) {
	dash := Compute(catalog.Products{}, []ledger.Transaction{}, DefaultRecent)
	assert.True(t, decimal.Zero.Equal(dash.TotalRevenue))
	assert.Equal(t, 0, dash.TotalStock)
	assert.Equal(t, 0, dash.LowStockCount)
	assert.NotNil(t, dash.LowStockNames)
	assert.NotNil(t, dash.RecentTransactions)
	assert.NotNil(t, dash.SalesTrend)
}
