// Package metrics derives dashboard figures from the catalog and the
// transaction log. Everything is recomputed on every call.
package metrics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/ledger"
)

// LowStockThreshold: products with stock strictly below it are low.
const LowStockThreshold = 10

// DefaultRecent is how many transactions the dashboard lists.
const DefaultRecent = 5

// SalesTrendSize is how many transactions the sales trend covers.
const SalesTrendSize = 7

// TotalRevenue sums transaction totals.
func TotalRevenue(txs []ledger.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Total)
	}
	return total
}

// TotalStock sums stock across the catalog.
func TotalStock(products catalog.Products) int {
	n := 0
	for _, p := range products {
		n += p.Stock
	}
	return n
}

// LowStock returns products with stock below LowStockThreshold, in catalog
// order.
func LowStock(products catalog.Products) catalog.Products {
	out := catalog.Products{}
	for _, p := range products {
		if p.Stock < LowStockThreshold {
			out = append(out, p)
		}
	}
	return out
}

// LowStockCount counts products with stock below LowStockThreshold.
func LowStockCount(products catalog.Products) int {
	return len(LowStock(products))
}

// LowStockNames lists the names of low-stock products.
func LowStockNames(products catalog.Products) []string {
	names := []string{}
	for _, p := range LowStock(products) {
		names = append(names, p.Name)
	}
	return names
}

// Recent returns the first n transactions of a newest-first log.
func Recent(txs []ledger.Transaction, n int) []ledger.Transaction {
	return ledger.Head(txs, n)
}

// TransactionCount returns the number of transactions.
func TransactionCount(txs []ledger.Transaction) int {
	return len(txs)
}

// SalesPoint is one transaction in the sales trend.
type SalesPoint struct {
	Label         string          `json:"label"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// SalesTrend returns the n most recent transactions of a newest-first log,
// oldest first, labelled "Tx 1" onwards.
func SalesTrend(txs []ledger.Transaction, n int) []SalesPoint {
	head := ledger.Head(txs, n)
	points := make([]SalesPoint, len(head))
	for i, tx := range head {
		j := len(head) - 1 - i
		points[j] = SalesPoint{
			Label:         fmt.Sprintf("Tx %d", j+1),
			TransactionID: tx.ID,
			Amount:        tx.Total,
		}
	}
	return points
}

// Dashboard is every figure the dashboard shows.
type Dashboard struct {
	TotalRevenue       decimal.Decimal      `json:"total_revenue"`
	TotalStock         int                  `json:"total_stock"`
	LowStockCount      int                  `json:"low_stock_count"`
	LowStockNames      []string             `json:"low_stock_names"`
	TransactionCount   int                  `json:"transaction_count"`
	ProductCount       int                  `json:"product_count"`
	RecentTransactions []ledger.Transaction `json:"recent_transactions"`
	SalesTrend         []SalesPoint         `json:"sales_trend"`
}

// Compute builds a Dashboard listing the n most recent transactions.
func Compute(products catalog.Products, txs []ledger.Transaction, n int) Dashboard {
	return Dashboard{
		TotalRevenue:       TotalRevenue(txs),
		TotalStock:         TotalStock(products),
		LowStockCount:      LowStockCount(products),
		LowStockNames:      LowStockNames(products),
		TransactionCount:   TransactionCount(txs),
		ProductCount:       len(products),
		RecentTransactions: Recent(txs, n),
		SalesTrend:         SalesTrend(txs, SalesTrendSize),
	}
}
