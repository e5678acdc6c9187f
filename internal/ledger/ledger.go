// Package ledger is the transaction log: completed sales, newest first.
//
// Prepending is the only mutation. Transactions are never edited or removed,
// and they keep their own copies of product fields, so deleting a product
// leaves history intact.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/store"
)

// BlobKey is the store key of the transaction log.
const BlobKey = "campusmart_transactions"

// Transaction is a completed sale.
type Transaction struct {
	ID        string          `json:"id"`
	Items     []cart.Line     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// ItemCount returns the total number of units sold.
func (t Transaction) ItemCount() int {
	n := 0
	for _, l := range t.Items {
		n += l.Quantity
	}
	return n
}

// Log is the Transaction Log.
type Log struct {
	coll *store.Collection[[]Transaction]
}

// New creates a log over backend. A missing blob reads as an empty log.
func New(backend store.Backend, policy store.CorruptPolicy, logger *slog.Logger) *Log {
	return &Log{
		coll: &store.Collection[[]Transaction]{
			Backend: backend,
			Key:     BlobKey,
			Seed:    func() []Transaction { return []Transaction{} },
			Policy:  policy,
			Logger:  logger,
		},
	}
}

// List returns every transaction, newest first.
func (l *Log) List(ctx context.Context) ([]Transaction, error) {
	txs, _, err := l.Snapshot(ctx)
	return txs, err
}

// Recent returns at most n transactions, newest first.
func (l *Log) Recent(ctx context.Context, n int) ([]Transaction, error) {
	txs, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	return Head(txs, n), nil
}

// Snapshot returns the log with its blob version.
func (l *Log) Snapshot(ctx context.Context) ([]Transaction, int64, error) {
	txs, version, err := l.coll.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, version, nil
}

// Append prepends tx and persists the log.
func (l *Log) Append(ctx context.Context, tx Transaction) error {
	txs, version, err := l.Snapshot(ctx)
	if err != nil {
		return err
	}
	w, err := l.PrependWrite(txs, version, tx)
	if err != nil {
		return err
	}
	if err := l.coll.Backend.Commit(ctx, w); err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}
	return nil
}

// PrependWrite builds the write that stores tx ahead of txs, checked against
// version, for use in a combined store.Commit.
func (l *Log) PrependWrite(txs []Transaction, version int64, tx Transaction) (store.Write, error) {
	next := make([]Transaction, 0, len(txs)+1)
	next = append(next, tx)
	next = append(next, txs...)
	return l.coll.Write(next, version)
}

// Head returns the first n transactions (all of them when n is larger).
// A negative n returns none.
func Head(txs []Transaction, n int) []Transaction {
	n = max(0, min(n, len(txs)))
	out := make([]Transaction, n)
	copy(out, txs[:n])
	return out
}
