// Package checkout turns a cart into a recorded sale.
//
// A checkout reads the catalog and the transaction log, applies stock
// decrements in memory, and persists both collections in one store.Commit
// checked against the versions it read. Either both writes land or neither
// does.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/ids"
	"github.com/roach88/campusmart/internal/ledger"
	"github.com/roach88/campusmart/internal/store"
)

// State is the engine's observable lifecycle.
type State int

const (
	Idle State = iota
	Processing
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Policy decides whether stock is re-checked against the live catalog.
type Policy string

const (
	// Revalidate rejects the checkout when any line's product is gone or
	// short of stock.
	Revalidate Policy = "revalidate"

	// TrustCart applies decrements without re-checking. Stock may go
	// negative; lines for deleted products are recorded but decrement
	// nothing.
	TrustCart Policy = "trust-cart"
)

// ParsePolicy parses a policy name. Empty means Revalidate.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", Revalidate:
		return Revalidate, nil
	case TrustCart:
		return TrustCart, nil
	default:
		return "", fmt.Errorf("unknown stock policy %q (want revalidate or trust-cart)", s)
	}
}

// Options configures an Engine. Zero values pick production defaults.
type Options struct {
	Policy Policy
	IDs    ids.Generator
	Clock  ids.Clock
	Logger *slog.Logger
}

// Engine is the Checkout Engine.
//
// Thread-safety: Checkout calls are serialized by an internal mutex. The
// version check on commit covers writers in other processes.
type Engine struct {
	backend store.Backend
	catalog *catalog.Store
	log     *ledger.Log
	policy  Policy
	ids     ids.Generator
	clock   ids.Clock
	logger  *slog.Logger

	mu sync.Mutex // serializes Checkout

	stateMu sync.Mutex
	state   State
}

// New creates an engine. backend must be the store behind cat and log.
func New(backend store.Backend, cat *catalog.Store, log *ledger.Log, opts Options) *Engine {
	if opts.Policy == "" {
		opts.Policy = Revalidate
	}
	if opts.IDs == nil {
		opts.IDs = ids.UUIDv7Generator{}
	}
	if opts.Clock == nil {
		opts.Clock = ids.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		backend: backend,
		catalog: cat,
		log:     log,
		policy:  opts.Policy,
		ids:     opts.IDs,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// Policy returns the configured stock policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Reset returns a Completed engine to Idle.
func (e *Engine) Reset() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == Completed {
		e.state = Idle
	}
}

func (e *Engine) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	e.stateMu.Unlock()
}

// Checkout records the cart as a transaction.
//
// An empty cart returns (nil, nil) and changes nothing. On success the cart
// is cleared and the engine is Completed. On any error nothing is written,
// the cart is untouched and the engine is Idle; rejections are *Error.
func (e *Engine) Checkout(ctx context.Context, c *cart.Cart) (*ledger.Transaction, error) {
	if c.IsEmpty() {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.setState(Processing)
	tx, err := e.commit(ctx, c.Lines())
	if err != nil {
		e.setState(Idle)
		e.logger.Warn("checkout failed", "error", err)
		return nil, err
	}

	c.Clear()
	e.setState(Completed)
	e.logger.Info("checkout completed",
		"transaction_id", tx.ID,
		"total", tx.Total.StringFixed(2),
		"items", tx.ItemCount())
	return tx, nil
}

func (e *Engine) commit(ctx context.Context, lines []cart.Line) (*ledger.Transaction, error) {
	products, catalogVersion, err := e.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	txs, logVersion, err := e.log.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	next, err := e.decrement(products, lines)
	if err != nil {
		return nil, err
	}

	tx := ledger.Transaction{
		ID:        e.ids.Generate(),
		Items:     lines,
		Total:     cart.Total(lines),
		Timestamp: e.clock.Now(),
	}

	catalogWrite, err := e.catalog.ReplaceWrite(next, catalogVersion)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	logWrite, err := e.log.PrependWrite(txs, logVersion, tx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	// Once the commit starts it runs to completion.
	err = e.backend.Commit(context.WithoutCancel(ctx), catalogWrite, logWrite)
	if errors.Is(err, store.ErrVersionConflict) {
		return nil, newConflict(err)
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return &tx, nil
}

// decrement returns a copy of products with every line's quantity taken off
// its product's stock, applying the engine's stock policy.
func (e *Engine) decrement(products catalog.Products, lines []cart.Line) (catalog.Products, error) {
	next := products.Clone()
	for _, l := range lines {
		i := indexOf(next, l.ID)
		if i < 0 {
			if e.policy == Revalidate {
				return nil, newUnknownProduct(l.ID, l.Name)
			}
			e.logger.Debug("checkout line for deleted product", "product_id", l.ID)
			continue
		}
		if e.policy == Revalidate && next[i].Stock < l.Quantity {
			return nil, newInsufficientStock(l.ID, next[i].Name, l.Quantity, next[i].Stock)
		}
		next[i].Stock -= l.Quantity
	}
	return next, nil
}

func indexOf(ps catalog.Products, id string) int {
	for i := range ps {
		if ps[i].ID == id {
			return i
		}
	}
	return -1
}
