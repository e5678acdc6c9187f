package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/checkout"
	"github.com/roach88/campusmart/internal/ids"
	"github.com/roach88/campusmart/internal/ledger"
	"github.com/roach88/campusmart/internal/metrics"
	"github.com/roach88/campusmart/internal/store"
)

// ScenarioTime is the clock reading every scenario runs at.
var ScenarioTime = time.Date(2024, 9, 2, 14, 30, 0, 0, time.UTC)

// Harness runs one scenario against a private store.
type Harness struct {
	store    *store.Store
	catalog  *catalog.Store
	log      *ledger.Log
	checkout *checkout.Engine
	cart     *cart.Cart
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential
// transaction ids (tx-1, tx-2, ...) and a fixed clock, so traces are
// reproducible.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	policy, err := checkout.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	cat, err := catalog.New(st, catalog.Options{
		IDs:    ids.NewSequenceGenerator("p"),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	log := ledger.New(st, store.CorruptFail, logger)

	h := &Harness{
		store:   st,
		catalog: cat,
		log:     log,
		checkout: checkout.New(st, cat, log, checkout.Options{
			Policy: policy,
			IDs:    ids.NewSequenceGenerator("tx"),
			Clock:  ids.NewFixedClock(ScenarioTime),
			Logger: logger,
		}),
		cart: cart.New(),
	}

	ctx := context.Background()
	if len(scenario.Catalog) > 0 {
		if err := h.loadCatalog(ctx, scenario.Catalog); err != nil {
			return nil, fmt.Errorf("catalog setup failed: %w", err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s) failed: %w", i+1, step.Action, err)
		}
		result.Trace = append(result.Trace, event)
		if step.Expect != "" && step.Expect != event.Outcome {
			result.AddError(fmt.Sprintf("step %d (%s %s): expected outcome %s, got %s",
				i+1, step.Action, step.Product, step.Expect, event.Outcome))
		}
	}

	if err := h.captureFinal(ctx, result); err != nil {
		return nil, err
	}

	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(result, assertion); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) loadCatalog(ctx context.Context, entries []ProductSpec) error {
	products := make(catalog.Products, 0, len(entries))
	for _, e := range entries {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return fmt.Errorf("product %s: invalid price %q: %w", e.ID, e.Price, err)
		}
		p := catalog.Product{
			ID:       e.ID,
			Name:     e.Name,
			Category: e.Category,
			Price:    price,
			Stock:    e.Stock,
		}
		if err := h.catalog.Schema().Validate(p); err != nil {
			return err
		}
		products = append(products, p)
	}
	return h.catalog.Replace(ctx, products)
}

func (h *Harness) executeStep(ctx context.Context, seq int, step Step) (TraceEvent, error) {
	event := TraceEvent{Seq: seq, Action: step.Action, Product: step.Product}

	switch step.Action {
	case StepAdd:
		p, err := h.catalog.Get(ctx, step.Product)
		if errors.Is(err, catalog.ErrProductNotFound) {
			event.Outcome = OutcomeMissing
			break
		}
		if err != nil {
			return event, err
		}
		event.Outcome = h.changed(step.Product, func() { h.cart.Add(p) })

	case StepAdjust:
		live, err := h.catalog.List(ctx)
		if err != nil {
			return event, err
		}
		event.Outcome = h.changed(step.Product, func() {
			h.cart.AdjustQuantity(step.Product, step.Delta, live)
		})

	case StepRemove:
		event.Outcome = h.changed(step.Product, func() { h.cart.Remove(step.Product) })

	case StepClear:
		h.cart.Clear()
		event.Outcome = OutcomeOK

	case StepCheckout:
		tx, err := h.checkout.Checkout(ctx, h.cart)
		var cerr *checkout.Error
		switch {
		case errors.As(err, &cerr):
			event.Outcome = string(cerr.Code)
		case err != nil:
			return event, err
		case tx == nil:
			event.Outcome = OutcomeEmpty
		default:
			event.Outcome = OutcomeCompleted
			event.Transaction = &TransactionSummary{
				ID:        tx.ID,
				Total:     tx.Total.StringFixed(2),
				Items:     tx.ItemCount(),
				Timestamp: tx.Timestamp.Format(time.RFC3339),
			}
		}
		h.checkout.Reset()

	case StepSetStock:
		p, err := h.catalog.Get(ctx, step.Product)
		if errors.Is(err, catalog.ErrProductNotFound) {
			event.Outcome = OutcomeMissing
			break
		}
		if err != nil {
			return event, err
		}
		p.Stock = step.Stock
		if err := h.catalog.Update(ctx, p); err != nil {
			return event, err
		}
		event.Outcome = OutcomeOK

	case StepDeleteProduct:
		if err := h.catalog.Delete(ctx, step.Product); err != nil {
			return event, err
		}
		event.Outcome = OutcomeOK

	default:
		return event, fmt.Errorf("unknown action %q", step.Action)
	}

	if step.Product != "" {
		event.Quantity = h.cart.Quantity(step.Product)
	}
	event.CartTotal = h.cart.Total().StringFixed(2)
	event.CartItems = h.cart.ItemCount()
	return event, nil
}

// changed runs fn and reports ok when it moved the cart quantity of id.
func (h *Harness) changed(id string, fn func()) string {
	before := h.cart.Quantity(id)
	fn()
	if h.cart.Quantity(id) == before {
		return OutcomeNoop
	}
	return OutcomeOK
}

func (h *Harness) captureFinal(ctx context.Context, result *Result) error {
	products, err := h.catalog.List(ctx)
	if err != nil {
		return err
	}
	txs, err := h.log.List(ctx)
	if err != nil {
		return err
	}

	result.Final = FinalState{
		Stock:   make(map[string]int, len(products)),
		LogSize: len(txs),
		Revenue: metrics.TotalRevenue(txs).StringFixed(2),
	}
	for _, p := range products {
		result.Final.Stock[p.ID] = p.Stock
	}
	for _, l := range h.cart.Lines() {
		result.cartQty[l.ID] = l.Quantity
	}
	result.cartSize = h.cart.Len()
	return nil
}
