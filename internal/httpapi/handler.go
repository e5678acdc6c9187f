package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/campusmart/internal/cart"
	"github.com/roach88/campusmart/internal/catalog"
	"github.com/roach88/campusmart/internal/checkout"
	"github.com/roach88/campusmart/internal/insight"
	"github.com/roach88/campusmart/internal/ledger"
	"github.com/roach88/campusmart/internal/metrics"
)

// Handler handles incoming HTTP requests against one store.
type Handler struct {
	catalog  *catalog.Store
	log      *ledger.Log
	checkout *checkout.Engine
	insight  *insight.Client
	logger   *slog.Logger
}

// NewHandler wires a handler. insight may be nil, in which case the text
// endpoints answer with the not-configured fallback.
func NewHandler(cat *catalog.Store, log *ledger.Log, eng *checkout.Engine, in *insight.Client, logger *slog.Logger) *Handler {
	if in == nil {
		in = insight.New(nil, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{catalog: cat, log: log, checkout: eng, insight: in, logger: logger}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts returns the catalog, optionally filtered by ?category=,
// ?search=, ?in_stock=true and sorted with ?sort=name.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	q := r.URL.Query()
	products = products.Filter(q.Get("category"), q.Get("search"))
	if q.Get("in_stock") == "true" {
		products = products.InStock()
	}
	switch q.Get("sort") {
	case "":
	case "name":
		products = products.SortedByName()
	default:
		writeError(w, http.StatusBadRequest, "invalid_sort", "sort must be name")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct adds a product under a fresh id.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	p, err := h.catalog.Add(r.Context(), req)
	if err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct replaces every field of an existing product. The id comes
// from the path.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	p := req.WithID(chi.URLParam(r, "id"))
	if err := h.catalog.Update(r.Context(), p); err != nil {
		h.productError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct removes a product. Unknown ids succeed.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DescribeProduct asks the text generator for a product description.
func (h *Handler) DescribeProduct(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Name == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name and category are required")
		return
	}
	writeJSON(w, http.StatusOK, DescribeResponse{
		Description: h.insight.GenerateDescription(r.Context(), req.Name, req.Category),
	})
}

// Checkout builds a cart from the request items and checks it out.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "empty_cart", "items are required")
		return
	}

	c, err := h.buildCart(r, req.Items)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}

	tx, err := h.checkout.Checkout(r.Context(), c)
	h.checkout.Reset()
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}
	if tx == nil {
		writeError(w, http.StatusBadRequest, "empty_cart", "nothing to check out")
		return
	}
	writeJSON(w, http.StatusCreated, CheckoutResponse{Transaction: *tx, ItemCount: tx.ItemCount()})
}

// buildCart adds each item the way the POS screen would. A quantity the cart
// cannot hold is reported as insufficient stock instead of being capped.
func (h *Handler) buildCart(r *http.Request, items []CheckoutItemDTO) (*cart.Cart, error) {
	live, err := h.catalog.List(r.Context())
	if err != nil {
		return nil, err
	}

	c := cart.New()
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, errInvalidItem
		}
		p, ok := live.Find(it.ProductID)
		if !ok {
			return nil, &checkout.Error{
				Code:      checkout.ErrCodeUnknownProduct,
				Message:   "Product no longer exists",
				ProductID: it.ProductID,
			}
		}
		want := c.Quantity(p.ID) + it.Quantity
		if got := c.AddN(p, it.Quantity, live); got != want {
			return nil, &checkout.Error{
				Code:      checkout.ErrCodeInsufficientStock,
				Message:   fmt.Sprintf("Not enough stock for %s", p.Name),
				ProductID: p.ID,
				Requested: want,
				Available: p.Stock,
			}
		}
	}
	return c, nil
}

var errInvalidItem = errors.New("product_id and a positive quantity are required")

// ListTransactions returns the log newest first, at most ?limit= entries.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r, "limit", -1)
	if !ok {
		return
	}
	txs, err := h.log.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if limit >= 0 {
		txs = ledger.Head(txs, limit)
	}
	writeJSON(w, http.StatusOK, txs)
}

// Dashboard returns the computed metrics with ?recent= transactions.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "recent", metrics.DefaultRecent)
	if !ok {
		return
	}
	d, err := metrics.Reader{Catalog: h.catalog, Log: h.log}.Dashboard(r.Context(), n)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Insights summarizes the current metrics in prose.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	d, err := metrics.Reader{Catalog: h.catalog, Log: h.log}.Dashboard(r.Context(), 0)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	text := h.insight.SummarizeMetrics(r.Context(), d.TotalRevenue, d.LowStockNames, d.TransactionCount)
	writeJSON(w, http.StatusOK, InsightsResponse{Insights: text})
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func (h *Handler) productError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, "invalid_product", err.Error())
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var cerr *checkout.Error
	switch {
	case errors.Is(err, errInvalidItem):
		writeError(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.As(err, &cerr):
		writeError(w, http.StatusConflict, string(cerr.Code), cerr.Message)
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
