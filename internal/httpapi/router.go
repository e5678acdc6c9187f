// Package httpapi serves the catalog, checkout and dashboard over JSON.
//
// Every request works on its own cart. Checkouts from concurrent requests are
// serialized by the checkout engine.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.CreateProduct)
		r.Post("/products/describe", h.DescribeProduct)
		r.Get("/products/{id}", h.GetProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Post("/checkout", h.Checkout)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/insights", h.Insights)
	})
	return r
}
