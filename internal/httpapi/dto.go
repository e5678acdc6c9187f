package httpapi

import (
	"github.com/roach88/campusmart/internal/ledger"
)

type CheckoutRequest struct {
	Items []CheckoutItemDTO `json:"items"`
}

type CheckoutItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutResponse struct {
	Transaction ledger.Transaction `json:"transaction"`
	ItemCount   int                `json:"item_count"`
}

type DescribeRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type DescribeResponse struct {
	Description string `json:"description"`
}

type InsightsResponse struct {
	Insights string `json:"insights"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
