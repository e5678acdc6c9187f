package checkout

import (
	"errors"
	"fmt"
)

// Error is a checkout rejection. Nothing was written when it is returned and
// the cart is left as it was.
type Error struct {
	// Code identifies the rejection.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ProductID names the offending product, if any.
	ProductID string

	// Requested and Available are set for INSUFFICIENT_STOCK.
	Requested int
	Available int

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes checkout rejections.
type ErrorCode string

const (
	// ErrCodeInsufficientStock: live stock is below the cart quantity.
	ErrCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"

	// ErrCodeUnknownProduct: a cart line names a product that no longer exists.
	ErrCodeUnknownProduct ErrorCode = "UNKNOWN_PRODUCT"

	// ErrCodeConflict: another writer changed the catalog or the log between
	// read and commit.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

func (e *Error) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("%s: %s (product=%s)", e.Code, e.Message, e.ProductID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInsufficientStock reports whether err is an INSUFFICIENT_STOCK rejection.
func IsInsufficientStock(err error) bool {
	return hasCode(err, ErrCodeInsufficientStock)
}

// IsUnknownProduct reports whether err is an UNKNOWN_PRODUCT rejection.
func IsUnknownProduct(err error) bool {
	return hasCode(err, ErrCodeUnknownProduct)
}

// IsConflict reports whether err is a CONFLICT rejection.
func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

// IsRejection reports whether err is any *Error.
func IsRejection(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newInsufficientStock(id, name string, requested, available int) *Error {
	return &Error{
		Code:      ErrCodeInsufficientStock,
		Message:   fmt.Sprintf("Not enough stock for %s", name),
		ProductID: id,
		Requested: requested,
		Available: available,
	}
}

func newUnknownProduct(id, name string) *Error {
	return &Error{
		Code:      ErrCodeUnknownProduct,
		Message:   fmt.Sprintf("%s is no longer in the catalog", name),
		ProductID: id,
	}
}

func newConflict(err error) *Error {
	return &Error{
		Code:    ErrCodeConflict,
		Message: "catalog or transaction log changed during checkout",
		Err:     err,
	}
}
