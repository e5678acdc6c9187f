package harness

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Action, event.Product, event.Outcome)
	}
	return buf.String()
}

// evaluateAssertion dispatches to the appropriate assertion function.
func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertStock:
		got, ok := result.Final.Stock[a.Product]
		if !ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("product %s with stock %d", a.Product, *a.Equals),
				Actual:   fmt.Sprintf("product %s not in catalog", a.Product),
				Trace:    result.Trace,
			}
		}
		return compareCount(result, a, fmt.Sprintf("stock of %s", a.Product), got)
	case AssertCartQuantity:
		return compareCount(result, a, fmt.Sprintf("cart quantity of %s", a.Product), result.cartQty[a.Product])
	case AssertCartSize:
		return compareCount(result, a, "cart lines", result.cartSize)
	case AssertLogSize:
		return compareCount(result, a, "transactions", result.Final.LogSize)
	case AssertRevenue:
		return assertRevenue(result, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func compareCount(result *Result, a Assertion, what string, got int) error {
	if got == *a.Equals {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s = %d", what, *a.Equals),
		Actual:   fmt.Sprintf("%s = %d", what, got),
		Trace:    result.Trace,
	}
}

// assertRevenue compares amounts numerically, so "7" matches "7.00".
func assertRevenue(result *Result, a Assertion) error {
	want, err := decimal.NewFromString(a.Amount)
	if err != nil {
		return fmt.Errorf("revenue assertion: invalid amount %q: %w", a.Amount, err)
	}
	got, err := decimal.NewFromString(result.Final.Revenue)
	if err != nil {
		return fmt.Errorf("revenue assertion: %w", err)
	}
	if got.Equal(want) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("revenue = %s", want.StringFixed(2)),
		Actual:   fmt.Sprintf("revenue = %s", result.Final.Revenue),
		Trace:    result.Trace,
	}
}
