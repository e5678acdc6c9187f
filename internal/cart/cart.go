// Package cart holds the session-local shopping cart.
//
// A cart is never persisted. Lines are snapshots of product display fields
// taken when the product is first added; stock checks always consult live
// catalog state passed in by the caller.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/roach88/campusmart/internal/catalog"
)

// Line is a product snapshot plus a quantity.
type Line struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price * quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockLookup reports live stock for a product id. Unknown ids report 0.
// catalog.Products satisfies it.
type StockLookup interface {
	StockOf(id string) int
}

// Cart is an ordered list of lines keyed by product id.
//
// Thread-safety: a Cart belongs to one session and is not safe for
// concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of p in the cart.
//
// Nothing happens when p is out of stock, or when the cart already holds
// p.Stock units of it. Otherwise an existing line is incremented or a new
// line with quantity 1 is appended.
func (c *Cart) Add(p catalog.Product) {
	if p.Stock <= 0 {
		return
	}
	if i := c.index(p.ID); i >= 0 {
		if c.lines[i].Quantity < p.Stock {
			c.lines[i].Quantity++
		}
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// AdjustQuantity moves the quantity of id by delta, clamped to
// [1, live stock]. When the product no longer exists its stock reads as 0
// and the floor of 1 wins. Ids not in the cart are ignored.
func (c *Cart) AdjustQuantity(id string, delta int, live StockLookup) {
	i := c.index(id)
	if i < 0 {
		return
	}
	q := min(c.lines[i].Quantity+delta, live.StockOf(id))
	c.lines[i].Quantity = max(q, 1)
}

// AddN puts n units of p in the cart as one Add followed by an adjustment
// of n-1, so the same stock ceiling applies. It returns the quantity held.
func (c *Cart) AddN(p catalog.Product, n int, live StockLookup) int {
	if n > 0 {
		c.Add(p)
	}
	if n > 1 {
		c.AdjustQuantity(p.ID, n-1, live)
	}
	return c.Quantity(p.ID)
}

// Remove deletes the line for id, if any.
func (c *Cart) Remove(id string) {
	c.lines = slices.DeleteFunc(c.lines, func(l Line) bool { return l.ID == id })
}

// Total returns the sum of line subtotals.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.lines)
}

// Total sums price * quantity over lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Quantity returns the quantity of id, or 0.
func (c *Cart) Quantity(id string) int {
	if i := c.index(id); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// ItemCount returns the total number of units.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ID == id })
}
