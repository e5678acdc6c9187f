package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/campusmart/internal/catalog"
)

func product(id, price string, stock int) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Product " + id,
		Category: catalog.CategorySnacks,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

// stock is a StockLookup backed by a map.
type stock map[string]int

func (s stock) StockOf(id string) int { return s[id] }

func TestAdd(t *testing.T) {
	tests := []struct {
		name  string
		adds  []catalog.Product
		want  map[string]int
		lines int
	}{
		{"new line", []catalog.Product{product("a", "1", 5)}, map[string]int{"a": 1}, 1},
		{"increment", []catalog.Product{product("a", "1", 5), product("a", "1", 5)}, map[string]int{"a": 2}, 1},
		{"zero stock is a no-op", []catalog.Product{product("a", "1", 0)}, map[string]int{"a": 0}, 0},
		{"negative stock is a no-op", []catalog.Product{product("a", "1", -2)}, map[string]int{"a": 0}, 0},
		{"capped at stock", []catalog.Product{product("a", "1", 2), product("a", "1", 2), product("a", "1", 2)}, map[string]int{"a": 2}, 1},
		{"two products", []catalog.Product{product("a", "1", 5), product("b", "1", 5)}, map[string]int{"a": 1, "b": 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for _, p := range tt.adds {
				c.Add(p)
			}
			for id, q := range tt.want {
				assert.Equal(t, q, c.Quantity(id), "quantity of %s", id)
			}
			assert.Equal(t, tt.lines, c.Len())
		})
	}
}

func TestAdd_NeverExceedsStock(t *testing.T) {
	c := New()
	p := product("a", "1", 3)
	for i := 0; i < 10; i++ {
		c.Add(p)
		assert.LessOrEqual(t, c.Quantity("a"), p.Stock)
	}
	assert.Equal(t, 3, c.Quantity("a"))
}

func TestAdd_KeepsFirstSnapshot(t *testing.T) {
	c := New()
	c.Add(product("a", "1.00", 5))

	changed := product("a", "9.00", 5)
	changed.Name = "Renamed"
	c.Add(changed)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Product a", lines[0].Name)
	assert.True(t, decimal.RequireFromString("2.00").Equal(c.Total()))
}

func TestAdjustQuantity(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		live  stock
		want  int
	}{
		{"increment", 1, 1, stock{"a": 5}, 2},
		{"decrement", 3, -1, stock{"a": 5}, 2},
		{"floor at one", 1, -1, stock{"a": 5}, 1},
		{"large negative floors", 3, -10, stock{"a": 5}, 1},
		{"ceiling at live stock", 4, 3, stock{"a": 5}, 5},
		{"live stock dropped below quantity", 4, 0, stock{"a": 2}, 2},
		{"product deleted: floor wins", 3, 1, stock{}, 1},
		{"live stock zero: floor wins", 2, -1, stock{"a": 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			p := product("a", "1", 100)
			for i := 0; i < tt.start; i++ {
				c.Add(p)
			}
			require.Equal(t, tt.start, c.Quantity("a"))

			c.AdjustQuantity("a", tt.delta, tt.live)
			assert.Equal(t, tt.want, c.Quantity("a"))
		})
	}
}

func TestAdjustQuantity_NotInCart(t *testing.T) {
	c := New()
	c.Add(product("a", "1", 5))
	c.AdjustQuantity("b", 1, stock{"b": 5})
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Quantity("b"))
}

func TestAdjustQuantity_UsesCatalogProducts(t *testing.T) {
	c := New()
	c.Add(product("a", "1", 10))
	live := catalog.Products{product("a", "1", 2)}
	c.AdjustQuantity("a", 5, live)
	assert.Equal(t, 2, c.Quantity("a"))
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(product("a", "1", 5))
	c.Add(product("b", "1", 5))

	c.Remove("a")
	assert.Equal(t, 0, c.Quantity("a"))
	assert.Equal(t, 1, c.Len())

	c.Remove("missing")
	assert.Equal(t, 1, c.Len())
}

func TestTotal(t *testing.T) {
	c := New()
	assert.True(t, decimal.Zero.Equal(c.Total()))

	c.Add(product("a", "3.50", 10))
	c.Add(product("a", "3.50", 10))
	c.Add(product("b", "2.99", 10))
	// 2 * 3.50 + 2.99
	assert.Equal(t, "9.99", c.Total().StringFixed(2))

	c.AdjustQuantity("b", 2, stock{"b": 10})
	// 7.00 + 3 * 2.99
	assert.Equal(t, "15.97", c.Total().StringFixed(2))
}

func TestTotal_IsExact(t *testing.T) {
	c := New()
	p := product("a", "0.10", 100)
	for i := 0; i < 3; i++ {
		c.Add(p)
	}
	assert.True(t, decimal.RequireFromString("0.3").Equal(c.Total()))
}

func TestClearAndCounts(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())

	c.Add(product("a", "1", 5))
	c.Add(product("a", "1", 5))
	c.Add(product("b", "1", 5))
	assert.False(t, c.IsEmpty())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.ItemCount())

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.ItemCount())
	assert.Empty(t, c.Lines())
}

func TestLines_ReturnsCopy(t *testing.T) {
	c := New()
	c.Add(product("a", "1", 5))

	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Quantity("a"))
}

func TestAddN(t *testing.T) {
	p := product("a", "2", 5)
	live := stock{"a": 5}

	tests := []struct {
		name  string
		start int
		n     int
		want  int
	}{
		{"within stock", 0, 3, 3},
		{"capped at stock", 0, 9, 5},
		{"on top of existing", 2, 2, 4},
		{"existing capped", 4, 3, 5},
		{"zero is a no-op", 2, 0, 2},
		{"negative is a no-op", 2, -1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			for i := 0; i < tt.start; i++ {
				c.Add(p)
			}
			assert.Equal(t, tt.want, c.AddN(p, tt.n, live))
			assert.Equal(t, tt.want, c.Quantity("a"))
		})
	}

	c := New()
	assert.Equal(t, 0, c.AddN(product("z", "1", 0), 2, stock{}))
	assert.True(t, c.IsEmpty())
}

// FuzzCart replays random edit sequences. Every byte pair is one operation:
// the first byte picks the action and product, the second is its argument.
func FuzzCart(f *testing.F) {
	f.Add([]byte{0, 0, 0, 0, 1, 10})
	f.Add([]byte{0, 3, 2, 0, 1, 250, 0, 1})
	f.Add([]byte{0, 2, 4, 1, 5, 7, 9, 0, 1, 3})

	f.Fuzz(func(t *testing.T, ops []byte) {
		live := catalog.Products{
			product("a", "1.25", 3),
			product("b", "0.99", 1),
			product("c", "12.5", 8),
		}
		c := New()

		for i := 0; i+1 < len(ops); i += 2 {
			idx := int(ops[i]>>2) % len(live)
			arg := ops[i+1]
			p := live[idx]

			switch ops[i] & 3 {
			case 0:
				before := c.Quantity(p.ID)
				c.Add(p)
				if q := c.Quantity(p.ID); q != before {
					assert.Equal(t, before+1, q)
					assert.LessOrEqual(t, q, p.Stock, "add past stock of %s", p.ID)
				}
			case 1:
				before := c.Quantity(p.ID)
				c.AdjustQuantity(p.ID, int(int8(arg)), live)
				q := c.Quantity(p.ID)
				if before == 0 {
					assert.Zero(t, q, "adjust created a line for %s", p.ID)
					break
				}
				assert.GreaterOrEqual(t, q, 1)
				assert.LessOrEqual(t, q, max(live.StockOf(p.ID), 1), "adjust past stock of %s", p.ID)
			case 2:
				// Stock changes elsewhere while the cart is open.
				live[idx].Stock = int(arg % 6)
			case 3:
				c.Remove(p.ID)
				assert.Zero(t, c.Quantity(p.ID))
			}

			sum := decimal.Zero
			for _, l := range c.Lines() {
				assert.Positive(t, l.Quantity)
				sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			require.True(t, sum.Equal(c.Total()), "total %s, lines sum to %s", c.Total(), sum)
		}
	})
}
