package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Product categories. The set is fixed.
const (
	CategorySnacks       = "Snacks"
	CategoryBeverages    = "Beverages"
	CategoryStationery   = "Stationery"
	CategoryElectronics  = "Electronics"
	CategoryPersonalCare = "Personal Care"

	// CategoryAll is the filter value that matches every category.
	CategoryAll = "All"
)

// Categories lists the valid categories in display order.
var Categories = []string{
	CategorySnacks,
	CategoryBeverages,
	CategoryStationery,
	CategoryElectronics,
	CategoryPersonalCare,
}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// Product is a catalog entry. Price encodes as a decimal string.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
}

// NewProduct holds the fields of a product that does not have an id yet.
type NewProduct struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
}

// WithID returns the product np describes under id.
func (np NewProduct) WithID(id string) Product {
	return Product{
		ID:          id,
		Name:        np.Name,
		Category:    np.Category,
		Price:       np.Price,
		Stock:       np.Stock,
		Description: np.Description,
	}
}

// Products is the whole catalog in storage order.
type Products []Product

// Find returns the product with the given id.
func (ps Products) Find(id string) (Product, bool) {
	i := ps.index(id)
	if i < 0 {
		return Product{}, false
	}
	return ps[i], true
}

// StockOf returns the live stock of id, or 0 if the product does not exist.
func (ps Products) StockOf(id string) int {
	p, ok := ps.Find(id)
	if !ok {
		return 0
	}
	return p.Stock
}

// Filter returns products in category (CategoryAll or "" for any) whose name
// contains search, case-insensitively.
func (ps Products) Filter(category, search string) Products {
	search = strings.ToLower(strings.TrimSpace(search))
	out := Products{}
	for _, p := range ps {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// InStock returns products with positive stock.
func (ps Products) InStock() Products {
	out := Products{}
	for _, p := range ps {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	return out
}

// SortedByName returns a copy ordered by name. Equal names keep storage order.
func (ps Products) SortedByName() Products {
	out := slices.Clone(ps)
	if out == nil {
		out = Products{}
	}
	slices.SortStableFunc(out, func(a, b Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Without returns a copy with the product id removed.
func (ps Products) Without(id string) Products {
	out := make(Products, 0, len(ps))
	for _, p := range ps {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a copy that shares no backing array with ps.
func (ps Products) Clone() Products {
	out := make(Products, len(ps))
	copy(out, ps)
	return out
}

func (ps Products) index(id string) int {
	return slices.IndexFunc(ps, func(p Product) bool { return p.ID == id })
}
