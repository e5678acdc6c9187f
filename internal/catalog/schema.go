package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSrc string

//go:embed seed.cue
var seedSrc string

// ErrInvalidProduct is wrapped by every ValidationError.
var ErrInvalidProduct = errors.New("invalid product")

// ValidationError reports a product that does not satisfy #Product.
type ValidationError struct {
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() && e.Pos.Filename() != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Is matches ErrInvalidProduct.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidProduct
}

// Schema validates products against the embedded CUE definitions.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so every
// method holds the schema mutex.
type Schema struct {
	mu      sync.Mutex
	ctx     *cue.Context
	product cue.Value
	drafts  cue.Value
}

// NewSchema compiles the embedded schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile product schema: %w", err)
	}
	return &Schema{
		ctx:     ctx,
		product: v.LookupPath(cue.ParsePath("#Product")),
		drafts:  v.LookupPath(cue.ParsePath("#Drafts")),
	}, nil
}

// cueProduct mirrors Product with the price as a bare JSON number, so CUE
// sees a number rather than the decimal string Product encodes to.
type cueProduct struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	Description string      `json:"description,omitempty"`
}

// Validate checks a single product.
func (s *Schema) Validate(p Product) error {
	data, err := json.Marshal(cueProduct{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       json.Number(p.Price.String()),
		Stock:       p.Stock,
		Description: p.Description,
	})
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(data).Unify(s.product)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// DecodeProducts parses a CUE or JSON document holding products, either as a
// top-level list or under a "products" field. Ids are optional; products
// without one come back with an empty ID.
func (s *Schema) DecodeProducts(filename string, src []byte) (Products, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return s.decode(v)
}

// Seed returns the default catalog.
func (s *Schema) Seed() (Products, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileString(schemaSrc+"\n"+seedSrc, cue.Filename("seed.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile seed: %w", formatCUEError(err))
	}
	ps, err := s.decode(v)
	if err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return ps, nil
}

func (s *Schema) decode(v cue.Value) (Products, error) {
	list := v
	if v.IncompleteKind() != cue.ListKind {
		list = v.LookupPath(cue.ParsePath("products"))
		if !list.Exists() {
			return nil, &ValidationError{Message: "expected a list of products or a products field"}
		}
	}

	list = list.Unify(s.drafts)
	if err := list.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	data, err := list.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}

	out := Products{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := errs[0]
	ve := &ValidationError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ve.Pos = positions[0]
	}
	return ve
}
