// Package catalog owns the product collection.
//
// The whole catalog is one JSON blob under BlobKey. Every mutation reads the
// collection, changes it in memory and writes it back whole. On first access
// with nothing persisted, the default products from seed.cue are written
// immediately, so the first List and every later List agree.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/campusmart/internal/ids"
	"github.com/roach88/campusmart/internal/store"
)

// BlobKey is the store key of the catalog.
const BlobKey = "campusmart_products"

// ErrProductNotFound is returned when an id does not name a product.
var ErrProductNotFound = errors.New("product not found")

// Options configures a Store. Zero values pick production defaults.
type Options struct {
	Policy store.CorruptPolicy
	IDs    ids.Generator
	Logger *slog.Logger
}

// Store is the Catalog Store.
type Store struct {
	coll   *store.Collection[Products]
	schema *Schema
	ids    ids.Generator
	logger *slog.Logger

	// mu serializes read-modify-write cycles in this process.
	mu sync.Mutex
}

// New creates a catalog over backend.
func New(backend store.Backend, opts Options) (*Store, error) {
	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}
	seed, err := schema.Seed()
	if err != nil {
		return nil, err
	}

	if opts.IDs == nil {
		opts.IDs = ids.UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Store{
		coll: &store.Collection[Products]{
			Backend:     backend,
			Key:         BlobKey,
			Seed:        seed.Clone,
			PersistSeed: true,
			Policy:      opts.Policy,
			Logger:      opts.Logger,
		},
		schema: schema,
		ids:    opts.IDs,
		logger: opts.Logger,
	}, nil
}

// Schema returns the product schema.
func (s *Store) Schema() *Schema {
	return s.schema
}

// List returns the full catalog in storage order.
func (s *Store) List(ctx context.Context) (Products, error) {
	ps, _, err := s.Snapshot(ctx)
	return ps, err
}

// Snapshot returns the catalog with its blob version, for callers that write
// back through a combined commit.
func (s *Store) Snapshot(ctx context.Context) (Products, int64, error) {
	ps, version, err := s.coll.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	if ps == nil {
		ps = Products{}
	}
	return ps, version, nil
}

// Replace persists products as the whole catalog.
func (s *Store) Replace(ctx context.Context, products Products) error {
	if products == nil {
		products = Products{}
	}
	if err := s.coll.Save(ctx, products); err != nil {
		return fmt.Errorf("replace products: %w", err)
	}
	return nil
}

// ReplaceWrite builds the write Replace would perform, checked against
// version, for use in a combined store.Commit.
func (s *Store) ReplaceWrite(products Products, version int64) (store.Write, error) {
	if products == nil {
		products = Products{}
	}
	return s.coll.Write(products, version)
}

// Get returns a single product.
func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	ps, err := s.List(ctx)
	if err != nil {
		return Product{}, err
	}
	p, ok := ps.Find(id)
	if !ok {
		return Product{}, fmt.Errorf("get %q: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// Delete removes id from the catalog. Deleting an unknown id rewrites the
// catalog unchanged. Past transactions keep their copies of the product.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.modify(ctx, "delete "+id, func(ps Products) (Products, error) {
		return ps.Without(id), nil
	})
}

// Add validates np, assigns a fresh id and appends it.
func (s *Store) Add(ctx context.Context, np NewProduct) (Product, error) {
	p := np.WithID(s.ids.Generate())
	if err := s.schema.Validate(p); err != nil {
		return Product{}, fmt.Errorf("add product: %w", err)
	}

	err := s.modify(ctx, "add "+p.ID, func(ps Products) (Products, error) {
		return append(ps.Clone(), p), nil
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Debug("product added", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces the product with p.ID by p.
func (s *Store) Update(ctx context.Context, p Product) error {
	if err := s.schema.Validate(p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	return s.modify(ctx, "update "+p.ID, func(ps Products) (Products, error) {
		i := ps.index(p.ID)
		if i < 0 {
			return nil, fmt.Errorf("update %q: %w", p.ID, ErrProductNotFound)
		}
		out := ps.Clone()
		out[i] = p
		return out, nil
	})
}

// Edit applies fn to the product with the given id and saves it. fn sees the
// record as of the version the write is checked against, so a concurrent
// change is never overwritten with stale fields.
func (s *Store) Edit(ctx context.Context, id string, fn func(*Product)) (Product, error) {
	var edited Product
	err := s.modify(ctx, "edit "+id, func(ps Products) (Products, error) {
		i := ps.index(id)
		if i < 0 {
			return nil, fmt.Errorf("edit %q: %w", id, ErrProductNotFound)
		}
		out := ps.Clone()
		fn(&out[i])
		out[i].ID = id
		if err := s.schema.Validate(out[i]); err != nil {
			return nil, fmt.Errorf("edit product: %w", err)
		}
		edited = out[i]
		return out, nil
	})
	if err != nil {
		return Product{}, err
	}
	return edited, nil
}

// Import upserts products by id. Products without an id are appended with a
// fresh one. It returns how many were added and how many updated.
func (s *Store) Import(ctx context.Context, products Products) (added, updated int, err error) {
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = s.ids.Generate()
		}
		if err := s.schema.Validate(products[i]); err != nil {
			return 0, 0, fmt.Errorf("import product %d: %w", i, err)
		}
	}

	err = s.modify(ctx, "import", func(ps Products) (Products, error) {
		added, updated = 0, 0
		out := ps.Clone()
		for _, p := range products {
			if i := out.index(p.ID); i >= 0 {
				out[i] = p
				updated++
				continue
			}
			out = append(out, p)
			added++
		}
		return out, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, updated, nil
}

// modify runs one read-modify-write cycle. The write is checked against the
// version read, so a concurrent writer in another process fails it with
// store.ErrVersionConflict instead of being overwritten.
func (s *Store) modify(ctx context.Context, op string, fn func(Products) (Products, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, version, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	next, err := fn(ps)
	if err != nil {
		return err
	}
	w, err := s.ReplaceWrite(next, version)
	if err != nil {
		return err
	}
	if err := s.coll.Backend.Commit(ctx, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
