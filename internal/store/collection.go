package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Backend is the subset of Store that collections need.
type Backend interface {
	Get(ctx context.Context, key string) (Blob, error)
	Commit(ctx context.Context, writes ...Write) error
}

var _ Backend = (*Store)(nil)

// ErrCorrupt is wrapped by every CorruptError.
var ErrCorrupt = errors.New("corrupt blob")

// CorruptError reports a blob that could not be decoded.
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("blob %q is corrupt: %v", e.Key, e.Err)
}

// Is matches ErrCorrupt.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is (or wraps) a CorruptError.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// CorruptPolicy decides what Load does with a blob that fails to decode.
type CorruptPolicy string

const (
	// CorruptFail surfaces a *CorruptError to the caller.
	CorruptFail CorruptPolicy = "fail"
	// CorruptReseed logs a warning and overwrites the blob with the seed.
	CorruptReseed CorruptPolicy = "reseed"
)

// ParseCorruptPolicy parses a policy name. Empty means CorruptFail.
func ParseCorruptPolicy(s string) (CorruptPolicy, error) {
	switch CorruptPolicy(s) {
	case "", CorruptFail:
		return CorruptFail, nil
	case CorruptReseed:
		return CorruptReseed, nil
	default:
		return "", fmt.Errorf("unknown corrupt policy %q (want fail or reseed)", s)
	}
}

// Collection is a typed JSON value stored whole under one key.
//
// A missing blob yields the seed (or the zero value with version 0 when Seed
// is nil). With PersistSeed the seed is written before it is returned, and the
// returned value is always decoded from the persisted bytes.
type Collection[T any] struct {
	Backend     Backend
	Key         string
	Seed        func() T
	PersistSeed bool
	Policy      CorruptPolicy
	Logger      *slog.Logger
}

// Load returns the current value and its version. Version 0 means the blob
// does not exist.
func (c *Collection[T]) Load(ctx context.Context) (T, int64, error) {
	var zero T

	blob, err := c.Backend.Get(ctx, c.Key)
	if errors.Is(err, ErrNotFound) {
		return c.seed(ctx)
	}
	if err != nil {
		return zero, 0, fmt.Errorf("load %s: %w", c.Key, err)
	}

	v, err := decode[T](blob.Value)
	if err == nil {
		return v, blob.Version, nil
	}

	corrupt := &CorruptError{Key: c.Key, Err: err}
	if c.Policy != CorruptReseed {
		return zero, 0, corrupt
	}
	return c.reseed(ctx, blob.Version, corrupt)
}

// Save overwrites the blob without a version check.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	w, err := c.Write(v, AnyVersion)
	if err != nil {
		return err
	}
	if err := c.Backend.Commit(ctx, w); err != nil {
		return fmt.Errorf("save %s: %w", c.Key, err)
	}
	return nil
}

// Clear removes the blob.
func (c *Collection[T]) Clear(ctx context.Context) error {
	if err := c.Backend.Commit(ctx, Delete(c.Key, AnyVersion)); err != nil {
		return fmt.Errorf("clear %s: %w", c.Key, err)
	}
	return nil
}

// Write encodes v as a write for use in a combined Commit.
func (c *Collection[T]) Write(v T, expect int64) (Write, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Write{}, fmt.Errorf("encode %s: %w", c.Key, err)
	}
	return Put(c.Key, data, expect), nil
}

func (c *Collection[T]) seed(ctx context.Context) (T, int64, error) {
	var zero T
	if c.Seed == nil {
		return zero, 0, nil
	}

	w, err := c.Write(c.Seed(), 0)
	if err != nil {
		return zero, 0, err
	}
	if !c.PersistSeed {
		v, err := decode[T](w.Value)
		if err != nil {
			return zero, 0, fmt.Errorf("seed %s: %w", c.Key, err)
		}
		return v, 0, nil
	}

	err = c.Backend.Commit(ctx, w)
	if errors.Is(err, ErrVersionConflict) {
		// Another writer seeded first; use theirs.
		return c.Load(ctx)
	}
	if err != nil {
		return zero, 0, fmt.Errorf("seed %s: %w", c.Key, err)
	}
	c.logger().Debug("seeded blob", "key", c.Key)
	return c.reread(ctx)
}

func (c *Collection[T]) reseed(ctx context.Context, version int64, cause *CorruptError) (T, int64, error) {
	var zero T
	c.logger().Warn("corrupt blob, reseeding", "key", c.Key, "error", cause.Err)

	var w Write
	if c.Seed == nil {
		w = Delete(c.Key, version)
	} else {
		var err error
		w, err = c.Write(c.Seed(), version)
		if err != nil {
			return zero, 0, err
		}
	}
	if err := c.Backend.Commit(ctx, w); err != nil {
		return zero, 0, fmt.Errorf("reseed %s: %w", c.Key, err)
	}
	if c.Seed == nil {
		return zero, 0, nil
	}
	return c.reread(ctx)
}

func (c *Collection[T]) reread(ctx context.Context) (T, int64, error) {
	var zero T
	blob, err := c.Backend.Get(ctx, c.Key)
	if err != nil {
		return zero, 0, fmt.Errorf("load %s: %w", c.Key, err)
	}
	v, err := decode[T](blob.Value)
	if err != nil {
		return zero, 0, &CorruptError{Key: c.Key, Err: err}
	}
	return v, blob.Version, nil
}

func (c *Collection[T]) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
