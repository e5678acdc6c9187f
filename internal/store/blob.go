package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AnyVersion disables the version check on a write (blind overwrite).
const AnyVersion int64 = -1

// Blob is a stored value with its version.
type Blob struct {
	Key       string
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}

// Write is a single mutation applied by Commit.
//
// Expect is the version the blob must currently have:
//   - AnyVersion: no check
//   - 0: the blob must not exist
//   - n: the blob must be at version n
//
// A nil Value deletes the blob.
type Write struct {
	Key    string
	Value  []byte
	Expect int64
}

// Put builds a write that stores value under key.
func Put(key string, value []byte, expect int64) Write {
	return Write{Key: key, Value: value, Expect: expect}
}

// Delete builds a write that removes key.
func Delete(key string, expect int64) Write {
	return Write{Key: key, Expect: expect}
}

// Get returns the blob stored under key.
// Returns ErrNotFound if the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (Blob, error) {
	var (
		b         Blob
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, version, updated_at
		FROM blobs
		WHERE key = ?
	`, key).Scan(&b.Key, &b.Value, &b.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("get %q: %w", key, err)
	}

	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return Blob{}, fmt.Errorf("get %q: %w", key, err)
	}
	return b, nil
}

// Commit applies all writes in a single transaction.
// If any write's version check fails, nothing is written and the returned
// error wraps ErrVersionConflict.
func (s *Store) Commit(ctx context.Context, writes ...Write) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	now := formatTime(s.now())
	for _, w := range writes {
		if err := applyWrite(ctx, tx, w, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func applyWrite(ctx context.Context, tx *sql.Tx, w Write, now string) error {
	if w.Key == "" {
		return fmt.Errorf("commit: empty key")
	}

	var (
		res sql.Result
		err error
	)
	switch {
	case w.Value == nil && w.Expect == AnyVersion:
		// Deleting a missing blob is fine without a version check.
		_, err = tx.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, w.Key)
		if err != nil {
			return fmt.Errorf("commit %q: delete: %w", w.Key, err)
		}
		return nil

	case w.Value == nil && w.Expect == 0:
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM blobs WHERE key = ?`, w.Key).Scan(&exists)
		if err != nil {
			return fmt.Errorf("commit %q: check absent: %w", w.Key, err)
		}
		if exists > 0 {
			return fmt.Errorf("commit %q: %w", w.Key, ErrVersionConflict)
		}
		return nil

	case w.Value == nil:
		res, err = tx.ExecContext(ctx, `DELETE FROM blobs WHERE key = ? AND version = ?`, w.Key, w.Expect)

	case w.Expect == AnyVersion:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO blobs (key, value, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				version = blobs.version + 1,
				updated_at = excluded.updated_at
		`, w.Key, w.Value, now)
		if err != nil {
			return fmt.Errorf("commit %q: upsert: %w", w.Key, err)
		}
		return nil

	case w.Expect == 0:
		res, err = tx.ExecContext(ctx, `
			INSERT INTO blobs (key, value, version, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(key) DO NOTHING
		`, w.Key, w.Value, now)

	default:
		res, err = tx.ExecContext(ctx, `
			UPDATE blobs
			SET value = ?, version = version + 1, updated_at = ?
			WHERE key = ? AND version = ?
		`, w.Value, now, w.Key, w.Expect)
	}
	if err != nil {
		return fmt.Errorf("commit %q: %w", w.Key, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit %q: rows affected: %w", w.Key, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("commit %q: expected version %d: %w", w.Key, w.Expect, ErrVersionConflict)
	}
	return nil
}

// SQLite has no native datetime type; timestamps are stored as RFC3339 TEXT.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
