package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCommit_InsertThenGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	fixedNow(s, at)

	require.NoError(t, s.Commit(ctx, Put("k", []byte(`{"a":1}`), 0)))

	b, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", b.Key)
	assert.Equal(t, []byte(`{"a":1}`), b.Value)
	assert.Equal(t, int64(1), b.Version)
	assert.True(t, at.Equal(b.UpdatedAt))
}

func TestCommit_VersionChecks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		seed     bool
		write    Write
		conflict bool
		want     []byte // nil means absent
		version  int64
	}{
		{"insert absent", false, Put("k", []byte("v2"), 0), false, []byte("v2"), 1},
		{"insert existing conflicts", true, Put("k", []byte("v2"), 0), true, []byte("v1"), 1},
		{"update matching version", true, Put("k", []byte("v2"), 1), false, []byte("v2"), 2},
		{"update stale version", true, Put("k", []byte("v2"), 7), true, []byte("v1"), 1},
		{"update absent conflicts", false, Put("k", []byte("v2"), 1), true, nil, 0},
		{"blind overwrite existing", true, Put("k", []byte("v2"), AnyVersion), false, []byte("v2"), 2},
		{"blind overwrite absent", false, Put("k", []byte("v2"), AnyVersion), false, []byte("v2"), 1},
		{"delete matching version", true, Delete("k", 1), false, nil, 0},
		{"delete stale version", true, Delete("k", 3), true, []byte("v1"), 1},
		{"blind delete absent", false, Delete("k", AnyVersion), false, nil, 0},
		{"delete expecting absent", true, Delete("k", 0), true, []byte("v1"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createTestStore(t)
			if tt.seed {
				require.NoError(t, s.Commit(ctx, Put("k", []byte("v1"), 0)))
			}

			err := s.Commit(ctx, tt.write)
			if tt.conflict {
				require.ErrorIs(t, err, ErrVersionConflict)
			} else {
				require.NoError(t, err)
			}

			b, err := s.Get(ctx, "k")
			if tt.want == nil {
				require.ErrorIs(t, err, ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.Value)
			assert.Equal(t, tt.version, b.Version)
		})
	}
}

func TestCommit_AtomicAcrossKeys(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx,
		Put("a", []byte("a1"), 0),
		Put("b", []byte("b1"), 0),
	))

	// Second write is stale, so the first must not land either.
	err := s.Commit(ctx,
		Put("a", []byte("a2"), 1),
		Put("b", []byte("b2"), 5),
	)
	require.ErrorIs(t, err, ErrVersionConflict)

	a, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("a1"), a.Value)
	assert.Equal(t, int64(1), a.Version)

	b, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("b1"), b.Value)
}

func TestCommit_EmptyKeyRejected(t *testing.T) {
	s := createTestStore(t)
	err := s.Commit(context.Background(), Put("", []byte("x"), AnyVersion))
	require.Error(t, err)
}

func TestCommit_NoWrites(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Commit(context.Background()))
}

func TestCommit_PersistsAcrossReopen(t *testing.T) {
	path := t.TempDir() + "/test.db"
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Commit(ctx, Put("k", []byte("durable"), AnyVersion)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	b, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("durable"), b.Value)
}
