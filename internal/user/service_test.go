package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/validate"
)

var testNow = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

// countingCache records cache traffic on top of the in-process cache.
type countingCache struct {
	*MemoryNameCache
	invalidated []string
}

func (c *countingCache) Invalidate(ctx context.Context, userID string) {
	c.invalidated = append(c.invalidated, userID)
	c.MemoryNameCache.Invalidate(ctx, userID)
}

func newTestService(t *testing.T) (*Service, *docstore.Memory, *countingCache) {
	t.Helper()
	store := docstore.NewMemory()
	cache := &countingCache{MemoryNameCache: NewMemoryNameCache(time.Minute, 100)}
	clock := testNow
	s, err := NewService(store, cache,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }),
	)
	require.NoError(t, err)
	return s, store, cache
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, NewMemoryNameCache(time.Minute, 1))
	assert.Error(t, err)
	_, err = NewService(docstore.NewMemory(), nil)
	assert.Error(t, err)
}

func TestService_Upsert(t *testing.T) {
	ctx := context.Background()
	s, _, cache := newTestService(t)

	created, err := s.Upsert(ctx, "principal-1", ProfileInput{DisplayName: "  Sakura  "})
	require.NoError(t, err)
	assert.Equal(t, "Sakura", created.DisplayName)

	updated, err := s.Upsert(ctx, "principal-1", ProfileInput{DisplayName: "Sakura T"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt, "createdAt is preserved")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, []string{"principal-1", "principal-1"}, cache.invalidated)

	_, err = s.Upsert(ctx, "principal-2", ProfileInput{DisplayName: "sakura t"})
	assert.ErrorIs(t, err, ErrDisplayNameTaken)

	_, err = s.Upsert(ctx, "principal-2", ProfileInput{DisplayName: " "})
	var verr *validate.Error
	assert.ErrorAs(t, err, &verr)
}

func TestService_IsDisplayNameTaken(t *testing.T) {
	ctx := context.Background()
	s, store, _ := newTestService(t)

	_, err := s.Upsert(ctx, "p1", ProfileInput{DisplayName: "Kenji"})
	require.NoError(t, err)

	taken, err := s.IsDisplayNameTaken(ctx, "KENJI", "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.IsDisplayNameTaken(ctx, "kenji", "p1")
	require.NoError(t, err)
	assert.False(t, taken, "own name is not taken")

	store.FailNext(docstore.CollectionUsers, errors.New("down"))
	_, err = s.IsDisplayNameTaken(ctx, "kenji", "")
	assert.Error(t, err)
}

func TestService_DisplayName(t *testing.T) {
	ctx := context.Background()

	t.Run("fallback for users without profile", func(t *testing.T) {
		s, _, _ := newTestService(t)
		assert.Equal(t, "User-abcdefgh", s.DisplayName(ctx, "abcdefghijklmnop"))
		assert.Equal(t, "User-abc", s.DisplayName(ctx, "abc"))
	})

	t.Run("cached until the profile changes", func(t *testing.T) {
		s, store, _ := newTestService(t)
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionUsers, "p1",
			model.UserProfile{PrincipalID: "p1", DisplayName: "Yui"}))

		assert.Equal(t, "Yui", s.DisplayName(ctx, "p1"))

		// a direct write bypasses invalidation, so the cached name is served
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionUsers, "p1",
			model.UserProfile{PrincipalID: "p1", DisplayName: "Yui2"}))
		assert.Equal(t, "Yui", s.DisplayName(ctx, "p1"))

		_, err := s.Upsert(ctx, "p1", ProfileInput{DisplayName: "Yui3"})
		require.NoError(t, err)
		assert.Equal(t, "Yui3", s.DisplayName(ctx, "p1"))
	})

	t.Run("store failure falls back without caching", func(t *testing.T) {
		s, store, cache := newTestService(t)
		store.FailNext(docstore.CollectionUsers, errors.New("down"))

		assert.Equal(t, "User-p1", s.DisplayName(ctx, "p1"))
		_, ok := cache.Get(ctx, "p1")
		assert.False(t, ok)
	})
}
