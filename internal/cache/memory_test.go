package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

func TestMemoryRosterCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryRosterCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, []model.StudentSummary{{StudentID: "S1"}}))
	roster, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, roster, 1)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok, "expired entry is a miss")

	require.NoError(t, c.Set(ctx, []model.StudentSummary{}))
	_, ok, _ = c.Get(ctx)
	assert.True(t, ok, "an empty roster is still cached")

	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestMemoryRosterCacheDisabled(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRosterCache(0)
	require.NoError(t, c.Set(ctx, []model.StudentSummary{{StudentID: "S1"}}))
	_, ok, _ := c.Get(ctx)
	assert.False(t, ok)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	require.NoError(t, s.Create(ctx, "a", "alice", time.Hour))
	require.NoError(t, s.Create(ctx, "b", "alice", time.Hour))
	require.NoError(t, s.Create(ctx, "c", "bob", time.Hour))

	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Revoke(ctx, "a"))
	ok, _ = s.Exists(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, s.RevokeAll(ctx, "alice"))
	ok, _ = s.Exists(ctx, "b")
	assert.False(t, ok)
	ok, _ = s.Exists(ctx, "c")
	assert.True(t, ok)
}

func TestMemorySessionExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemorySessionStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Create(ctx, "a", "alice", time.Second))
	now = now.Add(2 * time.Second)
	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
