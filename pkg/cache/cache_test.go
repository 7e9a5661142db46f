package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) (*Cache[string], *time.Time) {
	c := New[string](ttl)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_SetGetExpire(t *testing.T) {
	c, now := newTestCache(time.Minute)
	defer c.Stop()

	c.Set("QP101", "https://signed/1")
	v, ok := c.Get("QP101")
	require.True(t, ok)
	assert.Equal(t, "https://signed/1", v)

	*now = now.Add(2 * time.Minute)
	_, ok = c.Get("QP101")
	assert.False(t, ok)

	c.Invalidate("")
	assert.Equal(t, 0, c.Size())
}

func TestCache_GetOrSet(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Stop()

	calls := 0
	fill := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet(context.Background(), "k", 0, fill)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestCache_GetOrSet_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Stop()

	boom := errors.New("boom")
	_, err := c.GetOrSet(context.Background(), "k", time.Second, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Size())
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Stop()

	c.Set("paper:QP1", "a")
	c.Set("paper:QP2", "b")
	c.Set("photo:1", "c")
	c.Invalidate("paper:")

	assert.Equal(t, 1, c.Size())
	c.Delete("photo:1")
	assert.Equal(t, 0, c.Size())
}

func TestCache_StopTwice(t *testing.T) {
	c := New[int](time.Second)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
