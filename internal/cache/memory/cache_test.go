package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/kvitok/internal/repository"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	got, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCache_GetMiss(t *testing.T) {
	c := NewCache()
	defer c.Stop()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))
	require.NoError(t, c.Delete(ctx, "key"))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	exists, err := c.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent key is a no-op.
	assert.NoError(t, c.Delete(ctx, "key"))
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Millisecond))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, repository.ErrCacheMiss)

	exists, err := c.Exists(ctx, "short")
	require.NoError(t, err)
	assert.False(t, exists, "expired keys must not report as existing")

	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err, "zero TTL means no expiry")
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := NewCache()
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 0))

	first, err := c.Get(ctx, "key")
	require.NoError(t, err)
	first[0] = 'X'

	second, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), second, "callers must not be able to mutate cached values")
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := NewCache()
	c.Stop()
	c.Stop()
}
