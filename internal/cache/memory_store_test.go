package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	stats := store.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Hour))
	value[0] = 'x'

	got, _, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))

	now = now.Add(2 * time.Minute)

	_, ok, _ := store.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "long")
	assert.True(t, ok)

	assert.Equal(t, 1, store.DeleteExpired())
	assert.Equal(t, 1, store.Size())
}

func TestMemoryStore_EvictsWhenFull(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Duration(i+1)*time.Hour))
	}
	require.NoError(t, store.Set(ctx, "k3", []byte("v"), 10*time.Hour))

	assert.Equal(t, 3, store.Size())
	_, ok, _ := store.Get(ctx, "k0")
	assert.False(t, ok, "entry closest to expiry is evicted")
	_, ok, _ = store.Get(ctx, "k3")
	assert.True(t, ok)

	// Overwriting an existing key never evicts
	require.NoError(t, store.Set(ctx, "k3", []byte("w"), 10*time.Hour))
	assert.Equal(t, 3, store.Size())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "missing"))
	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)
}
