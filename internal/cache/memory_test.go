package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "page:/", []byte("<html>"), time.Minute))
	val, ok, err := store.Get(ctx, "page:/")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("<html>"), val)

	// 返回值是副本，修改不影响缓存内容
	val[0] = 'X'
	again, _, _ := store.Get(ctx, "page:/")
	assert.Equal(t, []byte("<html>"), again)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 300*time.Second))

	now = now.Add(299 * time.Second)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreNoTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * time.Hour)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, store.Delete(ctx, "a"))
	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Set(ctx, "shared", []byte{byte(i)}, time.Minute)
			_, _, _ = store.Get(ctx, "shared")
			if i%10 == 0 {
				_ = store.Clear(ctx)
			}
		}(i)
	}
	wg.Wait()
}
