package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkProcessed_FirstSightingWins(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "webhook:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "webhook:abc", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh)

	seen, err := store.IsProcessed(ctx, "webhook:abc")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = store.IsProcessed(ctx, "webhook:other")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkProcessed_ExpiredKeyIsFreshAgain(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "k", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	seen, err := store.IsProcessed(ctx, "k")
	require.NoError(t, err)
	assert.False(t, seen)

	fresh, err := store.MarkProcessed(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMarkProcessed_Concurrent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(ctx, "contended", time.Minute)
			require.NoError(t, err)
			if fresh {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestClose_Idempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
