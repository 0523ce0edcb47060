package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/sarstore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobKey(path string, blk uint64) CacheKey {
	return CacheKey{Kind: CacheKindBlob, Path: path, Offset: blk}
}

func TestLRUBasic(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(30, nil)

	c.Set(ctx, blobKey("a", 0), make([]byte, 10))
	c.Set(ctx, blobKey("a", 1), make([]byte, 10))
	c.Set(ctx, blobKey("a", 2), make([]byte, 10))
	assert.Equal(t, int64(30), c.Size())

	// Touch block 0 so block 1 is the eviction victim.
	_, ok := c.Get(ctx, blobKey("a", 0))
	require.True(t, ok)
	c.Set(ctx, blobKey("a", 3), make([]byte, 10))

	_, ok = c.Get(ctx, blobKey("a", 1))
	assert.False(t, ok)
	_, ok = c.Get(ctx, blobKey("a", 0))
	assert.True(t, ok)
	assert.Equal(t, 3, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUKindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(100, nil)
	c.Set(ctx, CacheKey{Kind: CacheKindBlob, Path: "img", Offset: 4}, []byte("raw"))
	c.Set(ctx, CacheKey{Kind: CacheKindDecoded, Path: "img", Offset: 4}, []byte("decoded"))

	got, ok := c.Get(ctx, CacheKey{Kind: CacheKindBlob, Path: "img", Offset: 4})
	require.True(t, ok)
	assert.Equal(t, "raw", string(got))
	got, ok = c.Get(ctx, CacheKey{Kind: CacheKindDecoded, Path: "img", Offset: 4})
	require.True(t, ok)
	assert.Equal(t, "decoded", string(got))
}

func TestLRUResourceAccounting(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRUBlockCache(50, rc)
	k := blobKey("a", 1)

	c.Set(ctx, k, make([]byte, 60))
	_, ok := c.Get(ctx, k)
	assert.False(t, ok, "larger than capacity")

	c.Set(ctx, k, make([]byte, 10))
	assert.Equal(t, int64(10), rc.MemoryUsage())
	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(20), rc.MemoryUsage())
	c.Set(ctx, k, make([]byte, 5))
	assert.Equal(t, int64(5), rc.MemoryUsage())

	// Someone else holds most of the budget: growth is refused.
	require.NoError(t, rc.AcquireMemory(ctx, 90))
	c.Set(ctx, k, make([]byte, 20))
	assert.Equal(t, int64(5), c.Size())
	c.Set(ctx, blobKey("a", 2), make([]byte, 10))
	_, ok = c.Get(ctx, blobKey("a", 2))
	assert.False(t, ok)
	rc.ReleaseMemory(90)

	require.NoError(t, c.Close())
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Size())
}

func TestLRUInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewLRUBlockCache(1000, nil)
	for i := range 5 {
		c.Set(ctx, blobKey("a", uint64(i)), []byte{1})
		c.Set(ctx, blobKey("b", uint64(i)), []byte{2})
	}
	c.Invalidate(ForPath("a"))
	assert.Equal(t, 5, c.Len())
	_, ok := c.Get(ctx, blobKey("b", 3))
	assert.True(t, ok)
}

func TestShardedBasic(t *testing.T) {
	ctx := context.Background()
	c := NewShardedLRUBlockCache(1<<20, nil)

	c.Set(ctx, blobKey("scene.ntf", 0), []byte("test data"))
	got, ok := c.Get(ctx, blobKey("scene.ntf", 0))
	require.True(t, ok)
	assert.Equal(t, "test data", string(got))

	_, ok = c.Get(ctx, blobKey("other.ntf", 0))
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestShardedDistribution(t *testing.T) {
	ctx := context.Background()
	c := NewShardedLRUBlockCache(64<<20, nil)
	data := make([]byte, 1024)
	for i := range 1000 {
		c.Set(ctx, blobKey(fmt.Sprintf("img-%d", i%10), uint64(i)), data)
	}
	assert.Equal(t, int64(1000*1024), c.Size())
	assert.Greater(t, c.nonEmptyShards(), 30)

	c.Invalidate(ForPath("img-3"))
	assert.Equal(t, int64(900*1024), c.Size())
	require.NoError(t, c.Close())
	assert.Zero(t, c.Size())
}

func TestShardedConcurrent(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
	c := NewShardedLRUBlockCache(1<<20, rc)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := blobKey("img", uint64(g*1000+i))
				c.Set(ctx, k, make([]byte, 128))
				c.Get(ctx, k)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, c.Size(), rc.MemoryUsage())
}
