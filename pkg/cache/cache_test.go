package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(c *Cache, start time.Time) *time.Time {
	now := start
	c.now = func() time.Time { return now }
	return &now
}

func TestSetGetAndExpire(t *testing.T) {
	c := New(0)
	now := fakeClock(c, time.Unix(1_700_000_000, 0))
	key := KeyFromStrings("unit", "expire")

	_, ok := c.Get(key)
	assert.False(t, ok, "expected no value initially")

	c.Set(key, "hello", 50*time.Millisecond)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	*now = now.Add(80 * time.Millisecond)
	_, ok = c.Get(key)
	assert.False(t, ok, "expected expired value to be gone")
	assert.Equal(t, 0, c.Len())
}

func TestDelete(t *testing.T) {
	c := Default()
	key := KeyFromStrings("unit", "delete", time.Now().String())
	c.Set(key, 42, time.Second)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	c.Delete(key)
	_, ok = c.Get(key)
	assert.False(t, ok, "expected deleted value to be absent")
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	_, _ = c.Get("a") // a is now MRU
	c.Set("c", 3, 0)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c := New(10)
	calls := 0
	load := func() (any, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrLoad("k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.GetOrLoad("k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "second call should be served from cache")
	assert.Equal(t, 1, calls)

	_, err = c.GetOrLoad("bad", time.Minute, func() (any, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok, "errors must not be cached")

	v, err = c.GetOrLoad("k", 0, load)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "ttl<=0 bypasses the cache")
}

func TestGetOrLoadSharesConcurrentMisses(t *testing.T) {
	c := New(10)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (any, error) {
		calls.Add(1)
		<-release
		return "rows", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("dashboard:metrics", time.Minute, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	// let the callers pile up behind the first load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "rows", v)
	}
}

func TestPurge(t *testing.T) {
	c := New(0)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	c.Set("a", 1, time.Minute)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, err := c.GetOrLoad("a", time.Minute, func() (any, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestKeyFromStringsStability(t *testing.T) {
	assert.Equal(t, KeyFromStrings("a", "b", "c"), KeyFromStrings("a", "b", "c"))
	assert.NotEqual(t, KeyFromStrings("a", "b", "c"), KeyFromStrings("a", "b", "d"))
	assert.NotEqual(t, KeyFromStrings("ab", "c"), KeyFromStrings("a", "bc"))
}
