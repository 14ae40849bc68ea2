package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Houeta/batch-geocoder/internal/cache"
	"github.com/Houeta/batch-geocoder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetMiss(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	_, ok := c.Get("unknown key")

	assert.False(t, ok)
}

func TestCache_PutIfAbsent_FirstWriteWins(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	first := models.Success(models.Coordinates{Latitude: 51.5, Longitude: -0.15}, "ROOFTOP")
	second := models.Success(models.Coordinates{Latitude: 40.7, Longitude: -74.0}, "ROOFTOP")

	assert.True(t, c.PutIfAbsent("221b baker street", first, 0))
	assert.False(t, c.PutIfAbsent("221b baker street", second, 0))

	got, ok := c.Get("221b baker street")
	require.True(t, ok)
	require.NotNil(t, got.Coordinates)
	assert.InEpsilon(t, 51.5, got.Coordinates.Latitude, 1e-9)
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := cache.New(10)
	failure := models.Failed(models.FailureExhaustedRetries, "provider down")

	require.True(t, c.PutIfAbsent("key", failure, 10*time.Millisecond))

	_, ok := c.Get("key")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = c.Get("key")
	assert.False(t, ok, "entry should expire after its TTL")

	// An expired entry no longer blocks a new write.
	assert.True(t, c.PutIfAbsent("key", failure, 0))
}

func TestCache_LRUEviction(t *testing.T) {
	t.Parallel()

	c := cache.New(2)
	res := models.Success(models.Coordinates{Latitude: 1, Longitude: 2}, "")

	require.True(t, c.PutIfAbsent("a", res, 0))
	require.True(t, c.PutIfAbsent("b", res, 0))

	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	require.True(t, c.PutIfAbsent("c", res, 0))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_SnapshotSurvivesEviction(t *testing.T) {
	t.Parallel()

	c := cache.New(1)
	res := models.Success(models.Coordinates{Latitude: 51.5, Longitude: -0.15}, "ROOFTOP")
	require.True(t, c.PutIfAbsent("a", res, 0))

	got, ok := c.Get("a")
	require.True(t, ok)

	// Evict "a" by inserting another key into a size-1 cache.
	require.True(t, c.PutIfAbsent("b", res, 0))

	require.NotNil(t, got.Coordinates)
	assert.InEpsilon(t, 51.5, got.Coordinates.Latitude, 1e-9)
}

func TestCache_ConcurrentPutIfAbsent(t *testing.T) {
	t.Parallel()

	c := cache.New(0)
	const writers = 32

	var wg sync.WaitGroup
	wins := make(chan int, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := models.Success(models.Coordinates{Latitude: float64(i)}, "")
			if c.PutIfAbsent("shared", res, 0) {
				wins <- i
			}
		}()
	}
	wg.Wait()
	close(wins)

	var count int
	var winner int
	for i := range wins {
		count++
		winner = i
	}
	require.Equal(t, 1, count, "exactly one writer should win")

	got, ok := c.Get("shared")
	require.True(t, ok)
	assert.InDelta(t, float64(winner), got.Coordinates.Latitude, 1e-9)
}
