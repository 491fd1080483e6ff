package radar

import (
	"testing"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterCache_LookupStore(t *testing.T) {
	c := newRasterCache(2)
	r := domain.NewRaster(1, 1)

	c.store(cacheEntry{url: "a", etag: `"1"`, raster: r})

	got, ok := c.lookup("a")
	require.True(t, ok)
	assert.Equal(t, `"1"`, got.etag)
	assert.Same(t, r, got.raster)

	_, ok = c.lookup("missing")
	assert.False(t, ok)
}

func TestRasterCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newRasterCache(2)

	c.store(cacheEntry{url: "a", etag: "a"})
	c.store(cacheEntry{url: "b", etag: "b"})
	_, _ = c.lookup("a") // a becomes most recent
	c.store(cacheEntry{url: "c", etag: "c"})

	assert.Equal(t, 2, c.size())
	_, ok := c.lookup("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.lookup("a")
	assert.True(t, ok)
	_, ok = c.lookup("c")
	assert.True(t, ok)
}

func TestRasterCache_UpdateExisting(t *testing.T) {
	c := newRasterCache(1)

	c.store(cacheEntry{url: "a", etag: "old"})
	c.store(cacheEntry{url: "a", lastModified: "Wed, 01 May 2024 12:00:00 GMT"})

	got, ok := c.lookup("a")
	require.True(t, ok)
	assert.Empty(t, got.etag)
	assert.Equal(t, "Wed, 01 May 2024 12:00:00 GMT", got.lastModified)
	assert.Equal(t, 1, c.size())
}

func TestRasterCache_SkipsUnvalidatedEntries(t *testing.T) {
	c := newRasterCache(2)

	c.store(cacheEntry{url: "a", raster: domain.NewRaster(1, 1)})

	_, ok := c.lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.size())
}
