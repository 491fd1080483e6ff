package radar

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
)

// cacheEntry is the last decoded raster for a URL with its HTTP validators.
type cacheEntry struct {
	url          string
	etag         string
	lastModified string
	raster       *domain.Raster
}

// validated reports whether the server gave us anything to revalidate with.
func (e cacheEntry) validated() bool {
	return e.etag != "" || e.lastModified != ""
}

// rasterCache holds the most recently fetched images, evicting the least
// recently used URL once full. Safe for concurrent use.
type rasterCache struct {
	capacity int

	mu    sync.Mutex
	order *list.List // front is most recent; values are cacheEntry
	byURL map[string]*list.Element
}

func newRasterCache(capacity int) *rasterCache {
	return &rasterCache{
		capacity: capacity,
		order:    list.New(),
		byURL:    make(map[string]*list.Element),
	}
}

func (c *rasterCache) lookup(url string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byURL[url]
	if !ok {
		return cacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(cacheEntry), true
}

// store records e under e.url. Entries without validators are skipped.
func (c *rasterCache) store(e cacheEntry) {
	if c.capacity <= 0 || !e.validated() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byURL[e.url]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.byURL[e.url] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byURL, oldest.Value.(cacheEntry).url)
	}
}

func (c *rasterCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
