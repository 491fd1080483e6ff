package radar

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/radar-rain-etl/internal/domain"
	"github.com/couchcryptid/radar-rain-etl/internal/observability"
)

// maxErrorBody caps how much of an error response is kept in a FetchError.
const maxErrorBody = 512

// Client downloads and decodes radar images over HTTP.
type Client struct {
	httpClient *http.Client
	cache      *rasterCache // nil when caching is disabled
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a radar image client. A zero timeout means no client
// timeout; cacheSize <= 0 disables conditional requests.
func NewClient(timeout time.Duration, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
	if cacheSize > 0 {
		c.cache = newRasterCache(cacheSize)
	}
	return c
}

// Fetch downloads url and decodes it into a raster. Transport failures and
// non-2xx responses return *domain.FetchError; undecodable payloads return
// *domain.DecodeError. The returned raster may be shared with the cache and
// must not be modified.
func (c *Client) Fetch(ctx context.Context, url string) (*domain.Raster, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	cached, hasCached := c.lookup(url)
	if hasCached {
		if cached.etag != "" {
			req.Header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			req.Header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && hasCached {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		c.logger.Debug("radar image not modified", "url", url)
		return cached.raster, nil
	}
	if c.cache != nil {
		c.metrics.FetchCache.WithLabelValues("miss").Inc()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.FetchError{
			URL:    url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", body),
		}
	}

	// A body that breaks off mid-image is reported as a decode failure too.
	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, &domain.DecodeError{URL: url, Err: err}
	}

	raster := domain.FromImage(img)
	c.logger.Debug("radar image fetched",
		"url", url,
		"format", format,
		"width", raster.Width,
		"height", raster.Height,
	)

	c.store(url, resp.Header, raster)
	return raster, nil
}

func (c *Client) lookup(url string) (cacheEntry, bool) {
	if c.cache == nil {
		return cacheEntry{}, false
	}
	return c.cache.lookup(url)
}

func (c *Client) store(url string, h http.Header, raster *domain.Raster) {
	if c.cache == nil {
		return
	}
	c.cache.store(cacheEntry{
		url:          url,
		etag:         h.Get("ETag"),
		lastModified: h.Get("Last-Modified"),
		raster:       raster,
	})
}
