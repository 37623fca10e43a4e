package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/httputil"
	"github.com/matzehuels/photocard/pkg/observability"
)

// Client provides shared HTTP functionality for all service clients.
// It handles response caching and common request headers.
type Client struct {
	fetcher   *httputil.Fetcher
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
}

// NewClient creates a Client that caches decoded responses in c under
// namespace for ttl. Headers are applied to all requests made through this
// client. Pass nil for headers if no default headers are needed, and nil
// for c to disable caching.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		fetcher:   newFetcher(NewHTTPClient(), headers),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
	}
}

// SetHTTPClient replaces the underlying HTTP client, keeping the headers.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.fetcher = newFetcher(hc, c.headers)
}

func newFetcher(hc *http.Client, headers map[string]string) *httputil.Fetcher {
	opts := []httputil.FetchOption{httputil.WithClient(hc), httputil.WithMaxBytes(maxResponseBytes)}
	for k, v := range headers {
		opts = append(opts, httputil.WithHeader(k, v))
	}
	return httputil.NewFetcher(opts...)
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	cacheKey := c.keyer.HTTPKey(c.namespace, key)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, cacheKey); err == nil && hit {
			if json.Unmarshal(data, v) == nil {
				observability.Cache().OnCacheHit(ctx, c.namespace)
				return nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, c.namespace)
	}
	if err := fetch(); err != nil {
		return err
	}
	if data, err := json.Marshal(v); err == nil {
		if c.cache.Set(ctx, cacheKey, data, c.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, c.namespace, len(data))
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// 404 and 410 responses are ErrNotFound; everything else that fails is
// ErrNetwork.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.fetcher.GetJSON(ctx, url, v)
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	data, err := c.fetcher.Get(ctx, url)
	return string(data), err
}
