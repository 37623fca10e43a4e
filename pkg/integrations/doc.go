// Package integrations provides HTTP clients for the services around the
// photocard maker.
//
// # Overview
//
// Each service has its own subpackage:
//
//   - [exhibition]: artwork records (title, description, image URL)
//   - [chat]: ending credits of a finished conversation
//
// # Client Pattern
//
// All service clients follow a consistent pattern:
//
//	client := exhibition.NewClient(baseURL, redisCache, 10*time.Minute)
//	artwork, err := client.FetchArtwork(ctx, 42, false) // false = use cache
//
// Clients handle:
//   - bounded HTTP requests through [httputil.Fetcher]
//   - response caching in any [cache.Cache] with a per-client TTL
//   - mapping of missing records to [ErrNotFound]
//
// There is no retry: a failed request is reported once and the caller
// decides on a fallback.
//
// [exhibition]: github.com/matzehuels/photocard/pkg/integrations/exhibition
// [chat]: github.com/matzehuels/photocard/pkg/integrations/chat
// [httputil.Fetcher]: github.com/matzehuels/photocard/pkg/httputil.Fetcher
// [cache.Cache]: github.com/matzehuels/photocard/pkg/cache.Cache
package integrations
