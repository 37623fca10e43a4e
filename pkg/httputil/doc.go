// Package httputil provides the bounded HTTP fetcher used for remote images
// and external services.
//
// # Overview
//
// A [Fetcher] performs single GET requests with:
//
//   - a response size limit (default 20 MiB)
//   - an optional outbound rate limit (golang.org/x/time/rate)
//   - status mapping to [ErrNotFound], [ErrTooLarge] and [ErrNetwork]
//   - observability HTTP hooks around every request
//
// There is no retry. A fetch either returns the body or fails; callers
// decide what the failure means (the resource loader paints a placeholder).
// Timeouts come from the caller's context:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
//	defer cancel()
//	body, err := fetcher.Get(ctx, "https://images.example.com/art/42.jpg")
package httputil
