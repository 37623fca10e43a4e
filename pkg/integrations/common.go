package integrations

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/photocard/pkg/httputil"
)

const (
	httpTimeout      = 10 * time.Second
	maxResponseBytes = 2 << 20
)

var (
	// ErrNotFound is returned when the requested record doesn't exist.
	ErrNotFound = httputil.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = httputil.ErrNetwork
)

// NewHTTPClient creates an HTTP client with a standard timeout for service requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// Endpoint joins a base URL and escaped path segments.
func Endpoint(base string, segments ...string) (string, error) {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return url.JoinPath(base, escaped...)
}

// FormatID renders a numeric record id for URLs and cache keys.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
