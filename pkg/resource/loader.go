// Package resource turns image references into pixels.
//
// A reference is one of:
//
//	https://host/path.jpg        remote image, fetched with a timeout
//	registry:templates/frame.png named resource from the injected Registry
//	classpath:/templates/a.png   alias of registry:, used by stored templates
//	data:image/png;base64,...    inline image
//	qr:https://example.com/card  QR code encoding the text after "qr:"
//
// [Loader.Fetch] reports failures as RESOURCE_LOAD errors. [Loader.Load]
// never fails: it substitutes a deterministic [Placeholder] sized to the
// target region and logs why.
//
// Decoded images are shared between renders and must not be modified.
package resource

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/httputil"
	"github.com/matzehuels/photocard/pkg/observability"
)

// Reference schemes.
const (
	SchemeHTTP      = "http"
	SchemeHTTPS     = "https"
	SchemeRegistry  = "registry"
	SchemeClasspath = "classpath"
	SchemeData      = "data"
	SchemeQR        = "qr"
)

// Defaults for Options.
const (
	DefaultTimeout    = 5 * time.Second
	DefaultMaxDecoded = 64
	QRSize            = 512

	// MaxSourcePixels bounds the pixel count of any decoded source image.
	MaxSourcePixels = 64 << 20
)

// Options configures a Loader. The zero value is usable: no registry,
// a default fetcher, no byte cache, a 5 second timeout.
type Options struct {
	// Registry holds named resources. Nil means registry references fail.
	Registry *Registry

	// Fetcher performs remote requests. Nil means httputil.NewFetcher().
	Fetcher *httputil.Fetcher

	// Cache stores raw remote bytes. Nil disables byte caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// Timeout bounds each remote fetch.
	Timeout time.Duration

	// MaxDecoded bounds the in-memory cache of decoded images.
	// Negative disables it.
	MaxDecoded int

	Logger *log.Logger
}

// Loader resolves references to images. It is safe for concurrent use.
type Loader struct {
	registry   *Registry
	fetcher    *httputil.Fetcher
	cache      cache.Cache
	keyer      cache.Keyer
	timeout    time.Duration
	maxDecoded int
	logger     *log.Logger

	mu      sync.RWMutex
	decoded map[string]image.Image
	group   singleflight.Group
}

// NewLoader creates a Loader from opts.
func NewLoader(opts Options) *Loader {
	l := &Loader{
		registry:   opts.Registry,
		fetcher:    opts.Fetcher,
		cache:      opts.Cache,
		keyer:      opts.Keyer,
		timeout:    opts.Timeout,
		maxDecoded: opts.MaxDecoded,
		logger:     opts.Logger,
		decoded:    make(map[string]image.Image),
	}
	if l.fetcher == nil {
		l.fetcher = httputil.NewFetcher()
	}
	if l.cache == nil {
		l.cache = cache.NewNullCache()
	}
	if l.keyer == nil {
		l.keyer = cache.NewDefaultKeyer()
	}
	if l.timeout <= 0 {
		l.timeout = DefaultTimeout
	}
	if l.maxDecoded == 0 {
		l.maxDecoded = DefaultMaxDecoded
	}
	if l.logger == nil {
		l.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}

// Loaded is the outcome of Load. Image is never nil.
type Loaded struct {
	Image       image.Image
	Placeholder bool
	Err         error // why the placeholder was used
}

// Load resolves ref, or returns Placeholder(width, height, label) when ref
// cannot be fetched or decoded.
func (l *Loader) Load(ctx context.Context, ref string, width, height int, label string) Loaded {
	img, err := l.Fetch(ctx, ref)
	if err == nil {
		return Loaded{Image: img}
	}

	l.logger.Warn("using placeholder", "ref", redact(ref), "label", label, "err", err)
	observability.Render().OnFallback(ctx, "resource", redact(ref), err)
	return Loaded{
		Image:       Placeholder(width, height, label),
		Placeholder: true,
		Err:         err,
	}
}

// Fetch resolves ref to a decoded image. Failures are RESOURCE_LOAD errors.
func (l *Loader) Fetch(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.ResourceLoad(stderrors.New("empty reference"), "")
	}

	if img, ok := l.cached(ref); ok {
		return img, nil
	}

	// The shared load is detached from the caller that started it, so one
	// canceled render cannot fail the others waiting on the same ref. Remote
	// loads stay bounded by l.timeout.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(ref, func() (any, error) {
		start := time.Now()
		scheme := schemeOf(ref)
		img, err := l.resolve(shared, scheme, ref)
		observability.Render().OnResourceLoad(shared, scheme, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		if scheme != SchemeData {
			l.remember(ref, img)
		}
		return img, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, errors.ResourceLoad(res.Err, redact(ref))
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, errors.ResourceLoad(ctx.Err(), redact(ref))
	}
}

func (l *Loader) resolve(ctx context.Context, scheme, ref string) (image.Image, error) {
	switch scheme {
	case SchemeHTTP, SchemeHTTPS:
		data, err := l.remote(ctx, ref)
		if err != nil {
			return nil, err
		}
		return decode(data)

	case SchemeRegistry, SchemeClasspath:
		data, err := l.registry.Open(ref[len(scheme)+1:])
		if err != nil {
			return nil, err
		}
		return decode(data)

	case SchemeData:
		data, err := decodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		return decode(data)

	case SchemeQR:
		content := ref[len(SchemeQR)+1:]
		if content == "" {
			return nil, stderrors.New("qr reference has no content")
		}
		q, err := qrcode.New(content, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		return q.Image(QRSize), nil

	default:
		return nil, fmt.Errorf("unsupported reference scheme %q", scheme)
	}
}

// remote fetches ref through the byte cache and the fetcher.
func (l *Loader) remote(ctx context.Context, ref string) ([]byte, error) {
	key := l.keyer.ImageKey(ref)
	if data, hit, err := l.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "image")
		return data, nil
	} else if err != nil {
		l.logger.Debug("image cache read failed", "err", err)
	}
	observability.Cache().OnCacheMiss(ctx, "image")

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.fetcher.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, key, data, cache.TTLImage); err != nil {
		l.logger.Debug("image cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "image", len(data))
	}
	return data, nil
}

func (l *Loader) cached(ref string) (image.Image, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	img, ok := l.decoded[ref]
	return img, ok
}

func (l *Loader) remember(ref string, img image.Image) {
	if l.maxDecoded < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.decoded) < l.maxDecoded {
		l.decoded[ref] = img
	}
}

func decode(data []byte) (image.Image, error) {
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
			return nil, fmt.Errorf("image is %dx%d, larger than %d pixels", cfg.Width, cfg.Height, MaxSourcePixels)
		}
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, stderrors.New("decoded image is empty")
	}
	return img, nil
}

// decodeDataURI extracts the payload of a base64 data URI.
func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, stderrors.New("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, stderrors.New("data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	return data, nil
}

func schemeOf(ref string) string {
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok {
		return ""
	}
	return strings.ToLower(scheme)
}

// redact shortens data URIs and strips URL credentials and query strings
// before a reference is logged.
func redact(ref string) string {
	switch schemeOf(ref) {
	case SchemeData:
		if len(ref) > 32 {
			return ref[:32] + "..."
		}
		return ref
	case SchemeHTTP, SchemeHTTPS:
		u, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		u.User = nil
		u.RawQuery = ""
		return u.String()
	default:
		return ref
	}
}
