package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/compose"
	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/layout"
	"github.com/matzehuels/photocard/pkg/observability"
	"github.com/matzehuels/photocard/pkg/resource"
)

// Runner renders photocards with caching.
// Both the CLI and the server use it so renders behave the same everywhere.
//
// The Runner holds no per-render state. Multiple goroutines can safely use
// the same Runner with different requests.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	Loader     *resource.Loader
	Compositor *compose.Compositor

	// Concurrency bounds the image loads of one render.
	Concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLoader sets the resource loader. The default loader has no registry.
func WithLoader(l *resource.Loader) Option {
	return func(r *Runner) { r.Loader = l }
}

// WithCompositor sets the compositor. The default uses the built-in fonts.
func WithCompositor(c *compose.Compositor) Option {
	return func(r *Runner) { r.Compositor = c }
}

// WithConcurrency sets how many images one render loads at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.Concurrency = n }
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, opts ...Option) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Cache:       c,
		Keyer:       keyer,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Loader == nil {
		r.Loader = resource.NewLoader(resource.Options{Keyer: keyer, Logger: logger})
	}
	if r.Compositor == nil {
		r.Compositor = compose.New(nil, logger)
	}
	if r.Concurrency <= 0 {
		r.Concurrency = DefaultConcurrency
	}
	return r
}

// Render produces an encoded photocard. The only error it returns is an
// ENCODING_ERROR, including for an unsupported format.
func (r *Runner) Render(ctx context.Context, req RenderRequest) (*Result, error) {
	start := time.Now()
	req = normalize(req)
	observability.Render().OnRenderStart(ctx, req.Width, req.Height, req.Format)

	result, err := r.render(ctx, req)
	size := 0
	if result != nil {
		result.Duration = time.Since(start)
		size = len(result.Data)
	}
	observability.Render().OnRenderComplete(ctx, req.Format, size, time.Since(start), err)
	if err != nil {
		r.Logger.Error("render failed", "format", req.Format, "err", err)
		return nil, err
	}

	r.Logger.Info("rendered photocard",
		"size", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"format", req.Format,
		"bytes", size,
		"fallbacks", len(result.Fallbacks),
		"cached", result.CacheHit,
		"duration", result.Duration)
	return result, nil
}

func (r *Runner) render(ctx context.Context, req RenderRequest) (*Result, error) {
	mime := MIMEType(req.Format)
	if mime == "" {
		return nil, errors.Encoding(fmt.Errorf("unsupported format %q", req.Format), req.Format)
	}

	result := &Result{
		MIMEType: mime,
		Format:   req.Format,
		Width:    req.Width,
		Height:   req.Height,
	}

	cfg, fb := r.resolveLayout(ctx, req)
	if fb != nil {
		result.Fallbacks = append(result.Fallbacks, *fb)
	}
	bind(&cfg, req, Variables(req))

	// The resolved layout carries every input that affects the pixels.
	cacheKey := ""
	if hash, err := cache.HashJSON(cfg); err == nil {
		cacheKey = r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{
			Format: req.Format,
			Width:  req.Width,
			Height: req.Height,
		})
	}
	if cacheKey != "" && fb == nil {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			result.Data = data
			result.CacheHit = true
			return result, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	images, fallbacks := r.loadImages(ctx, cfg, req.Width, req.Height)
	result.Fallbacks = append(result.Fallbacks, fallbacks...)

	canvas := compose.NewCanvas(req.Width, req.Height)
	result.Report = r.Compositor.Compose(canvas, cfg, images)

	data, err := Encode(canvas, req.Format)
	if err != nil {
		return nil, err
	}
	result.Data = data

	if cacheKey != "" && len(result.Fallbacks) == 0 {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err != nil {
			r.Logger.Debug("artifact cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return result, nil
}

// resolveLayout picks the request's layout, falling back to layout.Default
// when it is invalid.
func (r *Runner) resolveLayout(ctx context.Context, req RenderRequest) (layout.Config, *Fallback) {
	var (
		cfg layout.Config
		err error
	)
	switch {
	case req.Layout != nil:
		cfg = req.Layout.Clone()
		cfg.ApplyDefaults()
		err = cfg.Validate()
	case req.LayoutSource != "":
		cfg, err = layout.Parse([]byte(req.LayoutSource))
	default:
		return layout.Default(req.Width, req.Height), nil
	}
	if err == nil {
		return cfg, nil
	}

	r.Logger.Warn("invalid layout, using default", "err", err)
	observability.Render().OnFallback(ctx, FallbackLayout, "", err)
	return layout.Default(req.Width, req.Height), &Fallback{
		Kind:   FallbackLayout,
		Reason: err.Error(),
		Err:    err,
	}
}

type loadJob struct {
	key    string
	ref    string
	width  int
	height int
	label  string
	kind   string
}

// loadImages resolves every image of cfg concurrently. Failed loads are
// replaced by placeholders and reported as fallbacks.
func (r *Runner) loadImages(ctx context.Context, cfg layout.Config, width, height int) (compose.Images, []Fallback) {
	var jobs []loadJob
	if cfg.Background.Type == layout.BackgroundImage && cfg.Background.Alpha() > 0 {
		jobs = append(jobs, loadJob{
			key: compose.BackgroundKey, ref: cfg.Background.ImageURL,
			width: width, height: height,
			label: resource.LabelTemplate, kind: FallbackBackground,
		})
	}
	for i, area := range cfg.ImageAreas {
		visible := area.Clip(width, height)
		if visible.Empty() {
			continue
		}
		// Placeholders only need to cover what is on the canvas.
		jobs = append(jobs, loadJob{
			key: layout.AreaKey(area.ID, i), ref: area.ImageURL,
			width: visible.Dx(), height: visible.Dy(),
			label: resource.LabelArtwork, kind: FallbackImage,
		})
	}

	loaded := make([]resource.Loaded, len(jobs))
	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			loaded[i] = r.Loader.Load(ctx, job.ref, job.width, job.height, job.label)
			return nil
		})
	}
	_ = g.Wait()

	images := make(compose.Images, len(jobs))
	var fallbacks []Fallback
	for i, job := range jobs {
		images[job.key] = loaded[i].Image
		if loaded[i].Placeholder {
			fallbacks = append(fallbacks, Fallback{
				Kind:   job.kind,
				Target: job.key,
				Reason: loaded[i].Err.Error(),
				Err:    loaded[i].Err,
			})
		}
	}
	return images, fallbacks
}

// Encode serializes img in format. Failures are ENCODING_ERROR.
func Encode(img image.Image, format string) ([]byte, error) {
	format = NormalizeFormat(format)
	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, errors.Encoding(err, format)
	}
	return buf.Bytes(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
