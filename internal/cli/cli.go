// Package cli implements the photocard command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/compose"
	"github.com/matzehuels/photocard/pkg/fonts"
	"github.com/matzehuels/photocard/pkg/httputil"
	"github.com/matzehuels/photocard/pkg/pipeline"
	"github.com/matzehuels/photocard/pkg/resource"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "photocard"

	// configFile is the file name looked up in the config directory.
	configFile = "photocard.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects the local resources of a render.
type runnerOpts struct {
	keyPrefix    string            // cache key scope, optional
	resources    string            // registry directory, optional
	fontFiles    map[string]string // family → font file
	concurrency  int
	fetchTimeout time.Duration
	rateLimit    float64 // outbound fetches per second, 0 = unlimited
	maxDecoded   int
}

// newRunner creates a pipeline runner that caches rendered cards and
// fetched images in store.
func (c *CLI) newRunner(store cache.Cache, opts runnerOpts) (*pipeline.Runner, error) {
	registry := fonts.Default()
	if len(opts.fontFiles) > 0 {
		var fontOpts []fonts.Option
		for family, path := range opts.fontFiles {
			fontOpts = append(fontOpts, fonts.WithFontFile(family, path))
		}
		var err error
		if registry, err = fonts.New(fontOpts...); err != nil {
			return nil, err
		}
	}

	keyer := cache.NewDefaultKeyer()
	if opts.keyPrefix != "" {
		keyer = cache.NewScopedKeyer(keyer, opts.keyPrefix)
	}

	var resources *resource.Registry
	if opts.resources != "" {
		resources = resource.DirRegistry(opts.resources)
	}

	var fetcher *httputil.Fetcher
	if opts.rateLimit > 0 {
		fetcher = httputil.NewFetcher(httputil.WithRateLimit(opts.rateLimit, max(1, int(opts.rateLimit))))
	}

	loader := resource.NewLoader(resource.Options{
		Registry:   resources,
		Fetcher:    fetcher,
		Cache:      store,
		Keyer:      keyer,
		Timeout:    opts.fetchTimeout,
		MaxDecoded: opts.maxDecoded,
		Logger:     c.Logger,
	})
	return pipeline.NewRunner(store, keyer, c.Logger,
		pipeline.WithLoader(loader),
		pipeline.WithCompositor(compose.New(registry, c.Logger)),
		pipeline.WithConcurrency(opts.concurrency),
	), nil
}

// newCache returns the on-disk cache of the CLI, or a null cache when
// caching is disabled or the cache directory is unavailable.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/photocard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/photocard/photocard.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}
