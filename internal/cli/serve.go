package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photocard/internal/config"
	"github.com/matzehuels/photocard/internal/server"
	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/integrations/chat"
	"github.com/matzehuels/photocard/pkg/integrations/exhibition"
	"github.com/matzehuels/photocard/pkg/record"
	"github.com/matzehuels/photocard/pkg/storage"
	"github.com/matzehuels/photocard/pkg/template"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var configFile, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the photocard HTTP API",
		Long: `Run the photocard HTTP API.

Configuration is read from --config, or from ~/.config/photocard/photocard.toml
when that file exists. Without a file the service runs with in-memory
templates, a memory cache and cards stored under ./photocards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Address = addr
			}
			c.Logger.Info("loaded configuration", "source", source)
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (TOML)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides config)")

	return cmd
}

// loadConfig reads path, or the default config file when it exists, or
// falls back to config.Default. It returns where the config came from.
func loadConfig(path string) (config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if def, err := configPath(); err == nil {
		if _, err := os.Stat(def); err == nil {
			cfg, err := config.Load(def)
			return cfg, def, err
		}
	}
	return config.Default(), "defaults", nil
}

// runServe wires the service from cfg and serves until ctx is canceled.
func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	store, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(store, runnerOpts{
		keyPrefix:    cfg.Cache.Prefix,
		resources:    cfg.Resources.Dir,
		fontFiles:    cfg.Fonts.Files,
		concurrency:  cfg.Render.Concurrency,
		fetchTimeout: cfg.Render.FetchTimeout,
		rateLimit:    cfg.Render.RateLimit,
		maxDecoded:   cfg.Render.MaxDecoded,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	templates, err := openTemplates(ctx, cfg.Templates)
	if err != nil {
		return err
	}
	defer templates.Close(context.Background())

	records, err := openRecords(ctx, cfg.Photocards)
	if err != nil {
		return err
	}
	defer records.Close(context.Background())

	files, err := storage.NewFileStore(cfg.Storage.Dir, c.Logger)
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}

	opts := server.Options{
		Runner:         runner,
		Templates:      templates,
		Files:          files,
		Records:        records,
		BaseURL:        cfg.BaseURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         c.Logger,
	}
	if u := cfg.Integrations.ExhibitionURL; u != "" {
		opts.Artworks = exhibition.NewClient(u, store, cfg.Integrations.TTL)
	}
	if u := cfg.Integrations.ChatURL; u != "" {
		opts.Credits = chat.NewClient(u, store, cfg.Integrations.TTL)
	}

	printServing(cfg)
	err = server.New(opts).ListenAndServe(ctx, cfg.Address)
	if errors.Is(err, context.Canceled) {
		c.Logger.Info("stopped")
		return nil
	}
	return err
}

// openCache creates the configured cache backend.
func openCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Type {
	case config.CacheNull:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.Entries), nil
	case config.CacheFile:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return nil, fmt.Errorf("get cache dir: %w", err)
			}
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
}

// openTemplates creates the configured template store.
func openTemplates(ctx context.Context, cfg config.Templates) (template.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return template.NewMemoryStore(), nil
	case config.StoreMongo:
		return template.NewMongoStore(ctx, template.MongoOptions{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	}
	return nil, fmt.Errorf("unknown template store %q", cfg.Store)
}

// openRecords creates the configured photocard record store.
func openRecords(ctx context.Context, cfg config.Photocards) (record.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return record.NewMemoryStore(), nil
	case config.StoreMongo:
		return record.NewMongoStore(ctx, record.MongoOptions{
			URI:                 cfg.URI,
			Database:            cfg.Database,
			Collection:          cfg.Collection,
			SelectionCollection: cfg.Selections,
		})
	}
	return nil, fmt.Errorf("unknown photocard store %q", cfg.Store)
}

func printServing(cfg config.Config) {
	fmt.Println(StyleTitle.Render("photocard") + " " + StyleDim.Render("serving on") + " " + StyleLink.Render(cfg.Address))
	printDetail("cache: %s · templates: %s · photocards: %s · storage: %s", cfg.Cache.Type, cfg.Templates.Store, cfg.Photocards.Store, cfg.Storage.Dir)
	if cfg.Integrations.ExhibitionURL != "" {
		printDetail("exhibition: %s", cfg.Integrations.ExhibitionURL)
	}
	if cfg.Integrations.ChatURL != "" {
		printDetail("chat: %s", cfg.Integrations.ChatURL)
	}
	printNextStep("Try", "curl "+healthURL(cfg.Address))
}

// healthURL returns a local URL of the health endpoint for addr.
func healthURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/health"
}

