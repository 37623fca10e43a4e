// Package config loads the photocard service configuration.
//
// Configuration is a TOML file. Every key is optional; [Default] returns a
// configuration that runs the service in-process with an in-memory template
// store, a memory cache and a local file store:
//
//	address = ":8080"
//	base_url = "https://cards.example.com"
//
//	[render]
//	concurrency = 4
//	fetch_timeout = "5s"
//
//	[cache]
//	type = "redis"          # null, memory, file or redis
//	prefix = "photocard:staging:"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[templates]
//	store = "mongo"         # memory or mongo
//	uri = "mongodb://localhost:27017"
//
//	[photocards]
//	store = "mongo"         # memory or mongo
//	uri = "mongodb://localhost:27017"
//
//	[storage]
//	dir = "/var/lib/photocard/cards"
//
//	[integrations]
//	exhibition_url = "http://exhibition:8080"
//	chat_url = "http://chat:8080"
//	ttl = "10m"
//
//	[cors]
//	allowed_origins = ["http://localhost:3000"]
//
//	[resources]
//	dir = "/etc/photocard/resources"
//
//	[fonts.files]
//	"Brand Sans" = "/etc/photocard/fonts/brand.ttf"
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/photocard/pkg/errors"
)

// Cache backends.
const (
	CacheNull   = "null"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Template and photocard stores.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config is the complete service configuration.
type Config struct {
	Address string `toml:"address"`

	// BaseURL prefixes the preview and download links handed out for
	// stored photocards. Empty means links are relative.
	BaseURL string `toml:"base_url"`

	Render       Render       `toml:"render"`
	Cache        Cache        `toml:"cache"`
	Templates    Templates    `toml:"templates"`
	Photocards   Photocards   `toml:"photocards"`
	Storage      Storage      `toml:"storage"`
	Integrations Integrations `toml:"integrations"`
	CORS         CORS         `toml:"cors"`
	Resources    Resources    `toml:"resources"`
	Fonts        Fonts        `toml:"fonts"`
}

type Render struct {
	Concurrency  int           `toml:"concurrency"`
	FetchTimeout time.Duration `toml:"fetch_timeout"`

	// RateLimit throttles outbound image fetches in requests per second.
	// Zero disables throttling.
	RateLimit  float64 `toml:"rate_limit"`
	MaxDecoded int    `toml:"max_decoded"`
}

type Cache struct {
	Type    string `toml:"type"`
	Dir     string `toml:"dir"`
	Entries int    `toml:"entries"`

	// Prefix scopes image and card keys so deployments can share a Redis
	// database.
	Prefix string `toml:"prefix"`
	Redis  Redis  `toml:"redis"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type Templates struct {
	Store      string `toml:"store"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Photocards selects where card records and artwork selections are kept.
type Photocards struct {
	Store      string `toml:"store"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	Selections string `toml:"selections"`
}

type Storage struct {
	Dir string `toml:"dir"`
}

type Integrations struct {
	ExhibitionURL string        `toml:"exhibition_url"`
	ChatURL       string        `toml:"chat_url"`
	TTL           time.Duration `toml:"ttl"`
}

type CORS struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

type Resources struct {
	Dir string `toml:"dir"`
}

type Fonts struct {
	// Files maps a family name to a TrueType/OpenType file.
	Files map[string]string `toml:"files"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Address: ":8080",
		Render: Render{
			Concurrency:  4,
			FetchTimeout: 5 * time.Second,
			MaxDecoded:   64,
		},
		Cache: Cache{
			Type:    CacheMemory,
			Entries: 256,
		},
		Templates: Templates{
			Store:      StoreMemory,
			Database:   "photocard",
			Collection: "templates",
		},
		Photocards: Photocards{
			Store:      StoreMemory,
			Database:   "photocard",
			Collection: "photocards",
			Selections: "artwork_selections",
		},
		Storage: Storage{
			Dir: "photocards",
		},
		Integrations: Integrations{
			ExhibitionURL: "http://localhost:8081",
			ChatURL:       "http://localhost:8082",
			TTL:           10 * time.Minute,
		},
		CORS: CORS{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads the TOML file at path on top of Default and validates the
// result. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the backend selections and their required settings.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New(errors.ErrCodeInvalidInput, "address is required")
	}
	if !slices.Contains([]string{CacheNull, CacheMemory, CacheFile, CacheRedis}, c.Cache.Type) {
		return errors.New(errors.ErrCodeInvalidInput, "cache.type %q: must be null, memory, file or redis", c.Cache.Type)
	}
	if c.Cache.Type == CacheRedis && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis.addr is required for the redis cache")
	}
	switch c.Templates.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Templates.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "templates.uri is required for the mongo store")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "templates.store %q: must be memory or mongo", c.Templates.Store)
	}
	switch c.Photocards.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Photocards.URI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "photocards.uri is required for the mongo store")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "photocards.store %q: must be memory or mongo", c.Photocards.Store)
	}
	if c.Storage.Dir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "storage.dir is required")
	}
	if c.Render.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.concurrency must not be negative")
	}
	if c.BaseURL != "" {
		if err := errors.ValidateURL(c.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "base_url")
		}
	}
	return nil
}
