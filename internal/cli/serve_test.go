package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/photocard/internal/config"
	"github.com/matzehuels/photocard/pkg/cache"
	"github.com/matzehuels/photocard/pkg/template"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, source, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if source != "defaults" {
		t.Errorf("source = %q, want defaults", source)
	}
	if cfg.Address != config.Default().Address {
		t.Errorf("Address = %q, want default", cfg.Address)
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	path := filepath.Join(home, appName, configFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`address = ":7070"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, source, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if source != path || cfg.Address != ":7070" {
		t.Errorf("loadConfig() = %q from %q", cfg.Address, source)
	}
}

func TestLoadConfigExplicit(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("loadConfig(missing) should fail")
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		cfg  config.Cache
		want string
	}{
		{config.Cache{Type: config.CacheNull}, "*cache.NullCache"},
		{config.Cache{Type: config.CacheMemory, Entries: 4}, "*cache.MemoryCache"},
		{config.Cache{Type: config.CacheFile, Dir: t.TempDir()}, "*cache.FileCache"},
	}

	for _, tt := range tests {
		c, err := openCache(ctx, tt.cfg)
		if err != nil {
			t.Errorf("openCache(%s) error: %v", tt.cfg.Type, err)
			continue
		}
		var got string
		switch c.(type) {
		case *cache.NullCache:
			got = "*cache.NullCache"
		case *cache.MemoryCache:
			got = "*cache.MemoryCache"
		case *cache.FileCache:
			got = "*cache.FileCache"
		}
		if got != tt.want {
			t.Errorf("openCache(%s) = %T, want %s", tt.cfg.Type, c, tt.want)
		}
		c.Close()
	}

	if _, err := openCache(ctx, config.Cache{Type: "disk"}); err == nil {
		t.Error("openCache(disk) should fail")
	}
}

func TestOpenTemplates(t *testing.T) {
	store, err := openTemplates(context.Background(), config.Templates{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("openTemplates(memory) error: %v", err)
	}
	if _, ok := store.(*template.MemoryStore); !ok {
		t.Errorf("openTemplates(memory) = %T", store)
	}

	if _, err := openTemplates(context.Background(), config.Templates{Store: "sqlite"}); err == nil {
		t.Error("openTemplates(sqlite) should fail")
	}
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		addr, want string
	}{
		{":8080", "http://localhost:8080/api/health"},
		{"0.0.0.0:9000", "http://0.0.0.0:9000/api/health"},
	}
	for _, tt := range tests {
		if got := healthURL(tt.addr); got != tt.want {
			t.Errorf("healthURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
