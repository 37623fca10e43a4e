// Package fonts provides the font registry used for text measurement and drawing.
//
// The Go font family is compiled into the binary through golang.org/x/image/font/gofont,
// so text metrics are identical on every platform. Additional TrueType/OpenType
// fonts can be registered when a [Registry] is built; after construction a
// registry is read-only and safe for concurrent use.
//
// Font faces are not safe for concurrent use, so [Registry.Face] returns a
// fresh face on every call. Callers create faces per render and drop them.
package fonts

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Built-in family names.
const (
	FamilyRegular    = "Go"
	FamilyBold       = "Go Bold"
	FamilyItalic     = "Go Italic"
	FamilyBoldItalic = "Go Bold Italic"
	FamilyMono       = "Go Mono"
)

// DPI is the resolution faces are created at; font sizes are therefore pixels.
const DPI = 72

// aliases maps common family names found in stored layouts to the built-in
// fonts, so documents written for other systems render predictably.
var aliases = map[string]string{
	"arial":        FamilyRegular,
	"helvetica":    FamilyRegular,
	"sans-serif":   FamilyRegular,
	"sans":         FamilyRegular,
	"arial bold":   FamilyBold,
	"bold":         FamilyBold,
	"arial italic": FamilyItalic,
	"italic":       FamilyItalic,
	"monospace":    FamilyMono,
	"courier":      FamilyMono,
}

// Registry maps family names to parsed fonts. Lookups are case-insensitive.
type Registry struct {
	fonts    map[string]*opentype.Font
	fallback *opentype.Font
}

// Option configures a Registry.
type Option func(*builder) error

type builder struct {
	extra map[string][]byte
}

// WithFont registers a TrueType/OpenType font under family.
func WithFont(family string, data []byte) Option {
	return func(b *builder) error {
		if strings.TrimSpace(family) == "" {
			return fmt.Errorf("font family cannot be empty")
		}
		b.extra[family] = data
		return nil
	}
}

// WithFontFile registers the font at path under family.
func WithFontFile(family, path string) Option {
	return func(b *builder) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read font %s: %w", path, err)
		}
		return WithFont(family, data)(b)
	}
}

// New builds a registry holding the Go fonts plus any fonts from opts.
func New(opts ...Option) (*Registry, error) {
	b := &builder{extra: make(map[string][]byte)}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	r := &Registry{fonts: make(map[string]*opentype.Font)}
	builtin := map[string][]byte{
		FamilyRegular:    goregular.TTF,
		FamilyBold:       gobold.TTF,
		FamilyItalic:     goitalic.TTF,
		FamilyBoldItalic: gobolditalic.TTF,
		FamilyMono:       gomono.TTF,
	}
	for family, data := range builtin {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse built-in font %s: %w", family, err)
		}
		r.fonts[key(family)] = f
	}
	r.fallback = r.fonts[key(FamilyRegular)]

	for family, data := range b.extra {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", family, err)
		}
		r.fonts[key(family)] = f
	}
	return r, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryErr  error
	defaultRegistryOnce sync.Once
)

// Default returns the shared registry of built-in fonts.
// The Go fonts are compiled in, so it only fails if the binary is corrupt.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = New()
	})
	if defaultRegistryErr != nil {
		panic(defaultRegistryErr)
	}
	return defaultRegistry
}

// Lookup returns the font for family and whether it was found directly or
// through an alias. Unknown families resolve to the regular Go font.
func (r *Registry) Lookup(family string) (*opentype.Font, bool) {
	k := key(family)
	if f, ok := r.fonts[k]; ok {
		return f, true
	}
	if alias, ok := aliases[k]; ok {
		if f, ok := r.fonts[key(alias)]; ok {
			return f, true
		}
	}
	return r.fallback, false
}

// Face returns a new face for family at size pixels.
// Unknown families use the fallback font.
func (r *Registry) Face(family string, size float64) (font.Face, error) {
	f, _ := r.Lookup(family)
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
}

// Families lists the registered family names in lower case.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.fonts))
	for k := range r.fonts {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func key(family string) string {
	return strings.ToLower(strings.TrimSpace(family))
}
