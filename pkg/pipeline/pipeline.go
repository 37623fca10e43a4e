// Package pipeline renders photocards.
//
// A render resolves the layout, substitutes text references, loads every
// image the layout names, paints the canvas and encodes it. Every step
// before encoding has a fallback, so a render only fails when the canvas
// cannot be encoded:
//
//   - an invalid layout is replaced by [layout.Default]
//   - an image that cannot be loaded is replaced by a placeholder
//   - a missing substitution leaves its text area empty
//
// Every fallback is logged and reported in [Result.Fallbacks].
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger,
//	    pipeline.WithLoader(resource.NewLoader(resource.Options{Registry: reg})),
//	)
//	result, err := runner.Render(ctx, pipeline.RenderRequest{
//	    Artwork: pipeline.Artwork{Title: "Starry Night", ImageURL: url},
//	    Substitutions: map[string]string{"summary": summary},
//	})
//	if err != nil {
//	    return err // always an ENCODING_ERROR
//	}
//	os.WriteFile("card.jpg", result.Data, 0o644)
package pipeline

import (
	"strings"
	"time"

	"github.com/matzehuels/photocard/pkg/compose"
	"github.com/matzehuels/photocard/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the canvas width used when a request leaves it unset.
	DefaultWidth = 800

	// DefaultHeight is the canvas height used when a request leaves it unset.
	DefaultHeight = 600

	// MaxDimension bounds both canvas sides. Larger values are clamped.
	MaxDimension = layout.MaxDimension

	// DefaultFormat is the output format used when a request leaves it unset.
	DefaultFormat = FormatJPEG

	// DefaultConcurrency is the number of images one render loads at once.
	DefaultConcurrency = 4

	// JPEGQuality is fixed at full quality.
	JPEGQuality = 100
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

var mimeTypes = map[string]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
}

// NormalizeFormat maps user input to a format constant. Unknown formats
// are returned lower-cased so the caller can report them.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case "":
		return DefaultFormat
	case "jpg":
		return FormatJPEG
	}
	return f
}

// MIMEType returns the MIME type of a format, or "" if unsupported.
func MIMEType(format string) string {
	return mimeTypes[NormalizeFormat(format)]
}

// ExtensionFor returns the file extension for a format, including the dot.
func ExtensionFor(format string) string {
	switch NormalizeFormat(format) {
	case FormatPNG:
		return ".png"
	default:
		return ".jpg"
	}
}

// =============================================================================
// Request and Result
// =============================================================================

// Artwork is the read-only description of the featured artwork.
type Artwork struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// RenderRequest is everything one render needs.
//
// The layout is taken from Layout when set, otherwise parsed from
// LayoutSource (JSON or YAML), otherwise layout.Default is used.
type RenderRequest struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	Layout       *layout.Config `json:"layout,omitempty"`
	LayoutSource string         `json:"layoutConfig,omitempty"`

	Artwork Artwork `json:"artwork"`

	// TemplateImageURL is used by an IMAGE background without its own URL.
	TemplateImageURL string `json:"templateImageUrl,omitempty"`

	// Substitutions resolve ${name} references in text content and image
	// URLs. They take precedence over the built-in names.
	Substitutions map[string]string `json:"substitutions,omitempty"`

	Format string `json:"format,omitempty"`
}

// Fallback kinds.
const (
	FallbackLayout     = "layout"
	FallbackImage      = "image"
	FallbackBackground = "background"
)

// Fallback records one recovered failure.
type Fallback struct {
	Kind   string `json:"kind" bson:"kind"`
	Target string `json:"target" bson:"target"`
	Reason string `json:"reason" bson:"reason"`
	Err    error  `json:"-" bson:"-"`
}

// Result is the outcome of a successful render.
type Result struct {
	Data     []byte
	MIMEType string
	Format   string
	Width    int
	Height   int

	// CacheHit is true when Data came from the artifact cache.
	CacheHit bool

	// Fallbacks lists every fallback taken, in the order they happened.
	Fallbacks []Fallback

	// Report describes what was painted. Nil on a cache hit.
	Report *compose.Report

	Duration time.Duration
}

// normalize returns a copy of req with defaults applied.
func normalize(req RenderRequest) RenderRequest {
	if req.Width <= 0 {
		req.Width = DefaultWidth
	}
	if req.Height <= 0 {
		req.Height = DefaultHeight
	}
	req.Width = min(req.Width, MaxDimension)
	req.Height = min(req.Height, MaxDimension)
	req.Format = NormalizeFormat(req.Format)
	return req
}
