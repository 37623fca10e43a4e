// Package layout describes where things go on a photocard.
//
// A [Config] is the declarative part of a template: a background, an ordered
// list of image areas and an ordered list of text areas. Each area is an
// axis-aligned rectangle in canvas pixels. Configs are read from JSON or YAML
// documents with [Parse] and checked with [Config.Validate]; a document that
// does not validate is reported as an INVALID_LAYOUT error so the caller can
// fall back to [Default].
//
// Rectangles are never rejected for lying outside the canvas. They are
// clipped at paint time with [Rect.Clip].
//
// # Document shape
//
//	{
//	  "background": {"type": "COLOR", "color": "#FFFFFF", "opacity": 1.0},
//	  "imageAreas": [
//	    {"id": "artwork", "x": 100, "y": 250, "width": 600, "height": 300,
//	     "fitMode": "COVER", "alignment": "CENTER"}
//	  ],
//	  "textAreas": [
//	    {"id": "title", "x": 50, "y": 50, "width": 700, "height": 60,
//	     "fontSize": 24, "fontColor": "#000000", "alignment": "CENTER"}
//	  ]
//	}
package layout

import (
	"image"
	"strings"
)

// FitMode controls how a source image is mapped into an image area.
type FitMode string

const (
	// FitCover scales to fill the area and crops the overflow.
	FitCover FitMode = "COVER"
	// FitContain scales to fit inside the area, leaving uncovered pixels untouched.
	FitContain FitMode = "CONTAIN"
	// FitFill stretches to the exact area size.
	FitFill FitMode = "FILL"
)

// HAlign is a horizontal anchor inside a region.
type HAlign string

const (
	AlignLeft   HAlign = "LEFT"
	AlignCenter HAlign = "CENTER"
	AlignRight  HAlign = "RIGHT"
)

// VAlign is a vertical anchor inside a region.
type VAlign string

const (
	AlignTop    VAlign = "TOP"
	AlignMiddle VAlign = "MIDDLE"
	AlignBottom VAlign = "BOTTOM"
)

// BackgroundType selects how the canvas is filled before any area is painted.
type BackgroundType string

const (
	BackgroundColor    BackgroundType = "COLOR"
	BackgroundImage    BackgroundType = "IMAGE"
	BackgroundGradient BackgroundType = "GRADIENT"
)

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultFontSize        = 16.0
	DefaultFontColor       = "#000000"
	DefaultBackgroundColor = "#FFFFFF"
	DefaultMaxLength       = 60
	DefaultMaxLines        = 3
	DefaultOpacity         = 1.0
)

// Limits checked by [Config.Validate]. Areas may lie anywhere relative to
// the canvas, but no side may exceed MaxDimension and no font may exceed
// MaxFontSize.
const (
	MaxDimension = 8192
	MaxFontSize  = 1024.0
)

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Clip returns the part of r that lies on a width×height canvas.
// The result is empty when r does not overlap the canvas at all. Clip never
// overflows, whatever the coordinates of r.
func (r Rect) Clip(width, height int) image.Rectangle {
	x0, x1 := span(r.X, r.Width, width)
	y0, y1 := span(r.Y, r.Height, height)
	if x0 >= x1 || y0 >= y1 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x1, y1)
}

// span clips [start, start+size) to [0, limit).
func span(start, size, limit int) (int, int) {
	if size <= 0 || limit <= 0 || start >= limit {
		return 0, 0
	}
	if start >= 0 {
		if size < limit-start {
			return start, start + size
		}
		return start, limit
	}
	// start < 0 < size, so start+size cannot overflow.
	end := start + size
	if end <= 0 {
		return 0, 0
	}
	return 0, min(end, limit)
}

// Background describes the bottom-most canvas layer.
type Background struct {
	Type           BackgroundType `json:"type" yaml:"type"`
	Color          string         `json:"color,omitempty" yaml:"color,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	GradientConfig string         `json:"gradientConfig,omitempty" yaml:"gradientConfig,omitempty"`
	Opacity        *float64       `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// Alpha returns the effective opacity in [0, 1].
func (b Background) Alpha() float64 {
	if b.Opacity == nil {
		return DefaultOpacity
	}
	return *b.Opacity
}

// ImageArea is a rectangle filled with an image.
// An empty ImageURL means the artwork image of the render request.
type ImageArea struct {
	ID                string  `json:"id" yaml:"id"`
	Rect              `yaml:",inline"`
	ImageURL          string  `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	FitMode           FitMode `json:"fitMode,omitempty" yaml:"fitMode,omitempty"`
	Alignment         HAlign  `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	VerticalAlignment VAlign  `json:"verticalAlignment,omitempty" yaml:"verticalAlignment,omitempty"`
}

// TextArea is a rectangle holding wrapped text.
//
// Content is either literal text or contains ${name} references that the
// render pipeline resolves before painting. An area whose content resolves
// to the empty string is not painted.
type TextArea struct {
	ID                string  `json:"id" yaml:"id"`
	Rect              `yaml:",inline"`
	FontFamily        string  `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontSize          float64 `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	FontColor         string  `json:"fontColor,omitempty" yaml:"fontColor,omitempty"`
	BackgroundColor   string  `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	Alignment         HAlign  `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	VerticalAlignment VAlign  `json:"verticalAlignment,omitempty" yaml:"verticalAlignment,omitempty"`
	MaxLength         int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	MaxLines          int     `json:"maxLines,omitempty" yaml:"maxLines,omitempty"`
	Content           string  `json:"content,omitempty" yaml:"content,omitempty"`
}

// Config is a complete layout: one background, then image areas, then text
// areas, each painted in slice order.
type Config struct {
	Background Background  `json:"background" yaml:"background"`
	ImageAreas []ImageArea `json:"imageAreas" yaml:"imageAreas"`
	TextAreas  []TextArea  `json:"textAreas" yaml:"textAreas"`
}

// Clone returns a deep copy of c so callers can rewrite area contents
// without touching a shared config.
func (c Config) Clone() Config {
	out := c
	if c.Background.Opacity != nil {
		v := *c.Background.Opacity
		out.Background.Opacity = &v
	}
	out.ImageAreas = append([]ImageArea(nil), c.ImageAreas...)
	out.TextAreas = append([]TextArea(nil), c.TextAreas...)
	return out
}

// ApplyDefaults fills unset optional fields with their documented defaults.
// Enum values are upper-cased so "cover" and "COVER" are equivalent.
func (c *Config) ApplyDefaults() {
	c.Background.Type = BackgroundType(strings.ToUpper(string(c.Background.Type)))
	if c.Background.Type == "" {
		switch {
		case c.Background.ImageURL != "":
			c.Background.Type = BackgroundImage
		case c.Background.GradientConfig != "":
			c.Background.Type = BackgroundGradient
		default:
			c.Background.Type = BackgroundColor
		}
	}
	if c.Background.Type == BackgroundColor && c.Background.Color == "" {
		c.Background.Color = DefaultBackgroundColor
	}

	for i := range c.ImageAreas {
		a := &c.ImageAreas[i]
		a.FitMode = FitMode(strings.ToUpper(string(a.FitMode)))
		a.Alignment = HAlign(strings.ToUpper(string(a.Alignment)))
		a.VerticalAlignment = VAlign(strings.ToUpper(string(a.VerticalAlignment)))
		if a.FitMode == "" {
			a.FitMode = FitCover
		}
		if a.Alignment == "" {
			a.Alignment = AlignCenter
		}
		if a.VerticalAlignment == "" {
			a.VerticalAlignment = AlignMiddle
		}
	}

	for i := range c.TextAreas {
		a := &c.TextAreas[i]
		a.Alignment = HAlign(strings.ToUpper(string(a.Alignment)))
		a.VerticalAlignment = VAlign(strings.ToUpper(string(a.VerticalAlignment)))
		if a.FontSize == 0 {
			a.FontSize = DefaultFontSize
		}
		if a.FontColor == "" {
			a.FontColor = DefaultFontColor
		}
		if a.Alignment == "" {
			a.Alignment = AlignCenter
		}
		if a.VerticalAlignment == "" {
			a.VerticalAlignment = AlignTop
		}
		if a.MaxLength == 0 {
			a.MaxLength = DefaultMaxLength
		}
		if a.MaxLines == 0 {
			a.MaxLines = DefaultMaxLines
		}
	}
}
