// Package compose paints a layout onto a canvas.
//
// Painting always happens in the same order: the background, then every
// image area in layout order, then every text area in layout order. Later
// layers cover earlier ones where they overlap. Areas are clipped to the
// canvas; an area entirely outside it paints nothing.
//
// A [Compositor] holds only read-only state (the font registry), so a single
// instance can serve concurrent renders as long as each render owns its
// canvas.
package compose

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/photocard/pkg/fonts"
	"github.com/matzehuels/photocard/pkg/layout"
	"github.com/matzehuels/photocard/pkg/text"
)

// BackgroundKey is the Images key of the background image.
const BackgroundKey = "@background"

// Images maps image-area ids to resolved images. Areas are looked up by id,
// or by their index as "#0", "#1", ... when they have no id.
type Images map[string]image.Image

// Report describes what Compose painted.
type Report struct {
	// ImageAreas lists the ids of image areas that were painted.
	ImageAreas []string

	// TextLines holds the painted lines of every text area by id.
	TextLines map[string][]text.Line

	// Skipped lists areas that were not painted and why.
	Skipped map[string]string
}

// Compositor paints layouts.
type Compositor struct {
	fonts  *fonts.Registry
	logger *log.Logger
}

// New creates a Compositor. A nil registry uses fonts.Default() and a nil
// logger discards output.
func New(registry *fonts.Registry, logger *log.Logger) *Compositor {
	if registry == nil {
		registry = fonts.Default()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Compositor{fonts: registry, logger: logger}
}

// NewCanvas returns an opaque white canvas.
func NewCanvas(width, height int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	return canvas
}

// Compose paints cfg onto canvas. cfg must be validated. Text area content
// is painted as given; references must already be resolved.
func (c *Compositor) Compose(canvas *image.RGBA, cfg layout.Config, images Images) *Report {
	report := &Report{
		TextLines: make(map[string][]text.Line),
		Skipped:   make(map[string]string),
	}

	c.paintBackground(canvas, cfg.Background, images[BackgroundKey])

	for i, area := range cfg.ImageAreas {
		key := layout.AreaKey(area.ID, i)
		src := images[key]
		if src == nil {
			report.Skipped[key] = "no image"
			continue
		}
		if area.Width > layout.MaxDimension || area.Height > layout.MaxDimension {
			report.Skipped[key] = "area too large"
			continue
		}
		if !c.paintImage(canvas, area, src) {
			report.Skipped[key] = "outside canvas"
			continue
		}
		report.ImageAreas = append(report.ImageAreas, key)
	}

	for i, area := range cfg.TextAreas {
		key := layout.AreaKey(area.ID, i)
		lines, reason := c.paintText(canvas, area)
		if reason != "" {
			report.Skipped[key] = reason
			continue
		}
		report.TextLines[key] = lines
	}

	return report
}

func (c *Compositor) paintBackground(canvas *image.RGBA, bg layout.Background, img image.Image) {
	bounds := canvas.Bounds()
	alpha := bg.Alpha()
	if alpha <= 0 {
		return
	}

	switch bg.Type {
	case layout.BackgroundImage:
		if img == nil {
			c.logger.Debug("background image missing, keeping base color")
			return
		}
		scaled, _ := Fit(img, bounds.Dx(), bounds.Dy(), layout.FitFill, layout.AlignCenter, layout.AlignMiddle)
		drawWithOpacity(canvas, bounds, scaled, image.Point{}, alpha)

	case layout.BackgroundGradient:
		g, err := layout.ParseGradient(bg.GradientConfig)
		if err != nil {
			c.logger.Warn("invalid gradient, keeping base color", "err", err)
			return
		}
		dc := gg.NewContextForRGBA(canvas)
		x0, y0, x1, y1 := g.Line(float64(bounds.Dx()), float64(bounds.Dy()))
		grad := gg.NewLinearGradient(x0, y0, x1, y1)
		grad.AddColorStop(0, withOpacity(g.From, alpha))
		grad.AddColorStop(1, withOpacity(g.To, alpha))
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(bounds.Dx()), float64(bounds.Dy()))
		dc.Fill()

	default:
		col, err := layout.ParseColor(bg.Color)
		if err != nil {
			c.logger.Warn("invalid background color, keeping base color", "err", err)
			return
		}
		draw.Draw(canvas, bounds, image.NewUniform(withOpacity(col, alpha)), image.Point{}, draw.Over)
	}
}

func (c *Compositor) paintImage(canvas *image.RGBA, area layout.ImageArea, src image.Image) bool {
	visible := area.Clip(canvas.Bounds().Dx(), canvas.Bounds().Dy())
	if visible.Empty() {
		return false
	}

	scaled, off := Fit(src, area.Width, area.Height, area.FitMode, area.Alignment, area.VerticalAlignment)
	origin := image.Pt(area.X, area.Y).Add(off)
	dst := scaled.Bounds().Add(origin).Intersect(visible)
	if dst.Empty() {
		return true
	}
	draw.Draw(canvas, dst, scaled, dst.Min.Sub(origin), draw.Over)
	return true
}

// paintText draws a text area and returns the painted lines, or a reason
// the area was skipped.
func (c *Compositor) paintText(canvas *image.RGBA, area layout.TextArea) ([]text.Line, string) {
	visible := area.Clip(canvas.Bounds().Dx(), canvas.Bounds().Dy())
	if visible.Empty() {
		return nil, "outside canvas"
	}

	if area.BackgroundColor != "" {
		if col, err := layout.ParseColor(area.BackgroundColor); err == nil {
			draw.Draw(canvas, visible, image.NewUniform(col), image.Point{}, draw.Over)
		}
	}

	lines := text.Cap(text.Wrap(area.Content, area.MaxLength), area.MaxLines)
	if len(lines) == 0 {
		return nil, "no content"
	}

	// Font size is bounded by the canvas height.
	size := min(area.FontSize, float64(canvas.Bounds().Dy()), layout.MaxFontSize)
	face, err := c.fonts.Face(area.FontFamily, size)
	if err != nil {
		c.logger.Warn("font face unavailable, skipping text area", "area", area.ID, "err", err)
		return nil, "font unavailable"
	}
	defer face.Close()

	col, err := layout.ParseColor(area.FontColor)
	if err != nil {
		col = color.NRGBA{A: 255}
	}

	placed := text.Place(lines, face, area.Rect, area.Alignment, area.VerticalAlignment)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: face,
	}
	for _, l := range placed {
		d.Dot = fixed.Point26_6{X: toFixed(l.X), Y: toFixed(l.Y)}
		d.DrawString(l.Text)
	}
	return placed, ""
}

// drawWithOpacity draws src over dst scaled by a constant alpha.
func drawWithOpacity(dst draw.Image, r image.Rectangle, src image.Image, sp image.Point, alpha float64) {
	if alpha >= 1 {
		draw.Draw(dst, r, src, sp, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
	draw.DrawMask(dst, r, src, sp, mask, image.Point{}, draw.Over)
}

func withOpacity(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * alpha))
	return c
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
