package text

import (
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/photocard/pkg/layout"
)

// Line is one positioned line of text.
// X is the left edge and Y the baseline, both in canvas pixels.
type Line struct {
	Text  string
	X     float64
	Y     float64
	Width float64
}

// Metrics are the vertical font measurements used for placement.
type Metrics struct {
	Ascent  float64
	Descent float64
	Height  float64 // baseline-to-baseline distance: ascent + descent + leading
}

// FaceMetrics reads Metrics from a font face.
func FaceMetrics(face font.Face) Metrics {
	m := face.Metrics()
	out := Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		Height:  fixedToFloat(m.Height),
	}
	if out.Height < out.Ascent+out.Descent {
		out.Height = out.Ascent + out.Descent
	}
	return out
}

// Measure returns the advance width of s in pixels.
func Measure(face font.Face, s string) float64 {
	return fixedToFloat(font.MeasureString(face, s))
}

// Place positions lines inside region.
//
// Horizontally each line is offset from region.X by 0 (LEFT),
// (region.Width - width)/2 (CENTER) or region.Width - width (RIGHT).
// Vertically the block of len(lines) × line height starts at region.Y (TOP),
// region.Y + (region.Height - total)/2 (MIDDLE) or region.Y + region.Height - total
// (BOTTOM). Lines wider or blocks taller than the region get negative offsets
// and overflow on both sides; nothing is truncated here.
func Place(lines []string, face font.Face, region layout.Rect, h layout.HAlign, v layout.VAlign) []Line {
	if len(lines) == 0 {
		return nil
	}

	m := FaceMetrics(face)
	widths := make([]float64, len(lines))
	for i, s := range lines {
		widths[i] = Measure(face, s)
	}
	return PlaceMeasured(lines, widths, m, region, h, v)
}

// PlaceMeasured is Place with precomputed widths and metrics.
func PlaceMeasured(lines []string, widths []float64, m Metrics, region layout.Rect, h layout.HAlign, v layout.VAlign) []Line {
	total := float64(len(lines)) * m.Height
	top := VerticalOffset(v, float64(region.Height), total) + float64(region.Y)

	out := make([]Line, len(lines))
	for i, s := range lines {
		out[i] = Line{
			Text:  s,
			X:     float64(region.X) + HorizontalOffset(h, float64(region.Width), widths[i]),
			Y:     top + float64(i)*m.Height + m.Ascent,
			Width: widths[i],
		}
	}
	return out
}

// HorizontalOffset returns the x offset of a line of width lineWidth
// inside a region of width regionWidth.
func HorizontalOffset(h layout.HAlign, regionWidth, lineWidth float64) float64 {
	switch h {
	case layout.AlignLeft:
		return 0
	case layout.AlignRight:
		return regionWidth - lineWidth
	default:
		return (regionWidth - lineWidth) / 2
	}
}

// VerticalOffset returns the y offset of a block of height blockHeight
// inside a region of height regionHeight.
func VerticalOffset(v layout.VAlign, regionHeight, blockHeight float64) float64 {
	switch v {
	case layout.AlignTop:
		return 0
	case layout.AlignBottom:
		return regionHeight - blockHeight
	default:
		return (regionHeight - blockHeight) / 2
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
