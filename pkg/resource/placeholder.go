package resource

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/matzehuels/photocard/pkg/fonts"
)

// Placeholder labels.
const (
	LabelArtwork  = "artwork image"
	LabelTemplate = "template"
)

// Default placeholder size when the caller has no target size.
const (
	PlaceholderWidth  = 400
	PlaceholderHeight = 300
)

// MaxPlaceholderSide bounds both sides of a placeholder.
const MaxPlaceholderSide = 8192

var (
	placeholderFrom = color.NRGBA{R: 135, G: 206, B: 250, A: 255}
	placeholderTo   = color.NRGBA{R: 255, G: 182, B: 193, A: 255}
)

// Placeholder returns the image painted in place of a missing resource: a
// diagonal light-blue to pink gradient with label centered in white bold
// text. Sides larger than MaxPlaceholderSide are clamped. The result
// depends only on its arguments.
func Placeholder(width, height int, label string) *image.RGBA {
	if width <= 0 {
		width = PlaceholderWidth
	}
	if height <= 0 {
		height = PlaceholderHeight
	}
	width = min(width, MaxPlaceholderSide)
	height = min(height, MaxPlaceholderSide)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	dc := gg.NewContextForRGBA(dst)

	grad := gg.NewLinearGradient(0, 0, float64(width), float64(height))
	grad.AddColorStop(0, placeholderFrom)
	grad.AddColorStop(1, placeholderTo)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	if label == "" {
		return dst
	}

	// Shrink the label until it fits with a margin; tiny placeholders get none.
	size := 20.0
	for ; size >= 6; size -= 2 {
		face, err := fonts.Default().Face(fonts.FamilyBold, size)
		if err != nil {
			return dst
		}
		dc.SetFontFace(face)
		if w, _ := dc.MeasureString(label); w <= float64(width)*0.9 {
			dc.SetColor(color.White)
			dc.DrawStringAnchored(label, float64(width)/2, float64(height)/2, 0.5, 0.5)
			return dst
		}
	}
	return dst
}
