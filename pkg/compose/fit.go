package compose

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/photocard/pkg/layout"
	"github.com/matzehuels/photocard/pkg/text"
)

// Filter is the resampling filter used for every resize.
var Filter = imaging.Lanczos

// Fit scales src for a width×height area.
//
// It returns the scaled image and the offset of its top-left corner inside
// the area:
//
//   - FILL stretches src to exactly width×height, offset (0, 0).
//   - COVER scales src until both sides cover the area, then crops the
//     overflow around the anchor given by h and v (CENTER/MIDDLE crops
//     symmetrically). The result is exactly width×height, offset (0, 0).
//   - CONTAIN scales src until it fits inside the area, upscaling if needed,
//     and positions it by h and v. Pixels of the area outside the result are
//     left to whatever was painted before.
func Fit(src image.Image, width, height int, mode layout.FitMode, h layout.HAlign, v layout.VAlign) (*image.NRGBA, image.Point) {
	switch mode {
	case layout.FitFill:
		return imaging.Resize(src, width, height, Filter), image.Point{}

	case layout.FitContain:
		b := src.Bounds()
		scale := math.Min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
		w := clampDim(int(math.Round(float64(b.Dx())*scale)), width)
		hgt := clampDim(int(math.Round(float64(b.Dy())*scale)), height)
		dst := imaging.Resize(src, w, hgt, Filter)
		off := image.Pt(
			int(math.Round(text.HorizontalOffset(h, float64(width), float64(w)))),
			int(math.Round(text.VerticalOffset(v, float64(height), float64(hgt)))),
		)
		return dst, off

	default:
		return imaging.Fill(src, width, height, anchor(h, v), Filter), image.Point{}
	}
}

func clampDim(n, limit int) int {
	return max(1, min(n, limit))
}

// anchor maps a pair of alignments to the crop anchor used by COVER.
func anchor(h layout.HAlign, v layout.VAlign) imaging.Anchor {
	switch v {
	case layout.AlignTop:
		switch h {
		case layout.AlignLeft:
			return imaging.TopLeft
		case layout.AlignRight:
			return imaging.TopRight
		default:
			return imaging.Top
		}
	case layout.AlignBottom:
		switch h {
		case layout.AlignLeft:
			return imaging.BottomLeft
		case layout.AlignRight:
			return imaging.BottomRight
		default:
			return imaging.Bottom
		}
	default:
		switch h {
		case layout.AlignLeft:
			return imaging.Left
		case layout.AlignRight:
			return imaging.Right
		default:
			return imaging.Center
		}
	}
}
