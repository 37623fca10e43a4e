package layout

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA hex notation.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	alpha := uint8(0xff)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	if len(s) != 4 && len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// Gradient is a two-stop linear gradient.
// Without an angle it runs from the top-left to the bottom-right corner.
type Gradient struct {
	From     color.NRGBA
	To       color.NRGBA
	Angle    float64 // degrees, 0 = left to right, 90 = top to bottom
	HasAngle bool
}

// ParseGradient parses "#from,#to" or "#from,#to,angle".
func ParseGradient(s string) (Gradient, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Gradient{}, fmt.Errorf("invalid gradient %q: want \"#from,#to[,angle]\"", s)
	}

	from, err := ParseColor(parts[0])
	if err != nil {
		return Gradient{}, err
	}
	to, err := ParseColor(parts[1])
	if err != nil {
		return Gradient{}, err
	}

	g := Gradient{From: from, To: to}
	if len(parts) == 3 {
		angle, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || math.IsNaN(angle) || math.IsInf(angle, 0) {
			return Gradient{}, fmt.Errorf("invalid gradient angle %q", parts[2])
		}
		g.Angle = angle
		g.HasAngle = true
	}
	return g, nil
}

// Line returns the gradient axis end points for a width×height box.
func (g Gradient) Line(width, height float64) (x0, y0, x1, y1 float64) {
	if !g.HasAngle {
		return 0, 0, width, height
	}
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	half := (math.Abs(width*dx) + math.Abs(height*dy)) / 2
	cx, cy := width/2, height/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}
