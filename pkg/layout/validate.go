package layout

import (
	"math"
	"strconv"

	"github.com/matzehuels/photocard/pkg/errors"
)

// Validate checks c for structural errors. Rectangles that lie partly or
// entirely off the canvas are valid; only non-positive sizes and sizes
// beyond MaxDimension are rejected.
func (c Config) Validate() error {
	if err := c.Background.validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.ImageAreas)+len(c.TextAreas))
	checkID := func(kind, id string) error {
		if id == "" {
			return nil
		}
		if seen[id] {
			return errors.Config("%s %q: duplicate area id", kind, id)
		}
		seen[id] = true
		return nil
	}

	for i, a := range c.ImageAreas {
		name := AreaKey(a.ID, i)
		if err := checkID("image area", a.ID); err != nil {
			return err
		}
		if err := validateRect("image area", name, a.Rect); err != nil {
			return err
		}
		if !validFitModes[a.FitMode] {
			return errors.Config("image area %q: unknown fitMode %q", name, a.FitMode)
		}
		if !validHAligns[a.Alignment] {
			return errors.Config("image area %q: unknown alignment %q", name, a.Alignment)
		}
		if !validVAligns[a.VerticalAlignment] {
			return errors.Config("image area %q: unknown verticalAlignment %q", name, a.VerticalAlignment)
		}
	}

	for i, a := range c.TextAreas {
		name := AreaKey(a.ID, i)
		if err := checkID("text area", a.ID); err != nil {
			return err
		}
		if err := validateRect("text area", name, a.Rect); err != nil {
			return err
		}
		if a.FontSize <= 0 || math.IsNaN(a.FontSize) || math.IsInf(a.FontSize, 0) {
			return errors.Config("text area %q: fontSize must be positive", name)
		}
		if a.FontSize > MaxFontSize {
			return errors.Config("text area %q: fontSize %v exceeds %v", name, a.FontSize, MaxFontSize)
		}
		if _, err := ParseColor(a.FontColor); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLayout, err, "text area %q: fontColor", name)
		}
		if a.BackgroundColor != "" {
			if _, err := ParseColor(a.BackgroundColor); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidLayout, err, "text area %q: backgroundColor", name)
			}
		}
		if !validHAligns[a.Alignment] {
			return errors.Config("text area %q: unknown alignment %q", name, a.Alignment)
		}
		if !validVAligns[a.VerticalAlignment] {
			return errors.Config("text area %q: unknown verticalAlignment %q", name, a.VerticalAlignment)
		}
		if a.MaxLength < 0 {
			return errors.Config("text area %q: maxLength cannot be negative", name)
		}
		if a.MaxLines < 0 {
			return errors.Config("text area %q: maxLines cannot be negative", name)
		}
	}

	return nil
}

func (b Background) validate() error {
	if op := b.Alpha(); op < 0 || op > 1 || math.IsNaN(op) {
		return errors.Config("background: opacity %v outside [0, 1]", op)
	}

	switch b.Type {
	case BackgroundColor:
		if _, err := ParseColor(b.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLayout, err, "background: color")
		}
	case BackgroundImage:
		// An empty imageUrl is filled with the template image by the caller.
	case BackgroundGradient:
		if b.GradientConfig == "" {
			return errors.Config("background: GRADIENT requires gradientConfig")
		}
		if _, err := ParseGradient(b.GradientConfig); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLayout, err, "background: gradientConfig")
		}
	default:
		return errors.Config("background: unknown type %q", b.Type)
	}
	return nil
}

func validateRect(kind, name string, r Rect) error {
	if r.Width <= 0 || r.Height <= 0 {
		return errors.Config("%s %q: width and height must be positive (got %dx%d)", kind, name, r.Width, r.Height)
	}
	if r.Width > MaxDimension || r.Height > MaxDimension {
		return errors.Config("%s %q: %dx%d exceeds %dx%d", kind, name, r.Width, r.Height, MaxDimension, MaxDimension)
	}
	return nil
}

// AreaKey names an area by its id, or by its position as "#0", "#1", ...
// when it has none.
func AreaKey(id string, index int) string {
	if id != "" {
		return id
	}
	return "#" + strconv.Itoa(index)
}

var validFitModes = map[FitMode]bool{
	FitCover:   true,
	FitContain: true,
	FitFill:    true,
}

var validHAligns = map[HAlign]bool{
	AlignLeft:   true,
	AlignCenter: true,
	AlignRight:  true,
}

var validVAligns = map[VAlign]bool{
	AlignTop:    true,
	AlignMiddle: true,
	AlignBottom: true,
}
