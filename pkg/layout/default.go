package layout

// Area ids used by the default layouts. The render pipeline resolves text
// areas without content through substitutions named after their id.
const (
	AreaArtwork     = "artwork"
	AreaTitle       = "title"
	AreaDescription = "description"
)

// Default returns the fallback layout for a width×height canvas: a white
// background, a centered artwork rectangle and a title text area above it.
// Every rectangle lies inside the canvas.
func Default(width, height int) Config {
	artW := max(1, width*3/4)
	artH := max(1, height/2)
	artX := (width - artW) / 2
	artY := (height - artH) / 2

	marginX := width / 16
	titleH := max(1, artY)

	cfg := Config{
		Background: Background{Type: BackgroundColor, Color: DefaultBackgroundColor},
		ImageAreas: []ImageArea{{
			ID:      AreaArtwork,
			Rect:    Rect{X: artX, Y: artY, Width: artW, Height: artH},
			FitMode: FitCover,
		}},
		TextAreas: []TextArea{{
			ID:                AreaTitle,
			Rect:              Rect{X: marginX, Y: 0, Width: max(1, width-2*marginX), Height: titleH},
			FontSize:          24,
			FontColor:         DefaultFontColor,
			Alignment:         AlignCenter,
			VerticalAlignment: AlignMiddle,
		}},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Template returns the layout stored with the built-in default template on
// an 800×600 canvas: title, description and a wide artwork frame.
func Template() Config {
	cfg := Config{
		Background: Background{Type: BackgroundColor, Color: DefaultBackgroundColor},
		ImageAreas: []ImageArea{{
			ID:                AreaArtwork,
			Rect:              Rect{X: 100, Y: 250, Width: 600, Height: 300},
			FitMode:           FitCover,
			Alignment:         AlignCenter,
			VerticalAlignment: AlignMiddle,
		}},
		TextAreas: []TextArea{
			{
				ID:         AreaTitle,
				Rect:       Rect{X: 50, Y: 50, Width: 700, Height: 60},
				FontFamily: "Arial",
				FontSize:   24,
				FontColor:  "#000000",
				Alignment:  AlignCenter,
			},
			{
				ID:         AreaDescription,
				Rect:       Rect{X: 50, Y: 120, Width: 700, Height: 100},
				FontFamily: "Arial",
				FontSize:   16,
				FontColor:  "#666666",
				Alignment:  AlignCenter,
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}
