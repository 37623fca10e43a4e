package pipeline

import (
	"regexp"

	"github.com/matzehuels/photocard/pkg/layout"
)

// Built-in substitution names.
const (
	VarTitle       = "title"
	VarDescription = "description"
	VarImageURL    = "imageUrl"
)

var refPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// Variables returns the substitutions available to a request: the artwork
// fields under their plain and "artwork." names, overridden by the
// request's own substitutions.
func Variables(req RenderRequest) map[string]string {
	vars := map[string]string{
		VarTitle:                    req.Artwork.Title,
		VarDescription:              req.Artwork.Description,
		VarImageURL:                 req.Artwork.ImageURL,
		"artwork." + VarTitle:       req.Artwork.Title,
		"artwork." + VarDescription: req.Artwork.Description,
		"artwork." + VarImageURL:    req.Artwork.ImageURL,
	}
	for k, v := range req.Substitutions {
		vars[k] = v
	}
	return vars
}

// Expand replaces every ${name} in s. Unknown names expand to "".
func Expand(s string, vars map[string]string) string {
	if s == "" {
		return s
	}
	return refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		return vars[refPattern.FindStringSubmatch(ref)[1]]
	})
}

// bind resolves every reference of cfg in place.
//
// Text content is expanded; an area without content takes the variable
// named by its id. Image areas without a URL show the artwork, and an
// IMAGE background without a URL shows the template image.
func bind(cfg *layout.Config, req RenderRequest, vars map[string]string) {
	if cfg.Background.Type == layout.BackgroundImage {
		cfg.Background.ImageURL = Expand(cfg.Background.ImageURL, vars)
		if cfg.Background.ImageURL == "" {
			cfg.Background.ImageURL = req.TemplateImageURL
		}
	}

	for i := range cfg.ImageAreas {
		a := &cfg.ImageAreas[i]
		a.ImageURL = Expand(a.ImageURL, vars)
		if a.ImageURL == "" {
			a.ImageURL = req.Artwork.ImageURL
		}
	}

	for i := range cfg.TextAreas {
		a := &cfg.TextAreas[i]
		if a.Content == "" {
			a.Content = vars[a.ID]
			continue
		}
		a.Content = Expand(a.Content, vars)
	}
}
