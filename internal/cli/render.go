package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/photocard/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string            // output file path
	request       string            // JSON render request file
	layout        string            // layout document (JSON or YAML)
	title         string            // artwork title
	description   string            // artwork description
	image         string            // artwork image reference
	templateImage string            // template image reference
	vars          map[string]string // ${name} substitutions
	width         int               // canvas width in pixels
	height        int               // canvas height in pixels
	format        string            // jpeg or png
	strict        bool              // fail when any fallback was taken
	noCache       bool              // disable the local cache
	resources     string            // resource registry directory
	fonts         map[string]string // extra fonts, family=path
}

// renderCommand creates the render command for composing a single photocard.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compose a photocard into an image file",
		Long: `Compose a photocard into an image file.

The layout is read from --layout (JSON or YAML). Without one, the default
layout for the canvas size is used. A complete render request can be given
as JSON with --request; flags override its fields.

Image references may be http(s) URLs, data: URIs, registry: names resolved
against --resources, or qr:<text> for a generated QR code. Unreachable
images are replaced by placeholders; use --strict to fail instead.`,
		Example: `  photocard render --title "Water Lilies" --image https://example.com/lilies.jpg -o card.jpg
  photocard render -l layout.yaml --var summary="A talk about light" -f png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: photocard.<ext>)")
	cmd.Flags().StringVar(&opts.request, "request", "", "render request JSON file")
	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "layout document (JSON or YAML)")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "artwork title")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "artwork description")
	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "artwork image reference")
	cmd.Flags().StringVar(&opts.templateImage, "template-image", "", "template image reference for IMAGE backgrounds")
	cmd.Flags().StringToStringVar(&opts.vars, "var", nil, "substitution name=value (repeatable)")
	cmd.Flags().IntVar(&opts.width, "width", 0, "canvas width (default 800)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "canvas height (default 600)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: jpeg (default), png")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail if any fallback was taken")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.resources, "resources", "", "directory of registry: resources")
	cmd.Flags().StringToStringVar(&opts.fonts, "font", nil, "extra font family=path (repeatable)")

	return cmd
}

// runRender builds the request, renders it and writes the output file.
func (c *CLI) runRender(ctx context.Context, opts renderOpts) error {
	req, err := buildRequest(opts)
	if err != nil {
		return err
	}
	if pipeline.MIMEType(req.Format) == "" {
		return fmt.Errorf("invalid format: %s (must be 'jpeg' or 'png')", req.Format)
	}
	output := outputPath(opts.output, req.Format)

	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	runner, err := c.newRunner(store, runnerOpts{resources: opts.resources, fontFiles: opts.fonts})
	if err != nil {
		store.Close()
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Render(ctx, req)
	if err != nil {
		return err
	}

	for _, fb := range result.Fallbacks {
		printWarning("%s fallback for %s: %s", fb.Kind, fb.Target, fb.Reason)
	}
	if opts.strict && len(result.Fallbacks) > 0 {
		return fmt.Errorf("%d fallbacks taken", len(result.Fallbacks))
	}

	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	prog.done("Rendered " + output)

	printSuccess("Photocard rendered")
	printFile(output)
	fmt.Println(statsLine(result.Width, result.Height, len(result.Data), len(result.Fallbacks), result.CacheHit))
	return nil
}

// buildRequest merges the --request file with the flags. Flags win.
func buildRequest(opts renderOpts) (pipeline.RenderRequest, error) {
	var req pipeline.RenderRequest
	if opts.request != "" {
		data, err := os.ReadFile(opts.request)
		if err != nil {
			return req, fmt.Errorf("read request: %w", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse request %s: %w", opts.request, err)
		}
	}

	if opts.layout != "" {
		data, err := os.ReadFile(opts.layout)
		if err != nil {
			return req, fmt.Errorf("read layout: %w", err)
		}
		req.Layout = nil
		req.LayoutSource = string(data)
	}

	setIf(&req.Artwork.Title, opts.title)
	setIf(&req.Artwork.Description, opts.description)
	setIf(&req.Artwork.ImageURL, opts.image)
	setIf(&req.TemplateImageURL, opts.templateImage)
	if opts.width > 0 {
		req.Width = opts.width
	}
	if opts.height > 0 {
		req.Height = opts.height
	}

	if len(opts.vars) > 0 {
		if req.Substitutions == nil {
			req.Substitutions = make(map[string]string, len(opts.vars))
		}
		for k, v := range opts.vars {
			req.Substitutions[k] = v
		}
	}

	switch {
	case opts.format != "":
		req.Format = opts.format
	case req.Format == "" && opts.output != "":
		req.Format = formatFromPath(opts.output)
	}
	req.Format = pipeline.NormalizeFormat(req.Format)
	return req, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// formatFromPath infers the output format from a file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return pipeline.FormatPNG
	case ".jpg", ".jpeg":
		return pipeline.FormatJPEG
	}
	return ""
}

// outputPath returns path, or photocard.<ext> for format when path is empty.
func outputPath(path, format string) string {
	if path != "" {
		return path
	}
	return appName + pipeline.ExtensionFor(format)
}
