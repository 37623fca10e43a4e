package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/photocard/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Commands:
//   - render: compose a single photocard into an image file
//   - serve: run the HTTP API
//   - layout: validate layout documents and print the built-in layouts
//   - cache: manage the local image and card cache
//   - completion: generate shell completion scripts
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Photocard composes artwork photocards from layout templates",
		Long: `Photocard composes a background, an artwork image and text into a single
photocard image, following a declarative layout document (JSON or YAML).

It runs as a one-shot renderer or as an HTTP service that fetches artworks
and conversation summaries from the surrounding services.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
