package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/photocard/pkg/errors"
	"github.com/matzehuels/photocard/pkg/layout"
	"github.com/matzehuels/photocard/pkg/pipeline"
)

// layoutCommand creates the layout command for working with layout documents.
func (c *CLI) layoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Validate layout documents and print the built-in layouts",
	}

	cmd.AddCommand(c.layoutValidateCommand())
	cmd.AddCommand(c.layoutDefaultCommand())

	return cmd
}

// layoutValidateCommand creates the "layout validate" subcommand.
func (c *CLI) layoutValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [layout.yaml|layout.json]...",
		Short: "Check layout documents for errors",
		Long: `Check layout documents for errors.

A layout that fails validation is replaced by the default layout at render
time. This command reports why, so the document can be fixed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invalid := 0
			for _, path := range args {
				cfg, err := validateLayoutFile(path)
				if err != nil {
					invalid++
					printWarning("%s: %s", path, errors.UserMessage(err))
					continue
				}
				printSuccess("%s", path)
				printKeyValue("background", string(cfg.Background.Type))
				printKeyValue("images", strconv.Itoa(len(cfg.ImageAreas)))
				printKeyValue("texts", strconv.Itoa(len(cfg.TextAreas)))
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d layouts invalid", invalid, len(args))
			}
			return nil
		},
	}
}

func validateLayoutFile(path string) (layout.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.Config{}, err
	}
	return layout.Parse(data)
}

// layoutDefaultCommand creates the "layout default" subcommand.
func (c *CLI) layoutDefaultCommand() *cobra.Command {
	var (
		width, height int
		template      bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "default",
		Short: "Print the default layout as a starting point",
		Long: `Print the default layout as a starting point for a custom layout.

Without --template this is the fallback layout used for invalid documents,
sized to --width and --height. With --template it is the layout of the
built-in 800×600 template.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := layout.Default(width, height)
			if template {
				cfg = layout.Template()
			}
			return writeLayout(cmd.OutOrStdout(), cfg, format)
		},
	}

	cmd.Flags().IntVar(&width, "width", pipeline.DefaultWidth, "canvas width")
	cmd.Flags().IntVar(&height, "height", pipeline.DefaultHeight, "canvas height")
	cmd.Flags().BoolVar(&template, "template", false, "print the built-in template layout")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml, json")

	return cmd
}

func writeLayout(w io.Writer, cfg layout.Config, format string) error {
	switch format {
	case "json":
		data, err := layout.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("invalid format: %s (must be 'yaml' or 'json')", format)
}
