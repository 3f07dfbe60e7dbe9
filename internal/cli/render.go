package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	buildFlags
	output   string
	formats  string
	detailed bool // show masters and dimensions on instance labels
}

// renderCommand creates the render command for drawing the graph as a
// node-link diagram through Graphviz.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <netlist>",
		Short: "Render the connectivity graph as SVG, PNG or PDF",
		Long: `Render builds the connectivity graph and draws it as a node-link diagram.
Instances are drawn as boxes and boundary pins as ellipses. PNG and PDF
output needs rsvg-convert on PATH.`,
		Example: `  netgraph render top.yaml -o top.svg
  netgraph render top.yaml -o top -f svg,pdf --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(opts.formats)
			if len(formats) == 0 {
				formats = []string{pipeline.FormatSVG}
				if ext := strings.TrimPrefix(filepath.Ext(opts.output), "."); pipeline.IsRenderFormat(ext) {
					formats = []string{ext}
				}
			}
			for _, f := range formats {
				if !pipeline.IsRenderFormat(f) {
					return errors.New(errors.ErrCodeInvalidFormat,
						"invalid render format %q (must be one of: svg, png, pdf)", f)
				}
			}

			popts := opts.options(cmd, c.config.Build, args[0])
			popts.Formats = formats
			popts.Output = opts.output
			popts.Detailed = opts.detailed
			return c.runBuild(cmd.Context(), popts, opts.noCache)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label instances with their master and dimensions")
	opts.register(cmd)

	return cmd
}
