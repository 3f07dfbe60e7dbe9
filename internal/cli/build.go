package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	buildFlags
	output  string
	formats string
}

// buildCommand creates the build command, which writes the connectivity graph
// of a netlist in one or more serialization formats.
func (c *CLI) buildCommand() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build <netlist>",
		Short: "Build the connectivity graph of a netlist",
		Long: `Build reads a netlist description (.json, .yaml, .toml or .hcl) and writes
its connectivity graph. Instances and boundary pins become vertices; each net
contributes one edge from its driver to every load.

The output format follows --format or, failing that, the extension of -o.
Without -o the graph is written next to the netlist as <name>.gt.`,
		Example: `  netgraph build top.yaml
  netgraph build top.yaml -o top.graphml
  netgraph build top.json -o out/top -f gt,graphml,json --canonical -j 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := opts.options(cmd, c.config.Build, args[0])
			popts.Formats = parseFormats(opts.formats)
			popts.Output = opts.output
			return c.runBuild(cmd.Context(), popts, opts.noCache)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): gt, graphml, json, dot (comma-separated)")
	opts.register(cmd)

	return cmd
}

// runBuild executes the pipeline and reports the written files.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := checkInput(opts.Input); err != nil {
		return err
	}
	if opts.Output == "" {
		opts.Output = defaultOutput(opts.Input, opts.Formats)
	}
	if err := checkOutputDir(opts.Output); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %s", result.Design))

	printSuccess("Built %s", StyleValue.Render(result.Design))
	printStats(result.Stats, result.CacheHit)
	for _, path := range result.Outputs {
		printFile(path)
	}
	if len(result.Violations) > 0 {
		printWarning("%d invalid nets skipped", len(result.Violations))
		printNextStep("See details", appName+" check "+opts.Input)
	}
	return nil
}

// checkInput reports a missing or unreadable netlist before any work starts.
func checkInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "netlist %s is a directory", path)
	}
	return nil
}

// checkOutputDir verifies that the directory an output is written to exists.
func checkOutputDir(output string) error {
	dir := filepath.Dir(output)
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "output directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "output directory %s is not a directory", dir)
	}
	return nil
}

// defaultOutput derives an output path from the netlist path: top.yaml
// becomes top.gt, or top.<format> for a single explicit format.
func defaultOutput(input string, formats []string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	ext := pipeline.DefaultFormat
	if len(formats) == 1 {
		ext = formats[0]
	}
	return base + "." + ext
}
