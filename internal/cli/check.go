package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// checkCommand creates the check command, which lists every invalid net of a
// netlist instead of stopping at the first.
func (c *CLI) checkCommand() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "check <netlist>",
		Short: "Report every invalid net of a netlist",
		Long: `Check builds the connectivity graph with invalid nets skipped and prints a
report of the design and each violation: nets with several drivers, nets with
no driver and terminals that name unknown instances or pins.

Check exits with status 1 when any net is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.config.Build, args[0])
			opts.SkipInvalid = true
			return c.runCheck(cmd.Context(), opts, flags.noCache)
		},
	}
	flags.register(cmd)
	_ = cmd.Flags().MarkHidden("skip-invalid")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := checkInput(opts.Input); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	src, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	res, err := runner.Build(ctx, src, opts)
	if err != nil {
		return err
	}

	stats := pipeline.Stats{
		Instances:   res.Stats.Instances,
		Pins:        res.Stats.Pins,
		Nets:        res.Stats.Nets,
		SpecialNets: res.Stats.SpecialNets,
		InvalidNets: res.Stats.InvalidNets,
		Vertices:    res.Stats.Vertices,
		Edges:       res.Stats.Edges,
	}
	writeCheckReport(os.Stdout, src.Name, stats, res.Violations)

	if n := len(res.Violations); n > 0 {
		return errors.New(errors.ErrCodeStructuralViolation, "%s: %d invalid nets", src.Name, n)
	}
	return nil
}
