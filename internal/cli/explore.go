package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// exploreCommand creates the explore command, an interactive browser over
// the nets of a design.
func (c *CLI) exploreCommand() *cobra.Command {
	var design string
	var onlyBad bool

	cmd := &cobra.Command{
		Use:   "explore <netlist>",
		Short: "Browse the nets of a netlist interactively",
		Long: `Explore lists every net with its driver, its number of loads and whether it
would be accepted by graph construction. Select a net to see its loads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkInput(args[0]); err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			src, err := runner.Load(cmd.Context(), pipeline.Options{Input: args[0], Design: design})
			if err != nil {
				return err
			}
			rows, err := netRows(src.Design)
			if err != nil {
				return err
			}

			m := NewNetListModel(src.Name, rows)
			if onlyBad {
				m.OnlyBad = true
				m.filter()
			}
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&design, "design", "", "override the design name")
	cmd.Flags().BoolVar(&onlyBad, "violations", false, "start with only invalid nets shown")

	return cmd
}
