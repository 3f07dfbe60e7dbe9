package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/pipeline"
	"github.com/matzehuels/netgraph/pkg/store"
)

// loadCommand creates the load command with one subcommand per store.
func (c *CLI) loadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the connectivity graph of a netlist into a database",
		Long: `Load builds the connectivity graph and writes it to Neo4j, SQLite or MongoDB.
A design that is already stored is replaced. Connection settings default to
the [neo4j], [sqlite] and [mongo] sections of the config file; secrets can
also come from NETGRAPH_NEO4J_PASSWORD and NETGRAPH_MONGO_URI.`,
	}

	cmd.AddCommand(c.loadNeo4jCommand())
	cmd.AddCommand(c.loadSQLiteCommand())
	cmd.AddCommand(c.loadMongoCommand())

	return cmd
}

// loadFlags are shared by every load subcommand.
type loadFlags struct {
	buildFlags
	timeout int
}

func (f *loadFlags) register(cmd *cobra.Command) {
	f.buildFlags.register(cmd)
	cmd.Flags().IntVar(&f.timeout, "timeout", defaultStoreTimeout, "timeout in seconds for the whole load")
}

func (c *CLI) loadNeo4jCommand() *cobra.Command {
	var flags loadFlags
	var cfg store.Neo4jConfig
	var batch int

	cmd := &cobra.Command{
		Use:   "neo4j <netlist>",
		Short: "Load into Neo4j as (:Instance)/(:Pin) nodes and [:DRIVES] relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := c.config.Neo4j
			cfg.URI = stringFlag(cmd, "uri", cfg.URI, fc.URI)
			cfg.User = stringFlag(cmd, "user", cfg.User, fc.User)
			cfg.Password = stringFlag(cmd, "password", cfg.Password, fc.Password)
			cfg.Database = stringFlag(cmd, "database", cfg.Database, fc.Database)
			cfg.BatchSize = intFlag(cmd, "batch-size", batch, fc.BatchSize)
			cfg.Logger = c.Logger

			return c.runLoad(cmd, flags, args[0], "Neo4j", func(ctx context.Context) (store.Store, error) {
				return store.NewNeo4jStore(ctx, cfg)
			})
		},
	}

	cmd.Flags().StringVar(&cfg.URI, "uri", "", "Neo4j URI (default from config, neo4j://localhost:7687)")
	cmd.Flags().StringVar(&cfg.User, "user", "", "Neo4j user")
	cmd.Flags().StringVar(&cfg.Password, "password", "", "Neo4j password (prefer "+envNeo4jPassword+")")
	cmd.Flags().StringVar(&cfg.Database, "database", "", "Neo4j database (default: server default)")
	cmd.Flags().IntVar(&batch, "batch-size", store.DefaultBatchSize, "rows per UNWIND batch")
	cmd.Flags().BoolVar(&cfg.Clean, "clean", false, "delete every stored design first")
	flags.register(cmd)

	return cmd
}

func (c *CLI) loadSQLiteCommand() *cobra.Command {
	var flags loadFlags
	var path string

	cmd := &cobra.Command{
		Use:   "sqlite <netlist>",
		Short: "Load into a SQLite database file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path = stringFlag(cmd, "db", path, c.config.SQLite.Path)
			return c.runLoad(cmd, flags, args[0], "SQLite", func(ctx context.Context) (store.Store, error) {
				return store.NewSQLiteStore(ctx, path, c.Logger)
			})
		},
	}

	cmd.Flags().StringVar(&path, "db", "", "database file (default from config, netgraph.db)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) loadMongoCommand() *cobra.Command {
	var flags loadFlags
	var cfg store.MongoConfig
	var batch int

	cmd := &cobra.Command{
		Use:   "mongo <netlist>",
		Short: "Load into MongoDB vertices and edges collections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := c.config.Mongo
			cfg.URI = stringFlag(cmd, "uri", cfg.URI, fc.URI)
			cfg.Database = stringFlag(cmd, "database", cfg.Database, fc.Database)
			cfg.BatchSize = intFlag(cmd, "batch-size", batch, fc.BatchSize)
			cfg.Logger = c.Logger

			return c.runLoad(cmd, flags, args[0], "MongoDB", func(ctx context.Context) (store.Store, error) {
				return store.NewMongoStore(ctx, cfg)
			})
		},
	}

	cmd.Flags().StringVar(&cfg.URI, "uri", "", "MongoDB URI (default from config or "+envMongoURI+")")
	cmd.Flags().StringVar(&cfg.Database, "database", "", "database name (default: "+store.DefaultMongoDatabase+")")
	cmd.Flags().IntVar(&batch, "batch-size", store.DefaultBatchSize, "documents per InsertMany")
	flags.register(cmd)

	return cmd
}

// runLoad builds the graph of input and saves it with the store returned by
// open.
func (c *CLI) runLoad(cmd *cobra.Command, flags loadFlags, input, backend string, open func(context.Context) (store.Store, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	opts := flags.options(cmd, c.config.Build, input)
	if err := checkInput(input); err != nil {
		return err
	}
	design, g, err := c.buildGraph(ctx, opts, flags.noCache)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Loading %s into %s...", design, backend))
	spinner.Start()

	info, err := saveGraph(ctx, open, design, g)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Load into %s failed", backend))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Loaded %s into %s", StyleValue.Render(design), backend))
	printDetail("%d vertices · %d edges · %s", info.Vertices, info.Edges, info.Duration.Round(time.Millisecond))
	printKeyValue("load id", info.LoadID)
	return nil
}

// buildGraph runs the load and build stages.
func (c *CLI) buildGraph(ctx context.Context, opts pipeline.Options, noCache bool) (string, *graph.Graph, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return "", nil, err
	}
	defer runner.Close()

	src, err := runner.Load(ctx, opts)
	if err != nil {
		return "", nil, err
	}
	res, hit, err := runner.BuildWithCacheInfo(ctx, src, opts)
	if err != nil {
		return "", nil, err
	}
	printStats(pipeline.Stats{
		Vertices:    res.Stats.Vertices,
		Edges:       res.Stats.Edges,
		SpecialNets: res.Stats.SpecialNets,
		InvalidNets: res.Stats.InvalidNets,
	}, hit)
	return src.Name, res.Graph, nil
}

func saveGraph(ctx context.Context, open func(context.Context) (store.Store, error), design string, g *graph.Graph) (info store.SaveInfo, err error) {
	s, err := open(ctx)
	if err != nil {
		return info, err
	}
	defer func() {
		if cerr := s.Close(context.WithoutCancel(ctx)); err == nil {
			err = cerr
		}
	}()
	return s.Save(ctx, design, g)
}

// stringFlag returns the flag value when it was set on the command line,
// otherwise the config value.
func stringFlag(cmd *cobra.Command, name, flag, config string) string {
	if cmd.Flags().Changed(name) || config == "" {
		return flag
	}
	return config
}

func intFlag(cmd *cobra.Command, name string, flag, config int) int {
	if cmd.Flags().Changed(name) || config <= 0 {
		return flag
	}
	return config
}
