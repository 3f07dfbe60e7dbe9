package cli

import (
	"context"
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/internal/api"
	"github.com/matzehuels/netgraph/pkg/observability"
	"github.com/matzehuels/netgraph/pkg/observability/prom"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
		workers   int
		maxBody   int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph builder over HTTP",
		Long: `Serve runs the HTTP API:

  POST /v1/graphs   build a graph from the netlist in the request body
  POST /v1/check    report the invalid nets of a netlist as JSON
  GET  /healthz     liveness probe
  GET  /metrics     Prometheus metrics`,
		Example: `  netgraph serve --addr :8080
  curl -X POST --data-binary @top.json -H 'Content-Type: application/json' \
      'localhost:8080/v1/graphs?format=graphml'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr = stringFlag(cmd, "addr", addr, c.config.Serve.Addr)
			if !cmd.Flags().Changed("workers") {
				workers = c.config.Build.Workers
			}
			if !cmd.Flags().Changed("max-body") && c.config.Serve.MaxBodyBytes > 0 {
				maxBody = c.config.Serve.MaxBodyBytes
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			cfg := api.Config{
				Runner:       runner,
				Logger:       c.Logger,
				MaxBodyBytes: maxBody,
				Workers:      workers,
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				prom.New(reg).Register()
				defer observability.Reset()
				cfg.Gatherer = reg
			}

			printInfo("Serving on %s", StyleValue.Render(addr))
			err = api.New(cfg).ListenAndServe(ctx, addr)
			if stderrors.Is(err, context.Canceled) {
				printSuccess("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "parallel workers for the net pass of each build")
	cmd.Flags().Int64Var(&maxBody, "max-body", api.DefaultMaxBodyBytes, "maximum netlist size in bytes")

	return cmd
}
