package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/netgraph/pkg/buildinfo"
	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "netgraph"

	// defaultStoreTimeout bounds a single store load (seconds).
	defaultStoreTimeout = 300
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "netgraph turns gate-level netlists into connectivity graphs",
		Long: `netgraph reads a placed netlist description (instances, boundary pins and
nets) and builds the graph whose vertices are instances and pins and whose
edges run from each net's driver to its loads.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/netgraph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun reads the config file and attaches the logger to the command
// context.
func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		if p, err := configPath(); err == nil {
			path = p
		}
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.config = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	c.Logger.Debug("configuration loaded", "path", path)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache picks the cache backend: Redis when configured, otherwise the
// XDG file cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.config.Cache
	if noCache || cfg.Disabled {
		return cache.NewNullCache(), nil, nil
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		var keyer cache.Keyer
		if cfg.KeyPrefix != "" {
			keyer = cache.NewScopedKeyer(nil, cfg.KeyPrefix)
		}
		return rc, keyer, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/netgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// buildFlags are the graph construction flags shared by several commands.
type buildFlags struct {
	undirected  bool
	canonical   bool
	skipInvalid bool
	workers     int
	noCache     bool
	refresh     bool
	design      string
}

// register adds the flags to cmd, with defaults from the config file applied
// later by options.
func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.undirected, "undirected", false, "build an undirected graph")
	cmd.Flags().BoolVar(&f.canonical, "canonical", false, "sort instances, pins and nets by name for reproducible output")
	cmd.Flags().BoolVar(&f.skipInvalid, "skip-invalid", false, "skip invalid nets instead of failing")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "parallel workers for the net pass (0 or 1: sequential)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild even when the graph is cached")
	cmd.Flags().StringVar(&f.design, "design", "", "override the design name")
}

// options merges the flags with the [build] config section. A flag wins only
// when it was set on the command line.
func (f *buildFlags) options(cmd *cobra.Command, cfg BuildConfig, input string) pipeline.Options {
	opts := pipeline.Options{
		Input:       input,
		Design:      f.design,
		Undirected:  cfg.Undirected,
		Canonical:   cfg.Canonical,
		SkipInvalid: cfg.SkipInvalid,
		Workers:     cfg.Workers,
		Refresh:     f.refresh,
	}
	flags := cmd.Flags()
	if flags.Changed("undirected") {
		opts.Undirected = f.undirected
	}
	if flags.Changed("canonical") {
		opts.Canonical = f.canonical
	}
	if flags.Changed("skip-invalid") {
		opts.SkipInvalid = f.skipInvalid
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string leaves the choice to the pipeline.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
