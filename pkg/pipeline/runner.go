package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/connectivity"
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	graphio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/netlist"
	"github.com/matzehuels/netgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Source is a decoded netlist together with the hash of its content.
type Source struct {
	Design *netlist.Design
	Name   string // Design name, after Options.Design is applied
	Hash   string
}

// Execute runs the complete load → build → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		ID:        uuid.New(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	src, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Design = src.Name
	result.Stats.LoadTime = time.Since(loadStart)

	// Stage 2: Build
	buildStart := time.Now()
	built, hit, err := r.BuildWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = built.Graph
	result.Violations = built.Violations
	result.CacheHit = hit
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Instances = built.Stats.Instances
	result.Stats.Pins = built.Stats.Pins
	result.Stats.Nets = built.Stats.Nets
	result.Stats.SpecialNets = built.Stats.SpecialNets
	result.Stats.InvalidNets = built.Stats.InvalidNets
	result.Stats.Vertices = built.Stats.Vertices
	result.Stats.Edges = built.Stats.Edges

	r.Logger.Info("built connectivity graph",
		"design", src.Name,
		"id", result.ID,
		"vertices", result.Stats.Vertices,
		"edges", result.Stats.Edges,
		"cached", hit,
		"duration", result.Stats.BuildTime)
	for _, v := range result.Violations {
		r.Logger.Warn("skipped invalid net", "net", v.Net, "violation", v.Kind)
	}

	// Stage 3: Export
	exportStart := time.Now()
	result.GraphHash, err = GraphHash(result.Graph)
	if err != nil {
		return nil, err
	}
	artifacts, err := r.ExportWithHash(ctx, result.Graph, result.GraphHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts

	for _, format := range opts.Formats {
		path := opts.OutputPath(format)
		if path == "" {
			continue
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		result.Outputs = append(result.Outputs, path)
	}
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Debug("exported graph",
		"formats", opts.Formats,
		"outputs", result.Outputs,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// Load reads and decodes the netlist named by opts.
func (r *Runner) Load(ctx context.Context, opts Options) (*Source, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}

	label := opts.Input
	if len(opts.Data) > 0 {
		label = "inline " + opts.InputFormat
	}
	hooks := observability.Build()
	hooks.OnLoadStart(ctx, label)
	start := time.Now()

	src, err := load(opts)
	if err != nil {
		hooks.OnLoadComplete(ctx, label, 0, time.Since(start), err)
		return nil, err
	}
	sum := src.Design.Summary()
	hooks.OnLoadComplete(ctx, label, sum.Nets, time.Since(start), nil)

	opts.Logger.Debug("loaded netlist",
		"source", label,
		"design", src.Name,
		"instances", sum.Instances,
		"pins", sum.Pins,
		"nets", sum.Nets)
	return src, nil
}

func load(opts Options) (*Source, error) {
	data, name := opts.Data, "netlist."+opts.InputFormat
	if len(data) == 0 {
		var err error
		name = opts.Input
		if data, err = os.ReadFile(opts.Input); os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist %s", opts.Input)
		} else if err != nil {
			return nil, fmt.Errorf("read %s: %w", opts.Input, err)
		}
	}

	var format netlist.Format
	var err error
	if opts.InputFormat != "" {
		format, err = netlist.ParseFormat(opts.InputFormat)
	} else {
		format, err = netlist.FormatFromPath(opts.Input)
	}
	if err != nil {
		return nil, err
	}

	d, err := netlist.Parse(data, format, name)
	if err != nil {
		return nil, err
	}
	src := &Source{
		Design: d,
		Name:   d.Name(),
		Hash:   cache.Hash(append([]byte(string(format)+"\x00"), data...)),
	}
	if opts.Design != "" {
		src.Name = opts.Design
	}
	return src, nil
}

// cachedBuild is the cached form of a build result.
type cachedBuild struct {
	Graph      json.RawMessage    `json:"graph"`
	Violations []*errors.NetError `json:"violations,omitempty"`
	Stats      connectivity.Stats `json:"stats"`
}

// BuildWithCacheInfo builds the connectivity graph of src with caching and
// returns cache hit info. Failed builds are not cached.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, src *Source, opts Options) (*connectivity.Result, bool, error) {
	r.applyLogger(&opts)
	hooks := observability.Cache()
	cacheKey := r.Keyer.GraphKey(src.Hash, opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, err := decodeBuild(data); err == nil {
				hooks.OnCacheHit(ctx, "graph")
				return res, true, nil
			}
			// If deserialization fails, fall through to rebuild
		}
		hooks.OnCacheMiss(ctx, "graph")
	}

	res, err := connectivity.Build(ctx, src.Design, opts.BuildOptions(src.Name))
	if err != nil {
		return nil, false, err
	}

	if data, err := encodeBuild(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, "graph", len(data))
		}
	}
	return res, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards the cache hit info.
func (r *Runner) Build(ctx context.Context, src *Source, opts Options) (*connectivity.Result, error) {
	res, _, err := r.BuildWithCacheInfo(ctx, src, opts)
	return res, err
}

func encodeBuild(res *connectivity.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := graphio.WriteJSON(res.Graph, &buf); err != nil {
		return nil, err
	}
	return json.Marshal(cachedBuild{Graph: buf.Bytes(), Violations: res.Violations, Stats: res.Stats})
}

func decodeBuild(data []byte) (*connectivity.Result, error) {
	var c cachedBuild
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	g, err := graphio.ReadJSON(bytes.NewReader(c.Graph))
	if err != nil {
		return nil, err
	}
	return &connectivity.Result{Graph: g, Violations: c.Violations, Stats: c.Stats}, nil
}

// GraphHash returns the content hash of g, computed over its JSON form.
func GraphHash(g *graph.Graph) (string, error) {
	var buf bytes.Buffer
	if err := graphio.WriteJSON(g, &buf); err != nil {
		return "", fmt.Errorf("hash graph: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

// Export serializes or renders g in every format of opts.
func (r *Runner) Export(ctx context.Context, g *graph.Graph, opts Options) (map[string][]byte, error) {
	hash, err := GraphHash(g)
	if err != nil {
		return nil, err
	}
	return r.ExportWithHash(ctx, g, hash, opts)
}

// ExportWithHash is Export for a graph whose hash is already known. Rendered
// images are cached by graph hash; serializations are cheap and are not.
func (r *Runner) ExportWithHash(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (map[string][]byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExport(); err != nil {
		return nil, err
	}
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if !IsRenderFormat(format) {
			var buf bytes.Buffer
			if err := graphio.Write(g, &buf, graphio.Format(format)); err != nil {
				return nil, fmt.Errorf("export %s: %w", format, err)
			}
			artifacts[format] = buf.Bytes()
			continue
		}

		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, "artifact")

		data, err := Render(ctx, g, format, opts)
		if err != nil {
			return nil, err
		}
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
