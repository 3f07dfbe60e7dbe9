package connectivity

import (
	"cmp"
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/netlist"
	"github.com/matzehuels/netgraph/pkg/observability"
)

// Policy decides what happens to a net that violates the driver rule.
type Policy int

const (
	// FailFast aborts the build on the first violating net.
	FailFast Policy = iota
	// SkipInvalid records violating nets and leaves them out of the graph.
	SkipInvalid
)

// String returns "fail-fast" or "skip-invalid".
func (p Policy) String() string {
	if p == SkipInvalid {
		return "skip-invalid"
	}
	return "fail-fast"
}

// ParsePolicy parses the names returned by [Policy.String].
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "fail-fast", "failfast":
		return FailFast, nil
	case "skip-invalid", "skipinvalid", "skip":
		return SkipInvalid, nil
	}
	return FailFast, errors.New(errors.ErrCodeInvalidInput, "unknown policy %q (want fail-fast or skip-invalid)", s)
}

// Options configures [Build]. The zero value builds a directed graph,
// fails fast and keeps provider order.
type Options struct {
	Undirected bool        // Produce an undirected graph
	Policy     Policy      // Violation handling
	Canonical  bool        // Sort instances, pins and nets by name
	Workers    int         // Net pass parallelism; <= 1 is sequential
	Design     string      // Label for logs and hooks
	Logger     *log.Logger // Defaults to log.Default()
}

// Stats summarises a build.
type Stats struct {
	Instances   int
	Pins        int
	Nets        int
	SpecialNets int
	InvalidNets int
	Vertices    int
	Edges       int
	Duration    time.Duration
}

// Result is a successfully built graph.
type Result struct {
	Graph      *graph.Graph
	Violations []*errors.NetError // Skipped nets, SkipInvalid only
	Stats      Stats
}

// netResult is the outcome of classifying one net.
type netResult struct {
	edges   []graph.Edge
	special bool
	err     error
}

// Build constructs the connectivity graph of p.
//
// Errors carry the codes PROVIDER_ERROR (p failed), NAME_COLLISION,
// STRUCTURAL_VIOLATION or REFERENTIAL_INTEGRITY. On error no graph is
// returned. Build keeps no reference to p or to the returned graph.
func Build(ctx context.Context, p netlist.Provider, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	start := time.Now()

	instances, err := p.Instances()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "list instances")
	}
	pins, err := p.Pins()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "list pins")
	}
	nets, err := p.Nets()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProvider, err, "list nets")
	}

	if opts.Canonical {
		instances = slices.Clone(instances)
		pins = slices.Clone(pins)
		nets = slices.Clone(nets)
		slices.SortStableFunc(instances, func(a, b netlist.Instance) int { return cmp.Compare(a.Name, b.Name) })
		slices.SortStableFunc(pins, func(a, b netlist.Pin) int { return cmp.Compare(a.Name, b.Name) })
		slices.SortStableFunc(nets, func(a, b netlist.Net) int { return cmp.Compare(a.Name, b.Name) })
	}

	hooks := observability.Build()
	hooks.OnBuildStart(ctx, opts.Design, len(nets))

	res, err := build(ctx, instances, pins, nets, opts, logger)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnBuildComplete(ctx, opts.Design, 0, 0, elapsed, err)
		return nil, err
	}
	res.Stats.Duration = elapsed
	hooks.OnBuildComplete(ctx, opts.Design, res.Stats.Vertices, res.Stats.Edges, elapsed, nil)

	logger.Debug("built connectivity graph",
		"design", opts.Design,
		"vertices", res.Stats.Vertices,
		"edges", res.Stats.Edges,
		"special", res.Stats.SpecialNets,
		"invalid", res.Stats.InvalidNets,
		"duration", elapsed)
	return res, nil
}

func build(ctx context.Context, instances []netlist.Instance, pins []netlist.Pin, nets []netlist.Net, opts Options, logger *log.Logger) (*Result, error) {
	g := graph.New(!opts.Undirected)

	for _, inst := range instances {
		v := graph.Vertex{Name: inst.Name, Kind: graph.KindInstance, Color: graph.InstanceColor}
		if inst.Master != nil {
			v.Width, v.Height = inst.Master.Width, inst.Master.Height
		}
		if err := addVertex(g, v); err != nil {
			return nil, err
		}
	}
	for _, pin := range pins {
		if err := addVertex(g, graph.Vertex{Name: pin.Name, Kind: graph.KindPin, Color: graph.PinColor}); err != nil {
			return nil, err
		}
	}

	var results []netResult
	var err error
	if opts.Workers > 1 && len(nets) > 1 {
		results, err = classifyParallel(ctx, g, nets, opts.Workers, opts.Policy == FailFast)
	} else {
		results, err = classifySequential(ctx, g, nets, opts.Policy == FailFast)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Stats: Stats{Instances: len(instances), Pins: len(pins), Nets: len(nets)},
	}
	hooks := observability.Build()
	for i, r := range results {
		switch {
		case r.special:
			res.Stats.SpecialNets++
			logger.Debug("skipping special net", "net", nets[i].Name)
		case r.err != nil:
			ne, _ := errors.AsNetError(r.err)
			hooks.OnViolation(ctx, opts.Design, ne.Net, string(ne.Kind))
			if opts.Policy == FailFast {
				return nil, errors.Violated(ne)
			}
			res.Stats.InvalidNets++
			res.Violations = append(res.Violations, ne)
			logger.Warn("skipping invalid net", "net", ne.Net, "violation", ne.Kind)
		default:
			for _, e := range r.edges {
				if err := g.AddEdge(e); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "net %q", nets[i].Name)
				}
			}
		}
	}

	res.Graph = g
	res.Stats.Vertices = g.VertexCount()
	res.Stats.Edges = g.EdgeCount()
	return res, nil
}

func addVertex(g *graph.Graph, v graph.Vertex) error {
	_, err := g.AddVertex(v)
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, graph.ErrEmptyName):
		return errors.New(errors.ErrCodeInvalidNetlist, "%s with empty name", v.Kind)
	case stderrors.Is(err, graph.ErrDuplicateName):
		i, _ := g.Lookup(v.Name)
		prev, _ := g.Vertex(i)
		return errors.Wrap(errors.ErrCodeNameCollision, err, "%s %q collides with %s %q", v.Kind, v.Name, prev.Kind, prev.Name)
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "add %s %q", v.Kind, v.Name)
	}
}

// classifySequential stops at the first violation when failFast is set; the
// results after it are left empty and never read.
func classifySequential(ctx context.Context, g *graph.Graph, nets []netlist.Net, failFast bool) ([]netResult, error) {
	results := make([]netResult, len(nets))
	for i, n := range nets {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		r := &results[i]
		r.edges, r.special, r.err = netEdges(g, n)
		if r.err != nil && failFast {
			return results[:i+1], nil
		}
	}
	return results, nil
}

// classifyParallel strides nets across workers, each writing only its own
// result slots. Under failFast, workers skip nets above the lowest failing
// index seen so far, which keeps the reported violation the same as the
// sequential pass.
func classifyParallel(ctx context.Context, g *graph.Graph, nets []netlist.Net, workers int, failFast bool) ([]netResult, error) {
	workers = min(workers, len(nets))
	results := make([]netResult, len(nets))

	var firstBad atomic.Int64
	firstBad.Store(int64(len(nets)))

	eg, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		eg.Go(func() error {
			done := 0
			for i := w; i < len(nets); i += workers {
				if failFast && int64(i) > firstBad.Load() {
					return nil
				}
				if done%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				done++
				r := &results[i]
				r.edges, r.special, r.err = netEdges(g, nets[i])
				if r.err != nil && failFast {
					lowerFirstBad(&firstBad, int64(i))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if n := int(firstBad.Load()); failFast && n < len(nets) {
		return results[:n+1], nil
	}
	return results, nil
}

func lowerFirstBad(v *atomic.Int64, i int64) {
	for {
		cur := v.Load()
		if i >= cur || v.CompareAndSwap(cur, i) {
			return
		}
	}
}
