// Package pipeline provides the netlist-to-graph pipeline shared by the CLI
// and the HTTP API.
//
// The pipeline consists of three stages:
//
//  1. Load: read and decode a netlist description into a [netlist.Design]
//  2. Build: construct the connectivity graph (cached by netlist content)
//  3. Export: serialize or render the graph in the requested formats
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "top.yaml",
//	    Formats: []string{"gt"},
//	    Output:  "top.gt",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Stats.Vertices, result.Stats.Edges)
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/connectivity"
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	graphio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/netlist"
)

// Rendered formats, in addition to the graph serializations of pkg/io.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// DefaultFormat is used when neither Formats nor Output names one.
const DefaultFormat = string(graphio.FormatGT)

// DefaultPNGScale is the PNG rasterisation scale.
const DefaultPNGScale = 2.0

// IsRenderFormat reports whether format is drawn through Graphviz rather than
// serialized.
func IsRenderFormat(format string) bool {
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		return true
	}
	return false
}

// ValidateFormat checks that a format is a graph serialization or a rendered
// image format. Aliases accepted by [graphio.ParseFormat] are normalised.
func ValidateFormat(format string) (string, error) {
	if IsRenderFormat(format) {
		return format, nil
	}
	f, err := graphio.ParseFormat(format)
	if err != nil {
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be one of: gt, graphml, json, dot, svg, png, pdf)", format)
	}
	return string(f), nil
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Input       string `json:"input,omitempty"`        // Netlist path
	Data        []byte `json:"-"`                      // Netlist content; takes precedence over Input
	InputFormat string `json:"input_format,omitempty"` // Required with Data, else inferred from Input
	Design      string `json:"design,omitempty"`       // Overrides the design name of the netlist

	// Build options
	Undirected  bool `json:"undirected,omitempty"`
	Canonical   bool `json:"canonical,omitempty"`
	SkipInvalid bool `json:"skip_invalid,omitempty"`
	Workers     int  `json:"workers,omitempty"`
	Refresh     bool `json:"refresh,omitempty"` // Rebuild even when the graph is cached

	// Export options
	Formats  []string `json:"formats,omitempty"`
	Output   string   `json:"output,omitempty"` // Output path; one file per format
	Detailed bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies this run in logs, API responses and stores.
	ID uuid.UUID

	// Design is the design name.
	Design string

	// Graph is the connectivity graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Violations lists the nets skipped under SkipInvalid.
	Violations []*errors.NetError

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Outputs lists the files written, in format order.
	Outputs []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the graph came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Instances   int
	Pins        int
	Nets        int
	SpecialNets int
	InvalidNets int
	Vertices    int
	Edges       int
	LoadTime    time.Duration
	BuildTime   time.Duration
	ExportTime  time.Duration
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative")
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input fields.
func (o *Options) ValidateForLoad() error {
	if len(o.Data) == 0 && o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input path or netlist data is required")
	}
	if len(o.Data) > 0 {
		if o.InputFormat == "" {
			return errors.New(errors.ErrCodeInvalidInput, "input_format is required with inline netlist data")
		}
		if _, err := netlist.ParseFormat(o.InputFormat); err != nil {
			return err
		}
	} else if err := errors.ValidatePath(o.Input); err != nil {
		return err
	}
	if o.Design != "" {
		if err := errors.ValidateName("design", o.Design); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// ValidateForExport applies format defaults and checks the formats.
func (o *Options) ValidateForExport() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
		if o.Output != "" {
			if ext := strings.TrimPrefix(filepath.Ext(o.Output), "."); ext != "" {
				o.Formats = []string{ext}
			}
		}
	}
	for i, f := range o.Formats {
		norm, err := ValidateFormat(f)
		if err != nil {
			return err
		}
		o.Formats[i] = norm
	}
	if o.Output != "" {
		if err := errors.ValidatePath(o.Output); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Policy returns the violation policy.
func (o *Options) Policy() connectivity.Policy {
	if o.SkipInvalid {
		return connectivity.SkipInvalid
	}
	return connectivity.FailFast
}

// BuildOptions returns the builder configuration for design.
func (o *Options) BuildOptions(design string) connectivity.Options {
	return connectivity.Options{
		Undirected: o.Undirected,
		Policy:     o.Policy(),
		Canonical:  o.Canonical,
		Workers:    o.Workers,
		Design:     design,
		Logger:     o.Logger,
	}
}

// GraphKeyOpts returns cache key options for graph construction.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Undirected: o.Undirected,
		Canonical:  o.Canonical,
		Policy:     o.Policy().String(),
	}
}

// ArtifactKeyOpts returns cache key options for an exported artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}

// OutputPath returns the file an artifact of format is written to. With a
// single format the output path is used as given; with several, the
// extension is replaced per format.
func (o *Options) OutputPath(format string) string {
	if o.Output == "" {
		return ""
	}
	if len(o.Formats) <= 1 {
		return o.Output
	}
	return strings.TrimSuffix(o.Output, filepath.Ext(o.Output)) + "." + format
}
