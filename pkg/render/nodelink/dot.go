package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds footprint and degree to vertex labels and the net name
	// to edge labels. When false, only the vertex name is shown.
	Detailed bool
}

// ToDOT converts a connectivity graph to Graphviz DOT source.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Instances are drawn as boxes and pins as ellipses, each filled with the
// vertex colour. Undirected graphs produce a "graph" with "--" edges.
func ToDOT(g *graph.Graph, opts Options) string {
	kind, arrow := "digraph", "->"
	if !g.Directed() {
		kind, arrow = "graph", "--"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s G {\n", kind)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fontcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("\n")

	vertices := g.Vertices()
	for _, v := range vertices {
		fmt.Fprintf(&buf, "  %q [%s];\n", v.Name, strings.Join(fmtAttrs(g, v, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		from, to := vertices[e.From].Name, vertices[e.To].Name
		if opts.Detailed && e.Net != "" {
			fmt.Fprintf(&buf, "  %q %s %q [label=%q];\n", from, arrow, to, e.Net)
			continue
		}
		fmt.Fprintf(&buf, "  %q %s %q;\n", from, arrow, to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, v graph.Vertex, detailed bool) string {
	if !detailed {
		return v.Name
	}
	parts := []string{v.Name, v.Kind.String()}
	if v.IsInstance() {
		parts = append(parts, fmt.Sprintf("%g x %g", v.Width, v.Height))
	}
	parts = append(parts, fmt.Sprintf("in %d / out %d", g.InDegree(v.Index), g.OutDegree(v.Index)))
	return strings.Join(parts, "\n")
}

func fmtAttrs(g *graph.Graph, v graph.Vertex, detailed bool) []string {
	shape := "box"
	if !v.IsInstance() {
		shape = "ellipse"
	}
	return []string{
		fmt.Sprintf("label=%q", fmtLabel(g, v, detailed)),
		"shape=" + shape,
		fmt.Sprintf("fillcolor=%q", v.Color),
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// viewBox-only one so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
