package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/netgraph/pkg/graph"
	"github.com/matzehuels/netgraph/pkg/render/nodelink"
)

// Render draws g as a node-link diagram in an image format (svg, png or
// pdf). PNG and PDF go through rsvg-convert, which must be on PATH.
func Render(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.Detailed})

	var data []byte
	var err error
	switch format {
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, DefaultPNGScale)
	case FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	default:
		return nil, fmt.Errorf("unsupported render format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}
