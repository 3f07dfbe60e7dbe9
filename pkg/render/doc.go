// Package render provides output conversion for rendered connectivity graphs.
//
// Diagrams are produced as SVG by the [nodelink] subpackage. The [ToPDF] and
// [ToPNG] functions convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
package render
