// Package render converts layout diagrams between output formats.
//
// The [dot] subpackage draws a layout specification as a Graphviz diagram:
// one cluster per page, one node per region, with the blocks of each region
// listed in reading order. It is a debugging aid for inspecting how content
// was packed, not a document renderer.
//
//	dot := dot.ToDOT(spec, dot.Options{Blocks: true})
//	svg, err := dot.RenderSVG(ctx, dot)
//	pdf, err := render.Convert(ctx, svg, render.FormatPDF, 1)
//
// [Convert] shells out to rsvg-convert (librsvg) for PDF and PNG output.
//
// [dot]: github.com/matzehuels/gestalt/pkg/render/dot
package render
