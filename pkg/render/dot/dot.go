// Package dot draws layout specifications as Graphviz diagrams.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
)

// Options configures diagram output.
type Options struct {
	// Blocks lists each region's blocks inside its node. When false only
	// the region id and fill are shown.
	Blocks bool
}

// Region fill colors by utilization.
const (
	fillEmpty = "#f5f5f5"
	fillLow   = "#e3f2fd"
	fillHigh  = "#bbdefb"
	fillOver  = "#ffcdd2"
)

// ToDOT converts spec to Graphviz DOT. Pages become clusters laid out left
// to right; regions stack top to bottom inside them in reading order.
func ToDOT(spec *layout.Specification, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  newrank=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  fontname=\"Helvetica\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  edge [color=\"#9e9e9e\", arrowsize=0.6];\n")
	fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", title(spec))
	buf.WriteString("\n")

	for pi, p := range spec.Pages {
		fmt.Fprintf(&buf, "  subgraph cluster_page_%d {\n", pi+1)
		fmt.Fprintf(&buf, "    label=%q;\n", pageLabel(p))
		buf.WriteString("    style=\"rounded\";\n    color=\"#616161\";\n")
		for _, r := range p.Regions {
			fmt.Fprintf(&buf, "    %q [label=\"%s\", fillcolor=%q];\n",
				r.ID, regionLabel(r, opts.Blocks), fill(r))
		}
		for ri := 1; ri < len(p.Regions); ri++ {
			fmt.Fprintf(&buf, "    %q -> %q;\n", p.Regions[ri-1].ID, p.Regions[ri].ID)
		}
		buf.WriteString("  }\n")
	}

	// Continue reading order across page boundaries.
	var prev string
	for _, p := range spec.Pages {
		if len(p.Regions) == 0 {
			continue
		}
		if prev != "" {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, constraint=false];\n", prev, p.Regions[0].ID)
		}
		prev = p.Regions[len(p.Regions)-1].ID
	}

	buf.WriteString("}\n")
	return buf.String()
}

func title(spec *layout.Specification) string {
	fp := spec.SourceFingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fmt.Sprintf("%s layout %s  quality %.2f (%s)", spec.DocumentType, fp, spec.Quality.Score, spec.Quality.Grade)
}

func pageLabel(p layout.Page) string {
	label := fmt.Sprintf("%s %d  %s", p.Kind, p.Index+1, p.Template)
	if p.Title != "" {
		label += "\n" + p.Title
	}
	return label
}

// regionLabel builds a left-justified DOT label. Lines end in \l.
func regionLabel(r layout.Region, blocks bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %.0f/%.0fpt\\l", escape(r.ID), r.ContentHeight(), r.Capacity)
	if !blocks {
		return b.String()
	}
	for _, p := range r.Blocks {
		kind := p.Kind
		if p.Level > 0 {
			kind = fmt.Sprintf("%s h%d", kind, p.Level)
		}
		fmt.Fprintf(&b, "%3d %s (%s) %.1fpt", p.Sequence, escape(p.BlockID), kind, p.EstimatedHeight)
		if p.Emphasis != 0 && p.Emphasis != 1 {
			fmt.Fprintf(&b, " x%.2g", p.Emphasis)
		}
		b.WriteString("\\l")
	}
	return b.String()
}

func fill(r layout.Region) string {
	if r.Capacity <= 0 || len(r.Blocks) == 0 {
		return fillEmpty
	}
	used := r.ContentHeight()
	switch {
	case !geom.LessOrEqual(used, r.Capacity):
		return fillOver
	case used/r.Capacity >= 0.75:
		return fillHigh
	default:
		return fillLow
	}
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ")

func escape(s string) string { return escaper.Replace(s) }

// RenderSVG renders a DOT graph to SVG using Graphviz.
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
	return buf.Bytes(), nil
}
