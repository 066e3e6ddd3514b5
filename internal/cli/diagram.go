package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gestalt/pkg/render"
	"github.com/matzehuels/gestalt/pkg/render/dot"
)

type diagramFlags struct {
	output   string
	format   string
	fromSpec bool
	blocks   bool
	scale    float64
	noCache  bool
}

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	flags := diagramFlags{blocks: true, scale: 2}

	cmd := &cobra.Command{
		Use:   "diagram <package|layout>",
		Short: "Draw a layout as a page and region diagram",
		Long: `Diagram composes a content package, or reads a layout with --spec, and
draws its pages, regions and blocks with Graphviz.

PDF and PNG output require rsvg-convert (librsvg).`,
		Example: `  gestalt diagram report.yaml -o report.svg
  gestalt diagram --spec report.layout.json -o report.png --scale 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiagram(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "dot, svg, pdf or png (default: from output extension)")
	cmd.Flags().BoolVar(&flags.fromSpec, "spec", false, "input is a layout specification, not a content package")
	cmd.Flags().BoolVar(&flags.blocks, "blocks", flags.blocks, "list blocks inside regions")
	cmd.Flags().Float64Var(&flags.scale, "scale", flags.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the layout cache")

	return cmd
}

func (c *CLI) runDiagram(cmd *cobra.Command, path string, flags diagramFlags) error {
	ctx := cmd.Context()

	format, output, err := diagramTarget(path, flags.output, flags.format)
	if err != nil {
		return err
	}

	spec, err := c.loadLayout(ctx, path, flags.fromSpec, runnerOptions{noCache: flags.noCache, noAdvisory: true})
	if err != nil {
		return err
	}

	graph := dot.ToDOT(spec, dot.Options{Blocks: flags.blocks})
	var data []byte
	if format == render.FormatDOT {
		data = []byte(graph)
	} else {
		svg, err := dot.RenderSVG(ctx, graph)
		if err != nil {
			return err
		}
		if data, err = render.Convert(ctx, svg, format, flags.scale); err != nil {
			return err
		}
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Diagram of %s", plural(len(spec.Pages), string(pageKind(spec))))
	printFile(output)
	return nil
}

// diagramTarget resolves the output format and path. An explicit format
// wins over the output extension; without an output the input name is
// reused with the format's extension.
func diagramTarget(input, output, format string) (render.Format, string, error) {
	var f render.Format
	switch {
	case format != "":
		parsed, err := render.ParseFormat(format)
		if err != nil {
			return "", "", err
		}
		f = parsed
	case output != "":
		f = render.FormatFromPath(output)
	default:
		f = render.FormatSVG
	}
	if output == "" {
		base := input
		if base == "-" {
			base = "layout"
		}
		if i := strings.LastIndexByte(base, '.'); i > strings.LastIndexByte(base, '/') {
			base = base[:i]
		}
		output = base + "." + string(f)
	}
	return f, output, nil
}
