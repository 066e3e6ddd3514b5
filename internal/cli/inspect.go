package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		fromSpec bool
		noCache  bool
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <package|layout>",
		Short: "Browse a layout interactively",
		Long: `Inspect composes a content package, or reads a layout with --spec, and
opens a terminal browser over its pages, blocks and rule diagnostics.

With --plain the diagnostics are printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := c.loadLayout(cmd.Context(), args[0], fromSpec, runnerOptions{noCache: noCache})
			if err != nil {
				return err
			}
			if plain {
				printStats(spec, false)
				_, err := fmt.Fprintln(out, diagnosticsTable(spec))
				return err
			}
			_, err = tea.NewProgram(NewInspectModel(spec), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&fromSpec, "spec", false, "input is a layout specification, not a content package")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the layout cache")
	cmd.Flags().BoolVar(&plain, "plain", false, "print diagnostics without the interactive browser")

	return cmd
}
