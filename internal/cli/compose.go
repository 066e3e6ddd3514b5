package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/layout"
)

type composeFlags struct {
	output     string
	format     string
	noCache    bool
	noAdvisory bool
	quiet      bool
}

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var flags composeFlags

	cmd := &cobra.Command{
		Use:   "compose <package>",
		Short: "Compose a layout specification from a content package",
		Long: `Compose reads a content package (JSON or YAML, "-" for stdin) and writes
the validated layout specification as JSON.

The layout goes to stdout unless --output is given.`,
		Example: `  gestalt compose report.yaml -o report.layout.json
  cat deck.json | gestalt compose - --no-cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the layout to a file")
	cmd.Flags().StringVar(&flags.format, "format", "", "package format: json or yaml (default: from extension)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the layout cache")
	cmd.Flags().BoolVar(&flags.noAdvisory, "no-advisory", false, "skip the advisory overlay")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress the summary")

	return cmd
}

func (c *CLI) runCompose(cmd *cobra.Command, path string, flags composeFlags) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	pkg, err := readPackage(path, content.Format(flags.format))
	if err != nil {
		return fmt.Errorf("read package: %w", err)
	}

	runner, err := c.newRunner(ctx, cfg, runnerOptions{noCache: flags.noCache, noAdvisory: flags.noAdvisory})
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, "Composing layout...")
	if !flags.quiet {
		spin.Start()
	}
	res, err := runner.Compose(ctx, pkg)
	spin.Stop()
	if err != nil {
		if !flags.quiet {
			printError("%s", errors.UserMessage(err))
		}
		return err
	}
	prog.done(fmt.Sprintf("Composed %s", plural(len(res.Spec.Pages), string(pageKind(res.Spec)))))

	if flags.output == "" {
		data, err := layout.Marshal(res.Spec)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return err
		}
	} else if err := layout.WriteFile(res.Spec, flags.output); err != nil {
		return err
	}

	if flags.quiet {
		return nil
	}
	printSuccess("Layout %s", StyleHighlight.Render(res.Fingerprint[:12]))
	printStats(res.Spec, res.CacheInfo.Hit)
	if rep := res.Advisory; rep.RequestID != "" {
		if rep.Err != nil {
			printWarning("Advisory skipped: %s", errors.UserMessage(rep.Err))
		} else {
			printDetail("advisory: %d applied, %d dropped", rep.Applied, rep.Dropped)
		}
	}
	if flags.output != "" {
		printFile(flags.output)
		printNextStep("Inspect it", fmt.Sprintf("%s inspect --spec %s", appName, flags.output))
	}
	return nil
}
