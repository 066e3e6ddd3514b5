package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gestalt/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheInvalidateCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every layout from the file cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if b := cfg.Cache.Backend; b != config.BackendFile {
				printWarning("clear only applies to the file backend (configured: %s)", b)
				printNextStep("Drop a single layout", appName+" cache invalidate <fingerprint>")
				return nil
			}
			fc, err := openFileCache(cfg)
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cache cleared")
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				if dir, err = config.DefaultCacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// cacheInvalidateCommand creates the "cache invalidate" subcommand.
func (c *CLI) cacheInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <fingerprint>...",
		Short: "Drop cached layouts by source fingerprint",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, runnerOptions{noAdvisory: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			for _, fp := range args {
				if err := runner.Invalidate(ctx, fp); err != nil {
					return fmt.Errorf("invalidate %s: %w", fp, err)
				}
			}
			printSuccess("Invalidated %s", plural(len(args), "layout"))
			return nil
		},
	}
}
