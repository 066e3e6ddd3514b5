// Package cli implements the gestalt command-line interface.
//
// # Commands
//
//   - compose: build a layout specification from a content package
//   - diagram: draw a layout as a Graphviz diagram (SVG, PDF, PNG or DOT)
//   - inspect: browse a layout page by page in the terminal
//   - serve: run the HTTP adapter
//   - cache: manage the local layout cache
//   - version: print build information
//
// Every command reads an optional TOML config (--config) and honors
// GESTALT_* environment overrides. --verbose enables debug logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gestalt/pkg/buildinfo"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/config"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "gestalt"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Gestalt composes content into page and slide layouts",
		Long:         `Gestalt turns structured content and design intent into a validated, fully positioned layout specification for documents and presentations.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (TOML)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.composeCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Runner Factory
// =============================================================================

// loadConfig reads the config file and environment. A log level from the
// config applies unless --verbose was given.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if !c.verbose {
		lvl, err := config.ParseLevel(cfg.Log.Level)
		if err != nil {
			return config.Config{}, err
		}
		c.SetLogLevel(lvl)
	}
	return cfg, nil
}

// runnerOptions controls how a command's runner is built.
type runnerOptions struct {
	noCache    bool
	noAdvisory bool
}

// newRunner creates a pipeline runner from config.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, ro runnerOptions) (*pipeline.Runner, error) {
	if ro.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	if ro.noAdvisory {
		cfg.Advisory.Enabled = false
	}
	opts, err := cfg.RunnerOptions(ctx, c.Logger)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("runner ready", "cache", cfg.Cache.Backend, "advisory", opts.Advisor != nil)
	return pipeline.NewRunner(opts), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// readPackage reads a content package from path, or stdin when path is "-".
func readPackage(path string, format content.Format) (content.Package, error) {
	if path == "-" {
		if format == "" {
			format = content.FormatJSON
		}
		return content.ReadPackage(os.Stdin, format)
	}
	if format == "" {
		format = content.FormatFromPath(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return content.Package{}, err
	}
	defer f.Close()
	return content.ReadPackage(f, format)
}

// loadLayout returns a layout either read directly from a specification
// file (fromSpec) or composed from a content package.
func (c *CLI) loadLayout(ctx context.Context, path string, fromSpec bool, ro runnerOptions) (*layout.Specification, error) {
	if fromSpec {
		return layout.ReadFile(path)
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	pkg, err := readPackage(path, "")
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	runner, err := c.newRunner(ctx, cfg, ro)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := runner.Compose(ctx, pkg)
	if err != nil {
		return nil, err
	}
	return res.Spec, nil
}

// openFileCache opens the configured file cache directory for cache
// management commands.
func openFileCache(cfg config.Config) (*cache.FileCache, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := config.DefaultCacheDir()
		if err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}
