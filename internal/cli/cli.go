package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/themecheck/pkg/buildinfo"
	"github.com/matzehuels/themecheck/pkg/errors"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the binary name used in help text.
const appName = "themecheck"

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

	stderr io.Writer

	// global flags
	configFile string
	cacheFile  string
	redisURL   string
	verbose    bool
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), stderr: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
//
// Running the root command itself, with or without arguments, is a usage
// error; cobra would otherwise print help and exit successfully.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "themecheck audits hexo theme configs",
		Long: `themecheck crawls the hexo theme catalog, downloads the default _config.yml
of each theme repository, and reports how many themes ship non-empty menu,
nav, widgets and links settings that site owners cannot cleanly override.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.New(errors.ErrCodeUsage, "unknown command %q", args[0])
			}
			return errors.New(errors.ErrCodeUsage, "missing command")
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.New(errors.ErrCodeUsage, "%v", err)
	})

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configFile, "config", "", "config file (default ./"+defaultConfigFile+" if present)")
	flags.StringVar(&c.cacheFile, "cache-file", "", "response cache file (default ./cache.json)")
	flags.StringVar(&c.redisURL, "redis-url", "", "keep the response cache in redis instead of a file")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Run executes the command line and returns the process exit status.
func (c *CLI) Run(ctx context.Context, args []string) int {
	if args == nil {
		args = []string{}
	}
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(c.stderr)

	cmd, err := root.ExecuteContextC(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrCodeUsage):
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n\n", errors.UserMessage(err))
		_ = cmd.Usage()
	case errors.ExitCode(err) == errors.ExitInterrupt:
		c.Logger.Warn("interrupted")
	default:
		c.Logger.Error("fatal", "err", err)
	}
	return errors.ExitCode(err)
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the config file and applies the global flags on top.
func (c *CLI) config(cmd *cobra.Command) (Config, error) {
	path, required := c.configFile, true
	if path == "" {
		path, required = defaultConfigFile, false
	}
	cfg, err := LoadConfig(path, required)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("cache-file") {
		cfg.CacheFile = c.cacheFile
	}
	if cmd.Flags().Changed("redis-url") {
		cfg.RedisURL = c.redisURL
	}
	return cfg, nil
}
