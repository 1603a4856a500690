package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// cleanCommand creates the clean command.
func (c *CLI) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete the persisted response cache",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.clearCache(cmd)
		},
	}
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New(errors.ErrCodeUsage, "cache requires a subcommand")
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted response cache (same as clean)",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.clearCache(cmd)
		},
	})
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the response cache is kept",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			backend, closeBackend, err := cfg.backend()
			if err != nil {
				return err
			}
			defer closeBackend()
			fmt.Fprintln(out, backend.Location())
			return nil
		},
	}
}

func (c *CLI) clearCache(cmd *cobra.Command) error {
	cfg, err := c.config(cmd)
	if err != nil {
		return err
	}
	backend, closeBackend, err := cfg.backend()
	if err != nil {
		return err
	}
	defer closeBackend()

	removed, err := backend.Clear(cmd.Context())
	if err != nil {
		return err
	}
	if !removed {
		printInfo("Cache is empty")
		printDetail("Location: %s", backend.Location())
		return nil
	}
	loggerFromContext(cmd.Context()).Debug("cache removed", "path", backend.Location())
	printSuccess("Removed response cache")
	printDetail("Location: %s", backend.Location())
	return nil
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errors.New(errors.ErrCodeUsage, "%s takes no arguments, got %q", cmd.CommandPath(), args)
	}
	return nil
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return errors.New(errors.ErrCodeUsage, "%v", err)
		}
		return nil
	}
}
