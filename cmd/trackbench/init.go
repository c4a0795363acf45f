package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tracking/internal/config"
	"github.com/vango-dev/tracking/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a default config file",
		Long: `Write a config file holding the default settings.

The format follows the extension: .yaml and .yml are YAML, anything else
is JSON.

Examples:
  trackbench init
  trackbench init bench.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileNames[0]
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.CategoryConfig, "%s already exists", path).
					WithSuggestion("Pass --force to overwrite it")
			}

			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
