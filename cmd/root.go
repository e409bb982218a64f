// Package cmd wires the CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/condamatrix/config"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath string
	dryRun     bool
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "condamatrix",
	Short: "Build-matrix driver for conda recipe sets",
	Long: `A CLI tool that builds a directory of conda recipes in dependency
order and optionally uploads the artifacts to an anaconda.org channel.

It reads every <name>/meta.yaml under the recipes directory, derives the
build order from the requirement lists, runs conda-build with a bounded
worker pool, and skips the dependents of anything that fails while the
rest of the matrix keeps building.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Show what would be built without building anything")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
}

// loadConfig resolves the config file (flag first, auto-detect second)
// and loads it.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.FindConfigFile()
		if err != nil {
			return nil, fmt.Errorf(
				"no config file found: %w\nSpecify one with --config or create .condamatrix.yaml",
				err,
			)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
