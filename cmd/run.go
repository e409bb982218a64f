package cmd

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/condamatrix/application"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	runBranch  string
	runUpload  bool
	runToken   string
	runNumPy   string
	runWorkers int
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the whole recipe matrix",
	Long: `Discover every recipe, derive the dependency order, and build the
matrix with a bounded worker pool.

This is the main command intended to be used from CI. Artifacts are
uploaded when the triggering branch matches the configured upload
branches, or when --upload forces it.`,
	RunE: runMatrix,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	runCmd.Flags().StringVar(&runBranch, "branch", "",
		"Branch the run was triggered from (selects the upload policy)")
	runCmd.Flags().BoolVar(&runUpload, "upload", false,
		"Force artifact upload regardless of the branch policy")
	runCmd.Flags().StringVar(&runToken, "token", "",
		"Upload token (overrides the configured one)")
	runCmd.Flags().StringVar(&runNumPy, "numpy", "",
		"NumPy version pin passed to the builder")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0,
		"Number of concurrent builds (overrides the configured count)")
	rootCmd.AddCommand(runCmd)
}

func runMatrix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service, err := injectBuildService(cfg)
	if err != nil {
		return err
	}

	logger.Info("Starting condamatrix run...")

	return service.Run(context.Background(), cfg, application.RunOptions{
		Branch:  runBranch,
		Upload:  runUpload,
		Token:   runToken,
		NumPy:   runNumPy,
		Workers: runWorkers,
		DryRun:  dryRun,
		Verbose: verbose,
	})
}
