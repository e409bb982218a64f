// Package builder holds the external build-tool backends and their registry.
package builder

import (
	"context"
	"slices"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/condamatrix/domain"
	"github.com/rios0rios0/condamatrix/infrastructure/command"
)

const condaBin = "conda"

// Conda implements domain.Builder on top of the conda-build CLI.
type Conda struct {
	runner *command.Runner
}

// NewConda creates the conda backend with the given command runner.
func NewConda(runner *command.Runner) *Conda {
	return &Conda{runner: runner}
}

var _ domain.Builder = (*Conda)(nil)

func (c *Conda) Name() string { return condaBin }

// Execute runs `conda build` for one recipe. Upload is always left to the
// driver, so the builder's own upload step is disabled unconditionally.
func (c *Conda) Execute(
	ctx context.Context,
	spec *domain.PackageSpec,
	flags domain.FlagSet,
) (*domain.BuildOutput, error) {
	args := []string{"build", "--no-anaconda-upload"}
	// A per-package pin from the matrix overlay wins over the run default.
	if flags.NumPy != "" && !slices.Contains(spec.ExtraFlags, "--numpy") {
		args = append(args, "--numpy", flags.NumPy)
	}
	args = append(args, spec.ExtraFlags...)
	args = append(args, spec.RecipeDir)

	logger.Infof("[%s] Building %s %s (build %d)", condaBin, spec.Name, spec.Version, spec.BuildNumber)

	result, err := c.runner.Run(ctx, "", condaBin, args...)
	if err != nil {
		return &domain.BuildOutput{Log: result.Log()}, &domain.BuildError{
			Package:  spec.Name,
			ExitCode: result.ExitCode,
			Err:      err,
		}
	}

	artifact, pathErr := c.OutputPath(ctx, spec)
	if pathErr != nil {
		// The build went through; a missing artifact path only degrades
		// the result, it does not fail the package.
		logger.Warnf("[%s] Could not resolve artifact path for %s: %v", condaBin, spec.Name, pathErr)
	}

	return &domain.BuildOutput{Log: result.Log(), ArtifactPath: artifact}, nil
}

// OutputPath asks conda-build where the artifact for this recipe lands.
func (c *Conda) OutputPath(ctx context.Context, spec *domain.PackageSpec) (string, error) {
	result, err := c.runner.Run(ctx, "", condaBin, "build", "--output", spec.RecipeDir)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// EnsureChannels registers the channels with conda so external requirements
// resolve during builds.
func (c *Conda) EnsureChannels(ctx context.Context, channels []string) error {
	for _, channel := range channels {
		if _, err := c.runner.Run(ctx, "", condaBin, "config", "--add", "channels", channel); err != nil {
			return err
		}
		logger.Debugf("[%s] Registered channel %s", condaBin, channel)
	}
	return nil
}
