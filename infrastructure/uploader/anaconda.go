// Package uploader pushes built artifacts to a distribution channel.
package uploader

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/condamatrix/domain"
	"github.com/rios0rios0/condamatrix/infrastructure/command"
)

const anacondaBin = "anaconda"

// Anaconda implements domain.Uploader on top of the anaconda (binstar) CLI.
type Anaconda struct {
	runner *command.Runner
}

// NewAnaconda creates the anaconda backend with the given command runner.
func NewAnaconda(runner *command.Runner) *Anaconda {
	return &Anaconda{runner: runner}
}

var _ domain.Uploader = (*Anaconda)(nil)

// Upload pushes one artifact to the channel in flags. The credential is
// passed on the command line but masked in every log line.
func (a *Anaconda) Upload(
	ctx context.Context,
	spec *domain.PackageSpec,
	artifactPath string,
	flags domain.FlagSet,
) error {
	logger.Infof("[%s] Uploading %s to %s", anacondaBin, spec.Name, flags.Channel)

	runner := a.runner.WithRedaction(flags.Token)
	_, err := runner.Run(ctx, "",
		anacondaBin, "--token", flags.Token, "upload",
		"--channel", flags.Channel, "--force", artifactPath,
	)
	if err != nil {
		return &domain.UploadError{Package: spec.Name, Err: err}
	}
	return nil
}
