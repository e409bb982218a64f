package cmd

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/condamatrix/application"
	"github.com/rios0rios0/condamatrix/config"
	"github.com/rios0rios0/condamatrix/domain"
	builderPkg "github.com/rios0rios0/condamatrix/infrastructure/builder"
	"github.com/rios0rios0/condamatrix/infrastructure/command"
	"github.com/rios0rios0/condamatrix/infrastructure/source"
	"github.com/rios0rios0/condamatrix/infrastructure/uploader"
)

// injectBuildService wires the service and its backends through DIG.
// The configuration is provided as-is so every constructor below can
// pick the settings it needs.
func injectBuildService(cfg *config.Config) (*application.BuildService, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		newRunner,
		newBuilderRegistry,
		newUploader,
		newSourceResolver,
		application.NewBuildService,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	var service *application.BuildService
	if err := container.Invoke(func(s *application.BuildService) {
		service = s
	}); err != nil {
		return nil, err
	}
	return service, nil
}

func newRunner(cfg *config.Config) *command.Runner {
	return command.NewRunner(cfg.Retry.Attempts, cfg.Retry.Interval.Std(), cfg.GraceTimeout.Std())
}

func newBuilderRegistry(runner *command.Runner) *builderPkg.Registry {
	registry := builderPkg.NewRegistry()
	registry.Register(builderPkg.NewConda(runner))
	return registry
}

func newUploader(runner *command.Runner) domain.Uploader {
	return uploader.NewAnaconda(runner)
}

func newSourceResolver() domain.SourceResolver {
	return source.NewGit()
}
