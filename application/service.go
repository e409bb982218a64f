// Package application orchestrates a full build-matrix run.
package application

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/condamatrix/config"
	"github.com/rios0rios0/condamatrix/domain"
	builderPkg "github.com/rios0rios0/condamatrix/infrastructure/builder"
	"github.com/rios0rios0/condamatrix/infrastructure/matrix"
	"github.com/rios0rios0/condamatrix/infrastructure/recipe"
)

// BuildService orchestrates the full build flow:
// discover recipes -> plan -> build -> upload -> summary.
type BuildService struct {
	builderRegistry *builderPkg.Registry
	uploader        domain.Uploader
	resolver        domain.SourceResolver
}

// NewBuildService creates a new service with the given backends.
func NewBuildService(
	builderRegistry *builderPkg.Registry,
	uploader domain.Uploader,
	resolver domain.SourceResolver,
) *BuildService {
	return &BuildService{
		builderRegistry: builderRegistry,
		uploader:        uploader,
		resolver:        resolver,
	}
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	// Branch the run was triggered from; selects the upload path and the
	// pinned recipe's source tag.
	Branch string
	// Upload forces artifact upload regardless of the branch policy.
	Upload bool
	// Token overrides the configured upload credential.
	Token string
	// NumPy overrides the configured numpy pin.
	NumPy string
	// Workers overrides the configured worker count.
	Workers int
	DryRun  bool
	Verbose bool
}

// Run executes the full build cycle using the provided configuration.
// The returned error is non-nil when any package ends in a failed or
// skipped state, so the process exits non-zero for CI.
func (s *BuildService) Run(ctx context.Context, cfg *config.Config, opts RunOptions) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	graph, plan, overlay, err := s.prepare(ctx, cfg, opts)
	if err != nil {
		return err
	}
	if plan.Len() == 0 {
		logger.Warn("No recipes found, nothing to build")
		return nil
	}

	flags, err := s.selectFlags(cfg, opts, overlay)
	if err != nil {
		return err
	}

	logger.Infof("Build plan: %s", strings.Join(plan.Order(), ", "))
	if opts.DryRun {
		for i, layer := range plan.Layers() {
			logger.Infof("Layer %d: %s", i+1, strings.Join(layer, ", "))
		}
		logger.Info("Dry run, stopping before build")
		return nil
	}

	builder := s.builderRegistry.Get(cfg.Builder)
	if builder == nil {
		return fmt.Errorf("unknown builder %q (registered: %s)",
			cfg.Builder, strings.Join(s.builderRegistry.Names(), ", "))
	}

	if channelsErr := builder.EnsureChannels(ctx, cfg.Channels); channelsErr != nil {
		return fmt.Errorf("failed to register channels: %w", channelsErr)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Workers
	}

	driver := NewDriver(builder, s.uploader, workers)
	results := driver.Run(ctx, graph, plan, flags)

	return summarize(results)
}

// prepare loads, overlays, pins, and validates the recipe set, then builds
// the graph and the plan. Any error here aborts the run before any build
// starts: a broken plan must never partially execute.
func (s *BuildService) prepare(
	ctx context.Context,
	cfg *config.Config,
	opts RunOptions,
) (*domain.Graph, *domain.BuildPlan, *matrix.Overlay, error) {
	if opts.Branch != "" && cfg.PinRecipe != "" {
		if err := recipe.PinBranch(cfg.RecipesDir, cfg.PinRecipe, opts.Branch); err != nil {
			return nil, nil, nil, err
		}
	}

	specs, err := recipe.Discover(cfg.RecipesDir)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Infof("Found %d recipes in %q", len(specs), cfg.RecipesDir)

	matrixPath := cfg.Matrix
	if matrixPath == "" {
		matrixPath = filepath.Join(cfg.RecipesDir, "matrix.hcl")
	}
	overlay, err := matrix.Load(matrixPath)
	if err != nil {
		return nil, nil, nil, err
	}
	specs = overlay.Apply(specs)

	if cfg.ValidateSources {
		if err := s.validateSources(ctx, specs); err != nil {
			return nil, nil, nil, err
		}
	}

	graph, err := domain.BuildGraph(specs)
	if err != nil {
		return nil, nil, nil, err
	}

	plan, err := domain.Plan(graph)
	if err != nil {
		return nil, nil, nil, err
	}
	return graph, plan, overlay, nil
}

// validateSources checks every pinned ref against its remote and resolves
// the "latest" tag alias.
func (s *BuildService) validateSources(ctx context.Context, specs []*domain.PackageSpec) error {
	for _, spec := range specs {
		if spec.Source.GitTag == "" {
			continue
		}

		if spec.Source.GitTag == "latest" {
			tag, err := s.resolver.LatestTag(ctx, spec.Source.GitURL)
			if err != nil {
				return fmt.Errorf("failed to resolve latest tag for %q: %w", spec.Name, err)
			}
			logger.Infof("Resolved %s source tag: latest -> %s", spec.Name, tag)
			spec.Source.GitTag = tag
			continue
		}

		exists, err := s.resolver.HasRef(ctx, spec.Source.GitURL, spec.Source.GitTag)
		if err != nil {
			return fmt.Errorf("failed to check source of %q: %w", spec.Name, err)
		}
		if !exists {
			return fmt.Errorf("source ref %q of %q does not exist on %s",
				spec.Source.GitTag, spec.Name, spec.Source.GitURL)
		}
	}
	return nil
}

// selectFlags combines the branch policy with the CLI overrides.
func (s *BuildService) selectFlags(
	cfg *config.Config,
	opts RunOptions,
	overlay *matrix.Overlay,
) (domain.FlagSet, error) {
	numpy := opts.NumPy
	if numpy == "" {
		numpy = cfg.NumPy
	}
	if numpy == "" {
		numpy = overlay.Defaults.NumPy
	}

	policy := domain.UploadPolicy{
		Branches: cfg.Upload.Branches,
		Token:    cfg.Upload.Token,
		Channel:  cfg.Upload.Channel,
	}
	flags := domain.SelectFlags(opts.Branch, policy, numpy)
	flags.DryRun = opts.DryRun

	if opts.Upload {
		flags.Upload = true
		if opts.Token != "" {
			flags.Token = config.ResolveToken(opts.Token)
		}
		if flags.Token == "" {
			return domain.FlagSet{}, fmt.Errorf("no authentication token provided")
		}
	}
	return flags, nil
}

// summarize logs every package with its terminal state and returns an
// error when any of them failed.
func summarize(results []domain.BuildResult) error {
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			logger.Errorf("  %-24s %s (%v)", result.Name, result.Status, result.Err)
			continue
		}
		logger.Infof("  %-24s %s", result.Name, result.Status)
	}

	logger.Infof("Run complete: %d packages, %d failed", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d packages did not complete", failed, len(results))
	}
	return nil
}
