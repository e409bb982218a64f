package application_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/condamatrix/application"
	"github.com/rios0rios0/condamatrix/config"
	"github.com/rios0rios0/condamatrix/infrastructure/builder"
	testdoubles "github.com/rios0rios0/condamatrix/test"
)

func writeRecipe(t *testing.T, dir, name, version, gitTag string, runReqs []string) {
	t.Helper()

	meta := "package:\n" +
		"  name: " + name + "\n" +
		"  version: \"" + version + "\"\n" +
		"source:\n" +
		"  git_url: https://github.com/bcbio/" + name + ".git\n"
	if gitTag != "" {
		meta += "  git_tag: " + gitTag + "\n"
	}
	if len(runReqs) > 0 {
		meta += "requirements:\n  run:\n"
		for _, req := range runReqs {
			meta += "    - " + req + "\n"
		}
	}

	recipeDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(recipeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(recipeDir, "meta.yaml"), []byte(meta), 0o600))
}

type serviceFixture struct {
	service  *application.BuildService
	builder  *testdoubles.SpyBuilder
	uploader *testdoubles.SpyUploader
	resolver *testdoubles.StubSourceResolver
	cfg      *config.Config
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	spyBuilder := testdoubles.NewSpyBuilder()
	registry := builder.NewRegistry()
	registry.Register(spyBuilder)

	uploader := testdoubles.NewSpyUploader()
	resolver := &testdoubles.StubSourceResolver{}

	recipesDir := t.TempDir()
	return &serviceFixture{
		service:  application.NewBuildService(registry, uploader, resolver),
		builder:  spyBuilder,
		uploader: uploader,
		resolver: resolver,
		cfg: &config.Config{
			RecipesDir: recipesDir,
			Builder:    "spy",
			Workers:    2,
		},
	}
}

func TestBuildServiceRun(t *testing.T) {
	t.Parallel()

	t.Run("should build discovered recipes in dependency order", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "v1.2.9", nil)
		writeRecipe(t, fixture.cfg.RecipesDir, "samtools", "1.19", "", []string{"zlib"})

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"zlib", "samtools"}, fixture.builder.BuiltPackages())
		assert.Empty(t, fixture.uploader.UploadedPackages())
	})

	t.Run("should do nothing when no recipes are found", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, fixture.builder.BuiltPackages())
	})

	t.Run("should return an error when any package fails", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		writeRecipe(t, fixture.cfg.RecipesDir, "samtools", "1.19", "", []string{"zlib"})
		fixture.builder.FailPackages["zlib"] = errors.New("exit status 1")

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 of 2 packages did not complete")
		assert.Equal(t, []string{"zlib"}, fixture.builder.BuiltPackages())
	})

	t.Run("should upload on a configured branch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		fixture.cfg.Upload = config.UploadConfig{
			Channel:  "bioconda",
			Branches: []string{"master"},
			Token:    "secret-token",
		}

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			Branch: "master",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"zlib"}, fixture.uploader.UploadedPackages())
		flags := fixture.builder.FlagsSeen["zlib"]
		assert.True(t, flags.Upload)
		assert.Equal(t, "secret-token", flags.Token)
		assert.Equal(t, "bioconda", flags.Channel)
	})

	t.Run("should not upload on a feature branch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		fixture.cfg.Upload = config.UploadConfig{
			Channel:  "bioconda",
			Branches: []string{"master"},
			Token:    "secret-token",
		}

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			Branch: "feature/faster-alignment",
		})

		// then
		require.NoError(t, err)
		assert.Empty(t, fixture.uploader.UploadedPackages())
		assert.False(t, fixture.builder.FlagsSeen["zlib"].Upload)
	})

	t.Run("should fail a forced upload without a token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			Upload: true,
		})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no authentication token provided")
		assert.Empty(t, fixture.builder.BuiltPackages())
	})

	t.Run("should force upload with an explicit token", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		fixture.cfg.Upload.Channel = "bioconda"

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			Upload: true,
			Token:  "cli-token",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"zlib"}, fixture.uploader.UploadedPackages())
		assert.Equal(t, "cli-token", fixture.builder.FlagsSeen["zlib"].Token)
	})

	t.Run("should stop before building on a dry run", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			DryRun: true,
		})

		// then
		require.NoError(t, err)
		assert.Empty(t, fixture.builder.BuiltPackages())
	})

	t.Run("should register configured channels before building", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		fixture.cfg.Channels = []string{"bioconda", "conda-forge"}

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"bioconda", "conda-forge"}, fixture.builder.Channels)
	})

	t.Run("should fail fast on an unknown builder", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		fixture.cfg.Builder = "mamba"

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown builder "mamba"`)
	})

	t.Run("should fail fast on a dependency cycle", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "a", "1.0", "", []string{"b"})
		writeRecipe(t, fixture.cfg.RecipesDir, "b", "1.0", "", []string{"a"})

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle detected")
		assert.Empty(t, fixture.builder.BuiltPackages())
	})

	t.Run("should apply the matrix overlay before planning", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "", nil)
		writeRecipe(t, fixture.cfg.RecipesDir, "legacy", "0.1", "", nil)
		matrixHCL := `
package "legacy" {
  skip = true
}
`
		matrixPath := filepath.Join(fixture.cfg.RecipesDir, "matrix.hcl")
		require.NoError(t, os.WriteFile(matrixPath, []byte(matrixHCL), 0o600))

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"zlib"}, fixture.builder.BuiltPackages())
	})

	t.Run("should resolve the latest tag alias when source validation is on", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "latest", nil)
		fixture.cfg.ValidateSources = true
		fixture.resolver.LatestTags = map[string]string{
			"https://github.com/bcbio/zlib.git": "v1.2.13",
		}

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"zlib"}, fixture.builder.BuiltPackages())
	})

	t.Run("should reject a pinned ref missing on the remote", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "zlib", "1.2.9", "v9.9.9", nil)
		fixture.cfg.ValidateSources = true
		fixture.resolver.Refs = map[string]bool{
			"https://github.com/bcbio/zlib.git v9.9.9": false,
		}

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), `source ref "v9.9.9"`)
		assert.Empty(t, fixture.builder.BuiltPackages())
	})

	t.Run("should pin the configured recipe to the triggering branch", func(t *testing.T) {
		t.Parallel()

		// given
		fixture := newServiceFixture(t)
		writeRecipe(t, fixture.cfg.RecipesDir, "bcbio-nextgen", "1.2.9", "master", nil)
		fixture.cfg.PinRecipe = "bcbio-nextgen"
		fixture.cfg.ValidateSources = true
		refs := map[string]bool{
			"https://github.com/bcbio/bcbio-nextgen.git master":  false,
			"https://github.com/bcbio/bcbio-nextgen.git develop": true,
		}
		fixture.resolver.Refs = refs

		// when
		err := fixture.service.Run(context.Background(), fixture.cfg, application.RunOptions{
			Branch: "develop",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"bcbio-nextgen"}, fixture.builder.BuiltPackages())
	})
}
