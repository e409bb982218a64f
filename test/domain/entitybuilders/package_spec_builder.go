package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/condamatrix/domain"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// PackageSpecBuilder helps create test package specs with a fluent interface.
type PackageSpecBuilder struct {
	*testkit.BaseBuilder
	name        string
	version     string
	buildNumber int
	gitURL      string
	gitTag      string
	buildReqs   []string
	runReqs     []string
	recipeDir   string
}

// NewPackageSpecBuilder creates a new spec builder with sensible defaults.
func NewPackageSpecBuilder() *PackageSpecBuilder {
	return &PackageSpecBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "test-recipe",
		version:     "1.0.0",
		buildNumber: 0,
		gitURL:      "https://github.com/test/recipe.git",
		gitTag:      "master",
		recipeDir:   "recipes/test-recipe",
	}
}

// WithName sets the package name.
func (b *PackageSpecBuilder) WithName(name string) *PackageSpecBuilder {
	b.name = name
	return b
}

// WithVersion sets the package version.
func (b *PackageSpecBuilder) WithVersion(version string) *PackageSpecBuilder {
	b.version = version
	return b
}

// WithBuildNumber sets the build sequence number.
func (b *PackageSpecBuilder) WithBuildNumber(number int) *PackageSpecBuilder {
	b.buildNumber = number
	return b
}

// WithSource sets the git URL and tag.
func (b *PackageSpecBuilder) WithSource(url, tag string) *PackageSpecBuilder {
	b.gitURL = url
	b.gitTag = tag
	return b
}

// WithBuildRequirements sets the build-time requirement names.
func (b *PackageSpecBuilder) WithBuildRequirements(names ...string) *PackageSpecBuilder {
	b.buildReqs = names
	return b
}

// WithRunRequirements sets the run-time requirement names.
func (b *PackageSpecBuilder) WithRunRequirements(names ...string) *PackageSpecBuilder {
	b.runReqs = names
	return b
}

// WithRecipeDir sets the recipe directory.
func (b *PackageSpecBuilder) WithRecipeDir(dir string) *PackageSpecBuilder {
	b.recipeDir = dir
	return b
}

// Build creates the spec (satisfies testkit.Builder interface).
func (b *PackageSpecBuilder) Build() interface{} {
	return b.BuildPackageSpec()
}

// BuildPackageSpec creates the spec with a concrete return type.
func (b *PackageSpecBuilder) BuildPackageSpec() *domain.PackageSpec {
	return &domain.PackageSpec{
		Name:              b.name,
		Version:           b.version,
		BuildNumber:       b.buildNumber,
		Source:            domain.SourceSpec{GitURL: b.gitURL, GitTag: b.gitTag},
		BuildRequirements: append([]string(nil), b.buildReqs...),
		RunRequirements:   append([]string(nil), b.runReqs...),
		RecipeDir:         b.recipeDir,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *PackageSpecBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "test-recipe"
	b.version = "1.0.0"
	b.buildNumber = 0
	b.gitURL = "https://github.com/test/recipe.git"
	b.gitTag = "master"
	b.buildReqs = nil
	b.runReqs = nil
	b.recipeDir = "recipes/test-recipe"
	return b
}

// Clone creates a deep copy of the PackageSpecBuilder.
func (b *PackageSpecBuilder) Clone() testkit.Builder {
	return &PackageSpecBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:        b.name,
		version:     b.version,
		buildNumber: b.buildNumber,
		gitURL:      b.gitURL,
		gitTag:      b.gitTag,
		buildReqs:   append([]string(nil), b.buildReqs...),
		runReqs:     append([]string(nil), b.runReqs...),
		recipeDir:   b.recipeDir,
	}
}
