package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/condamatrix/domain"
	"github.com/rios0rios0/condamatrix/test/domain/entitybuilders"
)

func TestBuildGraph(t *testing.T) {
	t.Parallel()

	t.Run("should link requirements that are co-built and record the rest as external", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().
				WithName("bcbio-nextgen").
				WithRunRequirements("numpy", "pysam").
				BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().
				WithName("bcbio-nextgen-vm").
				WithRunRequirements("bcbio-nextgen", "six").
				BuildPackageSpec(),
		}

		// when
		graph, err := domain.BuildGraph(specs)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, graph.Len())
		assert.Equal(t, []string{"bcbio-nextgen"}, graph.Dependencies("bcbio-nextgen-vm"))
		assert.Equal(t, []string{"bcbio-nextgen-vm"}, graph.Dependents("bcbio-nextgen"))
		assert.Equal(t, []string{"numpy", "pysam"}, graph.Externals("bcbio-nextgen"))
		assert.Equal(t, []string{"six"}, graph.Externals("bcbio-nextgen-vm"))
	})

	t.Run("should merge build and run requirements without duplicates", func(t *testing.T) {
		t.Parallel()

		// given
		spec := entitybuilders.NewPackageSpecBuilder().
			WithName("bcbio-nextgen").
			WithBuildRequirements("setuptools", "numpy").
			WithRunRequirements("numpy", "pysam").
			BuildPackageSpec()

		// when
		reqs := spec.Requirements()

		// then
		assert.Equal(t, []string{"setuptools", "numpy", "pysam"}, reqs)
	})

	t.Run("should fail when a package name is duplicated", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().WithName("prettytable").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("prettytable").BuildPackageSpec(),
		}

		// when
		graph, err := domain.BuildGraph(specs)

		// then
		require.Error(t, err)
		assert.Nil(t, graph)
		var malformed *domain.MalformedSpecError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "duplicate")
	})

	t.Run("should fail when a package has an empty version", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().WithName("prettytable").WithVersion("").BuildPackageSpec(),
		}

		// when
		_, err := domain.BuildGraph(specs)

		// then
		var malformed *domain.MalformedSpecError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "version")
	})

	t.Run("should reject a package that depends on itself", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().
				WithName("prettytable").
				WithRunRequirements("prettytable").
				BuildPackageSpec(),
		}

		// when
		_, err := domain.BuildGraph(specs)

		// then
		var malformed *domain.MalformedSpecError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "itself")
	})

	t.Run("should detect a two-package cycle and name every member once", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().WithName("a").WithRunRequirements("b").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("b").WithRunRequirements("a").BuildPackageSpec(),
		}

		// when
		_, err := domain.BuildGraph(specs)

		// then
		var cycle *domain.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.ElementsMatch(t, []string{"a", "b"}, cycle.Names)
	})

	t.Run("should report the full ordered loop for a longer cycle", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().WithName("a").WithRunRequirements("b").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("b").WithRunRequirements("c").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("c").WithRunRequirements("a").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("standalone").BuildPackageSpec(),
		}

		// when
		_, err := domain.BuildGraph(specs)

		// then
		var cycle *domain.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.Len(t, cycle.Names, 3)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, cycle.Names)
		assert.NotContains(t, cycle.Names, "standalone")
	})

	t.Run("should not report a cycle for a diamond dependency shape", func(t *testing.T) {
		t.Parallel()

		// given
		specs := []*domain.PackageSpec{
			entitybuilders.NewPackageSpecBuilder().WithName("base").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("left").WithRunRequirements("base").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("right").WithRunRequirements("base").BuildPackageSpec(),
			entitybuilders.NewPackageSpecBuilder().WithName("top").WithRunRequirements("left", "right").BuildPackageSpec(),
		}

		// when
		graph, err := domain.BuildGraph(specs)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"left", "right"}, graph.Dependencies("top"))
	})
}
