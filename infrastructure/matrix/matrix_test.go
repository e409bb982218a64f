package matrix_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/condamatrix/domain"
	"github.com/rios0rios0/condamatrix/infrastructure/matrix"
	"github.com/rios0rios0/condamatrix/test/domain/entitybuilders"
)

func writeMatrix(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrix.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("should parse defaults and package overrides", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeMatrix(t, `
defaults {
  numpy = "19"
}

package "bcbio-nextgen-vm" {
  branch      = "develop"
  numpy       = "110"
  extra_flags = ["--no-test"]
}

package "prettytable" {
  skip = true
}
`)

		// when
		overlay, err := matrix.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "19", overlay.Defaults.NumPy)
		vm := overlay.Packages["bcbio-nextgen-vm"]
		assert.Equal(t, "develop", vm.Branch)
		assert.Equal(t, "110", vm.NumPy)
		assert.Equal(t, []string{"--no-test"}, vm.ExtraFlags)
		assert.True(t, overlay.Packages["prettytable"].Skip)
	})

	t.Run("should return an empty overlay for a missing file", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "matrix.hcl")

		// when
		overlay, err := matrix.Load(path)

		// then
		require.NoError(t, err)
		assert.Empty(t, overlay.Packages)
	})

	t.Run("should fail on invalid HCL", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeMatrix(t, "package \"x\" {\n")

		// when
		overlay, err := matrix.Load(path)

		// then
		require.Error(t, err)
		assert.Nil(t, overlay)
	})
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("should override the branch and append flags", func(t *testing.T) {
		t.Parallel()

		// given
		overlay := &matrix.Overlay{Packages: map[string]matrix.PackageOverride{
			"bcbio-nextgen-vm": {Branch: "develop", NumPy: "110", ExtraFlags: []string{"--no-test"}},
		}}
		spec := entitybuilders.NewPackageSpecBuilder().
			WithName("bcbio-nextgen-vm").
			WithSource("https://github.com/bcbio/bcbio-nextgen-vm.git", "master").
			BuildPackageSpec()

		// when
		result := overlay.Apply([]*domain.PackageSpec{spec})

		// then
		require.Len(t, result, 1)
		assert.Equal(t, "develop", result[0].Source.GitTag)
		assert.Equal(t, []string{"--numpy", "110", "--no-test"}, result[0].ExtraFlags)
	})

	t.Run("should drop skipped packages and keep the rest", func(t *testing.T) {
		t.Parallel()

		// given
		overlay := &matrix.Overlay{Packages: map[string]matrix.PackageOverride{
			"prettytable": {Skip: true},
		}}
		kept := entitybuilders.NewPackageSpecBuilder().WithName("bcbio-nextgen").BuildPackageSpec()
		skipped := entitybuilders.NewPackageSpecBuilder().WithName("prettytable").BuildPackageSpec()

		// when
		result := overlay.Apply([]*domain.PackageSpec{kept, skipped})

		// then
		require.Len(t, result, 1)
		assert.Equal(t, "bcbio-nextgen", result[0].Name)
	})

	t.Run("should leave packages without overrides untouched", func(t *testing.T) {
		t.Parallel()

		// given
		overlay := &matrix.Overlay{Packages: map[string]matrix.PackageOverride{}}
		spec := entitybuilders.NewPackageSpecBuilder().WithName("bcbio-nextgen").BuildPackageSpec()

		// when
		result := overlay.Apply([]*domain.PackageSpec{spec})

		// then
		require.Len(t, result, 1)
		assert.Equal(t, "master", result[0].Source.GitTag)
		assert.Empty(t, result[0].ExtraFlags)
	})
}
