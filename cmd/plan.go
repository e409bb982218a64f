package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/condamatrix/domain"
	"github.com/rios0rios0/condamatrix/infrastructure/matrix"
	"github.com/rios0rios0/condamatrix/infrastructure/recipe"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the build order without building anything",
	Long: `Load the recipe set, apply the matrix overlay, and print the
resulting build order grouped into layers. Packages within one layer
have no dependency on each other and may build concurrently.`,
	RunE: runPlan,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs, err := recipe.Discover(cfg.RecipesDir)
	if err != nil {
		return err
	}

	matrixPath := cfg.Matrix
	if matrixPath == "" {
		matrixPath = filepath.Join(cfg.RecipesDir, "matrix.hcl")
	}
	overlay, err := matrix.Load(matrixPath)
	if err != nil {
		return err
	}
	specs = overlay.Apply(specs)

	graph, err := domain.BuildGraph(specs)
	if err != nil {
		return err
	}
	plan, err := domain.Plan(graph)
	if err != nil {
		return err
	}

	if plan.Len() == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	fmt.Printf("Build order (%d packages):\n", plan.Len())
	for i, layer := range plan.Layers() {
		fmt.Printf("  layer %d: %s\n", i+1, strings.Join(layer, ", "))
	}

	for _, name := range plan.Order() {
		if externals := graph.Externals(name); len(externals) > 0 {
			fmt.Printf("  %s pulls from channel: %s\n", name, strings.Join(externals, ", "))
		}
	}
	return nil
}
