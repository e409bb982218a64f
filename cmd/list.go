package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rios0rios0/condamatrix/infrastructure/recipe"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the discovered recipes",
	Long: `List every recipe under the recipes directory with its version,
build number, and pinned source ref.`,
	RunE: runList,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	specs, err := recipe.Discover(cfg.RecipesDir)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		fmt.Println("No recipes found.")
		return nil
	}

	nameW := len("Package")
	versionW := len("Version")
	for _, spec := range specs {
		if len(spec.Name) > nameW {
			nameW = len(spec.Name)
		}
		if len(spec.Version) > versionW {
			versionW = len(spec.Version)
		}
	}

	fmt.Printf("%-*s  %-*s  %-5s  %s\n", nameW, "Package", versionW, "Version", "Build", "Source ref")
	fmt.Println(strings.Repeat("-", nameW+versionW+25))
	for _, spec := range specs {
		ref := spec.Source.GitTag
		if ref == "" {
			ref = "-"
		}
		fmt.Printf("%-*s  %-*s  %-5d  %s\n", nameW, spec.Name, versionW, spec.Version, spec.BuildNumber, ref)
	}

	fmt.Printf("\nTotal: %d recipes\n", len(specs))
	return nil
}
