package cmd

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/condamatrix/infrastructure/recipe"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var pinRecipeName string

//nolint:gochecknoglobals // required by cobra CLI pattern
var pinCmd = &cobra.Command{
	Use:   "pin <branch>",
	Short: "Pin a recipe's source ref to a branch",
	Long: `Rewrite a recipe's source.git_tag in place so the next build picks
the sources from the given branch. Without --recipe the configured
pin_recipe is rewritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runPin,
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	pinCmd.Flags().StringVar(&pinRecipeName, "recipe", "",
		"Recipe to pin (default: the configured pin_recipe)")
	rootCmd.AddCommand(pinCmd)
}

func runPin(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := pinRecipeName
	if name == "" {
		name = cfg.PinRecipe
	}
	if name == "" {
		return errors.New("no recipe to pin: pass --recipe or set pin_recipe in the config")
	}

	branch := args[0]
	if pinErr := recipe.PinBranch(cfg.RecipesDir, name, branch); pinErr != nil {
		return pinErr
	}

	logger.Infof("Pinned %q to branch %q", name, branch)
	return nil
}
