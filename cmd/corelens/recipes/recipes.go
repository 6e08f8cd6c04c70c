// Package recipescmder provides the recipes command group for training
// recipe definitions in the registry.
package recipescmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const recipesLongDesc string = `Manage training recipes.

A recipe binds a registered model to a training definition (features,
hyperparameters, target dataset). Runs are executions of a recipe.

Examples:
  corelens recipes create churn-weekly --model mdl-123 --definition '{"features":["tenure","spend"]}'
  corelens recipes list`

const recipesShortDesc string = "Manage training recipes"

func NewRecipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: recipesShortDesc,
		Long:  recipesLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func resolveClient(cmd *cobra.Command, apiTarget string) (*client.Client, error) {
	if !cmd.Flags().Changed("api-target") {
		configDir, _ := cmd.Flags().GetString("config-dir")
		cfger, err := config.NewConfiger(configDir)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		cfg, err := cfger.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		apiTarget = cfg.Client.APITarget
	}

	return client.New(apiTarget), nil
}

func newCreateCmd() *cobra.Command {
	var (
		apiTarget  string
		modelID    string
		definition string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runCreate(cmd.Context(), cl, args[0], modelID, definition)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringVar(&modelID, "model", "", "Registered model ID this recipe trains")
	cmd.Flags().StringVar(&definition, "definition", "{}", "Recipe definition as a JSON object")

	return cmd
}

func runCreate(ctx context.Context, cl *client.Client, name, modelID, definition string) error {
	var def map[string]any
	if err := json.Unmarshal([]byte(definition), &def); err != nil {
		return fmt.Errorf("parsing --definition: %w", err)
	}

	recipe, err := cl.CreateRecipe(ctx, name, modelID, def)
	if err != nil {
		return err
	}

	fmt.Printf("  %s Created %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(recipe.Name),
		cliui.DimStyle.Render("("+recipe.ID+")"),
	)
	return nil
}

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runListRecipes(cmd.Context(), cl)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runListRecipes(ctx context.Context, cl *client.Client) error {
	recipes, err := cl.ListRecipes(ctx)
	if err != nil {
		return err
	}

	if len(recipes) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No recipes."))
		return nil
	}

	fmt.Println()
	for _, recipe := range recipes {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(recipe.ID),
			cliui.NameStyle.Render(recipe.Name),
			cliui.DimStyle.Render("model "+recipe.ModelID),
		)
	}
	fmt.Println()

	return nil
}
