// Package modelscmder provides the models command group for the ML model
// registry.
package modelscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/cliui"
	"github.com/corelens-ai/corelens/pkg/config"
)

const modelsLongDesc string = `Manage registered ML models.

Models are named entries in the registry that recipes reference. A model
has a task (e.g. classification, regression, forecasting) and a version.

Examples:
  corelens models create churn-predictor --task classification --version v1
  corelens models list`

const modelsShortDesc string = "Manage registered ML models"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
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
		apiTarget string
		task      string
		version   string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runCreate(cmd.Context(), cl, args[0], task, version)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().StringVar(&task, "task", "", "Model task (classification, regression, forecasting)")
	cmd.Flags().StringVar(&version, "version", "v1", "Model version label")

	return cmd
}

func runCreate(ctx context.Context, cl *client.Client, name, task, version string) error {
	model, err := cl.CreateModel(ctx, name, task, version)
	if err != nil {
		return err
	}

	fmt.Printf("  %s Registered %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(model.Name),
		cliui.DimStyle.Render("("+model.ID+")"),
	)
	return nil
}

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := resolveClient(cmd, apiTarget)
			if err != nil {
				return err
			}
			return runListModels(cmd.Context(), cl)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runListModels(ctx context.Context, cl *client.Client) error {
	models, err := cl.ListModels(ctx)
	if err != nil {
		return err
	}

	if len(models) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No models registered."))
		return nil
	}

	fmt.Println()
	for _, model := range models {
		fmt.Printf("  %s  %s  %s\n",
			cliui.IDStyle.Render(model.ID),
			cliui.NameStyle.Render(model.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%s %s", model.Task, model.Version)),
		)
	}
	fmt.Println()

	return nil
}
