// Package insightscmder provides the insights command group for generating
// and reading LLM-written dataset summaries.
package insightscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/config"
)

const insightsLongDesc string = `Generate and read dataset insights.

An insight is a short markdown narrative written by the configured LLM
from the dataset's profile, quality report, and dictionary.

Use subcommands to work with insights:
  corelens insights generate <dataset-id>    Generate a new insight
  corelens insights list <dataset-id>        List insights for a dataset
  corelens insights show <insight-id>        Render one insight

Examples:
  corelens insights generate ds-123
  corelens insights show ins-456`

const insightsShortDesc string = "Generate and read dataset insights"

func NewInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: insightsShortDesc,
		Long:  insightsLongDesc,
	}

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

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
