// Package corelenscmder provides the root corelens command.
package corelenscmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/corelens-ai/corelens/cmd/corelens/chat"
	configcmder "github.com/corelens-ai/corelens/cmd/corelens/config"
	datasetscmder "github.com/corelens-ai/corelens/cmd/corelens/datasets"
	dictionarycmder "github.com/corelens-ai/corelens/cmd/corelens/dictionary"
	initcmder "github.com/corelens-ai/corelens/cmd/corelens/init"
	insightscmder "github.com/corelens-ai/corelens/cmd/corelens/insights"
	modelscmder "github.com/corelens-ai/corelens/cmd/corelens/models"
	qualitycmder "github.com/corelens-ai/corelens/cmd/corelens/quality"
	querycmder "github.com/corelens-ai/corelens/cmd/corelens/query"
	recipescmder "github.com/corelens-ai/corelens/cmd/corelens/recipes"
	runscmder "github.com/corelens-ai/corelens/cmd/corelens/runs"
	servecmder "github.com/corelens-ai/corelens/cmd/corelens/serve"
	statuscmder "github.com/corelens-ai/corelens/cmd/corelens/status"
	versioncmder "github.com/corelens-ai/corelens/cmd/version"
)

const corelensLongDesc string = `Corelens is a data analytics platform for tabular datasets.

Upload CSV datasets, profile their quality, document their columns,
query them with SQL, and chat with assistants that can use those tools.

Run the server with:
  corelens serve       Run the API server

Work with data using:
  corelens datasets    Upload and manage datasets
  corelens query       Run read-only SQL against uploaded datasets
  corelens chat        Chat with a data assistant`

const corelensShortDesc string = "Corelens - Data Analytics Platform"

func NewCorelensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corelens",
		Short: corelensShortDesc,
		Long:  corelensLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .corelens/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(datasetscmder.NewDatasetsCmd())
	cmd.AddCommand(qualitycmder.NewQualityCmd())
	cmd.AddCommand(dictionarycmder.NewDictionaryCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(insightscmder.NewInsightsCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(recipescmder.NewRecipesCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
