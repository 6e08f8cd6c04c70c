// Package datasetscmder provides the datasets command group for uploading
// and managing CSV datasets through the corelens API.
package datasetscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/config"
)

const datasetsLongDesc string = `Upload and manage CSV datasets.

Datasets are uploaded to the corelens API server, which infers column
types, loads the rows into a queryable table, and seeds a data dictionary.

Use subcommands to work with datasets:
  corelens datasets upload <file>    Upload a CSV file
  corelens datasets list             List all datasets
  corelens datasets get <id>         Show one dataset with its columns
  corelens datasets delete <id>      Delete a dataset
  corelens datasets sync <dir>       Upload every CSV in a directory

Examples:
  corelens datasets upload sales.csv --name sales
  corelens datasets sync ./data --watch`

const datasetsShortDesc string = "Upload and manage datasets"

func NewDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: datasetsShortDesc,
		Long:  datasetsLongDesc,
	}

	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newSyncCmd())

	return cmd
}

// resolveClient builds an API client for the command, falling back to the
// configured client.api_target when the flag was not set explicitly.
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
