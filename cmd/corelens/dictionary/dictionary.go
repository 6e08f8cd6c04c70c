// Package dictionarycmder provides the dictionary command group for
// reading and editing dataset column documentation.
package dictionarycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/config"
)

const dictionaryLongDesc string = `Read and edit the data dictionary.

Every dataset column gets a dictionary entry when the dataset is uploaded.
Entries hold a human-written description and tags, and are searchable by
substring or (when the server has an embedder configured) by meaning.

Use subcommands to work with the dictionary:
  corelens dictionary list <dataset-id>                  List all entries
  corelens dictionary set <dataset-id> <column> <desc>   Describe a column
  corelens dictionary search <dataset-id> <query>        Search entries

Examples:
  corelens dictionary set ds-123 amount "Order total in USD" --tags finance,revenue
  corelens dictionary search ds-123 "customer revenue"`

const dictionaryShortDesc string = "Read and edit the data dictionary"

func NewDictionaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: dictionaryShortDesc,
		Long:  dictionaryLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newSearchCmd())

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
