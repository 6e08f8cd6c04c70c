// Package configcmder provides the config command for managing persistent
// corelens configuration stored in the .corelens/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent corelens configuration.

Configuration is stored as config.toml in the .corelens/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and CORELENS_* environment variables sit between the two.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn, storage.libsql_url,
  api.listen, client.api_target,
  llm.provider, llm.target, llm.model,
  vector_store.provider, vector_store.host, vector_store.port, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  events.provider, events.brokers, events.topic,
  explorer.max_rows

Use subcommands to get, set, or list configuration values:
  corelens config set <key> <value>    Set a configuration value
  corelens config get <key>            Get a configuration value
  corelens config list                 List all configuration values

Examples:
  corelens config set llm.model llama3.2
  corelens config set storage.driver postgres
  corelens config get api.listen
  corelens config list`

const configShortDesc string = "Manage persistent corelens configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
