// Package configcmder provides the config command for managing persistent
// memhub configuration stored in the .memhub/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent memhub configuration.

Configuration is stored as config.toml in the .memhub/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  port.provider, port.sqlite_path, port.mongo_uri, port.notion_api_key,
  api.listen, client.api_target, client.api_token, client.workspace,
  mirror.provider, mirror.client_id, mirror.client_secret,
  watch.marker, watch.interval_ms,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  memhub config set <key> <value>    Set a configuration value
  memhub config get <key>            Get a configuration value
  memhub config list                 List all configuration values

Examples:
  memhub config set client.workspace 4f1c...
  memhub config set port.provider mongo
  memhub config get mirror.provider
  memhub config list`

const configShortDesc string = "Manage persistent memhub configuration"

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
