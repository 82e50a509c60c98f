// Package configcmder provides the config command for managing persistent
// companion configuration stored in the .companion/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent companion configuration.

Configuration is stored as config.toml in the .companion/ directory and
provides default values for command flags. CLI flags and COMPANION_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example
storage.driver, api.listen, memory.max_messages, worker.num_workers or
eventstream.kafka_topic.

Use subcommands to get, set, or list configuration values:
  companion config set <key> <value>    Set a configuration value
  companion config get <key>            Get a configuration value
  companion config list                 List all configuration values

Examples:
  companion config set storage.driver sqlite
  companion config set memory.idle_timeout 30m
  companion config get storage.driver
  companion config list`

const configShortDesc string = "Manage persistent companion configuration"

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
