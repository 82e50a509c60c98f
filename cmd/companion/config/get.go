package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/companion/pkg/cliui"
	"github.com/papercomputeco/companion/pkg/config"
)

const getLongDesc string = `Get one or more configuration values.

Prints the effective value of each key: the value in .companion/config.toml
when set there, the built-in default otherwise. Defaults are marked as such.

Examples:
  companion config get storage.driver
  companion config get memory.max_messages memory.max_context_length`

const getShortDesc string = "Get configuration values"

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>...",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args, configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			return lo.Without(config.ValidConfigKeys(), args...), cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runGet(out io.Writer, keys []string, configDir string) error {
	if unknown := lo.Reject(keys, func(k string, _ int) bool { return config.IsValidConfigKey(k) }); len(unknown) > 0 {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			unknown[0], strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintf(out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}
		def, err := config.DefaultConfigValue(key)
		if err != nil {
			return err
		}

		switch {
		case value == "":
			fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.DimStyle.Render("<not set>"))
		case value == def:
			fmt.Fprintf(out, "  %s  %s %s\n", cliui.KeyStyle.Render(key),
				cliui.ValueStyle.Render(value), cliui.DimStyle.Render("(default)"))
		default:
			fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
		}
	}

	fmt.Fprintln(out)
	return nil
}
