package cli

import (
	"fmt"

	"github.com/agentx-labs/projinit/internal/branding"
	"github.com/agentx-labs/projinit/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/.projinit/config.yaml.

Known keys:
  ` + config.KeyDenoPath + `                deno executable used to run initializers (default: found on PATH)
  ` + config.KeyProbeTimeout + `            bound on each template existence check (default: 10s)
  ` + config.KeyAlephjsCLIMin + `   semver constraint for pinned Aleph.js initializer URLs

Each key can be overridden by an environment variable, e.g. ` + branding.EnvVar(config.KeyDenoPath) + `.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		value := config.Get(args[0])
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}
