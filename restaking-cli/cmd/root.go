package cmd

import (
	"github.com/spf13/cobra"

	"github.com/satlayer/satlayer-restaking/conf"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "restaking",
		Short:         "Run and operate the restaking contracts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the config file, defaults to $"+conf.EnvConfigPath+" or ~/.config/restaking/config.toml")
	rootCmd.PersistentFlags().String("node", "", "Base URL of the API server, e.g. http://127.0.0.1:8080, defaults to the configured api.addr")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(executeCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(contractsCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(genesisCmd())

	rootCmd.Version = conf.GetVersion()
	return rootCmd
}

// loadConfig reads the config selected by --config and applies the chain
// prefix.
func loadConfig(cmd *cobra.Command) (conf.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := conf.Path(explicit)
	if err != nil {
		return conf.Config{}, err
	}
	cfg, err := conf.Load(path)
	if err != nil {
		return conf.Config{}, err
	}
	types.Bech32Prefix = cfg.Chain.Bech32Prefix
	return cfg, nil
}
