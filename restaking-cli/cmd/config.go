package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satlayer/satlayer-restaking/conf"
)

func configCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Config file related commands",
	}

	command.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "To write the default config, unless the file exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit, _ := cmd.Flags().GetString("config")
			path, err := conf.Path(explicit)
			if err != nil {
				return err
			}
			written, err := conf.WriteDefault(path)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "config already exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written: %s\n", path)
			return nil
		},
	})

	command.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "To print the effective config, after env overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bz, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bz)
			return err
		},
	})
	return command
}

func genesisCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "genesis",
		Short: "Genesis file related commands",
	}

	command.AddCommand(&cobra.Command{
		Use:   "validate <genesis.yaml>",
		Short: "To check a genesis file without applying it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// addresses are checked against the configured prefix
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			g, err := conf.LoadGenesis(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genesis ok: owner %s, %d operators, %d vaults\n", g.Owner, len(g.Operators), len(g.Vaults))
			return nil
		},
	})
	return command
}
