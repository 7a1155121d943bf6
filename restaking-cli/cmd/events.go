package cmd

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cobra"

	"github.com/satlayer/satlayer-restaking/iac"
	"github.com/satlayer/satlayer-restaking/library/types"
	"github.com/satlayer/satlayer-restaking/logger"
)

func eventsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "events",
		Short: "Committed contract events on the broker.",
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "To print events from the configured kafka topic until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return errorsmod.Wrap(types.ErrInvalidInput, "kafka.brokers is not configured")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			group, _ := cmd.Flags().GetString("group")
			if group == "" {
				group = cfg.Kafka.GroupID
			}
			contract, _ := cmd.Flags().GetString("contract")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			events := iac.NewIACFacade(nil, iac.NewSubscriber(cfg.Kafka.Brokers, cfg.Kafka.Topic, group, log))
			out := cmd.OutOrStdout()
			events.RegisterSubscriber(ctx, func(msg iac.EventMsg) {
				if contract != "" && msg.Contract != contract {
					return
				}
				bz, err := json.Marshal(msg)
				if err != nil {
					log.Warn("encoding event", logger.WithField("err", err.Error()))
					return
				}
				fmt.Fprintln(out, string(bz))
			})
			return nil
		},
	}
	watch.Flags().String("group", "", "Consumer group, defaults to kafka.group_id")
	watch.Flags().String("contract", "", "Only print events of this contract address")

	command.AddCommand(watch)
	return command
}
