package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/spf13/cobra"

	"github.com/satlayer/satlayer-restaking/api"
	"github.com/satlayer/satlayer-restaking/library/types"
)

func client(cmd *cobra.Command) (*api.Client, error) {
	node, _ := cmd.Flags().GetString("node")
	if node == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		node = "http://" + cfg.API.Addr
	}
	return api.NewClient(node), nil
}

func rawMsg(s string) (json.RawMessage, error) {
	if !json.Valid([]byte(s)) {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "msg is not valid json: %s", s)
	}
	return json.RawMessage(s), nil
}

func printJSON(w io.Writer, data json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, out.String())
	return err
}

func blockFlags(cmd *cobra.Command) (int64, *time.Time) {
	height, _ := cmd.Flags().GetInt64("height")
	unix, _ := cmd.Flags().GetInt64("time")
	if unix == 0 {
		return height, nil
	}
	t := time.Unix(unix, 0).UTC()
	return height, &t
}

func addBlockFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("height", 0, "Block height, 0 for the next block")
	cmd.Flags().Int64("time", 0, "Block time in unix seconds, 0 for now")
}

func executeCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "execute <contract> <msg>",
		Short: "To execute a message on a contract, by name or address.",
		Example: `  restaking execute bank '{"transfer":{"recipient":"bbn1...","denom":"ubbn","amount":"100"}}' --sender bbn1...
  restaking execute vault-router '{"set_vault":{"vault":"bbn1...","whitelisted":true}}' --sender bbn1...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			msg, err := rawMsg(args[1])
			if err != nil {
				return err
			}
			sender, _ := cmd.Flags().GetString("sender")
			height, t := blockFlags(cmd)
			res, err := c.Execute(cmd.Context(), args[0], api.ExecutePayload{
				Sender: sender,
				Height: height,
				Time:   t,
				Msg:    msg,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	command.Flags().String("sender", "", "Address the message is sent from")
	_ = command.MarkFlagRequired("sender")
	addBlockFlags(command)
	return command
}

func queryCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "query <contract> <msg>",
		Short:   "To query a contract, by name or address.",
		Example: `  restaking query bank '{"balance":{"address":"bbn1...","denom":"ubbn"}}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			msg, err := rawMsg(args[1])
			if err != nil {
				return err
			}
			height, t := blockFlags(cmd)
			res, err := c.Query(cmd.Context(), args[0], api.QueryPayload{Height: height, Time: t, Msg: msg})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	addBlockFlags(command)
	return command
}

func contractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "To list the system contracts and deployed vaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			res, err := c.Contracts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
