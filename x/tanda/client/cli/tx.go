package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// GetTxCmd returns the transaction commands for the tanda module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "tanda",
		Short:                      "Tanda module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreatePool(),
		CmdJoinPool(),
		CmdContribute(),
		CmdTriggerPayout(),
		CmdRemoveParticipant(),
		CmdFulfillRandomness(),
	)

	return cmd
}

// CmdCreatePool returns the command to create a pool
func CmdCreatePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool [denom] [contribution-amount] [payout-interval-seconds] [whitelist]",
		Short: "Create a rotating savings pool",
		Long: `Create a rotating savings pool. The whitelist is a comma-separated
list of addresses; its length fixes the participant count.

Example:
  mitandad tx tanda create-pool uusdc 100000000 604800 addr1,addr2,addr3 --from alice`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			interval, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid payout interval: %v", err)
			}
			whitelist := strings.Split(args[3], ",")

			msg := &types.MsgCreatePool{
				Creator:            clientCtx.GetFromAddress().String(),
				Denom:              args[0],
				ContributionAmount: args[1],
				PayoutInterval:     interval,
				Whitelist:          whitelist,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdJoinPool returns the command to enroll in a pool
func CmdJoinPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join [pool-id]",
		Short: "Enroll in an open pool (prepays the first cycle)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgJoinPool{
				Joiner: clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdContribute returns the command to prepay cycles
func CmdContribute() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contribute [pool-id] [cycles]",
		Short: "Prepay one or more future cycles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			cycles, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid cycle count: %v", err)
			}

			msg := &types.MsgContribute{
				Contributor: clientCtx.GetFromAddress().String(),
				PoolID:      args[0],
				Cycles:      uint32(cycles),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTriggerPayout returns the command to crank a due payout
func CmdTriggerPayout() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger-payout [pool-id]",
		Short: "Release the current cycle's payout (any account may crank)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgTriggerPayout{
				Caller: clientCtx.GetFromAddress().String(),
				PoolID: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRemoveParticipant returns the command to evict a delinquent participant
func CmdRemoveParticipant() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [pool-id] [target-address]",
		Short: "Evict a delinquent participant (pool creator only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgRemoveParticipant{
				Creator: clientCtx.GetFromAddress().String(),
				PoolID:  args[0],
				Target:  args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdFulfillRandomness returns the command for the oracle to deliver randomness
func CmdFulfillRandomness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fulfill-randomness [request-id] [random-value]",
		Short: "Deliver a randomness result for a pending request (oracle only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			value, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid random value: %v", err)
			}

			msg := &types.MsgFulfillRandomness{
				Oracle:      clientCtx.GetFromAddress().String(),
				RequestID:   args[0],
				RandomValue: value,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
