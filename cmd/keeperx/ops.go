package main

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"keeperx/engine/library"
	"keeperx/state/token"
)

func amountArg(s string) (*uint256.Int, error) {
	return library.ParseUnits(s)
}

func addCallerFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&caller, "caller", "", "address performing the operation")
	_ = cmd.MarkFlagRequired("caller")
}

func newTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "transfer KPX from the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[1])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.Transfer(caller, args[0], amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newTransferFromCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-from <from> <to> <amount>",
		Short: "transfer KPX on behalf of an owner who approved the caller",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[2])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.TransferFrom(caller, args[0], args[1], amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "set the spender's allowance over the caller's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[1])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.Approve(caller, args[0], amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newStakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake <amount>",
		Short: "lock KPX for staking rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[0])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.Stake(caller, amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newUnstakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unstake <amount>",
		Short: "release staked KPX after the lock period",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[0])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.Unstake(caller, amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "claim the caller's staking reward",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withToken(func(tok *token.Token) error {
				reward, err := tok.ClaimStakingReward(caller)
				if err != nil {
					return err
				}
				fmt.Printf("claimed %s %s\n", library.FormatUnits(reward), tok.Symbol())
				return nil
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newDepositLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit-liquidity <amount>",
		Short: "move KPX from the caller into the pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			amount, err := amountArg(args[0])
			if err != nil {
				return err
			}
			return withToken(func(tok *token.Token) error {
				return tok.DepositLiquidity(caller, amount)
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newSetPairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-pair <address>",
		Short: "point the token at a new liquidity pair (founder only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withToken(func(tok *token.Token) error {
				return tok.SetPairAddress(caller, args[0])
			})
		},
	}
	addCallerFlag(cmd)
	return cmd
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "show an address's balance, stake, reward and sale allowance",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tok, err := loadToken()
			if err != nil {
				return err
			}
			printAccount(tok, args[0])
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show supply, staking and rebase state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tok, err := loadToken()
			if err != nil {
				return err
			}
			printStatus(tok)
			return nil
		},
	}
}
