package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"keeperx/engine/actors"
	"keeperx/engine/library"
)

var (
	rootDir string
	caller  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "keeperx",
		Short:         "KeeperX token engine",
		Long:          "Run the KeeperX engine or execute single operations against its persisted state.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Various aspects of the engine need settings on startup, so they all live in one
			// viper config that is made accessible globally.
			conf := viper.New()
			if rootDir != "" {
				conf.Set("rootDir", rootDir)
			}
			actors.InitConfig(conf)
			actors.SetConfig(conf)
			library.SetLogLevel(conf.GetInt("logLevel"))
		},
	}
	cmd.PersistentFlags().StringVar(&rootDir, "root", "", "engine directory holding config.yaml and state (default ~/keeperx/)")
	cmd.AddCommand(
		newRunCmd(),
		newStatusCmd(),
		newBalanceCmd(),
		newTransferCmd(),
		newTransferFromCmd(),
		newApproveCmd(),
		newStakeCmd(),
		newUnstakeCmd(),
		newClaimCmd(),
		newDepositLiquidityCmd(),
		newSetPairCmd(),
		newEventsCmd(),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		library.LogCLI(err.Error(), 1)
		os.Exit(1)
	}
}
