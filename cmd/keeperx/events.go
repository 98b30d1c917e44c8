package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"keeperx/engine/actors"
	"keeperx/engine/library"
	"keeperx/messaging/notifications"
)

func newEventsCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "events",
		Short: "list the notifications this engine published to its relays",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf := actors.MakeOrGetConfig()
			relays := conf.GetStringSlice("relays")
			if len(relays) == 0 {
				return fmt.Errorf("no relays configured in %sconfig.yaml", conf.GetString("rootDir"))
			}
			wallet, err := actors.MyWallet()
			if err != nil {
				return err
			}
			for _, n := range notifications.Fetch(relays, wallet.PubKey, wait) {
				fmt.Println(describe(n))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 6*time.Second, "how long to listen to each relay")
	return cmd
}

func describe(n library.Notification) string {
	at := n.At.UTC().Format("2006-01-02 15:04:05")
	switch n.Kind {
	case library.RewardClaimed:
		return fmt.Sprintf("%s  %s claimed %s", at, n.Account, library.FormatUnits(n.Amount))
	case library.RebaseApplied:
		return fmt.Sprintf("%s  rebase by %s burned %s, supply %s", at, n.Account, library.FormatUnits(n.Amount), library.FormatUnits(n.Supply))
	case library.PairAddressChanged:
		return fmt.Sprintf("%s  pair %s -> %s", at, n.Old, n.New)
	}
	return fmt.Sprintf("%s  %s", at, n.Kind)
}
