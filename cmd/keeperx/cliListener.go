package main

import (
	"fmt"

	"github.com/eiannone/keyboard"
	"keeperx/engine/actors"
	"keeperx/state/token"
)

// cliListener listens for keypresses and prints the requested part of the latest engine state.
func cliListener(current func() *token.Token, interrupt chan struct{}) {
	fmt.Println("VIEW CURRENT STATE:\nt: token status\nb: balances\ns: stakes\nw: notification wallet\nc: engine config\nq: quit")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			fmt.Printf("keyboard unavailable (%s), stop with ctrl-c\n", err.Error())
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if k == keyboard.KeyCtrlC {
				close(interrupt)
				return
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to anything.")
		case "t":
			printStatus(current())
		case "b":
			printBalances(current())
		case "s":
			printStakes(current())
		case "w":
			w, err := actors.MyWallet()
			if err != nil {
				fmt.Println(err.Error())
				break
			}
			fmt.Printf("Notification signing key: \n%s\n", w.PubKey)
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		case "q":
			close(interrupt)
			return
		}
	}
}
