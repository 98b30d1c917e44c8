package main

import (
	"fmt"

	"keeperx/engine/library"
	"keeperx/state/token"
)

func printStatus(tok *token.Token) {
	fmt.Printf("\n%s (%s), %d decimals\n", tok.Name(), tok.Symbol(), tok.Decimals())
	fmt.Printf("Total supply:     %s\n", library.FormatUnits(tok.TotalSupply()))
	fmt.Printf("Total staked:     %s (%d stakers)\n", library.FormatUnits(tok.TotalStaked()), tok.NumStakers())
	fmt.Printf("APR:              %d%% (max %d%%)\n", tok.CalculateAPR(), tok.MaxAPR())
	fmt.Printf("Pair:             %s\n", tok.PairAddress())
	fmt.Printf("Total liquidity:  %s\n", library.FormatUnits(tok.TotalLiquidity()))
	fmt.Printf("Last rebase:      %s\n", tok.LastRebaseTime().UTC().Format("2006-01-02 15:04:05"))
	fmt.Printf("Next rebase due:  %s\n", tok.NextRebaseDue().UTC().Format("2006-01-02 15:04:05"))
	fmt.Printf("Founder:          %s\n", tok.Founder())
	fmt.Printf("State hash:       %s\n", tok.StateHash())
	fmt.Printf("Conserved:        %t\n", tok.Conserved())
}

func printAccount(tok *token.Token, account string) {
	s := tok.Stakes(account)
	fmt.Printf("\nAccount: %s\n", account)
	fmt.Printf("Balance:          %s\n", library.FormatUnits(tok.BalanceOf(account)))
	fmt.Printf("Staked:           %s\n", library.FormatUnits(s.Amount))
	if s.Active() {
		fmt.Printf("Staked since:     %s\n", s.StartTime.UTC().Format("2006-01-02 15:04:05"))
		fmt.Printf("Pending reward:   %s\n", library.FormatUnits(tok.CalculateStakingReward(account)))
	}
	fmt.Printf("Liquidity:        %s\n", library.FormatUnits(tok.LiquidityOf(account)))
	fmt.Printf("Sale allowance:   %s\n", library.FormatUnits(tok.GetAllowedSaleLimit(account)))
	fmt.Printf("Journal head:     %s\n", tok.JournalHead(account))
}

func printBalances(tok *token.Token) {
	for _, account := range tok.Accounts() {
		fmt.Printf("%s  %s\n", account, library.FormatUnits(tok.BalanceOf(account)))
	}
}

func printStakes(tok *token.Token) {
	for _, account := range tok.Stakers() {
		printAccount(tok, account)
	}
}
