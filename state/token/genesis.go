package token

import (
	"github.com/holiman/uint256"
	"keeperx/engine/library"
	"keeperx/state/access"
)

const (
	Name   = "KeeperX"
	Symbol = "KPX"
)

type Allocation struct {
	Account library.Account
	Amount  *uint256.Int
}

// Genesis is the initial distribution of the 18,500,000 KPX supply.
func Genesis() []Allocation {
	return []Allocation{
		{Account: access.Founder, Amount: library.MustParseUnits("14440000")},
		{Account: library.EcosystemReserve, Amount: library.MustParseUnits("2220000")},
		{Account: library.LiquidityReserve, Amount: library.MustParseUnits("1840000")},
	}
}

// InitialSupply is the sum of the genesis allocations.
func InitialSupply() *uint256.Int {
	total := new(uint256.Int)
	for _, a := range Genesis() {
		total.Add(total, a.Amount)
	}
	return total
}
