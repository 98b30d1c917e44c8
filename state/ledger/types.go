package ledger

import (
	"github.com/holiman/uint256"
	"keeperx/engine/library"
)

// Mapped is a copy of the ledger suitable for inspection and persistence.
type Mapped struct {
	TotalSupply *uint256.Int
	Balances    map[library.Account]*uint256.Int
	Allowances  map[library.Account]map[library.Account]*uint256.Int
}
