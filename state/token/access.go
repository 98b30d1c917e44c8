package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
	"keeperx/state/access"
)

// SetPairAddress points the token at a new liquidity pair. Founder only.
func (t *Token) SetPairAddress(caller, pair string) error {
	return t.run("setPairAddress", func(o *operation) error {
		if err := t.access.Authorize(caller); err != nil {
			return err
		}
		next, err := access.ValidateAddress(pair)
		if err != nil {
			return err
		}
		if next == library.StakingVault {
			return fmt.Errorf("%w: staking vault cannot be the pair", library.ErrInvalidAddress)
		}
		old := t.state.Pair
		t.state.Pair = next
		founder := t.access.Founder()
		t.state.Journal.Record(founder, o.name, next)
		o.emit(library.Notification{Kind: library.PairAddressChanged, Account: founder, Old: old, New: next})
		library.LogCLI(fmt.Sprintf("pair address changed from %s to %s", old, next), 4)
		return nil
	})
}

func (t *Token) PairAddress() (p library.Account) {
	t.read(func() { p = t.state.Pair })
	return
}

func (t *Token) Founder() library.Account {
	return t.access.Founder()
}

// GetAllowedSaleLimit is how much account may still sell into the pair in its current window.
func (t *Token) GetAllowedSaleLimit(account string) (l *uint256.Int) {
	now := t.clock.Now()
	t.read(func() { l = t.state.Sales.Allowed(lookup(account), now) })
	return
}
