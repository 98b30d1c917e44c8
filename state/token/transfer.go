package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
	"keeperx/state/access"
)

// recipient validates the receiving side of a transfer.
func recipient(to string) (library.Account, error) {
	n, err := access.ValidateAddress(to)
	if err != nil {
		return "", err
	}
	if n == library.StakingVault {
		return "", fmt.Errorf("%w: staking vault cannot receive transfers", library.ErrInvalidAddress)
	}
	return n, nil
}

// Transfer moves amount from caller to `to`.
func (t *Token) Transfer(caller, to string, amount *uint256.Int) error {
	return t.run("transfer", func(o *operation) error {
		from, err := actor(caller)
		if err != nil {
			return err
		}
		return t.transfer(o, from, from, to, amount, false)
	})
}

// TransferFrom moves amount from `from` to `to` against caller's allowance. The allowance is
// spent even when caller is from.
func (t *Token) TransferFrom(caller, from, to string, amount *uint256.Int) error {
	return t.run("transferFrom", func(o *operation) error {
		spender, err := actor(caller)
		if err != nil {
			return err
		}
		owner, err := actor(from)
		if err != nil {
			return err
		}
		return t.transfer(o, spender, owner, to, amount, true)
	})
}

func (t *Token) transfer(o *operation, spender, from library.Account, rawTo string, amount *uint256.Int, delegated bool) error {
	to, err := recipient(rawTo)
	if err != nil {
		return err
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	l := t.state.Ledger
	if err = l.CanSpend(from, amount); err != nil {
		return err
	}
	if delegated {
		if err = l.CanSpendAllowance(from, spender, amount); err != nil {
			return err
		}
	}
	selling := to == t.state.Pair
	if selling {
		if err = t.state.Sales.Check(from, amount, o.now); err != nil {
			return err
		}
	}
	decision := t.rebase.Evaluate(o.now, t.state.LastRebase, from == t.state.Pair || selling, amount)

	if delegated {
		if err = l.SpendAllowance(from, spender, amount); err != nil {
			return err
		}
	}
	if selling {
		t.state.Sales.Record(from, amount, o.now)
	}
	net := amount
	if decision.Apply() {
		net = t.applyRebase(o, from, decision.Burn, amount)
	}
	if err = l.Move(from, to, net); err != nil {
		return err
	}
	if delegated {
		t.state.Journal.Record(spender, o.name, from, to, amount.Dec())
	} else {
		t.state.Journal.Record(from, o.name, to, amount.Dec())
	}
	return nil
}

// applyRebase burns from the sender and returns what is left of amount for the recipient.
// The caller has already checked that from holds amount.
func (t *Token) applyRebase(o *operation, from library.Account, burn, amount *uint256.Int) *uint256.Int {
	if err := t.state.Ledger.Burn(from, burn); err != nil {
		library.LogCLI(err, 1)
		return amount
	}
	t.state.LastRebase = o.now
	supply := t.state.Ledger.TotalSupply()
	o.emit(library.Notification{Kind: library.RebaseApplied, Account: from, Amount: burn.Clone(), Supply: supply})
	library.LogCLI(fmt.Sprintf("rebase triggered by %s burned %s %s, supply now %s", from, library.FormatUnits(burn), Symbol, library.FormatUnits(supply)), 4)
	return new(uint256.Int).Sub(amount, burn)
}

// Approve sets spender's allowance over caller's balance, overwriting any previous value.
func (t *Token) Approve(caller, spender string, amount *uint256.Int) error {
	return t.run("approve", func(o *operation) error {
		owner, err := actor(caller)
		if err != nil {
			return err
		}
		s, err := access.ValidateAddress(spender)
		if err != nil {
			return err
		}
		if amount == nil {
			amount = new(uint256.Int)
		}
		t.state.Ledger.SetAllowance(owner, s, amount)
		t.state.Journal.Record(owner, o.name, s, amount.Dec())
		return nil
	})
}

// SafeApprove is Approve.
func (t *Token) SafeApprove(caller, spender string, amount *uint256.Int) error {
	return t.Approve(caller, spender, amount)
}

// DepositLiquidity moves amount from caller to the pair. It routes through the pair, so a due
// rebase burns from the deposit, but it is not a sale.
func (t *Token) DepositLiquidity(caller string, amount *uint256.Int) error {
	return t.run("depositLiquidity", func(o *operation) error {
		from, err := actor(caller)
		if err != nil {
			return err
		}
		if amount == nil {
			amount = new(uint256.Int)
		}
		if err = t.state.Ledger.CanSpend(from, amount); err != nil {
			return err
		}
		decision := t.rebase.Evaluate(o.now, t.state.LastRebase, true, amount)

		net := amount
		if decision.Apply() {
			net = t.applyRebase(o, from, decision.Burn, amount)
		}
		if err = t.state.Ledger.Move(from, t.state.Pair, net); err != nil {
			return err
		}
		held, ok := t.state.Liquidity[from]
		if !ok {
			held = new(uint256.Int)
		}
		t.state.Liquidity[from] = new(uint256.Int).Add(held, net)
		t.state.TotalLiquidity = new(uint256.Int).Add(t.state.TotalLiquidity, net)
		t.state.Journal.Record(from, o.name, amount.Dec())
		return nil
	})
}

// LiquidityOf is the net amount account has deposited into the pair.
func (t *Token) LiquidityOf(account string) (l *uint256.Int) {
	t.read(func() {
		l = new(uint256.Int)
		if held, ok := t.state.Liquidity[lookup(account)]; ok {
			l = held.Clone()
		}
	})
	return
}

func (t *Token) TotalLiquidity() (l *uint256.Int) {
	t.read(func() { l = t.state.TotalLiquidity.Clone() })
	return
}
