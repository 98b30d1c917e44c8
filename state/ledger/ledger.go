// Package ledger holds balances, allowances and total supply. It is not safe for concurrent
// use; the token serialises every call.
package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keeperx/engine/library"
)

type Ledger struct {
	totalSupply *uint256.Int
	balances    map[library.Account]*uint256.Int
	allowances  map[library.Account]map[library.Account]*uint256.Int
}

func New() *Ledger {
	return &Ledger{
		totalSupply: new(uint256.Int),
		balances:    make(map[library.Account]*uint256.Int),
		allowances:  make(map[library.Account]map[library.Account]*uint256.Int),
	}
}

func (l *Ledger) TotalSupply() *uint256.Int {
	return l.totalSupply.Clone()
}

func (l *Ledger) BalanceOf(account library.Account) *uint256.Int {
	return l.balanceOf(account).Clone()
}

func (l *Ledger) balanceOf(account library.Account) *uint256.Int {
	if b, ok := l.balances[account]; ok {
		return b
	}
	return new(uint256.Int)
}

func (l *Ledger) setBalance(account library.Account, amount *uint256.Int) {
	if amount.IsZero() {
		delete(l.balances, account)
		return
	}
	l.balances[account] = amount
}

func (l *Ledger) Allowance(owner, spender library.Account) *uint256.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

// SetAllowance overwrites the allowance; there is no additive form.
func (l *Ledger) SetAllowance(owner, spender library.Account, amount *uint256.Int) {
	if amount.IsZero() {
		if inner, ok := l.allowances[owner]; ok {
			delete(inner, spender)
			if len(inner) == 0 {
				delete(l.allowances, owner)
			}
		}
		return
	}
	inner, ok := l.allowances[owner]
	if !ok {
		inner = make(map[library.Account]*uint256.Int)
		l.allowances[owner] = inner
	}
	inner[spender] = amount.Clone()
}

// CanSpend reports ErrInsufficientBalance when from holds less than amount.
func (l *Ledger) CanSpend(from library.Account, amount *uint256.Int) error {
	if amount.Gt(l.balanceOf(from)) {
		return fmt.Errorf("%w: %s holds %s, needs %s", library.ErrInsufficientBalance, from,
			l.balanceOf(from).Dec(), amount.Dec())
	}
	return nil
}

// CanSpendAllowance reports ErrInsufficientAllowance when spender may move less than amount.
func (l *Ledger) CanSpendAllowance(owner, spender library.Account, amount *uint256.Int) error {
	if allowed := l.Allowance(owner, spender); amount.Gt(allowed) {
		return fmt.Errorf("%w: %s may spend %s of %s, needs %s", library.ErrInsufficientAllowance,
			spender, allowed.Dec(), owner, amount.Dec())
	}
	return nil
}

// SpendAllowance decrements the allowance by exactly amount.
func (l *Ledger) SpendAllowance(owner, spender library.Account, amount *uint256.Int) error {
	if err := l.CanSpendAllowance(owner, spender, amount); err != nil {
		return err
	}
	remaining := new(uint256.Int).Sub(l.Allowance(owner, spender), amount)
	l.SetAllowance(owner, spender, remaining)
	return nil
}

// Move debits amount from `from` and credits it to `to`. Supply is unchanged.
func (l *Ledger) Move(from, to library.Account, amount *uint256.Int) error {
	if err := l.CanSpend(from, amount); err != nil {
		return err
	}
	if from == to || amount.IsZero() {
		return nil
	}
	l.setBalance(from, new(uint256.Int).Sub(l.balanceOf(from), amount))
	l.setBalance(to, new(uint256.Int).Add(l.balanceOf(to), amount))
	return nil
}

// Mint credits amount to `to` and grows supply.
func (l *Ledger) Mint(to library.Account, amount *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow {
		return fmt.Errorf("%w: minting %s", library.ErrSupplyOverflow, amount.Dec())
	}
	l.totalSupply = supply
	l.setBalance(to, new(uint256.Int).Add(l.balanceOf(to), amount))
	return nil
}

// CanMint reports whether minting amount would overflow supply.
func (l *Ledger) CanMint(amount *uint256.Int) error {
	if _, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount); overflow {
		return fmt.Errorf("%w: minting %s", library.ErrSupplyOverflow, amount.Dec())
	}
	return nil
}

// Burn destroys amount held by `from` and shrinks supply.
func (l *Ledger) Burn(from library.Account, amount *uint256.Int) error {
	if err := l.CanSpend(from, amount); err != nil {
		return err
	}
	l.setBalance(from, new(uint256.Int).Sub(l.balanceOf(from), amount))
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	return nil
}

// Accounts returns every account holding a non-zero balance, sorted.
func (l *Ledger) Accounts() []library.Account {
	accounts := maps.Keys(l.balances)
	slices.Sort(accounts)
	return accounts
}

// Conserved reports whether the balances add up to total supply.
func (l *Ledger) Conserved() bool {
	sum := new(uint256.Int)
	for _, b := range l.balances {
		var overflow bool
		if sum, overflow = new(uint256.Int).AddOverflow(sum, b); overflow {
			return false
		}
	}
	return sum.Eq(l.totalSupply)
}

func (l *Ledger) GetMapped() Mapped {
	m := Mapped{
		TotalSupply: l.totalSupply.Clone(),
		Balances:    make(map[library.Account]*uint256.Int, len(l.balances)),
		Allowances:  make(map[library.Account]map[library.Account]*uint256.Int, len(l.allowances)),
	}
	for account, b := range l.balances {
		m.Balances[account] = b.Clone()
	}
	for owner, inner := range l.allowances {
		m.Allowances[owner] = make(map[library.Account]*uint256.Int, len(inner))
		for spender, a := range inner {
			m.Allowances[owner][spender] = a.Clone()
		}
	}
	return m
}

// FromMapped rebuilds a ledger and checks the conservation invariant.
func FromMapped(m Mapped) (*Ledger, error) {
	l := New()
	if m.TotalSupply != nil {
		l.totalSupply = m.TotalSupply.Clone()
	}
	for account, b := range m.Balances {
		if b == nil {
			continue
		}
		l.setBalance(account, b.Clone())
	}
	for owner, inner := range m.Allowances {
		for spender, a := range inner {
			if a != nil {
				l.SetAllowance(owner, spender, a)
			}
		}
	}
	if !l.Conserved() {
		return nil, fmt.Errorf("%w: balances do not add up to total supply %s", library.ErrCorruptSnapshot, l.totalSupply.Dec())
	}
	return l, nil
}
