package token

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
	"keeperx/state/journal"
	"keeperx/state/ledger"
	"keeperx/state/salelimit"
	"keeperx/state/staking"
)

const snapshotVersion = 1

// Snapshot is the full engine state in a JSON friendly form. Amounts are base-unit decimal
// strings.
type Snapshot struct {
	Version     int                                            `json:"version"`
	Pair        library.Account                                `json:"pair"`
	LastRebase  time.Time                                      `json:"lastRebase"`
	TotalSupply string                                         `json:"totalSupply"`
	Balances    map[library.Account]string                     `json:"balances"`
	Allowances  map[library.Account]map[library.Account]string `json:"allowances,omitempty"`
	Stakes      map[library.Account]StakeSnapshot              `json:"stakes,omitempty"`
	SaleWindows map[library.Account]WindowSnapshot             `json:"saleWindows,omitempty"`
	Liquidity   map[library.Account]string                     `json:"liquidity,omitempty"`
	Journal     map[library.Account]library.Sha256             `json:"journal,omitempty"`
}

type StakeSnapshot struct {
	Amount        string    `json:"amount"`
	StartTime     time.Time `json:"startTime"`
	LastClaimTime time.Time `json:"lastClaimTime"`
}

type WindowSnapshot struct {
	Start time.Time `json:"start"`
	Sold  string    `json:"sold"`
}

// Snapshot copies the current state.
func (t *Token) Snapshot() (s Snapshot) {
	t.read(func() {
		m := t.state.Ledger.GetMapped()
		s = Snapshot{
			Version:     snapshotVersion,
			Pair:        t.state.Pair,
			LastRebase:  t.state.LastRebase,
			TotalSupply: m.TotalSupply.Dec(),
			Balances:    make(map[library.Account]string, len(m.Balances)),
			Allowances:  make(map[library.Account]map[library.Account]string, len(m.Allowances)),
			Stakes:      make(map[library.Account]StakeSnapshot),
			SaleWindows: make(map[library.Account]WindowSnapshot),
			Liquidity:   make(map[library.Account]string, len(t.state.Liquidity)),
			Journal:     t.state.Journal.GetMapped(),
		}
		for account, b := range m.Balances {
			s.Balances[account] = b.Dec()
		}
		for owner, inner := range m.Allowances {
			s.Allowances[owner] = make(map[library.Account]string, len(inner))
			for spender, a := range inner {
				s.Allowances[owner][spender] = a.Dec()
			}
		}
		for account, r := range t.state.Stakes.GetMapped() {
			s.Stakes[account] = StakeSnapshot{Amount: r.Amount.Dec(), StartTime: r.StartTime, LastClaimTime: r.LastClaimTime}
		}
		for seller, w := range t.state.Sales.GetMapped() {
			s.SaleWindows[seller] = WindowSnapshot{Start: w.Start, Sold: w.Sold.Dec()}
		}
		for account, l := range t.state.Liquidity {
			s.Liquidity[account] = l.Dec()
		}
	})
	return
}

func parseAmount(field, v string) (*uint256.Int, error) {
	u, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %s", library.ErrCorruptSnapshot, field, v, err.Error())
	}
	return u, nil
}

func parseAccount(field, v string) (library.Account, error) {
	n, ok := library.NormalizeAccount(v)
	if !ok {
		return "", fmt.Errorf("%w: %s address %q", library.ErrCorruptSnapshot, field, v)
	}
	return n, nil
}

// Restore replaces the whole state with s. The snapshot is rebuilt and checked in full before
// anything is swapped in: balances must add up to total supply and the staking vault must hold
// exactly what the stake records say.
func (t *Token) Restore(s Snapshot) error {
	next, err := t.buildState(s)
	if err != nil {
		return err
	}
	return t.run("restore", func(o *operation) error {
		t.state = next
		library.LogCLI(fmt.Sprintf("restored %d accounts, %d stakers, supply %s %s", len(next.Ledger.Accounts()), next.Stakes.NumStakers(), library.FormatUnits(next.Ledger.TotalSupply()), Symbol), 4)
		return nil
	})
}

func (t *Token) buildState(s Snapshot) (*State, error) {
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unknown version %d", library.ErrCorruptSnapshot, s.Version)
	}
	pair, err := parseAccount("pair", s.Pair)
	if err != nil {
		return nil, err
	}
	if pair == library.ZeroAccount || pair == library.StakingVault {
		return nil, fmt.Errorf("%w: pair %s", library.ErrCorruptSnapshot, pair)
	}
	m := ledger.Mapped{
		Balances:   make(map[library.Account]*uint256.Int, len(s.Balances)),
		Allowances: make(map[library.Account]map[library.Account]*uint256.Int, len(s.Allowances)),
	}
	if m.TotalSupply, err = parseAmount("totalSupply", s.TotalSupply); err != nil {
		return nil, err
	}
	for raw, v := range s.Balances {
		account, err := parseAccount("balance", raw)
		if err != nil {
			return nil, err
		}
		if m.Balances[account], err = parseAmount("balance", v); err != nil {
			return nil, err
		}
	}
	for rawOwner, inner := range s.Allowances {
		owner, err := parseAccount("allowance owner", rawOwner)
		if err != nil {
			return nil, err
		}
		m.Allowances[owner] = make(map[library.Account]*uint256.Int, len(inner))
		for rawSpender, v := range inner {
			spender, err := parseAccount("allowance spender", rawSpender)
			if err != nil {
				return nil, err
			}
			if m.Allowances[owner][spender], err = parseAmount("allowance", v); err != nil {
				return nil, err
			}
		}
	}
	l, err := ledger.FromMapped(m)
	if err != nil {
		return nil, err
	}

	stakes := make(staking.Mapped, len(s.Stakes))
	for raw, r := range s.Stakes {
		account, err := parseAccount("stake", raw)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount("stake", r.Amount)
		if err != nil {
			return nil, err
		}
		if r.LastClaimTime.Before(r.StartTime) {
			return nil, fmt.Errorf("%w: stake of %s claimed before it started", library.ErrCorruptSnapshot, account)
		}
		stakes[account] = staking.StakeRecord{Amount: amount, StartTime: r.StartTime, LastClaimTime: r.LastClaimTime}
	}
	book, err := staking.FromMapped(stakes)
	if err != nil {
		return nil, err
	}
	if vault := l.BalanceOf(library.StakingVault); !vault.Eq(book.TotalStaked()) {
		return nil, fmt.Errorf("%w: staking vault holds %s but stakes total %s", library.ErrCorruptSnapshot, vault.Dec(), book.TotalStaked().Dec())
	}

	windows := make(salelimit.Mapped, len(s.SaleWindows))
	for raw, w := range s.SaleWindows {
		seller, err := parseAccount("sale window", raw)
		if err != nil {
			return nil, err
		}
		sold, err := parseAmount("sale window", w.Sold)
		if err != nil {
			return nil, err
		}
		windows[seller] = salelimit.Window{Start: w.Start, Sold: sold}
	}
	sales := salelimit.NewGuard(t.access.Founder(), t.params.SaleCap, t.params.SalePeriod)
	sales.Restore(windows)

	liquidity := make(map[library.Account]*uint256.Int, len(s.Liquidity))
	total := new(uint256.Int)
	for raw, v := range s.Liquidity {
		account, err := parseAccount("liquidity", raw)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount("liquidity", v)
		if err != nil {
			return nil, err
		}
		var overflow bool
		if total, overflow = new(uint256.Int).AddOverflow(total, amount); overflow {
			return nil, fmt.Errorf("%w: total liquidity overflows", library.ErrCorruptSnapshot)
		}
		liquidity[account] = amount
	}

	heads := make(journal.Mapped, len(s.Journal))
	for raw, hash := range s.Journal {
		account, err := parseAccount("journal", raw)
		if err != nil {
			return nil, err
		}
		if len(hash) != 64 {
			return nil, fmt.Errorf("%w: journal head %q of %s", library.ErrCorruptSnapshot, hash, account)
		}
		heads[account] = hash
	}

	return &State{
		Ledger:         l,
		Stakes:         book,
		Sales:          sales,
		Journal:        journal.FromMapped(heads),
		Liquidity:      liquidity,
		TotalLiquidity: total,
		LastRebase:     s.LastRebase,
		Pair:           pair,
	}, nil
}
