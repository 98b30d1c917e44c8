// Package token is the KeeperX engine: ledger, rebase, staking, sale limits and access control
// behind one lock. Every exported method runs to completion before the next one starts.
package token

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/sasha-s/go-deadlock"
	"keeperx/engine/library"
	"keeperx/state/access"
	"keeperx/state/journal"
	"keeperx/state/ledger"
	"keeperx/state/rebase"
	"keeperx/state/salelimit"
	"keeperx/state/staking"
)

// State is everything the engine owns. It is only touched with Token.mu held.
type State struct {
	Ledger         *ledger.Ledger
	Stakes         *staking.Book
	Sales          *salelimit.Guard
	Journal        *journal.Journal
	Liquidity      map[library.Account]*uint256.Int
	TotalLiquidity *uint256.Int
	LastRebase     time.Time
	Pair           library.Account
}

// Observer is told about every operation once it has finished.
type Observer interface {
	ObserveOperation(op string, err error)
}

type Token struct {
	mu        *deadlock.Mutex
	state     *State
	params    Params
	access    access.Control
	rebase    rebase.Engine
	policy    staking.Policy
	clock     library.Clock
	sinks     []library.Sink
	observers []Observer
}

type Option func(t *Token)

func WithClock(c library.Clock) Option {
	return func(t *Token) { t.clock = c }
}

func WithParams(p Params) Option {
	return func(t *Token) { t.params = p }
}

// WithSink registers a receiver for committed notifications.
func WithSink(s library.Sink) Option {
	return func(t *Token) { t.sinks = append(t.sinks, s) }
}

func WithObserver(o Observer) Option {
	return func(t *Token) { t.observers = append(t.observers, o) }
}

// WithLogLevel sets the process-wide LogCLI threshold.
func WithLogLevel(level int) Option {
	return func(*Token) { library.SetLogLevel(level) }
}

// New mints the genesis allocation and sets the initial pair.
func New(pair string, opts ...Option) (*Token, error) {
	t := &Token{
		mu:     &deadlock.Mutex{},
		params: DefaultParams(),
		access: access.New(access.Founder),
		clock:  library.SystemClock{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.params.Validate(); err != nil {
		return nil, err
	}
	p, err := access.ValidateAddress(pair)
	if err != nil {
		return nil, fmt.Errorf("initial pair: %w", err)
	}
	if p == library.StakingVault {
		return nil, fmt.Errorf("initial pair: %w: staking vault", library.ErrInvalidAddress)
	}
	t.rebase = rebase.Engine{Interval: t.params.RebaseInterval, BurnBPS: t.params.RebaseBurnBPS}
	t.policy = staking.Policy{
		BaseAPR:            t.params.BaseAPR,
		FloorAPR:           t.params.FloorAPR,
		UtilizationKinkBPS: t.params.UtilizationKinkBPS,
		MinLockPeriod:      t.params.MinLockPeriod,
	}
	t.state = &State{
		Ledger:         ledger.New(),
		Stakes:         staking.NewBook(),
		Sales:          salelimit.NewGuard(t.access.Founder(), t.params.SaleCap, t.params.SalePeriod),
		Journal:        journal.New(),
		Liquidity:      make(map[library.Account]*uint256.Int),
		TotalLiquidity: new(uint256.Int),
		LastRebase:     t.clock.Now(),
		Pair:           p,
	}
	for _, a := range Genesis() {
		if err = t.state.Ledger.Mint(a.Account, a.Amount); err != nil {
			return nil, err
		}
	}
	library.LogCLI(fmt.Sprintf("%s engine started, supply %s %s, pair %s", Name, library.FormatUnits(t.state.Ledger.TotalSupply()), Symbol, p), 4)
	return t, nil
}

// operation collects what one call did so it can be reported after the lock is released.
type operation struct {
	name  string
	now   time.Time
	notes []library.Notification
}

func (o *operation) emit(n library.Notification) {
	n.At = o.now
	o.notes = append(o.notes, n)
}

// run executes fn as one critical section. fn validates everything before its first
// mutation, so a returned error means nothing changed. Notifications leave only after the
// state is committed and the lock released.
func (t *Token) run(name string, fn func(o *operation) error) error {
	t.mu.Lock()
	o := &operation{name: name, now: t.clock.Now()}
	err := fn(o)
	t.mu.Unlock()

	if err != nil {
		library.LogCLI(fmt.Sprintf("%s rejected: %s", name, err.Error()), 3)
	} else {
		library.LogCLI(fmt.Sprintf("%s committed", name), 3)
		for _, n := range o.notes {
			for _, s := range t.sinks {
				s.Notify(n)
			}
		}
	}
	for _, obs := range t.observers {
		obs.ObserveOperation(name, err)
	}
	return err
}

// read runs fn under the lock for getters.
func (t *Token) read(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn()
}

// actor normalises the account performing an operation. The zero address and the staking
// vault never act.
func actor(a string) (library.Account, error) {
	n, err := access.ValidateAddress(a)
	if err != nil {
		return "", err
	}
	if n == library.StakingVault {
		return "", fmt.Errorf("%w: staking vault cannot act", library.ErrInvalidAddress)
	}
	return n, nil
}

// lookup normalises an address for getters; malformed input reads as the zero account.
func lookup(a string) library.Account {
	n, ok := library.NormalizeAccount(a)
	if !ok {
		return library.ZeroAccount
	}
	return n
}

func (t *Token) Name() string   { return Name }
func (t *Token) Symbol() string { return Symbol }
func (t *Token) Decimals() uint8 {
	return library.Decimals
}

func (t *Token) Params() Params {
	p := t.params
	p.SaleCap = t.params.SaleCap.Clone()
	return p
}

func (t *Token) TotalSupply() (s *uint256.Int) {
	t.read(func() { s = t.state.Ledger.TotalSupply() })
	return
}

func (t *Token) BalanceOf(account string) (b *uint256.Int) {
	t.read(func() { b = t.state.Ledger.BalanceOf(lookup(account)) })
	return
}

func (t *Token) Allowance(owner, spender string) (a *uint256.Int) {
	t.read(func() { a = t.state.Ledger.Allowance(lookup(owner), lookup(spender)) })
	return
}

// Accounts lists every holder with a non-zero balance.
func (t *Token) Accounts() (accounts []library.Account) {
	t.read(func() { accounts = t.state.Ledger.Accounts() })
	return
}

// Conserved reports whether balances add up to total supply.
func (t *Token) Conserved() (ok bool) {
	t.read(func() { ok = t.state.Ledger.Conserved() })
	return
}

func (t *Token) LastRebaseTime() (last time.Time) {
	t.read(func() { last = t.state.LastRebase })
	return
}

// NextRebaseDue is the earliest time a pair-routed transfer can trigger a rebase.
func (t *Token) NextRebaseDue() (due time.Time) {
	t.read(func() { due = t.rebase.NextDue(t.state.LastRebase) })
	return
}

func (t *Token) JournalHead(account string) (h library.Sha256) {
	t.read(func() { h = t.state.Journal.Head(lookup(account)) })
	return
}

func (t *Token) StateHash() (h library.Sha256) {
	t.read(func() { h = t.state.Journal.StateHash() })
	return
}
