// Package staking keeps stake records and computes rewards. The Book is not safe for
// concurrent use; the token serialises every call.
package staking

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keeperx/engine/library"
)

type Book struct {
	stakes      map[library.Account]StakeRecord
	totalStaked *uint256.Int
}

func NewBook() *Book {
	return &Book{
		stakes:      make(map[library.Account]StakeRecord),
		totalStaked: new(uint256.Int),
	}
}

// Get returns a copy of the record; a missing record has a zero Amount.
func (b *Book) Get(account library.Account) (StakeRecord, bool) {
	s, ok := b.stakes[account]
	if !ok {
		return StakeRecord{Amount: new(uint256.Int)}, false
	}
	return s.clone(), true
}

func (b *Book) NumStakers() uint32 {
	return uint32(len(b.stakes))
}

func (b *Book) TotalStaked() *uint256.Int {
	return b.totalStaked.Clone()
}

// Stakers returns every address with an active stake, sorted.
func (b *Book) Stakers() []library.Account {
	accounts := maps.Keys(b.stakes)
	slices.Sort(accounts)
	return accounts
}

// Pending is the reward accrued since the last claim at the given APR.
func (b *Book) Pending(account library.Account, now time.Time, apr uint64) *uint256.Int {
	s, ok := b.stakes[account]
	if !ok {
		return new(uint256.Int)
	}
	return Reward(s.Amount, apr, now.Sub(s.LastClaimTime))
}

// CheckUnstake validates an unstake without changing anything.
func (b *Book) CheckUnstake(account library.Account, amount *uint256.Int, now time.Time, minLock time.Duration) error {
	if amount.IsZero() {
		return library.ErrZeroStake
	}
	s, _ := b.Get(account)
	if amount.Gt(s.Amount) {
		return fmt.Errorf("%w: %s has %s staked, asked for %s", library.ErrExceedsStaked, account, s.Amount.Dec(), amount.Dec())
	}
	if now.Sub(s.StartTime) < minLock {
		return fmt.Errorf("%w: unlocks at %s", library.ErrLockPeriodActive, s.StartTime.Add(minLock).UTC().Format(time.RFC3339))
	}
	return nil
}

// Add opens a record or tops one up. Any pending reward must have been settled first; both
// the lock start and the accrual window restart at now.
func (b *Book) Add(account library.Account, amount *uint256.Int, now time.Time) (created bool) {
	s, ok := b.stakes[account]
	if !ok {
		s = StakeRecord{Amount: new(uint256.Int)}
		created = true
	}
	s.Amount = new(uint256.Int).Add(s.Amount, amount)
	s.StartTime = now
	s.LastClaimTime = now
	b.stakes[account] = s
	b.totalStaked = new(uint256.Int).Add(b.totalStaked, amount)
	return created
}

// Remove takes amount off the record and deletes it at zero. The caller has run CheckUnstake.
func (b *Book) Remove(account library.Account, amount *uint256.Int, now time.Time) (deleted bool) {
	s, ok := b.stakes[account]
	if !ok {
		return false
	}
	s.Amount = new(uint256.Int).Sub(s.Amount, amount)
	s.LastClaimTime = now
	b.totalStaked = new(uint256.Int).Sub(b.totalStaked, amount)
	if s.Amount.IsZero() {
		delete(b.stakes, account)
		return true
	}
	b.stakes[account] = s
	return false
}

// MarkClaimed restarts the accrual window.
func (b *Book) MarkClaimed(account library.Account, now time.Time) {
	if s, ok := b.stakes[account]; ok {
		s.LastClaimTime = now
		b.stakes[account] = s
	}
}

type Mapped map[library.Account]StakeRecord

func (b *Book) GetMapped() Mapped {
	m := make(Mapped, len(b.stakes))
	for account, s := range b.stakes {
		m[account] = s.clone()
	}
	return m
}

// FromMapped rebuilds a book, rejecting empty records.
func FromMapped(m Mapped) (*Book, error) {
	b := NewBook()
	for account, s := range m {
		if !s.Active() {
			return nil, fmt.Errorf("%w: empty stake record for %s", library.ErrCorruptSnapshot, account)
		}
		b.stakes[account] = s.clone()
		var overflow bool
		if b.totalStaked, overflow = new(uint256.Int).AddOverflow(b.totalStaked, s.Amount); overflow {
			return nil, fmt.Errorf("%w: total staked overflows", library.ErrCorruptSnapshot)
		}
	}
	return b, nil
}
