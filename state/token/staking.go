package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
	"keeperx/state/staking"
)

func (t *Token) currentAPR() uint64 {
	return t.policy.APR(t.state.Stakes.TotalStaked(), t.state.Ledger.TotalSupply())
}

// pendingReward is what account has accrued at the current APR, checked against supply overflow
// so paying it later cannot fail.
func (t *Token) pendingReward(o *operation, account library.Account) (*uint256.Int, error) {
	pending := t.state.Stakes.Pending(account, o.now, t.currentAPR())
	if err := t.state.Ledger.CanMint(pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (t *Token) payReward(o *operation, account library.Account, reward *uint256.Int) {
	if reward.IsZero() {
		return
	}
	if err := t.state.Ledger.Mint(account, reward); err != nil {
		library.LogCLI(err, 1)
		return
	}
	o.emit(library.Notification{Kind: library.RewardClaimed, Account: account, Amount: reward.Clone(), Supply: t.state.Ledger.TotalSupply()})
	library.LogCLI(fmt.Sprintf("%s claimed %s %s", account, library.FormatUnits(reward), Symbol), 4)
}

// Stake locks amount of caller's free balance. A top-up pays out the pending reward first and
// restarts the lock for the whole position.
func (t *Token) Stake(caller string, amount *uint256.Int) error {
	return t.run("stake", func(o *operation) error {
		account, err := actor(caller)
		if err != nil {
			return err
		}
		if amount == nil || amount.IsZero() {
			return library.ErrZeroStake
		}
		if err = t.state.Ledger.CanSpend(account, amount); err != nil {
			return err
		}
		reward, err := t.pendingReward(o, account)
		if err != nil {
			return err
		}

		t.payReward(o, account, reward)
		if err = t.state.Ledger.Move(account, library.StakingVault, amount); err != nil {
			return err
		}
		if t.state.Stakes.Add(account, amount, o.now) {
			library.LogCLI(fmt.Sprintf("%s is now staking, %d stakers", account, t.state.Stakes.NumStakers()), 4)
		}
		t.state.Journal.Record(account, o.name, amount.Dec())
		return nil
	})
}

// Unstake returns amount from the vault to caller once the lock period has passed, paying the
// pending reward on the way out.
func (t *Token) Unstake(caller string, amount *uint256.Int) error {
	return t.run("unstake", func(o *operation) error {
		account, err := actor(caller)
		if err != nil {
			return err
		}
		if amount == nil {
			amount = new(uint256.Int)
		}
		if err = t.state.Stakes.CheckUnstake(account, amount, o.now, t.policy.MinLockPeriod); err != nil {
			return err
		}
		reward, err := t.pendingReward(o, account)
		if err != nil {
			return err
		}

		t.payReward(o, account, reward)
		if err = t.state.Ledger.Move(library.StakingVault, account, amount); err != nil {
			return err
		}
		if t.state.Stakes.Remove(account, amount, o.now) {
			library.LogCLI(fmt.Sprintf("%s has fully unstaked, %d stakers", account, t.state.Stakes.NumStakers()), 4)
		}
		t.state.Journal.Record(account, o.name, amount.Dec())
		return nil
	})
}

// ClaimStakingReward mints caller's accrued reward and returns it.
func (t *Token) ClaimStakingReward(caller string) (reward *uint256.Int, err error) {
	err = t.run("claimStakingReward", func(o *operation) error {
		account, aerr := actor(caller)
		if aerr != nil {
			return aerr
		}
		pending, perr := t.pendingReward(o, account)
		if perr != nil {
			return perr
		}
		if pending.IsZero() {
			return library.ErrNothingToClaim
		}

		t.payReward(o, account, pending)
		t.state.Stakes.MarkClaimed(account, o.now)
		t.state.Journal.Record(account, o.name, pending.Dec())
		reward = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// CalculateStakingReward is the reward account could claim now.
func (t *Token) CalculateStakingReward(account string) (r *uint256.Int) {
	now := t.clock.Now()
	t.read(func() { r = t.state.Stakes.Pending(lookup(account), now, t.currentAPR()) })
	return
}

// CalculateAPR is the current annual rate in whole percent.
func (t *Token) CalculateAPR() (apr uint64) {
	t.read(func() { apr = t.currentAPR() })
	return
}

func (t *Token) MaxAPR() uint64 {
	return t.policy.MaxAPR()
}

// Stakes returns a copy of account's stake record; Amount is zero when there is none.
func (t *Token) Stakes(account string) (s staking.StakeRecord) {
	t.read(func() { s, _ = t.state.Stakes.Get(lookup(account)) })
	return
}

// Stakers lists every account with an open stake, sorted.
func (t *Token) Stakers() (s []library.Account) {
	t.read(func() { s = t.state.Stakes.Stakers() })
	return
}

func (t *Token) NumStakers() (n uint32) {
	t.read(func() { n = t.state.Stakes.NumStakers() })
	return
}

func (t *Token) TotalStaked() (s *uint256.Int) {
	t.read(func() { s = t.state.Stakes.TotalStaked() })
	return
}
