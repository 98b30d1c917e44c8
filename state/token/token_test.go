package token

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/sasha-s/go-deadlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keeperx/engine/library"
	"keeperx/state/access"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	pair  = "0x3333333333333333333333333333333333333333"
	carol = "0x4444444444444444444444444444444444444444"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func kpx(s string) *uint256.Int {
	return library.MustParseUnits(s)
}

type recorder struct {
	mu    *deadlock.Mutex
	notes []library.Notification
	ops   map[string]int
	fails map[string]int
}

func newRecorder() *recorder {
	return &recorder{mu: &deadlock.Mutex{}, ops: make(map[string]int), fails: make(map[string]int)}
}

func (r *recorder) Notify(n library.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) ObserveOperation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.fails[op]++
		return
	}
	r.ops[op]++
}

func (r *recorder) kinds() []library.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []library.NotificationKind
	for _, n := range r.notes {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

func newTestToken(t *testing.T) (*Token, *library.ManualClock, *recorder) {
	t.Helper()
	clock := library.NewManualClock(start)
	rec := newRecorder()
	tok, err := New(pair, WithClock(clock), WithSink(rec), WithObserver(rec), WithLogLevel(2))
	require.NoError(t, err)
	return tok, clock, rec
}

// fund hands out founder tokens without touching the pair.
func fund(t *testing.T, tok *Token, to string, amount string) {
	t.Helper()
	require.NoError(t, tok.Transfer(access.Founder, to, kpx(amount)))
}

func TestGenesis(t *testing.T) {
	tok, _, _ := newTestToken(t)
	assert.Equal(t, "KeeperX", tok.Name())
	assert.Equal(t, "KPX", tok.Symbol())
	assert.Equal(t, uint8(18), tok.Decimals())
	assert.True(t, tok.TotalSupply().Eq(kpx("18500000")))
	assert.True(t, tok.TotalSupply().Eq(InitialSupply()))
	assert.True(t, tok.BalanceOf(access.Founder).Eq(kpx("14440000")))
	assert.True(t, tok.BalanceOf(library.EcosystemReserve).Eq(kpx("2220000")))
	assert.True(t, tok.BalanceOf(library.LiquidityReserve).Eq(kpx("1840000")))
	assert.Equal(t, library.Account(pair), tok.PairAddress())
	assert.Equal(t, library.Account(access.Founder), tok.Founder())
	assert.Equal(t, start, tok.LastRebaseTime())
	assert.Equal(t, start.Add(30*24*time.Hour), tok.NextRebaseDue())
	assert.Equal(t, uint64(10), tok.CalculateAPR())
	assert.Equal(t, uint64(10), tok.MaxAPR())
	assert.True(t, tok.Conserved())
}

func TestNewRejectsBadPair(t *testing.T) {
	_, err := New(library.ZeroAccount)
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	_, err = New("0x1234")
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	_, err = New(library.StakingVault)
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))

	p := DefaultParams()
	p.FloorAPR = 20
	_, err = New(pair, WithParams(p))
	assert.Error(t, err)
}

func TestTransfer(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "100")

	require.NoError(t, tok.Transfer(alice, bob, kpx("40")))
	assert.True(t, tok.BalanceOf(alice).Eq(kpx("60")))
	assert.True(t, tok.BalanceOf(bob).Eq(kpx("40")))

	err := tok.Transfer(alice, bob, kpx("61"))
	assert.True(t, errors.Is(err, library.ErrInsufficientBalance))
	assert.Equal(t, "Insufficient balance", errors.Unwrap(err).Error())

	for _, to := range []string{library.ZeroAccount, library.StakingVault, "bob", "0x22222222222222222222222222222222222222zz"} {
		err = tok.Transfer(alice, to, kpx("1"))
		assert.True(t, errors.Is(err, library.ErrInvalidAddress), to)
	}
	assert.True(t, tok.Conserved())
	assert.True(t, tok.TotalSupply().Eq(kpx("18500000")))
}

func TestAddressesAreNormalised(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, "0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD", "5")
	assert.True(t, tok.BalanceOf("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd").Eq(kpx("5")))
	assert.True(t, tok.BalanceOf("0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD").Eq(kpx("5")))
	assert.True(t, tok.BalanceOf("not an address").IsZero())

	require.NoError(t, tok.Transfer("0x"+strings.ToUpper(access.Founder[2:]), bob, kpx("1")))
	assert.True(t, tok.BalanceOf(bob).Eq(kpx("1")))
}

func TestTransferFrom(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "100")

	require.NoError(t, tok.Approve(alice, bob, kpx("30")))
	assert.True(t, tok.Allowance(alice, bob).Eq(kpx("30")))

	require.NoError(t, tok.TransferFrom(bob, alice, carol, kpx("10")))
	assert.True(t, tok.Allowance(alice, bob).Eq(kpx("20")))
	assert.True(t, tok.BalanceOf(carol).Eq(kpx("10")))
	assert.True(t, tok.BalanceOf(alice).Eq(kpx("90")))

	err := tok.TransferFrom(bob, alice, carol, kpx("21"))
	assert.True(t, errors.Is(err, library.ErrInsufficientAllowance))
	assert.True(t, tok.Allowance(alice, bob).Eq(kpx("20")))

	// balance is checked before allowance
	require.NoError(t, tok.SafeApprove(alice, bob, kpx("1000")))
	err = tok.TransferFrom(bob, alice, carol, kpx("500"))
	assert.True(t, errors.Is(err, library.ErrInsufficientBalance))

	// approve overwrites
	require.NoError(t, tok.Approve(alice, bob, kpx("1")))
	assert.True(t, tok.Allowance(alice, bob).Eq(kpx("1")))
	require.NoError(t, tok.Approve(alice, bob, new(uint256.Int)))
	assert.True(t, tok.Allowance(alice, bob).IsZero())

	err = tok.Approve(alice, library.ZeroAccount, kpx("1"))
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	err = tok.TransferFrom(bob, alice, library.StakingVault, kpx("1"))
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	assert.True(t, tok.Conserved())
}

func TestTransferFromOwnAccountSpendsAllowance(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "100")
	head := tok.JournalHead(alice)

	err := tok.TransferFrom(alice, alice, bob, kpx("10"))
	assert.True(t, errors.Is(err, library.ErrInsufficientAllowance))
	assert.True(t, tok.BalanceOf(alice).Eq(kpx("100")))
	assert.True(t, tok.BalanceOf(bob).IsZero())
	assert.Equal(t, head, tok.JournalHead(alice))

	require.NoError(t, tok.Approve(alice, alice, kpx("15")))
	require.NoError(t, tok.TransferFrom(alice, alice, bob, kpx("10")))
	assert.True(t, tok.Allowance(alice, alice).Eq(kpx("5")))
	assert.True(t, tok.BalanceOf(bob).Eq(kpx("10")))

	// a plain transfer never touches the allowance
	require.NoError(t, tok.Transfer(alice, bob, kpx("20")))
	assert.True(t, tok.Allowance(alice, alice).Eq(kpx("5")))
	assert.True(t, tok.Conserved())
}

func TestStakeRewardAfter180Days(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("1000")))

	assert.True(t, tok.BalanceOf(alice).IsZero())
	assert.True(t, tok.BalanceOf(library.StakingVault).Eq(kpx("1000")))
	assert.True(t, tok.TotalStaked().Eq(kpx("1000")))
	assert.Equal(t, uint32(1), tok.NumStakers())
	s := tok.Stakes(alice)
	assert.True(t, s.Amount.Eq(kpx("1000")))
	assert.Equal(t, start, s.StartTime)
	assert.Equal(t, start, s.LastClaimTime)

	clock.Advance(180 * 24 * time.Hour)
	reward := tok.CalculateStakingReward(alice)
	// 1000 * 10% * 180/365 = 49.3150...
	assert.True(t, reward.Gt(kpx("49.315")), reward.Dec())
	assert.True(t, kpx("49.316").Gt(reward), reward.Dec())
}

func TestClaimStakingReward(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("1000")))

	_, err := tok.ClaimStakingReward(alice)
	assert.True(t, errors.Is(err, library.ErrNothingToClaim))
	_, err = tok.ClaimStakingReward(bob)
	assert.True(t, errors.Is(err, library.ErrNothingToClaim))

	clock.Advance(90 * 24 * time.Hour)
	before := tok.CalculateStakingReward(alice)
	supply := tok.TotalSupply()
	reward, err := tok.ClaimStakingReward(alice)
	require.NoError(t, err)
	assert.True(t, reward.Eq(before))
	assert.True(t, tok.BalanceOf(alice).Eq(reward))
	assert.True(t, tok.TotalSupply().Eq(new(uint256.Int).Add(supply, reward)))
	assert.True(t, tok.CalculateStakingReward(alice).IsZero())
	assert.Equal(t, start.Add(90*24*time.Hour), tok.Stakes(alice).LastClaimTime)
	assert.True(t, tok.Conserved())

	assert.Equal(t, []library.NotificationKind{library.RewardClaimed}, rec.kinds())
	assert.Equal(t, library.Account(alice), rec.notes[0].Account)
	assert.True(t, rec.notes[0].Amount.Eq(reward))
	assert.True(t, rec.notes[0].Supply.Eq(tok.TotalSupply()))

	clock.Advance(time.Hour)
	assert.True(t, tok.CalculateStakingReward(alice).Lt(reward))
}

func TestUnstake(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("1000")))

	assert.True(t, errors.Is(tok.Unstake(alice, new(uint256.Int)), library.ErrZeroStake))
	assert.True(t, errors.Is(tok.Unstake(alice, kpx("1001")), library.ErrExceedsStaked))
	assert.True(t, errors.Is(tok.Unstake(alice, kpx("500")), library.ErrLockPeriodActive))
	assert.True(t, errors.Is(tok.Unstake(bob, kpx("1")), library.ErrExceedsStaked))

	clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, tok.Unstake(alice, kpx("500")))
	assert.Equal(t, uint32(1), tok.NumStakers())
	assert.Equal(t, []library.Account{alice}, tok.Stakers())
	assert.True(t, tok.TotalStaked().Eq(kpx("500")))
	settled := tok.BalanceOf(alice)
	assert.True(t, settled.Gt(kpx("500")))

	require.NoError(t, tok.Unstake(alice, kpx("500")))
	assert.Equal(t, uint32(0), tok.NumStakers())
	assert.Empty(t, tok.Stakers())
	assert.True(t, tok.TotalStaked().IsZero())
	assert.True(t, tok.Stakes(alice).Amount.IsZero())
	assert.True(t, tok.BalanceOf(library.StakingVault).IsZero())
	assert.True(t, tok.BalanceOf(alice).Eq(new(uint256.Int).Add(settled, kpx("500"))))
	assert.True(t, tok.Conserved())

	assert.Equal(t, []library.NotificationKind{library.RewardClaimed}, rec.kinds())
}

func TestStakeRequiresFreeBalance(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "100")
	assert.True(t, errors.Is(tok.Stake(alice, new(uint256.Int)), library.ErrZeroStake))
	assert.True(t, errors.Is(tok.Stake(alice, nil), library.ErrZeroStake))
	assert.Equal(t, "Cannot stake zero", library.ErrZeroStake.Error())
	assert.True(t, errors.Is(tok.Stake(alice, kpx("101")), library.ErrInsufficientBalance))
	assert.Equal(t, uint32(0), tok.NumStakers())
}

func TestTransferWhileStaked(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("800")))
	assert.True(t, tok.BalanceOf(alice).Eq(kpx("200")))

	err := tok.Transfer(alice, bob, kpx("201"))
	assert.True(t, errors.Is(err, library.ErrInsufficientBalance))
	require.NoError(t, tok.Transfer(alice, bob, kpx("200")))
	assert.True(t, tok.Conserved())
}

func TestTopUpSettlesAndResetsLock(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("500")))

	clock.Advance(20 * 24 * time.Hour)
	pending := tok.CalculateStakingReward(alice)
	require.False(t, pending.IsZero())
	require.NoError(t, tok.Stake(alice, kpx("500")))
	assert.True(t, tok.BalanceOf(alice).Eq(pending))
	assert.True(t, tok.Stakes(alice).Amount.Eq(kpx("1000")))
	assert.Equal(t, clock.Now(), tok.Stakes(alice).StartTime)
	assert.Equal(t, uint32(1), tok.NumStakers())
	assert.Equal(t, []library.NotificationKind{library.RewardClaimed}, rec.kinds())

	clock.Advance(20 * 24 * time.Hour)
	assert.True(t, errors.Is(tok.Unstake(alice, kpx("1")), library.ErrLockPeriodActive))
	clock.Advance(10 * 24 * time.Hour)
	require.NoError(t, tok.Unstake(alice, kpx("1000")))
	assert.Equal(t, uint32(0), tok.NumStakers())
}

func TestRebaseThroughPair(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "2000")
	supply := tok.TotalSupply()

	clock.Advance(30*24*time.Hour + time.Second)
	require.NoError(t, tok.Transfer(alice, pair, kpx("1000")))
	assert.True(t, tok.TotalSupply().Eq(new(uint256.Int).Sub(supply, kpx("20"))))
	assert.True(t, tok.BalanceOf(pair).Eq(kpx("980")))
	assert.True(t, tok.BalanceOf(alice).Eq(kpx("1000")))
	assert.Equal(t, clock.Now(), tok.LastRebaseTime())
	assert.True(t, tok.Conserved())

	require.Equal(t, []library.NotificationKind{library.RebaseApplied}, rec.kinds())
	n := rec.notes[0]
	assert.Equal(t, library.Account(alice), n.Account)
	assert.True(t, n.Amount.Eq(kpx("20")))
	assert.True(t, n.Supply.Eq(tok.TotalSupply()))

	// once per interval
	supply = tok.TotalSupply()
	clock.Advance(time.Hour)
	require.NoError(t, tok.Transfer(alice, pair, kpx("100")))
	assert.True(t, tok.TotalSupply().Eq(supply))
	assert.True(t, tok.BalanceOf(pair).Eq(kpx("1080")))
	assert.Len(t, rec.kinds(), 1)
}

func TestRebaseOnTransferOutOfPair(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Transfer(alice, pair, kpx("1000")))

	clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, tok.Transfer(pair, bob, kpx("500")))
	assert.True(t, tok.BalanceOf(bob).Eq(kpx("490")))
	assert.True(t, tok.BalanceOf(pair).Eq(kpx("500")))
	assert.True(t, tok.TotalSupply().Eq(kpx("18499990")))
}

func TestRebaseIgnoresTransfersAwayFromPair(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "1000")
	clock.Advance(60 * 24 * time.Hour)

	require.NoError(t, tok.Transfer(alice, bob, kpx("1000")))
	assert.True(t, tok.BalanceOf(bob).Eq(kpx("1000")))
	assert.True(t, tok.TotalSupply().Eq(kpx("18500000")))
	assert.Equal(t, start, tok.LastRebaseTime())
	assert.Empty(t, rec.kinds())
}

func TestRebaseWithZeroBurnStaysDue(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	fund(t, tok, alice, "10")
	clock.Advance(31 * 24 * time.Hour)

	require.NoError(t, tok.Transfer(alice, pair, uint256.NewInt(49)))
	assert.True(t, tok.BalanceOf(pair).Eq(uint256.NewInt(49)))
	assert.Equal(t, start, tok.LastRebaseTime())

	require.NoError(t, tok.Transfer(alice, pair, uint256.NewInt(100)))
	assert.True(t, tok.BalanceOf(pair).Eq(uint256.NewInt(147)))
	assert.Equal(t, clock.Now(), tok.LastRebaseTime())
}

func TestSaleLimit(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	fund(t, tok, alice, "60000")
	assert.True(t, tok.GetAllowedSaleLimit(alice).Eq(kpx("50000")))
	assert.True(t, tok.GetAllowedSaleLimit(access.Founder).Eq(new(uint256.Int).SetAllOne()))

	require.NoError(t, tok.Transfer(alice, pair, kpx("30000")))
	assert.True(t, tok.GetAllowedSaleLimit(alice).Eq(kpx("20000")))
	err := tok.Transfer(alice, pair, kpx("20001"))
	assert.True(t, errors.Is(err, library.ErrSaleLimitExceeded))
	require.NoError(t, tok.Transfer(alice, pair, kpx("20000")))
	assert.True(t, tok.GetAllowedSaleLimit(alice).IsZero())

	// transfers elsewhere are not sales
	require.NoError(t, tok.Transfer(alice, bob, kpx("1")))

	clock.Advance(24 * time.Hour)
	assert.True(t, tok.GetAllowedSaleLimit(alice).Eq(kpx("50000")))
	require.NoError(t, tok.Transfer(alice, pair, kpx("9999")))

	// the founder is never limited
	require.NoError(t, tok.Transfer(access.Founder, pair, kpx("1000000")))
}

func TestSaleLimitAppliesToTransferFrom(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "60000")
	require.NoError(t, tok.Approve(alice, bob, kpx("60000")))

	err := tok.TransferFrom(bob, alice, pair, kpx("50001"))
	assert.True(t, errors.Is(err, library.ErrSaleLimitExceeded))
	assert.True(t, tok.Allowance(alice, bob).Eq(kpx("60000")))
	require.NoError(t, tok.TransferFrom(bob, alice, pair, kpx("50000")))
	assert.True(t, tok.GetAllowedSaleLimit(alice).IsZero())
	assert.True(t, tok.GetAllowedSaleLimit(bob).Eq(kpx("50000")))
}

func TestSetPairAddress(t *testing.T) {
	tok, _, rec := newTestToken(t)

	err := tok.SetPairAddress(alice, library.ZeroAccount)
	assert.True(t, errors.Is(err, library.ErrUnauthorized))
	assert.Equal(t, "Only founder can set pair address", library.ErrUnauthorized.Error())
	err = tok.SetPairAddress(access.Founder, library.ZeroAccount)
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	err = tok.SetPairAddress(access.Founder, library.StakingVault)
	assert.True(t, errors.Is(err, library.ErrInvalidAddress))
	assert.Equal(t, library.Account(pair), tok.PairAddress())

	require.NoError(t, tok.SetPairAddress(access.Founder, carol))
	assert.Equal(t, library.Account(carol), tok.PairAddress())
	require.Equal(t, []library.NotificationKind{library.PairAddressChanged}, rec.kinds())
	assert.Equal(t, library.Account(pair), rec.notes[0].Old)
	assert.Equal(t, library.Account(carol), rec.notes[0].New)

	// sales now target the new pair
	fund(t, tok, alice, "120000")
	require.NoError(t, tok.Transfer(alice, pair, kpx("60000")))
	assert.True(t, errors.Is(tok.Transfer(alice, carol, kpx("50001")), library.ErrSaleLimitExceeded))
}

func TestDepositLiquidity(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "100000")

	require.NoError(t, tok.DepositLiquidity(alice, kpx("60000")))
	assert.True(t, tok.BalanceOf(pair).Eq(kpx("60000")))
	assert.True(t, tok.LiquidityOf(alice).Eq(kpx("60000")))
	assert.True(t, tok.TotalLiquidity().Eq(kpx("60000")))
	assert.True(t, tok.GetAllowedSaleLimit(alice).Eq(kpx("50000")))

	err := tok.DepositLiquidity(alice, kpx("40001"))
	assert.True(t, errors.Is(err, library.ErrInsufficientBalance))

	clock.Advance(30 * 24 * time.Hour)
	require.NoError(t, tok.DepositLiquidity(alice, kpx("10000")))
	assert.True(t, tok.LiquidityOf(alice).Eq(kpx("69800")))
	assert.True(t, tok.TotalSupply().Eq(kpx("18499800")))
	assert.Equal(t, []library.NotificationKind{library.RebaseApplied}, rec.kinds())
	assert.True(t, tok.Conserved())
}

func TestFailedOperationsLeaveNoTrace(t *testing.T) {
	tok, clock, rec := newTestToken(t)
	fund(t, tok, alice, "100")
	require.NoError(t, tok.Stake(alice, kpx("50")))
	clock.Advance(40 * 24 * time.Hour)
	hash := tok.StateHash()
	before := tok.Snapshot()

	assert.Error(t, tok.Transfer(alice, bob, kpx("51")))
	assert.Error(t, tok.Unstake(alice, kpx("51")))
	assert.Error(t, tok.Stake(alice, kpx("51")))
	assert.Error(t, tok.TransferFrom(bob, alice, carol, kpx("1")))
	assert.Error(t, tok.SetPairAddress(bob, carol))
	assert.Error(t, tok.Transfer(library.StakingVault, bob, kpx("1")))

	assert.Equal(t, hash, tok.StateHash())
	assert.Equal(t, before, tok.Snapshot())
	fails := 0
	for _, n := range rec.fails {
		fails += n
	}
	assert.Equal(t, 6, fails)
	assert.Empty(t, rec.kinds())
}

func TestJournalAdvancesOnCommit(t *testing.T) {
	tok, _, rec := newTestToken(t)
	head := tok.JournalHead(alice)
	fund(t, tok, alice, "10")
	assert.Equal(t, head, tok.JournalHead(alice))
	assert.NotEqual(t, head, tok.JournalHead(access.Founder))

	hash := tok.StateHash()
	require.NoError(t, tok.Approve(alice, bob, kpx("1")))
	assert.NotEqual(t, head, tok.JournalHead(alice))
	assert.NotEqual(t, hash, tok.StateHash())
	assert.Equal(t, 1, rec.ops["approve"])
	assert.Equal(t, 1, rec.ops["transfer"])
}

func TestSameOperationsSameStateHash(t *testing.T) {
	a, clockA, _ := newTestToken(t)
	b, clockB, _ := newTestToken(t)
	for _, e := range []struct {
		tok   *Token
		clock *library.ManualClock
	}{{a, clockA}, {b, clockB}} {
		fund(t, e.tok, alice, "1000")
		require.NoError(t, e.tok.Stake(alice, kpx("400")))
		e.clock.Advance(35 * 24 * time.Hour)
		require.NoError(t, e.tok.Unstake(alice, kpx("100")))
	}
	assert.Equal(t, a.StateHash(), b.StateHash())
}

func TestSnapshotRoundTrip(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	fund(t, tok, alice, "100000")
	require.NoError(t, tok.Approve(alice, bob, kpx("12.5")))
	require.NoError(t, tok.Stake(alice, kpx("1000")))
	require.NoError(t, tok.Transfer(alice, pair, kpx("1000")))
	require.NoError(t, tok.DepositLiquidity(alice, kpx("500")))
	clock.Advance(time.Hour)

	b, err := json.Marshal(tok.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(b, &snap))

	restored, err := New(carol, WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, tok.StateHash(), restored.StateHash())
	assert.Equal(t, tok.PairAddress(), restored.PairAddress())
	assert.True(t, restored.TotalSupply().Eq(tok.TotalSupply()))
	assert.True(t, restored.Allowance(alice, bob).Eq(kpx("12.5")))
	assert.True(t, restored.TotalStaked().Eq(kpx("1000")))
	assert.True(t, restored.GetAllowedSaleLimit(alice).Eq(kpx("49000")))
	assert.True(t, restored.LiquidityOf(alice).Eq(kpx("500")))
	assert.True(t, restored.CalculateStakingReward(alice).Eq(tok.CalculateStakingReward(alice)))
	assert.True(t, restored.LastRebaseTime().Equal(tok.LastRebaseTime()))
	assert.Equal(t, tok.Accounts(), restored.Accounts())
	assert.True(t, restored.Conserved())
}

func TestRestoreRejectsBrokenState(t *testing.T) {
	tok, _, _ := newTestToken(t)
	fund(t, tok, alice, "1000")
	require.NoError(t, tok.Stake(alice, kpx("100")))
	hash := tok.StateHash()

	broken := tok.Snapshot()
	broken.Balances[alice] = kpx("901").Dec()
	assert.True(t, errors.Is(tok.Restore(broken), library.ErrCorruptSnapshot))

	broken = tok.Snapshot()
	broken.Stakes[alice] = StakeSnapshot{Amount: kpx("99").Dec(), StartTime: start, LastClaimTime: start}
	assert.True(t, errors.Is(tok.Restore(broken), library.ErrCorruptSnapshot))

	broken = tok.Snapshot()
	broken.Pair = library.ZeroAccount
	assert.True(t, errors.Is(tok.Restore(broken), library.ErrCorruptSnapshot))

	broken = tok.Snapshot()
	broken.TotalSupply = "lots"
	assert.True(t, errors.Is(tok.Restore(broken), library.ErrCorruptSnapshot))

	broken = tok.Snapshot()
	broken.Version = 7
	assert.True(t, errors.Is(tok.Restore(broken), library.ErrCorruptSnapshot))

	assert.Equal(t, hash, tok.StateHash())
	assert.True(t, tok.TotalStaked().Eq(kpx("100")))
}

func TestAPRDeclinesAboveKink(t *testing.T) {
	tok, _, _ := newTestToken(t)
	require.NoError(t, tok.Stake(access.Founder, kpx("9250000")))
	assert.Equal(t, uint64(10), tok.CalculateAPR())
	require.NoError(t, tok.Stake(access.Founder, kpx("5190000")))
	// 14,440,000 of 18,500,000 staked is 7805 bps
	assert.Equal(t, uint64(7), tok.CalculateAPR())
	assert.LessOrEqual(t, tok.CalculateAPR(), tok.MaxAPR())
}

func TestConcurrentOperationsConserveSupply(t *testing.T) {
	tok, clock, _ := newTestToken(t)
	holders := []string{alice, bob, carol}
	for _, h := range holders {
		fund(t, tok, h, "10000")
	}
	clock.Advance(31 * 24 * time.Hour)

	var wg sync.WaitGroup
	for i, h := range holders {
		wg.Add(1)
		go func(i int, h string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = tok.Transfer(h, holders[(i+1)%len(holders)], kpx("3"))
				_ = tok.Transfer(h, pair, kpx("1"))
				_ = tok.Stake(h, kpx("2"))
				_, _ = tok.ClaimStakingReward(h)
				assert.True(t, tok.Conserved())
			}
		}(i, h)
	}
	wg.Wait()
	assert.True(t, tok.Conserved())
	assert.True(t, tok.BalanceOf(library.StakingVault).Eq(tok.TotalStaked()))
}
