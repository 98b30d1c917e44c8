package staking

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

const bpsBase = 10_000

// Policy holds the reward and lock parameters.
type Policy struct {
	// BaseAPR is paid while utilisation is at or below the kink. It is also the ceiling.
	BaseAPR uint64
	// FloorAPR is reached at 100% utilisation.
	FloorAPR uint64
	// UtilizationKinkBPS is the share of supply staked above which the APR starts to decline.
	UtilizationKinkBPS uint64
	MinLockPeriod      time.Duration
}

// MaxAPR is the upper bound of APR.
func (p Policy) MaxAPR() uint64 {
	return p.BaseAPR
}

// Utilization returns totalStaked / totalSupply in basis points, capped at 10000.
func Utilization(totalStaked, totalSupply *uint256.Int) uint64 {
	if totalSupply.IsZero() {
		return 0
	}
	u, overflow := new(uint256.Int).MulDivOverflow(totalStaked, uint256.NewInt(bpsBase), totalSupply)
	if overflow || !u.IsUint64() || u.Uint64() > bpsBase {
		return bpsBase
	}
	return u.Uint64()
}

// APR returns the annual rate in whole percent for the given staking state. It is the flat
// base rate up to the kink and then declines linearly to the floor.
func (p Policy) APR(totalStaked, totalSupply *uint256.Int) uint64 {
	floor := p.FloorAPR
	if floor > p.BaseAPR {
		floor = p.BaseAPR
	}
	u := Utilization(totalStaked, totalSupply)
	if u <= p.UtilizationKinkBPS || p.UtilizationKinkBPS >= bpsBase {
		return p.BaseAPR
	}
	span := p.BaseAPR - floor
	decline := span * (u - p.UtilizationKinkBPS) / (bpsBase - p.UtilizationKinkBPS)
	return p.BaseAPR - decline
}

// Reward is amount * apr * elapsedSeconds / YearSeconds / 100, linear, no compounding.
func Reward(amount *uint256.Int, apr uint64, elapsed time.Duration) *uint256.Int {
	secs := int64(elapsed / time.Second)
	if amount == nil || amount.IsZero() || apr == 0 || secs <= 0 {
		return new(uint256.Int)
	}
	r := new(big.Int).Mul(amount.ToBig(), new(big.Int).SetUint64(apr))
	r.Mul(r, big.NewInt(secs))
	r.Quo(r, big.NewInt(YearSeconds))
	r.Quo(r, big.NewInt(100))
	out, overflow := uint256.FromBig(r)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}
