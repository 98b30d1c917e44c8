// Package rebase decides when a pair-routed transfer burns part of its amount.
package rebase

import (
	"time"

	"github.com/holiman/uint256"
)

const bpsBase = 10_000

// Engine is the burn policy. It holds no state; the last rebase time lives with the token.
type Engine struct {
	Interval time.Duration
	BurnBPS  uint64
}

// Decision is the outcome of evaluating one operation.
type Decision struct {
	// Due is true when the interval has elapsed and the operation routes through the pair.
	Due bool
	// Burn is the part of the transfer amount destroyed. A due decision with a zero burn is
	// not applied.
	Burn *uint256.Int
}

// Apply reports whether the decision changes supply.
func (d Decision) Apply() bool {
	return d.Due && d.Burn != nil && !d.Burn.IsZero()
}

// Evaluate is a pure function of the stored rebase time and now.
func (e Engine) Evaluate(now, lastRebase time.Time, routedThroughPair bool, amount *uint256.Int) Decision {
	d := Decision{Burn: new(uint256.Int)}
	if !routedThroughPair || now.Sub(lastRebase) < e.Interval {
		return d
	}
	d.Due = true
	d.Burn = BurnFor(amount, e.BurnBPS)
	return d
}

// BurnFor returns amount * bps / 10000 without intermediate overflow.
func BurnFor(amount *uint256.Int, bps uint64) *uint256.Int {
	if bps > bpsBase {
		bps = bpsBase
	}
	burn, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(bps), uint256.NewInt(bpsBase))
	return burn
}

// NextDue returns the earliest time a pair-routed transfer can trigger a rebase.
func (e Engine) NextDue(lastRebase time.Time) time.Time {
	return lastRebase.Add(e.Interval)
}
