package staking

import (
	"time"

	"github.com/holiman/uint256"
)

// YearSeconds is the accrual year used by the reward formula.
const YearSeconds = 365 * 24 * 60 * 60

// StakeRecord is one address's locked position. Amount is never zero while the record exists.
type StakeRecord struct {
	Amount        *uint256.Int
	StartTime     time.Time
	LastClaimTime time.Time
}

func (s StakeRecord) clone() StakeRecord {
	c := s
	if s.Amount != nil {
		c.Amount = s.Amount.Clone()
	} else {
		c.Amount = new(uint256.Int)
	}
	return c
}

// Active reports whether the record holds a stake.
func (s StakeRecord) Active() bool {
	return s.Amount != nil && !s.Amount.IsZero()
}
