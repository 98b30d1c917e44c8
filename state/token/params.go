package token

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
)

const day = 24 * time.Hour

// Params are the policy knobs of the engine. DefaultParams matches the deployed token.
type Params struct {
	RebaseInterval     time.Duration
	RebaseBurnBPS      uint64
	MinLockPeriod      time.Duration
	SaleCap            *uint256.Int
	SalePeriod         time.Duration
	BaseAPR            uint64
	FloorAPR           uint64
	UtilizationKinkBPS uint64
}

func DefaultParams() Params {
	return Params{
		RebaseInterval:     30 * day,
		RebaseBurnBPS:      200,
		MinLockPeriod:      30 * day,
		SaleCap:            library.MustParseUnits("50000"),
		SalePeriod:         day,
		BaseAPR:            10,
		FloorAPR:           4,
		UtilizationKinkBPS: 5000,
	}
}

func (p Params) Validate() error {
	switch {
	case p.RebaseInterval < 0:
		return fmt.Errorf("rebase interval %s is negative", p.RebaseInterval)
	case p.RebaseBurnBPS > 10_000:
		return fmt.Errorf("rebase burn of %d bps exceeds 10000", p.RebaseBurnBPS)
	case p.MinLockPeriod < 0:
		return fmt.Errorf("lock period %s is negative", p.MinLockPeriod)
	case p.SaleCap == nil:
		return fmt.Errorf("sale cap is not set")
	case p.SalePeriod <= 0:
		return fmt.Errorf("sale period %s must be positive", p.SalePeriod)
	case p.FloorAPR > p.BaseAPR:
		return fmt.Errorf("floor APR %d exceeds base APR %d", p.FloorAPR, p.BaseAPR)
	case p.UtilizationKinkBPS > 10_000:
		return fmt.Errorf("utilization kink of %d bps exceeds 10000", p.UtilizationKinkBPS)
	}
	return nil
}
