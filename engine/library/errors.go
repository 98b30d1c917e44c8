package library

import "errors"

// Rejections returned by the engine. Messages are stable; callers compare with errors.Is.
var (
	ErrInvalidAddress        = errors.New("Invalid address")
	ErrUnauthorized          = errors.New("Only founder can set pair address")
	ErrZeroStake             = errors.New("Cannot stake zero")
	ErrInsufficientBalance   = errors.New("Insufficient balance")
	ErrInsufficientAllowance = errors.New("Insufficient allowance")
	ErrExceedsStaked         = errors.New("Unstake amount exceeds staked amount")
	ErrLockPeriodActive      = errors.New("Lock period not over")
	ErrSaleLimitExceeded     = errors.New("Sale limit exceeded")
	ErrNothingToClaim        = errors.New("No reward to claim")
	ErrSupplyOverflow        = errors.New("Supply overflow")
	ErrCorruptSnapshot       = errors.New("Corrupt snapshot")
)
