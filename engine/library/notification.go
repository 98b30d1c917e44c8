package library

import (
	"time"

	"github.com/holiman/uint256"
)

type NotificationKind int

const (
	RewardClaimed NotificationKind = iota + 1
	RebaseApplied
	PairAddressChanged
)

func (k NotificationKind) String() string {
	switch k {
	case RewardClaimed:
		return "RewardClaimed"
	case RebaseApplied:
		return "RebaseApplied"
	case PairAddressChanged:
		return "PairAddressChanged"
	}
	return "Unknown"
}

// Notification is emitted by the engine after an operation has been committed.
//
// RewardClaimed: Account, Amount (reward), Supply (after the mint).
// RebaseApplied: Account (trigger), Amount (burned), Supply (after the burn).
// PairAddressChanged: Account (founder), Old, New.
type Notification struct {
	Kind    NotificationKind
	Account Account
	Amount  *uint256.Int
	Supply  *uint256.Int
	Old     Account
	New     Account
	At      time.Time
}

// Sink receives notifications. Implementations must not call back into the engine
// synchronously while holding their own locks.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }
