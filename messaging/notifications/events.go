// Package notifications turns committed engine notifications into signed nostr events.
package notifications

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/nbd-wtf/go-nostr"
	"keeperx/engine/library"
)

const (
	KindRewardClaimed      = 640300
	KindRebaseApplied      = 640301
	KindPairAddressChanged = 640302
)

const (
	opClaimAmount  = "staking.claim.amount"
	opClaimSupply  = "staking.claim.supply"
	opRebaseBurned = "rebase.burned"
	opRebaseSupply = "rebase.supply"
	opPairOld      = "pair.old"
	opPairNew      = "pair.new"
)

func kindOf(k library.NotificationKind) (int, bool) {
	switch k {
	case library.RewardClaimed:
		return KindRewardClaimed, true
	case library.RebaseApplied:
		return KindRebaseApplied, true
	case library.PairAddressChanged:
		return KindPairAddressChanged, true
	}
	return 0, false
}

func dec(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.Dec()
}

// Event builds and signs the nostr event for n.
func Event(n library.Notification, wallet library.Wallet) (e nostr.Event, err error) {
	kind, ok := kindOf(n.Kind)
	if !ok {
		return e, fmt.Errorf("no event kind for notification %d", n.Kind)
	}
	tags := nostr.Tags{nostr.Tag{"account", n.Account}}
	var content string
	switch n.Kind {
	case library.RewardClaimed:
		tags = append(tags,
			nostr.Tag{"op", opClaimAmount, dec(n.Amount)},
			nostr.Tag{"op", opClaimSupply, dec(n.Supply)},
		)
		content = fmt.Sprintf("%s claimed %s KPX", n.Account, library.FormatUnits(n.Amount))
	case library.RebaseApplied:
		tags = append(tags,
			nostr.Tag{"op", opRebaseBurned, dec(n.Amount)},
			nostr.Tag{"op", opRebaseSupply, dec(n.Supply)},
		)
		content = fmt.Sprintf("rebase burned %s KPX, supply %s KPX", library.FormatUnits(n.Amount), library.FormatUnits(n.Supply))
	case library.PairAddressChanged:
		tags = append(tags,
			nostr.Tag{"op", opPairOld, n.Old},
			nostr.Tag{"op", opPairNew, n.New},
		)
		content = fmt.Sprintf("pair moved from %s to %s", n.Old, n.New)
	}
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	e = nostr.Event{
		PubKey:    wallet.PubKey,
		CreatedAt: nostr.Timestamp(at.Unix()),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	e.ID = e.GetID()
	if err = e.Sign(wallet.PrivateKey); err != nil {
		return e, fmt.Errorf("signing %s event: %w", n.Kind, err)
	}
	return e, nil
}

func amountTag(e nostr.Event, op string) (*uint256.Int, error) {
	v, ok := library.GetOpData(e, op)
	if !ok {
		return nil, fmt.Errorf("event %s has no %s tag", e.ID, op)
	}
	u, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("event %s tag %s: %w", e.ID, op, err)
	}
	return u, nil
}

// Decode checks the signature on e and recovers the notification it carries.
func Decode(e nostr.Event) (n library.Notification, err error) {
	ok, err := e.CheckSignature()
	if err != nil {
		return n, err
	}
	if !ok {
		return n, fmt.Errorf("event %s has an invalid signature", e.ID)
	}
	n.Account, _ = library.GetFirstTag(e, "account")
	n.At = time.Unix(int64(e.CreatedAt), 0)
	switch e.Kind {
	case KindRewardClaimed:
		n.Kind = library.RewardClaimed
		if n.Amount, err = amountTag(e, opClaimAmount); err == nil {
			n.Supply, err = amountTag(e, opClaimSupply)
		}
	case KindRebaseApplied:
		n.Kind = library.RebaseApplied
		if n.Amount, err = amountTag(e, opRebaseBurned); err == nil {
			n.Supply, err = amountTag(e, opRebaseSupply)
		}
	case KindPairAddressChanged:
		n.Kind = library.PairAddressChanged
		n.Old, _ = library.GetOpData(e, opPairOld)
		n.New, _ = library.GetOpData(e, opPairNew)
	default:
		err = fmt.Errorf("event %s has unknown kind %d", e.ID, e.Kind)
	}
	return n, err
}
