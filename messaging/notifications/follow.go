package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"keeperx/engine/library"
)

// follower hands each decoded event to handle once, however many relays deliver it.
type follower struct {
	mu     *deadlock.Mutex
	seen   map[string]struct{}
	handle func(library.Notification)
}

func newFollower(handle func(library.Notification)) *follower {
	return &follower{mu: &deadlock.Mutex{}, seen: make(map[string]struct{}), handle: handle}
}

func (f *follower) deliver(e nostr.Event) {
	f.mu.Lock()
	_, dup := f.seen[e.ID]
	f.seen[e.ID] = struct{}{}
	f.mu.Unlock()
	if dup {
		return
	}
	n, err := Decode(e)
	if err != nil {
		library.LogCLI(err.Error(), 2)
		return
	}
	f.handle(n)
}

// Follow streams the notifications author publishes from now on into handle until ctx is done.
// handle is called from one goroutine per relay.
func Follow(ctx context.Context, relays []string, author string, handle func(library.Notification)) {
	since := nostr.Timestamp(time.Now().Unix())
	filters := nostr.Filters{
		nostr.Filter{
			Kinds:   []int{KindRewardClaimed, KindRebaseApplied, KindPairAddressChanged},
			Authors: []string{author},
			Since:   &since,
		}}
	f := newFollower(handle)
	wait := &deadlock.WaitGroup{}
	for _, url := range relays {
		wait.Add(1)
		go func(url string) {
			defer wait.Done()
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			sub, err := relay.Subscribe(ctx, filters)
			if err != nil {
				library.LogCLI(err.Error(), 1)
				return
			}
			defer sub.Close()
			for {
				select {
				case ev, ok := <-sub.Events:
					if !ok {
						return
					}
					f.deliver(*ev)
				case <-ctx.Done():
					return
				}
			}
		}(url)
	}
	wait.Wait()
}
