package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keeperx/engine/library"
)

// Fetch collects the notification events signed by author from every relay, waiting at most
// timeout per relay, and returns the ones that decode, oldest first.
func Fetch(relays []string, author string, timeout time.Duration) []library.Notification {
	sane := library.ValidateSaneExecutionTime()
	defer sane()
	events := make(map[string]nostr.Event)
	eventsMu := &deadlock.Mutex{}
	filters := nostr.Filters{
		nostr.Filter{
			Kinds:   []int{KindRewardClaimed, KindRebaseApplied, KindPairAddressChanged},
			Authors: []string{author},
		}}
	wait := &deadlock.WaitGroup{}
	for _, url := range relays {
		wait.Add(1)
		go func(url string) {
			defer wait.Done()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
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
					eventsMu.Lock()
					events[ev.ID] = *ev
					eventsMu.Unlock()
				case <-ctx.Done():
					return
				}
			}
		}(url)
	}
	wait.Wait()
	return decodeAll(maps.Values(events))
}

func decodeAll(events []nostr.Event) (notes []library.Notification) {
	slices.SortFunc(events, func(a, b nostr.Event) bool {
		if a.CreatedAt == b.CreatedAt {
			return a.ID < b.ID
		}
		return a.CreatedAt < b.CreatedAt
	})
	for _, e := range events {
		n, err := Decode(e)
		if err != nil {
			library.LogCLI(err.Error(), 2)
			continue
		}
		notes = append(notes, n)
	}
	return
}
