package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"keeperx/engine/actors"
	"keeperx/engine/library"
)

// Conductor signs engine notifications, hands them to local subscribers and queues them for
// the configured relays. Notify never blocks the engine.
type Conductor struct {
	mu          *deadlock.Mutex
	wallet      library.Wallet
	queue       *library.Stack[nostr.Event]
	subscribers map[int]chan nostr.Event
	nextID      int
	relays      []string
	publish     bool
	wake        chan struct{}
	started     bool
}

func New(wallet library.Wallet, relays []string, publish bool) *Conductor {
	return &Conductor{
		mu:          &deadlock.Mutex{},
		wallet:      wallet,
		queue:       library.NewStack[nostr.Event](8),
		subscribers: make(map[int]chan nostr.Event),
		relays:      relays,
		publish:     publish && len(relays) > 0,
		wake:        make(chan struct{}, 1),
	}
}

func (c *Conductor) Notify(n library.Notification) {
	e, err := Event(n, c.wallet)
	if err != nil {
		library.LogCLI(err.Error(), 1)
		return
	}
	c.mu.Lock()
	c.queue.Push(e)
	for id, sub := range c.subscribers {
		select {
		case sub <- e:
		default:
			library.LogCLI(fmt.Sprintf("subscriber %d is not keeping up, dropped event %s", id, e.ID), 2)
		}
	}
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel of every event signed from now on and a func to stop.
func (c *Conductor) Subscribe(buffer int) (<-chan nostr.Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	sub := make(chan nostr.Event, buffer)
	c.subscribers[id] = sub
	return sub, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(s)
		}
	}
}

// Drain empties the publish queue in the order events were signed.
func (c *Conductor) Drain() (events []nostr.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		e, ok := c.queue.Pop()
		if !ok {
			return
		}
		events = append(events, e)
	}
}

// Start runs the publisher until the engine shuts down. Without relays, or with publishing
// disabled, queued events are only logged.
func (c *Conductor) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	actors.GetWaitGroup().Add(1)
	go func() {
		defer actors.GetWaitGroup().Done()
		for {
			select {
			case <-c.wake:
				c.Flush()
			case <-actors.GetTerminateChan():
				c.Flush()
				return
			}
		}
	}()
}

// Flush publishes everything queued so far and returns once every relay has been tried.
func (c *Conductor) Flush() {
	events := c.Drain()
	if len(events) == 0 {
		return
	}
	if !c.publish {
		for _, e := range events {
			library.LogCLI(fmt.Sprintf("kind %d event %s not published: %s", e.Kind, e.ID, e.Content), 3)
		}
		return
	}
	PublishToRelays(events, c.relays)
}

// PublishToRelays sends events to every relay, one connection per relay.
func PublishToRelays(events []nostr.Event, relays []string) {
	wait := &deadlock.WaitGroup{}
	for _, relay := range relays {
		wait.Add(1)
		go func(url string) {
			defer wait.Done()
			sane := library.ValidateSaneExecutionTime()
			defer sane()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			r, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("could not connect to relay %s: %s", url, err), 2)
				return
			}
			defer r.Close()
			for _, event := range events {
				if _, err = r.Publish(ctx, event); err != nil {
					library.LogCLI(fmt.Sprintf("could not publish %s to relay %s: %s", event.ID, url, err), 2)
				}
			}
		}(relay)
	}
	wait.Wait()
}
