package main

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"keeperx/engine/actors"
	"keeperx/engine/library"
	"keeperx/engine/metrics"
	"keeperx/messaging/notifications"
	"keeperx/state/token"
)

// session is one command's engine: the persisted state plus the conductor that signs its
// notifications and the collector that counts its operations.
type session struct {
	tok       *token.Token
	conductor *notifications.Conductor
	collector *metrics.Collector
	signed    <-chan nostr.Event
	stop      func()
	events    []nostr.Event
}

func openSession() (*session, error) {
	conf := actors.MakeOrGetConfig()
	wallet, err := actors.MyWallet()
	if err != nil {
		return nil, err
	}
	s := &session{
		conductor: notifications.New(wallet, conf.GetStringSlice("relays"), !conf.GetBool("doNotPublish")),
		collector: metrics.NewCollector("keeperx"),
	}
	s.signed, s.stop = s.conductor.Subscribe(16)
	s.tok, err = loadToken(token.WithSink(s.conductor), token.WithSink(s.collector), token.WithObserver(s.collector))
	if err != nil {
		s.stop()
		return nil, err
	}
	s.collector.SetTotalSupply(s.tok.TotalSupply().Dec())
	return s, nil
}

// commit runs fn and, when it succeeds, persists the new state before any of its events are
// published. Relays never see an event for state that was not saved.
func (s *session) commit(fn func(tok *token.Token) error) error {
	err := fn(s.tok)
	if err == nil {
		err = persist(s.tok)
	}
	if err == nil {
		s.conductor.Flush()
	} else {
		s.conductor.Drain()
	}
	s.stop()
	for e := range s.signed {
		if err == nil {
			s.events = append(s.events, e)
		}
	}
	s.pushMetrics()
	return err
}

func (s *session) pushMetrics() {
	url := actors.MakeOrGetConfig().GetString("pushgatewayURL")
	if url == "" {
		return
	}
	if err := s.collector.Push(url, "keeperx_cli"); err != nil {
		library.LogCLI(fmt.Sprintf("could not push metrics to %s: %s", url, err), 2)
	}
}

// withToken loads the engine, runs fn, persists the result and publishes the signed
// notifications fn produced.
func withToken(fn func(tok *token.Token) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if err = s.commit(fn); err != nil {
		return err
	}
	for _, e := range s.events {
		fmt.Printf("signed event %s: %s\n", e.ID, e.Content)
	}
	return nil
}
