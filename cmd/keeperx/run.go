package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/cobra"
	"keeperx/engine/actors"
	"keeperx/engine/library"
	"keeperx/engine/metrics"
	"keeperx/messaging/notifications"
	"keeperx/state/token"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the engine with the interactive state viewer",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEngine()
		},
	}
}

// view is the engine shown by run. Operations are committed by the one-shot commands, so run
// only reloads the persisted state and never writes it.
type view struct {
	mu     *deadlock.Mutex
	tok    *token.Token
	digest library.Sha256
}

func newView() (*view, error) {
	v := &view{mu: &deadlock.Mutex{}}
	if _, err := v.refresh(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *view) current() *token.Token {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tok
}

// refresh reloads the engine if the persisted state changed since the last load.
func (v *view) refresh() (bool, error) {
	digest, err := snapshotDigest()
	if err != nil {
		return false, err
	}
	v.mu.Lock()
	unchanged := v.tok != nil && digest == v.digest
	v.mu.Unlock()
	if unchanged {
		return false, nil
	}
	tok, err := loadToken()
	if err != nil {
		return false, err
	}
	v.mu.Lock()
	v.tok = tok
	v.digest = digest
	v.mu.Unlock()
	return true, nil
}

func snapshotDigest() (library.Sha256, error) {
	file, ok := actors.Open(mind, db)
	if !ok {
		return "", nil
	}
	defer file.Close()
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	return library.Sha256Sum(b), nil
}

func runEngine() error {
	conf := actors.MakeOrGetConfig()
	wallet, err := actors.MyWallet()
	if err != nil {
		return err
	}
	collector := metrics.NewCollector("keeperx")
	v, err := newView()
	if err != nil {
		return err
	}
	collector.SetTotalSupply(v.current().TotalSupply().Dec())

	refresh := time.Duration(conf.GetInt("refreshSeconds")) * time.Second
	if refresh <= 0 {
		refresh = 2 * time.Second
	}
	actors.GetWaitGroup().Add(1)
	go func() {
		defer actors.GetWaitGroup().Done()
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				changed, err := v.refresh()
				if err != nil {
					library.LogCLI(err.Error(), 1)
					continue
				}
				if changed {
					tok := v.current()
					collector.SetTotalSupply(tok.TotalSupply().Dec())
					library.LogCLI(fmt.Sprintf("state reloaded, hash %s", tok.StateHash()), 3)
				}
			case <-actors.GetTerminateChan():
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if relays := conf.GetStringSlice("relays"); len(relays) > 0 {
		actors.GetWaitGroup().Add(1)
		go func() {
			defer actors.GetWaitGroup().Done()
			notifications.Follow(ctx, relays, wallet.PubKey, func(n library.Notification) {
				collector.Notify(n)
				library.LogCLI(describe(n), 4)
			})
		}()
	}

	var server *http.Server
	if addr := conf.GetString("metricsAddr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				library.LogCLI(err.Error(), 1)
			}
		}()
		library.LogCLI(fmt.Sprintf("serving metrics on %s/metrics", addr), 4)
	}

	interrupt := make(chan struct{})
	go cliListener(v.current, interrupt)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-interrupt:
	case <-sigs:
	}

	if server != nil {
		_ = server.Close()
	}
	cancel()
	actors.Shutdown()
	library.LogCLI("engine stopped", 4)
	return nil
}
