// Package salelimit caps how much a non-founder may sell into the pair per period.
package salelimit

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"keeperx/engine/library"
)

// Window is one seller's running total for the current period.
type Window struct {
	Start time.Time
	Sold  *uint256.Int
}

// Guard is the sale policy plus the per-seller windows it enforces.
type Guard struct {
	Founder library.Account
	Cap     *uint256.Int
	Period  time.Duration
	windows map[library.Account]Window
}

func NewGuard(founder library.Account, cap *uint256.Int, period time.Duration) *Guard {
	return &Guard{
		Founder: founder,
		Cap:     cap.Clone(),
		Period:  period,
		windows: make(map[library.Account]Window),
	}
}

// current returns the seller's window as of now; an expired window reads as empty.
func (g *Guard) current(seller library.Account, now time.Time) (Window, bool) {
	w, ok := g.windows[seller]
	if !ok || !now.Before(w.Start.Add(g.Period)) {
		return Window{Sold: new(uint256.Int)}, false
	}
	return w, true
}

// Allowed returns how much seller may still sell in the current window. The founder is
// unbounded.
func (g *Guard) Allowed(seller library.Account, now time.Time) *uint256.Int {
	if seller == g.Founder {
		return new(uint256.Int).SetAllOne()
	}
	w, _ := g.current(seller, now)
	if w.Sold.Gt(g.Cap) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(g.Cap, w.Sold)
}

// Check validates a sale without recording it.
func (g *Guard) Check(seller library.Account, amount *uint256.Int, now time.Time) error {
	if allowed := g.Allowed(seller, now); amount.Gt(allowed) {
		return fmt.Errorf("%w: %s may sell %s more this period, tried %s", library.ErrSaleLimitExceeded, seller, allowed.Dec(), amount.Dec())
	}
	return nil
}

// Record adds a checked sale to the seller's window, opening a new window if the last expired.
func (g *Guard) Record(seller library.Account, amount *uint256.Int, now time.Time) {
	if seller == g.Founder {
		return
	}
	w, open := g.current(seller, now)
	if !open {
		w.Start = now
	}
	w.Sold = new(uint256.Int).Add(w.Sold, amount)
	g.windows[seller] = w
}

type Mapped map[library.Account]Window

func (g *Guard) GetMapped() Mapped {
	m := make(Mapped, len(g.windows))
	for seller, w := range g.windows {
		m[seller] = Window{Start: w.Start, Sold: w.Sold.Clone()}
	}
	return m
}

// Restore replaces the windows.
func (g *Guard) Restore(m Mapped) {
	g.windows = make(map[library.Account]Window, len(m))
	for seller, w := range m {
		if w.Sold == nil {
			continue
		}
		g.windows[seller] = Window{Start: w.Start, Sold: w.Sold.Clone()}
	}
}
