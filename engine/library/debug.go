package library

import (
	"github.com/sasha-s/go-deadlock"
)

// ValidateSaneExecutionTime returns a func to call once the guarded work is done. If the work
// outlives deadlock.Opts.DeadlockTimeout, go-deadlock reports it with both stacks.
func ValidateSaneExecutionTime() func() {
	mu := &deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return mu.Unlock
}
