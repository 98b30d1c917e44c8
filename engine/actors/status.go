package actors

import (
	"sync"
)

var terminateChan = make(chan struct{})
var waitGroup = &sync.WaitGroup{}
var terminateOnce sync.Once

func GetTerminateChan() chan struct{} {
	return terminateChan
}

// GetWaitGroup is joined by every long running goroutine so shutdown can wait for them.
func GetWaitGroup() *sync.WaitGroup {
	return waitGroup
}

// Shutdown closes the terminate channel once and waits for registered goroutines.
func Shutdown() {
	terminateOnce.Do(func() {
		close(terminateChan)
	})
	waitGroup.Wait()
}
