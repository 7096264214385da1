package actors

import "sync"

var terminateChan chan struct{}
var waitGroup = &sync.WaitGroup{}

func SetTerminateChan(term chan struct{}) {
	terminateChan = term
}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

// GetWaitGroup tracks the long running goroutines that must finish before we exit.
func GetWaitGroup() *sync.WaitGroup {
	return waitGroup
}
