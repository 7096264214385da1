package library

import (
	"github.com/sasha-s/go-deadlock"
)

// ValidateSaneExecutionTime returns a func that must be called when the work is done.
// If it is not called before the deadlock detector's timeout, the detector reports the stuck caller.
func ValidateSaneExecutionTime() func() {
	mu := deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return func() {
		mu.Unlock()
	}
}
