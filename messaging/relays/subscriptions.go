// Package relays receives command events from nostr relays.
package relays

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"collective/engine/library"
)

// Subscribe streams every event of the given kinds from every relay into out, once each,
// until ctx is done. The returned func blocks until every relay goroutine has stopped.
func Subscribe(ctx context.Context, urls []string, kinds []int, cache *Cache, out chan<- nostr.Event) (wait func()) {
	wg := &sync.WaitGroup{}
	filters := nostr.Filters{nostr.Filter{Kinds: kinds}}
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			relay, err := nostr.RelayConnect(ctx, url)
			if err != nil {
				library.LogCLI(fmt.Sprintf("connecting to %s: %s", url, err), 2)
				return
			}
			defer relay.Close()
			sub, err := relay.Subscribe(ctx, filters)
			if err != nil {
				library.LogCLI(fmt.Sprintf("subscribing to %s: %s", url, err), 1)
				return
			}
			defer sub.Close()
			eose := sub.EndOfStoredEvents
			for {
				select {
				case <-ctx.Done():
					return
				case <-eose:
					eose = nil
					library.LogCLI(fmt.Sprintf("%s has sent all stored events", url), 4)
				case ev, ok := <-sub.Events:
					if !ok {
						return
					}
					if ev == nil || !cache.Push(*ev) {
						continue
					}
					select {
					case out <- *ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(url)
	}
	return wg.Wait
}
