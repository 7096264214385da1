package actors

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"collective/engine/library"
)

// PublishToRelays sends the event to every relay and returns how many accepted it.
func PublishToRelays(ctx context.Context, relays []string, event nostr.Event) (int, error) {
	var published int
	var lastErr error
	for _, url := range relays {
		relay, err := nostr.RelayConnect(ctx, url)
		if err != nil {
			library.LogCLI(fmt.Sprintf("connecting to %s: %s", url, err), 2)
			lastErr = err
			continue
		}
		_, err = relay.Publish(ctx, event)
		relay.Close()
		if err != nil {
			library.LogCLI(fmt.Sprintf("publishing %s to %s: %s", event.ID, url, err), 2)
			lastErr = err
			continue
		}
		published++
	}
	if published == 0 && lastErr != nil {
		return 0, lastErr
	}
	return published, nil
}
