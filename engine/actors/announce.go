package actors

import (
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"collective/engine/library"
)

// KindStateAnnouncement publishes the hash of our checkpoint at a height so other nodes can
// compare it with their own.
const KindStateAnnouncement = 10311

func StateAnnouncement(hash library.Sha256, height uint64) (nostr.Event, error) {
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      KindStateAnnouncement,
		Tags:      nostr.Tags{nostr.Tag{"height", strconv.FormatUint(height, 10)}, nostr.Tag{"hash", hash}},
		Content:   hash,
	}
	if err := SignEvent(&e); err != nil {
		return nostr.Event{}, err
	}
	return e, nil
}
