package relays

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"collective/engine/library"
)

// Cache remembers every event received so that an event seen on several relays is only
// passed on once.
type Cache struct {
	data  map[library.Sha256]nostr.Event
	mutex *deadlock.Mutex
}

func NewCache() *Cache {
	return &Cache{data: make(map[library.Sha256]nostr.Event), mutex: &deadlock.Mutex{}}
}

// Push stores the event and reports whether it was new.
func (c *Cache) Push(e nostr.Event) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.data[e.ID]; exists {
		return false
	}
	c.data[e.ID] = e
	return true
}

func (c *Cache) Fetch(id library.Sha256) (nostr.Event, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.data[id]
	return e, ok
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.data)
}
