package relays

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := NewCache()
	assert.True(t, c.Push(nostr.Event{ID: "a", Kind: 640800}))
	assert.False(t, c.Push(nostr.Event{ID: "a", Kind: 1}))
	assert.True(t, c.Push(nostr.Event{ID: "b"}))
	e, ok := c.Fetch("a")
	assert.True(t, ok)
	assert.Equal(t, 640800, e.Kind)
	_, ok = c.Fetch("c")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestSubscribeWithoutRelays(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wait := Subscribe(ctx, nil, []int{1}, NewCache(), make(chan nostr.Event))
	wait()
}
