// Package blocks is the engine's clock. Time is the height of the highest block seen, so
// every node replaying the same command log reads the same time.
package blocks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"

	"collective/engine/library"
)

var (
	ErrNotHigher    = errors.New("block is not higher than the current tip")
	ErrUnauthorized = errors.New("account may not announce blocks")
	ErrMalformed    = errors.New("malformed block event")
)

type Chain struct {
	data       Mapped
	tip        Block
	authorized func(library.Account) bool
	mutex      *deadlock.Mutex
}

// NewChain accepts block announcements from accounts that authorized approves. A nil
// authorized accepts everyone.
func NewChain(authorized func(library.Account) bool) *Chain {
	return &Chain{
		data:       make(Mapped),
		authorized: authorized,
		mutex:      &deadlock.Mutex{},
	}
}

// Now is the current tip height.
func (c *Chain) Now() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.tip.Height
}

func (c *Chain) Tip() (Block, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.tip, c.tip.Height > 0
}

// Advance moves the tip forward. Heights never go backwards.
func (c *Chain) Advance(b Block) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.advance(b)
}

func (c *Chain) advance(b Block) error {
	if existing, exists := c.data[b.Height]; exists && existing.Hash == b.Hash {
		return fmt.Errorf("%w: we already have block %d", ErrNotHigher, b.Height)
	}
	if b.Height <= c.tip.Height {
		return fmt.Errorf("%w: %d is not above %d", ErrNotHigher, b.Height, c.tip.Height)
	}
	c.data[b.Height] = b
	c.tip = b
	return nil
}

func (c *Chain) HandleEvent(event nostr.Event) (Block, error) {
	if event.Kind != KindBlock {
		return Block{}, fmt.Errorf("%w: kind %d", ErrMalformed, event.Kind)
	}
	if c.authorized != nil && !c.authorized(event.PubKey) {
		return Block{}, fmt.Errorf("%w: %s", ErrUnauthorized, event.PubKey)
	}
	hash, ok := library.GetFirstTag(event, "hash")
	if !ok {
		return Block{}, fmt.Errorf("%w: failed to get block hash from event", ErrMalformed)
	}
	height, ok := library.GetUintTag(event, "height")
	if !ok {
		return Block{}, fmt.Errorf("%w: failed to get block height from event", ErrMalformed)
	}
	b := Block{Height: height, Hash: hash}
	if median, ok := library.GetFirstTag(event, "mediantime"); ok {
		seconds, err := strconv.ParseInt(median, 10, 64)
		if err != nil {
			return Block{}, fmt.Errorf("%w: mediantime %q", ErrMalformed, median)
		}
		b.MedianTime = time.Unix(seconds, 0).UTC()
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.advance(b); err != nil {
		return Block{}, err
	}
	return b, nil
}

func (c *Chain) GetMapped() Mapped {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return maps.Clone(c.data)
}

// Restore replaces the chain, taking the highest block as the tip.
func (c *Chain) Restore(m Mapped) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(Mapped, len(m))
	c.tip = Block{}
	for height, b := range m {
		c.data[height] = b
		if b.Height > c.tip.Height {
			c.tip = b
		}
	}
}
