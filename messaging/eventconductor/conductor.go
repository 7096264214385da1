// Package eventconductor feeds command events to the state machines in arrival order.
package eventconductor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"

	"collective/engine/library"
	"collective/messaging/blocks"
	"collective/state/membership"
	"collective/state/replay"
)

var (
	ErrBadSignature = errors.New("event signature is invalid")
	ErrUnknownKind  = errors.New("no handler for event kind")
)

// Result is what applying one event did. Err is set when the event was refused.
type Result struct {
	Event   library.Sha256     `json:"event"`
	Kind    int                `json:"kind"`
	Outcome membership.Outcome `json:"outcome,omitempty"`
	Block   *blocks.Block      `json:"block,omitempty"`
	Expired []uint64           `json:"expired,omitempty"`
	Err     error              `json:"-"`
}

type Conductor struct {
	engine *membership.Engine
	chain  *blocks.Chain
	guard  *replay.Guard
	stack  *library.Stack
	verify bool
	mutex  *deadlock.Mutex // guards stack
	apply  *deadlock.Mutex // held for the whole of Apply
}

// New returns a conductor. With verify set, events whose ID or signature do not check out
// are refused before anything else looks at them.
func New(engine *membership.Engine, chain *blocks.Chain, guard *replay.Guard, verify bool) *Conductor {
	return &Conductor{
		engine: engine,
		chain:  chain,
		guard:  guard,
		stack:  library.NewEventStack(16),
		verify: verify,
		mutex:  &deadlock.Mutex{},
		apply:  &deadlock.Mutex{},
	}
}

// Push queues an event for the next Drain.
func (c *Conductor) Push(event nostr.Event) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.stack.Push(&event)
}

func (c *Conductor) Pending() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stack.Len()
}

// Drain applies every queued event in the order they were pushed.
func (c *Conductor) Drain() []Result {
	var results []Result
	for {
		c.mutex.Lock()
		event, ok := c.stack.Pop()
		c.mutex.Unlock()
		if !ok {
			return results
		}
		results = append(results, c.Apply(*event))
	}
}

// Apply runs one event. Events refused by the domain are still marked as applied so they
// cannot be replayed. Events that fail authentication, replay protection or routing are not.
func (c *Conductor) Apply(event nostr.Event) (r Result) {
	c.apply.Lock()
	defer c.apply.Unlock()
	done := library.ValidateSaneExecutionTime()
	defer done()
	r = Result{Event: event.ID, Kind: event.Kind}
	defer func() {
		if r.Err != nil {
			level := 1
			if membership.IsRecoverable(r.Err) || errors.Is(r.Err, blocks.ErrNotHigher) ||
				errors.Is(r.Err, replay.ErrReplay) {
				level = 3
			}
			library.LogCLI(fmt.Sprintf("event %s refused: %s", event.ID, r.Err), level)
		}
	}()
	if c.verify {
		if err := checkSignature(event); err != nil {
			r.Err = err
			return
		}
	}
	if err := c.guard.Check(event); err != nil {
		r.Err = err
		return
	}
	switch {
	case event.Kind == blocks.KindBlock:
		b, err := c.chain.HandleEvent(event)
		if err != nil {
			r.Err = err
			if !errors.Is(err, blocks.ErrNotHigher) {
				return
			}
			break
		}
		r.Block = &b
		r.Expired = c.engine.ExpireProposals(b.Height)
	case membership.HandlesKind(event.Kind):
		r.Outcome, r.Err = c.engine.HandleEvent(event)
	default:
		r.Err = fmt.Errorf("%w: %d", ErrUnknownKind, event.Kind)
		return
	}
	c.guard.Commit(event)
	return
}

func checkSignature(event nostr.Event) error {
	if event.GetID() != event.ID {
		return fmt.Errorf("%w: id does not match content", ErrBadSignature)
	}
	ok, err := event.CheckSignature()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadSignature, err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

// Run applies events from the channel until it closes, the context is cancelled or
// terminate is closed. Each result is sent on results if it is not nil.
func (c *Conductor) Run(ctx context.Context, terminate <-chan struct{}, events <-chan nostr.Event, results chan<- Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-terminate:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.Push(event)
			for _, r := range c.Drain() {
				if results == nil {
					continue
				}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}
