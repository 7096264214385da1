// Package snapshot persists checkpoints of the whole state so a node can restart without
// replaying its command log from the beginning.
package snapshot

import (
	"fmt"

	"collective/engine/library"
	"collective/messaging/blocks"
	"collective/state/custody"
	"collective/state/membership"
	"collective/state/replay"
)

// Checkpoint is everything needed to resume at Height.
type Checkpoint struct {
	Height     uint64           `json:"height"`
	Membership membership.State `json:"membership"`
	Custody    custody.Mapped   `json:"custody"`
	Replay     replay.State     `json:"replay"`
	Blocks     blocks.Mapped    `json:"blocks"`
}

func (c Checkpoint) Hash() library.Sha256 {
	return library.Sha256Sum(c)
}

// Parts are the live state machines a checkpoint is taken from and restored into.
type Parts struct {
	Engine  *membership.Engine
	Custody *custody.Ledger
	Guard   *replay.Guard
	Chain   *blocks.Chain
}

func Capture(p Parts) Checkpoint {
	return Checkpoint{
		Height:     p.Chain.Now(),
		Membership: p.Engine.Snapshot(),
		Custody:    p.Custody.GetMapped(),
		Replay:     p.Guard.Snapshot(),
		Blocks:     p.Chain.GetMapped(),
	}
}

// Apply restores every part. The membership state is validated first so a corrupt
// checkpoint leaves the parts untouched.
func (c Checkpoint) Apply(p Parts) error {
	if err := p.Engine.Restore(c.Membership); err != nil {
		return fmt.Errorf("checkpoint at height %d: %w", c.Height, err)
	}
	p.Custody.Restore(c.Custody)
	p.Guard.Restore(c.Replay)
	p.Chain.Restore(c.Blocks)
	return nil
}
