// Package replay makes sure each command event is applied at most once. Accounts may also
// chain their commands by tagging each with ["r", <id of their previous command>], in which
// case a command that does not extend the chain is refused.
package replay

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"collective/engine/library"
)

var (
	ErrReplay      = errors.New("event has already been applied")
	ErrBrokenChain = errors.New("event does not follow the account's previous command")
)

// Mapped is the last applied command of every account.
type Mapped map[library.Account]library.Sha256

type State struct {
	Last    Mapped           `json:"last"`
	Applied []library.Sha256 `json:"applied"`
}

type Guard struct {
	last    map[library.Account]library.Sha256
	applied map[library.Sha256]struct{}
	mutex   *deadlock.Mutex
}

func NewGuard() *Guard {
	return &Guard{
		last:    make(map[library.Account]library.Sha256),
		applied: make(map[library.Sha256]struct{}),
		mutex:   &deadlock.Mutex{},
	}
}

// Check reports whether the event may be applied.
func (g *Guard) Check(event nostr.Event) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if _, done := g.applied[event.ID]; done {
		return fmt.Errorf("%w: %s", ErrReplay, event.ID)
	}
	if claimed, ok := library.GetFirstTag(event, "r"); ok {
		if claimed != g.last[event.PubKey] {
			return fmt.Errorf("%w: %s claims %s", ErrBrokenChain, event.ID, claimed)
		}
	}
	return nil
}

// Commit marks the event as applied, whatever its outcome was.
func (g *Guard) Commit(event nostr.Event) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.applied[event.ID] = struct{}{}
	g.last[event.PubKey] = event.ID
}

// Applied reports whether an event with this ID has been committed.
func (g *Guard) Applied(id library.Sha256) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	_, done := g.applied[id]
	return done
}

func (g *Guard) GetCurrentHashForAccount(account library.Account) library.Sha256 {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.last[account]
}

func (g *Guard) GetMap() Mapped {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return maps.Clone(g.last)
}

func (g *Guard) Snapshot() State {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	applied := maps.Keys(g.applied)
	slices.Sort(applied)
	return State{Last: maps.Clone(g.last), Applied: applied}
}

func (g *Guard) Restore(s State) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.last = make(map[library.Account]library.Sha256, len(s.Last))
	maps.Copy(g.last, s.Last)
	g.applied = make(map[library.Sha256]struct{}, len(s.Applied))
	for _, id := range s.Applied {
		g.applied[id] = struct{}{}
	}
}

// GetStateHash commits to the last command of every account, in account order.
func (g *Guard) GetStateHash() library.Sha256 {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	accounts := maps.Keys(g.last)
	slices.Sort(accounts)
	b := bytes.Buffer{}
	for _, account := range accounts {
		decoded, err := hex.DecodeString(g.last[account])
		if err != nil {
			library.LogCLI(err, 1)
			decoded = []byte(g.last[account])
		}
		b.Write(decoded)
	}
	return library.Sha256Sum(b.Bytes())
}
