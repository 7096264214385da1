package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"

	"collective/engine/actors"
	"collective/engine/library"
	"collective/messaging/blocks"
	"collective/messaging/eventconductor"
	"collective/state/custody"
	"collective/state/identity"
	"collective/state/membership"
	"collective/state/replay"
	"collective/state/snapshot"
)

type node struct {
	custody   *custody.Ledger
	chain     *blocks.Chain
	engine    *membership.Engine
	guard     *replay.Guard
	conductor *eventconductor.Conductor
	store     *snapshot.Store
}

// openNode builds the state machines and resumes from the latest checkpoint, or founds the
// collective from the genesis config if there is none.
func openNode(conf *viper.Viper) (*node, error) {
	governance, err := actors.MembershipConfig(conf)
	if err != nil {
		return nil, err
	}
	n := &node{custody: custody.NewLedger(), guard: replay.NewGuard()}
	authorities := conf.GetStringSlice("blockAuthorities")
	var authorized func(library.Account) bool
	if len(authorities) > 0 {
		authorized = func(account library.Account) bool {
			return slices.Contains(authorities, account)
		}
	}
	n.chain = blocks.NewChain(authorized)
	n.engine, err = membership.New(governance, n.custody, n.chain, conf.GetString("treasuryAccount"))
	if err != nil {
		return nil, err
	}
	n.engine.OnAdmitted(func(p membership.Proposal, m identity.Member) {
		library.LogCLI(fmt.Sprintf("%s is member number %d, admitted by proposal %d", m.Account, m.Order, p.Index), 4)
	})
	n.engine.OnRejected(func(p membership.Proposal) {
		library.LogCLI(fmt.Sprintf("proposal %d from %s was rejected", p.Index, p.Applicant), 4)
	})
	n.conductor = eventconductor.New(n.engine, n.chain, n.guard, conf.GetBool("verifySignatures"))
	n.store, err = snapshot.Open(actors.Path(conf, "snapshotDb"))
	if err != nil {
		return nil, err
	}
	latest, ok, err := n.store.Latest()
	if err != nil {
		n.store.Close()
		return nil, err
	}
	if ok {
		if err := latest.Apply(n.parts()); err != nil {
			n.store.Close()
			return nil, err
		}
		library.LogCLI(fmt.Sprintf("resumed from checkpoint %s at height %d", latest.Hash(), latest.Height), 4)
		return n, nil
	}
	if err := n.found(conf); err != nil {
		n.store.Close()
		return nil, err
	}
	return n, nil
}

func (n *node) found(conf *viper.Viper) error {
	balances := make(map[string]uint64)
	if err := conf.UnmarshalKey("balances", &balances); err != nil {
		return fmt.Errorf("balances config: %w", err)
	}
	for account, amount := range balances {
		if err := n.custody.Fund(account, amount); err != nil {
			return err
		}
	}
	founders, err := actors.Genesis(conf)
	if err != nil {
		return err
	}
	if len(founders) == 0 {
		library.LogCLI("no genesis members are configured, nobody can sponsor an application", 2)
		return nil
	}
	for _, f := range founders {
		if err := n.custody.Fund(f.Account, f.Capital); err != nil {
			return err
		}
	}
	return n.engine.Found(founders)
}

func (n *node) parts() snapshot.Parts {
	return snapshot.Parts{Engine: n.engine, Custody: n.custody, Guard: n.guard, Chain: n.chain}
}

func (n *node) checkpoint() (snapshot.Checkpoint, library.Sha256, error) {
	c := snapshot.Capture(n.parts())
	hash, err := n.store.Save(c)
	return c, hash, err
}

// export writes the state as flat json files under the data dir.
func (n *node) export() error {
	for db, v := range map[string]any{
		"proposals": n.engine.Proposals(),
		"members":   n.engine.Members(),
		"captable":  n.engine.CapTable(),
		"treasury":  n.engine.CollateralizationRatio(),
	} {
		if err := actors.WriteJSON("membership", db, v); err != nil {
			return err
		}
	}
	if err := actors.WriteJSON("custody", "balances", n.custody.GetMapped()); err != nil {
		return err
	}
	return actors.WriteJSON("replay", "last", n.guard.GetMap())
}

func (n *node) close() {
	if err := n.store.Close(); err != nil {
		library.LogCLI(err.Error(), 2)
	}
}

// readEvents parses a log with one json event per line. Blank lines are skipped.
func readEvents(r io.Reader) ([]nostr.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var events []nostr.Event
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var e nostr.Event
		if err := json.Unmarshal(b, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}

func readEventFile(path string) ([]nostr.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readEvents(f)
}
