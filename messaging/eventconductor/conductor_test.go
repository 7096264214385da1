package eventconductor

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collective/messaging/blocks"
	"collective/state/custody"
	"collective/state/membership"
	"collective/state/replay"
	"collective/state/votes"
)

type fixture struct {
	conductor *Conductor
	engine    *membership.Engine
	chain     *blocks.Chain
	custody   *custody.Ledger
	created   int64
}

func newFixture(t *testing.T, verify bool) *fixture {
	t.Helper()
	f := &fixture{chain: blocks.NewChain(nil), custody: custody.NewLedger()}
	var err error
	f.engine, err = membership.New(membership.DefaultConfig(), f.custody, f.chain, "treasury")
	require.NoError(t, err)
	var genesis []membership.GenesisMember
	for _, account := range []string{"one", "two"} {
		require.NoError(t, f.custody.Fund(account, 10))
		genesis = append(genesis, membership.GenesisMember{Account: account, Shares: 10, Capital: 10})
	}
	require.NoError(t, f.engine.Found(genesis))
	f.conductor = New(f.engine, f.chain, replay.NewGuard(), verify)
	return f
}

func (f *fixture) command(t *testing.T, pubkey string, kind int, content any) nostr.Event {
	t.Helper()
	b, err := json.Marshal(content)
	require.NoError(t, err)
	f.created++
	e := nostr.Event{PubKey: pubkey, Kind: kind, Content: string(b), CreatedAt: nostr.Timestamp(f.created), Tags: nostr.Tags{}}
	e.ID = e.GetID()
	return e
}

func (f *fixture) block(t *testing.T, height uint64) nostr.Event {
	t.Helper()
	f.created++
	e := nostr.Event{
		PubKey:    "miner",
		Kind:      blocks.KindBlock,
		CreatedAt: nostr.Timestamp(f.created),
		Tags:      nostr.Tags{{"height", strconv.FormatUint(height, 10)}, {"hash", "block" + strconv.FormatUint(height, 10)}},
	}
	e.ID = e.GetID()
	return e
}

func TestConductorRoutesEvents(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.custody.Fund("seven", 20))
	require.NoError(t, f.custody.Fund("eight", 20))

	application := f.command(t, "seven", membership.KindApplication, membership.Kind640800{StakePromised: 11, SharesRequested: 5})
	f.conductor.Push(f.block(t, 5))
	f.conductor.Push(application)
	f.conductor.Push(application)
	f.conductor.Push(f.block(t, 3))
	f.conductor.Push(f.command(t, "seven", 1, "hello"))
	assert.Equal(t, 5, f.conductor.Pending())

	results := f.conductor.Drain()
	require.Len(t, results, 5)
	assert.Zero(t, f.conductor.Pending())

	require.NoError(t, results[0].Err)
	assert.Equal(t, uint64(5), results[0].Block.Height)
	require.NoError(t, results[1].Err)
	assert.Equal(t, uint64(1), results[1].Outcome.Proposal)
	assert.ErrorIs(t, results[2].Err, replay.ErrReplay)
	assert.ErrorIs(t, results[3].Err, blocks.ErrNotHigher)
	assert.ErrorIs(t, results[4].Err, ErrUnknownKind)
	assert.Len(t, f.engine.Proposals(), 1)

	p, _ := f.engine.Proposal(1)
	assert.Equal(t, uint64(5), p.TimeProposed)

	r := f.conductor.Apply(f.command(t, "one", membership.KindSponsorship, membership.Kind640802{Proposal: 1}))
	require.NoError(t, r.Err)
	assert.Equal(t, "voting", r.Outcome.Stage)
	r = f.conductor.Apply(f.command(t, "two", membership.KindVote, membership.Kind640804{Proposal: 1, Direction: votes.InFavor, Magnitude: 1}))
	require.NoError(t, r.Err)
	assert.Equal(t, "passed", r.Outcome.Stage)
	assert.True(t, f.engine.IsMember("seven"))

	r = f.conductor.Apply(f.command(t, "eight", membership.KindApplication, membership.Kind640800{StakePromised: 11, SharesRequested: 5}))
	require.NoError(t, r.Err)
	assert.Equal(t, uint64(2), r.Outcome.Proposal)

	r = f.conductor.Apply(f.block(t, 5+membership.DefaultConfig().ApplicationTimeLimit))
	require.NoError(t, r.Err)
	assert.Equal(t, []uint64{2}, r.Expired)
	p, _ = f.engine.Proposal(2)
	assert.Equal(t, membership.Rejected, p.Stage)
	assert.Equal(t, custody.Balance{Free: 20}, f.custody.Balance("eight"))
}

func TestConductorRecordsRefusedCommands(t *testing.T) {
	f := newFixture(t, false)
	vote := f.command(t, "one", membership.KindVote, membership.Kind640804{Proposal: 9, Direction: votes.Against, Magnitude: 1})
	r := f.conductor.Apply(vote)
	assert.ErrorIs(t, r.Err, membership.ErrNoSuchProposal)
	r = f.conductor.Apply(vote)
	assert.ErrorIs(t, r.Err, replay.ErrReplay)
}

func TestConductorVerifiesSignatures(t *testing.T) {
	f := newFixture(t, true)
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	signed := nostr.Event{
		PubKey:    pk,
		Kind:      blocks.KindBlock,
		CreatedAt: nostr.Timestamp(1),
		Tags:      nostr.Tags{{"height", "7"}, {"hash", "aa"}},
	}
	require.NoError(t, signed.Sign(sk))

	tampered := signed
	tampered.Tags = nostr.Tags{{"height", "8"}, {"hash", "aa"}}
	assert.ErrorIs(t, f.conductor.Apply(tampered).Err, ErrBadSignature)

	forged := signed
	forged.Sig = "00"
	assert.ErrorIs(t, f.conductor.Apply(forged).Err, ErrBadSignature)

	r := f.conductor.Apply(signed)
	require.NoError(t, r.Err)
	assert.Equal(t, uint64(7), f.chain.Now())
}

func TestConductorRun(t *testing.T) {
	f := newFixture(t, false)
	events := make(chan nostr.Event)
	results := make(chan Result, 4)
	finished := make(chan struct{})
	go func() {
		f.conductor.Run(context.Background(), nil, events, results)
		close(finished)
	}()
	events <- f.block(t, 1)
	events <- f.block(t, 2)
	close(events)
	<-finished
	require.Len(t, results, 2)
	assert.NoError(t, (<-results).Err)
	assert.Equal(t, uint64(2), f.chain.Now())
}
