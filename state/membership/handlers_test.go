package membership

import (
	"encoding/json"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collective/state/votes"
)

func command(t *testing.T, pubkey string, kind int, content any) nostr.Event {
	t.Helper()
	b, err := json.Marshal(content)
	require.NoError(t, err)
	e := nostr.Event{PubKey: pubkey, Kind: kind, Content: string(b), CreatedAt: nostr.Timestamp(1)}
	e.ID = e.GetID()
	return e
}

func TestHandleEvent(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SponsorBond = 3 })
	h.fund("seven", 20)

	o, err := h.engine.HandleEvent(command(t, "seven", KindApplication, Kind640800{StakePromised: 11, SharesRequested: 10}))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Kind: KindApplication, Account: "seven", Proposal: 1, Stage: "application", Bond: 1}, o)

	o, err = h.engine.HandleEvent(command(t, "one", KindSponsorship, Kind640802{Proposal: 1}))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Kind: KindSponsorship, Account: "one", Proposal: 1, Stage: "voting", Bond: 3}, o)

	vote := command(t, "two", KindVote, map[string]any{"proposal": 1, "direction": "in_favor", "magnitude": 4})
	o, err = h.engine.HandleEvent(vote)
	require.NoError(t, err)
	assert.Equal(t, "passed", o.Stage)
	assert.True(t, h.engine.IsMember("seven"))

	o, err = h.engine.HandleEvent(command(t, "seven", KindExit, Kind640806{Shares: 5}))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), o.Payout)
}

func TestHandleEventRefusals(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.HandleEvent(nostr.Event{Kind: KindVote, Content: "{not json"})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = h.engine.HandleEvent(command(t, "one", KindVote, map[string]any{"proposal": 1, "direction": "abstain", "magnitude": 1}))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = h.engine.HandleEvent(command(t, "one", 1, "hello"))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = h.engine.HandleEvent(command(t, "one", KindVote, Kind640804{Proposal: 1, Direction: votes.Against, Magnitude: 1}))
	assert.ErrorIs(t, err, ErrNoSuchProposal)

	assert.True(t, HandlesKind(KindSponsorship))
	assert.False(t, HandlesKind(1517))
}
