package replay

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	g := NewGuard()
	first := nostr.Event{ID: "aa01", PubKey: "alice"}
	require.NoError(t, g.Check(first))
	g.Commit(first)
	assert.ErrorIs(t, g.Check(first), ErrReplay)
	assert.True(t, g.Applied("aa01"))
	assert.False(t, g.Applied("aa02"))

	chained := nostr.Event{ID: "aa02", PubKey: "alice", Tags: nostr.Tags{{"r", "aa01"}}}
	require.NoError(t, g.Check(chained))
	g.Commit(chained)
	assert.Equal(t, "aa02", g.GetCurrentHashForAccount("alice"))

	stale := nostr.Event{ID: "aa03", PubKey: "alice", Tags: nostr.Tags{{"r", "aa01"}}}
	assert.ErrorIs(t, g.Check(stale), ErrBrokenChain)

	require.NoError(t, g.Check(nostr.Event{ID: "bb01", PubKey: "bob", Tags: nostr.Tags{{"r", ""}}}), "first command of a chain claims nothing")
}

func TestGuardRestore(t *testing.T) {
	g := NewGuard()
	g.Commit(nostr.Event{ID: "aa01", PubKey: "alice"})
	g.Commit(nostr.Event{ID: "bb01", PubKey: "bob"})

	other := NewGuard()
	other.Restore(g.Snapshot())
	assert.Equal(t, g.Snapshot(), other.Snapshot())
	assert.Equal(t, g.GetStateHash(), other.GetStateHash())
	assert.ErrorIs(t, other.Check(nostr.Event{ID: "aa01", PubKey: "alice"}), ErrReplay)
	assert.Equal(t, Mapped{"alice": "aa01", "bob": "bb01"}, other.GetMap())
	assert.Equal(t, []string{"aa01", "bb01", "cc01"}, func() []string {
		other.Commit(nostr.Event{ID: "cc01", PubKey: "carol"})
		return other.Snapshot().Applied
	}())
}
