package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collective/state/custody"
)

func TestFound(t *testing.T) {
	h := newHarness(t)
	assert.Len(t, h.engine.Members(), 6)
	for i, m := range h.engine.Members() {
		assert.Equal(t, founders[i], m.Account)
		assert.Equal(t, int64(i+1), m.Order)
	}
	assert.ErrorIs(t, h.engine.Found([]GenesisMember{{Account: "x", Shares: 1}}), ErrAlreadyFounded)
	h.checkInvariants()
}

func TestFoundIsAtomic(t *testing.T) {
	c := custody.NewLedger()
	e, err := New(DefaultConfig(), c, &manualClock{}, treasuryAccount)
	require.NoError(t, err)
	require.NoError(t, c.Fund("a", 10))

	err = e.Found([]GenesisMember{{Account: "a", Shares: 10, Capital: 10}, {Account: "b", Shares: 10, Capital: 10}})
	assert.ErrorIs(t, err, ErrCustody)
	assert.Equal(t, custody.Balance{Free: 10}, c.Balance("a"), "earlier founders are refunded")
	assert.Empty(t, e.Members())

	err = e.Found([]GenesisMember{{Account: "a", Shares: 10, Capital: 5}, {Account: "a", Shares: 10, Capital: 5}})
	assert.ErrorIs(t, err, ErrAlreadyAMember)
	err = e.Found([]GenesisMember{{Account: "a", Capital: 5}})
	assert.ErrorIs(t, err, ErrInvalidApplication)

	require.NoError(t, e.Found([]GenesisMember{{Account: "a", Shares: 10, Capital: 10}}))
	assert.True(t, e.IsMember("a"))
}

func TestNewValidatesConfig(t *testing.T) {
	config := DefaultConfig()
	config.FloorPriceDenominator = 0
	_, err := New(config, custody.NewLedger(), &manualClock{}, treasuryAccount)
	assert.Error(t, err)

	config = DefaultConfig()
	config.VoteBond = 0
	_, err = New(config, custody.NewLedger(), &manualClock{}, treasuryAccount)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), nil, &manualClock{}, treasuryAccount)
	assert.Error(t, err)
}
