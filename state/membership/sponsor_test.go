package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collective/state/votes"
)

func TestSponsorApplication(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SponsorBond = 3 })
	h.clock.now = 7
	index := h.apply("seven", 11, 10)

	_, err := h.engine.SponsorApplication("seven", index)
	assert.ErrorIs(t, err, ErrNotAMember)
	_, err = h.engine.SponsorApplication("one", 99)
	assert.ErrorIs(t, err, ErrNoSuchProposal)

	h.clock.now = 9
	bond, err := h.engine.SponsorApplication("one", index)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), bond)

	total, reserved := h.profile("one")
	assert.Equal(t, uint64(10), total)
	assert.Equal(t, uint64(3), reserved)

	state, ok := h.engine.VotingState(index)
	require.True(t, ok)
	assert.Equal(t, votes.VotingState{InFavor: 3, EligibleShares: 60, Threshold: votes.SimpleMajority}, state)

	v, ok := h.engine.VoteOf(index, "one")
	require.True(t, ok)
	assert.Equal(t, votes.Vote{Direction: votes.InFavor, Magnitude: 3}, v)

	p, _ := h.engine.Proposal(index)
	assert.Equal(t, Voting, p.Stage)
	assert.Equal(t, "one", p.Sponsor)
	assert.Equal(t, uint64(7), p.TimeProposed)
	assert.Equal(t, uint64(9), p.TimeSponsored)

	_, err = h.engine.SponsorApplication("two", index)
	assert.ErrorIs(t, err, ErrRequestInWrongStage)
	h.checkInvariants()
}

func TestSponsorBondTiers(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SponsorBond = 2 })
	tests := []struct {
		applicant string
		stake     uint64
		sponsor   string
		bond      uint64
	}{
		{"accretive", 11, "one", 2},
		{"parity", 10, "two", 4},
		{"dilutive", 9, "three", 8},
	}
	for _, tt := range tests {
		index := h.apply(tt.applicant, tt.stake, 10)
		bond, err := h.engine.SponsorApplication(tt.sponsor, index)
		require.NoError(t, err)
		assert.Equal(t, tt.bond, bond, tt.applicant)
		_, reserved := h.profile(tt.sponsor)
		assert.Equal(t, tt.bond, reserved)
	}
	h.checkInvariants()
}

func TestSponsorCollateralIsAtomic(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.SponsorBond = 6 })
	index := h.apply("seven", 10, 10)
	before := h.engine.Snapshot()

	_, err := h.engine.SponsorApplication("one", index)
	assert.ErrorIs(t, err, ErrInsufficientSponsorCollateral)
	assert.Equal(t, before, h.engine.Snapshot())

	p, _ := h.engine.Proposal(index)
	assert.Equal(t, Application, p.Stage)
	_, ok := h.engine.VotingState(index)
	assert.False(t, ok)
}
