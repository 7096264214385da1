package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collective/state/custody"
	"collective/state/treasury"
)

func TestSubmitApplicationValidation(t *testing.T) {
	h := newHarness(t)
	h.fund("seven", 100)
	tests := []struct {
		name   string
		stake  uint64
		shares uint64
		err    error
	}{
		{"no stake", 0, 5, ErrInvalidApplication},
		{"stake at the minimum", 1, 5, ErrInvalidApplication},
		{"no shares", 5, 0, ErrInvalidApplication},
		{"below the floor price", 2, 5, ErrInvalidApplication},
		{"exactly the floor price", 5, 10, ErrInvalidApplication},
		{"more than half the collective", 40, 31, ErrInvalidApplication},
		{"above the floor price", 3, 5, nil},
		{"half the collective", 31, 30, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.custody.Balance("seven")
			_, err := h.engine.SubmitApplication("seven", tt.stake, tt.shares)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, before, h.custody.Balance("seven"))
				return
			}
			assert.NoError(t, err)
		})
	}
	assert.Len(t, h.engine.Proposals(), 2)
}

func TestMembersCannotApply(t *testing.T) {
	h := newHarness(t)
	h.fund("one", 100)
	_, err := h.engine.SubmitApplication("one", 10, 10)
	assert.ErrorIs(t, err, ErrAlreadyAMember)
	assert.Empty(t, h.engine.Proposals())
}

func TestApplicantCollateral(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.SubmitApplication("seven", 5, 5)
	assert.ErrorIs(t, err, ErrInsufficientApplicantCollateral)

	// enough for the bond of 2 but not for the stake as well
	h.fund("eight", 3)
	_, err = h.engine.SubmitApplication("eight", 5, 5)
	assert.ErrorIs(t, err, ErrInsufficientApplicantCollateral)
	assert.Equal(t, custody.Balance{Free: 3}, h.custody.Balance("eight"))
	assert.Empty(t, h.engine.Proposals())

	h.fund("eight", 4)
	index, err := h.engine.SubmitApplication("eight", 5, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), index)
	assert.Equal(t, custody.Balance{Free: 0, Locked: 7}, h.custody.Balance("eight"))
}

func TestApplicationBondTiers(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, treasury.Ratio{PooledCapital: 60, SharesOutstanding: 60}, h.engine.CollateralizationRatio())

	tests := []struct {
		applicant string
		stake     uint64
		bond      uint64
	}{
		{"parity", 10, 2},
		{"accretive", 11, 1},
		{"dilutive", 9, 4},
	}
	for i, tt := range tests {
		index := h.apply(tt.applicant, tt.stake, 10)
		assert.Equal(t, uint64(i+1), index)
		p, ok := h.engine.Proposal(index)
		require.True(t, ok)
		assert.Equal(t, Proposal{
			Index:           index,
			Applicant:       tt.applicant,
			StakePromised:   tt.stake,
			SharesRequested: 10,
			Stage:           Application,
			ApplicationBond: tt.bond,
		}, p)
		assert.Equal(t, tt.stake+tt.bond, h.custody.Balance(tt.applicant).Locked)
	}
}

func TestApplicationIsStamped(t *testing.T) {
	h := newHarness(t)
	h.clock.now = 42
	index := h.apply("seven", 10, 10)
	p, _ := h.engine.Proposal(index)
	assert.Equal(t, uint64(42), p.TimeProposed)
	_, ok := h.engine.VotingState(index)
	assert.False(t, ok)
}
