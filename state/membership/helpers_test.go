package membership

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"collective/state/custody"
	"collective/state/votes"
)

const treasuryAccount = "treasury"

var founders = []string{"one", "two", "three", "four", "five", "six"}

type manualClock struct {
	now uint64
}

func (c *manualClock) Now() uint64 {
	return c.now
}

type harness struct {
	t       *testing.T
	engine  *Engine
	custody *custody.Ledger
	clock   *manualClock
}

// newHarness founds a collective of six members with 10 shares each, bought for 10 capital
// each, so the collateralization ratio starts at one.
func newHarness(t *testing.T, configure ...func(*Config)) *harness {
	t.Helper()
	config := DefaultConfig()
	for _, c := range configure {
		c(&config)
	}
	h := &harness{t: t, custody: custody.NewLedger(), clock: &manualClock{}}
	var err error
	h.engine, err = New(config, h.custody, h.clock, treasuryAccount)
	require.NoError(t, err)
	var genesis []GenesisMember
	for _, account := range founders {
		require.NoError(t, h.custody.Fund(account, 10))
		genesis = append(genesis, GenesisMember{Account: account, Shares: 10, Capital: 10})
	}
	require.NoError(t, h.engine.Found(genesis))
	return h
}

func (h *harness) fund(account string, amount uint64) {
	h.t.Helper()
	require.NoError(h.t, h.custody.Fund(account, amount))
}

// apply funds a fresh applicant and submits their application.
func (h *harness) apply(applicant string, stake, sharesRequested uint64) uint64 {
	h.t.Helper()
	h.fund(applicant, stake+4)
	index, err := h.engine.SubmitApplication(applicant, stake, sharesRequested)
	require.NoError(h.t, err)
	return index
}

func (h *harness) sponsored(applicant string, stake, sharesRequested uint64, sponsor string) uint64 {
	h.t.Helper()
	index := h.apply(applicant, stake, sharesRequested)
	_, err := h.engine.SponsorApplication(sponsor, index)
	require.NoError(h.t, err)
	return index
}

func (h *harness) profile(account string) (total, reserved uint64) {
	p, _ := h.engine.ShareProfile(account)
	return p.TotalShares, p.ReservedShares
}

// checkInvariants asserts the bookkeeping rules that must hold between any two commands.
func (h *harness) checkInvariants() {
	h.t.Helper()
	s := h.engine.Snapshot()
	open := make(map[string]uint64)
	var total uint64
	for account, p := range s.Shares {
		require.LessOrEqual(h.t, p.ReservedShares, p.TotalShares, account)
		total += p.TotalShares
	}
	require.Equal(h.t, total, s.Treasury.SharesOutstanding)
	for _, p := range s.Proposals {
		if p.Stage != Voting {
			continue
		}
		var inFavor, against uint64
		for voter, v := range s.Ballots[p.Index] {
			open[voter] += v.Magnitude
			if v.Direction == votes.InFavor {
				inFavor += v.Magnitude
			} else {
				against += v.Magnitude
			}
		}
		tally := s.Tallies[p.Index]
		require.Equal(h.t, inFavor, tally.InFavor, fmt.Sprintf("in favor of %d", p.Index))
		require.Equal(h.t, against, tally.Against, fmt.Sprintf("against %d", p.Index))
	}
	for account, p := range s.Shares {
		require.Equal(h.t, open[account], p.ReservedShares, "reservations of %s match open votes", account)
	}
	require.Equal(h.t, s.Treasury.PooledCapital, h.custody.Balance(treasuryAccount).Free)
}
