package membership

import (
	"fmt"

	"collective/engine/library"
)

// ExpireProposals rejects every proposal that has outlived its stage at time now and returns
// their indexes. Applications expire ApplicationTimeLimit after submission and votes expire
// VotingPeriod after sponsorship. A rejected applicant gets their bond and stake back, and
// every share reserved on the proposal is released.
func (e *Engine) ExpireProposals(now uint64) []uint64 {
	e.mutex.Lock()
	var rejected []Proposal
	for _, p := range e.orderedProposals() {
		if !e.expired(p, now) {
			continue
		}
		if err := e.refund(p); err != nil {
			library.LogCLI(fmt.Sprintf("proposal %d has expired but cannot be rejected yet: %s", p.Index, err.Error()), 1)
			continue
		}
		if p.Stage == Voting {
			e.releaseBallots(p.Index)
		}
		p.Stage = Rejected
		e.proposals[p.Index] = p
		rejected = append(rejected, p)
	}
	e.mutex.Unlock()
	e.notifyRejected(rejected)
	var indexes []uint64
	for _, p := range rejected {
		indexes = append(indexes, p.Index)
	}
	return indexes
}

func (e *Engine) expired(p Proposal, now uint64) bool {
	switch p.Stage {
	case Application:
		return outlived(p.TimeProposed, e.config.ApplicationTimeLimit, now)
	case Voting:
		return outlived(p.TimeSponsored, e.config.VotingPeriod, now)
	}
	return false
}

func outlived(since, limit, now uint64) bool {
	if limit == 0 || now < since {
		return false
	}
	return now-since >= limit
}
