package membership

import (
	"fmt"

	"collective/engine/library"
	"collective/state/identity"
)

type admission struct {
	proposal Proposal
	member   identity.Member
}

type admissionPlan struct {
	proposal Proposal
}

// planAdmission checks that the applicant can be admitted and moves their capital: the
// bond goes back to them and the stake goes to the treasury. Nothing inside the engine is
// touched, and on error custody is left as it was.
func (e *Engine) planAdmission(p Proposal) (*admissionPlan, error) {
	ratio := e.treasury.Ratio()
	if ratio.PooledCapital+p.StakePromised < ratio.PooledCapital ||
		ratio.SharesOutstanding+p.SharesRequested < ratio.SharesOutstanding ||
		e.ledger.TotalShares()+p.SharesRequested < e.ledger.TotalShares() {
		return nil, fmt.Errorf("%w: admitting proposal %d would overflow the treasury", ErrInvalidApplication, p.Index)
	}
	if err := e.refund(p); err != nil {
		return nil, err
	}
	if err := e.custody.Transfer(p.Applicant, e.treasury.Account(), p.StakePromised); err != nil {
		e.relock(p.Applicant, p.ApplicationBond+p.StakePromised)
		return nil, fmt.Errorf("%w: moving stake of %d from %s to the treasury: %s", ErrCustody, p.StakePromised, p.Applicant, err.Error())
	}
	return &admissionPlan{proposal: p}, nil
}

// admit applies a settled plan. It cannot fail.
func (e *Engine) admit(plan *admissionPlan) admission {
	p := plan.proposal
	e.releaseBallots(p.Index)
	if err := e.treasury.Deposit(p.StakePromised); err != nil {
		panic(err)
	}
	if err := e.treasury.Issue(p.SharesRequested); err != nil {
		panic(err)
	}
	if err := e.ledger.Credit(p.Applicant, p.SharesRequested); err != nil {
		panic(err)
	}
	member, ok := e.registry.Get(p.Applicant)
	if !ok {
		var err error
		member, err = e.registry.Admit(p.Applicant, e.clock.Now(), p.Index)
		if err != nil {
			panic(err)
		}
	}
	p.Stage = Passed
	e.proposals[p.Index] = p
	return admission{proposal: p, member: member}
}

// refund unlocks the applicant's bond and stake.
func (e *Engine) refund(p Proposal) error {
	if err := e.custody.Unlock(p.Applicant, p.ApplicationBond); err != nil {
		return fmt.Errorf("%w: unlocking bond of %d for %s: %s", ErrCustody, p.ApplicationBond, p.Applicant, err.Error())
	}
	if err := e.custody.Unlock(p.Applicant, p.StakePromised); err != nil {
		e.relock(p.Applicant, p.ApplicationBond)
		return fmt.Errorf("%w: unlocking stake of %d for %s: %s", ErrCustody, p.StakePromised, p.Applicant, err.Error())
	}
	return nil
}

func (e *Engine) relock(account library.Account, amount library.Capital) {
	if err := e.custody.Lock(account, amount); err != nil {
		library.LogCLI(fmt.Sprintf("could not relock %d for %s: %s", amount, account, err.Error()), 0)
	}
}

// releaseBallots frees every share reserved on a proposal. Ballots stay as a record of how
// each member voted.
func (e *Engine) releaseBallots(index uint64) {
	for voter, v := range e.ballots[index] {
		e.ledger.Release(voter, v.Magnitude)
	}
}
