package membership

import (
	"errors"
	"fmt"

	"collective/engine/library"
	"collective/state/bonds"
	"collective/state/votes"
)

// SubmitApplication locks the applicant's bond and promised stake and opens a proposal in
// the Application stage. It returns the new proposal's index.
func (e *Engine) SubmitApplication(applicant library.Account, stakePromised library.Capital, sharesRequested library.Shares) (uint64, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.registry.IsMember(applicant) {
		return 0, fmt.Errorf("%w: %s cannot apply", ErrAlreadyAMember, applicant)
	}
	ratio := e.treasury.Ratio()
	if err := e.validateApplication(stakePromised, sharesRequested, ratio.SharesOutstanding); err != nil {
		return 0, err
	}
	bond := bonds.Price(e.config.ApplicationBond, stakePromised, sharesRequested, ratio)
	if err := e.custody.Lock(applicant, bond); err != nil {
		return 0, fmt.Errorf("%w: bond of %d: %s", ErrInsufficientApplicantCollateral, bond, err.Error())
	}
	if err := e.custody.Lock(applicant, stakePromised); err != nil {
		if unlockErr := e.custody.Unlock(applicant, bond); unlockErr != nil {
			library.LogCLI(fmt.Sprintf("could not return application bond of %d to %s: %s", bond, applicant, unlockErr.Error()), 1)
		}
		return 0, fmt.Errorf("%w: stake of %d: %s", ErrInsufficientApplicantCollateral, stakePromised, err.Error())
	}
	e.lastIndex++
	p := Proposal{
		Index:           e.lastIndex,
		Applicant:       applicant,
		StakePromised:   stakePromised,
		SharesRequested: sharesRequested,
		Stage:           Application,
		TimeProposed:    e.clock.Now(),
		ApplicationBond: bond,
	}
	e.proposals[p.Index] = p
	library.LogCLI(fmt.Sprintf("%s applied for %d shares with a stake of %d, proposal %d, bond %d", applicant, sharesRequested, stakePromised, p.Index, bond), 4)
	return p.Index, nil
}

func (e *Engine) validateApplication(stake library.Capital, sharesRequested library.Shares, outstanding library.Shares) error {
	if stake <= e.config.MinimumStake {
		return fmt.Errorf("%w: stake of %d does not exceed the minimum of %d", ErrInvalidApplication, stake, e.config.MinimumStake)
	}
	if sharesRequested == 0 {
		return fmt.Errorf("%w: no shares requested", ErrInvalidApplication)
	}
	if !library.LessThan(e.config.FloorPriceNumerator, e.config.FloorPriceDenominator, stake, sharesRequested) {
		return fmt.Errorf("%w: %d for %d shares is not above the floor price of %d/%d", ErrInvalidApplication, stake, sharesRequested, e.config.FloorPriceNumerator, e.config.FloorPriceDenominator)
	}
	if e.config.MaximumShareIssuance > 0 && outstanding > 0 &&
		library.LessThan(e.config.MaximumShareIssuance, 1000, sharesRequested, outstanding) {
		return fmt.Errorf("%w: %d shares is more than %d permille of the %d outstanding", ErrInvalidApplication, sharesRequested, e.config.MaximumShareIssuance, outstanding)
	}
	return nil
}

// SponsorApplication reserves the sponsor's bond, records it as the sponsor's vote in
// favor and opens voting. It returns the bond.
func (e *Engine) SponsorApplication(sponsor library.Account, index uint64) (library.Shares, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err := e.requireMember(sponsor); err != nil {
		return 0, err
	}
	p, err := e.proposalInStage(index, Application)
	if err != nil {
		return 0, err
	}
	bond := bonds.Price(e.config.SponsorBond, p.StakePromised, p.SharesRequested, e.treasury.Ratio())
	if err := e.ledger.Reserve(sponsor, bond); err != nil {
		return 0, fmt.Errorf("%w: bond of %d on proposal %d: %s", ErrInsufficientSponsorCollateral, bond, index, err.Error())
	}
	e.ballots[index] = map[library.Account]votes.Vote{
		sponsor: {Direction: votes.InFavor, Magnitude: bond},
	}
	e.tallies[index] = votes.VotingState{
		InFavor:        bond,
		EligibleShares: e.ledger.TotalShares(),
		Threshold:      e.config.Threshold,
	}
	p.Stage = Voting
	p.Sponsor = sponsor
	p.TimeSponsored = e.clock.Now()
	e.proposals[index] = p
	library.LogCLI(fmt.Sprintf("%s sponsored proposal %d with a bond of %d shares", sponsor, index, bond), 4)
	return bond, nil
}

// IsRecoverable reports whether err is one of the refusals a command can return, as opposed
// to a defect.
func IsRecoverable(err error) bool {
	for _, sentinel := range []error{
		ErrNotAMember, ErrAlreadyAMember, ErrInvalidApplication, ErrInsufficientApplicantCollateral,
		ErrInsufficientSponsorCollateral, ErrInsufficientVoteCollateral, ErrNoSuchProposal,
		ErrRequestInWrongStage, ErrVoteMagnitudeBelowMinimum, ErrInsufficientExitShares,
		ErrAlreadyFounded, ErrCustody, ErrInvalidEvent,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
