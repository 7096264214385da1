package membership

import (
	"fmt"

	"collective/engine/library"
	"collective/state/votes"
)

// tallyAdjustment takes retract off its side of the tally and adds cast to its side.
type tallyAdjustment struct {
	retract votes.Vote
	cast    votes.Vote
}

// reservationAdjustment moves the voter's reservation up or down. At most one is non-zero.
type reservationAdjustment struct {
	increase library.Shares
	decrease library.Shares
}

type voteDelta struct {
	tally       tallyAdjustment
	reservation reservationAdjustment
	record      votes.Vote
}

// planVote works out what a vote changes given the voter's standing vote, if any.
func planVote(prior *votes.Vote, direction votes.Direction, magnitude library.Shares) (voteDelta, error) {
	cast := votes.Vote{Direction: direction, Magnitude: magnitude}
	switch {
	case prior == nil:
		return voteDelta{
			tally:       tallyAdjustment{cast: cast},
			reservation: reservationAdjustment{increase: magnitude},
			record:      cast,
		}, nil
	case prior.Direction == direction:
		total := prior.Magnitude + magnitude
		if total < prior.Magnitude {
			return voteDelta{}, fmt.Errorf("%w: vote of %d on top of %d overflows", ErrInsufficientVoteCollateral, magnitude, prior.Magnitude)
		}
		return voteDelta{
			tally:       tallyAdjustment{cast: cast},
			reservation: reservationAdjustment{increase: magnitude},
			record:      votes.Vote{Direction: direction, Magnitude: total},
		}, nil
	case magnitude > prior.Magnitude:
		return voteDelta{
			tally:       tallyAdjustment{retract: *prior, cast: cast},
			reservation: reservationAdjustment{increase: magnitude - prior.Magnitude},
			record:      cast,
		}, nil
	default:
		return voteDelta{
			tally:       tallyAdjustment{retract: *prior, cast: cast},
			reservation: reservationAdjustment{decrease: prior.Magnitude - magnitude},
			record:      cast,
		}, nil
	}
}

func (a tallyAdjustment) apply(v votes.VotingState) votes.VotingState {
	switch a.retract.Direction {
	case votes.InFavor:
		v.InFavor -= a.retract.Magnitude
	case votes.Against:
		v.Against -= a.retract.Magnitude
	}
	switch a.cast.Direction {
	case votes.InFavor:
		v.InFavor += a.cast.Magnitude
	case votes.Against:
		v.Against += a.cast.Magnitude
	}
	return v
}

// Vote casts or changes voter's vote on a proposal in the Voting stage and returns the
// proposal's stage afterwards. A vote that carries the tally over the threshold passes the
// proposal and admits the applicant within the same command.
func (e *Engine) Vote(voter library.Account, index uint64, direction votes.Direction, magnitude library.Shares) (Stage, error) {
	e.mutex.Lock()
	stage, admitted, err := e.vote(voter, index, direction, magnitude)
	e.mutex.Unlock()
	if err != nil {
		return stage, err
	}
	if admitted != nil {
		e.notifyAdmitted([]admission{*admitted})
	}
	return stage, nil
}

func (e *Engine) vote(voter library.Account, index uint64, direction votes.Direction, magnitude library.Shares) (Stage, *admission, error) {
	if err := e.requireMember(voter); err != nil {
		return 0, nil, err
	}
	p, err := e.proposalInStage(index, Voting)
	if err != nil {
		if existing, ok := e.proposals[index]; ok {
			return existing.Stage, nil, err
		}
		return 0, nil, err
	}
	if direction != votes.InFavor && direction != votes.Against {
		return p.Stage, nil, fmt.Errorf("%w: unknown vote %s", ErrInvalidEvent, direction)
	}
	if magnitude < e.config.VoteBond {
		return p.Stage, nil, fmt.Errorf("%w: %d is less than %d", ErrVoteMagnitudeBelowMinimum, magnitude, e.config.VoteBond)
	}
	tally, ok := e.tallies[index]
	if !ok {
		library.LogCLI(fmt.Sprintf("proposal %d is in the voting stage without a tally", index), 0)
		return p.Stage, nil, fmt.Errorf("%w: proposal %d", ErrVoteStateUninitialized, index)
	}

	var prior *votes.Vote
	if v, ok := e.ballots[index][voter]; ok {
		prior = &v
	}
	delta, err := planVote(prior, direction, magnitude)
	if err != nil {
		return p.Stage, nil, err
	}
	profile, _ := e.ledger.Profile(voter)
	reserved := profile.ReservedShares
	if delta.reservation.decrease > reserved {
		panic(fmt.Sprintf("%s has %d shares reserved but a standing vote of %d on proposal %d", voter, reserved, delta.reservation.decrease, index))
	}
	newReserved := reserved + delta.reservation.increase - delta.reservation.decrease
	if newReserved < reserved-delta.reservation.decrease || newReserved > profile.TotalShares {
		return p.Stage, nil, fmt.Errorf("%w: %s has %d free shares and the vote needs %d more", ErrInsufficientVoteCollateral, voter, profile.Free(), delta.reservation.increase)
	}
	tally = delta.tally.apply(tally)

	var plan *admissionPlan
	if votes.Approved(tally) {
		// the vote is only applied if admission can be, so plan it before touching anything
		plan, err = e.planAdmission(p)
		if err != nil {
			return p.Stage, nil, err
		}
	}

	if err := e.ledger.AdjustReservation(voter, newReserved); err != nil {
		panic(fmt.Sprintf("reservation check for %s passed but the ledger refused it: %s", voter, err.Error()))
	}
	e.ballots[index][voter] = delta.record
	e.tallies[index] = tally
	library.LogCLI(fmt.Sprintf("%s voted %s with %d on proposal %d, tally %d/%d of %d", voter, direction, magnitude, index, tally.InFavor, tally.Against, tally.EligibleShares), 4)
	if plan == nil {
		return Voting, nil, nil
	}
	a := e.admit(plan)
	return Passed, &a, nil
}
