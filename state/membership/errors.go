package membership

import (
	"errors"

	"collective/state/identity"
)

// Every command returns one of these (wrapped with context) when it refuses to act.
// A command that returns an error has changed nothing.
var (
	ErrNotAMember                      = identity.ErrNotAMember
	ErrAlreadyAMember                  = identity.ErrAlreadyAMember
	ErrInvalidApplication              = errors.New("invalid membership application")
	ErrInsufficientApplicantCollateral = errors.New("applicant cannot lock the application bond and stake")
	ErrInsufficientSponsorCollateral   = errors.New("sponsor does not have enough free shares for the bond")
	ErrInsufficientVoteCollateral      = errors.New("voter does not have enough free shares for the vote")
	ErrNoSuchProposal                  = errors.New("no such proposal")
	ErrRequestInWrongStage             = errors.New("proposal is not in the required stage")
	ErrVoteMagnitudeBelowMinimum       = errors.New("vote magnitude is below the minimum vote bond")
	ErrVoteStateUninitialized          = errors.New("proposal has no voting state")
	ErrInsufficientExitShares          = errors.New("member does not have enough free shares to exit with")
	ErrAlreadyFounded                  = errors.New("collective has already been founded")
	ErrCustody                         = errors.New("custody refused the operation")
	ErrInvalidEvent                    = errors.New("invalid command event")
	ErrCorruptState                    = errors.New("state snapshot is inconsistent")
)
