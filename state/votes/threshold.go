package votes

import (
	"collective/engine/library"
)

// Approved applies the tally's threshold policy.
//
// The supermajority policies compare integer square roots, biased by turnout:
//
//	SuperMajorityApprove: sqrt(against) * sqrt(eligible) < sqrt(in_favor) * sqrt(turnout)
//	SuperMajorityAgainst: sqrt(against) * sqrt(turnout) < sqrt(in_favor) * sqrt(eligible)
//
// Both are evaluated as a rational comparison so nothing is multiplied. No policy approves
// with zero turnout.
func Approved(v VotingState) bool {
	turnout := v.Turnout()
	if turnout == 0 {
		return false
	}
	switch v.Threshold {
	case SimpleMajority:
		return v.InFavor > v.Against
	case SuperMajorityApprove, SuperMajorityAgainst:
		sqrtElectorate := library.IntegerSqrt(v.EligibleShares)
		if sqrtElectorate == 0 {
			return false
		}
		sqrtTurnout := library.IntegerSqrt(turnout)
		sqrtAgainst := library.IntegerSqrt(v.Against)
		sqrtInFavor := library.IntegerSqrt(v.InFavor)
		if v.Threshold == SuperMajorityApprove {
			return library.LessThan(sqrtAgainst, sqrtTurnout, sqrtInFavor, sqrtElectorate)
		}
		return library.LessThan(sqrtAgainst, sqrtElectorate, sqrtInFavor, sqrtTurnout)
	}
	return false
}
