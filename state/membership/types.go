package membership

import (
	"encoding/json"
	"fmt"

	"collective/engine/library"
	"collective/state/identity"
)

type Stage int

const (
	Application Stage = iota
	Voting
	Passed
	Rejected
)

func (s Stage) String() string {
	switch s {
	case Application:
		return "application"
	case Voting:
		return "voting"
	case Passed:
		return "passed"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalJSON() ([]byte, error) {
	if s < Application || s > Rejected {
		return nil, fmt.Errorf("cannot encode %s", s)
	}
	return json.Marshal(s.String())
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	for _, stage := range []Stage{Application, Voting, Passed, Rejected} {
		if stage.String() == str {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("%q is not a proposal stage", str)
}

// Proposal is a request by a non-member to buy into the collective.
type Proposal struct {
	Index           uint64          `json:"index"`
	Applicant       library.Account `json:"applicant"`
	StakePromised   library.Capital `json:"stake_promised"`
	SharesRequested library.Shares  `json:"shares_requested"`
	Stage           Stage           `json:"stage"`
	TimeProposed    uint64          `json:"time_proposed"`
	// ApplicationBond is what was locked from the applicant on top of the stake.
	ApplicationBond library.Capital `json:"application_bond"`
	Sponsor         library.Account `json:"sponsor,omitempty"`
	TimeSponsored   uint64          `json:"time_sponsored,omitempty"`
}

// Custody holds capital on behalf of accounts. The engine never touches balances directly.
type Custody interface {
	Lock(account library.Account, amount library.Capital) error
	Unlock(account library.Account, amount library.Capital) error
	Transfer(from, to library.Account, amount library.Capital) error
}

// Clock is a monotonically non-decreasing counter, block height in practice.
type Clock interface {
	Now() uint64
}

// AdmissionHook is called after a proposal passes and its applicant has been admitted.
type AdmissionHook func(p Proposal, m identity.Member)

// RejectionHook is called after a proposal expires.
type RejectionHook func(p Proposal)

// GenesisMember is a founding member's buy-in.
type GenesisMember struct {
	Account library.Account `json:"account"`
	Shares  library.Shares  `json:"shares"`
	Capital library.Capital `json:"capital"`
}
