package votes

import (
	"encoding/json"
	"fmt"

	"collective/engine/library"
)

type Direction int

const (
	InFavor Direction = iota
	Against
)

func (d Direction) String() string {
	switch d {
	case InFavor:
		return "in_favor"
	case Against:
		return "against"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "in_favor", "infavor", "yes", "aye":
		return InFavor, nil
	case "against", "no", "nay":
		return Against, nil
	}
	return 0, fmt.Errorf("%q is not a vote direction", s)
}

func (d Direction) MarshalJSON() ([]byte, error) {
	if d != InFavor && d != Against {
		return nil, fmt.Errorf("cannot encode %s", d)
	}
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Vote is the standing vote of one member on one proposal. Magnitude is the number of the
// voter's shares held in reservation for it.
type Vote struct {
	Direction Direction      `json:"direction"`
	Magnitude library.Shares `json:"magnitude"`
}

type Policy int

const (
	SimpleMajority Policy = iota
	SuperMajorityApprove
	SuperMajorityAgainst
)

func (p Policy) String() string {
	switch p {
	case SimpleMajority:
		return "simple_majority"
	case SuperMajorityApprove:
		return "super_majority_approve"
	case SuperMajorityAgainst:
		return "super_majority_against"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	for _, p := range []Policy{SimpleMajority, SuperMajorityApprove, SuperMajorityAgainst} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%q is not a threshold policy", s)
}

func (p Policy) MarshalJSON() ([]byte, error) {
	if _, err := ParsePolicy(p.String()); err != nil {
		return nil, err
	}
	return json.Marshal(p.String())
}

func (p *Policy) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// VotingState is the running tally of a sponsored proposal.
// EligibleShares is fixed at sponsorship to the shares in circulation at that moment.
type VotingState struct {
	InFavor        library.Shares `json:"in_favor"`
	Against        library.Shares `json:"against"`
	EligibleShares library.Shares `json:"eligible_shares"`
	Threshold      Policy         `json:"threshold"`
}

// Turnout is the total magnitude voted, saturating rather than wrapping.
func (v VotingState) Turnout() library.Shares {
	return library.SaturatingAdd(v.InFavor, v.Against)
}
