package membership

import (
	"fmt"

	"collective/engine/library"
	"collective/state/votes"
)

// Config holds the governance parameters. Bonds are base amounts that BondPricer multiplies.
type Config struct {
	// MinimumStake must be exceeded by every application.
	MinimumStake library.Capital `json:"minimum_stake"`
	// ApplicationBond is the base capital bond an applicant locks.
	ApplicationBond library.Capital `json:"application_bond"`
	// SponsorBond is the base share bond a sponsor reserves.
	SponsorBond library.Shares `json:"sponsor_bond"`
	// VoteBond is the smallest vote magnitude accepted.
	VoteBond library.Shares `json:"vote_bond"`
	// The stake must be worth more than shares_requested at this price per share.
	FloorPriceNumerator   uint64 `json:"floor_price_numerator"`
	FloorPriceDenominator uint64 `json:"floor_price_denominator"`
	// MaximumShareIssuance caps one application, in permille of shares outstanding. 0 is no cap.
	MaximumShareIssuance uint64       `json:"maximum_share_issuance"`
	Threshold            votes.Policy `json:"threshold"`
	// ApplicationTimeLimit and VotingPeriod are in clock units. 0 disables expiry.
	ApplicationTimeLimit uint64 `json:"application_time_limit"`
	VotingPeriod         uint64 `json:"voting_period"`
}

func DefaultConfig() Config {
	return Config{
		MinimumStake:          1,
		ApplicationBond:       1,
		SponsorBond:           1,
		VoteBond:              1,
		FloorPriceNumerator:   1,
		FloorPriceDenominator: 2,
		MaximumShareIssuance:  500,
		Threshold:             votes.SimpleMajority,
		ApplicationTimeLimit:  1008,
		VotingPeriod:          2016,
	}
}

func (c Config) ValidateBasic() error {
	if c.FloorPriceDenominator == 0 {
		return fmt.Errorf("floor price denominator must be positive")
	}
	if c.VoteBond == 0 {
		return fmt.Errorf("vote bond must be at least one share")
	}
	if _, err := votes.ParsePolicy(c.Threshold.String()); err != nil {
		return err
	}
	return nil
}
