// Package bonds prices the collateral a proposal or sponsorship must put up.
//
// The price depends on how the request compares with the collective's collateralization
// ratio, in capital per share. A request that would buy shares cheaper than the collective
// values them dilutes existing members and costs the most.
package bonds

import (
	"collective/engine/library"
	"collective/state/treasury"
)

type Tier int

const (
	Accretive Tier = iota
	Parity
	Dilutive
)

func (t Tier) String() string {
	switch t {
	case Accretive:
		return "accretive"
	case Parity:
		return "parity"
	case Dilutive:
		return "dilutive"
	}
	return "unknown"
}

// Multiplier of the base bond for the tier.
func (t Tier) Multiplier() uint64 {
	switch t {
	case Dilutive:
		return 4
	case Parity:
		return 2
	}
	return 1
}

// Classify compares stake/sharesRequested with the collective's ratio.
// An empty collective has no ratio to dilute and is priced at parity. A request for no
// shares cannot dilute anyone.
func Classify(stake library.Capital, sharesRequested library.Shares, collective treasury.Ratio) Tier {
	if collective.SharesOutstanding == 0 {
		return Parity
	}
	if sharesRequested == 0 {
		return Accretive
	}
	switch {
	case library.Equal(stake, sharesRequested, collective.PooledCapital, collective.SharesOutstanding):
		return Parity
	case library.LessThan(stake, sharesRequested, collective.PooledCapital, collective.SharesOutstanding):
		return Dilutive
	}
	return Accretive
}

// Price is the bond for a request, saturating at the largest representable amount.
// The same rule prices capital bonds for applicants and share bonds for sponsors.
func Price(base uint64, stake library.Capital, sharesRequested library.Shares, collective treasury.Ratio) uint64 {
	return library.SaturatingMul(base, Classify(stake, sharesRequested, collective).Multiplier())
}
