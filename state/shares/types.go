package shares

import (
	"collective/engine/library"
)

// Profile is one member's cap table entry. ReservedShares are backing sponsorships and votes
// and cannot be reserved again, burned or sold until released.
type Profile struct {
	TotalShares    library.Shares `json:"total_shares"`
	ReservedShares library.Shares `json:"reserved_shares"`
}

// Free is the part of the profile that can still be reserved.
func (p Profile) Free() library.Shares {
	return p.TotalShares - p.ReservedShares
}

type Mapped map[library.Account]Profile
