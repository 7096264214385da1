package identity

import (
	"collective/engine/library"
)

type Mapped map[library.Account]Member

type Member struct {
	Account library.Account `json:"account"`
	// Order is the position in which the member was admitted, starting at 1.
	Order int64 `json:"order"`
	// AdmittedAt is the clock reading at admission.
	AdmittedAt uint64 `json:"admitted_at"`
	// Proposal is the index of the membership proposal that admitted them, 0 for founders.
	Proposal uint64 `json:"proposal"`
}
