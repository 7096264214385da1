package blocks

import (
	"time"

	"collective/engine/library"
)

// KindBlock announces a new block. Tags: height, hash and optionally mediantime.
const KindBlock = 1517

type Block struct {
	Height     uint64         `json:"height"`
	Hash       library.Sha256 `json:"hash"`
	MedianTime time.Time      `json:"median_time"`
}

type Mapped map[uint64]Block
