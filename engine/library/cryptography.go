package library

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Sha256Sum hashes strings and byte slices directly, anything else is hashed as its JSON encoding.
func Sha256Sum(data interface{}) Sha256 {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		j, err := json.Marshal(d)
		if err != nil {
			LogCLI(fmt.Sprintf("attempted to hash a value that cannot be encoded: %s", err.Error()), 1)
		}
		b = j
	}
	h := sha256.New()
	h.Write(b)
	return fmt.Sprintf("%x", h.Sum(nil))
}
