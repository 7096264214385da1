package library

import (
	"strconv"

	"github.com/nbd-wtf/go-nostr"
)

func GetFirstTag(e nostr.Event, startsWith string) (string, bool) {
	for _, tag := range e.Tags {
		if tag.StartsWith([]string{startsWith}) {
			return tag.Value(), true
		}
	}
	return "", false
}

// GetUintTag parses the first tag with the given key as a base 10 uint64.
func GetUintTag(e nostr.Event, startsWith string) (uint64, bool) {
	v, ok := GetFirstTag(e, startsWith)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
