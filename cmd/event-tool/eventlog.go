package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"

	"github.com/nbd-wtf/go-nostr"

	"collective/engine/library"
)

func appendEvent(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// lastEventOf finds the ID of the account's latest event in the log, or "" if it has none.
func lastEventOf(path string, account library.Account) (library.Sha256, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var last library.Sha256
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e nostr.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if e.PubKey == account {
			last = e.ID
		}
	}
	return last, scanner.Err()
}
