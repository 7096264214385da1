package membership

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"collective/engine/library"
	"collective/state/votes"
)

const (
	KindApplication = 640800
	KindSponsorship = 640802
	KindVote        = 640804
	KindExit        = 640806
)

//Kind640800 STATUS:DRAFT
//Used by a non-member to apply for membership. The event's pubkey is the applicant.
type Kind640800 struct {
	StakePromised   library.Capital `json:"stake_promised"`
	SharesRequested library.Shares  `json:"shares_requested"`
}

//Kind640802 STATUS:DRAFT
//Used by a member to sponsor an application.
type Kind640802 struct {
	Proposal uint64 `json:"proposal"`
}

//Kind640804 STATUS:DRAFT
//Used by a member to vote on a sponsored application.
type Kind640804 struct {
	Proposal  uint64          `json:"proposal"`
	Direction votes.Direction `json:"direction"`
	Magnitude library.Shares  `json:"magnitude"`
}

//Kind640806 STATUS:DRAFT
//Used by a member to sell shares back to the treasury.
type Kind640806 struct {
	Shares library.Shares `json:"shares"`
}

// Outcome describes what a handled event did.
type Outcome struct {
	Kind     int             `json:"kind"`
	Account  library.Account `json:"account"`
	Proposal uint64          `json:"proposal,omitempty"`
	Stage    string          `json:"stage,omitempty"`
	Bond     uint64          `json:"bond,omitempty"`
	Payout   library.Capital `json:"payout,omitempty"`
}

// HandleEvent decodes a command event and runs it against the engine. Signatures are the
// caller's concern.
func (e *Engine) HandleEvent(event nostr.Event) (o Outcome, err error) {
	o = Outcome{Kind: event.Kind, Account: event.PubKey}
	switch event.Kind {
	case KindApplication:
		var c Kind640800
		if err = unmarshal(event, &c); err != nil {
			return
		}
		o.Proposal, err = e.SubmitApplication(event.PubKey, c.StakePromised, c.SharesRequested)
		if err != nil {
			return
		}
		p, _ := e.Proposal(o.Proposal)
		o.Stage = p.Stage.String()
		o.Bond = p.ApplicationBond
	case KindSponsorship:
		var c Kind640802
		if err = unmarshal(event, &c); err != nil {
			return
		}
		o.Proposal = c.Proposal
		o.Bond, err = e.SponsorApplication(event.PubKey, c.Proposal)
		o.Stage = Voting.String()
	case KindVote:
		var c Kind640804
		if err = unmarshal(event, &c); err != nil {
			return
		}
		o.Proposal = c.Proposal
		var stage Stage
		stage, err = e.Vote(event.PubKey, c.Proposal, c.Direction, c.Magnitude)
		o.Stage = stage.String()
	case KindExit:
		var c Kind640806
		if err = unmarshal(event, &c); err != nil {
			return
		}
		o.Payout, err = e.Exit(event.PubKey, c.Shares)
	default:
		err = fmt.Errorf("%w: kind %d is not a membership command", ErrInvalidEvent, event.Kind)
	}
	return
}

func unmarshal(event nostr.Event, v any) error {
	if err := json.Unmarshal([]byte(event.Content), v); err != nil {
		return fmt.Errorf("%w: event %s: %s", ErrInvalidEvent, event.ID, err.Error())
	}
	return nil
}

// HandlesKind reports whether the kind is a membership command.
func HandlesKind(kind int) bool {
	switch kind {
	case KindApplication, KindSponsorship, KindVote, KindExit:
		return true
	}
	return false
}
