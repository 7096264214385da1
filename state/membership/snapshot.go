package membership

import (
	"fmt"

	"golang.org/x/exp/maps"

	"collective/engine/library"
	"collective/state/identity"
	"collective/state/shares"
	"collective/state/treasury"
	"collective/state/votes"
)

// State is everything the engine owns, in a form that survives encoding.
type State struct {
	Proposals     []Proposal                                `json:"proposals"`
	Tallies       map[uint64]votes.VotingState              `json:"tallies"`
	Ballots       map[uint64]map[library.Account]votes.Vote `json:"ballots"`
	LastIndex     uint64                                    `json:"last_index"`
	Shares        shares.Mapped                             `json:"shares"`
	Members       identity.Mapped                           `json:"members"`
	MemberCounter int64                                     `json:"member_counter"`
	Treasury      treasury.Ratio                            `json:"treasury"`
}

func (s State) Hash() library.Sha256 {
	return library.Sha256Sum(s)
}

func (e *Engine) Snapshot() State {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	s := State{
		Proposals:     e.orderedProposals(),
		Tallies:       maps.Clone(e.tallies),
		Ballots:       make(map[uint64]map[library.Account]votes.Vote, len(e.ballots)),
		LastIndex:     e.lastIndex,
		Shares:        e.ledger.GetMapped(),
		Members:       e.registry.GetMap(),
		MemberCounter: e.registry.Counter(),
		Treasury:      e.treasury.Ratio(),
	}
	for index, b := range e.ballots {
		s.Ballots[index] = maps.Clone(b)
	}
	return s
}

// Restore replaces the engine's state with a snapshot after checking that it hangs together.
// On error the engine is unchanged.
func (e *Engine) Restore(s State) error {
	if err := s.validate(); err != nil {
		return err
	}
	ledger := shares.NewLedger()
	if err := ledger.Restore(s.Shares); err != nil {
		return fmt.Errorf("%w: %s", ErrCorruptState, err.Error())
	}
	registry := identity.NewRegistry()
	if err := registry.Restore(s.Members, s.MemberCounter); err != nil {
		return fmt.Errorf("%w: %s", ErrCorruptState, err.Error())
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.ledger = ledger
	e.registry = registry
	e.treasury.Restore(s.Treasury)
	e.proposals = make(map[uint64]Proposal, len(s.Proposals))
	for _, p := range s.Proposals {
		e.proposals[p.Index] = p
	}
	e.tallies = make(map[uint64]votes.VotingState, len(s.Tallies))
	maps.Copy(e.tallies, s.Tallies)
	e.ballots = make(map[uint64]map[library.Account]votes.Vote, len(s.Ballots))
	for index, b := range s.Ballots {
		e.ballots[index] = maps.Clone(b)
	}
	e.lastIndex = s.LastIndex
	return nil
}

func (s State) validate() error {
	seen := make(map[uint64]struct{}, len(s.Proposals))
	open := make(map[library.Account]library.Shares)
	for _, p := range s.Proposals {
		if p.Index == 0 || p.Index > s.LastIndex {
			return fmt.Errorf("%w: proposal index %d outside 1..%d", ErrCorruptState, p.Index, s.LastIndex)
		}
		if _, dup := seen[p.Index]; dup {
			return fmt.Errorf("%w: proposal %d appears twice", ErrCorruptState, p.Index)
		}
		seen[p.Index] = struct{}{}
		_, hasTally := s.Tallies[p.Index]
		if p.Stage == Application && hasTally {
			return fmt.Errorf("%w: unsponsored proposal %d has a tally", ErrCorruptState, p.Index)
		}
		if p.Stage == Voting {
			if !hasTally {
				return fmt.Errorf("%w: proposal %d is voting without a tally", ErrCorruptState, p.Index)
			}
			ballots, hasBallots := s.Ballots[p.Index]
			if !hasBallots || ballots == nil {
				return fmt.Errorf("%w: proposal %d is voting without ballots", ErrCorruptState, p.Index)
			}
			var inFavor, against library.Shares
			for voter, v := range ballots {
				switch v.Direction {
				case votes.InFavor:
					inFavor += v.Magnitude
				case votes.Against:
					against += v.Magnitude
				default:
					return fmt.Errorf("%w: %s has an unknown vote on proposal %d", ErrCorruptState, voter, p.Index)
				}
				open[voter] += v.Magnitude
			}
			tally := s.Tallies[p.Index]
			if tally.InFavor != inFavor || tally.Against != against {
				return fmt.Errorf("%w: proposal %d tallies %d/%d but its ballots add up to %d/%d", ErrCorruptState, p.Index, tally.InFavor, tally.Against, inFavor, against)
			}
		}
	}
	for index := range s.Tallies {
		if _, ok := seen[index]; !ok {
			return fmt.Errorf("%w: tally for unknown proposal %d", ErrCorruptState, index)
		}
	}
	for voter, reserved := range open {
		if s.Shares[voter].ReservedShares < reserved {
			return fmt.Errorf("%w: %s has votes of %d but only %d reserved", ErrCorruptState, voter, reserved, s.Shares[voter].ReservedShares)
		}
	}
	var total library.Shares
	for _, p := range s.Shares {
		total += p.TotalShares
	}
	if total != s.Treasury.SharesOutstanding {
		return fmt.Errorf("%w: cap table holds %d shares but the treasury backs %d", ErrCorruptState, total, s.Treasury.SharesOutstanding)
	}
	return nil
}
