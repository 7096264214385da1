// Package membership is the proposal state machine of the collective.
//
// Applicants submit an application promising capital for shares. A member sponsors it by
// reserving a bond of their own shares, which opens voting. Members vote with reserved
// shares and the proposal passes as soon as its tally meets the threshold policy, at which
// point the applicant is admitted. Applications and votes that go stale are rejected by
// ExpireProposals.
//
// Every command runs to completion under one mutex, and a command that fails has changed
// nothing.
package membership

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"collective/engine/library"
	"collective/state/identity"
	"collective/state/shares"
	"collective/state/treasury"
	"collective/state/votes"
)

type Engine struct {
	config   Config
	ledger   *shares.Ledger
	registry *identity.Registry
	treasury *treasury.Treasury
	custody  Custody
	clock    Clock

	proposals map[uint64]Proposal
	tallies   map[uint64]votes.VotingState
	ballots   map[uint64]map[library.Account]votes.Vote
	lastIndex uint64

	admissionHooks []AdmissionHook
	rejectionHooks []RejectionHook

	mutex *deadlock.Mutex
}

// New builds an empty engine. The treasury's pooled capital is held by custody under
// treasuryAccount.
func New(config Config, custody Custody, clock Clock, treasuryAccount library.Account) (*Engine, error) {
	if err := config.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid governance config: %w", err)
	}
	if custody == nil || clock == nil {
		return nil, fmt.Errorf("custody and clock are required")
	}
	return &Engine{
		config:    config,
		ledger:    shares.NewLedger(),
		registry:  identity.NewRegistry(),
		treasury:  treasury.New(treasuryAccount),
		custody:   custody,
		clock:     clock,
		proposals: make(map[uint64]Proposal),
		tallies:   make(map[uint64]votes.VotingState),
		ballots:   make(map[uint64]map[library.Account]votes.Vote),
		mutex:     &deadlock.Mutex{},
	}, nil
}

// OnAdmitted registers a hook for new members. Hooks run after the command has released
// the engine, so they may query it.
func (e *Engine) OnAdmitted(hook AdmissionHook) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.admissionHooks = append(e.admissionHooks, hook)
}

func (e *Engine) OnRejected(hook RejectionHook) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.rejectionHooks = append(e.rejectionHooks, hook)
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Proposal(index uint64) (Proposal, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	p, ok := e.proposals[index]
	return p, ok
}

// Proposals lists every proposal in index order.
func (e *Engine) Proposals() []Proposal {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.orderedProposals()
}

func (e *Engine) VotingState(index uint64) (votes.VotingState, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	v, ok := e.tallies[index]
	return v, ok
}

// VoteOf is the standing vote of voter on a proposal.
func (e *Engine) VoteOf(index uint64, voter library.Account) (votes.Vote, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	v, ok := e.ballots[index][voter]
	return v, ok
}

// Ballots returns a copy of every standing vote on a proposal.
func (e *Engine) Ballots(index uint64) map[library.Account]votes.Vote {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return maps.Clone(e.ballots[index])
}

func (e *Engine) ShareProfile(account library.Account) (shares.Profile, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.ledger.Profile(account)
}

func (e *Engine) CollateralizationRatio() treasury.Ratio {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.treasury.Ratio()
}

func (e *Engine) IsMember(account library.Account) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.registry.IsMember(account)
}

func (e *Engine) Members() []identity.Member {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.registry.Members()
}

// CapTable is a copy of every share profile.
func (e *Engine) CapTable() shares.Mapped {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.ledger.GetMapped()
}

// TreasuryAccount is the custody account holding pooled capital.
func (e *Engine) TreasuryAccount() library.Account {
	return e.treasury.Account()
}

func (e *Engine) orderedProposals() []Proposal {
	ps := maps.Values(e.proposals)
	slices.SortFunc(ps, func(a, b Proposal) bool {
		return a.Index < b.Index
	})
	return ps
}

func (e *Engine) requireMember(account library.Account) error {
	if !e.registry.IsMember(account) {
		return fmt.Errorf("%w: %s", ErrNotAMember, account)
	}
	return nil
}

func (e *Engine) proposalInStage(index uint64, stage Stage) (Proposal, error) {
	p, ok := e.proposals[index]
	if !ok {
		return Proposal{}, fmt.Errorf("%w: %d", ErrNoSuchProposal, index)
	}
	if p.Stage != stage {
		return Proposal{}, fmt.Errorf("%w: proposal %d is in %s, not %s", ErrRequestInWrongStage, index, p.Stage, stage)
	}
	return p, nil
}

func (e *Engine) notifyAdmitted(admitted []admission) {
	if len(admitted) == 0 {
		return
	}
	e.mutex.Lock()
	hooks := slices.Clone(e.admissionHooks)
	e.mutex.Unlock()
	for _, a := range admitted {
		library.LogCLI(fmt.Sprintf("proposal %d passed, %s admitted with %d shares", a.proposal.Index, a.member.Account, a.proposal.SharesRequested), 4)
		for _, hook := range hooks {
			hook(a.proposal, a.member)
		}
	}
}

func (e *Engine) notifyRejected(rejected []Proposal) {
	if len(rejected) == 0 {
		return
	}
	e.mutex.Lock()
	hooks := slices.Clone(e.rejectionHooks)
	e.mutex.Unlock()
	for _, p := range rejected {
		library.LogCLI(fmt.Sprintf("proposal %d by %s was rejected", p.Index, p.Applicant), 4)
		for _, hook := range hooks {
			hook(p)
		}
	}
}
