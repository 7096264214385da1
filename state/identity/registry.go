package identity

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"collective/engine/library"
)

var (
	ErrNotAMember     = errors.New("not a member")
	ErrAlreadyAMember = errors.New("already a member")
)

// Registry answers is-member questions for the governance engine.
type Registry struct {
	data  map[library.Account]Member
	order int64
	mutex *deadlock.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		data:  make(map[library.Account]Member),
		mutex: &deadlock.Mutex{},
	}
}

func (r *Registry) Admit(account library.Account, at uint64, proposal uint64) (Member, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.data[account]; exists {
		return Member{}, fmt.Errorf("%w: %s", ErrAlreadyAMember, account)
	}
	r.order++
	m := Member{
		Account:    account,
		Order:      r.order,
		AdmittedAt: at,
		Proposal:   proposal,
	}
	r.data[account] = m
	return m, nil
}

func (r *Registry) Remove(account library.Account) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.data[account]; !exists {
		return fmt.Errorf("%w: %s", ErrNotAMember, account)
	}
	delete(r.data, account)
	return nil
}

func (r *Registry) IsMember(account library.Account) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, ok := r.data[account]
	return ok
}

func (r *Registry) Get(account library.Account) (Member, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	m, ok := r.data[account]
	return m, ok
}

// Members lists current members in admission order.
func (r *Registry) Members() []Member {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	members := maps.Values(r.data)
	slices.SortFunc(members, func(a, b Member) bool {
		return a.Order < b.Order
	})
	return members
}

func (r *Registry) GetMap() Mapped {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return maps.Clone(r.data)
}

// Restore replaces the registry. The admission counter resumes after the highest order seen.
func (r *Registry) Restore(m Mapped, order int64) error {
	for account, member := range m {
		if member.Account != account {
			return fmt.Errorf("registry entry %s is keyed under %s", member.Account, account)
		}
		if member.Order > order {
			order = member.Order
		}
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.data = maps.Clone(m)
	if r.data == nil {
		r.data = make(map[library.Account]Member)
	}
	r.order = order
	return nil
}

// Counter is the order of the most recently admitted member, including removed ones.
func (r *Registry) Counter() int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.order
}
