package shares

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"

	"collective/engine/library"
)

var (
	ErrInsufficientFreeShares  = errors.New("insufficient free shares")
	ErrReservationExceedsTotal = errors.New("reservation exceeds total shares")
	ErrOverflow                = errors.New("share quantity overflows")
	ErrCorruptProfile          = errors.New("profile reserves more shares than it holds")
)

// Ledger is the cap table. Every exported method is all or nothing.
type Ledger struct {
	data  map[library.Account]Profile
	total library.Shares
	mutex *deadlock.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{
		data:  make(map[library.Account]Profile),
		mutex: &deadlock.Mutex{},
	}
}

// Reserve moves amount of the member's free shares into reservation.
func (l *Ledger) Reserve(member library.Account, amount library.Shares) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p := l.data[member]
	if p.Free() < amount {
		return fmt.Errorf("%w: %s has %d free and needs %d", ErrInsufficientFreeShares, member, p.Free(), amount)
	}
	p.ReservedShares += amount
	l.upsert(member, p)
	return nil
}

// Release returns amount of reserved shares to the free balance.
// Releasing more than is reserved is a defect in the caller and panics.
func (l *Ledger) Release(member library.Account, amount library.Shares) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p := l.data[member]
	if amount > p.ReservedShares {
		panic(fmt.Sprintf("release of %d shares for %s but only %d are reserved", amount, member, p.ReservedShares))
	}
	p.ReservedShares -= amount
	l.upsert(member, p)
}

// AdjustReservation sets the member's reservation to newReserved, in either direction.
func (l *Ledger) AdjustReservation(member library.Account, newReserved library.Shares) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p := l.data[member]
	if newReserved > p.TotalShares {
		return fmt.Errorf("%w: %s holds %d and would reserve %d", ErrReservationExceedsTotal, member, p.TotalShares, newReserved)
	}
	p.ReservedShares = newReserved
	l.upsert(member, p)
	return nil
}

// Credit issues new shares to a member.
func (l *Ledger) Credit(member library.Account, amount library.Shares) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p := l.data[member]
	if p.TotalShares+amount < p.TotalShares || l.total+amount < l.total {
		return fmt.Errorf("%w: crediting %d to %s", ErrOverflow, amount, member)
	}
	p.TotalShares += amount
	l.total += amount
	l.upsert(member, p)
	return nil
}

// Burn destroys free shares.
func (l *Ledger) Burn(member library.Account, amount library.Shares) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p := l.data[member]
	if p.Free() < amount {
		return fmt.Errorf("%w: %s has %d free and would burn %d", ErrInsufficientFreeShares, member, p.Free(), amount)
	}
	p.TotalShares -= amount
	l.total -= amount
	l.upsert(member, p)
	return nil
}

func (l *Ledger) Profile(member library.Account) (Profile, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	p, ok := l.data[member]
	return p, ok
}

// TotalShares is every share in circulation, reserved or not.
func (l *Ledger) TotalShares() library.Shares {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.total
}

func (l *Ledger) GetMapped() Mapped {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return maps.Clone(l.data)
}

// Restore replaces the ledger contents, rejecting any profile that breaks the reservation rule.
func (l *Ledger) Restore(m Mapped) error {
	var total library.Shares
	for account, p := range m {
		if p.ReservedShares > p.TotalShares {
			return fmt.Errorf("%w: %s", ErrCorruptProfile, account)
		}
		if total+p.TotalShares < total {
			return fmt.Errorf("%w: restoring %s", ErrOverflow, account)
		}
		total += p.TotalShares
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.data = make(map[library.Account]Profile, len(m))
	for account, p := range m {
		l.data[account] = p
	}
	l.total = total
	return nil
}

func (l *Ledger) upsert(member library.Account, p Profile) {
	if p.ReservedShares > p.TotalShares {
		library.LogCLI(fmt.Sprintf("%s: %s %#v", ErrCorruptProfile, member, p), 0)
		panic(ErrCorruptProfile)
	}
	if p == (Profile{}) {
		delete(l.data, member)
		return
	}
	l.data[member] = p
}
