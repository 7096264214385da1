// Package custody is an in-memory capital ledger. The governance engine only needs it
// to lock, unlock and transfer; Fund is how capital enters from outside.
package custody

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"

	"collective/engine/library"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient free capital")
	ErrInsufficientLocked = errors.New("insufficient locked capital")
	ErrOverflow           = errors.New("capital quantity overflows")
)

type Balance struct {
	Free   library.Capital `json:"free"`
	Locked library.Capital `json:"locked"`
}

type Mapped map[library.Account]Balance

type Ledger struct {
	data  map[library.Account]Balance
	mutex *deadlock.Mutex
}

func NewLedger() *Ledger {
	return &Ledger{
		data:  make(map[library.Account]Balance),
		mutex: &deadlock.Mutex{},
	}
}

func (l *Ledger) Fund(account library.Account, amount library.Capital) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	b := l.data[account]
	if b.Free+amount < b.Free {
		return fmt.Errorf("%w: funding %s with %d", ErrOverflow, account, amount)
	}
	b.Free += amount
	l.upsert(account, b)
	return nil
}

func (l *Ledger) Lock(account library.Account, amount library.Capital) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	b := l.data[account]
	if b.Free < amount {
		return fmt.Errorf("%w: %s has %d and needs %d", ErrInsufficientFunds, account, b.Free, amount)
	}
	if b.Locked+amount < b.Locked {
		return fmt.Errorf("%w: locking %d for %s", ErrOverflow, amount, account)
	}
	b.Free -= amount
	b.Locked += amount
	l.upsert(account, b)
	return nil
}

func (l *Ledger) Unlock(account library.Account, amount library.Capital) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	b := l.data[account]
	if b.Locked < amount {
		return fmt.Errorf("%w: %s has %d locked and would unlock %d", ErrInsufficientLocked, account, b.Locked, amount)
	}
	if b.Free+amount < b.Free {
		return fmt.Errorf("%w: unlocking %d for %s", ErrOverflow, amount, account)
	}
	b.Locked -= amount
	b.Free += amount
	l.upsert(account, b)
	return nil
}

// Transfer moves free capital between accounts.
func (l *Ledger) Transfer(from, to library.Account, amount library.Capital) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	src := l.data[from]
	if src.Free < amount {
		return fmt.Errorf("%w: %s has %d and would send %d", ErrInsufficientFunds, from, src.Free, amount)
	}
	if from == to {
		return nil
	}
	dst := l.data[to]
	if dst.Free+amount < dst.Free {
		return fmt.Errorf("%w: crediting %s with %d", ErrOverflow, to, amount)
	}
	src.Free -= amount
	dst.Free += amount
	l.upsert(from, src)
	l.upsert(to, dst)
	return nil
}

func (l *Ledger) Balance(account library.Account) Balance {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.data[account]
}

func (l *Ledger) GetMapped() Mapped {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return maps.Clone(l.data)
}

func (l *Ledger) Restore(m Mapped) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.data = make(map[library.Account]Balance, len(m))
	maps.Copy(l.data, m)
}

func (l *Ledger) upsert(account library.Account, b Balance) {
	if b == (Balance{}) {
		delete(l.data, account)
		return
	}
	l.data[account] = b
}
