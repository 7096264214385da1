package treasury

import (
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"collective/engine/library"
)

var (
	ErrInsufficientTreasury = errors.New("treasury cannot cover the buyback")
	ErrOverflow             = errors.New("treasury quantity overflows")
)

// Ratio is the collective's collateralization: pooled capital per share outstanding.
type Ratio struct {
	PooledCapital     library.Capital `json:"pooled_capital"`
	SharesOutstanding library.Shares  `json:"shares_outstanding"`
}

// Treasury tracks the pooled capital and the number of shares it backs. The capital itself
// is held by custody under Account.
type Treasury struct {
	data    Ratio
	account library.Account
	mutex   *deadlock.Mutex
}

func New(account library.Account) *Treasury {
	return &Treasury{account: account, mutex: &deadlock.Mutex{}}
}

// Account is the custody account that holds pooled capital.
func (t *Treasury) Account() library.Account {
	return t.account
}

func (t *Treasury) Ratio() Ratio {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.data
}

func (t *Treasury) Deposit(amount library.Capital) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.data.PooledCapital+amount < t.data.PooledCapital {
		return fmt.Errorf("%w: depositing %d", ErrOverflow, amount)
	}
	t.data.PooledCapital += amount
	return nil
}

func (t *Treasury) Issue(amount library.Shares) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.data.SharesOutstanding+amount < t.data.SharesOutstanding {
		return fmt.Errorf("%w: issuing %d", ErrOverflow, amount)
	}
	t.data.SharesOutstanding += amount
	return nil
}

// Buyback retires shares against a capital payout.
func (t *Treasury) Buyback(amount library.Shares, payout library.Capital) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if amount > t.data.SharesOutstanding || payout > t.data.PooledCapital {
		return fmt.Errorf("%w: %d shares for %d capital against %d/%d", ErrInsufficientTreasury, amount, payout, t.data.PooledCapital, t.data.SharesOutstanding)
	}
	t.data.SharesOutstanding -= amount
	t.data.PooledCapital -= payout
	return nil
}

// ProRata is the capital a holder of amount shares is entitled to, rounded down.
func (t *Treasury) ProRata(amount library.Shares) library.Capital {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if amount >= t.data.SharesOutstanding {
		if amount == t.data.SharesOutstanding {
			return t.data.PooledCapital
		}
		return 0
	}
	c, ok := library.MulDiv(amount, t.data.PooledCapital, t.data.SharesOutstanding)
	if !ok {
		return 0
	}
	return c
}

func (t *Treasury) Restore(r Ratio) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.data = r
}
