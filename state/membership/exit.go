package membership

import (
	"fmt"

	"collective/engine/library"
)

// Exit sells amount of the member's free shares back to the treasury for their pro rata
// share of pooled capital, rounded down, and returns the payout. A member left with no
// shares is removed from the registry.
func (e *Engine) Exit(member library.Account, amount library.Shares) (library.Capital, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err := e.requireMember(member); err != nil {
		return 0, err
	}
	profile, _ := e.ledger.Profile(member)
	if amount == 0 || profile.Free() < amount {
		return 0, fmt.Errorf("%w: %s has %d free shares and asked to sell %d", ErrInsufficientExitShares, member, profile.Free(), amount)
	}
	payout := e.treasury.ProRata(amount)
	if err := e.custody.Transfer(e.treasury.Account(), member, payout); err != nil {
		return 0, fmt.Errorf("%w: paying %d to %s: %s", ErrCustody, payout, member, err.Error())
	}
	if err := e.ledger.Burn(member, amount); err != nil {
		panic(err)
	}
	if err := e.treasury.Buyback(amount, payout); err != nil {
		panic(err)
	}
	if profile.TotalShares == amount {
		if err := e.registry.Remove(member); err != nil {
			panic(err)
		}
	}
	library.LogCLI(fmt.Sprintf("%s sold %d shares back to the treasury for %d", member, amount, payout), 4)
	return payout, nil
}
