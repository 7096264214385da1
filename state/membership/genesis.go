package membership

import (
	"fmt"

	"collective/engine/library"
)

// Found admits the founding members of an empty collective. Each founder's buy in capital
// moves from their custody account to the treasury and buys their shares.
func (e *Engine) Found(founders []GenesisMember) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.lastIndex > 0 || e.ledger.TotalShares() > 0 || len(e.registry.GetMap()) > 0 {
		return ErrAlreadyFounded
	}
	seen := make(map[library.Account]struct{})
	var capital library.Capital
	var total library.Shares
	for _, f := range founders {
		if _, dup := seen[f.Account]; dup {
			return fmt.Errorf("%w: %s is listed twice", ErrAlreadyAMember, f.Account)
		}
		seen[f.Account] = struct{}{}
		if f.Shares == 0 {
			return fmt.Errorf("%w: founder %s buys no shares", ErrInvalidApplication, f.Account)
		}
		if capital+f.Capital < capital || total+f.Shares < total {
			return fmt.Errorf("%w: founding buy ins overflow", ErrInvalidApplication)
		}
		capital += f.Capital
		total += f.Shares
	}

	var paid []GenesisMember
	for _, f := range founders {
		if err := e.custody.Transfer(f.Account, e.treasury.Account(), f.Capital); err != nil {
			for _, done := range paid {
				if refundErr := e.custody.Transfer(e.treasury.Account(), done.Account, done.Capital); refundErr != nil {
					library.LogCLI(fmt.Sprintf("could not refund founder %s: %s", done.Account, refundErr.Error()), 0)
				}
			}
			return fmt.Errorf("%w: buy in of %d from %s: %s", ErrCustody, f.Capital, f.Account, err.Error())
		}
		paid = append(paid, f)
	}
	now := e.clock.Now()
	for _, f := range founders {
		if err := e.ledger.Credit(f.Account, f.Shares); err != nil {
			panic(err)
		}
		if _, err := e.registry.Admit(f.Account, now, 0); err != nil {
			panic(err)
		}
	}
	if err := e.treasury.Deposit(capital); err != nil {
		panic(err)
	}
	if err := e.treasury.Issue(total); err != nil {
		panic(err)
	}
	library.LogCLI(fmt.Sprintf("collective founded by %d members with %d shares backed by %d", len(founders), total, capital), 4)
	return nil
}
