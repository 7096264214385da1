package main

import (
	"encoding/json"
	"fmt"

	"github.com/eiannone/keyboard"

	"collective/engine/actors"
	"collective/engine/library"
)

// cliListener is a cheap and nasty way to inspect a running engine. It listens for keypresses and prints state.
func cliListener(n *node, interrupt chan struct{}) {
	fmt.Println("VIEW CURRENT STATE:\ns: cap table\nm: members\np: proposals\nt: treasury\nb: current block\nw: current wallet\nr: replay state\nc: engine config\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			panic(err)
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to anything. See main.cliListener for more details.")
		case "s":
			ratio := n.engine.CollateralizationRatio()
			for account, p := range n.engine.CapTable() {
				fmt.Printf("\nAccount: %s\nTotal Shares: %d\nReserved: %d\nFree: %d\nPermille: %d\n",
					account, p.TotalShares, p.ReservedShares, p.Free(), permille(p.TotalShares, ratio.SharesOutstanding))
			}
		case "m":
			for _, m := range n.engine.Members() {
				fmt.Printf("%d: %s admitted at %d by proposal %d\n", m.Order, m.Account, m.AdmittedAt, m.Proposal)
			}
		case "p":
			for _, p := range n.engine.Proposals() {
				fmt.Printf("\nProposal %d from %s: %d shares for %d, %s\n", p.Index, p.Applicant, p.SharesRequested, p.StakePromised, p.Stage)
				if tally, ok := n.engine.VotingState(p.Index); ok {
					fmt.Printf("In favor: %d Against: %d Eligible: %d Policy: %s\n", tally.InFavor, tally.Against, tally.EligibleShares, tally.Threshold)
				}
			}
		case "t":
			ratio := n.engine.CollateralizationRatio()
			fmt.Printf("Treasury %s holds %d backing %d shares\n", n.engine.TreasuryAccount(), ratio.PooledCapital, ratio.SharesOutstanding)
		case "b":
			if tip, ok := n.chain.Tip(); ok {
				fmt.Printf("Height: %d Hash: %s\n", tip.Height, tip.Hash)
			} else {
				fmt.Println("no blocks yet")
			}
		case "q":
			close(interrupt)
			return
		case "w":
			account := actors.MyWallet().Account
			fmt.Printf("Current Wallet: \n%s\n", account)
			if p, ok := n.engine.ShareProfile(account); ok {
				fmt.Printf("Shares: %d Reserved: %d\n", p.TotalShares, p.ReservedShares)
			}
			fmt.Printf("Custody: %#v\n", n.custody.Balance(account))
		case "r":
			fmt.Println(n.guard.GetCurrentHashForAccount(actors.MyWallet().Account))
			fmt.Println(n.guard.GetStateHash())
		case "c":
			b, err := json.MarshalIndent(n.engine.Config(), "", "  ")
			if err != nil {
				fmt.Println(err)
				break
			}
			fmt.Println(string(b))
		}
	}
}

func permille(part, whole uint64) uint64 {
	if whole == 0 {
		return 0
	}
	p, _ := library.MulDiv(part, 1000, whole)
	return p
}
