package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"

	"collective/engine/actors"
	"collective/messaging/blocks"
	"collective/state/membership"
	"collective/state/votes"
)

type options struct {
	key     string
	log     string
	chain   bool
	publish bool
	dryRun  bool
}

func rootCommand() *cobra.Command {
	var o options
	rootCmd := &cobra.Command{
		Use:   "event-tool",
		Short: "Create signed command events for the membership engine and append them to the event log.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.key == "" {
				return nil
			}
			_, err := actors.UseWallet(o.key)
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&o.key, "key", "k", "", "sign with this hex private key instead of the wallet")
	rootCmd.PersistentFlags().StringVarP(&o.log, "log", "l", "", "append to this event log instead of the configured one")
	rootCmd.PersistentFlags().BoolVarP(&o.chain, "chain", "c", false, "tag the event with our previous event in the log")
	rootCmd.PersistentFlags().BoolVarP(&o.publish, "publish", "p", false, "also send the event to the configured relays")
	rootCmd.PersistentFlags().BoolVarP(&o.dryRun, "simulate", "s", false, "print the event without writing or publishing it")

	var stake, sharesRequested uint64
	apply := &cobra.Command{
		Use:   "apply",
		Short: "apply for membership, promising a stake for a number of shares",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.emit(cmd.Context(), membership.KindApplication, membership.Kind640800{StakePromised: stake, SharesRequested: sharesRequested}, nil)
		},
	}
	apply.Flags().Uint64Var(&stake, "stake", 0, "capital promised")
	apply.Flags().Uint64Var(&sharesRequested, "shares", 0, "shares requested")
	apply.MarkFlagRequired("stake")
	apply.MarkFlagRequired("shares")

	var proposal uint64
	sponsor := &cobra.Command{
		Use:   "sponsor",
		Short: "sponsor an application so that members can vote on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.emit(cmd.Context(), membership.KindSponsorship, membership.Kind640802{Proposal: proposal}, nil)
		},
	}
	sponsor.Flags().Uint64Var(&proposal, "proposal", 0, "proposal index")
	sponsor.MarkFlagRequired("proposal")

	var direction string
	var magnitude uint64
	vote := &cobra.Command{
		Use:   "vote",
		Short: "vote on a sponsored application, replacing any vote we already have on it",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := votes.ParseDirection(direction)
			if err != nil {
				return err
			}
			return o.emit(cmd.Context(), membership.KindVote, membership.Kind640804{Proposal: proposal, Direction: d, Magnitude: magnitude}, nil)
		},
	}
	vote.Flags().Uint64Var(&proposal, "proposal", 0, "proposal index")
	vote.Flags().StringVarP(&direction, "direction", "d", "in_favor", "in_favor or against")
	vote.Flags().Uint64VarP(&magnitude, "magnitude", "m", 0, "shares to put behind the vote")
	vote.MarkFlagRequired("proposal")
	vote.MarkFlagRequired("magnitude")

	var exitShares uint64
	exit := &cobra.Command{
		Use:   "exit",
		Short: "sell shares back to the treasury at the current collateralization ratio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.emit(cmd.Context(), membership.KindExit, membership.Kind640806{Shares: exitShares}, nil)
		},
	}
	exit.Flags().Uint64Var(&exitShares, "shares", 0, "shares to sell")
	exit.MarkFlagRequired("shares")

	var height uint64
	var hash string
	block := &cobra.Command{
		Use:   "block",
		Short: "announce a new block, moving the engine's clock forward",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := nostr.Tags{
				{"height", strconv.FormatUint(height, 10)},
				{"hash", hash},
				{"mediantime", strconv.FormatInt(time.Now().Unix(), 10)},
			}
			return o.emit(cmd.Context(), blocks.KindBlock, nil, tags)
		},
	}
	block.Flags().Uint64Var(&height, "height", 0, "block height")
	block.Flags().StringVar(&hash, "hash", "", "block hash")
	block.MarkFlagRequired("height")
	block.MarkFlagRequired("hash")

	rootCmd.AddCommand(apply, sponsor, vote, exit, block)
	return rootCmd
}

func (o options) logPath() string {
	if o.log != "" {
		return o.log
	}
	return actors.Path(actors.MakeOrGetConfig(), "eventLog")
}

// emit builds, signs and records one event. A nil content leaves the event content empty.
func (o options) emit(ctx context.Context, kind int, content any, tags nostr.Tags) error {
	e := nostr.Event{
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      kind,
		Tags:      tags,
	}
	if e.Tags == nil {
		e.Tags = nostr.Tags{}
	}
	if content != nil {
		b, err := json.Marshal(content)
		if err != nil {
			return err
		}
		e.Content = string(b)
	}
	if o.chain {
		previous, err := lastEventOf(o.logPath(), actors.MyWallet().Account)
		if err != nil {
			return err
		}
		e.Tags = append(e.Tags, nostr.Tag{"r", previous})
	}
	if err := actors.SignEvent(&e); err != nil {
		return err
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	if o.dryRun {
		return nil
	}
	if err := appendEvent(o.logPath(), b); err != nil {
		return err
	}
	if o.publish {
		ctx, cancel := context.WithTimeout(ctx, time.Second*10)
		defer cancel()
		count, err := actors.PublishToRelays(ctx, actors.MakeOrGetConfig().GetStringSlice("relays"), e)
		if err != nil {
			return err
		}
		fmt.Printf("published to %d relays\n", count)
	}
	return nil
}
