package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"

	"collective/engine/actors"
	"collective/engine/library"
	"collective/messaging/blocks"
	"collective/messaging/relays"
	"collective/state/membership"
)

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "engine",
		Short: "Runs the membership engine of a collective over a log of signed command events.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.AddCommand(replayCommand(), showCommand(), configCommand(), watchCommand())
	return rootCmd
}

func replayCommand() *cobra.Command {
	var announce, publish bool
	replay := &cobra.Command{
		Use:   "replay [event log]",
		Short: "apply every event in the log that has not been applied yet and save a checkpoint",
		Long: "Events are read one json object per line. Events that were already applied are skipped,\n" +
			"so the same log can be replayed as it grows.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := actors.MakeOrGetConfig()
			path := actors.Path(conf, "eventLog")
			if len(args) == 1 {
				path = args[0]
			}
			events, err := readEventFile(path)
			if err != nil {
				return err
			}
			n, err := openNode(conf)
			if err != nil {
				return err
			}
			defer n.close()
			var skipped int
			for _, e := range events {
				if n.guard.Applied(e.ID) {
					skipped++
					continue
				}
				n.conductor.Push(e)
			}
			var applied, refused int
			for _, r := range n.conductor.Drain() {
				if r.Err != nil {
					refused++
					continue
				}
				applied++
			}
			c, hash, err := n.checkpoint()
			if err != nil {
				return err
			}
			if err := n.export(); err != nil {
				return err
			}
			fmt.Printf("applied %d events, refused %d, skipped %d\ncheckpoint %s at height %d\n", applied, refused, skipped, hash, c.Height)
			if !announce {
				return nil
			}
			e, err := actors.StateAnnouncement(hash, c.Height)
			if err != nil {
				return err
			}
			b, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			if publish {
				ctx, cancel := context.WithTimeout(cmd.Context(), time.Second*10)
				defer cancel()
				count, err := actors.PublishToRelays(ctx, conf.GetStringSlice("relays"), e)
				if err != nil {
					return err
				}
				fmt.Printf("published to %d relays\n", count)
			}
			return nil
		},
	}
	replay.Flags().BoolVarP(&announce, "announce", "a", false, "print a signed announcement of the checkpoint hash")
	replay.Flags().BoolVarP(&publish, "publish", "p", false, "send the announcement to the configured relays")
	return replay
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [proposals|members|captable|treasury|custody]",
		Short: "print the state at the latest checkpoint as json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(actors.MakeOrGetConfig())
			if err != nil {
				return err
			}
			defer n.close()
			views := map[string]any{
				"proposals": n.engine.Proposals(),
				"members":   n.engine.Members(),
				"captable":  n.engine.CapTable(),
				"treasury":  n.engine.CollateralizationRatio(),
				"custody":   n.custody.GetMapped(),
			}
			var v any = views
			if len(args) == 1 {
				var ok bool
				if v, ok = views[args[0]]; !ok {
					return fmt.Errorf("nothing called %q to show", args[0])
				}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
}

func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "print the current config",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		},
	}
}

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "replay the event log whenever it grows and inspect the state with single keypresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := actors.MakeOrGetConfig()
			n, err := openNode(conf)
			if err != nil {
				return err
			}
			defer n.close()
			terminate := make(chan struct{})
			actors.SetTerminateChan(terminate)
			actors.GetWaitGroup().Add(1)
			go n.follow(actors.Path(conf, "eventLog"), terminate)
			ctx, cancel := context.WithCancel(cmd.Context())
			if urls := conf.GetStringSlice("relays"); len(urls) > 0 {
				events := make(chan nostr.Event)
				kinds := []int{blocks.KindBlock, membership.KindApplication, membership.KindSponsorship, membership.KindVote, membership.KindExit}
				wait := relays.Subscribe(ctx, urls, kinds, relays.NewCache(), events)
				actors.GetWaitGroup().Add(1)
				go func() {
					defer actors.GetWaitGroup().Done()
					n.conductor.Run(ctx, terminate, events, nil)
					cancel()
					wait()
				}()
			}
			cliListener(n, terminate)
			cancel()
			actors.GetWaitGroup().Wait()
			if _, hash, err := n.checkpoint(); err == nil {
				fmt.Println("saved checkpoint " + hash)
			} else {
				library.LogCLI(err.Error(), 1)
			}
			return nil
		},
	}
}

// follow reapplies the log every few seconds until terminate is closed. Events already
// applied are refused by the replay guard so only new ones change the state.
func (n *node) follow(path string, terminate chan struct{}) {
	defer actors.GetWaitGroup().Done()
	for {
		select {
		case <-terminate:
			return
		case <-time.After(time.Second * 3):
			events, err := readEventFile(path)
			if err != nil {
				library.LogCLI(err.Error(), 3)
				continue
			}
			for _, e := range events {
				if n.guard.Applied(e.ID) {
					continue
				}
				n.conductor.Push(e)
			}
			for _, r := range n.conductor.Drain() {
				if r.Err == nil {
					library.LogCLI(fmt.Sprintf("applied %s kind %d", r.Event, r.Kind), 4)
				}
			}
		}
	}
}
