package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	repstore "github.com/mikey/chat-spam-guard/internal/adapters/reputation"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/di"
	"github.com/mikey/chat-spam-guard/internal/reputation"
	"github.com/spf13/cobra"
)

func newReputationCommand(flags *di.CLIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reputation",
		Short: "Inspect and seed the reputation store",
	}
	cmd.AddCommand(newReputationPutCommand(flags), newReputationGetCommand(flags))
	return cmd
}

// withStore resolves the configured reputation store
func withStore(flags *di.CLIFlags, fn func(store repstore.Store) error) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return err
	}
	return container.Invoke(func(store repstore.Store) error {
		if store == nil {
			return fmt.Errorf("no reputation store configured, use --reputation")
		}
		defer store.Close()
		return fn(store)
	})
}

func newReputationPutCommand(flags *di.CLIFlags) *cobra.Command {
	var (
		age        time.Duration
		violations int
		score      float64
	)

	cmd := &cobra.Command{
		Use:     "put <author-id>",
		Short:   "Create or replace an author's reputation",
		Example: `  spam-check reputation put u123 --age 2h --violations 1 --reputation sqlite --sqlite-path rep.db`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(flags, func(store repstore.Store) error {
				r := repstore.Record{
					AuthorID:       args[0],
					CreatedAt:      time.Now().Add(-age),
					ViolationCount: violations,
					Score:          score,
				}
				if err := store.Put(context.Background(), r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&age, "age", 30*24*time.Hour, "Account age")
	cmd.Flags().IntVar(&violations, "violations", 0, "Prior violation count")
	cmd.Flags().Float64Var(&score, "score", 0, "Reputation score")
	return cmd
}

func newReputationGetCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <author-id>",
		Short: "Show an author's reputation and risk modifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(flags, func(store repstore.Store) error {
				snap, err := store.Lookup(context.Background(), args[0])
				if errors.Is(err, core.ErrUnknownAuthor) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: unknown author (modifier 1.00)\n", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Author:     %s\n", args[0])
				fmt.Fprintf(out, "Age:        %v\n", time.Duration(snap.AccountAgeMs)*time.Millisecond)
				fmt.Fprintf(out, "Violations: %d\n", snap.ViolationCount)
				fmt.Fprintf(out, "Score:      %.2f\n", snap.ReputationScore)
				fmt.Fprintf(out, "Modifier:   %.2f\n", reputation.Modifier(*snap))
				return nil
			})
		},
	}
}
