package main

import (
	"fmt"
	"os"

	"github.com/mikey/chat-spam-guard/internal/di"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &di.CLIFlags{}

	root := &cobra.Command{
		Use:   "spam-check",
		Short: "Offline tools for the chat spam guard",
		Long: `Offline tools for the chat spam guard

Replays recorded chat events through the scoring engine, compares
messages the way the duplicate detector does and seeds reputation
stores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.ReputationType, "reputation", "", "Reputation store type (none, memory, sqlite, mysql, redis)")
	pf.StringVar(&flags.SQLitePath, "sqlite-path", "", "SQLite reputation database path")
	pf.StringVar(&flags.RedisURL, "redis-url", "", "Redis URL for the reputation store")

	root.AddCommand(
		newEvalCommand(flags),
		newFloodCommand(flags),
		newSimilarityCommand(),
		newReputationCommand(flags),
	)
	return root
}
