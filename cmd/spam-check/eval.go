package main

import (
	"context"
	"fmt"
	"io"
	"os"

	repstore "github.com/mikey/chat-spam-guard/internal/adapters/reputation"
	"github.com/mikey/chat-spam-guard/internal/adapters/source"
	"github.com/mikey/chat-spam-guard/internal/di"
	"github.com/mikey/chat-spam-guard/internal/engine"
	"github.com/mikey/chat-spam-guard/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEvalCommand(flags *di.CLIFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "eval [file.jsonl]",
		Short: "Replay a JSONL file of events through the engine",
		Long: `Replay a JSONL file of events through the engine

Each line is one event object with author_id, channel_id, community_id,
text, mention_count and timestamp (milliseconds). Events are scored in
file order, so frequency and duplicate checks see earlier lines.`,
		Example: `  # Replay a capture
  spam-check eval capture.jsonl

  # Read from stdin and print verdicts as JSON
  cat capture.jsonl | spam-check eval --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input file: %w", err)
				}
				defer f.Close()
				in = f
			}

			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return err
			}
			return container.Invoke(func(
				e *engine.Engine,
				processor *utils.TextProcessor,
				store repstore.Store,
				logger *zap.Logger,
			) error {
				defer logger.Sync()
				if store != nil {
					defer store.Close()
				}

				out := cmd.OutOrStdout()
				src := source.NewJSONLSource(e, processor, logger, in, out, flags.Verbose, jsonOutput)
				runErr := src.Start(context.Background())
				e.Close()
				if runErr != nil {
					return runErr
				}

				if !jsonOutput {
					s := src.Summary()
					fmt.Fprintf(out, "\n=== Summary ===\n")
					fmt.Fprintf(out, "Events:    %d\n", s.Events)
					fmt.Fprintf(out, "Spam:      %d\n", s.Spam)
					fmt.Fprintf(out, "Malformed: %d\n", s.Malformed)
					fmt.Fprintf(out, "Elapsed:   %v\n", s.Elapsed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON verdict per line")
	return cmd
}
