package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mikey/chat-spam-guard/internal/core"
	"github.com/mikey/chat-spam-guard/internal/di"
	"github.com/mikey/chat-spam-guard/internal/tracker"
	"github.com/spf13/cobra"
)

func newFloodCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "flood [file.jsonl]",
		Short: "Report frequency, duplicate and channel floods in a capture",
		Long: `Report frequency, duplicate and channel floods in a capture

Only the windowed history checks run; content heuristics and reputation
are skipped. Useful for tuning max_messages, max_duplicates and
channel_max_per_author against recorded traffic.`,
		Example: `  spam-check flood capture.jsonl`,
		Args:    cobra.MaximumNArgs(1),
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
			return container.Invoke(func(tr *tracker.Tracker, thresholds *core.ThresholdStore) error {
				return replayFloods(tr, thresholds.Load(), in, cmd.OutOrStdout())
			})
		},
	}
}

// replayFloods feeds events through tr in file order and prints every
// event that trips a windowed check
func replayFloods(tr *tracker.Tracker, t core.Thresholds, in io.Reader, out io.Writer) error {
	var events, flagged, malformed int

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var event core.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil || event.Validate() != nil {
			malformed++
			continue
		}
		events++

		var hits []string
		if ok, n := tr.IsFlooding(event.AuthorID, event.Timestamp, t); ok {
			hits = append(hits, fmt.Sprintf("frequency=%d", n))
		}
		if ok, n := tr.IsDuplicateFlood(event.AuthorID, event.Text, event.Timestamp, t); ok {
			hits = append(hits, fmt.Sprintf("duplicates=%d", n))
		}
		if event.ChannelID != "" {
			if ok, n := tr.IsChannelFlood(event.ChannelID, event.AuthorID, event.Timestamp, t); ok {
				hits = append(hits, fmt.Sprintf("channel=%d", n))
			}
		}
		tr.Record(event.AuthorID, core.HistoryEntry{Text: event.Text, Timestamp: event.Timestamp})

		if len(hits) > 0 {
			flagged++
			fmt.Fprintf(out, "%5d author=%s ts=%d %s\n", events, event.AuthorID, event.Timestamp, strings.Join(hits, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintf(out, "\nEvents: %d  Flooding: %d  Malformed: %d\n", events, flagged, malformed)
	return nil
}
