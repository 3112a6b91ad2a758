package main

import (
	"fmt"

	"github.com/mikey/chat-spam-guard/internal/similarity"
	"github.com/spf13/cobra"
)

func newSimilarityCommand() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:     "similarity <a> <b>",
		Short:   "Compare two messages like the duplicate detector",
		Example: `  spam-check similarity "free nitro here" "FREE nitro here!"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := similarity.Similarity(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "similarity: %.4f\n", score)
			fmt.Fprintf(cmd.OutOrStdout(), "duplicate:  %t (threshold %.2f)\n", score >= threshold, threshold)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0.8, "Similarity at which messages count as duplicates")
	return cmd
}
