// ABOUTME: CLI command to show how a query would be routed
// ABOUTME: Runs the phrase classifier without touching storage or providers
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/core"
)

// NewClassifyCmd creates the classify command
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <query>",
		Short: "Show which levels a query prefers",
		Long: `Classify a query as broad, specific, exploratory or default and
print the chunk levels search would favour.

Examples:
  podindex classify "which episode discusses pricing"
  podindex classify "what exactly did she say about funding"`,
		Args: cobra.ExactArgs(1),
		RunE: runClassify,
	}

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	classification := core.NewQueryClassifier().Classify(args[0])

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, classification)
	}

	fmt.Fprintf(out, "Category: %s\n", classification.Category)
	fmt.Fprintf(out, "Levels:   %v\n", classification.Levels)
	if classification.MatchedPhrase != "" && !quiet {
		fmt.Fprintf(out, "Matched:  %q\n", classification.MatchedPhrase)
	}
	return nil
}
