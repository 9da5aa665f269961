// ABOUTME: CLI command to search indexed transcripts
// ABOUTME: Routes the query to preferred levels and prints ranked hits with context
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
)

var (
	searchLimit      int
	searchTranscript string
	searchContext    bool
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed transcripts",
		Long: `Semantic search over every indexed transcript.

Broad questions favour episode and topic chunks, specific questions
favour paragraphs and sentences. Each hit carries its timestamp range.

Examples:
  podindex search "what is this episode about"
  podindex search "what did they say about batteries" --limit 3
  podindex search "pricing" --transcript tr_123 --context`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "Maximum number of results")
	cmd.Flags().StringVar(&searchTranscript, "transcript", "", "Restrict to one transcript id")
	cmd.Flags().BoolVar(&searchContext, "context", false, "Show parent and sibling context for each hit")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.RequireWritable(); err != nil {
		return err
	}

	hits, classification, err := svc.Retriever.Search(cmd.Context(), args[0], core.SearchParams{
		Limit:        searchLimit,
		TranscriptID: searchTranscript,
	})
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		if hits == nil {
			hits = []models.RankedHit{}
		}
		return writeJSON(out, map[string]interface{}{
			"classification": classification,
			"hits":           hits,
		})
	}

	if !quiet {
		fmt.Fprintf(out, "Query type: %s (levels: %v)\n\n", classification.Category, classification.Levels)
	}

	if len(hits) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No matching chunks found.")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tLEVEL\tTIME\tTEXT")
	fmt.Fprintln(w, "-----\t-----\t----\t----")
	for _, hit := range hits {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			hit.Score,
			hit.Chunk.Level,
			formatTimeRange(hit.Chunk.TimeRange),
			truncate(oneLine(hit.Chunk.Text), 70),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if searchContext {
		for i, hit := range hits {
			printContext(cmd, i+1, hit)
		}
	}

	if !quiet {
		fmt.Fprintf(out, "\n%d result(s)\n", len(hits))
	}
	return nil
}

func printContext(cmd *cobra.Command, n int, hit models.RankedHit) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n#%d %s %s (%s)\n", n, hit.Chunk.Level, hit.Chunk.ID, hit.Chunk.TranscriptID)
	if p := hit.Context.Parent; p != nil {
		label := p.Chunk.Title
		if label == "" {
			label = truncate(oneLine(p.Chunk.Text), 60)
		}
		fmt.Fprintf(out, "  parent   [%s] %s\n", p.Chunk.Level, label)
	}
	for _, child := range hit.Context.Children {
		fmt.Fprintf(out, "  child    [%s] %s\n", child.Chunk.Level, truncate(oneLine(child.Chunk.Text), 60))
	}
	for _, sib := range hit.Context.Siblings {
		fmt.Fprintf(out, "  sibling  [%s] %s\n", sib.Chunk.Level, truncate(oneLine(sib.Chunk.Text), 60))
	}
}

func formatTimeRange(r models.TimeRange) string {
	if r.Start == r.End {
		return r.Start
	}
	return r.Start + "-" + r.End
}
