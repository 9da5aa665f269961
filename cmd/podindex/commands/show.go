// ABOUTME: CLI command to display one transcript and its chunks
// ABOUTME: Optionally filters chunks to a single level
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
)

var (
	showLevel string
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <transcript-id>",
		Short: "Show a transcript and its chunk tree",
		Long: `Show transcript metadata and its chunks in creation order.

Examples:
  podindex show tr_123
  podindex show tr_123 --level topic`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}

	cmd.Flags().StringVar(&showLevel, "level", "", "Only show one level: episode, topic, paragraph or sentence")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	var level models.Level
	if showLevel != "" {
		parsed, err := models.ParseLevel(showLevel)
		if err != nil {
			return err
		}
		level = parsed
	}

	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	transcript, err := svc.Store.GetTranscript(ctx, args[0])
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("transcript %s not found", args[0])
		}
		return fmt.Errorf("loading transcript: %w", err)
	}

	chunks, err := svc.Store.ListChunks(ctx, transcript.ID, level)
	if err != nil {
		return fmt.Errorf("listing chunks: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		if chunks == nil {
			chunks = []models.StoredChunk{}
		}
		return writeJSON(out, map[string]interface{}{
			"transcript": transcript,
			"chunks":     chunks,
		})
	}

	if !quiet {
		fmt.Fprintf(out, "Title:   %s\n", transcript.Title)
		if transcript.GuestName != "" {
			fmt.Fprintf(out, "Guest:   %s\n", transcript.GuestName)
		}
		if transcript.Source != "" {
			fmt.Fprintf(out, "Source:  %s\n", transcript.Source)
		}
		fmt.Fprintf(out, "Chunks:  %d (%s)\n", transcript.ChunkCount, formatLevelCounts(transcript.LevelCounts))
		if transcript.Summary != "" {
			fmt.Fprintf(out, "Summary: %s\n", truncate(oneLine(transcript.Summary), 200))
		}
		fmt.Fprintln(out)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tLEVEL\tTIME\tTEXT")
	fmt.Fprintln(w, "---\t-----\t----\t----")
	for _, c := range chunks {
		text := c.Text
		if c.Title != "" {
			text = c.Title
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			c.SequenceIndex,
			c.Level,
			formatTimeRange(c.TimeRange),
			truncate(oneLine(text), 70),
		)
	}
	return w.Flush()
}
