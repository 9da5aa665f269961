// ABOUTME: CLI command to list indexed transcripts
// ABOUTME: Shows id, title, guest, chunk counts and age
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/models"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed transcripts",
		Long: `List every indexed transcript, newest first.

Examples:
  podindex list
  podindex list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	transcripts, err := svc.Store.ListTranscripts(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		if transcripts == nil {
			transcripts = []models.Transcript{}
		}
		return writeJSON(out, transcripts)
	}

	if len(transcripts) == 0 {
		if !quiet {
			fmt.Fprintln(out, "No transcripts indexed yet. Try: podindex ingest <file>")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tGUEST\tCHUNKS\tINDEXED")
	fmt.Fprintln(w, "--\t-----\t-----\t------\t-------")
	for _, t := range transcripts {
		title := truncate(t.Title, 40)
		if t.Degraded {
			title += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			t.ID,
			title,
			truncate(t.GuestName, 24),
			t.ChunkCount,
			formatTime(t.CreatedAt),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(out, "\n%d transcript(s)", len(transcripts))
		fmt.Fprintln(out, "  (* = chapters inferred without the model)")
	}
	return nil
}
