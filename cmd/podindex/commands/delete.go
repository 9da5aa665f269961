// ABOUTME: CLI command to delete an indexed transcript
// ABOUTME: Removes the transcript record and every chunk it owns
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/core"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <transcript-id>",
		Short: "Delete a transcript and its chunks",
		Long: `Delete a transcript and every chunk in its tree.

Examples:
  podindex delete tr_123`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Store.DeleteTranscript(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("transcript %s not found", args[0])
		}
		return fmt.Errorf("deleting transcript: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
	}
	return nil
}
