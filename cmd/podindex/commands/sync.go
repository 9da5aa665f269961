// ABOUTME: Sync command for the Charm storage backend
// ABOUTME: Forces a push/pull with Charm cloud when the charm backend is active
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// syncer is implemented by stores that replicate to a remote
type syncer interface {
	SyncNow() error
}

// NewSyncCmd creates the sync command
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Force immediate sync with Charm cloud",
		Long: `Push local index writes to Charm cloud and pull remote ones.

Only meaningful with PODINDEX_BACKEND=charm; the sqlite backend is
local-only.`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	s, ok := svc.Store.(syncer)
	if !ok {
		return fmt.Errorf("the configured storage backend does not sync (set PODINDEX_BACKEND=charm)")
	}

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
	}
	if err := s.SyncNow(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
	}
	return nil
}
