// ABOUTME: CLI command to index a transcript file
// ABOUTME: Builds the episode/topic/paragraph/sentence tree and stores it
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
)

var (
	ingestTitle string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Index a transcript",
		Long: `Index a transcript file into the hierarchical store.

Timestamps like [00:12:30] or 00:12:30 anywhere in the text are used as
time anchors. Use "-" to read the transcript from stdin.

Examples:
  podindex ingest episode-42.txt
  podindex ingest episode-42.txt --title "Episode 42"
  cat episode.txt | podindex ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestTitle, "title", "", "Episode title (default: \"Episode with <guest>\")")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	text, source, err := readTranscript(cmd, args[0])
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("transcript %s is empty", source)
	}

	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.RequireWritable(); err != nil {
		return err
	}

	transcript, err := svc.Indexer.Index(cmd.Context(), core.IndexRequest{
		Title:  ingestTitle,
		Source: source,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("indexing %s: %w", source, err)
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, transcript)
	}

	fmt.Fprintf(out, "%s\n", transcript.ID)
	if !quiet {
		fmt.Fprintf(out, "\n✓ Indexed %q", transcript.Title)
		if transcript.GuestName != "" {
			fmt.Fprintf(out, " (guest: %s)", transcript.GuestName)
		}
		fmt.Fprintf(out, "\n  %d chunks: %s\n", transcript.ChunkCount, formatLevelCounts(transcript.LevelCounts))
		if transcript.Degraded {
			fmt.Fprintf(out, "  ⚠ chapter detection degraded; topics were inferred from the text\n")
		}
	}
	return nil
}

func readTranscript(cmd *cobra.Command, path string) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(data), filepath.Base(path), nil
}

func formatLevelCounts(counts map[models.Level]int) string {
	parts := make([]string, 0, len(counts))
	for _, level := range models.AllLevels() {
		if n, ok := counts[level]; ok {
			parts = append(parts, fmt.Sprintf("%d %s", n, level))
		}
	}
	// levels outside the known set still get reported
	var extra []string
	for level, n := range counts {
		if !level.IsValid() {
			extra = append(extra, fmt.Sprintf("%d %s", n, level))
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), ", ")
}
