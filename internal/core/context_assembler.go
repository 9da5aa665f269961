// ABOUTME: ContextAssembler gathers the tree neighbourhood around a search hit
// ABOUTME: Parent, up to 3 children and up to 2 siblings, in creation order
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

const (
	maxContextChildren = 3
	maxContextSiblings = 2
)

// ChunkLookup fetches a chunk by durable id; used for parents outside the pool
type ChunkLookup interface {
	GetChunk(ctx context.Context, id string) (*models.StoredChunk, error)
}

// ContextAssembler builds ContextBundles from an over-fetched candidate pool
type ContextAssembler struct {
	lookup ChunkLookup
	logger *slog.Logger
}

// NewContextAssembler creates an assembler; lookup may be nil
func NewContextAssembler(lookup ChunkLookup, logger *slog.Logger) *ContextAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextAssembler{lookup: lookup, logger: logger}
}

// Assemble collects the hit's parent, children and siblings from pool. Order
// within each category follows creation order, never score.
func (a *ContextAssembler) Assemble(ctx context.Context, hit models.SearchResult, pool []models.SearchResult) models.ContextBundle {
	ordered := make([]models.SearchResult, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Chunk.SequenceIndex < ordered[j].Chunk.SequenceIndex
	})

	bundle := models.ContextBundle{
		Children: []models.SearchResult{},
		Siblings: []models.SearchResult{},
	}
	hitID := hit.Chunk.ID
	parentID := hit.Chunk.ParentID

	for _, c := range ordered {
		switch {
		case c.Chunk.ID == hitID:
			continue
		case parentID != "" && c.Chunk.ID == parentID:
			if bundle.Parent == nil {
				p := c
				bundle.Parent = &p
			}
		case c.Chunk.ParentID == hitID:
			if len(bundle.Children) < maxContextChildren {
				bundle.Children = append(bundle.Children, c)
			}
		case parentID != "" && c.Chunk.ParentID == parentID:
			if len(bundle.Siblings) < maxContextSiblings {
				bundle.Siblings = append(bundle.Siblings, c)
			}
		}
	}

	if bundle.Parent == nil && parentID != "" && a.lookup != nil {
		parent, err := a.lookup.GetChunk(ctx, parentID)
		switch {
		case err != nil:
			a.logger.Debug("parent lookup failed", "parent_id", parentID, "error", err)
		case parent != nil:
			bundle.Parent = &models.SearchResult{Chunk: *parent}
		}
	}

	return bundle
}

// FormatHit renders a hit and its context as plain text sections
func FormatHit(hit models.RankedHit, maxChars int) string {
	var sections []string

	c := hit.Chunk
	header := fmt.Sprintf("[%s] score=%.3f similarity=%.3f time=%s-%s",
		c.Level, hit.Score, hit.Similarity, c.TimeRange.Start, c.TimeRange.End)
	if c.Speaker != "" {
		header += " speaker=" + c.Speaker
	}
	if c.Title != "" {
		header += " title=" + c.Title
	}
	sections = append(sections, header+"\n"+TruncateText(c.Text, maxChars))

	if p := hit.Context.Parent; p != nil {
		sections = append(sections, fmt.Sprintf("PARENT (%s):\n%s", p.Chunk.Level, TruncateText(p.Chunk.Text, maxChars)))
	}
	for _, ch := range hit.Context.Children {
		sections = append(sections, fmt.Sprintf("CHILD (%s):\n%s", ch.Chunk.Level, TruncateText(ch.Chunk.Text, maxChars)))
	}
	for _, sib := range hit.Context.Siblings {
		sections = append(sections, fmt.Sprintf("SIBLING (%s):\n%s", sib.Chunk.Level, TruncateText(sib.Chunk.Text, maxChars)))
	}

	return strings.Join(sections, "\n\n")
}
