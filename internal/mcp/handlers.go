// ABOUTME: MCP tool handler implementations for the transcript index
// ABOUTME: Tool failures are reported as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/podcast-index/internal/app"
	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/models"
)

// maxHitChars caps hit text in search responses
const maxHitChars = 1200

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	svc *app.Service
}

// NewHandlers creates handlers over svc
func NewHandlers(svc *app.Service) *Handlers {
	return &Handlers{svc: svc}
}

// IndexTranscript handles the index_transcript tool
func (h *Handlers) IndexTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text argument is required and must be a non-empty string"), nil
	}
	if err := h.svc.RequireWritable(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	transcript, err := h.svc.Indexer.Index(ctx, core.IndexRequest{
		Title:  request.GetString("title", ""),
		Source: request.GetString("source", ""),
		Text:   text,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"transcript_id": transcript.ID,
		"title":         transcript.Title,
		"guest_name":    transcript.GuestName,
		"chunk_count":   transcript.ChunkCount,
		"level_counts":  transcript.LevelCounts,
		"degraded":      transcript.Degraded,
	})
}

// searchHit is the compact hit shape returned to agents
type searchHit struct {
	ChunkID      string           `json:"chunk_id"`
	TranscriptID string           `json:"transcript_id"`
	Level        models.Level     `json:"level"`
	Title        string           `json:"title,omitempty"`
	Speaker      string           `json:"speaker,omitempty"`
	TimeRange    models.TimeRange `json:"time_range"`
	Text         string           `json:"text"`
	Similarity   float64          `json:"similarity"`
	Score        float64          `json:"score"`
	Parent       string           `json:"parent,omitempty"`
	Children     []string         `json:"children,omitempty"`
	Siblings     []string         `json:"siblings,omitempty"`
}

// SearchTranscripts handles the search_transcripts tool
func (h *Handlers) SearchTranscripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	if err := h.svc.RequireWritable(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	hits, classification, err := h.svc.Retriever.Search(ctx, query, core.SearchParams{
		Limit:        limit,
		TranscriptID: request.GetString("transcript_id", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	results := make([]searchHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, toSearchHit(hit))
	}

	return jsonResult(map[string]interface{}{
		"classification": classification,
		"hits":           results,
	})
}

// ListTranscripts handles the list_transcripts tool
func (h *Handlers) ListTranscripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcripts, err := h.svc.Store.ListTranscripts(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list transcripts: %v", err)), nil
	}
	if transcripts == nil {
		transcripts = []models.Transcript{}
	}
	return jsonResult(map[string]interface{}{
		"transcripts": transcripts,
	})
}

// GetTranscriptChunks handles the get_transcript_chunks tool
func (h *Handlers) GetTranscriptChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcriptID, err := request.RequireString("transcript_id")
	if err != nil {
		return mcp.NewToolResultError("transcript_id argument is required and must be a string"), nil
	}

	var level models.Level
	if raw := request.GetString("level", ""); raw != "" {
		level, err = models.ParseLevel(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	transcript, err := h.svc.Store.GetTranscript(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("transcript %s not found", transcriptID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load transcript: %v", err)), nil
	}

	chunks, err := h.svc.Store.ListChunks(ctx, transcriptID, level)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list chunks: %v", err)), nil
	}
	if chunks == nil {
		chunks = []models.StoredChunk{}
	}

	return jsonResult(map[string]interface{}{
		"transcript": transcript,
		"chunks":     chunks,
	})
}

// ClassifyQuery handles the classify_query tool
func (h *Handlers) ClassifyQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	return jsonResult(h.svc.Classifier.Classify(query))
}

func toSearchHit(hit models.RankedHit) searchHit {
	c := hit.Chunk
	out := searchHit{
		ChunkID:      c.ID,
		TranscriptID: c.TranscriptID,
		Level:        c.Level,
		Title:        c.Title,
		Speaker:      c.Speaker,
		TimeRange:    c.TimeRange,
		Text:         core.TruncateText(c.Text, maxHitChars),
		Similarity:   hit.Similarity,
		Score:        hit.Score,
	}
	if p := hit.Context.Parent; p != nil {
		out.Parent = core.TruncateText(p.Chunk.Text, maxHitChars/4)
	}
	for _, child := range hit.Context.Children {
		out.Children = append(out.Children, core.TruncateText(child.Chunk.Text, maxHitChars/4))
	}
	for _, sib := range hit.Context.Siblings {
		out.Siblings = append(out.Siblings, core.TruncateText(sib.Chunk.Text, maxHitChars/4))
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
