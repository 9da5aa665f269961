// ABOUTME: MCP tool definitions and registration for the transcript index
// ABOUTME: Defines JSON schemas for the five tools agents use to ingest and search
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/podcast-index/internal/app"
)

// ServerName is the name reported to MCP clients
const ServerName = "Podcast Transcript Index"

// NewServer creates an MCP server with every tool registered
func NewServer(svc *app.Service, version string) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, version)
	handlers := RegisterTools(server, svc)
	return server, handlers
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, svc *app.Service) *Handlers {
	handlers := NewHandlers(svc)

	// 1. index_transcript - Ingest a transcript into the hierarchical index
	server.AddTool(mcp.Tool{
		Name:        "index_transcript",
		Description: "Index a podcast transcript. Splits it into episode, topic, paragraph and sentence chunks with timestamps and embeds every chunk for search.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full transcript text, optionally with [HH:MM:SS] timestamp lines",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional episode title (default: 'Episode with <guest>')",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Optional source reference such as a file name or URL",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.IndexTranscript)

	// 2. search_transcripts - Level-aware semantic search
	server.AddTool(mcp.Tool{
		Name:        "search_transcripts",
		Description: "Search indexed transcripts. The query is routed to the most useful chunk levels and each hit comes with its parent, children and siblings.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language search query",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of hits to return (default: 5)",
					"default":     5,
				},
				"transcript_id": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the search to one transcript",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchTranscripts)

	// 3. list_transcripts - List indexed transcripts
	server.AddTool(mcp.Tool{
		Name:        "list_transcripts",
		Description: "List all indexed transcripts with guest, summary and chunk counts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListTranscripts)

	// 4. get_transcript_chunks - Browse one transcript's tree
	server.AddTool(mcp.Tool{
		Name:        "get_transcript_chunks",
		Description: "Get the chunks of one transcript in order, optionally only one level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"transcript_id": map[string]interface{}{
					"type":        "string",
					"description": "Transcript ID returned by index_transcript or list_transcripts",
				},
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Optional level filter",
					"enum":        []string{"episode", "topic", "paragraph", "sentence"},
				},
			},
			Required: []string{"transcript_id"},
		},
	}, handlers.GetTranscriptChunks)

	// 5. classify_query - Show how a query would be routed
	server.AddTool(mcp.Tool{
		Name:        "classify_query",
		Description: "Classify a query as broad, specific, exploratory or default and show the chunk levels it prefers.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Query to classify",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.ClassifyQuery)

	return handlers
}
