// ABOUTME: MCP command starts the Model Context Protocol server
// ABOUTME: Exposes indexing and search tools to LLM agents over stdio
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/podcast-index/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs podindex as an MCP (Model Context Protocol) server so agents can
index transcripts and search them via stdio. Without a model provider
the server starts read-only: listing and classification still work.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  podindex mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "podindex": {
  #       "command": "podindex",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := openService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if svc.ReadOnly() {
		logger.Warn("no model provider configured, serving read-only tools")
	}

	server, _ := mcp.NewServer(svc, versionInfo.Version)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "name", mcp.ServerName, "version", versionInfo.Version)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
