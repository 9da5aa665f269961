// ABOUTME: Standalone MCP server binary with stdio transport
// ABOUTME: Loads configuration, opens storage and providers, then serves the index tools
package main

import (
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/podcast-index/internal/app"
	"github.com/harper/podcast-index/internal/config"
	"github.com/harper/podcast-index/internal/mcp"
)

var version = "dev"

func main() {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger, closeLog := config.SetupLogger(cfg.LogFile, level)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	svc, err := app.Open(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	defer svc.Close()

	if svc.ReadOnly() {
		logger.Warn("no model provider configured, serving read-only tools")
	}

	server, _ := mcp.NewServer(svc, version)

	logger.Info("MCP server starting on stdio", "name", mcp.ServerName)
	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error("server error", "error", err)
	}
}
