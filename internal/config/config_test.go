// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing, provider defaults and validation
package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"PODINDEX_BACKEND", "PODINDEX_DB_PATH", "CHARM_HOST", "CHARM_DB", "CHARM_AUTO_SYNC",
	"PODINDEX_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OLLAMA_HOST",
	"PODINDEX_CHAT_MODEL", "PODINDEX_EMBEDDING_MODEL", "PODINDEX_TIMEOUT",
	"PODINDEX_MAX_RETRIES", "PODINDEX_RETRY_DELAY", "PODINDEX_EMBED_BATCH_SIZE",
	"PODINDEX_EMBED_MAX_CHARS", "PODINDEX_CHAPTER_PREFIX_CHARS", "PODINDEX_MATCH_THRESHOLD",
	"PODINDEX_FALLBACK_THRESHOLD", "PODINDEX_FALLBACK_BLOCKS", "PODINDEX_MIN_TOPIC_CHARS",
	"PODINDEX_PARAGRAPH_SIZE", "PODINDEX_PARAGRAPH_OVERLAP", "PODINDEX_STRICT_SUMMARY",
	"PODINDEX_MIN_SIMILARITY", "PODINDEX_OVERFETCH", "PODINDEX_STRICT_LEVELS",
	"PODINDEX_LOG_LEVEL", "PODINDEX_LOG_FILE",
}

// clearEnv blanks every key Load reads; empty values fall back to defaults
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %s, want sqlite", cfg.Backend)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %s, want openai", cfg.Provider)
	}
	if cfg.CharmDBName != "podindex" {
		t.Errorf("CharmDBName = %s, want podindex", cfg.CharmDBName)
	}
	if !cfg.AutoSync {
		t.Error("AutoSync = false, want true")
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.EmbedBatchSize != 64 || cfg.EmbedMaxChars != 8000 {
		t.Errorf("embed limits = %d/%d, want 64/8000", cfg.EmbedBatchSize, cfg.EmbedMaxChars)
	}
	if cfg.MatchThreshold != 0.7 || cfg.FallbackThreshold != 0.4 {
		t.Errorf("thresholds = %f/%f, want 0.7/0.4", cfg.MatchThreshold, cfg.FallbackThreshold)
	}
	if cfg.ParagraphSize != 1000 || cfg.ParagraphOverlap != 200 {
		t.Errorf("paragraph = %d/%d, want 1000/200", cfg.ParagraphSize, cfg.ParagraphOverlap)
	}
	if cfg.MinSimilarity != 0.2 || cfg.OverFetchFactor != 2 {
		t.Errorf("retrieval = %f/%d, want 0.2/2", cfg.MinSimilarity, cfg.OverFetchFactor)
	}
	if cfg.StrictLevels || cfg.StrictSummary {
		t.Error("strict modes should default to off")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PODINDEX_BACKEND", "Charm")
	t.Setenv("CHARM_DB", "test_db")
	t.Setenv("CHARM_AUTO_SYNC", "false")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("PODINDEX_CHAT_MODEL", "gpt-4")
	t.Setenv("PODINDEX_TIMEOUT", "60s")
	t.Setenv("PODINDEX_MAX_RETRIES", "5")
	t.Setenv("PODINDEX_RETRY_DELAY", "3s")
	t.Setenv("PODINDEX_MIN_SIMILARITY", "0.35")
	t.Setenv("PODINDEX_STRICT_LEVELS", "1")
	t.Setenv("PODINDEX_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Backend != BackendCharm {
		t.Errorf("Backend = %s, want charm", cfg.Backend)
	}
	if cfg.CharmDBName != "test_db" {
		t.Errorf("CharmDBName = %s, want test_db", cfg.CharmDBName)
	}
	if cfg.AutoSync {
		t.Error("AutoSync = true, want false")
	}
	if cfg.OpenAIKey != "test-key" {
		t.Errorf("OpenAIKey = %s, want test-key", cfg.OpenAIKey)
	}
	if cfg.ChatModel != "gpt-4" {
		t.Errorf("ChatModel = %s, want gpt-4", cfg.ChatModel)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 3*time.Second {
		t.Errorf("RetryDelay = %v, want 3s", cfg.RetryDelay)
	}
	if cfg.MinSimilarity != 0.35 {
		t.Errorf("MinSimilarity = %f, want 0.35", cfg.MinSimilarity)
	}
	if !cfg.StrictLevels {
		t.Error("StrictLevels = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoad_OllamaDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PODINDEX_PROVIDER", "ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ChatModel != "llama3.2" {
		t.Errorf("ChatModel = %s, want llama3.2", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("EmbeddingModel = %s, want nomic-embed-text", cfg.EmbeddingModel)
	}
	if err := cfg.RequireCredential(); err != nil {
		t.Errorf("ollama needs no key: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		Backend:           BackendSQLite,
		Provider:          ProviderOpenAI,
		MaxRetries:        3,
		EmbedBatchSize:    64,
		EmbedMaxChars:     8000,
		MatchThreshold:    0.7,
		FallbackThreshold: 0.4,
		FallbackBlocks:    4,
		ParagraphSize:     1000,
		ParagraphOverlap:  200,
		MinSimilarity:     0.2,
		OverFetchFactor:   2,
		LogLevel:          "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad backend", func(c *Config) { c.Backend = "postgres" }, "PODINDEX_BACKEND"},
		{"bad provider", func(c *Config) { c.Provider = "anthropic" }, "PODINDEX_PROVIDER"},
		{"retries too high", func(c *Config) { c.MaxRetries = 15 }, "PODINDEX_MAX_RETRIES"},
		{"retries negative", func(c *Config) { c.MaxRetries = -1 }, "PODINDEX_MAX_RETRIES"},
		{"batch above api cap", func(c *Config) { c.EmbedBatchSize = 4096 }, "PODINDEX_EMBED_BATCH_SIZE"},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.5 }, "PODINDEX_MATCH_THRESHOLD"},
		{"similarity negative", func(c *Config) { c.MinSimilarity = -0.1 }, "PODINDEX_MIN_SIMILARITY"},
		{"fallback above match", func(c *Config) { c.FallbackThreshold = 0.8 }, "PODINDEX_FALLBACK_THRESHOLD"},
		{"overlap not below size", func(c *Config) { c.ParagraphOverlap = 1000 }, "PODINDEX_PARAGRAPH_OVERLAP"},
		{"overfetch zero", func(c *Config) { c.OverFetchFactor = 0 }, "PODINDEX_OVERFETCH"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "PODINDEX_LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestRequireCredential(t *testing.T) {
	cfg := validConfig()
	if err := cfg.RequireCredential(); err == nil {
		t.Error("openai without key should fail")
	}
	cfg.OpenAIKey = "sk-test"
	if err := cfg.RequireCredential(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal bool
		want       bool
	}{
		{"empty uses default true", "", true, true},
		{"empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			got := getEnvBool("TEST_BOOL", tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("indexed transcript", "chunks", 42)

	if strings.Contains(stderr.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(stderr.String(), "chunks=42") {
		t.Errorf("stderr missing text record: %q", stderr.String())
	}
	if !strings.Contains(file.String(), `"chunks":42`) {
		t.Errorf("file missing JSON record: %q", file.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}
