// ABOUTME: Centralized configuration for the podcast transcript index
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"
)

// Oracle and embedding providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds all configuration for the index
type Config struct {
	// Storage settings
	Backend string
	DBPath  string

	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	// Provider settings
	Provider       string
	OpenAIKey      string
	OpenAIBaseURL  string
	OllamaHost     string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Embedding settings
	EmbedBatchSize int
	EmbedMaxChars  int

	// Segmentation settings
	ChapterPrefixChars int
	MatchThreshold     float64
	FallbackThreshold  float64
	FallbackBlocks     int
	MinTopicChars      int
	ParagraphSize      int
	ParagraphOverlap   int
	StrictSummary      bool

	// Retrieval settings
	MinSimilarity   float64
	OverFetchFactor int
	StrictLevels    bool

	// Logging settings
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Backend:            strings.ToLower(getEnv("PODINDEX_BACKEND", BackendSQLite)),
		DBPath:             os.Getenv("PODINDEX_DB_PATH"),
		CharmHost:          getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:        getEnv("CHARM_DB", "podindex"),
		AutoSync:           getEnvBool("CHARM_AUTO_SYNC", true),
		Provider:           strings.ToLower(getEnv("PODINDEX_PROVIDER", ProviderOpenAI)),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		ChatModel:          os.Getenv("PODINDEX_CHAT_MODEL"),
		EmbeddingModel:     os.Getenv("PODINDEX_EMBEDDING_MODEL"),
		Timeout:            getEnvDuration("PODINDEX_TIMEOUT", 30*time.Second),
		MaxRetries:         getEnvInt("PODINDEX_MAX_RETRIES", 3),
		RetryDelay:         getEnvDuration("PODINDEX_RETRY_DELAY", 2*time.Second),
		EmbedBatchSize:     getEnvInt("PODINDEX_EMBED_BATCH_SIZE", 64),
		EmbedMaxChars:      getEnvInt("PODINDEX_EMBED_MAX_CHARS", 8000),
		ChapterPrefixChars: getEnvInt("PODINDEX_CHAPTER_PREFIX_CHARS", 12000),
		MatchThreshold:     getEnvFloat("PODINDEX_MATCH_THRESHOLD", 0.7),
		FallbackThreshold:  getEnvFloat("PODINDEX_FALLBACK_THRESHOLD", 0.4),
		FallbackBlocks:     getEnvInt("PODINDEX_FALLBACK_BLOCKS", 4),
		MinTopicChars:      getEnvInt("PODINDEX_MIN_TOPIC_CHARS", 200),
		ParagraphSize:      getEnvInt("PODINDEX_PARAGRAPH_SIZE", 1000),
		ParagraphOverlap:   getEnvInt("PODINDEX_PARAGRAPH_OVERLAP", 200),
		StrictSummary:      getEnvBool("PODINDEX_STRICT_SUMMARY", false),
		MinSimilarity:      getEnvFloat("PODINDEX_MIN_SIMILARITY", 0.2),
		OverFetchFactor:    getEnvInt("PODINDEX_OVERFETCH", 2),
		StrictLevels:       getEnvBool("PODINDEX_STRICT_LEVELS", false),
		LogLevel:           strings.ToLower(getEnv("PODINDEX_LOG_LEVEL", "info")),
		LogFile:            os.Getenv("PODINDEX_LOG_FILE"),
	}

	cfg.applyProviderDefaults()
	return cfg, cfg.Validate()
}

// applyProviderDefaults fills model names the environment left empty
func (c *Config) applyProviderDefaults() {
	switch c.Provider {
	case ProviderOllama:
		if c.ChatModel == "" {
			c.ChatModel = "llama3.2"
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = "nomic-embed-text"
		}
	default:
		if c.ChatModel == "" {
			c.ChatModel = "gpt-4o-mini"
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = "text-embedding-3-small"
		}
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendCharm:
	default:
		return fmt.Errorf("PODINDEX_BACKEND must be sqlite or charm, got %q", c.Backend)
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("PODINDEX_PROVIDER must be openai or ollama, got %q", c.Provider)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("PODINDEX_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.EmbedBatchSize < 1 || c.EmbedBatchSize > 2048 {
		return fmt.Errorf("PODINDEX_EMBED_BATCH_SIZE must be 1-2048, got %d", c.EmbedBatchSize)
	}
	if c.EmbedMaxChars < 1 {
		return fmt.Errorf("PODINDEX_EMBED_MAX_CHARS must be positive, got %d", c.EmbedMaxChars)
	}
	for name, v := range map[string]float64{
		"PODINDEX_MATCH_THRESHOLD":    c.MatchThreshold,
		"PODINDEX_FALLBACK_THRESHOLD": c.FallbackThreshold,
		"PODINDEX_MIN_SIMILARITY":     c.MinSimilarity,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be 0-1, got %f", name, v)
		}
	}
	if c.FallbackThreshold > c.MatchThreshold {
		return fmt.Errorf("PODINDEX_FALLBACK_THRESHOLD (%f) must not exceed PODINDEX_MATCH_THRESHOLD (%f)", c.FallbackThreshold, c.MatchThreshold)
	}
	if c.FallbackBlocks < 1 {
		return fmt.Errorf("PODINDEX_FALLBACK_BLOCKS must be positive, got %d", c.FallbackBlocks)
	}
	if c.ParagraphSize < 1 {
		return fmt.Errorf("PODINDEX_PARAGRAPH_SIZE must be positive, got %d", c.ParagraphSize)
	}
	if c.ParagraphOverlap < 0 || c.ParagraphOverlap >= c.ParagraphSize {
		return fmt.Errorf("PODINDEX_PARAGRAPH_OVERLAP must be 0-%d, got %d", c.ParagraphSize-1, c.ParagraphOverlap)
	}
	if c.OverFetchFactor < 1 {
		return fmt.Errorf("PODINDEX_OVERFETCH must be at least 1, got %d", c.OverFetchFactor)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RequireCredential checks that the selected provider can be reached
func (c *Config) RequireCredential() error {
	if c.Provider == ProviderOpenAI && c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

// ParseLogLevel maps debug/info/warn/error to a slog level
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("PODINDEX_LOG_LEVEL must be debug, info, warn or error, got %q", s)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
