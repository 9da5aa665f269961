// ABOUTME: Builds the storage backend, oracles and pipeline from configuration
// ABOUTME: Shared by the podindex CLI, its MCP command and the standalone server
package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/harper/podcast-index/internal/charm"
	"github.com/harper/podcast-index/internal/config"
	"github.com/harper/podcast-index/internal/core"
	"github.com/harper/podcast-index/internal/llm"
	"github.com/harper/podcast-index/internal/storage"
	"github.com/harper/podcast-index/internal/storage/sqlite"
)

// ErrReadOnly is returned for operations that need a model provider
var ErrReadOnly = errors.New("no model provider configured (set OPENAI_API_KEY or PODINDEX_PROVIDER=ollama)")

// Oracles bundles the model-backed capabilities one provider serves
type Oracles struct {
	Chapters core.ChapterOracle
	Summary  core.Summarizer
	Guest    core.GuestExtractor
	Backend  llm.EmbeddingBackend
}

// Service is the wired pipeline. Indexer and Retriever are nil when the
// service was opened read-only.
type Service struct {
	Store      core.ChunkStore
	Indexer    *core.Indexer
	Retriever  *core.Retriever
	Classifier *core.QueryClassifier
	Logger     *slog.Logger
}

// OpenStore opens the configured storage backend
func OpenStore(cfg *config.Config) (core.ChunkStore, error) {
	switch cfg.Backend {
	case config.BackendCharm:
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewCharmStore(client), nil
	default:
		path := cfg.DBPath
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		return sqlite.NewStoreWithPath(path)
	}
}

// NewOracles creates the provider clients named by cfg
func NewOracles(cfg *config.Config) (*Oracles, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		client, err := llm.NewOllamaClient(llm.OllamaConfig{
			Host:           cfg.OllamaHost,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return &Oracles{Chapters: client, Summary: client, Guest: client, Backend: client}, nil
	default:
		if err := cfg.RequireCredential(); err != nil {
			return nil, fmt.Errorf("%w: %v", llm.ErrNoCredential, err)
		}
		client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return &Oracles{Chapters: client, Summary: client, Guest: client, Backend: client}, nil
	}
}

// SegmenterConfig maps cfg onto the chapter segmenter heuristics
func SegmenterConfig(cfg *config.Config) core.SegmenterConfig {
	sc := core.DefaultSegmenterConfig()
	sc.PrefixChars = cfg.ChapterPrefixChars
	sc.MatchThreshold = cfg.MatchThreshold
	sc.FallbackThreshold = cfg.FallbackThreshold
	sc.FallbackBlocks = cfg.FallbackBlocks
	return sc
}

// SplitterConfig maps cfg onto the hierarchical splitter sizes
func SplitterConfig(cfg *config.Config) core.SplitterConfig {
	sc := core.DefaultSplitterConfig()
	sc.MinTopicChars = cfg.MinTopicChars
	sc.ParagraphSize = cfg.ParagraphSize
	sc.ParagraphOverlap = cfg.ParagraphOverlap
	return sc
}

// RetrieverConfig maps cfg onto retrieval options
func RetrieverConfig(cfg *config.Config) core.RetrieverConfig {
	return core.RetrieverConfig{
		MinSimilarity:   cfg.MinSimilarity,
		OverFetchFactor: cfg.OverFetchFactor,
		StrictLevels:    cfg.StrictLevels,
	}
}

// NewService wires the full pipeline over store using oracles
func NewService(cfg *config.Config, store core.ChunkStore, oracles *Oracles, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	splitterCfg := SplitterConfig(cfg)
	summary := core.WithSummaryFallback(oracles.Summary, splitterCfg.SummaryPrefixChars, cfg.StrictSummary, logger)
	guest := core.WithGuestFallback(oracles.Guest, logger)
	embedder := llm.NewBatchEmbedder(oracles.Backend, cfg.EmbedBatchSize, cfg.EmbedMaxChars, logger)

	segmenter := core.NewChapterSegmenter(oracles.Chapters, SegmenterConfig(cfg), logger)
	splitter := core.NewHierarchicalSplitter(summary, guest, splitterCfg, logger)

	return &Service{
		Store:      store,
		Indexer:    core.NewIndexer(segmenter, splitter, embedder, store, logger),
		Retriever:  core.NewRetriever(embedder, store, RetrieverConfig(cfg), logger),
		Classifier: core.NewQueryClassifier(),
		Logger:     logger,
	}
}

// NewReadOnlyService wires only storage and classification
func NewReadOnlyService(store core.ChunkStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:      store,
		Classifier: core.NewQueryClassifier(),
		Logger:     logger,
	}
}

// Open loads storage and, when the provider is reachable, the full pipeline.
// Without credentials the service is read-only.
func Open(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	oracles, err := NewOracles(cfg)
	if err != nil {
		if logger != nil {
			logger.Warn("model provider unavailable, running read-only", "provider", cfg.Provider, "error", err)
		}
		return NewReadOnlyService(store, logger), nil
	}
	return NewService(cfg, store, oracles, logger), nil
}

// Close releases the store
func (s *Service) Close() error {
	return s.Store.Close()
}

// ReadOnly reports whether indexing and search are unavailable
func (s *Service) ReadOnly() bool {
	return s.Indexer == nil
}

// RequireWritable returns ErrReadOnly for a read-only service
func (s *Service) RequireWritable() error {
	if s.ReadOnly() {
		return ErrReadOnly
	}
	return nil
}
