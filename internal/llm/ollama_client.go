// ABOUTME: Local Ollama backend for transcript oracles and embeddings via langchaingo
// ABOUTME: Mirrors OpenAIClient so either provider can serve the pipeline
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/harper/podcast-index/internal/models"
	"github.com/harper/podcast-index/internal/util"
)

const (
	// DefaultOllamaHost is where a local Ollama listens
	DefaultOllamaHost = "http://localhost:11434"
	// DefaultOllamaChatModel is the default local chat model
	DefaultOllamaChatModel = "llama3.2"
	// DefaultOllamaEmbedModel is the default local embedding model
	DefaultOllamaEmbedModel = "nomic-embed-text"
)

// OllamaConfig holds configuration for the Ollama client
type OllamaConfig struct {
	Host           string
	ChatModel      string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// OllamaClient answers oracle prompts and embeds text with a local model
type OllamaClient struct {
	chat       llms.Model
	embedder   embeddings.Embedder
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
}

// NewOllamaClient creates chat and embedding models against config.Host
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Host == "" {
		config.Host = DefaultOllamaHost
	}
	if config.ChatModel == "" {
		config.ChatModel = DefaultOllamaChatModel
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = DefaultOllamaEmbedModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	chat, err := ollama.New(
		ollama.WithModel(config.ChatModel),
		ollama.WithServerURL(config.Host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}

	embedLLM, err := ollama.New(
		ollama.WithModel(config.EmbeddingModel),
		ollama.WithServerURL(config.Host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedLLM)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return &OllamaClient{
		chat:       chat,
		embedder:   embedder,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		timeout:    config.Timeout,
	}, nil
}

// EmbedTexts embeds one batch. Ollama reports no status codes, so every
// transport failure is treated as server-side and may be bisected.
func (c *OllamaClient) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	var out [][]float64

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		vectors, err := c.embedder.EmbedDocuments(callCtx, texts)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrServer, err)
		}
		if len(vectors) != len(texts) {
			return util.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs", ErrMalformedResponse, len(vectors), len(texts)))
		}
		out = make([][]float64, len(vectors))
		for i, v := range vectors {
			out[i] = toFloat64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	return out, nil
}

// IdentifyChapters implements core.ChapterOracle
func (c *OllamaClient) IdentifyChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error) {
	answer, err := c.generate(ctx, chapterSystemPrompt, "Identify the chapters of this transcript:\n\n"+text)
	if err != nil {
		return nil, fmt.Errorf("failed to identify chapters: %w", err)
	}
	return parseChapters(answer)
}

// Summarize implements core.Summarizer
func (c *OllamaClient) Summarize(ctx context.Context, text string) (string, error) {
	answer, err := c.generate(ctx, summarySystemPrompt, "Summarize this transcript:\n\n"+text)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// ExtractGuest implements core.GuestExtractor
func (c *OllamaClient) ExtractGuest(ctx context.Context, text string) (string, error) {
	answer, err := c.generate(ctx, guestSystemPrompt, "Transcript opening:\n\n"+text)
	if err != nil {
		return "", fmt.Errorf("failed to extract guest: %w", err)
	}
	return parseGuest(answer)
}

func (c *OllamaClient) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	var content string
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.chat.GenerateContent(callCtx, messages, llms.WithTemperature(0.3))
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
			return fmt.Errorf("%w: no response choices", ErrMalformedResponse)
		}
		content = resp.Choices[0].Content
		return nil
	})
	return content, err
}
