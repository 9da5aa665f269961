// ABOUTME: OpenAI client for transcript oracles and embeddings
// ABOUTME: Uses text-embedding-3-small for embeddings, gpt-4o-mini for chapters, summaries and guest names (configurable)
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/podcast-index/internal/models"
	"github.com/harper/podcast-index/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		Timeout:        30 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: %w", ErrNoCredential)
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      config.ChatModel,
		embeddingModel: openai.EmbeddingModel(config.EmbeddingModel),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		timeout:        timeout,
	}, nil
}

// EmbedTexts embeds one batch. Server-side failures are marked with ErrServer
// so the BatchEmbedder can bisect the batch.
func (c *OpenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	var out [][]float64

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) != len(texts) {
			return util.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs", ErrMalformedResponse, len(resp.Data), len(texts)))
		}

		vectors := make([][]float64, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(texts) {
				return util.Permanent(fmt.Errorf("%w: embedding index %d out of range", ErrMalformedResponse, d.Index))
			}
			vectors[d.Index] = toFloat64(d.Embedding)
		}
		out = vectors
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return out, nil
}

// IdentifyChapters asks the chat model for 3-8 chapters as JSON
func (c *OpenAIClient) IdentifyChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error) {
	answer, err := c.complete(ctx, chapterSystemPrompt, "Identify the chapters of this transcript:\n\n"+text, true)
	if err != nil {
		return nil, fmt.Errorf("failed to identify chapters: %w", err)
	}
	chapters, err := parseChapters(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chapters: %w", err)
	}
	return chapters, nil
}

// Summarize asks the chat model for a short episode summary
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	answer, err := c.complete(ctx, summarySystemPrompt, "Summarize this transcript:\n\n"+text, false)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// ExtractGuest asks the chat model for the guest's name
func (c *OpenAIClient) ExtractGuest(ctx context.Context, text string) (string, error) {
	answer, err := c.complete(ctx, guestSystemPrompt, "Transcript opening:\n\n"+text, true)
	if err != nil {
		return "", fmt.Errorf("failed to extract guest: %w", err)
	}
	name, err := parseGuest(answer)
	if err != nil {
		return "", fmt.Errorf("failed to parse guest: %w", err)
	}
	return name, nil
}

// complete runs one system/user exchange with retries
func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: 0.3,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no completion choices returned", ErrMalformedResponse)
		}
		content = resp.Choices[0].Message.Content
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("%w: empty completion", ErrMalformedResponse)
		}
		return nil
	})
	return content, err
}

// classify marks server errors and stops retries on client errors
func classify(err error) error {
	if IsServerError(err) {
		err = fmt.Errorf("%w: %w", ErrServer, err)
	}
	if !isRetryable(err) {
		return util.Permanent(err)
	}
	return err
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
