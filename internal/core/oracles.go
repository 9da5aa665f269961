// ABOUTME: Oracle capabilities consumed by the pipeline and their degraded defaults
// ABOUTME: Summary and guest-name wrappers make callers indifferent to which answered
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harper/podcast-index/internal/models"
)

// DefaultGuestName is used whenever the guest-name oracle cannot answer
const DefaultGuestName = "Guest Interview"

// ChapterOracle proposes chapters for a transcript prefix
type ChapterOracle interface {
	IdentifyChapters(ctx context.Context, text string) ([]models.ChapterCandidate, error)
}

// Summarizer produces a short episode summary
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// GuestExtractor names the interview guest
type GuestExtractor interface {
	ExtractGuest(ctx context.Context, text string) (string, error)
}

// Embedder turns texts into vectors; output order and length match the input
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// SummaryFallback substitutes a truncated copy of the source text when the
// wrapped summarizer fails. Cancellation always propagates; with Strict set
// every failure propagates.
type SummaryFallback struct {
	inner    Summarizer
	maxChars int
	strict   bool
	logger   *slog.Logger
}

// WithSummaryFallback wraps s. A nil s always falls back.
func WithSummaryFallback(s Summarizer, maxChars int, strict bool, logger *slog.Logger) *SummaryFallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryFallback{inner: s, maxChars: maxChars, strict: strict, logger: logger}
}

// Summarize implements Summarizer
func (f *SummaryFallback) Summarize(ctx context.Context, text string) (string, error) {
	if f.inner != nil {
		summary, err := f.inner.Summarize(ctx, text)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), nil
		}
		if err == nil {
			err = errors.New("empty summary")
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("summarize episode: %w", ctx.Err())
		}
		if f.strict {
			return "", fmt.Errorf("summarize episode: %w", err)
		}
		f.logger.Warn("summary oracle failed, using truncated text", "error", err)
	} else if f.strict {
		return "", errors.New("summarize episode: no summarizer configured")
	}
	return TruncateText(text, f.maxChars), nil
}

// GuestFallback returns DefaultGuestName whenever the wrapped extractor fails,
// is missing, or answers with nothing
type GuestFallback struct {
	inner  GuestExtractor
	logger *slog.Logger
}

// WithGuestFallback wraps g. A nil g always falls back.
func WithGuestFallback(g GuestExtractor, logger *slog.Logger) *GuestFallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestFallback{inner: g, logger: logger}
}

// ExtractGuest implements GuestExtractor and never returns an error
func (f *GuestFallback) ExtractGuest(ctx context.Context, text string) (string, error) {
	if f.inner == nil {
		return DefaultGuestName, nil
	}
	name, err := f.inner.ExtractGuest(ctx, text)
	if err != nil {
		f.logger.Warn("guest oracle failed, using placeholder", "error", err)
		return DefaultGuestName, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultGuestName, nil
	}
	return name, nil
}

// TruncateText caps s at maxChars bytes on a rune boundary, appending "..."
func TruncateText(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// prefix caps s at maxChars bytes on a rune boundary, without an ellipsis
func prefix(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
