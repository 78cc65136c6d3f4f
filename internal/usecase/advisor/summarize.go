package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/easyasset/eam-backend/internal/adapter/llm"
	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/trace"
)

const (
	DefaultSummaryWords = 200
	MaxSummaryWords     = 2000
	MaxSummaryInput     = 50000 // Characters
)

// SummaryRequest is a piece of text to condense
type SummaryRequest struct {
	Text     string
	MaxWords int    // Zero means DefaultSummaryWords
	Language string // "en" or "zh", empty means "en"
}

// Summarize condenses free text with the fast model.
// Invalid requests yield domain.ErrInvalidInput; model failures are returned as is.
func (a *Advisor) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", fmt.Errorf("%w: text cannot be empty", domain.ErrInvalidInput)
	}
	if len(text) > MaxSummaryInput {
		return "", fmt.Errorf("%w: text is longer than %d characters", domain.ErrInvalidInput, MaxSummaryInput)
	}

	words := req.MaxWords
	if words == 0 {
		words = DefaultSummaryWords
	}
	if words < 1 || words > MaxSummaryWords {
		return "", fmt.Errorf("%w: max_words must be 1-%d", domain.ErrInvalidInput, MaxSummaryWords)
	}

	var reply string
	switch req.Language {
	case "", "en":
		reply = "Reply in English."
	case "zh":
		reply = "Reply in Chinese."
	default:
		return "", fmt.Errorf("%w: language must be en or zh", domain.ErrInvalidInput)
	}

	ctx, span := trace.StartSpan(ctx, "advisor.summarize")
	defer span.End()
	span.SetAttributes(attribute.Int("summary.input_chars", len(text)), attribute.Int("summary.max_words", words))

	system := fmt.Sprintf("You condense text for an investor. Summarise the user's text in at most %d words. %s Output only the summary, without a preamble.", words, reply)
	summary, err := a.Model.Chat(ctx, llm.Request{
		Model:       a.Models.Fast,
		Messages:    llm.WithSystem(system, text),
		Temperature: a.Prompt.Temperature,
		MaxTokens:   a.Prompt.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		a.log.Warn().Err(err).Msg("Failed to summarize text")
		return "", err
	}

	return strings.TrimSpace(summary), nil
}
