package ai

import (
	"context"
	"fmt"

	"github.com/linkedin-postgen/internal/llm"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/pkg/logger"
)

// Writer runs the two prompt stages against an llm.Provider
type Writer struct {
	provider llm.Provider
	model    string
	log      *logger.Logger
}

// NewWriter creates a Writer. An empty model uses the provider's default.
func NewWriter(provider llm.Provider, model string, log *logger.Logger) *Writer {
	return &Writer{
		provider: provider,
		model:    model,
		log:      log.WithComponent("ai"),
	}
}

// Provider returns the underlying completion provider
func (w *Writer) Provider() llm.Provider {
	return w.provider
}

// BuildOutlinePrompt embeds the request verbatim into the outline template
func BuildOutlinePrompt(req models.GenerationRequest) string {
	return fmt.Sprintf(OutlineUserPrompt, req.PostCount, req.Topic, req.Audience, req.Tone)
}

// BuildExpansionPrompt embeds the outlines and request into the expansion template
func BuildExpansionPrompt(outlines string, req models.GenerationRequest) string {
	return fmt.Sprintf(ExpansionUserPrompt, req.PostCount, req.Tone, req.Audience, outlines)
}

// GenerateOutlines asks the model for req.PostCount outlines and returns the raw text
func (w *Writer) GenerateOutlines(ctx context.Context, req models.GenerationRequest) (string, error) {
	text, err := w.complete(ctx, OutlineSystemPrompt, BuildOutlinePrompt(req), OutlineTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to generate outlines: %w", err)
	}
	return text, nil
}

// ExpandOutlinesToPosts turns the outline text into req.PostCount marker-prefixed posts
func (w *Writer) ExpandOutlinesToPosts(ctx context.Context, outlines string, req models.GenerationRequest) (string, error) {
	text, err := w.complete(ctx, ExpansionSystemPrompt, BuildExpansionPrompt(outlines, req), ExpansionTemperature)
	if err != nil {
		return "", fmt.Errorf("failed to expand outlines: %w", err)
	}
	return text, nil
}

func (w *Writer) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	req := llm.NewRequest(systemPrompt, userPrompt, temperature)
	req.Model = w.model

	w.log.Debug().
		Str("provider", w.provider.Name()).
		Float64("temperature", temperature).
		Int("prompt_chars", len(userPrompt)).
		Msg("Sending completion request")

	resp, err := w.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	w.log.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", resp.FinishReason).
		Msg("Received completion")

	return resp.Content, nil
}
