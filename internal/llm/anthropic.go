package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/pkg/logger"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider implements Provider with the Anthropic Messages API
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewAnthropicProvider creates a Claude client
func NewAnthropicProvider(cfg config.AnthropicConfig, maxTokens int, log *logger.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key missing; set llm.anthropic.api_key or ANTHROPIC_API_KEY")
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		log:       log.WithComponent("llm-anthropic"),
	}, nil
}

// Name returns "anthropic"
func (a *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Complete sends a message to Claude and returns the response
func (a *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.maxTokens
	}

	// Claude takes the persona out-of-band, not as a message
	system, turns := splitSystem(req.Messages)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages:    make([]anthropic.MessageParam, 0, len(turns)),
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	a.log.Debug().
		Str("model", model).
		Int("max_tokens", maxTokens).
		Float64("temperature", req.Temperature).
		Msg("Sending request to Claude")

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		a.log.Error().Err(err).Msg("Claude API error")
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if text := block.AsText().Text; text != "" {
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	a.log.Debug().
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("Received Claude response")

	return &CompletionResponse{
		Content:      b.String(),
		Model:        string(message.Model),
		FinishReason: string(message.StopReason),
		Usage: Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}
