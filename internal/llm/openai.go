package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/pkg/logger"
)

// OpenAIProvider implements Provider with the official openai-go SDK (chat completions)
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewOpenAIProvider creates a chat-completions client
func NewOpenAIProvider(cfg config.OpenAIConfig, maxTokens int, log *logger.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set llm.openai.api_key or OPENAI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	// Failures surface to the caller as-is; the SDK must not retry on its own
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		log:       log.WithComponent("llm-openai"),
	}, nil
}

// Name returns "openai"
func (o *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Complete sends a chat completion request
func (o *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}

	o.log.Debug().
		Str("model", model).
		Float64("temperature", req.Temperature).
		Msg("Sending request to OpenAI")

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.log.Error().Err(err).Msg("OpenAI API error")
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	o.log.Debug().
		Int64("prompt_tokens", resp.Usage.PromptTokens).
		Int64("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Received OpenAI response")

	return &CompletionResponse{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}
