package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/pkg/logger"
)

// OllamaProvider implements Provider against a local Ollama server
type OllamaProvider struct {
	client    *api.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewOllamaProvider creates an Ollama client.
// An empty host falls back to OLLAMA_HOST or http://localhost:11434.
func NewOllamaProvider(cfg config.OllamaConfig, maxTokens int, log *logger.Logger) (*OllamaProvider, error) {
	var client *api.Client
	if cfg.Host != "" {
		parsed, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		client = api.NewClient(parsed, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	return &OllamaProvider{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		log:       log.WithComponent("llm-ollama"),
	}, nil
}

// Name returns "ollama"
func (p *OllamaProvider) Name() string {
	return ProviderOllama
}

// Complete sends a non-streaming chat request
func (p *OllamaProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Options:  options,
		Stream:   new(bool), // false - we want the complete response
	}

	p.log.Debug().
		Str("model", model).
		Float64("temperature", req.Temperature).
		Msg("Sending chat request to Ollama")

	var response api.ChatResponse
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		p.log.Error().Err(err).Str("model", model).Msg("Ollama chat request failed")
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if response.Message.Content == "" {
		return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	return &CompletionResponse{
		Content:      response.Message.Content,
		Model:        response.Model,
		FinishReason: response.DoneReason,
		Usage: Usage{
			PromptTokens:     response.PromptEvalCount,
			CompletionTokens: response.EvalCount,
		},
	}, nil
}
