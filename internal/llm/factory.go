package llm

import (
	"fmt"
	"strings"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/pkg/logger"
)

// Provider names
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// NewProvider creates the provider selected by cfg.Provider
func NewProvider(cfg config.LLMConfig, log *logger.Logger) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	log.Debug().Str("provider", name).Msg("Creating llm provider")

	switch name {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAI, cfg.MaxTokens, log)
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.Anthropic, cfg.MaxTokens, log)
	case ProviderOllama:
		return NewOllamaProvider(cfg.Ollama, cfg.MaxTokens, log)
	default:
		return nil, fmt.Errorf("%w: %q (supported: openai, anthropic, ollama)", ErrUnknownProvider, cfg.Provider)
	}
}

// DefaultModel returns the model the configured provider will use
func DefaultModel(cfg config.LLMConfig) string {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		return cfg.Anthropic.Model
	case ProviderOllama:
		return cfg.Ollama.Model
	default:
		return cfg.OpenAI.Model
	}
}
