// Package llm hides the hosted text-generation services behind one small interface.
//
// A pipeline stage only needs "submit a prompt under a persona and a sampling
// temperature, receive free text"; each vendor file adapts its SDK to that contract.
package llm

import (
	"context"
	"errors"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider is implemented by every text-generation backend.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one request and returns the full response
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a role-tagged conversation plus sampling settings
type CompletionRequest struct {
	Model       string // empty means the provider default
	Messages    []Message
	Temperature float64
	MaxTokens   int // 0 means the provider default
}

// Message is a single role-tagged chat message
type Message struct {
	Role    string
	Content string
}

// CompletionResponse is the generated text and its accounting
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage tracks token usage
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

var (
	// ErrEmptyResponse is returned when the service answered without any text
	ErrEmptyResponse = errors.New("llm returned an empty response")

	// ErrUnknownProvider is returned by NewProvider for unsupported names
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrProviderUnavailable wraps transport-level failures
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
)

// NewRequest builds a system + user request at the given temperature
func NewRequest(systemPrompt, userPrompt string, temperature float64) *CompletionRequest {
	return &CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
		Temperature: temperature,
	}
}

// splitSystem separates system messages from the conversation turns
func splitSystem(messages []Message) (system []string, turns []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}
