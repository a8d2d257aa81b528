package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linkedin-postgen/internal/config"
	"github.com/linkedin-postgen/pkg/logger"
)

// captured is what a mock server saw in the request body
type captured struct {
	path string
	body map[string]interface{}
}

func newJSONServer(t *testing.T, suffix string, status int, reply interface{}, got *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, suffix) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		got.path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(reply)
	}))
}

func TestNewRequest(t *testing.T) {
	req := NewRequest("persona", "prompt", 0.8)

	if len(req.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != RoleSystem || req.Messages[0].Content != "persona" {
		t.Errorf("Messages[0] = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != RoleUser || req.Messages[1].Content != "prompt" {
		t.Errorf("Messages[1] = %+v", req.Messages[1])
	}
	if req.Temperature != 0.8 {
		t.Errorf("Temperature = %v, want 0.8", req.Temperature)
	}
}

func TestNewProvider(t *testing.T) {
	log := logger.Nop()

	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantName string
		wantErr  bool
	}{
		{"openai", config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "sk"}}, ProviderOpenAI, false},
		{"openai case-insensitive", config.LLMConfig{Provider: "OpenAI", OpenAI: config.OpenAIConfig{APIKey: "sk"}}, ProviderOpenAI, false},
		{"openai without key", config.LLMConfig{Provider: "openai"}, "", true},
		{"anthropic", config.LLMConfig{Provider: "anthropic", Anthropic: config.AnthropicConfig{APIKey: "sk-ant"}}, ProviderAnthropic, false},
		{"ollama", config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{Host: "http://localhost:11434"}}, ProviderOllama, false},
		{"unknown", config.LLMConfig{Provider: "palm"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}

	if _, err := NewProvider(config.LLMConfig{Provider: "palm"}, log); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("unknown provider error = %v, want ErrUnknownProvider", err)
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got captured
	reply := map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": "OUTLINE 1: hook"},
		}},
		"usage": map[string]interface{}{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
	}
	server := newJSONServer(t, "/chat/completions", http.StatusOK, reply, &got)
	defer server.Close()

	p, err := NewOpenAIProvider(config.OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1/"}, 0, logger.Nop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	resp, err := p.Complete(context.Background(), NewRequest("You are a helpful LinkedIn post writing assistant.", "outline please", 0.8))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Content != "OUTLINE 1: hook" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.CompletionTokens != 5 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if got.body["model"] != "gpt-4o-mini" {
		t.Errorf("request model = %v", got.body["model"])
	}
	if got.body["temperature"] != 0.8 {
		t.Errorf("request temperature = %v, want 0.8", got.body["temperature"])
	}
	msgs, _ := got.body["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("request messages = %v", got.body["messages"])
	}
	first, _ := msgs[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
}

func TestOpenAIProvider_ErrorPropagates(t *testing.T) {
	var got captured
	reply := map[string]interface{}{"error": map[string]interface{}{"message": "quota exceeded", "type": "insufficient_quota"}}
	server := newJSONServer(t, "/chat/completions", http.StatusTooManyRequests, reply, &got)
	defer server.Close()

	p, err := NewOpenAIProvider(config.OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL + "/v1/"}, 0, logger.Nop())
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}

	if _, err := p.Complete(context.Background(), NewRequest("s", "u", 0.9)); err == nil {
		t.Fatal("Complete() should return the API error")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var got captured
	reply := map[string]interface{}{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-20250514",
		"content":       []map[string]interface{}{{"type": "text", "text": "POST 1: hello"}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]interface{}{"input_tokens": 20, "output_tokens": 7},
	}
	server := newJSONServer(t, "/v1/messages", http.StatusOK, reply, &got)
	defer server.Close()

	p, err := NewAnthropicProvider(config.AnthropicConfig{APIKey: "sk-ant", Model: "claude-sonnet-4-20250514", BaseURL: server.URL}, 0, logger.Nop())
	if err != nil {
		t.Fatalf("NewAnthropicProvider() error = %v", err)
	}

	resp, err := p.Complete(context.Background(), NewRequest("You are a professional LinkedIn ghostwriter.", "expand", 0.9))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Content != "POST 1: hello" {
		t.Errorf("Content = %q", resp.Content)
	}
	if got.body["temperature"] != 0.9 {
		t.Errorf("request temperature = %v, want 0.9", got.body["temperature"])
	}
	if got.body["max_tokens"] != float64(defaultAnthropicMaxTokens) {
		t.Errorf("request max_tokens = %v", got.body["max_tokens"])
	}
	system, _ := got.body["system"].([]interface{})
	if len(system) != 1 {
		t.Fatalf("request system = %v, want persona lifted out of messages", got.body["system"])
	}
	msgs, _ := got.body["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Errorf("request messages = %v, want only the user turn", got.body["messages"])
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	var got captured
	reply := map[string]interface{}{
		"model":             "llama3.2",
		"message":           map[string]string{"role": "assistant", "content": "POST 1: local"},
		"done":              true,
		"done_reason":       "stop",
		"prompt_eval_count": 10,
		"eval_count":        20,
	}
	server := newJSONServer(t, "/api/chat", http.StatusOK, reply, &got)
	defer server.Close()

	p, err := NewOllamaProvider(config.OllamaConfig{Host: server.URL}, 256, logger.Nop())
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}

	resp, err := p.Complete(context.Background(), NewRequest("persona", "prompt", 0.8))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if resp.Content != "POST 1: local" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 20 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if got.body["model"] != "llama3.2" {
		t.Errorf("request model = %v, want default llama3.2", got.body["model"])
	}
	opts, _ := got.body["options"].(map[string]interface{})
	if opts["temperature"] != 0.8 {
		t.Errorf("options.temperature = %v, want 0.8", opts["temperature"])
	}
	if opts["num_predict"] != float64(256) {
		t.Errorf("options.num_predict = %v, want 256", opts["num_predict"])
	}
}

func TestOllamaProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	p, err := NewOllamaProvider(config.OllamaConfig{Host: server.URL}, 0, logger.Nop())
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}

	_, err = p.Complete(context.Background(), NewRequest("s", "u", 0.8))
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Complete() error = %v, want ErrProviderUnavailable", err)
	}
}
