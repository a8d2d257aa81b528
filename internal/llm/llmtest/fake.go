// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/linkedin-postgen/internal/llm"
)

// Reply is one scripted provider answer
type Reply struct {
	Content string
	Err     error
}

// Provider returns scripted replies in order and records every request
type Provider struct {
	mu       sync.Mutex
	replies  []Reply
	requests []*llm.CompletionRequest
}

// New creates a fake provider that answers with the given replies in order
func New(replies ...Reply) *Provider {
	return &Provider{replies: replies}
}

// Name returns "fake"
func (p *Provider) Name() string {
	return "fake"
}

// Complete records req and pops the next reply.
// Running out of replies yields llm.ErrEmptyResponse.
func (p *Provider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.replies) == 0 {
		return nil, llm.ErrEmptyResponse
	}

	r := p.replies[0]
	p.replies = p.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.CompletionResponse{Content: r.Content, Model: "fake-model", FinishReason: "stop"}, nil
}

// Requests returns the requests seen so far
func (p *Provider) Requests() []*llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// UserPrompt returns the user message content of the i-th request
func (p *Provider) UserPrompt(i int) string {
	reqs := p.Requests()
	if i >= len(reqs) {
		return ""
	}
	for _, m := range reqs[i].Messages {
		if m.Role == llm.RoleUser {
			return m.Content
		}
	}
	return ""
}
