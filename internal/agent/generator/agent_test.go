package generator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/linkedin-postgen/internal/ai"
	apperrors "github.com/linkedin-postgen/internal/errors"
	"github.com/linkedin-postgen/internal/llm/llmtest"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/pkg/logger"
)

func newAgent(fake *llmtest.Provider) *Agent {
	return NewAgent(ai.NewWriter(fake, "", logger.Nop()), logger.Nop())
}

func TestAgent_Run_EndToEnd(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Content: "OUTLINE 1: hook A\nOUTLINE 2: hook B"},
		llmtest.Reply{Content: "POST 1: AI is reshaping diagnostics.\n\nPOST 2: Interoperability first."},
	)
	agent := newAgent(fake)

	var stages []Stage
	req := models.GenerationRequest{Topic: "AI in Healthcare", Tone: models.ToneProfessional, Audience: "CTOs", PostCount: 2}
	result, err := agent.Run(context.Background(), req, func(s Stage) { stages = append(stages, s) })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	reqs := fake.Requests()
	if len(reqs) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(reqs))
	}
	if reqs[0].Temperature != 0.8 {
		t.Errorf("first call temperature = %v, want 0.8", reqs[0].Temperature)
	}
	if reqs[1].Temperature != 0.9 {
		t.Errorf("second call temperature = %v, want 0.9", reqs[1].Temperature)
	}
	if !strings.Contains(fake.UserPrompt(0), "AI in Healthcare") {
		t.Error("outline prompt should contain the topic")
	}
	if !strings.Contains(fake.UserPrompt(1), "OUTLINE 2: hook B") {
		t.Error("expansion prompt should contain the outline text")
	}

	want := []string{"AI is reshaping diagnostics.", "Interoperability first."}
	if got := result.Collection.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("posts = %q, want %q", got, want)
	}
	if result.Collection.Mismatch() {
		t.Error("Mismatch() = true, want false")
	}
	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Outlines != "OUTLINE 1: hook A\nOUTLINE 2: hook B" {
		t.Errorf("Outlines = %q", result.Outlines)
	}

	wantStages := []Stage{StageOutlining, StageExpanding, StageSplitting, StageDone}
	if !reflect.DeepEqual(stages, wantStages) {
		t.Errorf("stages = %v, want %v", stages, wantStages)
	}
}

func TestAgent_Run_MismatchIsTolerated(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Content: "outlines"},
		llmtest.Reply{Content: "POST 1: only one"},
	)

	result, err := newAgent(fake).Run(context.Background(), models.GenerationRequest{Tone: models.ToneStorytelling, PostCount: 3}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Collection.Count() != 1 || !result.Collection.Mismatch() {
		t.Errorf("Count()=%d Mismatch()=%v, want 1 and true", result.Collection.Count(), result.Collection.Mismatch())
	}
}

func TestAgent_Run_Failures(t *testing.T) {
	quota := errors.New("429 insufficient_quota")

	tests := []struct {
		name      string
		req       models.GenerationRequest
		replies   []llmtest.Reply
		wantType  apperrors.ErrorType
		wantCalls int
	}{
		{
			name:      "invalid tone",
			req:       models.GenerationRequest{Tone: "Snarky", PostCount: 2},
			wantType:  apperrors.ErrorTypeValidation,
			wantCalls: 0,
		},
		{
			name:      "count out of range",
			req:       models.GenerationRequest{Tone: models.ToneProfessional, PostCount: 6},
			wantType:  apperrors.ErrorTypeValidation,
			wantCalls: 0,
		},
		{
			name:      "outline call fails",
			req:       models.GenerationRequest{Tone: models.ToneProfessional, PostCount: 2},
			replies:   []llmtest.Reply{{Err: quota}},
			wantType:  apperrors.ErrorTypeUpstream,
			wantCalls: 1,
		},
		{
			name:      "expansion call fails",
			req:       models.GenerationRequest{Tone: models.ToneProfessional, PostCount: 2},
			replies:   []llmtest.Reply{{Content: "outlines"}, {Err: quota}},
			wantType:  apperrors.ErrorTypeUpstream,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := llmtest.New(tt.replies...)
			var stages []Stage

			result, err := newAgent(fake).Run(context.Background(), tt.req, func(s Stage) { stages = append(stages, s) })
			if err == nil {
				t.Fatal("Run() error = nil, want failure")
			}
			if result != nil {
				t.Error("no partial result should be returned")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("error type: got %v, want %s", err, tt.wantType)
			}
			if tt.wantType == apperrors.ErrorTypeUpstream && !errors.Is(err, quota) {
				t.Errorf("error should wrap the provider failure, got %v", err)
			}
			if n := len(fake.Requests()); n != tt.wantCalls {
				t.Errorf("provider calls = %d, want %d", n, tt.wantCalls)
			}
			for _, s := range stages {
				if s == StageDone {
					t.Error("failed run must not report done")
				}
			}
		})
	}
}

func TestAgent_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAgent(llmtest.New(llmtest.Reply{Content: "x"})).Run(ctx, models.GenerationRequest{Tone: models.ToneProfessional, PostCount: 1}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
