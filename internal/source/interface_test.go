package source

import (
	"context"
	"errors"
	"testing"

	"github.com/linkedin-postgen/internal/models"
)

type stubSource struct {
	name  string
	ideas []*models.RawIdea
	err   error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Type() string { return "stub" }
func (s *stubSource) Fetch(ctx context.Context) ([]*models.RawIdea, error) {
	return s.ideas, s.err
}
func (s *stubSource) HealthCheck(ctx context.Context) error { return s.err }

func TestGenerateExternalID(t *testing.T) {
	a := GenerateExternalID("rss", "https://example.com/a")
	if len(a) != 32 {
		t.Errorf("len = %d, want 32 hex chars", len(a))
	}
	if a != GenerateExternalID("rss", "https://example.com/a") {
		t.Error("ID should be stable")
	}
	if a == GenerateExternalID("custom", "https://example.com/a") {
		t.Error("source type should be part of the ID")
	}
}

func TestExternalIDFor(t *testing.T) {
	withURL := &models.RawIdea{Title: "t", URL: "https://x", SourceType: "rss"}
	if ExternalIDFor(withURL) != GenerateExternalID("rss", "https://x") {
		t.Error("URL should be the key when present")
	}

	a := &models.RawIdea{Title: "leadership", SourceType: "custom"}
	b := &models.RawIdea{Title: "remote work", SourceType: "custom"}
	if ExternalIDFor(a) == ExternalIDFor(b) {
		t.Error("ideas without URL should be keyed by title")
	}
}

func TestManager_FetchAll(t *testing.T) {
	m := NewManager()
	m.Register(&stubSource{name: "one", ideas: []*models.RawIdea{{Title: "a"}, {Title: "b"}}})
	m.Register(&stubSource{name: "broken", err: errors.New("timeout")})
	m.Register(&stubSource{name: "two", ideas: []*models.RawIdea{{Title: "c"}}})

	ideas, errs := m.FetchAll(context.Background())
	if len(errs) != 1 {
		t.Errorf("errors = %v, want 1", errs)
	}
	if len(ideas) != 3 {
		t.Fatalf("ideas = %d, want 3", len(ideas))
	}
	for i, want := range []string{"a", "b", "c"} {
		if ideas[i].Title != want {
			t.Errorf("ideas[%d] = %q, want %q", i, ideas[i].Title, want)
		}
	}

	if m.GetSourceByName("two") == nil || m.GetSourceByName("missing") != nil {
		t.Error("GetSourceByName lookup mismatch")
	}
	if len(m.GetSources()) != 3 {
		t.Errorf("GetSources() = %d, want 3", len(m.GetSources()))
	}
}
