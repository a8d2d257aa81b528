package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/ai"
	"github.com/linkedin-postgen/internal/llm/llmtest"
	"github.com/linkedin-postgen/internal/models"
	"github.com/linkedin-postgen/pkg/logger"
)

func newTestApp(t *testing.T, fake *llmtest.Provider, dir string) *App {
	t.Helper()
	agent := generator.NewAgent(ai.NewWriter(fake, "", logger.Nop()), logger.Nop())
	return NewApp(context.Background(), agent, Options{Topic: "AI in Healthcare", Tone: models.ToneStorytelling, PostCount: 2, ExportDir: dir})
}

func press(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain feeds run events back into the model until the run finishes
func drain(t *testing.T, a *App) {
	t.Helper()
	for a.view == viewProcessing {
		msg := waitForEvent(a.events)()
		a.Update(msg)
	}
}

func TestApp_FormControls(t *testing.T) {
	a := newTestApp(t, llmtest.New(), t.TempDir())

	req := a.Request()
	if req.Topic != "AI in Healthcare" || req.Tone != models.ToneStorytelling || req.PostCount != 2 {
		t.Fatalf("initial request = %+v", req)
	}

	a.Update(press("tab")) // tone
	a.Update(press("right"))
	if got := a.Request().Tone; got != models.ToneProfessional {
		t.Errorf("tone after right = %s, want wrap to Professional", got)
	}

	a.Update(press("tab")) // audience
	for _, r := range "CTOs" {
		a.Update(press(string(r)))
	}
	if got := a.Request().Audience; got != "CTOs" {
		t.Errorf("audience = %q", got)
	}

	a.Update(press("tab")) // count
	for i := 0; i < 10; i++ {
		a.Update(press("right"))
	}
	if got := a.Request().PostCount; got != models.MaxPostCount {
		t.Errorf("count = %d, want clamp at %d", got, models.MaxPostCount)
	}
}

func TestApp_RequestKeepsInputVerbatim(t *testing.T) {
	agent := generator.NewAgent(ai.NewWriter(llmtest.New(), "", logger.Nop()), logger.Nop())
	a := NewApp(context.Background(), agent, Options{Topic: "  AI in Healthcare  ", PostCount: 1})

	a.Update(press("tab")) // tone
	a.Update(press("tab")) // audience
	for _, r := range " CTOs " {
		a.Update(press(string(r)))
	}

	req := a.Request()
	if req.Topic != "  AI in Healthcare  " {
		t.Errorf("Topic = %q, want it untouched", req.Topic)
	}
	if req.Audience != " CTOs " {
		t.Errorf("Audience = %q, want it untouched", req.Audience)
	}
}

func TestApp_RunSaveAndNew(t *testing.T) {
	dir := t.TempDir()
	fake := llmtest.New(
		llmtest.Reply{Content: "OUTLINE 1: a\nOUTLINE 2: b"},
		llmtest.Reply{Content: "POST 1: first\nPOST 2: second"},
	)
	a := newTestApp(t, fake, dir)

	a.Update(press("enter"))
	if a.view != viewProcessing {
		t.Fatalf("view = %v, want processing", a.view)
	}
	drain(t, a)

	if a.view != viewResult {
		t.Fatalf("view = %v, want result", a.view)
	}
	if !strings.Contains(a.View(), "Post 1 of 2") {
		t.Errorf("result view:\n%s", a.View())
	}

	a.Update(press("right"))
	a.Update(press("s"))
	data, err := os.ReadFile(filepath.Join(dir, "linkedin_post_2.txt"))
	if err != nil {
		t.Fatalf("saved file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("saved content = %q", data)
	}
	if !strings.Contains(a.status, "Saved") {
		t.Errorf("status = %q", a.status)
	}

	a.Update(press("n"))
	if a.view != viewForm || a.Request().Topic != "AI in Healthcare" {
		t.Errorf("new run should return to the filled form, view=%v", a.view)
	}
}

func TestApp_RunFailure(t *testing.T) {
	a := newTestApp(t, llmtest.New(llmtest.Reply{Err: errors.New("quota exceeded")}), t.TempDir())

	a.Update(press("enter"))
	drain(t, a)

	if a.view != viewError {
		t.Fatalf("view = %v, want error", a.view)
	}
	if !strings.Contains(a.View(), "quota exceeded") {
		t.Errorf("error view:\n%s", a.View())
	}

	a.Update(press("x"))
	if a.view != viewForm {
		t.Errorf("any key should return to the form, view=%v", a.view)
	}
}

func TestApp_MismatchWarning(t *testing.T) {
	fake := llmtest.New(
		llmtest.Reply{Content: "outlines"},
		llmtest.Reply{Content: "POST 1: lonely"},
	)
	a := newTestApp(t, fake, t.TempDir())

	a.Update(press("enter"))
	drain(t, a)

	if !strings.Contains(a.View(), "Asked for 2 posts, the model returned 1.") {
		t.Errorf("result view should warn about the count:\n%s", a.View())
	}
}
