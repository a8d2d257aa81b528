package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/linkedin-postgen/internal/agent/generator"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0073B1")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	postStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 1)
)

var stageLabels = map[generator.Stage]string{
	generator.StageOutlining: "Generating outlines...",
	generator.StageExpanding: "Expanding outlines into posts...",
	generator.StageSplitting: "Splitting posts...",
	generator.StageDone:      "Done",
}

// printer writes run output, styled only when attached to a terminal
type printer struct {
	w      io.Writer
	styled bool
	width  int
}

func newPrinter(f *os.File) *printer {
	p := &printer{w: f, width: 80}
	if term.IsTerminal(int(f.Fd())) {
		p.styled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			p.width = w
		}
	}
	return p
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// stage reports progress on stderr so stdout stays pipeable
func (p *printer) stage(stage generator.Stage) {
	if !p.styled {
		return
	}
	fmt.Fprintln(os.Stderr, mutedStyle.Render(stageLabels[stage]))
}

func (p *printer) result(result *generator.Result) {
	c := result.Collection

	fmt.Fprintf(p.w, "\n%s\n", p.render(headerStyle, "=== Generated Posts ==="))
	fmt.Fprintf(p.w, "%s\n", p.render(mutedStyle, fmt.Sprintf("Run %s | %s | %d of %d posts | %s",
		result.RunID, result.Request.Tone, c.Count(), c.Requested, result.Duration.Round(time.Millisecond))))
	if c.Mismatch() {
		fmt.Fprintf(p.w, "%s\n", p.render(warnStyle,
			fmt.Sprintf("Warning: requested %d posts but the model returned %d", c.Requested, c.Count())))
	}

	for _, post := range c.Posts {
		title := fmt.Sprintf("Post %d", post.Index)
		if !p.styled {
			fmt.Fprintf(p.w, "\n--- %s ---\n%s\n", title, post.Text)
			continue
		}
		fmt.Fprintf(p.w, "\n%s\n%s\n", headerStyle.Render(title), postStyle.Width(p.width-4).Render(post.Text))
	}
}

func (p *printer) saved(paths []string) {
	fmt.Fprintf(p.w, "\n%s\n", p.render(headerStyle, "=== Saved Files ==="))
	fmt.Fprintln(p.w, strings.Join(paths, "\n"))
}

func (p *printer) note(msg string) {
	fmt.Fprintf(p.w, "%s\n", p.render(mutedStyle, msg))
}
