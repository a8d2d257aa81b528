package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/models"
)

var stageOrder = []generator.Stage{
	generator.StageOutlining,
	generator.StageExpanding,
	generator.StageSplitting,
}

var stageLabels = map[generator.Stage]string{
	generator.StageOutlining: "Drafting outlines",
	generator.StageExpanding: "Writing posts",
	generator.StageSplitting: "Splitting posts",
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("LinkedIn Post Generator"))
	b.WriteString("\n")
	b.WriteString(styleSubtitle.Render("Generate engaging, audience-focused LinkedIn posts in seconds."))
	b.WriteString("\n\n")

	switch a.view {
	case viewForm:
		b.WriteString(a.renderForm())
	case viewProcessing:
		b.WriteString(a.renderProcessing())
	case viewResult:
		b.WriteString(a.renderResult())
	case viewError:
		b.WriteString(a.renderError())
	}
	return b.String()
}

func (a *App) label(field int, text string) string {
	if a.focus == field {
		return styleFocused.Render("> " + text)
	}
	return styleLabel.Render("  " + text)
}

func (a *App) renderForm() string {
	var b strings.Builder

	b.WriteString(a.label(fieldTopic, "Topic") + "\n  " + a.topic.View() + "\n\n")

	tones := make([]string, len(models.Tones))
	for i, t := range models.Tones {
		if i == a.toneIdx {
			tones[i] = styleFocused.Render("[" + string(t) + "]")
		} else {
			tones[i] = styleSubtitle.Render(string(t))
		}
	}
	b.WriteString(a.label(fieldTone, "Tone") + "\n  " + strings.Join(tones, "  ") + "\n\n")

	b.WriteString(a.label(fieldAudience, "Target Audience") + "\n  " + a.audience.View() + "\n\n")

	slider := strings.Repeat("●", a.count) + strings.Repeat("○", models.MaxPostCount-a.count)
	b.WriteString(a.label(fieldCount, "Number of Posts") + fmt.Sprintf("\n  %s %d\n\n", slider, a.count))

	b.WriteString(styleHelp.Render("tab/shift+tab move • ←/→ change • enter generate • esc quit"))
	return b.String()
}

func (a *App) renderProcessing() string {
	var lines []string
	current := -1
	for i, s := range stageOrder {
		if s == a.stage {
			current = i
		}
	}
	if a.stage == generator.StageDone {
		current = len(stageOrder)
	}

	for i, s := range stageOrder {
		switch {
		case i < current:
			lines = append(lines, styleStatus.Render("[x] "+stageLabels[s]))
		case i == current:
			lines = append(lines, styleFocused.Render(a.spinner.View()+" "+stageLabels[s]))
		default:
			lines = append(lines, styleSubtitle.Render("[ ] "+stageLabels[s]))
		}
	}
	return styleBox.Render(strings.Join(lines, "\n")) + "\n\n" + styleHelp.Render("esc cancel")
}

func (a *App) renderResult() string {
	var b strings.Builder
	c := a.result.Collection

	if c.Count() == 0 {
		b.WriteString(styleWarning.Render("The model returned no posts.") + "\n\n")
		b.WriteString(styleHelp.Render("n new run • esc quit"))
		return b.String()
	}

	post, _ := a.currentPost()
	header := fmt.Sprintf("Post %d of %d", post.Index, c.Count())
	b.WriteString(styleLabel.Render(header) + "\n")
	if c.Mismatch() {
		b.WriteString(styleWarning.Render(fmt.Sprintf("Asked for %d posts, the model returned %d.", c.Requested, c.Count())) + "\n")
	}

	width := a.width - 4
	if width < 40 {
		width = 76
	}
	b.WriteString(styleBox.Width(width).Render(post.Text) + "\n")

	if a.status != "" {
		b.WriteString(styleStatus.Render(a.status) + "\n")
	}
	b.WriteString("\n" + styleHelp.Render("←/→ browse • c copy • s save • n new run • esc quit"))
	return b.String()
}

func (a *App) renderError() string {
	msg := "unknown error"
	if a.err != nil {
		msg = a.err.Error()
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 1).
		Render(styleError.Render("Generation failed") + "\n" + msg)
	return box + "\n\n" + styleHelp.Render("any key back to form • esc quit")
}
