package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linkedin-postgen/internal/agent/generator"
	"github.com/linkedin-postgen/internal/export"
	"github.com/linkedin-postgen/internal/models"
)

type view int

const (
	viewForm view = iota
	viewProcessing
	viewResult
	viewError
)

// form fields in focus order
const (
	fieldTopic = iota
	fieldTone
	fieldAudience
	fieldCount
	numFields
)

type stageMsg generator.Stage

type resultMsg struct{ result *generator.Result }

type errorMsg struct{ err error }

// Options configures the terminal app
type Options struct {
	Topic     string
	Tone      models.Tone
	PostCount int
	ExportDir string
}

// App is the bubbletea model for the interactive generator
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	agent  *generator.Agent
	opts   Options

	width int
	view  view

	topic    textinput.Model
	audience textinput.Model
	toneIdx  int
	count    int
	focus    int

	spinner spinner.Model
	stage   generator.Stage
	events  chan tea.Msg

	result  *generator.Result
	current int
	status  string
	err     error
}

// NewApp creates the model. ctx bounds every generation run.
func NewApp(ctx context.Context, agent *generator.Agent, opts Options) *App {
	ctx, cancel := context.WithCancel(ctx)

	topic := textinput.New()
	topic.Placeholder = "e.g., AI in Healthcare"
	topic.CharLimit = 200
	topic.SetValue(opts.Topic)
	topic.Focus()

	audience := textinput.New()
	audience.Placeholder = "e.g., startup founders, data scientists"
	audience.CharLimit = 200

	toneIdx := 0
	for i, t := range models.Tones {
		if t == opts.Tone {
			toneIdx = i
		}
	}
	count := opts.PostCount
	if count < models.MinPostCount || count > models.MaxPostCount {
		count = models.DefaultPostCount
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleFocused

	return &App{
		ctx:      ctx,
		cancel:   cancel,
		agent:    agent,
		opts:     opts,
		view:     viewForm,
		topic:    topic,
		audience: audience,
		toneIdx:  toneIdx,
		count:    count,
		spinner:  sp,
	}
}

// Run starts the program and blocks until the user quits
func Run(ctx context.Context, agent *generator.Agent, opts Options) error {
	app := NewApp(ctx, agent, opts)
	defer app.cancel()
	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Request builds the generation request from the form
func (a *App) Request() models.GenerationRequest {
	return models.GenerationRequest{
		Topic:     a.topic.Value(),
		Tone:      models.Tones[a.toneIdx],
		Audience:  a.audience.Value(),
		PostCount: a.count,
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			a.cancel()
			return a, tea.Quit
		}
		return a, a.handleKey(msg)

	case spinner.TickMsg:
		if a.view != viewProcessing {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case stageMsg:
		a.stage = generator.Stage(msg)
		return a, waitForEvent(a.events)

	case resultMsg:
		a.result = msg.result
		a.current = 0
		a.status = ""
		a.view = viewResult
		return a, nil

	case errorMsg:
		a.err = msg.err
		a.view = viewError
		return a, nil
	}

	return a, a.updateInputs(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.view {
	case viewForm:
		return a.handleFormKey(msg)
	case viewResult:
		return a.handleResultKey(msg)
	case viewError:
		a.view = viewForm
		a.err = nil
		return a.focusField(a.focus)
	}
	return nil
}

func (a *App) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Enter):
		return a.submit()
	case key.Matches(msg, keys.Next):
		return a.focusField((a.focus + 1) % numFields)
	case key.Matches(msg, keys.Prev):
		return a.focusField((a.focus + numFields - 1) % numFields)
	}

	switch a.focus {
	case fieldTone:
		switch {
		case key.Matches(msg, keys.Left):
			a.toneIdx = (a.toneIdx + len(models.Tones) - 1) % len(models.Tones)
		case key.Matches(msg, keys.Right):
			a.toneIdx = (a.toneIdx + 1) % len(models.Tones)
		}
		return nil
	case fieldCount:
		switch {
		case key.Matches(msg, keys.Left) && a.count > models.MinPostCount:
			a.count--
		case key.Matches(msg, keys.Right) && a.count < models.MaxPostCount:
			a.count++
		}
		return nil
	}

	return a.updateInputs(msg)
}

func (a *App) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	total := a.result.Collection.Count()
	switch {
	case key.Matches(msg, keys.Left):
		if a.current > 0 {
			a.current--
		}
	case key.Matches(msg, keys.Right):
		if a.current < total-1 {
			a.current++
		}
	case key.Matches(msg, keys.Copy):
		if post, ok := a.currentPost(); ok {
			if err := export.CopyToClipboard(post.Text); err != nil {
				a.status = "Copy failed: " + err.Error()
			} else {
				a.status = fmt.Sprintf("Copied post %d to clipboard", post.Index)
			}
		}
	case key.Matches(msg, keys.Save):
		if post, ok := a.currentPost(); ok {
			path, err := export.WriteFile(a.opts.ExportDir, post)
			if err != nil {
				a.status = "Save failed: " + err.Error()
			} else {
				a.status = "Saved " + path
			}
		}
	case key.Matches(msg, keys.New):
		a.view = viewForm
		a.result = nil
		a.status = ""
		return a.focusField(fieldTopic)
	}
	return nil
}

func (a *App) currentPost() (models.Post, bool) {
	if a.result == nil {
		return models.Post{}, false
	}
	return a.result.Collection.Get(a.current + 1)
}

func (a *App) focusField(field int) tea.Cmd {
	a.focus = field
	a.topic.Blur()
	a.audience.Blur()
	switch field {
	case fieldTopic:
		return a.topic.Focus()
	case fieldAudience:
		return a.audience.Focus()
	}
	return nil
}

func (a *App) updateInputs(msg tea.Msg) tea.Cmd {
	if a.view != viewForm {
		return nil
	}
	var cmd tea.Cmd
	switch a.focus {
	case fieldTopic:
		a.topic, cmd = a.topic.Update(msg)
	case fieldAudience:
		a.audience, cmd = a.audience.Update(msg)
	}
	return cmd
}

// submit starts a run in the background and streams its events back
func (a *App) submit() tea.Cmd {
	req := a.Request()
	a.view = viewProcessing
	a.stage = ""
	a.events = make(chan tea.Msg, 8)

	events := a.events
	go func() {
		result, err := a.agent.Run(a.ctx, req, func(s generator.Stage) {
			events <- stageMsg(s)
		})
		if err != nil {
			events <- errorMsg{err}
			return
		}
		events <- resultMsg{result}
	}()

	return tea.Batch(a.spinner.Tick, waitForEvent(events))
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
