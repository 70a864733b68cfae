package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/autodev/internal/tasks"
)

// progressBuffer absorbs bursts of streamed chunks; the pipeline drops updates once it is full.
const progressBuffer = 512

// chrome is the number of lines taken by everything around the viewport.
const chrome = 8

// Model is the watcher state.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	title  string
	run    Runner

	progress chan tasks.ProgressUpdate
	result   chan finished

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap

	output   strings.Builder
	status   string
	phase    tasks.Phase
	running  bool
	follow   bool
	summary  string
	err      error
	toasts   []toast
	toastSeq int
	width    int
	height   int
}

// NewModel creates a watcher titled title that executes run once started.
func NewModel(ctx context.Context, title string, run Runner) *Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.info))

	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		title:    title,
		run:      run,
		spinner:  sp,
		viewport: viewport.New(80, 12),
		help:     help.New(),
		keys:     newKeyMap(),
		status:   "Connecting...",
		follow:   true,
	}
}

// Err returns the runner's error once it has finished, or [context.Canceled] if the user quit while it was running.
func (m *Model) Err() error {
	return m.err
}

// Summary returns the runner's summary once it has finished successfully.
func (m *Model) Summary() string {
	return m.summary
}

// Output returns everything streamed so far.
func (m *Model) Output() string {
	return m.output.String()
}

// Init starts the spinner and the runner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height-chrome, 3)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgress:
			return m, tea.Batch(m.applyProgress(msg.data.(tasks.ProgressUpdate)), m.waitForProgress())
		case MsgFinished:
			return m, m.finish(msg.data.(finished))
		case MsgToastExpired:
			m.dropToast(msg.data.(int))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.running && m.err == nil {
			m.err = context.Canceled
		}
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.up, m.keys.pageUp):
		m.follow = false
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.AtBottom() {
		m.follow = true
	}
	return m, cmd
}

// applyProgress folds one update into the view, returning a toast command for milestones.
func (m *Model) applyProgress(u tasks.ProgressUpdate) tea.Cmd {
	m.phase = u.Phase

	if u.Phase == tasks.Analyze && u.Data != nil {
		if chunk, ok := u.Data.(string); ok {
			m.output.WriteString(chunk)
			m.status = fmt.Sprintf("Receiving analysis (%d chunks)...", u.Step)
			m.refresh()
			return nil
		}
	}

	m.status = u.Message

	switch u.Phase {
	case tasks.CreateProject, tasks.CreateJob, tasks.SaveSpec:
		if u.Step > 0 && u.Step == u.Total {
			return m.pushToast(ToastSuccess, u.Message, toastDuration)
		}
	case tasks.Generate:
		if u.Step == u.Total {
			return m.pushToast(ToastSuccess, u.Message, toastDuration)
		}
	}
	return nil
}

func (m *Model) finish(f finished) tea.Cmd {
	m.running = false
	m.progress = nil
	m.result = nil

	if f.err != nil {
		m.err = f.err
		m.status = ""
		return m.pushToast(ToastError, f.err.Error(), 2*toastDuration)
	}

	m.summary = f.summary
	m.status = ""
	return m.pushToast(ToastSuccess, f.summary, toastDuration)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.output.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// start launches the runner; progress is closed only after the result is queued.
func (m *Model) start() tea.Cmd {
	m.progress = make(chan tasks.ProgressUpdate, progressBuffer)
	m.result = make(chan finished, 1)
	m.running = true

	progress, result := m.progress, m.result
	go func() {
		summary, err := m.run(m.ctx, progress)
		result <- finished{summary, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, result := m.progress, m.result
	if progress == nil {
		return nil
	}

	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			f := <-result
			return finishedMsg(f.summary, f.err)
		}
		return progressMsg(update)
	}
}

// View renders the watcher.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")

	switch {
	case m.running:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.status)
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ %v", m.err)))
		b.WriteString("\n")
	default:
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %s", m.summary)))
		b.WriteString("\n")
	}

	if m.output.Len() > 0 {
		b.WriteString(styles.output.Render(m.viewport.View()))
		b.WriteString("\n")
	}

	for _, t := range m.toasts {
		b.WriteString(styles.Toast(t.level).Render(t.level.icon() + " " + t.text))
		b.WriteString("\n")
	}

	if !m.follow {
		b.WriteString(styles.warn.Render("follow paused"))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
