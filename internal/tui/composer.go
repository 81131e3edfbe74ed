// Package tui renders the template task composer in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"onboarding-platform/backend/internal/composer"
)

type pane int

const (
	paneTasks pane = iota
	paneLibrary
)

type loadedMsg struct{ err error }

type savedMsg struct{ err error }

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	focusedStyle = boxStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#62C073"))
)

// ComposerModel is the bubbletea model for one composer session.
type ComposerModel struct {
	ctx        context.Context
	session    *composer.Session
	templateID int64
	title      string

	focus   pane
	taskIdx int
	libIdx  int
	status  string
	err     error
	saved   bool
	closed  bool
	keys    keyMap
	help    help.Model
	width   int
}

// NewComposer creates a model that opens session for templateID on Init.
func NewComposer(ctx context.Context, session *composer.Session, templateID int64, title string) *ComposerModel {
	return &ComposerModel{
		ctx:        ctx,
		session:    session,
		templateID: templateID,
		title:      title,
		keys:       defaultKeys(),
		help:       help.New(),
	}
}

// Saved reports whether the session ended with a successful save.
func (m *ComposerModel) Saved() bool { return m.saved }

func (m *ComposerModel) Init() tea.Cmd {
	return m.open()
}

func (m *ComposerModel) open() tea.Cmd {
	m.status = "loading…"
	return func() tea.Msg {
		return loadedMsg{err: m.session.Open(m.ctx, m.templateID)}
	}
}

func (m *ComposerModel) save() tea.Cmd {
	m.status = "saving…"
	return func() tea.Msg {
		return savedMsg{err: m.session.Save(m.ctx)}
	}
}

func (m *ComposerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		if errors.Is(msg.err, composer.ErrClosed) {
			return m, nil
		}
		m.err = msg.err
		m.status = ""
		m.taskIdx, m.libIdx = 0, 0
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "save failed, edits kept"
			return m, nil
		}
		m.saved = true
		m.closed = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *ComposerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Close()
		m.closed = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.session.State() != composer.Ready {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Reload):
		m.err = nil
		return m, m.open()
	case key.Matches(msg, m.keys.Save):
		m.err = nil
		return m, m.save()
	case key.Matches(msg, m.keys.Focus):
		if m.focus == paneTasks {
			m.focus = paneLibrary
		} else {
			m.focus = paneTasks
		}
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(+1)
	case key.Matches(msg, m.keys.MoveUp):
		if m.focus == paneTasks && m.session.Move(m.taskIdx, composer.Up) {
			m.taskIdx--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if m.focus == paneTasks && m.session.Move(m.taskIdx, composer.Down) {
			m.taskIdx++
		}
	case key.Matches(msg, m.keys.Remove):
		if m.focus == paneTasks {
			m.report(m.session.Remove(m.taskIdx), "task removed")
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.Add):
		if m.focus == paneLibrary {
			m.addCurrent()
		}
	}
	return m, nil
}

func (m *ComposerModel) addCurrent() {
	available := m.session.Available()
	if len(available) == 0 {
		m.report(composer.ErrNoSelection, "")
		return
	}
	if err := m.session.Select(available[m.libIdx].ID); err != nil {
		m.report(err, "")
		return
	}
	m.report(m.session.AddSelected(), fmt.Sprintf("added %q", available[m.libIdx].Title))
	m.clampCursors()
}

func (m *ComposerModel) report(err error, ok string) {
	m.err = err
	if err == nil {
		m.status = ok
	} else {
		m.status = ""
	}
}

func (m *ComposerModel) moveCursor(delta int) {
	if m.focus == paneTasks {
		m.taskIdx += delta
	} else {
		m.libIdx += delta
	}
	m.clampCursors()
}

func (m *ComposerModel) clampCursors() {
	m.taskIdx = clamp(m.taskIdx, len(m.session.Tasks()))
	m.libIdx = clamp(m.libIdx, len(m.session.Available()))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *ComposerModel) View() string {
	if m.closed {
		return ""
	}

	header := titleStyle.Render(fmt.Sprintf("Compose · %s", m.title))
	if m.session.State() == composer.Loading {
		return header + "\n" + mutedStyle.Render("loading task library…")
	}

	half := 38
	if m.width > 0 {
		half = max(24, m.width/2-4)
	}

	var taskLines []string
	for i, t := range m.session.Tasks() {
		line := fmt.Sprintf("%2d. %s", t.Sequence, t.Title)
		taskLines = append(taskLines, m.row(line, m.focus == paneTasks && i == m.taskIdx))
	}
	if len(taskLines) == 0 {
		taskLines = append(taskLines, mutedStyle.Render("no tasks yet"))
	}

	var libLines []string
	for i, t := range m.session.Available() {
		libLines = append(libLines, m.row(t.Title, m.focus == paneLibrary && i == m.libIdx))
	}
	if len(libLines) == 0 {
		libLines = append(libLines, mutedStyle.Render("every library task is in use"))
	}

	left := m.pane("Template tasks", taskLines, half, m.focus == paneTasks)
	right := m.pane("Task library", libLines, half, m.focus == paneLibrary)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	footer := ""
	switch {
	case m.err != nil:
		footer = errorStyle.Render("⚠ " + m.err.Error())
	case m.status != "":
		footer = okStyle.Render(m.status)
	}

	return strings.Join([]string{header, body, footer, m.help.View(m.keys)}, "\n")
}

func (m *ComposerModel) row(text string, selected bool) string {
	if selected {
		return cursorStyle.Render("› " + text)
	}
	return "  " + text
}

func (m *ComposerModel) pane(title string, lines []string, width int, focused bool) string {
	style := boxStyle
	if focused {
		style = focusedStyle
	}
	content := titleStyle.Render(title) + "\n" + strings.Join(lines, "\n")
	return style.Width(width).Render(content)
}
