// Package tui is an interactive terminal chat client for a hybridchat server.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ErrorText is shown in place of an answer when a send fails.
const ErrorText = "Error: Could not reach backend."

const (
	defaultWidth  = 80
	defaultHeight = 20

	// header line + blank line + input line
	chromeHeight = 3
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	aiStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle = lipgloss.NewStyle().Faint(true)
)

// Sender delivers a message to the chat server.
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

type role int

const (
	roleUser role = iota
	roleAI
	roleError
)

type chatLine struct {
	role role
	text string
}

// replyMsg carries the outcome of a send back into Update.
type replyMsg struct {
	text string
	err  error
}

// Model is the bubbletea model for the chat client.
type Model struct {
	sender   Sender
	input    textinput.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	lines    []chatLine
	pending  bool
}

// New creates a Model that sends through sender.
func New(sender Sender) Model {
	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "> "
	input.Focus()

	m := Model{
		sender:   sender,
		input:    input,
		viewport: viewport.New(defaultWidth, defaultHeight),
	}
	m.renderer = newRenderer(defaultWidth)
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.renderer = newRenderer(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.send()
		}

	case replyMsg:
		m.pending = false
		if msg.err != nil {
			m.lines = append(m.lines, chatLine{role: roleError, text: ErrorText})
		} else {
			m.lines = append(m.lines, chatLine{role: roleAI, text: msg.text})
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.pending {
		return m, nil
	}

	m.input.Reset()
	m.pending = true
	m.lines = append(m.lines, chatLine{role: roleUser, text: text})
	m.refresh()

	sender := m.sender
	return m, func() tea.Msg {
		answer, err := sender.Send(context.Background(), text)
		return replyMsg{text: answer, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m Model) transcript() string {
	var b strings.Builder
	for _, line := range m.lines {
		switch line.role {
		case roleUser:
			b.WriteString(userStyle.Render("You:") + " " + line.text + "\n")
		case roleAI:
			b.WriteString(aiStyle.Render("AI:") + " " + m.renderMarkdown(line.text) + "\n")
		case roleError:
			b.WriteString(aiStyle.Render("AI:") + " " + errorStyle.Render(line.text) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// View implements tea.Model.
func (m Model) View() string {
	status := ""
	if m.pending {
		status = statusStyle.Render(" thinking...")
	}
	return headerStyle.Render("Hybrid AI Chatbot") + status + "\n" +
		m.viewport.View() + "\n" +
		m.input.View()
}

// Run starts the interactive client on the terminal.
func Run(sender Sender) error {
	_, err := tea.NewProgram(New(sender), tea.WithAltScreen()).Run()
	return err
}
