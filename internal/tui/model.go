package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
)

// ChatPort is the TUI-facing subset of the chat API.
type ChatPort interface {
	Ask(message, sessionID string) (domain.ChatResponse, error)
	ClearSession(sessionID string) error
}

// Model is the Bubble Tea model for the terminal chat client.
type Model struct {
	client    ChatPort
	input     textinput.Model
	viewport  viewport.Model
	lines     []string
	sessionID string
	status    string
	ready     bool
}

// New creates a new chat model instance.
func New(client ChatPort, banner string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{client: client, input: ti, viewport: vp, status: banner}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

type answerMsg struct {
	resp domain.ChatResponse
	err  error
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around transcript and query boxes
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil
	case answerMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.sessionID = msg.resp.SessionID
		m.lines = append(m.lines, renderAnswer(msg.resp)...)
		if msg.resp.Success {
			m.status = fmt.Sprintf("Session %s", m.sessionID)
		} else {
			m.status = "Degraded: " + msg.resp.ErrorMessage
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			if q == "/clear" {
				if m.sessionID != "" {
					if err := m.client.ClearSession(m.sessionID); err != nil {
						m.status = "Error: " + err.Error()
						return m, nil
					}
				}
				m.sessionID = ""
				m.lines = nil
				m.status = "Session cleared."
				m.input.SetValue("")
				m.refresh()
				return m, nil
			}
			m.input.SetValue("")
			m.lines = append(m.lines, youStyle.Render("You: ")+q, "")
			m.status = "Thinking..."
			m.refresh()
			client, sessionID := m.client, m.sessionID
			return m, func() tea.Msg {
				resp, err := client.Ask(q, sessionID)
				return answerMsg{resp: resp, err: err}
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DocQA Chat")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	if len(m.lines) == 0 {
		m.viewport.SetContent("No messages yet. Type a question, or /clear to reset the session.")
	} else {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
	}
	m.viewport.GotoBottom()
}

func renderAnswer(resp domain.ChatResponse) []string {
	lines := []string{botStyle.Render("Assistant: ") + resp.Answer}
	if len(resp.Sources) > 0 {
		lines = append(lines, sourceStyle.Render("Sources:"))
		for _, src := range resp.Sources {
			label := fmt.Sprintf("  [%.3f] %s", src.SimilarityScore, src.Filename)
			if shape, ok := src.TableInfo["shape"]; ok {
				label += fmt.Sprintf(" (table %v)", shape)
			}
			lines = append(lines, sourceStyle.Render(label))
		}
	}
	lines = append(lines, "")
	return lines
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
