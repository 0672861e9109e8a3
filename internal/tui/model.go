package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Background(lipgloss.Color("236")).Padding(0, 1)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("230")).Bold(true)
)

// Model is the built-in live viewer: an alternative display sink showing
// the formatted console stream in a scrollable viewport.
type Model struct {
	lines       []string
	content     string
	viewport    viewport.Model
	textinput   textinput.Model
	lineChan    <-chan string
	clearChan   <-chan struct{}
	width       int
	height      int
	ready       bool
	searching   bool
	searchQuery string
	paused      bool
	follow      bool
	title       string
}

// LineMsg is a message containing a new display line
type LineMsg string

// ClearMsg signals that the sink was cleared (new watch session)
type ClearMsg struct{}

// New creates a viewer fed by a channel sink.
func New(title string, lineChan <-chan string, clearChan <-chan struct{}) Model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		lines:     make([]string, 0, 1000),
		textinput: ti,
		lineChan:  lineChan,
		clearChan: clearChan,
		follow:    true,
		title:     title,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForLine(m.lineChan),
		waitForClear(m.clearChan),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "esc":
				m.searching = false
				m.textinput.Blur()
				m.searchQuery = ""
				m.rebuild()
			case "enter":
				m.searching = false
				m.textinput.Blur()
				m.searchQuery = m.textinput.Value()
				m.rebuild()
			default:
				m.textinput, cmd = m.textinput.Update(msg)
				cmds = append(cmds, cmd)
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "/":
				m.searching = true
				m.textinput.Focus()
				return m, textinput.Blink
			case "esc":
				if m.searchQuery != "" {
					m.searchQuery = ""
					m.textinput.SetValue("")
					m.rebuild()
				}
			case "p", " ":
				m.paused = !m.paused
			case "f":
				m.follow = !m.follow
				if m.follow {
					m.viewport.GotoBottom()
				}
			case "c":
				m.lines = m.lines[:0]
				m.rebuild()
			case "g", "home":
				m.viewport.GotoTop()
			case "G", "end":
				m.viewport.GotoBottom()
			case "j", "down":
				m.viewport.LineDown(1)
			case "k", "up":
				m.viewport.LineUp(1)
			case "ctrl+d", "pgdown":
				m.viewport.HalfViewDown()
			case "ctrl+u", "pgup":
				m.viewport.HalfViewUp()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 1
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.rebuild()

	case LineMsg:
		if !m.paused {
			m.lines = append(m.lines, string(msg))
			// Keep only the most recent lines
			if len(m.lines) > 10000 {
				m.lines = m.lines[1000:]
				m.rebuild()
			} else if m.lineVisible(string(msg)) {
				line := m.renderLine(string(msg))
				if m.content == "" {
					m.content = line
				} else {
					m.content += "\n" + line
				}
				m.updateViewport()
			}
		}
		cmds = append(cmds, waitForLine(m.lineChan))

	case ClearMsg:
		m.lines = m.lines[:0]
		m.rebuild()
		cmds = append(cmds, waitForClear(m.clearChan))
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), m.viewport.View(), m.renderFooter())
}

func (m *Model) renderHeader() string {
	title := m.title
	if m.paused {
		title += " [PAUSED]"
	}
	if !m.follow {
		title += " [NO-FOLLOW]"
	}

	info := fmt.Sprintf("Lines: %d", len(m.lines))
	if m.searchQuery != "" {
		info += fmt.Sprintf(" | Search: %q", m.searchQuery)
	}

	return titleStyle.Width(m.width).Render(title) + "\n" + helpStyle.Width(m.width).Render(info)
}

func (m *Model) renderFooter() string {
	if m.searching {
		return m.textinput.View()
	}
	help := "q:quit /:search p:pause f:follow c:clear g/G:top/bottom j/k:scroll"
	return helpStyle.Width(m.width).Render(help)
}

func (m *Model) rebuild() {
	var b strings.Builder
	for _, line := range m.lines {
		if !m.lineVisible(line) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderLine(line))
	}
	m.content = b.String()
	m.updateViewport()
}

func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.content)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) lineVisible(line string) bool {
	if m.searchQuery == "" {
		return true
	}
	return strings.Contains(strings.ToLower(line), strings.ToLower(m.searchQuery))
}

func (m *Model) renderLine(line string) string {
	if m.searchQuery != "" {
		return highlight(line, m.searchQuery)
	}
	return line
}

func highlight(s, query string) string {
	if query == "" || s == "" {
		return s
	}
	qs := strings.ToLower(query)
	ls := strings.ToLower(s)
	var b strings.Builder
	for {
		idx := strings.Index(ls, qs)
		if idx < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:idx])
		b.WriteString(highlightStyle.Render(s[idx : idx+len(query)]))
		s = s[idx+len(query):]
		ls = ls[idx+len(query):]
	}
	return b.String()
}

// waitForLine creates a command that waits for a display line
func waitForLine(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return LineMsg(line)
	}
}

// waitForClear creates a command that waits for a clear signal
func waitForClear(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		_, ok := <-ch
		if !ok {
			return nil
		}
		return ClearMsg{}
	}
}
