package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	promptMain = ">> "
	promptMore = ".. "
)

// Evaluator connects the REPL to a runtime.
type Evaluator struct {
	// Eval runs one complete chunk and returns what it printed.
	Eval func(code string) (string, error)
	// Incomplete reports whether err only means the chunk needs more lines.
	Incomplete func(code string, err error) bool
	// FormatError renders an evaluation error.
	FormatError func(err error) string
}

type replModel struct {
	eval    Evaluator
	input   textinput.Model
	view    viewport.Model
	lines   []string
	pending []string
	history []string
	histPos int
	width   int
	ready   bool
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bannerStyle = lipgloss.NewStyle().Bold(true)
)

// NewREPLModel returns an interactive read-eval-print loop. The transcript
// scrolls in a viewport above the input line.
func NewREPLModel(banner string, ev Evaluator) tea.Model {
	in := textinput.New()
	in.Prompt = promptStyle.Render(promptMain)
	in.Focus()
	m := &replModel{eval: ev, input: in, view: viewport.New(80, 20), width: 80}
	if banner != "" {
		m.lines = append(m.lines, bannerStyle.Render(banner))
	}
	return m
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-2, 1)
		m.input.Width = max(msg.Width-runewidth.StringWidth(promptMain)-1, 1)
		m.ready = true
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlC:
			if len(m.pending) == 0 && m.input.Value() == "" {
				return m, tea.Quit
			}
			m.pending = nil
			m.input.SetValue("")
			m.setPrompt()
			return m, nil
		case tea.KeyEnter:
			if quit := m.submit(m.input.Value()); quit {
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyUp:
			m.recall(-1)
			return m, nil
		case tea.KeyDown:
			m.recall(1)
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) View() string {
	if !m.ready {
		return strings.Join(m.lines, "\n") + "\n" + m.input.View()
	}
	return m.view.View() + "\n" + m.input.View()
}

// submit handles one input line and reports whether the REPL should quit.
func (m *replModel) submit(line string) bool {
	m.input.SetValue("")
	prompt := promptMain
	if len(m.pending) > 0 {
		prompt = promptMore
	}
	m.lines = append(m.lines, promptStyle.Render(prompt)+line)

	if len(m.pending) == 0 {
		switch strings.TrimSpace(line) {
		case "":
			m.refresh()
			return false
		case ":quit", ":exit":
			return true
		case ":clear":
			m.lines = nil
			m.refresh()
			return false
		}
	}
	m.pending = append(m.pending, line)
	code := strings.Join(m.pending, "\n")
	out, err := m.eval.Eval(code)
	if err != nil && m.eval.Incomplete != nil && m.eval.Incomplete(code, err) {
		m.setPrompt()
		m.refresh()
		return false
	}
	m.pending = nil
	m.history = append(m.history, code)
	m.histPos = len(m.history)
	if out = strings.TrimRight(out, "\n"); out != "" {
		m.lines = append(m.lines, out)
	}
	if err != nil {
		text := err.Error()
		if m.eval.FormatError != nil {
			text = strings.TrimRight(m.eval.FormatError(err), "\n")
		}
		m.lines = append(m.lines, errorStyle.Render(text))
	}
	m.setPrompt()
	m.refresh()
	return false
}

func (m *replModel) recall(step int) {
	if len(m.history) == 0 || len(m.pending) > 0 {
		return
	}
	m.histPos = min(max(m.histPos+step, 0), len(m.history))
	if m.histPos == len(m.history) {
		m.input.SetValue("")
		return
	}
	// Multi-line entries are recalled on one line; statements need no separators.
	m.input.SetValue(strings.ReplaceAll(m.history[m.histPos], "\n", " "))
	m.input.CursorEnd()
}

func (m *replModel) setPrompt() {
	if len(m.pending) > 0 {
		m.input.Prompt = promptStyle.Render(promptMore)
	} else {
		m.input.Prompt = promptStyle.Render(promptMain)
	}
}

func (m *replModel) refresh() {
	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}
