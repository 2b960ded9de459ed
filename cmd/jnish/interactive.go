package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/simvm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxScrollback = 200

type interactiveModel struct {
	sess  *session
	input textinput.Model
	lines []string
	err   error
}

func newInteractiveModel(args *jniruntime.InitArgs, logger *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "jni> "
	ti.PromptStyle = promptStyle
	ti.Placeholder = "help"
	ti.Width = 72
	ti.Focus()

	m := &interactiveModel{input: ti}
	sess, err := startSession(args, simvm.WithLogger(logger))
	if err != nil {
		m.err = err
		return m
	}
	m.sess = sess
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.sess != nil {
				m.sess.close()
				m.sess = nil
			}
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.append(promptStyle.Render("jni> ") + line)
			out, err := m.sess.eval(line)
			if err != nil {
				m.append(errorStyle.Render("error: " + err.Error()))
			} else if out != "" {
				for _, l := range strings.Split(out, "\n") {
					m.append(resultStyle.Render(l))
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) append(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n\nPress esc to quit.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("JNI Shell"))
	b.WriteString(" ")
	if m.sess != nil && m.sess.exc != nil {
		b.WriteString(pendingStyle.Render("exception pending"))
	}
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • esc quit • 'help' for commands"))
	return b.String()
}

func runInteractive(args *jniruntime.InitArgs, logger *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(args, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
