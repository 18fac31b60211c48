package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// maxPromptWidth is the maximum width for the question box.
const maxPromptWidth = 90

// promptModel collects one free-text answer to an interview question.
type promptModel struct {
	stageTitle string
	stage      int
	prompt     string
	input      textarea.Model
	width      int
	cancelled  bool
	done       bool
}

func newPromptModel(stageTitle string, stage int, prompt string) promptModel {
	ta := textarea.New()
	ta.Placeholder = "Type your answer..."
	ta.CharLimit = 10000
	ta.SetHeight(6)
	ta.SetWidth(maxPromptWidth - 6)
	ta.Focus()

	return promptModel{
		stageTitle: stageTitle,
		stage:      stage,
		prompt:     prompt,
		input:      ta,
		width:      maxPromptWidth,
	}
}

// Init implements tea.Model.
func (m promptModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width > maxPromptWidth {
			m.width = maxPromptWidth
		}
		m.input.SetWidth(m.width - 6)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "ctrl+d":
			if strings.TrimSpace(m.input.Value()) != "" {
				m.done = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Stage %d/5", m.stage)))
	b.WriteString(" ")
	b.WriteString(stageStyle.Render(m.stageTitle))
	b.WriteString("\n")
	b.WriteString(questionStyle.Width(m.width - 6).Render(renderPrompt(m.prompt)))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString(helpStyle.Render("\nctrl+d to submit • esc to abort"))

	return boxStyle.Width(m.width - 2).Render(b.String())
}

// renderPrompt highlights rejection feedback lines within the prompt text.
func renderPrompt(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "-") {
			lines[i] = issueStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
