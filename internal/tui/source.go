package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// IsTTY returns true if stdout is connected to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// StageTitler maps a stage number to its display title.
type StageTitler func(stage int) string

// Source collects answers interactively: a Bubble Tea prompt on a TTY, a
// plain stdin reader otherwise. It implements stage.AnswerSource.
type Source struct {
	titler StageTitler
	reader *bufio.Reader
	tty    bool
}

// NewSource creates an interactive answer source.
func NewSource(titler StageTitler) *Source {
	return &Source{
		titler: titler,
		reader: bufio.NewReader(os.Stdin),
		tty:    IsTTY(),
	}
}

// Answer implements stage.AnswerSource.
func (s *Source) Answer(ctx context.Context, stageNumber int, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.tty {
		return s.answerTUI(stageNumber, prompt)
	}
	return s.answerPlain(stageNumber, prompt)
}

func (s *Source) answerTUI(stageNumber int, prompt string) (string, error) {
	model := newPromptModel(s.titler(stageNumber), stageNumber, prompt)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || m.cancelled {
		return "", fmt.Errorf("interview aborted")
	}
	return m.input.Value(), nil
}

// answerPlain reads a multi-line answer terminated by a blank line.
func (s *Source) answerPlain(stageNumber int, prompt string) (string, error) {
	fmt.Printf("\n[Stage %d/5] %s\n", stageNumber, prompt)
	fmt.Println("(finish with an empty line)")

	var lines []string
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading answer: %w", err)
		}
		trimmed := strings.TrimRight(line, "\n")
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
		if trimmed == "" || err == io.EOF {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}
