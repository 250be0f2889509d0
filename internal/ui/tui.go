// Package ui provides the interactive line tokenizer.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

const maxHistory = 10

// RunTokenizer starts the interactive tokenizer on the terminal and returns
// the lines committed with Enter.
func RunTokenizer(ctx context.Context, in io.Reader, out io.Writer) ([]string, error) {
	if f, ok := out.(*os.File); !ok || !IsTTY(f) {
		return nil, fmt.Errorf("interactive mode requires a TTY")
	}
	program := tea.NewProgram(NewModel(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(*Model); ok {
		return m.Committed(), nil
	}
	return nil, nil
}

// IsTTY reports whether f is a character device.
func IsTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Model re-tokenizes the input buffer on every edit.
type Model struct {
	input     []rune
	tokens    []todotxt.Token
	entry     todotxt.Entry
	tags      []todotxt.Tag
	committed []string
	quitting  bool
}

func NewModel() *Model {
	m := &Model{}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		if line := string(m.input); strings.TrimSpace(line) != "" {
			m.committed = append(m.committed, line)
		}
		m.input = m.input[:0]
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyCtrlU:
		m.input = m.input[:0]
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyTab:
		m.input = append(m.input, '\t')
	case tea.KeyRunes:
		m.input = append(m.input, key.Runes...)
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m *Model) refresh() {
	line := string(m.input)
	m.tokens = todotxt.Tokenize(line)
	m.entry = todotxt.MustParse(line)
	m.tags = m.entry.Tags()
}

// Input returns the current line buffer.
func (m *Model) Input() string {
	return string(m.input)
}

func (m *Model) Tokens() []todotxt.Token {
	return m.tokens
}

func (m *Model) Entry() todotxt.Entry {
	return m.entry
}

func (m *Model) Committed() []string {
	return m.committed
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString("todo.txt tokenizer (enter: commit, ctrl+u: clear, esc: quit)\n\n")
	fmt.Fprintf(&b, "> %s_\n\n", string(m.input))

	b.WriteString("Tokens:\n")
	for _, tok := range m.tokens {
		fmt.Fprintf(&b, "  %s\n", tokenLabel(tok))
	}

	b.WriteString("\nEntry:\n")
	fmt.Fprintf(&b, "  done:        %t\n", m.entry.Done)
	fmt.Fprintf(&b, "  priority:    %s\n", orNone(m.entry.Priority))
	fmt.Fprintf(&b, "  completed:   %s\n", orNone(m.entry.CompletionDate))
	fmt.Fprintf(&b, "  created:     %s\n", orNone(m.entry.CreationDate))
	fmt.Fprintf(&b, "  description: %q\n", m.entry.Description)

	b.WriteString("\nTags:\n")
	if len(m.tags) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, tag := range m.tags {
		fmt.Fprintf(&b, "  %-9s %s\n", tag.Kind, tag.String())
	}

	fmt.Fprintf(&b, "\nCanonical: %q\n", todotxt.Format(m.entry))

	if len(m.committed) > 0 {
		b.WriteString("\nCommitted:\n")
		start := 0
		if len(m.committed) > maxHistory {
			start = len(m.committed) - maxHistory
		}
		for _, line := range m.committed[start:] {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return b.String()
}

func tokenLabel(tok todotxt.Token) string {
	switch tok.Kind {
	case todotxt.TokenDone:
		return "done"
	case todotxt.TokenPriority:
		return fmt.Sprintf("priority    %s", tok.Value)
	case todotxt.TokenDate:
		return fmt.Sprintf("date        %s", tok.Value)
	default:
		return fmt.Sprintf("description %q", tok.Value)
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
