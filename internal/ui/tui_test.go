package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

func typeText(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestModelRetokenizesOnEdit(t *testing.T) {
	m := NewModel()
	typeText(m, "x (A) 2019-05-01 Buy milk +groceries")

	want := todotxt.Entry{Done: true, Priority: "A", CreationDate: "2019-05-01", Description: "Buy milk +groceries"}
	if m.Entry() != want {
		t.Fatalf("expected %#v, got %#v", want, m.Entry())
	}
	tokens := m.Tokens()
	if len(tokens) != 4 || tokens[0].Kind != todotxt.TokenDone || tokens[3].Value != "Buy milk +groceries" {
		t.Fatalf("unexpected tokens %#v", tokens)
	}
	view := m.View()
	for _, want := range []string{"priority    A", "date        2019-05-01", "+groceries", `Canonical: "x (A) 2019-05-01 Buy milk +groceries"`} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q, got:\n%s", want, view)
		}
	}
}

func TestModelBackspaceAndClear(t *testing.T) {
	m := NewModel()
	typeText(m, "x ")
	if !m.Entry().Done {
		t.Fatalf("expected done after \"x \"")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Input() != "x" || m.Entry().Done {
		t.Fatalf("expected bare x to be a description, got input %q entry %#v", m.Input(), m.Entry())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	if m.Input() != "" {
		t.Fatalf("expected cleared input, got %q", m.Input())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if m.Input() != "" {
		t.Fatalf("backspace on empty input changed it to %q", m.Input())
	}
}

func TestModelCommitAndQuit(t *testing.T) {
	m := NewModel()
	typeText(m, "(B) call +work")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Committed(); len(got) != 1 || got[0] != "(B) call +work" {
		t.Fatalf("unexpected committed lines %q", got)
	}
	if m.Input() != "" {
		t.Fatalf("expected input reset after commit, got %q", m.Input())
	}
	if !strings.Contains(m.View(), "Committed:") {
		t.Fatalf("expected committed section in view")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if m.View() != "" {
		t.Fatal("expected empty view after quit")
	}
}

func TestRunTokenizerRequiresTTY(t *testing.T) {
	if _, err := RunTokenizer(context.Background(), strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error without a TTY")
	}
}
