package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

func TestDecodeEntriesJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []todotxt.Entry
	}{
		{
			name:  "array",
			input: `[{"done": true, "priority": "A", "creation_date": "2019-05-01", "description": "Get some milk"}]`,
			want:  []todotxt.Entry{{Done: true, Priority: "A", CreationDate: "2019-05-01", Description: "Get some milk"}},
		},
		{
			name:  "entries object",
			input: `{"entries": [{"description": "one"}, {"description": "two +p"}]}`,
			want:  []todotxt.Entry{{Description: "one"}, {Description: "two +p"}},
		},
		{
			name:  "single entry",
			input: `{"description": "solo", "completion_date": "2019-07-02", "creation_date": "2019-06-03"}`,
			want:  []todotxt.Entry{{CompletionDate: "2019-07-02", CreationDate: "2019-06-03", Description: "solo"}},
		},
		{name: "empty input", input: ``, want: []todotxt.Entry{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEntries(strings.NewReader(tt.input), "json")
			if err != nil {
				t.Fatalf("DecodeEntries failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d: expected %#v, got %#v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecodeEntriesFromExports(t *testing.T) {
	records := mustRead(t, sampleList)
	for _, format := range []string{FormatJSON, FormatNDJSON, FormatYAML} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, format, records); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			entries, err := DecodeEntries(&buf, format)
			if err != nil {
				t.Fatalf("DecodeEntries failed: %v\n%s", err, buf.String())
			}
			if len(entries) != len(records) {
				t.Fatalf("expected %d entries, got %d", len(records), len(entries))
			}
			for i, e := range entries {
				if e != records[i].Entry {
					t.Errorf("entry %d: expected %#v, got %#v", i, records[i].Entry, e)
				}
			}
		})
	}
}

func TestDecodeEntriesYAMLList(t *testing.T) {
	input := "- done: true\n  priority: B\n  creation_date: 2019-06-03\n  description: Pay rent +home\n- description: Water plants\n"
	entries, err := DecodeEntries(strings.NewReader(input), "yml")
	if err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}
	want := []todotxt.Entry{
		{Done: true, Priority: "B", CreationDate: "2019-06-03", Description: "Pay rent +home"},
		{Description: "Water plants"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %#v, got %#v", i, want[i], entries[i])
		}
	}
}

func TestDecodeEntriesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		path  string
	}{
		{name: "lowercase priority", input: `[{"description": "ok"}, {"priority": "a", "description": "bad"}]`, path: "entries[1]"},
		{name: "missing description", input: `[{"done": true}]`, path: "entries[0]"},
		{name: "completion without creation", input: `[{"completion_date": "2019-07-02", "description": "d"}]`, path: "entries[0]"},
		{name: "bad date", input: `[{"creation_date": "July 2nd", "description": "d"}]`, path: "entries[0]"},
		{name: "unknown field", input: `[{"description": "d", "due": "2019-01-01"}]`, path: "entries[0]"},
		{name: "wrong type", input: `[{"description": 42}]`, path: "entries[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEntries(strings.NewReader(tt.input), "json")
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestDecodeEntriesMalformedInput(t *testing.T) {
	if _, err := DecodeEntries(strings.NewReader(`{"description": `), "json"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for truncated json, got %v", err)
	}
	if _, err := DecodeEntries(strings.NewReader("{\"description\": \"a\"}\nnot json\n"), "ndjson"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for bad ndjson line, got %v", err)
	}
	if _, err := DecodeEntries(strings.NewReader(`"just a string"`), "json"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for scalar document, got %v", err)
	}
	if _, err := DecodeEntries(strings.NewReader(`[]`), "toml"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown format, got %v", err)
	}
}
