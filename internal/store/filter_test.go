package store

import (
	"errors"
	"strings"
	"testing"
)

func mustRead(t *testing.T, text string) []Record {
	t.Helper()
	records, err := Read(strings.NewReader(text), "todo.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return records
}

func rawLines(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Raw)
	}
	return out
}

func TestFilter(t *testing.T) {
	records := mustRead(t, sampleList)
	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{name: "all", filter: ListFilter{}, want: 4},
		{name: "project", filter: ListFilter{Project: "+Home"}, want: 1},
		{name: "context", filter: ListFilter{Context: "@home"}, want: 1},
		{name: "key", filter: ListFilter{Key: "due"}, want: 1},
		{name: "priority", filter: ListFilter{Priority: "(b)"}, want: 1},
		{name: "open", filter: ListFilter{Status: "open"}, want: 3},
		{name: "done", filter: ListFilter{Status: "DONE"}, want: 1},
		{name: "search", filter: ListFilter{Search: "WATER"}, want: 1},
		{name: "combined", filter: ListFilter{Status: "open", Project: "family", Context: "phone"}, want: 1},
		{name: "no match", filter: ListFilter{Project: "family", Status: "done"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NormalizeListFilter(tt.filter)
			if err != nil {
				t.Fatalf("NormalizeListFilter failed: %v", err)
			}
			got := Filter(records, f)
			if len(got) != tt.want {
				t.Fatalf("expected %d records, got %d: %v", tt.want, len(got), rawLines(got))
			}
		})
	}
}

func TestNormalizeListFilterRejectsBadValues(t *testing.T) {
	if _, err := NormalizeListFilter(ListFilter{Status: "later"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for status, got %v", err)
	}
	if _, err := NormalizeListFilter(ListFilter{Priority: "AB"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for priority, got %v", err)
	}
}

func TestSortRecords(t *testing.T) {
	records := mustRead(t, "plain\nx (A) finished\n(B) second\n(A) first\n")
	got := rawLines(SortRecords(records))
	want := []string{"(A) first", "(B) second", "plain", "x (A) finished"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %q, got %q", want, got)
		}
	}
}
