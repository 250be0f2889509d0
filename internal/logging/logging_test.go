package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":  log.DebugLevel,
		" WARN ": log.WarnLevel,
		"error":  log.ErrorLevel,
		"":       log.InfoLevel,
		"loud":   log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("non-canonical line", "line", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "non-canonical line") || !strings.Contains(out, "line=3") {
		t.Fatalf("expected warn message with fields, got %q", out)
	}
	if !strings.Contains(out, Prefix) {
		t.Fatalf("expected prefix %q, got %q", Prefix, out)
	}
}
