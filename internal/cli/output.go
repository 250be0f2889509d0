package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/todotxt/internal/config"
	"github.com/amirbrooks/todotxt/internal/store"
	"github.com/amirbrooks/todotxt/internal/todotxt"
)

type tagRow struct {
	Source string        `json:"source" yaml:"source"`
	Line   int           `json:"line" yaml:"line"`
	Tags   []todotxt.Tag `json:"tags" yaml:"tags"`
}

type tokenRow struct {
	Source string          `json:"source" yaml:"source"`
	Line   int             `json:"line" yaml:"line"`
	Tokens []todotxt.Token `json:"tokens" yaml:"tokens"`
}

type checkRow struct {
	Source    string `json:"source" yaml:"source"`
	Line      int    `json:"line" yaml:"line"`
	Raw       string `json:"raw" yaml:"raw"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// writeValue writes a single document in the structured output format.
func (e *env) writeValue(v any) error {
	switch e.format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(e.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.FormatNDJSON:
		return json.NewEncoder(e.stdout).Encode(v)
	default:
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// writeItems writes items as {key: items}, or one line per item for NDJSON.
func (e *env) writeItems(key string, items []any) error {
	if items == nil {
		items = []any{}
	}
	if e.format == config.FormatNDJSON {
		enc := json.NewEncoder(e.stdout)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}
	return e.writeValue(map[string]any{key: items})
}

func (e *env) writeRecords(records []store.Record) error {
	if e.structured() {
		return store.Encode(e.stdout, e.format, records)
	}
	if e.format == config.FormatPlain {
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tLINE\tDONE\tPRI\tCOMPLETED\tCREATED\tDESCRIPTION")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%d\t%t\t%s\t%s\t%s\t%s\n",
				r.Source, r.Line, r.Entry.Done, dash(r.Entry.Priority),
				dash(r.Entry.CompletionDate), dash(r.Entry.CreationDate), r.Entry.Description)
		}
		return w.Flush()
	}
	for _, r := range records {
		fmt.Fprintln(e.stdout, renderRecord(r))
	}
	return nil
}

func renderRecord(r store.Record) string {
	return fmt.Sprintf("%s:%d  %s", r.Source, r.Line, todotxt.Format(r.Entry))
}

func renderTags(tags []todotxt.Tag) string {
	words := make([]string, 0, len(tags))
	for _, t := range tags {
		words = append(words, t.String())
	}
	return strings.Join(words, " ")
}

func renderTokens(tokens []todotxt.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Kind {
		case todotxt.TokenDone:
			parts = append(parts, string(tok.Kind))
		case todotxt.TokenDescription:
			parts = append(parts, fmt.Sprintf("%s %q", tok.Kind, tok.Value))
		default:
			parts = append(parts, fmt.Sprintf("%s %s", tok.Kind, tok.Value))
		}
	}
	return strings.Join(parts, " | ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
