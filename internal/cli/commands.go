package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/amirbrooks/todotxt/internal/config"
	"github.com/amirbrooks/todotxt/internal/store"
	"github.com/amirbrooks/todotxt/internal/todotxt"
	"github.com/amirbrooks/todotxt/internal/ui"
)

func (e *env) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

// flagGiven reports whether the named flag was given on the command line.
func flagGiven(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func (e *env) readRecords(files []string) ([]store.Record, error) {
	rd := store.NewReader(e.cfg.IDPrefix)
	var records []store.Record
	var err error
	if len(files) == 0 || (len(files) == 1 && files[0] == "-") {
		records, err = rd.Read(e.stdin, "stdin")
	} else {
		records, err = rd.ReadFiles(files)
	}
	if err != nil {
		return nil, err
	}
	e.log.Debug("read records", "sources", len(files), "records", len(records))
	return records, nil
}

func cmdParse(e *env, args []string) int {
	fs := e.flagSet("parse")
	if err := fs.Parse(reorderFlags(args, nil)); err != nil {
		return ExitUsage
	}
	records, err := e.readRecords(fs.Args())
	if err != nil {
		return e.fail("parse", err)
	}
	if err := e.writeRecords(records); err != nil {
		return e.fail("parse", err)
	}
	return ExitOK
}

func cmdFormat(e *env, args []string) int {
	args = reorderFlags(args, map[string]bool{"--from": true})
	fs := e.flagSet("format")
	from := fs.String("from", "", "Input format (json|ndjson|yaml); default by file extension, else json")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) > 1 {
		fmt.Fprintln(e.stderr, "Usage: todotxt format [--from json|ndjson|yaml] [file]")
		return ExitUsage
	}

	var src io.Reader = e.stdin
	path := ""
	if len(rest) == 1 && rest[0] != "-" {
		path = rest[0]
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("%w: %s", store.ErrNotFound, path)
			}
			return e.fail("format", err)
		}
		defer f.Close()
		src = f
	}
	format := strings.TrimSpace(*from)
	if format == "" {
		format = formatFromExtension(path)
	}

	entries, err := store.DecodeEntries(src, format)
	if err != nil {
		return e.fail("format", err)
	}
	for i, entry := range entries {
		if strings.ContainsAny(entry.Description, "\r\n") {
			return e.fail("format", fmt.Errorf("%w: entries[%d]: description spans multiple lines", store.ErrInvalid, i))
		}
		if line := todotxt.Format(entry); todotxt.MustParse(line) != entry {
			return e.fail("format", fmt.Errorf("%w: entries[%d]: %q reads back as a different entry", store.ErrInvalid, i, line))
		}
	}
	for _, entry := range entries {
		fmt.Fprintln(e.stdout, todotxt.Format(entry))
	}
	e.log.Debug("formatted entries", "count", len(entries), "from", format)
	return ExitOK
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return store.FormatNDJSON
	case ".yaml", ".yml":
		return store.FormatYAML
	default:
		return store.FormatJSON
	}
}

func cmdTags(e *env, args []string) int {
	args = reorderFlags(args, map[string]bool{"--text": true})
	fs := e.flagSet("tags")
	text := fs.String("text", "", "Extract tags from this description instead of reading lines")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	if flagGiven(fs, "text") {
		tags := todotxt.ExtractTags(*text)
		if err := e.writeTagList(tags); err != nil {
			return e.fail("tags", err)
		}
		return ExitOK
	}

	records, err := e.readRecords(fs.Args())
	if err != nil {
		return e.fail("tags", err)
	}
	if err := e.writeTagRows(records); err != nil {
		return e.fail("tags", err)
	}
	return ExitOK
}

func (e *env) writeTagList(tags []todotxt.Tag) error {
	if e.structured() {
		items := make([]any, 0, len(tags))
		for _, t := range tags {
			items = append(items, t)
		}
		return e.writeItems("tags", items)
	}
	if e.format == config.FormatPlain {
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tNAME\tVALUE")
		for _, t := range tags {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Kind, t.Name, t.Value)
		}
		return w.Flush()
	}
	for _, t := range tags {
		fmt.Fprintf(e.stdout, "%-9s %s\n", t.Kind, t.String())
	}
	return nil
}

func (e *env) writeTagRows(records []store.Record) error {
	if e.structured() {
		items := make([]any, 0, len(records))
		for _, r := range records {
			tags := r.Tags
			if tags == nil {
				tags = []todotxt.Tag{}
			}
			items = append(items, tagRow{Source: r.Source, Line: r.Line, Tags: tags})
		}
		return e.writeItems("lines", items)
	}
	if e.format == config.FormatPlain {
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tLINE\tKIND\tNAME\tVALUE")
		for _, r := range records {
			for _, t := range r.Tags {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", r.Source, r.Line, t.Kind, t.Name, t.Value)
			}
		}
		return w.Flush()
	}
	for _, r := range records {
		if len(r.Tags) == 0 {
			continue
		}
		fmt.Fprintf(e.stdout, "%s:%d  %s\n", r.Source, r.Line, renderTags(r.Tags))
	}
	return nil
}

func cmdTokens(e *env, args []string) int {
	args = reorderFlags(args, map[string]bool{"--line": true})
	fs := e.flagSet("tokens")
	line := fs.String("line", "", "Tokenize this line instead of reading input")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	var rows []tokenRow
	if flagGiven(fs, "line") {
		rows = append(rows, tokenRow{Source: "arg", Line: 1, Tokens: todotxt.Tokenize(*line)})
	} else {
		records, err := e.readRecords(fs.Args())
		if err != nil {
			return e.fail("tokens", err)
		}
		for _, r := range records {
			rows = append(rows, tokenRow{Source: r.Source, Line: r.Line, Tokens: todotxt.Tokenize(r.Raw)})
		}
	}

	if e.structured() {
		items := make([]any, 0, len(rows))
		for _, row := range rows {
			items = append(items, row)
		}
		if err := e.writeItems("lines", items); err != nil {
			return e.fail("tokens", err)
		}
		return ExitOK
	}
	if e.format == config.FormatPlain {
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tLINE\tKIND\tVALUE")
		for _, row := range rows {
			for _, tok := range row.Tokens {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", row.Source, row.Line, tok.Kind, tok.Value)
			}
		}
		if err := w.Flush(); err != nil {
			return e.fail("tokens", err)
		}
		return ExitOK
	}
	for _, row := range rows {
		fmt.Fprintf(e.stdout, "%s:%d  %s\n", row.Source, row.Line, renderTokens(row.Tokens))
	}
	return ExitOK
}

func cmdList(e *env, args []string) int {
	args = reorderFlags(args, map[string]bool{
		"--project":  true,
		"--context":  true,
		"--key":      true,
		"--priority": true,
		"--search":   true,
		"--open":     false,
		"--done":     false,
		"--sort":     false,
	})
	fs := e.flagSet("ls")
	project := fs.String("project", "", "Filter by +project")
	contextTag := fs.String("context", "", "Filter by @context")
	key := fs.String("key", "", "Filter by key of a key:value tag")
	priority := fs.String("priority", "", "Filter by priority (A-Z)")
	search := fs.String("search", "", "Search query (description)")
	open := fs.Bool("open", false, "Only entries not marked done")
	done := fs.Bool("done", false, "Only entries marked done")
	sortFlag := fs.Bool("sort", false, "Sort open first, then by priority")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *open && *done {
		fmt.Fprintln(e.stderr, "Usage: choose only one of --open/--done")
		return ExitUsage
	}
	status := ""
	if *open {
		status = store.StatusOpen
	}
	if *done {
		status = store.StatusDone
	}
	filter, err := store.NormalizeListFilter(store.ListFilter{
		Project:  *project,
		Context:  *contextTag,
		Key:      *key,
		Priority: *priority,
		Status:   status,
		Search:   *search,
	})
	if err != nil {
		return e.fail("ls", err)
	}

	records, err := e.readRecords(fs.Args())
	if err != nil {
		return e.fail("ls", err)
	}
	matches := store.Filter(records, filter)
	if *sortFlag {
		matches = store.SortRecords(matches)
	}
	e.log.Debug("filtered records", "matched", len(matches), "total", len(records))
	if len(matches) == 0 && !e.structured() && e.format != config.FormatPlain {
		if !e.gf.Quiet {
			fmt.Fprintln(e.stdout, "No matching entries.")
		}
		return ExitOK
	}
	if err := e.writeRecords(matches); err != nil {
		return e.fail("ls", err)
	}
	return ExitOK
}

func cmdCheck(e *env, args []string) int {
	fs := e.flagSet("check")
	if err := fs.Parse(reorderFlags(args, nil)); err != nil {
		return ExitUsage
	}
	records, err := e.readRecords(fs.Args())
	if err != nil {
		return e.fail("check", err)
	}

	var rows []checkRow
	for _, r := range records {
		if r.Canonical() {
			continue
		}
		canonical := todotxt.Format(r.Entry)
		e.log.Warn("non-canonical line", "source", r.Source, "line", r.Line)
		rows = append(rows, checkRow{Source: r.Source, Line: r.Line, Raw: r.Raw, Canonical: canonical})
	}

	switch {
	case e.structured():
		items := make([]any, 0, len(rows))
		for _, row := range rows {
			items = append(items, row)
		}
		if err := e.writeItems("noncanonical", items); err != nil {
			return e.fail("check", err)
		}
	case e.format == config.FormatPlain:
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tLINE\tRAW\tCANONICAL")
		for _, row := range rows {
			fmt.Fprintf(w, "%s\t%d\t%q\t%q\n", row.Source, row.Line, row.Raw, row.Canonical)
		}
		if err := w.Flush(); err != nil {
			return e.fail("check", err)
		}
	default:
		for _, row := range rows {
			fmt.Fprintf(e.stdout, "%s:%d\n  got:  %q\n  want: %q\n", row.Source, row.Line, row.Raw, row.Canonical)
		}
		if len(rows) == 0 && !e.gf.Quiet {
			fmt.Fprintf(e.stdout, "OK: %d lines canonical\n", len(records))
		}
	}
	if len(rows) > 0 {
		return ExitConflict
	}
	return ExitOK
}

func cmdExport(e *env, args []string) int {
	args = reorderFlags(args, map[string]bool{"--format": true, "--name": true})
	fs := e.flagSet("export")
	defaultFormat := store.FormatJSON
	if e.structured() {
		defaultFormat = e.format
	}
	format := fs.String("format", defaultFormat, "Export format (json|ndjson|yaml)")
	name := fs.String("name", "todo", "Export file base name")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	records, err := e.readRecords(fs.Args())
	if err != nil {
		return e.fail("export", err)
	}
	path, err := store.ExportFile(e.gf.ExportDir, strings.TrimSpace(*name), *format, records)
	if err != nil {
		return e.fail("export", err)
	}
	e.log.Debug("exported records", "path", path, "records", len(records))
	if !e.gf.Quiet {
		fmt.Fprintf(e.stdout, "Wrote %s to: %s\n", strings.ToUpper(filepath.Ext(path)[1:]), path)
	}
	return ExitOK
}

func cmdInteractive(e *env, args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(e.stderr, "Usage: todotxt interactive")
		return ExitUsage
	}
	lines, err := ui.RunTokenizer(context.Background(), e.stdin, e.stdout)
	if err != nil {
		return e.fail("interactive", err)
	}
	for _, line := range lines {
		entry, err := todotxt.Parse(line)
		if err != nil {
			return e.fail("interactive", err)
		}
		fmt.Fprintln(e.stdout, todotxt.Format(entry))
	}
	return ExitOK
}

func cmdConfig(e *env, args []string) int {
	if len(args) == 0 || args[0] != "show" {
		fmt.Fprintln(e.stderr, "Usage: todotxt config show")
		return ExitUsage
	}
	_, err := os.Stat(e.cfgPath)
	exists := err == nil

	if e.structured() {
		payload := map[string]any{
			"config_path": e.cfgPath,
			"exists":      exists,
			"config":      e.cfg,
		}
		if err := e.writeValue(payload); err != nil {
			return e.fail("config show", err)
		}
		return ExitOK
	}

	if e.format == config.FormatPlain {
		w := tabwriter.NewWriter(e.stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE")
		fmt.Fprintf(w, "config_path\t%s\n", e.cfgPath)
		fmt.Fprintf(w, "exists\t%t\n", exists)
		fmt.Fprintf(w, "format\t%s\n", e.cfg.Format)
		fmt.Fprintf(w, "export_dir\t%s\n", e.cfg.ExportDir)
		fmt.Fprintf(w, "log_level\t%s\n", e.cfg.LogLevel)
		fmt.Fprintf(w, "id_prefix\t%s\n", e.cfg.IDPrefix)
		if err := w.Flush(); err != nil {
			return e.fail("config show", err)
		}
		return ExitOK
	}

	fmt.Fprintln(e.stdout, "Config")
	if exists {
		fmt.Fprintln(e.stdout, "  Config file:", e.cfgPath)
	} else {
		fmt.Fprintln(e.stdout, "  Config file:", e.cfgPath, "(not found; defaults shown)")
	}
	fmt.Fprintln(e.stdout, "  Format:", e.cfg.Format)
	fmt.Fprintln(e.stdout, "  Export dir:", e.cfg.ExportDir)
	fmt.Fprintln(e.stdout, "  Log level:", e.cfg.LogLevel)
	fmt.Fprintln(e.stdout, "  ID prefix:", e.cfg.IDPrefix)
	return ExitOK
}
