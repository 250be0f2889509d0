// Package todotxt parses and formats todo.txt task lines and extracts the
// tags embedded in their descriptions.
package todotxt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrMalformed = errors.New("malformed entry")
	ErrInvalid   = errors.New("invalid entry")
)

// entryPattern is the whole-line grammar. The description group is a
// catch-all, so every string matches.
var entryPattern = regexp.MustCompile(`(?s)^\s*` +
	`(?:(?P<done>x)\s+)?` +
	`(?:\((?P<priority>[A-Z])\)\s+)?` +
	`(?:(?P<first>\d{4}-\d{2}-\d{2})\s+)?` +
	`(?:(?P<second>\d{4}-\d{2}-\d{2})\s+)?` +
	`(?P<description>.*)$`)

var (
	priorityPattern = regexp.MustCompile(`^[A-Z]$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Entry is one todo.txt task line.
type Entry struct {
	Done           bool   `json:"done" yaml:"done"`
	Priority       string `json:"priority,omitempty" yaml:"priority,omitempty"`
	CompletionDate string `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`
	CreationDate   string `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	Description    string `json:"description" yaml:"description"`
}

// ParseError is returned when the line grammar fails to match. The grammar
// accepts any string, so seeing one means the matcher itself misbehaved.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMalformed, e.Line)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

type entryMatch struct {
	done        bool
	priority    string
	first       string
	second      string
	description string
}

func matchEntry(line string) (entryMatch, bool) {
	idx := entryPattern.FindStringSubmatchIndex(line)
	if idx == nil {
		return entryMatch{}, false
	}
	group := func(name string) (string, bool) {
		i := entryPattern.SubexpIndex(name)
		if i < 0 || idx[2*i] < 0 {
			return "", false
		}
		return line[idx[2*i]:idx[2*i+1]], true
	}
	var m entryMatch
	_, m.done = group("done")
	m.priority, _ = group("priority")
	m.first, _ = group("first")
	m.second, _ = group("second")
	m.description, _ = group("description")
	return m, true
}

// splitDates maps the matched date slots onto completion and creation dates.
// A lone date is always the creation date.
func splitDates(first, second string) (completion, creation string) {
	if first == "" {
		return "", ""
	}
	if second == "" {
		return "", first
	}
	return first, second
}

// Parse reads a single todo.txt line.
func Parse(line string) (Entry, error) {
	m, ok := matchEntry(line)
	if !ok {
		return Entry{}, &ParseError{Line: line}
	}
	completion, creation := splitDates(m.first, m.second)
	return Entry{
		Done:           m.done,
		Priority:       m.priority,
		CompletionDate: completion,
		CreationDate:   creation,
		Description:    m.description,
	}, nil
}

// MustParse is like Parse but panics if the grammar fails to match.
func MustParse(line string) Entry {
	e, err := Parse(line)
	if err != nil {
		panic(err)
	}
	return e
}

// Format renders e as a canonical todo.txt line. Absent fields leave no
// separator behind.
func Format(e Entry) string {
	var b strings.Builder
	if e.Done {
		b.WriteString("x ")
	}
	if e.Priority != "" {
		b.WriteString("(")
		b.WriteString(e.Priority)
		b.WriteString(") ")
	}
	if e.CompletionDate != "" {
		b.WriteString(e.CompletionDate)
		b.WriteByte(' ')
	}
	if e.CreationDate != "" {
		b.WriteString(e.CreationDate)
		b.WriteByte(' ')
	}
	b.WriteString(e.Description)
	return b.String()
}

func (e Entry) String() string {
	return Format(e)
}

// Validate checks the shape of each field. It does not check that the
// formatted line parses back to e: a description that begins with a prefix
// field passes Validate but reads back differently.
func (e Entry) Validate() error {
	if e.Priority != "" && !priorityPattern.MatchString(e.Priority) {
		return fmt.Errorf("%w: priority %q is not a single letter A-Z", ErrInvalid, e.Priority)
	}
	if e.CompletionDate != "" && !datePattern.MatchString(e.CompletionDate) {
		return fmt.Errorf("%w: completion date %q is not YYYY-MM-DD", ErrInvalid, e.CompletionDate)
	}
	if e.CreationDate != "" && !datePattern.MatchString(e.CreationDate) {
		return fmt.Errorf("%w: creation date %q is not YYYY-MM-DD", ErrInvalid, e.CreationDate)
	}
	if e.CompletionDate != "" && e.CreationDate == "" {
		return fmt.Errorf("%w: completion date without creation date", ErrInvalid)
	}
	return nil
}

// Tags extracts the tags in the entry's description.
func (e Entry) Tags() []Tag {
	return ExtractTags(e.Description)
}

// Projects returns the names of the entry's +project tags in order.
func (e Entry) Projects() []string {
	return tagNames(e.Tags(), KindProject)
}

// Contexts returns the names of the entry's @context tags in order.
func (e Entry) Contexts() []string {
	return tagNames(e.Tags(), KindContext)
}

// Value returns the value of the first key:value tag with the given key.
func (e Entry) Value(key string) (string, bool) {
	for _, t := range e.Tags() {
		if t.Kind == KindKeyValue && t.Name == key {
			return t.Value, true
		}
	}
	return "", false
}

func tagNames(tags []Tag, kind TagKind) []string {
	var out []string
	for _, t := range tags {
		if t.Kind == kind {
			out = append(out, t.Name)
		}
	}
	return out
}
