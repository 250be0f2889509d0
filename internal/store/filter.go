package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amirbrooks/todotxt/internal/todotxt"
)

const (
	StatusOpen = "open"
	StatusDone = "done"
)

type ListFilter struct {
	Project  string
	Context  string
	Key      string
	Priority string
	Status   string // open|done|""
	Search   string
}

func NormalizeListFilter(f ListFilter) (ListFilter, error) {
	out := ListFilter{
		Project:  strings.TrimLeft(strings.TrimSpace(f.Project), "+"),
		Context:  strings.TrimLeft(strings.TrimSpace(f.Context), "@"),
		Key:      strings.TrimSpace(f.Key),
		Priority: strings.ToUpper(strings.Trim(strings.TrimSpace(f.Priority), "()")),
		Status:   strings.ToLower(strings.TrimSpace(f.Status)),
		Search:   strings.TrimSpace(f.Search),
	}
	switch out.Status {
	case "", StatusOpen, StatusDone:
	default:
		return out, fmt.Errorf("%w: status %q (want open|done)", ErrInvalid, f.Status)
	}
	if out.Priority != "" {
		if err := (todotxt.Entry{Priority: out.Priority}).Validate(); err != nil {
			return out, fmt.Errorf("%w: priority %q", ErrInvalid, f.Priority)
		}
	}
	return out, nil
}

// Filter returns the records matching every set field of f.
func Filter(records []Record, f ListFilter) []Record {
	var out []Record
	for _, r := range records {
		if matchesListFilter(r, f) {
			out = append(out, r)
		}
	}
	return out
}

func matchesListFilter(r Record, f ListFilter) bool {
	if f.Status == StatusOpen && r.Entry.Done {
		return false
	}
	if f.Status == StatusDone && !r.Entry.Done {
		return false
	}
	if f.Priority != "" && r.Entry.Priority != f.Priority {
		return false
	}
	if f.Project != "" && !hasTag(r.Tags, todotxt.KindProject, f.Project) {
		return false
	}
	if f.Context != "" && !hasTag(r.Tags, todotxt.KindContext, f.Context) {
		return false
	}
	if f.Key != "" && !hasTag(r.Tags, todotxt.KindKeyValue, f.Key) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Entry.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func hasTag(tags []todotxt.Tag, kind todotxt.TagKind, name string) bool {
	for _, t := range tags {
		if t.Kind == kind && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

// SortRecords orders open before done, then by priority (unset last), then
// by source position.
func SortRecords(records []Record) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Entry.Done != b.Entry.Done {
			return !a.Entry.Done
		}
		if pa, pb := priorityRank(a.Entry.Priority), priorityRank(b.Entry.Priority); pa != pb {
			return pa < pb
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Line < b.Line
	})
	return records
}

func priorityRank(p string) int {
	if p == "" {
		return 'Z' + 1
	}
	return int(p[0])
}
