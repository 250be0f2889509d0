package todotxt

import (
	"reflect"
	"testing"
)

func TestExtractTags(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want []Tag
	}{
		{name: "empty", desc: "", want: nil},
		{name: "no tags", desc: "Get some milk", want: nil},
		{
			name: "mixed",
			desc: "Do Homework due:2019-02-01 @at_home +school",
			want: []Tag{KeyValue("due", "2019-02-01"), Context("at_home"), Project("school")},
		},
		{name: "project wins over colon", desc: "+proj:val", want: []Tag{Project("proj:val")}},
		{name: "context wins over colon", desc: "@ctx:val", want: []Tag{Context("ctx:val")}},
		{name: "first colon splits", desc: "url:http://example.com", want: []Tag{KeyValue("url", "http://example.com")}},
		{name: "bare plus", desc: "+", want: []Tag{Project("")}},
		{name: "bare at", desc: "@", want: []Tag{Context("")}},
		{name: "empty value", desc: "key:", want: []Tag{KeyValue("key", "")}},
		{name: "only colon", desc: ":", want: []Tag{KeyValue("", "")}},
		{name: "empty key", desc: ":value", want: []Tag{KeyValue("", "value")}},
		{name: "prefix inside word", desc: "a+b c@d", want: nil},
		{name: "whitespace runs", desc: "  +a\t\t@b \n k:v  ", want: []Tag{Project("a"), Context("b"), KeyValue("k", "v")}},
		{name: "double prefix", desc: "++a @@b", want: []Tag{Project("+a"), Context("@b")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTags(tt.desc)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestExtractTagsIsRepeatable(t *testing.T) {
	desc := "Call +family @phone due:today"
	first := ExtractTags(desc)
	second := ExtractTags(desc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %v and %v", first, second)
	}
	if desc != "Call +family @phone due:today" {
		t.Fatalf("description was modified: %q", desc)
	}
}

func TestExtractTagsOnParsedEmptyDescription(t *testing.T) {
	e := MustParse("x (A) 2019-05-01 ")
	if e.Description != "" {
		t.Fatalf("expected empty description, got %q", e.Description)
	}
	if tags := ExtractTags(e.Description); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{Project("school"), "+school"},
		{Context("home"), "@home"},
		{KeyValue("due", "2019-02-01"), "due:2019-02-01"},
		{KeyValue("", ""), ":"},
		{Project("a:b"), "+a:b"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
		if back := ExtractTags(tt.tag.String()); len(back) != 1 || back[0] != tt.tag {
			t.Errorf("re-extracting %q: got %v", tt.want, back)
		}
	}
}
