package todotxt

import "strings"

type TagKind string

const (
	KindProject  TagKind = "project"
	KindContext  TagKind = "context"
	KindKeyValue TagKind = "key_value"
)

// Tag is a piece of metadata embedded in a description. For key:value tags
// Name holds the key.
type Tag struct {
	Kind  TagKind `json:"kind" yaml:"kind"`
	Name  string  `json:"name" yaml:"name"`
	Value string  `json:"value,omitempty" yaml:"value,omitempty"`
}

func Project(name string) Tag {
	return Tag{Kind: KindProject, Name: name}
}

func Context(name string) Tag {
	return Tag{Kind: KindContext, Name: name}
}

func KeyValue(key, value string) Tag {
	return Tag{Kind: KindKeyValue, Name: key, Value: value}
}

// String renders the tag as the word it was read from.
func (t Tag) String() string {
	switch t.Kind {
	case KindProject:
		return "+" + t.Name
	case KindContext:
		return "@" + t.Name
	case KindKeyValue:
		return t.Name + ":" + t.Value
	default:
		return t.Name
	}
}

// ExtractTags classifies the whitespace-separated words of description and
// returns the recognized tags in order. Words that are not tags are skipped.
func ExtractTags(description string) []Tag {
	var tags []Tag
	for _, word := range strings.FieldsFunc(description, isSpace) {
		if tag, ok := classifyWord(word); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// classifyWord checks prefixes before colons: +a:b is a project.
func classifyWord(word string) (Tag, bool) {
	if strings.HasPrefix(word, "+") {
		return Project(word[1:]), true
	} else if strings.HasPrefix(word, "@") {
		return Context(word[1:]), true
	} else if key, value, ok := strings.Cut(word, ":"); ok {
		return KeyValue(key, value), true
	}
	return Tag{}, false
}

// isSpace matches the ASCII whitespace set of the line grammar's \s.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
