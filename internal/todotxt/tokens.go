package todotxt

import (
	"regexp"
	"strings"
)

type TokenKind string

const (
	TokenDone        TokenKind = "done"
	TokenPriority    TokenKind = "priority"
	TokenDate        TokenKind = "date"
	TokenDescription TokenKind = "description"
)

// Token is one classified piece of a line. Value is empty for done markers
// and holds the bare letter for priorities.
type Token struct {
	Kind  TokenKind `json:"kind" yaml:"kind"`
	Value string    `json:"value,omitempty" yaml:"value,omitempty"`
}

var priorityWordPattern = regexp.MustCompile(`^\(([A-Z])\)$`)

// prefix stages, in grammar order
const (
	stageDone = iota
	stagePriority
	stageFirstDate
	stageSecondDate
	stageDescription
)

// Tokenize walks line word by word. A word becomes a prefix token only when
// whitespace follows it and it appears where the line grammar allows it. The
// first word that does not classify starts the description, which keeps the
// rest of the line verbatim. The final token is always a description.
func Tokenize(line string) []Token {
	rest := strings.TrimLeftFunc(line, isSpace)
	var tokens []Token
	stage := stageDone
	for stage < stageDescription {
		end := strings.IndexFunc(rest, isSpace)
		if end < 0 {
			break
		}
		word := rest[:end]
		tok, next, ok := classifyPrefix(word, stage)
		if !ok {
			break
		}
		tokens = append(tokens, tok)
		stage = next
		rest = strings.TrimLeftFunc(rest[end:], isSpace)
	}
	return append(tokens, Token{Kind: TokenDescription, Value: rest})
}

func classifyPrefix(word string, stage int) (Token, int, bool) {
	if stage <= stageDone && word == "x" {
		return Token{Kind: TokenDone}, stagePriority, true
	}
	if stage <= stagePriority {
		if m := priorityWordPattern.FindStringSubmatch(word); m != nil {
			return Token{Kind: TokenPriority, Value: m[1]}, stageFirstDate, true
		}
	}
	if stage <= stageSecondDate && datePattern.MatchString(word) {
		next := stageSecondDate
		if stage == stageSecondDate {
			next = stageDescription
		}
		return Token{Kind: TokenDate, Value: word}, next, true
	}
	return Token{}, stage, false
}

// EntryFromTokens folds a token stream into an Entry using the same date
// rule as Parse.
func EntryFromTokens(tokens []Token) Entry {
	var e Entry
	var dates []string
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenDone:
			e.Done = true
		case TokenPriority:
			e.Priority = tok.Value
		case TokenDate:
			dates = append(dates, tok.Value)
		case TokenDescription:
			e.Description = tok.Value
		}
	}
	var first, second string
	if len(dates) > 0 {
		first = dates[0]
	}
	if len(dates) > 1 {
		second = dates[1]
	}
	e.CompletionDate, e.CreationDate = splitDates(first, second)
	return e
}
