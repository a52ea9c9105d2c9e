// Package fields extracts a typed field set from the free-form input blob
// given to a generation run. Parsing is pure: no filesystem or environment
// access happens here, so a failed parse is guaranteed to leave the
// repository untouched.
package fields

import (
	"fmt"
	"strings"
)

// Mode selects how much of the document is produced.
type Mode string

const (
	// ModeScaffold substitutes boilerplate only and leaves section bodies
	// for human completion.
	ModeScaffold Mode = "scaffold"
	// ModeAuthor drafts every section from hints and repository signals.
	ModeAuthor Mode = "author"
)

// Set is the parsed field set for one generation run.
type Set struct {
	ID    string
	Title string

	VisionRef   string
	StrategyRef string
	RoadmapRef  string

	Mode  Mode
	Brief string

	// Hints holds named section hints plus any unrecognized keys, which are
	// retained verbatim for forward compatibility. Keys are normalized to
	// lowercase snake_case.
	Hints map[string]string
}

// MissingFieldError reports a required field that was absent from the input.
// It is a hard precondition failure: the caller must halt before any
// filesystem interaction and ask the user for the missing value.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("fields: required field %q is missing; supply it and re-run", e.Field)
}

// reserved maps normalized keys to their Set destinations. Keys not listed
// here land in Hints.
var reserved = map[string]bool{
	"id":           true,
	"title":        true,
	"vision_ref":   true,
	"strategy_ref": true,
	"roadmap_ref":  true,
	"mode":         true,
	"brief":        true,
}

// Parse extracts a Set from raw input text. Three shapes are accepted, tried
// in order of specificity:
//
//  1. explicit key=value tokens (values may be double- or single-quoted);
//  2. an "ID: Title" shorthand, split on the first colon;
//  3. a bare positional fallback: first token is the id, the rest the title.
//
// The positional forms apply only when no explicit key=value token is found.
func Parse(input string) (Set, error) {
	s := Set{Mode: ModeScaffold, Hints: map[string]string{}}

	tokens := tokenize(input)
	pairs, hasPairs := splitPairs(tokens)

	switch {
	case hasPairs:
		for _, p := range pairs {
			if err := s.assign(p.key, p.value); err != nil {
				return Set{}, err
			}
		}
	case strings.Contains(input, ":"):
		id, title, _ := strings.Cut(input, ":")
		s.ID = strings.TrimSpace(id)
		s.Title = strings.TrimSpace(title)
	default:
		if len(tokens) > 0 {
			s.ID = tokens[0]
			s.Title = strings.TrimSpace(strings.Join(tokens[1:], " "))
		}
	}

	if s.ID == "" {
		return Set{}, &MissingFieldError{Field: "id"}
	}
	if s.Title == "" {
		return Set{}, &MissingFieldError{Field: "title"}
	}
	return s, nil
}

// assign routes one key=value pair into the Set.
func (s *Set) assign(key, value string) error {
	key = NormalizeKey(key)
	switch key {
	case "id":
		s.ID = value
	case "title":
		s.Title = value
	case "vision_ref":
		s.VisionRef = value
	case "strategy_ref":
		s.StrategyRef = value
	case "roadmap_ref":
		s.RoadmapRef = value
	case "brief":
		s.Brief = value
	case "mode":
		switch Mode(strings.ToLower(value)) {
		case ModeScaffold:
			s.Mode = ModeScaffold
		case ModeAuthor:
			s.Mode = ModeAuthor
		default:
			return fmt.Errorf("fields: unknown mode %q (valid: scaffold, author)", value)
		}
	default:
		s.Hints[key] = value
	}
	return nil
}

// Hint returns the named hint value, or "" when unset.
func (s Set) Hint(key string) string {
	return s.Hints[NormalizeKey(key)]
}

// NormalizeKey lowercases a key and converts separators to underscores, so
// "North-Star-Metric", "NORTH_STAR_METRIC" and "north star metric" all refer
// to the same hint.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	return key
}

type pair struct {
	key   string
	value string
}

// splitPairs extracts key=value pairs from tokens. The second return value
// is true when at least one explicit pair was found, which selects the
// explicit input shape.
func splitPairs(tokens []string) ([]pair, bool) {
	var pairs []pair
	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || !isKey(k) {
			continue
		}
		pairs = append(pairs, pair{key: k, value: unquote(v)})
	}
	return pairs, len(pairs) > 0
}

// isKey reports whether s looks like a bare key: a letter or underscore
// followed by letters, digits, underscores, or hyphens.
func isKey(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}

// tokenize splits input on whitespace while keeping quoted spans intact, so
// title="Search Relevance Overhaul" survives as a single token.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range input {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// unquote strips one matching pair of surrounding quotes, if present.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
