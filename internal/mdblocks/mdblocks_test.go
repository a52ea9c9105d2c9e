package mdblocks

import (
	"strings"
	"testing"
)

const sample = `# PPRD-001: Example

**Links:** Vision (N/A), Strategy (N/A), Roadmap entry (N/A)

## Context & Vision

Why this exists.

## Outcomes & Targets

- North star: weekly active teams
`

func TestSplitJoinRoundTrip(t *testing.T) {
	inputs := []string{
		sample,
		"",
		"no headings at all\njust prose\n",
		"# only a heading",
		"preamble\n\n# H1\nbody\n## H2\nmore\n",
	}
	for _, in := range inputs {
		if got := Join(Split(in)); got != in {
			t.Errorf("round trip mismatch:\n in: %q\nout: %q", in, got)
		}
	}
}

func TestSplitHeadings(t *testing.T) {
	blocks := Split(sample)
	var headings []string
	for _, b := range blocks {
		if b.Level > 0 {
			headings = append(headings, b.Heading)
		}
	}
	want := []string{"PPRD-001: Example", "Context & Vision", "Outcomes & Targets"}
	if len(headings) != len(want) {
		t.Fatalf("headings = %v, want %v", headings, want)
	}
	for i := range want {
		if headings[i] != want[i] {
			t.Errorf("heading[%d] = %q, want %q", i, headings[i], want[i])
		}
	}
}

func TestSplitIgnoresHeadingsInFences(t *testing.T) {
	doc := "## Real\n```\n# not a heading\n## also not\n```\ntail\n"
	blocks := Split(doc)
	count := 0
	for _, b := range blocks {
		if b.Level > 0 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("heading blocks = %d, want 1", count)
	}
	if got := Join(blocks); got != doc {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestFindHeading(t *testing.T) {
	blocks := Split(sample)
	if i := FindHeading(blocks, "context & vision"); i < 0 {
		t.Error("FindHeading is not case-insensitive")
	}
	if i := FindHeading(blocks, "Measurement Plan"); i != -1 {
		t.Errorf("FindHeading(absent) = %d, want -1", i)
	}
}

func TestBlockBody(t *testing.T) {
	blocks := Split(sample)
	i := FindHeading(blocks, "Context & Vision")
	if i < 0 {
		t.Fatal("section not found")
	}
	if got := blocks[i].Body(); got != "Why this exists." {
		t.Errorf("Body = %q, want %q", got, "Why this exists.")
	}
}

func TestParseHeading(t *testing.T) {
	tests := []struct {
		line  string
		text  string
		level int
		ok    bool
	}{
		{"# Title", "Title", 1, true},
		{"## Sub ", "Sub", 2, true},
		{"####### too deep", "", 0, false},
		{"#nospace", "", 0, false},
		{"    # indented code", "", 0, false},
		{"plain", "", 0, false},
	}
	for _, tt := range tests {
		text, level, ok := ParseHeading(tt.line)
		if ok != tt.ok || text != tt.text || level != tt.level {
			t.Errorf("ParseHeading(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tt.line, text, level, ok, tt.text, tt.level, tt.ok)
		}
	}
}

func TestSplitPreservesTrailingNewline(t *testing.T) {
	doc := "# H\nbody\n"
	if !strings.HasSuffix(Join(Split(doc)), "\n") {
		t.Error("trailing newline lost")
	}
}
