// Package mdblocks splits a Markdown document into an ordered sequence of
// heading-keyed blocks. The split is fence-aware: headings inside fenced code
// blocks are treated as code content, not structure. Splitting and joining
// round-trip the original text, which the keyed section merge relies on to
// preserve existing bytes.
package mdblocks

import "strings"

// Block is one contiguous region of a document: an optional preamble
// (Level 0, before the first heading) or a heading plus everything up to the
// next heading at any level.
type Block struct {
	Heading string   // heading text without the hash prefix; "" for the preamble
	Level   int      // number of leading '#'; 0 for the preamble
	Lines   []string // raw lines, including the heading line itself
}

// Text reassembles the block's lines.
func (b Block) Text() string {
	return strings.Join(b.Lines, "\n")
}

// Body returns the block's lines after the heading line, trimmed of
// surrounding blank lines. For the preamble it returns the trimmed text.
func (b Block) Body() string {
	lines := b.Lines
	if b.Level > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// Split parses text into blocks. Join(Split(text)) == text for any input.
func Split(text string) []Block {
	// Preserve a trailing newline through the split/join round trip by
	// representing it as a final empty line.
	lines := strings.Split(text, "\n")

	var blocks []Block
	cur := Block{}
	started := false

	flush := func() {
		if started {
			blocks = append(blocks, cur)
		}
	}

	// openFence is non-empty while inside a top-level fenced code block;
	// heading detection is suspended until the fence closes.
	var openFence string

	for _, line := range lines {
		fp := fencePrefix(line)
		if openFence != "" {
			if isClosingFence(line, openFence) {
				openFence = ""
			}
			cur.Lines = append(cur.Lines, line)
			started = true
			continue
		}
		if fp != "" {
			openFence = fp
			cur.Lines = append(cur.Lines, line)
			started = true
			continue
		}
		if heading, level, ok := ParseHeading(line); ok {
			flush()
			cur = Block{Heading: heading, Level: level, Lines: []string{line}}
			started = true
			continue
		}
		cur.Lines = append(cur.Lines, line)
		started = true
	}
	flush()
	return blocks
}

// Join reassembles blocks into a single document.
func Join(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text())
	}
	return strings.Join(parts, "\n")
}

// FindHeading returns the index of the first block whose heading matches
// want, compared case-insensitively after trimming. Returns -1 if absent.
func FindHeading(blocks []Block, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	for i, b := range blocks {
		if b.Level > 0 && strings.ToLower(strings.TrimSpace(b.Heading)) == want {
			return i
		}
	}
	return -1
}

// ParseHeading parses an ATX heading line, returning the heading text and
// level. A space after the hashes is required (CommonMark); lines with 4 or
// more leading spaces are indented code, not headings.
func ParseHeading(line string) (string, int, bool) {
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	if leading >= 4 {
		return "", 0, false
	}
	t := strings.TrimSpace(line)
	level := 0
	for level < len(t) && t[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(t) || t[level] != ' ' {
		return "", 0, false
	}
	return strings.TrimSpace(t[level+1:]), level, true
}

// fencePrefix returns the opening fence string (e.g. "```" or "~~~~") if line
// starts a fenced code block, otherwise "". CommonMark allows up to 3 leading
// spaces before the fence marker; 4 or more means an indented code block.
func fencePrefix(line string) string {
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	if leading >= 4 {
		return ""
	}
	stripped := line[leading:]
	for _, marker := range []byte{'`', '~'} {
		if len(stripped) < 3 || stripped[0] != marker {
			continue
		}
		count := 0
		for count < len(stripped) && stripped[count] == marker {
			count++
		}
		if count >= 3 {
			return stripped[:count]
		}
	}
	return ""
}

// isClosingFence reports whether line closes a block opened with openFence:
// same fence character, at least as long, and nothing but optional trailing
// spaces after the markers.
func isClosingFence(line, openFence string) bool {
	if openFence == "" {
		return false
	}
	fp := fencePrefix(line)
	if fp == "" || fp[0] != openFence[0] || len(fp) < len(openFence) {
		return false
	}
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	rest := strings.TrimLeft(line[leading+len(fp):], " ")
	return rest == ""
}
