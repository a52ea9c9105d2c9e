// Package guard inspects the current destination content and decides what a
// run is allowed to do with it. Existing non-empty content is never
// overwritten: a run either creates fresh, appends a note and leaves the
// bytes alone, or merges while preserving everything already there. Repeated
// runs over the same state are safe.
package guard

import (
	"fmt"
	"os"
	"strings"

	"github.com/planware/pprd/internal/fields"
)

// Action is the decision for one run.
type Action string

const (
	// ActionCreate writes a fresh document; the destination is absent or
	// effectively empty.
	ActionCreate Action = "create"
	// ActionSkipExisting leaves a previously generated document untouched
	// and writes nothing.
	ActionSkipExisting Action = "skip-existing"
	// ActionSkipWithNote appends a short note recording the attempted
	// generation; the existing bytes are never modified.
	ActionSkipWithNote Action = "skip-with-note"
	// ActionMergePreserve prepends a note and merges missing sections while
	// preserving all prior content verbatim.
	ActionMergePreserve Action = "merge-preserve"
)

// Markers embedded in generated output so later runs can recognize their own
// work. Their presence is what makes re-invocation idempotent.
const (
	AttemptMarker = "<!-- pprd: generation attempted; existing content preserved -->"
	MergeMarker   = "<!-- pprd: authoring merged into existing document -->"
)

// Decision is the guard's verdict plus the content it was based on.
type Decision struct {
	Action   Action
	Existing string // current destination content; "" when absent or empty
}

// Decide inspects the destination at path under the given mode.
func Decide(path string, mode fields.Mode) (Decision, error) {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return Decision{Action: ActionCreate}, nil
	case err != nil:
		return Decision{}, fmt.Errorf("guard: inspect %s: %w", path, err)
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		// Whitespace-only counts as absent.
		return Decision{Action: ActionCreate}, nil
	}

	if mode == fields.ModeAuthor {
		return Decision{Action: ActionMergePreserve, Existing: content}, nil
	}

	if HasGenerationMarker(content) {
		return Decision{Action: ActionSkipExisting, Existing: content}, nil
	}
	return Decision{Action: ActionSkipWithNote, Existing: content}, nil
}

// HasGenerationMarker reports whether content already carries evidence of a
// prior generation run: a PPRD title heading or one of the note markers.
func HasGenerationMarker(content string) bool {
	if strings.Contains(content, AttemptMarker) || strings.Contains(content, MergeMarker) {
		return true
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "# PPRD-") {
			return true
		}
	}
	return false
}
