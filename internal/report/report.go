// Package report defines the structured summary of one generation run and
// its renderings. A report is emitted only when the run either fully
// succeeded or failed with a named stage; there is no partial emission.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/guard"
)

// SectionStatus is the per-section outcome in author mode.
type SectionStatus string

const (
	// SectionDrafted means the content provider produced prose for the section.
	SectionDrafted SectionStatus = "drafted"
	// SectionTodo means the section carries a specific TODO naming missing input.
	SectionTodo SectionStatus = "todo"
	// SectionPreserved means prior content satisfied the section and was kept.
	SectionPreserved SectionStatus = "preserved"
	// SectionNotApplicable is reported for every section in scaffold mode.
	SectionNotApplicable SectionStatus = "not-applicable-scaffold"
)

// SectionResult pairs a section heading with its outcome.
type SectionResult struct {
	Heading string        `json:"heading"`
	Status  SectionStatus `json:"status"`
}

// Report is the final summary of one run.
type Report struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Path     string          `json:"path"`
	Mode     fields.Mode     `json:"mode"`
	Action   guard.Action    `json:"action"`
	Wrote    bool            `json:"wrote"`
	Sections []SectionResult `json:"sections,omitempty"`
}

// RenderJSON produces a pretty-printed JSON representation of the report.
func RenderJSON(r *Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report: nil report")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: json marshal: %w", err)
	}
	return b, nil
}

// RenderText produces a human-readable summary suitable for terminal output.
func RenderText(r *Report) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## PPRD Generation Report\n\n")
	fmt.Fprintf(&sb, "**ID:** %s  \n", r.ID)
	fmt.Fprintf(&sb, "**Title:** %s  \n", r.Title)
	fmt.Fprintf(&sb, "**Path:** %s  \n", r.Path)
	fmt.Fprintf(&sb, "**Mode:** %s  \n", r.Mode)
	fmt.Fprintf(&sb, "**Action:** %s\n\n", describeAction(r.Action, r.Wrote))

	if len(r.Sections) > 0 {
		sb.WriteString("| Section | Status |\n")
		sb.WriteString("|---|---|\n")
		for _, s := range r.Sections {
			fmt.Fprintf(&sb, "| %s | %s |\n", s.Heading, s.Status)
		}
		sb.WriteString("\n")
		if todos := CountTodo(r.Sections); todos > 0 {
			fmt.Fprintf(&sb, "%d section(s) need follow-up; search the document for \"TODO:\".\n", todos)
		}
	}

	return sb.String()
}

// CountTodo returns how many sections were left as TODOs.
func CountTodo(results []SectionResult) int {
	n := 0
	for _, s := range results {
		if s.Status == SectionTodo {
			n++
		}
	}
	return n
}

// describeAction renders the action in plain language.
func describeAction(a guard.Action, wrote bool) string {
	switch a {
	case guard.ActionCreate:
		return "created a new document"
	case guard.ActionSkipExisting:
		return "existing document left untouched (no write)"
	case guard.ActionSkipWithNote:
		return "existing content preserved; a note was appended"
	case guard.ActionMergePreserve:
		if !wrote {
			return "existing document already up to date (no write)"
		}
		return "existing content preserved; missing sections merged"
	default:
		return string(a)
	}
}
