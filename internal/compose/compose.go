// Package compose materializes the final document text and performs the
// single write of a run. The full output is computed in memory first and
// written atomically, so a crash mid-write never leaves a truncated or
// partially substituted document on disk.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/planware/pprd/internal/destpath"
	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/guard"
	"github.com/planware/pprd/internal/mdblocks"
	"github.com/planware/pprd/internal/report"
	"github.com/planware/pprd/internal/sections"
	"github.com/planware/pprd/internal/signals"
)

// DraftFunc produces the body for one section in author mode. Errors are not
// fatal: the affected section degrades to a specific TODO.
type DraftFunc func(ctx context.Context, def sections.Definition) (string, error)

// Params carries everything Materialize needs for one run.
type Params struct {
	Template string
	Fields   fields.Set
	Plan     destpath.Plan
	Decision guard.Decision
	Signals  signals.Bundle
	Draft    DraftFunc // required when Fields.Mode is author
}

// Result records what happened to the destination.
type Result struct {
	Path     string
	Action   guard.Action
	Wrote    bool
	Sections []report.SectionResult // populated in author mode only
}

// Materialize executes the decided action. It performs at most one write.
func Materialize(ctx context.Context, p Params) (Result, error) {
	res := Result{Path: p.Plan.Path, Action: p.Decision.Action}

	if p.Fields.Mode == fields.ModeAuthor && p.Draft == nil {
		return Result{}, fmt.Errorf("compose: author mode requires a draft function")
	}

	var final string
	switch p.Decision.Action {
	case guard.ActionCreate:
		text := substituteBoilerplate(p.Template, p.Fields)
		if p.Fields.Mode == fields.ModeAuthor {
			text, res.Sections = authorSections(ctx, text, p)
		}
		final = ensureTrailingNewline(text)

	case guard.ActionSkipExisting:
		return res, nil

	case guard.ActionSkipWithNote:
		final = ensureTrailingNewline(p.Decision.Existing) + "\n" +
			guard.AttemptMarker + "\n" +
			fmt.Sprintf("> NOTE: a generation run for PPRD-%s (%s) found existing content here and left it unchanged.\n",
				p.Fields.ID, p.Fields.Title)

	case guard.ActionMergePreserve:
		final, res.Sections = mergePreserve(ctx, p)
		if final == p.Decision.Existing {
			return res, nil
		}

	default:
		return Result{}, fmt.Errorf("compose: unknown action %q", p.Decision.Action)
	}

	if err := writeFileAtomic(p.Plan.Path, []byte(final), 0o644); err != nil {
		return Result{}, fmt.Errorf("compose: write %s: %w", p.Plan.Path, err)
	}
	res.Wrote = true
	return res, nil
}

// substituteBoilerplate replaces the template's title heading and links line.
// A template missing either gets them inserted at the top, so the output
// always carries both.
func substituteBoilerplate(tmpl string, fs fields.Set) string {
	lines := strings.Split(tmpl, "\n")
	heading := fmt.Sprintf("# PPRD-%s: %s", fs.ID, fs.Title)
	links := linksLine(fs)

	headingAt, linksAt := -1, -1
	for i, line := range lines {
		if headingAt == -1 {
			if _, level, ok := mdblocks.ParseHeading(line); ok && level == 1 {
				lines[i] = heading
				headingAt = i
				continue
			}
		}
		if linksAt == -1 && strings.HasPrefix(strings.TrimSpace(line), "**Links:**") {
			lines[i] = links
			linksAt = i
		}
	}

	if headingAt == -1 {
		lines = append([]string{heading, ""}, lines...)
		headingAt = 0
		if linksAt != -1 {
			linksAt += 2
		}
	}
	if linksAt == -1 {
		out := make([]string, 0, len(lines)+2)
		out = append(out, lines[:headingAt+1]...)
		out = append(out, "", links)
		out = append(out, lines[headingAt+1:]...)
		lines = out
	}
	return strings.Join(lines, "\n")
}

// linksLine renders the fixed links format, substituting N/A for unset refs.
func linksLine(fs fields.Set) string {
	return fmt.Sprintf("**Links:** Vision (%s), Strategy (%s), Roadmap entry (%s)",
		orNA(fs.VisionRef), orNA(fs.StrategyRef), orNA(fs.RoadmapRef))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// authorSections replaces each of the eight section bodies in a freshly
// substituted template with drafted content or a specific TODO. Sections the
// template lacks are appended in canonical order.
func authorSections(ctx context.Context, text string, p Params) (string, []report.SectionResult) {
	blocks := mdblocks.Split(text)
	var results []report.SectionResult
	var appended []string

	for _, def := range sections.All {
		body, status := draftBody(ctx, p, def)
		results = append(results, report.SectionResult{Heading: def.Heading, Status: status})

		if i := mdblocks.FindHeading(blocks, def.Heading); i >= 0 {
			headingLine := blocks[i].Lines[0]
			blocks[i] = mdblocks.Block{
				Heading: blocks[i].Heading,
				Level:   blocks[i].Level,
				Lines:   append([]string{headingLine, ""}, append(strings.Split(body, "\n"), "")...),
			}
			continue
		}
		appended = append(appended, "## "+def.Heading+"\n\n"+body)
	}

	out := mdblocks.Join(blocks)
	for _, a := range appended {
		out = strings.TrimRight(out, "\n") + "\n\n" + a + "\n"
	}
	return out, results
}

// mergePreserve prepends a one-time note and appends any canonical section
// whose heading is absent from the existing document. Existing blocks —
// including Clarifications and metadata — are never modified; a section whose
// heading is present counts as satisfied by prior content.
func mergePreserve(ctx context.Context, p Params) (string, []report.SectionResult) {
	existing := p.Decision.Existing
	blocks := mdblocks.Split(existing)

	var results []report.SectionResult
	out := existing
	for _, def := range sections.All {
		if mdblocks.FindHeading(blocks, def.Heading) >= 0 {
			results = append(results, report.SectionResult{Heading: def.Heading, Status: report.SectionPreserved})
			continue
		}
		body, status := draftBody(ctx, p, def)
		results = append(results, report.SectionResult{Heading: def.Heading, Status: status})
		out = ensureTrailingNewline(out) + "\n## " + def.Heading + "\n\n" + body + "\n"
	}

	if out != existing && !strings.Contains(existing, guard.MergeMarker) {
		note := guard.MergeMarker + "\n" +
			"> NOTE: an authoring run found existing content here. Existing sections were preserved verbatim; only missing sections were appended.\n\n"
		out = note + out
	}
	return out, results
}

// draftBody obtains one section body, degrading a provider failure or an
// explicit provider TODO into SectionTodo. Drafted prose containing numbers
// without a metric-bearing signal is labeled as proposed.
func draftBody(ctx context.Context, p Params, def sections.Definition) (string, report.SectionStatus) {
	body, err := p.Draft(ctx, def)
	if err != nil {
		return fmt.Sprintf("TODO: drafting unavailable for %s (%v); provide this section manually.",
			def.Heading, err), report.SectionTodo
	}
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "TODO:") {
		return body, report.SectionTodo
	}
	return labelUnsourcedNumbers(body, p.Signals.HasMetricSource()), report.SectionDrafted
}

// labelUnsourcedNumbers appends a proposed-estimate note to drafted text that
// carries numbers with no roadmap, ledger, or telemetry source behind them.
// The prompt already asks the model to mark such numbers; this is the
// deterministic backstop.
func labelUnsourcedNumbers(body string, hasMetricSource bool) string {
	if hasMetricSource || !strings.ContainsAny(body, "0123456789") {
		return body
	}
	if strings.Contains(body, "(proposed)") {
		return body
	}
	return body + "\n\n_Numeric values above are proposed estimates; no roadmap, experiment ledger, or telemetry source was available._"
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
