// Package sections defines the eight logical PPRD sections in their fixed
// document order. Each definition carries the hint fields that feed it and a
// drafting guidance addendum appended to the author-mode prompt.
package sections

import "strings"

// Definition describes one logical PPRD section.
type Definition struct {
	Key      string   // stable identifier, e.g. "outcomes-targets"
	Heading  string   // exact heading text as it appears in the document
	HintKeys []string // normalized field hints that feed this section
	Guidance string   // drafting instructions appended to the author prompt
}

// All lists the eight sections in canonical document order.
var All = []Definition{
	{
		Key:     "context-vision",
		Heading: "Context & Vision",
		Guidance: "Describe why this portfolio bet exists, the problem space, and the " +
			"future state it serves. Anchor on the brief and any prior vision or strategy " +
			"documents provided. Two to four short paragraphs.",
	},
	{
		Key:      "outcomes-targets",
		Heading:  "Outcomes & Targets",
		HintKeys: []string{"north_star_metric", "input_metrics", "guardrails"},
		Guidance: "State the north-star metric, the input metrics that move it, and the " +
			"guardrail metrics that must not regress. Any numeric target not backed by a " +
			"provided roadmap, ledger, or telemetry source must carry the word (proposed).",
	},
	{
		Key:      "personas-jtbd",
		Heading:  "Personas & JTBD",
		HintKeys: []string{"personas"},
		Guidance: "List the primary personas and the jobs-to-be-done each one hires this " +
			"product for. One bullet per persona with its top jobs.",
	},
	{
		Key:      "capability-map",
		Heading:  "Capability Map",
		HintKeys: []string{"capabilities"},
		Guidance: "Map the capabilities this bet requires, grouped as existing, to build, " +
			"and to buy or partner. Keep each capability to one line.",
	},
	{
		Key:      "constraints-non-goals",
		Heading:  "Constraints & Non-Goals",
		HintKeys: []string{"constraints", "non_goals"},
		Guidance: "Separate hard constraints (technical, legal, budget) from explicit " +
			"non-goals. Non-goals must be stated as exclusions, not deferrals.",
	},
	{
		Key:      "risks-unknowns",
		Heading:  "Risks & Unknowns",
		HintKeys: []string{"risks"},
		Guidance: "List the top risks with likelihood and impact, and the open unknowns " +
			"that need a decision or an experiment before commit.",
	},
	{
		Key:      "release-strategy",
		Heading:  "Release Strategy",
		HintKeys: []string{"release_plan"},
		Guidance: "Lay out the release phases, gating criteria between phases, and the " +
			"rollback posture. Use roadmap entries as the source of phase names when provided.",
	},
	{
		Key:      "measurement-plan",
		Heading:  "Measurement Plan",
		HintKeys: []string{"measurement_plan"},
		Guidance: "Define how each target metric is instrumented and reviewed. Cite the " +
			"telemetry schema when provided; otherwise name the instrumentation gap explicitly.",
	},
}

// ByHeading returns the definition whose heading matches h, compared
// case-insensitively after trimming.
func ByHeading(h string) (Definition, bool) {
	h = strings.ToLower(strings.TrimSpace(h))
	for _, d := range All {
		if strings.ToLower(d.Heading) == h {
			return d, true
		}
	}
	return Definition{}, false
}
