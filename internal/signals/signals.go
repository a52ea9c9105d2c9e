// Package signals gathers the best-effort repository inputs that ground
// author-mode drafting: a roadmap table, an experiment ledger, a telemetry
// schema, and prior vision/strategy documents. Every source is optional and
// independently absent-tolerant; absence is a value the caller can report,
// never an error.
package signals

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxSignalBytes caps how much of a single signal file is kept. Larger files
// are truncated; drafting only needs the shape of the data, not all of it.
const maxSignalBytes = 16_000

// maxSummaryBytes caps the prompt summary across all signals.
const maxSummaryBytes = 40_000

// Source names one optional signal and the candidate locations it may live
// at, relative to the repository root. The first existing non-empty candidate
// wins.
type Source struct {
	Name  string
	Paths []string
}

// defaultSources lists the four signal kinds in a fixed order so Summary()
// output is deterministic. Candidate paths follow the specs-repo conventions;
// the specs-root relative variants are resolved by Gather.
var defaultSources = []Source{
	{Name: "roadmap", Paths: []string{"roadmap.md", "docs/roadmap.md"}},
	{Name: "experiment-ledger", Paths: []string{"experiments.md", "docs/experiment-ledger.md"}},
	{Name: "telemetry-schema", Paths: []string{"telemetry/schema.yaml", "telemetry/schema.yml", "docs/telemetry-schema.md"}},
	{Name: "vision", Paths: []string{"vision.md", "docs/vision.md"}},
	{Name: "strategy", Paths: []string{"strategy.md", "docs/strategy.md"}},
}

// Reading is one successfully read signal.
type Reading struct {
	Name    string
	Path    string // path the content was read from
	Content string // possibly truncated to maxSignalBytes
}

// Bundle is the result of one gather pass.
type Bundle struct {
	Readings []Reading
	Missing  []string // signal names with no readable candidate
}

// Gather tries every default source under specsRoot first, then repoRoot.
func Gather(repoRoot, specsRoot string) Bundle {
	var b Bundle
	for _, src := range defaultSources {
		r, ok := tryRead(src, specsRoot, repoRoot)
		if !ok {
			b.Missing = append(b.Missing, src.Name)
			continue
		}
		b.Readings = append(b.Readings, r)
	}
	return b
}

// tryRead returns the first readable non-empty candidate for src. Unreadable
// or empty files are treated the same as absent ones.
func tryRead(src Source, roots ...string) (Reading, bool) {
	for _, root := range roots {
		for _, rel := range src.Paths {
			path := filepath.Join(root, rel)
			data, err := os.ReadFile(path)
			if err != nil || len(strings.TrimSpace(string(data))) == 0 {
				continue
			}
			content := string(data)
			if len(content) > maxSignalBytes {
				content = content[:maxSignalBytes] + "\n[truncated]"
			}
			return Reading{Name: src.Name, Path: path, Content: content}, true
		}
	}
	return Reading{}, false
}

// Has reports whether the named signal was read.
func (b Bundle) Has(name string) bool {
	for _, r := range b.Readings {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasMetricSource reports whether any signal that can back a numeric claim
// (roadmap, experiment ledger, or telemetry schema) is present. Numbers
// drafted without one must be labeled as proposed.
func (b Bundle) HasMetricSource() bool {
	return b.Has("roadmap") || b.Has("experiment-ledger") || b.Has("telemetry-schema")
}

// Summary renders the bundle for inclusion in a drafting prompt, truncated to
// maxSummaryBytes. Missing signals are named so the model can emit specific
// TODOs instead of inventing data.
func (b Bundle) Summary() string {
	var sb strings.Builder
	if len(b.Readings) == 0 {
		sb.WriteString("No repository signals are available.\n")
	}
	for _, r := range b.Readings {
		fmt.Fprintf(&sb, "--- %s (%s) ---\n%s\n", r.Name, r.Path, r.Content)
	}
	if len(b.Missing) > 0 {
		fmt.Fprintf(&sb, "Missing signals: %s\n", strings.Join(b.Missing, ", "))
	}
	s := sb.String()
	if len(s) > maxSummaryBytes {
		s = s[:maxSummaryBytes] + "\n[truncated]"
	}
	return s
}
