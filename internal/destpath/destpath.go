// Package destpath computes the canonical destination path for a PPRD under
// the repository's single-file or multi-file convention. Resolution is a pure
// function of its inputs: no clock, no randomness, no filesystem access.
package destpath

import (
	"path/filepath"
	"strings"

	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/layout"
)

// Convention selects where PPRDs live.
type Convention string

const (
	// SingleFile keeps one canonical PPRD at <specsroot>/<output filename>.
	// This is the default; multi-file requires an explicit opt-in.
	SingleFile Convention = "single-file"
	// MultiFile keeps one file per PPRD under <specsroot>/pprd/.
	MultiFile Convention = "multi-file"
)

// Plan is the computed destination for one run.
type Plan struct {
	Path       string
	Convention Convention
}

// Resolve computes the destination path from the layout, the parsed fields,
// and the selected convention.
func Resolve(cfg layout.Config, fs fields.Set, conv Convention) Plan {
	if conv == MultiFile {
		slug := Slugify(fs.ID + "-" + fs.Title)
		return Plan{
			Path:       filepath.Join(cfg.SpecsRoot, "pprd", slug+".md"),
			Convention: MultiFile,
		}
	}
	return Plan{
		Path:       filepath.Join(cfg.SpecsRoot, cfg.OutputFilename),
		Convention: SingleFile,
	}
}

// Slugify lowercases s, collapses every run of non-alphanumeric characters to
// a single hyphen, and trims leading and trailing hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('-')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
