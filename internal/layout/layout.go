// Package layout resolves a repository's declared file-layout conventions:
// where specs live, where the PPRD template is, and what the configured
// output file is called. The configuration is read fresh on every invocation
// and never cached or mutated.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultOutputFilename is used when the layout file is absent or does not
// define a PPRD filename.
const DefaultOutputFilename = "pprd.md"

// ErrTemplateNotFound indicates that no PPRD template could be resolved. No
// document can be structurally produced without one, so this is fatal.
var ErrTemplateNotFound = errors.New("layout: pprd template not found")

// Config holds the resolved layout conventions for one repository.
type Config struct {
	SpecsRoot      string // absolute path to the specs root
	TemplatePath   string // absolute path to the PPRD template
	OutputFilename string // configured output file name, default pprd.md
}

// Resolve reads the repository's layout conventions. Resolution order per
// value:
//
//   - specs root: <root>/.specs, then <root>/specs; defaults to <root>/specs
//     when neither exists yet (the materializer creates it on first write);
//   - template: <specsroot>/.specify/templates/pprd-template.md, then
//     <root>/.specify/templates/pprd-template.md; absence is fatal;
//   - output filename: pprd_filename key in <specsroot>/.specify/layout.yaml
//     or <root>/.specify/layout.yaml; defaults to pprd.md.
func Resolve(repoRoot string) (Config, error) {
	abs, err := filepath.Abs(repoRoot)
	if err != nil {
		return Config{}, fmt.Errorf("layout: resolve repo root: %w", err)
	}

	specsRoot := resolveSpecsRoot(abs)

	tmpl, err := resolveTemplate(abs, specsRoot)
	if err != nil {
		return Config{}, err
	}

	return Config{
		SpecsRoot:      specsRoot,
		TemplatePath:   tmpl,
		OutputFilename: readOutputFilename(abs, specsRoot),
	}, nil
}

// resolveSpecsRoot picks the first existing specs directory, defaulting to
// <root>/specs.
func resolveSpecsRoot(repoRoot string) string {
	for _, name := range []string{".specs", "specs"} {
		dir := filepath.Join(repoRoot, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return filepath.Join(repoRoot, "specs")
}

// resolveTemplate locates the template for the "pprd" kind.
func resolveTemplate(repoRoot, specsRoot string) (string, error) {
	candidates := []string{
		filepath.Join(specsRoot, ".specify", "templates", "pprd-template.md"),
		filepath.Join(repoRoot, ".specify", "templates", "pprd-template.md"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w (looked in %s and %s)", ErrTemplateNotFound, candidates[0], candidates[1])
}

// layoutFile is the on-disk shape of the optional layout configuration.
type layoutFile struct {
	PPRDFilename string `yaml:"pprd_filename"`
}

// readOutputFilename reads the configured PPRD filename. Any failure — file
// absent, unreadable, or malformed — falls back to the default; the layout
// file is a best-effort collaborator, not a requirement.
func readOutputFilename(repoRoot, specsRoot string) string {
	candidates := []string{
		filepath.Join(specsRoot, ".specify", "layout.yaml"),
		filepath.Join(repoRoot, ".specify", "layout.yaml"),
	}
	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err != nil {
			continue
		}
		var lf layoutFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			continue
		}
		if lf.PPRDFilename != "" {
			return lf.PPRDFilename
		}
	}
	return DefaultOutputFilename
}
