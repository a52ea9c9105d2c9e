package layout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates path (and parents) with content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".specify", "templates", "pprd-template.md"), "# T\n")

	cfg, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.SpecsRoot != filepath.Join(root, "specs") {
		t.Errorf("SpecsRoot = %q, want default %q", cfg.SpecsRoot, filepath.Join(root, "specs"))
	}
	if cfg.OutputFilename != DefaultOutputFilename {
		t.Errorf("OutputFilename = %q, want %q", cfg.OutputFilename, DefaultOutputFilename)
	}
}

func TestResolvePrefersDotSpecs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".specs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "specs"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, ".specs", ".specify", "templates", "pprd-template.md"), "# T\n")

	cfg, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.SpecsRoot != filepath.Join(root, ".specs") {
		t.Errorf("SpecsRoot = %q, want %q", cfg.SpecsRoot, filepath.Join(root, ".specs"))
	}
	if cfg.TemplatePath != filepath.Join(root, ".specs", ".specify", "templates", "pprd-template.md") {
		t.Errorf("TemplatePath = %q", cfg.TemplatePath)
	}
}

func TestResolveTemplateNotFound(t *testing.T) {
	_, err := Resolve(t.TempDir())
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestResolveLayoutFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".specify", "templates", "pprd-template.md"), "# T\n")
	writeFile(t, filepath.Join(root, ".specify", "layout.yaml"), "pprd_filename: portfolio-prd.md\n")

	cfg, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.OutputFilename != "portfolio-prd.md" {
		t.Errorf("OutputFilename = %q, want %q", cfg.OutputFilename, "portfolio-prd.md")
	}
}

func TestResolveMalformedLayoutFileFallsBack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".specify", "templates", "pprd-template.md"), "# T\n")
	writeFile(t, filepath.Join(root, ".specify", "layout.yaml"), ": not yaml [\n")

	cfg, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cfg.OutputFilename != DefaultOutputFilename {
		t.Errorf("OutputFilename = %q, want default", cfg.OutputFilename)
	}
}
