package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/llm"
	"github.com/planware/pprd/internal/report"
)

// setupRepo creates a minimal repository with a PPRD template and returns its
// root.
func setupRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	tmplPath := filepath.Join(root, ".specify", "templates", "pprd-template.md")
	if err := os.MkdirAll(filepath.Dir(tmplPath), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile("../../testdata/pprd-template.md")
	if err != nil {
		t.Fatalf("read template fixture: %v", err)
	}
	if err := os.WriteFile(tmplPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

// cannedProvider returns the same body for every section.
type cannedProvider struct {
	response string
}

func (p *cannedProvider) Complete(ctx context.Context, system, user string, maxTokens int, temp float64) (string, error) {
	return p.response, nil
}

func injectMockProvider(t *testing.T, response string) {
	t.Helper()
	orig := llm.NewProvider
	llm.NewProvider = func(providerName, model string) (llm.Provider, error) {
		return &cannedProvider{response: response}, nil
	}
	t.Cleanup(func() { llm.NewProvider = orig })
}

func baseFlags(root string) generateFlags {
	return generateFlags{
		repoRoot:    root,
		provider:    "anthropic",
		model:       "mock",
		maxTokens:   1024,
		temperature: 0.2,
		format:      "text",
	}
}

func TestGenerateScaffold(t *testing.T) {
	root := setupRepo(t)
	var out bytes.Buffer

	err := runGenerate(context.Background(), baseFlags(root), `id=001 title="Search Relevance Overhaul"`, &out)
	if err != nil {
		t.Fatalf("runGenerate error: %v", err)
	}

	dest := filepath.Join(root, "specs", "pprd.md")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	doc := string(data)
	if !strings.Contains(doc, "# PPRD-001: Search Relevance Overhaul") {
		t.Errorf("heading missing:\n%s", doc)
	}
	if !strings.Contains(doc, "**Links:** Vision (N/A), Strategy (N/A), Roadmap entry (N/A)") {
		t.Errorf("links line missing:\n%s", doc)
	}
	if !strings.Contains(out.String(), "**Mode:** scaffold") {
		t.Errorf("report does not show scaffold mode:\n%s", out.String())
	}
}

func TestGenerateScaffoldRerunIsByteIdentical(t *testing.T) {
	root := setupRepo(t)
	input := `id=001 title="Search Relevance Overhaul"`
	var out bytes.Buffer

	if err := runGenerate(context.Background(), baseFlags(root), input, &out); err != nil {
		t.Fatalf("first run: %v", err)
	}
	dest := filepath.Join(root, "specs", "pprd.md")
	first, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}

	if err := runGenerate(context.Background(), baseFlags(root), input, &out); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("destination not byte-identical after scaffold re-run")
	}
}

func TestGenerateMissingFieldWritesNothing(t *testing.T) {
	root := setupRepo(t)
	var out bytes.Buffer

	err := runGenerate(context.Background(), baseFlags(root), "title=Orphan", &out)
	var mfe *fields.MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("err = %v, want MissingFieldError", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "specs")); !os.IsNotExist(statErr) {
		t.Error("filesystem was touched despite a missing required field")
	}
}

func TestGenerateAuthorJSONReport(t *testing.T) {
	root := setupRepo(t)
	injectMockProvider(t, "Drafted section body.")
	flags := baseFlags(root)
	flags.format = "json"
	var out bytes.Buffer

	err := runGenerate(context.Background(), flags, `id=001 title="Search Relevance Overhaul" mode=author`, &out)
	if err != nil {
		t.Fatalf("runGenerate error: %v", err)
	}

	var rep report.Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("report is not valid JSON: %v\n%s", err, out.String())
	}
	if rep.Mode != fields.ModeAuthor {
		t.Errorf("Mode = %q, want author", rep.Mode)
	}
	if len(rep.Sections) != 8 {
		t.Errorf("Sections = %d, want 8", len(rep.Sections))
	}
	for _, s := range rep.Sections {
		if s.Status != report.SectionDrafted {
			t.Errorf("section %q status = %q, want drafted", s.Heading, s.Status)
		}
	}
}

func TestGenerateAuthorWithoutProviderDegradesToTodos(t *testing.T) {
	root := setupRepo(t)
	orig := llm.NewProvider
	llm.NewProvider = func(providerName, model string) (llm.Provider, error) {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	t.Cleanup(func() { llm.NewProvider = orig })
	var out bytes.Buffer

	err := runGenerate(context.Background(), baseFlags(root), "id=001 title=Degraded mode=author", &out)
	if err != nil {
		t.Fatalf("runGenerate error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "specs", "pprd.md"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "TODO: drafting unavailable"); n != 8 {
		t.Errorf("specific TODOs = %d, want 8", n)
	}
}

func TestGenerateAuthorPreservesExistingContent(t *testing.T) {
	root := setupRepo(t)
	injectMockProvider(t, "Drafted section body.")
	dest := filepath.Join(root, "specs", "pprd.md")
	existing := "# PPRD-001: Prior Draft\n\n## Context & Vision\n\nhuman words\n\n## Clarifications\n\nQ: scope? A: EU.\n"
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer

	err := runGenerate(context.Background(), baseFlags(root), "id=001 title=Merged mode=author", &out)
	if err != nil {
		t.Fatalf("runGenerate error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), existing) {
		t.Error("prior content bytes are not a verbatim substring of the output")
	}
	if !strings.HasPrefix(string(data), "<!-- pprd:") {
		t.Error("output does not begin with the prepended note")
	}
}

func TestGenerateMultiFile(t *testing.T) {
	root := setupRepo(t)
	flags := baseFlags(root)
	flags.multiFile = true
	var out bytes.Buffer

	err := runGenerate(context.Background(), flags, `id=2025Q1-01 title="Growth Bets"`, &out)
	if err != nil {
		t.Fatalf("runGenerate error: %v", err)
	}
	want := filepath.Join(root, "specs", "pprd", "2025q1-01-growth-bets.md")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected destination %s: %v", want, err)
	}
}

func TestGenerateTemplateNotFound(t *testing.T) {
	root := t.TempDir() // no template
	var out bytes.Buffer
	err := runGenerate(context.Background(), baseFlags(root), "id=001 title=X", &out)
	if err == nil {
		t.Fatal("expected TemplateNotFound error")
	}
	if !strings.Contains(err.Error(), "template not found") {
		t.Errorf("err = %v, want template-not-found", err)
	}
}

func TestGenerateUnknownFormat(t *testing.T) {
	root := setupRepo(t)
	flags := baseFlags(root)
	flags.format = "xml"
	var out bytes.Buffer
	if err := runGenerate(context.Background(), flags, "id=001 title=X", &out); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
