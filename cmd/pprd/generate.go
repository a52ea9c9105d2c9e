package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planware/pprd/internal/compose"
	"github.com/planware/pprd/internal/destpath"
	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/guard"
	"github.com/planware/pprd/internal/layout"
	"github.com/planware/pprd/internal/llm"
	"github.com/planware/pprd/internal/report"
	"github.com/planware/pprd/internal/sections"
	"github.com/planware/pprd/internal/signals"
)

type generateFlags struct {
	repoRoot    string
	multiFile   bool
	provider    string
	model       string
	maxTokens   int
	temperature float64
	format      string
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [fields...]",
		Short: "Generate a PPRD from the repository template",
		Long: `Generate materializes a Portfolio/Product PRD at the repository's
configured destination. Fields are given as key=value pairs, an "ID: Title"
shorthand, or positionally (id first, title after). mode=author drafts every
section from hints and repository signals; the default scaffold mode
substitutes boilerplate only.

Existing non-empty destinations are never overwritten: scaffold runs append a
note and leave the bytes alone, author runs merge only the missing sections.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), flags, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.repoRoot, "repo-root", "", "repository root (default: discovered from the working directory)")
	cmd.Flags().BoolVar(&flags.multiFile, "multi-file", false, "place the document under <specs>/pprd/<id>-<title>.md instead of the single canonical file")
	cmd.Flags().StringVar(&flags.provider, "provider", "anthropic", "author-mode LLM provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&flags.model, "model", "claude-sonnet-4-5", "author-mode model name")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 2048, "maximum tokens per drafted section")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", 0.3, "sampling temperature for drafting")
	cmd.Flags().StringVar(&flags.format, "format", "text", "report format: text or json")

	return cmd
}

// runGenerate is the strictly sequential pipeline: parse fields, resolve
// layout, resolve the destination path, decide the action, materialize, and
// report. Field parsing runs first so that a missing id or title halts the
// run before any filesystem interaction.
func runGenerate(ctx context.Context, flags generateFlags, input string, out io.Writer) error {
	fs, err := fields.Parse(input)
	if err != nil {
		return err
	}

	root := flags.repoRoot
	if root == "" {
		root, err = discoverRepoRoot()
		if err != nil {
			return err
		}
	}

	cfg, err := layout.Resolve(root)
	if err != nil {
		return err
	}

	conv := destpath.SingleFile
	if flags.multiFile {
		conv = destpath.MultiFile
	}
	plan := destpath.Resolve(cfg, fs, conv)

	dec, err := guard.Decide(plan.Path, fs.Mode)
	if err != nil {
		return err
	}

	tmpl, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		return fmt.Errorf("read template %s: %w", cfg.TemplatePath, err)
	}

	params := compose.Params{
		Template: string(tmpl),
		Fields:   fs,
		Plan:     plan,
		Decision: dec,
	}
	if fs.Mode == fields.ModeAuthor {
		params.Signals = signals.Gather(root, cfg.SpecsRoot)
		params.Draft = newDraftFunc(flags, fs, params.Signals)
	}

	res, err := compose.Materialize(ctx, params)
	if err != nil {
		return err
	}

	rep := &report.Report{
		ID:       fs.ID,
		Title:    fs.Title,
		Path:     res.Path,
		Mode:     fs.Mode,
		Action:   res.Action,
		Wrote:    res.Wrote,
		Sections: res.Sections,
	}

	switch flags.format {
	case "json":
		b, err := report.RenderJSON(rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	case "text":
		fmt.Fprint(out, report.RenderText(rep))
	default:
		return fmt.Errorf("unknown format %q (valid: text, json)", flags.format)
	}
	return nil
}

// newDraftFunc creates the provider once per run. A creation failure (for
// example a missing API key) degrades every section to a specific TODO
// instead of failing the run.
func newDraftFunc(flags generateFlags, fs fields.Set, sig signals.Bundle) compose.DraftFunc {
	provider, perr := llm.NewProvider(flags.provider, flags.model)
	opts := llm.Options{MaxTokens: flags.maxTokens, Temperature: flags.temperature}
	return func(ctx context.Context, def sections.Definition) (string, error) {
		if perr != nil {
			return "", perr
		}
		return llm.DraftSection(ctx, provider, def, fs, sig, opts)
	}
}

// discoverRepoRoot walks up from the working directory looking for a
// repository anchor.
func discoverRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	for {
		for _, anchor := range []string{".git", ".specs", "specs"} {
			if _, statErr := os.Stat(filepath.Join(dir, anchor)); statErr == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no repository root found above the working directory; pass --repo-root")
		}
		dir = parent
	}
}
