// Package llm is the author-mode content provider: it drafts one PPRD section
// at a time from the parsed fields, the section's hints, and whatever
// repository signals are available. A provider failure is never fatal to a
// run; the materializer degrades the affected section to a specific TODO.
package llm

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/planware/pprd/internal/fields"
	"github.com/planware/pprd/internal/sections"
	"github.com/planware/pprd/internal/signals"
)

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures drafting calls.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// DraftSection drafts the body for one section. The returned text is plain
// Markdown without the section heading. The provider is instructed to answer
// with a single "TODO:" line naming the missing information when the supplied
// hints and signals cannot support a draft.
func DraftSection(
	ctx context.Context,
	provider Provider,
	def sections.Definition,
	fs fields.Set,
	sig signals.Bundle,
	opts Options,
) (string, error) {
	sysPrompt := buildSystemPrompt()
	userPrompt := buildUserPrompt(def, fs, sig)

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("llm: draft %s: %w", def.Key, err)
	}

	body := strings.TrimSpace(stripMarkdownFences(raw))
	if body == "" {
		return "", fmt.Errorf("llm: draft %s: empty response", def.Key)
	}
	return body, nil
}

// buildSystemPrompt assembles the drafting system prompt shared by all
// sections.
func buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You draft one section of a Portfolio/Product PRD at a time.\n\n")
	sb.WriteString("Output only the section body as plain Markdown. Do not repeat the " +
		"section heading. Do not wrap the output in code fences.\n\n")
	sb.WriteString("Use only the hints and repository signals provided. Never invent " +
		"metrics, dates, persona names, or roadmap entries. If the provided material " +
		"cannot support a draft, output exactly one line starting with 'TODO:' that names " +
		"the specific missing information.\n\n")
	sb.WriteString("Any numeric target that is not directly backed by a provided signal " +
		"must carry the word (proposed) immediately after the number.\n")
	return sb.String()
}

// buildUserPrompt assembles the per-section drafting prompt. Explicit section
// hints take precedence over the free-text brief; the brief is supplied as
// background only.
func buildUserPrompt(def sections.Definition, fs fields.Set, sig signals.Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "PPRD: %s — %s\n", fs.ID, fs.Title)
	fmt.Fprintf(&sb, "Section to draft: %s\n\n", def.Heading)

	fmt.Fprintf(&sb, "Section instructions: %s\n\n", def.Guidance)

	wroteHint := false
	for _, key := range def.HintKeys {
		if v := fs.Hint(key); v != "" {
			if !wroteHint {
				sb.WriteString("Explicit hints (authoritative; prefer these over the brief):\n")
				wroteHint = true
			}
			fmt.Fprintf(&sb, "  %s: %s\n", key, v)
		}
	}
	if wroteHint {
		sb.WriteString("\n")
	}

	if fs.Brief != "" {
		fmt.Fprintf(&sb, "Brief (background context only): %s\n\n", fs.Brief)
	}

	sb.WriteString("Repository signals:\n")
	sb.WriteString(sig.Summary())

	sb.WriteString("\nDraft the section body now.")
	return sb.String()
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences. The content group
// uses `.*?` (not `.+?`) to allow empty bodies inside fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line, used to strip orphaned
// opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing code fences that LLMs
// sometimes wrap around output despite instructions. If only an opening fence
// is present (truncated response), the opening line is stripped.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content type that carries assistant text output.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
