// Package summarize turns commit diffs into short natural-language
// summaries.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

const (
	DefaultModel     = "claude-3-5-haiku-20241022"
	DefaultMaxTokens = 1024

	// EmptyDiffSummary is returned for commits without textual changes
	EmptyDiffSummary = "No textual changes in this commit."

	maxPromptDiff = 40000
	headDiff      = 15000
)

// ErrSummarizerDisabled is returned when no LLM credentials are configured
var ErrSummarizerDisabled = errors.New("summarizer disabled")

// Summarizer produces a summary of a unified diff
type Summarizer interface {
	Summarize(ctx context.Context, diff string) (string, error)
}

// Options configures the Anthropic-backed summarizer
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string

	// RequestOptions are appended to the client options
	RequestOptions []option.RequestOption
}

// New returns an Anthropic summarizer, or Disabled when no API key is set
func New(opts Options, logger *slog.Logger) Summarizer {
	if opts.APIKey == "" {
		return Disabled{}
	}
	return NewAnthropic(opts, logger)
}

// Anthropic summarizes diffs with the Anthropic Messages API
type Anthropic struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

func NewAnthropic(opts Options, logger *slog.Logger) *Anthropic {
	if logger == nil {
		logger = slog.Default()
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	reqOpts = append(reqOpts, opts.RequestOptions...)

	client := anthropic.NewClient(reqOpts...)
	return &Anthropic{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Summarize asks the model for a bullet-point summary of diff
func (a *Anthropic) Summarize(ctx context.Context, diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return EmptyDiffSummary, nil
	}

	start := time.Now()
	response, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(diff))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic API call failed: %w", apperror.ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			summary.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(summary.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", apperror.ErrSummarizationFailed)
	}

	a.logger.Debug("summarized diff",
		"diff_bytes", len(diff),
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens,
		"duration", time.Since(start),
	)

	return text, nil
}

// sampleDiff keeps the head and tail of very large diffs
func sampleDiff(diff string) (string, bool) {
	if len(diff) <= maxPromptDiff {
		return diff, false
	}
	// Cut on rune boundaries so multi-byte text stays valid UTF-8
	head := headDiff
	for head > 0 && !utf8.RuneStart(diff[head]) {
		head--
	}
	start := len(diff) - (maxPromptDiff - headDiff)
	for start < len(diff) && !utf8.RuneStart(diff[start]) {
		start++
	}
	return diff[:head] + "\n\n... [truncated middle section] ...\n\n" + diff[start:], true
}

func buildPrompt(diff string) string {
	sampled, truncated := sampleDiff(diff)

	note := ""
	if truncated {
		note = "\n\nNote: the diff was very large and has been sampled. Summarize what is visible."
	}

	return fmt.Sprintf(`You are an expert programmer summarizing a git diff for a project dashboard.

Reminders about the git diff format:
- Lines starting with "+" were added, lines starting with "-" were removed.
- Lines starting with "diff --git" name the file being changed.

Write a concise summary of the commit as at most five bullet points, each on
its own line starting with "* ". Mention file names where useful. Do not
restate the diff, and do not add any preamble.

Diff:
%s%s`, sampled, note)
}

// Disabled is used when no LLM credentials are configured
type Disabled struct{}

// Enabled reports whether s can produce summaries
func Enabled(s Summarizer) bool {
	if s == nil {
		return false
	}
	_, disabled := s.(Disabled)
	return !disabled
}

func (Disabled) Summarize(context.Context, string) (string, error) {
	return "", ErrSummarizerDisabled
}
