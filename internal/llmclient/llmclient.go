// Package llmclient is the last-resort LLM-grounded extractor. It wraps the
// Anthropic API behind a per-brand call budget that callers query via
// CanCall before ever issuing a request.
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultModel is used when LLM_MODEL is unset.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// pageTextLimit caps how much rendered page text is sent per call.
	pageTextLimit = 15000

	defaultMaxTokens = 4096

	systemPrompt = "You are a hair product data extractor. Extract ONLY information present " +
		"in the provided page text. If a field is not found, return null. " +
		"Never hallucinate or infer data not explicitly present."
)

// ErrBudgetExceeded is returned by ExtractStructured when the brand's call
// budget has already been exhausted; callers should treat this as a signal
// to downgrade to deterministic-only extraction, not as a fatal error.
var ErrBudgetExceeded = errors.New("llm budget exceeded for this brand")

// Summary is a point-in-time snapshot of one brand's LLM spend.
type Summary struct {
	TotalCalls        int  `json:"total_calls"`
	TotalInputTokens  int  `json:"total_input_tokens"`
	TotalOutputTokens int  `json:"total_output_tokens"`
	BudgetRemaining   int  `json:"budget_remaining"`
	BudgetExceeded    bool `json:"budget_exceeded"`
}

// HairRelevanceResult is ClassifyHairRelevance's typed response shape.
type HairRelevanceResult struct {
	HairRelated   bool   `json:"hair_related"`
	Reason        string `json:"reason"`
	EvidenceQuote string `json:"evidence_quote"`
}

// Client is a per-brand-run LLM collaborator: one Anthropic client plus the
// call-budget tracker scoped to that brand.
type Client struct {
	anthropic anthropic.Client
	model     string
	hasKey    bool
	tracker   *Tracker
	logger    *slog.Logger
}

// New builds a Client. apiKey may be empty; CanCall still reports
// correctly and ExtractStructured returns a descriptive error instead of
// panicking.
func New(apiKey, model string, maxCallsPerBrand int, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	return &Client{
		anthropic: anthropic.NewClient(opts...),
		model:     model,
		hasKey:    apiKey != "",
		tracker:   NewTracker(maxCallsPerBrand),
		logger:    logger,
	}
}

// CanCall reports whether the per-brand budget has remaining capacity.
func (c *Client) CanCall() bool { return c.tracker.CanCall() }

// Summary returns the current brand's cumulative spend.
func (c *Client) Summary() Summary { return c.tracker.Summary() }

// ResetBudget starts a fresh budget window, e.g. when beginning a new
// brand run with the same Client.
func (c *Client) ResetBudget() { c.tracker.Reset() }

// ExtractStructured asks the model to extract JSON-shaped data from
// pageText per prompt, consuming one call against the brand's budget.
func (c *Client) ExtractStructured(ctx context.Context, pageText, prompt string, maxTokens int) (map[string]any, error) {
	if !c.tracker.CanCall() {
		return nil, ErrBudgetExceeded
	}
	if !c.hasKey {
		return nil, errors.New("llmclient: no API key configured")
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	userContent := fmt.Sprintf("%s\n\n---PAGE TEXT---\n%s", prompt, truncate(pageText, pageTextLimit))

	resp, err := c.anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContent)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llmclient: anthropic call failed: %w", err)
	}

	c.tracker.Record(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	parsed, ok := parseJSONResponse(text.String())
	if !ok {
		c.logger.Warn("llm response was not valid JSON", "model", c.model)
		return map[string]any{}, nil
	}
	return parsed, nil
}

// ClassifyHairRelevance asks whether a product is hair/scalp related based
// only on its name and a page snippet.
func (c *Client) ClassifyHairRelevance(ctx context.Context, productName, pageSnippet string) (HairRelevanceResult, error) {
	prompt := fmt.Sprintf(
		"Based ONLY on the product name and page text below, determine if this is a hair/scalp product.\n"+
			"Return JSON: {\"hair_related\": true/false, \"reason\": \"...\", \"evidence_quote\": \"...\"}\n\n"+
			"Product name: %s\n", productName)

	raw, err := c.ExtractStructured(ctx, pageSnippet, prompt, 256)
	if err != nil {
		return HairRelevanceResult{}, err
	}

	var result HairRelevanceResult
	encoded, err := json.Marshal(raw)
	if err != nil {
		return HairRelevanceResult{}, fmt.Errorf("llmclient: re-encoding hair relevance result: %w", err)
	}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return HairRelevanceResult{}, fmt.Errorf("llmclient: decoding hair relevance result: %w", err)
	}
	return result, nil
}

// parseJSONResponse decodes text as JSON, falling back to extracting a
// fenced ```json or ``` code block, since the model sometimes wraps its answer
// in markdown despite instructions not to.
func parseJSONResponse(text string) (map[string]any, bool) {
	var direct map[string]any
	if err := json.Unmarshal([]byte(text), &direct); err == nil {
		return direct, true
	}

	if block, ok := extractFencedBlock(text, "```json"); ok {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(block), &parsed); err == nil {
			return parsed, true
		}
	}
	if block, ok := extractFencedBlock(text, "```"); ok {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(block), &parsed); err == nil {
			return parsed, true
		}
	}
	return nil, false
}

func extractFencedBlock(text, fence string) (string, bool) {
	start := strings.Index(text, fence)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// truncate returns s clipped to at most maxRunes runes, cutting on a rune
// boundary rather than mid-character.
func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
