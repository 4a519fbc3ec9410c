package articulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ntrl/internal/logging"
	"ntrl/internal/perception"
	"ntrl/internal/types"
)

// =============================================================================
// LLM GENERATORS - Full Rewrite / Brief Synthesis / Feed
// =============================================================================

// rewriteResponse is the JSON shape the full-rewrite and brief models
// are instructed to return.
type rewriteResponse struct {
	NeutralizedText string      `json:"neutralized_text"`
	Changes         []RawChange `json:"changes,omitempty"`
}

// feedResponse is the JSON shape the feed model returns.
type feedResponse struct {
	FeedTitle   string `json:"feed_title"`
	FeedSummary string `json:"feed_summary"`
}

// FullRewriteGenerator produces the span-guided neutralized article.
type FullRewriteGenerator struct {
	client perception.LLMClient
}

func NewFullRewriteGenerator(client perception.LLMClient) *FullRewriteGenerator {
	return &FullRewriteGenerator{client: client}
}

func (g *FullRewriteGenerator) Name() string { return "full_rewrite" }

func (g *FullRewriteGenerator) Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error) {
	start := time.Now()

	raw, err := g.client.CompleteWithSystem(ctx, fullRewriteSystemPrompt, buildUserPrompt(body, scan))
	if err != nil {
		return nil, fmt.Errorf("full rewrite call failed: %w", err)
	}

	var resp rewriteResponse
	if err := perception.ExtractJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("full rewrite response unparseable: %w", err)
	}
	if strings.TrimSpace(resp.NeutralizedText) == "" {
		return nil, fmt.Errorf("full rewrite response missing neutralized_text")
	}

	logging.ArticulationDebug("full rewrite: %d -> %d bytes, %d changes",
		len(body), len(resp.NeutralizedText), len(resp.Changes))

	return &GenerateOutput{
		Text:     resp.NeutralizedText,
		Model:    g.client.Model(),
		Duration: time.Since(start),
		Changes:  resp.Changes,
	}, nil
}

// BriefSynthesisGenerator produces the 2-4 sentence neutral brief.
type BriefSynthesisGenerator struct {
	client perception.LLMClient
}

func NewBriefSynthesisGenerator(client perception.LLMClient) *BriefSynthesisGenerator {
	return &BriefSynthesisGenerator{client: client}
}

func (g *BriefSynthesisGenerator) Name() string { return "brief_synthesis" }

func (g *BriefSynthesisGenerator) Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error) {
	start := time.Now()

	raw, err := g.client.CompleteWithSystem(ctx, briefSynthesisSystemPrompt, buildUserPrompt(body, scan))
	if err != nil {
		return nil, fmt.Errorf("brief synthesis call failed: %w", err)
	}

	var resp rewriteResponse
	if err := perception.ExtractJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("brief synthesis response unparseable: %w", err)
	}
	if strings.TrimSpace(resp.NeutralizedText) == "" {
		return nil, fmt.Errorf("brief synthesis response missing neutralized_text")
	}

	return &GenerateOutput{
		Text:     resp.NeutralizedText,
		Model:    g.client.Model(),
		Duration: time.Since(start),
	}, nil
}

// FeedGenerator produces the neutral feed title and one-line summary.
// The caller prepends the original headline to the body (see
// articleWithTitle) so the model can de-escalate it rather than invent
// a new one.
type FeedGenerator struct {
	client perception.LLMClient
}

func NewFeedGenerator(client perception.LLMClient) *FeedGenerator {
	return &FeedGenerator{client: client}
}

func (g *FeedGenerator) Name() string { return "feed" }

func (g *FeedGenerator) Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error) {
	start := time.Now()

	raw, err := g.client.CompleteWithSystem(ctx, feedSystemPrompt, buildUserPrompt(body, scan))
	if err != nil {
		return nil, fmt.Errorf("feed call failed: %w", err)
	}

	var resp feedResponse
	if err := perception.ExtractJSON(raw, &resp); err != nil {
		return nil, fmt.Errorf("feed response unparseable: %w", err)
	}
	if strings.TrimSpace(resp.FeedTitle) == "" && strings.TrimSpace(resp.FeedSummary) == "" {
		return nil, fmt.Errorf("feed response empty")
	}

	return &GenerateOutput{
		Title:    resp.FeedTitle,
		Text:     resp.FeedSummary,
		Model:    g.client.Model(),
		Duration: time.Since(start),
	}, nil
}
