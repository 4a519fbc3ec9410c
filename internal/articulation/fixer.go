package articulation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"ntrl/internal/config"
	"ntrl/internal/logging"
	"ntrl/internal/perception"
	"ntrl/internal/types"
	"ntrl/internal/verification"
)

// =============================================================================
// FIXER - Generator Orchestration with Retry and Fallback
// =============================================================================

// Fixer runs the three generators concurrently, validates the full
// rewrite against the red lines, and walks the fallback chain when
// validation fails: LLM rewrite -> rule-based rewrite (MaxRetries
// attempts) -> original text verbatim. The worst case output is the
// unmodified input with an honest empty change list; Fix never fails.
type Fixer struct {
	full     Generator
	brief    Generator
	feed     Generator
	fallback Generator

	maxRetries int
	strict     bool
	timeout    time.Duration
}

// NewFixer wires the standard generator set against one LLM client.
func NewFixer(client perception.LLMClient, cfg config.FixerConfig) *Fixer {
	return &Fixer{
		full:       NewFullRewriteGenerator(client),
		brief:      NewBriefSynthesisGenerator(client),
		feed:       NewFeedGenerator(client),
		fallback:   NewRuleBasedGenerator(),
		maxRetries: cfg.MaxRetries,
		strict:     cfg.Strict,
		timeout:    cfg.Timeout,
	}
}

// NewFixerWithGenerators injects custom generators. Used by tests and by
// callers that want a fully offline rule-based pipeline.
func NewFixerWithGenerators(full, brief, feed, fallback Generator, cfg config.FixerConfig) *Fixer {
	return &Fixer{
		full:       full,
		brief:      brief,
		feed:       feed,
		fallback:   fallback,
		maxRetries: cfg.MaxRetries,
		strict:     cfg.Strict,
		timeout:    cfg.Timeout,
	}
}

// Fix produces the complete neutralized rendition for one article.
// title is the original headline, used as the neutral default when the
// feed generator fails.
func (f *Fixer) Fix(ctx context.Context, body, title string, scan *types.MergedScanResult) *types.FixResult {
	timer := logging.StartTimer(logging.CategoryArticulation, "Fix")
	defer timer.Stop()
	start := time.Now()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var fullOut, briefOut, feedOut *GenerateOutput

	// Generator errors are data: each slot degrades to its neutral
	// default independently, the group itself never fails.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := f.full.Generate(gctx, body, scan)
		if err != nil {
			logging.ArticulationWarn("full rewrite generator failed: %v", err)
			return nil
		}
		fullOut = out
		return nil
	})
	g.Go(func() error {
		out, err := f.brief.Generate(gctx, body, scan)
		if err != nil {
			logging.ArticulationWarn("brief generator failed: %v", err)
			return nil
		}
		briefOut = out
		return nil
	})
	g.Go(func() error {
		out, err := f.feed.Generate(gctx, articleWithTitle(title, body), scan)
		if err != nil {
			logging.ArticulationWarn("feed generator failed: %v", err)
			return nil
		}
		feedOut = out
		return nil
	})
	_ = g.Wait()

	result := &types.FixResult{
		BriefSynthesis: "",
		FeedTitle:      title,
		OriginalLength: len(body),
		ModelsUsed:     map[string]string{},
	}
	if briefOut != nil {
		result.BriefSynthesis = briefOut.Text
		result.ModelsUsed["brief_synthesis"] = briefOut.Model
	}
	if feedOut != nil {
		if feedOut.Title != "" {
			result.FeedTitle = feedOut.Title
		}
		result.FeedSummary = feedOut.Text
		result.ModelsUsed["feed"] = feedOut.Model
	}

	// Only the full rewrite is held to the red lines; the brief and feed
	// outputs are syntheses, not edits of the original.
	text, changes, validation, fellBack, model := f.validateWithFallback(ctx, body, scan, fullOut)

	result.FullRewrite = text
	result.FixedLength = len(text)
	result.Validation = validation
	result.FellBack = fellBack
	result.Changes = joinChanges(changes, scan)
	if model != "" {
		result.ModelsUsed["full_rewrite"] = model
	}
	result.Duration = time.Since(start)

	logging.Articulation("fix complete: %d -> %d bytes, %d changes, passed=%v, fell_back=%v",
		result.OriginalLength, result.FixedLength, len(result.Changes),
		validation.Passed, fellBack)
	return result
}

// validateWithFallback runs the retry chain for the full rewrite.
func (f *Fixer) validateWithFallback(ctx context.Context, body string, scan *types.MergedScanResult, llmOut *GenerateOutput) (string, []RawChange, *types.ValidationResult, bool, string) {
	if llmOut != nil {
		v := verification.Validate(body, llmOut.Text, f.strict)
		if v.Passed {
			return llmOut.Text, llmOut.Changes, v, false, llmOut.Model
		}
		logging.ArticulationWarn("full rewrite failed validation (risk=%s), retrying rule-based", v.Risk)
	}

	retries := f.maxRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		out, err := f.fallback.Generate(ctx, body, scan)
		if err != nil {
			logging.ArticulationWarn("rule-based attempt %d failed: %v", attempt, err)
			continue
		}
		v := verification.Validate(body, out.Text, f.strict)
		if v.Passed {
			return out.Text, out.Changes, v, false, out.Model
		}
		logging.ArticulationWarn("rule-based attempt %d failed validation (risk=%s)", attempt, v.Risk)
	}

	// Terminal fallback: the original text is trivially valid.
	v := &types.ValidationResult{
		Passed: true,
		Strict: f.strict,
		Checks: map[types.CheckName]types.CheckResult{},
		Risk:   types.RiskNone,
		Note:   "fallback to original",
	}
	return body, nil, v, true, ""
}

// joinChanges resolves each raw change against its originating detection
// so the ChangeRecord carries the type ID and recommended action.
func joinChanges(raw []RawChange, scan *types.MergedScanResult) []types.ChangeRecord {
	if len(raw) == 0 {
		return nil
	}

	byID := map[string]*types.DetectionInstance{}
	if scan != nil {
		for i := range scan.Detections {
			byID[scan.Detections[i].DetectionID] = &scan.Detections[i]
		}
	}

	records := make([]types.ChangeRecord, 0, len(raw))
	for _, rc := range raw {
		rec := types.ChangeRecord{
			DetectionID: rc.DetectionID,
			Before:      rc.Before,
			After:       rc.After,
			Rationale:   rc.Rationale,
		}
		if d, ok := byID[rc.DetectionID]; ok {
			rec.TypeID = d.TypeID
			rec.Action = d.Action
		}
		records = append(records, rec)
	}
	return records
}
