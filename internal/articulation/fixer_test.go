package articulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ntrl/internal/config"
	"ntrl/internal/types"
)

// fakeGenerator returns a canned output or error.
type fakeGenerator struct {
	name     string
	out      *GenerateOutput
	err      error
	calls    int
	lastBody string
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(ctx context.Context, body string, scan *types.MergedScanResult) (*GenerateOutput, error) {
	f.calls++
	f.lastBody = body
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func fixerConfig() config.FixerConfig {
	return config.FixerConfig{MaxRetries: 2, Strict: false}
}

func TestFixerHappyPath(t *testing.T) {
	body := "The senator SLAMS critics over the budget."
	full := &fakeGenerator{name: "full", out: &GenerateOutput{
		Text:  "The senator criticizes critics over the budget.",
		Model: "model-a",
		Changes: []RawChange{
			{DetectionID: "d1", Before: "SLAMS", After: "criticizes"},
		},
	}}
	brief := &fakeGenerator{name: "brief", out: &GenerateOutput{Text: "A senator criticized critics.", Model: "model-a"}}
	feed := &fakeGenerator{name: "feed", out: &GenerateOutput{Title: "Senator criticizes critics", Text: "Budget dispute continues.", Model: "model-a"}}

	scan := &types.MergedScanResult{
		Segment: types.SegmentBody,
		Detections: []types.DetectionInstance{
			{DetectionID: "d1", TypeID: "B.2.2", Text: "SLAMS", SpanStart: 12, SpanEnd: 17, Action: types.ActionReplace},
		},
	}

	f := NewFixerWithGenerators(full, brief, feed, NewRuleBasedGenerator(), fixerConfig())
	result := f.Fix(context.Background(), body, "Senator SLAMS critics", scan)

	assert.Equal(t, "The senator criticizes critics over the budget.", result.FullRewrite)
	assert.Equal(t, "A senator criticized critics.", result.BriefSynthesis)
	assert.Equal(t, "Senator criticizes critics", result.FeedTitle)
	assert.Equal(t, "Budget dispute continues.", result.FeedSummary)
	assert.True(t, result.Validation.Passed)
	assert.False(t, result.FellBack)
	assert.Equal(t, "model-a", result.ModelsUsed["full_rewrite"])
	assert.Equal(t, len(body), result.OriginalLength)

	require.Len(t, result.Changes, 1)
	assert.Equal(t, "B.2.2", result.Changes[0].TypeID)
	assert.Equal(t, types.ActionReplace, result.Changes[0].Action)
}

func TestFixerFeedGeneratorReceivesHeadline(t *testing.T) {
	body := "The senator SLAMS critics over the budget."
	title := "Senator SLAMS critics"
	full := &fakeGenerator{name: "full", out: &GenerateOutput{Text: body, Model: "model-a"}}
	brief := &fakeGenerator{name: "brief", out: &GenerateOutput{Text: "A senator criticized critics.", Model: "model-a"}}
	feed := &fakeGenerator{name: "feed", out: &GenerateOutput{Title: "Senator criticizes critics", Model: "model-a"}}

	f := NewFixerWithGenerators(full, brief, feed, NewRuleBasedGenerator(), fixerConfig())
	f.Fix(context.Background(), body, title, &types.MergedScanResult{Segment: types.SegmentBody})

	// The feed model de-escalates the original headline, so it has to
	// see it; the rewrite generators only see the body.
	assert.Contains(t, feed.lastBody, "TITLE: "+title)
	assert.Contains(t, feed.lastBody, body)
	assert.Equal(t, body, full.lastBody)
	assert.Equal(t, body, brief.lastBody)
}

func TestFixerGeneratorErrorsUseNeutralDefaults(t *testing.T) {
	body := "The committee approved the budget."
	boom := errors.New("model unavailable")
	full := &fakeGenerator{name: "full", err: boom}
	brief := &fakeGenerator{name: "brief", err: boom}
	feed := &fakeGenerator{name: "feed", err: boom}

	f := NewFixerWithGenerators(full, brief, feed, NewRuleBasedGenerator(), fixerConfig())
	result := f.Fix(context.Background(), body, "Original title", nil)

	// The rule-based fallback leaves clean text untouched, so the
	// rewrite equals the original without being the terminal fallback.
	assert.Equal(t, body, result.FullRewrite)
	assert.Empty(t, result.BriefSynthesis)
	assert.Equal(t, "Original title", result.FeedTitle)
	assert.True(t, result.Validation.Passed)
	assert.False(t, result.FellBack)
	assert.Equal(t, "rule_based", result.ModelsUsed["full_rewrite"])
}

func TestFixerRetriesRuleBasedOnValidationFailure(t *testing.T) {
	body := "The mayor did not approve the contract."
	// Rewrite drops the negation, which the validator hard-fails.
	full := &fakeGenerator{name: "full", out: &GenerateOutput{
		Text:  "The mayor did approve the contract.",
		Model: "model-a",
	}}
	brief := &fakeGenerator{name: "brief", out: &GenerateOutput{Text: "brief", Model: "model-a"}}
	feed := &fakeGenerator{name: "feed", out: &GenerateOutput{Title: "t", Text: "s", Model: "model-a"}}

	f := NewFixerWithGenerators(full, brief, feed, NewRuleBasedGenerator(), fixerConfig())
	result := f.Fix(context.Background(), body, "title", nil)

	assert.Equal(t, body, result.FullRewrite, "rule-based rewrite of clean text is the text itself")
	assert.True(t, result.Validation.Passed)
	assert.False(t, result.FellBack)
	assert.Equal(t, "rule_based", result.ModelsUsed["full_rewrite"])
}

func TestFixerTerminalFallbackToOriginal(t *testing.T) {
	body := "Regulators did not issue a recall."
	bad := &GenerateOutput{Text: "Regulators issued a recall.", Model: "model-a"}
	full := &fakeGenerator{name: "full", out: bad}
	brief := &fakeGenerator{name: "brief", out: &GenerateOutput{Text: "brief", Model: "model-a"}}
	feed := &fakeGenerator{name: "feed", out: &GenerateOutput{Title: "t", Text: "s", Model: "model-a"}}
	// Fallback is just as broken, exhausting every retry.
	fallback := &fakeGenerator{name: "broken_fallback", out: bad}

	f := NewFixerWithGenerators(full, brief, feed, fallback, fixerConfig())
	result := f.Fix(context.Background(), body, "title", nil)

	assert.Equal(t, body, result.FullRewrite)
	assert.True(t, result.FellBack)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.Passed)
	assert.Equal(t, "fallback to original", result.Validation.Note)
	assert.Empty(t, result.Changes)
	assert.Equal(t, 2, fallback.calls, "fallback retried MaxRetries times")
}

func TestFixerJoinChangesUnknownDetection(t *testing.T) {
	raw := []RawChange{
		{DetectionID: "known", Before: "a", After: "b"},
		{DetectionID: "ghost", Before: "x", After: "y"},
	}
	scan := &types.MergedScanResult{
		Detections: []types.DetectionInstance{
			{DetectionID: "known", TypeID: "A.2.1", Action: types.ActionRemove},
		},
	}

	records := joinChanges(raw, scan)
	require.Len(t, records, 2)
	assert.Equal(t, "A.2.1", records[0].TypeID)
	assert.Equal(t, types.ActionRemove, records[0].Action)
	assert.Empty(t, records[1].TypeID, "unmatched changes keep an empty type")
}
