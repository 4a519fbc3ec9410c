package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ntrl/internal/config"
	"ntrl/internal/perception"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

// fakeFixer records calls and returns a canned result.
type fakeFixer struct {
	calls  int
	result *types.FixResult
}

func (f *fakeFixer) Fix(ctx context.Context, body, title string, scan *types.MergedScanResult) *types.FixResult {
	f.calls++
	if f.result != nil {
		return f.result
	}
	return &types.FixResult{
		FullRewrite: body,
		FeedTitle:   title,
		Validation:  &types.ValidationResult{Passed: true},
		ModelsUsed:  map[string]string{"full_rewrite": "fake-model"},
	}
}

// newLexicalPipeline builds a pipeline with only the offline lexical
// detector so tests never touch a parser or an LLM.
func newLexicalPipeline(t *testing.T, fixer Fixer, cfg config.PipelineConfig) *Pipeline {
	t.Helper()
	registry := taxonomy.NewRegistry()
	scanner := perception.NewScanner(registry, []perception.Detector{
		perception.NewLexicalDetector(registry),
	})
	return New(scanner, fixer, cfg)
}

func TestProcessScanFixAndTransparency(t *testing.T) {
	fixer := &fakeFixer{}
	p := newLexicalPipeline(t, fixer, config.PipelineConfig{CacheCapacity: 10})

	body := "BREAKING: the senator slams critics in a devastating attack."
	result, err := p.Process(context.Background(), body, "Committee vote", "", false)
	require.NoError(t, err)

	require.NotNil(t, result.BodyScan)
	assert.NotEmpty(t, result.BodyScan.Detections)
	assert.Equal(t, 1, fixer.calls)
	require.NotNil(t, result.Fix)

	tp := result.Transparency
	require.NotNil(t, tp)
	assert.Equal(t, len(result.BodyScan.Detections)+len(result.TitleScan.Detections), tp.TotalDetections)
	assert.Equal(t, "fake-model", tp.ModelsUsed["full_rewrite"])
	assert.False(t, result.FromCache)
}

func TestProcessEmptyBody(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{})

	_, err := p.Process(context.Background(), "   ", "title", "", false)
	assert.Error(t, err)
}

func TestProcessCacheHitAndForce(t *testing.T) {
	fixer := &fakeFixer{}
	p := newLexicalPipeline(t, fixer, config.PipelineConfig{CacheCapacity: 10})

	body := "The senator slams critics."
	first, err := p.Process(context.Background(), body, "t", "", false)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := p.Process(context.Background(), body, "t", "", false)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, fixer.calls, "cache hit must not re-run the fixer")

	third, err := p.Process(context.Background(), body, "t", "", true)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, 2, fixer.calls, "force bypasses the cache")

	stats := p.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestProcessDifferentTitlesMissCache(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{CacheCapacity: 10})

	body := "The committee approved the budget."
	_, err := p.Process(context.Background(), body, "First title", "", false)
	require.NoError(t, err)

	result, err := p.Process(context.Background(), body, "Second title", "", false)
	require.NoError(t, err)
	assert.False(t, result.FromCache, "title participates in the cache key")
}

func TestScanOnlySkipsFixer(t *testing.T) {
	fixer := &fakeFixer{}
	p := newLexicalPipeline(t, fixer, config.PipelineConfig{CacheCapacity: 10})

	result, err := p.ScanOnly(context.Background(), "BREAKING: urgent news.", "")
	require.NoError(t, err)

	assert.True(t, result.ScanOnly)
	assert.Nil(t, result.Fix)
	assert.Equal(t, 0, fixer.calls)
	assert.NotNil(t, result.Transparency)
}

func TestScanOnlyConfigSkipsFixer(t *testing.T) {
	fixer := &fakeFixer{}
	p := newLexicalPipeline(t, fixer, config.PipelineConfig{ScanOnly: true, CacheCapacity: 10})

	result, err := p.Process(context.Background(), "BREAKING: urgent news.", "", "", false)
	require.NoError(t, err)

	assert.True(t, result.ScanOnly)
	assert.Nil(t, result.Fix)
	assert.Equal(t, 0, fixer.calls)
}

func TestEpistemicFlagHighSeverityTitle(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{CacheCapacity: 10})

	result, err := p.Process(context.Background(),
		"The committee approved the budget.",
		"Senator slams critics", "", false)
	require.NoError(t, err)

	assert.Contains(t, result.Transparency.EpistemicFlags, "high_severity_title")
}

func TestEpistemicFlagAnonymousSourceHeavy(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{CacheCapacity: 10})

	body := "Sources say the deal is near. Critics claim it will fail. " +
		"Experts warn of delays. Analysts believe otherwise."
	result, err := p.Process(context.Background(), body, "", "", false)
	require.NoError(t, err)

	assert.Contains(t, result.Transparency.EpistemicFlags, "anonymous_source_heavy")
}

func TestEpistemicFlagDenseManipulation(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{CacheCapacity: 10})

	body := "BREAKING: urgent shocking devastating bombshell. The senator slams critics, " +
		"rips into analysts, and torches the report. Sources say it was catastrophic. " +
		"Experts warn of a stunning explosive fallout."
	result, err := p.Process(context.Background(), body, "", "", false)
	require.NoError(t, err)

	require.Greater(t, result.Transparency.TotalDetections, 8)
	assert.Contains(t, result.Transparency.EpistemicFlags, "dense_manipulation")
}

func TestDeckScanned(t *testing.T) {
	p := newLexicalPipeline(t, &fakeFixer{}, config.PipelineConfig{CacheCapacity: 10})

	result, err := p.Process(context.Background(),
		"The committee approved the budget.",
		"", "A devastating setback for the governor", false)
	require.NoError(t, err)

	require.NotNil(t, result.DeckScan)
	assert.Equal(t, types.SegmentDeck, result.DeckScan.Segment)
	assert.NotEmpty(t, result.DeckScan.Detections)
}

func TestCacheEvictionOldestHalf(t *testing.T) {
	cache := newResultCache(4)
	for i := 0; i < 4; i++ {
		cache.put(fmt.Sprintf("key-%d", i), &types.PipelineResult{})
	}
	require.Equal(t, 4, cache.stats().Size)

	cache.put("key-4", &types.PipelineResult{})

	stats := cache.stats()
	assert.Equal(t, 3, stats.Size, "oldest half evicted before insert")
	assert.Equal(t, int64(2), stats.Evictions)

	_, ok := cache.get("key-0")
	assert.False(t, ok)
	_, ok = cache.get("key-3")
	assert.True(t, ok)
	_, ok = cache.get("key-4")
	assert.True(t, ok)
}

func TestContentKeySeparatesTitleFromBody(t *testing.T) {
	assert.NotEqual(t, contentKey("ab", "c"), contentKey("a", "bc"))
	assert.Equal(t, contentKey("t", "b"), contentKey("t", "b"))
}
