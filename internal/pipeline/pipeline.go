// Package pipeline sequences scan -> fix -> transparency for one article
// and caches the result by content hash. It owns nothing network-facing
// itself; the scanner and fixer bring their own clients.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ntrl/internal/config"
	"ntrl/internal/logging"
	"ntrl/internal/perception"
	"ntrl/internal/types"
)

// Fixer is the slice of the articulation fixer the pipeline needs.
type Fixer interface {
	Fix(ctx context.Context, body, title string, scan *types.MergedScanResult) *types.FixResult
}

// Pipeline orchestrates one article end to end. Safe for concurrent use;
// all per-article state lives on the stack, only the cache is shared.
type Pipeline struct {
	scanner  *perception.Scanner
	fixer    Fixer
	cache    *resultCache
	scanOnly bool
	timeout  time.Duration
}

// New builds a pipeline around an assembled scanner and fixer.
func New(scanner *perception.Scanner, fixer Fixer, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		scanner:  scanner,
		fixer:    fixer,
		cache:    newResultCache(cfg.CacheCapacity),
		scanOnly: cfg.ScanOnly,
		timeout:  cfg.Timeout,
	}
}

// Process runs the full scan -> fix -> transparency sequence. force
// bypasses the cache lookup but still stores the fresh result.
func (p *Pipeline) Process(ctx context.Context, body, title, deck string, force bool) (*types.PipelineResult, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, "Process")
	defer timer.Stop()
	start := time.Now()

	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("article body is empty")
	}

	key := contentKey(title, body)
	if !force {
		if cached, ok := p.cache.get(key); ok {
			logging.PipelineDebug("cache hit for %s", key[:12])
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	bodyScan, titleScan, deckScan, err := p.scanAll(ctx, body, title, deck)
	if err != nil {
		return nil, err
	}

	result := &types.PipelineResult{
		BodyScan:  bodyScan,
		TitleScan: titleScan,
		DeckScan:  deckScan,
		ScanOnly:  p.scanOnly,
	}

	if !p.scanOnly && p.fixer != nil {
		result.Fix = p.fixer.Fix(ctx, body, title, bodyScan)
	}

	// A deadline that fired mid-flight leaves degraded detector output
	// behind; report the timeout instead of caching a hollow result.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("pipeline interrupted: %w", ctxErr)
	}

	result.Transparency = buildTransparency(result)
	result.Duration = time.Since(start)

	p.cache.put(key, result)

	logging.Pipeline("processed article: %d detections, fix=%v, %.2fs",
		result.Transparency.TotalDetections, result.Fix != nil,
		result.Duration.Seconds())
	return result, nil
}

// ScanOnly runs the detection ensemble without the rewrite stage,
// regardless of how the pipeline is configured.
func (p *Pipeline) ScanOnly(ctx context.Context, body, title string) (*types.PipelineResult, error) {
	start := time.Now()
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("article body is empty")
	}

	bodyScan, titleScan, _, err := p.scanAll(ctx, body, title, "")
	if err != nil {
		return nil, err
	}

	result := &types.PipelineResult{
		BodyScan:  bodyScan,
		TitleScan: titleScan,
		ScanOnly:  true,
	}
	result.Transparency = buildTransparency(result)
	result.Duration = time.Since(start)
	return result, nil
}

// CacheStats reports cache behavior for operational visibility.
func (p *Pipeline) CacheStats() CacheStats {
	return p.cache.stats()
}

// scanAll runs the segment scans concurrently. Title and deck scans are
// skipped when empty; a failed scan surfaces as the error it is, since
// Scan itself only errors on a dead context.
func (p *Pipeline) scanAll(ctx context.Context, body, title, deck string) (bodyScan, titleScan, deckScan *types.MergedScanResult, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var scanErr error
		bodyScan, scanErr = p.scanner.Scan(gctx, body, types.SegmentBody)
		return scanErr
	})
	if strings.TrimSpace(title) != "" {
		g.Go(func() error {
			var scanErr error
			titleScan, scanErr = p.scanner.Scan(gctx, title, types.SegmentTitle)
			return scanErr
		})
	}
	if strings.TrimSpace(deck) != "" {
		g.Go(func() error {
			var scanErr error
			deckScan, scanErr = p.scanner.Scan(gctx, deck, types.SegmentDeck)
			return scanErr
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, nil, fmt.Errorf("scan failed: %w", waitErr)
	}
	return bodyScan, titleScan, deckScan, nil
}

// =============================================================================
// TRANSPARENCY
// =============================================================================

// Epistemic flag names disclosed in the transparency package.
const (
	flagAnonymousSourceHeavy  = "anonymous_source_heavy"
	flagHighSeverityTitle     = "high_severity_title"
	flagMotiveCertainty       = "motive_certainty_present"
	flagDenseManipulation     = "dense_manipulation"
	vagueAttributionThreshold = 3
	denseDensityThreshold     = 8.0 // detections per ~100 words
)

// buildTransparency assembles the audit summary from every scan plus the
// fix outcome.
func buildTransparency(r *types.PipelineResult) *types.TransparencyPackage {
	tp := &types.TransparencyPackage{
		CountsByCategory: map[string]int{},
		CountsBySeverity: map[int]int{},
	}

	vagueAttributions := 0
	motiveCertainty := false

	scans := []*types.MergedScanResult{r.BodyScan, r.TitleScan, r.DeckScan}
	for _, scan := range scans {
		if scan == nil {
			continue
		}
		tp.TotalDetections += len(scan.Detections)
		for cat, n := range scan.CountsByCategory {
			tp.CountsByCategory[cat] += n
		}
		for sev, n := range scan.CountsBySeverity {
			tp.CountsBySeverity[sev] += n
		}
		for _, d := range scan.Detections {
			if strings.HasPrefix(d.TypeID, "D.1") {
				vagueAttributions++
			}
			if d.TypeID == "E.1.1" || d.TypeID == "E.1.2" {
				motiveCertainty = true
			}
		}
	}

	if r.BodyScan != nil {
		tp.Density = r.BodyScan.Density
	}

	if vagueAttributions >= vagueAttributionThreshold {
		tp.EpistemicFlags = append(tp.EpistemicFlags, flagAnonymousSourceHeavy)
	}
	if r.TitleScan != nil {
		for _, d := range r.TitleScan.Detections {
			if d.Severity >= 4 {
				tp.EpistemicFlags = append(tp.EpistemicFlags, flagHighSeverityTitle)
				break
			}
		}
	}
	if motiveCertainty {
		tp.EpistemicFlags = append(tp.EpistemicFlags, flagMotiveCertainty)
	}
	if tp.Density > denseDensityThreshold {
		tp.EpistemicFlags = append(tp.EpistemicFlags, flagDenseManipulation)
	}

	if r.Fix != nil {
		tp.ChangeCount = len(r.Fix.Changes)
		tp.ModelsUsed = r.Fix.ModelsUsed
	}
	return tp
}
