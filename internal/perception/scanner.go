package perception

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"ntrl/internal/logging"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

// Scanner fans the detection ensemble out concurrently and merges the
// resulting spans into one deduplicated, severity-weighted list.
type Scanner struct {
	detectors []Detector
	registry  *taxonomy.Registry
	threshold float64
	timeout   time.Duration
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithOverlapThreshold overrides the default 0.5 overlap threshold.
func WithOverlapThreshold(t float64) ScannerOption {
	return func(s *Scanner) {
		if t > 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithScanTimeout bounds a whole scan including the semantic call.
func WithScanTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScanner creates a scanner over the given detectors.
func NewScanner(registry *taxonomy.Registry, detectors []Detector, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		detectors: detectors,
		registry:  registry,
		threshold: 0.5,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs every detector concurrently under one overall timeout. A
// detector that errors or times out degrades to "found nothing"; the
// scan itself only fails if the caller's context is already dead.
func (s *Scanner) Scan(ctx context.Context, text string, segment types.Segment) (*types.MergedScanResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make([]*types.ScanResult, len(s.detectors))
	g, gctx := errgroup.WithContext(scanCtx)
	for i, det := range s.detectors {
		g.Go(func() error {
			r, err := det.Detect(gctx, text, segment)
			if err != nil {
				logging.PerceptionWarn("%s detector failed, degrading to empty: %v", det.Source(), err)
				r = &types.ScanResult{Segment: segment, Source: det.Source(), Failed: true}
			}
			results[i] = r
			return nil // detector failure is data, never group failure
		})
	}
	_ = g.Wait()

	var all []types.DetectionInstance
	timings := make(map[types.DetectorSource]time.Duration, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		timings[r.Source] = r.Duration
		all = append(all, r.Detections...)
	}

	merged := MergeDetections(all, s.threshold, s.registry)

	// Weight severities by segment prominence, then restore positional order.
	mult := segment.Multiplier()
	for i := range merged {
		merged[i].SeverityWeighted = merged[i].Severity * mult
	}
	sortByPosition(merged)

	out := &types.MergedScanResult{
		Segment:         segment,
		Text:            text,
		Detections:      merged,
		DetectorTimings: timings,
		Duration:        time.Since(start),
	}
	s.summarize(out, text)

	logging.Perception("scan %s: %d raw -> %d merged detections (%v)",
		segment, len(all), len(merged), out.Duration)
	return out, nil
}

// MergeDetections deduplicates overlapping spans. Pure function: the
// input slice is not mutated and a fresh slice is returned.
//
// Walking spans in (start,end) order, each candidate is compared against
// every accepted span by overlap ratio (intersection over the shorter
// span):
//
//	ratio <= threshold                  -> no conflict
//	same type, ratio >  threshold       -> keep the higher confidence
//	different type, ratio < 0.9         -> keep both
//	different type, ratio >= 0.9        -> keep the higher severity,
//	                                       fold the loser's type into
//	                                       SecondaryTypeIDs
//
// A winning candidate keeps being checked against the remaining accepted
// spans, and may displace several of them; one wide span can subsume a
// chain of narrower ones. The loser is dropped the moment any rule picks
// a winner.
//
// The near-identical tie-break compares severity only, not confidence; a
// higher-confidence lower-severity detection loses. That severity-first
// policy is deliberate.
func MergeDetections(detections []types.DetectionInstance, threshold float64, registry *taxonomy.Registry) []types.DetectionInstance {
	if len(detections) == 0 {
		return nil
	}

	sorted := make([]types.DetectionInstance, len(detections))
	copy(sorted, detections)
	sortByPosition(sorted)

	var accepted []types.DetectionInstance
	for _, cand := range sorted {
		candLost := false
		survivors := make([]types.DetectionInstance, 0, len(accepted)+1)
		for _, acc := range accepted {
			if candLost {
				survivors = append(survivors, acc)
				continue
			}
			ratio := overlapRatio(&cand, &acc)
			switch {
			case ratio <= threshold:
				survivors = append(survivors, acc)
			case cand.TypeID == acc.TypeID:
				if cand.Confidence > acc.Confidence {
					// acc is displaced; cand still has to clear the rest.
				} else {
					candLost = true
					survivors = append(survivors, acc)
				}
			case ratio >= 0.9:
				if cand.Severity > acc.Severity {
					cand.SecondaryTypeIDs = appendUnique(cand.SecondaryTypeIDs, acc.TypeID)
				} else {
					acc.SecondaryTypeIDs = appendUnique(acc.SecondaryTypeIDs, cand.TypeID)
					candLost = true
					survivors = append(survivors, acc)
				}
			default:
				// Different type, partial overlap: both survive.
				survivors = append(survivors, acc)
			}
		}
		if !candLost {
			survivors = append(survivors, cand)
		}
		accepted = survivors
	}
	sortByPosition(accepted)
	return accepted
}

// overlapRatio is intersection length over the shorter span's length.
func overlapRatio(a, b *types.DetectionInstance) float64 {
	lo := max(a.SpanStart, b.SpanStart)
	hi := min(a.SpanEnd, b.SpanEnd)
	if hi <= lo {
		return 0
	}
	shorter := min(a.SpanEnd-a.SpanStart, b.SpanEnd-b.SpanStart)
	if shorter == 0 {
		return 0
	}
	return float64(hi-lo) / float64(shorter)
}

func sortByPosition(dets []types.DetectionInstance) {
	sort.SliceStable(dets, func(i, j int) bool {
		if dets[i].SpanStart != dets[j].SpanStart {
			return dets[i].SpanStart < dets[j].SpanStart
		}
		return dets[i].SpanEnd < dets[j].SpanEnd
	})
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// summarize fills the per-scan stats: counts by category and severity,
// and density per ~5-char word estimate, scaled by 100.
func (s *Scanner) summarize(r *types.MergedScanResult, text string) {
	r.CountsByCategory = make(map[string]int)
	r.CountsBySeverity = make(map[int]int)
	for i := range r.Detections {
		r.CountsByCategory[s.registry.Category(r.Detections[i].TypeID)]++
		r.CountsBySeverity[int(r.Detections[i].Severity)]++
	}
	wordEstimate := float64(len(text)) / 5.0
	if wordEstimate > 0 {
		r.Density = float64(len(r.Detections)) / wordEstimate * 100.0
	}
}
