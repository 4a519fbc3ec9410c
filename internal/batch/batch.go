// Package batch adapts pipeline throughput to batch size: direct call
// for one article, bounded fan-out for small batches, sequential chunks
// for large ones. A shared rate limiter keeps the LLM provider happy
// regardless of strategy.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ntrl/internal/config"
	"ntrl/internal/logging"
	"ntrl/internal/types"
)

// Strategy names reported in BatchResult.
const (
	StrategyDirect     = "direct"
	StrategyParallel   = "parallel"
	StrategySequential = "sequential_chunks"
)

// Processor is the slice of the pipeline the batcher needs.
type Processor interface {
	Process(ctx context.Context, body, title, deck string, force bool) (*types.PipelineResult, error)
}

// Batcher routes article batches through a Processor under rate and
// concurrency limits.
type Batcher struct {
	processor Processor
	limiter   *rate.Limiter

	maxConcurrent  int
	chunkSize      int
	maxRetries     int
	retryBackoff   time.Duration
	articleTimeout time.Duration
	batchTimeout   time.Duration
}

// New builds a batcher around a processor. Zero-valued config fields
// fall back to workable defaults rather than panicking later.
func New(processor Processor, cfg config.BatchConfig) *Batcher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 10
	}
	return &Batcher{
		processor:      processor,
		limiter:        rate.NewLimiter(rate.Limit(rps), rps),
		maxConcurrent:  maxConcurrent,
		chunkSize:      chunkSize,
		maxRetries:     cfg.MaxRetries,
		retryBackoff:   cfg.RetryBackoff,
		articleTimeout: cfg.ArticleTimeout,
		batchTimeout:   cfg.BatchTimeout,
	}
}

// ProcessOne runs a single article with the batcher's rate limiting,
// retry, and timeout envelope.
func (b *Batcher) ProcessOne(ctx context.Context, article types.ArticleInput) (*types.PipelineResult, error) {
	if err := article.Validate(); err != nil {
		return nil, err
	}
	return b.processArticle(ctx, article, false)
}

// ProcessBatch runs a batch under the size-selected strategy. Per-article
// failures land in the failure map; siblings always run to completion.
func (b *Batcher) ProcessBatch(ctx context.Context, articles []types.ArticleInput, force bool) *types.BatchResult {
	timer := logging.StartTimer(logging.CategoryBatch, "ProcessBatch")
	defer timer.Stop()
	start := time.Now()

	result := &types.BatchResult{
		TotalArticles: len(articles),
		Results:       map[string]*types.PipelineResult{},
		Failures:      map[string]string{},
	}
	if len(articles) == 0 {
		result.Strategy = StrategyDirect
		return result
	}

	if b.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.batchTimeout)
		defer cancel()
	}

	switch {
	case len(articles) == 1:
		result.Strategy = StrategyDirect
		b.runOne(ctx, articles[0], force, result, nil)
	case len(articles) <= b.maxConcurrent:
		result.Strategy = StrategyParallel
		b.runParallel(ctx, articles, force, result)
	default:
		result.Strategy = StrategySequential
		b.runChunks(ctx, articles, force, result)
	}

	result.Duration = time.Since(start)
	logging.Batch("batch complete: %d/%d ok, strategy=%s, %.2fs",
		result.Successful, result.TotalArticles, result.Strategy,
		result.Duration.Seconds())
	return result
}

// runOne processes one article and records the outcome. mu guards the
// result maps when called from concurrent strategies.
func (b *Batcher) runOne(ctx context.Context, article types.ArticleInput, force bool, result *types.BatchResult, mu *sync.Mutex) {
	pr, err := b.processArticle(ctx, article, force)

	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	if err != nil {
		result.Failed++
		result.Failures[article.ArticleID] = failureString(err)
		return
	}
	result.Successful++
	result.Results[article.ArticleID] = pr
}

func (b *Batcher) runParallel(ctx context.Context, articles []types.ArticleInput, force bool, result *types.BatchResult) {
	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(b.maxConcurrent)
	for _, article := range articles {
		g.Go(func() error {
			b.runOne(ctx, article, force, result, &mu)
			return nil
		})
	}
	_ = g.Wait()
}

// runChunks processes the batch in sequential chunks, each chunk fanned
// out like a small parallel batch, with a breather between chunks.
func (b *Batcher) runChunks(ctx context.Context, articles []types.ArticleInput, force bool, result *types.BatchResult) {
	for offset := 0; offset < len(articles); offset += b.chunkSize {
		end := offset + b.chunkSize
		if end > len(articles) {
			end = len(articles)
		}
		chunk := articles[offset:end]
		logging.BatchDebug("chunk %d-%d of %d", offset, end, len(articles))

		b.runParallel(ctx, chunk, force, result)

		if end < len(articles) {
			select {
			case <-ctx.Done():
				// Mark everything still pending and stop.
				for _, a := range articles[end:] {
					result.Failed++
					result.Failures[a.ArticleID] = failureString(ctx.Err())
				}
				return
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
}

// processArticle applies the per-article envelope: validation, rate
// limit, timeout, retries with fixed backoff.
func (b *Batcher) processArticle(ctx context.Context, article types.ArticleInput, force bool) (*types.PipelineResult, error) {
	if err := article.Validate(); err != nil {
		return nil, err
	}

	attempts := b.maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && b.retryBackoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.retryBackoff):
			}
		}

		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		articleCtx := ctx
		var cancel context.CancelFunc
		if b.articleTimeout > 0 {
			articleCtx, cancel = context.WithTimeout(ctx, b.articleTimeout)
		}
		pr, err := b.processor.Process(articleCtx, article.Body, article.Title, article.Deck, force)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return pr, nil
		}
		lastErr = err
		logging.BatchWarn("article %s attempt %d/%d failed: %v",
			article.ArticleID, attempt+1, attempts, err)

		// The batch context dying is not retryable.
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// failureString normalizes timeout errors to the string the callers and
// dashboards key on.
func failureString(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	return fmt.Sprintf("%v", err)
}
