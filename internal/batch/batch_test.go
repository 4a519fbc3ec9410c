package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ntrl/internal/config"
	"ntrl/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeProcessor counts calls and simulates failures per article ID.
type fakeProcessor struct {
	mu       sync.Mutex
	calls    map[string]int
	failIDs  map[string]error
	failOnce map[string]error
	delay    time.Duration
	inflight int32
	maxSeen  int32
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		calls:    map[string]int{},
		failIDs:  map[string]error{},
		failOnce: map[string]error{},
	}
}

func (f *fakeProcessor) Process(ctx context.Context, body, title, deck string, force bool) (*types.PipelineResult, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	// Article ID rides in the title for test bookkeeping.
	f.mu.Lock()
	f.calls[title]++
	calls := f.calls[title]
	err := f.failIDs[title]
	if err == nil && calls == 1 {
		err = f.failOnce[title]
	}
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &types.PipelineResult{}, nil
}

func articles(n int) []types.ArticleInput {
	out := make([]types.ArticleInput, n)
	for i := range out {
		id := fmt.Sprintf("art-%d", i)
		out[i] = types.ArticleInput{ArticleID: id, Title: id, Body: "body text"}
	}
	return out
}

func batchConfig() config.BatchConfig {
	return config.BatchConfig{
		MaxConcurrent:     3,
		ChunkSize:         4,
		RequestsPerSecond: 1000,
		MaxRetries:        1,
		RetryBackoff:      time.Millisecond,
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	b := New(newFakeProcessor(), batchConfig())

	result := b.ProcessBatch(context.Background(), nil, false)

	assert.Equal(t, 0, result.TotalArticles)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Results)
}

func TestProcessBatchDirectStrategy(t *testing.T) {
	p := newFakeProcessor()
	b := New(p, batchConfig())

	result := b.ProcessBatch(context.Background(), articles(1), false)

	assert.Equal(t, StrategyDirect, result.Strategy)
	assert.Equal(t, 1, result.Successful)
	require.Contains(t, result.Results, "art-0")
}

func TestProcessBatchParallelStrategy(t *testing.T) {
	p := newFakeProcessor()
	p.delay = 10 * time.Millisecond
	b := New(p, batchConfig())

	result := b.ProcessBatch(context.Background(), articles(3), false)

	assert.Equal(t, StrategyParallel, result.Strategy)
	assert.Equal(t, 3, result.Successful)
	assert.LessOrEqual(t, atomic.LoadInt32(&p.maxSeen), int32(3))
	assert.Greater(t, atomic.LoadInt32(&p.maxSeen), int32(1), "parallel strategy overlaps work")
}

func TestProcessBatchSequentialChunks(t *testing.T) {
	p := newFakeProcessor()
	b := New(p, batchConfig())

	result := b.ProcessBatch(context.Background(), articles(9), false)

	assert.Equal(t, StrategySequential, result.Strategy)
	assert.Equal(t, 9, result.Successful)
	for i := 0; i < 9; i++ {
		assert.Contains(t, result.Results, fmt.Sprintf("art-%d", i))
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&p.maxSeen), int32(3),
		"chunk fan-out stays within MaxConcurrent")
}

func TestProcessBatchFailureIsolation(t *testing.T) {
	p := newFakeProcessor()
	p.failIDs["art-1"] = errors.New("model refused")
	b := New(p, batchConfig())

	result := b.ProcessBatch(context.Background(), articles(3), false)

	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Failures["art-1"], "model refused")
	assert.Contains(t, result.Results, "art-0")
	assert.Contains(t, result.Results, "art-2")
}

func TestProcessBatchRetrySucceeds(t *testing.T) {
	p := newFakeProcessor()
	p.failOnce["art-0"] = errors.New("transient")
	b := New(p, batchConfig())

	result := b.ProcessBatch(context.Background(), articles(1), false)

	assert.Equal(t, 1, result.Successful)
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, 2, p.calls["art-0"], "first attempt failed, retry succeeded")
}

func TestProcessBatchArticleTimeout(t *testing.T) {
	p := newFakeProcessor()
	p.delay = 200 * time.Millisecond
	cfg := batchConfig()
	cfg.ArticleTimeout = 20 * time.Millisecond
	cfg.MaxRetries = 0
	b := New(p, cfg)

	result := b.ProcessBatch(context.Background(), articles(1), false)

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, "Timeout", result.Failures["art-0"])
}

func TestProcessBatchBatchTimeoutMarksPending(t *testing.T) {
	p := newFakeProcessor()
	p.delay = 50 * time.Millisecond
	cfg := batchConfig()
	cfg.MaxConcurrent = 1
	cfg.ChunkSize = 1
	cfg.BatchTimeout = 60 * time.Millisecond
	cfg.MaxRetries = 0
	b := New(p, cfg)

	result := b.ProcessBatch(context.Background(), articles(5), false)

	assert.Equal(t, 5, result.Successful+result.Failed, "every article accounted for")
	assert.Greater(t, result.Failed, 0, "batch timeout marks pending work")
	timeouts := 0
	for _, msg := range result.Failures {
		if msg == "Timeout" {
			timeouts++
		}
	}
	assert.Greater(t, timeouts, 0)
}

func TestProcessOneValidates(t *testing.T) {
	b := New(newFakeProcessor(), batchConfig())

	_, err := b.ProcessOne(context.Background(), types.ArticleInput{ArticleID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "body is required")

	_, err = b.ProcessOne(context.Background(), types.ArticleInput{Body: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "article_id is required")
}

func TestProcessBatchInvalidArticleFails(t *testing.T) {
	p := newFakeProcessor()
	b := New(p, batchConfig())

	arts := articles(2)
	arts[1].Body = ""
	result := b.ProcessBatch(context.Background(), arts, false)

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Failures["art-1"], "body is required")
}
