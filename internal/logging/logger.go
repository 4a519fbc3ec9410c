// Package logging provides categorized structured logging for NTRL.
// Each subsystem logs under its own category so a single noisy component
// can be silenced without losing the rest. Logging is a no-op until
// Initialize is called; library code never fails because logging failed.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and registry loading
	CategoryAPI          Category = "api"          // LLM API calls
	CategoryPerception   Category = "perception"   // Detectors and scanner
	CategoryArticulation Category = "articulation" // Generators and fixer
	CategoryVerification Category = "verification" // Red-line validator
	CategoryPipeline     Category = "pipeline"     // Scan->fix orchestration, cache
	CategoryBatch        Category = "batch"        // Batch processing
	CategoryTaxonomy     Category = "taxonomy"     // Taxonomy registry
)

// Config controls logger construction.
type Config struct {
	Enabled    bool
	Level      string // debug, info, warn, error
	Dir        string // log directory; empty means stderr only
	JSONFormat bool
	Categories map[string]bool // nil means all enabled
}

var (
	mu      sync.RWMutex
	root    *zap.Logger
	cfg     Config
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the root zap logger. Safe to call more than once;
// the last call wins. Callers that never initialize get no-op loggers.
func Initialize(c Config) error {
	mu.Lock()
	defer mu.Unlock()

	cfg = c
	loggers = make(map[Category]*zap.SugaredLogger)

	if !c.Enabled {
		root = zap.NewNop()
		return nil
	}

	level := zapcore.InfoLevel
	switch c.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if c.JSONFormat {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := zapcore.AddSync(os.Stderr)
	if c.Dir != "" {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("ntrl_%s.log", time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(c.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(f)
	}

	root = zap.New(zapcore.NewCore(encoder, sink, level))
	return nil
}

// Get returns (or creates) the sugared logger for a category.
// Disabled categories get a no-op logger.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	base := root
	if base == nil {
		base = zap.NewNop()
	}
	if cfg.Categories != nil {
		if enabled, ok := cfg.Categories[string(category)]; ok && !enabled {
			base = zap.NewNop()
		}
	}

	l := base.Named(string(category)).Sugar()
	loggers[category] = l
	return l
}

// Sync flushes all buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Infof(format, args...)
}

// API logs to the api category.
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Infof(format, args...)
}

// APIDebug logs debug to the api category.
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debugf(format, args...)
}

// Perception logs to the perception category.
func Perception(format string, args ...interface{}) {
	Get(CategoryPerception).Infof(format, args...)
}

// PerceptionDebug logs debug to the perception category.
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debugf(format, args...)
}

// PerceptionWarn logs warning to the perception category.
func PerceptionWarn(format string, args ...interface{}) {
	Get(CategoryPerception).Warnf(format, args...)
}

// Articulation logs to the articulation category.
func Articulation(format string, args ...interface{}) {
	Get(CategoryArticulation).Infof(format, args...)
}

// ArticulationDebug logs debug to the articulation category.
func ArticulationDebug(format string, args ...interface{}) {
	Get(CategoryArticulation).Debugf(format, args...)
}

// ArticulationWarn logs warning to the articulation category.
func ArticulationWarn(format string, args ...interface{}) {
	Get(CategoryArticulation).Warnf(format, args...)
}

// Verification logs to the verification category.
func Verification(format string, args ...interface{}) {
	Get(CategoryVerification).Infof(format, args...)
}

// VerificationDebug logs debug to the verification category.
func VerificationDebug(format string, args ...interface{}) {
	Get(CategoryVerification).Debugf(format, args...)
}

// Pipeline logs to the pipeline category.
func Pipeline(format string, args ...interface{}) {
	Get(CategoryPipeline).Infof(format, args...)
}

// PipelineDebug logs debug to the pipeline category.
func PipelineDebug(format string, args ...interface{}) {
	Get(CategoryPipeline).Debugf(format, args...)
}

// Batch logs to the batch category.
func Batch(format string, args ...interface{}) {
	Get(CategoryBatch).Infof(format, args...)
}

// BatchDebug logs debug to the batch category.
func BatchDebug(format string, args ...interface{}) {
	Get(CategoryBatch).Debugf(format, args...)
}

// BatchWarn logs warning to the batch category.
func BatchWarn(format string, args ...interface{}) {
	Get(CategoryBatch).Warnf(format, args...)
}

// Taxonomy logs to the taxonomy category.
func Taxonomy(format string, args ...interface{}) {
	Get(CategoryTaxonomy).Infof(format, args...)
}

// TaxonomyWarn logs warning to the taxonomy category.
func TaxonomyWarn(format string, args ...interface{}) {
	Get(CategoryTaxonomy).Warnf(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds the threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warnf("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
