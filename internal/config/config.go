// Package config holds all NTRL configuration.
// Config is loaded once at startup from YAML, overlaid with environment
// variables, and passed down by value; nothing in the core reads config
// from globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all NTRL configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Scanner configuration
	Scanner ScannerConfig `yaml:"scanner"`

	// Fixer configuration
	Fixer FixerConfig `yaml:"fixer"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Batch configuration
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM clients backing the semantic detector
// and the generators.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, gemini, stub
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
}

// ScannerConfig configures the detection ensemble.
type ScannerConfig struct {
	// OverlapThreshold is the max tolerated overlap ratio between merged
	// spans of the same type (default 0.5).
	OverlapThreshold float64 `yaml:"overlap_threshold"`

	// Timeout bounds a whole scan including the semantic detector call.
	Timeout time.Duration `yaml:"timeout"`

	// SemanticCharBudget truncates text sent to the semantic detector.
	SemanticCharBudget int `yaml:"semantic_char_budget"`

	// EnableSemantic toggles the LLM-backed detector.
	EnableSemantic bool `yaml:"enable_semantic"`
}

// FixerConfig configures rewrite generation and validation.
type FixerConfig struct {
	MaxRetries int  `yaml:"max_retries"`
	Strict     bool `yaml:"strict_validation"`

	// Timeout bounds all three generators plus validation.
	Timeout time.Duration `yaml:"timeout"`
}

// PipelineConfig configures the scan->fix orchestration.
type PipelineConfig struct {
	ScanOnly      bool          `yaml:"scan_only"`
	CacheCapacity int           `yaml:"cache_capacity"`
	Timeout       time.Duration `yaml:"timeout"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent     int           `yaml:"max_concurrent"`
	ChunkSize         int           `yaml:"chunk_size"`
	RequestsPerSecond int           `yaml:"requests_per_second"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	ArticleTimeout    time.Duration `yaml:"article_timeout"`
	BatchTimeout      time.Duration `yaml:"batch_timeout"`
}

// LoggingConfig configures categorized logging.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Level      string          `yaml:"level"`
	Dir        string          `yaml:"dir"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ntrl",
		Version: "0.3.0",
		LLM: LLMConfig{
			Provider:    "stub",
			Model:       "gemini-2.5-flash",
			Timeout:     60 * time.Second,
			MaxTokens:   8192,
			Temperature: 0.2,
		},
		Scanner: ScannerConfig{
			OverlapThreshold:   0.5,
			Timeout:            30 * time.Second,
			SemanticCharBudget: 6000,
			EnableSemantic:     true,
		},
		Fixer: FixerConfig{
			MaxRetries: 2,
			Strict:     false,
			Timeout:    120 * time.Second,
		},
		Pipeline: PipelineConfig{
			ScanOnly:      false,
			CacheCapacity: 1000,
			Timeout:       180 * time.Second,
		},
		Batch: BatchConfig{
			MaxConcurrent:     5,
			ChunkSize:         10,
			RequestsPerSecond: 10,
			MaxRetries:        2,
			RetryBackoff:      2 * time.Second,
			ArticleTimeout:    300 * time.Second,
			BatchTimeout:      30 * time.Minute,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// Load reads a YAML config file, overlaying it on defaults and then
// applying environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deploys inject secrets without touching the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NTRL_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("NTRL_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("NTRL_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("NTRL_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("NTRL_SCAN_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.ScanOnly = b
		}
	}
	if v := os.Getenv("NTRL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
		c.Logging.Enabled = true
	}
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	if c.Scanner.OverlapThreshold <= 0 || c.Scanner.OverlapThreshold > 1 {
		return fmt.Errorf("scanner.overlap_threshold must be in (0,1], got %v", c.Scanner.OverlapThreshold)
	}
	if c.Pipeline.CacheCapacity < 0 {
		return fmt.Errorf("pipeline.cache_capacity must be >= 0, got %d", c.Pipeline.CacheCapacity)
	}
	if c.Batch.MaxConcurrent < 1 {
		return fmt.Errorf("batch.max_concurrent must be >= 1, got %d", c.Batch.MaxConcurrent)
	}
	if c.Batch.ChunkSize < 1 {
		return fmt.Errorf("batch.chunk_size must be >= 1, got %d", c.Batch.ChunkSize)
	}
	if c.Batch.RequestsPerSecond < 1 {
		return fmt.Errorf("batch.requests_per_second must be >= 1, got %d", c.Batch.RequestsPerSecond)
	}
	return nil
}
