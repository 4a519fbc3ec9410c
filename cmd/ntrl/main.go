package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ntrl/internal/articulation"
	"ntrl/internal/batch"
	"ntrl/internal/config"
	"ntrl/internal/logging"
	"ntrl/internal/perception"
	"ntrl/internal/pipeline"
	"ntrl/internal/taxonomy"
	"ntrl/internal/types"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Per-command flags
	title    string
	deck     string
	force    bool
	scanOnly bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ntrl",
	Short: "NTRL - news manipulation detection and neutralization",
	Long: `NTRL detects manipulative patterns in news text (sensationalism,
loaded language, framing, vague sourcing, narrative motive, omission)
and produces a neutralized rewrite that preserves every fact, together
with a transparency report of what was changed and why.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Enabled = true
			cfg.Logging.Level = "debug"
		}
		if err := logging.Initialize(logging.Config{
			Enabled:    cfg.Logging.Enabled,
			Level:      cfg.Logging.Level,
			Dir:        cfg.Logging.Dir,
			JSONFormat: cfg.Logging.JSONFormat,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.Boot("ntrl %s starting", cfg.Version)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// scanCmd runs detection only.
var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scan an article for manipulation without rewriting it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(args)
		if err != nil {
			return err
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		ctx := signalContext()
		result, err := p.ScanOnly(ctx, body, title)
		if err != nil {
			return err
		}
		return emitJSON(result)
	},
}

// fixCmd runs the full scan -> rewrite -> validate pipeline.
var fixCmd = &cobra.Command{
	Use:   "fix [file]",
	Short: "Scan and neutralize an article",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(args)
		if err != nil {
			return err
		}

		if scanOnly {
			cfg.Pipeline.ScanOnly = true
		}
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		ctx := signalContext()
		result, err := p.Process(ctx, body, title, deck, force)
		if err != nil {
			return err
		}
		return emitJSON(result)
	},
}

// batchCmd processes a JSON array of articles.
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Process a JSON array of articles",
	Long: `Reads a JSON array of article objects:

  [{"article_id": "a1", "title": "...", "deck": "...", "body": "..."}, ...]

and processes them under the size-appropriate strategy (direct, parallel
fan-out, or sequential chunks) with shared rate limiting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read batch file: %w", err)
		}
		var articles []types.ArticleInput
		if err := json.Unmarshal(data, &articles); err != nil {
			return fmt.Errorf("batch file is not a JSON article array: %w", err)
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		b := batch.New(p, cfg.Batch)

		ctx := signalContext()
		result := b.ProcessBatch(ctx, articles, force)
		return emitJSON(result)
	},
}

// taxonomyCmd lists the manipulation catalog.
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the manipulation type catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := taxonomy.NewRegistry()
		return emitJSON(registry.All())
	},
}

// buildPipeline assembles the detector ensemble, fixer, and pipeline
// from one config. The stub provider yields a fully offline pipeline:
// lexical and structural detectors plus the rule-based generator.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := taxonomy.NewRegistry()

	parser, err := perception.NewParser()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize parser: %w", err)
	}

	client, err := perception.NewClientFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}

	detectors := []perception.Detector{
		perception.NewLexicalDetector(registry),
		perception.NewStructuralDetector(parser, registry),
	}
	if cfg.Scanner.EnableSemantic {
		detectors = append(detectors, perception.NewSemanticDetector(client, registry, cfg.Scanner.SemanticCharBudget))
	}

	scanner := perception.NewScanner(registry, detectors,
		perception.WithOverlapThreshold(cfg.Scanner.OverlapThreshold),
		perception.WithScanTimeout(cfg.Scanner.Timeout),
	)

	fixer := articulation.NewFixer(client, cfg.Fixer)
	return pipeline.New(scanner, fixer, cfg.Pipeline), nil
}

// readInput reads the article body from the file argument or stdin.
func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read article: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func emitJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext cancels on SIGINT/SIGTERM so a batch drains cleanly.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config YAML")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	scanCmd.Flags().StringVar(&title, "title", "", "article title")
	fixCmd.Flags().StringVar(&title, "title", "", "article title")
	fixCmd.Flags().StringVar(&deck, "deck", "", "article deck / standfirst")
	fixCmd.Flags().BoolVar(&force, "force", false, "bypass the result cache")
	fixCmd.Flags().BoolVar(&scanOnly, "scan-only", false, "skip the rewrite stage")
	batchCmd.Flags().BoolVar(&force, "force", false, "bypass the result cache")

	rootCmd.AddCommand(scanCmd, fixCmd, batchCmd, taxonomyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
