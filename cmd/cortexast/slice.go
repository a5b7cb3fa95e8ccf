package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cortexast/internal/slicehistory"
	"cortexast/internal/slicer"
	"cortexast/internal/vectorstore"
)

var (
	sliceTarget       string
	sliceQuery        string
	sliceBudgetTokens int
	sliceSkeletonOnly bool
	sliceMaxChars     int
	sliceOutputDir    string
)

var sliceCmd = &cobra.Command{
	Use:   "slice",
	Short: "Write a one-shot token-budgeted repository slice to disk",
	Long: `Run a single deep_slice pass against the resolved repo root and write the
result to "<output_dir>/active_context.xml", alongside an
"active_context.meta.json" sidecar describing the slice (included file
count, estimated tokens, truncation status). Also archives the slice under
the repo's slice_history for later comparison.`,
	RunE: runSlice,
}

// sliceMeta is the ".meta.json" sidecar written next to active_context.xml.
type sliceMeta struct {
	Target          string `json:"target"`
	Query           string `json:"query,omitempty"`
	IncludedFiles   int    `json:"includedFiles"`
	EstimatedTokens int    `json:"estimatedTokens"`
	Truncated       bool   `json:"truncated"`
	GeneratedAtUnix int64  `json:"generatedAtUnix"`
}

func init() {
	sliceCmd.Flags().StringVar(&sliceTarget, "target", "", "subdirectory to slice (default: repo root)")
	sliceCmd.Flags().StringVar(&sliceQuery, "query", "", "optional natural-language query to rank files by relevance")
	sliceCmd.Flags().IntVar(&sliceBudgetTokens, "budget-tokens", 0, "token budget (default: 32000)")
	sliceCmd.Flags().BoolVar(&sliceSkeletonOnly, "skeleton-only", false, "skeletonize every included file regardless of size")
	sliceCmd.Flags().IntVar(&sliceMaxChars, "max-chars", 0, "character cap on the emitted XML (default: config/8000)")
	sliceCmd.Flags().StringVar(&sliceOutputDir, "output-dir", "", "override the config's outputDir for this run")
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	logger := newLogger("human")

	repoRoot := mustGetRepoRoot()
	cfg := mustGetConfig(repoRoot)
	if sliceOutputDir != "" {
		cfg.OutputDir = sliceOutputDir
	}
	registry := newRegistry()
	store := vectorstore.Open(repoRoot, cfg, registry, vectorstore.NewEmbedder())

	result, err := slicer.DeepSlice(repoRoot, cfg, registry, store, slicer.Params{
		Target:       sliceTarget,
		Query:        sliceQuery,
		BudgetTokens: sliceBudgetTokens,
		SkeletonOnly: sliceSkeletonOnly,
		MaxChars:     sliceMaxChars,
	})
	if err != nil {
		return fmt.Errorf("deep_slice failed: %w", err)
	}

	outDir := filepath.Join(repoRoot, cfg.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	xmlPath := filepath.Join(outDir, "active_context.xml")
	if err := os.WriteFile(xmlPath, []byte(result.XML), 0o644); err != nil {
		return fmt.Errorf("write active_context.xml: %w", err)
	}

	now := time.Now().Unix()
	meta := sliceMeta{
		Target:          sliceTarget,
		Query:           sliceQuery,
		IncludedFiles:   result.IncludedFiles,
		EstimatedTokens: result.EstimatedTokens,
		Truncated:       result.Truncated,
		GeneratedAtUnix: now,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal slice metadata: %w", err)
	}
	metaPath := filepath.Join(outDir, "active_context.meta.json")
	if err := os.WriteFile(metaPath, metaBytes, 0o644); err != nil {
		return fmt.Errorf("write active_context.meta.json: %w", err)
	}

	history := slicehistory.Open(repoRoot, cfg.OutputDir)
	if _, err := history.Archive(sliceTarget, result.XML, now); err != nil {
		logger.Warn("failed to archive slice history", map[string]interface{}{"error": err.Error()})
	}

	logger.Info("wrote repository slice", map[string]interface{}{
		"path":            xmlPath,
		"includedFiles":   result.IncludedFiles,
		"estimatedTokens": result.EstimatedTokens,
		"truncated":       result.Truncated,
	})
	fmt.Printf("wrote %s (%d files, ~%d tokens, truncated=%t)\n", xmlPath, result.IncludedFiles, result.EstimatedTokens, result.Truncated)
	return nil
}
