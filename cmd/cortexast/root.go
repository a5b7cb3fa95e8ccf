package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cortexast/internal/config"
	"cortexast/internal/langdriver"
	"cortexast/internal/logging"
	"cortexast/internal/reporoot"
	"cortexast/internal/version"
)

// rootFlag is the --root CLI flag, one link in internal/reporoot's
// priority chain (per-call > initialize > --root > CORTEXAST_ROOT env >
// IDE env > find-up > cwd).
var rootFlag string

var rootCmd = &cobra.Command{
	Use:   "cortexast",
	Short: "CortexAST — AST-accurate, token-efficient repository views for LLM agents",
	Long: `CortexAST serves AST-accurate, token-budgeted slices of a repository to LLM
agents over MCP: repository overviews, symbol-level reads, usage and
implementation search, blast-radius analysis, propagation checklists, and
structural checkpointing.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("cortexast version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "repository root (default: resolved via CORTEXAST_ROOT, IDE env, or the current directory)")
}

// mustGetRepoRoot resolves the repo root or exits on error.
func mustGetRepoRoot() string {
	root, err := reporoot.Resolve(reporoot.Params{CLIRootFlag: rootFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// mustGetConfig loads .cortexast.json from the resolved repo root or exits.
func mustGetConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(format logging.Format) *logging.Logger {
	return logging.NewLogger(logging.Config{Format: format, Level: logging.InfoLevel})
}

func newRegistry() *langdriver.Registry {
	return langdriver.NewRegistry()
}
