package main

import (
	"os"

	"github.com/spf13/cobra"

	"cortexast/internal/chronos"
	"cortexast/internal/logging"
	"cortexast/internal/mcpserver"
	"cortexast/internal/router"
	"cortexast/internal/vectorstore"
	"cortexast/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for editor/agent integration",
	Long: `Start the Model Context Protocol (MCP) server.

The MCP server exposes four tools over stdio JSON-RPC 2.0:
  - cortex_code_explorer:   map_overview, deep_slice
  - cortex_symbol_analyzer: read_source, find_usages, find_implementations,
                             blast_radius, propagation_checklist
  - cortex_chronos:         save_checkpoint, list_checkpoints,
                             compare_checkpoint, delete_checkpoint
  - run_diagnostics:        compiler/type-checker diagnostics

This command is typically invoked by an MCP client, not run directly.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout is reserved for the JSON-RPC stream; logs go to stderr.
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})

	logger.Info("starting MCP server", map[string]interface{}{"version": version.Version})

	repoRoot := mustGetRepoRoot()
	cfg := mustGetConfig(repoRoot)
	registry := newRegistry()
	store := vectorstore.Open(repoRoot, cfg, registry, vectorstore.NewEmbedder())
	chronosStore := chronos.NewStore(repoRoot, cfg.OutputDir, registry)

	r := router.New(repoRoot, cfg, registry, store, chronosStore)
	server := mcpserver.New(r, logger, version.Version)

	if err := server.Serve(); err != nil {
		logger.Error("MCP server error", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}
