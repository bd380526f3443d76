package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/irisrag/ragcore/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the corpus to an LLM client over MCP (stdio)",
		Long: `Expose add_documents, retrieve, snapshot_docs,
build_context_block, and fallback_top_chunks as MCP tools over a stdio
transport, for use by an MCP-aware client.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(projectDir())
	if err != nil {
		return err
	}
	defer a.Close()

	srv := mcpserver.New(a.repo, a.logger, a.cfg.Context.PerDocCap)
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
