// Package cmd provides the CLI commands for ragctl.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/irisrag/ragcore/pkg/version"
)

// NewRootCmd creates the root command for the ragctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragctl",
		Short: "Offline retrieval-augmented generation corpus manager",
		Long: `ragctl manages an offline RAG document corpus: ingest files into
a local store, inspect retrieval quality, and serve the corpus to an
LLM client over MCP.

It runs entirely locally with a static hash embedder by default.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("ragctl version {{.Version}}\n")

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
