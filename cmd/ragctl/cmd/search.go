package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type searchOptions struct {
	topK      int
	threshold float64
	docID     string
	format    string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the top matching chunks for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 8, "Maximum number of results")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0.0, "Similarity score a result must exceed")
	cmd.Flags().StringVar(&opts.docID, "doc", "", "Restrict results to one doc_id")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := newApp(projectDir())
	if err != nil {
		return err
	}
	defer a.Close()

	var filter []string
	if opts.docID != "" {
		filter = []string{opts.docID}
	}

	hits, err := a.repo.Retrieve(cmd.Context(), query, opts.topK, opts.threshold, filter...)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}

	if opts.format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(hits)
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No matching chunks found.")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(out, "%d. [%.4f] %s (chunk %d, doc %s)\n", i+1, h.Score, h.DocName, h.ChunkIndex, h.DocID)
		fmt.Fprintf(out, "   %s\n\n", truncate(h.Text, 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
