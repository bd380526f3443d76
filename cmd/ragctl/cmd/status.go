package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show corpus and embedder health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	a, err := newApp(projectDir())
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.repo.SnapshotDocs()
	if err != nil {
		return fmt.Errorf("snapshot docs: %w", err)
	}

	status := ui.CorpusStatus{
		CorpusDir:       a.cfg.Store.RootDir,
		TotalDocs:       len(docs),
		EmbedderBackend: embedderBackendLabel(a),
	}
	if a.embedder.Ready(cmd.Context()) {
		status.EmbedderStatus = "ready"
	} else {
		status.EmbedderStatus = "offline"
	}
	status.EmbedderDim = a.embedder.Dimensions()

	var lastIndexed int64
	for _, d := range docs {
		switch d.Status {
		case docstore.StatusReady:
			status.ReadyDocs++
		case docstore.StatusFailed:
			status.FailedDocs++
		}
		if d.CreatedAt > lastIndexed {
			lastIndexed = d.CreatedAt
		}

		stats, err := a.store.DocStats(d.DocID)
		if err != nil {
			continue
		}
		status.TotalChunks += stats.ChunkCount
		status.EmbedSize += stats.EmbeddingBytes
		status.TotalSize += stats.TotalBytes
	}
	status.ChunkSize = status.TotalSize - status.EmbedSize
	if status.ChunkSize < 0 {
		status.ChunkSize = 0
	}
	if lastIndexed > 0 {
		status.LastIndexed = time.UnixMilli(lastIndexed)
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	return renderer.Render(status)
}
