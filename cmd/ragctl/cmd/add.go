package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/irisrag/ragcore/internal/docsource"
	"github.com/irisrag/ragcore/internal/index"
	"github.com/irisrag/ragcore/internal/ui"
)

func newAddCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "add <path> [path...]",
		Short: "Ingest one or more documents into the corpus",
		Long: `Extract, chunk, embed, and persist one or more local files.

Each path becomes one document, identified by a freshly generated
doc_id. Use --no-tui to force plain text progress output, useful for
CI or when output is piped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAdd(ctx, cmd, args, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable the interactive progress view")
	return cmd
}

func runAdd(ctx context.Context, cmd *cobra.Command, paths []string, noTUI bool) error {
	a, err := newApp(projectDir())
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := ui.NewConfig(cmd.OutOrStdout())
	cfg.ForcePlain = noTUI
	renderer := ui.NewRenderer(cfg)
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("start progress renderer: %w", err)
	}
	defer renderer.Stop()

	jobs := make([]index.Job, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			renderer.AddError(ui.ErrorEvent{Doc: p, Err: err})
			continue
		}
		src := docsource.NewFileSource(abs)
		jobs = append(jobs, index.Job{
			DocID:     uuid.NewString(),
			URI:       abs,
			Name:      src.DisplayName(),
			MIME:      src.MIMEHint(),
			Source:    src,
			CreatedAt: time.Now(),
		})
	}

	start := time.Now()
	total := len(jobs)
	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageExtract, Current: 0, Total: total})

	results := a.repo.AddDocuments(ctx, jobs)

	stats := ui.CompletionStats{}
	for i, res := range results {
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:      ui.StagePersist,
			Current:    i + 1,
			Total:      total,
			CurrentDoc: res.DocID,
		})
		if res.Err != nil {
			renderer.AddError(ui.ErrorEvent{Doc: res.DocID, Err: res.Err})
			stats.Errors++
			continue
		}
		stats.Docs++
		stats.Chunks += res.ChunkCount
	}
	stats.Duration = time.Since(start)
	renderer.Complete(stats)

	if stats.Errors > 0 {
		return fmt.Errorf("%d of %d documents failed to index", stats.Errors, total)
	}
	return nil
}
