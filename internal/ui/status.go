package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// CorpusStatus summarizes the health of an on-disk corpus for `ragctl
// status`.
type CorpusStatus struct {
	CorpusDir   string    `json:"corpus_dir"`
	TotalDocs   int       `json:"total_docs"`
	ReadyDocs   int       `json:"ready_docs"`
	FailedDocs  int       `json:"failed_docs"`
	TotalChunks int       `json:"total_chunks"`
	LastIndexed time.Time `json:"last_indexed"`

	MetaSize  int64 `json:"meta_size"`
	ChunkSize int64 `json:"chunk_size"`
	EmbedSize int64 `json:"embed_size"`
	TotalSize int64 `json:"total_size"`

	EmbedderBackend string `json:"embedder_backend"`
	EmbedderStatus  string `json:"embedder_status"`
	EmbedderDim     int    `json:"embedder_dim,omitempty"`
	RouterLockedDoc string `json:"router_locked_doc,omitempty"`
}

// StatusRenderer displays corpus status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info CorpusStatus) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Corpus Status: "+info.CorpusDir))

	_, _ = fmt.Fprintf(r.out, "  Documents:    %d ready, %d total\n", info.ReadyDocs, info.TotalDocs)
	if info.FailedDocs > 0 {
		_, _ = fmt.Fprintf(r.out, "  Failed:       %s\n", r.styles.Error.Render(fmt.Sprintf("%d", info.FailedDocs)))
	}
	_, _ = fmt.Fprintf(r.out, "  Chunks:       %d\n", info.TotalChunks)
	if !info.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", formatTime(info.LastIndexed))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Storage:")
	_, _ = fmt.Fprintf(r.out, "    Metadata: %s\n", FormatBytes(info.MetaSize))
	_, _ = fmt.Fprintf(r.out, "    Chunks:   %s\n", FormatBytes(info.ChunkSize))
	_, _ = fmt.Fprintf(r.out, "    Vectors:  %s\n", FormatBytes(info.EmbedSize))
	_, _ = fmt.Fprintf(r.out, "    Total:    %s\n", FormatBytes(info.TotalSize))
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Embedder:")
	_, _ = fmt.Fprintf(r.out, "    Backend: %s\n", info.EmbedderBackend)
	_, _ = fmt.Fprintf(r.out, "    Status:  %s\n", r.renderStatus(info.EmbedderStatus))
	if info.EmbedderDim > 0 {
		_, _ = fmt.Fprintf(r.out, "    Dim:     %d\n", info.EmbedderDim)
	}
	_, _ = fmt.Fprintln(r.out)

	if info.RouterLockedDoc != "" {
		_, _ = fmt.Fprintf(r.out, "  Router lock: %s\n", info.RouterLockedDoc)
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info CorpusStatus) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready":
		return r.styles.Success.Render(status)
	case "offline":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
