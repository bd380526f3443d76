// Package ui provides terminal UI components for document ingestion
// progress and status display.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents an ingestion pipeline stage, mirroring the names the
// indexing worker reports per document.
type Stage int

const (
	StageExtract Stage = iota
	StageNormalize
	StageChunk
	StageEmbed
	StagePersist
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "Extracting"
	case StageNormalize:
		return "Normalizing"
	case StageChunk:
		return "Chunking"
	case StageEmbed:
		return "Embedding"
	case StagePersist:
		return "Persisting"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage label for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageExtract:
		return "EXTRACT"
	case StageNormalize:
		return "NORM"
	case StageChunk:
		return "CHUNK"
	case StageEmbed:
		return "EMBED"
	case StagePersist:
		return "PERSIST"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent is a single progress update for one document.
type ProgressEvent struct {
	Stage      Stage
	Current    int
	Total      int
	CurrentDoc string
	Message    string
}

// ErrorEvent is a failure or warning encountered for one document.
type ErrorEvent struct {
	Doc    string
	Err    error
	IsWarn bool
}

// CompletionStats summarizes a finished `add` run.
type CompletionStats struct {
	Docs     int
	Chunks   int
	Duration time.Duration
	Errors   int
	Warnings int
}

// Renderer displays ingestion progress to a terminal or log.
type Renderer interface {
	Start(ctx context.Context) error
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
}

// NewConfig builds a Config for output with sane defaults.
func NewConfig(output io.Writer) Config {
	return Config{Output: output}
}

// NewRenderer picks a TUI renderer for interactive terminals and a plain
// text renderer for pipes, CI, or when ForcePlain is set.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain {
		return NewPlainRenderer(cfg)
	}
	if !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}
	if DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks the NO_COLOR environment variable.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks common CI environment variables.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
