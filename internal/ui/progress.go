package ui

import (
	"sync"
	"time"
)

// ProgressTracker manages progress state across an ingestion run. It is
// safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	currentDoc string
	startTime  time.Time
	stageStart time.Time
	errors     []ErrorEvent
	warnings   []ErrorEvent
}

// ProgressStats is a snapshot of current progress.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	ETA        time.Duration
	CurrentDoc string
	ErrorCount int
	WarnCount  int
}

// NewProgressTracker creates a new ProgressTracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{stage: StageExtract, startTime: now, stageStart: now}
}

// SetStage transitions to a new stage.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
	p.total = total
	p.current = 0
	p.currentDoc = ""
	p.stageStart = time.Now()
}

// Update records progress within the current stage.
func (p *ProgressTracker) Update(current int, doc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	if doc != "" {
		p.currentDoc = doc
	}
}

// AddError records a per-document error or warning.
func (p *ProgressTracker) AddError(e ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e.IsWarn {
		p.warnings = append(p.warnings, e)
	} else {
		p.errors = append(p.errors, e)
	}
}

// Stats returns a snapshot of the tracker's current state.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progress float64
	if p.total > 0 {
		progress = float64(p.current) / float64(p.total)
	}

	var eta time.Duration
	if p.current > 0 && p.total > p.current {
		elapsed := time.Since(p.stageStart)
		perItem := elapsed / time.Duration(p.current)
		eta = perItem * time.Duration(p.total-p.current)
	}

	return ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Progress:   progress,
		ETA:        eta,
		CurrentDoc: p.currentDoc,
		ErrorCount: len(p.errors),
		WarnCount:  len(p.warnings),
	}
}

// Elapsed returns the time since the tracker started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}
