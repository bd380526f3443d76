package router

import (
	"context"
	"strings"
	"sync"

	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/rag"
	"github.com/irisrag/ragcore/internal/routerstate"
)

// StateStore is the subset of routerstate.Store the Router depends on,
// letting a Router persist its lock across process restarts without
// requiring a real sqlite-backed store in tests.
type StateStore interface {
	Load(conversationID string) (routerstate.ConversationState, bool, error)
	Save(state routerstate.ConversationState) error
	ClearLock(conversationID string) error
	RecordTurn(conversationID string, docMode, lockReleased bool) error
}

// Router decides per turn whether to inject document context, tracking
// the locked document across calls to BuildTurn on the same instance
// (spec.md §4.10). One Router should be used per conversation/session.
type Router struct {
	repo      Retriever
	keywords  []string
	topK      int
	threshold float64
	maxChars  int
	perDocCap int

	mu             sync.Mutex
	lockedDocID    string
	state          StateStore
	conversationID string
}

// New builds a Router over a Retriever. keywords defaults to
// DefaultKeywords when nil.
func New(repo Retriever, keywords []string, topK int, threshold float64, maxChars int, perDocCap int) *Router {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	if topK <= 0 {
		topK = 8
	}
	if perDocCap <= 0 {
		perDocCap = 6
	}
	return &Router{repo: repo, keywords: keywords, topK: topK, threshold: threshold, maxChars: maxChars, perDocCap: perDocCap}
}

// AttachState wires a StateStore into the Router, keyed by
// conversationID, and restores any lock persisted from a prior process
// (spec.md §5's requirement that a Router survive a restart mid-
// conversation without losing its lock). Call once, before BuildTurn.
func (r *Router) AttachState(state StateStore, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	r.conversationID = conversationID
	if state == nil {
		return nil
	}
	persisted, found, err := state.Load(conversationID)
	if err != nil {
		return err
	}
	if found {
		r.lockedDocID = persisted.LockedDocID
	}
	return nil
}

// persistState best-effort saves the current lock and turn telemetry.
// Persistence failures must not break the chat turn, so errors are
// swallowed here rather than surfaced to the caller.
func (r *Router) persistState(locked string, bestScore float64, hasKeyword, docMode, released bool) {
	if r.state == nil {
		return
	}
	_ = r.state.Save(routerstate.ConversationState{
		ConversationID: r.conversationID,
		LockedDocID:    locked,
		LastBestScore:  bestScore,
		LastHadKeyword: hasKeyword,
	})
	_ = r.state.RecordTurn(r.conversationID, docMode, released)
}

// ClearLock unconditionally releases any locked document (spec.md §4.10
// "clearing the conversation unconditionally releases the lock").
func (r *Router) ClearLock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockedDocID = ""
	if r.state != nil {
		_ = r.state.ClearLock(r.conversationID)
	}
}

func (r *Router) containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// BuildTurn applies the full decision -> lock -> retrieval -> context ->
// injection -> windowing pipeline for one user turn.
func (r *Router) BuildTurn(ctx context.Context, messages []Message, userText string) (Turn, error) {
	docs, err := r.repo.SnapshotDocs()
	if err != nil {
		return Turn{}, err
	}

	readyDocs := filterReady(docs)
	if len(readyDocs) == 0 {
		if r.containsKeyword(userText) {
			return Turn{UserVisibleMessage: noReadyDocMessage(docs)}, nil
		}
		return r.plainTurn(messages, userText), nil
	}

	r.mu.Lock()
	locked := r.lockedDocID
	r.mu.Unlock()

	var filter []string
	if locked != "" {
		filter = []string{locked}
	}
	hits, err := r.repo.Retrieve(ctx, userText, r.topK, r.threshold, filter...)
	if err != nil {
		return Turn{}, err
	}

	bestScore := -1.0
	if len(hits) > 0 {
		bestScore = hits[0].Score
	}
	hasKeyword := r.containsKeyword(userText)
	useDocs := bestScore > HighConfidenceThreshold || hasKeyword

	released := false
	if locked != "" && bestScore < LockReleaseThreshold && !hasKeyword {
		locked = ""
		released = true
	}

	if !useDocs {
		r.mu.Lock()
		r.lockedDocID = locked
		r.mu.Unlock()
		r.persistState(locked, bestScore, hasKeyword, false, released)
		turn := r.plainTurn(messages, userText)
		turn.LockedDocID = locked
		return turn, nil
	}

	if locked == "" {
		locked = selectLockedDoc(readyDocs, hits)
		if locked != "" {
			refiltered, err := r.repo.Retrieve(ctx, userText, r.topK, r.threshold, locked)
			if err == nil {
				hits = refiltered
				if len(hits) > 0 {
					bestScore = hits[0].Score
				}
			}
		}
	}

	r.mu.Lock()
	r.lockedDocID = locked
	r.mu.Unlock()
	r.persistState(locked, bestScore, hasKeyword, true, released)

	block := rag.BuildContextBlock(hits, r.maxChars, r.perDocCap)
	if strings.TrimSpace(block) == "" {
		block = fallbackInstructionBlock
	}

	windowed := windowMessages(messages, DefaultMessageWindow)
	injected := injectContext(windowed, userText, block)
	if promptSize(injected) > SoftCharLimit {
		windowed = windowMessages(messages, DefaultShrunkWindow)
		injected = injectContext(windowed, userText, block)
	}

	return Turn{Messages: injected, DocMode: true, LockedDocID: locked}, nil
}

func (r *Router) plainTurn(messages []Message, userText string) Turn {
	windowed := windowMessages(messages, DefaultMessageWindow)
	windowed = append(windowed, Message{Role: RoleUser, Content: userText})
	return Turn{Messages: windowed, DocMode: false}
}

func filterReady(docs []docstore.DocRecord) []docstore.DocRecord {
	var out []docstore.DocRecord
	for _, d := range docs {
		if d.Status == docstore.StatusReady {
			out = append(out, d)
		}
	}
	return out
}

// selectLockedDoc prefers the top hit's document; falling back to the
// most recently created READY document when retrieval produced no hits
// (spec.md §4.10 "the most recently created READY doc, or the doc of
// the top hit").
func selectLockedDoc(readyDocs []docstore.DocRecord, hits []rag.Hit) string {
	if len(hits) > 0 {
		return hits[0].DocID
	}
	var latest docstore.DocRecord
	for _, d := range readyDocs {
		if d.CreatedAt >= latest.CreatedAt {
			latest = d
		}
	}
	return latest.DocID
}

func noReadyDocMessage(docs []docstore.DocRecord) string {
	var anyFailed, anyIndexing bool
	for _, d := range docs {
		switch d.Status {
		case docstore.StatusFailed:
			anyFailed = true
		case docstore.StatusIndexing:
			anyIndexing = true
		}
	}
	switch {
	case anyIndexing:
		return "indexing in progress"
	case anyFailed:
		return "indexing failed"
	default:
		return "no documents indexed"
	}
}

const fallbackInstructionBlock = "DOCUMENT CONTEXT (excerpts):\n" +
	"No relevant excerpts were found. Answer \"I cannot find this information in the uploaded documents.\"\n"
