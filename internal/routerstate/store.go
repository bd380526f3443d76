// Package routerstate persists the Router's per-conversation lock state
// and query telemetry counters across process restarts, scoped to the
// Router's needs (spec.md §4.10) rather than a general session store.
package routerstate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)
)

// ConversationState is the Router's persisted per-conversation state.
type ConversationState struct {
	ConversationID string
	LockedDocID    string
	LastBestScore  float64
	LastHadKeyword bool
}

// Store is a small sqlite-backed key-value store for conversation lock
// state and aggregate retrieval telemetry.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open creates or opens a routerstate database at path. An empty path
// opens an in-memory database, useful for tests.
func Open(path string) (*Store, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("routerstate: create dir %s: %w", dir, err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("routerstate: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("routerstate: pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_state (
		conversation_id TEXT PRIMARY KEY,
		locked_doc_id TEXT NOT NULL DEFAULT '',
		last_best_score REAL NOT NULL DEFAULT 0,
		last_had_keyword INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS retrieval_telemetry (
		conversation_id TEXT PRIMARY KEY,
		turn_count INTEGER NOT NULL DEFAULT 0,
		doc_mode_count INTEGER NOT NULL DEFAULT 0,
		lock_release_count INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("routerstate: init schema: %w", err)
	}
	return nil
}

// Save upserts a conversation's lock state.
func (s *Store) Save(state ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("routerstate: closed")
	}

	keyword := 0
	if state.LastHadKeyword {
		keyword = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO conversation_state (conversation_id, locked_doc_id, last_best_score, last_had_keyword)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			locked_doc_id = excluded.locked_doc_id,
			last_best_score = excluded.last_best_score,
			last_had_keyword = excluded.last_had_keyword
	`, state.ConversationID, state.LockedDocID, state.LastBestScore, keyword)
	if err != nil {
		return fmt.Errorf("routerstate: save: %w", err)
	}
	return nil
}

// Load returns a conversation's persisted lock state, or the zero value
// with found=false if none is stored yet.
func (s *Store) Load(conversationID string) (state ConversationState, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ConversationState{}, false, fmt.Errorf("routerstate: closed")
	}

	var keyword int
	row := s.db.QueryRow(`
		SELECT locked_doc_id, last_best_score, last_had_keyword
		FROM conversation_state WHERE conversation_id = ?
	`, conversationID)
	state.ConversationID = conversationID
	switch err := row.Scan(&state.LockedDocID, &state.LastBestScore, &keyword); err {
	case nil:
		state.LastHadKeyword = keyword != 0
		return state, true, nil
	case sql.ErrNoRows:
		return ConversationState{}, false, nil
	default:
		return ConversationState{}, false, fmt.Errorf("routerstate: load: %w", err)
	}
}

// ClearLock resets a conversation's locked_doc_id to empty, matching the
// Router's "clearing the conversation unconditionally releases the
// lock" rule.
func (s *Store) ClearLock(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("routerstate: closed")
	}
	_, err := s.db.Exec(`UPDATE conversation_state SET locked_doc_id = '' WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("routerstate: clear lock: %w", err)
	}
	return nil
}

// RecordTurn increments a conversation's telemetry counters.
func (s *Store) RecordTurn(conversationID string, docMode, lockReleased bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("routerstate: closed")
	}

	docModeInc, releaseInc := 0, 0
	if docMode {
		docModeInc = 1
	}
	if lockReleased {
		releaseInc = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO retrieval_telemetry (conversation_id, turn_count, doc_mode_count, lock_release_count)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			turn_count = turn_count + 1,
			doc_mode_count = doc_mode_count + excluded.doc_mode_count,
			lock_release_count = lock_release_count + excluded.lock_release_count
	`, conversationID, docModeInc, releaseInc)
	if err != nil {
		return fmt.Errorf("routerstate: record turn: %w", err)
	}
	return nil
}

// Telemetry is a conversation's aggregate retrieval counters.
type Telemetry struct {
	TurnCount        int
	DocModeCount     int
	LockReleaseCount int
}

// LoadTelemetry returns a conversation's aggregate counters, zero-valued
// if none have been recorded yet.
func (s *Store) LoadTelemetry(conversationID string) (Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Telemetry{}, fmt.Errorf("routerstate: closed")
	}

	var t Telemetry
	row := s.db.QueryRow(`
		SELECT turn_count, doc_mode_count, lock_release_count
		FROM retrieval_telemetry WHERE conversation_id = ?
	`, conversationID)
	switch err := row.Scan(&t.TurnCount, &t.DocModeCount, &t.LockReleaseCount); err {
	case nil:
		return t, nil
	case sql.ErrNoRows:
		return Telemetry{}, nil
	default:
		return Telemetry{}, fmt.Errorf("routerstate: load telemetry: %w", err)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}
