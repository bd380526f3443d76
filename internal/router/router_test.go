package router

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisrag/ragcore/internal/docstore"
	"github.com/irisrag/ragcore/internal/rag"
	"github.com/irisrag/ragcore/internal/routerstate"
)

type fakeStateStore struct {
	states       map[string]routerstate.ConversationState
	turnCount    int
	clearedCalls int
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]routerstate.ConversationState)}
}

func (f *fakeStateStore) Load(conversationID string) (routerstate.ConversationState, bool, error) {
	s, ok := f.states[conversationID]
	return s, ok, nil
}

func (f *fakeStateStore) Save(state routerstate.ConversationState) error {
	f.states[state.ConversationID] = state
	return nil
}

func (f *fakeStateStore) ClearLock(conversationID string) error {
	f.clearedCalls++
	s := f.states[conversationID]
	s.LockedDocID = ""
	f.states[conversationID] = s
	return nil
}

func (f *fakeStateStore) RecordTurn(conversationID string, docMode, lockReleased bool) error {
	f.turnCount++
	return nil
}

type fakeRetriever struct {
	docs        []docstore.DocRecord
	hitsByDocID map[string][]rag.Hit
	defaultHits []rag.Hit
	retrieveLog []string
}

func (f *fakeRetriever) SnapshotDocs() ([]docstore.DocRecord, error) {
	return f.docs, nil
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int, threshold float64, filterDocID ...string) ([]rag.Hit, error) {
	if len(filterDocID) > 0 && filterDocID[0] != "" {
		f.retrieveLog = append(f.retrieveLog, filterDocID[0])
		return f.hitsByDocID[filterDocID[0]], nil
	}
	f.retrieveLog = append(f.retrieveLog, "")
	return f.defaultHits, nil
}

func (f *fakeRetriever) FallbackTopChunks(docID string, max int) ([]rag.Hit, error) {
	return nil, nil
}

func TestRouterNoReadyDocsPassesThroughUnchanged(t *testing.T) {
	repo := &fakeRetriever{}
	r := New(repo, nil, 8, 0, 4000, 6)

	messages := []Message{{Role: RoleSystem, Content: "you are a helpful assistant"}}
	turn, err := r.BuildTurn(context.Background(), messages, "what is the weather today")
	require.NoError(t, err)

	assert.False(t, turn.DocMode)
	assert.Empty(t, turn.UserVisibleMessage)
	require.Len(t, turn.Messages, 2)
	assert.Equal(t, "what is the weather today", turn.Messages[1].Content)
}

func TestRouterNoReadyDocsButKeywordReturnsStatusMessage(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Status: docstore.StatusIndexing, CreatedAt: 1}},
	}
	r := New(repo, nil, 8, 0, 4000, 6)

	turn, err := r.BuildTurn(context.Background(), nil, "what does the uploaded document say")
	require.NoError(t, err)
	assert.Equal(t, "indexing in progress", turn.UserVisibleMessage)
}

func TestRouterHighScoreInjectsContextAndLocksDoc(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "five years of Go experience", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	r := New(repo, nil, 8, 0, 4000, 6)

	turn, err := r.BuildTurn(context.Background(), nil, "how many years of experience")
	require.NoError(t, err)

	assert.True(t, turn.DocMode)
	assert.Equal(t, "d1", turn.LockedDocID)
	require.NotEmpty(t, turn.Messages)
	last := turn.Messages[len(turn.Messages)-1]
	assert.Contains(t, last.Content, "five years of Go experience")
	assert.Contains(t, last.Content, "[resume.pdf §1]")
	assert.Contains(t, last.Content, "Based ONLY on the document excerpts above, please answer this question:")
	assert.Contains(t, last.Content, "RULES:")
	assert.Contains(t, last.Content, `2. If the answer is not in the excerpts, say "I cannot find this in the uploaded documents."`)
	assert.Contains(t, last.Content, "3. Do NOT repeat the excerpts word-for-word.")
	assert.NotContains(t, last.Content, "Cite the document and chunk number for every factual claim")

	leadInIdx := strings.Index(last.Content, "Based ONLY")
	questionIdx := strings.Index(last.Content, "how many years of experience")
	rulesIdx := strings.Index(last.Content, "RULES:")
	require.True(t, leadInIdx >= 0 && questionIdx > leadInIdx && rulesIdx > questionIdx,
		"expected lead-in, then original question, then RULES, in that order")
}

func TestRouterSubsequentTurnStaysLockedAndFilters(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{
			{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1},
			{DocID: "d2", Name: "cover.pdf", Status: docstore.StatusReady, CreatedAt: 2},
		},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "five years of Go experience", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{
		"d1": {{DocID: "d1", DocName: "resume.pdf", ChunkID: "c1", ChunkIndex: 1, Text: "worked at three companies", Score: 0.4}},
	}
	r := New(repo, nil, 8, 0, 4000, 6)

	_, err := r.BuildTurn(context.Background(), nil, "how many years of experience")
	require.NoError(t, err)

	turn, err := r.BuildTurn(context.Background(), nil, "what companies did they work at")
	require.NoError(t, err)

	assert.Equal(t, "d1", turn.LockedDocID)
	assert.Contains(t, repo.retrieveLog, "d1")
	last := turn.Messages[len(turn.Messages)-1]
	assert.Contains(t, last.Content, "worked at three companies")
}

func TestRouterLowScoreReleasesLock(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "five years of Go experience", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	r := New(repo, nil, 8, 0, 4000, 6)

	_, err := r.BuildTurn(context.Background(), nil, "how many years of experience in the document")
	require.NoError(t, err)
	require.Equal(t, "d1", r.lockedDocID)

	repo.hitsByDocID["d1"] = []rag.Hit{
		{DocID: "d1", DocName: "resume.pdf", ChunkID: "c2", ChunkIndex: 2, Text: "unrelated trivia", Score: 0.1},
	}

	turn, err := r.BuildTurn(context.Background(), nil, "what is your favorite color")
	require.NoError(t, err)

	assert.False(t, turn.DocMode)
	assert.Empty(t, r.lockedDocID)
	assert.Empty(t, turn.LockedDocID)
}

func TestRouterClearLockReleasesImmediately(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "content", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	r := New(repo, nil, 8, 0, 4000, 6)

	_, err := r.BuildTurn(context.Background(), nil, "tell me about the document")
	require.NoError(t, err)
	require.Equal(t, "d1", r.lockedDocID)

	r.ClearLock()
	assert.Empty(t, r.lockedDocID)
}

func TestAttachStateRestoresPersistedLock(t *testing.T) {
	repo := &fakeRetriever{}
	store := newFakeStateStore()
	require.NoError(t, store.Save(routerstate.ConversationState{ConversationID: "conv-1", LockedDocID: "d9"}))

	r := New(repo, nil, 8, 0, 4000, 6)
	require.NoError(t, r.AttachState(store, "conv-1"))
	assert.Equal(t, "d9", r.lockedDocID)
}

func TestBuildTurnPersistsLockAcrossCalls(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "five years of Go experience", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	store := newFakeStateStore()
	r := New(repo, nil, 8, 0, 4000, 6)
	require.NoError(t, r.AttachState(store, "conv-2"))

	_, err := r.BuildTurn(context.Background(), nil, "how many years of experience")
	require.NoError(t, err)

	persisted, found, err := store.Load("conv-2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "d1", persisted.LockedDocID)
	assert.Equal(t, 1, store.turnCount)
}

func TestClearLockAlsoClearsPersistedState(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "resume.pdf", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "resume.pdf", ChunkID: "c0", ChunkIndex: 0, Text: "content", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	store := newFakeStateStore()
	r := New(repo, nil, 8, 0, 4000, 6)
	require.NoError(t, r.AttachState(store, "conv-3"))

	_, err := r.BuildTurn(context.Background(), nil, "tell me about the document")
	require.NoError(t, err)

	r.ClearLock()
	assert.Equal(t, 1, store.clearedCalls)
	persisted, found, err := store.Load("conv-3")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, persisted.LockedDocID)
}

func TestWindowMessagesKeepsSystemPlusLastN(t *testing.T) {
	messages := []Message{{Role: RoleSystem, Content: "sys"}}
	for i := 0; i < 20; i++ {
		messages = append(messages, Message{Role: RoleUser, Content: "msg"})
	}
	windowed := windowMessages(messages, DefaultMessageWindow)
	require.Len(t, windowed, DefaultMessageWindow+1)
	assert.Equal(t, RoleSystem, windowed[0].Role)
}

func TestBuildTurnShrinksWindowWhenOverSoftLimit(t *testing.T) {
	repo := &fakeRetriever{
		docs: []docstore.DocRecord{{DocID: "d1", Name: "doc.txt", Status: docstore.StatusReady, CreatedAt: 1}},
		defaultHits: []rag.Hit{
			{DocID: "d1", DocName: "doc.txt", ChunkID: "c0", ChunkIndex: 0, Text: "relevant excerpt", Score: 0.9},
		},
	}
	repo.hitsByDocID = map[string][]rag.Hit{"d1": repo.defaultHits}
	r := New(repo, nil, 8, 0, 4000, 6)

	big := strings.Repeat("x", 2000)
	var messages []Message
	for i := 0; i < DefaultMessageWindow; i++ {
		messages = append(messages, Message{Role: RoleUser, Content: big})
	}

	turn, err := r.BuildTurn(context.Background(), messages, "tell me about the document")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(turn.Messages), DefaultShrunkWindow+1)
}
