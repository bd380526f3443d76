package routerstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingConversationNotFound(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Load("conv-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	state := ConversationState{ConversationID: "conv-1", LockedDocID: "doc-9", LastBestScore: 0.72, LastHadKeyword: true}
	require.NoError(t, s.Save(state))

	got, found, err := s.Load("conv-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state, got)
}

func TestSaveUpsertsExistingConversation(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ConversationState{ConversationID: "conv-1", LockedDocID: "doc-1"}))
	require.NoError(t, s.Save(ConversationState{ConversationID: "conv-1", LockedDocID: "doc-2", LastBestScore: 0.5}))

	got, found, err := s.Load("conv-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "doc-2", got.LockedDocID)
	assert.Equal(t, 0.5, got.LastBestScore)
}

func TestClearLockResetsLockedDocID(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ConversationState{ConversationID: "conv-1", LockedDocID: "doc-1"}))
	require.NoError(t, s.ClearLock("conv-1"))

	got, found, err := s.Load("conv-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, got.LockedDocID)
}

func TestRecordTurnAccumulatesTelemetry(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.RecordTurn("conv-1", true, false))
	require.NoError(t, s.RecordTurn("conv-1", false, true))
	require.NoError(t, s.RecordTurn("conv-1", true, false))

	tel, err := s.LoadTelemetry("conv-1")
	require.NoError(t, err)
	assert.Equal(t, 3, tel.TurnCount)
	assert.Equal(t, 2, tel.DocModeCount)
	assert.Equal(t, 1, tel.LockReleaseCount)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
