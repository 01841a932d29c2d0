package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/conversation"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
)

func testStore(t *testing.T) *SessionStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session := conversation.NewSession("track my emails")
	session.Answers["trigger"] = "On a time-based trigger every hour"
	require.NoError(t, s.Save(ctx, session))

	loaded, err := s.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, conversation.PhaseCollect, loaded.Phase)
	assert.Equal(t, "track my emails", loaded.OriginalRequest)
	assert.Equal(t, session.Answers, loaded.Answers)
}

func TestSave_Upsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session := conversation.NewSession("x")
	require.NoError(t, s.Save(ctx, session))

	session.Phase = conversation.PhaseConfirm
	require.NoError(t, s.Save(ctx, session))

	loaded, err := s.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseConfirm, loaded.Phase)

	summaries, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestLoad_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Load(context.Background(), "missing")
	var nf *errors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestList_MostRecentFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := conversation.NewSession("first")
	second := conversation.NewSession("second")
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))
	// Re-save first so it becomes the most recent.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Save(ctx, first))

	summaries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, first.ID, summaries[0].ID)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session := conversation.NewSession("x")
	require.NoError(t, s.Save(ctx, session))
	require.NoError(t, s.Delete(ctx, session.ID))

	_, err := s.Load(ctx, session.ID)
	assert.Error(t, err)

	assert.NoError(t, s.Delete(ctx, session.ID), "deleting twice is fine")
}
