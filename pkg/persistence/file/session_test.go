package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
)

func newTestSession(id string, active bool) *models.Session {
	return &models.Session{
		ID: id,
		Campaign: &models.Campaign{
			ID:         "c-" + id,
			Goal:       "Launch Q3 product",
			Audience:   "CTOs",
			Components: []string{"email"},
			Status:     models.CampaignStatusDraft,
		},
		Active: active,
	}
}

func TestPersistence_SaveAndLoadSession(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	session := newTestSession("sess-1", true)
	session.AppendLog("created")

	require.NoError(t, store.SaveSession(ctx, session))
	assert.False(t, session.CreatedAt.IsZero())
	assert.False(t, session.UpdatedAt.IsZero())

	loaded, err := store.SessionByID(ctx, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "Launch Q3 product", loaded.Campaign.Goal)
	require.Len(t, loaded.ExecutionLog, 1)
	assert.Equal(t, "created", loaded.ExecutionLog[0].Message)
}

func TestPersistence_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	_, err := store.SessionByID(ctx, "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsSessionNotFound(err))
}

func TestPersistence_ActiveIndex(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.SaveSession(ctx, newTestSession("sess-b", true)))
	require.NoError(t, store.SaveSession(ctx, newTestSession("sess-a", true)))
	require.NoError(t, store.SaveSession(ctx, newTestSession("sess-c", false)))

	ids, err := store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-a", "sess-b"}, ids)

	// Deactivating removes the id from the index.
	deactivated := newTestSession("sess-a", false)
	require.NoError(t, store.SaveSession(ctx, deactivated))

	ids, err = store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-b"}, ids)
}

func TestPersistence_SaveOverwritesDocument(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	session := newTestSession("sess-1", true)
	require.NoError(t, store.SaveSession(ctx, session))

	created := session.CreatedAt

	session.Campaign.Status = models.CampaignStatusInProgress
	session.AppendLog("started")
	require.NoError(t, store.SaveSession(ctx, session))

	loaded, err := store.SessionByID(ctx, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusInProgress, loaded.Campaign.Status)
	assert.Equal(t, created.Unix(), loaded.CreatedAt.Unix())
	require.Len(t, loaded.ExecutionLog, 1)
}

func TestPersistence_StripsFileURLPrefix(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewPersistence("file://" + root)

	require.NoError(t, store.SaveSession(ctx, newTestSession("sess-1", true)))

	loaded, err := store.SessionByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", loaded.ID)

	require.NoError(t, store.HealthCheck(ctx))
}
