package reminder

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/eventbus"
	"github.com/planline/planline/pkg/events"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence/file"
)

type capturingPublisher struct {
	published []eventbus.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func sessionWithPendingApprovals(id string, active bool) *models.Session {
	return &models.Session{
		ID:       id,
		Campaign: &models.Campaign{ID: "c-" + id, Goal: "g", Audience: "a", Components: []string{"email"}},
		Plan: &models.Plan{
			CampaignID: "c-" + id,
			Steps: []*models.Step{
				{
					ID:                    "s-1",
					Name:                  "brief",
					AgentType:             models.AgentContent,
					Function:              models.FunctionGenerateBrief,
					Parameters:            map[string]any{models.ParamTargetName: "TechCorp"},
					RequiresHumanApproval: true,
					ApprovalStatus:        models.ApprovalPendingReview,
				},
				{
					ID:                    "s-2",
					Name:                  "review",
					AgentType:             models.AgentReview,
					Function:              models.FunctionReviewBrief,
					Parameters:            map[string]any{models.ParamTargetName: "TechCorp"},
					RequiresHumanApproval: true,
					ApprovalStatus:        models.ApprovalPendingReview,
				},
			},
		},
		Active: active,
	}
}

func TestSweeper_Sweep_PublishesReminders(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}

	require.NoError(t, store.SaveSession(ctx, sessionWithPendingApprovals("sess-1", true)))

	sweeper := NewSweeper(store, approval.NewGate(testLogger()), publisher, testLogger(),
		WithThreshold(0))

	sweeper.Sweep(ctx)

	require.Len(t, publisher.published, 1)

	reminder, ok := publisher.published[0].(events.ApprovalReminder)
	require.True(t, ok)
	assert.Equal(t, "sess-1", reminder.SessionID)
	assert.Equal(t, "TechCorp", reminder.TargetName)
	assert.Equal(t, 2, reminder.PendingSteps)
}

func TestSweeper_Sweep_RespectsThreshold(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}

	require.NoError(t, store.SaveSession(ctx, sessionWithPendingApprovals("sess-1", true)))

	// The session was just saved, so it is nowhere near an hour stale.
	sweeper := NewSweeper(store, approval.NewGate(testLogger()), publisher, testLogger(),
		WithThreshold(time.Hour))

	sweeper.Sweep(ctx)

	assert.Empty(t, publisher.published)
}

func TestSweeper_Sweep_SkipsInactiveSessions(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}

	require.NoError(t, store.SaveSession(ctx, sessionWithPendingApprovals("sess-1", false)))

	sweeper := NewSweeper(store, approval.NewGate(testLogger()), publisher, testLogger(),
		WithThreshold(0))

	sweeper.Sweep(ctx)

	assert.Empty(t, publisher.published)
}

func TestSweeper_Sweep_NoPendingApprovals(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	publisher := &capturingPublisher{}

	session := sessionWithPendingApprovals("sess-1", true)
	for _, step := range session.Plan.Steps {
		step.ApprovalStatus = models.ApprovalApproved
	}

	require.NoError(t, store.SaveSession(ctx, session))

	sweeper := NewSweeper(store, approval.NewGate(testLogger()), publisher, testLogger(),
		WithThreshold(0))

	sweeper.Sweep(ctx)

	assert.Empty(t, publisher.published)
}
