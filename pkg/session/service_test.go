package session

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/cmd"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/persistence/file"
	"github.com/planline/planline/pkg/planner"
	"github.com/planline/planline/pkg/targets"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())
	registry := cmd.NewRegistry(logger)

	return NewService(
		store,
		planner.NewBuilder(registry, logger),
		executor.NewExecutor(store, registry, logger),
		approval.NewGate(logger),
		targets.NewDefaultCatalog(),
		nil,
		logger,
	)
}

func validRequest() CampaignRequest {
	return CampaignRequest{
		Goal:       "Launch Q3 product",
		Audience:   "CTOs",
		Components: []string{"email"},
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, models.CampaignStatusDraft, created.Campaign.Status)
	assert.Nil(t, created.Plan)

	loaded, err := service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Campaign.Goal, loaded.Campaign.Goal)

	ids, err := service.ListActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, created.ID)
}

func TestService_Create_InvalidRequest(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	_, err := service.Create(ctx, CampaignRequest{Goal: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid campaign request")
}

func TestService_BuildPlan(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	built, err := service.BuildPlan(ctx, created.ID, []string{"TechCorp", "FinanceHub"}, false)
	require.NoError(t, err)
	require.NotNil(t, built.Plan)
	assert.Len(t, built.Plan.Steps, 10)

	// Without replace, a second build keeps the existing plan.
	again, err := service.BuildPlan(ctx, created.ID, []string{"TechCorp"}, false)
	require.NoError(t, err)
	assert.Len(t, again.Plan.Steps, 10)
	assert.Equal(t, built.Plan.Steps[0].ID, again.Plan.Steps[0].ID)
}

func TestService_BuildPlan_ReplaceResetsProgress(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = service.BuildPlan(ctx, created.ID, []string{"TechCorp"}, false)
	require.NoError(t, err)

	// Run up to the gate so there is progress and generated content to discard.
	result, err := service.ExecutePlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, executor.StatusPaused, result.Status)

	replaced, err := service.BuildPlan(ctx, created.ID, []string{"TechCorp", "FinanceHub"}, true)
	require.NoError(t, err)

	assert.Len(t, replaced.Plan.Steps, 10)
	assert.Equal(t, 0, replaced.Plan.CurrentStepIndex)
	assert.Equal(t, 0, replaced.Plan.CompletedSteps())
	assert.Empty(t, replaced.Campaign.GeneratedContent)
	assert.Equal(t, models.CampaignStatusDraft, replaced.Campaign.Status)
}

func TestService_BuildPlan_UnknownTarget(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = service.BuildPlan(ctx, created.ID, []string{"NoSuchCo"}, false)

	require.ErrorIs(t, err, targets.ErrTargetNotFound)
}

func TestService_ExecuteDecideResumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = service.BuildPlan(ctx, created.ID, []string{"TechCorp"}, false)
	require.NoError(t, err)

	result, err := service.ExecutePlan(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, executor.StatusPaused, result.Status)
	assert.Equal(t, "TechCorp", result.PausedStep.TargetName())

	pending, err := service.PendingApprovals(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, pending["TechCorp"], 2)

	outcome, err := service.Decide(ctx, created.ID, "TechCorp", approval.ActionApprove, "")
	require.NoError(t, err)
	assert.Len(t, outcome.StepIDs, 2)

	info, err := service.Resume(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "run the next execution pass", info.NextAction)

	result, err = service.ExecutePlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, executor.StatusCompleted, result.Status)

	status, err := service.Status(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusExecuted, status.CampaignStatus)
	assert.Equal(t, status.TotalSteps, status.CompletedSteps)
	assert.Zero(t, status.PendingApprovals)
}

func TestService_Decide_NothingPending(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = service.BuildPlan(ctx, created.ID, []string{"TechCorp"}, false)
	require.NoError(t, err)

	_, err = service.Decide(ctx, created.ID, "RetailMax", approval.ActionApprove, "")

	require.Error(t, err)
	assert.True(t, approval.IsNothingPending(err))
}

func TestService_Deactivate(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(ctx, created.ID))

	// Idempotent.
	require.NoError(t, service.Deactivate(ctx, created.ID))

	ids, err := service.ListActive(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, created.ID)

	_, err = service.ExecutePlan(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsSessionInactive(err))

	_, err = service.Resume(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsSessionInactive(err))
}

func TestService_Status_NoPlan(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	created, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	status, err := service.Status(ctx, created.ID)
	require.NoError(t, err)

	assert.False(t, status.HasPlan)
	assert.Zero(t, status.TotalSteps)
	assert.True(t, status.Active)
}

func TestService_Status_NotFound(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	_, err := service.Status(ctx, "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsSessionNotFound(err))
}
