package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentKey(t *testing.T) {
	assert.Equal(t, "email_TechCorp", ContentKey("email", "TechCorp"))
	assert.Equal(t, "Brief_FinanceHub", ContentKey("Brief", "FinanceHub"))
}

func TestCampaign_RecordContent(t *testing.T) {
	campaign := &Campaign{ID: "c-1"}

	campaign.RecordContent("email", "TechCorp", "hello")
	campaign.RecordContent("email", "TechCorp", "hello again")

	require.Len(t, campaign.GeneratedContent, 1)
	assert.Equal(t, "hello again", campaign.GeneratedContent["email_TechCorp"])
}

func TestStep_Complete_IsMonotonic(t *testing.T) {
	step := &Step{ID: "s-1", Name: "test step"}

	step.Complete("first result")

	require.True(t, step.IsCompleted)
	require.NotNil(t, step.CompletedAt)

	firstCompletedAt := *step.CompletedAt

	step.Complete("second result")

	assert.Equal(t, "first result", step.Result)
	assert.Equal(t, firstCompletedAt, *step.CompletedAt)
}

func TestStep_TargetName(t *testing.T) {
	withTarget := &Step{Parameters: map[string]any{ParamTargetName: "TechCorp"}}
	assert.Equal(t, "TechCorp", withTarget.TargetName())

	withoutTarget := &Step{Parameters: map[string]any{"industries": []string{"Technology"}}}
	assert.Empty(t, withoutTarget.TargetName())
}

func TestStep_PendingApproval(t *testing.T) {
	step := &Step{RequiresHumanApproval: true, ApprovalStatus: ApprovalPendingReview}
	assert.True(t, step.PendingApproval())

	step.ApprovalStatus = ApprovalApproved
	assert.False(t, step.PendingApproval())

	ungated := &Step{RequiresHumanApproval: false, ApprovalStatus: ApprovalNotRequired}
	assert.False(t, ungated.PendingApproval())
}

func TestPlan_CursorAccessors(t *testing.T) {
	plan := &Plan{
		CampaignID: "c-1",
		Steps: []*Step{
			{ID: "s-1", Name: "first", IsCompleted: true},
			{ID: "s-2", Name: "second"},
		},
		CurrentStepIndex: 1,
	}

	assert.False(t, plan.Finished())
	assert.Equal(t, 1, plan.CompletedSteps())
	require.NotNil(t, plan.CurrentStep())
	assert.Equal(t, "s-2", plan.CurrentStep().ID)

	plan.CurrentStepIndex = 2
	assert.True(t, plan.Finished())
	assert.Nil(t, plan.CurrentStep())
}

func TestSession_AppendLog(t *testing.T) {
	session := &Session{ID: "sess-1"}

	session.AppendLog("step %d done", 3)
	session.AppendLog("paused")

	require.Len(t, session.ExecutionLog, 2)
	assert.Equal(t, "step 3 done", session.ExecutionLog[0].Message)
	assert.False(t, session.ExecutionLog[0].Timestamp.IsZero())
}

func TestSession_RoundTripsThroughJSON(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	session := &Session{
		ID: "sess-1",
		Campaign: &Campaign{
			ID:         "c-1",
			Goal:       "Launch Q3 product",
			Audience:   "CTOs",
			Components: []string{"email"},
			Status:     CampaignStatusInProgress,
		},
		Plan: &Plan{
			CampaignID: "c-1",
			Steps: []*Step{
				{
					ID:        "s-1",
					Name:      "research",
					AgentType: AgentResearch,
					Function:  FunctionIndustryInsights,
					Parameters: map[string]any{
						ParamGoal: "Launch Q3 product",
					},
				},
			},
			CurrentStepIndex: 0,
			CreatedAt:        now,
		},
		Active:    true,
		CreatedAt: now,
	}

	data, err := json.Marshal(session)
	require.NoError(t, err)

	var restored Session

	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, session.ID, restored.ID)
	assert.Equal(t, session.Campaign.Goal, restored.Campaign.Goal)
	require.Len(t, restored.Plan.Steps, 1)
	assert.Equal(t, AgentResearch, restored.Plan.Steps[0].AgentType)
}
