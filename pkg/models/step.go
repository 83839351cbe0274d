package models

import "time"

// AgentType identifies which class of handler executes a step.
type AgentType string

const (
	AgentResearch AgentType = "research"
	AgentContent  AgentType = "content"
	AgentReview   AgentType = "review"
	AgentDeploy   AgentType = "deploy"
)

// Handler function names dispatched through the registry.
const (
	FunctionIndustryInsights = "industry_insights"
	FunctionGenerateBrief    = "generate_brief"
	FunctionReviewBrief      = "review_brief"
	FunctionGenerateContent  = "generate_content"
	FunctionDeployToTarget   = "deploy_to_target"
	FunctionCoordinateLaunch = "coordinate_launch"
)

// ApprovalStatus tracks the human-approval state machine of a gated step.
type ApprovalStatus string

const (
	ApprovalNotRequired   ApprovalStatus = "not_required"
	ApprovalPendingReview ApprovalStatus = "pending_review"
	ApprovalApproved      ApprovalStatus = "approved"
	ApprovalModified      ApprovalStatus = "modified"
	ApprovalRejected      ApprovalStatus = "rejected"
)

// Parameter keys shared between the builder, executor and handlers.
const (
	ParamTargetName       = "target_name"
	ParamIndustry         = "industry"
	ParamComponent        = "component"
	ParamGoal             = "goal"
	ParamAudience         = "audience"
	ParamReviewerFeedback = "reviewer_feedback"
)

// Step is one schedulable unit of work. Identity, dispatch key and parameters
// are fixed at build time; only the execution and approval state mutates.
type Step struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required"`
	Description string         `json:"description"`
	AgentType   AgentType      `json:"agent_type"  validate:"required"`
	Function    string         `json:"function"    validate:"required"`
	Parameters  map[string]any `json:"parameters"`

	IsCompleted bool       `json:"is_completed"`
	Result      string     `json:"result,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	RequiresHumanApproval bool           `json:"requires_human_approval"`
	ApprovalStatus        ApprovalStatus `json:"approval_status"`
	ApprovalFeedback      string         `json:"approval_feedback,omitempty"`
}

// Complete records the step result. Completion is monotonic: a completed
// step is never re-dispatched, so a second call is ignored.
func (s *Step) Complete(result string) {
	if s.IsCompleted {
		return
	}

	now := time.Now().UTC()
	s.IsCompleted = true
	s.Result = result
	s.CompletedAt = &now
}

// TargetName returns the target this step belongs to, empty for the leading
// research and trailing coordination steps.
func (s *Step) TargetName() string {
	name, _ := s.Parameters[ParamTargetName].(string)

	return name
}

// PendingApproval reports whether the step gates execution right now.
func (s *Step) PendingApproval() bool {
	return s.RequiresHumanApproval && s.ApprovalStatus == ApprovalPendingReview
}
