// Package web provides the HTTP API for campaign sessions.
package web

// CreateSessionRequest starts a new session around a draft campaign.
type CreateSessionRequest struct {
	Goal       string   `json:"goal"       validate:"required,min=3"`
	Audience   string   `json:"audience"   validate:"required"`
	Components []string `json:"components" validate:"required,min=1,dive,required"`
}

// BuildPlanRequest builds (or replaces) the session's execution plan. An
// empty target list resolves every catalog target.
type BuildPlanRequest struct {
	TargetNames []string `json:"target_names"`
	Replace     bool     `json:"replace"`
}

// DecideRequest applies a reviewer decision to one target's pending steps.
type DecideRequest struct {
	TargetName string `json:"target_name" validate:"required"`
	Action     string `json:"action"      validate:"required,oneof=approve approve_with_feedback reject"`
	Feedback   string `json:"feedback"    validate:"required_if=Action approve_with_feedback"`
}

// PlanResponse summarizes a built plan without dumping every parameter.
type PlanResponse struct {
	SessionID        string             `json:"session_id"`
	TotalSteps       int                `json:"total_steps"`
	CurrentStepIndex int                `json:"current_step_index"`
	Context          string             `json:"context"`
	Steps            []PlanStepResponse `json:"steps"`
}

// PlanStepResponse is one step in a plan listing.
type PlanStepResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AgentType      string `json:"agent_type"`
	Function       string `json:"function"`
	TargetName     string `json:"target_name,omitempty"`
	Gated          bool   `json:"gated"`
	ApprovalStatus string `json:"approval_status"`
	IsCompleted    bool   `json:"is_completed"`
}

// ExecutionResponse reports the outcome of one execution pass.
type ExecutionResponse struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Summary    string `json:"summary"`
	StepsRun   int    `json:"steps_run"`
	PausedStep string `json:"paused_step,omitempty"`
	PausedFor  string `json:"paused_for_target,omitempty"`
}

// ActiveSessionsResponse lists the ids of active sessions.
type ActiveSessionsResponse struct {
	SessionIDs []string `json:"session_ids"`
	Count      int      `json:"count"`
}
