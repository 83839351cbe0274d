// Package approval implements the human approval gate for gated plan steps.
package approval

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/planline/planline/pkg/models"
)

// Action is a reviewer decision.
type Action string

const (
	ActionApprove             Action = "approve"
	ActionApproveWithFeedback Action = "approve_with_feedback"
	ActionReject              Action = "reject"
)

var (
	// ErrNothingPending indicates a decision named a target with no gated
	// steps awaiting review.
	ErrNothingPending = errors.New("nothing pending for target")

	// ErrUnknownAction indicates an unrecognized decision action.
	ErrUnknownAction = errors.New("unknown approval action")
)

// PendingStep is one gated step awaiting review, for presentation.
type PendingStep struct {
	StepID      string `json:"step_id"`
	StepIndex   int    `json:"step_index"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetName  string `json:"target_name"`
}

// Outcome reports what a decision changed.
type Outcome struct {
	TargetName string                `json:"target_name"`
	Action     Action                `json:"action"`
	StepIDs    []string              `json:"step_ids"`
	NewStatus  models.ApprovalStatus `json:"new_status"`
}

// Gate applies reviewer decisions to a session's plan. It only ever mutates
// the approval fields of gated, still-pending steps; the executor reacts to
// the resulting status on its next pass.
type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	return &Gate{logger: logger.With("module", "approval_gate")}
}

// Pending returns all steps currently awaiting review, grouped by target, in
// plan order. Read-only.
func (g *Gate) Pending(session *models.Session) map[string][]PendingStep {
	grouped := make(map[string][]PendingStep)

	if session.Plan == nil {
		return grouped
	}

	for i, step := range session.Plan.Steps {
		if !step.PendingApproval() {
			continue
		}

		target := step.TargetName()
		grouped[target] = append(grouped[target], PendingStep{
			StepID:      step.ID,
			StepIndex:   i,
			Name:        step.Name,
			Description: step.Description,
			TargetName:  target,
		})
	}

	return grouped
}

// Decide applies one reviewer decision to every pending gated step of the
// named target. Transitions:
//
//	approve:                PendingReview -> Approved
//	approve_with_feedback:  PendingReview -> Modified (feedback stored)
//	reject:                 PendingReview -> Rejected (reason stored)
//
// Deciding on a target with nothing pending is an error, not a crash.
func (g *Gate) Decide(session *models.Session, targetName string, action Action, feedback string) (*Outcome, error) {
	if session.Plan == nil {
		return nil, fmt.Errorf("%w: %s", ErrNothingPending, targetName)
	}

	var newStatus models.ApprovalStatus

	switch action {
	case ActionApprove:
		newStatus = models.ApprovalApproved
	case ActionApproveWithFeedback:
		newStatus = models.ApprovalModified
	case ActionReject:
		newStatus = models.ApprovalRejected
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	stepIDs := make([]string, 0)

	for _, step := range session.Plan.Steps {
		if !step.PendingApproval() || step.TargetName() != targetName {
			continue
		}

		step.ApprovalStatus = newStatus
		step.ApprovalFeedback = feedback
		stepIDs = append(stepIDs, step.ID)
	}

	if len(stepIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingPending, targetName)
	}

	session.AppendLog("Reviewer decision %q applied to %d steps for target %s", action, len(stepIDs), targetName)

	g.logger.Info("Applied approval decision",
		"session_id", session.ID,
		"target", targetName,
		"action", action,
		"steps", len(stepIDs),
	)

	return &Outcome{
		TargetName: targetName,
		Action:     action,
		StepIDs:    stepIDs,
		NewStatus:  newStatus,
	}, nil
}

// IsNothingPending checks if an error indicates no pending steps for a target.
func IsNothingPending(err error) bool {
	return errors.Is(err, ErrNothingPending)
}
