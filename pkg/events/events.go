// Package events defines event types for session execution notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all session lifecycle events.
const Topic = "planline.sessions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	StepCompletedEvent      EventType = "session.step.completed"
	ExecutionPausedEvent    EventType = "session.execution.paused"
	ExecutionResumedEvent   EventType = "session.execution.resumed"
	ExecutionCompletedEvent EventType = "session.execution.completed"
	ApprovalDecidedEvent    EventType = "session.approval.decided"
	ApprovalReminderEvent   EventType = "session.approval.reminder"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// StepCompleted fires after every step, successful or failed.
type StepCompleted struct {
	BaseEvent

	StepID     string `json:"step_id"`
	StepName   string `json:"step_name"`
	StepIndex  int    `json:"step_index"`
	Failed     bool   `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

// ExecutionPaused fires when a pass halts at a pending approval gate.
type ExecutionPaused struct {
	BaseEvent

	StepID     string `json:"step_id"`
	StepName   string `json:"step_name"`
	StepIndex  int    `json:"step_index"`
	TargetName string `json:"target_name,omitempty"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

// ExecutionResumed fires when a persisted session is reloaded for more work.
type ExecutionResumed struct {
	BaseEvent

	StaleForMs int64 `json:"stale_for_ms"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

// ExecutionCompleted fires when the cursor reaches the end of the plan.
type ExecutionCompleted struct {
	BaseEvent

	StepsExecuted int    `json:"steps_executed"`
	StepsFailed   int    `json:"steps_failed"`
	Summary       string `json:"summary"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ApprovalDecided fires after a reviewer decision is applied.
type ApprovalDecided struct {
	BaseEvent

	TargetName string   `json:"target_name"`
	Action     string   `json:"action"`
	StepIDs    []string `json:"step_ids"`
	Feedback   string   `json:"feedback,omitempty"`
}

func (e ApprovalDecided) GetType() EventType {
	return ApprovalDecidedEvent
}

// ApprovalReminder fires for targets whose gated steps sat pending past the
// reminder threshold.
type ApprovalReminder struct {
	BaseEvent

	TargetName   string `json:"target_name"`
	PendingSteps int    `json:"pending_steps"`
	StaleForMs   int64  `json:"stale_for_ms"`
}

func (e ApprovalReminder) GetType() EventType {
	return ApprovalReminderEvent
}

func NewBaseEvent(eventType EventType, sessionID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}
