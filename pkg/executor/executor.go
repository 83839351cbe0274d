// Package executor runs campaign plans step by step from a persistent cursor.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/planline/planline/pkg/eventbus"
	"github.com/planline/planline/pkg/events"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/otelhelper"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/registry"
)

// ErrNoPlan indicates execution was requested for a session without a plan.
var ErrNoPlan = errors.New("session has no plan")

const defaultStepTimeout = 2 * time.Minute

// Status of one execution pass.
type Status string

const (
	StatusCompleted Status = "completed" // Cursor reached the end of the plan
	StatusPaused    Status = "paused"    // Halted at a pending approval gate
)

// Result summarizes one execution pass.
type Result struct {
	Status     Status
	Summary    string
	StepsRun   int
	PausedStep *models.Step
}

// Executor walks a plan from its cursor. Each call is a single pass: it runs
// until the plan finishes, a pending approval gate is reached, or a
// store/session error aborts it. The session is persisted after every step,
// so a torn-down process resumes exactly where it stopped.
//
// The executor assumes the caller holds the session's single-writer lock; it
// never runs two passes over the same session concurrently.
type Executor struct {
	store       persistence.Persistence
	registry    *registry.Registry
	notifier    eventbus.EventPublisher
	tracer      trace.Tracer
	stepTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*Executor)

// WithNotifier attaches a progress event publisher. Publish failures are
// logged and never fail the step.
func WithNotifier(pub eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.notifier = pub
	}
}

// WithTracer enables a span per step dispatch.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithStepTimeout bounds each handler dispatch. Expiry surfaces as a handler
// error and follows the partial-failure path.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.stepTimeout = d
	}
}

func NewExecutor(store persistence.Persistence, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Executor {
	executor := &Executor{
		store:       store,
		registry:    reg,
		stepTimeout: defaultStepTimeout,
		logger:      logger.With("module", "executor"),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs one pass over the session's plan.
//
// Steps execute strictly in order from the cursor. Completed steps are
// skipped, never re-dispatched. A pending-approval gate halts the pass with
// the cursor unmoved. A rejected step completes with the rejection reason
// without touching the registry. A handler error becomes the step result and
// the pass continues; a save error aborts the pass with the in-memory cursor
// rolled back so a retry reloads consistent state.
func (e *Executor) Execute(ctx context.Context, session *models.Session) (*Result, error) {
	logger := e.logger.With("session_id", session.ID)

	if !session.Active {
		return nil, persistence.NewSessionError("Execute", session.ID, persistence.ErrSessionInactive)
	}

	if session.Plan == nil {
		return nil, ErrNoPlan
	}

	plan := session.Plan

	if session.Campaign.Status == models.CampaignStatusDraft {
		session.Campaign.Status = models.CampaignStatusInProgress
	}

	logger.InfoContext(ctx, "Starting execution pass",
		"cursor", plan.CurrentStepIndex,
		"steps", len(plan.Steps),
	)

	stepsRun := 0

	for i := plan.CurrentStepIndex; i < len(plan.Steps); i++ {
		step := plan.Steps[i]

		if step.IsCompleted {
			if plan.CurrentStepIndex == i {
				plan.CurrentStepIndex = i + 1
			}

			continue
		}

		inactive, err := e.sessionDeactivated(ctx, session.ID)
		if err != nil {
			return nil, err
		}

		if inactive {
			logger.InfoContext(ctx, "Session deactivated mid-pass, aborting", "step_index", i)

			return nil, persistence.NewSessionError("Execute", session.ID, persistence.ErrSessionInactive)
		}

		if step.PendingApproval() {
			session.AppendLog("Execution paused at step %d (%s): awaiting approval for %s",
				i, step.Name, step.TargetName())

			err := e.store.SaveSession(ctx, session)
			if err != nil {
				return nil, fmt.Errorf("failed to persist paused session: %w", err)
			}

			e.notify(ctx, session.ID, events.ExecutionPaused{
				BaseEvent:  events.NewBaseEvent(events.ExecutionPausedEvent, session.ID),
				StepID:     step.ID,
				StepName:   step.Name,
				StepIndex:  i,
				TargetName: step.TargetName(),
			})

			logger.InfoContext(ctx, "Paused at approval gate", "step_index", i, "step", step.Name)

			return &Result{
				Status:     StatusPaused,
				Summary:    fmt.Sprintf("Plan paused at step %d of %d awaiting approval: %s", i+1, len(plan.Steps), step.Name),
				StepsRun:   stepsRun,
				PausedStep: step,
			}, nil
		}

		err = e.runStep(ctx, logger, session, step, i)
		if err != nil {
			return nil, err
		}

		stepsRun++
	}

	return e.finishPlan(ctx, logger, session, stepsRun)
}

// runStep dispatches one step (or short-circuits a rejected one), records the
// outcome and persists the session. On save failure the in-memory mutation is
// rolled back before the error propagates.
func (e *Executor) runStep(ctx context.Context, logger *slog.Logger, session *models.Session, step *models.Step, index int) error {
	plan := session.Plan
	snapshot := *step
	prevCursor := plan.CurrentStepIndex
	prevLogLen := len(session.ExecutionLog)

	started := time.Now()
	failed := false

	if step.ApprovalStatus == models.ApprovalRejected {
		reason := step.ApprovalFeedback
		if reason == "" {
			reason = "rejected by reviewer"
		}

		step.Complete(reason)
		session.AppendLog("Step %d (%s) rejected by reviewer: %s", index, step.Name, reason)
		logger.InfoContext(ctx, "Skipping rejected step", "step_index", index, "step", step.Name)
	} else {
		result, err := e.dispatch(ctx, session, step, index)
		if err != nil {
			failed = true

			step.Complete(fmt.Sprintf("step failed: %v", err))
			session.AppendLog("Step %d (%s) failed: %v", index, step.Name, err)
			logger.ErrorContext(ctx, "Step failed, continuing", "step_index", index, "step", step.Name, "error", err)
		} else {
			step.Complete(result)
			e.recordContent(session, step, result)
			session.AppendLog("Step %d (%s) completed", index, step.Name)
			logger.InfoContext(ctx, "Step completed", "step_index", index, "step", step.Name)
		}
	}

	plan.CurrentStepIndex = index + 1

	err := e.store.SaveSession(ctx, session)
	if err != nil {
		// Roll back so a retry reloads consistent state instead of
		// double-advancing past a non-durable completion.
		*step = snapshot
		plan.CurrentStepIndex = prevCursor
		session.ExecutionLog = session.ExecutionLog[:prevLogLen]

		return fmt.Errorf("failed to persist step completion: %w", err)
	}

	e.notify(ctx, session.ID, events.StepCompleted{
		BaseEvent:  events.NewBaseEvent(events.StepCompletedEvent, session.ID),
		StepID:     step.ID,
		StepName:   step.Name,
		StepIndex:  index,
		Failed:     failed,
		DurationMs: time.Since(started).Milliseconds(),
	})

	return nil
}

// dispatch invokes the registry under the step deadline, with feedback from a
// Modified approval threaded into the parameters.
func (e *Executor) dispatch(ctx context.Context, session *models.Session, step *models.Step, index int) (string, error) {
	params := step.Parameters

	if step.ApprovalStatus == models.ApprovalModified && step.ApprovalFeedback != "" {
		params = make(map[string]any, len(step.Parameters)+1)

		for k, v := range step.Parameters {
			params[k] = v
		}

		params[models.ParamReviewerFeedback] = step.ApprovalFeedback
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	if e.tracer != nil {
		var span trace.Span

		dispatchCtx, span = otelhelper.StartSpan(dispatchCtx, e.tracer, "plan.step",
			attribute.String(otelhelper.SessionIDKey, session.ID),
			attribute.String(otelhelper.StepIDKey, step.ID),
			attribute.String(otelhelper.StepNameKey, step.Name),
			attribute.Int(otelhelper.StepIndexKey, index),
			attribute.String(otelhelper.AgentTypeKey, string(step.AgentType)),
			attribute.String(otelhelper.FunctionKey, step.Function),
		)
		defer span.End()

		result, err := e.registry.Dispatch(dispatchCtx, step.AgentType, step.Function, params, session)
		if err != nil {
			otelhelper.SetError(span, err)
		}

		return result, err
	}

	return e.registry.Dispatch(dispatchCtx, step.AgentType, step.Function, params, session)
}

// recordContent writes handler output into the campaign's generated-content
// map for steps that produce target-addressed text.
func (e *Executor) recordContent(session *models.Session, step *models.Step, result string) {
	target := step.TargetName()
	if target == "" {
		return
	}

	switch step.Function {
	case models.FunctionGenerateContent:
		if component, ok := step.Parameters[models.ParamComponent].(string); ok && component != "" {
			session.Campaign.RecordContent(component, target, result)
		}
	case models.FunctionGenerateBrief:
		session.Campaign.RecordContent("Brief", target, result)
	}
}

func (e *Executor) finishPlan(ctx context.Context, logger *slog.Logger, session *models.Session, stepsRun int) (*Result, error) {
	plan := session.Plan

	now := time.Now().UTC()
	session.Campaign.Status = models.CampaignStatusExecuted
	session.Campaign.ExecutedAt = &now

	stepsFailed := 0

	for _, step := range plan.Steps {
		if step.IsCompleted && strings.HasPrefix(step.Result, "step failed:") {
			stepsFailed++
		}
	}

	summary := fmt.Sprintf("Plan completed: %d steps, %d failed", len(plan.Steps), stepsFailed)
	session.AppendLog("%s", summary)

	err := e.store.SaveSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to persist completed session: %w", err)
	}

	e.notify(ctx, session.ID, events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, session.ID),
		StepsExecuted: len(plan.Steps),
		StepsFailed:   stepsFailed,
		Summary:       summary,
	})

	logger.InfoContext(ctx, "Execution pass finished plan", "steps_run", stepsRun, "steps_failed", stepsFailed)

	return &Result{
		Status:   StatusCompleted,
		Summary:  summary,
		StepsRun: stepsRun,
	}, nil
}

// sessionDeactivated re-reads the stored active flag so out-of-band
// deactivation aborts the pass before the next dispatch.
func (e *Executor) sessionDeactivated(ctx context.Context, sessionID string) (bool, error) {
	stored, err := e.store.SessionByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to check session state: %w", err)
	}

	return !stored.Active, nil
}

func (e *Executor) notify(ctx context.Context, key string, event eventbus.Event) {
	if e.notifier == nil {
		return
	}

	err := e.notifier.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish progress event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
