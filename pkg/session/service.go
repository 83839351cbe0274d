// Package session orchestrates the campaign session lifecycle: creation, plan
// building, execution passes, approval decisions and resumption.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/eventbus"
	"github.com/planline/planline/pkg/events"
	"github.com/planline/planline/pkg/executor"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
	"github.com/planline/planline/pkg/planner"
	"github.com/planline/planline/pkg/targets"
)

// CampaignRequest creates a new session around a draft campaign.
type CampaignRequest struct {
	Goal       string   `json:"goal"       validate:"required,min=3"`
	Audience   string   `json:"audience"   validate:"required"`
	Components []string `json:"components" validate:"required,min=1,dive,required"`
}

// Status is a point-in-time snapshot of a session's progress.
type Status struct {
	SessionID        string                `json:"session_id"`
	CampaignStatus   models.CampaignStatus `json:"campaign_status"`
	Active           bool                  `json:"active"`
	HasPlan          bool                  `json:"has_plan"`
	TotalSteps       int                   `json:"total_steps"`
	CompletedSteps   int                   `json:"completed_steps"`
	CurrentStepIndex int                   `json:"current_step_index"`
	CurrentStepName  string                `json:"current_step_name,omitempty"`
	PendingApprovals int                   `json:"pending_approvals"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ResumeInfo reports a resumption of a persisted session.
type ResumeInfo struct {
	SessionID  string        `json:"session_id"`
	StaleFor   time.Duration `json:"stale_for"`
	NextAction string        `json:"next_action"`
}

// Service is the single entrypoint for session mutations. Every mutating
// operation takes the session's lock, so at most one writer touches a session
// at a time even with concurrent API calls.
type Service struct {
	store    persistence.Persistence
	builder  *planner.Builder
	executor *executor.Executor
	gate     *approval.Gate
	catalog  *targets.Catalog
	notifier eventbus.EventPublisher
	validate *validator.Validate
	logger   *slog.Logger

	locks sync.Map // session id -> *sync.Mutex
}

func NewService(
	store persistence.Persistence,
	builder *planner.Builder,
	exec *executor.Executor,
	gate *approval.Gate,
	catalog *targets.Catalog,
	notifier eventbus.EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		builder:  builder,
		executor: exec,
		gate:     gate,
		catalog:  catalog,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger.With("module", "session_service"),
	}
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})

	return lock.(*sync.Mutex)
}

// Create starts a new active session with a draft campaign and no plan.
func (s *Service) Create(ctx context.Context, req CampaignRequest) (*models.Session, error) {
	err := s.validate.Struct(req)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign request: %w", err)
	}

	session := &models.Session{
		ID: uuid.New().String(),
		Campaign: &models.Campaign{
			ID:         uuid.New().String(),
			Goal:       req.Goal,
			Audience:   req.Audience,
			Components: append([]string(nil), req.Components...),
			Status:     models.CampaignStatusDraft,
			CreatedAt:  time.Now().UTC(),
		},
		Active: true,
	}

	session.AppendLog("Session created for campaign %q", req.Goal)

	err = s.store.SaveSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	s.logger.InfoContext(ctx, "Created session", "session_id", session.ID, "campaign_id", session.Campaign.ID)

	return session, nil
}

// BuildPlan resolves the named targets and builds the fan-out plan. With an
// existing plan and replace unset this is a no-op returning the current plan;
// with replace set the old plan and all generated content are discarded and a
// fresh plan starts from step zero.
func (s *Service) BuildPlan(ctx context.Context, sessionID string, targetNames []string, replace bool) (*models.Session, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadActive(ctx, "BuildPlan", sessionID)
	if err != nil {
		return nil, err
	}

	if session.Plan != nil && !replace {
		s.logger.InfoContext(ctx, "Plan already exists, keeping it", "session_id", sessionID)

		return session, nil
	}

	names := targetNames
	if len(names) == 0 {
		for _, profile := range s.catalog.All() {
			names = append(names, profile.Name)
		}
	}

	profiles, err := s.catalog.Resolve(names)
	if err != nil {
		return nil, err
	}

	plan, err := s.builder.Build(session.Campaign, profiles)
	if err != nil {
		return nil, err
	}

	if session.Plan != nil {
		session.Campaign.GeneratedContent = nil
		session.Campaign.Status = models.CampaignStatusDraft
		session.Campaign.ExecutedAt = nil
		session.AppendLog("Plan replaced: previous progress and generated content discarded")
	}

	session.Plan = plan
	session.AppendLog("Plan built with %d steps over %d targets", len(plan.Steps), len(profiles))

	err = s.store.SaveSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	return session, nil
}

// ExecutePlan runs one execution pass under the session lock.
func (s *Service) ExecutePlan(ctx context.Context, sessionID string) (*executor.Result, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadActive(ctx, "ExecutePlan", sessionID)
	if err != nil {
		return nil, err
	}

	return s.executor.Execute(ctx, session)
}

// PendingApprovals lists gated steps awaiting review, grouped by target.
func (s *Service) PendingApprovals(ctx context.Context, sessionID string) (map[string][]approval.PendingStep, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.gate.Pending(session), nil
}

// Decide applies a reviewer decision to a target's pending steps and persists
// the result. Execution is not restarted here; the caller triggers the next
// pass explicitly.
func (s *Service) Decide(ctx context.Context, sessionID, targetName string, action approval.Action, feedback string) (*approval.Outcome, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadActive(ctx, "Decide", sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.gate.Decide(session, targetName, action, feedback)
	if err != nil {
		return nil, err
	}

	err = s.store.SaveSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to persist approval decision: %w", err)
	}

	s.notify(ctx, sessionID, events.ApprovalDecided{
		BaseEvent:  events.NewBaseEvent(events.ApprovalDecidedEvent, sessionID),
		TargetName: outcome.TargetName,
		Action:     string(outcome.Action),
		StepIDs:    outcome.StepIDs,
		Feedback:   feedback,
	})

	return outcome, nil
}

// Resume reloads a persisted session and records how long it sat idle. It
// does not execute anything; it reports what the next action would be.
func (s *Service) Resume(ctx context.Context, sessionID string) (*ResumeInfo, error) {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.loadActive(ctx, "Resume", sessionID)
	if err != nil {
		return nil, err
	}

	staleFor := time.Since(session.UpdatedAt)

	session.AppendLog("Session resumed after %s idle", staleFor.Round(time.Second))

	err = s.store.SaveSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to persist resumed session: %w", err)
	}

	s.notify(ctx, sessionID, events.ExecutionResumed{
		BaseEvent:  events.NewBaseEvent(events.ExecutionResumedEvent, sessionID),
		StaleForMs: staleFor.Milliseconds(),
	})

	return &ResumeInfo{
		SessionID:  sessionID,
		StaleFor:   staleFor,
		NextAction: s.nextAction(session),
	}, nil
}

// Status returns a read-only progress snapshot.
func (s *Service) Status(ctx context.Context, sessionID string) (*Status, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	status := &Status{
		SessionID:      session.ID,
		CampaignStatus: session.Campaign.Status,
		Active:         session.Active,
		UpdatedAt:      session.UpdatedAt,
	}

	if session.Plan == nil {
		return status, nil
	}

	status.HasPlan = true
	status.TotalSteps = len(session.Plan.Steps)
	status.CompletedSteps = session.Plan.CompletedSteps()
	status.CurrentStepIndex = session.Plan.CurrentStepIndex

	if current := session.Plan.CurrentStep(); current != nil {
		status.CurrentStepName = current.Name
	}

	for _, group := range s.gate.Pending(session) {
		status.PendingApprovals += len(group)
	}

	return status, nil
}

// Get returns the full session document.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.store.SessionByID(ctx, sessionID)
}

// ListActive returns the ids of all active sessions.
func (s *Service) ListActive(ctx context.Context) ([]string, error) {
	return s.store.ActiveSessionIDs(ctx)
}

// Deactivate marks the session inactive. In-flight passes abort before their
// next dispatch; further mutations are refused.
func (s *Service) Deactivate(ctx context.Context, sessionID string) error {
	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if !session.Active {
		return nil
	}

	session.Active = false
	session.AppendLog("Session deactivated")

	err = s.store.SaveSession(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to persist deactivation: %w", err)
	}

	s.logger.InfoContext(ctx, "Deactivated session", "session_id", sessionID)

	return nil
}

func (s *Service) loadActive(ctx context.Context, op, sessionID string) (*models.Session, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.Active {
		return nil, persistence.NewSessionError(op, sessionID, persistence.ErrSessionInactive)
	}

	return session, nil
}

func (s *Service) nextAction(session *models.Session) string {
	switch {
	case session.Plan == nil:
		return "build a plan"
	case session.Plan.Finished():
		return "plan already completed"
	default:
		if current := session.Plan.CurrentStep(); current != nil && current.PendingApproval() {
			return fmt.Sprintf("awaiting approval for %s", current.TargetName())
		}

		return "run the next execution pass"
	}
}

func (s *Service) notify(ctx context.Context, key string, event eventbus.Event) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish session event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
