// Package reminder periodically sweeps active sessions and nudges reviewers
// about approvals that sat pending too long.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/planline/planline/pkg/approval"
	"github.com/planline/planline/pkg/eventbus"
	"github.com/planline/planline/pkg/events"
	"github.com/planline/planline/pkg/persistence"
)

const (
	defaultSchedule  = "*/5 * * * *"
	defaultThreshold = 30 * time.Minute
)

// Sweeper walks active sessions on a cron schedule and publishes one
// ApprovalReminder per target whose gated steps outlived the threshold.
type Sweeper struct {
	store     persistence.Persistence
	gate      *approval.Gate
	notifier  eventbus.EventPublisher
	schedule  string
	threshold time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

type Option func(*Sweeper)

// WithSchedule overrides the cron expression (standard 5-field format).
func WithSchedule(schedule string) Option {
	return func(s *Sweeper) {
		s.schedule = schedule
	}
}

// WithThreshold overrides how long an approval may sit pending before a
// reminder fires.
func WithThreshold(d time.Duration) Option {
	return func(s *Sweeper) {
		s.threshold = d
	}
}

func NewSweeper(
	store persistence.Persistence,
	gate *approval.Gate,
	notifier eventbus.EventPublisher,
	logger *slog.Logger,
	opts ...Option,
) *Sweeper {
	sweeper := &Sweeper{
		store:     store,
		gate:      gate,
		notifier:  notifier,
		schedule:  defaultSchedule,
		threshold: defaultThreshold,
		logger:    logger.With("module", "reminder"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	return sweeper
}

// Start schedules the sweep and begins running it. The sweep itself uses the
// given context so a shutdown cancels in-flight store calls.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Reminder sweep scheduled", "schedule", s.schedule, "threshold", s.threshold)

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep runs one pass over all active sessions. Store errors on individual
// sessions are logged and skipped so one bad document never stalls the sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.store.ActiveSessionIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active sessions", "error", err)

		return
	}

	reminders := 0

	for _, id := range ids {
		reminders += s.sweepSession(ctx, id)
	}

	if reminders > 0 {
		s.logger.InfoContext(ctx, "Reminder sweep finished", "sessions", len(ids), "reminders", reminders)
	}
}

func (s *Sweeper) sweepSession(ctx context.Context, sessionID string) int {
	session, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load session during sweep", "session_id", sessionID, "error", err)

		return 0
	}

	staleFor := time.Since(session.UpdatedAt)
	if staleFor < s.threshold {
		return 0
	}

	sent := 0

	for targetName, pending := range s.gate.Pending(session) {
		event := events.ApprovalReminder{
			BaseEvent:    events.NewBaseEvent(events.ApprovalReminderEvent, sessionID),
			TargetName:   targetName,
			PendingSteps: len(pending),
			StaleForMs:   staleFor.Milliseconds(),
		}

		err := s.notifier.Publish(ctx, sessionID, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish approval reminder",
				"session_id", sessionID,
				"target", targetName,
				"error", err,
			)

			continue
		}

		sent++
	}

	return sent
}
