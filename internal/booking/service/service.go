// Package service wires the booking core together: it loads state
// through the persistence gateway, runs the pure transition guards,
// applies their outcomes, and hands the resulting notices to the
// dispatcher.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/expiry"
	"github.com/tolkbridge/booking-be/internal/booking/ledger"
	"github.com/tolkbridge/booking-be/internal/booking/match"
	"github.com/tolkbridge/booking-be/internal/booking/notify"
	"github.com/tolkbridge/booking-be/internal/booking/status"
)

// Store is the persistence surface the orchestrator needs, the union
// of the matching and ledger slices plus the job lifecycle queries.
type Store interface {
	match.Store
	ledger.Store

	CreateJob(ctx context.Context, job *domain.Job) error
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	SaveJob(ctx context.Context, job *domain.Job) error
	ListJobsByCustomer(ctx context.Context, customerID string, statuses []domain.JobStatus) ([]domain.Job, error)
	ListJobsByTranslator(ctx context.Context, translatorID string, statuses []domain.JobStatus) ([]domain.Job, error)
	ListJobHistory(ctx context.Context, userID string, asTranslator bool, statuses []domain.JobStatus, limit int, afterDue time.Time, afterID string) ([]domain.Job, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Job, error)
	ListJobsNeedingReminder(ctx context.Context, from, to time.Time) ([]domain.Job, error)
}

// Policy carries the tunable booking timings.
type Policy struct {
	// ImmediateLead is how far ahead an emergency booking is scheduled.
	ImmediateLead time.Duration
	// ReminderLead is how long before due the session reminder goes out.
	ReminderLead time.Duration
}

// Service orchestrates the booking use cases.
type Service struct {
	store      Store
	engine     *match.Engine
	ledger     *ledger.Ledger
	dispatcher *notify.Dispatcher
	clock      domain.Clock
	policy     Policy
	logger     *slog.Logger
}

// New creates the booking service.
func New(store Store, engine *match.Engine, lgr *ledger.Ledger, dispatcher *notify.Dispatcher, clock domain.Clock, policy Policy, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		ledger:     lgr,
		dispatcher: dispatcher,
		clock:      clock,
		policy:     policy,
		logger:     logger,
	}
}

// boundTranslator loads the user holding the job's open assignment,
// or nil when the job has none.
func (s *Service) boundTranslator(ctx context.Context, jobID string) (*domain.User, error) {
	assignment, err := s.store.CurrentAssignment(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.store.GetUserByID(ctx, assignment.UserID)
}

// applyOutcome mutates the job per the outcome, persists it, performs
// the required ledger bookkeeping, and dispatches the notices. The
// translator is resolved before the assignment is closed so late
// notices still reach them.
func (s *Service) applyOutcome(ctx context.Context, job *domain.Job, outcome *status.Outcome, actorID string) error {
	now := s.clock.Now()

	translator, err := s.boundTranslator(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve bound translator: %w", err)
	}

	job.Status = outcome.NewStatus
	job.UpdatedAt = now

	if outcome.ResetCycle {
		job.CreatedAt = now
		job.WillExpireAt = expiry.WillExpireAt(job.Due, now)
		job.RemindersSent = false
	}
	switch outcome.NewStatus {
	case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24:
		job.WithdrawAt = &now
	}
	if outcome.CompleteSession {
		job.EndAt = &now
		if outcome.SessionTime != "" {
			job.SessionTime = outcome.SessionTime
		}
		if _, err := s.ledger.Close(ctx, job.ID, actorID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to close assignment: %w", err)
		}
	} else if outcome.CloseAssignment {
		if err := s.ledger.Release(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to release assignment: %w", err)
		}
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return err
	}

	s.logger.Info("Booking transition applied",
		slog.String("job_id", job.ID),
		slog.String("old_status", string(outcome.OldStatus)),
		slog.String("new_status", string(outcome.NewStatus)),
	)

	s.dispatchNotices(ctx, job, translator, outcome.Notices)
	return nil
}

// dispatchNotices resolves notice audiences to concrete users and
// fans each notice out through the dispatcher. Resolution failures
// are logged and skipped so one bad recipient cannot block the rest.
func (s *Service) dispatchNotices(ctx context.Context, job *domain.Job, translator *domain.User, notices []status.Notice) {
	if len(notices) == 0 {
		return
	}

	customer, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		s.logger.Error("Failed to resolve booking owner for notices",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return
	}

	for _, notice := range notices {
		switch {
		case notice.Type == notify.TypeSuitableJob && notice.Audience == status.AudienceSuitableTranslators:
			s.solicitTranslators(ctx, job, translatorID(translator))

		case notice.Type == notify.TypeJobAccepted && notice.Audience == status.AudienceCustomer:
			s.dispatcher.AcceptedByTranslator(ctx, job, customer)

		case notice.Type == notify.TypeJobReopened && notice.Audience == status.AudienceCustomer:
			s.dispatcher.Reopened(ctx, job, customer)

		case notice.Type == notify.TypeStatusChanged && notice.Audience == status.AudienceCustomer:
			s.dispatcher.StatusChanged(ctx, job, customer)

		case notice.Type == notify.TypeJobCancelled && notice.Audience == status.AudienceCustomer:
			s.dispatcher.StatusChanged(ctx, job, customer)
			s.dispatcher.TranslatorCancelled(ctx, job, customer)

		case notice.Type == notify.TypeJobCancelled && notice.Audience == status.AudienceTranslator:
			if translator != nil {
				s.dispatcher.CancelledToTranslator(ctx, job, translator)
			}

		case notice.Type == notify.TypeJobCancelled && notice.Audience == status.AudienceBoth:
			s.dispatcher.CancellationPair(ctx, job, customer, translator)
			if translator != nil {
				s.dispatcher.CancelledToTranslator(ctx, job, translator)
			}

		case notice.Type == notify.TypeJobExpired && notice.Audience == status.AudienceCustomer:
			s.dispatcher.Expired(ctx, job, customer)

		case notice.Type == notify.TypeSessionEnded && notice.Audience == status.AudienceBoth:
			s.dispatcher.SessionEnded(ctx, job, customer, translator)

		case notice.Type == notify.TypeSessionStart && notice.Audience == status.AudienceBoth:
			s.dispatcher.SessionStartReminder(ctx, job, customer)
			if translator != nil {
				s.dispatcher.SessionStartReminder(ctx, job, translator)
			}

		default:
			s.logger.Warn("Unhandled notice",
				slog.String("job_id", job.ID),
				slog.String("notification_type", string(notice.Type)),
				slog.String("audience", string(notice.Audience)),
			)
		}
	}
}

// solicitTranslators pushes the booking to every eligible translator
// except excludeID.
func (s *Service) solicitTranslators(ctx context.Context, job *domain.Job, excludeID string) {
	translators, err := s.engine.PotentialTranslators(ctx, job)
	if err != nil {
		s.logger.Error("Failed to match translators for booking",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return
	}
	s.dispatcher.NotifySuitableTranslators(ctx, job, translators, excludeID)
}

func translatorID(translator *domain.User) string {
	if translator == nil {
		return ""
	}
	return translator.ID
}
