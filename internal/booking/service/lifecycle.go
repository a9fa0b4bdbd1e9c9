package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/match"
	"github.com/tolkbridge/booking-be/internal/booking/status"
)

// Accept binds a translator to a pending booking. Losing a concurrent
// acceptance surfaces as ErrNotAcceptable; holding another booking at
// the same due time as ErrAlreadyBooked.
func (s *Service) Accept(ctx context.Context, jobID, translatorID string) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	translator, err := s.store.GetUserByID(ctx, translatorID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return nil, err
	}
	blacklisted, err := s.store.LoadBlacklist(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}
	if !match.Eligible(job, translator, owner.Town, blacklisted) {
		return nil, fmt.Errorf("%w: translator %s does not match booking %s", domain.ErrNotAcceptable, translatorID, jobID)
	}

	if _, err := s.ledger.Bind(ctx, job, translatorID); err != nil {
		return nil, err
	}
	job.UpdatedAt = s.clock.Now()
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Booking accepted",
		slog.String("job_id", job.ID),
		slog.String("translator_id", translatorID),
	)

	s.dispatcher.AcceptedByTranslator(ctx, job, owner)
	return job, nil
}

// Cancel withdraws a booking on behalf of the given user, picking the
// customer or translator path from their role.
func (s *Service) Cancel(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var outcome *status.Outcome
	if user.Role == domain.RoleCustomer {
		outcome, err = status.CancelByCustomer(job, s.clock.Now())
	} else {
		outcome, err = status.CancelByTranslator(job, s.clock.Now())
	}
	if err != nil {
		return nil, err
	}

	if err := s.applyOutcome(ctx, job, outcome, userID); err != nil {
		return nil, err
	}
	return job, nil
}

// End completes a started session, crediting the caller.
func (s *Service) End(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	outcome, err := status.End(job, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.applyOutcome(ctx, job, outcome, userID); err != nil {
		return nil, err
	}
	return job, nil
}

// CustomerNotCall closes a session the customer never showed up for.
// The translator keeps the session credit.
func (s *Service) CustomerNotCall(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	outcome, err := status.CustomerNoShow(job, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.applyOutcome(ctx, job, outcome, userID); err != nil {
		return nil, err
	}
	return job, nil
}

// ExpireOverdue times out every pending booking whose acceptance
// window has passed. Per-job failures are logged and skipped; the
// sweep keeps going.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	jobs, err := s.store.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range jobs {
		job := &jobs[i]
		outcome, err := status.Expire(job, now)
		if err != nil {
			s.logger.Warn("Skipped non-expirable booking",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}
		if err := s.applyOutcome(ctx, job, outcome, ""); err != nil {
			s.logger.Error("Failed to expire booking",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired overdue bookings", slog.Int("count", expired))
	}
	return expired, nil
}

// SendSessionReminders pushes the session-start reminder to both
// parties of every assigned booking due within the reminder lead.
func (s *Service) SendSessionReminders(ctx context.Context) (int, error) {
	now := s.clock.Now()
	jobs, err := s.store.ListJobsNeedingReminder(ctx, now, now.Add(s.policy.ReminderLead))
	if err != nil {
		return 0, err
	}

	reminded := 0
	for i := range jobs {
		job := &jobs[i]

		customer, err := s.store.GetUserByID(ctx, job.UserID)
		if err != nil {
			s.logger.Error("Failed to resolve owner for reminder",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}
		translator, err := s.boundTranslator(ctx, job.ID)
		if err != nil {
			s.logger.Error("Failed to resolve translator for reminder",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}

		s.dispatcher.SessionStartReminder(ctx, job, customer)
		if translator != nil {
			s.dispatcher.SessionStartReminder(ctx, job, translator)
		}

		job.RemindersSent = true
		job.UpdatedAt = now
		if err := s.store.SaveJob(ctx, job); err != nil {
			s.logger.Error("Failed to mark reminder sent",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			continue
		}
		reminded++
	}
	return reminded, nil
}
