package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/expiry"
	"github.com/tolkbridge/booking-be/internal/booking/status"
)

// UpdateParams is an admin edit of a booking. Zero values leave the
// corresponding field untouched.
type UpdateParams struct {
	Due             *time.Time
	FromLanguageID  string
	TranslatorID    string
	TranslatorEmail string
	Status          domain.JobStatus
	SessionTime     string
	AdminComments   string
	Reference       string
}

// AdminUpdate applies an admin edit: optional reassignment, schedule
// and language moves, and a guarded status change. Change notices go
// out only while the booking still lies in the future.
func (s *Service) AdminUpdate(ctx context.Context, jobID string, params UpdateParams) (*domain.Job, []status.Change, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	customer, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	notifiable := job.Due.After(now)
	var changes []status.Change

	oldTranslator, err := s.boundTranslator(ctx, job.ID)
	if err != nil {
		return nil, nil, err
	}

	reassigned, err := s.ledger.Reassign(ctx, job, params.TranslatorID, params.TranslatorEmail)
	if err != nil {
		return nil, nil, err
	}
	if reassigned.Changed {
		changes = append(changes, status.Change{
			Field: "translator",
			Old:   reassigned.OldTranslatorID,
			New:   reassigned.NewTranslatorID,
		})
	}

	oldDue := job.Due
	if params.Due != nil && !params.Due.Equal(job.Due) {
		job.Due = *params.Due
		job.WillExpireAt = expiry.WillExpireAt(job.Due, job.CreatedAt)
		changes = append(changes, status.Change{
			Field: "due",
			Old:   oldDue.Format(time.RFC3339),
			New:   job.Due.Format(time.RFC3339),
		})
	}

	oldLanguage := job.FromLanguageID
	if params.FromLanguageID != "" && params.FromLanguageID != job.FromLanguageID {
		job.FromLanguageID = params.FromLanguageID
		changes = append(changes, status.Change{
			Field: "from_language_id",
			Old:   oldLanguage,
			New:   job.FromLanguageID,
		})
	}

	if params.AdminComments != "" {
		job.AdminComments = params.AdminComments
	}
	if params.Reference != "" {
		job.Reference = params.Reference
	}

	var outcome *status.Outcome
	if params.Status != "" && params.Status != job.Status {
		outcome, err = status.Transition(job, status.Request{
			Status:            params.Status,
			AdminComments:     params.AdminComments,
			SessionTime:       params.SessionTime,
			TranslatorChanged: reassigned.Changed,
		})
		if err != nil {
			return nil, nil, err
		}
		changes = append(changes, outcome.Changes...)
	}

	if outcome != nil {
		if err := s.applyOutcome(ctx, job, outcome, ""); err != nil {
			return nil, nil, err
		}
	} else {
		job.UpdatedAt = now
		if err := s.store.SaveJob(ctx, job); err != nil {
			return nil, nil, err
		}
	}

	s.logger.Info("Booking updated by admin",
		slog.String("job_id", job.ID),
		slog.Int("changes", len(changes)),
	)

	if notifiable {
		translator, err := s.boundTranslator(ctx, job.ID)
		if err != nil {
			s.logger.Error("Failed to resolve translator for change notices",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
			translator = nil
		}
		for _, change := range changes {
			switch change.Field {
			case "due":
				s.dispatcher.ChangedDate(ctx, job, customer, translator, oldDue)
			case "from_language_id":
				s.dispatcher.ChangedLanguage(ctx, job, customer, translator, oldLanguage)
			case "translator":
				var newTranslator *domain.User
				if reassigned.NewTranslatorID != "" {
					newTranslator, _ = s.store.GetUserByID(ctx, reassigned.NewTranslatorID)
				}
				s.dispatcher.ChangedTranslator(ctx, job, customer, oldTranslator, newTranslator)
			}
		}
	}

	return job, changes, nil
}

// Reopen puts a withdrawn or timed-out booking back on the market. A
// timed-out booking gets a fresh row so its history stays untouched;
// anything else is reset in place. Open assignments are closed either
// way.
func (s *Service) Reopen(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.StatusPending || job.Status == domain.StatusAssigned || job.Status == domain.StatusStarted {
		return nil, fmt.Errorf("%w: booking %s is still active", domain.ErrInvalidTransition, jobID)
	}
	customer, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	if err := s.ledger.Release(ctx, job.ID); err != nil {
		return nil, err
	}

	reopened := job
	if job.Status == domain.StatusTimedOut {
		clone := *job
		clone.ID = uuid.New().String()
		clone.Status = domain.StatusPending
		clone.CreatedAt = now
		clone.UpdatedAt = now
		clone.WillExpireAt = expiry.WillExpireAt(clone.Due, now)
		clone.WithdrawAt = nil
		clone.EndAt = nil
		clone.SessionTime = ""
		clone.RemindersSent = false
		clone.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%s", job.ID)
		if err := s.store.CreateJob(ctx, &clone); err != nil {
			return nil, err
		}
		reopened = &clone
	} else {
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.UpdatedAt = now
		job.WillExpireAt = expiry.WillExpireAt(job.Due, now)
		job.WithdrawAt = nil
		job.EndAt = nil
		job.SessionTime = ""
		job.RemindersSent = false
		if err := s.store.SaveJob(ctx, job); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Booking reopened",
		slog.String("job_id", reopened.ID),
		slog.String("source_job_id", job.ID),
	)

	s.dispatcher.Reopened(ctx, reopened, customer)
	s.solicitTranslators(ctx, reopened, "")

	return reopened, nil
}
