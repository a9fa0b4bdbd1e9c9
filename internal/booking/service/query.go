package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// JobList is a user's bookings split into emergency and scheduled.
type JobList struct {
	Emergency []domain.Job
	Normal    []domain.Job
}

var activeStatuses = []domain.JobStatus{
	domain.StatusPending,
	domain.StatusAssigned,
	domain.StatusStarted,
}

var historyStatuses = []domain.JobStatus{
	domain.StatusCompleted,
	domain.StatusWithdrawBefore24,
	domain.StatusWithdrawAfter24,
	domain.StatusTimedOut,
	domain.StatusNotCarriedOutCustomer,
}

// GetJob loads one booking.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.store.GetJobByID(ctx, jobID)
}

// ActiveJobs returns a user's live bookings, customers seeing what
// they booked and translators what they are bound to.
func (s *Service) ActiveJobs(ctx context.Context, userID string) (*JobList, error) {
	jobs, err := s.jobsForUser(ctx, userID, activeStatuses)
	if err != nil {
		return nil, err
	}
	list := &JobList{}
	for _, job := range jobs {
		if job.Immediate {
			list.Emergency = append(list.Emergency, job)
		} else {
			list.Normal = append(list.Normal, job)
		}
	}
	return list, nil
}

// JobHistory returns up to limit of a user's finished bookings,
// starting after the (afterDue, afterID) keyset position. A zero
// afterDue starts from the most recent.
func (s *Service) JobHistory(ctx context.Context, userID string, limit int, afterDue time.Time, afterID string) ([]domain.Job, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListJobHistory(ctx, userID, user.Role == domain.RoleTranslator, historyStatuses, limit, afterDue, afterID)
}

func (s *Service) jobsForUser(ctx context.Context, userID string, statuses []domain.JobStatus) ([]domain.Job, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleTranslator {
		return s.store.ListJobsByTranslator(ctx, userID, statuses)
	}
	return s.store.ListJobsByCustomer(ctx, userID, statuses)
}

// PotentialJobs returns the pending bookings a translator is eligible
// to accept.
func (s *Service) PotentialJobs(ctx context.Context, translatorID string) ([]domain.Job, error) {
	translator, err := s.store.GetUserByID(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if translator.Role != domain.RoleTranslator {
		return nil, fmt.Errorf("%w: user %s is not a translator", domain.ErrNotAcceptable, translatorID)
	}
	return s.engine.PotentialJobs(ctx, translator)
}

// ResendNotifications re-broadcasts the booking push to every
// eligible translator.
func (s *Service) ResendNotifications(ctx context.Context, jobID string) error {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}
	s.solicitTranslators(ctx, job, "")
	s.logger.Info("Booking notifications resent", slog.String("job_id", job.ID))
	return nil
}

// ResendSMS re-texts the booking solicitation and reports how many
// translators were reached.
func (s *Service) ResendSMS(ctx context.Context, jobID string) (int, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		return 0, err
	}
	customer, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return 0, err
	}
	translators, err := s.engine.PotentialTranslators(ctx, job)
	if err != nil {
		return 0, err
	}
	sent := s.dispatcher.SMSPotentialTranslators(ctx, job, customer.Town, translators)
	s.logger.Info("Booking SMS resent",
		slog.String("job_id", job.ID),
		slog.Int("sent", sent),
	)
	return sent, nil
}
