package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/expiry"
)

// CreateParams is a new booking request.
type CreateParams struct {
	UserID         string
	FromLanguageID string
	Immediate      bool
	Due            time.Time
	Duration       int
	JobFor         []string
	CustomerPhone  bool
	CustomerOnSite bool
	Town           string
	Reference      string
	UserEmail      string
	ByAdmin        bool
}

// Create validates and stores a booking, then confirms it to the
// customer and solicits every eligible translator by push and SMS.
// Validation stops at the first failing field.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domain.Job, error) {
	customer, err := s.store.GetUserByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers can create bookings", domain.ErrNotAcceptable)
	}

	if params.FromLanguageID == "" {
		return nil, domain.NewValidationError("from_language_id", "you must fill in this field")
	}
	if !params.Immediate {
		if params.Due.IsZero() {
			return nil, domain.NewValidationError("due", "you must fill in this field")
		}
		if !params.Due.After(s.clock.Now()) {
			return nil, domain.NewValidationError("due", "cannot create a booking in the past")
		}
	}
	if !params.CustomerPhone && !params.CustomerOnSite {
		return nil, domain.NewValidationError("customer_phone_type", "you must choose phone, on-site, or both")
	}
	if params.Duration <= 0 {
		return nil, domain.NewValidationError("duration", "you must fill in this field")
	}

	now := s.clock.Now()
	job := &domain.Job{
		ID:             uuid.New().String(),
		UserID:         customer.ID,
		FromLanguageID: params.FromLanguageID,
		Status:         domain.StatusPending,
		Immediate:      params.Immediate,
		Due:            params.Due,
		Duration:       params.Duration,
		CustomerPhone:  params.CustomerPhone,
		CustomerOnSite: params.CustomerOnSite,
		Town:           params.Town,
		JobType:        jobTypeForConsumer(customer.ConsumerType),
		CreatedAt:      now,
		UpdatedAt:      now,
		Reference:      params.Reference,
		UserEmail:      params.UserEmail,
		ByAdmin:        params.ByAdmin,
	}
	job.Gender, job.Certified = deriveJobFor(params.JobFor)

	if job.Immediate {
		// Emergency bookings start right away and always by phone.
		job.Due = now.Add(s.policy.ImmediateLead)
		job.CustomerPhone = true
	}
	job.WillExpireAt = expiry.WillExpireAt(job.Due, now)

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		slog.String("job_id", job.ID),
		slog.String("user_id", customer.ID),
		slog.String("job_type", string(job.JobType)),
		slog.Bool("immediate", job.Immediate),
	)

	s.dispatcher.BookingReceived(ctx, job, customer)
	s.solicitTranslators(ctx, job, "")
	s.smsTranslators(ctx, job, customer)

	return job, nil
}

// jobTypeForConsumer maps the customer's account class to the
// translator pool their bookings draw from.
func jobTypeForConsumer(consumerType domain.ConsumerType) domain.JobType {
	switch consumerType {
	case domain.ConsumerRWS:
		return domain.JobTypeRWS
	case domain.ConsumerNGO:
		return domain.JobTypeUnpaid
	default:
		return domain.JobTypePaid
	}
}

// deriveJobFor reads the requested translator traits off the job_for
// tags.
func deriveJobFor(tags []string) (domain.Gender, domain.Certification) {
	var (
		gender    domain.Gender
		normal    bool
		certified bool
		law       bool
		health    bool
	)
	for _, tag := range tags {
		switch tag {
		case "male":
			gender = domain.GenderMale
		case "female":
			gender = domain.GenderFemale
		case "normal":
			normal = true
		case "certified":
			certified = true
		case "certified_in_law":
			law = true
		case "certified_in_health":
			health = true
		}
	}

	var cert domain.Certification
	switch {
	case normal && certified:
		cert = domain.CertBoth
	case normal && law:
		cert = domain.CertNormalLaw
	case normal && health:
		cert = domain.CertNormalHealth
	case certified:
		cert = domain.CertYes
	case law:
		cert = domain.CertLaw
	case health:
		cert = domain.CertHealth
	case normal:
		cert = domain.CertNormal
	}
	return gender, cert
}

// smsTranslators texts the booking to the eligible translators.
func (s *Service) smsTranslators(ctx context.Context, job *domain.Job, customer *domain.User) {
	translators, err := s.engine.PotentialTranslators(ctx, job)
	if err != nil {
		s.logger.Error("Failed to match translators for SMS",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return
	}
	sent := s.dispatcher.SMSPotentialTranslators(ctx, job, customer.Town, translators)
	s.logger.Info("Booking SMS solicitation sent",
		slog.String("job_id", job.ID),
		slog.Int("sent", sent),
	)
}
