package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// TranslatorCriteria narrows the candidate translator query. The
// store applies what it can; the Engine re-checks everything with the
// Eligible predicate so the result never depends on how much the
// store narrowed.
type TranslatorCriteria struct {
	Type       domain.TranslatorType
	LanguageID string
	Gender     domain.Gender
	Levels     []domain.TranslatorLevel
	ExcludeIDs []string
}

// JobCriteria narrows the candidate job query for a translator.
type JobCriteria struct {
	JobType   domain.JobType
	Languages []string
	Status    domain.JobStatus
}

// Store is the slice of the persistence gateway the Engine needs.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	QueryTranslators(ctx context.Context, criteria TranslatorCriteria) ([]domain.User, error)
	ListJobs(ctx context.Context, criteria JobCriteria) ([]domain.Job, error)
	LoadBlacklist(ctx context.Context, customerID string) ([]string, error)
}

// Engine enumerates eligible translators for a job and eligible jobs
// for a translator.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// NewEngine creates a matching engine over the given store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// JobTypeFor maps a translator class back to the job type it serves.
func JobTypeFor(t domain.TranslatorType) domain.JobType {
	switch t {
	case domain.TranslatorProfessional:
		return domain.JobTypePaid
	case domain.TranslatorRWS:
		return domain.JobTypeRWS
	default:
		return domain.JobTypeUnpaid
	}
}

// PotentialTranslators returns every active translator eligible for
// the job, with the owner's blacklist applied.
func (e *Engine) PotentialTranslators(ctx context.Context, job *domain.Job) ([]domain.User, error) {
	owner, err := e.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job owner: %w", err)
	}

	blacklisted, err := e.store.LoadBlacklist(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	candidates, err := e.store.QueryTranslators(ctx, TranslatorCriteria{
		Type:       RequiredTranslatorType(job.JobType),
		LanguageID: job.FromLanguageID,
		Gender:     job.Gender,
		Levels:     AcceptableLevels(job.Certified),
		ExcludeIDs: blacklisted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query translators: %w", err)
	}

	eligible := make([]domain.User, 0, len(candidates))
	for i := range candidates {
		if Eligible(job, &candidates[i], owner.Town, blacklisted) {
			eligible = append(eligible, candidates[i])
		}
	}

	e.logger.Debug("Matched translators for job",
		slog.String("job_id", job.ID),
		slog.Int("candidates", len(candidates)),
		slog.Int("eligible", len(eligible)),
	)

	return eligible, nil
}

// PotentialJobs returns every pending job the translator is eligible
// to accept.
func (e *Engine) PotentialJobs(ctx context.Context, translator *domain.User) ([]domain.Job, error) {
	jobs, err := e.store.ListJobs(ctx, JobCriteria{
		JobType:   JobTypeFor(translator.TranslatorType),
		Languages: translator.Languages,
		Status:    domain.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	eligible := make([]domain.Job, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		owner, err := e.store.GetUserByID(ctx, job.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load owner of job %s: %w", job.ID, err)
		}
		blacklisted, err := e.store.LoadBlacklist(ctx, job.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load blacklist of job %s: %w", job.ID, err)
		}
		if Eligible(job, translator, owner.Town, blacklisted) {
			eligible = append(eligible, jobs[i])
		}
	}

	e.logger.Debug("Matched jobs for translator",
		slog.String("translator_id", translator.ID),
		slog.Int("candidates", len(jobs)),
		slog.Int("eligible", len(eligible)),
	)

	return eligible, nil
}
