// Package storage is the Postgres persistence gateway for the booking
// core. It owns the per-job mutual exclusion: acceptance goes through
// a transactional status check-and-set so concurrent binds cannot
// both win.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/match"
	"github.com/tolkbridge/booking-be/shared/postgresql"
)

// Storage handles all database operations for the booking core.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance.
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

const jobColumns = `
	id, user_id, from_language_id, status, immediate, due, duration,
	gender, certified, customer_phone_type, customer_physical_type,
	town, job_type, created_at, updated_at, will_expire_at,
	withdraw_at, end_at, session_time, admin_comments, reference,
	user_email, flagged, manually_handled, by_admin, reminders_sent
`

// CreateJob inserts a new booking row.
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (
			:id, :user_id, :from_language_id, :status, :immediate, :due, :duration,
			:gender, :certified, :customer_phone_type, :customer_physical_type,
			:town, :job_type, :created_at, :updated_at, :will_expire_at,
			:withdraw_at, :end_at, :session_time, :admin_comments, :reference,
			:user_email, :flagged, :manually_handled, :by_admin, :reminders_sent
		)
	`
	if _, err := s.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJobByID loads one booking.
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	if err := s.db.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// SaveJob writes back every mutable booking field.
func (s *Storage) SaveJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs SET
			from_language_id = :from_language_id,
			status = :status,
			due = :due,
			duration = :duration,
			gender = :gender,
			certified = :certified,
			customer_phone_type = :customer_phone_type,
			customer_physical_type = :customer_physical_type,
			town = :town,
			created_at = :created_at,
			updated_at = :updated_at,
			will_expire_at = :will_expire_at,
			withdraw_at = :withdraw_at,
			end_at = :end_at,
			session_time = :session_time,
			admin_comments = :admin_comments,
			reference = :reference,
			user_email = :user_email,
			flagged = :flagged,
			manually_handled = :manually_handled,
			by_admin = :by_admin,
			reminders_sent = :reminders_sent
		WHERE id = :id
	`
	result, err := s.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrNotFound)
	}
	return nil
}

// ListJobs returns jobs narrowed by the matching criteria, ordered by
// due time.
func (s *Storage) ListJobs(ctx context.Context, criteria match.JobCriteria) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}

	if criteria.Status != "" {
		query += " AND status = ?"
		args = append(args, criteria.Status)
	}
	if criteria.JobType != "" {
		query += " AND job_type = ?"
		args = append(args, criteria.JobType)
	}
	if len(criteria.Languages) > 0 {
		query += " AND from_language_id IN (?)"
		args = append(args, criteria.Languages)
	}
	query += " ORDER BY due ASC"

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build job query: %w", err)
	}
	query = s.db.Rebind(query)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ListJobsByCustomer returns a customer's jobs in the given statuses,
// soonest due first.
func (s *Storage) ListJobsByCustomer(ctx context.Context, customerID string, statuses []domain.JobStatus) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = ? AND status IN (?) ORDER BY due ASC`
	query, args, err := sqlx.In(query, customerID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build customer job query: %w", err)
	}
	query = s.db.Rebind(query)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list customer jobs: %w", err)
	}
	return jobs, nil
}

// ListJobsByTranslator returns jobs bound to the translator through an
// open assignment, in the given statuses.
func (s *Storage) ListJobsByTranslator(ctx context.Context, translatorID string, statuses []domain.JobStatus) ([]domain.Job, error) {
	query := `
		SELECT ` + prefixedJobColumns("j") + `
		FROM jobs j
		JOIN assignments a ON a.job_id = j.id
		WHERE a.user_id = ?
		  AND a.cancel_at IS NULL
		  AND a.completed_at IS NULL
		  AND j.status IN (?)
		ORDER BY j.due ASC
	`
	query, args, err := sqlx.In(query, translatorID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to build translator job query: %w", err)
	}
	query = s.db.Rebind(query)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list translator jobs: %w", err)
	}
	return jobs, nil
}

// ListExpiredPending returns pending jobs whose acceptance window has
// passed at the given instant.
func (s *Storage) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1 AND will_expire_at <= $2 ORDER BY will_expire_at ASC`

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, domain.StatusPending, now); err != nil {
		return nil, fmt.Errorf("failed to list expired jobs: %w", err)
	}
	return jobs, nil
}

// ListJobHistory returns a keyset page of a user's finished bookings,
// most recent due first. A zero afterDue starts at the top.
func (s *Storage) ListJobHistory(ctx context.Context, userID string, asTranslator bool, statuses []domain.JobStatus, limit int, afterDue time.Time, afterID string) ([]domain.Job, error) {
	var query string
	args := []interface{}{}

	if asTranslator {
		query = `
			SELECT ` + prefixedJobColumns("j") + `
			FROM jobs j
			JOIN assignments a ON a.job_id = j.id
			WHERE a.user_id = ? AND j.status IN (?)
		`
		args = append(args, userID, statuses)
	} else {
		query = `SELECT ` + prefixedJobColumns("j") + ` FROM jobs j WHERE j.user_id = ? AND j.status IN (?)`
		args = append(args, userID, statuses)
	}

	if !afterDue.IsZero() {
		query += " AND (j.due, j.id) < (?, ?)"
		args = append(args, afterDue, afterID)
	}
	query += " ORDER BY j.due DESC, j.id DESC LIMIT ?"
	args = append(args, limit)

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}
	query = s.db.Rebind(query)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, expanded...); err != nil {
		return nil, fmt.Errorf("failed to list job history: %w", err)
	}
	return jobs, nil
}

// ListJobsNeedingReminder returns assigned jobs due inside the window
// whose session reminder has not gone out yet.
func (s *Storage) ListJobsNeedingReminder(ctx context.Context, from, to time.Time) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		  AND reminders_sent = FALSE
		  AND due > $2
		  AND due <= $3
		ORDER BY due ASC
	`
	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, domain.StatusAssigned, from, to); err != nil {
		return nil, fmt.Errorf("failed to list jobs needing reminder: %w", err)
	}
	return jobs, nil
}

func prefixedJobColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.from_language_id, ` +
		alias + `.status, ` + alias + `.immediate, ` + alias + `.due, ` + alias + `.duration, ` +
		alias + `.gender, ` + alias + `.certified, ` + alias + `.customer_phone_type, ` +
		alias + `.customer_physical_type, ` + alias + `.town, ` + alias + `.job_type, ` +
		alias + `.created_at, ` + alias + `.updated_at, ` + alias + `.will_expire_at, ` +
		alias + `.withdraw_at, ` + alias + `.end_at, ` + alias + `.session_time, ` +
		alias + `.admin_comments, ` + alias + `.reference, ` + alias + `.user_email, ` +
		alias + `.flagged, ` + alias + `.manually_handled, ` + alias + `.by_admin, ` +
		alias + `.reminders_sent`
}
