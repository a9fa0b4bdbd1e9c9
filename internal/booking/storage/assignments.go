package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

const assignmentColumns = `id, job_id, user_id, created_at, cancel_at, completed_at, completed_by`

// CurrentAssignment returns the open assignment of a job, or
// domain.ErrNotFound when the job has none.
func (s *Storage) CurrentAssignment(ctx context.Context, jobID string) (*domain.Assignment, error) {
	var assignment domain.Assignment
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	if err := s.db.GetContext(ctx, &assignment, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("assignment for job %s: %w", jobID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return &assignment, nil
}

// HasOpenAssignmentAt reports whether the translator already holds an
// open assignment for a job due at exactly the given time.
func (s *Storage) HasOpenAssignmentAt(ctx context.Context, translatorID string, due time.Time) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM assignments a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.user_id = $1
		  AND a.cancel_at IS NULL
		  AND a.completed_at IS NULL
		  AND j.due = $2
	`
	if err := s.db.GetContext(ctx, &count, query, translatorID, due); err != nil {
		return false, fmt.Errorf("failed to check booked slot: %w", err)
	}
	return count > 0, nil
}

// AssignPending atomically flips a pending job to assigned and records
// the assignment. The status predicate on the UPDATE makes sure only
// one concurrent acceptor can win; everyone else gets
// domain.ErrNotAcceptable.
func (s *Storage) AssignPending(ctx context.Context, jobID string, assignment *domain.Assignment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The NOT EXISTS guard covers jobs that picked up an open
	// assignment without leaving pending (admin reassignment), so at
	// most one open row per job survives any interleaving.
	result, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4
		   AND NOT EXISTS (
			SELECT 1 FROM assignments
			WHERE job_id = $3 AND cancel_at IS NULL AND completed_at IS NULL
		   )`,
		domain.StatusAssigned, assignment.CreatedAt, jobID, domain.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("job %s is no longer pending: %w", jobID, domain.ErrNotAcceptable)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO assignments (`+assignmentColumns+`)
		VALUES (:id, :job_id, :user_id, :created_at, :cancel_at, :completed_at, :completed_by)
	`, assignment)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignment: %w", err)
	}
	return nil
}

// InsertAssignment records an assignment without touching job status.
// Used by admin reassignment where the job is already assigned.
func (s *Storage) InsertAssignment(ctx context.Context, assignment *domain.Assignment) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO assignments (`+assignmentColumns+`)
		VALUES (:id, :job_id, :user_id, :created_at, :cancel_at, :completed_at, :completed_by)
	`, assignment)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

// CancelAssignment closes an assignment as cancelled.
func (s *Storage) CancelAssignment(ctx context.Context, assignmentID string, cancelAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET cancel_at = $1 WHERE id = $2 AND cancel_at IS NULL AND completed_at IS NULL`,
		cancelAt, assignmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment %s is not open: %w", assignmentID, domain.ErrInvalidTransition)
	}
	return nil
}

// CompleteAssignment closes an assignment as completed.
func (s *Storage) CompleteAssignment(ctx context.Context, assignmentID, completedBy string, completedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET completed_at = $1, completed_by = $2 WHERE id = $3 AND cancel_at IS NULL AND completed_at IS NULL`,
		completedAt, completedBy, assignmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment %s is not open: %w", assignmentID, domain.ErrInvalidTransition)
	}
	return nil
}

// AssignmentsForJob returns every assignment a job has ever had,
// newest first.
func (s *Storage) AssignmentsForJob(ctx context.Context, jobID string) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE job_id = $1 ORDER BY created_at DESC`

	if err := s.db.SelectContext(ctx, &assignments, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}
