// Package ledger owns the translator-to-job binding. All mutations
// are append-or-close: reassignment closes the current row and opens
// a new one, so the full assignment history survives every change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// Store is the slice of the persistence gateway the ledger needs.
// AssignPending must perform its status check-and-set and assignment
// insert atomically: under concurrent calls for the same job exactly
// one caller wins.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CurrentAssignment(ctx context.Context, jobID string) (*domain.Assignment, error)
	HasOpenAssignmentAt(ctx context.Context, translatorID string, due time.Time) (bool, error)
	AssignPending(ctx context.Context, jobID string, assignment *domain.Assignment) error
	InsertAssignment(ctx context.Context, assignment *domain.Assignment) error
	CancelAssignment(ctx context.Context, assignmentID string, cancelAt time.Time) error
	CompleteAssignment(ctx context.Context, assignmentID, completedBy string, completedAt time.Time) error
}

// Ledger records which translator is bound to which job.
type Ledger struct {
	store  Store
	clock  domain.Clock
	logger *slog.Logger
}

// New creates a ledger over the given store.
func New(store Store, clock domain.Clock, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, clock: clock, logger: logger}
}

// Bind opens an assignment for a pending job. It fails with
// ErrAlreadyBooked when the translator has an open assignment at the
// same due time, and ErrNotAcceptable when the job is no longer
// pending (typically lost to a concurrent acceptance).
func (l *Ledger) Bind(ctx context.Context, job *domain.Job, translatorID string) (*domain.Assignment, error) {
	if job.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: job %s is %s", domain.ErrNotAcceptable, job.ID, job.Status)
	}

	// Exact due-timestamp collision counts as a conflict.
	booked, err := l.store.HasOpenAssignmentAt(ctx, translatorID, job.Due)
	if err != nil {
		return nil, fmt.Errorf("failed to check translator availability: %w", err)
	}
	if booked {
		return nil, fmt.Errorf("%w: translator %s at %s", domain.ErrAlreadyBooked, translatorID, job.Due)
	}

	assignment := &domain.Assignment{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		UserID:    translatorID,
		CreatedAt: l.clock.Now(),
	}
	if err := l.store.AssignPending(ctx, job.ID, assignment); err != nil {
		return nil, err
	}
	job.Status = domain.StatusAssigned

	l.logger.Info("Assignment opened",
		slog.String("job_id", job.ID),
		slog.String("translator_id", translatorID),
		slog.String("assignment_id", assignment.ID),
	)

	return assignment, nil
}

// ReassignResult reports who was displaced by whom so callers can log
// and notify.
type ReassignResult struct {
	Changed         bool
	OldTranslatorID string
	NewTranslatorID string
	Assignment      *domain.Assignment
}

// Reassign moves a job to another translator, identified by id or
// email. Binding to the already-bound translator is a no-op. The
// displaced row is closed with cancel_at, never edited or removed.
func (l *Ledger) Reassign(ctx context.Context, job *domain.Job, newTranslatorID, newTranslatorEmail string) (*ReassignResult, error) {
	if newTranslatorID == "" && newTranslatorEmail != "" {
		translator, err := l.store.GetUserByEmail(ctx, newTranslatorEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve translator email: %w", err)
		}
		newTranslatorID = translator.ID
	}
	if newTranslatorID == "" {
		return &ReassignResult{}, nil
	}

	current, err := l.store.CurrentAssignment(ctx, job.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load current assignment: %w", err)
	}

	now := l.clock.Now()
	result := &ReassignResult{NewTranslatorID: newTranslatorID}

	if current != nil {
		if current.UserID == newTranslatorID {
			return &ReassignResult{}, nil
		}
		if err := l.store.CancelAssignment(ctx, current.ID, now); err != nil {
			return nil, fmt.Errorf("failed to close displaced assignment: %w", err)
		}
		result.OldTranslatorID = current.UserID
	}

	assignment := &domain.Assignment{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		UserID:    newTranslatorID,
		CreatedAt: now,
	}
	if err := l.store.InsertAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	result.Changed = true
	result.Assignment = assignment

	l.logger.Info("Assignment reassigned",
		slog.String("job_id", job.ID),
		slog.String("old_translator_id", result.OldTranslatorID),
		slog.String("new_translator_id", newTranslatorID),
	)

	return result, nil
}

// Release closes the job's open assignment without completion,
// freeing the translator. Missing assignments are tolerated.
func (l *Ledger) Release(ctx context.Context, jobID string) error {
	current, err := l.store.CurrentAssignment(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load current assignment: %w", err)
	}
	if err := l.store.CancelAssignment(ctx, current.ID, l.clock.Now()); err != nil {
		return fmt.Errorf("failed to close assignment: %w", err)
	}
	return nil
}

// Close completes the job's open assignment, crediting completedBy.
// Closing an already-closed row is rejected.
func (l *Ledger) Close(ctx context.Context, jobID, completedBy string, completedAt time.Time) (*domain.Assignment, error) {
	current, err := l.store.CurrentAssignment(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current assignment: %w", err)
	}
	if !current.Open() {
		return nil, fmt.Errorf("%w: assignment %s already closed", domain.ErrInvalidTransition, current.ID)
	}
	if err := l.store.CompleteAssignment(ctx, current.ID, completedBy, completedAt); err != nil {
		return nil, fmt.Errorf("failed to complete assignment: %w", err)
	}
	current.CompletedAt = &completedAt
	current.CompletedBy = completedBy
	return current, nil
}
