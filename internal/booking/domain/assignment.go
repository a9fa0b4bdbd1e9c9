package domain

import "time"

// Assignment binds one translator to one job for a bounded period.
// Rows are append-only: reassignment closes the current row and
// inserts a new one, never edits history.
type Assignment struct {
	ID          string     `db:"id"`
	JobID       string     `db:"job_id"`
	UserID      string     `db:"user_id"` // translator
	CreatedAt   time.Time  `db:"created_at"`
	CancelAt    *time.Time `db:"cancel_at"`
	CompletedAt *time.Time `db:"completed_at"`
	CompletedBy string     `db:"completed_by"`
}

// Open reports whether this row is the job's current assignment.
// At most one open row may exist per job at any time.
func (a *Assignment) Open() bool {
	return a.CancelAt == nil && a.CompletedAt == nil
}

// BlacklistEntry excludes one translator from one customer's jobs.
type BlacklistEntry struct {
	UserID       string `db:"user_id"` // customer
	TranslatorID string `db:"translator_id"`
}
