// Package status validates booking status transitions. Every guard is
// a pure function over the job and the request: it either returns a
// typed Outcome describing the new state and its required side
// effects, or an error and no mutation. The orchestrator applies
// outcomes; nothing in this package touches storage or channels.
package status

import (
	"fmt"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/notify"
)

// Audience names who a notice goes to. The orchestrator resolves the
// audience to concrete users.
type Audience string

const (
	AudienceCustomer            Audience = "customer"
	AudienceTranslator          Audience = "translator"
	AudienceBoth                Audience = "both"
	AudienceSuitableTranslators Audience = "suitable_translators"
)

// Notice is a notification intent produced by a transition.
type Notice struct {
	Type     notify.Type
	Audience Audience
}

// Change is a structured audit record of a field edit.
type Change struct {
	Field string
	Old   string
	New   string
}

// Request is an admin-driven status change with its supporting
// fields.
type Request struct {
	Status            domain.JobStatus
	AdminComments     string
	SessionTime       string
	TranslatorChanged bool
}

// Outcome describes an accepted transition: the status move, the
// bookkeeping the orchestrator must perform, and the notices to
// dispatch.
type Outcome struct {
	OldStatus domain.JobStatus
	NewStatus domain.JobStatus

	// ResetCycle restarts the acceptance window: created_at and
	// will_expire_at are recomputed and sent-flags cleared.
	ResetCycle bool

	// CompleteSession closes the open assignment and stamps
	// end_at/session_time on the job.
	CompleteSession bool

	// CloseAssignment closes the open assignment without completion
	// (translator freed, history kept).
	CloseAssignment bool

	SessionTime string

	Notices []Notice
	Changes []Change
}

func statusChange(old, new domain.JobStatus) Change {
	return Change{Field: "status", Old: string(old), New: string(new)}
}

// Transition applies the admin-edit dispatch table: the set of legal
// next states depends on the job's current status. Unmatched moves
// are rejected with no mutation.
func Transition(job *domain.Job, req Request) (*Outcome, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, req.Status)
	}
	if req.Status == job.Status {
		return nil, fmt.Errorf("%w: job %s already %s", domain.ErrInvalidTransition, job.ID, job.Status)
	}

	switch job.Status {
	case domain.StatusTimedOut:
		return fromTimedOut(job, req)
	case domain.StatusCompleted:
		return fromCompleted(job, req)
	case domain.StatusStarted:
		return fromStarted(job, req)
	case domain.StatusPending:
		return fromPending(job, req)
	case domain.StatusWithdrawAfter24:
		return fromWithdrawAfter24(job, req)
	case domain.StatusAssigned:
		return fromAssigned(job, req)
	default:
		return nil, fmt.Errorf("%w: no admin transition from %s", domain.ErrInvalidTransition, job.Status)
	}
}

func fromTimedOut(job *domain.Job, req Request) (*Outcome, error) {
	switch {
	case req.Status == domain.StatusPending:
		// Admin reopen: fresh acceptance cycle, re-solicit translators.
		return &Outcome{
			OldStatus:  job.Status,
			NewStatus:  domain.StatusPending,
			ResetCycle: true,
			Notices: []Notice{
				{Type: notify.TypeJobReopened, Audience: AudienceCustomer},
				{Type: notify.TypeSuitableJob, Audience: AudienceSuitableTranslators},
			},
			Changes: []Change{statusChange(job.Status, domain.StatusPending)},
		}, nil
	case req.Status == domain.StatusAssigned && req.TranslatorChanged:
		return &Outcome{
			OldStatus: job.Status,
			NewStatus: domain.StatusAssigned,
			Notices: []Notice{
				{Type: notify.TypeJobAccepted, Audience: AudienceCustomer},
			},
			Changes: []Change{statusChange(job.Status, domain.StatusAssigned)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: timedout -> %s", domain.ErrInvalidTransition, req.Status)
	}
}

func fromCompleted(job *domain.Job, req Request) (*Outcome, error) {
	if req.Status != domain.StatusTimedOut {
		return nil, fmt.Errorf("%w: completed -> %s", domain.ErrInvalidTransition, req.Status)
	}
	if req.AdminComments == "" {
		return nil, domain.NewValidationError("admin_comments", "required to time out a completed booking")
	}
	return &Outcome{
		OldStatus: job.Status,
		NewStatus: domain.StatusTimedOut,
		Changes:   []Change{statusChange(job.Status, domain.StatusTimedOut)},
	}, nil
}

func fromStarted(job *domain.Job, req Request) (*Outcome, error) {
	if req.AdminComments == "" {
		return nil, domain.NewValidationError("admin_comments", "required when leaving started")
	}
	if req.Status == domain.StatusCompleted {
		if req.SessionTime == "" {
			return nil, domain.NewValidationError("session_time", "required to complete a session")
		}
		return &Outcome{
			OldStatus:       job.Status,
			NewStatus:       domain.StatusCompleted,
			CompleteSession: true,
			SessionTime:     req.SessionTime,
			Notices: []Notice{
				{Type: notify.TypeSessionEnded, Audience: AudienceBoth},
			},
			Changes: []Change{statusChange(job.Status, domain.StatusCompleted)},
		}, nil
	}
	return &Outcome{
		OldStatus: job.Status,
		NewStatus: req.Status,
		Changes:   []Change{statusChange(job.Status, req.Status)},
	}, nil
}

func fromPending(job *domain.Job, req Request) (*Outcome, error) {
	if req.Status == domain.StatusTimedOut && req.AdminComments == "" {
		return nil, domain.NewValidationError("admin_comments", "required to time out a pending booking")
	}
	if req.Status == domain.StatusAssigned && req.TranslatorChanged {
		return &Outcome{
			OldStatus: job.Status,
			NewStatus: domain.StatusAssigned,
			Notices: []Notice{
				{Type: notify.TypeJobAccepted, Audience: AudienceCustomer},
				{Type: notify.TypeSessionStart, Audience: AudienceBoth},
			},
			Changes: []Change{statusChange(job.Status, domain.StatusAssigned)},
		}, nil
	}
	// No translator was ever bound, so the customer gets the plain
	// status-changed notice, not a cancellation one.
	return &Outcome{
		OldStatus: job.Status,
		NewStatus: req.Status,
		Notices: []Notice{
			{Type: notify.TypeStatusChanged, Audience: AudienceCustomer},
		},
		Changes: []Change{statusChange(job.Status, req.Status)},
	}, nil
}

func fromWithdrawAfter24(job *domain.Job, req Request) (*Outcome, error) {
	if req.Status != domain.StatusTimedOut {
		return nil, fmt.Errorf("%w: withdrawafter24 -> %s", domain.ErrInvalidTransition, req.Status)
	}
	if req.AdminComments == "" {
		return nil, domain.NewValidationError("admin_comments", "required to time out a withdrawn booking")
	}
	return &Outcome{
		OldStatus: job.Status,
		NewStatus: domain.StatusTimedOut,
		Changes:   []Change{statusChange(job.Status, domain.StatusTimedOut)},
	}, nil
}

func fromAssigned(job *domain.Job, req Request) (*Outcome, error) {
	switch req.Status {
	case domain.StatusTimedOut:
		if req.AdminComments == "" {
			return nil, domain.NewValidationError("admin_comments", "required to time out an assigned booking")
		}
		return &Outcome{
			OldStatus:       job.Status,
			NewStatus:       domain.StatusTimedOut,
			CloseAssignment: true,
			Changes:         []Change{statusChange(job.Status, domain.StatusTimedOut)},
		}, nil
	case domain.StatusWithdrawBefore24, domain.StatusWithdrawAfter24:
		return &Outcome{
			OldStatus:       job.Status,
			NewStatus:       req.Status,
			CloseAssignment: true,
			Notices: []Notice{
				{Type: notify.TypeJobCancelled, Audience: AudienceBoth},
			},
			Changes: []Change{statusChange(job.Status, req.Status)},
		}, nil
	default:
		return nil, fmt.Errorf("%w: assigned -> %s", domain.ErrInvalidTransition, req.Status)
	}
}

// CancelWindow is the gap to due below which a customer cancellation
// counts as late.
const CancelWindow = 24 * time.Hour

// CancelByCustomer withdraws a booking on the customer's initiative.
// The resulting state depends on how close to the session they are.
func CancelByCustomer(job *domain.Job, now time.Time) (*Outcome, error) {
	if job.Status != domain.StatusPending && job.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", domain.ErrInvalidTransition, job.Status)
	}

	next := domain.StatusWithdrawAfter24
	if job.Due.Sub(now) >= CancelWindow {
		next = domain.StatusWithdrawBefore24
	}

	outcome := &Outcome{
		OldStatus:       job.Status,
		NewStatus:       next,
		CloseAssignment: job.Status == domain.StatusAssigned,
		Changes:         []Change{statusChange(job.Status, next)},
	}
	if job.Status == domain.StatusAssigned {
		outcome.Notices = []Notice{
			{Type: notify.TypeJobCancelled, Audience: AudienceTranslator},
		}
	}
	return outcome, nil
}

// CancelByTranslator frees an assigned booking back to pending so a
// replacement can be found. Late cancellations (under 24 hours to
// due) are refused outright.
func CancelByTranslator(job *domain.Job, now time.Time) (*Outcome, error) {
	if job.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot release a %s booking", domain.ErrInvalidTransition, job.Status)
	}
	if job.Due.Sub(now) <= CancelWindow {
		return nil, domain.NewValidationError("due", "bookings within 24 hours cannot be cancelled through the app")
	}
	return &Outcome{
		OldStatus:       job.Status,
		NewStatus:       domain.StatusPending,
		ResetCycle:      true,
		CloseAssignment: true,
		Notices: []Notice{
			{Type: notify.TypeJobCancelled, Audience: AudienceCustomer},
			{Type: notify.TypeSuitableJob, Audience: AudienceSuitableTranslators},
		},
		Changes: []Change{statusChange(job.Status, domain.StatusPending)},
	}, nil
}

// Expire times out a pending booking whose acceptance window has
// passed.
func Expire(job *domain.Job, now time.Time) (*Outcome, error) {
	if job.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: cannot expire a %s booking", domain.ErrInvalidTransition, job.Status)
	}
	if now.Before(job.WillExpireAt) {
		return nil, fmt.Errorf("%w: booking %s has not expired yet", domain.ErrInvalidTransition, job.ID)
	}
	return &Outcome{
		OldStatus: job.Status,
		NewStatus: domain.StatusTimedOut,
		Notices: []Notice{
			{Type: notify.TypeJobExpired, Audience: AudienceCustomer},
		},
		Changes: []Change{statusChange(job.Status, domain.StatusTimedOut)},
	}, nil
}

// End completes a started session, deriving the session interval from
// due to now.
func End(job *domain.Job, now time.Time) (*Outcome, error) {
	if job.Status != domain.StatusStarted {
		return nil, fmt.Errorf("%w: cannot end a %s booking", domain.ErrInvalidTransition, job.Status)
	}
	return &Outcome{
		OldStatus:       job.Status,
		NewStatus:       domain.StatusCompleted,
		CompleteSession: true,
		SessionTime:     notify.FormatSessionInterval(job.Due, now),
		Notices: []Notice{
			{Type: notify.TypeSessionEnded, Audience: AudienceBoth},
		},
		Changes: []Change{statusChange(job.Status, domain.StatusCompleted)},
	}, nil
}

// CustomerNoShow closes a session the customer never turned up for.
// The translator is credited as if the session completed.
func CustomerNoShow(job *domain.Job, now time.Time) (*Outcome, error) {
	if job.Status != domain.StatusStarted && job.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: cannot mark a %s booking as not carried out", domain.ErrInvalidTransition, job.Status)
	}
	return &Outcome{
		OldStatus:       job.Status,
		NewStatus:       domain.StatusNotCarriedOutCustomer,
		CompleteSession: true,
		SessionTime:     notify.FormatSessionInterval(job.Due, now),
		Changes:         []Change{statusChange(job.Status, domain.StatusNotCarriedOutCustomer)},
	}, nil
}
