package status

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
	"github.com/tolkbridge/booking-be/internal/booking/notify"
)

func jobWithStatus(s domain.JobStatus) *domain.Job {
	return &domain.Job{ID: "job-1", Status: s}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.JobStatus
		req     Request
		wantErr error
		check   func(t *testing.T, out *Outcome)
	}{
		{
			name:    "unknown status is rejected",
			from:    domain.StatusPending,
			req:     Request{Status: domain.JobStatus("bogus")},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "same status is rejected",
			from:    domain.StatusPending,
			req:     Request{Status: domain.StatusPending},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name: "timedout reopens to pending with a fresh cycle",
			from: domain.StatusTimedOut,
			req:  Request{Status: domain.StatusPending},
			check: func(t *testing.T, out *Outcome) {
				assert.True(t, out.ResetCycle)
				require.Len(t, out.Notices, 2)
				assert.Equal(t, notify.TypeJobReopened, out.Notices[0].Type)
				assert.Equal(t, AudienceCustomer, out.Notices[0].Audience)
				assert.Equal(t, AudienceSuitableTranslators, out.Notices[1].Audience)
			},
		},
		{
			name: "timedout to assigned needs a translator",
			from: domain.StatusTimedOut,
			req:  Request{Status: domain.StatusAssigned, TranslatorChanged: true},
			check: func(t *testing.T, out *Outcome) {
				assert.False(t, out.ResetCycle)
				require.Len(t, out.Notices, 1)
				assert.Equal(t, notify.TypeJobAccepted, out.Notices[0].Type)
			},
		},
		{
			name:    "timedout to assigned without a translator is rejected",
			from:    domain.StatusTimedOut,
			req:     Request{Status: domain.StatusAssigned},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name: "completed can only be timed out with a comment",
			from: domain.StatusCompleted,
			req:  Request{Status: domain.StatusTimedOut, AdminComments: "billing dispute"},
			check: func(t *testing.T, out *Outcome) {
				assert.Equal(t, domain.StatusTimedOut, out.NewStatus)
				assert.Empty(t, out.Notices)
			},
		},
		{
			name:    "completed without a comment is rejected",
			from:    domain.StatusCompleted,
			req:     Request{Status: domain.StatusTimedOut},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name:    "completed to started is rejected",
			from:    domain.StatusCompleted,
			req:     Request{Status: domain.StatusStarted, AdminComments: "x"},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "leaving started requires a comment",
			from:    domain.StatusStarted,
			req:     Request{Status: domain.StatusCompleted, SessionTime: "1:30:00"},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name:    "completing a session requires session time",
			from:    domain.StatusStarted,
			req:     Request{Status: domain.StatusCompleted, AdminComments: "done"},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name: "started completes with a session interval",
			from: domain.StatusStarted,
			req: Request{
				Status:        domain.StatusCompleted,
				AdminComments: "done",
				SessionTime:   "1:30:00",
			},
			check: func(t *testing.T, out *Outcome) {
				assert.True(t, out.CompleteSession)
				assert.Equal(t, "1:30:00", out.SessionTime)
				require.Len(t, out.Notices, 1)
				assert.Equal(t, notify.TypeSessionEnded, out.Notices[0].Type)
				assert.Equal(t, AudienceBoth, out.Notices[0].Audience)
			},
		},
		{
			name: "started moves elsewhere with a comment",
			from: domain.StatusStarted,
			req:  Request{Status: domain.StatusTimedOut, AdminComments: "no show"},
			check: func(t *testing.T, out *Outcome) {
				assert.Equal(t, domain.StatusTimedOut, out.NewStatus)
				assert.False(t, out.CompleteSession)
			},
		},
		{
			name:    "pending to timedout requires a comment",
			from:    domain.StatusPending,
			req:     Request{Status: domain.StatusTimedOut},
			wantErr: domain.ErrValidationFailed,
		},
		{
			name: "pending assigned directly when a translator is set",
			from: domain.StatusPending,
			req:  Request{Status: domain.StatusAssigned, TranslatorChanged: true},
			check: func(t *testing.T, out *Outcome) {
				require.Len(t, out.Notices, 2)
				assert.Equal(t, notify.TypeJobAccepted, out.Notices[0].Type)
				assert.Equal(t, notify.TypeSessionStart, out.Notices[1].Type)
			},
		},
		{
			name: "pending withdrawn notifies the customer",
			from: domain.StatusPending,
			req:  Request{Status: domain.StatusWithdrawBefore24},
			check: func(t *testing.T, out *Outcome) {
				require.Len(t, out.Notices, 1)
				assert.Equal(t, notify.TypeStatusChanged, out.Notices[0].Type)
				assert.Equal(t, AudienceCustomer, out.Notices[0].Audience)
			},
		},
		{
			name: "withdrawafter24 can be timed out",
			from: domain.StatusWithdrawAfter24,
			req:  Request{Status: domain.StatusTimedOut, AdminComments: "cleanup"},
			check: func(t *testing.T, out *Outcome) {
				assert.Equal(t, domain.StatusTimedOut, out.NewStatus)
			},
		},
		{
			name:    "withdrawafter24 to pending is rejected",
			from:    domain.StatusWithdrawAfter24,
			req:     Request{Status: domain.StatusPending},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name: "assigned timed out closes the assignment",
			from: domain.StatusAssigned,
			req:  Request{Status: domain.StatusTimedOut, AdminComments: "stale"},
			check: func(t *testing.T, out *Outcome) {
				assert.True(t, out.CloseAssignment)
			},
		},
		{
			name: "assigned withdrawn notifies both parties",
			from: domain.StatusAssigned,
			req:  Request{Status: domain.StatusWithdrawAfter24},
			check: func(t *testing.T, out *Outcome) {
				assert.True(t, out.CloseAssignment)
				require.Len(t, out.Notices, 1)
				assert.Equal(t, AudienceBoth, out.Notices[0].Audience)
			},
		},
		{
			name:    "assigned to completed is rejected",
			from:    domain.StatusAssigned,
			req:     Request{Status: domain.StatusCompleted},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "no admin transitions from withdrawbefore24",
			from:    domain.StatusWithdrawBefore24,
			req:     Request{Status: domain.StatusPending},
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := jobWithStatus(tt.from)
			out, err := Transition(job, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, out)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Equal(t, tt.from, out.OldStatus)
			require.NotEmpty(t, out.Changes)
			assert.Equal(t, "status", out.Changes[0].Field)
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestCancelByCustomer(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("early cancellation of a pending booking", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		job.Due = now.Add(48 * time.Hour)

		out, err := CancelByCustomer(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWithdrawBefore24, out.NewStatus)
		assert.False(t, out.CloseAssignment)
		assert.Empty(t, out.Notices)
	})

	t.Run("late cancellation of an assigned booking", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		job.Due = now.Add(3 * time.Hour)

		out, err := CancelByCustomer(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWithdrawAfter24, out.NewStatus)
		assert.True(t, out.CloseAssignment)
		require.Len(t, out.Notices, 1)
		assert.Equal(t, AudienceTranslator, out.Notices[0].Audience)
	})

	t.Run("exactly 24 hours counts as early", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		job.Due = now.Add(CancelWindow)

		out, err := CancelByCustomer(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWithdrawBefore24, out.NewStatus)
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		job := jobWithStatus(domain.StatusCompleted)
		_, err := CancelByCustomer(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestCancelByTranslator(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("releases the booking back to pending", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		job.Due = now.Add(48 * time.Hour)

		out, err := CancelByTranslator(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, out.NewStatus)
		assert.True(t, out.ResetCycle)
		assert.True(t, out.CloseAssignment)
		require.Len(t, out.Notices, 2)
		assert.Equal(t, notify.TypeSuitableJob, out.Notices[1].Type)
	})

	t.Run("refuses cancellations inside the window", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		job.Due = now.Add(12 * time.Hour)

		_, err := CancelByTranslator(job, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidationFailed)

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "due", verr.Field)
	})

	t.Run("only assigned bookings can be released", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		_, err := CancelByTranslator(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestExpire(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("expires a pending booking past its window", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		job.WillExpireAt = now.Add(-time.Minute)

		out, err := Expire(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusTimedOut, out.NewStatus)
		require.Len(t, out.Notices, 1)
		assert.Equal(t, notify.TypeJobExpired, out.Notices[0].Type)
	})

	t.Run("refuses to expire before the window", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		job.WillExpireAt = now.Add(time.Hour)

		_, err := Expire(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("only pending bookings expire", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		_, err := Expire(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestEnd(t *testing.T) {
	due := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	now := due.Add(90 * time.Minute)

	t.Run("completes a started session", func(t *testing.T) {
		job := jobWithStatus(domain.StatusStarted)
		job.Due = due

		out, err := End(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, out.NewStatus)
		assert.True(t, out.CompleteSession)
		assert.Equal(t, "1:30:0", out.SessionTime)
		require.Len(t, out.Notices, 1)
		assert.Equal(t, notify.TypeSessionEnded, out.Notices[0].Type)
	})

	t.Run("only started sessions can end", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		_, err := End(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestCustomerNoShow(t *testing.T) {
	due := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	now := due.Add(time.Hour)

	t.Run("credits the translator for the session", func(t *testing.T) {
		job := jobWithStatus(domain.StatusAssigned)
		job.Due = due

		out, err := CustomerNoShow(job, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNotCarriedOutCustomer, out.NewStatus)
		assert.True(t, out.CompleteSession)
		assert.NotEmpty(t, out.SessionTime)
		assert.Empty(t, out.Notices)
	})

	t.Run("pending bookings cannot be marked", func(t *testing.T) {
		job := jobWithStatus(domain.StatusPending)
		_, err := CustomerNoShow(job, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}
