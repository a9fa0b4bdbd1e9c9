// Package notify decides who gets told what when a booking changes,
// and hands the resulting delivery requests to a channel adapter. It
// never owns delivery mechanics or retries.
package notify

import (
	"context"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// Type tags a notification so clients and templates can route it.
type Type string

const (
	TypeSuitableJob       Type = "suitable_job"
	TypeJobAccepted       Type = "job_accepted"
	TypeJobCancelled      Type = "job_cancelled"
	TypeJobExpired        Type = "job_expired"
	TypeJobReopened       Type = "job_reopened"
	TypeStatusChanged     Type = "job_changed_status"
	TypeSessionStart      Type = "session_start_remind"
	TypeSessionEnded      Type = "session_ended"
	TypeChangedDate       Type = "job_changed_date"
	TypeChangedLanguage   Type = "job_changed_lang"
	TypeChangedTranslator Type = "job_changed_translator"
)

// Push sounds; emergency bookings get a distinct alert tone.
const (
	soundNormal    = "normal_booking"
	soundEmergency = "emergency_booking"
	soundDefault   = "default"
)

// PushPayload is the data block attached to a push notification.
type PushPayload struct {
	JobID     string `json:"job_id"`
	Type      Type   `json:"notification_type"`
	Message   string `json:"message"`
	Immediate bool   `json:"immediate"`
	Sound     string `json:"sound"`
}

// EmailContext carries the template variables for an outbound email.
type EmailContext map[string]string

// Channel is the external delivery adapter. Implementations are
// fire-and-forget from the core's perspective: a failure comes back
// as an error to log, never as state to unwind.
type Channel interface {
	SendPush(ctx context.Context, recipients []domain.User, payload PushPayload, sendAfter *time.Time) error
	SendSMS(ctx context.Context, recipient domain.User, message string) error
	SendEmail(ctx context.Context, recipient, name, subject, template string, context EmailContext) error
}
