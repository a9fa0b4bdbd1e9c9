package notify

import (
	"fmt"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

const (
	templateJobCreated        = "emails/job-created"
	templateJobAccepted       = "emails/job-accepted"
	templateStatusChanged     = "emails/status-changed-customer"
	templateSessionEnded      = "emails/session-ended"
	templateCancelTranslator  = "emails/job-cancel-translator"
	templateChangedDate       = "emails/job-changed-date"
	templateChangedLang       = "emails/job-changed-lang"
	templateChangedTranslator = "emails/job-changed-translator"
	templateReopened          = "emails/job-reopened"
)

const dueFormat = "2006-01-02 15:04"

// suitableJobText is the push body soliciting translators for a new
// or reopened booking.
func suitableJobText(job *domain.Job) string {
	if job.Immediate {
		return fmt.Sprintf("New emergency booking for %s interpreter, %dmin",
			job.FromLanguageID, job.Duration)
	}
	return fmt.Sprintf("New booking for %s interpreter, %dmin, %s",
		job.FromLanguageID, job.Duration, job.Due.Format(dueFormat))
}

func acceptedText(job *domain.Job) string {
	return fmt.Sprintf("Your booking for %s interpreter, %dmin, %s has been accepted. Open the app for translator details.",
		job.FromLanguageID, job.Duration, job.Due.Format(dueFormat))
}

func cancelledForTranslatorText(job *domain.Job) string {
	return fmt.Sprintf("The customer cancelled the booking for %s interpreter, %dmin, %s. Check your previous bookings for details.",
		job.FromLanguageID, job.Duration, job.Due.Format(dueFormat))
}

func translatorCancelledText(job *domain.Job) string {
	return fmt.Sprintf("Your %s interpreter for %dmin on %s cancelled. We are looking for a replacement.",
		job.FromLanguageID, job.Duration, job.Due.Format(dueFormat))
}

func expiredText(job *domain.Job) string {
	return fmt.Sprintf("No interpreter accepted your booking (%s, %dmin, %s). Please try booking a new time.",
		job.FromLanguageID, job.Duration, job.Due.Format(dueFormat))
}

// sessionReminderText differs for on-site and phone sessions.
func sessionReminderText(job *domain.Job) string {
	if job.CustomerOnSite {
		return fmt.Sprintf("Reminder: you have a %s interpretation (on site in %s) at %s for %dmin. Remember to leave feedback afterwards!",
			job.FromLanguageID, job.Town, job.Due.Format(dueFormat), job.Duration)
	}
	return fmt.Sprintf("Reminder: you have a %s interpretation (phone) at %s for %dmin. Remember to leave feedback afterwards!",
		job.FromLanguageID, job.Due.Format(dueFormat), job.Duration)
}

// smsJobText is the body soliciting translators by SMS. Physical jobs
// name the town; phone jobs (and mixed-mode, which default to phone)
// do not.
func smsJobText(job *domain.Job, town string) string {
	date := job.Due.Format("02.01.2006")
	clock := job.Due.Format("15:04")
	duration := minutesToClock(job.Duration)

	if job.PhysicalOnly() {
		return fmt.Sprintf("New on-site booking %s %s, %s, in %s. Booking ref %s. Reply to accept.",
			date, clock, duration, town, job.ID)
	}
	return fmt.Sprintf("New phone booking %s %s, %s. Booking ref %s. Reply to accept.",
		date, clock, duration, job.ID)
}

// minutesToClock renders a duration in minutes as "2h 30min".
func minutesToClock(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	if minutes == 60 {
		return "1h"
	}
	return fmt.Sprintf("%dh %02dmin", minutes/60, minutes%60)
}

// sessionClock renders an "H:M:S" session interval as "2h 30min" for
// the session-ended emails.
func sessionClock(sessionTime string) string {
	var h, m, s int
	fmt.Sscanf(sessionTime, "%d:%d:%d", &h, &m, &s)
	return fmt.Sprintf("%dh %02dmin", h, m)
}

// FormatSessionInterval renders the elapsed time between due and end
// as the "H:M:S" value stored on completed jobs.
func FormatSessionInterval(due, end time.Time) string {
	elapsed := end.Sub(due)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	h := int(elapsed.Hours())
	m := int(elapsed.Minutes()) % 60
	s := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%d:%d:%d", h, m, s)
}
