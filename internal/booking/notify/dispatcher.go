package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// NightWindow is the configured span during which pushes are deferred
// for recipients who opted out of night-time notifications. It wraps
// midnight: StartHour on one day to EndHour on the next.
type NightWindow struct {
	StartHour int
	EndHour   int
}

// Contains reports whether t falls inside the window.
func (w NightWindow) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour > w.EndHour {
		return h >= w.StartHour || h < w.EndHour
	}
	return h >= w.StartHour && h < w.EndHour
}

// NextBusinessTime returns the first instant after t outside the
// window, at the top of the business hour.
func (w NightWindow) NextBusinessTime(t time.Time) time.Time {
	if !w.Contains(t) {
		return t
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), w.EndHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Dispatcher applies recipient preferences and the night-delay policy
// to every outbound notification, then hands delivery requests to the
// channel adapter. Delivery failures are logged, never propagated:
// a committed transition stands even if its notification failed.
type Dispatcher struct {
	channel Channel
	clock   domain.Clock
	night   NightWindow
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over the given channel adapter.
func NewDispatcher(channel Channel, clock domain.Clock, night NightWindow, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		channel: channel,
		clock:   clock,
		night:   night,
		logger:  logger,
	}
}

// wantsPush applies the recipient's opt-outs for a given job.
func wantsPush(user *domain.User, job *domain.Job) bool {
	if user.OptOutNotifications {
		return false
	}
	if job.Immediate && user.OptOutEmergency {
		return false
	}
	return true
}

// delayFor returns the deferred send time for a recipient, or nil for
// immediate delivery. Emergency jobs are never deferred.
func (d *Dispatcher) delayFor(user *domain.User, job *domain.Job) *time.Time {
	if job.Immediate {
		return nil
	}
	now := d.clock.Now()
	if d.night.Contains(now) && user.OptOutNighttime {
		next := d.night.NextBusinessTime(now)
		return &next
	}
	return nil
}

// pushToUsers splits recipients into now/deferred groups and hands
// each group to the channel. Every dispatch attempt is logged before
// handoff.
func (d *Dispatcher) pushToUsers(ctx context.Context, job *domain.Job, typ Type, users []domain.User, msg string) {
	var now, deferred []domain.User
	var sendAfter *time.Time

	for i := range users {
		if !wantsPush(&users[i], job) {
			continue
		}
		if delay := d.delayFor(&users[i], job); delay != nil {
			deferred = append(deferred, users[i])
			sendAfter = delay
		} else {
			now = append(now, users[i])
		}
	}

	payload := PushPayload{
		JobID:     job.ID,
		Type:      typ,
		Message:   msg,
		Immediate: job.Immediate,
		Sound:     pushSound(typ, job),
	}

	d.logger.Info("Dispatching push",
		slog.String("job_id", job.ID),
		slog.String("notification_type", string(typ)),
		slog.Int("recipients_now", len(now)),
		slog.Int("recipients_deferred", len(deferred)),
	)

	if len(now) > 0 {
		if err := d.channel.SendPush(ctx, now, payload, nil); err != nil {
			d.logDeliveryFailure(job.ID, typ, err)
		}
	}
	if len(deferred) > 0 {
		if err := d.channel.SendPush(ctx, deferred, payload, sendAfter); err != nil {
			d.logDeliveryFailure(job.ID, typ, err)
		}
	}
}

func pushSound(typ Type, job *domain.Job) string {
	if typ != TypeSuitableJob {
		return soundDefault
	}
	if job.Immediate {
		return soundEmergency
	}
	return soundNormal
}

func (d *Dispatcher) email(ctx context.Context, job *domain.Job, recipient, name, subject, template string, emailCtx EmailContext) {
	d.logger.Info("Dispatching email",
		slog.String("job_id", job.ID),
		slog.String("recipient", recipient),
		slog.String("template", template),
	)
	if err := d.channel.SendEmail(ctx, recipient, name, subject, template, emailCtx); err != nil {
		d.logDeliveryFailure(job.ID, Type(template), err)
	}
}

func (d *Dispatcher) logDeliveryFailure(jobID string, typ Type, err error) {
	d.logger.Error("Notification delivery failed",
		slog.String("job_id", jobID),
		slog.String("notification_type", string(typ)),
		slog.Any("error", fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)),
	)
}

// customerEmail resolves where booking mail for a job goes: the
// per-job override address wins over the account email.
func customerEmail(job *domain.Job, customer *domain.User) string {
	if job.UserEmail != "" {
		return job.UserEmail
	}
	return customer.Email
}

// BookingReceived confirms a stored booking to the customer.
func (d *Dispatcher) BookingReceived(ctx context.Context, job *domain.Job, customer *domain.User) {
	subject := fmt.Sprintf("We have received your interpretation booking #%s", job.ID)
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateJobCreated, EmailContext{
		"job_id": job.ID,
		"due":    job.Due.Format(dueFormat),
	})
}

// NotifySuitableTranslators pushes a new or reopened booking to every
// eligible translator except excludeID.
func (d *Dispatcher) NotifySuitableTranslators(ctx context.Context, job *domain.Job, translators []domain.User, excludeID string) {
	recipients := make([]domain.User, 0, len(translators))
	for _, tr := range translators {
		if tr.ID == excludeID {
			continue
		}
		recipients = append(recipients, tr)
	}
	d.pushToUsers(ctx, job, TypeSuitableJob, recipients, suitableJobText(job))
}

// AcceptedByTranslator tells the customer their booking has a
// translator, by email and push.
func (d *Dispatcher) AcceptedByTranslator(ctx context.Context, job *domain.Job, customer *domain.User) {
	subject := fmt.Sprintf("Confirmation - an interpreter accepted your booking (booking #%s)", job.ID)
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateJobAccepted, EmailContext{
		"job_id": job.ID,
		"due":    job.Due.Format(dueFormat),
	})
	d.pushToUsers(ctx, job, TypeJobAccepted, []domain.User{*customer}, acceptedText(job))
}

// SessionStartReminder reminds one party shortly before the session.
func (d *Dispatcher) SessionStartReminder(ctx context.Context, job *domain.Job, user *domain.User) {
	d.pushToUsers(ctx, job, TypeSessionStart, []domain.User{*user}, sessionReminderText(job))
}

// CancelledToTranslator tells the bound translator the customer
// withdrew.
func (d *Dispatcher) CancelledToTranslator(ctx context.Context, job *domain.Job, translator *domain.User) {
	d.pushToUsers(ctx, job, TypeJobCancelled, []domain.User{*translator}, cancelledForTranslatorText(job))
}

// TranslatorCancelled tells the customer their translator withdrew
// and a replacement search is running.
func (d *Dispatcher) TranslatorCancelled(ctx context.Context, job *domain.Job, customer *domain.User) {
	d.pushToUsers(ctx, job, TypeJobCancelled, []domain.User{*customer}, translatorCancelledText(job))
}

// Expired tells the customer nobody accepted in time.
func (d *Dispatcher) Expired(ctx context.Context, job *domain.Job, customer *domain.User) {
	d.pushToUsers(ctx, job, TypeJobExpired, []domain.User{*customer}, expiredText(job))
}

// Reopened confirms to the customer that their booking is open again.
func (d *Dispatcher) Reopened(ctx context.Context, job *domain.Job, customer *domain.User) {
	subject := fmt.Sprintf("We have reopened your booking of %s interpreter for booking #%s", job.FromLanguageID, job.ID)
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateReopened, EmailContext{
		"job_id": job.ID,
		"due":    job.Due.Format(dueFormat),
	})
}

// StatusChanged is the generic booking-status email to the customer.
func (d *Dispatcher) StatusChanged(ctx context.Context, job *domain.Job, customer *domain.User) {
	subject := fmt.Sprintf("Cancellation of booking #%s", job.ID)
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateStatusChanged, EmailContext{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// CancellationPair emails both parties about a withdrawn assigned
// booking.
func (d *Dispatcher) CancellationPair(ctx context.Context, job *domain.Job, customer, translator *domain.User) {
	subject := fmt.Sprintf("Information about cancelled interpretation for booking #%s", job.ID)
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateStatusChanged, EmailContext{
		"job_id": job.ID,
		"status": string(job.Status),
	})
	if translator != nil {
		d.email(ctx, job, translator.Email, translator.Name, subject, templateCancelTranslator, EmailContext{
			"job_id": job.ID,
			"status": string(job.Status),
		})
	}
}

// SessionEnded sends the invoice-context mail to the customer and the
// payroll-context mail to the translator.
func (d *Dispatcher) SessionEnded(ctx context.Context, job *domain.Job, customer, translator *domain.User) {
	subject := fmt.Sprintf("Information about finished interpretation for booking #%s", job.ID)
	session := sessionClock(job.SessionTime)

	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateSessionEnded, EmailContext{
		"job_id":       job.ID,
		"session_time": session,
		"for_text":     "invoice",
	})
	if translator != nil {
		d.email(ctx, job, translator.Email, translator.Name, subject, templateSessionEnded, EmailContext{
			"job_id":       job.ID,
			"session_time": session,
			"for_text":     "payroll",
		})
	}
}

// ChangedDate tells both parties the session time moved.
func (d *Dispatcher) ChangedDate(ctx context.Context, job *domain.Job, customer, translator *domain.User, oldDue time.Time) {
	subject := fmt.Sprintf("Notice of change to interpretation booking #%s", job.ID)
	emailCtx := EmailContext{
		"job_id":   job.ID,
		"old_time": oldDue.Format(dueFormat),
		"new_time": job.Due.Format(dueFormat),
	}
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateChangedDate, emailCtx)
	if translator != nil {
		d.email(ctx, job, translator.Email, translator.Name, subject, templateChangedDate, emailCtx)
	}
}

// ChangedLanguage tells both parties the booking language moved.
func (d *Dispatcher) ChangedLanguage(ctx context.Context, job *domain.Job, customer, translator *domain.User, oldLanguage string) {
	subject := fmt.Sprintf("Notice of change to interpretation booking #%s", job.ID)
	emailCtx := EmailContext{
		"job_id":   job.ID,
		"old_lang": oldLanguage,
		"new_lang": job.FromLanguageID,
	}
	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateChangedLang, emailCtx)
	if translator != nil {
		d.email(ctx, job, translator.Email, translator.Name, subject, templateChangedLang, emailCtx)
	}
}

// ChangedTranslator tells the customer, the displaced translator, and
// the incoming translator about a reassignment.
func (d *Dispatcher) ChangedTranslator(ctx context.Context, job *domain.Job, customer, oldTranslator, newTranslator *domain.User) {
	subject := fmt.Sprintf("Notice of interpreter assignment for booking #%s", job.ID)
	emailCtx := EmailContext{"job_id": job.ID}

	d.email(ctx, job, customerEmail(job, customer), customer.Name, subject, templateChangedTranslator, emailCtx)
	if oldTranslator != nil {
		d.email(ctx, job, oldTranslator.Email, oldTranslator.Name, subject, templateChangedTranslator, emailCtx)
	}
	if newTranslator != nil {
		d.email(ctx, job, newTranslator.Email, newTranslator.Name, subject, templateChangedTranslator, emailCtx)
	}
}

// SMSPotentialTranslators texts a booking solicitation to every
// candidate and returns how many were messaged.
func (d *Dispatcher) SMSPotentialTranslators(ctx context.Context, job *domain.Job, customerTown string, translators []domain.User) int {
	town := job.Town
	if town == "" {
		town = customerTown
	}
	message := smsJobText(job, town)

	sent := 0
	for i := range translators {
		d.logger.Info("Dispatching SMS",
			slog.String("job_id", job.ID),
			slog.String("recipient", translators[i].Email),
			slog.String("mobile", translators[i].Mobile),
		)
		if err := d.channel.SendSMS(ctx, translators[i], message); err != nil {
			d.logDeliveryFailure(job.ID, TypeSuitableJob, err)
			continue
		}
		sent++
	}
	return sent
}
