package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

type pushCall struct {
	recipients []domain.User
	payload    PushPayload
	sendAfter  *time.Time
}

type smsCall struct {
	recipient domain.User
	message   string
}

type emailCall struct {
	recipient string
	name      string
	subject   string
	template  string
	context   EmailContext
}

// fakeChannel records every delivery request.
type fakeChannel struct {
	pushes  []pushCall
	sms     []smsCall
	emails  []emailCall
	pushErr error
	smsErr  error
}

func (c *fakeChannel) SendPush(_ context.Context, recipients []domain.User, payload PushPayload, sendAfter *time.Time) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.pushes = append(c.pushes, pushCall{recipients: recipients, payload: payload, sendAfter: sendAfter})
	return nil
}

func (c *fakeChannel) SendSMS(_ context.Context, recipient domain.User, message string) error {
	if c.smsErr != nil {
		return c.smsErr
	}
	c.sms = append(c.sms, smsCall{recipient: recipient, message: message})
	return nil
}

func (c *fakeChannel) SendEmail(_ context.Context, recipient, name, subject, template string, emailCtx EmailContext) error {
	c.emails = append(c.emails, emailCall{
		recipient: recipient,
		name:      name,
		subject:   subject,
		template:  template,
		context:   emailCtx,
	})
	return nil
}

var daytime = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testDispatcher(channel Channel, now time.Time) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(channel, domain.FixedClock{T: now}, NightWindow{StartHour: 21, EndHour: 9}, logger)
}

func translatorNamed(id string) domain.User {
	return domain.User{ID: id, Email: id + "@tolk.se", Name: id, Mobile: "+4670000000"}
}

func TestNightWindowContains(t *testing.T) {
	w := NightWindow{StartHour: 21, EndHour: 9}
	tests := []struct {
		hour int
		want bool
	}{
		{20, false},
		{21, true},
		{23, true},
		{0, true},
		{8, true},
		{9, false},
		{12, false},
	}
	for _, tt := range tests {
		at := time.Date(2026, 3, 10, tt.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tt.want, w.Contains(at), "hour %d", tt.hour)
	}
}

func TestNightWindowNextBusinessTime(t *testing.T) {
	w := NightWindow{StartHour: 21, EndHour: 9}

	t.Run("daytime passes through", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
		assert.Equal(t, at, w.NextBusinessTime(at))
	})

	t.Run("evening rolls to the next morning", func(t *testing.T) {
		at := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
		want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, want, w.NextBusinessTime(at))
	})

	t.Run("early morning rolls to the same morning", func(t *testing.T) {
		at := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)
		want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, want, w.NextBusinessTime(at))
	})
}

func TestNotifySuitableTranslators(t *testing.T) {
	ctx := context.Background()
	job := &domain.Job{ID: "job-1", Duration: 60, Due: daytime.Add(48 * time.Hour)}

	t.Run("pushes to every candidate", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		d.NotifySuitableTranslators(ctx, job, []domain.User{
			translatorNamed("tr-1"),
			translatorNamed("tr-2"),
		}, "")

		require.Len(t, channel.pushes, 1)
		call := channel.pushes[0]
		assert.Len(t, call.recipients, 2)
		assert.Nil(t, call.sendAfter)
		assert.Equal(t, TypeSuitableJob, call.payload.Type)
		assert.Equal(t, "job-1", call.payload.JobID)
		assert.Equal(t, soundNormal, call.payload.Sound)
	})

	t.Run("excludes the named translator", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		d.NotifySuitableTranslators(ctx, job, []domain.User{
			translatorNamed("tr-1"),
			translatorNamed("tr-2"),
		}, "tr-1")

		require.Len(t, channel.pushes, 1)
		require.Len(t, channel.pushes[0].recipients, 1)
		assert.Equal(t, "tr-2", channel.pushes[0].recipients[0].ID)
	})

	t.Run("opted-out recipients are dropped", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		optedOut := translatorNamed("tr-1")
		optedOut.OptOutNotifications = true

		d.NotifySuitableTranslators(ctx, job, []domain.User{optedOut, translatorNamed("tr-2")}, "")

		require.Len(t, channel.pushes, 1)
		require.Len(t, channel.pushes[0].recipients, 1)
		assert.Equal(t, "tr-2", channel.pushes[0].recipients[0].ID)
	})

	t.Run("nobody left means no push at all", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		optedOut := translatorNamed("tr-1")
		optedOut.OptOutNotifications = true

		d.NotifySuitableTranslators(ctx, job, []domain.User{optedOut}, "")
		assert.Empty(t, channel.pushes)
	})

	t.Run("emergency bookings use the emergency sound", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		emergency := *job
		emergency.Immediate = true
		d.NotifySuitableTranslators(ctx, &emergency, []domain.User{translatorNamed("tr-1")}, "")

		require.Len(t, channel.pushes, 1)
		assert.Equal(t, soundEmergency, channel.pushes[0].payload.Sound)
		assert.True(t, channel.pushes[0].payload.Immediate)
	})

	t.Run("emergency opt-out skips emergency bookings only", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		tr := translatorNamed("tr-1")
		tr.OptOutEmergency = true

		emergency := *job
		emergency.Immediate = true
		d.NotifySuitableTranslators(ctx, &emergency, []domain.User{tr}, "")
		assert.Empty(t, channel.pushes)

		d.NotifySuitableTranslators(ctx, job, []domain.User{tr}, "")
		assert.Len(t, channel.pushes, 1)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		channel := &fakeChannel{pushErr: errors.New("broker down")}
		d := testDispatcher(channel, daytime)

		d.NotifySuitableTranslators(ctx, job, []domain.User{translatorNamed("tr-1")}, "")
		assert.Empty(t, channel.pushes)
	})
}

func TestNightDelay(t *testing.T) {
	ctx := context.Background()
	night := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	job := &domain.Job{ID: "job-1", Duration: 60, Due: night.Add(48 * time.Hour)}

	t.Run("night opt-outs are deferred to the morning", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, night)

		sleeper := translatorNamed("tr-1")
		sleeper.OptOutNighttime = true
		awake := translatorNamed("tr-2")

		d.NotifySuitableTranslators(ctx, job, []domain.User{sleeper, awake}, "")

		require.Len(t, channel.pushes, 2)
		immediate := channel.pushes[0]
		deferred := channel.pushes[1]

		assert.Nil(t, immediate.sendAfter)
		assert.Equal(t, "tr-2", immediate.recipients[0].ID)

		require.NotNil(t, deferred.sendAfter)
		assert.Equal(t, "tr-1", deferred.recipients[0].ID)
		want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, want, *deferred.sendAfter)
	})

	t.Run("emergency bookings bypass the night delay", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, night)

		sleeper := translatorNamed("tr-1")
		sleeper.OptOutNighttime = true

		emergency := *job
		emergency.Immediate = true
		d.NotifySuitableTranslators(ctx, &emergency, []domain.User{sleeper}, "")

		require.Len(t, channel.pushes, 1)
		assert.Nil(t, channel.pushes[0].sendAfter)
	})

	t.Run("daytime sends are never deferred", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		sleeper := translatorNamed("tr-1")
		sleeper.OptOutNighttime = true

		d.NotifySuitableTranslators(ctx, job, []domain.User{sleeper}, "")

		require.Len(t, channel.pushes, 1)
		assert.Nil(t, channel.pushes[0].sendAfter)
	})
}

func TestCustomerEmails(t *testing.T) {
	ctx := context.Background()
	job := &domain.Job{ID: "job-1", Due: daytime.Add(48 * time.Hour), FromLanguageID: "lang-sv"}
	customer := &domain.User{ID: "cust-1", Email: "account@tolk.se", Name: "Eva"}

	t.Run("booking confirmation goes to the account email", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		d.BookingReceived(ctx, job, customer)

		require.Len(t, channel.emails, 1)
		assert.Equal(t, "account@tolk.se", channel.emails[0].recipient)
		assert.Equal(t, "Eva", channel.emails[0].name)
		assert.Contains(t, channel.emails[0].subject, "job-1")
	})

	t.Run("per-booking email override wins", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		override := *job
		override.UserEmail = "dept@tolk.se"
		d.BookingReceived(ctx, &override, customer)

		require.Len(t, channel.emails, 1)
		assert.Equal(t, "dept@tolk.se", channel.emails[0].recipient)
	})

	t.Run("acceptance sends email and push to the customer", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		d.AcceptedByTranslator(ctx, job, customer)

		require.Len(t, channel.emails, 1)
		require.Len(t, channel.pushes, 1)
		assert.Equal(t, TypeJobAccepted, channel.pushes[0].payload.Type)
		assert.Equal(t, "cust-1", channel.pushes[0].recipients[0].ID)
	})

	t.Run("session ended mails both parties with distinct contexts", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		done := *job
		done.SessionTime = "1:30:00"
		translator := translatorNamed("tr-1")

		d.SessionEnded(ctx, &done, customer, &translator)

		require.Len(t, channel.emails, 2)
		assert.Equal(t, "invoice", channel.emails[0].context["for_text"])
		assert.Equal(t, "payroll", channel.emails[1].context["for_text"])
		assert.Equal(t, "1h 30min", channel.emails[0].context["session_time"])
	})

	t.Run("session ended without a translator mails the customer only", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		d.SessionEnded(ctx, job, customer, nil)
		assert.Len(t, channel.emails, 1)
	})

	t.Run("date change mails both parties with old and new time", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		translator := translatorNamed("tr-1")
		oldDue := job.Due.Add(-24 * time.Hour)
		d.ChangedDate(ctx, job, customer, &translator, oldDue)

		require.Len(t, channel.emails, 2)
		assert.NotEmpty(t, channel.emails[0].context["old_time"])
		assert.NotEqual(t, channel.emails[0].context["old_time"], channel.emails[0].context["new_time"])
	})

	t.Run("translator change mails all three parties", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		oldTr := translatorNamed("tr-old")
		newTr := translatorNamed("tr-new")
		d.ChangedTranslator(ctx, job, customer, &oldTr, &newTr)

		require.Len(t, channel.emails, 3)
		assert.Equal(t, "account@tolk.se", channel.emails[0].recipient)
		assert.Equal(t, "tr-old@tolk.se", channel.emails[1].recipient)
		assert.Equal(t, "tr-new@tolk.se", channel.emails[2].recipient)
	})
}

func TestSMSPotentialTranslators(t *testing.T) {
	ctx := context.Background()
	job := &domain.Job{
		ID:            "job-1",
		Due:           daytime.Add(48 * time.Hour),
		Duration:      90,
		CustomerPhone: true,
	}

	t.Run("counts successful sends", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		sent := d.SMSPotentialTranslators(ctx, job, "Stockholm", []domain.User{
			translatorNamed("tr-1"),
			translatorNamed("tr-2"),
		})

		assert.Equal(t, 2, sent)
		require.Len(t, channel.sms, 2)
		assert.Contains(t, channel.sms[0].message, "job-1")
	})

	t.Run("failures reduce the count", func(t *testing.T) {
		channel := &fakeChannel{smsErr: errors.New("gateway down")}
		d := testDispatcher(channel, daytime)

		sent := d.SMSPotentialTranslators(ctx, job, "Stockholm", []domain.User{translatorNamed("tr-1")})
		assert.Equal(t, 0, sent)
	})

	t.Run("on-site bookings name the town", func(t *testing.T) {
		channel := &fakeChannel{}
		d := testDispatcher(channel, daytime)

		onsite := *job
		onsite.CustomerPhone = false
		onsite.CustomerOnSite = true

		d.SMSPotentialTranslators(ctx, &onsite, "Uppsala", []domain.User{translatorNamed("tr-1")})
		require.Len(t, channel.sms, 1)
		assert.Contains(t, channel.sms[0].message, "Uppsala")
	})
}
