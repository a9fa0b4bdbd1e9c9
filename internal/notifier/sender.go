package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/notify"
)

// SenderConfig holds the delivery endpoints.
type SenderConfig struct {
	PushEndpoint   string
	SMSEndpoint    string
	EmailEndpoint  string
	EmailFrom      string
	RequestTimeout time.Duration
}

// Sender performs the actual egress: JSON POSTs to the push gateway,
// the SMS gateway, and the mail relay.
type Sender struct {
	config SenderConfig
	client *http.Client
	logger *slog.Logger
}

// NewSender creates a sender over the configured endpoints.
func NewSender(config SenderConfig, logger *slog.Logger) *Sender {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *Sender) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delivery endpoint %s returned status %d", endpoint, resp.StatusCode)
	}
	return nil
}

// SendPush posts the payload to the push gateway for every recipient
// in one request.
func (s *Sender) SendPush(ctx context.Context, recipients []notify.Recipient, payload notify.PushPayload) error {
	emails := make([]string, len(recipients))
	for i, r := range recipients {
		emails[i] = r.Email
	}

	s.logger.Debug("Posting push delivery",
		slog.String("notification_type", string(payload.Type)),
		slog.Int("recipients", len(recipients)),
	)

	return s.post(ctx, s.config.PushEndpoint, map[string]interface{}{
		"users": emails,
		"data":  payload,
	})
}

// SendSMS posts one text to the SMS gateway.
func (s *Sender) SendSMS(ctx context.Context, recipient notify.Recipient, message string) error {
	if recipient.Mobile == "" {
		s.logger.Warn("Skipping SMS to recipient without mobile",
			slog.String("recipient", recipient.Email),
		)
		return nil
	}

	return s.post(ctx, s.config.SMSEndpoint, map[string]string{
		"to":      recipient.Mobile,
		"message": message,
	})
}

// SendEmail posts one templated message to the mail relay.
func (s *Sender) SendEmail(ctx context.Context, recipient notify.Recipient, subject, template string, emailCtx notify.EmailContext) error {
	return s.post(ctx, s.config.EmailEndpoint, map[string]interface{}{
		"from":     s.config.EmailFrom,
		"to":       recipient.Email,
		"name":     recipient.Name,
		"subject":  subject,
		"template": template,
		"context":  emailCtx,
	})
}
