package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/domain"
)

// Delivery kinds on the notification queue.
const (
	DeliveryPush  = "push"
	DeliverySMS   = "sms"
	DeliveryEmail = "email"
)

// DeliveryRequest is the wire format handed to the notifier service
// over the queue. One request per channel send; the consumer fans a
// push request out to its recipient list itself.
type DeliveryRequest struct {
	Kind       string       `json:"kind"`
	Recipients []Recipient  `json:"recipients"`
	Push       *PushPayload `json:"push,omitempty"`
	SMSBody    string       `json:"sms_body,omitempty"`
	Subject    string       `json:"subject,omitempty"`
	Template   string       `json:"template,omitempty"`
	Context    EmailContext `json:"context,omitempty"`
	SendAfter  *time.Time   `json:"send_after,omitempty"`
}

// Recipient is the slice of a user a channel adapter needs.
type Recipient struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Mobile string `json:"mobile,omitempty"`
}

// Publisher is the queue producer the channel hands requests to.
// *rabbitmq.Client satisfies it.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// QueueChannel implements Channel by publishing delivery requests to
// the notification queue. Actual transport happens in the notifier
// service; the core only guarantees the request is enqueued once per
// triggering transition.
type QueueChannel struct {
	publisher Publisher
}

// NewQueueChannel creates a queue-backed channel adapter.
func NewQueueChannel(publisher Publisher) *QueueChannel {
	return &QueueChannel{publisher: publisher}
}

func (c *QueueChannel) publish(ctx context.Context, req DeliveryRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery request: %w", err)
	}
	if err := c.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue %s delivery: %w", req.Kind, err)
	}
	return nil
}

func toRecipients(users []domain.User) []Recipient {
	out := make([]Recipient, len(users))
	for i, u := range users {
		out[i] = Recipient{Email: u.Email, Name: u.Name, Mobile: u.Mobile}
	}
	return out
}

func (c *QueueChannel) SendPush(ctx context.Context, recipients []domain.User, payload PushPayload, sendAfter *time.Time) error {
	return c.publish(ctx, DeliveryRequest{
		Kind:       DeliveryPush,
		Recipients: toRecipients(recipients),
		Push:       &payload,
		SendAfter:  sendAfter,
	})
}

func (c *QueueChannel) SendSMS(ctx context.Context, recipient domain.User, message string) error {
	return c.publish(ctx, DeliveryRequest{
		Kind:       DeliverySMS,
		Recipients: toRecipients([]domain.User{recipient}),
		SMSBody:    message,
	})
}

func (c *QueueChannel) SendEmail(ctx context.Context, recipient, name, subject, template string, emailCtx EmailContext) error {
	return c.publish(ctx, DeliveryRequest{
		Kind:       DeliveryEmail,
		Recipients: []Recipient{{Email: recipient, Name: name}},
		Subject:    subject,
		Template:   template,
		Context:    emailCtx,
	})
}
