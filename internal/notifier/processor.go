package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tolkbridge/booking-be/internal/booking/notify"
)

// processDelivery performs a single delivery request. Deferred pushes
// are held until their send_after instant; the prefetch ceiling keeps
// the number of parked messages bounded.
func (n *Notifier) processDelivery(ctx context.Context, msg *deliveryMessage) error {
	req := msg.Request

	if len(req.Recipients) == 0 {
		return fmt.Errorf("%w: no recipients", ErrInvalidPayload)
	}

	if req.SendAfter != nil {
		if wait := time.Until(*req.SendAfter); wait > 0 {
			n.logger.Info("Holding deferred delivery",
				slog.String("kind", req.Kind),
				slog.Duration("wait", wait),
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return NewRetryableError(ctx.Err())
			}
		}
	}

	switch req.Kind {
	case notify.DeliveryPush:
		if req.Push == nil {
			return fmt.Errorf("%w: push request without payload", ErrInvalidPayload)
		}
		if err := n.sender.SendPush(ctx, req.Recipients, *req.Push); err != nil {
			return NewRetryableError(err)
		}

	case notify.DeliverySMS:
		if req.SMSBody == "" {
			return fmt.Errorf("%w: sms request without body", ErrInvalidPayload)
		}
		for _, recipient := range req.Recipients {
			if err := n.sender.SendSMS(ctx, recipient, req.SMSBody); err != nil {
				return NewRetryableError(err)
			}
		}

	case notify.DeliveryEmail:
		if req.Template == "" {
			return fmt.Errorf("%w: email request without template", ErrInvalidPayload)
		}
		for _, recipient := range req.Recipients {
			if err := n.sender.SendEmail(ctx, recipient, req.Subject, req.Template, req.Context); err != nil {
				return NewRetryableError(err)
			}
		}

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPayload, req.Kind)
	}

	n.logger.Info("Delivery completed",
		slog.String("kind", req.Kind),
		slog.Int("recipients", len(req.Recipients)),
	)
	return nil
}
